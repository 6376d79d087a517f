package impact

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/akmonengine/impact/actor"
	"github.com/akmonengine/impact/primer"
)

type MovementState int

const (
	MovementIdle MovementState = iota
	MovementForward
	MovementLeft
	MovementRight
	MovementJumping
	MovementFalling
)

func (s MovementState) String() string {
	switch s {
	case MovementIdle:
		return "idle"
	case MovementForward:
		return "forward"
	case MovementLeft:
		return "left"
	case MovementRight:
		return "right"
	case MovementJumping:
		return "jumping"
	case MovementFalling:
		return "falling"
	}
	return "unknown"
}

// CharacterController drives a dynamic body from walk and jump inputs.
// The body stands on a platform when a short ray cast straight down from its
// center hits a static body.
type CharacterController struct {
	Body     *actor.RigidBody
	Platform *actor.RigidBody

	MaxWalkSpeed     float64
	WalkAcceleration float64
	MaxJumpSpeed     float64
	// GroundProbe is how far below the body the ground ray reaches
	GroundProbe float64

	// Yaw rotates the inputs around +Y, in radians
	Yaw   float64
	State MovementState

	// x: strafe, y: jump, z: forward (-1) or backward (+1)
	control mgl64.Vec3
}

func NewCharacterController(body *actor.RigidBody) *CharacterController {
	return &CharacterController{
		Body:             body,
		MaxWalkSpeed:     4,
		WalkAcceleration: 30,
		MaxJumpSpeed:     5,
		GroundProbe:      0.1,
	}
}

func (c *CharacterController) OnGround() bool {
	return c.Platform != nil
}

// Jump is only taken into account when standing on a platform
func (c *CharacterController) Jump() {
	if c.OnGround() {
		c.control[1] = 1
		c.Platform = nil
	}
}

func (c *CharacterController) StopJump() { c.control[1] = 0 }

func (c *CharacterController) Rotate(r float64) { c.Yaw += r }

func (c *CharacterController) MoveForward()  { c.control[2] = -1 }
func (c *CharacterController) MoveBackward() { c.control[2] = 1 }
func (c *CharacterController) MoveLeft()     { c.control[0] = -1 }
func (c *CharacterController) MoveRight()    { c.control[0] = 1 }

func (c *CharacterController) StopForward()  { c.control[2] = 0 }
func (c *CharacterController) StopBackward() { c.control[2] = 0 }
func (c *CharacterController) StopLeft()     { c.control[0] = 0 }
func (c *CharacterController) StopRight()    { c.control[0] = 0 }

// Heading is the horizontal input direction in world space, or zero
func (c *CharacterController) Heading() mgl64.Vec3 {
	input := mgl64.Vec3{c.control.X(), 0, c.control.Z()}
	if input.LenSqr() == 0 {
		return mgl64.Vec3{}
	}

	return mgl64.QuatRotate(c.Yaw, mgl64.Vec3{0, 1, 0}).Rotate(input).Normalize()
}

// Update probes the ground among bodies, then applies the inputs to the
// body velocity. Call it once per frame before stepping the simulation.
func (c *CharacterController) Update(dt float64, bodies []*actor.RigidBody) {
	c.probeGround(bodies)

	velocity := c.Body.Velocity

	// walk: accelerate the horizontal velocity toward the target
	target := c.Heading().Mul(c.MaxWalkSpeed)
	horizontal := mgl64.Vec3{velocity.X(), 0, velocity.Z()}
	delta := target.Sub(horizontal)
	if step := c.WalkAcceleration * dt; delta.Len() > step {
		delta = delta.Normalize().Mul(step)
	}
	velocity = velocity.Add(delta)

	if c.control.Y() > 0 {
		velocity[1] = c.MaxJumpSpeed
		c.control[1] = 0
		c.Platform = nil
	}

	c.Body.Velocity = velocity
	c.updateMovementState()
}

func (c *CharacterController) probeGround(bodies []*actor.RigidBody) {
	center := c.Body.Shape.Center()
	halfHeight := center.Y() - c.Body.Shape.Bounds().Min.Y()

	hit, ok := RayCast(bodies, center, mgl64.Vec3{0, -1, 0}, halfHeight+c.GroundProbe, func(body *actor.RigidBody) bool {
		return body != c.Body && !body.IsDynamic() && !body.IsTrigger
	})

	// rising bodies leave their platform
	if !ok || c.Body.Velocity.Y() > primer.Epsilon {
		c.Platform = nil
		return
	}
	c.Platform = hit.Body
}

func (c *CharacterController) updateMovementState() {
	v := c.Body.Velocity

	switch {
	case v.Y() > primer.Epsilon && !c.OnGround():
		c.State = MovementJumping
	case v.Y() < -primer.Epsilon && !c.OnGround():
		c.State = MovementFalling
	case v.X()*v.X()+v.Z()*v.Z() > 0.01:
		switch {
		case math.Abs(c.control.Z()) > 0.3:
			c.State = MovementForward
		case c.control.X() > 0:
			c.State = MovementRight
		case c.control.X() < 0:
			c.State = MovementLeft
		}
	default:
		c.State = MovementIdle
	}
}

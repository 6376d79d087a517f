package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// BodyType represents the type of rigid body
type BodyType int

const (
	// BodyTypeDynamic bodies are affected by forces, gravity, and collisions
	// They have finite mass and can move freely
	BodyTypeDynamic BodyType = iota

	// BodyTypeStatic bodies are immovable and have infinite mass
	// They are not affected by forces or gravity (e.g., ground, walls)
	BodyTypeStatic
)

type Material struct {
	Restitution    float64 // 0= no rebound, 1= perfect restitution
	LinearDrag     float64 // drag force per unit velocity, typical: 0.02
	AngularDamping float64 // exponential decay rate, typical: 0.5
}

// DefaultMaterial is used by the body factories
func DefaultMaterial() Material {
	return Material{
		Restitution:    0.5,
		LinearDrag:     0.02,
		AngularDamping: 0.5,
	}
}

// RigidBody represents a rigid body in the physics simulation
type RigidBody struct {
	ID    uint32
	Shape Shape

	BodyType BodyType
	Material Material

	// IsTrigger bodies report contacts but are never resolved
	IsTrigger bool
	// Collides is set when the body took part in a contact during the last step
	Collides bool

	// Dynamic state, zero for static bodies
	InverseMass         float64
	InverseInertiaLocal mgl64.Mat3
	Velocity            mgl64.Vec3 // Linear velocity (m/s)
	AngularVelocity     mgl64.Vec3 // rad/s
}

// NewStaticBody creates an immovable body
func NewStaticBody(id uint32, shape Shape) *RigidBody {
	return &RigidBody{
		ID:       id,
		Shape:    shape,
		BodyType: BodyTypeStatic,
		Material: DefaultMaterial(),
	}
}

// NewDynamicBody creates a movable body; its inertia comes from the shape
func NewDynamicBody(id uint32, shape Shape, mass float64) *RigidBody {
	return NewDynamicBodyWithInertia(id, shape, mass, shape.ComputeInertia(mass))
}

func NewDynamicBodyWithInertia(id uint32, shape Shape, mass float64, inertia mgl64.Mat3) *RigidBody {
	rb := &RigidBody{
		ID:       id,
		Shape:    shape,
		BodyType: BodyTypeDynamic,
		Material: DefaultMaterial(),
	}

	if mass > 0 {
		rb.InverseMass = 1 / mass
	}
	if inertia.Det() != 0 {
		rb.InverseInertiaLocal = inertia.Inv()
	}

	return rb
}

func (rb *RigidBody) IsDynamic() bool {
	return rb.BodyType == BodyTypeDynamic
}

func (rb *RigidBody) Transform() *Transform {
	return rb.Shape.Transform()
}

func (rb *RigidBody) Position() mgl64.Vec3 {
	return rb.Transform().Translation()
}

// ApplyForces integrates gravity and drag into the velocities.
// terminalSpeed caps the downward speed; 0 disables the cap.
func (rb *RigidBody) ApplyForces(dt float64, gravity mgl64.Vec3, terminalSpeed float64) {
	if !rb.IsDynamic() {
		return
	}

	// ========== LINEAR ==========
	drag := rb.Velocity.Mul(-rb.Material.LinearDrag * rb.InverseMass)
	rb.Velocity = rb.Velocity.Add(gravity.Add(drag).Mul(dt))
	if terminalSpeed > 0 {
		rb.Velocity[1] = math.Max(rb.Velocity.Y(), -terminalSpeed)
	}

	// ========== ANGULAR DAMPING ==========
	rb.AngularVelocity = rb.AngularVelocity.Mul(math.Exp(-rb.Material.AngularDamping * dt))
}

// Forward advances position and orientation by dt
func (rb *RigidBody) Forward(dt float64) {
	if !rb.IsDynamic() {
		return
	}

	transform := rb.Transform()
	transform.ApplyTranslation(rb.Velocity.Mul(dt))

	if rb.AngularVelocity.LenSqr() > 0 {
		// q += 0.5 * ω * q * dt
		rotation := transform.Rotation()
		omega := mgl64.Quat{V: rb.AngularVelocity, W: 0}
		qDot := omega.Mul(rotation).Scale(0.5)
		transform.SetRotation(rotation.Add(qDot.Scale(dt)))
	}
}

// Backward undoes Forward for the same dt
func (rb *RigidBody) Backward(dt float64) {
	rb.Velocity = rb.Velocity.Mul(-1)
	rb.AngularVelocity = rb.AngularVelocity.Mul(-1)
	rb.Forward(dt)
	rb.Velocity = rb.Velocity.Mul(-1)
	rb.AngularVelocity = rb.AngularVelocity.Mul(-1)
}

// InverseInertiaWorld returns R * I_local^-1 * R^T
func (rb *RigidBody) InverseInertiaWorld() mgl64.Mat3 {
	if !rb.IsDynamic() {
		return mgl64.Mat3{}
	}

	R := rb.Transform().Rotation().Mat4().Mat3()
	return R.Mul3(rb.InverseInertiaLocal).Mul3(R.Transpose())
}

// ApplyImpulse changes the velocities by an impulse applied at offset r from the center
func (rb *RigidBody) ApplyImpulse(impulse, r mgl64.Vec3) {
	if !rb.IsDynamic() {
		return
	}

	rb.Velocity = rb.Velocity.Add(impulse.Mul(rb.InverseMass))
	rb.AngularVelocity = rb.AngularVelocity.Add(rb.InverseInertiaWorld().Mul3x1(r.Cross(impulse)))
}

// Translate moves the body without touching its velocity
func (rb *RigidBody) Translate(delta mgl64.Vec3) {
	if !rb.IsDynamic() {
		return
	}

	rb.Transform().ApplyTranslation(delta)
}

package impact

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/akmonengine/impact/actor"
)

func createCharacter(position mgl64.Vec3) (*CharacterController, []*actor.RigidBody) {
	floor := createFloor(0)
	body := createSphere(1, position, 0.5, actor.BodyTypeDynamic)

	return NewCharacterController(body), []*actor.RigidBody{floor, body}
}

func TestCharacterController_Ground(t *testing.T) {
	tests := []struct {
		name     string
		position mgl64.Vec3
		onGround bool
	}{
		{"standing", mgl64.Vec3{0, 0.5, 0}, true},
		{"within the probe", mgl64.Vec3{0, 0.55, 0}, true},
		{"in the air", mgl64.Vec3{0, 3, 0}, false},
		{"off the edge", mgl64.Vec3{25, 0.5, 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			character, bodies := createCharacter(tt.position)
			character.Update(0.01, bodies)

			if character.OnGround() != tt.onGround {
				t.Errorf("OnGround() = %v, want %v", character.OnGround(), tt.onGround)
			}
			if tt.onGround && character.Platform != bodies[0] {
				t.Error("platform should be the floor")
			}
		})
	}
}

func TestCharacterController_Jump(t *testing.T) {
	character, bodies := createCharacter(mgl64.Vec3{0, 0.5, 0})

	// not standing yet: ignored
	character.Jump()
	character.Update(0.01, bodies)
	if character.Body.Velocity.Y() != 0 {
		t.Fatalf("jump before the ground probe should be ignored, velocity %v", character.Body.Velocity)
	}
	if character.State != MovementIdle {
		t.Errorf("state = %v, want idle", character.State)
	}

	character.Jump()
	character.Update(0.01, bodies)

	if character.Body.Velocity.Y() != character.MaxJumpSpeed {
		t.Errorf("vertical velocity = %v, want %v", character.Body.Velocity.Y(), character.MaxJumpSpeed)
	}
	if character.OnGround() {
		t.Error("jumping character should leave the ground")
	}
	if character.State != MovementJumping {
		t.Errorf("state = %v, want jumping", character.State)
	}

	// the impulse is applied once
	character.Body.Velocity = mgl64.Vec3{0, -1, 0}
	character.Body.Transform().SetTranslation(mgl64.Vec3{0, 2, 0})
	character.Update(0.01, bodies)
	if character.State != MovementFalling {
		t.Errorf("state = %v, want falling", character.State)
	}
}

func TestCharacterController_Walk(t *testing.T) {
	tests := []struct {
		name     string
		yaw      float64
		move     func(c *CharacterController)
		heading  mgl64.Vec3
		expected MovementState
	}{
		{"forward", 0, (*CharacterController).MoveForward, mgl64.Vec3{0, 0, -1}, MovementForward},
		{"backward", 0, (*CharacterController).MoveBackward, mgl64.Vec3{0, 0, 1}, MovementForward},
		{"right", 0, (*CharacterController).MoveRight, mgl64.Vec3{1, 0, 0}, MovementRight},
		{"left", 0, (*CharacterController).MoveLeft, mgl64.Vec3{-1, 0, 0}, MovementLeft},
		{"forward turned left", math.Pi / 2, (*CharacterController).MoveForward, mgl64.Vec3{-1, 0, 0}, MovementForward},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			character, bodies := createCharacter(mgl64.Vec3{0, 0.5, 0})
			character.Rotate(tt.yaw)
			tt.move(character)

			if !vec3Equal(character.Heading(), tt.heading, 1e-9) {
				t.Errorf("heading = %v, want %v", character.Heading(), tt.heading)
			}

			// 30 m/s² for 0.1s stays under the 4 m/s cap
			character.Update(0.1, bodies)
			if !vec3Equal(character.Body.Velocity, tt.heading.Mul(3), 1e-9) {
				t.Errorf("velocity = %v, want %v", character.Body.Velocity, tt.heading.Mul(3))
			}
			if character.State != tt.expected {
				t.Errorf("state = %v, want %v", character.State, tt.expected)
			}

			// capped at MaxWalkSpeed
			character.Update(0.1, bodies)
			if math.Abs(character.Body.Velocity.Len()-character.MaxWalkSpeed) > 1e-9 {
				t.Errorf("speed = %v, want %v", character.Body.Velocity.Len(), character.MaxWalkSpeed)
			}
		})
	}
}

func TestCharacterController_Stop(t *testing.T) {
	character, bodies := createCharacter(mgl64.Vec3{0, 0.5, 0})
	character.MoveForward()
	character.MoveRight()
	character.StopForward()
	character.StopRight()

	if character.Heading() != (mgl64.Vec3{}) {
		t.Errorf("heading = %v, want zero", character.Heading())
	}

	character.Body.Velocity = mgl64.Vec3{2, 0, 0}
	character.Update(0.1, bodies)
	if character.Body.Velocity != (mgl64.Vec3{}) {
		t.Errorf("character should brake to a stop, velocity %v", character.Body.Velocity)
	}
	if character.State != MovementIdle {
		t.Errorf("state = %v, want idle", character.State)
	}
}

func TestMovementState_String(t *testing.T) {
	if MovementFalling.String() != "falling" || MovementState(42).String() != "unknown" {
		t.Error("unexpected movement state names")
	}
}

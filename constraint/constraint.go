package constraint

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/akmonengine/impact/actor"
)

type Constraint interface {
	SolvePosition()
	SolveVelocity()
}

// ComputeRestitution averages the restitution of both materials
func ComputeRestitution(matA, matB actor.Material) float64 {
	return (matA.Restitution + matB.Restitution) / 2.0
}

func clampSmallVelocities(rb *actor.RigidBody) {
	const velocityThreshold = 1e-5

	if rb.Velocity.Len() < velocityThreshold {
		rb.Velocity = mgl64.Vec3{0, 0, 0}
	}
	if rb.AngularVelocity.Len() < velocityThreshold {
		rb.AngularVelocity = mgl64.Vec3{0, 0, 0}
	}
}

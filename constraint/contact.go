package constraint

import "github.com/akmonengine/impact/actor"

const (
	// DenominatorEpsilon is the smallest impulse denominator still resolved.
	// Below it both bodies are effectively immovable along the normal.
	DenominatorEpsilon = 1e-9

	// PenetrationSlop is the depth left uncorrected by SolvePosition
	PenetrationSlop = 1e-8
)

// ContactConstraint resolves one collision between BodyA and BodyB, the
// collision normal pushing A away from B.
type ContactConstraint struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
	Collision

	Restitution float64
	// Impulse is the magnitude applied by the last SolveVelocity
	Impulse float64
}

func NewContactConstraint(bodyA, bodyB *actor.RigidBody, collision Collision) *ContactConstraint {
	return &ContactConstraint{
		BodyA:       bodyA,
		BodyB:       bodyB,
		Collision:   collision,
		Restitution: ComputeRestitution(bodyA.Material, bodyB.Material),
	}
}

// SolvePosition moves the bodies apart along the normal by the penetration
// depth, split evenly when both are dynamic.
func (c *ContactConstraint) SolvePosition() {
	if c.PenetrationDepth <= PenetrationSlop {
		return
	}

	bodyA := c.BodyA
	bodyB := c.BodyB

	shareA, shareB := 0.0, 0.0
	switch {
	case bodyA.IsDynamic() && bodyB.IsDynamic():
		shareA, shareB = 0.5, 0.5
	case bodyA.IsDynamic():
		shareA = 1
	case bodyB.IsDynamic():
		shareB = 1
	}

	correction := c.Separation()
	bodyA.Translate(correction.Mul(shareA))
	bodyB.Translate(correction.Mul(-shareB))
}

// SolveVelocity applies the restitution impulse
//
//	j = -(1+e) * dot(vrel, n) / (mA⁻¹ + mB⁻¹ + dot(n, (IA⁻¹(rA×n))×rA) + dot(n, (IB⁻¹(rB×n))×rB))
//
// to both bodies. Separating contacts and contacts whose denominator falls
// under DenominatorEpsilon are left untouched.
func (c *ContactConstraint) SolveVelocity() {
	c.Impulse = 0

	bodyA := c.BodyA
	bodyB := c.BodyB

	rA := c.ContactPoint.Sub(bodyA.Position())
	rB := c.ContactPoint.Sub(bodyB.Position())

	// ========== Velocities ==========
	vA := bodyA.Velocity.Add(bodyA.AngularVelocity.Cross(rA))
	vB := bodyB.Velocity.Add(bodyB.AngularVelocity.Cross(rB))
	normalVel := vA.Sub(vB).Dot(c.Normal)

	// Already separating
	if normalVel >= 0 {
		return
	}

	// ========== Effective mass ==========
	IAInv := bodyA.InverseInertiaWorld()
	IBInv := bodyB.InverseInertiaWorld()

	angularA := IAInv.Mul3x1(rA.Cross(c.Normal)).Cross(rA).Dot(c.Normal)
	angularB := IBInv.Mul3x1(rB.Cross(c.Normal)).Cross(rB).Dot(c.Normal)

	denominator := bodyA.InverseMass + bodyB.InverseMass + angularA + angularB
	if denominator < DenominatorEpsilon {
		return
	}

	j := -(1 + c.Restitution) * normalVel / denominator
	impulse := c.Normal.Mul(j)

	bodyA.ApplyImpulse(impulse, rA)
	bodyB.ApplyImpulse(impulse.Mul(-1), rB)
	c.Impulse = j

	clampSmallVelocities(bodyA)
	clampSmallVelocities(bodyB)
}

// Resolve runs SolvePosition then SolveVelocity
func (c *ContactConstraint) Resolve() {
	c.SolvePosition()
	c.SolveVelocity()
}

// NormalVelocity returns the relative velocity of A with respect to B at the
// contact point, along the normal. Negative values are approaching.
func (c *ContactConstraint) NormalVelocity() float64 {
	rA := c.ContactPoint.Sub(c.BodyA.Position())
	rB := c.ContactPoint.Sub(c.BodyB.Position())

	vA := c.BodyA.Velocity.Add(c.BodyA.AngularVelocity.Cross(rA))
	vB := c.BodyB.Velocity.Add(c.BodyB.AngularVelocity.Cross(rB))

	return vA.Sub(vB).Dot(c.Normal)
}

var _ Constraint = (*ContactConstraint)(nil)

package constraint

import "github.com/go-gl/mathgl/mgl64"

// Collision is the result of a narrow-phase query between two shapes A and B.
// Normal is a unit vector pushing A away from B, PenetrationDepth how far A
// must move along it to separate. A, B and C are the points of A's surface
// supporting the closest face of the Minkowski difference.
type Collision struct {
	ContactPoint     mgl64.Vec3
	Normal           mgl64.Vec3
	PenetrationDepth float64

	A, B, C mgl64.Vec3
}

// Separation returns the translation moving A out of B
func (c Collision) Separation() mgl64.Vec3 {
	return c.Normal.Mul(c.PenetrationDepth)
}

// Flip returns the same collision seen from B
func (c Collision) Flip() Collision {
	flipped := c
	flipped.Normal = c.Normal.Mul(-1)
	flipped.ContactPoint = c.ContactPoint.Sub(c.Separation())

	return flipped
}

package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/akmonengine/impact/primer"
)

// Capsule is the set of points within radius of the segment [a, b]. Without
// caps it is the open cylinder around the segment, with no hemispherical ends.
type Capsule struct {
	shape
	a      mgl64.Vec3
	b      mgl64.Vec3
	radius float64

	Caps bool
}

// NewCapsule creates a capped capsule around the local segment [a, b]
func NewCapsule(transform *Transform, a, b mgl64.Vec3, radius float64) *Capsule {
	return &Capsule{shape: shape{transform: transform}, a: a, b: b, radius: radius, Caps: true}
}

func (c *Capsule) Kind() ShapeKind {
	return ShapeKindCapsule
}

// Segment returns the world-space axis endpoints
func (c *Capsule) Segment() (mgl64.Vec3, mgl64.Vec3) {
	return c.transform.Apply(c.a), c.transform.Apply(c.b)
}

// Radius returns the world-space radius
func (c *Capsule) Radius() float64 {
	return scaledRadius(c.transform, c.radius)
}

func (c *Capsule) Center() mgl64.Vec3 {
	a, b := c.Segment()
	return a.Add(b).Mul(0.5)
}

func (c *Capsule) Support(direction mgl64.Vec3) mgl64.Vec3 {
	if direction.LenSqr() == 0 {
		direction = mgl64.Vec3{1, 0, 0}
	}

	a, b := c.Segment()
	end := a
	if b.Dot(direction) > a.Dot(direction) {
		end = b
	}

	offset := direction
	if !c.Caps {
		axis := b.Sub(a)
		if lenSq := axis.LenSqr(); lenSq > 0 {
			offset = direction.Sub(axis.Mul(direction.Dot(axis) / lenSq))
		}
		if offset.LenSqr() < 1e-18 {
			return end
		}
	}

	return end.Add(offset.Normalize().Mul(c.Radius()))
}

// ClosestPoint returns the point of the solid capsule nearest to p, which is p
// itself when p is inside. Without caps the ends are flat discs.
func (c *Capsule) ClosestPoint(p mgl64.Vec3) mgl64.Vec3 {
	a, b := c.Segment()
	r := c.Radius()
	axis := b.Sub(a)
	h := axis.Len()

	if c.Caps || h == 0 {
		onAxis := primer.ClosestPointOnSegment(p, a, b)
		offset := p.Sub(onAxis)
		if dist := offset.Len(); dist > r {
			return onAxis.Add(offset.Mul(r / dist))
		}
		return p
	}

	u := axis.Mul(1 / h)
	along := p.Sub(a).Dot(u)
	radial := p.Sub(a).Sub(u.Mul(along))
	if dist := radial.Len(); dist > r {
		radial = radial.Mul(r / dist)
	}

	return a.Add(u.Mul(mgl64.Clamp(along, 0, h))).Add(radial)
}

func (c *Capsule) Bounds() Bounds {
	a, b := c.Segment()
	r := c.Radius()
	radiusVec := mgl64.Vec3{r, r, r}

	min := mgl64.Vec3{math.Min(a.X(), b.X()), math.Min(a.Y(), b.Y()), math.Min(a.Z(), b.Z())}
	max := mgl64.Vec3{math.Max(a.X(), b.X()), math.Max(a.Y(), b.Y()), math.Max(a.Z(), b.Z())}

	return Bounds{Min: min.Sub(radiusVec), Max: max.Add(radiusVec)}
}

// ComputeInertia splits the mass between the cylinder and the two caps by volume
func (c *Capsule) ComputeInertia(mass float64) mgl64.Mat3 {
	axis := c.transform.Linear().Mul3x1(c.b.Sub(c.a))
	h := axis.Len()
	r := c.Radius()

	cylinderVolume := math.Pi * r * r * h
	capsVolume := 0.0
	if c.Caps {
		capsVolume = 4.0 / 3.0 * math.Pi * r * r * r
	}
	cylinderMass := mass * cylinderVolume / (cylinderVolume + capsVolume)
	capsMass := mass - cylinderMass

	axial := cylinderMass*r*r/2 + capsMass*2*r*r/5
	transverse := cylinderMass*(h*h/12+r*r/4) + capsMass*(2*r*r/5+h*h/4+3*h*r/8)

	// local axis, in the unrotated frame
	u := mgl64.Vec3{0, 1, 0}
	if local := c.b.Sub(c.a); local.LenSqr() > 0 {
		u = local.Normalize()
	}
	outer := mgl64.Mat3{
		u.X() * u.X(), u.Y() * u.X(), u.Z() * u.X(),
		u.X() * u.Y(), u.Y() * u.Y(), u.Z() * u.Y(),
		u.X() * u.Z(), u.Y() * u.Z(), u.Z() * u.Z(),
	}

	return mgl64.Ident3().Sub(outer).Mul(transverse).Add(outer.Mul(axial))
}

func (c *Capsule) RayIntersect(origin, direction mgl64.Vec3) (mgl64.Vec3, bool) {
	a, b := c.Segment()
	r := c.Radius()

	best := math.Inf(1)
	if c.Caps {
		for _, end := range []mgl64.Vec3{a, b} {
			if t, ok := raySphere(origin, direction, end, r); ok && t < best {
				best = t
			}
		}
	}

	axis := b.Sub(a)
	if h := axis.Len(); h > 0 {
		u := axis.Mul(1 / h)
		m := origin.Sub(a)
		dPerp := direction.Sub(u.Mul(direction.Dot(u)))
		mPerp := m.Sub(u.Mul(m.Dot(u)))

		qa := dPerp.Dot(dPerp)
		qb := mPerp.Dot(dPerp)
		qc := mPerp.Dot(mPerp) - r*r
		if discriminant := qb*qb - qa*qc; qa > 1e-18 && discriminant >= 0 {
			root := math.Sqrt(discriminant)
			for _, t := range []float64{(-qb - root) / qa, (-qb + root) / qa} {
				if t < 0 || t >= best {
					continue
				}
				if s := m.Add(direction.Mul(t)).Dot(u); s >= 0 && s <= h {
					best = t
					break
				}
			}
		}
	}

	if math.IsInf(best, 1) {
		return mgl64.Vec3{}, false
	}

	return origin.Add(direction.Mul(best)), true
}

package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Sphere is centered on its transform's translation. The radius is scaled by
// the transform's X scale.
type Sphere struct {
	shape
	radius float64
}

func NewSphere(transform *Transform, radius float64) *Sphere {
	return &Sphere{shape: shape{transform: transform}, radius: radius}
}

func (s *Sphere) Kind() ShapeKind {
	return ShapeKindSphere
}

// Radius returns the world-space radius
func (s *Sphere) Radius() float64 {
	return scaledRadius(s.transform, s.radius)
}

func (s *Sphere) Center() mgl64.Vec3 {
	return s.transform.Translation()
}

func (s *Sphere) Support(direction mgl64.Vec3) mgl64.Vec3 {
	if direction.LenSqr() == 0 {
		direction = mgl64.Vec3{1, 0, 0}
	}

	return s.Center().Add(direction.Normalize().Mul(s.Radius()))
}

func (s *Sphere) Bounds() Bounds {
	r := s.Radius()
	radiusVec := mgl64.Vec3{r, r, r}

	return Bounds{Min: s.Center().Sub(radiusVec), Max: s.Center().Add(radiusVec)}
}

func (s *Sphere) ComputeInertia(mass float64) mgl64.Mat3 {
	// I = (2/5) * m * r², identical on every axis
	i := (2.0 / 5.0) * mass * s.Radius() * s.Radius()

	return mgl64.Diag3(mgl64.Vec3{i, i, i})
}

func (s *Sphere) RayIntersect(origin, direction mgl64.Vec3) (mgl64.Vec3, bool) {
	t, ok := raySphere(origin, direction, s.Center(), s.Radius())
	if !ok {
		return mgl64.Vec3{}, false
	}

	return origin.Add(direction.Mul(t)), true
}

// raySphere returns the smallest t >= 0 with |origin + t*direction - center| = radius.
// A ray starting inside returns the exit distance.
func raySphere(origin, direction, center mgl64.Vec3, radius float64) (float64, bool) {
	m := origin.Sub(center)
	a := direction.Dot(direction)
	if a == 0 {
		return 0, false
	}
	b := m.Dot(direction)
	c := m.Dot(m) - radius*radius

	discriminant := b*b - a*c
	if discriminant < 0 {
		return 0, false
	}

	root := math.Sqrt(discriminant)
	t := (-b - root) / a
	if t < 0 {
		t = (-b + root) / a
	}
	if t < 0 {
		return 0, false
	}

	return t, true
}

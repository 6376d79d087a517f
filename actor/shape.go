package actor

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

// ShapeKind tags the concrete shape behind a Shape
type ShapeKind int

const (
	ShapeKindSphere ShapeKind = iota
	ShapeKindAABB
	ShapeKindCapsule
	ShapeKindPolygon
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeKindSphere:
		return "sphere"
	case ShapeKindAABB:
		return "aabb"
	case ShapeKindCapsule:
		return "capsule"
	case ShapeKindPolygon:
		return "polygon"
	}

	return "unknown"
}

// Shape is the closed set of collision shapes: *Sphere, *AABB, *Capsule and *Polygon.
type Shape interface {
	Kind() ShapeKind
	// Transform returns the referenced, not owned, transform
	Transform() *Transform
	SetTransform(transform *Transform)
	// Support returns the world-space point of the shape farthest along direction
	Support(direction mgl64.Vec3) mgl64.Vec3
	// Center returns the world-space center, used to seed search directions
	Center() mgl64.Vec3
	Bounds() Bounds
	ComputeInertia(mass float64) mgl64.Mat3
	// RayIntersect returns the first surface point hit by origin + t*direction, t >= 0
	RayIntersect(origin, direction mgl64.Vec3) (mgl64.Vec3, bool)
	// Simplified returns the cheaper proxy of this shape, or nil
	Simplified() Shape
	SetSimplified(simplified Shape)
}

// shape holds the state common to every Shape
type shape struct {
	transform  *Transform
	simplified Shape
}

func (s *shape) Transform() *Transform {
	return s.transform
}

// SetTransform rebinds the shape and its proxy chain
func (s *shape) SetTransform(transform *Transform) {
	s.transform = transform
	if s.simplified != nil {
		s.simplified.SetTransform(transform)
	}
}

func (s *shape) Simplified() Shape {
	return s.simplified
}

func (s *shape) SetSimplified(simplified Shape) {
	s.simplified = simplified
}

// Chain lists the proxies of s from the cheapest to s itself
func Chain(s Shape) []Shape {
	chain := []Shape{s}
	for proxy := s.Simplified(); proxy != nil; proxy = proxy.Simplified() {
		chain = append([]Shape{proxy}, chain...)
	}

	return chain
}

// Proxy returns the cheapest shape of the chain of s
func Proxy(s Shape) Shape {
	return Chain(s)[0]
}

// Test walks both proxy chains from cheap to exact and stops at the first
// level that does not intersect. Chains are aligned on their exact end, the
// shorter one repeating its cheapest proxy. Levels without an analytic test
// are skipped; if the exact level has none, Test reports true together with
// ErrNotImplemented so the caller can settle the pair with GJK/EPA.
func Test(a, b Shape) (bool, error) {
	chainA, chainB := Chain(a), Chain(b)
	levels := max(len(chainA), len(chainB))

	for level := 0; level < levels; level++ {
		proxyA := chainA[max(0, level-(levels-len(chainA)))]
		proxyB := chainB[max(0, level-(levels-len(chainB)))]

		hit, err := Intersects(proxyA, proxyB)
		if errors.Is(err, ErrNotImplemented) {
			if level == levels-1 {
				return true, err
			}
			continue
		}
		if !hit {
			return false, nil
		}
	}

	return true, nil
}

// BroadTest runs the analytic test on the cheapest proxies only. Pairs
// without an analytic test cannot be rejected and report true.
func BroadTest(a, b Shape) bool {
	hit, err := Intersects(Proxy(a), Proxy(b))
	if err != nil {
		return true
	}

	return hit
}

func scaledRadius(transform *Transform, radius float64) float64 {
	return radius * transform.Scale().X()
}

// Refresh rebuilds the lazily cached data of s and its proxies, so they can
// be read concurrently afterwards
func Refresh(s Shape) {
	for _, proxy := range Chain(s) {
		proxy.Transform().Model()
		proxy.Bounds()
	}
}

package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/akmonengine/impact/primer"
)

// ErrNotImplemented is returned for shape pairs without an analytic test;
// they must go through GJK/EPA.
var ErrNotImplemented = errors.New("no analytic intersection test")

type kindPair [2]ShapeKind

type intersectFunc func(a, b Shape) bool

var intersectTable = buildIntersectTable()

func buildIntersectTable() map[kindPair]intersectFunc {
	table := make(map[kindPair]intersectFunc)

	register(table, ShapeKindSphere, ShapeKindSphere, sphereSphere)
	register(table, ShapeKindAABB, ShapeKindAABB, aabbAABB)
	register(table, ShapeKindAABB, ShapeKindSphere, aabbSphere)
	register(table, ShapeKindCapsule, ShapeKindSphere, capsuleSphere)
	register(table, ShapeKindAABB, ShapeKindCapsule, aabbCapsule)
	register(table, ShapeKindCapsule, ShapeKindCapsule, capsuleCapsule)

	return table
}

// register adds fn for (kindA, kindB) and its mirror
func register[A, B Shape](table map[kindPair]intersectFunc, kindA, kindB ShapeKind, fn func(A, B) bool) {
	table[kindPair{kindA, kindB}] = func(a, b Shape) bool {
		return fn(a.(A), b.(B))
	}
	if kindA != kindB {
		table[kindPair{kindB, kindA}] = func(b, a Shape) bool {
			return fn(a.(A), b.(B))
		}
	}
}

// Supported reports whether the pair has an analytic test
func Supported(a, b ShapeKind) bool {
	_, ok := intersectTable[kindPair{a, b}]
	return ok
}

// Intersects runs the analytic test of the pair
func Intersects(a, b Shape) (bool, error) {
	fn, ok := intersectTable[kindPair{a.Kind(), b.Kind()}]
	if !ok {
		return false, errors.Wrapf(ErrNotImplemented, "%s/%s", a.Kind(), b.Kind())
	}

	return fn(a, b), nil
}

func sphereSphere(a, b *Sphere) bool {
	r := a.Radius() + b.Radius()
	return a.Center().Sub(b.Center()).LenSqr() <= r*r
}

func aabbAABB(a, b *AABB) bool {
	return a.Bounds().Overlaps(b.Bounds())
}

func aabbSphere(a *AABB, s *Sphere) bool {
	closest := a.Bounds().ClosestPoint(s.Center())
	return closest.Sub(s.Center()).LenSqr() <= s.Radius()*s.Radius()
}

func capsuleSphere(c *Capsule, s *Sphere) bool {
	closest := c.ClosestPoint(s.Center())
	return closest.Sub(s.Center()).LenSqr() <= s.Radius()*s.Radius()
}

// aabbCapsule alternates projections between the box and the capsule axis,
// starting from the box center. Uncapped capsules project on the solid
// cylinder instead, since the flat ends are not at radius from the axis.
func aabbCapsule(box *AABB, c *Capsule) bool {
	bounds := box.Bounds()
	if !c.Caps {
		return alternateProjections(bounds.ClosestPoint, c.ClosestPoint, bounds.Center())
	}

	a, b := c.Segment()
	r := c.Radius()

	onSegment := primer.ClosestPointOnSegment(bounds.Center(), a, b)
	for i := 0; i < 8; i++ {
		onBox := bounds.ClosestPoint(onSegment)
		if onBox.Sub(onSegment).LenSqr() <= r*r {
			return true
		}
		onSegment = primer.ClosestPointOnSegment(onBox, a, b)
	}

	return false
}

func capsuleCapsule(a, b *Capsule) bool {
	if !a.Caps || !b.Caps {
		return alternateProjections(a.ClosestPoint, b.ClosestPoint, a.Center())
	}

	a0, a1 := a.Segment()
	b0, b1 := b.Segment()
	pa, pb := primer.ClosestPointsSegmentSegment(a0, a1, b0, b1)
	r := a.Radius() + b.Radius()

	return pa.Sub(pb).LenSqr() <= r*r
}

// alternateProjections projects back and forth between two convex solids,
// starting from the point of B nearest to start. The gap never grows: the
// solids overlap once it closes and are apart once it stops shrinking. A gap
// still shrinking after the last round reports an overlap, left to GJK.
func alternateProjections(onA, onB func(p mgl64.Vec3) mgl64.Vec3, start mgl64.Vec3) bool {
	const (
		rounds  = 32
		touch   = 1e-12
		stalled = 1e-6
	)

	pb := onB(start)
	gap := math.Inf(1)
	for i := 0; i < rounds; i++ {
		pa := onA(pb)
		next := pa.Sub(pb).LenSqr()
		if next <= touch {
			return true
		}
		if next >= gap*(1-stalled) {
			return false
		}
		gap = next
		pb = onB(pa)
	}

	return true
}

// Package primer holds the small geometric predicates shared by the hull,
// shape and collision packages: orientation and sign tests, point-in-triangle
// checks, barycentric coordinates, extreme point searches and segment
// closest points.
package primer

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/samber/lo"
)

// Epsilon is the nudge applied to exactly-zero components and the default
// tolerance used for vertex equality.
const Epsilon = 1e-5

// Sign returns the z component of (p1-p3)x(p2-p3), projected on the XY plane.
func Sign(p1, p2, p3 mgl64.Vec3) float64 {
	return (p1.X()-p3.X())*(p2.Y()-p3.Y()) - (p2.X()-p3.X())*(p1.Y()-p3.Y())
}

// PointInTriangle2D reports whether pt lies inside triangle (v1, v2, v3) on the XY plane.
// Points on an edge are considered inside.
func PointInTriangle2D(pt, v1, v2, v3 mgl64.Vec3) bool {
	d1 := Sign(pt, v1, v2)
	d2 := Sign(pt, v2, v3)
	d3 := Sign(pt, v3, v1)

	hasNeg := d1 < 0 || d2 < 0 || d3 < 0
	hasPos := d1 > 0 || d2 > 0 || d3 > 0

	return !(hasNeg && hasPos)
}

// PointInTriangle reports whether pt, assumed to lie on the plane of (a, b, c),
// is inside the triangle.
func PointInTriangle(pt, a, b, c mgl64.Vec3) bool {
	a = a.Sub(pt)
	b = b.Sub(pt)
	c = c.Sub(pt)

	u := b.Cross(c)
	v := c.Cross(a)
	w := a.Cross(b)

	if u.Dot(v) < 0 {
		return false
	}
	return u.Dot(w) >= 0
}

// Barycentric returns the barycentric coordinates of p relative to triangle (a, b, c).
// The second result is false when the triangle is degenerate.
func Barycentric(p, a, b, c mgl64.Vec3) (mgl64.Vec3, bool) {
	v0 := b.Sub(a)
	v1 := c.Sub(a)
	v2 := p.Sub(a)

	d00 := v0.Dot(v0)
	d01 := v0.Dot(v1)
	d11 := v1.Dot(v1)
	d20 := v2.Dot(v0)
	d21 := v2.Dot(v1)

	denom := d00*d11 - d01*d01
	if math.Abs(denom) < 1e-18 {
		return mgl64.Vec3{}, false
	}

	v := (d11*d20 - d01*d21) / denom
	w := (d00*d21 - d01*d20) / denom

	return mgl64.Vec3{1 - v - w, v, w}, true
}

// IsSameVertex compares two positions component-wise within Epsilon.
func IsSameVertex(a, b mgl64.Vec3) bool {
	return math.Abs(a.X()-b.X()) < Epsilon &&
		math.Abs(a.Y()-b.Y()) < Epsilon &&
		math.Abs(a.Z()-b.Z()) < Epsilon
}

// ContainsVertex reports whether points holds a position equal to v within Epsilon.
func ContainsVertex(points []mgl64.Vec3, v mgl64.Vec3) bool {
	return lo.ContainsBy(points, func(p mgl64.Vec3) bool {
		return IsSameVertex(p, v)
	})
}

// UniqueVertices drops the positions that repeat an earlier one within Epsilon.
func UniqueVertices(points []mgl64.Vec3) []mgl64.Vec3 {
	unique := make([]mgl64.Vec3, 0, len(points))
	for _, p := range points {
		if !ContainsVertex(unique, p) {
			unique = append(unique, p)
		}
	}

	return unique
}

// ExtremePoints returns the component-wise minimum and maximum of points.
func ExtremePoints(points []mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	if len(points) == 0 {
		return mgl64.Vec3{}, mgl64.Vec3{}
	}

	low, high := points[0], points[0]
	for _, p := range points[1:] {
		for i := 0; i < 3; i++ {
			low[i] = math.Min(low[i], p[i])
			high[i] = math.Max(high[i], p[i])
		}
	}

	return low, high
}

// BoundingBoxCorners returns the 8 corners of the axis-aligned box enclosing points.
func BoundingBoxCorners(points []mgl64.Vec3) [8]mgl64.Vec3 {
	min, max := ExtremePoints(points)

	return [8]mgl64.Vec3{
		{min.X(), min.Y(), min.Z()},
		{max.X(), min.Y(), min.Z()},
		{min.X(), max.Y(), min.Z()},
		{max.X(), max.Y(), min.Z()},
		{min.X(), min.Y(), max.Z()},
		{max.X(), min.Y(), max.Z()},
		{min.X(), max.Y(), max.Z()},
		{max.X(), max.Y(), max.Z()},
	}
}

// IndexAlongDirection returns the index of the point with the largest projection
// on direction, or -1 for an empty slice. Ties keep the first index.
func IndexAlongDirection(points []mgl64.Vec3, direction mgl64.Vec3) int {
	best := -1
	bestDot := math.Inf(-1)
	for i, p := range points {
		if d := p.Dot(direction); d > bestDot {
			bestDot = d
			best = i
		}
	}

	return best
}

// NudgeZero replaces exactly-zero X and Y components with Epsilon.
func NudgeZero(v mgl64.Vec3) mgl64.Vec3 {
	if v.X() == 0 {
		v[0] = Epsilon
	}
	if v.Y() == 0 {
		v[1] = Epsilon
	}

	return v
}

// ClosestPointOnSegment projects p onto segment [a, b].
func ClosestPointOnSegment(p, a, b mgl64.Vec3) mgl64.Vec3 {
	ab := b.Sub(a)
	lenSq := ab.LenSqr()
	if lenSq < 1e-18 {
		return a
	}

	t := mgl64.Clamp(p.Sub(a).Dot(ab)/lenSq, 0, 1)
	return a.Add(ab.Mul(t))
}

// ClosestPointsSegmentSegment returns the closest points between segments
// [p1, q1] and [p2, q2].
func ClosestPointsSegmentSegment(p1, q1, p2, q2 mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	d1 := q1.Sub(p1)
	d2 := q2.Sub(p2)
	r := p1.Sub(p2)
	a := d1.Dot(d1)
	e := d2.Dot(d2)
	f := d2.Dot(r)

	const eps = 1e-18
	var s, t float64

	switch {
	case a <= eps && e <= eps:
		return p1, p2
	case a <= eps:
		t = mgl64.Clamp(f/e, 0, 1)
	default:
		c := d1.Dot(r)
		if e <= eps {
			s = mgl64.Clamp(-c/a, 0, 1)
		} else {
			b := d1.Dot(d2)
			denom := a*e - b*b
			if denom > eps {
				s = mgl64.Clamp((b*f-c*e)/denom, 0, 1)
			}
			t = (b*s + f) / e
			if t < 0 {
				t = 0
				s = mgl64.Clamp(-c/a, 0, 1)
			} else if t > 1 {
				t = 1
				s = mgl64.Clamp((b-c)/a, 0, 1)
			}
		}
	}

	return p1.Add(d1.Mul(s)), p2.Add(d2.Mul(t))
}

// Perpendicular returns a unit vector orthogonal to v.
func Perpendicular(v mgl64.Vec3) mgl64.Vec3 {
	// cross with the axis least aligned with v
	ax, ay, az := math.Abs(v.X()), math.Abs(v.Y()), math.Abs(v.Z())
	axis := mgl64.Vec3{0, 0, 1}
	switch {
	case ax <= ay && ax <= az:
		axis = mgl64.Vec3{1, 0, 0}
	case ay <= az:
		axis = mgl64.Vec3{0, 1, 0}
	}

	return v.Cross(axis).Normalize()
}

// DirectionToQuat returns the rotation taking the -Z axis onto direction.
func DirectionToQuat(direction mgl64.Vec3) mgl64.Quat {
	return mgl64.QuatBetweenVectors(mgl64.Vec3{0, 0, -1}, direction.Normalize())
}

// QuatToDirection rotates the -Z axis by q.
func QuatToDirection(q mgl64.Quat) mgl64.Vec3 {
	return q.Rotate(mgl64.Vec3{0, 0, -1})
}

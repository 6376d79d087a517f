// Package gjk implements the Gilbert-Johnson-Keerthi (GJK) algorithm for collision detection.
//
// GJK detects whether two convex shapes overlap by testing if their Minkowski difference
// contains the origin. The algorithm builds a simplex incrementally, converging toward
// the origin in typically 3-6 iterations.
//
// Two modes share the support machinery: Volumetric works in 3D and ends on a
// tetrahedron enclosing the origin; Planar works on the XY plane and ends on a
// triangle enclosing the origin.
//
// References:
//   - Gilbert, Johnson, Keerthi: "A Fast Procedure for Computing the Distance Between
//     Complex Objects in Three-Dimensional Space" (1988)
//   - Van den Bergen: "Collision Detection in Interactive 3D Environments" (2003)
package gjk

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/akmonengine/impact/actor"
	"github.com/akmonengine/impact/primer"
)

// MaxIterations bounds the refinement loop; hitting it reports no collision.
const MaxIterations = 64

// Mode selects the dimension GJK works in
type Mode int

const (
	Volumetric Mode = iota
	Planar
)

func (m Mode) String() string {
	if m == Planar {
		return "planar"
	}
	return "volumetric"
}

// SupportPoint is a vertex of the Minkowski difference together with the
// point of A it came from, which EPA uses to locate the contact.
type SupportPoint struct {
	Point    mgl64.Vec3
	SupportA mgl64.Vec3
}

// Simplex represents a set of 1-4 points in the Minkowski difference space.
// The simplex evolves during GJK iterations, always containing the most recent support points.
// Size progression: 1 point → 2 points (line) → 3 points (triangle) → 4 points (tetrahedron)
// The most recent point is always last.
type Simplex struct {
	Points [4]SupportPoint
	Count  int

	// Iterations counts the support queries of the last run
	Iterations int
}

func (s *Simplex) Reset() {
	s.Count = 0
	s.Iterations = 0
}

func (s *Simplex) set(points ...SupportPoint) {
	s.Count = copy(s.Points[:], points)
}

func (s *Simplex) push(p SupportPoint) {
	s.Points[s.Count] = p
	s.Count++
}

var SimplexPool = sync.Pool{
	New: func() interface{} {
		return &Simplex{}
	},
}

// MinkowskiSupport computes a support point in the Minkowski difference (A - B):
// furthestPoint(A, direction) - furthestPoint(B, -direction).
//
// This is the fundamental query that makes GJK work for any convex shape - shapes only
// need to implement a Support() function, not expose their full geometry.
func MinkowskiSupport(a, b actor.Shape, direction mgl64.Vec3) mgl64.Vec3 {
	return Support(a, b, direction).Point
}

// Support is MinkowskiSupport keeping the witness on A. Exactly-zero X or Y
// components of the difference are nudged by primer.Epsilon so later cross
// products do not vanish.
func Support(a, b actor.Shape, direction mgl64.Vec3) SupportPoint {
	supportA := a.Support(direction)
	supportB := b.Support(direction.Mul(-1))

	return SupportPoint{
		Point:    primer.NudgeZero(supportA.Sub(supportB)),
		SupportA: supportA,
	}
}

// Query runs GJK in the given mode
func Query(mode Mode, a, b actor.Shape, simplex *Simplex, direction mgl64.Vec3) bool {
	if mode == Planar {
		return GJK2D(a, b, simplex, direction)
	}
	return GJK(a, b, simplex, direction)
}

// GJK performs collision detection between two convex shapes.
//
// Algorithm overview:
//  1. Start with the given search direction (usually from A toward B)
//  2. Get first support point in Minkowski difference
//  3. Iteratively refine simplex toward origin
//  4. If origin is contained → collision
//  5. If can't reach origin → no collision
//
// The simplex is modified in place. On collision it is a tetrahedron
// containing the origin, which EPA uses as its initial polytope.
func GJK(a, b actor.Shape, simplex *Simplex, direction mgl64.Vec3) bool {
	simplex.Reset()
	if direction.LenSqr() < 1e-16 {
		direction = mgl64.Vec3{1, 0, 0}
	}

	// Get first point of the simplex in the Minkowski difference
	simplex.push(Support(a, b, direction))
	simplex.Iterations = 1

	// New direction towards the origin from this first point
	direction = simplex.Points[0].Point.Mul(-1)

	for i := 0; i < MaxIterations; i++ {
		newPoint := Support(a, b, direction)
		simplex.Iterations++

		// Early exit test: If the new point doesn't pass the origin in the search direction,
		// the origin cannot be reached, therefore no collision.
		if newPoint.Point.Dot(direction) <= 0 {
			return false
		}

		simplex.push(newPoint)

		// Reduce the simplex to its feature closest to the origin and pick
		// the next search direction
		if containsOrigin(simplex, &direction) {
			return true
		}
	}

	return false
}

func containsOrigin(simplex *Simplex, direction *mgl64.Vec3) bool {
	switch simplex.Count {
	case 2:
		return line(simplex, direction)
	case 3:
		return triangle(simplex, direction)
	case 4:
		return tetrahedron(simplex, direction)
	}
	return false
}

// line handles the 2-point simplex: the origin is either beyond A or
// alongside segment AB.
func line(simplex *Simplex, direction *mgl64.Vec3) bool {
	a := simplex.Points[1]
	b := simplex.Points[0]
	ab := b.Point.Sub(a.Point)
	ao := a.Point.Mul(-1)

	// Handle degenerate case: identical points
	if ab.LenSqr() < 1e-16 {
		simplex.set(a)
		*direction = ao
		return false
	}

	// Origin is closest to A alone
	if ab.Dot(ao) <= 0 {
		simplex.set(a)
		*direction = ao
		return false
	}

	abPerp := ab.Cross(ao).Cross(ab)
	if abPerp.LenSqr() < 1e-20 {
		// origin on the segment: search off the line to grow a volume around it
		*direction = primer.Perpendicular(ab)
		return false
	}

	*direction = abPerp
	return false
}

// triangle handles the 3-point simplex. Collinear points fall back to the
// line case.
func triangle(simplex *Simplex, direction *mgl64.Vec3) bool {
	a := simplex.Points[2] // Most recent point
	b := simplex.Points[1]
	c := simplex.Points[0]

	ab := b.Point.Sub(a.Point)
	ac := c.Point.Sub(a.Point)
	ao := a.Point.Mul(-1)

	abc := ab.Cross(ac) // Triangle normal

	if abc.LenSqr() < 1e-10 {
		simplex.set(b, a)
		return line(simplex, direction)
	}

	// Region AB (edge)
	if ab.Cross(abc).Dot(ao) > 0 {
		simplex.set(b, a)
		*direction = ab.Cross(ao).Cross(ab)
		return false
	}

	// Region AC (edge)
	if abc.Cross(ac).Dot(ao) > 0 {
		simplex.set(c, a)
		*direction = ac.Cross(ao).Cross(ac)
		return false
	}

	// Origin is above or below the triangle
	if abc.Dot(ao) > 0 {
		*direction = abc
	} else {
		// Below, reverse order to maintain correct orientation
		simplex.set(b, c, a)
		*direction = abc.Mul(-1)
	}

	return false
}

// tetrahedron handles the 4-point simplex, the only case that can report a
// collision. Face normals point away from the opposite vertex; the face
// opposite A was already tested when A was searched for.
func tetrahedron(simplex *Simplex, direction *mgl64.Vec3) bool {
	a := simplex.Points[3] // Most recent point
	b := simplex.Points[2]
	c := simplex.Points[1]
	d := simplex.Points[0]

	ab := b.Point.Sub(a.Point)
	ac := c.Point.Sub(a.Point)
	ad := d.Point.Sub(a.Point)
	ao := a.Point.Mul(-1)

	// flat tetrahedron: keep the newest face and search off its plane
	if volume := ab.Dot(ac.Cross(ad)); volume*volume < 1e-20 {
		simplex.set(c, b, a)
		return triangle(simplex, direction)
	}

	// Face ABC (opposite to D)
	abc := ab.Cross(ac)
	if abc.Dot(ad) > 0 {
		abc = abc.Mul(-1)
	}

	// Face ACD (opposite to B)
	acd := ac.Cross(ad)
	if acd.Dot(ab) > 0 {
		acd = acd.Mul(-1)
	}

	// Face ADB (opposite to C)
	adb := ad.Cross(ab)
	if adb.Dot(ac) > 0 {
		adb = adb.Mul(-1)
	}

	if abc.Dot(ao) > 0 {
		simplex.set(c, b, a)
		return triangle(simplex, direction)
	}

	if acd.Dot(ao) > 0 {
		simplex.set(d, c, a)
		return triangle(simplex, direction)
	}

	if adb.Dot(ao) > 0 {
		simplex.set(b, d, a)
		return triangle(simplex, direction)
	}

	// The origin is inside the tetrahedron
	return true
}

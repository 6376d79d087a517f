// Package epa implements the Expanding Polytope Algorithm for computing penetration depth.
//
// EPA is run after GJK detects a collision to determine:
//   - Penetration depth (how far shapes overlap)
//   - Contact normal (direction to separate shapes)
//   - Contact point (where shapes touch)
//
// The algorithm expands a polytope (starting from GJK's final simplex) toward the
// boundary of the Minkowski difference, finding the face closest to the origin,
// which gives the Minimum Translation Vector (MTV) separating the shapes. The
// polytope is a hull.ConvexHull grown one support point at a time.
//
// References:
//   - Van den Bergen: "Proximity Queries and Penetration Depth Computation on 3D Game Objects" (2001)
package epa

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/akmonengine/impact/actor"
	"github.com/akmonengine/impact/constraint"
	"github.com/akmonengine/impact/gjk"
	"github.com/akmonengine/impact/hull"
	"github.com/akmonengine/impact/primer"
)

const (
	// MaxIterations limits polytope expansion to prevent infinite loops.
	MaxIterations = 64

	// Tolerance defines when EPA has converged: the support point along the
	// closest face normal is less than Tolerance beyond that face.
	Tolerance = 1e-5

	// MaxError is the largest remaining gap accepted once MaxIterations is
	// reached. Curved shapes rarely reach Tolerance within the bound.
	MaxError = 1e-3

	// NormalSnapThreshold is used to clamp nearly-zero normal components to exactly zero.
	// This helps with numerical stability and axis-aligned collisions.
	NormalSnapThreshold = 1e-8
)

var (
	ErrNotConverged      = errors.New("epa did not converge")
	ErrDegenerateSimplex = errors.New("simplex does not span a volume")
	ErrOriginOutside     = errors.New("origin is outside the polytope")
)

// EPA computes penetration depth and contact information for overlapping convex shapes.
//
// Algorithm overview:
//  1. Start with simplex from GJK (tetrahedron containing origin)
//  2. Build the initial hull from the simplex
//  3. Find face closest to origin
//  4. Get support point in face normal direction
//  5. If converged (new point doesn't improve distance) → done
//  6. Otherwise, expand the hull by adding the support point
//  7. Repeat from step 3
//
// The simplex is completed to a tetrahedron when GJK stopped short of one.
// The returned normal pushes A away from B and the penetration depth is
// always positive.
func EPA(a, b actor.Shape, simplex *gjk.Simplex) (constraint.Collision, error) {
	if err := completeSimplex(a, b, simplex); err != nil {
		return constraint.Collision{}, err
	}

	// Witnesses are looked up by vertex ID
	witnesses := make([]mgl64.Vec3, simplex.Count, simplex.Count+MaxIterations)
	vertices := make([]hull.Vertex, simplex.Count)
	for i := 0; i < simplex.Count; i++ {
		witnesses[i] = simplex.Points[i].SupportA
		vertices[i] = hull.Vertex{ID: i, Position: simplex.Points[i].Point}
	}

	polytope, err := hull.NewFromVertices(vertices)
	if err != nil {
		return constraint.Collision{}, errors.Wrap(ErrDegenerateSimplex, err.Error())
	}

	var face int
	var distance, gap float64

	for i := 0; i < MaxIterations; i++ {
		// Find the face closest to the origin: its normal and distance are the
		// current best MTV estimate
		face, distance = polytope.ClosestFace()
		if distance < -Tolerance {
			return constraint.Collision{}, errors.Wrapf(ErrOriginOutside, "closest face at %g", distance)
		}

		normal := polytope.Face(face).Normal
		support := gjk.Support(a, b, normal)
		gap = support.Point.Dot(normal) - distance

		// The new support point does not extend the polytope: this face lies on
		// the boundary of the Minkowski difference
		if gap < Tolerance {
			return collision(polytope, face, distance, witnesses), nil
		}

		witnesses = append(witnesses, support.SupportA)
		vertex := hull.Vertex{ID: len(witnesses) - 1, Position: support.Point}
		if !polytope.AddPointFrom(vertex, face) {
			// Numerically on the face: no better estimate is reachable
			return collision(polytope, face, distance, witnesses), nil
		}
	}

	face, distance = polytope.ClosestFace()
	normal := polytope.Face(face).Normal
	gap = gjk.MinkowskiSupport(a, b, normal).Dot(normal) - distance
	if gap < MaxError {
		return collision(polytope, face, distance, witnesses), nil
	}

	return constraint.Collision{}, errors.Wrapf(ErrNotConverged, "gap %g after %d iterations", gap, MaxIterations)
}

// collision builds the result from the closest face. The contact point is the
// projection of the origin on the face, mapped back onto A through the
// barycentric coordinates of the face's witnesses.
func collision(polytope *hull.ConvexHull, face int, distance float64, witnesses []mgl64.Vec3) constraint.Collision {
	f := polytope.Face(face)
	vertices := polytope.FaceVertices(face)
	wa, wb, wc := witnesses[vertices[0].ID], witnesses[vertices[1].ID], witnesses[vertices[2].ID]

	var contact mgl64.Vec3
	bary, ok := primer.Barycentric(f.Normal.Mul(distance), vertices[0].Position, vertices[1].Position, vertices[2].Position)
	if ok {
		contact = wa.Mul(bary[0]).Add(wb.Mul(bary[1])).Add(wc.Mul(bary[2]))
	} else {
		contact = wa.Add(wb).Add(wc).Mul(1.0 / 3.0)
	}

	return constraint.Collision{
		ContactPoint:     contact,
		Normal:           snapNormalToAxis(f.Normal.Mul(-1)),
		PenetrationDepth: math.Max(distance, 0),
		A:                wa,
		B:                wb,
		C:                wc,
	}
}

// completeSimplex grows simplex to four affinely independent points by
// searching along directions that leave its current span.
func completeSimplex(a, b actor.Shape, simplex *gjk.Simplex) error {
	if simplex.Count == 0 {
		simplex.Points[0] = gjk.Support(a, b, mgl64.Vec3{1, 0, 0})
		simplex.Count = 1
	}

	for simplex.Count < 4 {
		extended := false
		for _, direction := range searchDirections(simplex) {
			p := gjk.Support(a, b, direction)
			if extends(simplex, p.Point) {
				simplex.Points[simplex.Count] = p
				simplex.Count++
				extended = true
				break
			}
		}

		if !extended {
			return errors.Wrapf(ErrDegenerateSimplex, "stuck at %d points", simplex.Count)
		}
	}

	return nil
}

func searchDirections(simplex *gjk.Simplex) []mgl64.Vec3 {
	p := simplex.Points
	switch simplex.Count {
	case 1:
		return []mgl64.Vec3{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}}
	case 2:
		axis := p[1].Point.Sub(p[0].Point)
		u := primer.Perpendicular(axis)
		v := axis.Cross(u).Normalize()
		return []mgl64.Vec3{u, u.Mul(-1), v, v.Mul(-1)}
	default:
		n := p[1].Point.Sub(p[0].Point).Cross(p[2].Point.Sub(p[0].Point))
		return []mgl64.Vec3{n, n.Mul(-1)}
	}
}

// extends reports whether point lies farther than Tolerance from the affine
// span of the simplex.
func extends(simplex *gjk.Simplex, point mgl64.Vec3) bool {
	p := simplex.Points
	offset := point.Sub(p[0].Point)

	switch simplex.Count {
	case 1:
		return offset.Len() > Tolerance
	case 2:
		axis := p[1].Point.Sub(p[0].Point)
		if axis.LenSqr() == 0 {
			return offset.Len() > Tolerance
		}
		return offset.Cross(axis).Len()/axis.Len() > Tolerance
	default:
		n := p[1].Point.Sub(p[0].Point).Cross(p[2].Point.Sub(p[0].Point))
		if n.LenSqr() == 0 {
			return false
		}
		return math.Abs(offset.Dot(n.Normalize())) > Tolerance
	}
}

// snapNormalToAxis clamps nearly-zero components of a normal vector to exactly zero.
//
// This improves numerical stability for axis-aligned collisions (box on ground)
// by preventing tiny floating-point errors from causing jitter in tangent directions.
//
// Components with absolute value < NormalSnapThreshold are set to 0, then the
// vector is renormalized.
func snapNormalToAxis(normal mgl64.Vec3) mgl64.Vec3 {
	const threshold = NormalSnapThreshold

	x := normal[0]
	y := normal[1]
	z := normal[2]

	// Clamp tiny components to zero
	if math.Abs(x) < threshold {
		x = 0
	}
	if math.Abs(y) < threshold {
		y = 0
	}
	if math.Abs(z) < threshold {
		z = 0
	}

	clamped := mgl64.Vec3{x, y, z}

	length := clamped.Len()
	if length <= 1e-8 {
		// If all components were clamped to zero, return default
		return mgl64.Vec3{0, 1, 0}
	}

	return clamped.Mul(1.0 / length)
}

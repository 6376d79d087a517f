package epa

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/akmonengine/impact/actor"
	"github.com/akmonengine/impact/constraint"
	"github.com/akmonengine/impact/gjk"
)

// EPA2D is the planar counterpart of EPA, expanding a polygon on the XY
// plane from the triangle left by gjk.GJK2D. A and B of the result are the
// witnesses of the closest edge; C repeats B.
func EPA2D(a, b actor.Shape, simplex *gjk.Simplex) (constraint.Collision, error) {
	if err := completeSimplex2D(a, b, simplex); err != nil {
		return constraint.Collision{}, err
	}

	polygon := make([]gjk.SupportPoint, simplex.Count, simplex.Count+MaxIterations)
	copy(polygon, simplex.Points[:simplex.Count])
	area := signedArea(polygon)
	if math.Abs(area) < 1e-12 {
		return constraint.Collision{}, errors.Wrap(ErrDegenerateSimplex, "triangle has no area")
	}
	if area < 0 {
		polygon[0], polygon[1] = polygon[1], polygon[0]
	}

	var edge int
	var normal mgl64.Vec3
	var distance, gap float64

	for i := 0; i < MaxIterations; i++ {
		edge, normal, distance = closestEdge(polygon)
		if distance < -Tolerance {
			return constraint.Collision{}, errors.Wrapf(ErrOriginOutside, "closest edge at %g", distance)
		}

		support := gjk.Support2D(a, b, normal)
		gap = support.Point.Dot(normal) - distance
		if gap < Tolerance {
			return edgeCollision(polygon, edge, normal, distance), nil
		}

		polygon = append(polygon[:edge+1], append([]gjk.SupportPoint{support}, polygon[edge+1:]...)...)
	}

	edge, normal, distance = closestEdge(polygon)
	gap = gjk.Support2D(a, b, normal).Point.Dot(normal) - distance
	if gap < MaxError {
		return edgeCollision(polygon, edge, normal, distance), nil
	}

	return constraint.Collision{}, errors.Wrapf(ErrNotConverged, "gap %g after %d iterations", gap, MaxIterations)
}

func signedArea(polygon []gjk.SupportPoint) float64 {
	area := 0.0
	for i := range polygon {
		p, q := polygon[i].Point, polygon[(i+1)%len(polygon)].Point
		area += p.X()*q.Y() - q.X()*p.Y()
	}

	return area / 2
}

// closestEdge returns the edge i -> i+1 nearest the origin with its outward
// normal, for a counter-clockwise polygon.
func closestEdge(polygon []gjk.SupportPoint) (int, mgl64.Vec3, float64) {
	best, bestNormal, bestDistance := 0, mgl64.Vec3{}, math.Inf(1)
	for i := range polygon {
		p, q := polygon[i].Point, polygon[(i+1)%len(polygon)].Point
		e := q.Sub(p)
		n := mgl64.Vec3{e.Y(), -e.X(), 0}
		if n.LenSqr() == 0 {
			continue
		}
		n = n.Normalize()

		if d := n.Dot(p); d < bestDistance {
			best, bestNormal, bestDistance = i, n, d
		}
	}

	return best, bestNormal, bestDistance
}

func edgeCollision(polygon []gjk.SupportPoint, edge int, normal mgl64.Vec3, distance float64) constraint.Collision {
	p, q := polygon[edge], polygon[(edge+1)%len(polygon)]

	// origin projected on the edge
	e := q.Point.Sub(p.Point)
	t := 0.5
	if length := e.LenSqr(); length > 0 {
		t = math.Min(math.Max(-p.Point.Dot(e)/length, 0), 1)
	}

	return constraint.Collision{
		ContactPoint:     p.SupportA.Add(q.SupportA.Sub(p.SupportA).Mul(t)),
		Normal:           snapNormalToAxis(normal.Mul(-1)),
		PenetrationDepth: math.Max(distance, 0),
		A:                p.SupportA,
		B:                q.SupportA,
		C:                q.SupportA,
	}
}

func completeSimplex2D(a, b actor.Shape, simplex *gjk.Simplex) error {
	if simplex.Count == 0 {
		simplex.Points[0] = gjk.Support2D(a, b, mgl64.Vec3{1, 0, 0})
		simplex.Count = 1
	}

	for simplex.Count < 3 {
		var directions []mgl64.Vec3
		if simplex.Count == 1 {
			directions = []mgl64.Vec3{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}}
		} else {
			axis := simplex.Points[1].Point.Sub(simplex.Points[0].Point)
			directions = []mgl64.Vec3{{-axis.Y(), axis.X(), 0}, {axis.Y(), -axis.X(), 0}}
		}

		extended := false
		for _, direction := range directions {
			p := gjk.Support2D(a, b, direction)
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

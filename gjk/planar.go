package gjk

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/akmonengine/impact/actor"
	"github.com/akmonengine/impact/primer"
)

// flatten drops the Z component
func flatten(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{v.X(), v.Y(), 0}
}

// Support2D is Support projected on the XY plane. The witness keeps its depth.
func Support2D(a, b actor.Shape, direction mgl64.Vec3) SupportPoint {
	p := Support(a, b, flatten(direction))
	p.Point = flatten(p.Point)

	return p
}

// tripleProduct returns (a x b) x c, the component of c perpendicular to a
// on the side of b when a == c.
func tripleProduct(a, b, c mgl64.Vec3) mgl64.Vec3 {
	return a.Cross(b).Cross(c)
}

// GJK2D is the planar variant: shapes are projected on the XY plane and the
// search ends on a triangle enclosing the origin.
func GJK2D(a, b actor.Shape, simplex *Simplex, direction mgl64.Vec3) bool {
	simplex.Reset()
	direction = flatten(direction)
	if direction.LenSqr() < 1e-16 {
		direction = mgl64.Vec3{1, 0, 0}
	}

	simplex.push(Support2D(a, b, direction))
	simplex.Iterations = 1
	direction = simplex.Points[0].Point.Mul(-1)

	for i := 0; i < MaxIterations; i++ {
		newPoint := Support2D(a, b, direction)
		simplex.Iterations++

		if newPoint.Point.Dot(direction) <= 0 {
			return false
		}

		simplex.push(newPoint)

		switch simplex.Count {
		case 2:
			line2D(simplex, &direction)
		case 3:
			if triangle2D(simplex, &direction) {
				return true
			}
		}
	}

	return false
}

func line2D(simplex *Simplex, direction *mgl64.Vec3) {
	a := simplex.Points[1]
	b := simplex.Points[0]
	ab := b.Point.Sub(a.Point)
	ao := a.Point.Mul(-1)

	if ab.LenSqr() < 1e-16 || ab.Dot(ao) <= 0 {
		simplex.set(a)
		*direction = ao
		return
	}

	perp := tripleProduct(ab, ao, ab)
	if perp.LenSqr() < 1e-20 {
		// origin on the segment: either in-plane normal works
		perp = mgl64.Vec3{-ab.Y(), ab.X(), 0}
	}
	*direction = perp
}

func triangle2D(simplex *Simplex, direction *mgl64.Vec3) bool {
	a := simplex.Points[2]
	b := simplex.Points[1]
	c := simplex.Points[0]

	ab := b.Point.Sub(a.Point)
	ac := c.Point.Sub(a.Point)
	ao := a.Point.Mul(-1)

	// collinear points
	if cross := ab.Cross(ac); cross.Z()*cross.Z() < 1e-20 {
		simplex.set(b, a)
		line2D(simplex, direction)
		return false
	}

	abPerp := tripleProduct(ac, ab, ab)
	if abPerp.Dot(ao) > 0 {
		simplex.set(b, a)
		*direction = abPerp
		return false
	}

	acPerp := tripleProduct(ab, ac, ac)
	if acPerp.Dot(ao) > 0 {
		simplex.set(c, a)
		*direction = acPerp
		return false
	}

	return primer.PointInTriangle2D(mgl64.Vec3{}, a.Point, b.Point, c.Point)
}

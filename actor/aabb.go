package actor

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/akmonengine/impact/primer"
)

// AABB is an axis-aligned box offset from its transform's translation. It
// ignores rotation and scale unless it is derived from a polygon, in which
// case its extents follow the polygon's rotated and scaled points and are
// recomputed on rotation version changes.
type AABB struct {
	shape
	min mgl64.Vec3
	max mgl64.Vec3

	polygon         *Polygon
	rotationVersion uint32
}

// NewAABB creates a box spanning translation+min to translation+max
func NewAABB(transform *Transform, min, max mgl64.Vec3) *AABB {
	return &AABB{shape: shape{transform: transform}, min: min, max: max}
}

// NewAABBFromPolygon creates the bounding box of a polygon and installs it
// as the polygon's simplified proxy.
func NewAABBFromPolygon(polygon *Polygon) *AABB {
	a := &AABB{shape: shape{transform: polygon.Transform()}, polygon: polygon}
	a.sync()
	polygon.SetSimplified(a)

	return a
}

func (a *AABB) Kind() ShapeKind {
	return ShapeKindAABB
}

func (a *AABB) sync() {
	if a.polygon == nil || a.rotationVersion == a.transform.RotationVersion() {
		return
	}

	linear := a.transform.Linear()
	rotated := make([]mgl64.Vec3, len(a.polygon.points))
	for i, p := range a.polygon.points {
		rotated[i] = linear.Mul3x1(p)
	}

	a.min, a.max = primer.ExtremePoints(rotated)
	a.rotationVersion = a.transform.RotationVersion()
}

// Min returns the world-space minimum corner
func (a *AABB) Min() mgl64.Vec3 {
	a.sync()
	return a.transform.Translation().Add(a.min)
}

// Max returns the world-space maximum corner
func (a *AABB) Max() mgl64.Vec3 {
	a.sync()
	return a.transform.Translation().Add(a.max)
}

func (a *AABB) Center() mgl64.Vec3 {
	return a.Min().Add(a.Max()).Mul(0.5)
}

func (a *AABB) Support(direction mgl64.Vec3) mgl64.Vec3 {
	min, max := a.Min(), a.Max()

	corner := max
	for i := 0; i < 3; i++ {
		if direction[i] < 0 {
			corner[i] = min[i]
		}
	}

	return corner
}

func (a *AABB) Bounds() Bounds {
	return Bounds{Min: a.Min(), Max: a.Max()}
}

func (a *AABB) ComputeInertia(mass float64) mgl64.Mat3 {
	a.sync()
	return boxInertia(mass, a.max.Sub(a.min))
}

func (a *AABB) RayIntersect(origin, direction mgl64.Vec3) (mgl64.Vec3, bool) {
	t, ok := a.Bounds().RayIntersect(origin, direction)
	if !ok {
		return mgl64.Vec3{}, false
	}

	return origin.Add(direction.Mul(t)), true
}

// boxInertia is the inertia of a solid box with full dimensions size
func boxInertia(mass float64, size mgl64.Vec3) mgl64.Mat3 {
	x, y, z := size.X(), size.Y(), size.Z()

	// I = (m/12) * (d1² + d2²)
	factor := mass / 12.0
	return mgl64.Diag3(mgl64.Vec3{
		factor * (y*y + z*z),
		factor * (x*x + z*z),
		factor * (x*x + y*y),
	})
}

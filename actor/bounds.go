package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Bounds is a world-space axis-aligned bounding box
type Bounds struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

// ContainsPoint checks if a point is inside the bounds
func (b Bounds) ContainsPoint(point mgl64.Vec3) bool {
	return point.X() >= b.Min.X() && point.X() <= b.Max.X() &&
		point.Y() >= b.Min.Y() && point.Y() <= b.Max.Y() &&
		point.Z() >= b.Min.Z() && point.Z() <= b.Max.Z()
}

// Overlaps checks if two bounds overlap
func (b Bounds) Overlaps(other Bounds) bool {
	// overlap on all three axes
	return b.Max.X() >= other.Min.X() && b.Min.X() <= other.Max.X() &&
		b.Max.Y() >= other.Min.Y() && b.Min.Y() <= other.Max.Y() &&
		b.Max.Z() >= other.Min.Z() && b.Min.Z() <= other.Max.Z()
}

// ClosestPoint clamps point into the bounds
func (b Bounds) ClosestPoint(point mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{
		mgl64.Clamp(point.X(), b.Min.X(), b.Max.X()),
		mgl64.Clamp(point.Y(), b.Min.Y(), b.Max.Y()),
		mgl64.Clamp(point.Z(), b.Min.Z(), b.Max.Z()),
	}
}

func (b Bounds) Center() mgl64.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Expand grows the bounds by margin on every side
func (b Bounds) Expand(margin float64) Bounds {
	m := mgl64.Vec3{margin, margin, margin}
	return Bounds{Min: b.Min.Sub(m), Max: b.Max.Add(m)}
}

// RayIntersect is the slab test; it returns the entry distance along direction.
// A ray starting inside reports distance 0.
func (b Bounds) RayIntersect(origin, direction mgl64.Vec3) (float64, bool) {
	tMin, tMax := 0.0, math.Inf(1)

	for i := 0; i < 3; i++ {
		if math.Abs(direction[i]) < 1e-12 {
			if origin[i] < b.Min[i] || origin[i] > b.Max[i] {
				return 0, false
			}
			continue
		}

		inv := 1.0 / direction[i]
		t1 := (b.Min[i] - origin[i]) * inv
		t2 := (b.Max[i] - origin[i]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}

		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return 0, false
		}
	}

	return tMin, true
}

package actor

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/akmonengine/impact/hull"
	"github.com/akmonengine/impact/primer"
)

// ErrEmptyPolygon is returned when a polygon is built without points
var ErrEmptyPolygon = errors.New("polygon needs at least one point")

// Polygon is the convex hull of a local point cloud. Its world-space points
// are cached and recomputed when the transform's model version changes.
type Polygon struct {
	shape
	points   []mgl64.Vec3
	centroid mgl64.Vec3

	transformed  []mgl64.Vec3
	modelVersion uint32

	hull *hull.ConvexHull
}

// NewPolygon keeps every point of the cloud. Flat clouds are allowed, which
// suits planar queries.
func NewPolygon(transform *Transform, points []mgl64.Vec3) (*Polygon, error) {
	if len(points) == 0 {
		return nil, ErrEmptyPolygon
	}

	p := &Polygon{shape: shape{transform: transform}, points: append([]mgl64.Vec3(nil), points...)}
	for _, point := range p.points {
		p.centroid = p.centroid.Add(point)
	}
	p.centroid = p.centroid.Mul(1 / float64(len(p.points)))

	return p, nil
}

// NewConvexPolygon builds the hull of the cloud first and keeps only its
// vertices. It fails on clouds too degenerate to enclose a volume.
func NewConvexPolygon(transform *Transform, points []mgl64.Vec3) (*Polygon, error) {
	h, err := hull.New(points)
	if err != nil {
		return nil, errors.Wrap(err, "building polygon hull")
	}

	p, err := NewPolygon(transform, h.UniquePoints())
	if err != nil {
		return nil, err
	}
	p.hull = h

	return p, nil
}

func (p *Polygon) Kind() ShapeKind {
	return ShapeKindPolygon
}

func (p *Polygon) sync() {
	if p.transformed != nil && p.modelVersion == p.transform.ModelVersion() {
		return
	}

	model := p.transform.Model()
	if p.transformed == nil {
		p.transformed = make([]mgl64.Vec3, len(p.points))
	}
	for i, point := range p.points {
		p.transformed[i] = model.Mul4x1(point.Vec4(1)).Vec3()
	}
	p.modelVersion = p.transform.ModelVersion()
}

// Points returns the local points
func (p *Polygon) Points() []mgl64.Vec3 {
	return p.points
}

// TransformedPoints returns the world-space points
func (p *Polygon) TransformedPoints() []mgl64.Vec3 {
	p.sync()
	return p.transformed
}

func (p *Polygon) Center() mgl64.Vec3 {
	return p.transform.Apply(p.centroid)
}

func (p *Polygon) Support(direction mgl64.Vec3) mgl64.Vec3 {
	points := p.TransformedPoints()
	return points[primer.IndexAlongDirection(points, direction)]
}

func (p *Polygon) Bounds() Bounds {
	min, max := primer.ExtremePoints(p.TransformedPoints())
	return Bounds{Min: min, Max: max}
}

// ComputeInertia approximates the polygon by its scaled local bounding box
func (p *Polygon) ComputeInertia(mass float64) mgl64.Mat3 {
	min, max := primer.ExtremePoints(p.points)
	size := max.Sub(min)
	scale := p.transform.Scale()

	return boxInertia(mass, mgl64.Vec3{size.X() * scale.X(), size.Y() * scale.Y(), size.Z() * scale.Z()})
}

// Hull returns the local-space convex hull of the points, building it on first use
func (p *Polygon) Hull() (*hull.ConvexHull, error) {
	if p.hull == nil {
		h, err := hull.New(p.points)
		if err != nil {
			return nil, err
		}
		p.hull = h
	}

	return p.hull, nil
}

// RayIntersect casts the ray against the hull. Flat polygons never report a hit.
func (p *Polygon) RayIntersect(origin, direction mgl64.Vec3) (mgl64.Vec3, bool) {
	h, err := p.Hull()
	if err != nil {
		return mgl64.Vec3{}, false
	}

	hit, ok := h.RayIntersect(p.transform.ApplyInverse(origin), p.transform.ApplyInverseDirection(direction))
	if !ok {
		return mgl64.Vec3{}, false
	}

	return p.transform.Apply(hit), true
}

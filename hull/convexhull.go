// Package hull builds and maintains 3D convex hulls with an incremental
// quickhull over a half-edge mesh.
//
// Faces and half-edges live in an arena and refer to each other by index.
// A face removed during an insertion frees its slots, which later faces
// reuse. Once every pending point has been processed the mesh is a closed
// 2-manifold: each half-edge has an opposite, each face is a triangle and
// every normal points outward.
package hull

import (
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/akmonengine/impact/primer"
)

var (
	// ErrTooFewPoints is returned when fewer than 4 points seed a hull.
	ErrTooFewPoints = errors.New("convex hull needs at least 4 points")
	// ErrDegenerate is returned when the points are coincident, collinear or coplanar.
	ErrDegenerate = errors.New("points are too degenerate to seed a tetrahedron")
)

const (
	// PlaneEpsilon is the distance under which a point counts as lying on a face plane.
	PlaneEpsilon = 1e-9
	seedEpsilon  = 1e-9
	areaEpsilon  = 1e-12
)

var seedDirection = mgl64.Vec3{1, 0, 0}

// ConvexHull is a closed triangle mesh enclosing a point set.
type ConvexHull struct {
	arena
}

// New builds the hull of points, using each point's index as its vertex ID.
func New(points []mgl64.Vec3) (*ConvexHull, error) {
	vertices := make([]Vertex, len(points))
	for i, p := range points {
		vertices[i] = Vertex{ID: i, Position: p}
	}

	return NewFromVertices(vertices)
}

// NewFromVertices seeds a tetrahedron from extreme vertices and inserts the rest.
func NewFromVertices(vertices []Vertex) (*ConvexHull, error) {
	if len(vertices) < 4 {
		return nil, errors.Wrapf(ErrTooFewPoints, "got %d", len(vertices))
	}

	pending := slices.Clone(vertices)

	a := pop(&pending, indexAlong(pending, seedDirection))

	bIndex, distance := farthestFromPoint(pending, a.Position)
	if distance < seedEpsilon {
		return nil, errors.Wrap(ErrDegenerate, "all points coincide")
	}
	b := pop(&pending, bIndex)

	cIndex, distance := farthestFromLine(pending, a.Position, b.Position)
	if distance < seedEpsilon {
		return nil, errors.Wrap(ErrDegenerate, "all points are collinear")
	}
	c := pop(&pending, cIndex)

	dIndex, distance := farthestFromPlane(pending, a.Position, b.Position, c.Position)
	if math.Abs(distance) < seedEpsilon {
		return nil, errors.Wrap(ErrDegenerate, "all points are coplanar")
	}
	d := pop(&pending, dIndex)

	// ABC must face away from D
	if distance > 0 {
		b, c = c, b
	}

	h := &ConvexHull{}
	h.seed(a, b, c, d)
	h.AddPoints(pending)

	return h, nil
}

func (h *ConvexHull) seed(a, b, c, d Vertex) {
	A, B, C, D := a.Position, b.Position, c.Position, d.Position

	abc := h.allocFace(B.Sub(A).Cross(C.Sub(A)).Normalize())
	acd := h.allocFace(C.Sub(A).Cross(D.Sub(A)).Normalize())
	adb := h.allocFace(D.Sub(A).Cross(B.Sub(A)).Normalize())
	bdc := h.allocFace(D.Sub(B).Cross(C.Sub(B)).Normalize())

	ab, bc, ca := h.allocEdge(a, abc), h.allocEdge(b, abc), h.allocEdge(c, abc)
	ac, cd, da := h.allocEdge(a, acd), h.allocEdge(c, acd), h.allocEdge(d, acd)
	ad, db, ba := h.allocEdge(a, adb), h.allocEdge(d, adb), h.allocEdge(b, adb)
	bd, dc, cb := h.allocEdge(b, bdc), h.allocEdge(d, bdc), h.allocEdge(c, bdc)

	h.connect(ab, bc, ba, abc)
	h.connect(bc, ca, cb, abc)
	h.connect(ca, ab, ac, abc)

	h.connect(ac, cd, ca, acd)
	h.connect(cd, da, dc, acd)
	h.connect(da, ac, ad, acd)

	h.connect(ad, db, da, adb)
	h.connect(db, ba, bd, adb)
	h.connect(ba, ad, ab, adb)

	h.connect(bd, dc, db, bdc)
	h.connect(dc, cb, cd, bdc)
	h.connect(cb, bd, bc, bdc)

	h.setPlane(abc, ab)
	h.setPlane(acd, ac)
	h.setPlane(adb, ad)
	h.setPlane(bdc, bd)
}

func (h *ConvexHull) setPlane(face, edge int) {
	h.faces[face].Edge = edge
	h.faces[face].D = -h.faces[face].Normal.Dot(h.edges[edge].Vertex.Position)
}

// AddPoints inserts vertices with a face work queue: each queued face takes
// the pending vertex farthest along its normal. A vertex that is not outside
// that face goes back to the pending set. Vertices still pending once the
// queue drains are inside the hull.
func (h *ConvexHull) AddPoints(vertices []Vertex) {
	pending := slices.Clone(vertices)
	queue := h.Faces()

	for len(queue) > 0 && len(pending) > 0 {
		face := queue[0]
		queue = queue[1:]
		if !h.faces[face].alive {
			continue
		}

		p := pop(&pending, indexAlong(pending, h.faces[face].Normal))
		created, ok := h.insert(p, face)
		if !ok {
			pending = append(pending, p)
			continue
		}
		queue = append(queue, created...)
	}
}

// AddPoint inserts v into the hull. It returns false when v is not outside
// any face or the insertion would be degenerate; the point is then dropped.
func (h *ConvexHull) AddPoint(v Vertex) bool {
	return h.AddPointFrom(v, None)
}

// AddPointFrom is AddPoint starting the visibility search at face.
func (h *ConvexHull) AddPointFrom(v Vertex, face int) bool {
	if face == None || !h.isFace(face) || h.faces[face].Distance(v.Position) <= PlaneEpsilon {
		face = h.visibleFace(v.Position)
	}
	if face == None {
		return false
	}

	_, ok := h.insert(v, face)
	return ok
}

func (h *ConvexHull) isFace(face int) bool {
	return face >= 0 && face < len(h.faces) && h.faces[face].alive
}

func (h *ConvexHull) visibleFace(p mgl64.Vec3) int {
	for i := range h.faces {
		if h.faces[i].alive && h.faces[i].Distance(p) > PlaneEpsilon {
			return i
		}
	}

	return None
}

type horizonEdge struct {
	from Vertex
	to   Vertex
	kept int
}

// insert replaces the faces visible from p with a fan of faces around the
// horizon. face must be visible from p. It returns the created faces.
func (h *ConvexHull) insert(p Vertex, face int) ([]int, bool) {
	if h.faces[face].Distance(p.Position) <= PlaneEpsilon {
		return nil, false
	}

	// flood fill the visible region through opposite edges
	visible := map[int]bool{face: true}
	order := []int{face}
	for i := 0; i < len(order); i++ {
		for _, edge := range h.faceEdges(order[i]) {
			opposite := h.edges[edge].Opposite
			if opposite == None {
				continue
			}
			neighbour := h.edges[opposite].Face
			if visible[neighbour] || h.faces[neighbour].Distance(p.Position) <= PlaneEpsilon {
				continue
			}
			visible[neighbour] = true
			order = append(order, neighbour)
		}
	}

	// horizon: edges of the visible region whose neighbour is kept
	byStart := make(map[int]horizonEdge)
	var first horizonEdge
	for _, f := range order {
		for _, edge := range h.faceEdges(f) {
			opposite := h.edges[edge].Opposite
			if opposite == None || visible[h.edges[opposite].Face] {
				continue
			}

			he := horizonEdge{
				from: h.edges[edge].Vertex,
				to:   h.edges[h.edges[edge].Next].Vertex,
				kept: opposite,
			}
			if _, duplicate := byStart[he.from.ID]; duplicate {
				return nil, false
			}
			if len(byStart) == 0 {
				first = he
			}
			byStart[he.from.ID] = he
		}
	}
	if len(byStart) < 3 {
		return nil, false
	}

	loop := make([]horizonEdge, 0, len(byStart))
	for current := first; ; {
		loop = append(loop, current)
		next, ok := byStart[current.to.ID]
		if !ok || len(loop) > len(byStart) {
			return nil, false
		}
		if next.from.ID == first.from.ID {
			break
		}
		current = next
	}
	if len(loop) != len(byStart) {
		return nil, false
	}

	normals := make([]mgl64.Vec3, len(loop))
	for i, he := range loop {
		n := he.to.Position.Sub(he.from.Position).Cross(p.Position.Sub(he.from.Position))
		length := n.Len()
		if length < areaEpsilon {
			return nil, false
		}
		normals[i] = n.Mul(1 / length)
	}

	for _, f := range order {
		h.freeFace(f)
	}

	created := make([]int, len(loop))
	rising := make([]int, len(loop))
	falling := make([]int, len(loop))
	for i, he := range loop {
		f := h.allocFace(normals[i])
		e0 := h.allocEdge(he.from, f)
		e1 := h.allocEdge(he.to, f)
		e2 := h.allocEdge(p, f)

		h.connect(e0, e1, he.kept, f)
		h.connect(e1, e2, None, f)
		h.connect(e2, e0, None, f)
		h.setPlane(f, e0)

		created[i], rising[i], falling[i] = f, e1, e2
	}

	for i := range loop {
		next := (i + 1) % len(loop)
		h.edges[rising[i]].Opposite = falling[next]
		h.edges[falling[next]].Opposite = rising[i]
	}

	return created, true
}

// Faces returns the live face indices in ascending order.
func (h *ConvexHull) Faces() []int {
	faces := make([]int, 0, h.liveFaces)
	for i := range h.faces {
		if h.faces[i].alive {
			faces = append(faces, i)
		}
	}

	return faces
}

// Face returns the face stored at index.
func (h *ConvexHull) Face(index int) Face {
	return h.faces[index]
}

// HalfEdge returns the half-edge stored at index.
func (h *ConvexHull) HalfEdge(index int) HalfEdge {
	return h.edges[index]
}

// FaceEdges returns the half-edge indices of face in winding order.
func (h *ConvexHull) FaceEdges(face int) [3]int {
	return h.faceEdges(face)
}

// FaceVertices returns the vertices of face in winding order.
func (h *ConvexHull) FaceVertices(face int) [3]Vertex {
	edges := h.faceEdges(face)
	return [3]Vertex{h.edges[edges[0]].Vertex, h.edges[edges[1]].Vertex, h.edges[edges[2]].Vertex}
}

// NumFaces returns the number of live faces.
func (h *ConvexHull) NumFaces() int {
	return h.liveFaces
}

// NumHalfEdges returns the number of live half-edges.
func (h *ConvexHull) NumHalfEdges() int {
	return len(h.edges) - len(h.freeEdges)
}

// ClosestFace returns the face whose plane is nearest the origin and the
// signed distance of that plane.
func (h *ConvexHull) ClosestFace() (int, float64) {
	closest := None
	minDistance := math.Inf(1)
	for i := range h.faces {
		if !h.faces[i].alive {
			continue
		}
		if distance := -h.faces[i].D; distance < minDistance {
			minDistance = distance
			closest = i
		}
	}

	return closest, minDistance
}

// Points flattens the faces into a triangle list.
func (h *ConvexHull) Points() []mgl64.Vec3 {
	points := make([]mgl64.Vec3, 0, 3*h.liveFaces)
	for _, face := range h.Faces() {
		for _, v := range h.FaceVertices(face) {
			points = append(points, v.Position)
		}
	}

	return points
}

// UniquePoints returns each hull vertex position once.
func (h *ConvexHull) UniquePoints() []mgl64.Vec3 {
	return lo.Uniq(h.Points())
}

// MeshData returns indexed triangles: unique positions and three indices per face.
func (h *ConvexHull) MeshData() ([]mgl64.Vec3, []uint32) {
	positions := make([]mgl64.Vec3, 0)
	indices := make([]uint32, 0, 3*h.liveFaces)
	seen := make(map[int]uint32)

	for _, face := range h.Faces() {
		for _, v := range h.FaceVertices(face) {
			index, ok := seen[v.ID]
			if !ok {
				index = uint32(len(positions))
				seen[v.ID] = index
				positions = append(positions, v.Position)
			}
			indices = append(indices, index)
		}
	}

	return positions, indices
}

// Centroid returns the mean of the hull vertices.
func (h *ConvexHull) Centroid() mgl64.Vec3 {
	points := h.UniquePoints()
	if len(points) == 0 {
		return mgl64.Vec3{}
	}

	sum := lo.Reduce(points, func(acc mgl64.Vec3, p mgl64.Vec3, _ int) mgl64.Vec3 {
		return acc.Add(p)
	}, mgl64.Vec3{})

	return sum.Mul(1 / float64(len(points)))
}

// Contains reports whether p is inside the hull or within tolerance of its surface.
func (h *ConvexHull) Contains(p mgl64.Vec3, tolerance float64) bool {
	for i := range h.faces {
		if h.faces[i].alive && h.faces[i].Distance(p) > tolerance {
			return false
		}
	}

	return true
}

// RayIntersect returns the closest intersection of the ray origin + t*direction
// (t > 0) with the hull surface.
func (h *ConvexHull) RayIntersect(origin, direction mgl64.Vec3) (mgl64.Vec3, bool) {
	const eps = 1e-12

	closest := math.Inf(1)
	for _, face := range h.Faces() {
		vertices := h.FaceVertices(face)
		v0, v1, v2 := vertices[0].Position, vertices[1].Position, vertices[2].Position

		// Möller–Trumbore
		edge1 := v1.Sub(v0)
		edge2 := v2.Sub(v0)
		pvec := direction.Cross(edge2)
		det := edge1.Dot(pvec)
		if math.Abs(det) < eps {
			continue
		}
		inv := 1 / det

		tvec := origin.Sub(v0)
		u := tvec.Dot(pvec) * inv
		if u < 0 || u > 1 {
			continue
		}

		qvec := tvec.Cross(edge1)
		v := direction.Dot(qvec) * inv
		if v < 0 || u+v > 1 {
			continue
		}

		if t := edge2.Dot(qvec) * inv; t > eps && t < closest {
			closest = t
		}
	}

	if math.IsInf(closest, 1) {
		return mgl64.Vec3{}, false
	}

	return origin.Add(direction.Mul(closest)), true
}

// Validate checks the topology of every live face and returns all violations.
func (h *ConvexHull) Validate() error {
	var err error

	for _, face := range h.Faces() {
		first := h.faces[face].Edge
		if first == None || !h.edges[first].alive {
			err = multierr.Append(err, errors.Errorf("face %d has no live half-edge", face))
			continue
		}
		if math.Abs(h.faces[face].Normal.Len()-1) > 1e-9 {
			err = multierr.Append(err, errors.Errorf("face %d normal is not unit length", face))
		}

		edges := h.faceEdges(face)
		if h.edges[edges[2]].Next != first {
			err = multierr.Append(err, errors.Errorf("face %d is not a triangle", face))
			continue
		}

		for _, edge := range edges {
			he := h.edges[edge]
			switch {
			case !he.alive:
				err = multierr.Append(err, errors.Errorf("half-edge %d of face %d is freed", edge, face))
			case he.Face != face:
				err = multierr.Append(err, errors.Errorf("half-edge %d points to face %d instead of %d", edge, he.Face, face))
			case h.edges[he.Next].Prev != edge:
				err = multierr.Append(err, errors.Errorf("half-edge %d next/prev mismatch", edge))
			case he.Opposite == None:
				err = multierr.Append(err, errors.Errorf("half-edge %d has no opposite", edge))
			case h.edges[he.Opposite].Opposite != edge:
				err = multierr.Append(err, errors.Errorf("half-edge %d opposite is not symmetric", edge))
			case h.edges[he.Opposite].Vertex.ID != h.edges[he.Next].Vertex.ID:
				err = multierr.Append(err, errors.Errorf("half-edge %d opposite does not start at its end", edge))
			}
		}
	}

	return err
}

func pop(vertices *[]Vertex, index int) Vertex {
	v := (*vertices)[index]
	*vertices = slices.Delete(*vertices, index, index+1)

	return v
}

func indexAlong(vertices []Vertex, direction mgl64.Vec3) int {
	return primer.IndexAlongDirection(positions(vertices), direction)
}

func positions(vertices []Vertex) []mgl64.Vec3 {
	return lo.Map(vertices, func(v Vertex, _ int) mgl64.Vec3 {
		return v.Position
	})
}

func farthestFromPoint(vertices []Vertex, p mgl64.Vec3) (int, float64) {
	best, bestDistance := 0, -1.0
	for i, v := range vertices {
		if d := v.Position.Sub(p).Len(); d > bestDistance {
			best, bestDistance = i, d
		}
	}

	return best, bestDistance
}

func farthestFromLine(vertices []Vertex, a, b mgl64.Vec3) (int, float64) {
	direction := b.Sub(a).Normalize()

	best, bestDistance := 0, -1.0
	for i, v := range vertices {
		if d := v.Position.Sub(a).Cross(direction).Len(); d > bestDistance {
			best, bestDistance = i, d
		}
	}

	return best, bestDistance
}

// farthestFromPlane returns the vertex with the largest absolute distance to
// plane (a, b, c) and its signed distance.
func farthestFromPlane(vertices []Vertex, a, b, c mgl64.Vec3) (int, float64) {
	normal := b.Sub(a).Cross(c.Sub(a)).Normalize()

	best, bestDistance := 0, 0.0
	for i, v := range vertices {
		if d := normal.Dot(v.Position.Sub(a)); math.Abs(d) > math.Abs(bestDistance) {
			best, bestDistance = i, d
		}
	}

	return best, bestDistance
}

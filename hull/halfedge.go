package hull

import "github.com/go-gl/mathgl/mgl64"

// None marks a missing half-edge or face index.
const None = -1

// Vertex is a hull point. ID is chosen by the caller and must be unique per
// distinct point fed to a hull.
type Vertex struct {
	ID       int
	Position mgl64.Vec3
}

// HalfEdge is a directed edge of a triangular face, starting at Vertex.
// Next, Prev, Opposite and Face are arena indices; Opposite is None on an open boundary.
type HalfEdge struct {
	Vertex   Vertex
	Next     int
	Prev     int
	Opposite int
	Face     int

	alive bool
}

// Face is a triangle of the hull with its unit outward normal and plane
// offset: dot(Normal, x) + D = 0 on the plane, positive outside.
type Face struct {
	Normal mgl64.Vec3
	D      float64
	Edge   int

	alive bool
}

// Distance returns the signed distance from the face plane to p.
func (f Face) Distance(p mgl64.Vec3) float64 {
	return f.Normal.Dot(p) + f.D
}

// arena stores faces and half-edges by stable index. Removing a face frees
// its slots for reuse by later allocations.
type arena struct {
	edges     []HalfEdge
	faces     []Face
	freeEdges []int
	freeFaces []int
	liveFaces int
}

func (a *arena) allocFace(normal mgl64.Vec3) int {
	face := Face{Normal: normal, Edge: None, alive: true}
	a.liveFaces++

	if n := len(a.freeFaces); n > 0 {
		index := a.freeFaces[n-1]
		a.freeFaces = a.freeFaces[:n-1]
		a.faces[index] = face
		return index
	}

	a.faces = append(a.faces, face)
	return len(a.faces) - 1
}

func (a *arena) allocEdge(vertex Vertex, face int) int {
	edge := HalfEdge{Vertex: vertex, Next: None, Prev: None, Opposite: None, Face: face, alive: true}

	if n := len(a.freeEdges); n > 0 {
		index := a.freeEdges[n-1]
		a.freeEdges = a.freeEdges[:n-1]
		a.edges[index] = edge
		return index
	}

	a.edges = append(a.edges, edge)
	return len(a.edges) - 1
}

// connect wires self -> next inside face and pairs self with opposite.
func (a *arena) connect(self, next, opposite, face int) {
	a.edges[self].Next = next
	a.edges[next].Prev = self
	a.edges[self].Opposite = opposite
	a.edges[self].Face = face
	if opposite != None {
		a.edges[opposite].Opposite = self
	}
}

// freeFace unlinks the face from its neighbours and releases its slots.
func (a *arena) freeFace(face int) {
	if !a.faces[face].alive {
		return
	}

	edge := a.faces[face].Edge
	for i := 0; i < 3 && edge != None; i++ {
		next := a.edges[edge].Next
		if opposite := a.edges[edge].Opposite; opposite != None && a.edges[opposite].Opposite == edge {
			a.edges[opposite].Opposite = None
		}

		a.edges[edge].alive = false
		a.freeEdges = append(a.freeEdges, edge)
		edge = next
	}

	a.faces[face].alive = false
	a.faces[face].Edge = None
	a.freeFaces = append(a.freeFaces, face)
	a.liveFaces--
}

// faceEdges returns the three half-edges of face in winding order.
func (a *arena) faceEdges(face int) [3]int {
	first := a.faces[face].Edge
	second := a.edges[first].Next
	return [3]int{first, second, a.edges[second].Next}
}

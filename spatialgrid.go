package impact

import (
	"math"
	"sort"
	"sync"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/akmonengine/impact/actor"
)

// CellKey is the integer coordinate of a grid cell
type CellKey struct {
	X, Y, Z int
}

// Cell holds the indices of the bodies overlapping it
type Cell struct {
	bodyIndices []int
}

// Pair is a couple of bodies whose bounds overlap
type Pair struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody

	indexA, indexB int
}

// SpatialGrid is a uniform grid hashed into a fixed number of cells.
// Distant cells may share a slot, which only costs extra bounds tests.
type SpatialGrid struct {
	cellSize float64
	cells    []Cell
	cellMask int
}

// NewSpatialGrid rounds numCells up to a power of two
func NewSpatialGrid(cellSize float64, numCells int) *SpatialGrid {
	numCells = nextPowerOfTwo(numCells)

	cells := make([]Cell, numCells)
	for i := range cells {
		cells[i].bodyIndices = make([]int, 0, 8)
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cells:    cells,
		cellMask: numCells - 1,
	}
}

func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

// Insert adds the body to every cell its bounds touch
func (sg *SpatialGrid) Insert(bodyIndex int, body *actor.RigidBody) {
	sg.forEachCell(body.Shape.Bounds(), func(cellIdx int) {
		sg.cells[cellIdx].bodyIndices = append(sg.cells[cellIdx].bodyIndices, bodyIndex)
	})
}

func (sg *SpatialGrid) Clear() {
	for i := range sg.cells {
		sg.cells[i].bodyIndices = sg.cells[i].bodyIndices[:0]
	}
}

func (sg *SpatialGrid) SortCells() {
	for i := range sg.cells {
		if len(sg.cells[i].bodyIndices) > 1 {
			sort.Ints(sg.cells[i].bodyIndices)
		}
	}
}

// Build clears the grid and inserts every body by its index
func (sg *SpatialGrid) Build(bodies []*actor.RigidBody) {
	sg.Clear()
	for i, body := range bodies {
		sg.Insert(i, body)
	}
	sg.SortCells()
}

// FindPairs returns each overlapping pair once, ordered by body index
func (sg *SpatialGrid) FindPairs(bodies []*actor.RigidBody) []Pair {
	pairs := make([]Pair, 0, len(bodies)/2)
	seen := make([]bool, len(bodies))

	for bodyIdx := range bodies {
		pairs = sg.appendPairs(pairs, bodies, bodyIdx, seen)
	}

	return pairs
}

// FindPairsParallel splits the bodies over numWorkers goroutines. Pairs come
// out of the channel in no particular order.
func (sg *SpatialGrid) FindPairsParallel(bodies []*actor.RigidBody, numWorkers int) <-chan Pair {
	var wg sync.WaitGroup
	pairsChan := make(chan Pair, numWorkers*10)

	bodiesPerWorker := len(bodies) / numWorkers
	if bodiesPerWorker == 0 {
		bodiesPerWorker = 1
	}

	for w := 0; w < numWorkers; w++ {
		startIdx := w * bodiesPerWorker
		endIdx := startIdx + bodiesPerWorker
		if w == numWorkers-1 {
			endIdx = len(bodies)
		}
		if startIdx >= endIdx {
			continue
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()

			seen := make([]bool, len(bodies))
			for bodyIdx := start; bodyIdx < end; bodyIdx++ {
				for _, pair := range sg.appendPairs(nil, bodies, bodyIdx, seen) {
					pairsChan <- pair
				}
			}
		}(startIdx, endIdx)
	}

	go func() {
		wg.Wait()
		close(pairsChan)
	}()

	return pairsChan
}

// Pairs collects FindPairsParallel and restores the FindPairs order
func (sg *SpatialGrid) Pairs(bodies []*actor.RigidBody, numWorkers int) []Pair {
	if numWorkers <= 1 {
		return sg.FindPairs(bodies)
	}

	pairs := make([]Pair, 0, len(bodies)/2)
	for pair := range sg.FindPairsParallel(bodies, numWorkers) {
		pairs = append(pairs, pair)
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].indexA != pairs[j].indexA {
			return pairs[i].indexA < pairs[j].indexA
		}
		return pairs[i].indexB < pairs[j].indexB
	})

	return pairs
}

// appendPairs adds the pairs (bodyIdx, other) with other > bodyIdx. seen is
// scratch space, reset on return.
func (sg *SpatialGrid) appendPairs(pairs []Pair, bodies []*actor.RigidBody, bodyIdx int, seen []bool) []Pair {
	bodyA := bodies[bodyIdx]
	bounds := bodyA.Shape.Bounds()
	start := len(pairs)

	sg.forEachCell(bounds, func(cellIdx int) {
		for _, otherIdx := range sg.cells[cellIdx].bodyIndices {
			// Avoid duplicates
			if otherIdx <= bodyIdx || seen[otherIdx] {
				continue
			}
			seen[otherIdx] = true

			bodyB := bodies[otherIdx]
			if !bodyA.IsDynamic() && !bodyB.IsDynamic() {
				continue
			}
			if bodyA.IsTrigger && bodyB.IsTrigger {
				continue
			}

			if bounds.Overlaps(bodyB.Shape.Bounds()) {
				pairs = append(pairs, Pair{BodyA: bodyA, BodyB: bodyB, indexA: bodyIdx, indexB: otherIdx})
			}
		}
	})

	sg.forEachCell(bounds, func(cellIdx int) {
		for _, otherIdx := range sg.cells[cellIdx].bodyIndices {
			seen[otherIdx] = false
		}
	})

	// cells are visited in hash order
	sort.Slice(pairs[start:], func(i, j int) bool {
		return pairs[start+i].indexB < pairs[start+j].indexB
	})

	return pairs
}

func (sg *SpatialGrid) forEachCell(bounds actor.Bounds, fn func(cellIdx int)) {
	minCell := sg.worldToCell(bounds.Min)
	maxCell := sg.worldToCell(bounds.Max)

	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				fn(sg.hashCell(CellKey{x, y, z}))
			}
		}
	}
}

// worldToCell converts a world position to the coordinate of its cell
func (sg *SpatialGrid) worldToCell(pos mgl64.Vec3) CellKey {
	return CellKey{
		X: int(math.Floor(pos.X() / sg.cellSize)),
		Y: int(math.Floor(pos.Y() / sg.cellSize)),
		Z: int(math.Floor(pos.Z() / sg.cellSize)),
	}
}

// hashCell maps a cell coordinate to its slot
func (sg *SpatialGrid) hashCell(key CellKey) int {
	h := (key.X * 73856093) ^ (key.Y * 19349663) ^ (key.Z * 83492791)
	return h & sg.cellMask
}

package impact

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/akmonengine/impact/actor"
	"github.com/akmonengine/impact/constraint"
	"github.com/akmonengine/impact/epa"
	"github.com/akmonengine/impact/gjk"
)

// ErrEPAFailed is returned together with the EPA cause when GJK found an
// overlap that EPA could not measure
var ErrEPAFailed = errors.New("epa failed")

// Collides runs the broad test, GJK and EPA on a pair of shapes.
// The collision normal pushes a away from b.
func Collides(a, b actor.Shape) (constraint.Collision, bool, error) {
	if !actor.BroadTest(a, b) {
		return constraint.Collision{}, false, nil
	}

	simplex := gjk.SimplexPool.Get().(*gjk.Simplex)
	defer gjk.SimplexPool.Put(simplex)

	if !gjk.GJK(a, b, simplex, b.Center().Sub(a.Center())) {
		return constraint.Collision{}, false, nil
	}

	collision, err := epa.EPA(a, b, simplex)
	if err != nil {
		return constraint.Collision{}, true, multierr.Append(ErrEPAFailed, err)
	}

	return collision, true, nil
}

// Overlaps runs the broad test and GJK only
func Overlaps(a, b actor.Shape) bool {
	if !actor.BroadTest(a, b) {
		return false
	}

	simplex := gjk.SimplexPool.Get().(*gjk.Simplex)
	defer gjk.SimplexPool.Put(simplex)

	return gjk.GJK(a, b, simplex, b.Center().Sub(a.Center()))
}

// CollisionPair is a candidate pair with its narrow phase outcome
type CollisionPair struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody

	Collision constraint.Collision
	Colliding bool
	Err       error
}

// NarrowPhase runs Collides on every pair over workersCount goroutines.
// Results keep the order of pairs.
func NarrowPhase(pairs []Pair, workersCount int) []CollisionPair {
	results := make([]CollisionPair, len(pairs))
	task(workersCount, lo.Range(len(pairs)), func(i int) {
		pair := pairs[i]
		collision, colliding, err := Collides(pair.BodyA.Shape, pair.BodyB.Shape)
		results[i] = CollisionPair{
			BodyA:     pair.BodyA,
			BodyB:     pair.BodyB,
			Collision: collision,
			Colliding: colliding,
			Err:       err,
		}
	})

	return results
}

package impact

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/akmonengine/impact/actor"
	"github.com/akmonengine/impact/constraint"
)

type cachedContact struct {
	bodyA     *actor.RigidBody
	bodyB     *actor.RigidBody
	collision constraint.Collision
}

// CollisionSystem simulates a mixed set of static and dynamic bodies in
// fixed substeps. Every substep integrates, detects, then resolves each
// touching pair once.
type CollisionSystem struct {
	config Config
	logger *zap.SugaredLogger

	bodies []*actor.RigidBody
	grid   *SpatialGrid
	nextID uint32

	// collisions found during the current substep, cleared once resolved
	collisions map[pairKey]cachedContact

	Events Events
}

func NewCollisionSystem(config Config, logger *zap.SugaredLogger) (*CollisionSystem, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid collision system config")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &CollisionSystem{
		config:     config,
		logger:     logger,
		grid:       NewSpatialGrid(config.CellSize, config.GridCells),
		collisions: make(map[pairKey]cachedContact),
		Events:     NewEvents(),
	}, nil
}

func (s *CollisionSystem) Config() Config {
	return s.config
}

// Bodies returns the simulated bodies in insertion order
func (s *CollisionSystem) Bodies() []*actor.RigidBody {
	return s.bodies
}

// AddBody adds a body built elsewhere. Its ID must be unique in the system.
func (s *CollisionSystem) AddBody(body *actor.RigidBody) {
	s.bodies = append(s.bodies, body)
	s.nextID = max(s.nextID, body.ID+1)
}

// RemoveBody removes a body and forgets its contacts without Exit events
func (s *CollisionSystem) RemoveBody(body *actor.RigidBody) {
	s.bodies = lo.Without(s.bodies, body)
	s.Events.forget(body)
}

func (s *CollisionSystem) CreateStaticBody(shape actor.Shape) *actor.RigidBody {
	body := actor.NewStaticBody(s.nextID, shape)
	s.AddBody(body)

	return body
}

func (s *CollisionSystem) CreateDynamicBody(shape actor.Shape, mass float64) *actor.RigidBody {
	body := actor.NewDynamicBody(s.nextID, shape, mass)
	s.AddBody(body)

	return body
}

// Subscribe adds a listener, called at the end of each Tick
func (s *CollisionSystem) Subscribe(eventType EventType, listener EventListener) {
	s.Events.Subscribe(eventType, listener)
}

// Tick advances the simulation by dt in equal substeps no longer than
// Config.MaxSubstep, then dispatches the collision events.
func (s *CollisionSystem) Tick(dt float64) {
	if dt > 0 {
		substeps := int(math.Ceil(dt/s.config.MaxSubstep - 1e-9))
		h := dt / float64(substeps)

		for i := 0; i < substeps; i++ {
			s.substep(h)
		}
	}

	s.Events.flush()
}

func (s *CollisionSystem) substep(h float64) {
	workers := s.config.workers()

	// Phase 1: integration, then refresh the caches read concurrently below
	task(workers, s.bodies, func(body *actor.RigidBody) {
		body.Collides = false
		body.ApplyForces(h, s.config.Gravity, s.config.TerminalSpeed)
		body.Forward(h)
		actor.Refresh(body.Shape)
	})

	// Phase 2: broad phase on the grid, then GJK/EPA
	s.grid.Build(s.bodies)
	pairs := s.grid.Pairs(s.bodies, workers)
	s.detect(NarrowPhase(pairs, workers))

	// Phase 3: serial resolution
	contacts := s.resolve()

	s.logger.Debugw("substep", "dt", h, "pairs", len(pairs), "contacts", contacts)
}

func (s *CollisionSystem) detect(results []CollisionPair) {
	for _, result := range results {
		if !result.Colliding {
			continue
		}

		key := makePairKey(result.BodyA, result.BodyB)
		if _, ok := s.collisions[key]; ok {
			continue
		}

		result.BodyA.Collides = true
		result.BodyB.Collides = true
		s.Events.record(result.BodyA, result.BodyB)

		if result.Err != nil {
			s.logger.Warnw("epa failed", "bodyA", result.BodyA.ID, "bodyB", result.BodyB.ID, "error", result.Err)
			continue
		}
		if result.BodyA.IsTrigger || result.BodyB.IsTrigger {
			continue
		}

		s.collisions[key] = cachedContact{
			bodyA:     result.BodyA,
			bodyB:     result.BodyB,
			collision: result.Collision,
		}
	}
}

// resolve applies the cached collisions in pair order and clears the cache
func (s *CollisionSystem) resolve() int {
	keys := lo.Keys(s.collisions)
	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })

	for _, key := range keys {
		contact := s.collisions[key]
		c := constraint.NewContactConstraint(contact.bodyA, contact.bodyB, contact.collision)
		c.SolvePosition()
		c.SolveVelocity()
	}
	clear(s.collisions)

	return len(keys)
}

// RayCast returns the closest body hit within maxDistance
func (s *CollisionSystem) RayCast(origin, direction mgl64.Vec3, maxDistance float64, filter func(body *actor.RigidBody) bool) (RayHit, bool) {
	return RayCast(s.bodies, origin, direction, maxDistance, filter)
}

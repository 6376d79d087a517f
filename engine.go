package impact

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/akmonengine/impact/actor"
	"github.com/akmonengine/impact/constraint"
	"github.com/akmonengine/impact/epa"
	"github.com/akmonengine/impact/gjk"
)

// PhysicsEngine moves dynamic bodies against a static scene. Penetrations are
// found after the fact, then the body is stepped back to the first
// overlapping time slice before the contact is measured and resolved.
type PhysicsEngine struct {
	config Config
	logger *zap.SugaredLogger

	simplex gjk.Simplex
	nextID  uint32
}

func NewPhysicsEngine(config Config, logger *zap.SugaredLogger) (*PhysicsEngine, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid physics engine config")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &PhysicsEngine{config: config, logger: logger}, nil
}

func (e *PhysicsEngine) Config() Config {
	return e.config
}

func (e *PhysicsEngine) CreateStaticBody(shape actor.Shape) *actor.RigidBody {
	e.nextID++
	return actor.NewStaticBody(e.nextID-1, shape)
}

func (e *PhysicsEngine) CreateDynamicBody(shape actor.Shape, mass float64) *actor.RigidBody {
	e.nextID++
	return actor.NewDynamicBody(e.nextID-1, shape, mass)
}

type engineContact struct {
	dynamic *actor.RigidBody
	static  *actor.RigidBody
}

// Step advances every dynamic body by dt. Each dynamic body resolves at most
// one contact per step, against the first static body it penetrates.
func (e *PhysicsEngine) Step(dynamicBodies, staticBodies []*actor.RigidBody, dt float64) {
	for _, body := range dynamicBodies {
		body.Collides = false
		body.ApplyForces(dt, e.config.Gravity, e.config.TerminalSpeed)
		body.Forward(dt)
	}

	var contacts []engineContact
	for _, body := range dynamicBodies {
		for _, static := range staticBodies {
			if e.overlaps(body, static) {
				contacts = append(contacts, engineContact{dynamic: body, static: static})
				break
			}
		}
	}

	for _, contact := range contacts {
		e.resolve(contact.dynamic, contact.static, dt)
	}
}

func (e *PhysicsEngine) resolve(body, static *actor.RigidBody, dt float64) {
	rewound, ok := e.backtrack(body, static, dt)
	if !ok {
		e.logger.Warnw("backtracking failed", "bodyA", body.ID, "bodyB", static.ID)
		body.Forward(rewound)
		return
	}

	// e.simplex may hold another pair when backtracking ran no GJK query
	if !e.overlaps(body, static) {
		e.logger.Warnw("backtracking failed", "bodyA", body.ID, "bodyB", static.ID)
		body.Forward(rewound)
		return
	}

	collision, err := epa.EPA(body.Shape, static.Shape, &e.simplex)
	if err != nil {
		e.logger.Warnw("epa failed", "bodyA", body.ID, "bodyB", static.ID, "error", err)
		body.Forward(rewound)
		return
	}

	body.Collides = true
	static.Collides = true

	c := constraint.NewContactConstraint(body, static, collision)
	c.SolvePosition()
	c.SolveVelocity()
	e.logger.Debugw("contact resolved",
		"bodyA", body.ID,
		"bodyB", static.ID,
		"depth", collision.PenetrationDepth,
		"impulse", c.Impulse,
		"rewound", rewound,
	)

	if rewound > 0 {
		body.Forward(rewound)
	}
}

// backtrack bisects the step: the body moves back while it still overlaps
// and forward once it is clear, BacktrackSteps times. It then steps forward
// until it overlaps again, at most ForwardRetries times, so the contact is
// measured with a shallow penetration. It returns the time the body was moved
// back by, and false if no overlapping position was found.
func (e *PhysicsEngine) backtrack(body, static *actor.RigidBody, dt float64) (float64, bool) {
	t := dt
	colliding := true
	rewound := 0.0

	for i := 0; i < e.config.BacktrackSteps; i++ {
		t *= 0.5
		if colliding {
			body.Backward(t)
			rewound += t
		} else {
			body.Forward(t)
			rewound -= t
		}
		colliding = e.overlaps(body, static)
	}

	for retries := 0; !colliding; retries++ {
		if retries >= e.config.ForwardRetries {
			return rewound, false
		}

		body.Forward(t)
		rewound -= t
		colliding = e.overlaps(body, static)
	}

	return rewound, true
}

// overlaps leaves the GJK simplex in e.simplex for EPA
func (e *PhysicsEngine) overlaps(a, b *actor.RigidBody) bool {
	if !actor.BroadTest(a.Shape, b.Shape) {
		return false
	}

	return gjk.GJK(a.Shape, b.Shape, &e.simplex, b.Shape.Center().Sub(a.Shape.Center()))
}

package main

import (
	"log"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/akmonengine/impact"
	"github.com/akmonengine/impact/actor"
)

// SetupScene creates a floor, a few falling shapes and a walking character
func SetupScene(system *impact.CollisionSystem) (*impact.CharacterController, error) {
	system.CreateStaticBody(actor.NewAABB(actor.NewTransformAt(mgl64.Vec3{0, -0.5, 0}), mgl64.Vec3{-20, -0.5, -20}, mgl64.Vec3{20, 0.5, 20}))

	ball := system.CreateDynamicBody(actor.NewSphere(actor.NewTransformAt(mgl64.Vec3{-2, 4, 0}), 0.5), 1)
	ball.Material.Restitution = 0.8

	system.CreateDynamicBody(actor.NewAABB(actor.NewTransformAt(mgl64.Vec3{0, 6, 0}), mgl64.Vec3{-0.5, -0.5, -0.5}, mgl64.Vec3{0.5, 0.5, 0.5}), 2)
	system.CreateDynamicBody(actor.NewCapsule(actor.NewTransformAt(mgl64.Vec3{2, 5, 0}), mgl64.Vec3{0, -0.5, 0}, mgl64.Vec3{0, 0.5, 0}, 0.3), 1)

	wedge, err := actor.NewConvexPolygon(actor.NewTransformAt(mgl64.Vec3{0, 3, 3}), []mgl64.Vec3{
		{-1, 0, -1}, {1, 0, -1}, {1, 0, 1}, {-1, 0, 1}, {0, 1, 0},
	})
	if err != nil {
		return nil, err
	}
	system.CreateDynamicBody(wedge, 3)

	// a trigger volume around the spawn point
	zone := system.CreateStaticBody(actor.NewAABB(actor.NewTransformAt(mgl64.Vec3{0, 1, -4}), mgl64.Vec3{-1, -1, -1}, mgl64.Vec3{1, 1, 1}))
	zone.IsTrigger = true

	player := system.CreateDynamicBody(actor.NewSphere(actor.NewTransformAt(mgl64.Vec3{0, 0.5, -6}), 0.5), 70)
	player.Material.Restitution = 0

	return impact.NewCharacterController(player), nil
}

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	system, err := impact.NewCollisionSystem(impact.SystemConfig(), sugar)
	if err != nil {
		sugar.Fatalw("invalid configuration", "error", err)
	}

	character, err := SetupScene(system)
	if err != nil {
		sugar.Fatalw("scene setup failed", "error", err)
	}

	system.Subscribe(impact.COLLISION_ENTER, func(event impact.Event) {
		e := event.(impact.CollisionEnterEvent)
		sugar.Infow("collision enter", "bodyA", e.BodyA.ID, "bodyB", e.BodyB.ID)
	})
	system.Subscribe(impact.TRIGGER_ENTER, func(event impact.Event) {
		e := event.(impact.TriggerEnterEvent)
		sugar.Infow("trigger enter", "bodyA", e.BodyA.ID, "bodyB", e.BodyB.ID)
	})
	system.Subscribe(impact.TRIGGER_EXIT, func(event impact.Event) {
		e := event.(impact.TriggerExitEvent)
		sugar.Infow("trigger exit", "bodyA", e.BodyA.ID, "bodyB", e.BodyB.ID)
	})

	const dt float64 = 1.0 / 60.0
	const maxSteps int = 240

	character.MoveForward()
	for step := 0; step < maxSteps; step++ {
		if step == 120 {
			character.StopForward()
			character.Jump()
		}

		character.Update(dt, system.Bodies())
		system.Tick(dt)

		if step%30 == 0 {
			sugar.Infow("character",
				"step", step,
				"position", character.Body.Position(),
				"state", character.State.String(),
			)
		}
	}

	for _, body := range system.Bodies() {
		sugar.Infow("final state", "body", body.ID, "kind", body.Shape.Kind().String(), "position", body.Position())
	}
}

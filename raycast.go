package impact

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/akmonengine/impact/actor"
)

// RayHit is the closest surface point found by RayCast
type RayHit struct {
	Body     *actor.RigidBody
	Point    mgl64.Vec3
	Distance float64
}

// RayCast returns the closest hit of origin + t*direction among bodies, with
// t in [0, maxDistance] once direction is normalized. Bodies rejected by
// filter are skipped; a nil filter accepts every body.
func RayCast(bodies []*actor.RigidBody, origin, direction mgl64.Vec3, maxDistance float64, filter func(body *actor.RigidBody) bool) (RayHit, bool) {
	if direction.LenSqr() == 0 {
		return RayHit{}, false
	}
	direction = direction.Normalize()

	var best RayHit
	found := false

	for _, body := range bodies {
		if filter != nil && !filter(body) {
			continue
		}

		// bounds first, they are cheap
		entry, ok := body.Shape.Bounds().RayIntersect(origin, direction)
		if !ok || entry > maxDistance || (found && entry > best.Distance) {
			continue
		}

		point, ok := body.Shape.RayIntersect(origin, direction)
		if !ok {
			continue
		}

		distance := point.Sub(origin).Len()
		if distance > maxDistance || (found && distance >= best.Distance) {
			continue
		}

		best = RayHit{Body: body, Point: point, Distance: distance}
		found = true
	}

	return best, found
}

// Package targeting answers positional queries over the live enemy population.
// Queries hold no state; every call scans a fresh snapshot in population order.
package targeting

import (
	"math"

	"github.com/udisondev/horde/internal/model"
)

// Population is a read-only view of enemies in a stable iteration order.
type Population interface {
	Snapshot() []*model.Enemy
}

// Nearest returns the closest live enemy to origin.
// Strict less-than comparison: on equal distance the first enemy in population order wins.
func Nearest(origin model.Vec2, pop Population) (*model.Enemy, bool) {
	if pop == nil {
		return nil, false
	}

	var (
		closest *model.Enemy
		best    = math.Inf(1)
	)
	for _, e := range pop.Snapshot() {
		if e.IsDead() {
			continue
		}
		d := origin.DistanceSquared(e.Position())
		if d < best {
			best = d
			closest = e
		}
	}
	return closest, closest != nil
}

// NearestWithin returns the nearest live enemy if it lies strictly closer than maxDist.
func NearestWithin(origin model.Vec2, pop Population, maxDist float64) (*model.Enemy, bool) {
	e, ok := Nearest(origin, pop)
	if !ok {
		return nil, false
	}
	if origin.Distance(e.Position()) >= maxDist {
		return nil, false
	}
	return e, true
}

// WithinRadius returns live enemies within radius of origin (boundary included), in population order.
func WithinRadius(origin model.Vec2, pop Population, radius float64) []*model.Enemy {
	if pop == nil || radius < 0 {
		return nil
	}

	r2 := radius * radius
	var out []*model.Enemy
	for _, e := range pop.Snapshot() {
		if e.IsDead() {
			continue
		}
		if origin.DistanceSquared(e.Position()) <= r2 {
			out = append(out, e)
		}
	}
	return out
}

// Package area resolves radius damage: delayed one-shot strikes and persistent tick fields.
package area

import (
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/udisondev/horde/internal/combat"
	"github.com/udisondev/horde/internal/model"
	"github.com/udisondev/horde/internal/scheduler"
	"github.com/udisondev/horde/internal/targeting"
)

const (
	// DefaultStun is applied by strikes that do not set their own stun.
	DefaultStun = 500 * time.Millisecond

	// DefaultTickDelay is the period of a Field without explicit tick delay.
	DefaultTickDelay = 500 * time.Millisecond
)

// Strike is one radius damage application at a fixed point.
type Strike struct {
	Center model.Vec2
	Radius float64
	Damage int
	Source string
	Stun   time.Duration
	Delay  time.Duration

	// Done is called after resolution with the number of enemies hit. Optional.
	Done func(hits int)
}

// Resolver schedules strikes on the session scheduler.
type Resolver struct {
	sched   *scheduler.Scheduler
	targets targeting.Population
	sink    combat.DamageSink
	prefix  string
	seq     atomic.Uint64
}

// NewResolver creates resolver. Strike task keys start with prefix.
func NewResolver(sched *scheduler.Scheduler, targets targeting.Population, sink combat.DamageSink, prefix string) *Resolver {
	return &Resolver{
		sched:   sched,
		targets: targets,
		sink:    sink,
		prefix:  prefix,
	}
}

// Strike schedules s to resolve after s.Delay. Zero delay resolves on the next scheduler step.
// Returns task key of the pending strike.
func (r *Resolver) Strike(s Strike) string {
	if s.Stun == 0 {
		s.Stun = DefaultStun
	}
	key := r.prefix + "/strike/" + strconv.FormatUint(r.seq.Add(1), 10)
	r.sched.After(key, s.Delay, func() {
		n := r.Resolve(s)
		if s.Done != nil {
			s.Done(n)
		}
	})
	return key
}

// Resolve applies s immediately. Returns number of enemies hit.
func (r *Resolver) Resolve(s Strike) int {
	hits := targeting.WithinRadius(s.Center, r.targets, s.Radius)
	for _, e := range hits {
		r.sink.ApplyDamage(e.ObjectID(), combat.Hit{
			Amount:    s.Damage,
			Source:    s.Source,
			Stun:      s.Stun,
			Direction: e.Position().Sub(s.Center).Normalize(),
		})
	}
	return len(hits)
}

// Field deals damage to every enemy around an anchor once per tick while enabled.
type Field struct {
	key       string
	source    string
	anchor    model.Anchor
	tickDelay time.Duration

	sched   *scheduler.Scheduler
	targets targeting.Population
	sink    combat.DamageSink

	mu      sync.Mutex
	damage  int
	radius  float64
	enabled bool
	ticks   int
}

// FieldConfig configures a Field.
type FieldConfig struct {
	Key       string
	Source    string
	Anchor    model.Anchor
	TickDelay time.Duration
	Radius    float64
}

// NewField creates disabled field.
func NewField(cfg FieldConfig, sched *scheduler.Scheduler, targets targeting.Population, sink combat.DamageSink) *Field {
	if cfg.TickDelay <= 0 {
		cfg.TickDelay = DefaultTickDelay
	}
	return &Field{
		key:       cfg.Key,
		source:    cfg.Source,
		anchor:    cfg.Anchor,
		tickDelay: cfg.TickDelay,
		radius:    cfg.Radius,
		sched:     sched,
		targets:   targets,
		sink:      sink,
	}
}

// Enable starts ticking. First tick after one tick delay. No-op if already enabled.
func (f *Field) Enable() {
	f.mu.Lock()
	if f.enabled {
		f.mu.Unlock()
		return
	}
	f.enabled = true
	f.mu.Unlock()

	f.sched.Every(f.key, f.tickDelay, scheduler.Fixed(f.tickDelay), f.tick)
}

// Disable stops ticking. Idempotent.
func (f *Field) Disable() {
	f.mu.Lock()
	wasEnabled := f.enabled
	f.enabled = false
	f.mu.Unlock()

	if wasEnabled {
		f.sched.Cancel(f.key)
	}
}

// Enabled reports whether the field ticks.
func (f *Field) Enabled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.enabled
}

// SetDamage sets per-tick damage. Applies from the next tick.
func (f *Field) SetDamage(d int) {
	f.mu.Lock()
	f.damage = d
	f.mu.Unlock()
}

// Damage returns per-tick damage.
func (f *Field) Damage() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.damage
}

// SetRadius sets field radius. Applies from the next tick.
func (f *Field) SetRadius(r float64) {
	f.mu.Lock()
	f.radius = r
	f.mu.Unlock()
}

// Radius returns field radius.
func (f *Field) Radius() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.radius
}

// Ticks returns number of ticks resolved.
func (f *Field) Ticks() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ticks
}

func (f *Field) tick() {
	f.mu.Lock()
	damage, radius := f.damage, f.radius
	f.ticks++
	f.mu.Unlock()

	center := f.anchor.Position()
	for _, e := range targeting.WithinRadius(center, f.targets, radius) {
		f.sink.ApplyDamage(e.ObjectID(), combat.Hit{
			Amount:    damage,
			Source:    f.source,
			Direction: e.Position().Sub(center).Normalize(),
		})
	}
}

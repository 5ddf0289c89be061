package skill

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/udisondev/horde/internal/combat"
	"github.com/udisondev/horde/internal/model"
	"github.com/udisondev/horde/internal/scheduler"
	"github.com/udisondev/horde/internal/targeting"
)

var (
	// ErrUnknownArchetype is returned for archetypes without a behavior builder.
	ErrUnknownArchetype = errors.New("unknown skill archetype")

	// ErrMissingResource is returned when a behavior's pool or owner collaborator is absent.
	ErrMissingResource = errors.New("missing skill resource")
)

// State is the lifecycle stage of a behavior.
type State uint8

const (
	StateUninitialized State = iota
	StateActive
	StateDeactivated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateActive:
		return "active"
	case StateDeactivated:
		return "deactivated"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// Owner binds a behavior to the entity that casts it and the session collaborators it uses.
type Owner struct {
	ID        string
	Anchor    *model.Transform
	Scheduler *scheduler.Scheduler
	Targets   targeting.Population
	Damage    combat.DamageSink
	Rand      *rand.Rand
}

func (o Owner) validate() error {
	switch {
	case o.ID == "":
		return fmt.Errorf("%w: owner id", ErrMissingResource)
	case o.Anchor == nil:
		return fmt.Errorf("%w: owner anchor", ErrMissingResource)
	case o.Scheduler == nil:
		return fmt.Errorf("%w: scheduler", ErrMissingResource)
	case o.Targets == nil:
		return fmt.Errorf("%w: target population", ErrMissingResource)
	case o.Damage == nil:
		return fmt.Errorf("%w: damage sink", ErrMissingResource)
	}
	return nil
}

// Behavior is one skill's runtime effect for one owner.
//
// Lifecycle: Initialize binds the owner once. Activate starts the effect from
// StateUninitialized or StateDeactivated. UpdateLevel swaps level data in place
// without restarting the timer. Deactivate stops the effect and is idempotent.
type Behavior interface {
	Archetype() model.SkillArchetype
	Initialize(owner Owner) error
	Activate(level *model.SkillLevel)
	UpdateLevel(level *model.SkillLevel)
	Deactivate()
	State() State
	Level() *model.SkillLevel
}

// base holds the state machine shared by all variants.
// Variants embed it and supply fire (periodic variants) or override Activate.
type base struct {
	archetype model.SkillArchetype

	mu          sync.Mutex
	state       State
	level       *model.SkillLevel
	owner       Owner
	initialized bool

	volleySeq atomic.Uint64
}

func (b *base) Archetype() model.SkillArchetype { return b.archetype }

func (b *base) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Level returns copy of the applied level, nil before first activation.
func (b *base) Level() *model.SkillLevel {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.level == nil {
		return nil
	}
	l := *b.level
	return &l
}

func (b *base) bind(owner Owner) error {
	if err := owner.validate(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.initialized {
		return fmt.Errorf("%s behavior already initialized for %s", b.archetype, b.owner.ID)
	}
	b.owner = owner
	b.initialized = true
	return nil
}

// begin moves the machine to StateActive with level.
// Returns wasActive=true when the behavior was already running, ok=false when skipped.
func (b *base) begin(level *model.SkillLevel) (wasActive, ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.initialized {
		slog.Warn("skill activate before initialize, skipped", "archetype", b.archetype)
		return false, false
	}
	if level == nil {
		slog.Warn("skill activate without level, skipped", "archetype", b.archetype, "owner", b.owner.ID)
		return false, false
	}

	l := *level
	b.level = &l
	wasActive = b.state == StateActive
	b.state = StateActive
	return wasActive, true
}

// swap replaces the applied level. Returns false if skipped.
func (b *base) swap(level *model.SkillLevel) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if level == nil {
		slog.Warn("skill update without level, skipped", "archetype", b.archetype, "owner", b.owner.ID)
		return false
	}
	if !b.initialized {
		slog.Warn("skill update before initialize, skipped", "archetype", b.archetype)
		return false
	}
	l := *level
	b.level = &l
	return true
}

// end moves the machine to StateDeactivated. Returns false if it was not active.
func (b *base) end() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != StateActive {
		return false
	}
	b.state = StateDeactivated
	return true
}

// current returns copy of the applied level for use inside callbacks.
func (b *base) current() model.SkillLevel {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.level == nil {
		return model.SkillLevel{}
	}
	return *b.level
}

func (b *base) cycleKey() string {
	return b.owner.ID + "/skill/" + b.archetype.String()
}

func (b *base) volleyKey() string {
	return b.cycleKey() + "/volley"
}

// cooldown is the PeriodFunc of the cycle: read on every re-arm.
func (b *base) cooldown() time.Duration {
	return b.current().Cooldown
}

// startCycle registers the periodic task; first run on the next scheduler step.
// Registering under the same key replaces any previous cycle.
func (b *base) startCycle(fire func()) {
	b.owner.Scheduler.Every(b.cycleKey(), 0, b.cooldown, fire)
}

// stopCycle cancels the cycle and pending volley shots.
func (b *base) stopCycle() {
	b.owner.Scheduler.Cancel(b.cycleKey())
	b.owner.Scheduler.CancelPrefix(b.volleyKey() + "/")
}

// volley runs shot(i) for i in [0, n) spaced apart, the first one immediately.
func (b *base) volley(n int, spacing time.Duration, shot func(i int)) {
	if n <= 0 {
		if IsDebugEnabled() {
			slog.Debug("volley with no projectiles", "archetype", b.archetype, "owner", b.owner.ID)
		}
		return
	}

	key := b.volleyKey() + "/" + strconv.FormatUint(b.volleySeq.Add(1), 10)
	var next func(i int)
	next = func(i int) {
		shot(i)
		if i+1 < n {
			b.owner.Scheduler.After(key, spacing, func() { next(i + 1) })
		}
	}
	next(0)
}

// periodic is the lifecycle of every cycle-driven variant.
type periodic struct {
	base
	fire func()
}

func (p *periodic) Activate(level *model.SkillLevel) {
	wasActive, ok := p.begin(level)
	if !ok {
		return
	}
	if wasActive {
		p.stopCycle()
	}
	p.startCycle(p.fire)
	slog.Info("skill activated",
		"archetype", p.archetype,
		"owner", p.owner.ID,
		"cooldown", level.Cooldown,
		"restarted", wasActive)
}

func (p *periodic) UpdateLevel(level *model.SkillLevel) {
	if p.swap(level) && IsDebugEnabled() {
		slog.Debug("skill level updated", "archetype", p.archetype, "owner", p.owner.ID, "damage", level.FinalDamage())
	}
}

func (p *periodic) Deactivate() {
	if !p.end() {
		return
	}
	p.stopCycle()
	slog.Info("skill deactivated", "archetype", p.archetype, "owner", p.owner.ID)
}

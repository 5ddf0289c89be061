// Package spawn controls the enemy population: spawn cadence, difficulty
// escalation, same-type aura counters, the boss phase and enemy locomotion.
//
// Every method except Difficulty, Phase and BossAlive must run inside the
// session's scheduling domain (a scheduler callback or Scheduler.Post).
package spawn

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/udisondev/horde/internal/audio"
	"github.com/udisondev/horde/internal/combat"
	"github.com/udisondev/horde/internal/model"
	"github.com/udisondev/horde/internal/scheduler"
	"github.com/udisondev/horde/internal/world"
)

var (
	// ErrNoArchetypes is returned when the roster has nothing to spawn.
	ErrNoArchetypes = errors.New("no enemy archetypes")

	// ErrBossActive is returned by SpawnBoss while a boss is alive.
	ErrBossActive = errors.New("boss already active")

	// ErrNoSpawnAreas is returned by NewController without spawn areas.
	ErrNoSpawnAreas = errors.New("no spawn areas")
)

// Task keys on the session scheduler.
const (
	keySpawn      = "spawn/regular"
	keyDifficulty = "spawn/difficulty"
	keyMove       = "spawn/move"
)

// Phase is the controller stage.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseRegular
	PhaseBoss
	PhaseBossDefeated
	PhaseStopped
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRegular:
		return "regular"
	case PhaseBoss:
		return "boss"
	case PhaseBossDefeated:
		return "boss_defeated"
	case PhaseStopped:
		return "stopped"
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

// Target is the tracked player: enemies chase its anchor and hit its health.
type Target struct {
	ID     uint32
	Anchor model.Anchor
}

// Hooks receive population changes. All optional; called inside the scheduling domain.
type Hooks struct {
	OnSpawn    func(e *model.Enemy)
	OnDeath    func(e *model.Enemy)
	OnEscalate func(d Difficulty)
	OnContact  func(e *model.Enemy, damage int)
}

// Deps are the session collaborators of the controller.
type Deps struct {
	Scheduler  *scheduler.Scheduler
	Population *world.Population
	Registry   *combat.Registry
	IDs        *world.ObjectIDGenerator
	Audio      audio.Cue
	Rand       *rand.Rand
	Hooks      Hooks
}

// Controller owns the live enemy population of one session. It is the only writer of Population.
type Controller struct {
	cfg    Config
	roster Roster
	areas  []model.Rect
	player Target

	sched *scheduler.Scheduler
	pop   *world.Population
	reg   *combat.Registry
	ids   *world.ObjectIDGenerator
	cue   audio.Cue
	rng   *rand.Rand
	hooks Hooks

	sameType []int

	mu         sync.Mutex
	diff       Difficulty
	phase      Phase
	boss       *model.Enemy
	bossSubs   []func(*model.Enemy)
	warnedNone bool
}

// NewController creates idle controller. Areas are rects relative to the player anchor.
func NewController(cfg Config, roster Roster, areas []model.Rect, player Target, deps Deps) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(areas) == 0 {
		return nil, ErrNoSpawnAreas
	}
	if player.Anchor == nil {
		return nil, errors.New("spawn controller: player anchor is nil")
	}
	if deps.Scheduler == nil || deps.Population == nil || deps.Registry == nil {
		return nil, errors.New("spawn controller: scheduler, population and registry are required")
	}
	if deps.IDs == nil {
		deps.IDs = world.NewObjectIDGenerator()
	}
	if deps.Audio == nil {
		deps.Audio = audio.LogCue{}
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	c := &Controller{
		cfg:      cfg,
		roster:   roster,
		areas:    append([]model.Rect(nil), areas...),
		player:   player,
		sched:    deps.Scheduler,
		pop:      deps.Population,
		reg:      deps.Registry,
		ids:      deps.IDs,
		cue:      deps.Audio,
		rng:      deps.Rand,
		hooks:    deps.Hooks,
		sameType: make([]int, len(roster.Regular)),
	}
	c.diff = c.initialDifficulty()
	return c, nil
}

// Start registers spawn, difficulty and locomotion schedules. First spawn on the next scheduler step.
// Calling Start again re-registers without duplicating.
func (c *Controller) Start() {
	c.mu.Lock()
	c.phase = PhaseRegular
	diff := c.diff
	c.mu.Unlock()

	c.sched.Every(keySpawn, 0, c.spawnInterval, c.spawnStep)
	c.sched.Every(keyDifficulty, c.cfg.EscalationInterval, scheduler.Fixed(c.cfg.EscalationInterval), c.escalate)
	c.startLocomotion()

	slog.Info("enemy spawner started",
		"cap", diff.Cap,
		"interval", diff.Interval,
		"enabled", diff.Enabled,
		"archetypes", len(c.roster.Regular))
}

func (c *Controller) startLocomotion() {
	c.sched.Every(keyMove, 0, scheduler.Fixed(c.cfg.MoveInterval), c.moveStep)
}

// Stop cancels every schedule. Live enemies stay in place.
func (c *Controller) Stop() {
	c.sched.Cancel(keySpawn)
	c.sched.Cancel(keyDifficulty)
	c.sched.Cancel(keyMove)

	c.mu.Lock()
	c.phase = PhaseStopped
	c.mu.Unlock()

	slog.Info("enemy spawner stopped", "live", c.pop.LiveCount())
}

// Reset stops, removes every enemy without death notifications and restores initial difficulty.
// Pending OnBossDefeated callbacks are dropped.
func (c *Controller) Reset() {
	c.Stop()

	removed := c.pop.Clear()
	for _, e := range removed {
		e.MarkDead()
		c.reg.Unregister(e.ObjectID())
	}
	for i := range c.sameType {
		c.sameType[i] = 0
	}

	c.mu.Lock()
	c.diff = c.initialDifficulty()
	c.phase = PhaseIdle
	c.boss = nil
	c.bossSubs = nil
	c.warnedNone = false
	c.mu.Unlock()

	slog.Info("enemy spawner reset", "removed", len(removed))
}

// Phase returns current stage.
func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// BossAlive reports whether a boss is in the population.
func (c *Controller) BossAlive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.boss != nil
}

// SameTypeCount returns current aura counter of regular archetype index.
func (c *Controller) SameTypeCount(index int) int {
	if index < 0 || index >= len(c.sameType) {
		return 0
	}
	return c.sameType[index]
}

// OnBossDefeated registers a callback fired once when the current or next boss dies.
func (c *Controller) OnBossDefeated(fn func(boss *model.Enemy)) {
	c.mu.Lock()
	c.bossSubs = append(c.bossSubs, fn)
	c.mu.Unlock()
}

func (c *Controller) spawnStep() {
	if len(c.roster.Regular) == 0 {
		c.mu.Lock()
		warned := c.warnedNone
		c.warnedNone = true
		c.mu.Unlock()
		if !warned {
			slog.Warn("spawn skipped", "error", ErrNoArchetypes)
		}
		return
	}

	c.mu.Lock()
	limit, enabled := c.diff.Cap, c.diff.Enabled
	c.mu.Unlock()

	if c.pop.LiveCount() >= limit {
		return
	}

	idx := c.rng.IntN(enabled)
	e, err := c.spawn(c.roster.Regular[idx])
	if err != nil {
		slog.Error("enemy spawn failed", "archetype", c.roster.Regular[idx].Name, "error", err)
		return
	}

	c.sameType[idx]++
	if c.cfg.AuraThreshold > 0 && c.sameType[idx] >= c.cfg.AuraThreshold {
		e.ActivateAura()
		c.sameType[idx] = 0
		slog.Debug("enemy aura activated", "objectID", e.ObjectID(), "archetype", e.Name())
	}
}

// SpawnOne spawns one regular enemy of archetype index immediately, ignoring the cap.
func (c *Controller) SpawnOne(index int) (*model.Enemy, error) {
	if index < 0 || index >= len(c.roster.Regular) {
		return nil, fmt.Errorf("%w: index %d of %d", ErrNoArchetypes, index, len(c.roster.Regular))
	}
	return c.spawn(c.roster.Regular[index])
}

func (c *Controller) spawn(arch *model.EnemyArchetype) (*model.Enemy, error) {
	id := c.ids.NextEnemyID()
	e := model.NewEnemy(id, arch, c.randomSpawnPoint())
	e.SetTarget(c.player.Anchor)

	if err := c.pop.Add(e); err != nil {
		return nil, fmt.Errorf("adding enemy %d: %w", id, err)
	}
	c.reg.Register(id, arch.MaxHP)
	c.reg.SubscribeDeath(id, func(uint32) { c.despawn(e) })

	slog.Debug("enemy spawned",
		"objectID", id,
		"archetype", arch.Name,
		"boss", arch.Boss,
		"position", e.Position())

	if c.hooks.OnSpawn != nil {
		c.hooks.OnSpawn(e)
	}
	return e, nil
}

// despawn is the death path of every enemy: mark, remove, unregister.
func (c *Controller) despawn(e *model.Enemy) {
	if !e.MarkDead() {
		return
	}
	c.pop.Remove(e.ObjectID())
	c.reg.Unregister(e.ObjectID())

	slog.Debug("enemy died", "objectID", e.ObjectID(), "archetype", e.Name())
	if c.hooks.OnDeath != nil {
		c.hooks.OnDeath(e)
	}

	if e.IsBoss() {
		c.bossDefeated(e)
	}
}

func (c *Controller) randomSpawnPoint() model.Vec2 {
	area := c.areas[c.rng.IntN(len(c.areas))]
	return area.Offset(c.player.Anchor.Position()).RandomPoint(c.rng)
}

// SpawnBoss ends the regular phase: cancels spawn and difficulty schedules,
// kills every live regular enemy and spawns the boss bound to the player.
func (c *Controller) SpawnBoss() (*model.Enemy, error) {
	if c.roster.Boss == nil {
		return nil, fmt.Errorf("%w: roster has no boss", ErrNoArchetypes)
	}
	if c.BossAlive() {
		return nil, ErrBossActive
	}

	c.sched.Cancel(keySpawn)
	c.sched.Cancel(keyDifficulty)

	killed := 0
	for _, e := range c.pop.Snapshot() {
		if e.IsBoss() || e.IsDead() {
			continue
		}
		if c.reg.Kill(e.ObjectID()) {
			killed++
		}
	}

	boss, err := c.spawn(c.roster.Boss)
	if err != nil {
		return nil, fmt.Errorf("spawning boss: %w", err)
	}

	c.mu.Lock()
	c.boss = boss
	c.phase = PhaseBoss
	c.mu.Unlock()

	if !c.sched.Has(keyMove) {
		c.startLocomotion()
	}
	c.cue.Play(audio.BossMusic, true)

	slog.Info("boss spawned",
		"objectID", boss.ObjectID(),
		"name", boss.Name(),
		"killed", killed)
	return boss, nil
}

func (c *Controller) bossDefeated(boss *model.Enemy) {
	c.mu.Lock()
	if c.boss != boss {
		c.mu.Unlock()
		return
	}
	c.boss = nil
	c.phase = PhaseBossDefeated
	subs := c.bossSubs
	c.bossSubs = nil
	c.mu.Unlock()

	slog.Info("boss defeated", "objectID", boss.ObjectID(), "name", boss.Name())
	for _, fn := range subs {
		fn(boss)
	}
}

func (c *Controller) spawnInterval() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.diff.Interval
}

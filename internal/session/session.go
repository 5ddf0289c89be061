// Package session wires one play session: scheduler, enemy population, combat,
// skills, progression and spawner.
//
// Every method that mutates game state runs inside the scheduling domain: call
// it from a scheduler task, between Advance calls on the same goroutine, or via Post.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/udisondev/horde/internal/audio"
	"github.com/udisondev/horde/internal/combat"
	"github.com/udisondev/horde/internal/config"
	"github.com/udisondev/horde/internal/event"
	"github.com/udisondev/horde/internal/fx"
	"github.com/udisondev/horde/internal/game/progression"
	"github.com/udisondev/horde/internal/game/skill"
	"github.com/udisondev/horde/internal/model"
	"github.com/udisondev/horde/internal/scheduler"
	"github.com/udisondev/horde/internal/spawn"
	"github.com/udisondev/horde/internal/world"
)

// ErrOver is returned by actions after the player died or the boss fell.
var ErrOver = errors.New("session is over")

// State is the session stage.
type State uint8

const (
	StateIdle State = iota
	StateRunning
	StateLost
	StateWon
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateLost:
		return "lost"
	case StateWon:
		return "won"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// Result summarizes a finished session.
type Result struct {
	Victory  bool
	Duration time.Duration
	Kills    int
}

// Catalog is the content a session plays with.
type Catalog struct {
	Skills  []*model.SkillDefinition
	Enemies []*model.EnemyArchetype
}

// Options are optional collaborators.
type Options struct {
	Bus        *event.Bus
	Audio      audio.Cue
	OnComplete func(Result)
}

// Session is one run of the engine.
type Session struct {
	id  string
	cfg config.Engine

	sched   *scheduler.Scheduler
	pop     *world.Population
	reg     *combat.Registry
	ids     *world.ObjectIDGenerator
	rng     *rand.Rand
	player  *Player
	pools   map[string]*fx.RoundRobinPool
	factory *skill.Factory
	prog    *progression.Manager
	spawner *spawn.Controller
	bus     *event.Bus

	onComplete func(Result)
	unsubDeath func()

	kills   atomic.Int64
	spawned atomic.Int64

	mu    sync.Mutex
	state State
}

// New builds a session from config and catalog. Invalid catalog entries are logged and skipped.
func New(cfg config.Engine, cat Catalog, opts Options) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}

	s := &Session{
		id:         uuid.NewString(),
		cfg:        cfg,
		sched:      scheduler.New(),
		pop:        world.NewPopulation(),
		reg:        combat.NewRegistry(),
		ids:        world.NewObjectIDGenerator(),
		rng:        rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		pools:      make(map[string]*fx.RoundRobinPool, 4),
		bus:        opts.Bus,
		onComplete: opts.OnComplete,
	}

	pid := s.ids.NextPlayerID()
	s.player = newPlayer(pid, s.reg.Register(pid, cfg.Player.MaxHP))

	if err := s.buildPools(); err != nil {
		return nil, err
	}
	s.factory = skill.NewFactory(s.factoryConfig())

	owner := skill.Owner{
		ID:        fmt.Sprintf("player/%d", pid),
		Anchor:    s.player.anchor,
		Scheduler: s.sched,
		Targets:   s.pop,
		Damage:    s.reg,
		Rand:      s.rng,
	}
	s.prog = progression.New(s.factory, owner, s.player, progression.Options{
		MaxUpgradeOptions: cfg.Progression.MaxUpgradeOptions,
		Rand:              s.rng,
		OnChange:          s.skillChanged,
	})
	if err := s.prog.Initialize(cat.Skills); err != nil {
		slog.Warn("catalog skills skipped", "session", s.id, "error", err)
	}

	cue := opts.Audio
	if cue == nil {
		cue = audio.LogCue{}
	}
	spawner, err := spawn.NewController(cfg.Spawner, spawn.NewRoster(cat.Enemies), cfg.Player.SpawnAreas,
		spawn.Target{ID: pid, Anchor: s.player.anchor},
		spawn.Deps{
			Scheduler:  s.sched,
			Population: s.pop,
			Registry:   s.reg,
			IDs:        s.ids,
			Audio:      cue,
			Rand:       s.rng,
			Hooks: spawn.Hooks{
				OnSpawn:    s.enemySpawned,
				OnDeath:    s.enemyKilled,
				OnEscalate: s.escalated,
				OnContact:  s.playerHit,
			},
		})
	if err != nil {
		return nil, fmt.Errorf("creating spawner: %w", err)
	}
	s.spawner = spawner

	slog.Info("session created",
		"session", s.id,
		"seed", seed,
		"skills", len(s.prog.Skills()),
		"enemies", len(cat.Enemies))
	return s, nil
}

func (s *Session) buildPools() error {
	sk := s.cfg.Skills
	specs := []struct {
		name  string
		size  int
		scale float64
	}{
		{model.SkillFireBreath.String(), sk.FireBreath.PoolSize, sk.FireBreath.DefaultScale},
		{model.SkillArrow.String(), sk.Arrow.PoolSize, 1},
		{model.SkillThunder.String(), sk.Thunder.PoolSize, sk.Thunder.DefaultScale},
		{model.SkillMeteor.String(), sk.Meteor.PoolSize, sk.Meteor.DefaultScale},
	}
	for _, spec := range specs {
		p, err := fx.NewRoundRobinPool(spec.name, spec.size, spec.scale, effectPlayed)
		if err != nil {
			return fmt.Errorf("creating effect pool: %w", err)
		}
		s.pools[spec.name] = p
	}
	return nil
}

func effectPlayed(pool string, e *fx.Emitter) {
	if skill.IsDebugEnabled() {
		p := e.Position()
		slog.Debug("effect played", "pool", pool, "emitter", e.Index(), "x", p.X, "y", p.Y, "scale", e.Scale())
	}
}

func (s *Session) factoryConfig() skill.FactoryConfig {
	sk := s.cfg.Skills
	return skill.FactoryConfig{
		FireBreath: skill.FireBreathConfig{
			Pool:         s.pools[model.SkillFireBreath.String()],
			DefaultScale: sk.FireBreath.DefaultScale,
			Radius:       sk.FireBreath.Radius,
			StrikeDelay:  sk.FireBreath.StrikeDelay,
		},
		Arrow: skill.ArrowConfig{
			Pool:          s.pools[model.SkillArrow.String()],
			ShootDistance: sk.Arrow.ShootDistance,
			VolleySpacing: sk.Arrow.VolleySpacing,
		},
		Aura: skill.AuraConfig{
			Radius:    sk.Aura.Radius,
			TickDelay: sk.Aura.TickDelay,
		},
		Thunder: skill.ThunderConfig{
			Pool:         s.pools[model.SkillThunder.String()],
			DefaultScale: sk.Thunder.DefaultScale,
			Radius:       sk.Thunder.Radius,
		},
		Meteor: skill.MeteorConfig{
			Pool:          s.pools[model.SkillMeteor.String()],
			DefaultScale:  sk.Meteor.DefaultScale,
			Radius:        sk.Meteor.Radius,
			Area:          sk.Meteor.Area,
			FollowOwner:   sk.Meteor.FollowOwner,
			VolleySpacing: sk.Meteor.VolleySpacing,
			ImpactDelay:   sk.Meteor.ImpactDelay,
		},
	}
}

// ID returns session UUID.
func (s *Session) ID() string { return s.id }

// State returns current stage.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Player returns the player actor.
func (s *Session) Player() *Player { return s.player }

// Scheduler returns session scheduler.
func (s *Session) Scheduler() *scheduler.Scheduler { return s.sched }

// Population returns live enemies.
func (s *Session) Population() *world.Population { return s.pop }

// Registry returns health registry of player and enemies.
func (s *Session) Registry() *combat.Registry { return s.reg }

// Progression returns skill progression manager.
func (s *Session) Progression() *progression.Manager { return s.prog }

// Spawner returns enemy population controller.
func (s *Session) Spawner() *spawn.Controller { return s.spawner }

// Kills returns number of enemies killed.
func (s *Session) Kills() int { return int(s.kills.Load()) }

// Start activates starting skills and begins spawning. No-op unless idle.
func (s *Session) Start() {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return
	}
	s.state = StateRunning
	s.mu.Unlock()

	s.unsubDeath = s.reg.SubscribeDeath(s.player.id, s.playerDied)
	s.prog.ActivateStarting(s.cfg.Progression.StartingSkills)
	s.spawner.Start()

	s.publish(event.TypeSessionStarted, nil)
	slog.Info("session started", "session", s.id)
}

// Advance steps game time by dt.
func (s *Session) Advance(dt time.Duration) {
	s.sched.Advance(dt)
}

// Post queues fn to run inside the scheduling domain. Safe from any goroutine.
func (s *Session) Post(fn func()) {
	s.sched.Post(fn)
}

// Run drives the session from wall time until ctx is done or the session is closed.
func (s *Session) Run(ctx context.Context) error {
	return s.sched.Run(ctx, s.cfg.TickInterval)
}

// Offer returns upgrade choices for the current player level.
func (s *Session) Offer() []progression.Choice {
	return s.prog.Offer()
}

// LevelUp raises the player level by one and returns the choices it unlocks.
func (s *Session) LevelUp() []progression.Choice {
	s.player.SetLevel(s.player.PlayerLevel() + 1)
	level := s.player.PlayerLevel()
	slog.Info("player leveled up", "session", s.id, "level", level)

	choices := s.Offer()
	s.publish(event.TypeUpgradeOffered, offerData(level, choices))
	return choices
}

// Choose applies one level of skill id.
func (s *Session) Choose(id string) error {
	if s.over() {
		return ErrOver
	}
	return s.prog.ConfirmChoice(id)
}

// SpawnBoss ends the regular phase and spawns the boss.
func (s *Session) SpawnBoss() error {
	if s.over() {
		return ErrOver
	}
	boss, err := s.spawner.SpawnBoss()
	if err != nil {
		return err
	}
	s.spawner.OnBossDefeated(s.bossDefeated)
	s.publish(event.TypeBossSpawned, enemyData(boss))
	return nil
}

// Reset returns the session to idle: skills reset, enemies removed, player restored.
// The autopilot is disabled; enable it again after Start if needed.
func (s *Session) Reset() {
	s.DisableAutopilot()
	if s.unsubDeath != nil {
		s.unsubDeath()
		s.unsubDeath = nil
	}
	s.prog.Reset()
	s.spawner.Reset()
	s.player.reset()
	s.kills.Store(0)
	s.spawned.Store(0)

	s.mu.Lock()
	s.state = StateIdle
	s.mu.Unlock()

	s.publish(event.TypeSessionReset, nil)
	slog.Info("session reset", "session", s.id)
}

// Close stops every schedule and the wall-clock driver.
func (s *Session) Close() {
	s.prog.DeactivateAll()
	s.spawner.Stop()
	s.sched.Stop()
	slog.Info("session closed", "session", s.id, "kills", s.Kills(), "at", s.sched.Now())
}

func (s *Session) over() bool {
	st := s.State()
	return st == StateLost || st == StateWon
}

func (s *Session) finish(st State) {
	s.mu.Lock()
	if s.state != StateRunning {
		s.mu.Unlock()
		return
	}
	s.state = st
	s.mu.Unlock()

	res := Result{Victory: st == StateWon, Duration: s.sched.Now(), Kills: s.Kills()}
	slog.Info("session finished",
		"session", s.id,
		"victory", res.Victory,
		"duration", res.Duration,
		"kills", res.Kills)
	if s.onComplete != nil {
		s.onComplete(res)
	}
}

func (s *Session) playerDied(uint32) {
	s.prog.DeactivateAll()
	s.spawner.Stop()
	s.publish(event.TypePlayerDied, PlayerData{HP: 0, Source: s.player.health.LastHit().Source})
	s.finish(StateLost)
}

func (s *Session) bossDefeated(boss *model.Enemy) {
	s.publish(event.TypeBossDefeated, enemyData(boss))
	s.prog.DeactivateAll()
	s.finish(StateWon)
}

func (s *Session) enemySpawned(e *model.Enemy) {
	s.spawned.Add(1)
	s.publish(event.TypeEnemySpawned, enemyData(e))
}

func (s *Session) enemyKilled(e *model.Enemy) {
	s.kills.Add(1)
	s.publish(event.TypeEnemyKilled, enemyData(e))
}

func (s *Session) escalated(d spawn.Difficulty) {
	s.publish(event.TypeDifficultyRaise, difficultyData(d))
}

func (s *Session) playerHit(e *model.Enemy, damage int) {
	s.publish(event.TypePlayerHit, PlayerData{HP: s.player.health.CurrentHP(), Damage: damage, Source: e.Name()})
}

func (s *Session) skillChanged(c progression.Change) {
	t := event.TypeSkillUpgraded
	if c.Unlocked {
		t = event.TypeSkillUnlocked
	}
	s.publish(t, SkillData{SkillID: c.SkillID, Level: c.Level})
}

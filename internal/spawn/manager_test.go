package spawn

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/horde/internal/audio"
	"github.com/udisondev/horde/internal/combat"
	"github.com/udisondev/horde/internal/model"
	"github.com/udisondev/horde/internal/scheduler"
	"github.com/udisondev/horde/internal/world"
)

const playerID = world.PlayerIDBase + 1

type harness struct {
	sched  *scheduler.Scheduler
	pop    *world.Population
	reg    *combat.Registry
	cue    *audio.Recorder
	anchor *model.Transform
	ctrl   *Controller

	spawned int
}

func archetypes(n int, speed float64) []*model.EnemyArchetype {
	names := []string{"Bat", "Skeleton", "Ghoul", "Wraith"}
	out := make([]*model.EnemyArchetype, 0, n+1)
	for i := range n {
		out = append(out, &model.EnemyArchetype{Name: names[i%len(names)], MaxHP: 10, MoveSpeed: speed, ContactDamage: 5})
	}
	out = append(out, &model.EnemyArchetype{Name: "Lich", MaxHP: 500, MoveSpeed: speed, ContactDamage: 20, Boss: true})
	return out
}

func newHarness(t testing.TB, cfg Config, roster Roster, areas ...model.Rect) *harness {
	t.Helper()

	if len(areas) == 0 {
		areas = []model.Rect{model.NewRect(model.Vec2{X: 10, Y: 10}, model.Vec2{X: 20, Y: 20})}
	}

	h := &harness{
		sched:  scheduler.New(),
		pop:    world.NewPopulation(),
		reg:    combat.NewRegistry(),
		cue:    &audio.Recorder{},
		anchor: model.NewTransform("player", model.Vec2{}),
	}
	h.reg.Register(playerID, 100)

	ctrl, err := NewController(cfg, roster, areas, Target{ID: playerID, Anchor: h.anchor}, Deps{
		Scheduler:  h.sched,
		Population: h.pop,
		Registry:   h.reg,
		Audio:      h.cue,
		Rand:       rand.New(rand.NewPCG(1, 2)),
		Hooks: Hooks{
			OnSpawn: func(*model.Enemy) { h.spawned++ },
		},
	})
	require.NoError(t, err)
	h.ctrl = ctrl
	return h
}

func TestNewController_Validation(t *testing.T) {
	roster := NewRoster(archetypes(1, 0))
	target := Target{ID: playerID, Anchor: model.NewTransform("p", model.Vec2{})}
	deps := Deps{Scheduler: scheduler.New(), Population: world.NewPopulation(), Registry: combat.NewRegistry()}
	area := []model.Rect{{Max: model.Vec2{X: 1, Y: 1}}}

	_, err := NewController(DefaultConfig(), roster, nil, target, deps)
	assert.ErrorIs(t, err, ErrNoSpawnAreas)

	bad := DefaultConfig()
	bad.IntervalFloor = 0
	_, err = NewController(bad, roster, area, target, deps)
	assert.Error(t, err)

	_, err = NewController(DefaultConfig(), roster, area, Target{}, deps)
	assert.Error(t, err)

	_, err = NewController(DefaultConfig(), roster, area, target, Deps{})
	assert.Error(t, err)
}

func TestController_CapNeverExceeded(t *testing.T) {
	h := newHarness(t, DefaultConfig(), NewRoster(archetypes(3, 0)))
	h.ctrl.Start()

	for range 3000 {
		h.sched.Advance(100 * time.Millisecond)
		if live, limit := h.pop.LiveCount(), h.ctrl.Difficulty().Cap; live > limit {
			t.Fatalf("LiveCount() = %d exceeds cap %d at %s", live, limit, h.sched.Now())
		}
	}
	assert.Equal(t, 30, h.ctrl.Difficulty().Cap)
	assert.Equal(t, 30, h.pop.LiveCount())
}

func TestController_EscalationScenario(t *testing.T) {
	h := newHarness(t, DefaultConfig(), NewRoster(archetypes(3, 0)))
	h.ctrl.Start()

	assert.Equal(t, Difficulty{Cap: 16, Interval: 1400 * time.Millisecond, Enabled: 1}, h.ctrl.Difficulty())

	h.sched.Advance(29 * time.Second)
	assert.Equal(t, 0, h.ctrl.Difficulty().Escalations)

	h.sched.Advance(61 * time.Second)
	assert.Equal(t, Difficulty{Cap: 22, Interval: 800 * time.Millisecond, Enabled: 3, Escalations: 3}, h.ctrl.Difficulty())
}

func TestController_EscalationMonotonicAndBounded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EscalationInterval = time.Second
	var seen []Difficulty

	h := newHarness(t, cfg, NewRoster(archetypes(2, 0)))
	h.ctrl.hooks.OnEscalate = func(d Difficulty) { seen = append(seen, d) }
	h.ctrl.Start()
	h.sched.Advance(40 * time.Second)

	require.Len(t, seen, 40)
	prev := h.ctrl.initialDifficulty()
	for _, d := range seen {
		assert.GreaterOrEqual(t, d.Cap, prev.Cap)
		assert.LessOrEqual(t, d.Cap, cfg.CapCeiling)
		assert.LessOrEqual(t, d.Interval, prev.Interval)
		assert.GreaterOrEqual(t, d.Interval, cfg.IntervalFloor)
		assert.LessOrEqual(t, d.Enabled, 2)
		prev = d
	}
	assert.Equal(t, cfg.IntervalFloor, prev.Interval)
}

func TestController_SpawnIntervalReadOnRearm(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialCap, cfg.CapCeiling = 1000, 1000
	cfg.InitialInterval = time.Second
	cfg.IntervalStep = 500 * time.Millisecond
	cfg.IntervalFloor = 500 * time.Millisecond
	cfg.EscalationInterval = 10250 * time.Millisecond

	h := newHarness(t, cfg, NewRoster(archetypes(1, 0)))
	h.ctrl.Start()
	h.sched.Advance(12 * time.Second)

	// 0..10s every second, 11s (armed before escalation), then 11.5s and 12s.
	assert.Equal(t, 14, h.spawned)
}

func TestController_AuraEveryNthSameType(t *testing.T) {
	cfg := DefaultConfig()
	cfg.InitialInterval = time.Second

	h := newHarness(t, cfg, NewRoster(archetypes(1, 0)))
	h.ctrl.Start()
	h.sched.Advance(9 * time.Second)

	enemies := h.pop.Snapshot()
	require.Len(t, enemies, 10)
	for i, e := range enemies {
		want := (i+1)%5 == 0
		if e.AuraActive() != want {
			t.Errorf("enemy #%d AuraActive() = %v, want %v", i+1, e.AuraActive(), want)
		}
	}
	assert.Equal(t, 0, h.ctrl.SameTypeCount(0))
}

func TestController_DeathRemovesFromPopulation(t *testing.T) {
	h := newHarness(t, DefaultConfig(), NewRoster(archetypes(1, 0)))

	e, err := h.ctrl.SpawnOne(0)
	require.NoError(t, err)
	assert.Equal(t, 1, h.pop.Len())

	h.reg.ApplyDamage(e.ObjectID(), combat.Hit{Amount: 10})
	assert.True(t, e.IsDead())
	assert.Equal(t, 0, h.pop.Len())
	_, ok := h.reg.Health(e.ObjectID())
	assert.False(t, ok)

	_, err = h.ctrl.SpawnOne(5)
	assert.ErrorIs(t, err, ErrNoArchetypes)
}

func TestController_SpawnBoss(t *testing.T) {
	h := newHarness(t, DefaultConfig(), NewRoster(archetypes(2, 0)))
	h.ctrl.Start()
	h.sched.Advance(10 * time.Second)
	require.Equal(t, 8, h.pop.Len())

	var defeated int
	h.ctrl.OnBossDefeated(func(*model.Enemy) { defeated++ })

	boss, err := h.ctrl.SpawnBoss()
	require.NoError(t, err)
	assert.True(t, boss.IsBoss())
	assert.Equal(t, []*model.Enemy{boss}, h.pop.Snapshot())
	assert.Equal(t, PhaseBoss, h.ctrl.Phase())
	assert.Equal(t, []string{audio.BossMusic}, h.cue.Tracks)
	assert.Equal(t, []bool{true}, h.cue.Music)
	assert.False(t, h.sched.Has(keySpawn))
	assert.False(t, h.sched.Has(keyDifficulty))
	assert.True(t, h.sched.Has(keyMove))
	assert.Same(t, h.anchor, boss.Target())

	_, err = h.ctrl.SpawnBoss()
	assert.True(t, errors.Is(err, ErrBossActive))

	h.sched.Advance(60 * time.Second)
	assert.Equal(t, 1, h.pop.Len(), "no regular spawns in boss phase")

	require.True(t, h.reg.Kill(boss.ObjectID()))
	assert.Equal(t, 1, defeated)
	assert.Equal(t, PhaseBossDefeated, h.ctrl.Phase())
	assert.False(t, h.ctrl.BossAlive())
	assert.Equal(t, 0, h.pop.Len())

	h.reg.ApplyDamage(boss.ObjectID(), combat.Hit{Amount: 1})
	assert.Equal(t, 1, defeated)
}

func TestController_EmptyRoster(t *testing.T) {
	h := newHarness(t, DefaultConfig(), NewRoster(nil))
	h.ctrl.Start()
	h.sched.Advance(10 * time.Second)

	assert.Equal(t, 0, h.pop.Len())
	_, err := h.ctrl.SpawnBoss()
	assert.ErrorIs(t, err, ErrNoArchetypes)
}

func TestController_Reset(t *testing.T) {
	h := newHarness(t, DefaultConfig(), NewRoster(archetypes(2, 0)))
	h.ctrl.Start()
	h.sched.Advance(65 * time.Second)
	require.NotZero(t, h.pop.Len())

	h.ctrl.Reset()

	assert.Equal(t, 0, h.pop.Len())
	assert.Equal(t, 1, h.reg.Len(), "only the player stays registered")
	assert.Equal(t, h.ctrl.initialDifficulty(), h.ctrl.Difficulty())
	assert.Equal(t, PhaseIdle, h.ctrl.Phase())
	assert.Equal(t, 0, h.sched.Count())

	h.ctrl.Start()
	h.sched.Advance(0)
	assert.Equal(t, 1, h.pop.Len())
}

func TestController_ResetDropsBossSubscribers(t *testing.T) {
	h := newHarness(t, DefaultConfig(), NewRoster(archetypes(1, 0)))

	var calls int
	h.ctrl.OnBossDefeated(func(*model.Enemy) { calls++ })
	h.ctrl.Start()
	_, err := h.ctrl.SpawnBoss()
	require.NoError(t, err)

	h.ctrl.Reset()

	h.ctrl.OnBossDefeated(func(*model.Enemy) { calls++ })
	h.ctrl.Start()
	boss, err := h.ctrl.SpawnBoss()
	require.NoError(t, err)
	h.reg.Kill(boss.ObjectID())

	if calls != 1 {
		t.Errorf("boss defeat callbacks = %d, want 1", calls)
	}
}

func TestController_ChaseAndContactDamage(t *testing.T) {
	far := model.Rect{Min: model.Vec2{X: 10}, Max: model.Vec2{X: 10}}
	h := newHarness(t, DefaultConfig(), NewRoster(archetypes(1, 2)), far)

	e, err := h.ctrl.SpawnOne(0)
	require.NoError(t, err)
	h.ctrl.startLocomotion()

	h.sched.Advance(time.Second)
	assert.InDelta(t, 7.9, e.Position().X, 1e-9, "21 steps of 0.1")
	assert.InDelta(t, 0, e.Position().Y, 1e-9)

	player, _ := h.reg.Health(playerID)
	assert.Equal(t, 100, player.CurrentHP())
}

func TestController_ContactDamageCooldown(t *testing.T) {
	near := model.Rect{Min: model.Vec2{X: 0.3}, Max: model.Vec2{X: 0.3}}
	h := newHarness(t, DefaultConfig(), NewRoster(archetypes(1, 2)), near)

	var contacts int
	h.ctrl.hooks.OnContact = func(*model.Enemy, int) { contacts++ }

	_, err := h.ctrl.SpawnOne(0)
	require.NoError(t, err)
	h.ctrl.startLocomotion()
	h.sched.Advance(time.Second)

	player, _ := h.reg.Health(playerID)
	assert.Equal(t, 3, contacts, "hits at 0s, 0.5s, 1s")
	assert.Equal(t, 85, player.CurrentHP())

	hit := player.LastHit()
	assert.Equal(t, 100*time.Millisecond, hit.Stun)
	assert.Equal(t, 0.2, hit.Knockback)
	assert.Equal(t, model.Vec2{X: -1}, hit.Direction)
}

func TestController_NoMovementWhilePlayerDead(t *testing.T) {
	far := model.Rect{Min: model.Vec2{X: 10}, Max: model.Vec2{X: 10}}
	h := newHarness(t, DefaultConfig(), NewRoster(archetypes(1, 2)), far)

	e, err := h.ctrl.SpawnOne(0)
	require.NoError(t, err)
	h.reg.Kill(playerID)

	h.ctrl.startLocomotion()
	h.sched.Advance(time.Second)
	assert.Equal(t, model.Vec2{X: 10}, e.Position())
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "boss", PhaseBoss.String())
	assert.Equal(t, "boss_defeated", PhaseBossDefeated.String())
}

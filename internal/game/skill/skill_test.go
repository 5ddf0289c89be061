package skill

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/horde/internal/combat"
	"github.com/udisondev/horde/internal/fx"
	"github.com/udisondev/horde/internal/model"
	"github.com/udisondev/horde/internal/scheduler"
	"github.com/udisondev/horde/internal/world"
)

var bat = &model.EnemyArchetype{Name: "Bat", MaxHP: 100}

type fixture struct {
	sched   *scheduler.Scheduler
	pop     *world.Population
	reg     *combat.Registry
	anchor  *model.Transform
	pool    *fx.RoundRobinPool
	factory *Factory
	owner   Owner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	pool, err := fx.NewRoundRobinPool("test", 4, 1, nil)
	require.NoError(t, err)

	f := &fixture{
		sched:  scheduler.New(),
		pop:    world.NewPopulation(),
		reg:    combat.NewRegistry(),
		anchor: model.NewTransform("player", model.Vec2{}),
		pool:   pool,
	}
	f.factory = NewFactory(FactoryConfig{
		FireBreath: FireBreathConfig{Pool: pool, DefaultScale: 1, Radius: 2},
		Arrow:      ArrowConfig{Pool: pool, ShootDistance: 12, VolleySpacing: 100 * time.Millisecond},
		Aura:       AuraConfig{Radius: 1, TickDelay: 500 * time.Millisecond},
		Thunder:    ThunderConfig{Pool: pool, DefaultScale: 1, Radius: 3},
		Meteor: MeteorConfig{
			Pool:          pool,
			DefaultScale:  1,
			Radius:        5,
			Area:          model.NewRect(model.Vec2{X: -1, Y: -1}, model.Vec2{X: 1, Y: 1}),
			FollowOwner:   true,
			VolleySpacing: 100 * time.Millisecond,
			ImpactDelay:   500 * time.Millisecond,
		},
	})
	f.owner = Owner{
		ID:        "p1",
		Anchor:    f.anchor,
		Scheduler: f.sched,
		Targets:   f.pop,
		Damage:    f.reg,
		Rand:      rand.New(rand.NewPCG(7, 7)),
	}
	return f
}

func (f *fixture) spawn(t *testing.T, id uint32, p model.Vec2) *combat.Health {
	t.Helper()
	require.NoError(t, f.pop.Add(model.NewEnemy(id, bat, p)))
	return f.reg.Register(id, bat.MaxHP)
}

func (f *fixture) behavior(t *testing.T, a model.SkillArchetype) Behavior {
	t.Helper()
	b, err := f.factory.CreateOrGet(a, f.owner)
	require.NoError(t, err)
	return b
}

func level(damage int, cooldown time.Duration) *model.SkillLevel {
	return &model.SkillLevel{
		BaseDamage:       damage,
		DamageMultiplier: 1,
		DamageArea:       1,
		Cooldown:         cooldown,
		Projectiles:      1,
		ProjectileSpeed:  10,
	}
}

func totalPlays(p *fx.RoundRobinPool) int {
	n := 0
	for _, e := range p.Instances() {
		n += e.Plays()
	}
	return n
}

func TestFactory_CachesPerOwnerAndArchetype(t *testing.T) {
	f := newFixture(t)

	a := f.behavior(t, model.SkillArrow)
	b := f.behavior(t, model.SkillArrow)
	assert.Same(t, a, b)

	other := f.owner
	other.ID = "p2"
	c, err := f.factory.CreateOrGet(model.SkillArrow, other)
	require.NoError(t, err)
	assert.NotSame(t, a, c)

	f.behavior(t, model.SkillThunder)
	assert.Equal(t, 3, f.factory.Cached())

	f.factory.ClearCache()
	assert.Equal(t, 0, f.factory.Cached())
	d := f.behavior(t, model.SkillArrow)
	assert.NotSame(t, a, d)
}

func TestFactory_UnknownArchetype(t *testing.T) {
	f := newFixture(t)

	b, err := f.factory.CreateOrGet(model.SkillCustom, f.owner)
	assert.Nil(t, b)
	assert.True(t, errors.Is(err, ErrUnknownArchetype))
	assert.Equal(t, 0, f.factory.Cached())
	assert.False(t, Supported(model.SkillCustom))
	assert.True(t, Supported(model.SkillMeteor))
}

func TestFactory_MissingResource(t *testing.T) {
	f := newFixture(t)
	factory := NewFactory(FactoryConfig{})

	for _, a := range []model.SkillArchetype{model.SkillFireBreath, model.SkillArrow, model.SkillThunder, model.SkillMeteor} {
		b, err := factory.CreateOrGet(a, f.owner)
		if !errors.Is(err, ErrMissingResource) {
			t.Errorf("CreateOrGet(%s) error = %v, want ErrMissingResource", a, err)
		}
		assert.Nil(t, b)
	}

	noRand := f.owner
	noRand.Rand = nil
	_, err := f.factory.CreateOrGet(model.SkillMeteor, noRand)
	assert.ErrorIs(t, err, ErrMissingResource)

	noSched := f.owner
	noSched.Scheduler = nil
	_, err = f.factory.CreateOrGet(model.SkillAura, noSched)
	assert.ErrorIs(t, err, ErrMissingResource)

	assert.Equal(t, 0, factory.Cached())
}

func TestBehavior_ActivateRequiresInitializeAndLevel(t *testing.T) {
	f := newFixture(t)

	raw, err := newThunder(&FactoryConfig{Thunder: ThunderConfig{Pool: f.pool}})
	require.NoError(t, err)
	raw.Activate(level(1, time.Second))
	assert.Equal(t, StateUninitialized, raw.State())
	assert.Equal(t, 0, f.sched.Count())

	b := f.behavior(t, model.SkillThunder)
	b.Activate(nil)
	assert.Equal(t, StateUninitialized, b.State())
	assert.Nil(t, b.Level())

	assert.Error(t, b.Initialize(f.owner), "second initialize rejected")
}

func TestBehavior_DeactivateThenActivateNoDuplicateCycles(t *testing.T) {
	f := newFixture(t)
	b := f.behavior(t, model.SkillThunder)

	b.Activate(level(1, time.Second))
	b.Deactivate()
	b.Deactivate()
	assert.Equal(t, StateDeactivated, b.State())
	assert.Equal(t, 0, f.sched.Count())

	b.Activate(level(1, time.Second))
	b.Activate(level(1, time.Second))
	assert.Equal(t, StateActive, b.State())

	f.sched.Advance(3 * time.Second)
	assert.Equal(t, 4, totalPlays(f.pool), "runs at 0s, 1s, 2s, 3s")
}

func TestBehavior_ActivateWhileActiveRestartsCycle(t *testing.T) {
	f := newFixture(t)
	b := f.behavior(t, model.SkillThunder)

	b.Activate(level(1, time.Second))
	f.sched.Advance(0)
	f.sched.Advance(500 * time.Millisecond)
	require.Equal(t, 1, totalPlays(f.pool))

	b.Activate(level(3, time.Second))
	assert.Equal(t, 3, b.Level().BaseDamage)
	assert.True(t, f.sched.Has("p1/skill/thunder"))

	f.sched.Advance(100 * time.Millisecond)
	assert.Equal(t, 2, totalPlays(f.pool), "restarted cycle fires on the next step")

	f.sched.Advance(800 * time.Millisecond)
	assert.Equal(t, 2, totalPlays(f.pool), "old 1s timer dropped")

	f.sched.Advance(100 * time.Millisecond)
	assert.Equal(t, 3, totalPlays(f.pool))
}

func TestBehavior_UpdateLevelKeepsInFlightTimer(t *testing.T) {
	f := newFixture(t)
	b := f.behavior(t, model.SkillThunder)

	b.Activate(level(1, time.Second))
	f.sched.Advance(0)
	assert.Equal(t, 1, totalPlays(f.pool))

	f.sched.Advance(500 * time.Millisecond)
	b.UpdateLevel(level(2, 3*time.Second))
	assert.Equal(t, StateActive, b.State())
	assert.Equal(t, 2, b.Level().BaseDamage)

	f.sched.Advance(500 * time.Millisecond)
	assert.Equal(t, 2, totalPlays(f.pool), "pending wait of 1s not reset")

	f.sched.Advance(2900 * time.Millisecond)
	assert.Equal(t, 2, totalPlays(f.pool))

	f.sched.Advance(100 * time.Millisecond)
	assert.Equal(t, 3, totalPlays(f.pool), "new cooldown applies from next wait")

	b.UpdateLevel(nil)
	assert.Equal(t, 2, b.Level().BaseDamage)
}

func TestFireBreath_StrikesAroundAnchor(t *testing.T) {
	f := newFixture(t)
	near := f.spawn(t, 1, model.Vec2{X: 1.5})
	far := f.spawn(t, 2, model.Vec2{X: 5})

	f.anchor.SetHeading(model.Vec2{X: 1})
	b := f.behavior(t, model.SkillFireBreath)
	b.Activate(level(10, time.Second))
	f.sched.Advance(0)

	assert.Equal(t, 90, near.CurrentHP())
	assert.Equal(t, 100, far.CurrentHP())

	e := f.pool.Instances()[0]
	assert.Equal(t, model.Vec2{Y: 1}, e.Heading(), "emitter rotated 90° from anchor heading")
	assert.Equal(t, 10, e.Damage())

	big := level(10, time.Second)
	big.DamageArea = 3
	b.UpdateLevel(big)
	f.sched.Advance(time.Second)
	assert.Equal(t, 80, near.CurrentHP())
	assert.Equal(t, 90, far.CurrentHP())
	assert.Equal(t, 3.0, f.pool.Instances()[1].Scale())
}

func TestArrow_VolleyHitsNearestAfterFlight(t *testing.T) {
	f := newFixture(t)
	h := f.spawn(t, 1, model.Vec2{X: 5})

	lvl := level(10, 10*time.Second)
	lvl.Projectiles = 3
	b := f.behavior(t, model.SkillArrow)
	b.Activate(lvl)

	f.sched.Advance(0)
	assert.Equal(t, 1, totalPlays(f.pool))
	assert.Equal(t, 100, h.CurrentHP(), "arrow still in flight")

	f.sched.Advance(200 * time.Millisecond)
	assert.Equal(t, 3, totalPlays(f.pool))

	f.sched.Advance(300 * time.Millisecond)
	assert.Equal(t, 90, h.CurrentHP(), "first arrow lands after 0.5s")

	f.sched.Advance(200 * time.Millisecond)
	assert.Equal(t, 70, h.CurrentHP())

	assert.Equal(t, model.Vec2{X: 1}, b.(*Arrow).Aim().Heading())
}

func TestArrow_OutOfRangeHitsNothing(t *testing.T) {
	f := newFixture(t)
	h := f.spawn(t, 1, model.Vec2{X: 12})

	b := f.behavior(t, model.SkillArrow)
	b.Activate(level(10, time.Second))
	f.sched.Advance(2 * time.Second)

	assert.Equal(t, 3, totalPlays(f.pool))
	assert.Equal(t, 100, h.CurrentHP())
}

func TestArrow_NoProjectilesFiresNothing(t *testing.T) {
	f := newFixture(t)
	f.spawn(t, 1, model.Vec2{X: 1})

	lvl := level(10, time.Second)
	lvl.Projectiles = 0
	b := f.behavior(t, model.SkillArrow)
	b.Activate(lvl)
	f.sched.Advance(2 * time.Second)

	assert.Equal(t, 0, totalPlays(f.pool))
}

func TestArrow_DeactivateCancelsVolleyButNotFlight(t *testing.T) {
	f := newFixture(t)
	h := f.spawn(t, 1, model.Vec2{X: 5})

	lvl := level(10, time.Second)
	lvl.Projectiles = 3
	b := f.behavior(t, model.SkillArrow)
	b.Activate(lvl)

	f.sched.Advance(0)
	b.Deactivate()
	f.sched.Advance(2 * time.Second)

	assert.Equal(t, 1, totalPlays(f.pool))
	assert.Equal(t, 90, h.CurrentHP())
	assert.Equal(t, 0, f.sched.Count())
}

func TestAura_FieldTicksAndRescales(t *testing.T) {
	f := newFixture(t)
	h := f.spawn(t, 1, model.Vec2{X: 1.5})

	lvl := level(5, time.Second)
	lvl.DamageArea = 2
	b := f.behavior(t, model.SkillAura)
	b.Activate(lvl)

	aura := b.(*Aura)
	assert.True(t, aura.Field().Enabled())
	assert.Equal(t, 2.0, aura.Field().Radius())

	f.sched.Advance(time.Second)
	assert.Equal(t, 90, h.CurrentHP())

	upd := *lvl
	upd.DamageMultiplier = 2
	b.UpdateLevel(&upd)
	f.sched.Advance(500 * time.Millisecond)
	assert.Equal(t, 80, h.CurrentHP())

	b.Deactivate()
	assert.False(t, aura.Field().Enabled())
	f.sched.Advance(5 * time.Second)
	assert.Equal(t, 80, h.CurrentHP())
}

func TestThunder_StrikesAtOwner(t *testing.T) {
	f := newFixture(t)
	f.anchor.SetPosition(model.Vec2{X: 10, Y: 10})
	near := f.spawn(t, 1, model.Vec2{X: 12, Y: 10})
	far := f.spawn(t, 2, model.Vec2{})

	b := f.behavior(t, model.SkillThunder)
	b.Activate(level(25, time.Second))
	f.sched.Advance(0)

	assert.Equal(t, 75, near.CurrentHP())
	assert.Equal(t, 100, far.CurrentHP())
	assert.Equal(t, model.Vec2{X: 10, Y: 10}, f.pool.Instances()[0].Position())
	assert.Equal(t, "thunder", near.LastHit().Source)
}

func TestMeteor_ShowerImpactsAfterDelay(t *testing.T) {
	f := newFixture(t)
	center := model.Vec2{X: 100, Y: 100}
	f.anchor.SetPosition(center)
	h := f.spawn(t, 1, center)

	lvl := level(10, 10*time.Second)
	lvl.Projectiles = 2
	b := f.behavior(t, model.SkillMeteor)
	b.Activate(lvl)

	f.sched.Advance(0)
	f.sched.Advance(100 * time.Millisecond)
	assert.Equal(t, 2, totalPlays(f.pool))
	assert.Equal(t, 100, h.CurrentHP())

	area := model.NewRect(model.Vec2{X: 99, Y: 99}, model.Vec2{X: 101, Y: 101})
	for _, e := range f.pool.Instances()[:2] {
		assert.True(t, area.Contains(e.Position()), "meteor at %v", e.Position())
	}

	f.sched.Advance(400 * time.Millisecond)
	assert.Equal(t, 90, h.CurrentHP())

	f.sched.Advance(100 * time.Millisecond)
	assert.Equal(t, 80, h.CurrentHP())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "active", StateActive.String())
	assert.Equal(t, "deactivated", StateDeactivated.String())
	assert.Equal(t, "uninitialized", StateUninitialized.String())
}

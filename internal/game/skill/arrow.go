package skill

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/udisondev/horde/internal/combat"
	"github.com/udisondev/horde/internal/fx"
	"github.com/udisondev/horde/internal/model"
	"github.com/udisondev/horde/internal/targeting"
)

// ArrowConfig holds static resources of the arrow skill.
type ArrowConfig struct {
	Pool          fx.Pool
	ShootDistance float64
	VolleySpacing time.Duration
}

// Arrow shoots a volley at the nearest enemy in range every cooldown.
// Without a target in range the arrow flies along the last aim and hits nothing.
type Arrow struct {
	periodic
	cfg ArrowConfig
	aim *model.Transform

	flightSeq uint64
}

func newArrow(cfg *FactoryConfig) (Behavior, error) {
	if cfg.Arrow.Pool == nil {
		return nil, fmt.Errorf("%w: arrow pool", ErrMissingResource)
	}
	b := &Arrow{cfg: cfg.Arrow}
	b.archetype = model.SkillArrow
	b.fire = b.shootVolley
	return b, nil
}

// Initialize binds owner.
func (b *Arrow) Initialize(owner Owner) error {
	if err := b.bind(owner); err != nil {
		return err
	}
	b.aim = model.NewTransform(owner.ID+"/aim", owner.Anchor.Position())
	return nil
}

// Aim returns fire direction transform.
func (b *Arrow) Aim() *model.Transform { return b.aim }

func (b *Arrow) shootVolley() {
	lvl := b.current()
	b.volley(lvl.Projectiles, b.cfg.VolleySpacing, func(int) {
		b.shoot(b.current())
	})
}

func (b *Arrow) shoot(lvl model.SkillLevel) {
	origin := b.owner.Anchor.Position()
	b.aim.SetPosition(origin)

	e := b.cfg.Pool.Acquire()
	target, ok := targeting.NearestWithin(origin, b.owner.Targets, b.cfg.ShootDistance)
	if !ok {
		e.Place(origin, b.aim.Heading())
		b.cfg.Pool.Play(e)
		b.cfg.Pool.Release(e)
		if IsDebugEnabled() {
			slog.Debug("arrow fired without target", "owner", b.owner.ID)
		}
		return
	}

	tp := target.Position()
	b.aim.LookAt(tp)
	dir := b.aim.Heading()

	dmg := lvl.FinalDamage()
	e.Place(origin, dir)
	e.SetDamage(dmg)
	b.cfg.Pool.Play(e)

	var flight time.Duration
	if lvl.ProjectileSpeed > 0 {
		flight = time.Duration(origin.Distance(tp) / lvl.ProjectileSpeed * float64(time.Second))
	}

	b.flightSeq++
	key := b.cycleKey() + "/flight/" + strconv.FormatUint(b.flightSeq, 10)
	id := target.ObjectID()
	hit := combat.Hit{
		Amount:    dmg,
		Source:    b.archetype.String(),
		Stun:      lvl.StunDuration(),
		Direction: dir,
	}
	b.owner.Scheduler.After(key, flight, func() {
		b.owner.Damage.ApplyDamage(id, hit)
		b.cfg.Pool.Release(e)
	})

	if IsDebugEnabled() {
		slog.Debug("arrow fired", "owner", b.owner.ID, "target", id, "damage", dmg, "flight", flight)
	}
}

package skill

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/udisondev/horde/internal/fx"
	"github.com/udisondev/horde/internal/game/area"
	"github.com/udisondev/horde/internal/model"
)

// MeteorConfig holds static resources of the meteor skill.
type MeteorConfig struct {
	Pool          fx.Pool
	DefaultScale  float64
	Radius        float64
	Area          model.Rect
	FollowOwner   bool
	VolleySpacing time.Duration
	ImpactDelay   time.Duration
}

// Meteor drops a volley of meteors at random points of an area every cooldown.
type Meteor struct {
	periodic
	cfg      MeteorConfig
	resolver *area.Resolver
}

func newMeteor(cfg *FactoryConfig) (Behavior, error) {
	if cfg.Meteor.Pool == nil {
		return nil, fmt.Errorf("%w: meteor pool", ErrMissingResource)
	}
	b := &Meteor{cfg: cfg.Meteor}
	b.archetype = model.SkillMeteor
	b.fire = b.shower
	return b, nil
}

// Initialize binds owner. Meteor needs the owner's random source.
func (b *Meteor) Initialize(owner Owner) error {
	if owner.Rand == nil {
		return fmt.Errorf("%w: random source", ErrMissingResource)
	}
	if err := b.bind(owner); err != nil {
		return err
	}
	b.resolver = area.NewResolver(owner.Scheduler, owner.Targets, owner.Damage, b.cycleKey())
	return nil
}

func (b *Meteor) shower() {
	b.volley(b.current().Projectiles, b.cfg.VolleySpacing, func(int) {
		b.drop(b.current())
	})
}

func (b *Meteor) drop(lvl model.SkillLevel) {
	rect := b.cfg.Area
	if b.cfg.FollowOwner {
		rect = rect.Offset(b.owner.Anchor.Position())
	}
	p := rect.RandomPoint(b.owner.Rand)
	dmg := lvl.FinalDamage()

	e := b.cfg.Pool.Acquire()
	e.Place(p, model.Vec2{Y: -1})
	e.SetScale(b.cfg.DefaultScale * lvl.DamageArea)
	e.SetDamage(dmg)
	b.cfg.Pool.Play(e)

	b.resolver.Strike(area.Strike{
		Center: p,
		Radius: b.cfg.Radius * lvl.DamageArea,
		Damage: dmg,
		Source: b.archetype.String(),
		Stun:   lvl.StunDuration(),
		Delay:  b.cfg.ImpactDelay,
		Done:   func(int) { b.cfg.Pool.Release(e) },
	})

	if IsDebugEnabled() {
		slog.Debug("meteor dropped", "owner", b.owner.ID, "x", p.X, "y", p.Y, "damage", dmg)
	}
}

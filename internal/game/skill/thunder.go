package skill

import (
	"fmt"
	"log/slog"

	"github.com/udisondev/horde/internal/fx"
	"github.com/udisondev/horde/internal/game/area"
	"github.com/udisondev/horde/internal/model"
)

// ThunderConfig holds static resources of the thunder skill.
type ThunderConfig struct {
	Pool         fx.Pool
	DefaultScale float64
	Radius       float64
}

// Thunder strikes everything around the owner every cooldown.
type Thunder struct {
	periodic
	cfg      ThunderConfig
	resolver *area.Resolver
}

func newThunder(cfg *FactoryConfig) (Behavior, error) {
	if cfg.Thunder.Pool == nil {
		return nil, fmt.Errorf("%w: thunder pool", ErrMissingResource)
	}
	b := &Thunder{cfg: cfg.Thunder}
	b.archetype = model.SkillThunder
	b.fire = b.strike
	return b, nil
}

// Initialize binds owner.
func (b *Thunder) Initialize(owner Owner) error {
	if err := b.bind(owner); err != nil {
		return err
	}
	b.resolver = area.NewResolver(owner.Scheduler, owner.Targets, owner.Damage, b.cycleKey())
	return nil
}

func (b *Thunder) strike() {
	lvl := b.current()
	pos := b.owner.Anchor.Position()
	dmg := lvl.FinalDamage()

	e := b.cfg.Pool.Acquire()
	e.Place(pos, b.owner.Anchor.Heading())
	e.SetScale(b.cfg.DefaultScale * lvl.DamageArea)
	e.SetDamage(dmg)
	b.cfg.Pool.Play(e)

	b.resolver.Strike(area.Strike{
		Center: pos,
		Radius: b.cfg.Radius * lvl.DamageArea,
		Damage: dmg,
		Source: b.archetype.String(),
		Stun:   lvl.StunDuration(),
		Done:   func(int) { b.cfg.Pool.Release(e) },
	})

	if IsDebugEnabled() {
		slog.Debug("thunder strike", "owner", b.owner.ID, "damage", dmg)
	}
}

package skill

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/udisondev/horde/internal/fx"
	"github.com/udisondev/horde/internal/game/area"
	"github.com/udisondev/horde/internal/model"
)

// FireBreathConfig holds static resources of the fire breath skill.
type FireBreathConfig struct {
	Pool         fx.Pool
	DefaultScale float64
	Radius       float64
	StrikeDelay  time.Duration
}

// FireBreath fires a cone effect from the owner's anchor every cooldown.
// Each cycle the emitter is re-parented to the anchor, so it follows the owner.
type FireBreath struct {
	periodic
	cfg      FireBreathConfig
	resolver *area.Resolver
}

func newFireBreath(cfg *FactoryConfig) (Behavior, error) {
	if cfg.FireBreath.Pool == nil {
		return nil, fmt.Errorf("%w: fire breath pool", ErrMissingResource)
	}
	b := &FireBreath{cfg: cfg.FireBreath}
	b.archetype = model.SkillFireBreath
	b.fire = b.breathe
	return b, nil
}

// Initialize binds owner.
func (b *FireBreath) Initialize(owner Owner) error {
	if err := b.bind(owner); err != nil {
		return err
	}
	b.resolver = area.NewResolver(owner.Scheduler, owner.Targets, owner.Damage, b.cycleKey())
	return nil
}

func (b *FireBreath) breathe() {
	lvl := b.current()
	pos := b.owner.Anchor.Position()
	dmg := lvl.FinalDamage()

	e := b.cfg.Pool.Acquire()
	e.Place(pos, b.owner.Anchor.Heading().Rotate90())
	e.SetScale(b.cfg.DefaultScale * lvl.DamageArea)
	e.SetDamage(dmg)

	b.resolver.Strike(area.Strike{
		Center: pos,
		Radius: b.cfg.Radius * lvl.DamageArea,
		Damage: dmg,
		Source: b.archetype.String(),
		Stun:   lvl.StunDuration(),
		Delay:  b.cfg.StrikeDelay,
		Done:   func(int) { b.cfg.Pool.Release(e) },
	})
	b.cfg.Pool.Play(e)

	if IsDebugEnabled() {
		slog.Debug("fire breath", "owner", b.owner.ID, "damage", dmg, "area", lvl.DamageArea)
	}
}

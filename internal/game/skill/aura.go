package skill

import (
	"log/slog"
	"time"

	"github.com/udisondev/horde/internal/game/area"
	"github.com/udisondev/horde/internal/model"
)

// AuraConfig holds static resources of the aura skill.
type AuraConfig struct {
	Radius    float64
	TickDelay time.Duration
}

// Aura is a persistent damage field around the owner. Not cycle-driven:
// the field ticks on its own while the skill is active.
type Aura struct {
	base
	cfg   AuraConfig
	field *area.Field
}

func newAura(cfg *FactoryConfig) (Behavior, error) {
	b := &Aura{cfg: cfg.Aura}
	b.archetype = model.SkillAura
	return b, nil
}

// Initialize binds owner and attaches the field to the owner's anchor.
func (b *Aura) Initialize(owner Owner) error {
	if err := b.bind(owner); err != nil {
		return err
	}
	b.field = area.NewField(area.FieldConfig{
		Key:       b.cycleKey(),
		Source:    b.archetype.String(),
		Anchor:    owner.Anchor,
		TickDelay: b.cfg.TickDelay,
		Radius:    b.cfg.Radius,
	}, owner.Scheduler, owner.Targets, owner.Damage)
	return nil
}

// Field returns the damage field.
func (b *Aura) Field() *area.Field { return b.field }

// Activate enables the field with level stats.
func (b *Aura) Activate(level *model.SkillLevel) {
	if _, ok := b.begin(level); !ok {
		return
	}
	b.apply()
	b.field.Enable()
	slog.Info("skill activated", "archetype", b.archetype, "owner", b.owner.ID)
}

// UpdateLevel rescales the field in place.
func (b *Aura) UpdateLevel(level *model.SkillLevel) {
	if b.swap(level) {
		b.apply()
	}
}

// Deactivate disables the field.
func (b *Aura) Deactivate() {
	if !b.end() {
		return
	}
	b.field.Disable()
	slog.Info("skill deactivated", "archetype", b.archetype, "owner", b.owner.ID)
}

func (b *Aura) apply() {
	lvl := b.current()
	b.field.SetDamage(lvl.FinalDamage())
	b.field.SetRadius(b.cfg.Radius * lvl.DamageArea)
}

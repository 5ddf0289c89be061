package model

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// SkillArchetype is the fixed behavior kind of a skill.
// Closed set: every value except SkillCustom has a behavior builder.
type SkillArchetype uint8

const (
	SkillFireBreath SkillArchetype = iota
	SkillArrow
	SkillAura
	SkillThunder
	SkillMeteor
	SkillCustom
)

var skillArchetypeNames = [...]string{
	SkillFireBreath: "fire_breath",
	SkillArrow:      "arrow",
	SkillAura:       "aura",
	SkillThunder:    "thunder",
	SkillMeteor:     "meteor",
	SkillCustom:     "custom",
}

// String returns archetype tag as used in catalogs.
func (a SkillArchetype) String() string {
	if int(a) < len(skillArchetypeNames) {
		return skillArchetypeNames[a]
	}
	return fmt.Sprintf("archetype(%d)", uint8(a))
}

// ParseSkillArchetype parses catalog tag (case-insensitive, "FireBreath" and "fire_breath" both accepted).
func ParseSkillArchetype(s string) (SkillArchetype, error) {
	norm := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", ""))
	for i, name := range skillArchetypeNames {
		if strings.ReplaceAll(name, "_", "") == norm {
			return SkillArchetype(i), nil
		}
	}
	return 0, fmt.Errorf("unknown skill archetype %q", s)
}

// MarshalText implements encoding.TextMarshaler (YAML/JSON).
func (a SkillArchetype) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler (YAML/JSON).
func (a *SkillArchetype) UnmarshalText(text []byte) error {
	v, err := ParseSkillArchetype(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// StatusEffectType is a secondary effect carried by a skill level.
type StatusEffectType uint8

const (
	StatusSlow StatusEffectType = iota
	StatusBurn
	StatusPoison
	StatusFreeze
	StatusStun
)

var statusEffectNames = [...]string{
	StatusSlow:   "slow",
	StatusBurn:   "burn",
	StatusPoison: "poison",
	StatusFreeze: "freeze",
	StatusStun:   "stun",
}

// String returns status effect tag.
func (t StatusEffectType) String() string {
	if int(t) < len(statusEffectNames) {
		return statusEffectNames[t]
	}
	return fmt.Sprintf("status(%d)", uint8(t))
}

// ParseStatusEffectType parses status effect tag.
func ParseStatusEffectType(s string) (StatusEffectType, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	for i, name := range statusEffectNames {
		if name == norm {
			return StatusEffectType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown status effect %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t StatusEffectType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *StatusEffectType) UnmarshalText(text []byte) error {
	v, err := ParseStatusEffectType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// StatusEffect describes a status applied by a hit.
type StatusEffect struct {
	Type     StatusEffectType `yaml:"type"`
	Value    float64          `yaml:"value"`
	Duration time.Duration    `yaml:"duration"`
}

// SkillLevel is one step of a skill's power progression.
type SkillLevel struct {
	BaseDamage       int     `yaml:"base_damage"`
	DamageMultiplier float64 `yaml:"damage_multiplier"`

	DamageArea  float64 `yaml:"damage_area"`
	AttackRange float64 `yaml:"attack_range"`

	Cooldown time.Duration `yaml:"cooldown"`
	Duration time.Duration `yaml:"duration"`

	Projectiles     int     `yaml:"projectiles"`
	ProjectileSpeed float64 `yaml:"projectile_speed"`

	StatusEffects []StatusEffect `yaml:"status_effects,omitempty"`
}

// FinalDamage returns round(base × multiplier), halves rounded away from zero.
func (l *SkillLevel) FinalDamage() int {
	return int(math.Round(float64(l.BaseDamage) * l.DamageMultiplier))
}

// StunDuration returns duration of the first stun status, zero if none.
func (l *SkillLevel) StunDuration() time.Duration {
	for _, se := range l.StatusEffects {
		if se.Type == StatusStun {
			return se.Duration
		}
	}
	return 0
}

// Validate checks level invariants.
func (l *SkillLevel) Validate() error {
	if l.Cooldown <= 0 {
		return fmt.Errorf("cooldown must be > 0, got %s", l.Cooldown)
	}
	if l.BaseDamage < 0 || l.DamageMultiplier < 0 {
		return errors.New("damage must be non-negative")
	}
	if l.DamageArea < 0 || l.AttackRange < 0 {
		return errors.New("area and range must be non-negative")
	}
	return nil
}

// SkillDefinition is the immutable catalog entry of a skill.
type SkillDefinition struct {
	ID          string         `yaml:"id"`
	Archetype   SkillArchetype `yaml:"archetype"`
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`

	Levels []SkillLevel `yaml:"levels"`

	RequiredSkillIDs    []string `yaml:"required_skills,omitempty"`
	RequiredPlayerLevel int      `yaml:"required_player_level"`
}

// MaxLevel returns number of levels.
func (d *SkillDefinition) MaxLevel() int {
	return len(d.Levels)
}

// Level returns level data by 1-based level number, nil if out of range.
func (d *SkillDefinition) Level(n int) *SkillLevel {
	if n < 1 || n > len(d.Levels) {
		return nil
	}
	return &d.Levels[n-1]
}

// Validate checks definition invariants: id present, non-empty valid levels.
func (d *SkillDefinition) Validate() error {
	if d.ID == "" {
		return errors.New("skill id is empty")
	}
	if len(d.Levels) == 0 {
		return fmt.Errorf("skill %s has no levels", d.ID)
	}
	for i := range d.Levels {
		if err := d.Levels[i].Validate(); err != nil {
			return fmt.Errorf("skill %s level %d: %w", d.ID, i+1, err)
		}
	}
	return nil
}

// Clone returns a deep copy that shares no storage with d.
func (d *SkillDefinition) Clone() *SkillDefinition {
	c := *d
	c.Levels = make([]SkillLevel, len(d.Levels))
	for i, l := range d.Levels {
		c.Levels[i] = l
		if l.StatusEffects != nil {
			c.Levels[i].StatusEffects = append([]StatusEffect(nil), l.StatusEffects...)
		}
	}
	if d.RequiredSkillIDs != nil {
		c.RequiredSkillIDs = append([]string(nil), d.RequiredSkillIDs...)
	}
	return &c
}

package spawn

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Config tunes spawn cadence, escalation and enemy locomotion.
type Config struct {
	InitialCap int `yaml:"initial_cap"`
	CapCeiling int `yaml:"cap_ceiling"`
	CapStep    int `yaml:"cap_step"`

	InitialInterval    time.Duration `yaml:"initial_interval"`
	IntervalFloor      time.Duration `yaml:"interval_floor"`
	IntervalStep       time.Duration `yaml:"interval_step"`
	EscalationInterval time.Duration `yaml:"escalation_interval"`

	InitialEnabledArchetypes int `yaml:"initial_enabled_archetypes"`
	AuraThreshold            int `yaml:"aura_threshold"`

	MoveInterval     time.Duration `yaml:"move_interval"`
	ContactRadius    float64       `yaml:"contact_radius"`
	ContactCooldown  time.Duration `yaml:"contact_cooldown"`
	ContactStun      time.Duration `yaml:"contact_stun"`
	ContactKnockback float64       `yaml:"contact_knockback"`
}

// DefaultConfig returns the stock survivor-arena tuning.
func DefaultConfig() Config {
	return Config{
		InitialCap: 16,
		CapCeiling: 30,
		CapStep:    2,

		InitialInterval:    1400 * time.Millisecond,
		IntervalFloor:      10 * time.Millisecond,
		IntervalStep:       200 * time.Millisecond,
		EscalationInterval: 30 * time.Second,

		InitialEnabledArchetypes: 1,
		AuraThreshold:            5,

		MoveInterval:     50 * time.Millisecond,
		ContactRadius:    0.5,
		ContactCooldown:  500 * time.Millisecond,
		ContactStun:      100 * time.Millisecond,
		ContactKnockback: 0.2,
	}
}

// Validate checks config invariants.
func (c Config) Validate() error {
	var errs []error
	if c.IntervalFloor <= 0 {
		errs = append(errs, fmt.Errorf("interval_floor must be > 0, got %s", c.IntervalFloor))
	}
	if c.InitialInterval < c.IntervalFloor {
		errs = append(errs, fmt.Errorf("initial_interval %s below interval_floor %s", c.InitialInterval, c.IntervalFloor))
	}
	if c.InitialCap < 0 || c.CapCeiling < c.InitialCap {
		errs = append(errs, fmt.Errorf("need 0 <= initial_cap <= cap_ceiling, got %d and %d", c.InitialCap, c.CapCeiling))
	}
	if c.CapStep < 0 || c.IntervalStep < 0 {
		errs = append(errs, errors.New("escalation steps must be non-negative"))
	}
	if c.EscalationInterval <= 0 {
		errs = append(errs, fmt.Errorf("escalation_interval must be > 0, got %s", c.EscalationInterval))
	}
	if c.MoveInterval <= 0 {
		errs = append(errs, fmt.Errorf("move_interval must be > 0, got %s", c.MoveInterval))
	}
	if c.ContactRadius < 0 || c.ContactCooldown < 0 {
		errs = append(errs, errors.New("contact radius and cooldown must be non-negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("spawner config: %w", errors.Join(errs...))
	}
	return nil
}

// Difficulty is a snapshot of the escalating spawn parameters.
type Difficulty struct {
	Cap         int
	Interval    time.Duration
	Enabled     int
	Escalations int
}

func (c *Controller) initialDifficulty() Difficulty {
	return Difficulty{
		Cap:      c.cfg.InitialCap,
		Interval: c.cfg.InitialInterval,
		Enabled:  clamp(c.cfg.InitialEnabledArchetypes, 1, max(1, len(c.roster.Regular))),
	}
}

// Difficulty returns current difficulty. Safe from any goroutine.
func (c *Controller) Difficulty() Difficulty {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.diff
}

// escalate raises the cap, shortens the interval and enables one more archetype, each clamped.
// The new interval applies when the spawn schedule next re-arms.
func (c *Controller) escalate() {
	c.mu.Lock()
	d := c.diff
	d.Cap = clamp(d.Cap+c.cfg.CapStep, 0, c.cfg.CapCeiling)
	d.Interval = max(d.Interval-c.cfg.IntervalStep, c.cfg.IntervalFloor)
	d.Enabled = clamp(d.Enabled+1, 1, max(1, len(c.roster.Regular)))
	d.Escalations++
	c.diff = d
	c.mu.Unlock()

	slog.Info("difficulty increased",
		"cap", d.Cap,
		"interval", d.Interval,
		"enabled", d.Enabled,
		"escalations", d.Escalations)

	if c.hooks.OnEscalate != nil {
		c.hooks.OnEscalate(d)
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// Package config loads engine configuration from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/horde/internal/model"
	"github.com/udisondev/horde/internal/spawn"
)

// EnvPath overrides the config path given on the command line.
const EnvPath = "HORDE_CONFIG"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Catalog sources.
const (
	CatalogFile     = "file"
	CatalogDatabase = "database"
)

// Engine holds all configuration of a session runner.
type Engine struct {
	LogLevel     string        `yaml:"log_level"`
	TickInterval time.Duration `yaml:"tick_interval"`
	// Seed of the session RNG; 0 picks a random seed.
	Seed uint64 `yaml:"seed"`

	Catalog  CatalogConfig  `yaml:"catalog"`
	Database DatabaseConfig `yaml:"database"`

	Player      PlayerConfig      `yaml:"player"`
	Spawner     spawn.Config      `yaml:"spawner"`
	Skills      SkillsConfig      `yaml:"skills"`
	Progression ProgressionConfig `yaml:"progression"`

	Broadcast BroadcastConfig `yaml:"broadcast"`
	Autopilot AutopilotConfig `yaml:"autopilot"`
}

// CatalogConfig selects where skills and enemies come from.
type CatalogConfig struct {
	Source string `yaml:"source"` // file | database
	Path   string `yaml:"path"`   // empty: built-in catalog
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// PlayerConfig describes the player actor.
type PlayerConfig struct {
	MaxHP int `yaml:"max_hp"`
	// SpawnAreas are rects relative to the player where enemies appear.
	SpawnAreas []model.Rect `yaml:"spawn_areas"`
}

// EmitterSkill tunes a skill that plays pooled effects.
type EmitterSkill struct {
	PoolSize     int           `yaml:"pool_size"`
	DefaultScale float64       `yaml:"default_scale"`
	Radius       float64       `yaml:"radius"`
	StrikeDelay  time.Duration `yaml:"strike_delay"`
}

// ArrowSkill tunes the arrow volley.
type ArrowSkill struct {
	PoolSize      int           `yaml:"pool_size"`
	ShootDistance float64       `yaml:"shoot_distance"`
	VolleySpacing time.Duration `yaml:"volley_spacing"`
}

// AuraSkill tunes the damage field.
type AuraSkill struct {
	Radius    float64       `yaml:"radius"`
	TickDelay time.Duration `yaml:"tick_delay"`
}

// MeteorSkill tunes the meteor shower.
type MeteorSkill struct {
	PoolSize      int           `yaml:"pool_size"`
	DefaultScale  float64       `yaml:"default_scale"`
	Radius        float64       `yaml:"radius"`
	Area          model.Rect    `yaml:"area"`
	FollowOwner   bool          `yaml:"follow_owner"`
	VolleySpacing time.Duration `yaml:"volley_spacing"`
	ImpactDelay   time.Duration `yaml:"impact_delay"`
}

// SkillsConfig holds per-archetype resources.
type SkillsConfig struct {
	FireBreath EmitterSkill `yaml:"fire_breath"`
	Arrow      ArrowSkill   `yaml:"arrow"`
	Aura       AuraSkill    `yaml:"aura"`
	Thunder    EmitterSkill `yaml:"thunder"`
	Meteor     MeteorSkill  `yaml:"meteor"`
}

// ProgressionConfig tunes upgrade offers.
type ProgressionConfig struct {
	MaxUpgradeOptions int      `yaml:"max_upgrade_options"`
	StartingSkills    []string `yaml:"starting_skills"`
}

// BroadcastConfig enables the spectator websocket feed.
type BroadcastConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Addr       string `yaml:"addr"`
	SendBuffer int    `yaml:"send_buffer"`
}

// AutopilotConfig drives a headless run: player levels up on a timer
// and confirms the first offered upgrade.
type AutopilotConfig struct {
	Enabled    bool          `yaml:"enabled"`
	LevelEvery time.Duration `yaml:"level_every"`
	BossAfter  time.Duration `yaml:"boss_after"`
	// RunFor stops the runner after this much game time; 0 runs until interrupted.
	RunFor time.Duration `yaml:"run_for"`
}

// DefaultEngine returns Engine config with sensible defaults.
func DefaultEngine() Engine {
	return Engine{
		LogLevel:     "info",
		TickInterval: 20 * time.Millisecond,
		Catalog: CatalogConfig{
			Source: CatalogFile,
		},
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "horde",
			Password: "horde",
			DBName:   "horde",
			SSLMode:  "disable",
		},
		Player: PlayerConfig{
			MaxHP: 100,
			SpawnAreas: []model.Rect{
				{Min: model.Vec2{X: -12, Y: 8}, Max: model.Vec2{X: 12, Y: 10}},
				{Min: model.Vec2{X: -12, Y: -10}, Max: model.Vec2{X: 12, Y: -8}},
				{Min: model.Vec2{X: -14, Y: -8}, Max: model.Vec2{X: -12, Y: 8}},
				{Min: model.Vec2{X: 12, Y: -8}, Max: model.Vec2{X: 14, Y: 8}},
			},
		},
		Spawner: spawn.DefaultConfig(),
		Skills: SkillsConfig{
			FireBreath: EmitterSkill{PoolSize: 4, DefaultScale: 1, Radius: 2, StrikeDelay: 100 * time.Millisecond},
			Arrow:      ArrowSkill{PoolSize: 16, ShootDistance: 10, VolleySpacing: 100 * time.Millisecond},
			Aura:       AuraSkill{Radius: 1.5, TickDelay: 500 * time.Millisecond},
			Thunder:    EmitterSkill{PoolSize: 4, DefaultScale: 1, Radius: 3},
			Meteor: MeteorSkill{
				PoolSize:      8,
				DefaultScale:  1,
				Radius:        1.5,
				Area:          model.Rect{Min: model.Vec2{X: -8, Y: -5}, Max: model.Vec2{X: 8, Y: 5}},
				FollowOwner:   true,
				VolleySpacing: 100 * time.Millisecond,
				ImpactDelay:   500 * time.Millisecond,
			},
		},
		Progression: ProgressionConfig{
			MaxUpgradeOptions: 3,
			StartingSkills:    []string{"fire_breath"},
		},
		Broadcast: BroadcastConfig{
			Addr:       ":8080",
			SendBuffer: 256,
		},
		Autopilot: AutopilotConfig{
			Enabled:    true,
			LevelEvery: 20 * time.Second,
			BossAfter:  5 * time.Minute,
		},
	}
}

// LoadEngine loads engine config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadEngine(path string) (Engine, error) {
	cfg := DefaultEngine()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks cross-field invariants. Errors wrap ErrInvalid.
func (e Engine) Validate() error {
	var errs []error

	if e.TickInterval <= 0 {
		errs = append(errs, fmt.Errorf("tick_interval must be > 0, got %s", e.TickInterval))
	}
	switch e.Catalog.Source {
	case CatalogFile, CatalogDatabase:
	default:
		errs = append(errs, fmt.Errorf("catalog.source must be %q or %q, got %q", CatalogFile, CatalogDatabase, e.Catalog.Source))
	}
	if e.Player.MaxHP <= 0 {
		errs = append(errs, fmt.Errorf("player.max_hp must be > 0, got %d", e.Player.MaxHP))
	}
	if len(e.Player.SpawnAreas) == 0 {
		errs = append(errs, errors.New("player.spawn_areas is empty"))
	}
	if err := e.Spawner.Validate(); err != nil {
		errs = append(errs, err)
	}

	pools := map[string]int{
		"fire_breath": e.Skills.FireBreath.PoolSize,
		"arrow":       e.Skills.Arrow.PoolSize,
		"thunder":     e.Skills.Thunder.PoolSize,
		"meteor":      e.Skills.Meteor.PoolSize,
	}
	for name, size := range pools {
		if size < 1 {
			errs = append(errs, fmt.Errorf("skills.%s.pool_size must be >= 1, got %d", name, size))
		}
	}
	if e.Skills.Aura.TickDelay <= 0 {
		errs = append(errs, fmt.Errorf("skills.aura.tick_delay must be > 0, got %s", e.Skills.Aura.TickDelay))
	}
	if e.Skills.Meteor.Area.Empty() {
		errs = append(errs, errors.New("skills.meteor.area is empty"))
	}

	if e.Progression.MaxUpgradeOptions < 1 {
		errs = append(errs, fmt.Errorf("progression.max_upgrade_options must be >= 1, got %d", e.Progression.MaxUpgradeOptions))
	}
	if e.Broadcast.Enabled && e.Broadcast.Addr == "" {
		errs = append(errs, errors.New("broadcast.addr is required when broadcast is enabled"))
	}
	if e.Autopilot.Enabled && e.Autopilot.LevelEvery <= 0 {
		errs = append(errs, fmt.Errorf("autopilot.level_every must be > 0, got %s", e.Autopilot.LevelEvery))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

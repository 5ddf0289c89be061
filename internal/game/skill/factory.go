package skill

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/udisondev/horde/internal/model"
)

// FactoryConfig carries static per-archetype resources (pools, radii, spacing).
type FactoryConfig struct {
	FireBreath FireBreathConfig
	Arrow      ArrowConfig
	Aura       AuraConfig
	Thunder    ThunderConfig
	Meteor     MeteorConfig
}

type cacheKey struct {
	owner     string
	archetype model.SkillArchetype
}

// Factory builds and caches one Behavior per (owner, archetype).
type Factory struct {
	cfg FactoryConfig

	mu    sync.Mutex
	cache map[cacheKey]Behavior
}

// NewFactory creates factory with resources.
func NewFactory(cfg FactoryConfig) *Factory {
	return &Factory{
		cfg:   cfg,
		cache: make(map[cacheKey]Behavior, 8),
	}
}

// CreateOrGet returns the cached behavior for (owner, archetype), building and
// initializing it on first request. Failures are logged and leave no cache entry.
func (f *Factory) CreateOrGet(archetype model.SkillArchetype, owner Owner) (Behavior, error) {
	key := cacheKey{owner: owner.ID, archetype: archetype}

	f.mu.Lock()
	defer f.mu.Unlock()

	if b, ok := f.cache[key]; ok {
		return b, nil
	}

	build, ok := builders[archetype]
	if !ok {
		slog.Error("no behavior for skill archetype", "archetype", archetype, "owner", owner.ID)
		return nil, fmt.Errorf("%w: %s", ErrUnknownArchetype, archetype)
	}

	b, err := build(&f.cfg)
	if err != nil {
		slog.Error("building skill behavior", "archetype", archetype, "owner", owner.ID, "error", err)
		return nil, fmt.Errorf("building %s behavior: %w", archetype, err)
	}
	if err := b.Initialize(owner); err != nil {
		slog.Error("initializing skill behavior", "archetype", archetype, "owner", owner.ID, "error", err)
		return nil, fmt.Errorf("initializing %s behavior: %w", archetype, err)
	}

	f.cache[key] = b
	slog.Debug("skill behavior created", "archetype", archetype, "owner", owner.ID)
	return b, nil
}

// Cached returns number of cached behaviors.
func (f *Factory) Cached() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cache)
}

// ClearCache drops all cached handles without deactivating them.
// Callers deactivate first if timers must stop.
func (f *Factory) ClearCache() {
	f.mu.Lock()
	f.cache = make(map[cacheKey]Behavior, 8)
	f.mu.Unlock()
}

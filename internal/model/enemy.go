package model

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// EnemyArchetype holds base stats of an enemy kind.
type EnemyArchetype struct {
	Index         int     `yaml:"-"`
	Name          string  `yaml:"name"`
	MoveSpeed     float64 `yaml:"move_speed"`
	ContactDamage int     `yaml:"contact_damage"`
	VisualIndex   int     `yaml:"visual_index"`
	MaxHP         int     `yaml:"max_hp"`
	Boss          bool    `yaml:"boss"`
}

// Validate checks archetype stats.
func (a *EnemyArchetype) Validate() error {
	if a.Name == "" {
		return fmt.Errorf("enemy archetype %d has no name", a.Index)
	}
	if a.MaxHP <= 0 {
		return fmt.Errorf("enemy archetype %s: max_hp must be > 0", a.Name)
	}
	if a.MoveSpeed < 0 || a.ContactDamage < 0 {
		return fmt.Errorf("enemy archetype %s: negative stats", a.Name)
	}
	return nil
}

// Enemy is a live enemy instance in the population.
// Position and target are written only by the spawn controller.
type Enemy struct {
	objectID  uint32
	archetype *EnemyArchetype

	mu       sync.RWMutex
	position Vec2
	target   Anchor

	dead atomic.Bool
	aura atomic.Bool

	// lastContact is game time (ns) of last contact hit; spawn controller only.
	lastContact int64
}

// NewEnemy creates enemy instance at position p.
func NewEnemy(objectID uint32, archetype *EnemyArchetype, p Vec2) *Enemy {
	return &Enemy{
		objectID:    objectID,
		archetype:   archetype,
		position:    p,
		lastContact: -1,
	}
}

// ObjectID returns unique object ID.
func (e *Enemy) ObjectID() uint32 {
	return e.objectID
}

// Archetype returns enemy archetype.
func (e *Enemy) Archetype() *EnemyArchetype {
	return e.archetype
}

// Name returns archetype name.
func (e *Enemy) Name() string {
	return e.archetype.Name
}

// IsBoss reports boss archetype.
func (e *Enemy) IsBoss() bool {
	return e.archetype.Boss
}

// Position returns current position.
func (e *Enemy) Position() Vec2 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.position
}

// SetPosition moves enemy.
func (e *Enemy) SetPosition(p Vec2) {
	e.mu.Lock()
	e.position = p
	e.mu.Unlock()
}

// Target returns followed anchor (nil if none).
func (e *Enemy) Target() Anchor {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.target
}

// SetTarget binds the anchor the enemy follows.
func (e *Enemy) SetTarget(a Anchor) {
	e.mu.Lock()
	e.target = a
	e.mu.Unlock()
}

// IsDead reports whether death was observed.
func (e *Enemy) IsDead() bool {
	return e.dead.Load()
}

// MarkDead flips dead flag. Returns false if already dead.
func (e *Enemy) MarkDead() bool {
	return e.dead.CompareAndSwap(false, true)
}

// ActivateAura turns on the same-type aura.
func (e *Enemy) ActivateAura() {
	e.aura.Store(true)
}

// AuraActive reports whether aura is on.
func (e *Enemy) AuraActive() bool {
	return e.aura.Load()
}

// LastContact returns game time (ns) of last contact hit, -1 if never.
func (e *Enemy) LastContact() int64 {
	return e.lastContact
}

// SetLastContact stores game time (ns) of last contact hit.
func (e *Enemy) SetLastContact(ns int64) {
	e.lastContact = ns
}

// Package combat applies damage to registered objects and notifies death subscribers.
package combat

import (
	"log/slog"
	"sync"
	"time"

	"github.com/udisondev/horde/internal/model"
)

// Hit is one damage application.
type Hit struct {
	Amount    int
	Source    string
	Stun      time.Duration
	Knockback float64
	Direction model.Vec2
}

// DamageSink receives damage. Fire-and-forget: no result is reported back.
type DamageSink interface {
	ApplyDamage(target uint32, hit Hit)
}

// DeathNotifier delivers a one-time death notification per target.
type DeathNotifier interface {
	SubscribeDeath(target uint32, fn func(target uint32)) (unsubscribe func())
}

// Health tracks hit points of one object.
//
// Thread-safe. Subscribers are invoked outside the lock, exactly once.
type Health struct {
	id uint32

	mu           sync.Mutex
	maxHP        int
	currentHP    int
	dead         bool
	invulnerable bool
	lastHit      Hit
	subs         map[uint64]func(uint32)
	nextSub      uint64
}

// NewHealth creates full health with maxHP.
func NewHealth(id uint32, maxHP int) *Health {
	return &Health{
		id:        id,
		maxHP:     maxHP,
		currentHP: maxHP,
		subs:      make(map[uint64]func(uint32)),
	}
}

// ObjectID returns owning object ID.
func (h *Health) ObjectID() uint32 { return h.id }

// MaxHP returns maximum hit points.
func (h *Health) MaxHP() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.maxHP
}

// CurrentHP returns current hit points.
func (h *Health) CurrentHP() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.currentHP
}

// IsDead reports whether health reached zero.
func (h *Health) IsDead() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dead
}

// SetInvulnerable toggles damage immunity. Kill still works.
func (h *Health) SetInvulnerable(v bool) {
	h.mu.Lock()
	h.invulnerable = v
	h.mu.Unlock()
}

// LastHit returns the most recent hit that changed health.
func (h *Health) LastHit() Hit {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastHit
}

// Damage subtracts hit amount. Returns true if this hit killed the object.
func (h *Health) Damage(hit Hit) bool {
	if hit.Amount <= 0 {
		return false
	}

	h.mu.Lock()
	if h.dead || h.invulnerable {
		h.mu.Unlock()
		return false
	}
	h.lastHit = hit
	h.currentHP -= hit.Amount
	if h.currentHP > 0 {
		h.mu.Unlock()
		return false
	}
	h.currentHP = 0
	subs := h.dieLocked()
	h.mu.Unlock()

	notify(h.id, subs)
	return true
}

// Kill forces death regardless of remaining health. Returns false if already dead.
func (h *Health) Kill() bool {
	h.mu.Lock()
	if h.dead {
		h.mu.Unlock()
		return false
	}
	h.currentHP = 0
	subs := h.dieLocked()
	h.mu.Unlock()

	notify(h.id, subs)
	return true
}

// Restore resurrects with full health. Subscriptions are not restored.
func (h *Health) Restore() {
	h.mu.Lock()
	h.dead = false
	h.currentHP = h.maxHP
	h.lastHit = Hit{}
	h.mu.Unlock()
}

// Subscribe registers death callback. If already dead the callback never fires.
func (h *Health) Subscribe(fn func(uint32)) (unsubscribe func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.dead {
		return func() {}
	}
	h.nextSub++
	id := h.nextSub
	h.subs[id] = fn

	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

func (h *Health) dieLocked() []func(uint32) {
	h.dead = true
	subs := make([]func(uint32), 0, len(h.subs))
	for id, fn := range h.subs {
		subs = append(subs, fn)
		delete(h.subs, id)
	}
	return subs
}

func notify(id uint32, subs []func(uint32)) {
	for _, fn := range subs {
		fn(id)
	}
}

// Registry maps object IDs to health. Implements DamageSink and DeathNotifier.
type Registry struct {
	mu     sync.RWMutex
	health map[uint32]*Health
}

// NewRegistry creates empty registry.
func NewRegistry() *Registry {
	return &Registry{health: make(map[uint32]*Health, 64)}
}

// Register creates health for id. Existing health for id is replaced.
func (r *Registry) Register(id uint32, maxHP int) *Health {
	h := NewHealth(id, maxHP)
	r.mu.Lock()
	r.health[id] = h
	r.mu.Unlock()
	return h
}

// Unregister drops health for id without firing death.
func (r *Registry) Unregister(id uint32) {
	r.mu.Lock()
	delete(r.health, id)
	r.mu.Unlock()
}

// Health returns health of id.
func (r *Registry) Health(id uint32) (*Health, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.health[id]
	return h, ok
}

// Len returns number of registered objects.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.health)
}

// ApplyDamage implements DamageSink. Unknown and dead targets are ignored.
func (r *Registry) ApplyDamage(target uint32, hit Hit) {
	h, ok := r.Health(target)
	if !ok {
		if IsDebugEnabled() {
			slog.Debug("damage to unknown target ignored", "target", target, "source", hit.Source)
		}
		return
	}
	if h.Damage(hit) {
		slog.Debug("target killed", "target", target, "source", hit.Source, "amount", hit.Amount)
	}
}

// Kill forces death of target. Returns false for unknown or already dead targets.
func (r *Registry) Kill(target uint32) bool {
	h, ok := r.Health(target)
	if !ok {
		return false
	}
	return h.Kill()
}

// SubscribeDeath implements DeathNotifier. Unknown targets get a no-op unsubscribe.
func (r *Registry) SubscribeDeath(target uint32, fn func(uint32)) (unsubscribe func()) {
	h, ok := r.Health(target)
	if !ok {
		return func() {}
	}
	return h.Subscribe(fn)
}

// Package event fans engine events out to subscribers without blocking the publisher.
package event

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Type names an engine event.
type Type string

const (
	TypeSessionStarted  Type = "session_started"
	TypeSessionReset    Type = "session_reset"
	TypeEnemySpawned    Type = "enemy_spawned"
	TypeEnemyKilled     Type = "enemy_killed"
	TypeDifficultyRaise Type = "difficulty_increased"
	TypeSkillUnlocked   Type = "skill_unlocked"
	TypeSkillUpgraded   Type = "skill_upgraded"
	TypeUpgradeOffered  Type = "upgrade_offered"
	TypeBossSpawned     Type = "boss_spawned"
	TypeBossDefeated    Type = "boss_defeated"
	TypePlayerHit       Type = "player_hit"
	TypePlayerDied      Type = "player_died"
)

// Event is one engine occurrence. At is the session's logical time.
type Event struct {
	ID      string        `json:"id"`
	Type    Type          `json:"type"`
	At      time.Duration `json:"at"`
	Session string        `json:"session"`
	Data    any           `json:"data,omitempty"`
}

// DefaultBuffer is the subscriber channel size used when none is given.
const DefaultBuffer = 256

// Bus is a publish/subscribe hub. Publish never blocks: a subscriber whose
// buffer is full misses the event.
type Bus struct {
	mu     sync.RWMutex
	subs   map[uint64]chan Event
	next   uint64
	closed bool

	published atomic.Uint64
	dropped   atomic.Uint64
}

// NewBus creates empty bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[uint64]chan Event)}
}

// Subscribe returns a channel of future events and a cancel func that closes it.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	ch := make(chan Event, buffer)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.next++
	id := b.next
	b.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if c, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(c)
			}
		})
	}
}

// Publish delivers e to every subscriber. Assigns an ID when empty.
func (b *Bus) Publish(e Event) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	b.published.Add(1)
	for id, ch := range b.subs {
		select {
		case ch <- e:
		default:
			if n := b.dropped.Add(1); n == 1 || n%1000 == 0 {
				slog.Warn("event dropped for slow subscriber", "subscriber", id, "type", e.Type, "dropped", n)
			}
		}
	}
}

// Published returns number of published events.
func (b *Bus) Published() uint64 { return b.published.Load() }

// Dropped returns number of deliveries skipped for full subscribers.
func (b *Bus) Dropped() uint64 { return b.dropped.Load() }

// Subscribers returns current subscriber count.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close closes every subscriber channel. Later publishes are ignored.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

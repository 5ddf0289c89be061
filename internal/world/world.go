package world

import (
	"fmt"
	"sync"

	"github.com/udisondev/horde/internal/model"
)

// Population is the set of live enemies of a session, in spawn order.
//
// Single writer: only the spawn controller calls Add/Remove/Clear.
// Readers (targeting, skill behaviors) iterate copy-on-read snapshots,
// so a reader never observes a half-applied mutation and may trigger
// deaths (and thus removals) while iterating.
type Population struct {
	mu    sync.RWMutex
	order []*model.Enemy
	byID  map[uint32]int // objectID → index in order
}

// NewPopulation creates empty population.
func NewPopulation() *Population {
	return &Population{
		order: make([]*model.Enemy, 0, 64),
		byID:  make(map[uint32]int, 64),
	}
}

// Add appends enemy at the end of iteration order.
func (p *Population) Add(e *model.Enemy) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.byID[e.ObjectID()]; ok {
		return fmt.Errorf("enemy %d already in population", e.ObjectID())
	}
	p.byID[e.ObjectID()] = len(p.order)
	p.order = append(p.order, e)
	return nil
}

// Remove removes enemy by ID, preserving order of the rest.
// Returns removed enemy or nil if absent.
func (p *Population) Remove(objectID uint32) *model.Enemy {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx, ok := p.byID[objectID]
	if !ok {
		return nil
	}
	e := p.order[idx]
	delete(p.byID, objectID)

	copy(p.order[idx:], p.order[idx+1:])
	p.order[len(p.order)-1] = nil
	p.order = p.order[:len(p.order)-1]
	for i := idx; i < len(p.order); i++ {
		p.byID[p.order[i].ObjectID()] = i
	}
	return e
}

// Get returns enemy by ID.
func (p *Population) Get(objectID uint32) (*model.Enemy, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	idx, ok := p.byID[objectID]
	if !ok {
		return nil, false
	}
	return p.order[idx], true
}

// Snapshot returns a copy of the population in iteration order (dead members included).
func (p *Population) Snapshot() []*model.Enemy {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]*model.Enemy, len(p.order))
	copy(out, p.order)
	return out
}

// Each calls fn for every member of a snapshot until fn returns false.
func (p *Population) Each(fn func(*model.Enemy) bool) {
	for _, e := range p.Snapshot() {
		if !fn(e) {
			return
		}
	}
}

// Len returns number of tracked enemies.
func (p *Population) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.order)
}

// LiveCount returns number of tracked enemies not marked dead.
func (p *Population) LiveCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	n := 0
	for _, e := range p.order {
		if !e.IsDead() {
			n++
		}
	}
	return n
}

// Clear drops every member. Returns removed enemies in order.
func (p *Population) Clear() []*model.Enemy {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := p.order
	p.order = make([]*model.Enemy, 0, 64)
	p.byID = make(map[uint32]int, 64)
	return out
}

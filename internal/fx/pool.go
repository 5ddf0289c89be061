// Package fx provides fixed-size pools of effect emitters.
//
// Emitters carry the state a renderer would read (placement, scale, damage).
// Nothing here draws; Play only records and forwards to an optional hook.
package fx

import (
	"errors"
	"fmt"
	"sync"

	"github.com/udisondev/horde/internal/model"
)

// ErrPoolSize is returned for pools with size < 1.
var ErrPoolSize = errors.New("pool size must be >= 1")

// Pool hands out reusable emitters.
type Pool interface {
	Acquire() *Emitter
	Release(e *Emitter)
	Play(e *Emitter)
}

// Emitter is one pooled effect instance.
type Emitter struct {
	index int

	mu       sync.Mutex
	position model.Vec2
	heading  model.Vec2
	scale    float64
	damage   int
	active   bool
	plays    int
}

// Index returns slot index in the owning pool.
func (e *Emitter) Index() int { return e.index }

// Place sets position and heading.
func (e *Emitter) Place(position, heading model.Vec2) {
	e.mu.Lock()
	e.position = position
	e.heading = heading
	e.mu.Unlock()
}

// Position returns last placed position.
func (e *Emitter) Position() model.Vec2 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position
}

// Heading returns last placed heading.
func (e *Emitter) Heading() model.Vec2 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.heading
}

// SetScale sets uniform scale.
func (e *Emitter) SetScale(s float64) {
	e.mu.Lock()
	e.scale = s
	e.mu.Unlock()
}

// Scale returns uniform scale.
func (e *Emitter) Scale() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scale
}

// SetDamage sets damage carried by the effect.
func (e *Emitter) SetDamage(d int) {
	e.mu.Lock()
	e.damage = d
	e.mu.Unlock()
}

// Damage returns damage carried by the effect.
func (e *Emitter) Damage() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.damage
}

// Active reports whether emitter is acquired.
func (e *Emitter) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Plays returns number of times emitter was played.
func (e *Emitter) Plays() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.plays
}

// RoundRobinPool cycles through a fixed set of emitters.
// Acquire never blocks and never grows the pool: an emitter still in use is reused.
type RoundRobinPool struct {
	name      string
	instances []*Emitter
	onPlay    func(name string, e *Emitter)

	mu   sync.Mutex
	next int
}

// NewRoundRobinPool creates pool of size emitters with defaultScale.
// onPlay may be nil.
func NewRoundRobinPool(name string, size int, defaultScale float64, onPlay func(string, *Emitter)) (*RoundRobinPool, error) {
	if size < 1 {
		return nil, fmt.Errorf("pool %s: %w (got %d)", name, ErrPoolSize, size)
	}

	p := &RoundRobinPool{
		name:      name,
		instances: make([]*Emitter, size),
		onPlay:    onPlay,
	}
	for i := range p.instances {
		p.instances[i] = &Emitter{index: i, scale: defaultScale, heading: model.Vec2{X: 1}}
	}
	return p, nil
}

// Name returns pool name.
func (p *RoundRobinPool) Name() string { return p.name }

// Size returns fixed pool size.
func (p *RoundRobinPool) Size() int { return len(p.instances) }

// Instances returns all emitters for setup-time configuration.
func (p *RoundRobinPool) Instances() []*Emitter {
	return append([]*Emitter(nil), p.instances...)
}

// Acquire returns next emitter in index order, wrapping at the end.
func (p *RoundRobinPool) Acquire() *Emitter {
	p.mu.Lock()
	e := p.instances[p.next]
	p.next = (p.next + 1) % len(p.instances)
	p.mu.Unlock()

	e.mu.Lock()
	e.active = true
	e.mu.Unlock()
	return e
}

// Release marks emitter inactive.
func (p *RoundRobinPool) Release(e *Emitter) {
	if e == nil {
		return
	}
	e.mu.Lock()
	e.active = false
	e.mu.Unlock()
}

// Play counts a playback and forwards to the hook.
func (p *RoundRobinPool) Play(e *Emitter) {
	if e == nil {
		return
	}
	e.mu.Lock()
	e.plays++
	e.mu.Unlock()

	if p.onPlay != nil {
		p.onPlay(p.name, e)
	}
}

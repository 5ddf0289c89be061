package model

import "sync"

// Anchor is anything with a position on the plane.
type Anchor interface {
	Position() Vec2
}

// Transform is a named reference point (player anchor, fire point, fire direction).
// Holds position, heading and scale. Safe for concurrent reads.
type Transform struct {
	name string

	mu       sync.RWMutex
	position Vec2
	heading  Vec2 // unit vector
	scale    float64
}

// NewTransform creates transform at position p facing +X with scale 1.
func NewTransform(name string, p Vec2) *Transform {
	return &Transform{
		name:     name,
		position: p,
		heading:  Vec2{X: 1},
		scale:    1,
	}
}

// Name returns transform name (for logs).
func (t *Transform) Name() string {
	return t.name
}

// Position returns current position.
func (t *Transform) Position() Vec2 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.position
}

// SetPosition moves the transform.
func (t *Transform) SetPosition(p Vec2) {
	t.mu.Lock()
	t.position = p
	t.mu.Unlock()
}

// Heading returns unit facing direction.
func (t *Transform) Heading() Vec2 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.heading
}

// SetHeading sets facing direction. Zero vector is ignored.
func (t *Transform) SetHeading(d Vec2) {
	n := d.Normalize()
	if n == (Vec2{}) {
		return
	}
	t.mu.Lock()
	t.heading = n
	t.mu.Unlock()
}

// LookAt turns the transform toward point p.
// Keeps previous heading when p coincides with position.
func (t *Transform) LookAt(p Vec2) {
	t.SetHeading(p.Sub(t.Position()))
}

// Scale returns uniform scale.
func (t *Transform) Scale() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.scale
}

// SetScale sets uniform scale.
func (t *Transform) SetScale(s float64) {
	t.mu.Lock()
	t.scale = s
	t.mu.Unlock()
}

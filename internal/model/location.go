package model

import (
	"math"
	"math/rand/v2"
)

// Vec2 is a point or direction on the arena plane.
// Value type, passed by value.
type Vec2 struct {
	X float64
	Y float64
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

// Scale returns v multiplied by k.
func (v Vec2) Scale(k float64) Vec2 {
	return Vec2{X: v.X * k, Y: v.Y * k}
}

// Len returns vector length.
func (v Vec2) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

// Distance returns euclidean distance to other point.
func (v Vec2) Distance(o Vec2) float64 {
	return v.Sub(o).Len()
}

// DistanceSquared returns squared distance (no sqrt, for comparisons only).
func (v Vec2) DistanceSquared(o Vec2) float64 {
	dx := v.X - o.X
	dy := v.Y - o.Y
	return dx*dx + dy*dy
}

// Normalize returns unit vector with the same direction.
// Zero vector stays zero.
func (v Vec2) Normalize() Vec2 {
	l := v.Len()
	if l == 0 {
		return Vec2{}
	}
	return Vec2{X: v.X / l, Y: v.Y / l}
}

// Rotate90 returns v rotated by 90 degrees counter-clockwise.
func (v Vec2) Rotate90() Vec2 {
	return Vec2{X: -v.Y, Y: v.X}
}

// Rect is an axis-aligned rectangle (spawn areas, meteor area).
type Rect struct {
	Min Vec2 `yaml:"min"`
	Max Vec2 `yaml:"max"`
}

// NewRect builds Rect from two corners in any order.
func NewRect(a, b Vec2) Rect {
	return Rect{
		Min: Vec2{X: math.Min(a.X, b.X), Y: math.Min(a.Y, b.Y)},
		Max: Vec2{X: math.Max(a.X, b.X), Y: math.Max(a.Y, b.Y)},
	}
}

// Offset returns rect moved by d.
func (r Rect) Offset(d Vec2) Rect {
	return Rect{Min: r.Min.Add(d), Max: r.Max.Add(d)}
}

// Contains reports whether p lies inside r (borders included).
func (r Rect) Contains(p Vec2) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Empty reports whether r has zero area.
func (r Rect) Empty() bool {
	return r.Max.X <= r.Min.X || r.Max.Y <= r.Min.Y
}

// RandomPoint returns uniformly distributed point inside r.
// Degenerate rect returns its Min corner.
func (r Rect) RandomPoint(rng *rand.Rand) Vec2 {
	if r.Empty() {
		return r.Min
	}
	return Vec2{
		X: r.Min.X + rng.Float64()*(r.Max.X-r.Min.X),
		Y: r.Min.Y + rng.Float64()*(r.Max.Y-r.Min.Y),
	}
}

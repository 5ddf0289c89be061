package session

import (
	"sync"
	"sync/atomic"

	"github.com/udisondev/horde/internal/combat"
	"github.com/udisondev/horde/internal/model"
)

// Player is the skill owner: an anchor enemies chase and a level progression reads.
// Implements progression.PlayerFeed.
type Player struct {
	id     uint32
	anchor *model.Transform
	health *combat.Health
	level  atomic.Int32

	mu       sync.Mutex
	unlocked map[string]int
}

func newPlayer(id uint32, health *combat.Health) *Player {
	p := &Player{
		id:       id,
		anchor:   model.NewTransform("player", model.Vec2{}),
		health:   health,
		unlocked: make(map[string]int),
	}
	p.level.Store(1)
	return p
}

// ObjectID returns player object ID.
func (p *Player) ObjectID() uint32 { return p.id }

// Anchor returns player transform.
func (p *Player) Anchor() *model.Transform { return p.anchor }

// Health returns player health.
func (p *Player) Health() *combat.Health { return p.health }

// PlayerLevel implements progression.PlayerFeed.
func (p *Player) PlayerLevel() int { return int(p.level.Load()) }

// SetLevel sets player level (min 1).
func (p *Player) SetLevel(n int) {
	p.level.Store(int32(max(n, 1)))
}

// SkillUnlocked implements progression.PlayerFeed.
func (p *Player) SkillUnlocked(skillID string, level int) {
	p.mu.Lock()
	p.unlocked[skillID] = level
	p.mu.Unlock()
}

// SkillUpgraded implements progression.PlayerFeed.
func (p *Player) SkillUpgraded(skillID string, level int) {
	p.mu.Lock()
	p.unlocked[skillID] = level
	p.mu.Unlock()
}

// SkillLevel returns level of an unlocked skill, 0 if locked.
func (p *Player) SkillLevel(skillID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.unlocked[skillID]
}

func (p *Player) reset() {
	p.level.Store(1)
	p.anchor.SetPosition(model.Vec2{})
	p.health.Restore()

	p.mu.Lock()
	clear(p.unlocked)
	p.mu.Unlock()
}

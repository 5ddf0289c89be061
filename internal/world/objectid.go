package world

import "sync/atomic"

// Object ID ranges (convention):
//
//	0x00000000 - 0x0FFFFFFF: Reserved (0 = invalid)
//	0x10000000 - 0x1FFFFFFF: Players
//	0x20000000 - 0x2FFFFFFF: Enemies (regular and bosses)
const (
	PlayerIDBase uint32 = 0x10000000
	EnemyIDBase  uint32 = 0x20000000
)

// ObjectIDGenerator generates unique object IDs for session entities.
// One generator per session, no global state.
type ObjectIDGenerator struct {
	nextPlayerID atomic.Uint32
	nextEnemyID  atomic.Uint32
}

// NewObjectIDGenerator creates a new ID generator.
func NewObjectIDGenerator() *ObjectIDGenerator {
	gen := &ObjectIDGenerator{}
	gen.nextPlayerID.Store(PlayerIDBase)
	gen.nextEnemyID.Store(EnemyIDBase)
	return gen
}

// NextPlayerID generates next unique player object ID.
func (g *ObjectIDGenerator) NextPlayerID() uint32 {
	return g.nextPlayerID.Add(1)
}

// NextEnemyID generates next unique enemy object ID.
func (g *ObjectIDGenerator) NextEnemyID() uint32 {
	return g.nextEnemyID.Add(1)
}

// IsEnemyID reports whether id lies in the enemy range.
func IsEnemyID(id uint32) bool {
	return id > EnemyIDBase && id < EnemyIDBase+0x10000000
}

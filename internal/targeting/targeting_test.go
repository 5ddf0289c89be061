package targeting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/horde/internal/model"
)

type slicePop []*model.Enemy

func (s slicePop) Snapshot() []*model.Enemy { return append([]*model.Enemy(nil), s...) }

var arch = &model.EnemyArchetype{Name: "Bat", MaxHP: 5}

func enemyAt(id uint32, x, y float64) *model.Enemy {
	return model.NewEnemy(id, arch, model.Vec2{X: x, Y: y})
}

func TestNearest_EmptyPopulation(t *testing.T) {
	t.Parallel()

	_, ok := Nearest(model.Vec2{}, slicePop(nil))
	assert.False(t, ok)

	_, ok = Nearest(model.Vec2{}, nil)
	assert.False(t, ok)
}

func TestNearest_PicksClosestLive(t *testing.T) {
	t.Parallel()

	dead := enemyAt(1, 1, 0)
	dead.MarkDead()
	pop := slicePop{dead, enemyAt(2, 5, 0), enemyAt(3, 3, 0)}

	e, ok := Nearest(model.Vec2{}, pop)
	require.True(t, ok)
	assert.Equal(t, uint32(3), e.ObjectID())
}

func TestNearest_TieGoesToFirstInOrder(t *testing.T) {
	t.Parallel()

	pop := slicePop{enemyAt(7, 0, 2), enemyAt(8, 2, 0), enemyAt(9, -2, 0)}

	for range 10 {
		e, ok := Nearest(model.Vec2{}, pop)
		require.True(t, ok)
		assert.Equal(t, uint32(7), e.ObjectID())
	}
}

func TestNearestWithin_StrictBoundary(t *testing.T) {
	t.Parallel()

	pop := slicePop{enemyAt(1, 12, 0)}

	_, ok := NearestWithin(model.Vec2{}, pop, 12)
	assert.False(t, ok, "distance equal to limit is out of range")

	e, ok := NearestWithin(model.Vec2{}, pop, 12.5)
	require.True(t, ok)
	assert.Equal(t, uint32(1), e.ObjectID())
}

func TestWithinRadius_InclusiveBoundaryAndOrder(t *testing.T) {
	t.Parallel()

	dead := enemyAt(4, 0, 1)
	dead.MarkDead()
	pop := slicePop{enemyAt(1, 3, 4), enemyAt(2, 6, 0), enemyAt(3, 0, -5), dead}

	got := WithinRadius(model.Vec2{}, pop, 5)
	ids := make([]uint32, 0, len(got))
	for _, e := range got {
		ids = append(ids, e.ObjectID())
	}
	assert.Equal(t, []uint32{1, 3}, ids)

	assert.Empty(t, WithinRadius(model.Vec2{}, pop, -1))
}

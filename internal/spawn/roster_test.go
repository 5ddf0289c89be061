package spawn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/horde/internal/model"
)

func TestNewRoster(t *testing.T) {
	all := []*model.EnemyArchetype{
		{Name: "Bat", Index: 7},
		nil,
		{Name: "Reaper", Boss: true},
		{Name: "Ghoul"},
		{Name: "Lich", Boss: true},
	}

	r := NewRoster(all)

	require.Len(t, r.Regular, 2)
	assert.Equal(t, "Bat", r.Regular[0].Name)
	assert.Equal(t, 0, r.Regular[0].Index)
	assert.Equal(t, "Ghoul", r.Regular[1].Name)
	assert.Equal(t, 1, r.Regular[1].Index)

	require.NotNil(t, r.Boss)
	assert.Equal(t, "Reaper", r.Boss.Name)
	assert.Equal(t, -1, r.Boss.Index)

	if all[0].Index != 7 {
		t.Errorf("input archetype mutated: Index = %d, want 7", all[0].Index)
	}
}

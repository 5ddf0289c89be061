package data

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/horde/internal/model"
)

func TestDefaultCatalog(t *testing.T) {
	t.Parallel()

	c, err := DefaultCatalog()
	require.NoError(t, err)

	if len(c.Skills) != 5 {
		t.Errorf("len(Skills) = %d, want 5", len(c.Skills))
	}

	seen := make(map[model.SkillArchetype]bool)
	for _, s := range c.Skills {
		seen[s.Archetype] = true
	}
	for _, a := range []model.SkillArchetype{model.SkillFireBreath, model.SkillArrow, model.SkillAura, model.SkillThunder, model.SkillMeteor} {
		assert.True(t, seen[a], "archetype %s missing", a)
	}

	fb := c.Skill("fire_breath")
	require.NotNil(t, fb)
	assert.Equal(t, 3, fb.MaxLevel())
	assert.Equal(t, 1400*time.Millisecond, fb.Level(3).Cooldown)
	assert.Equal(t, 15, fb.Level(2).FinalDamage())

	th := c.Skill("thunder")
	require.NotNil(t, th)
	assert.Equal(t, []string{"arrow"}, th.RequiredSkillIDs)
	assert.Equal(t, 200*time.Millisecond, th.Level(1).StunDuration())

	bosses := 0
	for i, e := range c.Enemies {
		assert.Equal(t, i, e.Index)
		if e.Boss {
			bosses++
		}
	}
	assert.Equal(t, 1, bosses)
	assert.Nil(t, c.Skill("nope"))
}

func TestParseCatalog_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
	}{
		{"bad yaml", "skills: [oops"},
		{"unknown archetype", "skills:\n  - {id: a, archetype: laser, levels: [{cooldown: 1s}]}\n"},
		{"no levels", "skills:\n  - {id: a, archetype: arrow}\n"},
		{"zero cooldown", "skills:\n  - {id: a, archetype: arrow, levels: [{base_damage: 1}]}\n"},
		{"duplicate id", "skills:\n  - {id: a, archetype: arrow, levels: [{cooldown: 1s}]}\n  - {id: a, archetype: aura, levels: [{cooldown: 1s}]}\n"},
		{"unknown prerequisite", "skills:\n  - {id: a, archetype: arrow, required_skills: [b], levels: [{cooldown: 1s}]}\n"},
		{"enemy without hp", "enemies:\n  - {name: bat, move_speed: 1}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseCatalog([]byte(tt.raw))
			assert.Error(t, err)
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	c, err := LoadCatalog(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Len(t, c.Skills, 5, "missing file falls back to built-in")

	path := filepath.Join(dir, "catalog.yaml")
	raw := "skills:\n  - {id: a, archetype: thunder, levels: [{base_damage: 4, damage_multiplier: 1, cooldown: 500ms}]}\n" +
		"enemies:\n  - {name: slime, move_speed: 1, max_hp: 5}\n"
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	c, err = LoadCatalog(path)
	require.NoError(t, err)
	require.Len(t, c.Skills, 1)
	assert.Equal(t, model.SkillThunder, c.Skills[0].Archetype)
	assert.Equal(t, 500*time.Millisecond, c.Skills[0].Levels[0].Cooldown)

	require.NoError(t, os.WriteFile(path, []byte("enemies: [{name: x}]"), 0o600))
	_, err = LoadCatalog(path)
	assert.Error(t, err)
}

func TestCatalog_RepositoryCopies(t *testing.T) {
	t.Parallel()

	c, err := DefaultCatalog()
	require.NoError(t, err)
	ctx := context.Background()

	skills, err := c.LoadSkills(ctx)
	require.NoError(t, err)
	skills[0].Levels[0].BaseDamage = 999
	assert.NotEqual(t, 999, c.Skills[0].Levels[0].BaseDamage)

	enemies, err := c.LoadEnemies(ctx)
	require.NoError(t, err)
	enemies[0].MaxHP = 1
	assert.NotEqual(t, 1, c.Enemies[0].MaxHP)
}

func TestCatalog_MarshalRoundTrip(t *testing.T) {
	t.Parallel()

	c, err := DefaultCatalog()
	require.NoError(t, err)

	raw, err := c.Marshal()
	require.NoError(t, err)

	back, err := ParseCatalog(raw)
	require.NoError(t, err)
	assert.Equal(t, c.Skills, back.Skills)
	assert.Len(t, back.Enemies, len(c.Enemies))
}

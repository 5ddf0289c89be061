package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/horde/internal/model"
)

// CatalogRepository loads and replaces the skill/enemy catalog.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository creates a new catalog repository.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// LoadSkills loads skill definitions in catalog order with levels, statuses and prerequisites.
func (r *CatalogRepository) LoadSkills(ctx context.Context) ([]*model.SkillDefinition, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, archetype, name, description, required_player_level
		FROM skills
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("loading skills: %w", err)
	}
	defer rows.Close()

	var (
		skills []*model.SkillDefinition
		byID   = make(map[string]*model.SkillDefinition)
	)
	for rows.Next() {
		var (
			def       model.SkillDefinition
			archetype string
		)
		if err := rows.Scan(&def.ID, &archetype, &def.Name, &def.Description, &def.RequiredPlayerLevel); err != nil {
			return nil, fmt.Errorf("scanning skill row: %w", err)
		}
		a, err := model.ParseSkillArchetype(archetype)
		if err != nil {
			return nil, fmt.Errorf("skill %s: %w", def.ID, err)
		}
		def.Archetype = a
		skills = append(skills, &def)
		byID[def.ID] = &def
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating skill rows: %w", err)
	}

	if err := r.loadLevels(ctx, byID); err != nil {
		return nil, err
	}
	if err := r.loadStatusEffects(ctx, byID); err != nil {
		return nil, err
	}
	if err := r.loadPrerequisites(ctx, byID); err != nil {
		return nil, err
	}

	return skills, nil
}

func (r *CatalogRepository) loadLevels(ctx context.Context, byID map[string]*model.SkillDefinition) error {
	rows, err := r.pool.Query(ctx, `
		SELECT skill_id, base_damage, damage_multiplier, damage_area, attack_range,
		       cooldown_ns, duration_ns, projectiles, projectile_speed
		FROM skill_levels
		ORDER BY skill_id, level
	`)
	if err != nil {
		return fmt.Errorf("loading skill levels: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			skillID            string
			lvl                model.SkillLevel
			cooldown, duration int64
		)
		if err := rows.Scan(
			&skillID, &lvl.BaseDamage, &lvl.DamageMultiplier, &lvl.DamageArea, &lvl.AttackRange,
			&cooldown, &duration, &lvl.Projectiles, &lvl.ProjectileSpeed,
		); err != nil {
			return fmt.Errorf("scanning skill level row: %w", err)
		}
		def, ok := byID[skillID]
		if !ok {
			continue
		}
		lvl.Cooldown = time.Duration(cooldown)
		lvl.Duration = time.Duration(duration)
		def.Levels = append(def.Levels, lvl)
	}
	return rows.Err()
}

func (r *CatalogRepository) loadStatusEffects(ctx context.Context, byID map[string]*model.SkillDefinition) error {
	rows, err := r.pool.Query(ctx, `
		SELECT skill_id, level, type, value, duration_ns
		FROM skill_status_effects
		ORDER BY skill_id, level, position
	`)
	if err != nil {
		return fmt.Errorf("loading skill status effects: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			skillID  string
			level    int
			typ      string
			se       model.StatusEffect
			duration int64
		)
		if err := rows.Scan(&skillID, &level, &typ, &se.Value, &duration); err != nil {
			return fmt.Errorf("scanning status effect row: %w", err)
		}
		t, err := model.ParseStatusEffectType(typ)
		if err != nil {
			return fmt.Errorf("skill %s level %d: %w", skillID, level, err)
		}
		se.Type = t
		se.Duration = time.Duration(duration)

		def, ok := byID[skillID]
		if !ok {
			continue
		}
		if l := def.Level(level); l != nil {
			l.StatusEffects = append(l.StatusEffects, se)
		}
	}
	return rows.Err()
}

func (r *CatalogRepository) loadPrerequisites(ctx context.Context, byID map[string]*model.SkillDefinition) error {
	rows, err := r.pool.Query(ctx, `
		SELECT skill_id, required_id
		FROM skill_prerequisites
		ORDER BY skill_id, position
	`)
	if err != nil {
		return fmt.Errorf("loading skill prerequisites: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var skillID, requiredID string
		if err := rows.Scan(&skillID, &requiredID); err != nil {
			return fmt.Errorf("scanning prerequisite row: %w", err)
		}
		if def, ok := byID[skillID]; ok {
			def.RequiredSkillIDs = append(def.RequiredSkillIDs, requiredID)
		}
	}
	return rows.Err()
}

// LoadEnemies loads enemy archetypes in catalog order.
func (r *CatalogRepository) LoadEnemies(ctx context.Context) ([]*model.EnemyArchetype, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT name, move_speed, contact_damage, visual_index, max_hp, boss
		FROM enemy_archetypes
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("loading enemy archetypes: %w", err)
	}
	defer rows.Close()

	var out []*model.EnemyArchetype
	for rows.Next() {
		a := &model.EnemyArchetype{Index: len(out)}
		if err := rows.Scan(&a.Name, &a.MoveSpeed, &a.ContactDamage, &a.VisualIndex, &a.MaxHP, &a.Boss); err != nil {
			return nil, fmt.Errorf("scanning enemy archetype row: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating enemy archetype rows: %w", err)
	}
	return out, nil
}

// SaveCatalog replaces the stored catalog in one transaction.
func (r *CatalogRepository) SaveCatalog(ctx context.Context, skills []*model.SkillDefinition, enemies []*model.EnemyArchetype) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin catalog transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			slog.Error("catalog rollback failed", "error", err)
		}
	}()

	for _, q := range []string{"DELETE FROM skills", "DELETE FROM enemy_archetypes"} {
		if _, err := tx.Exec(ctx, q); err != nil {
			return fmt.Errorf("clearing catalog: %w", err)
		}
	}

	batch := &pgx.Batch{}
	for i, s := range skills {
		batch.Queue(
			`INSERT INTO skills (id, position, archetype, name, description, required_player_level)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			s.ID, i, s.Archetype.String(), s.Name, s.Description, s.RequiredPlayerLevel,
		)
	}
	br := tx.SendBatch(ctx, batch)
	for range skills {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("inserting skill: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("closing skill batch: %w", err)
	}

	var levelRows, effectRows, prereqRows [][]any
	for _, s := range skills {
		for li, l := range s.Levels {
			level := li + 1
			levelRows = append(levelRows, []any{
				s.ID, level, l.BaseDamage, l.DamageMultiplier, l.DamageArea, l.AttackRange,
				int64(l.Cooldown), int64(l.Duration), l.Projectiles, l.ProjectileSpeed,
			})
			for ei, se := range l.StatusEffects {
				effectRows = append(effectRows, []any{s.ID, level, ei, se.Type.String(), se.Value, int64(se.Duration)})
			}
		}
		for pi, req := range s.RequiredSkillIDs {
			prereqRows = append(prereqRows, []any{s.ID, req, pi})
		}
	}

	enemyRows := make([][]any, 0, len(enemies))
	for i, e := range enemies {
		enemyRows = append(enemyRows, []any{i, e.Name, e.MoveSpeed, e.ContactDamage, e.VisualIndex, e.MaxHP, e.Boss})
	}

	copies := []struct {
		table string
		cols  []string
		rows  [][]any
	}{
		{"skill_levels", []string{
			"skill_id", "level", "base_damage", "damage_multiplier", "damage_area", "attack_range",
			"cooldown_ns", "duration_ns", "projectiles", "projectile_speed",
		}, levelRows},
		{"skill_status_effects", []string{"skill_id", "level", "position", "type", "value", "duration_ns"}, effectRows},
		{"skill_prerequisites", []string{"skill_id", "required_id", "position"}, prereqRows},
		{"enemy_archetypes", []string{"position", "name", "move_speed", "contact_damage", "visual_index", "max_hp", "boss"}, enemyRows},
	}
	for _, c := range copies {
		if len(c.rows) == 0 {
			continue
		}
		if _, err := tx.CopyFrom(ctx, pgx.Identifier{c.table}, c.cols, pgx.CopyFromRows(c.rows)); err != nil {
			return fmt.Errorf("copying %s: %w", c.table, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing catalog: %w", err)
	}

	slog.Info("catalog saved", "skills", len(skills), "levels", len(levelRows), "enemies", len(enemies))
	return nil
}

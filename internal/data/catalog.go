// Package data loads the skill and enemy catalog.
package data

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/horde/internal/model"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog is the full set of skill definitions and enemy archetypes.
// Order is significant: eligibility and spawn indices follow it.
type Catalog struct {
	Skills  []*model.SkillDefinition `yaml:"skills"`
	Enemies []*model.EnemyArchetype  `yaml:"enemies"`
}

// ParseCatalog decodes YAML catalog and validates it.
func ParseCatalog(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	for i, e := range c.Enemies {
		if e != nil {
			e.Index = i
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() (*Catalog, error) {
	c, err := ParseCatalog(defaultCatalog)
	if err != nil {
		return nil, fmt.Errorf("built-in catalog: %w", err)
	}
	return c, nil
}

// LoadCatalog reads catalog from path. Empty path or missing file returns the built-in catalog.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return DefaultCatalog()
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Warn("catalog file not found, using built-in catalog", "path", path)
			return DefaultCatalog()
		}
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}

	c, err := ParseCatalog(raw)
	if err != nil {
		return nil, fmt.Errorf("loading catalog %s: %w", path, err)
	}

	slog.Info("catalog loaded", "path", path, "skills", len(c.Skills), "enemies", len(c.Enemies))
	return c, nil
}

// Validate checks every entry. All problems are reported together.
func (c *Catalog) Validate() error {
	var errs []error

	ids := make(map[string]struct{}, len(c.Skills))
	for i, s := range c.Skills {
		if s == nil {
			errs = append(errs, fmt.Errorf("skill #%d is empty", i))
			continue
		}
		if err := s.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := ids[s.ID]; dup {
			errs = append(errs, fmt.Errorf("duplicate skill id %s", s.ID))
			continue
		}
		ids[s.ID] = struct{}{}
	}
	for _, s := range c.Skills {
		if s == nil {
			continue
		}
		for _, req := range s.RequiredSkillIDs {
			if _, ok := ids[req]; !ok {
				errs = append(errs, fmt.Errorf("skill %s requires unknown skill %s", s.ID, req))
			}
		}
	}

	bosses := 0
	for i, e := range c.Enemies {
		if e == nil {
			errs = append(errs, fmt.Errorf("enemy #%d is empty", i))
			continue
		}
		if err := e.Validate(); err != nil {
			errs = append(errs, err)
		}
		if e.Boss {
			bosses++
		}
	}
	if bosses > 1 {
		slog.Warn("catalog has several bosses, only the first is used", "bosses", bosses)
	}

	return errors.Join(errs...)
}

// LoadSkills returns deep copies of skill definitions.
func (c *Catalog) LoadSkills(context.Context) ([]*model.SkillDefinition, error) {
	out := make([]*model.SkillDefinition, 0, len(c.Skills))
	for _, s := range c.Skills {
		out = append(out, s.Clone())
	}
	return out, nil
}

// LoadEnemies returns copies of enemy archetypes.
func (c *Catalog) LoadEnemies(context.Context) ([]*model.EnemyArchetype, error) {
	out := make([]*model.EnemyArchetype, 0, len(c.Enemies))
	for _, e := range c.Enemies {
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}

// Skill returns definition by id, nil if absent.
func (c *Catalog) Skill(id string) *model.SkillDefinition {
	for _, s := range c.Skills {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// Marshal encodes catalog back to YAML.
func (c *Catalog) Marshal() ([]byte, error) {
	raw, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("encoding catalog: %w", err)
	}
	return raw, nil
}

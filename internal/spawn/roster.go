package spawn

import (
	"log/slog"

	"github.com/udisondev/horde/internal/model"
)

// Roster is the enemy lineup of a session: regular archetypes in catalog order plus one boss.
type Roster struct {
	Regular []*model.EnemyArchetype
	Boss    *model.EnemyArchetype
}

// NewRoster splits archetypes into regular and boss and assigns regular indices.
// Only the first boss is kept.
func NewRoster(all []*model.EnemyArchetype) Roster {
	var r Roster
	for _, a := range all {
		if a == nil {
			continue
		}
		c := *a
		if c.Boss {
			if r.Boss != nil {
				slog.Warn("extra boss archetype ignored", "name", c.Name, "boss", r.Boss.Name)
				continue
			}
			c.Index = -1
			r.Boss = &c
			continue
		}
		c.Index = len(r.Regular)
		r.Regular = append(r.Regular, &c)
	}
	return r
}

package session

import (
	"github.com/udisondev/horde/internal/event"
	"github.com/udisondev/horde/internal/game/progression"
	"github.com/udisondev/horde/internal/model"
	"github.com/udisondev/horde/internal/spawn"
)

// EnemyData is the payload of enemy events.
type EnemyData struct {
	ObjectID uint32  `json:"object_id"`
	Name     string  `json:"name"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Boss     bool    `json:"boss,omitempty"`
	Aura     bool    `json:"aura,omitempty"`
}

// SkillData is the payload of skill events.
type SkillData struct {
	SkillID string `json:"skill_id"`
	Level   int    `json:"level"`
}

// ChoiceData is one entry of an upgrade offer.
type ChoiceData struct {
	SkillID     string `json:"skill_id"`
	Name        string `json:"name"`
	Level       int    `json:"level"`
	IsNew       bool   `json:"is_new"`
	Description string `json:"description"`
}

// OfferData is the payload of upgrade_offered.
type OfferData struct {
	PlayerLevel int          `json:"player_level"`
	Choices     []ChoiceData `json:"choices"`
}

// DifficultyData is the payload of difficulty events.
type DifficultyData struct {
	Cap         int   `json:"cap"`
	IntervalMs  int64 `json:"interval_ms"`
	Enabled     int   `json:"enabled"`
	Escalations int   `json:"escalations"`
}

// PlayerData is the payload of player events.
type PlayerData struct {
	HP     int    `json:"hp"`
	Damage int    `json:"damage,omitempty"`
	Source string `json:"source,omitempty"`
}

func enemyData(e *model.Enemy) EnemyData {
	p := e.Position()
	return EnemyData{
		ObjectID: e.ObjectID(),
		Name:     e.Name(),
		X:        p.X,
		Y:        p.Y,
		Boss:     e.IsBoss(),
		Aura:     e.AuraActive(),
	}
}

func offerData(level int, choices []progression.Choice) OfferData {
	out := OfferData{PlayerLevel: level, Choices: make([]ChoiceData, 0, len(choices))}
	for _, c := range choices {
		out.Choices = append(out.Choices, ChoiceData{
			SkillID:     c.SkillID,
			Name:        c.Name,
			Level:       c.Level,
			IsNew:       c.IsNew,
			Description: c.Description,
		})
	}
	return out
}

func difficultyData(d spawn.Difficulty) DifficultyData {
	return DifficultyData{
		Cap:         d.Cap,
		IntervalMs:  d.Interval.Milliseconds(),
		Enabled:     d.Enabled,
		Escalations: d.Escalations,
	}
}

func (s *Session) publish(t event.Type, data any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(event.Event{
		Type:    t,
		At:      s.sched.Now(),
		Session: s.id,
		Data:    data,
	})
}

// Package progression tracks which skills the player has unlocked and at what level,
// and draws upgrade choices from the eligible set.
//
// Definitions are deep-copied at Initialize and never mutated. Runtime state is
// an index into the retained level list: remaining = total - current. Reset
// rewinds the index, so the full level sequence always survives.
package progression

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/udisondev/horde/internal/game/skill"
	"github.com/udisondev/horde/internal/model"
)

var (
	// ErrUnknownSkill is returned for skill ids absent from the catalog.
	ErrUnknownSkill = errors.New("unknown skill")

	// ErrNoLevelsRemaining is returned when every level of a skill is consumed.
	ErrNoLevelsRemaining = errors.New("no levels remaining")

	// ErrDuplicateSkill reports a catalog entry skipped because its id was already loaded.
	ErrDuplicateSkill = errors.New("duplicate skill id")
)

// DefaultMaxUpgradeOptions is the number of choices offered when not configured.
const DefaultMaxUpgradeOptions = 3

// BehaviorSource builds and caches skill behaviors. Implemented by skill.Factory.
type BehaviorSource interface {
	CreateOrGet(archetype model.SkillArchetype, owner skill.Owner) (skill.Behavior, error)
	ClearCache()
}

// PlayerFeed supplies player level and receives progression notifications.
type PlayerFeed interface {
	PlayerLevel() int
	SkillUnlocked(skillID string, level int)
	SkillUpgraded(skillID string, level int)
}

// RuntimeState is the mutable progression of one skill.
type RuntimeState struct {
	Unlocked     bool
	CurrentLevel int
}

// Choice is one upgrade option ready for display.
type Choice struct {
	SkillID     string
	Name        string
	Level       int // level reached if chosen
	IsNew       bool
	Damage      int
	Cooldown    time.Duration
	Description string
}

// Change describes one confirmed level application.
type Change struct {
	SkillID  string
	Level    int
	Unlocked bool // true on first application
}

// Options tunes the manager.
type Options struct {
	MaxUpgradeOptions int
	Rand              *rand.Rand
	OnChange          func(Change)
}

type entry struct {
	def      *model.SkillDefinition
	state    RuntimeState
	behavior skill.Behavior
}

func (e *entry) remaining() int {
	return e.def.MaxLevel() - e.state.CurrentLevel
}

// Manager is the skill progression of one owner.
type Manager struct {
	source BehaviorSource
	owner  skill.Owner
	feed   PlayerFeed
	opts   Options

	mu      sync.Mutex
	order   []string
	entries map[string]*entry
}

// New creates manager. Call Initialize before use.
func New(source BehaviorSource, owner skill.Owner, feed PlayerFeed, opts Options) *Manager {
	if opts.MaxUpgradeOptions <= 0 {
		opts.MaxUpgradeOptions = DefaultMaxUpgradeOptions
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Manager{
		source:  source,
		owner:   owner,
		feed:    feed,
		opts:    opts,
		entries: make(map[string]*entry),
	}
}

// Initialize loads a deep copy of catalog, replacing any previous state.
// Duplicate and invalid definitions are logged and skipped; the returned error
// joins every skip reason and is informational.
func (m *Manager) Initialize(catalog []*model.SkillDefinition) error {
	m.DeactivateAll()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.order = m.order[:0]
	m.entries = make(map[string]*entry, len(catalog))

	var errs []error
	for _, def := range catalog {
		if def == nil {
			continue
		}
		if err := def.Validate(); err != nil {
			slog.Warn("skipping invalid skill definition", "skillID", def.ID, "error", err)
			errs = append(errs, err)
			continue
		}
		if _, dup := m.entries[def.ID]; dup {
			slog.Warn("skipping duplicate skill definition", "skillID", def.ID)
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateSkill, def.ID))
			continue
		}
		m.entries[def.ID] = &entry{def: def.Clone()}
		m.order = append(m.order, def.ID)
	}

	slog.Info("skill progression initialized", "owner", m.owner.ID, "skills", len(m.order), "skipped", len(errs))
	return errors.Join(errs...)
}

// ActivateStarting unlocks each id with its first level, skipping prerequisite checks.
// Already unlocked skills are left as is.
func (m *Manager) ActivateStarting(ids []string) {
	for _, id := range ids {
		st, ok := m.State(id)
		if !ok {
			slog.Warn("unknown starting skill", "skillID", id)
			continue
		}
		if st.Unlocked {
			continue
		}
		if err := m.ConfirmChoice(id); err != nil {
			slog.Warn("activating starting skill", "skillID", id, "error", err)
		}
	}
}

// EligibleForUpgrade returns ids of skills that can take one more level, in catalog order.
func (m *Manager) EligibleForUpgrade(playerLevel int) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []string
	for _, id := range m.order {
		if m.eligibleLocked(m.entries[id], playerLevel) {
			out = append(out, id)
		}
	}
	return out
}

// eligibleLocked checks only direct prerequisites, so prerequisite cycles cannot recurse.
func (m *Manager) eligibleLocked(e *entry, playerLevel int) bool {
	if e.remaining() <= 0 {
		return false
	}
	if playerLevel < e.def.RequiredPlayerLevel {
		return false
	}
	for _, req := range e.def.RequiredSkillIDs {
		if req == e.def.ID {
			return false
		}
		dep, ok := m.entries[req]
		if !ok || !dep.state.Unlocked {
			return false
		}
	}
	return true
}

// PresentUpgradeChoices draws min(maxOptions, eligible) distinct eligible skills
// uniformly at random. No state changes until ConfirmChoice.
func (m *Manager) PresentUpgradeChoices(playerLevel, maxOptions int) []Choice {
	ids := m.EligibleForUpgrade(playerLevel)
	if len(ids) == 0 || maxOptions <= 0 {
		slog.Debug("no eligible skills for upgrade", "owner", m.owner.ID, "playerLevel", playerLevel)
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.opts.Rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	ids = ids[:min(maxOptions, len(ids))]

	choices := make([]Choice, 0, len(ids))
	for _, id := range ids {
		choices = append(choices, m.choiceLocked(m.entries[id]))
	}
	return choices
}

// Offer draws choices for the feed's current player level and configured option count.
func (m *Manager) Offer() []Choice {
	level := 1
	if m.feed != nil {
		level = m.feed.PlayerLevel()
	}
	return m.PresentUpgradeChoices(level, m.opts.MaxUpgradeOptions)
}

func (m *Manager) choiceLocked(e *entry) Choice {
	next := e.def.Level(e.state.CurrentLevel + 1)
	c := Choice{
		SkillID: e.def.ID,
		Name:    e.def.Name,
		Level:   e.state.CurrentLevel + 1,
		IsNew:   !e.state.Unlocked,
	}
	if next == nil {
		c.Description = e.def.Description
		return c
	}
	c.Damage = next.FinalDamage()
	c.Cooldown = next.Cooldown
	c.Description = describe(e.def.Description, next)
	return c
}

// describe renders the next-level summary shown on an upgrade card.
func describe(desc string, next *model.SkillLevel) string {
	stats := "Damage: " + strconv.Itoa(next.FinalDamage()) +
		"\nCooldown: " + strconv.FormatFloat(next.Cooldown.Seconds(), 'g', -1, 64) + "s"
	if desc == "" {
		return stats
	}
	return desc + "\n\n" + stats
}

// ConfirmChoice applies one level of id: unlock and activate on first application,
// upgrade in place afterwards. Each call consumes exactly one level.
//
// A skill whose behavior cannot be built still consumes the level and counts as
// unlocked; the failure is logged and no behavior receives the level.
func (m *Manager) ConfirmChoice(id string) error {
	m.mu.Lock()
	e, ok := m.entries[id]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownSkill, id)
	}
	if e.remaining() <= 0 {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNoLevelsRemaining, id)
	}

	first := !e.state.Unlocked
	e.state.Unlocked = true
	e.state.CurrentLevel++
	levelNo := e.state.CurrentLevel
	lvl := *e.def.Level(levelNo)
	archetype := e.def.Archetype
	behavior := e.behavior
	m.mu.Unlock()

	if behavior == nil {
		b, err := m.source.CreateOrGet(archetype, m.owner)
		if err != nil {
			slog.Error("skill behavior unavailable", "skillID", id, "archetype", archetype, "error", err)
		} else {
			behavior = b
			m.mu.Lock()
			e.behavior = b
			m.mu.Unlock()
		}
	}

	if behavior != nil {
		if first {
			behavior.Activate(&lvl)
		} else {
			behavior.UpdateLevel(&lvl)
		}
	}

	if m.feed != nil {
		if first {
			m.feed.SkillUnlocked(id, levelNo)
		} else {
			m.feed.SkillUpgraded(id, levelNo)
		}
	}
	if m.opts.OnChange != nil {
		m.opts.OnChange(Change{SkillID: id, Level: levelNo, Unlocked: first})
	}

	if first {
		slog.Info("skill unlocked", "skillID", id, "owner", m.owner.ID, "level", levelNo)
	} else {
		slog.Info("skill upgraded", "skillID", id, "owner", m.owner.ID, "level", levelNo)
	}
	return nil
}

// Deactivate stops the behavior of id. Idempotent; unknown ids are ignored.
func (m *Manager) Deactivate(id string) {
	m.mu.Lock()
	e, ok := m.entries[id]
	var b skill.Behavior
	if ok {
		b = e.behavior
	}
	m.mu.Unlock()

	if b != nil {
		b.Deactivate()
	}
}

// DeactivateAll stops every behavior. Idempotent.
func (m *Manager) DeactivateAll() {
	m.mu.Lock()
	behaviors := make([]skill.Behavior, 0, len(m.entries))
	for _, id := range m.order {
		if b := m.entries[id].behavior; b != nil {
			behaviors = append(behaviors, b)
		}
	}
	m.mu.Unlock()

	for _, b := range behaviors {
		b.Deactivate()
	}
	slog.Debug("all skills deactivated", "owner", m.owner.ID, "count", len(behaviors))
}

// Reset deactivates everything, rewinds every skill to locked level 0 and drops cached behaviors.
func (m *Manager) Reset() {
	m.DeactivateAll()

	m.mu.Lock()
	for _, e := range m.entries {
		e.state = RuntimeState{}
		e.behavior = nil
	}
	m.mu.Unlock()

	m.source.ClearCache()
	slog.Info("skill progression reset", "owner", m.owner.ID)
}

// State returns runtime state of id.
func (m *Manager) State(id string) (RuntimeState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return RuntimeState{}, false
	}
	return e.state, true
}

// Remaining returns number of levels not yet consumed for id.
func (m *Manager) Remaining(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return 0
	}
	return e.remaining()
}

// Definition returns a copy of the retained definition of id.
func (m *Manager) Definition(id string) (*model.SkillDefinition, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[id]
	if !ok {
		return nil, false
	}
	return e.def.Clone(), true
}

// Skills returns loaded skill ids in catalog order.
func (m *Manager) Skills() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.order...)
}

package session

import (
	"errors"
	"log/slog"

	"github.com/udisondev/horde/internal/config"
	"github.com/udisondev/horde/internal/scheduler"
	"github.com/udisondev/horde/internal/spawn"
)

const (
	keyAutoLevel = "autopilot/level"
	keyAutoBoss  = "autopilot/boss"
	keyAutoStop  = "autopilot/stop"
)

// EnableAutopilot plays the session headless: the player gains a level every
// LevelEvery and takes the first offered upgrade, the boss arrives at BossAfter,
// and the driver stops at RunFor. Zero durations disable the matching step.
func (s *Session) EnableAutopilot(cfg config.AutopilotConfig) {
	if cfg.LevelEvery > 0 {
		s.sched.Every(keyAutoLevel, cfg.LevelEvery, scheduler.Fixed(cfg.LevelEvery), s.autoLevel)
	}
	if cfg.BossAfter > 0 {
		s.sched.After(keyAutoBoss, cfg.BossAfter, s.autoBoss)
	}
	if cfg.RunFor > 0 {
		s.sched.After(keyAutoStop, cfg.RunFor, func() {
			slog.Info("autopilot run limit reached", "session", s.id, "at", s.sched.Now())
			s.Close()
		})
	}
	slog.Info("autopilot enabled",
		"session", s.id,
		"levelEvery", cfg.LevelEvery,
		"bossAfter", cfg.BossAfter,
		"runFor", cfg.RunFor)
}

// DisableAutopilot cancels autopilot steps.
func (s *Session) DisableAutopilot() {
	s.sched.CancelPrefix("autopilot/")
}

func (s *Session) autoLevel() {
	if s.over() {
		s.DisableAutopilot()
		return
	}
	choices := s.LevelUp()
	if len(choices) == 0 {
		slog.Debug("autopilot: nothing to upgrade", "session", s.id, "level", s.player.PlayerLevel())
		return
	}
	pick := choices[0]
	if err := s.Choose(pick.SkillID); err != nil {
		slog.Warn("autopilot choice failed", "session", s.id, "skillID", pick.SkillID, "error", err)
	}
}

func (s *Session) autoBoss() {
	if err := s.SpawnBoss(); err != nil {
		if errors.Is(err, spawn.ErrBossActive) || errors.Is(err, ErrOver) {
			return
		}
		slog.Warn("autopilot boss spawn failed", "session", s.id, "error", err)
	}
}

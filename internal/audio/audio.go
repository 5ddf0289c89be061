// Package audio triggers named sound cues.
package audio

import "log/slog"

// BossMusic is the track played when the boss phase starts.
const BossMusic = "BossMusic"

// Cue plays a named track. music selects the music channel over effects.
type Cue interface {
	Play(track string, music bool)
}

// LogCue records cues in the log instead of playing them.
type LogCue struct {
	Logger *slog.Logger
}

// Play implements Cue.
func (c LogCue) Play(track string, music bool) {
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("audio cue", "track", track, "music", music)
}

// Recorder collects cues in memory.
type Recorder struct {
	Tracks []string
	Music  []bool
}

// Play implements Cue.
func (r *Recorder) Play(track string, music bool) {
	r.Tracks = append(r.Tracks, track)
	r.Music = append(r.Music, music)
}

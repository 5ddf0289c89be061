package audio

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogCue_Play(t *testing.T) {
	var buf bytes.Buffer
	cue := LogCue{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	cue.Play(BossMusic, true)

	out := buf.String()
	assert.Contains(t, out, "track=BossMusic")
	assert.Contains(t, out, "music=true")
}

func TestRecorder_Play(t *testing.T) {
	var r Recorder
	r.Play("hit", false)
	r.Play(BossMusic, true)

	assert.Equal(t, []string{"hit", BossMusic}, r.Tracks)
	assert.Equal(t, []bool{false, true}, r.Music)
}

package yapper

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ToneSchedule_HI(t *testing.T) {
	var cfg = DefaultConfig()
	var mode = modeByName(cfg.Modes, "audible")
	var frame = frameBuild("AB12", "HI")

	require.Equal(t, "AB12|HI", frame)

	var schedule = toneSchedule(frame, mode, cfg)

	// Two tone events per character of the whole frame string,
	// id and separator included.
	require.Len(t, schedule, 2*len(frame))

	for i, e := range schedule {
		if i%2 == 0 {
			assert.Equal(t, mode.MarkerFreq, e.Freq, "event %d should be a marker", i)
		} else {
			assert.Equal(t, frequencyForChar(mode, int(frame[i/2])), e.Freq, "event %d should carry character %q", i, frame[i/2])
		}

		assert.Equal(t, cfg.ToneDuration, e.Duration)
		assert.Equal(t, cfg.ReleaseGuard, e.Release)

		var wantStart = cfg.HeadPadding + time.Duration(i)*(cfg.ToneDuration+cfg.GapDuration)
		assert.Equal(t, wantStart, e.Start, "event %d start", i)
	}
}

func Test_ScheduleDuration(t *testing.T) {
	var cfg = DefaultConfig()
	var frame = "AB12|HI"

	var want = cfg.HeadPadding + time.Duration(len(frame))*2*(cfg.ToneDuration+cfg.GapDuration) + cfg.TailPadding

	assert.Equal(t, want, scheduleDuration(frame, cfg))
}

func Test_ToneSchedule_Empty(t *testing.T) {
	var cfg = DefaultConfig()

	assert.Empty(t, toneSchedule("", modeByName(cfg.Modes, "audible"), cfg))
}

func Test_EnvelopeAt(t *testing.T) {
	var e = ToneEvent{
		Freq:     1000,
		Duration: 80 * time.Millisecond,
		Release:  10 * time.Millisecond,
	}

	assert.Equal(t, 0.0, e.envelopeAt(-time.Millisecond), "before the tone")
	assert.Equal(t, 1.0, e.envelopeAt(0), "instant attack")
	assert.Equal(t, 1.0, e.envelopeAt(40*time.Millisecond), "sustained body")
	assert.Equal(t, 1.0, e.envelopeAt(70*time.Millisecond), "ramp start")
	assert.InDelta(t, 0.5, e.envelopeAt(75*time.Millisecond), 0.01, "mid ramp")
	assert.Equal(t, 0.0, e.envelopeAt(80*time.Millisecond), "after the tone")
}

func Test_EnvelopeAt_NoRelease(t *testing.T) {
	var e = ToneEvent{Duration: 80 * time.Millisecond}

	assert.Equal(t, 1.0, e.envelopeAt(79*time.Millisecond))
}

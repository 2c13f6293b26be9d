package yapper

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_DefaultConfig(t *testing.T) {
	var cfg = DefaultConfig()

	assert.NoError(t, cfg.Validate())
	assert.Len(t, cfg.Modes, 2)
}

func Test_ConfigLoad_NoFile(t *testing.T) {
	// No explicit path and nothing in the search locations still
	// yields a complete configuration.
	var cfg, err = ConfigLoad("")

	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().SilenceTimeout, cfg.SilenceTimeout)
}

func Test_ConfigLoad_MissingExplicitPath(t *testing.T) {
	var _, err = ConfigLoad("/nonexistent/yapper.yaml")

	assert.Error(t, err)
}

func Test_ConfigLoad_Overlay(t *testing.T) {
	var path = filepath.Join(t.TempDir(), "yapper.yaml")

	// Durations as Go strings, as bare millisecond integers, and a
	// partial file that leaves everything else at defaults.
	var body = `
silence_timeout: 1s
settle_guard: 300ms
no_progress_timeout: 2500
amplitude: 0.5
beacon_text: YAPPER HERE
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	var cfg, err = ConfigLoad(path)
	require.NoError(t, err)

	assert.Equal(t, time.Second, cfg.SilenceTimeout)
	assert.Equal(t, 300*time.Millisecond, cfg.SettleGuard)
	assert.Equal(t, 2500*time.Millisecond, cfg.NoProgressTimeout)
	assert.Equal(t, 0.5, cfg.Amplitude)
	assert.Equal(t, "YAPPER HERE", cfg.BeaconText)

	var def = DefaultConfig()
	assert.Equal(t, def.ToneDuration, cfg.ToneDuration, "untouched values keep their defaults")
	assert.Equal(t, def.SampleRate, cfg.SampleRate)
	assert.Len(t, cfg.Modes, 2, "modes default when the file has none")
}

func Test_ConfigLoad_CustomModes(t *testing.T) {
	var path = filepath.Join(t.TempDir(), "yapper.yaml")

	var body = `
modes:
  - name: lab
    marker_freq: 1000
    base_freq: 1200
    step_freq: 25
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	var cfg, err = ConfigLoad(path)
	require.NoError(t, err)

	require.Len(t, cfg.Modes, 1, "modes in the file replace the built-ins")
	assert.Equal(t, "lab", cfg.Modes[0].Name)
	assert.Equal(t, 25.0, cfg.Modes[0].StepFreq)
}

func Test_ConfigLoad_RejectsOverlappingModes(t *testing.T) {
	var path = filepath.Join(t.TempDir(), "yapper.yaml")

	var body = `
modes:
  - name: a
    marker_freq: 450
    base_freq: 600
    step_freq: 20
  - name: b
    marker_freq: 500
    base_freq: 700
    step_freq: 20
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	var _, err = ConfigLoad(path)
	assert.Error(t, err)
}

func Test_Validate_ToneTooShortForDebounce(t *testing.T) {
	var cfg = DefaultConfig()
	cfg.ToneDuration = 30 * time.Millisecond
	cfg.DebounceThreshold = 3

	assert.Error(t, cfg.Validate())
}

func Test_Validate_StepBelowAnalysisBandwidth(t *testing.T) {
	var cfg = DefaultConfig()

	// A 20ms window resolves 50 Hz; the default 20 Hz audible step
	// would put neighbouring characters in the same bin.
	cfg.TickInterval = 20 * time.Millisecond

	assert.Error(t, cfg.Validate())
}

func Test_Validate_SilenceMustBeatNoProgress(t *testing.T) {
	var cfg = DefaultConfig()
	cfg.SilenceTimeout = 4 * time.Second

	assert.Error(t, cfg.Validate(), "silence timeout must stay below the no-progress timeout")
}

func Test_Validate_RelayRangeInverted(t *testing.T) {
	var cfg = DefaultConfig()
	cfg.RelayMinDelay = 20 * time.Second
	cfg.RelayMaxDelay = 10 * time.Second

	assert.Error(t, cfg.Validate())
}

func Test_Validate_BadAmplitude(t *testing.T) {
	var cfg = DefaultConfig()
	cfg.Amplitude = 1.5

	assert.Error(t, cfg.Validate())
}

func Test_CharPeriod(t *testing.T) {
	var cfg = DefaultConfig()

	assert.Equal(t, 240*time.Millisecond, cfg.charPeriod())
}

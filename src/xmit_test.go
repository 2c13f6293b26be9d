package yapper

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeOutput plays instantly and records what it saw.
type fakeOutput struct {
	demod *Demodulator

	played          int
	lastTotal       time.Duration
	mutedDuringPlay bool

	openErr error
	playErr error
}

func (f *fakeOutput) Play(schedule []ToneEvent, total time.Duration, onComplete func(error)) error {
	if f.openErr != nil {
		return f.openErr
	}

	f.played++
	f.lastTotal = total

	if f.demod != nil {
		f.mutedDuringPlay = f.demod.muted.Load()
	}

	onComplete(f.playErr)

	return nil
}

func xmitConfig() *Config {
	var cfg = DefaultConfig()

	// Keep the post-transmission hold short for the tests.
	cfg.SettleGuard = time.Millisecond

	return cfg
}

func Test_Transmitter_Send(t *testing.T) {
	var cfg = xmitConfig()
	var mode = modeByName(cfg.Modes, "audible")

	var ch = NewChannel()
	var out = &fakeOutput{}
	var tx = NewTransmitter(cfg, out, ch)

	var demod = NewDemodulator(cfg, NewDeduper())
	out.demod = demod
	tx.AttachDemodulator(demod)

	var stats = &Stats{}
	tx.AttachStats(stats)

	require.NoError(t, tx.Send("AB12|HI", mode))

	assert.Equal(t, 1, out.played)
	assert.Equal(t, scheduleDuration("AB12|HI", cfg), out.lastTotal)
	assert.True(t, out.mutedDuringPlay, "receiver must not hear our own tones")
	assert.False(t, demod.muted.Load(), "unmuted once the settle guard has passed")
	assert.Equal(t, ChannelIdle, ch.State())
	assert.Equal(t, int64(1), stats.Transmissions.Load())
}

func Test_Transmitter_TrySendBusy(t *testing.T) {
	var cfg = xmitConfig()
	var mode = modeByName(cfg.Modes, "audible")

	var ch = NewChannel()
	var out = &fakeOutput{}
	var tx = NewTransmitter(cfg, out, ch)

	ch.Acquire(ChannelReceive)

	var sent, err = tx.TrySend("AB12|HI", mode)
	assert.False(t, sent)
	assert.NoError(t, err, "a busy channel is not an error")
	assert.Equal(t, 0, out.played)
	assert.Equal(t, ChannelReceive, ch.State(), "the holder keeps the channel")
}

func Test_Transmitter_OpenError(t *testing.T) {
	var cfg = xmitConfig()
	var mode = modeByName(cfg.Modes, "audible")

	var ch = NewChannel()
	var out = &fakeOutput{openErr: errors.New("no device")}
	var tx = NewTransmitter(cfg, out, ch)

	var err = tx.Send("AB12|HI", mode)
	require.Error(t, err)
	assert.ErrorContains(t, err, "no device")
	assert.Equal(t, ChannelIdle, ch.State(), "channel released on failure")
}

func Test_Transmitter_PlaybackError(t *testing.T) {
	var cfg = xmitConfig()
	var mode = modeByName(cfg.Modes, "audible")

	var ch = NewChannel()
	var out = &fakeOutput{playErr: errors.New("underrun")}
	var tx = NewTransmitter(cfg, out, ch)

	var demod = NewDemodulator(cfg, NewDeduper())
	tx.AttachDemodulator(demod)

	var err = tx.Send("AB12|HI", mode)
	require.Error(t, err)
	assert.ErrorContains(t, err, "underrun")
	assert.Equal(t, ChannelIdle, ch.State())
	assert.False(t, demod.muted.Load(), "unmuted even on failure")
}

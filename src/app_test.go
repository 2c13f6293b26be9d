package yapper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureOutput records tone schedules instead of playing them.
type captureOutput struct {
	schedules [][]ToneEvent
	totals    []time.Duration
}

func (c *captureOutput) Play(schedule []ToneEvent, total time.Duration, onComplete func(error)) error {
	c.schedules = append(c.schedules, schedule)
	c.totals = append(c.totals, total)

	onComplete(nil)

	return nil
}

// replayInput feeds a fixed set of samples and ends the stream.
type replayInput struct {
	samples []Sample
}

func (r *replayInput) Samples() (<-chan Sample, error) {
	var ch = make(chan Sample, len(r.samples))
	for _, s := range r.samples {
		ch <- s
	}
	close(ch)

	return ch, nil
}

func (r *replayInput) Close() error { return nil }

func appConfig() *Config {
	var cfg = DefaultConfig()
	cfg.SettleGuard = time.Millisecond

	return cfg
}

// Two stations over an in-memory air gap: what A modulates, B hears,
// decodes, displays, and queues for relay.
func Test_App_Loopback(t *testing.T) {
	var cfg = appConfig()

	var aOut = &captureOutput{}
	var a, aErr = NewApp(cfg, "audible", aOut)
	require.NoError(t, aErr)

	var m, sendErr = a.Send("HELLO OUT THERE")
	require.NoError(t, sendErr)
	assert.Equal(t, "HELLO OUT THERE", m.Text)
	assert.Equal(t, DirOutbound, m.Direction)
	require.Len(t, aOut.schedules, 1)

	// Quantise what A put on the air, plus the silence after it.
	var start = time.Unix(0, 0)
	var samples = quantizeSchedule(aOut.schedules[0], aOut.totals[0], cfg, start)
	for off := aOut.totals[0]; off < aOut.totals[0]+cfg.SilenceTimeout+4*cfg.TickInterval; off += cfg.TickInterval {
		samples = append(samples, Sample{When: start.Add(off)})
	}

	var b, bErr = NewApp(cfg, "audible", &captureOutput{})
	require.NoError(t, bErr)

	var heard = make(chan Message, 1)
	b.DisplayFunc = func(m Message) {
		heard <- m
	}

	var ctx, cancel = context.WithCancel(context.Background())
	defer cancel()

	go func() {
		b.Run(ctx, &replayInput{samples: samples})
	}()

	select {
	case got := <-heard:
		assert.Equal(t, m.ID, got.ID)
		assert.Equal(t, "HELLO OUT THERE", got.Text)
		assert.Equal(t, DirInbound, got.Direction)
	case <-time.After(5 * time.Second):
		t.Fatal("message never decoded")
	}

	var entries = b.RelayEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, m.ID, entries[0].ID)
	assert.Equal(t, RelayPending, entries[0].Status)

	require.Len(t, b.History(), 1)
	assert.Contains(t, b.Stats().String(), "messages=1")
}

func Test_App_UnknownMode(t *testing.T) {
	var _, err = NewApp(appConfig(), "shortwave", &captureOutput{})

	assert.Error(t, err)
}

func Test_App_SendRejectsUntransmittable(t *testing.T) {
	var a, err = NewApp(appConfig(), "audible", &captureOutput{})
	require.NoError(t, err)

	_, err = a.Send("\t\n")
	assert.Error(t, err)

	_, err = a.Send("日本語")
	assert.Error(t, err, "nothing left after stripping")
}

func Test_App_SendStripsAndRecords(t *testing.T) {
	var a, err = NewApp(appConfig(), "audible", &captureOutput{})
	require.NoError(t, err)

	var m, sendErr = a.Send("café time")
	require.NoError(t, sendErr)
	assert.Equal(t, "caf time", m.Text)

	var hist = a.History()
	require.Len(t, hist, 1)
	assert.Equal(t, m.ID, hist[0].ID)
}

func Test_App_OwnEchoDiscarded(t *testing.T) {
	var cfg = appConfig()

	var a, err = NewApp(cfg, "audible", &captureOutput{})
	require.NoError(t, err)

	var m, sendErr = a.Send("PING")
	require.NoError(t, sendErr)

	// Our own message coming back via a neighbour's relay must not
	// display again or be re-relayed.
	var mode = modeByName(cfg.Modes, "audible")
	var echo = quantizeFrame(frameBuild(m.ID, m.Text), mode, cfg, time.Unix(0, 0))
	for _, s := range echo {
		a.demod.ProcessSample(s)
	}

	assert.Len(t, a.History(), 1)
	assert.Empty(t, a.RelayEntries())
	assert.Equal(t, int64(1), a.stats.Duplicates.Load())
}

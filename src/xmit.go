package yapper

/*------------------------------------------------------------------
 *
 * Purpose:   	Transmit path.
 *
 * Description:	Serialises all transmissions - user sends, beacons,
 *		relays - against the half-duplex channel.  While a
 *		schedule is playing the demodulator is muted so we
 *		don't decode our own tones, and the channel is held
 *		for a settle guard after the tone tail so the
 *		room's reverberation can't be mistaken for a new
 *		incoming signal.
 *
 *		There is no retry here.  Either the output device's
 *		completion callback fires or the device reports
 *		failure, which goes straight back to the caller.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
)

// AudioOutput is the output device collaborator.  Play returns an
// error only for immediate device failure (the one condition that is
// a hard failure for the caller); otherwise completion or later
// failure arrives via onComplete, exactly once.
type AudioOutput interface {
	Play(schedule []ToneEvent, total time.Duration, onComplete func(error)) error
}

type Transmitter struct {
	out   AudioOutput
	ch    *Channel
	cfg   *Config
	demod *Demodulator /* may be nil in offline tools */
	stats *Stats       /* may be nil */
}

func NewTransmitter(cfg *Config, out AudioOutput, ch *Channel) *Transmitter {
	return &Transmitter{
		out: out,
		ch:  ch,
		cfg: cfg,
	}
}

// AttachDemodulator wires the receiver to be muted during our own
// transmissions.
func (t *Transmitter) AttachDemodulator(d *Demodulator) {
	t.demod = d
}

func (t *Transmitter) AttachStats(s *Stats) {
	t.stats = s
}

// Send transmits one frame, blocking until the channel is free, the
// schedule has played out, and the settle guard has elapsed.
func (t *Transmitter) Send(frame string, mode *Mode) error {
	t.ch.Acquire(ChannelTransmit)

	return t.transmit(frame, mode)
}

// TrySend is Send without the wait: if the channel is busy it
// reports false and does nothing.  The relay scheduler uses this -
// pending relays are delayed, never skipped, so "try again next
// tick" is the correct response to a busy channel.
func (t *Transmitter) TrySend(frame string, mode *Mode) (bool, error) {
	if !t.ch.TryAcquire(ChannelTransmit) {
		return false, nil
	}

	return true, t.transmit(frame, mode)
}

func (t *Transmitter) transmit(frame string, mode *Mode) error {
	defer t.ch.Release()

	if t.demod != nil {
		t.demod.Mute(true)
		defer t.demod.Mute(false)
	}

	var schedule = toneSchedule(frame, mode, t.cfg)
	var total = scheduleDuration(frame, t.cfg)

	log.Debug("transmitting", "mode", mode.Name, "chars", len(frame), "duration", total)

	var done = make(chan error, 1)

	if err := t.out.Play(schedule, total, func(playErr error) {
		done <- playErr
	}); err != nil {
		return fmt.Errorf("audio output: %w", err)
	}

	if err := <-done; err != nil {
		return fmt.Errorf("audio output: %w", err)
	}

	// Hold everything until the tail of our own sound has died away.
	time.Sleep(t.cfg.SettleGuard)

	if t.stats != nil {
		t.stats.Transmissions.Add(1)
	}

	return nil
}

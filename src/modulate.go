package yapper

/*------------------------------------------------------------------
 *
 * Purpose:   	Modulator - turn a frame into a tone schedule.
 *
 * Description:	Each character becomes two tone events:
 *
 *		    marker tone, gap, data tone, gap
 *
 *		The marker at the front of every character lets the
 *		receiver re-synchronise on each symbol instead of
 *		having to track timing across the whole message.
 *
 *		Every tone starts at full amplitude immediately and
 *		ramps linearly back to zero over the release guard
 *		at its end.  Without the ramp the abrupt cutoff
 *		clicks audibly and smears energy into the next
 *		symbol's analysis window.
 *
 *		There is no retry logic here.  The schedule is
 *		handed to the output device once; either its
 *		completion callback fires or the device reports
 *		failure upward.
 *
 *---------------------------------------------------------------*/

import (
	"time"
)

// ToneEvent is one tone in a schedule.  Start is relative to the
// beginning of the transmission.
type ToneEvent struct {
	Freq     float64
	Start    time.Duration
	Duration time.Duration
	Release  time.Duration /* linear ramp to zero at the tail of the tone */
}

// envelopeAt returns the amplitude multiplier (0..1) for a point
// in time measured from the start of the event.
func (e ToneEvent) envelopeAt(offset time.Duration) float64 {
	if offset < 0 || offset >= e.Duration {
		return 0
	}

	var rampStart = e.Duration - e.Release
	if offset < rampStart || e.Release <= 0 {
		return 1
	}

	return float64(e.Duration-offset) / float64(e.Release)
}

/*------------------------------------------------------------------
 *
 * Name:	toneSchedule
 *
 * Purpose:	Build the ordered tone schedule for one frame.
 *
 * Inputs:	frame	- Wire format string, printable ASCII only.
 *
 *		mode	- Frequency band to transmit in.
 *
 * Returns:	Time-ordered events, two per character, with head
 *		padding before the first and tail padding included
 *		in the total duration.
 *
 *----------------------------------------------------------------*/

func toneSchedule(frame string, mode *Mode, cfg *Config) []ToneEvent {
	var events = make([]ToneEvent, 0, 2*len(frame))

	var t = cfg.HeadPadding

	for i := 0; i < len(frame); i++ {
		events = append(events, ToneEvent{
			Freq:     mode.MarkerFreq,
			Start:    t,
			Duration: cfg.ToneDuration,
			Release:  cfg.ReleaseGuard,
		})
		t += cfg.ToneDuration + cfg.GapDuration

		events = append(events, ToneEvent{
			Freq:     frequencyForChar(mode, int(frame[i])),
			Start:    t,
			Duration: cfg.ToneDuration,
			Release:  cfg.ReleaseGuard,
		})
		t += cfg.ToneDuration + cfg.GapDuration
	}

	return events
}

// scheduleDuration is the total air time for a frame, padding included.
func scheduleDuration(frame string, cfg *Config) time.Duration {
	return cfg.HeadPadding + time.Duration(len(frame))*cfg.charPeriod() + cfg.TailPadding
}

package yapper

/*------------------------------------------------------------------
 *
 * Purpose:   	Demodulator - the receive state machine.
 *
 * Description:	Consumes one (dominant frequency, amplitude) sample
 *		per spectral-analysis tick and produces committed
 *		text messages.
 *
 *		States:
 *
 *		    Idle        - nothing heard, scanning for any
 *				  mode's marker.
 *		    WaitMarker  - same scan, but mid-message.  The
 *				  receiving flag is the only real
 *				  difference and that exists for UI
 *				  signalling.
 *		    ReadChar    - marker confirmed, expecting a data
 *				  tone in the locked mode.
 *
 *		Noise is the common case, so a sample that fails
 *		frequency or debounce acceptance is simply dropped.
 *		Every accepted detection needs several consecutive
 *		confirming samples (debounce) - a one-tick spike
 *		never causes a transition.
 *
 *		All timeouts are computed by comparing the sample's
 *		timestamp against stored timestamps.  Nothing in
 *		this path blocks, sleeps, or takes a lock; it has to
 *		finish well inside one analysis tick.
 *
 *---------------------------------------------------------------*/

import (
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// Sample is one spectral-analysis tick: the dominant frequency heard
// and its amplitude, normalised to 0..1.
type Sample struct {
	Freq float64
	Amp  float64
	When time.Time
}

type decoderPhase int

const (
	phaseIdle decoderPhase = iota
	phaseWaitMarker
	phaseReadChar
)

// DecoderState is the single mutable structure behind the state
// machine.  It is a plain value owned by its Demodulator - never
// shared, never global - so several independent receivers can run
// side by side (and the tests do exactly that).
type DecoderState struct {
	phase      decoderPhase
	buffer     []byte
	lastChar   byte  /* last appended character; 0 = none pending */
	activeMode *Mode /* locked on first confirmed marker, nil while idle */
	debounce   int
	receiving  bool

	lastValidRead   time.Time
	lastCharDecoded time.Time
	silenceSince    time.Time /* zero = silence timer not running */

	holdsChannel bool
}

type Demodulator struct {
	cfg    *Config
	dedupe *Deduper

	/* Optional collaborators, wired before the first sample. */

	Queue       *MessageQueue /* committed inbound messages */
	Relay       *RelayQueue   /* store-and-forward scheduler */
	Ch          *Channel      /* half-duplex busy flag */
	Stats       *Stats
	PartialFunc func(string) /* live partial buffer for the display layer */

	muted atomic.Bool

	state DecoderState
}

func NewDemodulator(cfg *Config, dedupe *Deduper) *Demodulator {
	return &Demodulator{
		cfg:    cfg,
		dedupe: dedupe,
	}
}

// Mute suspends decoding while our own transmitter is active, so we
// don't decode our own tones.  The transmitter holds this through
// the settle guard after the tone tail.
func (d *Demodulator) Mute(on bool) {
	d.muted.Store(on)
}

/*------------------------------------------------------------------
 *
 * Name:	ProcessSample
 *
 * Purpose:	Advance the state machine by one analysis tick.
 *
 * Description:	The ordering below is load-bearing:
 *
 *		1. stuck-buffer timeout  (partial message, decoding
 *		   stalled while signal still present -> commit)
 *		2. silence timeout       (partial message, signal
 *		   gone -> commit)
 *		3. idle timeout          (no message yet, signal
 *		   lost -> silent reset)
 *		4. noise gate            (weak sample contributes
 *		   nothing, may start the silence timer)
 *		5. frequency matching per state
 *
 *----------------------------------------------------------------*/

func (d *Demodulator) ProcessSample(s Sample) {
	if d.Stats != nil {
		d.Stats.SamplesProcessed.Add(1)
	}

	if d.muted.Load() {
		d.state.debounce = 0

		return
	}

	var st = &d.state
	var now = s.When

	if len(st.buffer) > 0 && now.Sub(st.lastCharDecoded) > d.cfg.NoProgressTimeout {
		// Decoding stalled mid-message.  Treat what we have as
		// the whole message rather than holding the buffer forever.
		log.Debug("no decode progress, forcing commit", "buffer", len(st.buffer))
		d.commit(now)

		return
	}

	if len(st.buffer) > 0 && !st.silenceSince.IsZero() && now.Sub(st.silenceSince) > d.cfg.SilenceTimeout {
		d.commit(now)

		return
	}

	if st.phase != phaseIdle && len(st.buffer) == 0 && now.Sub(st.lastValidRead) > d.cfg.IdleTimeout {
		// Signal lost before any character was captured.
		// Nothing to flush.
		d.reset()

		return
	}

	if s.Amp < d.cfg.AmpThreshold {
		st.debounce = 0

		if len(st.buffer) > 0 && st.silenceSince.IsZero() {
			st.silenceSince = now
		}

		return
	}

	// A strong signal is present; any running silence timer is moot.
	st.silenceSince = time.Time{}

	switch st.phase {
	case phaseIdle, phaseWaitMarker:
		var mode = d.markerMatch(s.Freq)
		if mode == nil {
			// No partial credit.
			st.debounce = 0

			return
		}

		st.activeMode = mode
		st.debounce++

		if st.debounce < d.cfg.DebounceThreshold {
			return
		}

		st.phase = phaseReadChar
		st.debounce = 0
		st.lastValidRead = now

		// A confirmed marker separates characters, so the
		// repeated-character guard starts over.  Without this,
		// legitimate doubled letters ("ll") could never decode.
		st.lastChar = 0

		if !st.receiving {
			st.receiving = true

			if d.Ch != nil && d.Ch.TryAcquire(ChannelReceive) {
				st.holdsChannel = true
			}
		}

	case phaseReadChar:
		var mode = st.activeMode
		if mode == nil {
			// Can't happen via normal transitions.
			d.reset()

			return
		}

		if math.Abs(s.Freq-mode.MarkerFreq) <= d.cfg.MarkerTolerance {
			// The marker between characters is expected; just wait.
			st.debounce = 0

			return
		}

		var ch, ok = charForFrequency(mode, s.Freq)
		if !ok || (st.lastChar != 0 && ch == st.lastChar) {
			// Out of band, off-centre, or a steady tone trying
			// to repeat the previous character.
			st.debounce = 0

			return
		}

		st.debounce++

		if st.debounce < d.cfg.DebounceThreshold {
			return
		}

		st.buffer = append(st.buffer, ch)
		st.lastChar = ch
		st.lastCharDecoded = now
		st.lastValidRead = now
		st.silenceSince = now
		st.phase = phaseWaitMarker
		st.debounce = 0

		if d.Stats != nil {
			d.Stats.CharsDecoded.Add(1)
		}

		if d.PartialFunc != nil {
			d.PartialFunc(string(st.buffer))
		}
	}
}

// markerMatch tests a frequency against marker frequencies.  While a
// mode is locked mid-message only that mode's marker counts; another
// band's marker must never cause a transition.  Returns the matched
// mode or nil.
func (d *Demodulator) markerMatch(freq float64) *Mode {
	if d.state.activeMode != nil {
		if math.Abs(freq-d.state.activeMode.MarkerFreq) <= d.cfg.MarkerTolerance {
			return d.state.activeMode
		}

		return nil
	}

	for _, m := range d.cfg.Modes {
		if math.Abs(freq-m.MarkerFreq) <= d.cfg.MarkerTolerance {
			return m
		}
	}

	return nil
}

/*------------------------------------------------------------------
 *
 * Name:	commit
 *
 * Purpose:	End of message - turn the buffer into a Message.
 *
 * Description:	Reached only via the silence and no-progress
 *		timeouts.  The state machine is fully reset whether
 *		or not anything is emitted:
 *
 *		  empty buffer      -> discard silently
 *		  duplicate id      -> log and discard (normal, not
 *				       an error - relays guarantee
 *				       we hear things twice)
 *		  otherwise         -> remember the id, hand the
 *				       message to the queue, and
 *				       schedule it for relaying
 *
 *----------------------------------------------------------------*/

func (d *Demodulator) commit(now time.Time) {
	var text = strings.TrimSpace(string(d.state.buffer))

	defer d.reset()

	if text == "" {
		return
	}

	var id, body = frameParse(text)

	if d.dedupe.Seen(id) {
		log.Info("duplicate message discarded", "id", id)

		if d.Stats != nil {
			d.Stats.Duplicates.Add(1)
		}

		return
	}

	d.dedupe.Remember(id)

	var m = Message{
		ID:        id,
		Text:      body,
		Direction: DirInbound,
		Timestamp: now,
	}

	if d.Stats != nil {
		d.Stats.Commits.Add(1)
	}

	log.Debug("message committed", "id", id, "len", len(body))

	if d.Queue != nil {
		d.Queue.Append(m)
	}

	if d.Relay != nil {
		d.Relay.Enqueue(id, body, now)
	}
}

// reset returns the machine to Idle and releases the channel if this
// reception was holding it.
func (d *Demodulator) reset() {
	if d.state.holdsChannel && d.Ch != nil {
		d.Ch.Release()
	}

	d.state = DecoderState{}

	if d.PartialFunc != nil {
		d.PartialFunc("")
	}
}

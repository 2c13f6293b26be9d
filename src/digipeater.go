package yapper

/*------------------------------------------------------------------
 *
 * Purpose:   	Store-and-forward relay scheduler.
 *
 * Description:	Every received message is queued for one
 *		re-transmission after a randomised delay, which
 *		turns each listening device into an opportunistic
 *		repeater and extends range with no central router.
 *		Receivers further out hear the relay, dedup on the
 *		frame id, and relay again themselves.
 *
 *		The delay is drawn once when the entry is created
 *		and never recomputed.  Randomising it spreads out
 *		the moment at which several stations that heard the
 *		same message try to repeat it.
 *
 *		The scheduler runs on a fixed tick.  A busy channel
 *		just means "check again next tick" - entries are
 *		never skipped or expired, only delayed.  At most one
 *		relay transmission is in flight at a time.
 *
 *---------------------------------------------------------------*/

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

type RelayStatus int

const (
	RelayPending RelayStatus = iota
	RelayDone
)

func (s RelayStatus) String() string {
	if s == RelayDone {
		return "relayed"
	}

	return "pending"
}

type RelayEntry struct {
	ID         string
	Text       string
	ReceivedAt time.Time
	Status     RelayStatus
	RelayAfter time.Duration /* drawn once, never recomputed */

	inFlight bool
}

func (e *RelayEntry) ready(now time.Time) bool {
	return e.Status == RelayPending && !e.inFlight && now.Sub(e.ReceivedAt) >= e.RelayAfter
}

type RelayQueue struct {
	mu      sync.Mutex
	entries []*RelayEntry

	cfg   *Config
	rng   *rand.Rand
	stats *Stats /* may be nil */

	/* trySend hands a frame to the transmitter if the channel is
	   idle.  false means busy - leave the entry pending. */
	trySend func(frame string) (bool, error)
}

func NewRelayQueue(cfg *Config, trySend func(frame string) (bool, error)) *RelayQueue {
	return &RelayQueue{
		cfg:     cfg,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		trySend: trySend,
	}
}

func (q *RelayQueue) AttachStats(s *Stats) {
	q.stats = s
}

// Enqueue adds a freshly received message.  The relay delay is
// drawn uniformly from the configured range, here and only here.
func (q *RelayQueue) Enqueue(id string, text string, receivedAt time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var spread = q.cfg.RelayMaxDelay - q.cfg.RelayMinDelay

	var delay = q.cfg.RelayMinDelay
	if spread > 0 {
		delay += time.Duration(q.rng.Int63n(int64(spread)))
	}

	q.entries = append(q.entries, &RelayEntry{
		ID:         id,
		Text:       text,
		ReceivedAt: receivedAt,
		Status:     RelayPending,
		RelayAfter: delay,
	})

	log.Debug("queued for relay", "id", id, "after", delay)
}

/*------------------------------------------------------------------
 *
 * Name:	Tick
 *
 * Purpose:	One scheduler pass.
 *
 * Description:	Picks the earliest-queued pending entry whose delay
 *		has elapsed and offers it to the transmitter.  If
 *		the channel is busy the entry simply stays pending
 *		for a later tick.  pending -> relayed happens
 *		exactly once per entry.
 *
 *----------------------------------------------------------------*/

func (q *RelayQueue) Tick(now time.Time) {
	q.mu.Lock()

	var entry *RelayEntry

	for _, e := range q.entries {
		if e.ready(now) {
			entry = e

			break
		}
	}

	if entry == nil {
		q.mu.Unlock()

		return
	}

	entry.inFlight = true
	q.mu.Unlock()

	q.relay(entry)
}

// relay performs the actual transmission attempt for one entry.
// Called with entry.inFlight set; always clears it.
func (q *RelayQueue) relay(entry *RelayEntry) {
	var sent, err = q.trySend(frameBuild(entry.ID, entry.Text))

	q.mu.Lock()
	defer q.mu.Unlock()

	entry.inFlight = false

	switch {
	case err != nil:
		// Interrupted or failed mid-transmission.  The entry
		// stays pending; a later tick retransmits in full.
		log.Error("relay failed, will retry", "id", entry.ID, "err", err)
	case sent:
		entry.Status = RelayDone

		if q.stats != nil {
			q.stats.Relays.Add(1)
		}

		log.Info("relayed", "id", entry.ID)
	default:
		// Channel busy.  Next tick.
	}
}

// RelayNow bypasses the randomised wait for one entry.  It still
// needs an idle channel and still flips pending -> relayed at most
// once.
func (q *RelayQueue) RelayNow(id string) error {
	q.mu.Lock()

	var entry *RelayEntry

	for _, e := range q.entries {
		if strings.EqualFold(e.ID, id) {
			entry = e

			break
		}
	}

	if entry == nil {
		q.mu.Unlock()

		return fmt.Errorf("no relay entry with id %s", id)
	}

	if entry.Status == RelayDone || entry.inFlight {
		q.mu.Unlock()

		return fmt.Errorf("entry %s already relayed", id)
	}

	entry.inFlight = true
	q.mu.Unlock()

	q.relay(entry)

	q.mu.Lock()
	defer q.mu.Unlock()

	if entry.Status != RelayDone {
		return fmt.Errorf("channel busy, %s still pending", id)
	}

	return nil
}

// Clear purges the whole queue.  Entries are never deleted
// automatically; this is the only removal there is.
func (q *RelayQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.entries = nil
}

// Entries returns a snapshot for display.
func (q *RelayQueue) Entries() []RelayEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	var out = make([]RelayEntry, len(q.entries))
	for i, e := range q.entries {
		out[i] = *e
	}

	return out
}

// Run ticks the scheduler until the context is cancelled.
func (q *RelayQueue) Run(ctx context.Context) {
	var ticker = time.NewTicker(q.cfg.SchedulerTick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			q.Tick(now)
		}
	}
}

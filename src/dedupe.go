package yapper

/*------------------------------------------------------------------
 *
 * Purpose:	Avoid displaying or relaying duplicate messages.
 *
 * Description:	Duplicates are the normal case, not the exception:
 *
 *		(1) We hear a neighbour's transmission directly and
 *		    then hear another station relay it.
 *
 *		(2) We hear our own message come back via a relay.
 *
 *		(3) Two relays in range both repeat the same message.
 *
 *		Every id ever observed - our own outgoing ones
 *		included - goes into the set and stays there for the
 *		life of the process.  A chat session is short and
 *		ids are four characters, so unbounded growth is an
 *		acceptable trade for never re-displaying a message.
 *
 *---------------------------------------------------------------*/

import (
	"strings"
	"sync"
)

type Deduper struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewDeduper() *Deduper {
	return &Deduper{
		seen: make(map[string]struct{}),
	}
}

/* Ids are case-insensitive on the air. */

func dedupeKey(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// Remember records an id.  Safe to call repeatedly.
func (d *Deduper) Remember(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.seen[dedupeKey(id)] = struct{}{}
}

// Seen reports whether the id has been observed before.
func (d *Deduper) Seen(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	var _, ok = d.seen[dedupeKey(id)]

	return ok
}

// Count returns the number of distinct ids observed.
func (d *Deduper) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.seen)
}

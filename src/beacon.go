package yapper

/*------------------------------------------------------------------
 *
 * Purpose:   	Periodic identification beacon.
 *
 * Description:	Optionally announce ourselves every few minutes by
 *		sending a fixed text through the normal send path.
 *		The beacon is framed and id-tagged like any other
 *		message, so neighbours display it once, dedup the
 *		echoes, and relay it outward.
 *
 *---------------------------------------------------------------*/

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

type Beacon struct {
	text  string
	every time.Duration
	send  func(text string) error
}

func NewBeacon(text string, every time.Duration, send func(string) error) *Beacon {
	return &Beacon{
		text:  text,
		every: every,
		send:  send,
	}
}

// Run transmits the beacon on its interval until cancelled.  The
// first beacon goes out after one full interval, not at startup -
// joining a channel should not start with noise.
func (b *Beacon) Run(ctx context.Context) {
	if b.text == "" || b.every <= 0 {
		return
	}

	var ticker = time.NewTicker(b.every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := b.send(b.text); err != nil {
				log.Error("beacon transmission failed", "err", err)
			}
		}
	}
}

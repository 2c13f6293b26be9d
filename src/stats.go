package yapper

/*------------------------------------------------------------------
 *
 * Purpose:   	Channel activity counters.
 *
 * Description:	Nothing fancy - a handful of atomic counters that
 *		the app prints on request and logs periodically at
 *		debug level.  Handy for judging whether a quiet
 *		session means a quiet room or a deaf microphone.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"sync/atomic"
)

type Stats struct {
	SamplesProcessed atomic.Int64
	CharsDecoded     atomic.Int64
	Commits          atomic.Int64
	Duplicates       atomic.Int64
	Transmissions    atomic.Int64
	Relays           atomic.Int64
}

func NewStats() *Stats {
	return &Stats{}
}

func (s *Stats) String() string {
	return fmt.Sprintf("samples=%d chars=%d messages=%d duplicates=%d transmissions=%d relays=%d",
		s.SamplesProcessed.Load(),
		s.CharsDecoded.Load(),
		s.Commits.Load(),
		s.Duplicates.Load(),
		s.Transmissions.Load(),
		s.Relays.Load())
}

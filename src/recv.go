package yapper

/*------------------------------------------------------------------
 *
 * Purpose:   	Receive loop.
 *
 * Description:	Pulls per-tick spectral samples from the input
 *		device and feeds them to the demodulator.  The work
 *		per sample is bounded and lock-free; if this loop
 *		can't keep up with the tick rate the analysis window
 *		is too small, not the code too slow.
 *
 *---------------------------------------------------------------*/

import (
	"context"
	"fmt"
)

// AudioInput is the input device / spectral analyser collaborator.
// Samples starts capture and delivers one dominant
// (frequency, amplitude) pair per analysis tick.
type AudioInput interface {
	Samples() (<-chan Sample, error)
	Close() error
}

type Receiver struct {
	demod *Demodulator
}

func NewReceiver(demod *Demodulator) *Receiver {
	return &Receiver{demod: demod}
}

// Run consumes the sample feed until the context is cancelled or
// the feed ends.  Device acquisition failure is the one hard error.
func (r *Receiver) Run(ctx context.Context, in AudioInput) error {
	var samples, err = in.Samples()
	if err != nil {
		return fmt.Errorf("audio input: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case s, ok := <-samples:
			if !ok {
				return nil
			}

			r.demod.ProcessSample(s)
		}
	}
}

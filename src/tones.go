package yapper

/*------------------------------------------------------------------
 *
 * Purpose:   	Tone table - mapping between character codes and
 *		audio frequencies for each operating mode.
 *
 * Description:	Each mode (frequency band) has a marker frequency,
 *		a base frequency, and a step.  A character code c in
 *		[32,126] is transmitted as a tone at
 *
 *			base + c * step
 *
 *		preceded by a tone at the marker frequency.  The
 *		marker delimits character boundaries and lets a
 *		receiver (re)synchronise mid-message.
 *
 *		Modes must not overlap in frequency, because an idle
 *		receiver scans for every mode's marker at once and
 *		locks onto whichever one it hears.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"math"
)

/* Transmittable character codes.  Everything else is stripped
   before modulation. */

const MinCharCode = 32
const MaxCharCode = 126

// Mode describes one frequency band.  All durations and thresholds
// are shared across modes and live in Config.
type Mode struct {
	Name       string  `yaml:"name"`
	MarkerFreq float64 `yaml:"marker_freq"` /* Hz, character boundary tone */
	BaseFreq   float64 `yaml:"base_freq"`   /* Hz, offset for character tones */
	StepFreq   float64 `yaml:"step_freq"`   /* Hz per character code */
}

// Default bands.  "audible" sits in the comfortable loudspeaker /
// laptop microphone range.  "stealth" is near-ultrasonic - most
// adults won't hear it but ordinary 44.1k hardware still passes it.
func defaultModes() []*Mode {
	return []*Mode{
		{Name: "audible", MarkerFreq: 450, BaseFreq: 600, StepFreq: 20},
		{Name: "stealth", MarkerFreq: 16200, BaseFreq: 15500, StepFreq: 30},
	}
}

// frequencyForChar returns the data tone frequency for a character code.
// The caller is expected to pass a code in [MinCharCode, MaxCharCode].
func frequencyForChar(mode *Mode, code int) float64 {
	return mode.BaseFreq + float64(code)*mode.StepFreq
}

/*------------------------------------------------------------------
 *
 * Name:	charForFrequency
 *
 * Purpose:	Inverse of frequencyForChar.
 *
 * Inputs:	mode	- Frequency band to decode against.
 *
 *		freq	- Observed dominant frequency, Hz.
 *
 * Returns:	Character code and true, or 0 and false when the
 *		frequency does not land on a character.
 *
 * Description:	Acceptance is deliberately tight: the observed
 *		frequency must be within half a step of the exact
 *		centre frequency for the rounded code.  Anything
 *		further out is drift or spectral bleed from an
 *		adjacent symbol and gets rejected rather than
 *		guessed at.
 *
 *----------------------------------------------------------------*/

func charForFrequency(mode *Mode, freq float64) (byte, bool) {
	var code = int(math.Round((freq - mode.BaseFreq) / mode.StepFreq))

	if code < MinCharCode || code > MaxCharCode {
		return 0, false
	}

	var center = frequencyForChar(mode, code)
	if math.Abs(freq-center) > mode.StepFreq/2 {
		return 0, false
	}

	return byte(code), true
}

// lowFreq / highFreq bound the frequencies a mode can emit,
// marker included.
func (m *Mode) lowFreq() float64 {
	return math.Min(m.MarkerFreq, frequencyForChar(m, MinCharCode))
}

func (m *Mode) highFreq() float64 {
	return math.Max(m.MarkerFreq, frequencyForChar(m, MaxCharCode))
}

/*------------------------------------------------------------------
 *
 * Name:	validateModes
 *
 * Purpose:	Reject mode tables whose frequency ranges overlap.
 *
 * Description:	The receiver scans every mode's marker while idle,
 *		so two modes sharing frequency space would make the
 *		lock-on ambiguous.  The marker tolerance is counted
 *		as part of each mode's claim.
 *
 *----------------------------------------------------------------*/

func validateModes(modes []*Mode, markerTolerance float64) error {
	if len(modes) == 0 {
		return fmt.Errorf("no modes configured")
	}

	for _, m := range modes {
		if m.Name == "" {
			return fmt.Errorf("mode with empty name")
		}
		if m.StepFreq <= 0 {
			return fmt.Errorf("mode %s: step_freq must be positive", m.Name)
		}
		if m.MarkerFreq <= 0 || m.BaseFreq <= 0 {
			return fmt.Errorf("mode %s: frequencies must be positive", m.Name)
		}

		// The marker must not be mistakable for a character tone
		// of the same mode.
		if _, ok := charForFrequency(m, m.MarkerFreq); ok {
			return fmt.Errorf("mode %s: marker_freq %.0f falls inside the character range", m.Name, m.MarkerFreq)
		}
	}

	for i, a := range modes {
		for _, b := range modes[i+1:] {
			if a.Name == b.Name {
				return fmt.Errorf("duplicate mode name %s", a.Name)
			}

			var aLow, aHigh = a.lowFreq() - markerTolerance, a.highFreq() + markerTolerance
			var bLow, bHigh = b.lowFreq() - markerTolerance, b.highFreq() + markerTolerance

			if aLow <= bHigh && bLow <= aHigh {
				return fmt.Errorf("modes %s and %s overlap in frequency", a.Name, b.Name)
			}
		}
	}

	return nil
}

// modeByName is a simple lookup; nil when absent.
func modeByName(modes []*Mode, name string) *Mode {
	for _, m := range modes {
		if m.Name == name {
			return m
		}
	}

	return nil
}

package yapper

/*------------------------------------------------------------------
 *
 * Purpose:   	Offline sample captures.
 *
 * Description:	A capture is the receive side's view of a
 *		transmission with the sound card taken out of the
 *		loop: one line per analysis tick,
 *
 *			offset_ms,frequency_hz,amplitude
 *
 *		yapgen writes captures from the modulator and
 *		yaptest replays them through the demodulator, which
 *		gives a full round trip of the pipeline under
 *		controlled, reproducible conditions.  The decoder
 *		tests use the same quantiser in memory.
 *
 *---------------------------------------------------------------*/

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

/*------------------------------------------------------------------
 *
 * Name:	quantizeSchedule
 *
 * Purpose:	Sample a tone schedule at the analysis tick rate.
 *
 * Description:	Produces what an ideal spectral front end would
 *		report: during a tone, the tone's frequency and its
 *		envelope amplitude; between tones, silence.
 *
 *----------------------------------------------------------------*/

func quantizeSchedule(schedule []ToneEvent, total time.Duration, cfg *Config, start time.Time) []Sample {
	var samples []Sample

	var idx = 0

	for t := time.Duration(0); t < total; t += cfg.TickInterval {
		var freq, amp float64

		// Events are time-ordered, so walk forward only.
		for idx < len(schedule) && t >= schedule[idx].Start+schedule[idx].Duration {
			idx++
		}

		if idx < len(schedule) && t >= schedule[idx].Start {
			var e = schedule[idx]
			freq = e.Freq
			amp = cfg.Amplitude * e.envelopeAt(t-e.Start)
		}

		samples = append(samples, Sample{
			Freq: freq,
			Amp:  amp,
			When: start.Add(t),
		})
	}

	return samples
}

// quantizeFrame is the whole offline transmit side: frame to
// schedule to tick samples, with enough trailing silence appended
// that a receiver will hit its silence timeout and commit.
func quantizeFrame(frame string, mode *Mode, cfg *Config, start time.Time) []Sample {
	var schedule = toneSchedule(frame, mode, cfg)
	var total = scheduleDuration(frame, cfg)

	var samples = quantizeSchedule(schedule, total, cfg, start)

	var tail = cfg.SilenceTimeout + 4*cfg.TickInterval
	var last = total

	for t := last; t < last+tail; t += cfg.TickInterval {
		samples = append(samples, Sample{When: start.Add(t)})
	}

	return samples
}

func captureWrite(w io.Writer, samples []Sample, base time.Time) error {
	var bw = bufio.NewWriter(w)

	fmt.Fprintf(bw, "# yapper capture, %d ticks\n", len(samples))
	fmt.Fprintf(bw, "# offset_ms,frequency_hz,amplitude\n")

	for _, s := range samples {
		var ms = s.When.Sub(base).Milliseconds()
		if _, err := fmt.Fprintf(bw, "%d,%.1f,%.3f\n", ms, s.Freq, s.Amp); err != nil {
			return err
		}
	}

	return bw.Flush()
}

func captureRead(r io.Reader, base time.Time) ([]Sample, error) {
	var samples []Sample

	var sc = bufio.NewScanner(r)
	var lineno = 0

	for sc.Scan() {
		lineno++

		var line = strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var fields = strings.Split(line, ",")
		if len(fields) != 3 {
			return nil, fmt.Errorf("capture line %d: expected 3 fields, got %d", lineno, len(fields))
		}

		var ms, msErr = strconv.ParseInt(fields[0], 10, 64)
		var freq, freqErr = strconv.ParseFloat(fields[1], 64)
		var amp, ampErr = strconv.ParseFloat(fields[2], 64)

		if msErr != nil || freqErr != nil || ampErr != nil {
			return nil, fmt.Errorf("capture line %d: malformed values", lineno)
		}

		samples = append(samples, Sample{
			Freq: freq,
			Amp:  amp,
			When: base.Add(time.Duration(ms) * time.Millisecond),
		})
	}

	if err := sc.Err(); err != nil {
		return nil, err
	}

	return samples, nil
}

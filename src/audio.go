package yapper

/*------------------------------------------------------------------
 *
 * Purpose:   	Sound card interface via PortAudio.
 *
 * Description:	Two halves:
 *
 *		Output - renders a tone schedule to 16 bit samples
 *		with direct digital synthesis (phase accumulator
 *		indexing a precomputed sine table) and streams them
 *		to the default output device.
 *
 *		Input - reads one analysis window per tick from the
 *		default input device and reduces it to a dominant
 *		(frequency, amplitude) pair with a Goertzel bank
 *		over every frequency any configured mode can emit.
 *
 *		The window length is the analysis tick, so the
 *		frequency resolution is 1/tick Hz.  Keep the mode
 *		step above that or adjacent characters blur together.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

/* Constants after initialization. */

const ticksPerCycle = 256.0 * 256.0 * 256.0 * 256.0

var sineTable [256]int16

var sineTableOnce sync.Once

func sineTableInit() {
	for i := range sineTable {
		var a = (float64(i) + 0.5) / 256.0 * 2.0 * math.Pi
		sineTable[i] = int16(math.Sin(a) * 32767.0)
	}
}

var paInitOnce sync.Once
var paInitErr error

func paInit() error {
	paInitOnce.Do(func() {
		paInitErr = portaudio.Initialize()
	})

	return paInitErr
}

/*
 * Output side.
 */

type PortAudioOutput struct {
	cfg *Config
}

func NewPortAudioOutput(cfg *Config) *PortAudioOutput {
	sineTableOnce.Do(sineTableInit)

	return &PortAudioOutput{cfg: cfg}
}

// synthesizeSchedule renders the schedule into one contiguous
// buffer of 16 bit samples, envelope applied.
func synthesizeSchedule(schedule []ToneEvent, total time.Duration, cfg *Config) []int16 {
	sineTableOnce.Do(sineTableInit)

	var rate = float64(cfg.SampleRate)
	var buf = make([]int16, int(total.Seconds()*rate))

	for _, e := range schedule {
		var first = int(e.Start.Seconds() * rate)
		var count = int(e.Duration.Seconds() * rate)

		// Phase step per sample for this frequency, using the
		// full 32 bit accumulator range as one cycle.
		var step = uint32(e.Freq * ticksPerCycle / rate)
		var phase uint32

		for i := 0; i < count && first+i < len(buf); i++ {
			var offset = time.Duration(float64(i) / rate * float64(time.Second))
			var env = cfg.Amplitude * e.envelopeAt(offset)

			buf[first+i] = int16(float64(sineTable[phase>>24]) * env)
			phase += step
		}
	}

	return buf
}

const playChunk = 1024

// Play streams the schedule to the default output device.  Device
// acquisition failure is returned synchronously; everything after
// that arrives via onComplete, exactly once.
func (o *PortAudioOutput) Play(schedule []ToneEvent, total time.Duration, onComplete func(error)) error {
	if err := paInit(); err != nil {
		return fmt.Errorf("portaudio: %w", err)
	}

	var out = make([]int16, playChunk)

	var stream, err = portaudio.OpenDefaultStream(0, 1, float64(o.cfg.SampleRate), len(out), &out)
	if err != nil {
		return fmt.Errorf("opening output stream: %w", err)
	}

	var buf = synthesizeSchedule(schedule, total, o.cfg)

	go func() {
		defer stream.Close()

		if startErr := stream.Start(); startErr != nil {
			onComplete(startErr)

			return
		}

		for pos := 0; pos < len(buf); pos += playChunk {
			var n = copy(out, buf[pos:])
			for i := n; i < len(out); i++ {
				out[i] = 0
			}

			if writeErr := stream.Write(); writeErr != nil {
				onComplete(writeErr)

				return
			}
		}

		onComplete(stream.Stop())
	}()

	return nil
}

/*
 * Input side.
 */

type PortAudioInput struct {
	cfg        *Config
	candidates []float64

	stream  *portaudio.Stream
	window  []int16
	samples chan Sample

	closeOnce sync.Once
}

func NewPortAudioInput(cfg *Config) *PortAudioInput {
	// Every frequency any mode can put on the air: markers plus
	// all character centres.
	var candidates []float64

	for _, m := range cfg.Modes {
		candidates = append(candidates, m.MarkerFreq)

		for c := MinCharCode; c <= MaxCharCode; c++ {
			candidates = append(candidates, frequencyForChar(m, c))
		}
	}

	return &PortAudioInput{
		cfg:        cfg,
		candidates: candidates,
	}
}

func (in *PortAudioInput) Samples() (<-chan Sample, error) {
	if err := paInit(); err != nil {
		return nil, fmt.Errorf("portaudio: %w", err)
	}

	var frames = int(float64(in.cfg.SampleRate) * in.cfg.TickInterval.Seconds())

	in.window = make([]int16, frames)

	var stream, err = portaudio.OpenDefaultStream(1, 0, float64(in.cfg.SampleRate), frames, &in.window)
	if err != nil {
		return nil, fmt.Errorf("opening input stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()

		return nil, fmt.Errorf("starting input stream: %w", err)
	}

	in.stream = stream
	in.samples = make(chan Sample, 4)

	go in.captureLoop()

	return in.samples, nil
}

func (in *PortAudioInput) captureLoop() {
	defer close(in.samples)

	for {
		if err := in.stream.Read(); err != nil {
			// Stream torn down (Close) or device gone.
			return
		}

		var freq, amp = dominantTone(in.window, float64(in.cfg.SampleRate), in.candidates)

		// The demodulator must never wait on us and vice versa;
		// if the consumer is behind, this tick is lost, which
		// the debounce logic absorbs.
		select {
		case in.samples <- Sample{Freq: freq, Amp: amp, When: time.Now()}:
		default:
		}
	}
}

func (in *PortAudioInput) Close() error {
	var err error

	in.closeOnce.Do(func() {
		if in.stream != nil {
			err = in.stream.Close()
		}
	})

	return err
}

/*------------------------------------------------------------------
 *
 * Name:	dominantTone
 *
 * Purpose:	Reduce one analysis window to the strongest
 *		candidate frequency and its amplitude.
 *
 * Description:	Goertzel evaluated only at the frequencies we could
 *		possibly care about, which is far cheaper than a
 *		full FFT at this window size and gives exact bin
 *		centres on the tone table.
 *
 *----------------------------------------------------------------*/

func dominantTone(window []int16, rate float64, candidates []float64) (float64, float64) {
	var bestFreq, bestAmp float64

	for _, f := range candidates {
		var amp = goertzelAmplitude(window, rate, f)
		if amp > bestAmp {
			bestAmp = amp
			bestFreq = f
		}
	}

	return bestFreq, bestAmp
}

// goertzelAmplitude returns the normalised (0..1) amplitude of one
// frequency component in the window.
func goertzelAmplitude(window []int16, rate float64, freq float64) float64 {
	var w = 2.0 * math.Pi * freq / rate
	var coeff = 2.0 * math.Cos(w)

	var s1, s2 float64

	for _, v := range window {
		var s0 = float64(v) + coeff*s1 - s2
		s2 = s1
		s1 = s0
	}

	var power = s1*s1 + s2*s2 - coeff*s1*s2
	if power < 0 {
		power = 0
	}

	return 2.0 * math.Sqrt(power) / float64(len(window)) / 32768.0
}

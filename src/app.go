package yapper

/*------------------------------------------------------------------
 *
 * Purpose:   	Wire the pieces into a running chat station, and
 *		the interactive terminal front end.
 *
 * Description:	Data flow:
 *
 *		outgoing text -> framing (assigns id) -> modulator
 *		-> audio out.
 *
 *		audio in -> per-tick spectral sample -> demodulator
 *		-> on commit -> dedup -> message queue -> display /
 *		transcript, and into the relay queue which
 *		eventually re-invokes the modulator.
 *
 *		One station = one App.  Several Apps can coexist in
 *		one process (the tests do this to simulate a room
 *		full of devices).
 *
 *---------------------------------------------------------------*/

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
)

type App struct {
	cfg  *Config
	mode *Mode /* band used for our own transmissions */

	dedupe *Deduper
	ch     *Channel
	demod  *Demodulator
	tx     *Transmitter
	relay  *RelayQueue
	queue  *MessageQueue
	stats  *Stats

	transcript *Transcript /* may be nil */

	/* Display layer hooks.  Both optional, both called from the
	   app loop, never from the decode tick. */

	DisplayFunc func(Message)
	PartialFunc func(string)

	historyMu sync.Mutex
	history   []Message
}

func NewApp(cfg *Config, modeName string, out AudioOutput) (*App, error) {
	var mode = modeByName(cfg.Modes, modeName)
	if mode == nil {
		return nil, fmt.Errorf("unknown mode %q", modeName)
	}

	var a = &App{
		cfg:    cfg,
		mode:   mode,
		dedupe: NewDeduper(),
		ch:     NewChannel(),
		queue:  NewMessageQueue(),
		stats:  NewStats(),
	}

	a.tx = NewTransmitter(cfg, out, a.ch)
	a.tx.AttachStats(a.stats)

	a.relay = NewRelayQueue(cfg, func(frame string) (bool, error) {
		return a.tx.TrySend(frame, a.mode)
	})
	a.relay.AttachStats(a.stats)

	a.demod = NewDemodulator(cfg, a.dedupe)
	a.demod.Queue = a.queue
	a.demod.Relay = a.relay
	a.demod.Ch = a.ch
	a.demod.Stats = a.stats
	a.demod.PartialFunc = func(partial string) {
		if a.PartialFunc != nil {
			a.PartialFunc(partial)
		}
	}

	a.tx.AttachDemodulator(a.demod)

	return a, nil
}

func (a *App) SetTranscript(t *Transcript) {
	a.transcript = t
}

/*------------------------------------------------------------------
 *
 * Name:	Send
 *
 * Purpose:	Compose and transmit one message.
 *
 * Description:	Untransmittable characters are stripped up front.
 *		Our own id goes into the dedup set immediately so
 *		the message coming back via somebody's relay is
 *		recognised and dropped.
 *
 *----------------------------------------------------------------*/

func (a *App) Send(text string) (Message, error) {
	var clean = payloadClean(text)
	if strings.TrimSpace(clean) == "" {
		return Message{}, fmt.Errorf("nothing transmittable in message")
	}

	var id = newMessageID()
	a.dedupe.Remember(id)

	if err := a.tx.Send(frameBuild(id, clean), a.mode); err != nil {
		return Message{}, err
	}

	var m = Message{
		ID:        id,
		Text:      clean,
		Direction: DirOutbound,
		Timestamp: time.Now(),
	}

	a.record(m)

	return m, nil
}

// RelayNow manually triggers a queued relay, skipping its wait.
func (a *App) RelayNow(id string) error {
	return a.relay.RelayNow(id)
}

func (a *App) RelayEntries() []RelayEntry {
	return a.relay.Entries()
}

func (a *App) ClearRelayQueue() {
	a.relay.Clear()
}

func (a *App) Stats() *Stats {
	return a.stats
}

// History returns a copy of all messages so far, oldest first.
func (a *App) History() []Message {
	a.historyMu.Lock()
	defer a.historyMu.Unlock()

	var out = make([]Message, len(a.history))
	copy(out, a.history)

	return out
}

func (a *App) record(m Message) {
	a.historyMu.Lock()
	a.history = append(a.history, m)
	a.historyMu.Unlock()

	a.transcript.Record(m, a.mode.Name)
}

// Run starts the relay scheduler, the beacon, the message consumer,
// and the receive loop, and blocks until the context is cancelled.
func (a *App) Run(ctx context.Context, in AudioInput) error {
	go a.relay.Run(ctx)

	var beacon = NewBeacon(a.cfg.BeaconText, a.cfg.BeaconEvery, func(text string) error {
		var _, err = a.Send(text)

		return err
	})
	go beacon.Run(ctx)

	go a.consumeMessages(ctx)
	go a.logStats(ctx)

	var receiver = NewReceiver(a.demod)

	return receiver.Run(ctx, in)
}

func (a *App) logStats(ctx context.Context) {
	var ticker = time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			log.Debug("channel", "stats", a.stats.String())
		}
	}
}

func (a *App) consumeMessages(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-a.queue.Messages():
			if !ok {
				return
			}

			a.record(m)

			if a.DisplayFunc != nil {
				a.DisplayFunc(m)
			}
		}
	}
}

/*------------------------------------------------------------------
 *
 * Name:	YapperMain
 *
 * Purpose:	The interactive chat station.
 *
 * Description:	Reads lines from stdin and transmits them.  A few
 *		slash commands poke at the relay queue:
 *
 *		  /queue	list relay entries
 *		  /relay ID	relay a pending entry now
 *		  /clear	purge the relay queue
 *		  /stats	channel counters
 *		  /quit		exit
 *
 *----------------------------------------------------------------*/

func YapperMain() {
	var configPath = pflag.StringP("config", "c", "", "Configuration file.  Default is to search the usual places.")
	var modeName = pflag.StringP("mode", "m", "audible", "Transmit mode (frequency band), e.g. audible or stealth.")
	var transcriptFile = pflag.StringP("transcript-file", "L", "", "Write the chat transcript to this file.")
	var transcriptDir = pflag.StringP("transcript-dir", "l", "", "Write daily transcript files in this directory.")
	var beaconText = pflag.StringP("beacon", "b", "", "Beacon text to transmit periodically.")
	var debug = pflag.BoolP("debug", "d", false, "Debug output.")
	var showVersion = pflag.Bool("version", false, "Print version and exit.")

	pflag.Parse()

	if *showVersion {
		printVersion(*debug)

		return
	}

	if *debug {
		log.SetLevel(log.DebugLevel)
	}

	var cfg, cfgErr = ConfigLoad(*configPath)
	if cfgErr != nil {
		log.Fatal("configuration", "err", cfgErr)
	}

	if *beaconText != "" {
		cfg.BeaconText = *beaconText
	}

	if *transcriptFile != "" && *transcriptDir != "" {
		log.Fatal("use --transcript-file or --transcript-dir but not both")
	}

	var app, appErr = NewApp(cfg, *modeName, NewPortAudioOutput(cfg))
	if appErr != nil {
		log.Fatal("startup", "err", appErr)
	}

	if *transcriptFile != "" || *transcriptDir != "" {
		var path, daily = *transcriptFile, false
		if *transcriptDir != "" {
			path, daily = *transcriptDir, true
		}

		var t, tErr = TranscriptOpen(path, daily, cfg.TimestampFormat)
		if tErr != nil {
			log.Fatal("transcript", "err", tErr)
		}
		defer t.Close()

		app.SetTranscript(t)
	}

	app.DisplayFunc = func(m Message) {
		fmt.Printf("<%s> %s\n", m.ID, m.Text)
	}

	var ctx, cancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var in = NewPortAudioInput(cfg)
	defer in.Close()

	go func() {
		if err := app.Run(ctx, in); err != nil {
			log.Error("receive loop", "err", err)
			cancel()
		}
	}()

	log.Info("listening", "mode", *modeName, "sample_rate", cfg.SampleRate)

	var scanner = bufio.NewScanner(os.Stdin)

	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}

		var line = strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			continue

		case line == "/quit":
			return

		case line == "/stats":
			fmt.Println(app.Stats())

		case line == "/clear":
			app.ClearRelayQueue()
			fmt.Println("relay queue cleared")

		case line == "/queue":
			for _, e := range app.RelayEntries() {
				fmt.Printf("%s  %-8s  %q\n", e.ID, e.Status, e.Text)
			}

		case strings.HasPrefix(line, "/relay "):
			if err := app.RelayNow(strings.TrimSpace(strings.TrimPrefix(line, "/relay "))); err != nil {
				fmt.Println(err)
			}

		default:
			var m, err = app.Send(line)
			if err != nil {
				log.Error("send failed", "err", err)

				continue
			}

			fmt.Printf("[%s] sent\n", m.ID)
		}
	}
}

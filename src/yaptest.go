package yapper

/*------------------------------------------------------------------
 *
 * Purpose:   	Test fixture for the demodulator.
 *
 * Description:	Replays a capture file through the receive state
 *		machine under controlled and reproducible conditions
 *		and prints every committed message.  Pairs with
 *		yapgen for a full offline round trip:
 *
 *		    yapgen -o hi.cap "HI"
 *		    yaptest hi.cap
 *
 *		The exit code can be made to depend on how many
 *		messages decoded, for use in scripts.
 *
 *----------------------------------------------------------------*/

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
)

func YaptestMain() {
	var errorIfLessThan = pflag.IntP("error-if-less-than", "L", -1, "Error if less than this number of messages decoded.")
	var debug = pflag.BoolP("debug", "d", false, "Debug output.")
	var configPath = pflag.StringP("config", "c", "", "Configuration file.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: yaptest [options] capture-file\n")
		pflag.PrintDefaults()
	}

	pflag.Parse()

	if pflag.NArg() != 1 {
		pflag.Usage()
		os.Exit(1)
	}

	if *debug {
		log.SetLevel(log.DebugLevel)
	}

	var cfg, cfgErr = ConfigLoad(*configPath)
	if cfgErr != nil {
		log.Fatal("configuration", "err", cfgErr)
	}

	var f, openErr = os.Open(pflag.Arg(0))
	if openErr != nil {
		log.Fatal("opening capture", "err", openErr)
	}
	defer f.Close()

	var samples, readErr = captureRead(f, time.Unix(0, 0))
	if readErr != nil {
		log.Fatal("reading capture", "err", readErr)
	}

	var queue = NewMessageQueue()
	var demod = NewDemodulator(cfg, NewDeduper())
	demod.Queue = queue

	for _, s := range samples {
		demod.ProcessSample(s)
	}

	// Whatever is still buffered at end of capture commits as if
	// the signal had gone silent.
	if len(samples) > 0 {
		demod.ProcessSample(Sample{
			When: samples[len(samples)-1].When.Add(cfg.NoProgressTimeout + cfg.TickInterval),
		})
	}

	queue.Close()

	var decoded = 0

	for m := range queue.Messages() {
		decoded++

		fmt.Printf("%s  %q\n", m.ID, m.Text)
	}

	log.Info("replay finished", "ticks", len(samples), "messages", decoded)

	if *errorIfLessThan >= 0 && decoded < *errorIfLessThan {
		log.Error("fewer messages than expected", "decoded", decoded, "expected", *errorIfLessThan)
		os.Exit(1)
	}
}

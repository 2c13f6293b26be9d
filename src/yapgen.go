package yapper

/*------------------------------------------------------------------
 *
 * Purpose:   	Generate sample captures for testing the decoder.
 *
 * Description:	Offline transmit side: takes text on the command
 *		line, frames and modulates it, and writes the
 *		quantised per-tick samples to a capture file that
 *		yaptest (or anything else) can replay through the
 *		demodulator.  No sound card involved.
 *
 *----------------------------------------------------------------*/

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/pflag"
)

func YapgenMain() {
	var output = pflag.StringP("output", "o", "", "Capture file to write.  Required.")
	var modeName = pflag.StringP("mode", "m", "audible", "Transmit mode (frequency band).")
	var id = pflag.StringP("id", "i", "", "Frame id.  Default is freshly generated.")
	var count = pflag.IntP("count", "n", 1, "Number of copies to generate, each with its own id.")
	var bare = pflag.Bool("bare", false, "Transmit the text with no id framing (legacy station).")
	var configPath = pflag.StringP("config", "c", "", "Configuration file.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: yapgen [options] text to transmit...\n")
		pflag.PrintDefaults()
	}

	pflag.Parse()

	if *output == "" || pflag.NArg() == 0 {
		pflag.Usage()
		os.Exit(1)
	}

	var cfg, cfgErr = ConfigLoad(*configPath)
	if cfgErr != nil {
		log.Fatal("configuration", "err", cfgErr)
	}

	var mode = modeByName(cfg.Modes, *modeName)
	if mode == nil {
		log.Fatal("unknown mode", "mode", *modeName)
	}

	var text = payloadClean(strings.Join(pflag.Args(), " "))
	if text == "" {
		log.Fatal("nothing transmittable in text")
	}

	var f, openErr = os.Create(*output)
	if openErr != nil {
		log.Fatal("creating capture", "err", openErr)
	}
	defer f.Close()

	var base = time.Unix(0, 0)
	var at = base
	var samples []Sample

	for i := 0; i < *count; i++ {
		var frame = text
		if !*bare {
			var frameID = *id
			if frameID == "" || i > 0 {
				frameID = newMessageID()
			}

			frame = frameBuild(frameID, text)
		}

		var burst = quantizeFrame(frame, mode, cfg, at)
		samples = append(samples, burst...)
		at = burst[len(burst)-1].When.Add(cfg.TickInterval)
	}

	if err := captureWrite(f, samples, base); err != nil {
		log.Fatal("writing capture", "err", err)
	}

	log.Info("capture written", "file", *output, "ticks", len(samples), "mode", mode.Name)
}

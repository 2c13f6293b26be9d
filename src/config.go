package yapper

/*------------------------------------------------------------------
 *
 * Purpose:   	Runtime configuration.
 *
 * Description:	Everything tunable lives here: tone timing, decoder
 *		thresholds, relay delays, audio parameters.  Values
 *		come from a YAML file when one is found, otherwise
 *		compiled-in defaults are used.
 *
 *		The decoder thresholds in particular are the product
 *		of a lot of fiddling against real loudspeakers in
 *		real rooms.  Treat them as starting points, not
 *		gospel.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {

	/* Audio device. */

	SampleRate   int           `yaml:"sample_rate"`   /* Hz */
	TickInterval time.Duration `yaml:"tick_interval"` /* spectral analysis period */

	/* Tone timing, shared by all modes. */

	ToneDuration time.Duration `yaml:"tone_duration"`
	GapDuration  time.Duration `yaml:"gap_duration"`
	HeadPadding  time.Duration `yaml:"head_padding"` /* lead-in silence before first marker */
	TailPadding  time.Duration `yaml:"tail_padding"`
	ReleaseGuard time.Duration `yaml:"release_guard"` /* linear amplitude ramp-down at tone end */
	Amplitude    float64       `yaml:"amplitude"`     /* 0 .. 1 */

	/* Decoder. */

	AmpThreshold      float64       `yaml:"amp_threshold"`    /* noise gate, 0 .. 1 */
	MarkerTolerance   float64       `yaml:"marker_tolerance"` /* Hz, +- window for marker match */
	DebounceThreshold int           `yaml:"debounce_threshold"`
	SilenceTimeout    time.Duration `yaml:"silence_timeout"`
	NoProgressTimeout time.Duration `yaml:"no_progress_timeout"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"`

	/* Relay scheduler. */

	RelayMinDelay time.Duration `yaml:"relay_min_delay"`
	RelayMaxDelay time.Duration `yaml:"relay_max_delay"`
	SchedulerTick time.Duration `yaml:"scheduler_tick"`
	SettleGuard   time.Duration `yaml:"settle_guard"` /* hold-off after our own transmission */

	/* Identification beacon.  Empty text disables it. */

	BeaconText  string        `yaml:"beacon_text"`
	BeaconEvery time.Duration `yaml:"beacon_every"`

	/* Transcript timestamp column, strftime format. */

	TimestampFormat string `yaml:"timestamp_format"`

	/* Frequency bands.  Omit to get the built-in audible + stealth pair. */

	Modes []*Mode `yaml:"modes"`
}

/*
 * Observed workable values.  Silence timeout anywhere in 1000-2000 ms
 * and debounce 2-3 both behave; what matters is that
 * silence < no_progress so the two commit paths stay distinct.
 *
 * The 50 ms tick is load-bearing: the analysis window is one tick, so
 * frequency resolution is 1/tick = 20 Hz, which the narrowest mode
 * step (audible, 20 Hz) sits exactly on.  A shorter tick smears
 * adjacent character candidates into one bin.
 */

func DefaultConfig() *Config {
	return &Config{
		SampleRate:   44100,
		TickInterval: 50 * time.Millisecond,

		ToneDuration: 150 * time.Millisecond,
		GapDuration:  50 * time.Millisecond,
		HeadPadding:  200 * time.Millisecond,
		TailPadding:  150 * time.Millisecond,
		ReleaseGuard: 5 * time.Millisecond,
		Amplitude:    0.8,

		AmpThreshold:      0.15,
		MarkerTolerance:   75,
		DebounceThreshold: 2,
		SilenceTimeout:    1500 * time.Millisecond,
		NoProgressTimeout: 3 * time.Second,
		IdleTimeout:       3 * time.Second,

		RelayMinDelay: 10 * time.Second,
		RelayMaxDelay: 20 * time.Second,
		SchedulerTick: 1 * time.Second,
		SettleGuard:   250 * time.Millisecond,

		BeaconEvery: 10 * time.Minute,

		TimestampFormat: "%Y-%m-%dT%H:%M:%S",

		Modes: defaultModes(),
	}
}

/* Locations tried, in order, when no explicit path is given. */

var configSearchPath = []string{
	"yapper.yaml",
	".yapper.yaml",
	"/etc/yapper/yapper.yaml",
	"/usr/local/share/yapper/yapper.yaml",
}

/*------------------------------------------------------------------
 *
 * Name:	ConfigLoad
 *
 * Purpose:	Load configuration from a YAML file.
 *
 * Inputs:	path	- Explicit file name, or "" to try the
 *			  usual locations and fall back to defaults.
 *
 * Returns:	Validated configuration or an error.  A missing
 *		file is only an error when the path was explicit.
 *
 *----------------------------------------------------------------*/

func ConfigLoad(path string) (*Config, error) {
	var cfg = DefaultConfig()

	var candidates = []string{path}
	if path == "" {
		candidates = configSearchPath
	}

	var raw []byte
	var found string

	for _, c := range candidates {
		var data, err = os.ReadFile(c)
		if err == nil {
			raw = data
			found = c

			break
		}
	}

	if found == "" {
		if path != "" {
			return nil, fmt.Errorf("can't read config file %s", path)
		}

		// No file anywhere: defaults are a complete configuration.
		return cfg, nil
	}

	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", found, err)
	}

	if len(cfg.Modes) == 0 {
		cfg.Modes = defaultModes()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", found, err)
	}

	return cfg, nil
}

func (cfg *Config) Validate() error {
	if cfg.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be positive")
	}

	if cfg.TickInterval <= 0 || cfg.ToneDuration <= 0 || cfg.GapDuration < 0 {
		return fmt.Errorf("tone timing values must be positive")
	}

	if cfg.ReleaseGuard >= cfg.ToneDuration {
		return fmt.Errorf("release_guard must be shorter than tone_duration")
	}

	if cfg.Amplitude <= 0 || cfg.Amplitude > 1 {
		return fmt.Errorf("amplitude must be in (0,1]")
	}

	if cfg.AmpThreshold < 0 || cfg.AmpThreshold >= 1 {
		return fmt.Errorf("amp_threshold must be in [0,1)")
	}

	if cfg.DebounceThreshold < 1 {
		return fmt.Errorf("debounce_threshold must be at least 1")
	}

	// A tone must span enough analysis ticks to survive debouncing,
	// otherwise nothing will ever decode.
	if cfg.ToneDuration < time.Duration(cfg.DebounceThreshold)*cfg.TickInterval {
		return fmt.Errorf("tone_duration %v too short for debounce_threshold %d at tick_interval %v",
			cfg.ToneDuration, cfg.DebounceThreshold, cfg.TickInterval)
	}

	if cfg.SilenceTimeout <= 0 || cfg.NoProgressTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}

	if cfg.SilenceTimeout >= cfg.NoProgressTimeout {
		return fmt.Errorf("silence_timeout must be shorter than no_progress_timeout")
	}

	if cfg.RelayMinDelay < 0 || cfg.RelayMaxDelay < cfg.RelayMinDelay {
		return fmt.Errorf("relay delay range is inverted")
	}

	// The analysis window is one tick, so candidate tones closer
	// than 1/tick Hz land in the same spectral bin and cannot be
	// told apart.
	var binWidth = 1.0 / cfg.TickInterval.Seconds()

	for _, m := range cfg.Modes {
		if m.StepFreq < binWidth {
			return fmt.Errorf("mode %s: step_freq %.0f Hz below the %.0f Hz analysis bandwidth of tick_interval %v",
				m.Name, m.StepFreq, binWidth, cfg.TickInterval)
		}
	}

	return validateModes(cfg.Modes, cfg.MarkerTolerance)
}

// charPeriod is the full air time of one character: marker, gap,
// data tone, gap.
func (cfg *Config) charPeriod() time.Duration {
	return 2 * (cfg.ToneDuration + cfg.GapDuration)
}

/*
 * YAML plumbing.  The yaml package won't parse "1500ms" into a
 * time.Duration on its own, and raw nanosecond integers in a config
 * file help nobody.  yamlDuration accepts Go duration strings and,
 * for the people who liked the originals, bare integers meaning
 * milliseconds.
 */

type yamlDuration time.Duration

func (d *yamlDuration) UnmarshalYAML(node *yaml.Node) error {
	var ms int64
	if err := node.Decode(&ms); err == nil {
		*d = yamlDuration(time.Duration(ms) * time.Millisecond)

		return nil
	}

	var s string
	if err := node.Decode(&s); err == nil {
		var v, parseErr = time.ParseDuration(s)
		if parseErr != nil {
			return fmt.Errorf("bad duration %q: %w", s, parseErr)
		}

		*d = yamlDuration(v)

		return nil
	}

	return fmt.Errorf("can't parse duration from %q", node.Value)
}

// UnmarshalYAML overlays file values onto whatever is already in cfg
// (the defaults), so a config file only needs the values it changes.
func (cfg *Config) UnmarshalYAML(node *yaml.Node) error {
	type rawConfig struct {
		SampleRate   *int          `yaml:"sample_rate"`
		TickInterval *yamlDuration `yaml:"tick_interval"`

		ToneDuration *yamlDuration `yaml:"tone_duration"`
		GapDuration  *yamlDuration `yaml:"gap_duration"`
		HeadPadding  *yamlDuration `yaml:"head_padding"`
		TailPadding  *yamlDuration `yaml:"tail_padding"`
		ReleaseGuard *yamlDuration `yaml:"release_guard"`
		Amplitude    *float64      `yaml:"amplitude"`

		AmpThreshold      *float64      `yaml:"amp_threshold"`
		MarkerTolerance   *float64      `yaml:"marker_tolerance"`
		DebounceThreshold *int          `yaml:"debounce_threshold"`
		SilenceTimeout    *yamlDuration `yaml:"silence_timeout"`
		NoProgressTimeout *yamlDuration `yaml:"no_progress_timeout"`
		IdleTimeout       *yamlDuration `yaml:"idle_timeout"`

		RelayMinDelay *yamlDuration `yaml:"relay_min_delay"`
		RelayMaxDelay *yamlDuration `yaml:"relay_max_delay"`
		SchedulerTick *yamlDuration `yaml:"scheduler_tick"`
		SettleGuard   *yamlDuration `yaml:"settle_guard"`

		BeaconText  *string       `yaml:"beacon_text"`
		BeaconEvery *yamlDuration `yaml:"beacon_every"`

		TimestampFormat *string `yaml:"timestamp_format"`

		Modes []*Mode `yaml:"modes"`
	}

	var raw rawConfig
	if err := node.Decode(&raw); err != nil {
		return err
	}

	var setInt = func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	var setFloat = func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	var setString = func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	var setDuration = func(dst *time.Duration, src *yamlDuration) {
		if src != nil {
			*dst = time.Duration(*src)
		}
	}

	setInt(&cfg.SampleRate, raw.SampleRate)
	setDuration(&cfg.TickInterval, raw.TickInterval)

	setDuration(&cfg.ToneDuration, raw.ToneDuration)
	setDuration(&cfg.GapDuration, raw.GapDuration)
	setDuration(&cfg.HeadPadding, raw.HeadPadding)
	setDuration(&cfg.TailPadding, raw.TailPadding)
	setDuration(&cfg.ReleaseGuard, raw.ReleaseGuard)
	setFloat(&cfg.Amplitude, raw.Amplitude)

	setFloat(&cfg.AmpThreshold, raw.AmpThreshold)
	setFloat(&cfg.MarkerTolerance, raw.MarkerTolerance)
	setInt(&cfg.DebounceThreshold, raw.DebounceThreshold)
	setDuration(&cfg.SilenceTimeout, raw.SilenceTimeout)
	setDuration(&cfg.NoProgressTimeout, raw.NoProgressTimeout)
	setDuration(&cfg.IdleTimeout, raw.IdleTimeout)

	setDuration(&cfg.RelayMinDelay, raw.RelayMinDelay)
	setDuration(&cfg.RelayMaxDelay, raw.RelayMaxDelay)
	setDuration(&cfg.SchedulerTick, raw.SchedulerTick)
	setDuration(&cfg.SettleGuard, raw.SettleGuard)

	setString(&cfg.BeaconText, raw.BeaconText)
	setDuration(&cfg.BeaconEvery, raw.BeaconEvery)

	setString(&cfg.TimestampFormat, raw.TimestampFormat)

	if len(raw.Modes) > 0 {
		cfg.Modes = raw.Modes
	}

	return nil
}

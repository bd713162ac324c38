package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/hexaflex/chippy/arch"
	"github.com/hexaflex/chippy/devices/cpu"
	"github.com/hexaflex/chippy/devices/speaker"
)

// errUsage is returned by parseArgs when the arguments are unusable.
// The usage text has already been written at that point.
var errUsage = errors.New("invalid arguments")

// Config defines program configuration.
type Config struct {
	Program     string       // Path to the program file to load.
	Target      arch.Target  // Variant to emulate.
	Clock       int          // Instructions per frame; 0 selects the target default.
	SampleRate  int          // Audio sample rate in Hz.
	Channels    int          // Audio channel count.
	Sync        speaker.Mode // What paces emulation.
	ScaleFactor int          // Amount by which each pixel is scaled.
	Fullscreen  bool         // Run in fullscreen?
	Mute        bool         // Disable audio output?
	Headless    bool         // Run without window and audio.
	Frames      int          // Number of frames to run in headless mode.
	Debug       bool         // Enable debug logging.
	Quiet       bool         // Only log errors.
	Trace       bool         // Print instruction trace data.
	Version     bool         // Print version information and exit.
}

// CPUConfig returns the core configuration.
func (c *Config) CPUConfig() cpu.Config {
	sampleRate := c.SampleRate
	if c.Mute || c.Headless {
		sampleRate = 0
	}

	return cpu.Config{
		Target:     c.Target,
		Clock:      c.Clock,
		SampleRate: sampleRate,
		Channels:   c.Channels,
	}
}

// parseArgs parses command line arguments as applicable.
// Usage and error messages are written to out.
func parseArgs(args []string, out io.Writer) (*Config, error) {
	c := Config{
		Target:      arch.Extended,
		SampleRate:  cpu.DefaultSampleRate,
		Channels:    cpu.DefaultChannels,
		Sync:        speaker.AudioSync,
		ScaleFactor: 6,
		Frames:      60,
	}

	flags := flag.NewFlagSet(AppName, flag.ContinueOnError)
	flags.SetOutput(out)
	flags.Usage = func() {
		fmt.Fprintf(out, "%s [options] <program file>\n", AppName)
		flags.PrintDefaults()
	}

	target := flags.String("target", c.Target.String(), "Variant to emulate: chip8, schip-legacy, schip-modern or xo-chip.")
	sync := flags.String("sync", "auto", "What paces emulation: audio, vsync or auto.")
	flags.IntVar(&c.Clock, "clock", c.Clock, "Instructions per frame. 0 selects the variant default.")
	flags.IntVar(&c.SampleRate, "sample-rate", c.SampleRate, "Audio sample rate in Hz.")
	flags.IntVar(&c.Channels, "channels", c.Channels, "Audio channel count.")
	flags.IntVar(&c.ScaleFactor, "scale", c.ScaleFactor, "Pixel scale factor for the display.")
	flags.BoolVar(&c.Fullscreen, "fullscreen", c.Fullscreen, "Run the display in fullscreen or windowed mode.")
	flags.BoolVar(&c.Mute, "mute", c.Mute, "Disable audio output.")
	flags.BoolVar(&c.Headless, "headless", c.Headless, "Run without a window and print the display when done.")
	flags.IntVar(&c.Frames, "frames", c.Frames, "Number of frames to run in headless mode.")
	flags.BoolVar(&c.Debug, "debug", c.Debug, "Enable debug logging.")
	flags.BoolVar(&c.Quiet, "quiet", c.Quiet, "Only log errors.")
	flags.BoolVar(&c.Trace, "trace", c.Trace, "Print every executed instruction.")
	flags.BoolVar(&c.Version, "version", c.Version, "Display version information.")

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, errUsage
		}
		return nil, errors.Wrap(errUsage, err.Error())
	}

	if c.Version {
		return &c, nil
	}

	var err error
	if c.Target, err = arch.ParseTarget(*target); err != nil {
		return nil, err
	}

	switch {
	case c.Clock < 0:
		return nil, errors.Wrapf(cpu.ErrInvalidClock, "%d", c.Clock)
	case c.Clock == 0:
		c.Clock = c.Target.DefaultClock()
	}

	switch *sync {
	case "audio":
		c.Sync = speaker.AudioSync
	case "vsync":
		c.Sync = speaker.VSync
	case "auto":
		// At most one sample is produced per instruction, so audio can
		// only pace clocks which run at least as fast as the sample rate.
		c.Sync = speaker.VSync
		if c.Clock*cpu.FrameRate >= c.SampleRate {
			c.Sync = speaker.AudioSync
		}
	default:
		return nil, errors.Errorf("unknown sync mode %q", *sync)
	}

	if c.SampleRate < 0 || c.Channels < 1 {
		return nil, errors.Errorf("invalid audio format: %d Hz, %d channels", c.SampleRate, c.Channels)
	}

	if c.ScaleFactor < 1 {
		c.ScaleFactor = 1
	}

	if c.SampleRate == 0 {
		c.Mute = true
	}

	// Without audio output nothing pulls samples.
	if c.Mute || c.Headless {
		c.Sync = speaker.VSync
	}

	if flags.NArg() == 0 {
		flags.Usage()
		return nil, errUsage
	}

	c.Program = flags.Arg(0)
	return &c, nil
}

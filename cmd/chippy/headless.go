package main

import (
	"context"
	"fmt"
	"io"

	"github.com/retroenv/retrogolib/log"

	"github.com/hexaflex/chippy/devices/cpu"
)

// runHeadless runs the configured number of frames without window or
// audio, then writes the buffered display planes to out.
func runHeadless(ctx context.Context, logger *log.Logger, config *Config, program []byte, out io.Writer) error {
	cfg := config.CPUConfig()
	if config.Trace {
		cfg.Trace = newTracer(out)
	}

	core, err := cpu.New(cfg, program)
	if err != nil {
		return err
	}

	logger.Debug("running headless",
		log.String("target", config.Target.String()),
		log.Int("clock", config.Clock),
		log.Int("frames", config.Frames))

	for n := 0; n < config.Frames && ctx.Err() == nil; n++ {
		if err := core.RunFrame(); err != nil {
			if err == io.EOF {
				logger.Info("program exited", log.Int("frame", n))
				break
			}
			return err
		}
	}

	_, err = fmt.Fprint(out, core.Frame().Format())
	return err
}

// Package main implements the chippy CHIP-8 interpreter.
package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/pkg/errors"
	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/log"

	"github.com/hexaflex/chippy/devices/cartridge"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	config, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		createLogger(false, false).Fatal(err.Error())
	}

	if config.Version {
		fmt.Println(Version())
		return
	}

	logger := createLogger(config.Debug, config.Quiet)
	ctx := app.Context()

	if err := run(ctx, logger, config); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("operation cancelled")
			return
		}
		logger.Error("emulation failed", log.Err(err))
		os.Exit(1)
	}
}

// run loads the program and runs it in the configured mode.
func run(ctx context.Context, logger *log.Logger, config *Config) error {
	cart := cartridge.New(config.Program, logger)

	program, err := cart.Load()
	if err != nil {
		return err
	}

	if config.Headless {
		return runHeadless(ctx, logger, config, program, os.Stdout)
	}

	logger.Info(Version())
	return NewApp(config, logger, cart).Run(ctx, program)
}

// createLogger creates a logger with appropriate settings.
func createLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

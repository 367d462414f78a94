// Package main implements the unfairlock conformance driver.
//
// The driver exercises the public unfairlock API end to end, one scenario
// per subcommand, and exits non-zero when a scenario observes behavior the
// lock must not exhibit.
//
// Usage:
//
//	unfairlock count -n 1000          # N guarded increments, prints N
//	unfairlock set -n 20              # N concurrent set inserts
//	unfairlock trylock                # non-blocking acquisition while held
//	unfairlock reenter                # nested acquisition, must abort
//	unfairlock info                   # platform and backend report
//	unfairlock version
//
// Every subcommand accepts -backend auto|native|portable. Flags may also be
// set from the environment with the UNFAIRLOCK_ prefix, e.g.
// UNFAIRLOCK_BACKEND=portable.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kolkov/unfairlock/internal/envknob"
	"github.com/kolkov/unfairlock/unfairlock"
)

const envPrefix = "UNFAIRLOCK"

// app is the state shared by all subcommands.
type app struct {
	logger  *zap.SugaredLogger
	out     io.Writer
	verbose bool
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	a := &app{out: os.Stdout}
	root := newRootCommand(a)

	if err := root.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	a.logger = newLogger(a.verbose)
	defer a.logger.Sync()

	a.logger.Debugw("runtime", "version", unfairlock.Version, "defaultBackend", unfairlock.DefaultBackend())
	envknob.LogCurrent(a.logger.Debugf)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.Run(ctx); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		a.logger.Errorw("scenario failed", "error", err)
		return 1
	}
	return 0
}

// newLogger returns a JSON logger on stderr, or a human-readable
// development logger when verbose is set.
func newLogger(verbose bool) *zap.SugaredLogger {
	if verbose {
		return zap.Must(zap.NewDevelopment()).Sugar()
	}
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.RFC3339TimeEncoder
	return zap.Must(zap.Config{
		Level:            zap.NewAtomicLevelAt(zap.InfoLevel),
		Encoding:         "json",
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig:    encoderCfg,
	}.Build()).Sugar()
}

func newRootCommand(a *app) *ffcli.Command {
	rootFS := flag.NewFlagSet("unfairlock", flag.ExitOnError)
	rootFS.BoolVar(&a.verbose, "verbose", false, "human-readable debug logging")

	return &ffcli.Command{
		Name:       "unfairlock",
		ShortUsage: "unfairlock [-verbose] <subcommand> [flags]",
		ShortHelp:  "unfairlock conformance driver",
		FlagSet:    rootFS,
		Options:    []ff.Option{ff.WithEnvVarPrefix(envPrefix)},
		Exec: func(ctx context.Context, args []string) error {
			return flag.ErrHelp
		},
		Subcommands: []*ffcli.Command{
			countCommand(a),
			setCommand(a),
			trylockCommand(a),
			reenterCommand(a),
			infoCommand(a),
			versionCommand(a),
		},
	}
}

// scenarioFlags are the flags common to the lock scenarios.
type scenarioFlags struct {
	n       int
	backend unfairlock.Backend
}

func newScenarioFlags(name string, defaultN int) (*flag.FlagSet, *scenarioFlags) {
	var sf scenarioFlags
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Var(&sf.backend, "backend", "lock backend: auto, native or portable")
	if defaultN > 0 {
		fs.IntVar(&sf.n, "n", defaultN, "number of goroutines")
	}
	return fs, &sf
}

func countCommand(a *app) *ffcli.Command {
	fs, sf := newScenarioFlags("count", 1000)
	return &ffcli.Command{
		Name:       "count",
		ShortUsage: "unfairlock count [-n N] [-backend B]",
		ShortHelp:  "N goroutines each perform one guarded increment",
		FlagSet:    fs,
		Options:    []ff.Option{ff.WithEnvVarPrefix(envPrefix)},
		Exec: func(ctx context.Context, args []string) error {
			return runCount(ctx, a, sf.n, sf.backend)
		},
	}
}

func setCommand(a *app) *ffcli.Command {
	fs, sf := newScenarioFlags("set", 20)
	return &ffcli.Command{
		Name:       "set",
		ShortUsage: "unfairlock set [-n N] [-backend B]",
		ShortHelp:  "N goroutines insert into a shared set",
		FlagSet:    fs,
		Options:    []ff.Option{ff.WithEnvVarPrefix(envPrefix)},
		Exec: func(ctx context.Context, args []string) error {
			return runSet(ctx, a, sf.n, sf.backend)
		},
	}
}

func trylockCommand(a *app) *ffcli.Command {
	fs, sf := newScenarioFlags("trylock", 0)
	return &ffcli.Command{
		Name:       "trylock",
		ShortUsage: "unfairlock trylock [-backend B]",
		ShortHelp:  "non-blocking acquisition while the lock is held",
		FlagSet:    fs,
		Options:    []ff.Option{ff.WithEnvVarPrefix(envPrefix)},
		Exec: func(ctx context.Context, args []string) error {
			return runTrylock(ctx, a, sf.backend)
		},
	}
}

func reenterCommand(a *app) *ffcli.Command {
	fs, sf := newScenarioFlags("reenter", 0)
	return &ffcli.Command{
		Name:       "reenter",
		ShortUsage: "unfairlock reenter [-backend B]",
		ShortHelp:  "nested acquisition by the holder; terminates the process",
		FlagSet:    fs,
		Options:    []ff.Option{ff.WithEnvVarPrefix(envPrefix)},
		Exec: func(ctx context.Context, args []string) error {
			return runReenter(a, sf.backend)
		},
	}
}

func infoCommand(a *app) *ffcli.Command {
	return &ffcli.Command{
		Name:       "info",
		ShortUsage: "unfairlock info",
		ShortHelp:  "report the platform probe and default backend",
		Exec: func(ctx context.Context, args []string) error {
			printInfo(a.out, unfairlock.GetInfo())
			return nil
		},
	}
}

func versionCommand(a *app) *ffcli.Command {
	return &ffcli.Command{
		Name:       "version",
		ShortUsage: "unfairlock version",
		ShortHelp:  "print the version",
		Exec: func(ctx context.Context, args []string) error {
			fmt.Fprintf(a.out, "unfairlock version %s\n", unfairlock.Version)
			return nil
		},
	}
}

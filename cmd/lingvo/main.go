// Package main provides the lingvo CLI.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pkg/errors"

	"github.com/apoorvakumar2306/lingvo/internal/cli"
	"github.com/apoorvakumar2306/lingvo/internal/nn"
)

const version = "v0.1.0-dev"

func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run parses args and executes one command, writing results and logs to
// outW.
func run(outW io.Writer, args []string) (err error) {
	opts, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}
	if opts.Command == cli.CommandVersion {
		fmt.Fprintf(outW, "lingvo %s\n", version)
		return nil
	}

	logger := newLogger(opts.LogLevel, opts.LogFormat, outW)
	nn.SetLogger(logger)
	defer nn.SetLogger(nil)

	// Tensor kernels panic on misuse; report that as a failed command.
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("%s panicked: %v", opts.Command, r)
		}
	}()

	switch opts.Command {
	case cli.CommandInfer:
		return infer(outW, opts)
	case cli.CommandRun:
		return execute(outW, opts, logger)
	}
	return &cli.ExitError{Code: 2, Message: "unknown command " + opts.Command}
}

func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if formatStr == "json" {
		return slog.New(slog.NewJSONHandler(outW, opts))
	}
	return slog.New(slog.NewTextHandler(outW, opts))
}

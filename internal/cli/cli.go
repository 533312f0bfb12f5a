package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/apoorvakumar2306/lingvo/internal/config"
	"github.com/apoorvakumar2306/lingvo/internal/tensor"
)

// ExitError is an error that carries a process exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Commands accepted as the first argument.
const (
	CommandVersion = "version"
	CommandInfer   = "infer"
	CommandRun     = "run"
)

// Options is the validated result of Parse.
type Options struct {
	Command   string
	Paths     []string
	Module    string
	Vars      map[string]cty.Value
	Inputs    []tensor.Shape
	Seed      int64
	Workers   int
	LogLevel  string
	LogFormat string
}

const usage = `
lingvo - declarative module composition.

Usage:
  lingvo version
  lingvo infer [options] MODEL_PATH...
  lingvo run   [options] MODEL_PATH...

Commands:
  version  Print the version.
  infer    Report output shapes, cost and variables of a model.
  run      Initialize parameters, run the model on random inputs and check
           the result against shape inference.

Arguments:
  MODEL_PATH
    Path to an .hcl model file or a directory of them.

Options:
`

// Parse processes command-line arguments. It returns the options, whether
// the program should exit cleanly (help was printed), or an ExitError.
func Parse(args []string, output io.Writer) (*Options, bool, error) {
	if len(args) == 0 || args[0] == "-h" || args[0] == "-help" || args[0] == "--help" || args[0] == "help" {
		fmt.Fprint(output, usage)
		newFlagSet(output, &Options{}).PrintDefaults()
		return nil, true, nil
	}

	opts := &Options{Command: args[0], Vars: map[string]cty.Value{}}
	switch opts.Command {
	case CommandVersion:
		return opts, false, nil
	case CommandInfer, CommandRun:
	default:
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unknown command %q", opts.Command)}
	}

	fs := newFlagSet(output, opts)
	if err := fs.Parse(args[1:]); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	opts.Paths = fs.Args()
	if len(opts.Paths) == 0 {
		return nil, false, &ExitError{Code: 2, Message: opts.Command + ": missing MODEL_PATH"}
	}

	if opts.Workers < 0 {
		return nil, false, &ExitError{Code: 2, Message: "invalid workers: must not be negative"}
	}

	opts.LogFormat = strings.ToLower(opts.LogFormat)
	if opts.LogFormat != "text" && opts.LogFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}
	opts.LogLevel = strings.ToLower(opts.LogLevel)
	switch opts.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	return opts, false, nil
}

func newFlagSet(output io.Writer, opts *Options) *flag.FlagSet {
	fs := flag.NewFlagSet("lingvo", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprint(output, usage)
		fs.PrintDefaults()
	}

	fs.StringVar(&opts.Module, "module", "", "Name of the model to use. Defaults to the first one declared.")
	fs.Int64Var(&opts.Seed, "seed", 1, "Random seed for parameters and inputs (run only).")
	fs.IntVar(&opts.Workers, "workers", 1, "Worker count of batch_parallel modules that set none. 0 uses one per CPU.")
	fs.StringVar(&opts.LogFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	fs.StringVar(&opts.LogLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	fs.Func("var", "Set a model variable, name=value. Repeatable.", func(s string) error {
		name, v, err := config.ParseVar(s)
		if err != nil {
			return err
		}
		opts.Vars[name] = v
		return nil
	})
	fs.Func("input", "Input shape, e.g. 2,8. Repeat once per input; '-' is an absent input.", func(s string) error {
		if s == "-" {
			opts.Inputs = append(opts.Inputs, nil)
			return nil
		}
		shape, err := tensor.ParseShape(s)
		if err != nil {
			return err
		}
		opts.Inputs = append(opts.Inputs, shape)
		return nil
	})
	return fs
}

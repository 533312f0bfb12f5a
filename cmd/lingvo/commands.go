package main

import (
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"

	"github.com/apoorvakumar2306/lingvo/internal/backend/cpu"
	"github.com/apoorvakumar2306/lingvo/internal/builder"
	"github.com/apoorvakumar2306/lingvo/internal/cli"
	"github.com/apoorvakumar2306/lingvo/internal/config"
	"github.com/apoorvakumar2306/lingvo/internal/nn"
	"github.com/apoorvakumar2306/lingvo/internal/tensor"
)

type backend = *cpu.CPUBackend

// load reads the model files and builds the selected model.
func load(opts *cli.Options) (*config.Spec, nn.Module[backend], error) {
	file, err := config.Load(opts.Vars, opts.Paths...)
	if err != nil {
		return nil, nil, err
	}

	spec := file.Modules[0]
	if opts.Module != "" {
		var ok bool
		if spec, ok = file.Lookup(opts.Module); !ok {
			return nil, nil, &cli.ExitError{Code: 2, Message: fmt.Sprintf(
				"no model named %q; available: %s", opts.Module, strings.Join(file.Names(), ", "))}
		}
	}

	reg := builder.NewRegistry[backend]()
	reg.Workers = opts.Workers
	m, err := builder.Build(spec, reg)
	if err != nil {
		return nil, nil, err
	}
	return spec, m, nil
}

func requireInputs(opts *cli.Options) error {
	if len(opts.Inputs) == 0 {
		return &cli.ExitError{Code: 2, Message: opts.Command + ": at least one -input shape is required"}
	}
	return nil
}

func infer(outW io.Writer, opts *cli.Options) error {
	if err := requireInputs(opts); err != nil {
		return err
	}
	spec, m, err := load(opts)
	if err != nil {
		return err
	}
	report, err := nn.Report(m, opts.Inputs...)
	if err != nil {
		return errors.WithMessage(err, "infer")
	}

	fmt.Fprint(outW, spec.Format())
	return writeReport(outW, report)
}

// execute initializes parameters and inputs from the seed, runs the model
// and checks the outputs against shape inference.
func execute(outW io.Writer, opts *cli.Options, logger *slog.Logger) error {
	if err := requireInputs(opts); err != nil {
		return err
	}
	_, m, err := load(opts)
	if err != nil {
		return err
	}

	b := cpu.New()
	rng := rand.New(rand.NewSource(opts.Seed)) //nolint:gosec // reproducible weights, not security sensitive
	theta := nn.InitTheta(m, b, nn.DefaultInitializer[backend](rng))
	inputs := make([]*nn.Tensor[backend], len(opts.Inputs))
	for i, s := range opts.Inputs {
		if s != nil {
			inputs[i] = tensor.Uniform[float32](s, -1, 1, rng, b)
		}
	}
	logger.Info("running model", "module", m.Name(), "variables", theta.Len(), "inputs", len(inputs))

	meta, err := nn.CheckParity(m, theta, inputs...)
	if err != nil {
		return errors.WithMessage(err, "run")
	}

	tw := tabwriter.NewWriter(outW, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "module\t%s\n", m.Name())
	fmt.Fprintf(tw, "cost\t%d\n", meta.Cost)
	for i, s := range meta.OutShapes {
		fmt.Fprintf(tw, "output %d\t%s\n", i, s)
	}
	fmt.Fprintf(tw, "parity\tok\n")
	return tw.Flush()
}

func writeReport(outW io.Writer, r nn.ShapeReport) error {
	tw := tabwriter.NewWriter(outW, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "module\t%s\n", r.Module)
	for i, s := range r.Inputs {
		fmt.Fprintf(tw, "input %d\t%s\n", i, s)
	}
	fmt.Fprintf(tw, "cost\t%d\n", r.Cost)
	for i, s := range r.OutShapes {
		fmt.Fprintf(tw, "output %d\t%s\n", i, s)
	}
	var params int
	for _, v := range r.Variables {
		fmt.Fprintf(tw, "var %s\t%s\n", v.Path, v.Shape)
		params += v.Shape.NumElements()
	}
	fmt.Fprintf(tw, "parameters\t%d\n", params)
	return tw.Flush()
}

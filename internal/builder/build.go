package builder

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/apoorvakumar2306/lingvo/internal/config"
	"github.com/apoorvakumar2306/lingvo/internal/nn"
	"github.com/apoorvakumar2306/lingvo/internal/parallel"
	"github.com/apoorvakumar2306/lingvo/internal/tensor"
)

// kindBuilder builds one kind from its spec and already-built sub-modules.
type kindBuilder[B tensor.Backend] struct {
	attrs []string // accepted attributes
	subs  int      // required sub-module count; -1 is one or more, 0 is none
	build func(r *Registry[B], spec *config.Spec, subs []nn.Module[B]) (nn.Module[B], error)
}

func kinds[B tensor.Backend]() map[string]kindBuilder[B] {
	return map[string]kindBuilder[B]{
		"linear": {attrs: []string{"input_dims", "output_dims"}, build: buildLinear[B]},
		"bias":   {attrs: []string{"dims"}, build: buildBias[B]},
		"fn":     {attrs: []string{"fn"}, build: buildFn[B]},
		"map":    {attrs: []string{"fn"}, build: buildMap[B]},
		"print_shape": {build: func(_ *Registry[B], spec *config.Spec, _ []nn.Module[B]) (nn.Module[B], error) {
			return nn.NewPrintShape[B](spec.Name)
		}},
		"first_n":          {attrs: []string{"n"}, build: buildFirstN[B]},
		"arg_index":        {attrs: []string{"indices"}, build: buildArgIndex[B]},
		"sequential":       {attrs: []string{"repeat"}, subs: -1, build: buildSequential[B]},
		"unary_sequential": {subs: -1, build: buildUnarySequential[B]},
		"repeat":           {attrs: []string{"repeat"}, subs: 1, build: buildRepeat[B]},
		"parallel_repeat":  {attrs: []string{"repeat", "workers"}, subs: 1, build: buildParallelRepeat[B]},
		"soft_cond":        {attrs: []string{"num_experts", "cond_dim"}, subs: 1, build: buildSoftCond[B]},
		"graph":            {attrs: []string{"input_endpoints", "output_endpoints"}, subs: -1, build: buildGraph[B]},
		"parallel":         {attrs: []string{"merge", "dim"}, subs: -1, build: buildParallel[B]},
		"batch_parallel":   {attrs: []string{"workers"}, subs: 1, build: buildBatchParallel[B]},
		"remat":            {subs: 1, build: buildRemat[B]},
		"branch":           {attrs: []string{"fetches"}, subs: 1, build: buildBranch[B]},
	}
}

// Build creates the module tree described by spec.
//
// Unknown kinds are looked up in r as function names, so kind "relu" builds
// the registered relu map. Errors wrap nn.ErrConfig unless a constructor
// reports another class.
func Build[B tensor.Backend](spec *config.Spec, r *Registry[B]) (nn.Module[B], error) {
	return build(spec, r, false)
}

func build[B tensor.Backend](spec *config.Spec, r *Registry[B], inGraph bool) (nn.Module[B], error) {
	if spec.Signature != "" && !inGraph {
		return nil, specErrorf(spec, "signature is only valid inside a graph")
	}

	kb, ok := kinds[B]()[spec.Kind]
	if !ok {
		kb, ok = r.kindFromRegistry(spec.Kind)
	}
	if !ok {
		return nil, specErrorf(spec, "unknown module kind %q", spec.Kind)
	}
	if err := checkAttrs(spec, kb.attrs); err != nil {
		return nil, err
	}
	switch {
	case kb.subs == 0 && len(spec.Subs) > 0:
		return nil, specErrorf(spec, "takes no sub-modules, got %d", len(spec.Subs))
	case kb.subs < 0 && len(spec.Subs) == 0:
		return nil, specErrorf(spec, "needs at least one sub-module")
	case kb.subs > 0 && len(spec.Subs) != kb.subs:
		return nil, specErrorf(spec, "needs exactly %d sub-module(s), got %d", kb.subs, len(spec.Subs))
	}

	subs := make([]nn.Module[B], len(spec.Subs))
	for i, sub := range spec.Subs {
		m, err := build(sub, r, spec.Kind == "graph")
		if err != nil {
			return nil, errors.WithMessage(err, spec.Path())
		}
		subs[i] = m
	}
	return kb.build(r, spec, subs)
}

// kindFromRegistry treats a registered function name as a leaf kind.
func (r *Registry[B]) kindFromRegistry(name string) (kindBuilder[B], bool) {
	if e, ok := r.maps[name]; ok {
		return kindBuilder[B]{build: func(_ *Registry[B], spec *config.Spec, _ []nn.Module[B]) (nn.Module[B], error) {
			return nn.NewMap[B](spec.Name, e.fn, e.meta)
		}}, true
	}
	if e, ok := r.fns[name]; ok {
		return kindBuilder[B]{build: func(_ *Registry[B], spec *config.Spec, _ []nn.Module[B]) (nn.Module[B], error) {
			return nn.NewFn[B](spec.Name, e.fn, e.meta)
		}}, true
	}
	return kindBuilder[B]{}, false
}

func checkAttrs(spec *config.Spec, allowed []string) error {
	for _, name := range spec.AttrNames() {
		ok := false
		for _, a := range allowed {
			if a == name {
				ok = true
				break
			}
		}
		if !ok {
			if len(allowed) == 0 {
				return specErrorf(spec, "unexpected attribute %q, kind %s takes none", name, spec.Kind)
			}
			return specErrorf(spec, "unexpected attribute %q, want one of %s", name, strings.Join(allowed, ", "))
		}
	}
	return nil
}

func specErrorf(spec *config.Spec, format string, args ...any) error {
	return errors.Wrap(nn.ErrConfig, fmt.Sprintf("%s: %s: ", spec.Range, spec.Path())+fmt.Sprintf(format, args...))
}

// attrError classifies an attribute decoding failure as a config error.
func attrError(spec *config.Spec, err error) error {
	return specErrorf(spec, "%v", err)
}

func buildLinear[B tensor.Backend](_ *Registry[B], spec *config.Spec, _ []nn.Module[B]) (nn.Module[B], error) {
	in, err := spec.RequiredInt("input_dims")
	if err != nil {
		return nil, attrError(spec, err)
	}
	out, err := spec.RequiredInt("output_dims")
	if err != nil {
		return nil, attrError(spec, err)
	}
	return nn.NewLinear[B](spec.Name, in, out)
}

func buildBias[B tensor.Backend](_ *Registry[B], spec *config.Spec, _ []nn.Module[B]) (nn.Module[B], error) {
	dims, err := spec.RequiredInt("dims")
	if err != nil {
		return nil, attrError(spec, err)
	}
	return nn.NewBias[B](spec.Name, dims)
}

func buildFn[B tensor.Backend](r *Registry[B], spec *config.Spec, _ []nn.Module[B]) (nn.Module[B], error) {
	name, err := spec.String("fn", "")
	if err != nil {
		return nil, attrError(spec, err)
	}
	e, ok := r.fns[name]
	if !ok {
		return nil, specErrorf(spec, "no fn registered as %q", name)
	}
	return nn.NewFn[B](spec.Name, e.fn, e.meta)
}

func buildMap[B tensor.Backend](r *Registry[B], spec *config.Spec, _ []nn.Module[B]) (nn.Module[B], error) {
	name, err := spec.String("fn", "")
	if err != nil {
		return nil, attrError(spec, err)
	}
	e, ok := r.maps[name]
	if !ok {
		return nil, specErrorf(spec, "no map registered as %q", name)
	}
	return nn.NewMap[B](spec.Name, e.fn, e.meta)
}

func buildFirstN[B tensor.Backend](_ *Registry[B], spec *config.Spec, _ []nn.Module[B]) (nn.Module[B], error) {
	n, err := spec.RequiredInt("n")
	if err != nil {
		return nil, attrError(spec, err)
	}
	return nn.NewFirstN[B](spec.Name, n)
}

func buildArgIndex[B tensor.Backend](_ *Registry[B], spec *config.Spec, _ []nn.Module[B]) (nn.Module[B], error) {
	indices, err := spec.Ints("indices")
	if err != nil {
		return nil, attrError(spec, err)
	}
	return nn.NewArgIndex[B](spec.Name, indices...)
}

func buildSequential[B tensor.Backend](_ *Registry[B], spec *config.Spec, subs []nn.Module[B]) (nn.Module[B], error) {
	repeat, err := spec.Int("repeat", 1)
	if err != nil {
		return nil, attrError(spec, err)
	}
	return nn.NewSequential[B](spec.Name, repeat, subs...)
}

func buildUnarySequential[B tensor.Backend](_ *Registry[B], spec *config.Spec, subs []nn.Module[B]) (nn.Module[B], error) {
	return nn.NewUnarySequential[B](spec.Name, subs...)
}

func buildRepeat[B tensor.Backend](_ *Registry[B], spec *config.Spec, subs []nn.Module[B]) (nn.Module[B], error) {
	repeat, err := spec.RequiredInt("repeat")
	if err != nil {
		return nil, attrError(spec, err)
	}
	return nn.NewRepeat[B](spec.Name, subs[0], repeat)
}

func buildParallelRepeat[B tensor.Backend](_ *Registry[B], spec *config.Spec, subs []nn.Module[B]) (nn.Module[B], error) {
	repeat, err := spec.RequiredInt("repeat")
	if err != nil {
		return nil, attrError(spec, err)
	}
	workers, err := spec.Int("workers", 0)
	if err != nil {
		return nil, attrError(spec, err)
	}
	pr, err := nn.NewParallelRepeat[B](spec.Name, subs[0], repeat)
	if err != nil {
		return nil, err
	}
	switch {
	case workers == 1:
		pr.SetParallelism(parallel.Sequential())
	case workers > 1:
		pr.SetParallelism(parallel.Config{Enabled: true, NumWorkers: workers, MinChunkSize: 2})
	}
	return pr, nil
}

func buildSoftCond[B tensor.Backend](_ *Registry[B], spec *config.Spec, subs []nn.Module[B]) (nn.Module[B], error) {
	experts, err := spec.RequiredInt("num_experts")
	if err != nil {
		return nil, attrError(spec, err)
	}
	condDim, err := spec.RequiredInt("cond_dim")
	if err != nil {
		return nil, attrError(spec, err)
	}
	return nn.NewSoftCond[B](spec.Name, subs[0], nn.SoftCondConfig{NumExperts: experts, CondDim: condDim})
}

func buildGraph[B tensor.Backend](_ *Registry[B], spec *config.Spec, subs []nn.Module[B]) (nn.Module[B], error) {
	inputs, err := spec.Strings("input_endpoints")
	if err != nil {
		return nil, attrError(spec, err)
	}
	outputs, err := spec.Strings("output_endpoints")
	if err != nil {
		return nil, attrError(spec, err)
	}
	cfg := nn.GraphConfig[B]{InputEndpoints: inputs, OutputEndpoints: outputs}
	for i, sub := range spec.Subs {
		if sub.Signature == "" {
			return nil, specErrorf(sub, "graph sub-module needs a signature")
		}
		cfg.Subs = append(cfg.Subs, nn.GraphSub[B]{Signature: sub.Signature, Module: subs[i]})
	}
	return nn.NewGraph(spec.Name, cfg)
}

func buildParallel[B tensor.Backend](r *Registry[B], spec *config.Spec, subs []nn.Module[B]) (nn.Module[B], error) {
	name, err := spec.String("merge", "concat")
	if err != nil {
		return nil, attrError(spec, err)
	}
	factory, ok := r.merges[name]
	if !ok {
		return nil, specErrorf(spec, "no merge registered as %q", name)
	}
	if spec.Has("dim") && name != "concat" {
		return nil, specErrorf(spec, "dim only applies to the concat merge")
	}
	merge, mergeMeta, err := factory(spec)
	if err != nil {
		return nil, attrError(spec, err)
	}
	return nn.NewParallel(spec.Name, merge, mergeMeta, subs...)
}

func buildBatchParallel[B tensor.Backend](r *Registry[B], spec *config.Spec, subs []nn.Module[B]) (nn.Module[B], error) {
	workers, err := spec.Int("workers", r.Workers)
	if err != nil {
		return nil, attrError(spec, err)
	}
	if workers < 0 {
		return nil, specErrorf(spec, "workers must not be negative, got %d", workers)
	}
	return nn.NewBatchParallel[B](spec.Name, subs[0], r.Cluster(workers))
}

func buildRemat[B tensor.Backend](r *Registry[B], spec *config.Spec, subs []nn.Module[B]) (nn.Module[B], error) {
	return nn.NewRemat[B](spec.Name, subs[0], r.Recomputer)
}

func buildBranch[B tensor.Backend](_ *Registry[B], spec *config.Spec, subs []nn.Module[B]) (nn.Module[B], error) {
	fetches, err := spec.Strings("fetches")
	if err != nil {
		return nil, attrError(spec, err)
	}
	return nn.NewBranch[B](spec.Name, subs[0], fetches...)
}

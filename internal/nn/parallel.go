package nn

import (
	"github.com/apoorvakumar2306/lingvo/internal/tensor"
)

// MergeFn combines the output lists of every branch into the composer's
// outputs.
type MergeFn[B tensor.Backend] func(outputs [][]*Tensor[B]) ([]*Tensor[B], error)

// MergeMetaFn is the shape/cost mirror of a MergeFn.
type MergeMetaFn func(outputs [][]tensor.Shape) (Meta, error)

// Parallel runs every sub-module on the same inputs and merges their outputs.
//
// The merge function and its meta companion are supplied by the caller and
// must agree with each other. CheckParity verifies a pair on concrete inputs.
type Parallel[B tensor.Backend] struct {
	name      string
	subs      []Module[B]
	merge     MergeFn[B]
	mergeMeta MergeMetaFn
}

// NewParallel creates a Parallel over subs.
func NewParallel[B tensor.Backend](name string, merge MergeFn[B], mergeMeta MergeMetaFn, subs ...Module[B]) (*Parallel[B], error) {
	if err := validateName("Parallel", name); err != nil {
		return nil, err
	}
	if merge == nil || mergeMeta == nil {
		return nil, configErrorf(name, "merge and merge_meta are required")
	}
	if len(subs) == 0 {
		return nil, configErrorf(name, "no sub-modules")
	}
	if err := validateChildren(name, subs); err != nil {
		return nil, err
	}
	return &Parallel[B]{name: name, subs: append([]Module[B](nil), subs...), merge: merge, mergeMeta: mergeMeta}, nil
}

// Name implements Module.
func (p *Parallel[B]) Name() string { return p.name }

// Variables implements Module.
func (p *Parallel[B]) Variables() []Variable {
	var vars []Variable
	for _, sub := range p.subs {
		vars = append(vars, prefixVariables(sub.Name(), 0, sub.Variables())...)
	}
	return vars
}

func (p *Parallel[B]) slots() []slot[B] {
	out := make([]slot[B], len(p.subs))
	for i, sub := range p.subs {
		out[i] = slot[B]{key: sub.Name(), module: sub, set: func(m Module[B]) { p.subs[i] = m }}
	}
	return out
}

// Forward implements Module.
func (p *Parallel[B]) Forward(theta *Theta[B], inputs ...*Tensor[B]) ([]*Tensor[B], error) {
	outputs := make([][]*Tensor[B], 0, len(p.subs))
	for _, sub := range p.subs {
		th, err := childTheta(p.name, sub.Name(), theta, sub)
		if err != nil {
			return nil, err
		}
		Logger().Debug("parallel call", "module", p.name, "sub", sub.Name(), "args", len(inputs))
		out, err := sub.Forward(th, inputs...)
		if err != nil {
			return nil, wrapChild(p.name, err)
		}
		outputs = append(outputs, out)
	}
	merged, err := p.merge(outputs)
	if err != nil {
		return nil, wrapChild(p.name, err)
	}
	return merged, nil
}

// InferShapes implements Module. Cost is the merge cost plus the sum of the
// branch costs.
func (p *Parallel[B]) InferShapes(inputs ...tensor.Shape) (Meta, error) {
	if err := checkShapes(p.name, inputs); err != nil {
		return Meta{}, err
	}
	var total int64
	outputs := make([][]tensor.Shape, 0, len(p.subs))
	for _, sub := range p.subs {
		meta, err := sub.InferShapes(inputs...)
		if err != nil {
			return Meta{}, wrapChild(p.name, err)
		}
		if err := checkShapes(sub.Name(), meta.OutShapes); err != nil {
			return Meta{}, wrapChild(p.name, err)
		}
		total += meta.Cost
		outputs = append(outputs, meta.OutShapes)
	}
	merged, err := p.mergeMeta(outputs)
	if err != nil {
		return Meta{}, wrapChild(p.name, err)
	}
	if err := checkShapes(p.name, merged.OutShapes); err != nil {
		return Meta{}, err
	}
	merged.Cost += total
	return merged, nil
}

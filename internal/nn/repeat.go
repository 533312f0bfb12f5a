package nn

import (
	"github.com/apoorvakumar2306/lingvo/internal/parallel"
	"github.com/apoorvakumar2306/lingvo/internal/scan"
	"github.com/apoorvakumar2306/lingvo/internal/tensor"
)

// Repeat runs one body module repeat times in sequence, each time with its
// own slice of a stacked parameter tree.
//
// Every body variable is stored under "body." with a leading axis of size
// repeat. Extra state found in the body subtree is replicated along that axis
// before iterating. The outputs of iteration i are the inputs of iteration
// i+1, so the body must map its inputs to outputs of the same arity and shape.
type Repeat[B tensor.Backend] struct {
	name   string
	body   Module[B]
	repeat int
}

// NewRepeat creates a Repeat of body. repeat must be positive.
func NewRepeat[B tensor.Backend](name string, body Module[B], repeat int) (*Repeat[B], error) {
	if err := validateName("Repeat", name); err != nil {
		return nil, err
	}
	if body == nil {
		return nil, configErrorf(name, "body is nil")
	}
	if repeat <= 0 {
		return nil, configErrorf(name, "repeat must be positive, got %d", repeat)
	}
	return &Repeat[B]{name: name, body: body, repeat: repeat}, nil
}

// Name implements Module.
func (r *Repeat[B]) Name() string { return r.name }

// Variables implements Module.
func (r *Repeat[B]) Variables() []Variable {
	return prefixVariables("body", r.repeat, r.body.Variables())
}

func (r *Repeat[B]) slots() []slot[B] {
	return []slot[B]{{key: "body", module: r.body, set: func(m Module[B]) { r.body = m }}}
}

// Forward implements Module.
func (r *Repeat[B]) Forward(theta *Theta[B], inputs ...*Tensor[B]) ([]*Tensor[B], error) {
	slices, err := repeatSlices(r.name, r.body, r.repeat, theta)
	if err != nil {
		return nil, err
	}

	state0 := append([]*Tensor[B](nil), inputs...)
	final, _, err := scan.Scan(state0, slices, func(state []*Tensor[B], th *Theta[B]) ([]*Tensor[B], struct{}, error) {
		out, err := r.body.Forward(th, state...)
		if err != nil {
			return nil, struct{}{}, wrapChild(r.name, err)
		}
		if len(out) != len(state) {
			return nil, struct{}{}, structureErrorf(r.name, "body returned %d outputs for %d inputs", len(out), len(state))
		}
		for i := range out {
			if !sameShape(out[i], state[i]) {
				return nil, struct{}{}, shapeErrorf(r.name, "body changed carried state %d from %v to %v",
					i, shapeOf(state[i]), shapeOf(out[i]))
			}
		}
		return out, struct{}{}, nil
	})
	if err != nil {
		return nil, err
	}
	return final, nil
}

// InferShapes implements Module. Cost is the body cost times repeat.
func (r *Repeat[B]) InferShapes(inputs ...tensor.Shape) (Meta, error) {
	if err := checkShapes(r.name, inputs); err != nil {
		return Meta{}, err
	}
	meta, err := r.body.InferShapes(inputs...)
	if err != nil {
		return Meta{}, wrapChild(r.name, err)
	}
	if err := checkShapes(r.name, meta.OutShapes); err != nil {
		return Meta{}, err
	}
	if len(meta.OutShapes) != len(inputs) {
		return Meta{}, structureErrorf(r.name, "body infers %d outputs for %d inputs", len(meta.OutShapes), len(inputs))
	}
	for i, s := range meta.OutShapes {
		if !s.Equal(inputs[i]) {
			return Meta{}, shapeErrorf(r.name, "body changes carried state %d from %v to %v", i, inputs[i], s)
		}
	}
	return Meta{Cost: meta.Cost * int64(r.repeat), OutShapes: cloneShapes(inputs)}, nil
}

// ParallelRepeat runs repeat independent copies of a body module. Copy i
// consumes slice i along the leading axis of every input and of the stacked
// parameter tree, and produces slice i of every output.
type ParallelRepeat[B tensor.Backend] struct {
	name   string
	body   Module[B]
	repeat int
	cfg    parallel.Config
}

// NewParallelRepeat creates a ParallelRepeat of body. repeat must be positive.
// Copies run concurrently according to parallel.DefaultConfig.
func NewParallelRepeat[B tensor.Backend](name string, body Module[B], repeat int) (*ParallelRepeat[B], error) {
	if err := validateName("ParallelRepeat", name); err != nil {
		return nil, err
	}
	if body == nil {
		return nil, configErrorf(name, "body is nil")
	}
	if repeat <= 0 {
		return nil, configErrorf(name, "repeat must be positive, got %d", repeat)
	}
	return &ParallelRepeat[B]{name: name, body: body, repeat: repeat, cfg: parallel.DefaultConfig()}, nil
}

// SetParallelism overrides how copies are scheduled.
func (p *ParallelRepeat[B]) SetParallelism(cfg parallel.Config) {
	p.cfg = cfg
}

// Name implements Module.
func (p *ParallelRepeat[B]) Name() string { return p.name }

// Variables implements Module.
func (p *ParallelRepeat[B]) Variables() []Variable {
	return prefixVariables("body", p.repeat, p.body.Variables())
}

// Forward implements Module.
func (p *ParallelRepeat[B]) Forward(theta *Theta[B], inputs ...*Tensor[B]) ([]*Tensor[B], error) {
	slices, err := repeatSlices(p.name, p.body, p.repeat, theta)
	if err != nil {
		return nil, err
	}
	tails, err := unstackedShapes(p.name, p.repeat, ShapesOf(inputs))
	if err != nil {
		return nil, err
	}
	meta, err := p.body.InferShapes(tails...)
	if err != nil {
		return nil, wrapChild(p.name, err)
	}

	backend, ok := backendOf(inputs, slices)
	if !ok && len(meta.OutShapes) > 0 {
		return nil, configErrorf(p.name, "no input or parameter tensor to allocate outputs with")
	}

	acc := make([]*Tensor[B], len(meta.OutShapes))
	for j, s := range meta.OutShapes {
		if s != nil {
			acc[j] = tensor.Zeros[float32](s.Prepend(p.repeat), backend)
		}
	}

	_, err = scan.Map(slices, func(i int, th *Theta[B]) (struct{}, error) {
		args := make([]*Tensor[B], len(inputs))
		for k, x := range inputs {
			if x != nil {
				args[k] = x.Index(i)
			}
		}
		out, err := p.body.Forward(th, args...)
		if err != nil {
			return struct{}{}, wrapChild(p.name, err)
		}
		if len(out) != len(acc) {
			return struct{}{}, structureErrorf(p.name, "body returned %d outputs, inferred %d", len(out), len(acc))
		}
		for j, y := range out {
			if !shapeOf(y).Equal(meta.OutShapes[j]) {
				return struct{}{}, structureErrorf(p.name, "body output %d has shape %v, inferred %v",
					j, shapeOf(y), meta.OutShapes[j])
			}
			if y != nil {
				acc[j].SetIndex(i, y)
			}
		}
		return struct{}{}, nil
	}, p.cfg)
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// InferShapes implements Module.
func (p *ParallelRepeat[B]) InferShapes(inputs ...tensor.Shape) (Meta, error) {
	if err := checkShapes(p.name, inputs); err != nil {
		return Meta{}, err
	}
	tails, err := unstackedShapes(p.name, p.repeat, inputs)
	if err != nil {
		return Meta{}, err
	}
	meta, err := p.body.InferShapes(tails...)
	if err != nil {
		return Meta{}, wrapChild(p.name, err)
	}
	if err := checkShapes(p.name, meta.OutShapes); err != nil {
		return Meta{}, err
	}
	out := make([]tensor.Shape, len(meta.OutShapes))
	for j, s := range meta.OutShapes {
		if s != nil {
			out[j] = s.Prepend(p.repeat)
		}
	}
	return Meta{Cost: meta.Cost * int64(p.repeat), OutShapes: out}, nil
}

// repeatSlices stacks extra state in the body subtree and slices it into one
// parameter tree per repetition.
func repeatSlices[B tensor.Backend](owner string, body Module[B], repeat int, theta *Theta[B]) ([]*Theta[B], error) {
	th, err := childTheta(owner, "body", theta, body)
	if err != nil {
		return nil, err
	}
	stacked, err := stackExtras(owner, th, prefixVariables("", repeat, body.Variables()), repeat)
	if err != nil {
		return nil, err
	}
	slices := make([]*Theta[B], repeat)
	for i := range slices {
		slices[i] = sliceTheta(stacked, i)
	}
	return slices, nil
}

// unstackedShapes checks that every present shape leads with repeat and
// returns the per-copy shapes.
func unstackedShapes(owner string, repeat int, shapes []tensor.Shape) ([]tensor.Shape, error) {
	tails := make([]tensor.Shape, len(shapes))
	for i, s := range shapes {
		if s == nil {
			continue
		}
		if len(s) == 0 || s[0] != repeat {
			return nil, shapeErrorf(owner, "input %d has shape %v, want leading dimension %d", i, s, repeat)
		}
		tails[i] = s.Tail()
	}
	return tails, nil
}

func shapeOf[B tensor.Backend](x *Tensor[B]) tensor.Shape {
	if x == nil {
		return nil
	}
	return x.Shape()
}

func sameShape[B tensor.Backend](a, b *Tensor[B]) bool {
	return shapeOf(a).Equal(shapeOf(b))
}

// backendOf returns the backend of the first present tensor in inputs or in
// the parameter slices.
func backendOf[B tensor.Backend](inputs []*Tensor[B], slices []*Theta[B]) (B, bool) {
	for _, x := range inputs {
		if x != nil {
			return x.Backend(), true
		}
	}
	for _, th := range slices {
		for _, v := range th.Flatten() {
			if v != nil {
				return v.Backend(), true
			}
		}
	}
	var zero B
	return zero, false
}

package nn

import (
	"fmt"

	"github.com/apoorvakumar2306/lingvo/internal/tensor"
)

// Sequential chains modules: the outputs of each module are the inputs of
// the next.
//
// With repeat > 1 the whole chain is instantiated repeat times. Repetition i
// is a one-level-deeper Sequential named "%03d" whose parameters live under
// "rep.%03d", so every repetition has its own weights.
//
// Example:
//
//	lin, _ := nn.NewLinear[B]("proj", 8, 8)
//	act, _ := nn.NewReLU[B]("act")
//	block, _ := nn.NewSequential[B]("block", 2, lin, act)
//	// block.Variables(): rep.000.proj.w, rep.001.proj.w
type Sequential[B tensor.Backend] struct {
	name     string
	children []seqChild[B]
}

type seqChild[B tensor.Backend] struct {
	key    string // parameter tree key
	module Module[B]
}

// NewSequential creates a Sequential over subs.
//
// Parameters:
//   - name: module name
//   - repeat: number of independently parameterized copies of the chain (>= 1)
//   - subs: uniquely named modules, applied in order
func NewSequential[B tensor.Backend](name string, repeat int, subs ...Module[B]) (*Sequential[B], error) {
	if err := validateName("Sequential", name); err != nil {
		return nil, err
	}
	if repeat < 1 {
		return nil, configErrorf(name, "repeat must be at least 1, got %d", repeat)
	}
	if err := validateChildren(name, subs); err != nil {
		return nil, err
	}

	s := &Sequential[B]{name: name}
	if repeat == 1 {
		for _, sub := range subs {
			s.children = append(s.children, seqChild[B]{key: sub.Name(), module: sub})
		}
		return s, nil
	}

	for i := 0; i < repeat; i++ {
		rep, err := NewSequential[B](fmt.Sprintf("%03d", i), 1, subs...)
		if err != nil {
			return nil, err
		}
		s.children = append(s.children, seqChild[B]{key: "rep." + rep.Name(), module: rep})
	}
	return s, nil
}

// Name implements Module.
func (s *Sequential[B]) Name() string { return s.name }

// Len returns the number of direct children.
func (s *Sequential[B]) Len() int { return len(s.children) }

// Variables implements Module.
func (s *Sequential[B]) Variables() []Variable {
	var vars []Variable
	for _, ch := range s.children {
		vars = append(vars, prefixVariables(ch.key, 0, ch.module.Variables())...)
	}
	return vars
}

func (s *Sequential[B]) slots() []slot[B] {
	out := make([]slot[B], len(s.children))
	for i, ch := range s.children {
		out[i] = slot[B]{key: ch.key, module: ch.module, set: func(m Module[B]) { s.children[i].module = m }}
	}
	return out
}

// Forward implements Module.
func (s *Sequential[B]) Forward(theta *Theta[B], inputs ...*Tensor[B]) ([]*Tensor[B], error) {
	args := inputs
	for _, ch := range s.children {
		th, err := childTheta(s.name, ch.key, theta, ch.module)
		if err != nil {
			return nil, err
		}
		Logger().Debug("sequential call", "module", s.name, "sub", ch.key, "args", len(args))
		args, err = ch.module.Forward(th, args...)
		if err != nil {
			return nil, wrapChild(s.name, err)
		}
	}
	return args, nil
}

// InferShapes implements Module. Cost is the sum of the children's costs.
func (s *Sequential[B]) InferShapes(inputs ...tensor.Shape) (Meta, error) {
	if err := checkShapes(s.name, inputs); err != nil {
		return Meta{}, err
	}
	var total int64
	args := cloneShapes(inputs)
	for _, ch := range s.children {
		Logger().Debug("sequential infer", "module", s.name, "sub", ch.key, "args", len(args))
		meta, err := ch.module.InferShapes(args...)
		if err != nil {
			return Meta{}, wrapChild(s.name, err)
		}
		if err := checkShapes(ch.key, meta.OutShapes); err != nil {
			return Meta{}, wrapChild(s.name, err)
		}
		total += meta.Cost
		args = meta.OutShapes
	}
	return Meta{Cost: total, OutShapes: args}, nil
}

// UnarySequential chains single-input, single-output modules.
type UnarySequential[B tensor.Backend] struct {
	name string
	subs []Module[B]
}

// NewUnarySequential creates a UnarySequential over subs.
func NewUnarySequential[B tensor.Backend](name string, subs ...Module[B]) (*UnarySequential[B], error) {
	if err := validateName("UnarySequential", name); err != nil {
		return nil, err
	}
	if err := validateChildren(name, subs); err != nil {
		return nil, err
	}
	return &UnarySequential[B]{name: name, subs: append([]Module[B](nil), subs...)}, nil
}

// Name implements Module.
func (u *UnarySequential[B]) Name() string { return u.name }

// Variables implements Module.
func (u *UnarySequential[B]) Variables() []Variable {
	var vars []Variable
	for _, sub := range u.subs {
		vars = append(vars, prefixVariables(sub.Name(), 0, sub.Variables())...)
	}
	return vars
}

func (u *UnarySequential[B]) slots() []slot[B] {
	out := make([]slot[B], len(u.subs))
	for i, sub := range u.subs {
		out[i] = slot[B]{key: sub.Name(), module: sub, set: func(m Module[B]) { u.subs[i] = m }}
	}
	return out
}

// Forward implements Module.
func (u *UnarySequential[B]) Forward(theta *Theta[B], inputs ...*Tensor[B]) ([]*Tensor[B], error) {
	if len(inputs) != 1 {
		return nil, configErrorf(u.name, "expects exactly 1 input, got %d", len(inputs))
	}
	x := inputs[0]
	for _, sub := range u.subs {
		th, err := childTheta(u.name, sub.Name(), theta, sub)
		if err != nil {
			return nil, err
		}
		out, err := sub.Forward(th, x)
		if err != nil {
			return nil, wrapChild(u.name, err)
		}
		if len(out) != 1 {
			return nil, structureErrorf(u.name, "sub-module %q returned %d outputs, want 1", sub.Name(), len(out))
		}
		x = out[0]
	}
	return []*Tensor[B]{x}, nil
}

// InferShapes implements Module.
func (u *UnarySequential[B]) InferShapes(inputs ...tensor.Shape) (Meta, error) {
	if len(inputs) != 1 {
		return Meta{}, configErrorf(u.name, "expects exactly 1 input, got %d", len(inputs))
	}
	if err := checkShapes(u.name, inputs); err != nil {
		return Meta{}, err
	}
	var total int64
	x := inputs[0].Clone()
	for _, sub := range u.subs {
		meta, err := sub.InferShapes(x)
		if err != nil {
			return Meta{}, wrapChild(u.name, err)
		}
		if len(meta.OutShapes) != 1 {
			return Meta{}, structureErrorf(u.name, "sub-module %q infers %d outputs, want 1", sub.Name(), len(meta.OutShapes))
		}
		total += meta.Cost
		x = meta.OutShapes[0]
	}
	return Meta{Cost: total, OutShapes: []tensor.Shape{x}}, nil
}

package nn

import (
	"github.com/apoorvakumar2306/lingvo/internal/tensor"
)

// PrintShape passes its inputs through unchanged and logs the shape and
// dtype of each one at Info level.
type PrintShape[B tensor.Backend] struct {
	name string
}

// NewPrintShape creates a PrintShape.
func NewPrintShape[B tensor.Backend](name string) (*PrintShape[B], error) {
	if err := validateName("PrintShape", name); err != nil {
		return nil, err
	}
	return &PrintShape[B]{name: name}, nil
}

// Name implements Module.
func (p *PrintShape[B]) Name() string { return p.name }

// Variables implements Module.
func (p *PrintShape[B]) Variables() []Variable { return nil }

// Forward implements Module.
func (p *PrintShape[B]) Forward(_ *Theta[B], inputs ...*Tensor[B]) ([]*Tensor[B], error) {
	for i, x := range inputs {
		if x == nil {
			Logger().Info("forward non-tensor input", "module", p.name, "arg", i)
			continue
		}
		Logger().Info("forward input", "module", p.name, "arg", i,
			"shape", x.Shape().String(), "dtype", x.DType().String())
	}
	return append([]*Tensor[B](nil), inputs...), nil
}

// InferShapes implements Module: zero cost, identity shapes.
func (p *PrintShape[B]) InferShapes(inputs ...tensor.Shape) (Meta, error) {
	if err := checkShapes(p.name, inputs); err != nil {
		return Meta{}, err
	}
	return Meta{OutShapes: cloneShapes(inputs)}, nil
}

// FnFunc computes outputs from the whole input list.
type FnFunc[B tensor.Backend] func(inputs []*Tensor[B]) ([]*Tensor[B], error)

// FnMetaFunc is the shape/cost mirror of an FnFunc.
type FnMetaFunc func(inputs []tensor.Shape) (Meta, error)

// Fn applies a caller-supplied function to the whole input list.
type Fn[B tensor.Backend] struct {
	name   string
	fn     FnFunc[B]
	fnMeta FnMetaFunc
}

// NewFn creates an Fn. Both fn and fnMeta are required.
func NewFn[B tensor.Backend](name string, fn FnFunc[B], fnMeta FnMetaFunc) (*Fn[B], error) {
	if err := validateName("Fn", name); err != nil {
		return nil, err
	}
	if fn == nil || fnMeta == nil {
		return nil, configErrorf(name, "fn and fn_meta are required")
	}
	return &Fn[B]{name: name, fn: fn, fnMeta: fnMeta}, nil
}

// Name implements Module.
func (f *Fn[B]) Name() string { return f.name }

// Variables implements Module.
func (f *Fn[B]) Variables() []Variable { return nil }

// Forward implements Module.
func (f *Fn[B]) Forward(_ *Theta[B], inputs ...*Tensor[B]) ([]*Tensor[B], error) {
	out, err := f.fn(inputs)
	if err != nil {
		return nil, wrapChild(f.name, err)
	}
	return out, nil
}

// InferShapes implements Module.
func (f *Fn[B]) InferShapes(inputs ...tensor.Shape) (Meta, error) {
	if err := checkShapes(f.name, inputs); err != nil {
		return Meta{}, err
	}
	meta, err := f.fnMeta(inputs)
	if err != nil {
		return Meta{}, wrapChild(f.name, err)
	}
	if err := checkShapes(f.name, meta.OutShapes); err != nil {
		return Meta{}, err
	}
	return meta, nil
}

// MapFunc transforms one tensor.
type MapFunc[B tensor.Backend] func(x *Tensor[B]) (*Tensor[B], error)

// MapMetaFunc is the shape/cost mirror of a MapFunc.
type MapMetaFunc func(x tensor.Shape) (int64, tensor.Shape, error)

// Map applies a caller-supplied function to every present input
// independently. Absent inputs stay absent.
type Map[B tensor.Backend] struct {
	name   string
	fn     MapFunc[B]
	fnMeta MapMetaFunc
}

// NewMap creates a Map. Both fn and fnMeta are required.
func NewMap[B tensor.Backend](name string, fn MapFunc[B], fnMeta MapMetaFunc) (*Map[B], error) {
	if err := validateName("Map", name); err != nil {
		return nil, err
	}
	if fn == nil || fnMeta == nil {
		return nil, configErrorf(name, "fn and fn_meta are required")
	}
	return &Map[B]{name: name, fn: fn, fnMeta: fnMeta}, nil
}

// Name implements Module.
func (m *Map[B]) Name() string { return m.name }

// Variables implements Module.
func (m *Map[B]) Variables() []Variable { return nil }

// Forward implements Module.
func (m *Map[B]) Forward(_ *Theta[B], inputs ...*Tensor[B]) ([]*Tensor[B], error) {
	out := make([]*Tensor[B], len(inputs))
	for i, x := range inputs {
		if x == nil {
			continue
		}
		y, err := m.fn(x)
		if err != nil {
			return nil, wrapChild(m.name, err)
		}
		out[i] = y
	}
	return out, nil
}

// InferShapes implements Module. Cost is the sum over present inputs.
func (m *Map[B]) InferShapes(inputs ...tensor.Shape) (Meta, error) {
	if err := checkShapes(m.name, inputs); err != nil {
		return Meta{}, err
	}
	var total int64
	out := make([]tensor.Shape, len(inputs))
	for i, s := range inputs {
		if s == nil {
			continue
		}
		cost, shape, err := m.fnMeta(s)
		if err != nil {
			return Meta{}, wrapChild(m.name, err)
		}
		total += cost
		out[i] = shape
	}
	if err := checkShapes(m.name, out); err != nil {
		return Meta{}, err
	}
	return Meta{Cost: total, OutShapes: out}, nil
}

package nn

import (
	"github.com/apoorvakumar2306/lingvo/internal/tensor"
)

// Linear projects the last dimension of its input: y = x @ w.
//
// Input shape: [..., inputDims]
// Output shape: [..., outputDims]
// Variables: w [inputDims, outputDims]
type Linear[B tensor.Backend] struct {
	name       string
	inputDims  int
	outputDims int
}

// NewLinear creates a Linear layer.
func NewLinear[B tensor.Backend](name string, inputDims, outputDims int) (*Linear[B], error) {
	if err := validateName("Linear", name); err != nil {
		return nil, err
	}
	if inputDims <= 0 || outputDims <= 0 {
		return nil, configErrorf(name, "dims must be positive, got %d -> %d", inputDims, outputDims)
	}
	return &Linear[B]{name: name, inputDims: inputDims, outputDims: outputDims}, nil
}

// Name implements Module.
func (l *Linear[B]) Name() string { return l.name }

// Variables implements Module.
func (l *Linear[B]) Variables() []Variable {
	return []Variable{{Path: "w", Shape: tensor.Shape{l.inputDims, l.outputDims}}}
}

// Forward implements Module.
func (l *Linear[B]) Forward(theta *Theta[B], inputs ...*Tensor[B]) ([]*Tensor[B], error) {
	out, err := l.outShape(ShapesOf(inputs))
	if err != nil {
		return nil, err
	}
	w, err := variable(l.name, theta, l.Variables()[0])
	if err != nil {
		return nil, err
	}
	y := inputs[0].Reshape(-1, l.inputDims).MatMul(w)
	return []*Tensor[B]{y.Reshape(out...)}, nil
}

// InferShapes implements Module. A multiply-add counts as two operations.
func (l *Linear[B]) InferShapes(inputs ...tensor.Shape) (Meta, error) {
	out, err := l.outShape(inputs)
	if err != nil {
		return Meta{}, err
	}
	cost := int64(inputs[0].NumElements()) * int64(l.outputDims) * 2
	return Meta{Cost: cost, OutShapes: []tensor.Shape{out}}, nil
}

func (l *Linear[B]) outShape(inputs []tensor.Shape) (tensor.Shape, error) {
	x, err := singleInput(l.name, inputs)
	if err != nil {
		return nil, err
	}
	if len(x) == 0 || x[len(x)-1] != l.inputDims {
		return nil, shapeErrorf(l.name, "input shape %v, want last dimension %d", x, l.inputDims)
	}
	out := x.Clone()
	out[len(out)-1] = l.outputDims
	return out, nil
}

// Bias adds a learned vector to the last dimension of its input.
//
// Variables: b [dims]
type Bias[B tensor.Backend] struct {
	name string
	dims int
}

// NewBias creates a Bias layer.
func NewBias[B tensor.Backend](name string, dims int) (*Bias[B], error) {
	if err := validateName("Bias", name); err != nil {
		return nil, err
	}
	if dims <= 0 {
		return nil, configErrorf(name, "dims must be positive, got %d", dims)
	}
	return &Bias[B]{name: name, dims: dims}, nil
}

// Name implements Module.
func (b *Bias[B]) Name() string { return b.name }

// Variables implements Module.
func (b *Bias[B]) Variables() []Variable {
	return []Variable{{Path: "b", Shape: tensor.Shape{b.dims}}}
}

// Forward implements Module.
func (b *Bias[B]) Forward(theta *Theta[B], inputs ...*Tensor[B]) ([]*Tensor[B], error) {
	if _, err := b.InferShapes(ShapesOf(inputs)...); err != nil {
		return nil, err
	}
	v, err := variable(b.name, theta, b.Variables()[0])
	if err != nil {
		return nil, err
	}
	return []*Tensor[B]{inputs[0].Add(v)}, nil
}

// InferShapes implements Module.
func (b *Bias[B]) InferShapes(inputs ...tensor.Shape) (Meta, error) {
	x, err := singleInput(b.name, inputs)
	if err != nil {
		return Meta{}, err
	}
	if len(x) == 0 || x[len(x)-1] != b.dims {
		return Meta{}, shapeErrorf(b.name, "input shape %v, want last dimension %d", x, b.dims)
	}
	return Meta{Cost: int64(x.NumElements()), OutShapes: []tensor.Shape{x.Clone()}}, nil
}

// NewReLU creates an element-wise ReLU.
func NewReLU[B tensor.Backend](name string) (*Map[B], error) {
	return NewMap[B](name, ReLU[B], ElementwiseMeta)
}

// NewSigmoid creates an element-wise logistic sigmoid.
func NewSigmoid[B tensor.Backend](name string) (*Map[B], error) {
	return NewMap[B](name, Sigmoid[B], ElementwiseMeta)
}

// NewIdentity creates a module returning its inputs unchanged.
func NewIdentity[B tensor.Backend](name string) (*Fn[B], error) {
	return NewFn[B](name, Identity[B], IdentityMeta)
}

// NewAdd creates a module returning the broadcasting sum of its inputs.
func NewAdd[B tensor.Backend](name string) (*Fn[B], error) {
	return NewFn[B](name, AddAll[B], AddAllMeta)
}

// ReLU is a MapFunc computing max(0, x).
func ReLU[B tensor.Backend](x *Tensor[B]) (*Tensor[B], error) {
	return x.ReLU(), nil
}

// Sigmoid is a MapFunc computing 1/(1+exp(-x)).
func Sigmoid[B tensor.Backend](x *Tensor[B]) (*Tensor[B], error) {
	return x.Sigmoid(), nil
}

// ElementwiseMeta is the MapMetaFunc of element-wise functions: one
// operation per element, shape preserved.
func ElementwiseMeta(x tensor.Shape) (int64, tensor.Shape, error) {
	return int64(x.NumElements()), x.Clone(), nil
}

// Identity is an FnFunc returning its inputs.
func Identity[B tensor.Backend](inputs []*Tensor[B]) ([]*Tensor[B], error) {
	return append([]*Tensor[B](nil), inputs...), nil
}

// IdentityMeta is the FnMetaFunc of Identity.
func IdentityMeta(inputs []tensor.Shape) (Meta, error) {
	return Meta{OutShapes: cloneShapes(inputs)}, nil
}

// AddAll is an FnFunc summing all inputs with broadcasting.
func AddAll[B tensor.Backend](inputs []*Tensor[B]) ([]*Tensor[B], error) {
	if _, err := AddAllMeta(ShapesOf(inputs)); err != nil {
		return nil, err
	}
	acc := inputs[0]
	for _, x := range inputs[1:] {
		acc = acc.Add(x)
	}
	return []*Tensor[B]{acc}, nil
}

// AddAllMeta is the FnMetaFunc of AddAll.
func AddAllMeta(inputs []tensor.Shape) (Meta, error) {
	if len(inputs) == 0 {
		return Meta{}, configErrorf("add", "needs at least one input")
	}
	if inputs[0] == nil {
		return Meta{}, shapeErrorf("add", "input 0 is absent")
	}
	out := inputs[0].Clone()
	var cost int64
	for i, s := range inputs[1:] {
		if s == nil {
			return Meta{}, shapeErrorf("add", "input %d is absent", i+1)
		}
		b, _, err := tensor.BroadcastShapes(out, s)
		if err != nil {
			return Meta{}, shapeErrorf("add", "%v", err)
		}
		out = b
		cost += int64(out.NumElements())
	}
	return Meta{Cost: cost, OutShapes: []tensor.Shape{out}}, nil
}

func singleInput(module string, inputs []tensor.Shape) (tensor.Shape, error) {
	if len(inputs) != 1 {
		return nil, configErrorf(module, "expects exactly 1 input, got %d", len(inputs))
	}
	if inputs[0] == nil {
		return nil, shapeErrorf(module, "input is absent")
	}
	return inputs[0], nil
}

// variable fetches a declared leaf from theta and checks its shape.
func variable[B tensor.Backend](module string, theta *Theta[B], v Variable) (*Tensor[B], error) {
	t, ok := theta.Get(v.Path)
	if !ok || t == nil {
		return nil, configErrorf(module, "parameter tree has no variable %q", v.Path)
	}
	if !t.Shape().Equal(v.Shape) {
		return nil, shapeErrorf(module, "variable %q has shape %v, want %v", v.Path, t.Shape(), v.Shape)
	}
	return t, nil
}

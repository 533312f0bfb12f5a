package nn

import (
	"github.com/apoorvakumar2306/lingvo/internal/tensor"
)

// FirstN returns the first n of its inputs.
type FirstN[B tensor.Backend] struct {
	name string
	n    int
}

// NewFirstN creates a FirstN selector. n must be positive.
func NewFirstN[B tensor.Backend](name string, n int) (*FirstN[B], error) {
	if err := validateName("FirstN", name); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, configErrorf(name, "n must be positive, got %d", n)
	}
	return &FirstN[B]{name: name, n: n}, nil
}

// Name implements Module.
func (f *FirstN[B]) Name() string { return f.name }

// Variables implements Module. FirstN has no parameters.
func (f *FirstN[B]) Variables() []Variable { return nil }

// Forward implements Module.
func (f *FirstN[B]) Forward(_ *Theta[B], inputs ...*Tensor[B]) ([]*Tensor[B], error) {
	return selectFirst(f.name, f.n, inputs)
}

// InferShapes implements Module.
func (f *FirstN[B]) InferShapes(inputs ...tensor.Shape) (Meta, error) {
	out, err := selectFirst(f.name, f.n, inputs)
	if err != nil {
		return Meta{}, err
	}
	return Meta{OutShapes: cloneShapes(out)}, nil
}

func selectFirst[T any](module string, n int, xs []T) ([]T, error) {
	if len(xs) < n {
		return nil, configErrorf(module, "need at least %d inputs, got %d", n, len(xs))
	}
	return append([]T(nil), xs[:n]...), nil
}

// ArgIndex returns its inputs at the configured indices, in order.
// Indices may repeat.
type ArgIndex[B tensor.Backend] struct {
	name    string
	indices []int
}

// NewArgIndex creates an ArgIndex selector over at least one index.
func NewArgIndex[B tensor.Backend](name string, indices ...int) (*ArgIndex[B], error) {
	if err := validateName("ArgIndex", name); err != nil {
		return nil, err
	}
	if len(indices) == 0 {
		return nil, configErrorf(name, "no indices")
	}
	for _, i := range indices {
		if i < 0 {
			return nil, configErrorf(name, "negative index %d", i)
		}
	}
	return &ArgIndex[B]{name: name, indices: append([]int(nil), indices...)}, nil
}

// Name implements Module.
func (a *ArgIndex[B]) Name() string { return a.name }

// Variables implements Module. ArgIndex has no parameters.
func (a *ArgIndex[B]) Variables() []Variable { return nil }

// Forward implements Module.
func (a *ArgIndex[B]) Forward(_ *Theta[B], inputs ...*Tensor[B]) ([]*Tensor[B], error) {
	return selectIndices(a.name, a.indices, inputs)
}

// InferShapes implements Module.
func (a *ArgIndex[B]) InferShapes(inputs ...tensor.Shape) (Meta, error) {
	out, err := selectIndices(a.name, a.indices, inputs)
	if err != nil {
		return Meta{}, err
	}
	return Meta{OutShapes: cloneShapes(out)}, nil
}

func selectIndices[T any](module string, indices []int, xs []T) ([]T, error) {
	out := make([]T, len(indices))
	for k, i := range indices {
		if i >= len(xs) {
			return nil, configErrorf(module, "index %d out of range for %d inputs", i, len(xs))
		}
		out[k] = xs[i]
	}
	return out, nil
}

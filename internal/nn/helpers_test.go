package nn

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/apoorvakumar2306/lingvo/internal/backend/cpu"
	"github.com/apoorvakumar2306/lingvo/internal/tensor"
)

type cpuBackend = *cpu.CPUBackend

func fromSlice(t *testing.T, data []float32, shape ...int) *Tensor[cpuBackend] {
	t.Helper()
	x, err := tensor.FromSlice(data, tensor.Shape(shape), cpu.New())
	require.NoError(t, err)
	return x
}

func newRNG() *rand.Rand {
	return rand.New(rand.NewSource(42)) //nolint:gosec // deterministic test weights
}

func initTheta(m Module[cpuBackend]) *Theta[cpuBackend] {
	return InitTheta(m, cpu.New(), DefaultInitializer[cpuBackend](newRNG()))
}

func mustLinear(t *testing.T, name string, in, out int) *Linear[cpuBackend] {
	t.Helper()
	l, err := NewLinear[cpuBackend](name, in, out)
	require.NoError(t, err)
	return l
}

func mustReLU(t *testing.T, name string) *Map[cpuBackend] {
	t.Helper()
	m, err := NewReLU[cpuBackend](name)
	require.NoError(t, err)
	return m
}

func mustIdentity(t *testing.T, name string) *Fn[cpuBackend] {
	t.Helper()
	m, err := NewIdentity[cpuBackend](name)
	require.NoError(t, err)
	return m
}

// forwardOne runs m and returns its single output.
func forwardOne(t *testing.T, m Module[cpuBackend], theta *Theta[cpuBackend], inputs ...*Tensor[cpuBackend]) *Tensor[cpuBackend] {
	t.Helper()
	out, err := m.Forward(theta, inputs...)
	require.NoError(t, err)
	require.Len(t, out, 1)
	return out[0]
}

// stepAdder adds its variable w and the extra leaf "step" to its input.
// It exercises carried extra state in the parameter tree.
type stepAdder struct {
	dims int
}

func (s *stepAdder) Name() string { return "adder" }

func (s *stepAdder) Variables() []Variable {
	return []Variable{{Path: "w", Shape: tensor.Shape{s.dims}}}
}

func (s *stepAdder) Forward(theta *Theta[cpuBackend], inputs ...*Tensor[cpuBackend]) ([]*Tensor[cpuBackend], error) {
	w, err := variable("adder", theta, s.Variables()[0])
	if err != nil {
		return nil, err
	}
	y := inputs[0].Add(w)
	if step, ok := theta.Get("step"); ok {
		y = y.Add(step)
	}
	return []*Tensor[cpuBackend]{y}, nil
}

func (s *stepAdder) InferShapes(inputs ...tensor.Shape) (Meta, error) {
	return Meta{Cost: int64(inputs[0].NumElements()), OutShapes: cloneShapes(inputs)}, nil
}

func newBackend() cpuBackend {
	return cpu.New()
}

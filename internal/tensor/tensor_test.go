package tensor_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apoorvakumar2306/lingvo/internal/backend/cpu"
	"github.com/apoorvakumar2306/lingvo/internal/tensor"
)

func TestFromSliceValidatesLength(t *testing.T) {
	_, err := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{2, 2}, cpu.New())
	require.Error(t, err)
}

func TestStackUnstack(t *testing.T) {
	b := cpu.New()
	x, err := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2}, b)
	require.NoError(t, err)
	y, err := tensor.FromSlice([]float32{3, 4}, tensor.Shape{2}, b)
	require.NoError(t, err)

	s := tensor.Stack([]*tensor.Tensor[float32, *cpu.CPUBackend]{x, y})
	assert.Equal(t, tensor.Shape{2, 2}, s.Shape())
	assert.Equal(t, []float32{1, 2, 3, 4}, s.Data())

	parts := s.Unstack()
	require.Len(t, parts, 2)
	assert.Equal(t, []float32{3, 4}, parts[1].Data())
	assert.Equal(t, float32(4), s.At(1, 1))
}

func TestStackShapeMismatchPanics(t *testing.T) {
	b := cpu.New()
	x := tensor.Zeros[float32](tensor.Shape{2}, b)
	y := tensor.Zeros[float32](tensor.Shape{3}, b)
	assert.Panics(t, func() { tensor.Stack([]*tensor.Tensor[float32, *cpu.CPUBackend]{x, y}) })
}

func TestCatSingleClones(t *testing.T) {
	b := cpu.New()
	x := tensor.Full[float32](tensor.Shape{2}, 1, b)

	c := tensor.Cat([]*tensor.Tensor[float32, *cpu.CPUBackend]{x}, 0)
	c.Data()[0] = 5
	assert.Equal(t, float32(1), x.At(0))
}

func TestUniformRange(t *testing.T) {
	rng := rand.New(rand.NewSource(1)) //nolint:gosec // test determinism
	u := tensor.Uniform[float64](tensor.Shape{100}, -0.5, 0.5, rng, cpu.New())
	for _, v := range u.Data() {
		assert.GreaterOrEqual(t, v, -0.5)
		assert.Less(t, v, 0.5)
	}
}

func TestTensorString(t *testing.T) {
	x := tensor.Zeros[float32](tensor.Shape{2, 8}, cpu.New())
	assert.Equal(t, "Tensor[float32][2,8] on CPU", x.String())
}

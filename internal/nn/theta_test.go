package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThetaChildAndSetChild(t *testing.T) {
	theta := NewTheta[cpuBackend]()
	w := fromSlice(t, []float32{1}, 1)
	b := fromSlice(t, []float32{2}, 1)
	theta.Set("seq.proj.w", w)
	theta.Set("seq.bias.b", b)
	theta.Set("step", fromSlice(t, []float32{0}, 1))

	seq := theta.Child("seq")
	assert.Equal(t, []string{"proj.w", "bias.b"}, seq.Keys())
	assert.True(t, seq.HasChild("proj"))
	assert.False(t, seq.HasChild("pro"))

	got, ok := seq.Child("proj").Get("w")
	require.True(t, ok)
	assert.Same(t, w, got)

	rebuilt := NewTheta[cpuBackend]()
	rebuilt.SetChild("outer", seq)
	assert.Equal(t, []string{"outer.proj.w", "outer.bias.b"}, rebuilt.Keys())
}

func TestThetaFlattenPack(t *testing.T) {
	theta := NewTheta[cpuBackend]()
	theta.Set("a", fromSlice(t, []float32{1}, 1))
	theta.Set("b", fromSlice(t, []float32{2}, 1))

	flat := theta.Flatten()
	require.Len(t, flat, 2)

	swapped, err := theta.Pack([]*Tensor[cpuBackend]{flat[1], flat[0]})
	require.NoError(t, err)
	a, _ := swapped.Get("a")
	assert.Equal(t, []float32{2}, a.Data())

	_, err = theta.Pack(flat[:1])
	require.EqualError(t, err, "pack: 1 values for 2 keys")
}

func TestThetaSetKeepsOrder(t *testing.T) {
	theta := NewTheta[cpuBackend]()
	theta.Set("x", fromSlice(t, []float32{1}, 1))
	theta.Set("y", fromSlice(t, []float32{2}, 1))
	theta.Set("x", fromSlice(t, []float32{3}, 1))

	assert.Equal(t, []string{"x", "y"}, theta.Keys())
	x, _ := theta.Get("x")
	assert.Equal(t, []float32{3}, x.Data())
}

func TestNilThetaReads(t *testing.T) {
	var theta *Theta[cpuBackend]
	assert.Equal(t, 0, theta.Len())
	assert.False(t, theta.Has("w"))
	assert.False(t, theta.HasChild("sub"))
	assert.Equal(t, 0, theta.Child("sub").Len())
	assert.Empty(t, theta.Flatten())
}

func TestInitTheta(t *testing.T) {
	seq, err := NewSequential[cpuBackend]("seq", 1, mustLinear(t, "proj", 3, 4))
	require.NoError(t, err)
	bias, err := NewBias[cpuBackend]("bias", 4)
	require.NoError(t, err)
	outer, err := NewSequential[cpuBackend]("outer", 1, seq, bias)
	require.NoError(t, err)

	theta := initTheta(outer)
	assert.Equal(t, []string{"seq.proj.w", "bias.b"}, theta.Keys())

	w, _ := theta.Get("seq.proj.w")
	assert.Equal(t, []int{3, 4}, []int(w.Shape()))
	for _, v := range w.Data() {
		assert.Less(t, v, float32(1.07))
		assert.Greater(t, v, float32(-1.07))
	}
	b, _ := theta.Get("bias.b")
	assert.Equal(t, []float32{0, 0, 0, 0}, b.Data())
}

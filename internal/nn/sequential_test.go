package nn

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apoorvakumar2306/lingvo/internal/tensor"
)

func TestSequentialCostIsSumOfChildren(t *testing.T) {
	proj := mustLinear(t, "proj", 3, 5)
	bias, err := NewBias[cpuBackend]("bias", 5)
	require.NoError(t, err)
	act := mustReLU(t, "act")

	seq, err := NewSequential[cpuBackend]("seq", 1, proj, bias, act)
	require.NoError(t, err)

	in := tensor.Shape{4, 3}
	meta, err := seq.InferShapes(in)
	require.NoError(t, err)

	// Thread shapes through the chain by hand.
	var want int64
	shapes := []tensor.Shape{in}
	for _, m := range []Module[cpuBackend]{proj, bias, act} {
		sub, err := m.InferShapes(shapes...)
		require.NoError(t, err)
		want += sub.Cost
		shapes = sub.OutShapes
	}

	assert.Equal(t, want, meta.Cost)
	assert.Equal(t, int64(4*3*5*2+20+20), meta.Cost)
	if diff := cmp.Diff(shapes, meta.OutShapes); diff != "" {
		t.Errorf("OutShapes mismatch (-want +got):\n%s", diff)
	}

	theta := initTheta(seq)
	x := fromSlice(t, []float32{1, -2, 3, 0, 1, 0, -1, 1, 1, 2, 2, 2}, 4, 3)
	_, err = CheckParity[cpuBackend](seq, theta, x)
	require.NoError(t, err)
}

func TestSequentialForwardMatchesManualChain(t *testing.T) {
	proj := mustLinear(t, "proj", 2, 2)
	act := mustReLU(t, "act")
	seq, err := NewSequential[cpuBackend]("seq", 1, proj, act)
	require.NoError(t, err)

	theta := NewTheta[cpuBackend]()
	theta.Set("proj.w", fromSlice(t, []float32{1, -1, 2, 1}, 2, 2))

	x := fromSlice(t, []float32{1, 1}, 1, 2)
	y := forwardOne(t, seq, theta, x)
	// [1,1] @ [[1,-1],[2,1]] = [3, 0]
	assert.Equal(t, []float32{3, 0}, y.Data())
}

func TestSequentialRepeatNamesCopies(t *testing.T) {
	proj := mustLinear(t, "proj", 3, 3)
	act := mustReLU(t, "act")
	seq, err := NewSequential[cpuBackend]("seq", 2, proj, act)
	require.NoError(t, err)
	assert.Equal(t, 2, seq.Len())

	want := []Variable{
		{Path: "rep.000.proj.w", Shape: tensor.Shape{3, 3}},
		{Path: "rep.001.proj.w", Shape: tensor.Shape{3, 3}},
	}
	if diff := cmp.Diff(want, seq.Variables()); diff != "" {
		t.Errorf("Variables mismatch (-want +got):\n%s", diff)
	}

	meta, err := seq.InferShapes(tensor.Shape{4, 3})
	require.NoError(t, err)
	assert.Equal(t, int64(2*(4*3*3*2+12)), meta.Cost)

	// Each repetition uses its own weights.
	theta := NewTheta[cpuBackend]()
	theta.Set("rep.000.proj.w", fromSlice(t, []float32{2, 0, 0, 0, 2, 0, 0, 0, 2}, 3, 3))
	theta.Set("rep.001.proj.w", fromSlice(t, []float32{3, 0, 0, 0, 3, 0, 0, 0, 3}, 3, 3))
	y := forwardOne(t, seq, theta, fromSlice(t, []float32{1, -1, 2}, 1, 3))
	assert.Equal(t, []float32{6, 0, 12}, y.Data())
}

func TestSequentialThetaAlignment(t *testing.T) {
	seq, err := NewSequential[cpuBackend]("seq", 1, mustLinear(t, "proj", 2, 2), mustReLU(t, "act"))
	require.NoError(t, err)
	x := fromSlice(t, []float32{1, 1}, 1, 2)

	_, err = seq.Forward(NewTheta[cpuBackend](), x)
	require.ErrorIs(t, err, ErrConfig)
	assert.Contains(t, err.Error(), "proj")

	// Extra leaves are carried state, not a misalignment.
	theta := initTheta(seq)
	theta.Set("global_step", fromSlice(t, []float32{7}, 1))
	_, err = seq.Forward(theta, x)
	require.NoError(t, err)
}

func TestSequentialConstruction(t *testing.T) {
	proj := mustLinear(t, "proj", 2, 2)

	_, err := NewSequential[cpuBackend]("seq", 0, proj)
	require.ErrorIs(t, err, ErrConfig)

	_, err = NewSequential[cpuBackend]("seq", 1, proj, proj)
	require.ErrorIs(t, err, ErrConfig)

	_, err = NewSequential[cpuBackend]("a.b", 1, proj)
	require.ErrorIs(t, err, ErrConfig)

	_, err = NewSequential[cpuBackend]("seq", 1, nil)
	require.ErrorIs(t, err, ErrConfig)
}

func TestSequentialPropagatesChildErrors(t *testing.T) {
	seq, err := NewSequential[cpuBackend]("seq", 1, mustLinear(t, "proj", 3, 2))
	require.NoError(t, err)

	_, err = seq.InferShapes(tensor.Shape{4, 2})
	require.ErrorIs(t, err, ErrShapeMismatch)
	assert.Contains(t, err.Error(), "seq")
	assert.Contains(t, err.Error(), "proj")
}

func TestUnarySequential(t *testing.T) {
	u, err := NewUnarySequential[cpuBackend]("u", mustLinear(t, "proj", 2, 3), mustReLU(t, "act"))
	require.NoError(t, err)

	theta := initTheta(u)
	x := fromSlice(t, []float32{1, 2, 3, 4}, 2, 2)
	meta, err := CheckParity[cpuBackend](u, theta, x)
	require.NoError(t, err)
	assert.Equal(t, int64(2*2*3*2+6), meta.Cost)

	_, err = u.Forward(theta, x, x)
	require.ErrorIs(t, err, ErrConfig)

	two, err := NewUnarySequential[cpuBackend]("u2", mustIdentity(t, "id"))
	require.NoError(t, err)
	_, err = two.InferShapes(tensor.Shape{1}, tensor.Shape{1})
	require.ErrorIs(t, err, ErrConfig)
}

package nn

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apoorvakumar2306/lingvo/internal/parallel"
	"github.com/apoorvakumar2306/lingvo/internal/tensor"
)

func TestRepeatOnceEqualsBody(t *testing.T) {
	body := mustLinear(t, "proj", 3, 3)
	rep, err := NewRepeat[cpuBackend]("rep", body, 1)
	require.NoError(t, err)

	theta := initTheta(rep)
	w, ok := theta.Get("body.w")
	require.True(t, ok)
	assert.Equal(t, tensor.Shape{1, 3, 3}, w.Shape())

	bodyTheta := NewTheta[cpuBackend]()
	bodyTheta.Set("w", w.Index(0))

	x := fromSlice(t, []float32{1, 2, 3, -1, 0, 1}, 2, 3)
	got := forwardOne(t, rep, theta, x)
	want := forwardOne(t, body, bodyTheta, x)
	assert.Equal(t, want.Data(), got.Data())
	assert.Equal(t, want.Shape(), got.Shape())
}

func TestRepeatThreadsStateAndSlicesTheta(t *testing.T) {
	body := &stepAdder{dims: 2}
	rep, err := NewRepeat[cpuBackend]("rep", body, 3)
	require.NoError(t, err)

	theta := NewTheta[cpuBackend]()
	theta.Set("body.w", fromSlice(t, []float32{0, 0, 1, 1, 2, 2}, 3, 2))
	// Scalar extra state is replicated to every iteration.
	step, err := tensor.FromSlice([]float32{10}, tensor.Shape{}, newBackend())
	require.NoError(t, err)
	theta.Set("body.step", step)

	y := forwardOne(t, rep, theta, fromSlice(t, []float32{1, 2}, 2))
	assert.Equal(t, []float32{34, 35}, y.Data())
}

func TestRepeatMeta(t *testing.T) {
	rep, err := NewRepeat[cpuBackend]("rep", mustLinear(t, "proj", 4, 4), 3)
	require.NoError(t, err)

	meta, err := rep.InferShapes(tensor.Shape{2, 4})
	require.NoError(t, err)
	assert.Equal(t, int64(3*2*4*4*2), meta.Cost)
	if diff := cmp.Diff([]tensor.Shape{{2, 4}}, meta.OutShapes); diff != "" {
		t.Errorf("OutShapes mismatch (-want +got):\n%s", diff)
	}

	want := []Variable{{Path: "body.w", Shape: tensor.Shape{3, 4, 4}}}
	if diff := cmp.Diff(want, rep.Variables()); diff != "" {
		t.Errorf("Variables mismatch (-want +got):\n%s", diff)
	}

	_, err = CheckParity[cpuBackend](rep, initTheta(rep), fromSlice(t, make([]float32, 8), 2, 4))
	require.NoError(t, err)
}

func TestRepeatRejectsShapeChangingBody(t *testing.T) {
	rep, err := NewRepeat[cpuBackend]("rep", mustLinear(t, "proj", 4, 2), 2)
	require.NoError(t, err)

	_, err = rep.Forward(initTheta(rep), fromSlice(t, make([]float32, 4), 1, 4))
	require.ErrorIs(t, err, ErrShapeMismatch)
	_, err = rep.InferShapes(tensor.Shape{1, 4})
	require.ErrorIs(t, err, ErrShapeMismatch)
	assert.Contains(t, err.Error(), "body changes carried state 0 from [1,4] to [1,2]")

	absent, err := NewRepeat[cpuBackend]("absent", mustIdentity(t, "id"), 2)
	require.NoError(t, err)
	meta, err := absent.InferShapes(tensor.Shape{2}, nil)
	require.NoError(t, err)
	assert.Nil(t, meta.OutShapes[1])

	first, err := NewFirstN[cpuBackend]("first", 1)
	require.NoError(t, err)
	arity, err := NewRepeat[cpuBackend]("arity", first, 2)
	require.NoError(t, err)
	_, err = arity.InferShapes(tensor.Shape{1}, tensor.Shape{1})
	require.ErrorIs(t, err, ErrStructuralInconsistency)
}

func TestRepeatCarriesAbsentInputs(t *testing.T) {
	rep, err := NewRepeat[cpuBackend]("rep", mustIdentity(t, "id"), 4)
	require.NoError(t, err)

	x := fromSlice(t, []float32{1, 2}, 2)
	out, err := rep.Forward(nil, x, nil)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, []float32{1, 2}, out[0].Data())
	assert.Nil(t, out[1])
}

func TestRepeatConstruction(t *testing.T) {
	_, err := NewRepeat[cpuBackend]("rep", mustIdentity(t, "id"), 0)
	require.ErrorIs(t, err, ErrConfig)
	_, err = NewRepeat[cpuBackend]("rep", nil, 2)
	require.ErrorIs(t, err, ErrConfig)
}

func TestParallelRepeatIdentity(t *testing.T) {
	for name, cfg := range map[string]parallel.Config{
		"parallel":   {Enabled: true, NumWorkers: 2, MinChunkSize: 1},
		"sequential": parallel.Sequential(),
	} {
		t.Run(name, func(t *testing.T) {
			pr, err := NewParallelRepeat[cpuBackend]("pr", mustIdentity(t, "id"), 3)
			require.NoError(t, err)
			pr.SetParallelism(cfg)

			a := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, 3, 2)
			b := fromSlice(t, []float32{7, 8, 9}, 3)
			out, err := pr.Forward(nil, a, b)
			require.NoError(t, err)
			require.Len(t, out, 2)
			assert.Equal(t, a.Data(), out[0].Data())
			assert.Equal(t, a.Shape(), out[0].Shape())
			assert.Equal(t, b.Data(), out[1].Data())
		})
	}
}

func TestParallelRepeatIndependentSlices(t *testing.T) {
	pr, err := NewParallelRepeat[cpuBackend]("pr", mustLinear(t, "proj", 2, 1), 2)
	require.NoError(t, err)

	theta := NewTheta[cpuBackend]()
	theta.Set("body.w", fromSlice(t, []float32{1, 1, 2, -1}, 2, 2, 1))

	x := fromSlice(t, []float32{1, 2, 3, 4}, 2, 1, 2)
	meta, err := CheckParity[cpuBackend](pr, theta, x)
	require.NoError(t, err)
	assert.Equal(t, int64(2*2*1*2), meta.Cost)

	y := forwardOne(t, pr, theta, x)
	assert.Equal(t, tensor.Shape{2, 1, 1}, y.Shape())
	// slice 0: [1,2]·[1,1] = 3; slice 1: [3,4]·[2,-1] = 2
	assert.Equal(t, []float32{3, 2}, y.Data())
}

func TestParallelRepeatLeadingDimension(t *testing.T) {
	pr, err := NewParallelRepeat[cpuBackend]("pr", mustIdentity(t, "id"), 3)
	require.NoError(t, err)

	_, err = pr.Forward(nil, fromSlice(t, []float32{1, 2}, 2))
	require.ErrorIs(t, err, ErrShapeMismatch)

	_, err = pr.InferShapes(tensor.Shape{})
	require.ErrorIs(t, err, ErrShapeMismatch)

	meta, err := pr.InferShapes(tensor.Shape{3, 5}, nil)
	require.NoError(t, err)
	if diff := cmp.Diff([]tensor.Shape{{3, 5}, nil}, meta.OutShapes); diff != "" {
		t.Errorf("OutShapes mismatch (-want +got):\n%s", diff)
	}
}

package nn

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apoorvakumar2306/lingvo/internal/cluster"
	"github.com/apoorvakumar2306/lingvo/internal/tensor"
)

func TestBranchFetchesSequentialChildren(t *testing.T) {
	mlp, err := NewSequential[cpuBackend]("mlp", 1,
		mustLinear(t, "hidden", 3, 4), mustReLU(t, "act"), mustLinear(t, "out", 4, 2))
	require.NoError(t, err)
	bodyMeta, err := mlp.InferShapes(tensor.Shape{2, 3})
	require.NoError(t, err)

	b, err := NewBranch[cpuBackend]("b", mlp, "act", "hidden")
	require.NoError(t, err)
	assert.Equal(t, []string{"act", "hidden"}, b.Fetches())

	want := []Variable{
		{Path: "body.hidden.w", Shape: tensor.Shape{3, 4}},
		{Path: "body.out.w", Shape: tensor.Shape{4, 2}},
	}
	if diff := cmp.Diff(want, b.Variables()); diff != "" {
		t.Errorf("Variables mismatch (-want +got):\n%s", diff)
	}

	theta := initTheta(b)
	x := fromSlice(t, []float32{1, -2, 3, 0.5, 1, -1}, 2, 3)
	out, err := b.Forward(theta, x)
	require.NoError(t, err)
	require.Len(t, out, 3)

	body := theta.Child("body")
	hidden := forwardOne(t, mustLinear(t, "hidden", 3, 4), body.Child("hidden"), x)
	act := forwardOne(t, mustReLU(t, "act"), nil, hidden)
	y := forwardOne(t, mustLinear(t, "out", 4, 2), body.Child("out"), act)
	assert.Equal(t, y.Data(), out[0].Data())
	assert.Equal(t, act.Data(), out[1].Data())
	assert.Equal(t, hidden.Data(), out[2].Data())

	meta, err := CheckParity[cpuBackend](b, theta, x)
	require.NoError(t, err)
	assert.Equal(t, bodyMeta.Cost, meta.Cost)
	assert.Equal(t, []tensor.Shape{{2, 2}, {2, 4}, {2, 4}}, meta.OutShapes)
}

func TestBranchFetchReportsLastRepeatIteration(t *testing.T) {
	rep, err := NewRepeat[cpuBackend]("rep", &stepAdder{dims: 2}, 3)
	require.NoError(t, err)
	b, err := NewBranch[cpuBackend]("b", rep, "body")
	require.NoError(t, err)

	theta := NewTheta[cpuBackend]()
	theta.Set("body.body.w", fromSlice(t, []float32{0, 0, 1, 1, 2, 2}, 3, 2))

	out, err := b.Forward(theta, fromSlice(t, []float32{1, 2}, 2))
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, []float32{4, 5}, out[0].Data())
	assert.Equal(t, []float32{4, 5}, out[1].Data())

	meta, err := b.InferShapes(tensor.Shape{2})
	require.NoError(t, err)
	assert.Equal(t, []tensor.Shape{{2}, {2}}, meta.OutShapes)
	assert.Equal(t, int64(3*2), meta.Cost)
}

func TestBranchNestedPaths(t *testing.T) {
	seq, err := NewSequential[cpuBackend]("seq", 2, mustLinear(t, "proj", 2, 2))
	require.NoError(t, err)
	g, err := NewGraph("g", GraphConfig[cpuBackend]{
		InputEndpoints:  []string{"x"},
		OutputEndpoints: []string{"z"},
		Subs: []GraphSub[cpuBackend]{
			{Signature: "x->y", Module: seq},
			{Signature: "y->z", Module: mustReLU(t, "act")},
		},
	})
	require.NoError(t, err)

	b, err := NewBranch[cpuBackend]("b", g, "seq.rep.000.proj", "seq.rep.001", "seq")
	require.NoError(t, err)

	theta := initTheta(b)
	x := fromSlice(t, []float32{1, -1, 2, 0}, 2, 2)
	meta, err := CheckParity[cpuBackend](b, theta, x)
	require.NoError(t, err)
	assert.Equal(t, []tensor.Shape{{2, 2}, {2, 2}, {2, 2}, {2, 2}}, meta.OutShapes)

	out, err := b.Forward(theta, x)
	require.NoError(t, err)
	require.Len(t, out, 4)
	first := forwardOne(t, mustLinear(t, "proj", 2, 2), theta.Child("body").Child("seq").Child("rep.000").Child("proj"), x)
	assert.Equal(t, first.Data(), out[1].Data())
	// The second repetition is the last module of seq.
	assert.Equal(t, out[3].Data(), out[2].Data())

	// The fetched modules keep their parameter keys.
	assert.Equal(t, g.Variables(), prefixlessBody(b.Variables()))
}

func prefixlessBody(vars []Variable) []Variable {
	out := make([]Variable, len(vars))
	for i, v := range vars {
		out[i] = Variable{Path: v.Path[len("body."):], Shape: v.Shape}
	}
	return out
}

func TestBranchWithoutFetchesIsBody(t *testing.T) {
	b, err := NewBranch[cpuBackend]("b", mustLinear(t, "proj", 3, 2))
	require.NoError(t, err)
	meta, err := CheckParity[cpuBackend](b, initTheta(b), fromSlice(t, make([]float32, 3), 1, 3))
	require.NoError(t, err)
	assert.Equal(t, []tensor.Shape{{1, 2}}, meta.OutShapes)
	assert.Equal(t, int64(1*3*2*2), meta.Cost)
}

func TestBranchErrors(t *testing.T) {
	newSeq := func(t *testing.T) Module[cpuBackend] {
		seq, err := NewSequential[cpuBackend]("seq", 1, mustLinear(t, "proj", 3, 3), mustReLU(t, "act"))
		require.NoError(t, err)
		return seq
	}
	bp, err := NewBatchParallel[cpuBackend]("bp", mustReLU(t, "act"), cluster.NewLocal(tensor.CPU, 2))
	require.NoError(t, err)

	tests := []struct {
		name    string
		body    Module[cpuBackend]
		fetches []string
	}{
		{"nil body", nil, nil},
		{"unknown path", newSeq(t), []string{"nope"}},
		{"path below leaf", newSeq(t), []string{"act.inner"}},
		{"empty segment", newSeq(t), []string{"proj..w"}},
		{"duplicate", newSeq(t), []string{"act", "act"}},
		{"inside batch parallel", bp, []string{"act"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBranch[cpuBackend]("b", tt.body, tt.fetches...)
			require.ErrorIs(t, err, ErrConfig)
		})
	}

	b, err := NewBranch[cpuBackend]("b", newSeq(t), "act")
	require.NoError(t, err)
	_, err = b.InferShapes(tensor.Shape{1, 2})
	require.ErrorIs(t, err, ErrShapeMismatch)
	_, err = b.Forward(initTheta(b), fromSlice(t, []float32{1, 2}, 1, 2))
	require.ErrorIs(t, err, ErrShapeMismatch)
	_, err = b.Forward(nil, fromSlice(t, []float32{1, 2, 3}, 1, 3))
	require.ErrorIs(t, err, ErrConfig)
}

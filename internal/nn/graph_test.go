package nn

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apoorvakumar2306/lingvo/internal/tensor"
)

func reluAddGraph(t *testing.T) *Graph[cpuBackend] {
	t.Helper()
	add, err := NewAdd[cpuBackend]("add")
	require.NoError(t, err)
	g, err := NewGraph("g", GraphConfig[cpuBackend]{
		InputEndpoints:  []string{"a", "b"},
		OutputEndpoints: []string{"d"},
		Subs: []GraphSub[cpuBackend]{
			{Signature: "a->c", Module: mustReLU(t, "relu")},
			{Signature: "c,b->d", Module: add},
		},
	})
	require.NoError(t, err)
	return g
}

func TestGraphReluAdd(t *testing.T) {
	g := reluAddGraph(t)

	a := fromSlice(t, []float32{-1, 2}, 2)
	b := fromSlice(t, []float32{1, 1}, 2)
	y := forwardOne(t, g, nil, a, b)
	if diff := cmp.Diff([]float32{1, 3}, y.Data()); diff != "" {
		t.Errorf("graph output mismatch (-want +got):\n%s", diff)
	}

	meta, err := g.InferShapes(tensor.Shape{2}, tensor.Shape{2})
	require.NoError(t, err)
	assert.Equal(t, int64(4), meta.Cost)
	assert.Equal(t, []tensor.Shape{{2}}, meta.OutShapes)
}

func TestGraphDottedNames(t *testing.T) {
	g, err := NewGraph("g", GraphConfig[cpuBackend]{
		InputEndpoints:  []string{"x"},
		OutputEndpoints: []string{"enc.h", "enc.y"},
		Subs: []GraphSub[cpuBackend]{
			{Signature: "x->enc.h", Module: mustLinear(t, "proj", 2, 3)},
			{Signature: "enc.h->enc.y", Module: mustReLU(t, "act")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []Variable{{Path: "proj.w", Shape: tensor.Shape{2, 3}}}, g.Variables())

	x := fromSlice(t, []float32{1, 2}, 1, 2)
	meta, err := CheckParity[cpuBackend](g, initTheta(g), x)
	require.NoError(t, err)
	assert.Equal(t, []tensor.Shape{{1, 3}, {1, 3}}, meta.OutShapes)
}

func TestGraphNamespaceViolations(t *testing.T) {
	tests := []struct {
		name    string
		inputs  []string
		outputs []string
		sigs    []string
		op      string
	}{
		{"undefined read", []string{"a"}, []string{"c"}, []string{"b->c"}, "read"},
		{"double write", []string{"a"}, []string{"a"}, []string{"a->a"}, "write"},
		{"undefined output", []string{"a"}, []string{"z"}, []string{"a->c"}, "read"},
		{"write below leaf", []string{"a"}, []string{"a.b"}, []string{"a->a.b"}, "write"},
		{"read group", []string{"a"}, []string{"x"}, []string{"a->x.y", "x->z"}, "read"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subs := make([]GraphSub[cpuBackend], len(tt.sigs))
			for i, sig := range tt.sigs {
				subs[i] = GraphSub[cpuBackend]{Signature: sig, Module: mustIdentity(t, "id"+string(rune('0'+i)))}
			}
			_, err := NewGraph("g", GraphConfig[cpuBackend]{
				InputEndpoints:  tt.inputs,
				OutputEndpoints: tt.outputs,
				Subs:            subs,
			})
			require.ErrorIs(t, err, ErrShapeMismatch)
			var nsErr *NamespaceError
			require.True(t, errors.As(err, &nsErr))
			assert.Equal(t, tt.op, nsErr.Op)
		})
	}
}

func TestGraphConfigErrors(t *testing.T) {
	id := mustIdentity(t, "id")
	tests := []struct {
		name string
		cfg  GraphConfig[cpuBackend]
	}{
		{"no inputs", GraphConfig[cpuBackend]{OutputEndpoints: []string{"a"}}},
		{"no outputs", GraphConfig[cpuBackend]{InputEndpoints: []string{"a"}}},
		{"bad endpoint", GraphConfig[cpuBackend]{InputEndpoints: []string{"1a"}, OutputEndpoints: []string{"a"}}},
		{"bad signature", GraphConfig[cpuBackend]{
			InputEndpoints: []string{"a"}, OutputEndpoints: []string{"b"},
			Subs: []GraphSub[cpuBackend]{{Signature: "a=>b", Module: id}},
		}},
		{"nil module", GraphConfig[cpuBackend]{
			InputEndpoints: []string{"a"}, OutputEndpoints: []string{"b"},
			Subs: []GraphSub[cpuBackend]{{Signature: "a->b"}},
		}},
		{"duplicate name", GraphConfig[cpuBackend]{
			InputEndpoints: []string{"a"}, OutputEndpoints: []string{"c"},
			Subs: []GraphSub[cpuBackend]{{Signature: "a->b", Module: id}, {Signature: "b->c", Module: id}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGraph("g", tt.cfg)
			require.ErrorIs(t, err, ErrConfig)
		})
	}
}

func TestGraphRejectsUnnamedSub(t *testing.T) {
	unnamed := &Fn[cpuBackend]{fn: Identity[cpuBackend], fnMeta: IdentityMeta}
	_, err := NewGraph("g", GraphConfig[cpuBackend]{
		InputEndpoints:  []string{"a"},
		OutputEndpoints: []string{"out.c"},
		Subs: []GraphSub[cpuBackend]{
			{Signature: "a->out.c", Module: unnamed},
		},
	})
	require.ErrorIs(t, err, ErrConfig)
	assert.Contains(t, err.Error(), "empty module name")
}

func TestGraphArity(t *testing.T) {
	g := reluAddGraph(t)

	_, err := g.Forward(nil, fromSlice(t, []float32{1}, 1))
	require.ErrorIs(t, err, ErrConfig)

	_, err = g.InferShapes(tensor.Shape{2})
	require.ErrorIs(t, err, ErrConfig)
}

func TestGraphOutputCountMismatch(t *testing.T) {
	// The signature declares two outputs but relu returns one per input.
	g, err := NewGraph("g", GraphConfig[cpuBackend]{
		InputEndpoints:  []string{"a"},
		OutputEndpoints: []string{"b"},
		Subs: []GraphSub[cpuBackend]{
			{Signature: "a->b,c", Module: mustReLU(t, "relu")},
		},
	})
	require.NoError(t, err)

	_, err = g.InferShapes(tensor.Shape{2})
	require.ErrorIs(t, err, ErrConfig)
}

func TestGraphMissingSubParameters(t *testing.T) {
	g, err := NewGraph("g", GraphConfig[cpuBackend]{
		InputEndpoints:  []string{"x"},
		OutputEndpoints: []string{"y"},
		Subs:            []GraphSub[cpuBackend]{{Signature: "x->y", Module: mustLinear(t, "proj", 2, 2)}},
	})
	require.NoError(t, err)

	_, err = g.Forward(NewTheta[cpuBackend](), fromSlice(t, []float32{1, 2}, 1, 2))
	require.ErrorIs(t, err, ErrConfig)
}

package nn

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apoorvakumar2306/lingvo/internal/tensor"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { SetLogger(nil) })
	return &buf
}

func TestPrintShape(t *testing.T) {
	buf := captureLogs(t)

	p, err := NewPrintShape[cpuBackend]("probe")
	require.NoError(t, err)

	x := fromSlice(t, []float32{1, 2, 3, 4, 5, 6}, 2, 3)
	out, err := p.Forward(nil, x, nil)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Same(t, x, out[0])
	assert.Nil(t, out[1])

	logs := buf.String()
	assert.Contains(t, logs, "msg=\"forward input\"")
	assert.Contains(t, logs, "module=probe")
	assert.Contains(t, logs, "shape=[2,3]")
	assert.Contains(t, logs, "dtype=float32")
	assert.Contains(t, logs, "msg=\"forward non-tensor input\"")

	meta, err := p.InferShapes(tensor.Shape{2, 3}, nil)
	require.NoError(t, err)
	assert.Zero(t, meta.Cost)
	assert.Equal(t, []tensor.Shape{{2, 3}, nil}, meta.OutShapes)
}

func TestComposerTraces(t *testing.T) {
	buf := captureLogs(t)

	g := reluAddGraph(t)
	_, err := g.Forward(nil, fromSlice(t, []float32{1}, 1), fromSlice(t, []float32{2}, 1))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "msg=\"graph call\"")
	assert.Contains(t, buf.String(), "signature=c,b->d")
}

func TestMapSkipsAbsent(t *testing.T) {
	relu := mustReLU(t, "relu")

	out, err := relu.Forward(nil, nil, fromSlice(t, []float32{-1, 1}, 2))
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Nil(t, out[0])
	assert.Equal(t, []float32{0, 1}, out[1].Data())

	meta, err := relu.InferShapes(nil, tensor.Shape{2})
	require.NoError(t, err)
	assert.Equal(t, int64(2), meta.Cost)
	assert.Equal(t, []tensor.Shape{nil, {2}}, meta.OutShapes)
}

func TestFnConfig(t *testing.T) {
	_, err := NewFn[cpuBackend]("f", nil, IdentityMeta)
	require.ErrorIs(t, err, ErrConfig)

	_, err = NewMap[cpuBackend]("m", ReLU[cpuBackend], nil)
	require.ErrorIs(t, err, ErrConfig)

	_, err = NewFn[cpuBackend]("a.b", Identity[cpuBackend], IdentityMeta)
	require.ErrorIs(t, err, ErrConfig)
}

func TestAddAllBroadcast(t *testing.T) {
	add, err := NewAdd[cpuBackend]("add")
	require.NoError(t, err)

	meta, err := add.InferShapes(tensor.Shape{2, 3}, tensor.Shape{3}, tensor.Shape{1, 3})
	require.NoError(t, err)
	assert.Equal(t, []tensor.Shape{{2, 3}}, meta.OutShapes)
	assert.Equal(t, int64(12), meta.Cost)

	_, err = add.InferShapes(tensor.Shape{2, 3}, tensor.Shape{4})
	require.ErrorIs(t, err, ErrShapeMismatch)

	_, err = add.InferShapes(tensor.Shape{2}, nil)
	require.ErrorIs(t, err, ErrShapeMismatch)
}

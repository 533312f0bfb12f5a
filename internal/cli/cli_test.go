package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"

	"github.com/apoorvakumar2306/lingvo/internal/tensor"
)

func TestParseHelp(t *testing.T) {
	for _, args := range [][]string{nil, {"-h"}, {"help"}, {"infer", "-h"}} {
		var out bytes.Buffer
		opts, exit, err := Parse(args, &out)
		require.NoError(t, err)
		assert.True(t, exit)
		assert.Nil(t, opts)
		assert.Contains(t, out.String(), "Usage:")
	}
}

func TestParseInfer(t *testing.T) {
	var out bytes.Buffer
	opts, exit, err := Parse([]string{
		"infer", "-module", "mlp", "-var", "width=8", "-var", "act=relu",
		"-input", "2,8", "-input", "-", "-log-level", "DEBUG", "model.hcl", "more",
	}, &out)
	require.NoError(t, err)
	require.False(t, exit)

	assert.Equal(t, CommandInfer, opts.Command)
	assert.Equal(t, "mlp", opts.Module)
	assert.Equal(t, []string{"model.hcl", "more"}, opts.Paths)
	assert.Equal(t, []tensor.Shape{{2, 8}, nil}, opts.Inputs)
	assert.Equal(t, "debug", opts.LogLevel)
	assert.Equal(t, "text", opts.LogFormat)
	assert.Equal(t, int64(1), opts.Seed)
	assert.Equal(t, 1, opts.Workers)
	require.Contains(t, opts.Vars, "width")
	assert.True(t, opts.Vars["width"].Equals(cty.NumberIntVal(8)).True())
	assert.True(t, opts.Vars["act"].Equals(cty.StringVal("relu")).True())
}

func TestParseVersion(t *testing.T) {
	opts, exit, err := Parse([]string{"version"}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.False(t, exit)
	assert.Equal(t, CommandVersion, opts.Command)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown command", []string{"train", "m.hcl"}},
		{"missing path", []string{"run"}},
		{"bad format", []string{"run", "-log-format", "xml", "m.hcl"}},
		{"bad level", []string{"run", "-log-level", "trace", "m.hcl"}},
		{"bad shape", []string{"run", "-input", "2,x", "m.hcl"}},
		{"zero dim", []string{"run", "-input", "2,0", "m.hcl"}},
		{"bad var", []string{"run", "-var", "novalue", "m.hcl"}},
		{"unknown flag", []string{"run", "-nope", "m.hcl"}},
		{"negative workers", []string{"run", "-workers", "-1", "m.hcl"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Parse(tt.args, &bytes.Buffer{})
			var exitErr *ExitError
			require.ErrorAs(t, err, &exitErr)
			assert.Equal(t, 2, exitErr.Code)
		})
	}
}

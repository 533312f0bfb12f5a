// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"testing"

	"github.com/apoorvakumar2306/lingvo/backend/cpu"
	"github.com/apoorvakumar2306/lingvo/tensor"
)

// TestBackendInterface verifies that cpu.Backend implements tensor.Backend.
func TestBackendInterface(_ *testing.T) {
	var _ tensor.Backend = (*cpu.Backend)(nil)
}

// TestRawTensorAPI verifies RawTensor type alias exposes expected API.
func TestRawTensorAPI(t *testing.T) {
	raw, err := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CPU)
	if err != nil {
		t.Fatalf("NewRaw failed: %v", err)
	}
	if !raw.Shape().Equal(tensor.Shape{2, 3}) {
		t.Errorf("Shape() = %v, want [2,3]", raw.Shape())
	}
	if raw.DType() != tensor.Float32 {
		t.Errorf("DType() = %v, want Float32", raw.DType())
	}
	if raw.Device() != tensor.CPU {
		t.Errorf("Device() = %v, want CPU", raw.Device())
	}
}

func TestStackAndCat(t *testing.T) {
	backend := cpu.New()
	a, err := tensor.FromSlice([]float32{1, 2}, tensor.Shape{2}, backend)
	if err != nil {
		t.Fatal(err)
	}
	b := tensor.Full[float32](tensor.Shape{2}, 5, backend)

	s := tensor.Stack([]*tensor.Tensor[float32, *cpu.Backend]{a, b})
	if !s.Shape().Equal(tensor.Shape{2, 2}) {
		t.Fatalf("Stack shape = %v, want [2,2]", s.Shape())
	}
	c := tensor.Cat([]*tensor.Tensor[float32, *cpu.Backend]{s, s}, -1)
	want := []float32{1, 2, 1, 2, 5, 5, 5, 5}
	for i, v := range c.Data() {
		if v != want[i] {
			t.Fatalf("Cat data = %v, want %v", c.Data(), want)
		}
	}
}

func TestParseShape(t *testing.T) {
	s, err := tensor.ParseShape("2, 8")
	if err != nil {
		t.Fatal(err)
	}
	if !s.Equal(tensor.Shape{2, 8}) {
		t.Errorf("ParseShape = %v, want [2,8]", s)
	}
	if _, err := tensor.ParseShape("2,-1"); err == nil {
		t.Error("ParseShape accepted a negative dimension")
	}
}

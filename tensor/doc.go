// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public tensor API used by the composition
// layer.
//
// # Overview
//
// This package provides:
//   - Generic tensors (Tensor[T, B]) over float32 and float64
//   - Shapes, including absent (nil) and scalar (Shape{}) shapes
//   - NumPy-style broadcasting for element-wise operations
//   - Zero-copy views along the leading axis (Index, Unstack)
//
// # Basic Usage
//
//	import (
//	    "github.com/apoorvakumar2306/lingvo/backend/cpu"
//	    "github.com/apoorvakumar2306/lingvo/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    x, _ := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
//	    y := x.SumDim(0, false) // [5, 7, 9]
//	}
//
// Kernels panic on invalid shapes. Modules validate shapes before calling
// them and report failures as errors.
package tensor

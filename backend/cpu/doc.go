// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for tensor operations.
//
// # Overview
//
// This package implements a CPU backend with:
//   - Pure Go implementation (no CGO)
//   - Float32 and Float64 support
//   - NumPy-compatible broadcasting for Add and Mul
//   - Zero-copy Reshape; every other kernel allocates its result
//
// # Basic Usage
//
//	import (
//	    "github.com/apoorvakumar2306/lingvo/backend/cpu"
//	    "github.com/apoorvakumar2306/lingvo/nn"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    layer, _ := nn.NewLinear[*cpu.Backend]("proj", 784, 10)
//	    theta := nn.InitTheta(layer, backend, nn.ConstantInitializer[*cpu.Backend](0.1))
//	}
//
// # Thread Safety
//
// The CPU backend is safe for concurrent use. Each tensor operation
// is isolated and does not share mutable state.
package cpu

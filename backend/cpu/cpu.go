// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/apoorvakumar2306/lingvo/internal/backend/cpu"
	"github.com/apoorvakumar2306/lingvo/tensor"
)

// Backend represents the CPU backend implementation.
//
// The CPU backend provides naive pure Go kernels for float32 and float64.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new CPU backend.
//
// Example:
//
//	import (
//	    "github.com/apoorvakumar2306/lingvo/backend/cpu"
//	    "github.com/apoorvakumar2306/lingvo/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	}
func New() *Backend {
	return internalcpu.New()
}

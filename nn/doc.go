// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn composes modules into larger modules declaratively.
//
// # Overview
//
// Every module exposes two structurally parallel operations: Forward runs
// the real computation, and InferShapes derives output shapes and a cost
// estimate from input shapes alone. Composers keep both in step:
//   - Selectors: FirstN, ArgIndex
//   - Chaining: Sequential (optionally repeated), UnarySequential
//   - Stacked repetition: Repeat, ParallelRepeat
//   - Input-dependent blending: SoftCond
//   - Data-flow graphs over a named-tensor namespace: Graph
//   - Branching and batch sharding: Parallel, Branch, BatchParallel
//   - Recompute-on-backward wrapping: Remat
//
// Parameters live in a Theta, a dotted-path tree mirroring the module tree.
//
// # Basic Usage
//
//	import (
//	    "github.com/apoorvakumar2306/lingvo/backend/cpu"
//	    "github.com/apoorvakumar2306/lingvo/nn"
//	)
//
//	type B = *cpu.Backend
//
//	func main() {
//	    l1, _ := nn.NewLinear[B]("l1", 784, 128)
//	    act, _ := nn.NewReLU[B]("act")
//	    l2, _ := nn.NewLinear[B]("l2", 128, 10)
//	    model, _ := nn.NewSequential[B]("mlp", 1, l1, act, l2)
//
//	    meta, _ := model.InferShapes(tensor.Shape{32, 784}) // cost and [32,10]
//	    theta := nn.InitTheta(model, cpu.New(), nn.DefaultInitializer[B](rng))
//	    out, err := model.Forward(theta, x)
//	}
//
// # Errors
//
// Every failure wraps exactly one of ErrConfig, ErrShapeMismatch or
// ErrStructuralInconsistency; classify with errors.Is.
package nn

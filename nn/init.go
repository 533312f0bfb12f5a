// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand"

	"github.com/apoorvakumar2306/lingvo/internal/nn"
	"github.com/apoorvakumar2306/lingvo/tensor"
)

// Initializer creates the initial value of one variable.
type Initializer[B tensor.Backend] = nn.Initializer[B]

// InitTheta creates a parameter tree with one initialized tensor per
// variable of m.
//
// Example:
//
//	rng := rand.New(rand.NewSource(1))
//	theta := nn.InitTheta(model, cpu.New(), nn.DefaultInitializer[*cpu.Backend](rng))
func InitTheta[B tensor.Backend](m Module[B], backend B, init Initializer[B]) *Theta[B] {
	return nn.InitTheta(m, backend, init)
}

// DefaultInitializer uses Xavier for matrices and zeros for vectors.
func DefaultInitializer[B tensor.Backend](rng *rand.Rand) Initializer[B] {
	return nn.DefaultInitializer[B](rng)
}

// ConstantInitializer fills every variable with value.
func ConstantInitializer[B tensor.Backend](value float32) Initializer[B] {
	return nn.ConstantInitializer[B](value)
}

// Xavier creates a tensor drawn from U(-sqrt(6/(fanIn+fanOut)), sqrt(6/(fanIn+fanOut))).
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, rng *rand.Rand, backend B) *Tensor[B] {
	return nn.Xavier(fanIn, fanOut, shape, rng, backend)
}

// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/apoorvakumar2306/lingvo/internal/nn"
	"github.com/apoorvakumar2306/lingvo/tensor"
)

// Leaf layers

// Linear projects the last input dimension: y = x @ w.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a Linear layer with variable w [inputDims, outputDims].
//
// Example:
//
//	layer, err := nn.NewLinear[*cpu.Backend]("proj", 784, 128)
func NewLinear[B tensor.Backend](name string, inputDims, outputDims int) (*Linear[B], error) {
	return nn.NewLinear[B](name, inputDims, outputDims)
}

// Bias adds a learned vector b [dims] to the last input dimension.
type Bias[B tensor.Backend] = nn.Bias[B]

// NewBias creates a Bias layer.
func NewBias[B tensor.Backend](name string, dims int) (*Bias[B], error) {
	return nn.NewBias[B](name, dims)
}

// Function modules

// Fn applies a function to the whole input list.
type Fn[B tensor.Backend] = nn.Fn[B]

// FnFunc computes outputs from the whole input list.
type FnFunc[B tensor.Backend] = nn.FnFunc[B]

// FnMetaFunc is the shape/cost mirror of an FnFunc.
type FnMetaFunc = nn.FnMetaFunc

// NewFn creates an Fn from a function and its shape/cost mirror.
func NewFn[B tensor.Backend](name string, fn FnFunc[B], fnMeta FnMetaFunc) (*Fn[B], error) {
	return nn.NewFn[B](name, fn, fnMeta)
}

// Map applies a function to every present input independently.
type Map[B tensor.Backend] = nn.Map[B]

// MapFunc transforms one tensor.
type MapFunc[B tensor.Backend] = nn.MapFunc[B]

// MapMetaFunc is the shape/cost mirror of a MapFunc.
type MapMetaFunc = nn.MapMetaFunc

// NewMap creates a Map from a function and its shape/cost mirror.
func NewMap[B tensor.Backend](name string, fn MapFunc[B], fnMeta MapMetaFunc) (*Map[B], error) {
	return nn.NewMap[B](name, fn, fnMeta)
}

// NewReLU creates an element-wise ReLU.
func NewReLU[B tensor.Backend](name string) (*Map[B], error) {
	return nn.NewReLU[B](name)
}

// NewSigmoid creates an element-wise logistic sigmoid.
func NewSigmoid[B tensor.Backend](name string) (*Map[B], error) {
	return nn.NewSigmoid[B](name)
}

// NewIdentity creates a module returning its inputs.
func NewIdentity[B tensor.Backend](name string) (*Fn[B], error) {
	return nn.NewIdentity[B](name)
}

// NewAdd creates a module returning the broadcasting sum of its inputs.
func NewAdd[B tensor.Backend](name string) (*Fn[B], error) {
	return nn.NewAdd[B](name)
}

// PrintShape logs the shape and dtype of every input and passes them through.
type PrintShape[B tensor.Backend] = nn.PrintShape[B]

// NewPrintShape creates a PrintShape.
func NewPrintShape[B tensor.Backend](name string) (*PrintShape[B], error) {
	return nn.NewPrintShape[B](name)
}

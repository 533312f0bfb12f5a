// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"log/slog"

	"github.com/apoorvakumar2306/lingvo/internal/nn"
	"github.com/apoorvakumar2306/lingvo/tensor"
)

// Tensor is the float32 tensor type modules operate on.
type Tensor[B tensor.Backend] = nn.Tensor[B]

// Module is the contract every composable unit implements.
//
// Forward and InferShapes must agree: for the same inputs, InferShapes
// reports exactly the output arity and shapes Forward produces. CheckParity
// verifies this on concrete inputs.
type Module[B tensor.Backend] = nn.Module[B]

// Meta is the result of shape inference: a cost estimate and output shapes.
type Meta = nn.Meta

// Variable is a declared parameter: a dotted path and a shape.
type Variable = nn.Variable

// Theta is a parameter tree keyed by dotted path.
type Theta[B tensor.Backend] = nn.Theta[B]

// NewTheta creates an empty parameter tree.
func NewTheta[B tensor.Backend]() *Theta[B] {
	return nn.NewTheta[B]()
}

// ShapesOf returns the shapes of xs, with nil for absent tensors.
func ShapesOf[B tensor.Backend](xs []*Tensor[B]) []tensor.Shape {
	return nn.ShapesOf(xs)
}

// Error classes.
var (
	ErrConfig                  = nn.ErrConfig
	ErrShapeMismatch           = nn.ErrShapeMismatch
	ErrStructuralInconsistency = nn.ErrStructuralInconsistency
)

// NamespaceError reports a graph namespace violation. It matches
// ErrShapeMismatch.
type NamespaceError = nn.NamespaceError

// SetLogger sets the logger for composer traces and PrintShape output.
// A nil logger discards everything.
func SetLogger(l *slog.Logger) {
	nn.SetLogger(l)
}

// CheckParity runs Forward and InferShapes of m on the same inputs and fails
// with ErrStructuralInconsistency if they disagree.
func CheckParity[B tensor.Backend](m Module[B], theta *Theta[B], inputs ...*Tensor[B]) (Meta, error) {
	return nn.CheckParity(m, theta, inputs...)
}

// ShapeReport summarizes one module's inferred meta and variables.
type ShapeReport = nn.ShapeReport

// Report infers the meta of m for inputs.
func Report[B tensor.Backend](m Module[B], inputs ...tensor.Shape) (ShapeReport, error) {
	return nn.Report(m, inputs...)
}

// Package nn composes modules into larger modules.
//
// Every module exposes two structurally parallel operations:
//   - Forward: computes real outputs from a parameter tree and input tensors
//   - InferShapes: predicts output shapes and compute cost from shapes alone
//
// Composers (Sequential, Repeat, SoftCond, Graph, Parallel, BatchParallel,
// Remat, ...) call their children's Forward and InferShapes in the same order
// with the same routing, so the two paths can be checked against each other
// mechanically with CheckParity.
//
// Modules are stateless: all parameters live in a Theta passed to Forward.
// A module instance may therefore appear several times in a tree, each time
// with its own parameter subtree.
package nn

import (
	"strings"

	"github.com/apoorvakumar2306/lingvo/internal/tensor"
)

// Tensor is the float32 tensor type modules operate on.
type Tensor[B tensor.Backend] = tensor.Tensor[float32, B]

// Module is the contract every composable unit implements.
//
// Inputs and outputs are ordered lists. A nil entry is an absent optional
// tensor; a nil entry in a shape list is the matching absent shape.
//
// Type parameter B must satisfy the tensor.Backend interface.
type Module[B tensor.Backend] interface {
	// Name identifies the module within its parent. The parent stores the
	// module's parameters under this name.
	Name() string

	// Forward computes the module's outputs.
	Forward(theta *Theta[B], inputs ...*Tensor[B]) ([]*Tensor[B], error)

	// InferShapes returns the estimated cost and output shapes for the given
	// input shapes without computing anything. It depends only on
	// construction-time configuration.
	InferShapes(inputs ...tensor.Shape) (Meta, error)

	// Variables lists every variable of the module subtree with paths
	// relative to the module.
	Variables() []Variable
}

// Meta is the shape/cost record produced by InferShapes.
type Meta struct {
	Cost      int64
	OutShapes []tensor.Shape
}

// Variable declares one parameter leaf.
type Variable struct {
	Path  string
	Shape tensor.Shape
}

// ShapesOf returns the shapes of xs, with nil for absent tensors.
func ShapesOf[B tensor.Backend](xs []*Tensor[B]) []tensor.Shape {
	shapes := make([]tensor.Shape, len(xs))
	for i, x := range xs {
		if x != nil {
			shapes[i] = x.Shape()
		}
	}
	return shapes
}

// prefixVariables places vars under prefix (none when empty). A non-zero
// lead is prepended to every variable shape.
func prefixVariables(prefix string, lead int, vars []Variable) []Variable {
	out := make([]Variable, len(vars))
	for i, v := range vars {
		shape := v.Shape.Clone()
		if lead > 0 {
			shape = shape.Prepend(lead)
		}
		path := v.Path
		if prefix != "" {
			path = prefix + "." + path
		}
		out[i] = Variable{Path: path, Shape: shape}
	}
	return out
}

// variableSet returns the set of paths declared by vars.
func variableSet(vars []Variable) map[string]tensor.Shape {
	set := make(map[string]tensor.Shape, len(vars))
	for _, v := range vars {
		set[v.Path] = v.Shape
	}
	return set
}

// checkShapes rejects shapes with non-positive dimensions. Absent shapes pass.
func checkShapes(module string, shapes []tensor.Shape) error {
	for i, s := range shapes {
		if s == nil {
			continue
		}
		if err := s.Validate(); err != nil {
			return shapeErrorf(module, "shape %d %v: %v", i, s, err)
		}
	}
	return nil
}

func cloneShapes(shapes []tensor.Shape) []tensor.Shape {
	out := make([]tensor.Shape, len(shapes))
	for i, s := range shapes {
		out[i] = s.Clone()
	}
	return out
}

// validateName rejects names that cannot serve as a parameter tree key.
func validateName(owner, name string) error {
	if name == "" {
		return configErrorf(owner, "empty module name")
	}
	if strings.Contains(name, ".") {
		return configErrorf(owner, "module name %q contains '.'", name)
	}
	return nil
}

// validateChildren checks that subs are non-nil and uniquely named.
func validateChildren[B tensor.Backend](owner string, subs []Module[B]) error {
	seen := make(map[string]bool, len(subs))
	for i, sub := range subs {
		if sub == nil {
			return configErrorf(owner, "sub-module %d is nil", i)
		}
		if err := validateName(owner, sub.Name()); err != nil {
			return err
		}
		if seen[sub.Name()] {
			return configErrorf(owner, "duplicate sub-module name %q", sub.Name())
		}
		seen[sub.Name()] = true
	}
	return nil
}

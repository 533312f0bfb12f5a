package nn

import (
	"github.com/apoorvakumar2306/lingvo/internal/tensor"
)

// CheckParity runs both Forward and InferShapes of m on the same inputs and
// reports ErrStructuralInconsistency if they disagree on output arity,
// presence or shape. It returns the inferred meta.
func CheckParity[B tensor.Backend](m Module[B], theta *Theta[B], inputs ...*Tensor[B]) (Meta, error) {
	meta, err := m.InferShapes(ShapesOf(inputs)...)
	if err != nil {
		return Meta{}, err
	}
	out, err := m.Forward(theta, inputs...)
	if err != nil {
		return Meta{}, err
	}
	if len(out) != len(meta.OutShapes) {
		return Meta{}, structureErrorf(m.Name(), "forward returned %d outputs, inferred %d", len(out), len(meta.OutShapes))
	}
	for i, y := range out {
		if got := shapeOf(y); !got.Equal(meta.OutShapes[i]) {
			return Meta{}, structureErrorf(m.Name(), "output %d has shape %v, inferred %v", i, got, meta.OutShapes[i])
		}
	}
	return meta, nil
}

// ShapeReport is a printable summary of one module's inferred meta.
type ShapeReport struct {
	Module    string
	Inputs    []tensor.Shape
	Cost      int64
	OutShapes []tensor.Shape
	Variables []Variable
}

// Report infers the meta of m for inputs and bundles it with m's variables.
func Report[B tensor.Backend](m Module[B], inputs ...tensor.Shape) (ShapeReport, error) {
	meta, err := m.InferShapes(inputs...)
	if err != nil {
		return ShapeReport{}, err
	}
	return ShapeReport{
		Module:    m.Name(),
		Inputs:    cloneShapes(inputs),
		Cost:      meta.Cost,
		OutShapes: meta.OutShapes,
		Variables: m.Variables(),
	}, nil
}

package cpu

import (
	"fmt"

	"github.com/apoorvakumar2306/lingvo/internal/tensor"
)

// Reshape returns a view of x with a new shape.
// A single -1 dimension is inferred from the element count.
func (cpu *CPUBackend) Reshape(x *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	resolved, err := resolveShape(newShape, x.NumElements())
	if err != nil {
		panic(fmt.Sprintf("reshape: %v", err))
	}
	return x.View(resolved)
}

// Expand broadcasts x to shape. The result owns its memory.
func (cpu *CPUBackend) Expand(x *tensor.RawTensor, shape tensor.Shape) *tensor.RawTensor {
	out, _, err := tensor.BroadcastShapes(x.Shape(), shape)
	if err != nil || !out.Equal(shape) {
		panic(fmt.Sprintf("expand: cannot expand %v to %v", x.Shape(), shape))
	}

	result := cpu.alloc("expand", shape, x.DType())
	switch x.DType() {
	case tensor.Float32:
		expand(result.AsFloat32(), x.AsFloat32(), shape, x.Shape())
	case tensor.Float64:
		expand(result.AsFloat64(), x.AsFloat64(), shape, x.Shape())
	default:
		panic(fmt.Sprintf("expand: unsupported dtype %s", x.DType()))
	}
	return result
}

func expand[T float](out, x []T, outShape, inShape tensor.Shape) {
	outStrides := outShape.ComputeStrides()
	inStrides := computeBroadcastStridesForShape(inShape, outShape)
	for i := range out {
		out[i] = x[computeFlatIndex(i, outStrides, inStrides)]
	}
}

// Unsqueeze adds a dimension of size 1 at dim.
func (cpu *CPUBackend) Unsqueeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape) + 1
	if dim < 0 {
		dim = ndim + dim
	}
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("unsqueeze: dim %d out of range for %dD tensor", dim, len(shape)))
	}

	newShape := make(tensor.Shape, 0, ndim)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, 1)
	newShape = append(newShape, shape[dim:]...)
	return x.View(newShape)
}

// Squeeze removes a dimension of size 1 at dim.
func (cpu *CPUBackend) Squeeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	dim = normalizeDim(dim, len(shape))
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("squeeze: dim %d out of range for %dD tensor", dim, len(shape)))
	}
	if shape[dim] != 1 {
		panic(fmt.Sprintf("squeeze: dimension %d has size %d, expected 1", dim, shape[dim]))
	}

	newShape := make(tensor.Shape, 0, len(shape)-1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, shape[dim+1:]...)
	return x.View(newShape)
}

// resolveShape replaces a single -1 entry with the inferred dimension.
func resolveShape(shape tensor.Shape, numElements int) (tensor.Shape, error) {
	resolved := make(tensor.Shape, len(shape))
	inferIdx := -1
	known := 1
	for i, d := range shape {
		switch {
		case d == -1:
			if inferIdx >= 0 {
				return nil, fmt.Errorf("only one dimension can be -1, got %v", shape)
			}
			inferIdx = i
		case d <= 0:
			return nil, fmt.Errorf("invalid dimension %d in %v", d, shape)
		default:
			known *= d
		}
		resolved[i] = d
	}

	if inferIdx >= 0 {
		if known == 0 || numElements%known != 0 {
			return nil, fmt.Errorf("cannot infer dimension of %v for %d elements", shape, numElements)
		}
		resolved[inferIdx] = numElements / known
	}
	if resolved.NumElements() != numElements {
		return nil, fmt.Errorf("shape %v does not hold %d elements", shape, numElements)
	}
	return resolved, nil
}

// normalizeDim maps a negative dimension to its positive counterpart.
func normalizeDim(dim, ndim int) int {
	if dim < 0 {
		return ndim + dim
	}
	return dim
}

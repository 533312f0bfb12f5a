package cpu

import (
	"fmt"

	"github.com/apoorvakumar2306/lingvo/internal/tensor"
)

// SumDim sums elements along dim.
//
// With keepDim the reduced dimension stays with size 1, otherwise it is removed.
//
// Example:
//
//	x: [2, 3, 4], dim=1, keepDim=false -> [2, 4]
//	x: [2, 3, 4], dim=1, keepDim=true  -> [2, 1, 4]
func (cpu *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	shape := x.Shape()
	dim = normalizeDim(dim, len(shape))
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("sumdim: dim %d out of range for %dD tensor", dim, len(shape)))
	}

	outShape := make(tensor.Shape, 0, len(shape))
	for i, d := range shape {
		switch {
		case i != dim:
			outShape = append(outShape, d)
		case keepDim:
			outShape = append(outShape, 1)
		}
	}

	outer, n, inner := splitAt(shape, dim)
	result := cpu.alloc("sumdim", outShape, x.DType())
	switch x.DType() {
	case tensor.Float32:
		sumDim(result.AsFloat32(), x.AsFloat32(), outer, n, inner)
	case tensor.Float64:
		sumDim(result.AsFloat64(), x.AsFloat64(), outer, n, inner)
	default:
		panic(fmt.Sprintf("sumdim: unsupported dtype %s", x.DType()))
	}
	return result
}

func sumDim[T float](out, x []T, outer, n, inner int) {
	for o := 0; o < outer; o++ {
		for k := 0; k < n; k++ {
			base := (o*n + k) * inner
			for i := 0; i < inner; i++ {
				out[o*inner+i] += x[base+i]
			}
		}
	}
}

// splitAt decomposes shape around dim into (outer, shape[dim], inner) sizes.
func splitAt(shape tensor.Shape, dim int) (outer, n, inner int) {
	outer, inner = 1, 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	return outer, shape[dim], inner
}

package cpu

import (
	"fmt"

	"github.com/apoorvakumar2306/lingvo/internal/tensor"
)

// Cat concatenates tensors along the specified dimension.
//
// All tensors must have the same shape except along the concatenation dimension.
// Supports negative dim indexing (-1 = last dimension).
//
// Example:
//
//	a := [[1, 2], [3, 4]]      // shape [2, 2]
//	b := [[5, 6]]              // shape [1, 2]
//	Cat([a, b], dim=0) → [[1, 2], [3, 4], [5, 6]]  // shape [3, 2]
func (cpu *CPUBackend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("cat: at least one tensor required")
	}

	first := tensors[0]
	ndim := len(first.Shape())
	dim = normalizeDim(dim, ndim)
	if dim < 0 || dim >= ndim {
		panic(fmt.Sprintf("cat: dim %d out of range for %dD tensors", dim, ndim))
	}

	outShape := first.Shape().Clone()
	outShape[dim] = 0
	for i, t := range tensors {
		shape := t.Shape()
		if len(shape) != ndim || t.DType() != first.DType() {
			panic(fmt.Sprintf("cat: tensor %d is %s%v, expected %dD %s", i, t.DType(), shape, ndim, first.DType()))
		}
		for d := range shape {
			if d != dim && shape[d] != first.Shape()[d] {
				panic(fmt.Sprintf("cat: tensor %d has incompatible shape %v (expected %v except dim %d)",
					i, shape, first.Shape(), dim))
			}
		}
		outShape[dim] += shape[dim]
	}

	result := cpu.alloc("cat", outShape, first.DType())
	outer, _, inner := splitAt(outShape, dim)
	elem := first.DType().Size()
	dst := result.Data()
	rowBytes := outShape[dim] * inner * elem

	offset := 0
	for _, t := range tensors {
		src := t.Data()
		chunk := t.Shape()[dim] * inner * elem
		for o := 0; o < outer; o++ {
			copy(dst[o*rowBytes+offset:o*rowBytes+offset+chunk], src[o*chunk:(o+1)*chunk])
		}
		offset += chunk
	}
	return result
}

// Chunk splits tensor into n equal parts along the specified dimension.
// The dimension size must be divisible by n.
//
// Example:
//
//	x := [[1, 2, 3, 4, 5, 6]]  // shape [1, 6]
//	Chunk(x, 3, dim=1) → [[[1, 2]], [[3, 4]], [[5, 6]]]  // 3 tensors of shape [1, 2]
func (cpu *CPUBackend) Chunk(x *tensor.RawTensor, n, dim int) []*tensor.RawTensor {
	shape := x.Shape()
	dim = normalizeDim(dim, len(shape))
	if dim < 0 || dim >= len(shape) {
		panic(fmt.Sprintf("chunk: dim %d out of range for %dD tensor", dim, len(shape)))
	}
	if n <= 0 || shape[dim]%n != 0 {
		panic(fmt.Sprintf("chunk: dimension %d of size %d is not divisible by %d", dim, shape[dim], n))
	}

	partShape := shape.Clone()
	partShape[dim] = shape[dim] / n
	outer, _, inner := splitAt(shape, dim)
	elem := x.DType().Size()
	src := x.Data()
	rowBytes := shape[dim] * inner * elem
	chunk := partShape[dim] * inner * elem

	parts := make([]*tensor.RawTensor, n)
	for p := range parts {
		part := cpu.alloc("chunk", partShape, x.DType())
		dst := part.Data()
		for o := 0; o < outer; o++ {
			start := o*rowBytes + p*chunk
			copy(dst[o*chunk:(o+1)*chunk], src[start:start+chunk])
		}
		parts[p] = part
	}
	return parts
}

package nn

import (
	"github.com/apoorvakumar2306/lingvo/internal/tensor"
)

// ConcatMerge concatenates output j of every branch along dim.
func ConcatMerge[B tensor.Backend](dim int) MergeFn[B] {
	return func(outputs [][]*Tensor[B]) ([]*Tensor[B], error) {
		if _, err := ConcatMergeMeta(dim)(shapeLists(outputs)); err != nil {
			return nil, err
		}
		merged := make([]*Tensor[B], len(outputs[0]))
		for j := range merged {
			parts := make([]*Tensor[B], len(outputs))
			for b, out := range outputs {
				parts[b] = out[j]
			}
			merged[j] = tensor.Cat(parts, dim)
		}
		return merged, nil
	}
}

// ConcatMergeMeta is the meta companion of ConcatMerge. Concatenation is
// free.
func ConcatMergeMeta(dim int) MergeMetaFn {
	return func(outputs [][]tensor.Shape) (Meta, error) {
		if err := checkBranchArity("concat", outputs); err != nil {
			return Meta{}, err
		}
		merged := make([]tensor.Shape, len(outputs[0]))
		for j := range merged {
			first := outputs[0][j]
			if first == nil || len(first) == 0 {
				return Meta{}, shapeErrorf("concat", "output %d is absent or scalar", j)
			}
			d := dim
			if d < 0 {
				d += len(first)
			}
			if d < 0 || d >= len(first) {
				return Meta{}, shapeErrorf("concat", "dim %d out of range for %v", dim, first)
			}
			out := first.Clone()
			for b := 1; b < len(outputs); b++ {
				s := outputs[b][j]
				if len(s) != len(first) {
					return Meta{}, shapeErrorf("concat", "branch %d output %d has shape %v, want rank %d", b, j, s, len(first))
				}
				for k := range s {
					if k != d && s[k] != first[k] {
						return Meta{}, shapeErrorf("concat", "branch %d output %d has shape %v, incompatible with %v", b, j, s, first)
					}
				}
				out[d] += s[d]
			}
			merged[j] = out
		}
		return Meta{OutShapes: merged}, nil
	}
}

// SumMerge adds output j of every branch element-wise.
func SumMerge[B tensor.Backend]() MergeFn[B] {
	return func(outputs [][]*Tensor[B]) ([]*Tensor[B], error) {
		if _, err := SumMergeMeta()(shapeLists(outputs)); err != nil {
			return nil, err
		}
		merged := make([]*Tensor[B], len(outputs[0]))
		for j := range merged {
			acc := outputs[0][j]
			for b := 1; b < len(outputs); b++ {
				acc = acc.Add(outputs[b][j])
			}
			merged[j] = acc
		}
		return merged, nil
	}
}

// SumMergeMeta is the meta companion of SumMerge. Branch outputs must have
// identical shapes; the cost is one addition per element per extra branch.
func SumMergeMeta() MergeMetaFn {
	return func(outputs [][]tensor.Shape) (Meta, error) {
		if err := checkBranchArity("sum", outputs); err != nil {
			return Meta{}, err
		}
		var cost int64
		merged := make([]tensor.Shape, len(outputs[0]))
		for j := range merged {
			first := outputs[0][j]
			if first == nil {
				return Meta{}, shapeErrorf("sum", "output %d is absent", j)
			}
			for b := 1; b < len(outputs); b++ {
				if !outputs[b][j].Equal(first) {
					return Meta{}, shapeErrorf("sum", "branch %d output %d has shape %v, want %v", b, j, outputs[b][j], first)
				}
			}
			cost += int64(len(outputs)-1) * int64(first.NumElements())
			merged[j] = first.Clone()
		}
		return Meta{Cost: cost, OutShapes: merged}, nil
	}
}

func checkBranchArity(merge string, outputs [][]tensor.Shape) error {
	if len(outputs) == 0 {
		return configErrorf(merge, "no branch outputs")
	}
	for b, out := range outputs {
		if len(out) != len(outputs[0]) {
			return shapeErrorf(merge, "branch %d has %d outputs, branch 0 has %d", b, len(out), len(outputs[0]))
		}
	}
	return nil
}

func shapeLists[B tensor.Backend](outputs [][]*Tensor[B]) [][]tensor.Shape {
	shapes := make([][]tensor.Shape, len(outputs))
	for i, out := range outputs {
		shapes[i] = ShapesOf(out)
	}
	return shapes
}

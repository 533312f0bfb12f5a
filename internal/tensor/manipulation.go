package tensor

import "fmt"

// Cat concatenates tensors along the specified dimension.
//
// All tensors must have the same shape except along the concatenation dimension.
// Supports negative dim indexing (-1 = last dimension).
func Cat[T DType, B Backend](tensors []*Tensor[T, B], dim int) *Tensor[T, B] {
	if len(tensors) == 0 {
		panic("cat: at least one tensor required")
	}
	if len(tensors) == 1 {
		return tensors[0].Clone()
	}

	rawTensors := make([]*RawTensor, len(tensors))
	backend := tensors[0].backend
	for i, t := range tensors {
		rawTensors[i] = t.raw
	}
	return New[T, B](backend.Cat(rawTensors, dim), backend)
}

// Chunk splits the tensor into n equal parts along the specified dimension.
// The dimension size must be divisible by n.
func (t *Tensor[T, B]) Chunk(n, dim int) []*Tensor[T, B] {
	rawParts := t.backend.Chunk(t.raw, n, dim)
	parts := make([]*Tensor[T, B], len(rawParts))
	for i, raw := range rawParts {
		parts[i] = New[T, B](raw, t.backend)
	}
	return parts
}

// Unsqueeze adds a dimension of size 1 at the specified position.
func (t *Tensor[T, B]) Unsqueeze(dim int) *Tensor[T, B] {
	return New[T, B](t.backend.Unsqueeze(t.raw, dim), t.backend)
}

// Squeeze removes a dimension of size 1 at the specified position.
func (t *Tensor[T, B]) Squeeze(dim int) *Tensor[T, B] {
	return New[T, B](t.backend.Squeeze(t.raw, dim), t.backend)
}

// Index returns a zero-copy view of the i-th slice along the leading axis.
func (t *Tensor[T, B]) Index(i int) *Tensor[T, B] {
	return New[T, B](t.raw.Index(i), t.backend)
}

// SetIndex copies src into the i-th slice along the leading axis.
func (t *Tensor[T, B]) SetIndex(i int, src *Tensor[T, B]) {
	t.raw.SetIndex(i, src.raw)
}

// Stack joins tensors of identical shape along a new leading axis.
//
// Example:
//
//	a, b have shape [2, 3]
//	tensor.Stack([]*Tensor{a, b}) has shape [2, 2, 3]
func Stack[T DType, B Backend](tensors []*Tensor[T, B]) *Tensor[T, B] {
	if len(tensors) == 0 {
		panic("stack: at least one tensor required")
	}
	first := tensors[0]
	out := Zeros[T, B](first.Shape().Prepend(len(tensors)), first.backend)
	for i, t := range tensors {
		if !t.Shape().Equal(first.Shape()) {
			panic(fmt.Sprintf("stack: tensor %d has shape %v, expected %v", i, t.Shape(), first.Shape()))
		}
		out.SetIndex(i, t)
	}
	return out
}

// Unstack returns views of every slice along the leading axis.
func (t *Tensor[T, B]) Unstack() []*Tensor[T, B] {
	shape := t.Shape()
	if len(shape) == 0 {
		panic("unstack: scalar tensor has no leading dimension")
	}
	parts := make([]*Tensor[T, B], shape[0])
	for i := range parts {
		parts[i] = t.Index(i)
	}
	return parts
}

// Tile replicates the tensor n times along a new leading axis.
func (t *Tensor[T, B]) Tile(n int) *Tensor[T, B] {
	return t.Unsqueeze(0).Expand(t.Shape().Prepend(n))
}

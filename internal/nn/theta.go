package nn

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/apoorvakumar2306/lingvo/internal/tensor"
)

// Theta is a parameter tree: an ordered mapping from dotted path to tensor.
//
// The tree mirrors the module tree. A parent stores each child's parameters
// under the child's name, so "seq.linear.w" is the "w" variable of the module
// "linear" inside "seq". Leaves that are not declared by a module's Variables
// are extra state (step counters and the like) and travel along unchanged.
//
// A nil *Theta behaves as an empty tree for every read operation.
type Theta[B tensor.Backend] struct {
	keys   []string
	values map[string]*Tensor[B]
}

// NewTheta creates an empty parameter tree.
func NewTheta[B tensor.Backend]() *Theta[B] {
	return &Theta[B]{values: make(map[string]*Tensor[B])}
}

// Len returns the number of leaves.
func (t *Theta[B]) Len() int {
	if t == nil {
		return 0
	}
	return len(t.keys)
}

// Keys returns the leaf paths in insertion order.
func (t *Theta[B]) Keys() []string {
	if t == nil {
		return nil
	}
	return append([]string(nil), t.keys...)
}

// Set stores v at path, keeping the original position if path already exists.
func (t *Theta[B]) Set(path string, v *Tensor[B]) {
	if _, ok := t.values[path]; !ok {
		t.keys = append(t.keys, path)
	}
	t.values[path] = v
}

// Get returns the leaf at path.
func (t *Theta[B]) Get(path string) (*Tensor[B], bool) {
	if t == nil {
		return nil, false
	}
	v, ok := t.values[path]
	return v, ok
}

// Has reports whether a leaf exists at path.
func (t *Theta[B]) Has(path string) bool {
	_, ok := t.Get(path)
	return ok
}

// HasChild reports whether any leaf lives under name.
func (t *Theta[B]) HasChild(name string) bool {
	if t == nil {
		return false
	}
	prefix := name + "."
	for _, k := range t.keys {
		if strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}

// Child returns the subtree under name with the prefix stripped.
// The subtree shares tensors with t.
func (t *Theta[B]) Child(name string) *Theta[B] {
	child := NewTheta[B]()
	if t == nil {
		return child
	}
	prefix := name + "."
	for _, k := range t.keys {
		if rest, ok := strings.CutPrefix(k, prefix); ok {
			child.Set(rest, t.values[k])
		}
	}
	return child
}

// SetChild stores every leaf of child under name.
func (t *Theta[B]) SetChild(name string, child *Theta[B]) {
	for _, k := range child.Keys() {
		v, _ := child.Get(k)
		t.Set(name+"."+k, v)
	}
}

// Flatten returns the leaves in key order.
func (t *Theta[B]) Flatten() []*Tensor[B] {
	out := make([]*Tensor[B], t.Len())
	for i, k := range t.Keys() {
		out[i] = t.values[k]
	}
	return out
}

// Pack builds a tree with t's keys and the given values, in Flatten order.
func (t *Theta[B]) Pack(values []*Tensor[B]) (*Theta[B], error) {
	if len(values) != t.Len() {
		return nil, errors.Errorf("pack: %d values for %d keys", len(values), t.Len())
	}
	packed := NewTheta[B]()
	for i, k := range t.Keys() {
		packed.Set(k, values[i])
	}
	return packed, nil
}

// Map builds a tree with t's keys and fn applied to every leaf.
func (t *Theta[B]) Map(fn func(path string, v *Tensor[B]) (*Tensor[B], error)) (*Theta[B], error) {
	mapped := NewTheta[B]()
	for _, k := range t.Keys() {
		v, err := fn(k, t.values[k])
		if err != nil {
			return nil, err
		}
		mapped.Set(k, v)
	}
	return mapped, nil
}

// childTheta returns the parameter subtree for sub stored under key.
// A sub-module that declares variables must find its subtree.
func childTheta[B tensor.Backend](owner, key string, theta *Theta[B], sub Module[B]) (*Theta[B], error) {
	if len(sub.Variables()) > 0 && !theta.HasChild(key) {
		return nil, configErrorf(owner, "parameter tree has no entry for sub-module %q", key)
	}
	return theta.Child(key), nil
}

// stackExtras replicates every leaf that is not a declared variable along a
// new leading axis of size n, and checks that declared variables already
// carry that axis.
func stackExtras[B tensor.Backend](owner string, theta *Theta[B], vars []Variable, n int) (*Theta[B], error) {
	declared := variableSet(vars)
	return theta.Map(func(path string, v *Tensor[B]) (*Tensor[B], error) {
		if v == nil {
			return nil, nil
		}
		want, ok := declared[path]
		if !ok {
			return v.Tile(n), nil
		}
		if !v.Shape().Equal(want) {
			return nil, shapeErrorf(owner, "variable %q has shape %v, want %v", path, v.Shape(), want)
		}
		return v, nil
	})
}

// sliceTheta returns the i-th slice along the leading axis of every leaf.
func sliceTheta[B tensor.Backend](stacked *Theta[B], i int) *Theta[B] {
	sliced, _ := stacked.Map(func(_ string, v *Tensor[B]) (*Tensor[B], error) {
		if v == nil {
			return nil, nil
		}
		return v.Index(i), nil
	})
	return sliced
}

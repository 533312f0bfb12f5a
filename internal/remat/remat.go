// Package remat provides recompute-on-backward primitives.
//
// A Recomputer runs a plain function over a flat argument list. On the forward
// pass every implementation returns exactly what calling the function directly
// would. They differ in what they keep around for a later backward pass.
package remat

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/apoorvakumar2306/lingvo/internal/tensor"
)

// Func is a pure computation over a flat tensor list.
// Absent optional tensors are passed as nil entries.
type Func[B tensor.Backend] func(args []*tensor.Tensor[float32, B]) ([]*tensor.Tensor[float32, B], error)

// Recomputer runs fn over args.
type Recomputer[B tensor.Backend] interface {
	Recompute(fn Func[B], args []*tensor.Tensor[float32, B]) ([]*tensor.Tensor[float32, B], error)
}

// Passthrough calls fn directly and retains nothing.
type Passthrough[B tensor.Backend] struct{}

// Recompute implements Recomputer.
func (Passthrough[B]) Recompute(fn Func[B], args []*tensor.Tensor[float32, B]) ([]*tensor.Tensor[float32, B], error) {
	return fn(args)
}

// Segment is one recorded call: the function and the inputs it ran on.
// Outputs are not retained.
type Segment[B tensor.Backend] struct {
	fn     Func[B]
	inputs []*tensor.Tensor[float32, B]
}

// Inputs returns the retained inputs of the segment.
func (s *Segment[B]) Inputs() []*tensor.Tensor[float32, B] {
	return s.inputs
}

// Checkpointer records the inputs of every call so the segment can be
// replayed on demand instead of storing its activations.
//
// Example:
//
//	ckpt := remat.NewCheckpointer[*cpu.CPUBackend]()
//	block, _ := nn.NewRemat("block", body, ckpt)
//	out, _ := block.Forward(theta, x)
//	again, _ := ckpt.Replay(0) // identical to out
type Checkpointer[B tensor.Backend] struct {
	mu       sync.Mutex
	segments []*Segment[B]
}

// NewCheckpointer creates an empty Checkpointer.
func NewCheckpointer[B tensor.Backend]() *Checkpointer[B] {
	return &Checkpointer[B]{}
}

// Recompute implements Recomputer. It is safe for concurrent use.
func (c *Checkpointer[B]) Recompute(fn Func[B], args []*tensor.Tensor[float32, B]) ([]*tensor.Tensor[float32, B], error) {
	inputs := append([]*tensor.Tensor[float32, B](nil), args...)
	out, err := fn(inputs)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.segments = append(c.segments, &Segment[B]{fn: fn, inputs: inputs})
	c.mu.Unlock()
	return out, nil
}

// Len returns the number of recorded segments.
func (c *Checkpointer[B]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.segments)
}

// Segment returns the i-th recorded segment.
func (c *Checkpointer[B]) Segment(i int) (*Segment[B], error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i < 0 || i >= len(c.segments) {
		return nil, errors.Errorf("segment %d out of range [0, %d)", i, len(c.segments))
	}
	return c.segments[i], nil
}

// Replay recomputes the outputs of the i-th segment from its retained inputs.
func (c *Checkpointer[B]) Replay(i int) ([]*tensor.Tensor[float32, B], error) {
	seg, err := c.Segment(i)
	if err != nil {
		return nil, err
	}
	return seg.fn(seg.inputs)
}

// Reset drops every recorded segment.
func (c *Checkpointer[B]) Reset() {
	c.mu.Lock()
	c.segments = nil
	c.mu.Unlock()
}

package nn

import (
	"strings"
	"sync"

	"github.com/apoorvakumar2306/lingvo/internal/tensor"
)

// Branch runs a body module and appends the outputs of chosen descendants
// to the body's outputs.
//
// A fetch is the dotted path of a descendant relative to the body, built from
// the same keys as the parameter tree: "proj" for a child named "proj",
// "rep.001.proj" for the second repetition of a repeated Sequential. Fetches
// reach through Sequential, UnarySequential, Graph, Parallel, Repeat,
// SoftCond, Remat and nested Branches. A descendant that runs several times,
// such as the body of a Repeat, reports its last call. ParallelRepeat and
// BatchParallel run their copies concurrently and are not searched.
//
// Example (returns the model output followed by the hidden activation):
//
//	hidden, _ := nn.NewLinear[B]("hidden", 8, 16)
//	act, _ := nn.NewReLU[B]("act")
//	out, _ := nn.NewLinear[B]("out", 16, 2)
//	mlp, _ := nn.NewSequential[B]("mlp", 1, hidden, act, out)
//	b, _ := nn.NewBranch[B]("b", mlp, "act")
//
// NewBranch instruments the fetched descendants in place, so body belongs to
// the Branch afterwards. Calls to one Branch are serialized.
type Branch[B tensor.Backend] struct {
	name    string
	body    Module[B]
	fetches []string
	taps    []*tap[B]

	mu sync.Mutex
}

// NewBranch creates a Branch of body with the given fetch paths.
func NewBranch[B tensor.Backend](name string, body Module[B], fetches ...string) (*Branch[B], error) {
	if err := validateName("Branch", name); err != nil {
		return nil, err
	}
	if body == nil {
		return nil, configErrorf(name, "body is nil")
	}

	b := &Branch[B]{name: name, body: body, fetches: append([]string(nil), fetches...)}
	seen := make(map[string]bool, len(fetches))
	for _, path := range fetches {
		if !validFetch(path) {
			return nil, configErrorf(name, "invalid fetch path %q", path)
		}
		if seen[path] {
			return nil, configErrorf(name, "duplicate fetch %q", path)
		}
		seen[path] = true

		s, ok := findSlot(body, path)
		if !ok {
			return nil, configErrorf(name, "fetch %q names no descendant of %q", path, body.Name())
		}
		t, ok := s.module.(*tap[B])
		if !ok {
			t = &tap[B]{Module: s.module}
			s.set(t)
		}
		b.taps = append(b.taps, t)
	}
	return b, nil
}

// Name implements Module.
func (b *Branch[B]) Name() string { return b.name }

// Fetches returns the fetch paths in output order.
func (b *Branch[B]) Fetches() []string { return append([]string(nil), b.fetches...) }

// Variables implements Module.
func (b *Branch[B]) Variables() []Variable {
	return prefixVariables("body", 0, b.body.Variables())
}

// Forward implements Module. The outputs are the body outputs followed by
// every output of each fetched descendant, in fetch order.
func (b *Branch[B]) Forward(theta *Theta[B], inputs ...*Tensor[B]) ([]*Tensor[B], error) {
	th, err := childTheta(b.name, "body", theta, b.body)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetTaps()

	out, err := b.body.Forward(th, inputs...)
	if err != nil {
		return nil, wrapChild(b.name, err)
	}
	out = append([]*Tensor[B](nil), out...)
	for i, t := range b.taps {
		fetched, _, ran := t.last()
		if !ran {
			return nil, structureErrorf(b.name, "fetch %q did not run", b.fetches[i])
		}
		Logger().Debug("branch fetch", "module", b.name, "fetch", b.fetches[i], "outputs", len(fetched))
		out = append(out, fetched...)
	}
	return out, nil
}

// InferShapes implements Module. Cost is the body cost.
func (b *Branch[B]) InferShapes(inputs ...tensor.Shape) (Meta, error) {
	if err := checkShapes(b.name, inputs); err != nil {
		return Meta{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.resetTaps()

	meta, err := b.body.InferShapes(inputs...)
	if err != nil {
		return Meta{}, wrapChild(b.name, err)
	}
	shapes := cloneShapes(meta.OutShapes)
	for i, t := range b.taps {
		_, fetched, ran := t.last()
		if !ran {
			return Meta{}, structureErrorf(b.name, "fetch %q did not run", b.fetches[i])
		}
		shapes = append(shapes, cloneShapes(fetched)...)
	}
	return Meta{Cost: meta.Cost, OutShapes: shapes}, nil
}

func (b *Branch[B]) resetTaps() {
	for _, t := range b.taps {
		t.reset()
	}
}

func (b *Branch[B]) slots() []slot[B] {
	return []slot[B]{{key: "body", module: b.body, set: func(m Module[B]) { b.body = m }}}
}

// slot is an addressable child position inside a composer.
type slot[B tensor.Backend] struct {
	key    string // parameter tree key of the child
	module Module[B]
	set    func(Module[B])
}

// container is implemented by composers whose children a Branch can fetch.
type container[B tensor.Backend] interface {
	slots() []slot[B]
}

// findSlot resolves a dotted descendant path below m.
func findSlot[B tensor.Backend](m Module[B], path string) (slot[B], bool) {
	c, ok := m.(container[B])
	if !ok {
		return slot[B]{}, false
	}
	for _, s := range c.slots() {
		if path == s.key {
			return s, true
		}
		if rest, ok := strings.CutPrefix(path, s.key+"."); ok {
			if found, ok := findSlot(s.module, rest); ok {
				return found, true
			}
		}
	}
	return slot[B]{}, false
}

func validFetch(path string) bool {
	if path == "" {
		return false
	}
	for _, seg := range strings.Split(path, ".") {
		if seg == "" || strings.ContainsAny(seg, " \t,") {
			return false
		}
	}
	return true
}

// tap passes calls through to a module and keeps the result of the last
// successful one.
type tap[B tensor.Backend] struct {
	Module[B]

	mu     sync.Mutex
	ran    bool
	out    []*Tensor[B]
	shapes []tensor.Shape
}

func (t *tap[B]) Forward(theta *Theta[B], inputs ...*Tensor[B]) ([]*Tensor[B], error) {
	out, err := t.Module.Forward(theta, inputs...)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	t.ran = true
	t.out = append([]*Tensor[B](nil), out...)
	t.mu.Unlock()
	return out, nil
}

func (t *tap[B]) InferShapes(inputs ...tensor.Shape) (Meta, error) {
	meta, err := t.Module.InferShapes(inputs...)
	if err != nil {
		return Meta{}, err
	}
	t.mu.Lock()
	t.ran = true
	t.shapes = cloneShapes(meta.OutShapes)
	t.mu.Unlock()
	return meta, nil
}

func (t *tap[B]) slots() []slot[B] {
	if c, ok := t.Module.(container[B]); ok {
		return c.slots()
	}
	return nil
}

func (t *tap[B]) reset() {
	t.mu.Lock()
	t.ran = false
	t.out = nil
	t.shapes = nil
	t.mu.Unlock()
}

func (t *tap[B]) last() ([]*Tensor[B], []tensor.Shape, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.out, t.shapes, t.ran
}

// Package builder turns declarative module specs into module trees.
package builder

import (
	"sort"

	"github.com/apoorvakumar2306/lingvo/internal/cluster"
	"github.com/apoorvakumar2306/lingvo/internal/config"
	"github.com/apoorvakumar2306/lingvo/internal/nn"
	"github.com/apoorvakumar2306/lingvo/internal/remat"
	"github.com/apoorvakumar2306/lingvo/internal/tensor"
)

// MergeFactory builds a merge pair from the attributes of a parallel spec.
type MergeFactory[B tensor.Backend] func(spec *config.Spec) (nn.MergeFn[B], nn.MergeMetaFn, error)

type fnEntry[B tensor.Backend] struct {
	fn   nn.FnFunc[B]
	meta nn.FnMetaFunc
}

type mapEntry[B tensor.Backend] struct {
	fn   nn.MapFunc[B]
	meta nn.MapMetaFunc
}

// Registry resolves the function-valued options of a spec by name.
//
// Function names double as module kinds: a spec of kind "relu" builds the
// map registered as "relu".
type Registry[B tensor.Backend] struct {
	fns    map[string]fnEntry[B]
	maps   map[string]mapEntry[B]
	merges map[string]MergeFactory[B]

	// Recomputer is used by remat specs. Nil means remat.Passthrough.
	Recomputer remat.Recomputer[B]
	// Cluster creates the topology of a batch_parallel spec. Zero workers
	// means one per CPU.
	Cluster func(workers int) cluster.Cluster
	// Workers is the worker count of a batch_parallel spec that sets none.
	Workers int
}

// NewRegistry returns a registry with the default functions: maps relu and
// sigmoid, fns identity and add, merges concat and sum.
func NewRegistry[B tensor.Backend]() *Registry[B] {
	r := &Registry[B]{
		fns:     map[string]fnEntry[B]{},
		maps:    map[string]mapEntry[B]{},
		merges:  map[string]MergeFactory[B]{},
		Workers: 1,
	}
	r.Cluster = func(workers int) cluster.Cluster {
		return cluster.NewLocal(tensor.CPU, workers)
	}
	r.RegisterMap("relu", nn.ReLU[B], nn.ElementwiseMeta)
	r.RegisterMap("sigmoid", nn.Sigmoid[B], nn.ElementwiseMeta)
	r.RegisterFn("identity", nn.Identity[B], nn.IdentityMeta)
	r.RegisterFn("add", nn.AddAll[B], nn.AddAllMeta)
	r.RegisterMerge("concat", concatFactory[B])
	r.RegisterMerge("sum", sumFactory[B])
	return r
}

// RegisterFn registers a whole-input-list function.
func (r *Registry[B]) RegisterFn(name string, fn nn.FnFunc[B], meta nn.FnMetaFunc) {
	r.fns[name] = fnEntry[B]{fn: fn, meta: meta}
}

// RegisterMap registers a per-tensor function.
func (r *Registry[B]) RegisterMap(name string, fn nn.MapFunc[B], meta nn.MapMetaFunc) {
	r.maps[name] = mapEntry[B]{fn: fn, meta: meta}
}

// RegisterMerge registers a merge factory for parallel specs.
func (r *Registry[B]) RegisterMerge(name string, f MergeFactory[B]) {
	r.merges[name] = f
}

// Names returns every registered function and merge name, sorted.
func (r *Registry[B]) Names() []string {
	var names []string
	for k := range r.fns {
		names = append(names, k)
	}
	for k := range r.maps {
		names = append(names, k)
	}
	for k := range r.merges {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// concatFactory reads the optional "dim" attribute (default -1).
func concatFactory[B tensor.Backend](spec *config.Spec) (nn.MergeFn[B], nn.MergeMetaFn, error) {
	dim, err := spec.Int("dim", -1)
	if err != nil {
		return nil, nil, err
	}
	return nn.ConcatMerge[B](dim), nn.ConcatMergeMeta(dim), nil
}

func sumFactory[B tensor.Backend](*config.Spec) (nn.MergeFn[B], nn.MergeMetaFn, error) {
	return nn.SumMerge[B](), nn.SumMergeMeta(), nil
}

package nn

import (
	"github.com/apoorvakumar2306/lingvo/internal/tensor"
)

// GraphSub pairs a sub-module with its signature.
type GraphSub[B tensor.Backend] struct {
	Signature string
	Module    Module[B]
}

// GraphConfig configures a Graph.
type GraphConfig[B tensor.Backend] struct {
	InputEndpoints  []string
	OutputEndpoints []string
	Subs            []GraphSub[B]
}

// Graph runs sub-modules over a named-tensor namespace.
//
// Inputs are bound to InputEndpoints. Each sub-module, in declaration order,
// reads the names on the left of its signature and writes its outputs to the
// names on the right. A name is written at most once and must be written
// before it is read. The outputs are the tensors at OutputEndpoints.
//
// Example (computes relu(a) + b):
//
//	relu, _ := nn.NewReLU[B]("relu")
//	add, _ := nn.NewAdd[B]("add")
//	g, _ := nn.NewGraph("g", nn.GraphConfig[B]{
//	    InputEndpoints:  []string{"a", "b"},
//	    OutputEndpoints: []string{"d"},
//	    Subs: []nn.GraphSub[B]{
//	        {Signature: "a->c", Module: relu},
//	        {Signature: "c,b->d", Module: add},
//	    },
//	})
//
// Signatures are parsed and the namespace routing is checked once, at
// construction, so reads of undefined names and double writes are reported
// before any tensor exists.
type Graph[B tensor.Backend] struct {
	name    string
	inputs  []string
	outputs []string
	nodes   []graphNode[B]
}

type graphNode[B tensor.Backend] struct {
	key    string // parameter tree key
	sig    Signature
	module Module[B]
}

// NewGraph creates a Graph. Sub-module parameters live under the
// sub-module's name, which must be unique within the graph.
func NewGraph[B tensor.Backend](name string, cfg GraphConfig[B]) (*Graph[B], error) {
	if err := validateName("Graph", name); err != nil {
		return nil, err
	}
	if len(cfg.InputEndpoints) == 0 {
		return nil, configErrorf(name, "no input endpoints")
	}
	if len(cfg.OutputEndpoints) == 0 {
		return nil, configErrorf(name, "no output endpoints")
	}
	for _, ep := range append(append([]string(nil), cfg.InputEndpoints...), cfg.OutputEndpoints...) {
		if !ValidPath(ep) {
			return nil, configErrorf(name, "invalid endpoint name %q", ep)
		}
	}

	g := &Graph[B]{
		name:    name,
		inputs:  append([]string(nil), cfg.InputEndpoints...),
		outputs: append([]string(nil), cfg.OutputEndpoints...),
	}
	seen := make(map[string]bool, len(cfg.Subs))
	for i, sub := range cfg.Subs {
		if sub.Module == nil {
			return nil, configErrorf(name, "sub-module %d is nil", i)
		}
		sig, err := ParseSignature(sub.Signature)
		if err != nil {
			return nil, wrapChild(name, err)
		}
		key := sub.Module.Name()
		if err := validateName(name, key); err != nil {
			return nil, err
		}
		if seen[key] {
			return nil, configErrorf(name, "duplicate sub-module name %q", key)
		}
		seen[key] = true
		g.nodes = append(g.nodes, graphNode[B]{key: key, sig: sig, module: sub.Module})
	}

	if _, err := graphWalk(g, make([]struct{}, len(g.inputs)), func(n graphNode[B], _ []struct{}) ([]struct{}, error) {
		return make([]struct{}, len(n.sig.Outputs)), nil
	}); err != nil {
		return nil, err
	}
	return g, nil
}

// Name implements Module.
func (g *Graph[B]) Name() string { return g.name }

// Variables implements Module.
func (g *Graph[B]) Variables() []Variable {
	var vars []Variable
	for _, n := range g.nodes {
		vars = append(vars, prefixVariables(n.key, 0, n.module.Variables())...)
	}
	return vars
}

func (g *Graph[B]) slots() []slot[B] {
	out := make([]slot[B], len(g.nodes))
	for i, n := range g.nodes {
		out[i] = slot[B]{key: n.key, module: n.module, set: func(m Module[B]) { g.nodes[i].module = m }}
	}
	return out
}

// Forward implements Module.
func (g *Graph[B]) Forward(theta *Theta[B], inputs ...*Tensor[B]) ([]*Tensor[B], error) {
	return graphWalk(g, inputs, func(n graphNode[B], args []*Tensor[B]) ([]*Tensor[B], error) {
		th, err := childTheta(g.name, n.key, theta, n.module)
		if err != nil {
			return nil, err
		}
		Logger().Debug("graph call", "module", g.name, "sub", n.key, "signature", n.sig.String())
		out, err := n.module.Forward(th, args...)
		if err != nil {
			return nil, wrapChild(g.name, err)
		}
		return out, nil
	})
}

// InferShapes implements Module. Cost is the sum of the sub-module costs.
func (g *Graph[B]) InferShapes(inputs ...tensor.Shape) (Meta, error) {
	if err := checkShapes(g.name, inputs); err != nil {
		return Meta{}, err
	}
	var total int64
	out, err := graphWalk(g, inputs, func(n graphNode[B], args []tensor.Shape) ([]tensor.Shape, error) {
		meta, err := n.module.InferShapes(args...)
		if err != nil {
			return nil, wrapChild(g.name, err)
		}
		if err := checkShapes(n.key, meta.OutShapes); err != nil {
			return nil, wrapChild(g.name, err)
		}
		total += meta.Cost
		return meta.OutShapes, nil
	})
	if err != nil {
		return Meta{}, err
	}
	return Meta{Cost: total, OutShapes: cloneShapes(out)}, nil
}

// graphWalk routes values of type V through the graph's namespace. call runs
// one sub-module on its resolved inputs.
func graphWalk[B tensor.Backend, V any](g *Graph[B], inputs []V, call func(n graphNode[B], args []V) ([]V, error)) ([]V, error) {
	if len(inputs) != len(g.inputs) {
		return nil, configErrorf(g.name, "got %d inputs for %d endpoints", len(inputs), len(g.inputs))
	}
	ns := newNamespace[V](g.name)
	for i, name := range g.inputs {
		if err := ns.add(name, inputs[i]); err != nil {
			return nil, err
		}
	}

	for _, n := range g.nodes {
		args := make([]V, len(n.sig.Inputs))
		for k, name := range n.sig.Inputs {
			v, err := ns.get(name)
			if err != nil {
				return nil, err
			}
			args[k] = v
		}
		out, err := call(n, args)
		if err != nil {
			return nil, err
		}
		if len(out) != len(n.sig.Outputs) {
			return nil, configErrorf(g.name, "sub-module %q produced %d outputs, signature %q declares %d",
				n.key, len(out), n.sig.String(), len(n.sig.Outputs))
		}
		for k, name := range n.sig.Outputs {
			if err := ns.add(name, out[k]); err != nil {
				return nil, err
			}
		}
	}

	result := make([]V, len(g.outputs))
	for i, name := range g.outputs {
		v, err := ns.get(name)
		if err != nil {
			return nil, err
		}
		result[i] = v
	}
	return result, nil
}

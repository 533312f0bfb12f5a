package nn

import "strings"

// namespace is the graph composer's write-once mapping from dotted path to
// value. Intermediate path segments form subtrees; only leaves hold values.
type namespace[V any] struct {
	module string
	root   *nsNode[V]
}

type nsNode[V any] struct {
	leaf     bool
	value    V
	children map[string]*nsNode[V]
}

func newNamespace[V any](module string) *namespace[V] {
	return &namespace[V]{module: module, root: &nsNode[V]{children: map[string]*nsNode[V]{}}}
}

// add writes v at path. Writing an existing name, or writing below or above
// an existing leaf, fails.
func (ns *namespace[V]) add(path string, v V) error {
	segs := strings.Split(path, ".")
	node := ns.root
	for _, seg := range segs[:len(segs)-1] {
		next, ok := node.children[seg]
		if !ok {
			next = &nsNode[V]{children: map[string]*nsNode[V]{}}
			node.children[seg] = next
		}
		if next.leaf {
			return &NamespaceError{Module: ns.module, Path: path, Op: "write", Reason: "prefix " + seg + " is a tensor"}
		}
		node = next
	}
	last := segs[len(segs)-1]
	if _, ok := node.children[last]; ok {
		return &NamespaceError{Module: ns.module, Path: path, Op: "write", Reason: "name already defined"}
	}
	node.children[last] = &nsNode[V]{leaf: true, value: v}
	return nil
}

// get reads the value at path, which must be an existing leaf.
func (ns *namespace[V]) get(path string) (V, error) {
	var zero V
	node := ns.root
	for _, seg := range strings.Split(path, ".") {
		if node.leaf {
			return zero, &NamespaceError{Module: ns.module, Path: path, Op: "read", Reason: "prefix is a tensor"}
		}
		next, ok := node.children[seg]
		if !ok {
			return zero, &NamespaceError{Module: ns.module, Path: path, Op: "read", Reason: "name not defined"}
		}
		node = next
	}
	if !node.leaf {
		return zero, &NamespaceError{Module: ns.module, Path: path, Op: "read", Reason: "name is a group, not a tensor"}
	}
	return node.value, nil
}

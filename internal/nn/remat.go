package nn

import (
	"github.com/apoorvakumar2306/lingvo/internal/remat"
	"github.com/apoorvakumar2306/lingvo/internal/tensor"
)

// Remat wraps a body so that its forward computation runs through a
// recompute-on-backward primitive. The body parameters and inputs are
// flattened into one argument list, and the primitive may replay the body
// from that list instead of retaining its activations.
//
// Remat is transparent: outputs and shape inference equal the body's.
type Remat[B tensor.Backend] struct {
	name       string
	body       Module[B]
	recomputer remat.Recomputer[B]
}

// NewRemat creates a Remat around body. A nil recomputer means
// remat.Passthrough.
func NewRemat[B tensor.Backend](name string, body Module[B], recomputer remat.Recomputer[B]) (*Remat[B], error) {
	if err := validateName("Remat", name); err != nil {
		return nil, err
	}
	if body == nil {
		return nil, configErrorf(name, "body is nil")
	}
	if recomputer == nil {
		recomputer = remat.Passthrough[B]{}
	}
	return &Remat[B]{name: name, body: body, recomputer: recomputer}, nil
}

// Name implements Module.
func (r *Remat[B]) Name() string { return r.name }

// Variables implements Module.
func (r *Remat[B]) Variables() []Variable {
	return prefixVariables("body", 0, r.body.Variables())
}

func (r *Remat[B]) slots() []slot[B] {
	return []slot[B]{{key: "body", module: r.body, set: func(m Module[B]) { r.body = m }}}
}

// Forward implements Module.
func (r *Remat[B]) Forward(theta *Theta[B], inputs ...*Tensor[B]) ([]*Tensor[B], error) {
	th, err := childTheta(r.name, "body", theta, r.body)
	if err != nil {
		return nil, err
	}
	args := th.Flatten()
	n := len(args)
	args = append(args, inputs...)

	out, err := r.recomputer.Recompute(func(flat []*Tensor[B]) ([]*Tensor[B], error) {
		bodyTheta, err := th.Pack(flat[:n])
		if err != nil {
			return nil, structureErrorf(r.name, "%v", err)
		}
		return r.body.Forward(bodyTheta, flat[n:]...)
	}, args)
	if err != nil {
		return nil, wrapChild(r.name, err)
	}
	return out, nil
}

// InferShapes implements Module by delegating to the body.
func (r *Remat[B]) InferShapes(inputs ...tensor.Shape) (Meta, error) {
	if err := checkShapes(r.name, inputs); err != nil {
		return Meta{}, err
	}
	meta, err := r.body.InferShapes(inputs...)
	if err != nil {
		return Meta{}, wrapChild(r.name, err)
	}
	return meta, nil
}

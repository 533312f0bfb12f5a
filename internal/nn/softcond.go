package nn

import (
	"github.com/apoorvakumar2306/lingvo/internal/tensor"
)

// SoftCondConfig configures a SoftCond.
type SoftCondConfig struct {
	// NumExperts is the number of stacked copies of the body parameters.
	NumExperts int
	// CondDim is the input depth mapped onto the expert axis by the gating
	// matrix w of shape [CondDim, NumExperts].
	CondDim int
}

// SoftCond blends NumExperts parameter copies of a body into one effective
// parameter tree with input-dependent gate weights, then runs the body once.
//
// The gate is sigmoid(sum_rows(reshape(x, [-1, CondDim])) @ w), computed from
// the first input x. It is a per-expert weight, not a distribution: weights
// need not sum to one. Declared body variables are collapsed along the expert
// axis by a gate-weighted sum. Extra state passes through unchanged.
type SoftCond[B tensor.Backend] struct {
	name string
	body Module[B]
	cfg  SoftCondConfig
}

// NewSoftCond creates a SoftCond over body.
func NewSoftCond[B tensor.Backend](name string, body Module[B], cfg SoftCondConfig) (*SoftCond[B], error) {
	if err := validateName("SoftCond", name); err != nil {
		return nil, err
	}
	if body == nil {
		return nil, configErrorf(name, "body is nil")
	}
	if cfg.NumExperts <= 0 {
		return nil, configErrorf(name, "num_experts must be set, got %d", cfg.NumExperts)
	}
	if cfg.CondDim <= 0 {
		return nil, configErrorf(name, "cond_dim must be set, got %d", cfg.CondDim)
	}
	return &SoftCond[B]{name: name, body: body, cfg: cfg}, nil
}

// Name implements Module.
func (s *SoftCond[B]) Name() string { return s.name }

// Variables implements Module: the gating matrix "w" and the stacked body
// variables under "body.".
func (s *SoftCond[B]) Variables() []Variable {
	vars := []Variable{{Path: "w", Shape: tensor.Shape{s.cfg.CondDim, s.cfg.NumExperts}}}
	return append(vars, prefixVariables("body", s.cfg.NumExperts, s.body.Variables())...)
}

func (s *SoftCond[B]) slots() []slot[B] {
	return []slot[B]{{key: "body", module: s.body, set: func(m Module[B]) { s.body = m }}}
}

// Forward implements Module.
func (s *SoftCond[B]) Forward(theta *Theta[B], inputs ...*Tensor[B]) ([]*Tensor[B], error) {
	if err := s.checkCondInput(ShapesOf(inputs)); err != nil {
		return nil, err
	}
	th, err := childTheta(s.name, "body", theta, s.body)
	if err != nil {
		return nil, err
	}
	experts := s.cfg.NumExperts
	declared := variableSet(prefixVariables("", experts, s.body.Variables()))

	var gate *Tensor[B]
	if experts > 1 {
		w, ok := theta.Get("w")
		if !ok {
			return nil, configErrorf(s.name, "parameter tree has no gating matrix \"w\"")
		}
		if want := (tensor.Shape{s.cfg.CondDim, experts}); !w.Shape().Equal(want) {
			return nil, shapeErrorf(s.name, "gating matrix has shape %v, want %v", w.Shape(), want)
		}
		emb := inputs[0].Reshape(-1, s.cfg.CondDim).SumDim(0, true)
		gate = emb.MatMul(w).Sigmoid().Reshape(experts)
	}

	blended, err := th.Map(func(path string, v *Tensor[B]) (*Tensor[B], error) {
		want, ok := declared[path]
		if !ok || v == nil {
			return v, nil
		}
		if !v.Shape().Equal(want) {
			return nil, shapeErrorf(s.name, "variable %q has shape %v, want %v", path, v.Shape(), want)
		}
		if gate == nil {
			return v.Index(0), nil
		}
		return v.Mul(gate.Reshape(gateShape(experts, len(want)-1)...)).SumDim(0, false), nil
	})
	if err != nil {
		return nil, err
	}

	out, err := s.body.Forward(blended, inputs...)
	if err != nil {
		return nil, wrapChild(s.name, err)
	}
	return out, nil
}

// InferShapes implements Module. Cost is the body cost plus the gate
// (reduction, projection and squashing) and the weighted sums over every
// declared body variable.
func (s *SoftCond[B]) InferShapes(inputs ...tensor.Shape) (Meta, error) {
	if err := checkShapes(s.name, inputs); err != nil {
		return Meta{}, err
	}
	if err := s.checkCondInput(inputs); err != nil {
		return Meta{}, err
	}
	meta, err := s.body.InferShapes(inputs...)
	if err != nil {
		return Meta{}, wrapChild(s.name, err)
	}

	experts := int64(s.cfg.NumExperts)
	var gating int64
	if experts > 1 {
		gating = int64(inputs[0].NumElements()) + 2*int64(s.cfg.CondDim)*experts + experts
		for _, v := range s.body.Variables() {
			gating += 2 * experts * int64(v.Shape.NumElements())
		}
	}
	return Meta{Cost: meta.Cost + gating, OutShapes: meta.OutShapes}, nil
}

func (s *SoftCond[B]) checkCondInput(shapes []tensor.Shape) error {
	if len(shapes) == 0 || shapes[0] == nil {
		return configErrorf(s.name, "expects a conditioning input")
	}
	if n := shapes[0].NumElements(); n%s.cfg.CondDim != 0 {
		return shapeErrorf(s.name, "input %v has %d elements, not a multiple of cond_dim %d", shapes[0], n, s.cfg.CondDim)
	}
	return nil
}

// gateShape returns [experts, 1, ..., 1] with rank trailing ones.
func gateShape(experts, rank int) []int {
	shape := make([]int, rank+1)
	shape[0] = experts
	for i := 1; i <= rank; i++ {
		shape[i] = 1
	}
	return shape
}

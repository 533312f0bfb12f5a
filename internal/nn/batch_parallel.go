package nn

import (
	"golang.org/x/sync/errgroup"

	"github.com/apoorvakumar2306/lingvo/internal/cluster"
	"github.com/apoorvakumar2306/lingvo/internal/tensor"
)

// BatchParallel splits the leading (batch) dimension of every input into
// one shard per cluster worker, runs the sub-module once per shard, and
// concatenates the shard outputs along the batch dimension in shard order.
//
// Shards run concurrently, one goroutine each. With a single worker the
// sub-module is called directly.
type BatchParallel[B tensor.Backend] struct {
	name    string
	sub     Module[B]
	cluster cluster.Cluster
}

// NewBatchParallel creates a BatchParallel of sub over c.
func NewBatchParallel[B tensor.Backend](name string, sub Module[B], c cluster.Cluster) (*BatchParallel[B], error) {
	if err := validateName("BatchParallel", name); err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, configErrorf(name, "sub-module is nil")
	}
	if c == nil {
		return nil, configErrorf(name, "cluster is nil")
	}
	if c.WorkerCount() < 1 {
		return nil, configErrorf(name, "cluster has %d workers", c.WorkerCount())
	}
	return &BatchParallel[B]{name: name, sub: sub, cluster: c}, nil
}

// Name implements Module.
func (bp *BatchParallel[B]) Name() string { return bp.name }

// Variables implements Module.
func (bp *BatchParallel[B]) Variables() []Variable {
	return prefixVariables("sub", 0, bp.sub.Variables())
}

// Forward implements Module.
func (bp *BatchParallel[B]) Forward(theta *Theta[B], inputs ...*Tensor[B]) ([]*Tensor[B], error) {
	th, err := childTheta(bp.name, "sub", theta, bp.sub)
	if err != nil {
		return nil, err
	}
	k := bp.cluster.WorkerCount()
	if k == 1 {
		out, err := bp.sub.Forward(th, inputs...)
		if err != nil {
			return nil, wrapChild(bp.name, err)
		}
		return out, nil
	}

	if _, err := shardShapes(bp.name, k, ShapesOf(inputs)); err != nil {
		return nil, err
	}
	shards := make([][]*Tensor[B], k)
	for i := range shards {
		shards[i] = make([]*Tensor[B], len(inputs))
	}
	for j, x := range inputs {
		for i, part := range x.Chunk(k, 0) {
			shards[i][j] = part
		}
	}

	outs := make([][]*Tensor[B], k)
	var g errgroup.Group
	for i := range shards {
		device := bp.cluster.DeviceForShard(i)
		g.Go(func() error {
			Logger().Debug("batch shard", "module", bp.name, "shard", i, "device", device.String())
			out, err := bp.sub.Forward(th, shards[i]...)
			if err != nil {
				return wrapChild(bp.name, err)
			}
			outs[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make([]*Tensor[B], len(outs[0]))
	for j := range merged {
		parts := make([]*Tensor[B], k)
		for i, out := range outs {
			if len(out) != len(merged) {
				return nil, structureErrorf(bp.name, "shard %d returned %d outputs, shard 0 returned %d", i, len(out), len(merged))
			}
			if (out[j] == nil) != (outs[0][j] == nil) {
				return nil, structureErrorf(bp.name, "output %d is absent in some shards only", j)
			}
			parts[i] = out[j]
		}
		if parts[0] == nil {
			continue
		}
		if len(parts[0].Shape()) == 0 {
			return nil, shapeErrorf(bp.name, "output %d is a scalar and cannot be concatenated", j)
		}
		merged[j] = tensor.Cat(parts, 0)
	}
	return merged, nil
}

// InferShapes implements Module. The sub-module meta is inferred for one
// shard; cost scales with the shard count and the batch dimension of every
// output is multiplied back.
func (bp *BatchParallel[B]) InferShapes(inputs ...tensor.Shape) (Meta, error) {
	if err := checkShapes(bp.name, inputs); err != nil {
		return Meta{}, err
	}
	k := bp.cluster.WorkerCount()
	if k == 1 {
		meta, err := bp.sub.InferShapes(inputs...)
		if err != nil {
			return Meta{}, wrapChild(bp.name, err)
		}
		return meta, nil
	}

	shard, err := shardShapes(bp.name, k, inputs)
	if err != nil {
		return Meta{}, err
	}
	meta, err := bp.sub.InferShapes(shard...)
	if err != nil {
		return Meta{}, wrapChild(bp.name, err)
	}
	out := make([]tensor.Shape, len(meta.OutShapes))
	for j, s := range meta.OutShapes {
		if s == nil {
			continue
		}
		if len(s) == 0 {
			return Meta{}, shapeErrorf(bp.name, "output %d is a scalar and cannot be concatenated", j)
		}
		out[j] = s.Clone()
		out[j][0] *= k
	}
	return Meta{Cost: meta.Cost * int64(k), OutShapes: out}, nil
}

// shardShapes checks that every input is present with a batch dimension
// divisible by k, and returns the per-shard shapes.
func shardShapes(owner string, k int, shapes []tensor.Shape) ([]tensor.Shape, error) {
	shard := make([]tensor.Shape, len(shapes))
	for j, s := range shapes {
		if s == nil {
			return nil, shapeErrorf(owner, "input %d is absent; every input must be a tensor", j)
		}
		if len(s) == 0 || s[0]%k != 0 {
			return nil, shapeErrorf(owner, "input %d has shape %v, batch dimension not divisible by %d", j, s, k)
		}
		shard[j] = s.Clone()
		shard[j][0] /= k
	}
	return shard, nil
}

// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/apoorvakumar2306/lingvo/internal/cluster"
	"github.com/apoorvakumar2306/lingvo/internal/nn"
	"github.com/apoorvakumar2306/lingvo/internal/remat"
	"github.com/apoorvakumar2306/lingvo/tensor"
)

// Selectors

// FirstN returns its first n inputs.
type FirstN[B tensor.Backend] = nn.FirstN[B]

// NewFirstN creates a FirstN. n must be positive.
func NewFirstN[B tensor.Backend](name string, n int) (*FirstN[B], error) {
	return nn.NewFirstN[B](name, n)
}

// ArgIndex returns the inputs at the given indices, in order.
type ArgIndex[B tensor.Backend] = nn.ArgIndex[B]

// NewArgIndex creates an ArgIndex. Duplicate indices are allowed.
func NewArgIndex[B tensor.Backend](name string, indices ...int) (*ArgIndex[B], error) {
	return nn.NewArgIndex[B](name, indices...)
}

// Chaining

// Sequential threads the outputs of each sub-module into the next.
type Sequential[B tensor.Backend] = nn.Sequential[B]

// NewSequential creates a Sequential. With repeat > 1 the whole chain is
// replicated with independent parameters under rep.000, rep.001, ...
//
// Example:
//
//	mlp, err := nn.NewSequential[B]("mlp", 2, linear, relu)
func NewSequential[B tensor.Backend](name string, repeat int, subs ...Module[B]) (*Sequential[B], error) {
	return nn.NewSequential[B](name, repeat, subs...)
}

// UnarySequential is a Sequential of single-input, single-output modules.
type UnarySequential[B tensor.Backend] = nn.UnarySequential[B]

// NewUnarySequential creates a UnarySequential.
func NewUnarySequential[B tensor.Backend](name string, subs ...Module[B]) (*UnarySequential[B], error) {
	return nn.NewUnarySequential[B](name, subs...)
}

// Repetition

// Repeat applies body repeat times, threading state through iterations.
type Repeat[B tensor.Backend] = nn.Repeat[B]

// NewRepeat creates a Repeat. Body variables gain a leading [repeat] axis.
func NewRepeat[B tensor.Backend](name string, body Module[B], repeat int) (*Repeat[B], error) {
	return nn.NewRepeat[B](name, body, repeat)
}

// ParallelRepeat applies body independently to repeat slices of its inputs.
type ParallelRepeat[B tensor.Backend] = nn.ParallelRepeat[B]

// NewParallelRepeat creates a ParallelRepeat.
func NewParallelRepeat[B tensor.Backend](name string, body Module[B], repeat int) (*ParallelRepeat[B], error) {
	return nn.NewParallelRepeat[B](name, body, repeat)
}

// Blending

// SoftCondConfig configures a SoftCond.
type SoftCondConfig = nn.SoftCondConfig

// SoftCond blends stacked expert parameters with input-dependent weights.
type SoftCond[B tensor.Backend] = nn.SoftCond[B]

// NewSoftCond creates a SoftCond over body.
func NewSoftCond[B tensor.Backend](name string, body Module[B], cfg SoftCondConfig) (*SoftCond[B], error) {
	return nn.NewSoftCond[B](name, body, cfg)
}

// Graphs

// Signature routes one graph sub-module: "in1,in2->out1".
type Signature = nn.Signature

// ParseSignature parses a signature string.
func ParseSignature(s string) (Signature, error) {
	return nn.ParseSignature(s)
}

// GraphSub pairs a sub-module with its signature.
type GraphSub[B tensor.Backend] = nn.GraphSub[B]

// GraphConfig configures a Graph.
type GraphConfig[B tensor.Backend] = nn.GraphConfig[B]

// Graph runs sub-modules over a write-once named-tensor namespace.
type Graph[B tensor.Backend] = nn.Graph[B]

// NewGraph creates a Graph and checks its namespace routing.
func NewGraph[B tensor.Backend](name string, cfg GraphConfig[B]) (*Graph[B], error) {
	return nn.NewGraph(name, cfg)
}

// Branching

// MergeFn combines the outputs of every branch.
type MergeFn[B tensor.Backend] = nn.MergeFn[B]

// MergeMetaFn is the shape/cost mirror of a MergeFn.
type MergeMetaFn = nn.MergeMetaFn

// Parallel runs every sub-module on the same inputs and merges the outputs.
type Parallel[B tensor.Backend] = nn.Parallel[B]

// NewParallel creates a Parallel.
func NewParallel[B tensor.Backend](name string, merge MergeFn[B], mergeMeta MergeMetaFn, subs ...Module[B]) (*Parallel[B], error) {
	return nn.NewParallel(name, merge, mergeMeta, subs...)
}

// ConcatMerge concatenates branch outputs along dim.
func ConcatMerge[B tensor.Backend](dim int) MergeFn[B] { return nn.ConcatMerge[B](dim) }

// ConcatMergeMeta is the meta companion of ConcatMerge.
func ConcatMergeMeta(dim int) MergeMetaFn { return nn.ConcatMergeMeta(dim) }

// SumMerge adds branch outputs element-wise.
func SumMerge[B tensor.Backend]() MergeFn[B] { return nn.SumMerge[B]() }

// SumMergeMeta is the meta companion of SumMerge.
func SumMergeMeta() MergeMetaFn { return nn.SumMergeMeta() }

// Branch runs a body and appends the outputs of fetched descendants.
type Branch[B tensor.Backend] = nn.Branch[B]

// NewBranch creates a Branch. Fetches are dotted descendant paths relative to
// body, such as "block.proj".
func NewBranch[B tensor.Backend](name string, body Module[B], fetches ...string) (*Branch[B], error) {
	return nn.NewBranch[B](name, body, fetches...)
}

// BatchParallel shards the batch dimension across cluster workers.
type BatchParallel[B tensor.Backend] = nn.BatchParallel[B]

// Cluster reports the worker topology of a BatchParallel.
type Cluster = cluster.Cluster

// LocalCluster creates a single-host cluster of n workers on device kind.
// Non-positive n means one worker per CPU.
func LocalCluster(kind tensor.Device, n int) Cluster {
	return cluster.NewLocal(kind, n)
}

// NewBatchParallel creates a BatchParallel of sub over c.
func NewBatchParallel[B tensor.Backend](name string, sub Module[B], c Cluster) (*BatchParallel[B], error) {
	return nn.NewBatchParallel[B](name, sub, c)
}

// Rematerialization

// Recomputer runs a flat function and may replay it on the backward pass.
type Recomputer[B tensor.Backend] = remat.Recomputer[B]

// Remat wraps a body so its forward pass runs through a Recomputer.
type Remat[B tensor.Backend] = nn.Remat[B]

// NewRemat creates a Remat. A nil recomputer runs the body directly.
func NewRemat[B tensor.Backend](name string, body Module[B], recomputer Recomputer[B]) (*Remat[B], error) {
	return nn.NewRemat[B](name, body, recomputer)
}

// Checkpointer is a Recomputer that keeps only segment inputs and can
// replay each recorded segment.
type Checkpointer[B tensor.Backend] = remat.Checkpointer[B]

// NewCheckpointer creates an empty Checkpointer.
func NewCheckpointer[B tensor.Backend]() *Checkpointer[B] {
	return remat.NewCheckpointer[B]()
}

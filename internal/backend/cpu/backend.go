// Package cpu implements the reference CPU backend.
//
// Kernels are naive loops over float32/float64 storage. Every operation
// allocates its result, except the reshaping operations which return views.
package cpu

import (
	"fmt"

	"github.com/apoorvakumar2306/lingvo/internal/parallel"
	"github.com/apoorvakumar2306/lingvo/internal/tensor"
)

// float is the set of element types the CPU kernels operate on.
type float interface {
	~float32 | ~float64
}

// minParallelRows is the smallest MatMul row count split across goroutines.
const minParallelRows = 64

// CPUBackend implements tensor operations on CPU.
// It is safe for concurrent use once configured.
type CPUBackend struct {
	device tensor.Device
	rows   parallel.Config // MatMul row scheduling
}

// New creates a new CPU backend. Large MatMuls split their rows across all
// CPUs.
func New() *CPUBackend {
	rows := parallel.DefaultConfig()
	rows.MinChunkSize = minParallelRows
	return &CPUBackend{
		device: tensor.CPU,
		rows:   rows,
	}
}

// SetParallelism overrides how MatMul rows are scheduled. It must not be
// called while kernels are running.
func (cpu *CPUBackend) SetParallelism(cfg parallel.Config) {
	cpu.rows = cfg
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// alloc creates a zeroed result tensor or panics with the op name.
func (cpu *CPUBackend) alloc(op string, shape tensor.Shape, dtype tensor.DataType) *tensor.RawTensor {
	result, err := tensor.NewRaw(shape, dtype, cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", op, err))
	}
	return result
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("add", a, b, add[float32], add[float64])
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("mul", a, b, mul[float32], mul[float64])
}

// MulScalar multiplies every element by scalar.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar float64) *tensor.RawTensor {
	return cpu.unary("mulscalar", x,
		func(v float32) float32 { return v * float32(scalar) },
		func(v float64) float64 { return v * scalar })
}

func add[T float](x, y T) T { return x + y }

func mul[T float](x, y T) T { return x * y }

// binary dispatches a broadcasting element-wise kernel by dtype.
func (cpu *CPUBackend) binary(
	op string,
	a, b *tensor.RawTensor,
	f32 func(x, y float32) float32,
	f64 func(x, y float64) float64,
) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(fmt.Sprintf("%s: dtype mismatch %s vs %s", op, a.DType(), b.DType()))
	}
	outShape, _, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", op, err))
	}

	result := cpu.alloc(op, outShape, a.DType())
	switch a.DType() {
	case tensor.Float32:
		broadcastApply(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), outShape, a.Shape(), b.Shape(), f32)
	case tensor.Float64:
		broadcastApply(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), outShape, a.Shape(), b.Shape(), f64)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", op, a.DType()))
	}
	return result
}

// unary dispatches an element-wise kernel by dtype.
func (cpu *CPUBackend) unary(
	op string,
	x *tensor.RawTensor,
	f32 func(v float32) float32,
	f64 func(v float64) float64,
) *tensor.RawTensor {
	result := cpu.alloc(op, x.Shape(), x.DType())
	switch x.DType() {
	case tensor.Float32:
		apply(result.AsFloat32(), x.AsFloat32(), f32)
	case tensor.Float64:
		apply(result.AsFloat64(), x.AsFloat64(), f64)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", op, x.DType()))
	}
	return result
}

func apply[T float](out, x []T, f func(T) T) {
	for i, v := range x {
		out[i] = f(v)
	}
}

func broadcastApply[T float](out, a, b []T, outShape, aShape, bShape tensor.Shape, f func(x, y T) T) {
	if aShape.Equal(outShape) && bShape.Equal(outShape) {
		for i := range out {
			out[i] = f(a[i], b[i])
		}
		return
	}

	outStrides := outShape.ComputeStrides()
	aStrides := computeBroadcastStridesForShape(aShape, outShape)
	bStrides := computeBroadcastStridesForShape(bShape, outShape)
	for i := range out {
		out[i] = f(a[computeFlatIndex(i, outStrides, aStrides)], b[computeFlatIndex(i, outStrides, bStrides)])
	}
}

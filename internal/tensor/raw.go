package tensor

import (
	"fmt"
	"unsafe"
)

// Device represents the compute device kind for tensor operations.
type Device int

// Supported compute devices.
const (
	CPU Device = iota
	CUDA
	Metal
	WebGPU
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case CUDA:
		return "CUDA"
	case Metal:
		return "Metal"
	case WebGPU:
		return "WebGPU"
	default:
		return "Unknown"
	}
}

// RawTensor is the low-level tensor representation.
//
// Several RawTensors may share one buffer: reshapes and leading-axis slices
// are views that only differ in shape and offset.
type RawTensor struct {
	buffer []byte   // Shared backing storage
	shape  Shape    // Tensor dimensions
	stride []int    // Memory strides (row-major)
	dtype  DataType // Runtime type information
	device Device   // Compute device
	offset int      // Byte offset into buffer for views
}

// NewRaw creates a new RawTensor with the given shape and type.
// Memory is allocated and zero-initialized.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	if shape == nil {
		return nil, fmt.Errorf("invalid shape: absent")
	}
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	byteSize := shape.NumElements() * dtype.Size()

	return &RawTensor{
		buffer: make([]byte, byteSize),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
		device: device,
		offset: 0,
	}, nil
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the tensor's memory strides.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// DType returns the tensor's data type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// Device returns the tensor's compute device.
func (r *RawTensor) Device() Device {
	return r.device
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// ByteSize returns the total memory size in bytes.
func (r *RawTensor) ByteSize() int {
	return r.NumElements() * r.dtype.Size()
}

// Data returns the raw byte slice covered by this tensor.
// WARNING: Direct access to underlying memory. Use with caution.
func (r *RawTensor) Data() []byte {
	return r.buffer[r.offset : r.offset+r.ByteSize()]
}

// AsFloat32 interprets the data as []float32.
// Panics if the tensor's dtype is not Float32.
func (r *RawTensor) AsFloat32() []float32 {
	if r.dtype != Float32 {
		panic(fmt.Sprintf("tensor dtype is %s, not float32", r.dtype))
	}
	data := r.Data()
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*float32)(unsafe.Pointer(&data[0])), r.NumElements())
}

// AsFloat64 interprets the data as []float64.
// Panics if the tensor's dtype is not Float64.
func (r *RawTensor) AsFloat64() []float64 {
	if r.dtype != Float64 {
		panic(fmt.Sprintf("tensor dtype is %s, not float64", r.dtype))
	}
	data := r.Data()
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*float64)(unsafe.Pointer(&data[0])), r.NumElements())
}

// Clone creates a deep copy of the RawTensor with its own buffer.
func (r *RawTensor) Clone() *RawTensor {
	buf := make([]byte, r.ByteSize())
	copy(buf, r.Data())
	return &RawTensor{
		buffer: buf,
		shape:  r.shape.Clone(),
		stride: append([]int(nil), r.stride...),
		dtype:  r.dtype,
		device: r.device,
		offset: 0,
	}
}

// View returns a tensor sharing this tensor's memory under a new shape.
// Panics if the element counts differ.
func (r *RawTensor) View(shape Shape) *RawTensor {
	if shape.NumElements() != r.NumElements() {
		panic(fmt.Sprintf("view: cannot view %v (%d elements) as %v (%d elements)",
			r.shape, r.NumElements(), shape, shape.NumElements()))
	}
	return &RawTensor{
		buffer: r.buffer,
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  r.dtype,
		device: r.device,
		offset: r.offset,
	}
}

// Index returns a view of the i-th slab along the leading dimension.
//
// Example:
//
//	x has shape [4, 2, 3]
//	x.Index(1) has shape [2, 3] and aliases elements 6..11
func (r *RawTensor) Index(i int) *RawTensor {
	if len(r.shape) == 0 {
		panic("index: scalar tensor has no leading dimension")
	}
	if i < 0 || i >= r.shape[0] {
		panic(fmt.Sprintf("index: %d out of range for leading dimension %d", i, r.shape[0]))
	}
	inner := r.shape.Tail()
	slab := inner.NumElements() * r.dtype.Size()
	return &RawTensor{
		buffer: r.buffer,
		shape:  inner,
		stride: inner.ComputeStrides(),
		dtype:  r.dtype,
		device: r.device,
		offset: r.offset + i*slab,
	}
}

// SetIndex copies src into the i-th slab along the leading dimension.
// Writes to distinct slabs touch disjoint memory and may run concurrently.
func (r *RawTensor) SetIndex(i int, src *RawTensor) {
	dst := r.Index(i)
	if !dst.shape.Equal(src.shape) || dst.dtype != src.dtype {
		panic(fmt.Sprintf("set index: slab is %s%v, source is %s%v",
			dst.dtype, dst.shape, src.dtype, src.shape))
	}
	copy(dst.Data(), src.Data())
}

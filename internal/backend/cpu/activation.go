package cpu

import (
	"math"

	"github.com/apoorvakumar2306/lingvo/internal/tensor"
)

// ReLU applies max(0, x) element-wise.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("relu", x, relu[float32], relu[float64])
}

// Sigmoid applies the logistic function element-wise.
func (cpu *CPUBackend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unary("sigmoid", x,
		func(v float32) float32 { return float32(sigmoid(float64(v))) },
		sigmoid)
}

func relu[T float](v T) T {
	if v < 0 {
		return 0
	}
	return v
}

// sigmoid is evaluated in the numerically stable branch for each sign.
func sigmoid(v float64) float64 {
	if v >= 0 {
		return 1 / (1 + math.Exp(-v))
	}
	e := math.Exp(v)
	return e / (1 + e)
}

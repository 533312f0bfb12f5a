package nn

import (
	"math"
	"math/rand"

	"github.com/apoorvakumar2306/lingvo/internal/tensor"
)

// Initializer creates the initial value of one variable.
type Initializer[B tensor.Backend] func(v Variable, backend B) *Tensor[B]

// InitTheta creates a parameter tree holding one initialized tensor per
// variable of m, in Variables order.
//
// Example:
//
//	rng := rand.New(rand.NewSource(1))
//	theta := nn.InitTheta(model, cpu.New(), nn.DefaultInitializer[*cpu.CPUBackend](rng))
func InitTheta[B tensor.Backend](m Module[B], backend B, init Initializer[B]) *Theta[B] {
	theta := NewTheta[B]()
	for _, v := range m.Variables() {
		theta.Set(v.Path, init(v, backend))
	}
	return theta
}

// DefaultInitializer uses Xavier for variables of rank >= 2, with fans taken
// from the last two dimensions, and zeros for vectors and scalars.
func DefaultInitializer[B tensor.Backend](rng *rand.Rand) Initializer[B] {
	return func(v Variable, backend B) *Tensor[B] {
		n := len(v.Shape)
		if n < 2 {
			return Zeros(v.Shape, backend)
		}
		return Xavier(v.Shape[n-2], v.Shape[n-1], v.Shape, rng, backend)
	}
}

// ConstantInitializer fills every variable with value.
func ConstantInitializer[B tensor.Backend](value float32) Initializer[B] {
	return func(v Variable, backend B) *Tensor[B] {
		return tensor.Full(v.Shape, value, backend)
	}
}

// Xavier (Glorot) initialization for weights.
//
// Initializes weights with values drawn from a uniform distribution:
// U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out)))
//
// Parameters:
//   - fanIn: Number of input units
//   - fanOut: Number of output units
//   - shape: Shape of the weight tensor
//   - rng: Random source
//   - backend: Backend to use for tensor creation
func Xavier[B tensor.Backend](fanIn, fanOut int, shape tensor.Shape, rng *rand.Rand, backend B) *Tensor[B] {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	return tensor.Uniform[float32](shape, -bound, bound, rng, backend)
}

// Zeros creates a tensor filled with zeros.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *Tensor[B] {
	return tensor.Zeros[float32](shape, backend)
}

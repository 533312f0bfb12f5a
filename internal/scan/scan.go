// Package scan provides the iterate-and-accumulate primitives used by the
// repeat composers.
package scan

import (
	"context"

	"github.com/pkg/errors"

	"github.com/apoorvakumar2306/lingvo/internal/parallel"
)

// Scan threads state through step once per element of xs, in order.
// Each step receives the carried state and one element, and returns the new
// state plus an auxiliary per-iteration output.
//
// It returns the final state and the auxiliary outputs of every iteration.
// The first failing iteration aborts the scan; its error is returned wrapped
// with the iteration index.
func Scan[S, X, A any](state S, xs []X, step func(state S, x X) (S, A, error)) (S, []A, error) {
	aux := make([]A, len(xs))
	for i, x := range xs {
		next, a, err := step(state, x)
		if err != nil {
			var zero S
			return zero, nil, errors.Wrapf(err, "scan step %d", i)
		}
		state = next
		aux[i] = a
	}
	return state, aux, nil
}

// Map applies fn to every element of xs independently.
//
// Map is the degenerate scan with no carried state, so iterations may run
// concurrently according to cfg. Results keep the order of xs.
func Map[X, Y any](xs []X, fn func(i int, x X) (Y, error), cfg parallel.Config) ([]Y, error) {
	ys := make([]Y, len(xs))
	err := parallel.Do(context.Background(), len(xs), func(_ context.Context, i int) error {
		y, err := fn(i, xs[i])
		if err != nil {
			return errors.Wrapf(err, "map slice %d", i)
		}
		ys[i] = y
		return nil
	}, cfg)
	if err != nil {
		return nil, err
	}
	return ys, nil
}

package nn

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error classes. Every error returned by a module wraps exactly one of them,
// so callers classify failures with errors.Is.
var (
	// ErrConfig marks malformed or missing composition configuration: unset
	// required fields, invalid signatures, out-of-range indices and arity
	// mismatches.
	ErrConfig = errors.New("config error")

	// ErrShapeMismatch marks a shape that disagrees with a module's
	// expectation, and graph namespace violations.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrStructuralInconsistency marks a disagreement between the real
	// computation and its shape inference mirror. It is a programming error.
	ErrStructuralInconsistency = errors.New("structural inconsistency")
)

func configErrorf(module, format string, args ...any) error {
	return errors.Wrap(ErrConfig, module+": "+fmt.Sprintf(format, args...))
}

func shapeErrorf(module, format string, args ...any) error {
	return errors.Wrap(ErrShapeMismatch, module+": "+fmt.Sprintf(format, args...))
}

func structureErrorf(module, format string, args ...any) error {
	return errors.Wrap(ErrStructuralInconsistency, module+": "+fmt.Sprintf(format, args...))
}

// wrapChild prefixes a sub-module failure with the enclosing module name.
// The error class of err is preserved.
func wrapChild(module string, err error) error {
	return errors.WithMessage(err, module)
}

// NamespaceError reports a graph namespace violation: a read of a name that
// was never written, or a second write to the same name.
type NamespaceError struct {
	Module string
	Path   string
	Op     string // "read" or "write"
	Reason string
}

func (e *NamespaceError) Error() string {
	return fmt.Sprintf("%s: %s %q: %s", e.Module, e.Op, e.Path, e.Reason)
}

// Is reports NamespaceError as a shape mismatch.
func (e *NamespaceError) Is(target error) bool {
	return target == ErrShapeMismatch
}

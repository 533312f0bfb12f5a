package nn

import (
	"regexp"
	"strings"
)

var identPath = regexp.MustCompile(`^[_A-Za-z][_A-Za-z0-9]*(\.[_A-Za-z][_A-Za-z0-9]*)*$`)

// Signature routes a graph sub-module: it reads Inputs from the namespace and
// writes its outputs to Outputs.
type Signature struct {
	Inputs  []string
	Outputs []string
}

// ParseSignature parses "in1,in2->out1,out2". Names are dotted identifier
// paths; both sides must be non-empty.
func ParseSignature(s string) (Signature, error) {
	parts := strings.Split(s, "->")
	if len(parts) != 2 {
		return Signature{}, configErrorf("signature", "%q must contain exactly one \"->\"", s)
	}
	inputs, err := parseNames(s, parts[0])
	if err != nil {
		return Signature{}, err
	}
	outputs, err := parseNames(s, parts[1])
	if err != nil {
		return Signature{}, err
	}
	return Signature{Inputs: inputs, Outputs: outputs}, nil
}

// String renders the signature in its parseable form.
func (s Signature) String() string {
	return strings.Join(s.Inputs, ",") + "->" + strings.Join(s.Outputs, ",")
}

func parseNames(sig, side string) ([]string, error) {
	fields := strings.Split(side, ",")
	names := make([]string, len(fields))
	for i, f := range fields {
		name := strings.TrimSpace(f)
		if !identPath.MatchString(name) {
			return nil, configErrorf("signature", "%q: invalid name %q", sig, name)
		}
		names[i] = name
	}
	return names, nil
}

// ValidPath reports whether name is a dotted identifier path.
func ValidPath(name string) bool {
	return identPath.MatchString(name)
}

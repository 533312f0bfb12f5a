package config

import (
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/pkg/errors"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// File is the decoded content of one or more model files.
type File struct {
	Modules []*Spec
}

// Lookup returns the top-level module named name.
func (f *File) Lookup(name string) (*Spec, bool) {
	for _, m := range f.Modules {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// Names returns the top-level module names in declaration order.
func (f *File) Names() []string {
	names := make([]string, len(f.Modules))
	for i, m := range f.Modules {
		names[i] = m.Name
	}
	return names
}

// Spec is the configuration of one module. It is never modified after
// loading.
type Spec struct {
	Kind      string
	Name      string
	Signature string
	Attrs     map[string]cty.Value
	Subs      []*Spec
	Range     hcl.Range
}

// Path returns a "kind.name" label for messages.
func (s *Spec) Path() string {
	return s.Kind + "." + s.Name
}

// Has reports whether attribute name is set.
func (s *Spec) Has(name string) bool {
	_, ok := s.Attrs[name]
	return ok
}

// AttrNames returns the set attribute names, sorted.
func (s *Spec) AttrNames() []string {
	names := make([]string, 0, len(s.Attrs))
	for k := range s.Attrs {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Int returns attribute name as an int, or def if it is not set.
func (s *Spec) Int(name string, def int) (int, error) {
	v, ok := s.Attrs[name]
	if !ok {
		return def, nil
	}
	var out int
	if err := s.decode(name, v, cty.Number, &out); err != nil {
		return 0, err
	}
	return out, nil
}

// RequiredInt returns attribute name as an int and fails if it is not set.
func (s *Spec) RequiredInt(name string) (int, error) {
	if !s.Has(name) {
		return 0, s.missing(name)
	}
	return s.Int(name, 0)
}

// String returns attribute name as a string, or def if it is not set.
func (s *Spec) String(name, def string) (string, error) {
	v, ok := s.Attrs[name]
	if !ok {
		return def, nil
	}
	var out string
	if err := s.decode(name, v, cty.String, &out); err != nil {
		return "", err
	}
	return out, nil
}

// Bool returns attribute name as a bool, or def if it is not set.
func (s *Spec) Bool(name string, def bool) (bool, error) {
	v, ok := s.Attrs[name]
	if !ok {
		return def, nil
	}
	var out bool
	if err := s.decode(name, v, cty.Bool, &out); err != nil {
		return false, err
	}
	return out, nil
}

// Strings returns attribute name as a list of strings. Unset is nil.
func (s *Spec) Strings(name string) ([]string, error) {
	v, ok := s.Attrs[name]
	if !ok {
		return nil, nil
	}
	var out []string
	if err := s.decode(name, v, cty.List(cty.String), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Ints returns attribute name as a list of ints. Unset is nil.
func (s *Spec) Ints(name string) ([]int, error) {
	v, ok := s.Attrs[name]
	if !ok {
		return nil, nil
	}
	var out []int
	if err := s.decode(name, v, cty.List(cty.Number), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Spec) decode(name string, v cty.Value, ty cty.Type, out any) error {
	if v.IsNull() {
		return errors.Errorf("%s: %s: attribute %q is null", s.Range, s.Path(), name)
	}
	conv, err := convert.Convert(v, ty)
	if err != nil {
		return errors.Wrapf(err, "%s: %s: attribute %q", s.Range, s.Path(), name)
	}
	if err := gocty.FromCtyValue(conv, out); err != nil {
		return errors.Wrapf(err, "%s: %s: attribute %q", s.Range, s.Path(), name)
	}
	return nil
}

func (s *Spec) missing(name string) error {
	return errors.Errorf("%s: %s: missing required attribute %q", s.Range, s.Path(), name)
}

// Format renders the spec tree, one module per line.
func (s *Spec) Format() string {
	return s.format("")
}

func (s *Spec) format(indent string) string {
	line := fmt.Sprintf("%s%s %q", indent, s.Kind, s.Name)
	if s.Signature != "" {
		line += fmt.Sprintf(" [%s]", s.Signature)
	}
	for _, name := range s.AttrNames() {
		line += fmt.Sprintf(" %s=%s", name, formatValue(s.Attrs[name]))
	}
	line += "\n"
	for _, sub := range s.Subs {
		line += sub.format(indent + "  ")
	}
	return line
}

func formatValue(v cty.Value) string {
	switch {
	case v.IsNull():
		return "null"
	case v.Type() == cty.String:
		return fmt.Sprintf("%q", v.AsString())
	case v.Type() == cty.Number:
		return v.AsBigFloat().Text('g', -1)
	case v.Type() == cty.Bool:
		return fmt.Sprintf("%t", v.True())
	case v.CanIterateElements():
		out := "["
		first := true
		for it := v.ElementIterator(); it.Next(); {
			_, e := it.Element()
			if !first {
				out += ","
			}
			out += formatValue(e)
			first = false
		}
		return out + "]"
	default:
		return v.GoString()
	}
}

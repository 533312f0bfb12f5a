package config

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/pkg/errors"
	"github.com/zclconf/go-cty/cty"
)

// fileRoot decodes the top-level blocks of a model file.
type fileRoot struct {
	Modules []*moduleBlock `hcl:"module,block"`
}

// moduleBlock decodes one module block. Kind-specific attributes stay in
// Remain and are evaluated separately.
type moduleBlock struct {
	Kind      string         `hcl:"kind,label"`
	Name      string         `hcl:"name,label"`
	Signature *string        `hcl:"signature,optional"`
	Subs      []*moduleBlock `hcl:"module,block"`
	Remain    hcl.Body       `hcl:",remain"`
}

// Parse decodes a model file from src. vars are exposed to expressions as
// var.<name>.
func Parse(src []byte, filename string, vars map[string]cty.Value) (*File, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, errors.Wrapf(diags, "failed to parse %s", filename)
	}
	out := &File{}
	if err := decodeInto(out, f.Body, newEvalContext(vars)); err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", filename)
	}
	return out, nil
}

// Load reads model files from paths. A directory contributes every .hcl
// file below it, in lexical order. Module names must be unique across all
// files.
func Load(vars map[string]cty.Value, paths ...string) (*File, error) {
	files, err := findHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.Errorf("no .hcl files found in %v", paths)
	}

	parser := hclparse.NewParser()
	ctx := newEvalContext(vars)
	out := &File{}
	for _, path := range files {
		f, diags := parser.ParseHCLFile(path)
		if diags.HasErrors() {
			return nil, errors.Wrapf(diags, "failed to parse %s", path)
		}
		if err := decodeInto(out, f.Body, ctx); err != nil {
			return nil, errors.Wrapf(err, "failed to decode %s", path)
		}
	}
	return out, nil
}

func decodeInto(out *File, body hcl.Body, ctx *hcl.EvalContext) error {
	var root fileRoot
	if diags := gohcl.DecodeBody(body, ctx, &root); diags.HasErrors() {
		return diags
	}
	for _, b := range root.Modules {
		if _, dup := out.Lookup(b.Name); dup {
			return errors.Errorf("%s: duplicate module name %q", b.Remain.MissingItemRange(), b.Name)
		}
		spec, err := translate(b, ctx)
		if err != nil {
			return err
		}
		out.Modules = append(out.Modules, spec)
	}
	return nil
}

// translate evaluates the remaining attributes of b and its sub-blocks.
func translate(b *moduleBlock, ctx *hcl.EvalContext) (*Spec, error) {
	spec := &Spec{
		Kind:  b.Kind,
		Name:  b.Name,
		Attrs: map[string]cty.Value{},
		Range: b.Remain.MissingItemRange(),
	}
	if b.Signature != nil {
		spec.Signature = *b.Signature
	}

	attrs, diags := b.Remain.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}
	for name, attr := range attrs {
		v, diags := attr.Expr.Value(ctx)
		if diags.HasErrors() {
			return nil, diags
		}
		spec.Attrs[name] = v
	}

	for _, sub := range b.Subs {
		child, err := translate(sub, ctx)
		if err != nil {
			return nil, err
		}
		spec.Subs = append(spec.Subs, child)
	}
	return spec, nil
}

func newEvalContext(vars map[string]cty.Value) *hcl.EvalContext {
	if len(vars) == 0 {
		return &hcl.EvalContext{Variables: map[string]cty.Value{"var": cty.EmptyObjectVal}}
	}
	return &hcl.EvalContext{Variables: map[string]cty.Value{"var": cty.ObjectVal(vars)}}
}

// ParseVar parses a "name=value" command-line variable. The value is read
// as an HCL literal (number, bool, quoted string, list); anything else is
// taken as a bare string.
func ParseVar(s string) (string, cty.Value, error) {
	for i := 0; i < len(s); i++ {
		if s[i] != '=' {
			continue
		}
		name, raw := s[:i], s[i+1:]
		if !hclsyntax.ValidIdentifier(name) {
			return "", cty.NilVal, errors.Errorf("invalid variable name %q", name)
		}
		expr, diags := hclsyntax.ParseExpression([]byte(raw), "<var "+name+">", hcl.InitialPos)
		if diags.HasErrors() {
			return name, cty.StringVal(raw), nil
		}
		v, diags := expr.Value(nil)
		if diags.HasErrors() {
			return name, cty.StringVal(raw), nil
		}
		return name, v, nil
	}
	return "", cty.NilVal, errors.Errorf("variable %q must have the form name=value", s)
}

// IntVar is a convenience for building integer variables.
func IntVar(n int) cty.Value {
	return cty.NumberIntVal(int64(n))
}

func findHCLFiles(paths []string) ([]string, error) {
	var all []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			all = append(all, p)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, errors.Wrapf(err, "error accessing path %s", path)
		}
		if !info.IsDir() {
			add(path)
			continue
		}
		var found []string
		err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && filepath.Ext(p) == ".hcl" {
				found = append(found, p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		sort.Strings(found)
		for _, p := range found {
			add(p)
		}
	}
	return all, nil
}

package rm

import (
	"bytes"
	"fmt"
	"net"
	"strconv"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"xrctl/pkg/tree"
)

// RenderFunc turns the context tree of one field into native commands.
type RenderFunc func(t tree.Tree) ([]string, error)

// Field binds a dotted attribute path to its command renderers.
type Field struct {
	// Name identifies the field inside its registry.
	Name string
	// Compval is the dotted path compared between want and have.
	// It defaults to Name.
	Compval string
	// Setval renders the positive command(s).
	Setval RenderFunc
	// Remval renders the negation. When nil, every Setval line is
	// prefixed with "no ".
	Remval RenderFunc
	// Flag marks a {set, ...} subtree: a set of false compares as the
	// boolean false and options that are false or empty compare as unset.
	Flag bool
}

func (f Field) path() string {
	if f.Compval != "" {
		return f.Compval
	}
	return f.Name
}

// Registry is the ordered field list of one module. Its order is the
// command emission order and is built once at module construction.
type Registry struct {
	fields []Field
	index  map[string]int
}

// NewRegistry builds a registry. It panics on duplicate names or fields
// without a Setval.
func NewRegistry(fields ...Field) *Registry {
	r := &Registry{index: make(map[string]int, len(fields))}
	for _, f := range fields {
		if f.Setval == nil {
			panic(fmt.Sprintf("rm: field %q has no setval", f.Name))
		}
		if _, dup := r.index[f.Name]; dup {
			panic(fmt.Sprintf("rm: duplicate field %q", f.Name))
		}
		r.index[f.Name] = len(r.fields)
		r.fields = append(r.fields, f)
	}
	return r
}

// Field returns the named field.
func (r *Registry) Field(name string) (Field, bool) {
	i, ok := r.index[name]
	if !ok {
		return Field{}, false
	}
	return r.fields[i], true
}

// Names returns every field name in registry order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.fields))
	for i, f := range r.fields {
		names[i] = f.Name
	}
	return names
}

// Render renders the named field against t, negated when negate is set.
func (r *Registry) Render(t tree.Tree, name string, negate bool) ([]string, error) {
	f, ok := r.Field(name)
	if !ok {
		return nil, Errorf(KindRender, "unknown field %q", name)
	}
	if negate && f.Remval != nil {
		return f.Remval(t)
	}
	lines, err := f.Setval(t)
	if err != nil {
		return nil, err
	}
	if !negate {
		return lines, nil
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = "no " + l
	}
	return out, nil
}

// FuncMap holds the helpers available to Tmpl templates on top of sprig.
var FuncMap = template.FuncMap{
	"cidrToMask":   cidrToMask,
	"cidrAddress":  cidrAddress,
	"maskToPrefix": maskToPrefix,
}

// Tmpl compiles a text/template into a RenderFunc. The template sees the
// context tree as plain maps. Each non-empty output line becomes one command
// with its whitespace collapsed. It panics on template syntax errors since
// templates are fixed per module.
//
// A key referenced with field syntax must be present; optional keys are
// read with index, e.g. {{ with index . "vrf" }}.
func Tmpl(text string) RenderFunc {
	t := template.Must(template.New("setval").
		Option("missingkey=error").
		Funcs(sprig.TxtFuncMap()).
		Funcs(FuncMap).
		Parse(text))
	return func(data tree.Tree) ([]string, error) {
		var buf bytes.Buffer
		if err := t.Execute(&buf, tree.Plain(data)); err != nil {
			return nil, Errorf(KindRender, "template %q: %w", text, err)
		}
		return splitLines(buf.String()), nil
	}
}

// Func adapts a single-command function.
func Func(fn func(t tree.Tree) string) RenderFunc {
	return func(data tree.Tree) ([]string, error) {
		return splitLines(fn(data)), nil
	}
}

// Lines adapts a multi-command function.
func Lines(fn func(t tree.Tree) []string) RenderFunc {
	return func(data tree.Tree) ([]string, error) {
		var out []string
		for _, l := range fn(data) {
			out = append(out, splitLines(l)...)
		}
		return out, nil
	}
}

// Static renders a fixed command.
func Static(cmd string) RenderFunc {
	return func(tree.Tree) ([]string, error) {
		return []string{cmd}, nil
	}
}

func splitLines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.Join(strings.Fields(l), " "); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// maskToPrefix converts a dotted-decimal subnet mask to a CIDR prefix length.
// For example, "255.255.255.0" becomes "24".
func maskToPrefix(mask string) string {
	var count int
	for _, octet := range strings.Split(mask, ".") {
		num, _ := strconv.Atoi(octet)
		for num > 0 {
			count += num & 1
			num = num >> 1
		}
	}
	return strconv.Itoa(count)
}

// cidrAddress extracts the IP portion of a CIDR ("192.168.1.1" from "192.168.1.1/24").
func cidrAddress(cidr string) string {
	parts := strings.Split(cidr, "/")
	if len(parts) != 2 {
		return cidr
	}
	return parts[0]
}

// cidrToMask converts the prefix of a CIDR (e.g., "192.168.1.0/24")
// into a dotted-decimal subnet mask (e.g., "255.255.255.0").
func cidrToMask(cidr string) string {
	parts := strings.Split(cidr, "/")
	if len(parts) != 2 {
		return ""
	}
	prefix, err := strconv.Atoi(parts[1])
	if err != nil {
		return ""
	}
	mask := net.CIDRMask(prefix, 32)
	return net.IP(mask).String()
}

// Package l2interfaces manages layer 2 interface attributes: native vlan,
// l2transport, l2protocol handling, dot1q encapsulation and remote-status
// propagation.
package l2interfaces

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"xrctl/pkg/canon"
	"xrctl/pkg/grammar"
	"xrctl/pkg/rm"
	"xrctl/pkg/tree"
)

var fields = rm.NewRegistry(
	rm.Field{Name: "native_vlan", Setval: rm.Tmpl("dot1q native vlan {{ .native_vlan }}")},
	rm.Field{Name: "l2transport", Setval: rm.Static("l2transport")},
	rm.Field{
		Name: "q_vlan",
		Setval: rm.Tmpl(`encapsulation dot1q {{ index .q_vlan 0 }}` +
			`{{ if gt (len .q_vlan) 1 }} second-dot1q {{ index .q_vlan 1 }}{{ end }}`),
		Remval: rm.Static("no encapsulation dot1q"),
	},
	rm.Field{Name: "propagate", Setval: rm.Static("propagate remote-status")},
)

// l2protocol is compared entry by entry rather than through the registry.
var l2protocol = rm.NewRegistry(
	rm.Field{Name: "l2protocol", Setval: rm.Func(func(t tree.Tree) string {
		return "l2protocol " + t.Str("protocol") + " " + t.Str("mode")
	})},
)

var schema = canon.Schema{
	"l2_interfaces": {Keys: []string{"name"}},
}

// Module is the l2_interfaces resource module.
var Module = &rm.Module{
	Name:      "l2_interfaces",
	Scope:     "interface",
	Schema:    schema,
	Grammar:   parser,
	PostParse: protocolLists,
	ArgSpec:   argSpec,
	Comparator: func(r *rm.Run) error {
		matched, haveOnly := canon.Partition(r.Want.Coll("l2_interfaces"), r.Have.Coll("l2_interfaces"))
		for _, p := range matched {
			if err := validate(p.Want); err != nil {
				return err
			}
			if err := compareInterface(r, p.Want, p.Have); err != nil {
				return err
			}
		}
		if r.Negates() {
			for _, e := range haveOnly {
				if err := compareInterface(r, tree.Tree{"name": e.Tree.Str("name")}, e.Tree); err != nil {
					return err
				}
			}
		}
		return nil
	},
}

// validate rejects l2transport-only attributes on interfaces that are not
// l2transport.
func validate(want tree.Tree) error {
	if want.Bool("l2transport") {
		return nil
	}
	if len(entries(want)) > 0 || want.Bool("propagate") {
		return rm.Errorf(rm.KindInput,
			"interface %s: l2protocol and propagate require l2transport to be true", want.Str("name"))
	}
	return nil
}

func compareInterface(r *rm.Run, want, have tree.Tree) error {
	name := want.Str("name")
	sub := isSubinterface(name)
	header := "interface " + name
	names := fields.Names()
	if sub {
		// subinterfaces carry l2transport on the interface line
		names = without(names, "l2transport")
		if want.Bool("l2transport") || (len(want) <= 1 && have.Bool("l2transport")) {
			header += " l2transport"
		}
	}

	begin := r.Commands.Len()
	if err := r.Compare(fields, names, want, have); err != nil {
		return err
	}
	if err := compareProtocols(r, want, have); err != nil {
		return err
	}
	r.Commands.WrapSince(begin, header)
	return nil
}

// compareProtocols negates have-only l2protocol entries, then sets new or
// changed ones. Protocol is the identity.
func compareProtocols(r *rm.Run, want, have tree.Tree) error {
	w, h := entries(want), entries(have)
	for _, proto := range sortedKeys(h) {
		if _, ok := w[proto]; !ok && r.Mode != rm.Merged {
			if err := r.AddCmd(l2protocol, h[proto], "l2protocol", true); err != nil {
				return err
			}
		}
	}
	for _, proto := range sortedKeys(w) {
		if hv, ok := h[proto]; ok && tree.Equal(hv, w[proto]) {
			continue
		}
		if err := r.AddCmd(l2protocol, w[proto], "l2protocol", false); err != nil {
			return err
		}
	}
	return nil
}

// entries reads l2protocol, a list of single-key maps such as
// [{cdp: tunnel}], into protocol -> {protocol, mode}.
func entries(t tree.Tree) map[string]tree.Tree {
	out := map[string]tree.Tree{}
	v, ok := t.Get("l2protocol")
	if !ok {
		return out
	}
	list, _ := v.([]any)
	for _, item := range list {
		m, ok := tree.Normalize(item).(tree.Tree)
		if !ok {
			continue
		}
		for proto, mode := range m {
			out[proto] = tree.Tree{"protocol": proto, "mode": fmt.Sprint(mode)}
		}
	}
	return out
}

func sortedKeys(m map[string]tree.Tree) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func without(names []string, drop string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n != drop {
			out = append(out, n)
		}
	}
	return out
}

func isSubinterface(name string) bool {
	return strings.Contains(name, ".")
}

// protocolLists turns the parsed l2protocol map into the config list form.
func protocolLists(t tree.Tree) tree.Tree {
	for _, v := range t.Sub("l2_interfaces") {
		iface, ok := v.(tree.Tree)
		if !ok {
			continue
		}
		protos := iface.Sub("l2protocol")
		if len(protos) == 0 {
			continue
		}
		list := make([]any, 0, len(protos))
		for _, p := range protos.SortedKeys() {
			list = append(list, tree.Tree{p: protos[p]})
		}
		iface["l2protocol"] = list
	}
	return t
}

var parser = grammar.New(
	grammar.Rule{
		Name:   "interface",
		Re:     regexp.MustCompile(`^interface (?P<name>\S+)(?P<l2t> l2transport)?$`),
		Shared: true,
		Build: func(m grammar.Match) tree.Tree {
			return grammar.Nest(tree.Tree{"name": m.Get("name"), "l2transport": m.Flag("l2t")}, "l2_interfaces", m.Get("name"))
		},
	},
	grammar.Rule{
		Name: "native_vlan",
		Re:   regexp.MustCompile(`^dot1q native vlan (?P<v>\d+)$`),
		Build: func(m grammar.Match) tree.Tree {
			return attr(m, tree.Tree{"native_vlan": m.Int("v")})
		},
	},
	grammar.Rule{
		Name:   "l2transport",
		Re:     regexp.MustCompile(`^l2transport$`),
		Shared: true,
		Build: func(m grammar.Match) tree.Tree {
			return attr(m, tree.Tree{"l2transport": true})
		},
	},
	grammar.Rule{
		Name: "l2protocol",
		Re:   regexp.MustCompile(`^l2protocol (?P<proto>cdp|pvst|stp|vtp|cpsv) (?P<mode>drop|forward|reverse-tunnel|tunnel)$`),
		Build: func(m grammar.Match) tree.Tree {
			return attr(m, tree.Tree{"l2protocol": tree.Tree{m.Get("proto"): m.Get("mode")}})
		},
	},
	grammar.Rule{
		Name: "q_vlan",
		Re:   regexp.MustCompile(`^encapsulation dot1q (?P<a>\d+)(?: second-dot1q (?P<b>\d+))?$`),
		Build: func(m grammar.Match) tree.Tree {
			q := []any{m.Int("a")}
			if m.Has("b") {
				q = append(q, m.Int("b"))
			}
			return attr(m, tree.Tree{"q_vlan": q})
		},
	},
	grammar.Rule{
		Name: "propagate",
		Re:   regexp.MustCompile(`^propagate remote-status$`),
		Build: func(m grammar.Match) tree.Tree {
			return attr(m, tree.Tree{"propagate": true})
		},
	},
)

func attr(m grammar.Match, v tree.Tree) tree.Tree {
	if !m.Has("name") {
		return nil
	}
	return grammar.Nest(v, "l2_interfaces", m.Get("name"))
}

const argSpec = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "l2_interfaces": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["name"],
        "properties": {
          "name": {"type": "string"},
          "native_vlan": {"type": "integer", "minimum": 1, "maximum": 4094},
          "l2transport": {"type": "boolean"},
          "l2protocol": {
            "type": "array",
            "items": {
              "type": "object",
              "minProperties": 1,
              "maxProperties": 1,
              "additionalProperties": {"type": "string", "enum": ["drop", "forward", "reverse-tunnel", "tunnel"]},
              "propertyNames": {"enum": ["cdp", "pvst", "stp", "vtp", "cpsv"]}
            }
          },
          "q_vlan": {
            "type": "array",
            "minItems": 1,
            "maxItems": 2,
            "items": {"type": "integer", "minimum": 1, "maximum": 4094}
          },
          "propagate": {"type": "boolean"}
        }
      }
    }
  }
}`

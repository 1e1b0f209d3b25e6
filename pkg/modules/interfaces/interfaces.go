// Package interfaces manages interface attributes: description, mtu,
// speed, duplex and admin state.
package interfaces

import (
	"regexp"

	"xrctl/pkg/canon"
	"xrctl/pkg/grammar"
	"xrctl/pkg/rm"
	"xrctl/pkg/tree"
)

var fields = rm.NewRegistry(
	rm.Field{Name: "description", Setval: rm.Tmpl("description {{ .description }}")},
	rm.Field{Name: "mtu", Setval: rm.Tmpl("mtu {{ .mtu }}")},
	rm.Field{Name: "speed", Setval: rm.Tmpl("speed {{ .speed }}")},
	rm.Field{Name: "duplex", Setval: rm.Tmpl("duplex {{ .duplex }}")},
	rm.Field{Name: "shutdown", Setval: rm.Static("shutdown")},
)

var schema = canon.Schema{
	"interfaces": {Keys: []string{"name"}},
}

// Module is the interfaces resource module.
var Module = &rm.Module{
	Name:    "interfaces",
	Scope:   "interface",
	Schema:  schema,
	Grammar: parser,
	ArgSpec: argSpec,
	Comparator: func(r *rm.Run) error {
		matched, haveOnly := canon.Partition(r.Want.Coll("interfaces"), r.Have.Coll("interfaces"))
		for _, p := range matched {
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

func compareInterface(r *rm.Run, want, have tree.Tree) error {
	begin := r.Commands.Len()
	if err := r.Compare(fields, fields.Names(), adminState(want), adminState(have)); err != nil {
		return err
	}
	r.Commands.WrapSince(begin, "interface "+want.Str("name"))
	return nil
}

// adminState maps enabled onto the shutdown command. Interfaces are
// enabled unless enabled is explicitly false.
func adminState(t tree.Tree) tree.Tree {
	out := t.Without("enabled")
	if v, ok := t.Get("enabled"); ok && v == false {
		out["shutdown"] = true
	}
	return out
}

var parser = grammar.New(
	grammar.Rule{
		Name:   "interface",
		Re:     regexp.MustCompile(`^interface (?:preconfigure )?(?P<name>\S+)(?: l2transport)?$`),
		Shared: true,
		Build: func(m grammar.Match) tree.Tree {
			return grammar.Nest(tree.Tree{"name": m.Get("name"), "enabled": true}, "interfaces", m.Get("name"))
		},
	},
	grammar.Rule{
		Name: "description",
		Re:   regexp.MustCompile(`^description (?P<v>.+)$`),
		Build: func(m grammar.Match) tree.Tree {
			return attr(m, "description", m.Get("v"))
		},
	},
	grammar.Rule{
		Name: "mtu",
		Re:   regexp.MustCompile(`^mtu (?P<v>\d+)$`),
		Build: func(m grammar.Match) tree.Tree {
			return attr(m, "mtu", m.Int("v"))
		},
	},
	grammar.Rule{
		Name: "speed",
		Re:   regexp.MustCompile(`^speed (?P<v>\S+)$`),
		Build: func(m grammar.Match) tree.Tree {
			return attr(m, "speed", m.Int("v"))
		},
	},
	grammar.Rule{
		Name: "duplex",
		Re:   regexp.MustCompile(`^duplex (?P<v>full|half)$`),
		Build: func(m grammar.Match) tree.Tree {
			return attr(m, "duplex", m.Get("v"))
		},
	},
	grammar.Rule{
		Name: "shutdown",
		Re:   regexp.MustCompile(`^shutdown$`),
		Build: func(m grammar.Match) tree.Tree {
			return attr(m, "enabled", false)
		},
	},
)

func attr(m grammar.Match, key string, v any) tree.Tree {
	if !m.Has("name") {
		return nil
	}
	return grammar.Nest(tree.Tree{key: v}, "interfaces", m.Get("name"))
}

const argSpec = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "interfaces": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["name"],
        "properties": {
          "name": {"type": "string"},
          "description": {"type": "string"},
          "enabled": {"type": "boolean"},
          "mtu": {"type": "integer", "minimum": 64, "maximum": 65535},
          "speed": {"type": "integer"},
          "duplex": {"type": "string", "enum": ["full", "half"]}
        }
      }
    }
  }
}`

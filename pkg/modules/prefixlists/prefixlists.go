// Package prefixlists manages IPv4 and IPv6 prefix lists.
package prefixlists

import (
	"regexp"

	"xrctl/pkg/canon"
	"xrctl/pkg/grammar"
	"xrctl/pkg/rm"
	"xrctl/pkg/tree"
)

// Entries are rendered against the entry tree extended with its list's afi
// and name.
var fields = rm.NewRegistry(
	rm.Field{
		Name: "entry",
		Setval: rm.Tmpl(`{{ .afi }} prefix-list {{ .name }} {{ .sequence }}
{{- if index . "remark" }} remark {{ .remark }}
{{- else }} {{ .action }} {{ .prefix }}
{{- with index . "eq" }} eq {{ . }}{{ end }}
{{- with index . "ge" }} ge {{ . }}{{ end }}
{{- with index . "le" }} le {{ . }}{{ end }}
{{- end }}`),
		Remval: rm.Tmpl("no {{ .afi }} prefix-list {{ .name }} {{ .sequence }}"),
	},
)

var schema = canon.Schema{
	"prefix_lists": {
		Keys: []string{"afi"},
		Nested: canon.Schema{
			"prefix_lists": {
				Keys: []string{"name"},
				Nested: canon.Schema{
					"entries": {Keys: []string{"sequence"}},
				},
			},
		},
	},
}

// Module is the prefix_lists resource module.
var Module = &rm.Module{
	Name:       "prefix_lists",
	Scope:      "ipv4 prefix-list,ipv6 prefix-list",
	Schema:     schema,
	Grammar:    parser,
	ArgSpec:    argSpec,
	Comparator: compare,
}

func compare(r *rm.Run) error {
	matched, haveOnly := canon.Partition(r.Want.Coll("prefix_lists"), r.Have.Coll("prefix_lists"))
	for _, p := range matched {
		if err := compareAFI(r, p.Want.Str("afi"), p.Want, p.Have); err != nil {
			return err
		}
	}
	if r.Negates() {
		for _, e := range haveOnly {
			afi := e.Tree.Str("afi")
			e.Tree.Coll("prefix_lists").Each(func(_ tree.Key, pl tree.Tree) {
				r.Commands.Add("no " + header(afi, pl.Str("name")))
			})
		}
	}
	return nil
}

func compareAFI(r *rm.Run, afi string, want, have tree.Tree) error {
	lists, stale := canon.Partition(want.Coll("prefix_lists"), have.Coll("prefix_lists"))
	for _, p := range lists {
		name := p.Want.Str("name")
		ctx := tree.Tree{"afi": afi, "name": name}
		entries, removed := canon.Partition(p.Want.Coll("entries"), p.Have.Coll("entries"))

		// a sequence can only be reused once the old entry is gone
		for _, e := range removed {
			if err := r.AddCmd(fields, e.Tree.With(ctx), "entry", true); err != nil {
				return err
			}
		}
		for _, e := range entries {
			if e.InHave && tree.Equal(e.Want, e.Have) {
				continue
			}
			if err := r.AddCmd(fields, e.Want.With(ctx), "entry", false); err != nil {
				return err
			}
		}
		if !p.InHave && len(entries) == 0 {
			r.Commands.Add(header(afi, name))
		}
	}
	if r.Negates() {
		for _, e := range stale {
			r.Commands.Add("no " + header(afi, e.Tree.Str("name")))
		}
	}
	return nil
}

func header(afi, name string) string {
	return afi + " prefix-list " + name
}

var parser = grammar.New(
	grammar.Rule{
		Name:   "prefix_list",
		Re:     regexp.MustCompile(`^(?P<afi>ipv4|ipv6) prefix-list (?P<name>\S+)$`),
		Shared: true,
		Build: func(m grammar.Match) tree.Tree {
			return list(m, tree.Tree{"name": m.Get("name")})
		},
	},
	grammar.Rule{
		Name: "remark",
		Re:   regexp.MustCompile(`^(?P<seq>\d+) remark (?P<remark>.+)$`),
		Build: func(m grammar.Match) tree.Tree {
			return entry(m, tree.Tree{"action": "remark", "remark": m.Get("remark")})
		},
	},
	grammar.Rule{
		Name: "entry",
		Re: regexp.MustCompile(`^(?P<seq>\d+) (?P<action>permit|deny) (?P<prefix>\S+)` +
			`(?: eq (?P<eq>\d+))?(?: ge (?P<ge>\d+))?(?: le (?P<le>\d+))?$`),
		Build: func(m grammar.Match) tree.Tree {
			return entry(m, tree.Tree{
				"action": m.Get("action"),
				"prefix": m.Get("prefix"),
				"eq":     m.Int("eq"),
				"ge":     m.Int("ge"),
				"le":     m.Int("le"),
			})
		},
	},
)

func list(m grammar.Match, v tree.Tree) tree.Tree {
	if !m.Has("afi") {
		return nil
	}
	afi := m.Get("afi")
	return grammar.Nest(tree.Tree{
		"afi":          afi,
		"prefix_lists": grammar.Nest(v, m.Get("name")),
	}, "prefix_lists", afi)
}

func entry(m grammar.Match, v tree.Tree) tree.Tree {
	if !m.Has("name") {
		return nil
	}
	v = v.With(tree.Tree{"sequence": m.Int("seq")})
	return list(m, tree.Tree{"entries": grammar.Nest(v, m.Get("seq"))})
}

const argSpec = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "prefix_lists": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["afi"],
        "properties": {
          "afi": {"type": "string", "enum": ["ipv4", "ipv6"]},
          "prefix_lists": {
            "type": "array",
            "items": {
              "type": "object",
              "additionalProperties": false,
              "required": ["name"],
              "properties": {
                "name": {"type": "string"},
                "entries": {
                  "type": "array",
                  "items": {
                    "type": "object",
                    "additionalProperties": false,
                    "required": ["sequence"],
                    "properties": {
                      "sequence": {"type": "integer", "minimum": 1},
                      "action": {"type": "string", "enum": ["permit", "deny", "remark"]},
                      "prefix": {"type": "string"},
                      "remark": {"type": "string"},
                      "eq": {"type": "integer", "minimum": 0, "maximum": 128},
                      "ge": {"type": "integer", "minimum": 0, "maximum": 128},
                      "le": {"type": "integer", "minimum": 0, "maximum": 128}
                    }
                  }
                }
              }
            }
          }
        }
      }
    }
  }
}`

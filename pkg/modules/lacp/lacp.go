// Package lacp manages the global LACP system settings.
package lacp

import (
	"regexp"

	"xrctl/pkg/grammar"
	"xrctl/pkg/rm"
	"xrctl/pkg/tree"
)

var fields = rm.NewRegistry(
	rm.Field{
		Name:   "system.priority",
		Setval: rm.Tmpl("lacp system priority {{ .system.priority }}"),
	},
	rm.Field{
		Name:   "system.mac.address",
		Setval: rm.Tmpl("lacp system mac {{ .system.mac.address }}"),
	},
)

// Module is the lacp resource module.
var Module = &rm.Module{
	Name:  "lacp",
	Scope: "lacp",
	Grammar: grammar.New(
		grammar.Rule{
			Name: "system.priority",
			Re:   regexp.MustCompile(`^lacp system priority (?P<priority>\d+)$`),
			Build: func(m grammar.Match) tree.Tree {
				return grammar.Nest(tree.Tree{"priority": m.Int("priority")}, "system")
			},
		},
		grammar.Rule{
			Name: "system.mac",
			Re:   regexp.MustCompile(`^lacp system mac (?P<mac>[0-9a-fA-F.:]+)$`),
			Build: func(m grammar.Match) tree.Tree {
				return grammar.Nest(tree.Tree{"address": m.Get("mac")}, "system", "mac")
			},
		},
	),
	ArgSpec: argSpec,
	Comparator: func(r *rm.Run) error {
		return r.Compare(fields, fields.Names(), r.Want, r.Have)
	},
}

const argSpec = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "system": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "priority": {"type": "integer", "minimum": 1, "maximum": 65535},
        "mac": {
          "type": "object",
          "additionalProperties": false,
          "properties": {
            "address": {"type": "string", "pattern": "^[0-9a-fA-F]{4}\\.[0-9a-fA-F]{4}\\.[0-9a-fA-F]{4}$"}
          }
        }
      }
    }
  }
}`

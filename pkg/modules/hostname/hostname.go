// Package hostname manages the device hostname.
package hostname

import (
	"regexp"

	"xrctl/pkg/grammar"
	"xrctl/pkg/rm"
	"xrctl/pkg/tree"
)

var fields = rm.NewRegistry(
	rm.Field{
		Name:   "hostname",
		Setval: rm.Tmpl("hostname {{ .hostname }}"),
		Remval: rm.Static("no hostname"),
	},
)

// Module is the hostname resource module.
var Module = &rm.Module{
	Name:  "hostname",
	Scope: "hostname",
	Grammar: grammar.New(
		grammar.Rule{
			Name: "hostname",
			Re:   regexp.MustCompile(`^hostname (?P<name>\S+)$`),
			Build: func(m grammar.Match) tree.Tree {
				return tree.Tree{"hostname": m.Get("name")}
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
    "hostname": {"type": "string", "pattern": "^\\S+$"}
  }
}`

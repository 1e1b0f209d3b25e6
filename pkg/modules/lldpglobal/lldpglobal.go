// Package lldpglobal manages the global LLDP settings.
//
// TLVs are advertised unless disabled, so tlv_select values are inverted
// before comparison: a TLV set to false in config is the
// "lldp tlv-select <tlv> disable" command.
package lldpglobal

import (
	"regexp"
	"strings"

	"xrctl/pkg/grammar"
	"xrctl/pkg/rm"
	"xrctl/pkg/tree"
)

// TLVs lists the tlv_select options in command order.
var TLVs = []string{
	"management_address",
	"port_description",
	"system_capabilities",
	"system_description",
	"system_name",
}

var fields = newFields()

func newFields() *rm.Registry {
	fs := []rm.Field{
		{Name: "holdtime", Setval: rm.Tmpl("lldp holdtime {{ .holdtime }}")},
		{Name: "reinit", Setval: rm.Tmpl("lldp reinit {{ .reinit }}")},
		{Name: "timer", Setval: rm.Tmpl("lldp timer {{ .timer }}")},
		{Name: "subinterfaces", Setval: rm.Static("lldp subinterfaces enable")},
	}
	for _, tlv := range TLVs {
		fs = append(fs, rm.Field{
			Name:    "tlv_select." + tlv,
			Compval: "tlv_disabled." + tlv,
			Setval:  rm.Static("lldp tlv-select " + cliName(tlv) + " disable"),
		})
	}
	return rm.NewRegistry(fs...)
}

func cliName(tlv string) string {
	return strings.ReplaceAll(tlv, "_", "-")
}

// Module is the lldp_global resource module.
var Module = &rm.Module{
	Name:  "lldp_global",
	Scope: "lldp",
	Grammar: grammar.New(
		grammar.Rule{
			Name: "holdtime",
			Re:   regexp.MustCompile(`^(?:lldp )?holdtime (?P<v>\d+)$`),
			Build: func(m grammar.Match) tree.Tree {
				return tree.Tree{"holdtime": m.Int("v")}
			},
		},
		grammar.Rule{
			Name: "reinit",
			Re:   regexp.MustCompile(`^(?:lldp )?reinit (?P<v>\d+)$`),
			Build: func(m grammar.Match) tree.Tree {
				return tree.Tree{"reinit": m.Int("v")}
			},
		},
		grammar.Rule{
			Name: "timer",
			Re:   regexp.MustCompile(`^(?:lldp )?timer (?P<v>\d+)$`),
			Build: func(m grammar.Match) tree.Tree {
				return tree.Tree{"timer": m.Int("v")}
			},
		},
		grammar.Rule{
			Name: "subinterfaces",
			Re:   regexp.MustCompile(`^(?:lldp )?subinterfaces enable$`),
			Build: func(grammar.Match) tree.Tree {
				return tree.Tree{"subinterfaces": true}
			},
		},
		grammar.Rule{
			Name: "tlv_select",
			Re:   regexp.MustCompile(`^(?:lldp )?(?:tlv-select )?(?P<tlv>management-address|port-description|system-capabilities|system-description|system-name) disable$`),
			Build: func(m grammar.Match) tree.Tree {
				return grammar.Nest(tree.Tree{strings.ReplaceAll(m.Get("tlv"), "-", "_"): false}, "tlv_select")
			},
		},
	),
	ArgSpec: argSpec,
	Comparator: func(r *rm.Run) error {
		return r.Compare(fields, fields.Names(), disabled(r.Want), disabled(r.Have))
	},
}

// disabled moves tlv_select into tlv_disabled, keeping only the TLVs
// turned off.
func disabled(t tree.Tree) tree.Tree {
	out := t.Without("tlv_select")
	sel := t.Sub("tlv_select")
	off := tree.Tree{}
	for _, tlv := range TLVs {
		if v, ok := sel.Get(tlv); ok && v == false {
			off[tlv] = true
		}
	}
	if len(off) > 0 {
		out["tlv_disabled"] = off
	}
	return out
}

const argSpec = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "holdtime": {"type": "integer", "minimum": 0, "maximum": 65535},
    "reinit": {"type": "integer", "minimum": 2, "maximum": 5},
    "timer": {"type": "integer", "minimum": 5, "maximum": 65534},
    "subinterfaces": {"type": "boolean"},
    "tlv_select": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "management_address": {"type": "boolean"},
        "port_description": {"type": "boolean"},
        "system_capabilities": {"type": "boolean"},
        "system_description": {"type": "boolean"},
        "system_name": {"type": "boolean"}
      }
    }
  }
}`

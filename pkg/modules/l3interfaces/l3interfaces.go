// Package l3interfaces manages IPv4 and IPv6 interface addresses.
package l3interfaces

import (
	"net"
	"regexp"
	"strconv"

	"xrctl/pkg/canon"
	"xrctl/pkg/grammar"
	"xrctl/pkg/rm"
	"xrctl/pkg/tree"
)

var fields = rm.NewRegistry(
	rm.Field{
		Name:   "ipv4",
		Setval: rm.Tmpl(`ipv4 address {{ cidrAddress .address }} {{ cidrToMask .address }}{{ if index . "secondary" }} secondary{{ end }}`),
	},
	rm.Field{
		Name:   "ipv6",
		Setval: rm.Tmpl(`ipv6 address {{ .address }}`),
	},
)

var schema = canon.Schema{
	"l3_interfaces": {
		Keys: []string{"name"},
		Nested: canon.Schema{
			"ipv4": {Keys: []string{"address"}},
			"ipv6": {Keys: []string{"address"}},
		},
	},
}

// Module is the l3_interfaces resource module.
var Module = &rm.Module{
	Name:    "l3_interfaces",
	Scope:   "interface",
	Schema:  schema,
	Grammar: parser,
	ArgSpec: argSpec,
	Comparator: func(r *rm.Run) error {
		matched, haveOnly := canon.Partition(r.Want.Coll("l3_interfaces"), r.Have.Coll("l3_interfaces"))
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

// compareInterface removes stale addresses before adding new ones, so a
// secondary can move to primary within one commit.
func compareInterface(r *rm.Run, want, have tree.Tree) error {
	begin := r.Commands.Len()
	for _, afi := range []string{"ipv4", "ipv6"} {
		wc, hc := want.Coll(afi), have.Coll(afi)
		_, stale := canon.Partition(wc, hc)
		for _, e := range stale {
			if afi == "ipv4" && !e.Tree.Bool("secondary") && hasPrimary(wc) {
				// a new primary replaces the old one
				continue
			}
			if err := r.AddCmd(fields, e.Tree, afi, true); err != nil {
				return err
			}
		}
	}
	for _, afi := range []string{"ipv4", "ipv6"} {
		matched, _ := canon.Partition(want.Coll(afi), have.Coll(afi))
		for _, p := range matched {
			if p.InHave && tree.Equal(p.Want, p.Have) {
				continue
			}
			if err := r.AddCmd(fields, p.Want, afi, false); err != nil {
				return err
			}
		}
	}
	r.Commands.WrapSince(begin, "interface "+want.Str("name"))
	return nil
}

func hasPrimary(c *tree.Collection) bool {
	found := false
	c.Each(func(_ tree.Key, e tree.Tree) {
		if !e.Bool("secondary") {
			found = true
		}
	})
	return found
}

func prefixLen(mask string) string {
	ip := net.ParseIP(mask).To4()
	if ip == nil {
		return mask
	}
	ones, _ := net.IPMask(ip).Size()
	return strconv.Itoa(ones)
}

var parser = grammar.New(
	grammar.Rule{
		Name:   "interface",
		Re:     regexp.MustCompile(`^interface (?:preconfigure )?(?P<name>\S+)(?: l2transport)?$`),
		Shared: true,
		Build: func(m grammar.Match) tree.Tree {
			return grammar.Nest(tree.Tree{"name": m.Get("name")}, "l3_interfaces", m.Get("name"))
		},
	},
	grammar.Rule{
		Name: "ipv4",
		Re:   regexp.MustCompile(`^ipv4 address (?P<addr>[\d.]+) (?P<mask>[\d.]+)(?P<sec> secondary)?(?: route-tag \d+)?$`),
		Build: func(m grammar.Match) tree.Tree {
			if !m.Has("name") {
				return nil
			}
			addr := m.Get("addr") + "/" + prefixLen(m.Get("mask"))
			return grammar.Nest(tree.Tree{
				"ipv4": tree.Tree{addr: tree.Tree{"address": addr, "secondary": m.Flag("sec")}},
			}, "l3_interfaces", m.Get("name"))
		},
	},
	grammar.Rule{
		Name: "ipv6",
		Re:   regexp.MustCompile(`^ipv6 address (?P<addr>[0-9a-fA-F:]+/\d+)$`),
		Build: func(m grammar.Match) tree.Tree {
			if !m.Has("name") {
				return nil
			}
			return grammar.Nest(tree.Tree{
				"ipv6": tree.Tree{m.Get("addr"): tree.Tree{"address": m.Get("addr")}},
			}, "l3_interfaces", m.Get("name"))
		},
	},
)

const argSpec = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "l3_interfaces": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["name"],
        "properties": {
          "name": {"type": "string"},
          "ipv4": {
            "type": "array",
            "items": {
              "type": "object",
              "additionalProperties": false,
              "required": ["address"],
              "properties": {
                "address": {"type": "string", "pattern": "^[\\d.]+/\\d{1,2}$"},
                "secondary": {"type": "boolean"}
              }
            }
          },
          "ipv6": {
            "type": "array",
            "items": {
              "type": "object",
              "additionalProperties": false,
              "required": ["address"],
              "properties": {
                "address": {"type": "string"}
              }
            }
          }
        }
      }
    }
  }
}`

// Package bgptemplates manages bgp neighbor-groups and their address
// families.
package bgptemplates

import (
	"regexp"

	"xrctl/pkg/canon"
	"xrctl/pkg/grammar"
	"xrctl/pkg/modules/internal/bgp"
	"xrctl/pkg/rm"
	"xrctl/pkg/tree"
)

var groupFields = rm.NewRegistry(
	rm.Field{Name: "remote_as", Setval: rm.Tmpl("remote-as {{ .remote_as }}")},
	rm.Field{Name: "description", Setval: rm.Tmpl("description {{ .description }}")},
	rm.Field{Name: "update_source", Setval: rm.Tmpl("update-source {{ .update_source }}")},
	rm.Field{Name: "advertisement_interval", Setval: rm.Tmpl("advertisement-interval {{ .advertisement_interval }}")},
	rm.Field{Name: "bfd.fast_detect", Setval: rm.Static("bfd fast-detect")},
)

var afFields = rm.NewRegistry(
	rm.Field{Name: "route_policy.inbound", Setval: rm.Tmpl("route-policy {{ .route_policy.inbound }} in")},
	rm.Field{Name: "route_policy.outbound", Setval: rm.Tmpl("route-policy {{ .route_policy.outbound }} out")},
	rm.Field{Name: "next_hop_self", Setval: rm.Static("next-hop-self")},
	rm.Field{Name: "send_community_ebgp", Setval: rm.Static("send-community-ebgp")},
	rm.Field{
		Name:   "soft_reconfiguration",
		Flag:   true,
		Setval: rm.Tmpl(`soft-reconfiguration inbound{{ if index .soft_reconfiguration "always" }} always{{ end }}`),
	},
	rm.Field{
		Name:   "maximum_prefix.max_limit",
		Setval: rm.Tmpl("maximum-prefix {{ .maximum_prefix.max_limit }}"),
		Remval: rm.Static("no maximum-prefix"),
	},
	rm.Field{Name: "weight", Setval: rm.Tmpl("weight {{ .weight }}")},
	rm.Field{Name: "as_override", Setval: rm.Static("as-override")},
)

var schema = canon.Schema{
	"neighbor": {
		Keys: []string{"name"},
		Nested: canon.Schema{
			"address_family": {Keys: []string{"afi", "safi"}},
		},
	},
}

// Module is the bgp_templates resource module.
var Module = &rm.Module{
	Name:       "bgp_templates",
	Scope:      "router bgp",
	Schema:     schema,
	Grammar:    parser,
	ArgSpec:    argSpec,
	ScopeKeys:  []string{"as_number"},
	Comparator: compare,
}

func compare(r *rm.Run) error {
	header, err := bgp.Header(r)
	if header == "" || err != nil {
		return err
	}
	begin := r.Commands.Len()
	matched, haveOnly := canon.Partition(r.Want.Coll("neighbor"), r.Have.Coll("neighbor"))
	for _, p := range matched {
		if err := compareGroup(r, p); err != nil {
			return err
		}
	}
	if r.Negates() {
		for _, e := range haveOnly {
			r.Commands.Add("no neighbor-group " + e.Tree.Str("name"))
		}
	}
	r.Commands.WrapSince(begin, header)
	return nil
}

// compareGroup diffs one neighbor-group. A group or address family that
// is new on the device gets its header even when it carries no attributes.
func compareGroup(r *rm.Run, p canon.Pair) error {
	begin := r.Commands.Len()
	if err := r.Compare(groupFields, groupFields.Names(), p.Want, p.Have); err != nil {
		return err
	}
	afs, stale := canon.Partition(p.Want.Coll("address_family"), p.Have.Coll("address_family"))
	for _, e := range stale {
		r.Commands.Add("no " + bgp.AFHeader(e.Tree))
	}
	for _, af := range afs {
		abegin := r.Commands.Len()
		if err := r.Compare(afFields, afFields.Names(), af.Want, af.Have); err != nil {
			return err
		}
		if !r.Commands.WrapSince(abegin, bgp.AFHeader(af.Want)) && !af.InHave {
			r.Commands.Add(bgp.AFHeader(af.Want))
		}
	}
	group := "neighbor-group " + p.Want.Str("name")
	if !r.Commands.WrapSince(begin, group) && !p.InHave {
		r.Commands.Add(group)
	}
	return nil
}

// place nests v into the neighbor-group, or its address family, the line
// sits in.
func place(m grammar.Match, v tree.Tree) tree.Tree {
	s, ok := bgp.ScopeOf(m)
	if !ok || s.Group == "" || s.Neighbor != "" || s.VRF != "" {
		return nil
	}
	group := tree.Tree{"name": s.Group}
	if s.InAF() {
		group["address_family"] = tree.Tree{s.AFKey(): s.AF().With(v)}
	} else {
		group = group.With(v)
	}
	return grammar.Nest(group, "neighbor", s.Group)
}

func groupOnly(m grammar.Match, v tree.Tree) tree.Tree {
	if m.Has("afi") {
		return nil
	}
	return place(m, v)
}

func afOnly(m grammar.Match, v tree.Tree) tree.Tree {
	if !m.Has("afi") {
		return nil
	}
	return place(m, v)
}

var parser = grammar.New(
	bgp.Router,
	grammar.Rule{
		Name:   "neighbor_group",
		Re:     bgp.NeighborGroup,
		Shared: true,
		Build: func(m grammar.Match) tree.Tree {
			return place(m, tree.Tree{})
		},
	},
	grammar.Rule{Name: "vrf", Re: bgp.VRF, Shared: true},
	grammar.Rule{Name: "neighbor", Re: bgp.Neighbor, Shared: true},
	grammar.Rule{
		Name:   "address_family",
		Re:     bgp.AddressFamily,
		Shared: true,
		Build: func(m grammar.Match) tree.Tree {
			return place(m, tree.Tree{})
		},
	},
	grammar.Rule{
		Name: "remote_as",
		Re:   regexp.MustCompile(`^remote-as (?P<v>\S+)$`),
		Build: func(m grammar.Match) tree.Tree {
			return groupOnly(m, tree.Tree{"remote_as": m.Int("v")})
		},
	},
	grammar.Rule{
		Name: "description",
		Re:   regexp.MustCompile(`^description (?P<v>.+)$`),
		Build: func(m grammar.Match) tree.Tree {
			return groupOnly(m, tree.Tree{"description": m.Get("v")})
		},
	},
	grammar.Rule{
		Name: "update_source",
		Re:   regexp.MustCompile(`^update-source (?P<v>\S+)$`),
		Build: func(m grammar.Match) tree.Tree {
			return groupOnly(m, tree.Tree{"update_source": m.Get("v")})
		},
	},
	grammar.Rule{
		Name: "advertisement_interval",
		Re:   regexp.MustCompile(`^advertisement-interval (?P<v>\d+)$`),
		Build: func(m grammar.Match) tree.Tree {
			return groupOnly(m, tree.Tree{"advertisement_interval": m.Int("v")})
		},
	},
	grammar.Rule{
		Name: "bfd_fast_detect",
		Re:   regexp.MustCompile(`^bfd fast-detect$`),
		Build: func(m grammar.Match) tree.Tree {
			return groupOnly(m, tree.Tree{"bfd": tree.Tree{"fast_detect": true}})
		},
	},
	grammar.Rule{
		Name: "route_policy",
		Re:   regexp.MustCompile(`^route-policy (?P<v>\S+) (?P<dir>in|out)$`),
		Build: func(m grammar.Match) tree.Tree {
			dir := "inbound"
			if m.Get("dir") == "out" {
				dir = "outbound"
			}
			return afOnly(m, tree.Tree{"route_policy": tree.Tree{dir: m.Get("v")}})
		},
	},
	grammar.Rule{
		Name: "next_hop_self",
		Re:   regexp.MustCompile(`^next-hop-self$`),
		Build: func(m grammar.Match) tree.Tree {
			return afOnly(m, tree.Tree{"next_hop_self": true})
		},
	},
	grammar.Rule{
		Name: "send_community_ebgp",
		Re:   regexp.MustCompile(`^send-community-ebgp$`),
		Build: func(m grammar.Match) tree.Tree {
			return afOnly(m, tree.Tree{"send_community_ebgp": true})
		},
	},
	grammar.Rule{
		Name: "soft_reconfiguration",
		Re:   regexp.MustCompile(`^soft-reconfiguration inbound(?P<always> always)?$`),
		Build: func(m grammar.Match) tree.Tree {
			return afOnly(m, tree.Tree{"soft_reconfiguration": tree.Tree{"set": true, "always": m.Flag("always")}})
		},
	},
	grammar.Rule{
		Name: "maximum_prefix",
		Re:   regexp.MustCompile(`^maximum-prefix (?P<v>\d+)$`),
		Build: func(m grammar.Match) tree.Tree {
			return afOnly(m, tree.Tree{"maximum_prefix": tree.Tree{"max_limit": m.Int("v")}})
		},
	},
	grammar.Rule{
		Name: "weight",
		Re:   regexp.MustCompile(`^weight (?P<v>\d+)$`),
		Build: func(m grammar.Match) tree.Tree {
			return afOnly(m, tree.Tree{"weight": m.Int("v")})
		},
	},
	grammar.Rule{
		Name: "as_override",
		Re:   regexp.MustCompile(`^as-override$`),
		Build: func(m grammar.Match) tree.Tree {
			return afOnly(m, tree.Tree{"as_override": true})
		},
	},
)

const argSpec = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "as_number": {"type": ["string", "integer"]},
    "neighbor": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["name"],
        "properties": {
          "name": {"type": "string"},
          "remote_as": {"type": ["string", "integer"]},
          "description": {"type": "string"},
          "update_source": {"type": "string"},
          "advertisement_interval": {"type": "integer", "minimum": 0, "maximum": 600},
          "bfd": {
            "type": "object",
            "additionalProperties": false,
            "properties": {"fast_detect": {"type": "boolean"}}
          },
          "address_family": {
            "type": "array",
            "items": {
              "type": "object",
              "additionalProperties": false,
              "required": ["afi", "safi"],
              "properties": {
                "afi": {"type": "string"},
                "safi": {"type": "string"},
                "route_policy": {
                  "type": "object",
                  "additionalProperties": false,
                  "properties": {"inbound": {"type": "string"}, "outbound": {"type": "string"}}
                },
                "next_hop_self": {"type": "boolean"},
                "send_community_ebgp": {"type": "boolean"},
                "soft_reconfiguration": {
                  "type": "object",
                  "additionalProperties": false,
                  "properties": {"set": {"type": "boolean"}, "always": {"type": "boolean"}}
                },
                "maximum_prefix": {
                  "type": "object",
                  "additionalProperties": false,
                  "properties": {"max_limit": {"type": "integer", "minimum": 1}}
                },
                "weight": {"type": "integer", "minimum": 0, "maximum": 65535},
                "as_override": {"type": "boolean"}
              }
            }
          }
        }
      }
    }
  }
}`

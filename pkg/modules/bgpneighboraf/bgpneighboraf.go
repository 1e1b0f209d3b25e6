// Package bgpneighboraf manages the address families of bgp neighbors,
// both global and per vrf.
package bgpneighboraf

import (
	"regexp"

	"xrctl/pkg/canon"
	"xrctl/pkg/grammar"
	"xrctl/pkg/modules/internal/bgp"
	"xrctl/pkg/rm"
	"xrctl/pkg/tree"
)

var fields = rm.NewRegistry(
	rm.Field{Name: "route_policy.inbound", Setval: rm.Tmpl("route-policy {{ .route_policy.inbound }} in")},
	rm.Field{Name: "route_policy.outbound", Setval: rm.Tmpl("route-policy {{ .route_policy.outbound }} out")},
	rm.Field{
		Name:   "next_hop_self",
		Flag:   true,
		Setval: rm.Tmpl(`next-hop-self{{ if index .next_hop_self "inheritance_disable" }} inheritance-disable{{ end }}`),
	},
	rm.Field{
		Name:   "send_community_ebgp",
		Flag:   true,
		Setval: rm.Tmpl(`send-community-ebgp{{ if index .send_community_ebgp "inheritance_disable" }} inheritance-disable{{ end }}`),
	},
	rm.Field{
		Name: "remove_private_AS",
		Flag: true,
		Setval: rm.Tmpl(`remove-private-AS
{{- with index . "remove_private_AS" }}
{{- if index . "inbound" }} inbound{{ end }}
{{- if index . "entire_aspath" }} entire-aspath{{ end }}
{{- if index . "inheritance_disable" }} inheritance-disable{{ end }}
{{- end }}`),
	},
	rm.Field{
		Name:   "soft_reconfiguration",
		Flag:   true,
		Setval: rm.Tmpl(`soft-reconfiguration inbound{{ if index .soft_reconfiguration "always" }} always{{ end }}`),
	},
	rm.Field{
		Name: "maximum_prefix",
		Flag: true,
		Setval: rm.Tmpl(`{{ with index . "maximum_prefix" }}maximum-prefix {{ .max_limit }}
{{- with index . "threshold_value" }} {{ . }}{{ end }}
{{- with index . "restart" }} restart {{ . }}{{ end }}
{{- if index . "warning_only" }} warning-only{{ end }}
{{- end }}`),
		Remval: rm.Static("no maximum-prefix"),
	},
	rm.Field{
		Name: "default_originate",
		Flag: true,
		Setval: rm.Tmpl(`default-originate
{{- with index . "default_originate" }}
{{- with index . "route_policy" }} route-policy {{ . }}{{ end }}
{{- if index . "inheritance_disable" }} inheritance-disable{{ end }}
{{- end }}`),
		Remval: rm.Static("no default-originate"),
	},
	rm.Field{Name: "origin_as.validation.disable", Setval: rm.Static("origin-as validation disable")},
	rm.Field{
		Name:   "as_override",
		Flag:   true,
		Setval: rm.Tmpl(`as-override{{ if index .as_override "inheritance_disable" }} inheritance-disable{{ end }}`),
	},
	rm.Field{Name: "weight", Setval: rm.Tmpl("weight {{ .weight }}")},
	rm.Field{
		Name:   "allowas_in",
		Flag:   true,
		Setval: rm.Tmpl(`allowas-in{{ with index .allowas_in "value" }} {{ . }}{{ end }}`),
	},
	rm.Field{Name: "aigp.set", Setval: rm.Static("aigp")},
	rm.Field{Name: "aigp.disable", Setval: rm.Static("aigp disable")},
	rm.Field{Name: "aigp.send_cost_community_disable", Setval: rm.Static("aigp send-cost-community disable")},
	rm.Field{Name: "aigp.send_med.set", Setval: rm.Static("aigp send med")},
	// send_med.disable renders the same "aigp send med" as send_med.set.
	rm.Field{Name: "aigp.send_med.disable", Setval: rm.Static("aigp send med")},
)

var neighborSchema = canon.Schema{
	"neighbors": {
		Keys: []string{"neighbor_address"},
		Nested: canon.Schema{
			"address_family": {Keys: []string{"afi", "safi"}},
		},
	},
}

var schema = canon.Schema{
	"neighbors": neighborSchema["neighbors"],
	"vrfs": {
		Keys:   []string{"vrf"},
		Nested: neighborSchema,
	},
}

// Module is the bgp_neighbor_address_family resource module.
var Module = &rm.Module{
	Name:       "bgp_neighbor_address_family",
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
	if err := compareNeighbors(r, r.Want, r.Have); err != nil {
		return err
	}
	matched, haveOnly := canon.Partition(r.Want.Coll("vrfs"), r.Have.Coll("vrfs"))
	for _, p := range matched {
		vbegin := r.Commands.Len()
		if err := compareNeighbors(r, p.Want, p.Have); err != nil {
			return err
		}
		r.Commands.WrapSince(vbegin, "vrf "+p.Want.Str("vrf"))
	}
	if r.Negates() {
		for _, e := range haveOnly {
			vbegin := r.Commands.Len()
			e.Tree.Coll("neighbors").Each(func(_ tree.Key, n tree.Tree) {
				negateAFs(r, n)
			})
			r.Commands.WrapSince(vbegin, "vrf "+e.Tree.Str("vrf"))
		}
	}
	r.Commands.WrapSince(begin, header)
	return nil
}

// compareNeighbors diffs the neighbors of the process or of one vrf.
// Neighbors themselves are owned by bgp_global; only their address
// families are added or removed here.
func compareNeighbors(r *rm.Run, want, have tree.Tree) error {
	matched, haveOnly := canon.Partition(want.Coll("neighbors"), have.Coll("neighbors"))
	for _, p := range matched {
		nbegin := r.Commands.Len()
		afs, stale := canon.Partition(p.Want.Coll("address_family"), p.Have.Coll("address_family"))
		for _, e := range stale {
			r.Commands.Add("no " + bgp.AFHeader(e.Tree))
		}
		for _, af := range afs {
			abegin := r.Commands.Len()
			if err := r.Compare(fields, fields.Names(), af.Want, af.Have); err != nil {
				return err
			}
			if !r.Commands.WrapSince(abegin, bgp.AFHeader(af.Want)) && !af.InHave {
				r.Commands.Add(bgp.AFHeader(af.Want))
			}
		}
		r.Commands.WrapSince(nbegin, "neighbor "+p.Want.Str("neighbor_address"))
	}
	if r.Negates() {
		for _, e := range haveOnly {
			negateAFs(r, e.Tree)
		}
	}
	return nil
}

func negateAFs(r *rm.Run, nbr tree.Tree) {
	begin := r.Commands.Len()
	nbr.Coll("address_family").Each(func(_ tree.Key, af tree.Tree) {
		r.Commands.Add("no " + bgp.AFHeader(af))
	})
	r.Commands.WrapSince(begin, "neighbor "+nbr.Str("neighbor_address"))
}

// place nests v into the neighbor address family the line sits in,
// creating the vrf, neighbor and address-family identities on the way.
func place(m grammar.Match, v tree.Tree) tree.Tree {
	s, ok := bgp.ScopeOf(m)
	if !ok || !s.InAF() || s.Neighbor == "" || s.Group != "" {
		return nil
	}
	nbr := tree.Tree{
		"neighbor_address": s.Neighbor,
		"address_family":   tree.Tree{s.AFKey(): s.AF().With(v)},
	}
	if s.VRF == "" {
		return grammar.Nest(tree.Tree{"neighbors": tree.Tree{s.Neighbor: nbr}})
	}
	return grammar.Nest(tree.Tree{"vrfs": tree.Tree{s.VRF: tree.Tree{
		"vrf":       s.VRF,
		"neighbors": tree.Tree{s.Neighbor: nbr},
	}}})
}

func withInheritance(m grammar.Match) tree.Tree {
	return tree.Tree{"set": true, "inheritance_disable": m.Flag("inh")}
}

var parser = grammar.New(
	bgp.Router,
	grammar.Rule{Name: "neighbor_group", Re: bgp.NeighborGroup, Shared: true},
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
		Name: "route_policy",
		Re:   regexp.MustCompile(`^route-policy (?P<v>\S+) (?P<dir>in|out)$`),
		Build: func(m grammar.Match) tree.Tree {
			dir := "inbound"
			if m.Get("dir") == "out" {
				dir = "outbound"
			}
			return place(m, tree.Tree{"route_policy": tree.Tree{dir: m.Get("v")}})
		},
	},
	grammar.Rule{
		Name: "next_hop_self",
		Re:   regexp.MustCompile(`^next-hop-self(?P<inh> inheritance-disable)?$`),
		Build: func(m grammar.Match) tree.Tree {
			return place(m, tree.Tree{"next_hop_self": withInheritance(m)})
		},
	},
	grammar.Rule{
		Name: "send_community_ebgp",
		Re:   regexp.MustCompile(`^send-community-ebgp(?P<inh> inheritance-disable)?$`),
		Build: func(m grammar.Match) tree.Tree {
			return place(m, tree.Tree{"send_community_ebgp": withInheritance(m)})
		},
	},
	grammar.Rule{
		Name: "remove_private_AS",
		Re:   regexp.MustCompile(`^remove-private-AS(?P<in> inbound)?(?P<all> entire-aspath)?(?P<inh> inheritance-disable)?$`),
		Build: func(m grammar.Match) tree.Tree {
			return place(m, tree.Tree{"remove_private_AS": withInheritance(m).With(tree.Tree{
				"inbound":       m.Flag("in"),
				"entire_aspath": m.Flag("all"),
			})})
		},
	},
	grammar.Rule{
		Name: "soft_reconfiguration",
		Re:   regexp.MustCompile(`^soft-reconfiguration inbound(?P<always> always)?$`),
		Build: func(m grammar.Match) tree.Tree {
			return place(m, tree.Tree{"soft_reconfiguration": tree.Tree{"set": true, "always": m.Flag("always")}})
		},
	},
	grammar.Rule{
		Name: "maximum_prefix",
		Re:   regexp.MustCompile(`^maximum-prefix (?P<max>\d+)(?: (?P<thr>\d+))?(?: restart (?P<restart>\d+))?(?P<warn> warning-only)?$`),
		Build: func(m grammar.Match) tree.Tree {
			return place(m, tree.Tree{"maximum_prefix": tree.Tree{
				"max_limit":       m.Int("max"),
				"threshold_value": m.Int("thr"),
				"restart":         m.Int("restart"),
				"warning_only":    m.Flag("warn"),
			}})
		},
	},
	grammar.Rule{
		Name: "default_originate",
		Re:   regexp.MustCompile(`^default-originate(?: route-policy (?P<rp>\S+))?(?P<inh> inheritance-disable)?$`),
		Build: func(m grammar.Match) tree.Tree {
			return place(m, tree.Tree{"default_originate": withInheritance(m).With(tree.Tree{
				"route_policy": m.Str("rp"),
			})})
		},
	},
	grammar.Rule{
		Name: "origin_as",
		Re:   regexp.MustCompile(`^origin-as validation disable$`),
		Build: func(m grammar.Match) tree.Tree {
			return place(m, tree.Tree{"origin_as": tree.Tree{"validation": tree.Tree{"disable": true}}})
		},
	},
	grammar.Rule{
		Name: "as_override",
		Re:   regexp.MustCompile(`^as-override(?P<inh> inheritance-disable)?$`),
		Build: func(m grammar.Match) tree.Tree {
			return place(m, tree.Tree{"as_override": withInheritance(m)})
		},
	},
	grammar.Rule{
		Name: "weight",
		Re:   regexp.MustCompile(`^weight (?P<v>\d+)$`),
		Build: func(m grammar.Match) tree.Tree {
			return place(m, tree.Tree{"weight": m.Int("v")})
		},
	},
	grammar.Rule{
		Name: "allowas_in",
		Re:   regexp.MustCompile(`^allowas-in(?: (?P<v>\d+))?$`),
		Build: func(m grammar.Match) tree.Tree {
			return place(m, tree.Tree{"allowas_in": tree.Tree{"set": true, "value": m.Int("v")}})
		},
	},
	grammar.Rule{
		Name: "aigp",
		Re:   regexp.MustCompile(`^aigp(?P<dis> disable)?$`),
		Build: func(m grammar.Match) tree.Tree {
			if m.Has("dis") {
				return place(m, tree.Tree{"aigp": tree.Tree{"disable": true}})
			}
			return place(m, tree.Tree{"aigp": tree.Tree{"set": true}})
		},
	},
	grammar.Rule{
		Name: "aigp_send_cost_community",
		Re:   regexp.MustCompile(`^aigp send-cost-community disable$`),
		Build: func(m grammar.Match) tree.Tree {
			return place(m, tree.Tree{"aigp": tree.Tree{"send_cost_community_disable": true}})
		},
	},
	grammar.Rule{
		Name: "aigp_send_med",
		Re:   regexp.MustCompile(`^aigp send med(?P<dis> disable)?$`),
		Build: func(m grammar.Match) tree.Tree {
			if m.Has("dis") {
				return place(m, tree.Tree{"aigp": tree.Tree{"send_med": tree.Tree{"disable": true}}})
			}
			return place(m, tree.Tree{"aigp": tree.Tree{"send_med": tree.Tree{"set": true}}})
		},
	},
)

const argSpec = `{
  "type": "object",
  "additionalProperties": false,
  "definitions": {
    "inheritable": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "set": {"type": "boolean"},
        "inheritance_disable": {"type": "boolean"}
      }
    },
    "address_family": {
      "type": "object",
      "additionalProperties": false,
      "required": ["afi", "safi"],
      "properties": {
        "afi": {"type": "string", "enum": ["ipv4", "ipv6", "l2vpn", "vpnv4", "vpnv6", "link-state"]},
        "safi": {"type": "string"},
        "route_policy": {
          "type": "object",
          "additionalProperties": false,
          "properties": {"inbound": {"type": "string"}, "outbound": {"type": "string"}}
        },
        "next_hop_self": {"$ref": "#/definitions/inheritable"},
        "send_community_ebgp": {"$ref": "#/definitions/inheritable"},
        "remove_private_AS": {
          "type": "object",
          "additionalProperties": false,
          "properties": {
            "set": {"type": "boolean"},
            "inbound": {"type": "boolean"},
            "entire_aspath": {"type": "boolean"},
            "inheritance_disable": {"type": "boolean"}
          }
        },
        "soft_reconfiguration": {
          "type": "object",
          "additionalProperties": false,
          "properties": {"set": {"type": "boolean"}, "always": {"type": "boolean"}}
        },
        "maximum_prefix": {
          "type": "object",
          "additionalProperties": false,
          "required": ["max_limit"],
          "properties": {
            "max_limit": {"type": "integer", "minimum": 1},
            "threshold_value": {"type": "integer", "minimum": 1, "maximum": 100},
            "restart": {"type": "integer", "minimum": 1, "maximum": 65535},
            "warning_only": {"type": "boolean"}
          }
        },
        "default_originate": {
          "type": "object",
          "additionalProperties": false,
          "properties": {
            "set": {"type": "boolean"},
            "route_policy": {"type": "string"},
            "inheritance_disable": {"type": "boolean"}
          }
        },
        "origin_as": {
          "type": "object",
          "additionalProperties": false,
          "properties": {
            "validation": {
              "type": "object",
              "additionalProperties": false,
              "properties": {"disable": {"type": "boolean"}}
            }
          }
        },
        "as_override": {"$ref": "#/definitions/inheritable"},
        "weight": {"type": "integer", "minimum": 0, "maximum": 65535},
        "allowas_in": {
          "type": "object",
          "additionalProperties": false,
          "properties": {"set": {"type": "boolean"}, "value": {"type": "integer", "minimum": 1, "maximum": 10}}
        },
        "aigp": {
          "type": "object",
          "additionalProperties": false,
          "properties": {
            "set": {"type": "boolean"},
            "disable": {"type": "boolean"},
            "send_cost_community_disable": {"type": "boolean"},
            "send_med": {
              "type": "object",
              "additionalProperties": false,
              "properties": {"set": {"type": "boolean"}, "disable": {"type": "boolean"}}
            }
          }
        }
      }
    },
    "neighbor": {
      "type": "object",
      "additionalProperties": false,
      "required": ["neighbor_address"],
      "properties": {
        "neighbor_address": {"type": "string"},
        "address_family": {"type": "array", "items": {"$ref": "#/definitions/address_family"}}
      }
    }
  },
  "properties": {
    "as_number": {"type": ["string", "integer"]},
    "neighbors": {"type": "array", "items": {"$ref": "#/definitions/neighbor"}},
    "vrfs": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["vrf"],
        "properties": {
          "vrf": {"type": "string"},
          "neighbors": {"type": "array", "items": {"$ref": "#/definitions/neighbor"}}
        }
      }
    }
  }
}`

// Package bgpaddressfamily manages the address families of router bgp and
// of its vrfs.
package bgpaddressfamily

import (
	"regexp"

	"xrctl/pkg/canon"
	"xrctl/pkg/grammar"
	"xrctl/pkg/modules/internal/bgp"
	"xrctl/pkg/rm"
	"xrctl/pkg/tree"
)

var afFields = rm.NewRegistry(
	rm.Field{Name: "dynamic_med", Setval: rm.Tmpl("dynamic-med interval {{ .dynamic_med }}")},
	rm.Field{Name: "maximum_paths.ebgp", Setval: rm.Tmpl("maximum-paths ebgp {{ .maximum_paths.ebgp }}")},
	rm.Field{Name: "maximum_paths.ibgp", Setval: rm.Tmpl("maximum-paths ibgp {{ .maximum_paths.ibgp }}")},
	rm.Field{Name: "maximum_paths.eibgp", Setval: rm.Tmpl("maximum-paths eibgp {{ .maximum_paths.eibgp }}")},
	rm.Field{Name: "allocate_label.all", Setval: rm.Static("allocate-label all")},
	rm.Field{Name: "advertise_best_external", Setval: rm.Static("advertise best-external")},
	rm.Field{Name: "additional_paths", Setval: rm.Tmpl("additional-paths {{ .additional_paths }}")},
	rm.Field{Name: "table_policy", Setval: rm.Tmpl("table-policy {{ .table_policy }}")},
	rm.Field{Name: "bgp.attribute_download", Setval: rm.Static("bgp attribute-download")},
)

var entryFields = rm.NewRegistry(
	rm.Field{
		Name:   "network",
		Setval: rm.Tmpl(`network {{ .prefix }}{{ with index . "route_policy" }} route-policy {{ . }}{{ end }}`),
		Remval: rm.Tmpl("no network {{ .prefix }}"),
	},
	rm.Field{
		Name: "redistribute",
		Setval: rm.Tmpl(`redistribute {{ .protocol }}{{ with index . "id" }} {{ . }}{{ end }}
{{- with index . "metric" }} metric {{ . }}{{ end }}
{{- with index . "route_policy" }} route-policy {{ . }}{{ end }}`),
		Remval: rm.Tmpl(`no redistribute {{ .protocol }}{{ with index . "id" }} {{ . }}{{ end }}`),
	},
)

var schema = canon.Schema{
	"address_family": {
		Keys: []string{"afi", "safi", "vrf"},
		Nested: canon.Schema{
			"networks":     {Keys: []string{"prefix"}},
			"redistribute": {Keys: []string{"protocol", "id"}},
		},
	},
}

// Module is the bgp_address_family resource module.
var Module = &rm.Module{
	Name:       "bgp_address_family",
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
	matched, haveOnly := canon.Partition(r.Want.Coll("address_family"), r.Have.Coll("address_family"))
	// Default vrf families go first: a vrf header leaves the CLI in that
	// vrf for every address-family line after it.
	for _, inVRF := range []bool{false, true} {
		for _, p := range matched {
			if (p.Want.Str("vrf") != "") != inVRF {
				continue
			}
			if err := compareAF(r, p); err != nil {
				return err
			}
		}
		if !r.Negates() {
			continue
		}
		for _, e := range haveOnly {
			if (e.Tree.Str("vrf") != "") != inVRF {
				continue
			}
			hdr := afHeaders(e.Tree)
			hdr[len(hdr)-1] = "no " + hdr[len(hdr)-1]
			r.Commands.Add(hdr...)
		}
	}
	r.Commands.WrapSince(begin, header)
	return nil
}

func compareAF(r *rm.Run, p canon.Pair) error {
	begin := r.Commands.Len()
	if err := r.Compare(afFields, afFields.Names(), p.Want, p.Have); err != nil {
		return err
	}
	if err := compareEntries(r, "networks", "network", p.Want, p.Have); err != nil {
		return err
	}
	if err := compareEntries(r, "redistribute", "redistribute", p.Want, p.Have); err != nil {
		return err
	}
	if !r.Commands.WrapSince(begin, afHeaders(p.Want)...) && !p.InHave {
		r.Commands.Add(afHeaders(p.Want)...)
	}
	return nil
}

// compareEntries diffs a keyed list of whole-line entries: stale entries
// are removed first, then new or changed ones are set.
func compareEntries(r *rm.Run, attr, field string, want, have tree.Tree) error {
	matched, stale := canon.Partition(want.Coll(attr), have.Coll(attr))
	for _, e := range stale {
		if err := r.AddCmd(entryFields, e.Tree, field, true); err != nil {
			return err
		}
	}
	for _, p := range matched {
		if p.InHave && tree.Equal(p.Want, p.Have) {
			continue
		}
		if err := r.AddCmd(entryFields, p.Want, field, false); err != nil {
			return err
		}
	}
	return nil
}

func afHeaders(af tree.Tree) []string {
	if vrf := af.Str("vrf"); vrf != "" {
		return []string{"vrf " + vrf, bgp.AFHeader(af)}
	}
	return []string{bgp.AFHeader(af)}
}

// place nests v into the address family the line sits in. Neighbor and
// neighbor-group address families belong to other modules.
func place(m grammar.Match, v tree.Tree) tree.Tree {
	s, ok := bgp.ScopeOf(m)
	if !ok || !s.InAF() || s.Neighbor != "" || s.Group != "" {
		return nil
	}
	key := s.AFKey()
	if s.VRF != "" {
		key += "_" + s.VRF
	}
	return grammar.Nest(v, "address_family", key)
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
			return place(m, tree.Tree{"afi": m.Get("afi"), "safi": m.Get("safi"), "vrf": m.Str("vrf")})
		},
	},
	grammar.Rule{
		Name: "dynamic_med",
		Re:   regexp.MustCompile(`^dynamic-med interval (?P<v>\d+)$`),
		Build: func(m grammar.Match) tree.Tree {
			return place(m, tree.Tree{"dynamic_med": m.Int("v")})
		},
	},
	grammar.Rule{
		Name: "maximum_paths",
		Re:   regexp.MustCompile(`^maximum-paths (?P<kind>ebgp|ibgp|eibgp) (?P<v>\d+)$`),
		Build: func(m grammar.Match) tree.Tree {
			return place(m, tree.Tree{"maximum_paths": tree.Tree{m.Get("kind"): m.Int("v")}})
		},
	},
	grammar.Rule{
		Name: "allocate_label",
		Re:   regexp.MustCompile(`^allocate-label all$`),
		Build: func(m grammar.Match) tree.Tree {
			return place(m, tree.Tree{"allocate_label": tree.Tree{"all": true}})
		},
	},
	grammar.Rule{
		Name: "advertise_best_external",
		Re:   regexp.MustCompile(`^advertise best-external$`),
		Build: func(m grammar.Match) tree.Tree {
			return place(m, tree.Tree{"advertise_best_external": true})
		},
	},
	grammar.Rule{
		Name: "additional_paths",
		Re:   regexp.MustCompile(`^additional-paths (?P<v>send|receive|selection .+)$`),
		Build: func(m grammar.Match) tree.Tree {
			return place(m, tree.Tree{"additional_paths": m.Get("v")})
		},
	},
	grammar.Rule{
		Name: "table_policy",
		Re:   regexp.MustCompile(`^table-policy (?P<v>\S+)$`),
		Build: func(m grammar.Match) tree.Tree {
			return place(m, tree.Tree{"table_policy": m.Get("v")})
		},
	},
	grammar.Rule{
		Name: "attribute_download",
		Re:   regexp.MustCompile(`^bgp attribute-download$`),
		Build: func(m grammar.Match) tree.Tree {
			return place(m, tree.Tree{"bgp": tree.Tree{"attribute_download": true}})
		},
	},
	grammar.Rule{
		Name: "network",
		Re:   regexp.MustCompile(`^network (?P<prefix>\S+)(?: route-policy (?P<rp>\S+))?$`),
		Build: func(m grammar.Match) tree.Tree {
			return place(m, tree.Tree{"networks": tree.Tree{m.Get("prefix"): tree.Tree{
				"prefix":       m.Get("prefix"),
				"route_policy": m.Str("rp"),
			}}})
		},
	},
	grammar.Rule{
		Name: "redistribute",
		Re: regexp.MustCompile(`^redistribute (?P<protocol>\S+)(?: (?P<id>\S+))?` +
			`(?: metric (?P<metric>\d+))?(?: route-policy (?P<rp>\S+))?$`),
		Build: func(m grammar.Match) tree.Tree {
			key := m.Get("protocol") + "_" + m.Get("id")
			return place(m, tree.Tree{"redistribute": tree.Tree{key: tree.Tree{
				"protocol":     m.Get("protocol"),
				"id":           m.Int("id"),
				"metric":       m.Int("metric"),
				"route_policy": m.Str("rp"),
			}}})
		},
	},
)

const argSpec = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "as_number": {"type": ["string", "integer"]},
    "address_family": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["afi", "safi"],
        "properties": {
          "afi": {"type": "string", "enum": ["ipv4", "ipv6", "l2vpn", "vpnv4", "vpnv6", "link-state"]},
          "safi": {"type": "string", "enum": ["unicast", "multicast", "labeled-unicast", "mvpn", "flowspec", "evpn", "vpls-vpws", "link-state"]},
          "vrf": {"type": "string"},
          "dynamic_med": {"type": "integer", "minimum": 0, "maximum": 10},
          "maximum_paths": {
            "type": "object",
            "additionalProperties": false,
            "properties": {
              "ebgp": {"type": "integer", "minimum": 2, "maximum": 128},
              "ibgp": {"type": "integer", "minimum": 2, "maximum": 128},
              "eibgp": {"type": "integer", "minimum": 2, "maximum": 128}
            }
          },
          "allocate_label": {
            "type": "object",
            "additionalProperties": false,
            "properties": {"all": {"type": "boolean"}}
          },
          "advertise_best_external": {"type": "boolean"},
          "additional_paths": {"type": "string"},
          "table_policy": {"type": "string"},
          "bgp": {
            "type": "object",
            "additionalProperties": false,
            "properties": {"attribute_download": {"type": "boolean"}}
          },
          "networks": {
            "type": "array",
            "items": {
              "type": "object",
              "additionalProperties": false,
              "required": ["prefix"],
              "properties": {
                "prefix": {"type": "string"},
                "route_policy": {"type": "string"}
              }
            }
          },
          "redistribute": {
            "type": "array",
            "items": {
              "type": "object",
              "additionalProperties": false,
              "required": ["protocol"],
              "properties": {
                "protocol": {"type": "string", "enum": ["application", "connected", "eigrp", "isis", "lisp", "mobile", "ospf", "ospfv3", "rip", "static", "subscriber"]},
                "id": {"type": ["string", "integer"]},
                "metric": {"type": "integer"},
                "route_policy": {"type": "string"}
              }
            }
          }
        }
      }
    }
  }
}`

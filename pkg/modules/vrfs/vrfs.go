// Package vrfs manages VRF definitions and their address families.
package vrfs

import (
	"regexp"

	"xrctl/pkg/canon"
	"xrctl/pkg/grammar"
	"xrctl/pkg/rm"
	"xrctl/pkg/tree"
)

var vrfFields = rm.NewRegistry(
	rm.Field{Name: "description", Setval: rm.Tmpl("description {{ .description }}")},
	rm.Field{Name: "rd", Setval: rm.Tmpl("rd {{ .rd }}")},
	rm.Field{Name: "vpn.id", Setval: rm.Tmpl("vpn id {{ .vpn.id }}")},
	rm.Field{Name: "evpn_route_sync", Setval: rm.Tmpl("evpn-route-sync {{ .evpn_route_sync }}")},
	rm.Field{Name: "remote_route_filtering.disable", Setval: rm.Static("remote-route-filtering disable")},
)

var afFields = rm.NewRegistry(
	rm.Field{Name: "import.route_policy", Setval: rm.Tmpl("import route-policy {{ .import.route_policy }}")},
	rm.Field{Name: "export.route_policy", Setval: rm.Tmpl("export route-policy {{ .export.route_policy }}")},
	rm.Field{Name: "maximum.prefix", Setval: rm.Tmpl("maximum prefix {{ .maximum.prefix }}")},
)

var targets = canon.Schema{
	"route_targets": {Keys: []string{"route_target"}},
}

var schema = canon.Schema{
	"vrfs": {
		Keys: []string{"name"},
		Nested: canon.Schema{
			"address_families": {
				Keys: []string{"afi", "safi"},
				Nested: canon.Schema{
					"import": {Nested: targets},
					"export": {Nested: targets},
				},
			},
		},
	},
}

// Module is the vrfs resource module.
var Module = &rm.Module{
	Name:       "vrfs",
	Scope:      "vrf",
	Schema:     schema,
	Grammar:    parser,
	ArgSpec:    argSpec,
	Comparator: compare,
}

func compare(r *rm.Run) error {
	matched, haveOnly := canon.Partition(r.Want.Coll("vrfs"), r.Have.Coll("vrfs"))
	for _, p := range matched {
		begin := r.Commands.Len()
		if err := r.Compare(vrfFields, vrfFields.Names(), p.Want, p.Have); err != nil {
			return err
		}
		if err := compareAFs(r, p.Want, p.Have); err != nil {
			return err
		}
		if !r.Commands.WrapSince(begin, "vrf "+p.Want.Str("name")) && !p.InHave {
			// a vrf with no attributes still has to exist
			r.Commands.Add("vrf " + p.Want.Str("name"))
		}
	}
	if r.Negates() {
		for _, e := range haveOnly {
			r.Commands.Add("no vrf " + e.Tree.Str("name"))
		}
	}
	return nil
}

func compareAFs(r *rm.Run, want, have tree.Tree) error {
	matched, haveOnly := canon.Partition(want.Coll("address_families"), have.Coll("address_families"))
	for _, e := range haveOnly {
		r.Commands.Add("no " + afHeader(e.Tree))
	}
	for _, p := range matched {
		begin := r.Commands.Len()
		for _, dir := range []string{"import", "export"} {
			if err := r.Compare(afFields, []string{dir + ".route_policy"}, p.Want, p.Have); err != nil {
				return err
			}
			compareTargets(r, dir, p.Want.Sub(dir), p.Have.Sub(dir))
		}
		if err := r.Compare(afFields, []string{"maximum.prefix"}, p.Want, p.Have); err != nil {
			return err
		}
		if !r.Commands.WrapSince(begin, afHeader(p.Want)) && !p.InHave {
			r.Commands.Add(afHeader(p.Want))
		}
	}
	return nil
}

// compareTargets diffs the route targets of one direction. Each target is
// its own line on the device.
func compareTargets(r *rm.Run, dir string, want, have tree.Tree) {
	matched, stale := canon.Partition(want.Coll("route_targets"), have.Coll("route_targets"))
	for _, e := range stale {
		r.Commands.Add("no " + dir + " route-target " + e.Tree.Str("route_target"))
	}
	for _, p := range matched {
		if !p.InHave {
			r.Commands.Add(dir + " route-target " + p.Want.Str("route_target"))
		}
	}
}

func afHeader(af tree.Tree) string {
	return "address-family " + af.Str("afi") + " " + af.Str("safi")
}

var parser = grammar.New(
	grammar.Rule{
		Name:   "vrf",
		Re:     regexp.MustCompile(`^vrf (?P<name>\S+)$`),
		Shared: true,
		Build: func(m grammar.Match) tree.Tree {
			return grammar.Nest(tree.Tree{"name": m.Get("name")}, "vrfs", m.Get("name"))
		},
	},
	grammar.Rule{
		Name:   "address_family",
		Re:     regexp.MustCompile(`^address-family (?P<afi>ipv4|ipv6) (?P<safi>unicast|multicast|flowspec)$`),
		Shared: true,
		Build: func(m grammar.Match) tree.Tree {
			return af(m, tree.Tree{"afi": m.Get("afi"), "safi": m.Get("safi")})
		},
	},
	grammar.Rule{
		Name: "description",
		Re:   regexp.MustCompile(`^description (?P<v>.+)$`),
		Build: func(m grammar.Match) tree.Tree {
			return vrf(m, tree.Tree{"description": m.Get("v")})
		},
	},
	grammar.Rule{
		Name: "rd",
		Re:   regexp.MustCompile(`^rd (?P<v>\S+)$`),
		Build: func(m grammar.Match) tree.Tree {
			return vrf(m, tree.Tree{"rd": m.Get("v")})
		},
	},
	grammar.Rule{
		Name: "vpn.id",
		Re:   regexp.MustCompile(`^vpn id (?P<v>\S+)$`),
		Build: func(m grammar.Match) tree.Tree {
			return vrf(m, tree.Tree{"vpn": tree.Tree{"id": m.Get("v")}})
		},
	},
	grammar.Rule{
		Name: "evpn_route_sync",
		Re:   regexp.MustCompile(`^evpn-route-sync (?P<v>\d+)$`),
		Build: func(m grammar.Match) tree.Tree {
			return vrf(m, tree.Tree{"evpn_route_sync": m.Int("v")})
		},
	},
	grammar.Rule{
		Name: "remote_route_filtering",
		Re:   regexp.MustCompile(`^remote-route-filtering disable$`),
		Build: func(m grammar.Match) tree.Tree {
			return vrf(m, tree.Tree{"remote_route_filtering": tree.Tree{"disable": true}})
		},
	},
	grammar.Rule{
		Name: "route_policy",
		Re:   regexp.MustCompile(`^(?P<dir>import|export) route-policy (?P<v>\S+)$`),
		Build: func(m grammar.Match) tree.Tree {
			return af(m, tree.Tree{m.Get("dir"): tree.Tree{"route_policy": m.Get("v")}})
		},
	},
	grammar.Rule{
		Name: "route_target",
		Re:   regexp.MustCompile(`^(?P<dir>import|export) route-target (?P<v>\S+)$`),
		Build: func(m grammar.Match) tree.Tree {
			return af(m, routeTarget(m.Get("dir"), m.Get("v")))
		},
	},
	// block form: "import route-target" followed by one target per line
	grammar.Rule{
		Name:   "route_target_block",
		Re:     regexp.MustCompile(`^(?P<rtdir>import|export) route-target$`),
		Shared: true,
	},
	grammar.Rule{
		Name: "route_target_entry",
		Re:   regexp.MustCompile(`^(?P<v>[\d.]+:\d+)$`),
		Build: func(m grammar.Match) tree.Tree {
			if !m.Has("rtdir") {
				return nil
			}
			return af(m, routeTarget(m.Get("rtdir"), m.Get("v")))
		},
	},
	grammar.Rule{
		Name: "maximum_prefix",
		Re:   regexp.MustCompile(`^maximum prefix (?P<v>\d+)$`),
		Build: func(m grammar.Match) tree.Tree {
			return af(m, tree.Tree{"maximum": tree.Tree{"prefix": m.Int("v")}})
		},
	},
)

// vrf nests v under the current vrf, outside any address family.
func vrf(m grammar.Match, v tree.Tree) tree.Tree {
	if !m.Has("name") || m.Has("afi") {
		return nil
	}
	return grammar.Nest(v, "vrfs", m.Get("name"))
}

func routeTarget(dir, rt string) tree.Tree {
	return tree.Tree{dir: tree.Tree{"route_targets": tree.Tree{rt: tree.Tree{"route_target": rt}}}}
}

func af(m grammar.Match, v tree.Tree) tree.Tree {
	if !m.Has("name") || !m.Has("afi") {
		return nil
	}
	key := m.Get("afi") + "_" + m.Get("safi")
	return grammar.Nest(v, "vrfs", m.Get("name"), "address_families", key)
}

const argSpec = `{
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "vrfs": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["name"],
        "properties": {
          "name": {"type": "string"},
          "description": {"type": "string"},
          "rd": {"type": "string"},
          "vpn": {
            "type": "object",
            "additionalProperties": false,
            "properties": {"id": {"type": "string"}}
          },
          "evpn_route_sync": {"type": "integer", "minimum": 1, "maximum": 65534},
          "remote_route_filtering": {
            "type": "object",
            "additionalProperties": false,
            "properties": {"disable": {"type": "boolean"}}
          },
          "address_families": {
            "type": "array",
            "items": {
              "type": "object",
              "additionalProperties": false,
              "required": ["afi", "safi"],
              "properties": {
                "afi": {"type": "string", "enum": ["ipv4", "ipv6"]},
                "safi": {"type": "string", "enum": ["unicast", "multicast", "flowspec"]},
                "import": {"$ref": "#/definitions/policy"},
                "export": {"$ref": "#/definitions/policy"},
                "maximum": {
                  "type": "object",
                  "additionalProperties": false,
                  "properties": {"prefix": {"type": "integer", "minimum": 32, "maximum": 5000000}}
                }
              }
            }
          }
        }
      }
    }
  },
  "definitions": {
    "policy": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "route_policy": {"type": "string"},
        "route_targets": {
          "type": "array",
          "items": {
            "oneOf": [
              {"type": "string"},
              {
                "type": "object",
                "additionalProperties": false,
                "required": ["route_target"],
                "properties": {"route_target": {"type": "string"}}
              }
            ]
          }
        }
      }
    }
  }
}`

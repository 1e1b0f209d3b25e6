// Package bgpglobal manages the router bgp process: its global bgp
// settings, neighbors and vrfs.
package bgpglobal

import (
	"regexp"

	"xrctl/pkg/canon"
	"xrctl/pkg/grammar"
	"xrctl/pkg/modules/internal/bgp"
	"xrctl/pkg/rm"
	"xrctl/pkg/tree"
)

var globalFields = rm.NewRegistry(
	rm.Field{Name: "bgp.router_id", Setval: rm.Tmpl("bgp router-id {{ .bgp.router_id }}")},
	rm.Field{Name: "bgp.cluster_id", Setval: rm.Tmpl("bgp cluster-id {{ .bgp.cluster_id }}")},
	rm.Field{Name: "bgp.log.neighbor.changes.detail", Setval: rm.Static("bgp log neighbor changes detail")},
	rm.Field{Name: "bgp.bestpath.med.confed", Setval: rm.Static("bgp bestpath med confed")},
	rm.Field{
		Name:   "bgp.confederation.identifier",
		Setval: rm.Tmpl("bgp confederation identifier {{ .bgp.confederation.identifier }}"),
	},
	rm.Field{Name: "bgp.graceful_restart.set", Setval: rm.Static("bgp graceful-restart")},
	rm.Field{
		Name:   "bgp.graceful_restart.restart_time",
		Setval: rm.Tmpl("bgp graceful-restart restart-time {{ .bgp.graceful_restart.restart_time }}"),
	},
	rm.Field{Name: "default_metric", Setval: rm.Tmpl("default-metric {{ .default_metric }}")},
	rm.Field{
		Name:    "timers",
		Compval: "timers",
		Setval:  rm.Tmpl("timers bgp {{ .timers.keepalive_time }} {{ .timers.holdtime }}"),
	},
)

// remote-as has to precede password on a new neighbor.
var neighborFields = rm.NewRegistry(
	rm.Field{Name: "remote_as", Setval: rm.Tmpl("remote-as {{ .remote_as }}")},
	rm.Field{Name: "password.encrypted", Setval: rm.Tmpl("password encrypted {{ .password.encrypted }}")},
	rm.Field{Name: "description", Setval: rm.Tmpl("description {{ .description }}")},
	rm.Field{Name: "update_source", Setval: rm.Tmpl("update-source {{ .update_source }}")},
	rm.Field{Name: "ebgp_multihop", Setval: rm.Tmpl("ebgp-multihop {{ .ebgp_multihop }}")},
	rm.Field{Name: "bfd.fast_detect", Setval: rm.Static("bfd fast-detect")},
	rm.Field{Name: "shutdown", Setval: rm.Static("shutdown")},
)

var vrfFields = rm.NewRegistry(
	rm.Field{Name: "rd", Setval: rm.Tmpl("rd {{ .rd }}")},
	rm.Field{Name: "bgp.router_id", Setval: rm.Tmpl("bgp router-id {{ .bgp.router_id }}")},
)

var schema = canon.Schema{
	"neighbors": {Keys: []string{"neighbor_address"}},
	"vrfs": {
		Keys: []string{"vrf"},
		Nested: canon.Schema{
			"neighbors": {Keys: []string{"neighbor_address"}},
		},
	},
}

// Module is the bgp_global resource module.
var Module = &rm.Module{
	Name:       "bgp_global",
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
	if err := r.Compare(globalFields, globalFields.Names(), r.Want, r.Have); err != nil {
		return err
	}
	if err := compareNeighbors(r, r.Want, r.Have); err != nil {
		return err
	}

	matched, haveOnly := canon.Partition(r.Want.Coll("vrfs"), r.Have.Coll("vrfs"))
	for _, p := range matched {
		vbegin := r.Commands.Len()
		if err := r.Compare(vrfFields, vrfFields.Names(), p.Want, p.Have); err != nil {
			return err
		}
		if err := compareNeighbors(r, p.Want, p.Have); err != nil {
			return err
		}
		if !r.Commands.WrapSince(vbegin, "vrf "+p.Want.Str("vrf")) && !p.InHave {
			r.Commands.Add("vrf " + p.Want.Str("vrf"))
		}
	}
	for _, e := range haveOnly {
		r.Commands.Add("no vrf " + e.Tree.Str("vrf"))
	}

	// A process new on the device is created even without attributes.
	if !r.Commands.WrapSince(begin, header) && r.Mode != rm.Deleted &&
		r.Want.Has("as_number") && !r.Have.Has("as_number") {
		r.Commands.Add(header)
	}
	return nil
}

// compareNeighbors diffs the neighbors of one scope, the process or a vrf.
// Neighbors missing from want are removed; merged never has any.
func compareNeighbors(r *rm.Run, want, have tree.Tree) error {
	matched, haveOnly := canon.Partition(want.Coll("neighbors"), have.Coll("neighbors"))
	for _, e := range haveOnly {
		r.Commands.Add("no neighbor " + e.Tree.Str("neighbor_address"))
	}
	for _, p := range matched {
		begin := r.Commands.Len()
		if err := r.Compare(neighborFields, neighborFields.Names(), p.Want, p.Have); err != nil {
			return err
		}
		nbr := "neighbor " + p.Want.Str("neighbor_address")
		if !r.Commands.WrapSince(begin, nbr) && !p.InHave {
			r.Commands.Add(nbr)
		}
	}
	return nil
}

// place nests v at the process, vrf or neighbor the line belongs to.
// Address-family and neighbor-group stanzas are managed elsewhere.
func place(m grammar.Match, v tree.Tree) tree.Tree {
	s, ok := bgp.ScopeOf(m)
	if !ok || s.InAF() || s.Group != "" {
		return nil
	}
	var path []string
	if s.VRF != "" {
		path = append(path, "vrfs", s.VRF)
	}
	if s.Neighbor != "" {
		path = append(path, "neighbors", s.Neighbor)
	}
	return grammar.Nest(v, path...)
}

// global nests v at the process level only.
func global(m grammar.Match, v tree.Tree) tree.Tree {
	if m.Has("vrf") || m.Has("neighbor") {
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
	},
	grammar.Rule{
		Name:   "vrf",
		Re:     bgp.VRF,
		Shared: true,
		Build: func(m grammar.Match) tree.Tree {
			return place(m, tree.Tree{"vrf": m.Get("vrf")})
		},
	},
	grammar.Rule{
		Name:   "neighbor",
		Re:     bgp.Neighbor,
		Shared: true,
		Build: func(m grammar.Match) tree.Tree {
			return place(m, tree.Tree{"neighbor_address": m.Get("neighbor")})
		},
	},
	grammar.Rule{
		Name:   "address_family",
		Re:     bgp.AddressFamily,
		Shared: true,
	},
	grammar.Rule{
		Name: "router_id",
		Re:   regexp.MustCompile(`^bgp router-id (?P<v>\S+)$`),
		Build: func(m grammar.Match) tree.Tree {
			if m.Has("neighbor") {
				return nil
			}
			return place(m, tree.Tree{"bgp": tree.Tree{"router_id": m.Get("v")}})
		},
	},
	grammar.Rule{
		Name: "cluster_id",
		Re:   regexp.MustCompile(`^bgp cluster-id (?P<v>\S+)$`),
		Build: func(m grammar.Match) tree.Tree {
			return global(m, tree.Tree{"bgp": tree.Tree{"cluster_id": m.Get("v")}})
		},
	},
	grammar.Rule{
		Name: "log_neighbor_changes",
		Re:   regexp.MustCompile(`^bgp log neighbor changes detail$`),
		Build: func(m grammar.Match) tree.Tree {
			return global(m, tree.Tree{"bgp": tree.Tree{"log": tree.Tree{"neighbor": tree.Tree{"changes": tree.Tree{"detail": true}}}}})
		},
	},
	grammar.Rule{
		Name: "bestpath_med_confed",
		Re:   regexp.MustCompile(`^bgp bestpath med confed$`),
		Build: func(m grammar.Match) tree.Tree {
			return global(m, tree.Tree{"bgp": tree.Tree{"bestpath": tree.Tree{"med": tree.Tree{"confed": true}}}})
		},
	},
	grammar.Rule{
		Name: "confederation_identifier",
		Re:   regexp.MustCompile(`^bgp confederation identifier (?P<v>\S+)$`),
		Build: func(m grammar.Match) tree.Tree {
			return global(m, tree.Tree{"bgp": tree.Tree{"confederation": tree.Tree{"identifier": m.Int("v")}}})
		},
	},
	grammar.Rule{
		Name: "graceful_restart_time",
		Re:   regexp.MustCompile(`^bgp graceful-restart restart-time (?P<v>\d+)$`),
		Build: func(m grammar.Match) tree.Tree {
			return global(m, tree.Tree{"bgp": tree.Tree{"graceful_restart": tree.Tree{"restart_time": m.Int("v")}}})
		},
	},
	grammar.Rule{
		Name: "graceful_restart",
		Re:   regexp.MustCompile(`^bgp graceful-restart$`),
		Build: func(m grammar.Match) tree.Tree {
			return global(m, tree.Tree{"bgp": tree.Tree{"graceful_restart": tree.Tree{"set": true}}})
		},
	},
	grammar.Rule{
		Name: "default_metric",
		Re:   regexp.MustCompile(`^default-metric (?P<v>\d+)$`),
		Build: func(m grammar.Match) tree.Tree {
			return global(m, tree.Tree{"default_metric": m.Int("v")})
		},
	},
	grammar.Rule{
		Name: "timers",
		Re:   regexp.MustCompile(`^timers bgp (?P<k>\d+) (?P<h>\d+)$`),
		Build: func(m grammar.Match) tree.Tree {
			return global(m, tree.Tree{"timers": tree.Tree{"keepalive_time": m.Int("k"), "holdtime": m.Int("h")}})
		},
	},
	grammar.Rule{
		Name: "rd",
		Re:   regexp.MustCompile(`^rd (?P<v>\S+)$`),
		Build: func(m grammar.Match) tree.Tree {
			if !m.Has("vrf") || m.Has("neighbor") {
				return nil
			}
			return place(m, tree.Tree{"rd": m.Get("v")})
		},
	},
	grammar.Rule{
		Name: "remote_as",
		Re:   regexp.MustCompile(`^remote-as (?P<v>\S+)$`),
		Build: func(m grammar.Match) tree.Tree {
			return neighbor(m, tree.Tree{"remote_as": m.Int("v")})
		},
	},
	grammar.Rule{
		Name: "password",
		Re:   regexp.MustCompile(`^password encrypted (?P<v>\S+)$`),
		Build: func(m grammar.Match) tree.Tree {
			return neighbor(m, tree.Tree{"password": tree.Tree{"encrypted": m.Get("v")}})
		},
	},
	grammar.Rule{
		Name: "description",
		Re:   regexp.MustCompile(`^description (?P<v>.+)$`),
		Build: func(m grammar.Match) tree.Tree {
			return neighbor(m, tree.Tree{"description": m.Get("v")})
		},
	},
	grammar.Rule{
		Name: "update_source",
		Re:   regexp.MustCompile(`^update-source (?P<v>\S+)$`),
		Build: func(m grammar.Match) tree.Tree {
			return neighbor(m, tree.Tree{"update_source": m.Get("v")})
		},
	},
	grammar.Rule{
		Name: "ebgp_multihop",
		Re:   regexp.MustCompile(`^ebgp-multihop (?P<v>\d+)$`),
		Build: func(m grammar.Match) tree.Tree {
			return neighbor(m, tree.Tree{"ebgp_multihop": m.Int("v")})
		},
	},
	grammar.Rule{
		Name: "bfd_fast_detect",
		Re:   regexp.MustCompile(`^bfd fast-detect$`),
		Build: func(m grammar.Match) tree.Tree {
			return neighbor(m, tree.Tree{"bfd": tree.Tree{"fast_detect": true}})
		},
	},
	grammar.Rule{
		Name: "shutdown",
		Re:   regexp.MustCompile(`^shutdown$`),
		Build: func(m grammar.Match) tree.Tree {
			return neighbor(m, tree.Tree{"shutdown": true})
		},
	},
)

func neighbor(m grammar.Match, v tree.Tree) tree.Tree {
	if !m.Has("neighbor") {
		return nil
	}
	return place(m, v)
}

const argSpec = `{
  "type": "object",
  "additionalProperties": false,
  "definitions": {
    "neighbor": {
      "type": "object",
      "additionalProperties": false,
      "required": ["neighbor_address"],
      "properties": {
        "neighbor_address": {"type": "string"},
        "remote_as": {"type": ["string", "integer"]},
        "password": {
          "type": "object",
          "additionalProperties": false,
          "properties": {"encrypted": {"type": "string"}}
        },
        "description": {"type": "string"},
        "update_source": {"type": "string"},
        "ebgp_multihop": {"type": "integer", "minimum": 1, "maximum": 255},
        "bfd": {
          "type": "object",
          "additionalProperties": false,
          "properties": {"fast_detect": {"type": "boolean"}}
        },
        "shutdown": {"type": "boolean"}
      }
    }
  },
  "properties": {
    "as_number": {"type": ["string", "integer"]},
    "bgp": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "router_id": {"type": "string"},
        "cluster_id": {"type": ["string", "integer"]},
        "log": {"type": "object"},
        "bestpath": {"type": "object"},
        "confederation": {
          "type": "object",
          "additionalProperties": false,
          "properties": {"identifier": {"type": ["string", "integer"]}}
        },
        "graceful_restart": {
          "type": "object",
          "additionalProperties": false,
          "properties": {
            "set": {"type": "boolean"},
            "restart_time": {"type": "integer", "minimum": 1, "maximum": 3600}
          }
        }
      }
    },
    "default_metric": {"type": "integer", "minimum": 1},
    "timers": {
      "type": "object",
      "additionalProperties": false,
      "required": ["keepalive_time", "holdtime"],
      "properties": {
        "keepalive_time": {"type": "integer", "minimum": 0, "maximum": 65535},
        "holdtime": {"type": "integer", "minimum": 0, "maximum": 65535}
      }
    },
    "neighbors": {"type": "array", "items": {"$ref": "#/definitions/neighbor"}},
    "vrfs": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["vrf"],
        "properties": {
          "vrf": {"type": "string"},
          "rd": {"type": "string"},
          "bgp": {
            "type": "object",
            "additionalProperties": false,
            "properties": {"router_id": {"type": "string"}}
          },
          "neighbors": {"type": "array", "items": {"$ref": "#/definitions/neighbor"}}
        }
      }
    }
  }
}`

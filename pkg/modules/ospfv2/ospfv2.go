// Package ospfv2 manages OSPFv2 processes and their areas.
package ospfv2

import (
	"regexp"

	"xrctl/pkg/canon"
	"xrctl/pkg/grammar"
	"xrctl/pkg/rm"
	"xrctl/pkg/tree"
)

var processFields = rm.NewRegistry(
	rm.Field{Name: "router_id", Setval: rm.Tmpl("router-id {{ .router_id }}")},
	rm.Field{Name: "cost", Setval: rm.Tmpl("cost {{ .cost }}")},
	rm.Field{Name: "passive", Setval: rm.Static("passive enable")},
	rm.Field{
		Name:   "log_adjacency_changes",
		Flag:   true,
		Setval: rm.Tmpl(`log adjacency changes{{ if index .log_adjacency_changes "detail" }} detail{{ end }}`),
	},
	rm.Field{
		Name:   "default_information_originate",
		Flag:   true,
		Setval: rm.Tmpl(`default-information originate{{ if index .default_information_originate "always" }} always{{ end }}`),
	},
)

var areaFields = rm.NewRegistry(
	rm.Field{Name: "default_cost", Setval: rm.Tmpl("area {{ .area_id }} default-cost {{ .default_cost }}")},
	rm.Field{
		Name:   "stub",
		Flag:   true,
		Setval: rm.Tmpl(`area {{ .area_id }} stub{{ if index .stub "no_summary" }} no-summary{{ end }}`),
	},
	rm.Field{Name: "nssa", Compval: "nssa.set", Setval: rm.Tmpl("area {{ .area_id }} nssa")},
	rm.Field{Name: "cost", Setval: rm.Tmpl("area {{ .area_id }} cost {{ .cost }}")},
)

var schema = canon.Schema{
	"processes": {
		Keys: []string{"process_id"},
		Nested: canon.Schema{
			"areas": {Keys: []string{"area_id"}},
		},
	},
}

// Module is the ospfv2 resource module.
var Module = &rm.Module{
	Name:    "ospfv2",
	Scope:   "router ospf",
	Schema:  schema,
	Grammar: parser,
	ArgSpec: argSpec,
	Comparator: func(r *rm.Run) error {
		matched, haveOnly := canon.Partition(r.Want.Coll("processes"), r.Have.Coll("processes"))
		for _, p := range matched {
			if err := compareProcess(r, p); err != nil {
				return err
			}
		}
		if r.Negates() {
			for _, e := range haveOnly {
				r.Commands.Add("no router ospf " + e.Tree.Str("process_id"))
			}
		}
		return nil
	},
}

func compareProcess(r *rm.Run, p canon.Pair) error {
	begin := r.Commands.Len()
	if err := r.Compare(processFields, processFields.Names(), p.Want, p.Have); err != nil {
		return err
	}
	areas, stale := canon.Partition(p.Want.Coll("areas"), p.Have.Coll("areas"))
	for _, a := range areas {
		if err := r.Compare(areaFields, areaFields.Names(), a.Want, a.Have); err != nil {
			return err
		}
	}
	for _, e := range stale {
		if err := r.Compare(areaFields, areaFields.Names(), tree.Tree{"area_id": e.Tree.Str("area_id")}, e.Tree); err != nil {
			return err
		}
	}
	header := "router ospf " + p.Want.Str("process_id")
	if !r.Commands.WrapSince(begin, header) && !p.InHave {
		r.Commands.Add(header)
	}
	return nil
}

// areaID returns the area from either the "area X" block context or an
// inline "area X ..." capture.
func areaID(m grammar.Match) string {
	if m.Has("aid") {
		return m.Get("aid")
	}
	return m.Get("area_id")
}

func process(m grammar.Match, v tree.Tree) tree.Tree {
	if !m.Has("pid") || m.Has("ifname") {
		return nil
	}
	if id := areaID(m); id != "" {
		return grammar.Nest(v.With(tree.Tree{"area_id": id}), "processes", m.Get("pid"), "areas", id)
	}
	return grammar.Nest(v, "processes", m.Get("pid"))
}

var parser = grammar.New(
	grammar.Rule{
		Name:   "process",
		Re:     regexp.MustCompile(`^router ospf (?P<pid>\S+)$`),
		Shared: true,
		Build: func(m grammar.Match) tree.Tree {
			return grammar.Nest(tree.Tree{"process_id": m.Get("pid")}, "processes", m.Get("pid"))
		},
	},
	grammar.Rule{
		Name:   "area",
		Re:     regexp.MustCompile(`^area (?P<area_id>\S+)$`),
		Shared: true,
		Build: func(m grammar.Match) tree.Tree {
			return process(m, tree.Tree{})
		},
	},
	// interface blocks are not managed here; the rule only keeps their
	// attributes out of the area
	grammar.Rule{
		Name:   "interface",
		Re:     regexp.MustCompile(`^interface (?P<ifname>\S+)$`),
		Shared: true,
	},
	grammar.Rule{
		Name: "router_id",
		Re:   regexp.MustCompile(`^router-id (?P<v>\S+)$`),
		Build: func(m grammar.Match) tree.Tree {
			return process(m, tree.Tree{"router_id": m.Get("v")})
		},
	},
	grammar.Rule{
		Name: "cost",
		Re:   regexp.MustCompile(`^(?:area (?P<aid>\S+) )?cost (?P<v>\d+)$`),
		Build: func(m grammar.Match) tree.Tree {
			return process(m, tree.Tree{"cost": m.Int("v")})
		},
	},
	grammar.Rule{
		Name: "default_cost",
		Re:   regexp.MustCompile(`^(?:area (?P<aid>\S+) )?default-cost (?P<v>\d+)$`),
		Build: func(m grammar.Match) tree.Tree {
			return process(m, tree.Tree{"default_cost": m.Int("v")})
		},
	},
	grammar.Rule{
		Name: "stub",
		Re:   regexp.MustCompile(`^(?:area (?P<aid>\S+) )?stub(?P<ns> no-summary)?$`),
		Build: func(m grammar.Match) tree.Tree {
			if areaID(m) == "" {
				return nil
			}
			return process(m, tree.Tree{"stub": tree.Tree{"set": true, "no_summary": m.Flag("ns")}})
		},
	},
	grammar.Rule{
		Name: "nssa",
		Re:   regexp.MustCompile(`^(?:area (?P<aid>\S+) )?nssa$`),
		Build: func(m grammar.Match) tree.Tree {
			if areaID(m) == "" {
				return nil
			}
			return process(m, tree.Tree{"nssa": tree.Tree{"set": true}})
		},
	},
	grammar.Rule{
		Name: "passive",
		Re:   regexp.MustCompile(`^passive enable$`),
		Build: func(m grammar.Match) tree.Tree {
			return process(m, tree.Tree{"passive": true})
		},
	},
	grammar.Rule{
		Name: "log_adjacency_changes",
		Re:   regexp.MustCompile(`^log adjacency changes(?P<detail> detail)?$`),
		Build: func(m grammar.Match) tree.Tree {
			return process(m, tree.Tree{"log_adjacency_changes": tree.Tree{"set": true, "detail": m.Flag("detail")}})
		},
	},
	grammar.Rule{
		Name: "default_information_originate",
		Re:   regexp.MustCompile(`^default-information originate(?P<always> always)?$`),
		Build: func(m grammar.Match) tree.Tree {
			return process(m, tree.Tree{"default_information_originate": tree.Tree{"set": true, "always": m.Flag("always")}})
		},
	},
)

const argSpec = `{
  "type": "object",
  "additionalProperties": false,
  "definitions": {
    "flag": {
      "type": "object",
      "additionalProperties": false,
      "properties": {"set": {"type": "boolean"}}
    }
  },
  "properties": {
    "processes": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["process_id"],
        "properties": {
          "process_id": {"type": ["string", "integer"]},
          "router_id": {"type": "string"},
          "cost": {"type": "integer", "minimum": 1, "maximum": 65535},
          "passive": {"type": "boolean"},
          "log_adjacency_changes": {
            "type": "object",
            "additionalProperties": false,
            "properties": {"set": {"type": "boolean"}, "detail": {"type": "boolean"}}
          },
          "default_information_originate": {
            "type": "object",
            "additionalProperties": false,
            "properties": {"set": {"type": "boolean"}, "always": {"type": "boolean"}}
          },
          "areas": {
            "type": "array",
            "items": {
              "type": "object",
              "additionalProperties": false,
              "required": ["area_id"],
              "properties": {
                "area_id": {"type": ["string", "integer"]},
                "default_cost": {"type": "integer"},
                "cost": {"type": "integer"},
                "stub": {
                  "type": "object",
                  "additionalProperties": false,
                  "properties": {"set": {"type": "boolean"}, "no_summary": {"type": "boolean"}}
                },
                "nssa": {"$ref": "#/definitions/flag"}
              }
            }
          }
        }
      }
    }
  }
}`

// Package loggingglobal manages the global logging configuration: log
// destinations with their severities, remote hosts, log files, TLS servers
// and source interfaces.
//
// This is a single global resource, so replaced behaves like overridden:
// list entries that are not in config are removed.
package loggingglobal

import (
	"regexp"

	"xrctl/pkg/canon"
	"xrctl/pkg/grammar"
	"xrctl/pkg/rm"
	"xrctl/pkg/tree"
)

const severities = `alerts|critical|debugging|emergencies|errors|informational|notifications|warnings`

var fields = rm.NewRegistry(
	rm.Field{Name: "buffered.size", Setval: rm.Tmpl("logging buffered {{ .buffered.size }}")},
	rm.Field{Name: "buffered.severity", Setval: rm.Tmpl("logging buffered {{ .buffered.severity }}")},
	rm.Field{Name: "console.severity", Setval: rm.Tmpl("logging console {{ .console.severity }}")},
	rm.Field{Name: "console.disable", Setval: rm.Static("logging console disable")},
	rm.Field{Name: "monitor.severity", Setval: rm.Tmpl("logging monitor {{ .monitor.severity }}")},
	rm.Field{Name: "trap.severity", Setval: rm.Tmpl("logging trap {{ .trap.severity }}")},
	rm.Field{Name: "hostnameprefix", Setval: rm.Tmpl("logging hostnameprefix {{ .hostnameprefix }}")},
	rm.Field{Name: "facility", Setval: rm.Tmpl("logging facility {{ .facility }}")},
	rm.Field{Name: "ipv4.dscp", Setval: rm.Tmpl("logging ipv4 dscp {{ .ipv4.dscp }}")},
)

// entity renderers, one per list attribute
var lists = rm.NewRegistry(
	rm.Field{
		Name: "files",
		Setval: rm.Tmpl(`logging file {{ .name }} path {{ .path }}` +
			`{{ with index . "maxfilesize" }} maxfilesize {{ . }}{{ end }}` +
			`{{ with index . "severity" }} severity {{ . }}{{ end }}`),
		Remval: rm.Tmpl("no logging file {{ .name }}"),
	},
	rm.Field{
		Name: "hosts",
		Setval: rm.Tmpl(`logging {{ .host }}` +
			`{{ with index . "vrf" }} vrf {{ . }}{{ end }}` +
			`{{ with index . "severity" }} severity {{ . }}{{ end }}` +
			`{{ with index . "port" }} port {{ . }}{{ end }}`),
		Remval: rm.Tmpl(`no logging {{ .host }}{{ with index . "vrf" }} vrf {{ . }}{{ end }}`),
	},
	rm.Field{
		Name: "tls_servers",
		Setval: rm.Tmpl(`logging tls-server {{ .name }}
{{ with index . "vrf" }}vrf {{ . }}{{ end }}
{{ with index . "trustpoint" }}trustpoint {{ . }}{{ end }}
{{ with index . "severity" }}severity {{ . }}{{ end }}`),
		Remval: rm.Tmpl("no logging tls-server {{ .name }}"),
	},
	rm.Field{
		Name:   "source_interfaces",
		Setval: rm.Tmpl(`logging source-interface {{ .interface }}{{ with index . "vrf" }} vrf {{ . }}{{ end }}`),
	},
)

var schema = canon.Schema{
	"files":             {Keys: []string{"name"}},
	"hosts":             {Keys: []string{"host", "vrf"}},
	"tls_servers":       {Keys: []string{"name"}},
	"source_interfaces": {Keys: []string{"interface", "vrf"}},
}

// Module is the logging_global resource module.
var Module = &rm.Module{
	Name:    "logging_global",
	Scope:   "logging",
	Schema:  schema,
	Grammar: parser,
	ArgSpec: argSpec,
	Comparator: func(r *rm.Run) error {
		if err := r.Compare(fields, fields.Names(), r.Want, r.Have); err != nil {
			return err
		}
		for _, attr := range lists.Names() {
			if err := compareList(r, attr); err != nil {
				return err
			}
		}
		return nil
	},
}

func compareList(r *rm.Run, attr string) error {
	matched, haveOnly := canon.Partition(r.Want.Coll(attr), r.Have.Coll(attr))
	for _, e := range haveOnly {
		if err := r.AddCmd(lists, e.Tree, attr, true); err != nil {
			return err
		}
	}
	for _, p := range matched {
		if p.InHave && tree.Equal(p.Want, p.Have) {
			continue
		}
		if p.InHave && attr == "tls_servers" {
			// sub-mode lines that were dropped need their own negation
			if err := compareTLS(r, p.Want, p.Have); err != nil {
				return err
			}
			continue
		}
		if err := r.AddCmd(lists, p.Want, attr, false); err != nil {
			return err
		}
	}
	return nil
}

var tlsFields = rm.NewRegistry(
	rm.Field{Name: "vrf", Setval: rm.Tmpl("vrf {{ .vrf }}")},
	rm.Field{Name: "trustpoint", Setval: rm.Tmpl("trustpoint {{ .trustpoint }}")},
	rm.Field{Name: "severity", Setval: rm.Tmpl("severity {{ .severity }}")},
)

func compareTLS(r *rm.Run, want, have tree.Tree) error {
	begin := r.Commands.Len()
	if err := r.Compare(tlsFields, tlsFields.Names(), want, have); err != nil {
		return err
	}
	r.Commands.WrapSince(begin, "logging tls-server "+want.Str("name"))
	return nil
}

func severity(m grammar.Match, path string) tree.Tree {
	out := tree.Tree{}
	out.Set(path, m.Get("sev"))
	return out
}

var parser = grammar.New(
	grammar.Rule{
		Name: "buffered.size",
		Re:   regexp.MustCompile(`^logging buffered (?P<v>\d+)$`),
		Build: func(m grammar.Match) tree.Tree {
			return tree.Tree{"buffered": tree.Tree{"size": m.Int("v")}}
		},
	},
	grammar.Rule{
		Name: "buffered.severity",
		Re:   regexp.MustCompile(`^logging buffered (?P<sev>` + severities + `)$`),
		Build: func(m grammar.Match) tree.Tree {
			return severity(m, "buffered.severity")
		},
	},
	grammar.Rule{
		Name: "console.disable",
		Re:   regexp.MustCompile(`^logging console disable$`),
		Build: func(grammar.Match) tree.Tree {
			return tree.Tree{"console": tree.Tree{"disable": true}}
		},
	},
	grammar.Rule{
		Name: "console.severity",
		Re:   regexp.MustCompile(`^logging console (?P<sev>` + severities + `)$`),
		Build: func(m grammar.Match) tree.Tree {
			return severity(m, "console.severity")
		},
	},
	grammar.Rule{
		Name: "monitor.severity",
		Re:   regexp.MustCompile(`^logging monitor (?P<sev>` + severities + `)$`),
		Build: func(m grammar.Match) tree.Tree {
			return severity(m, "monitor.severity")
		},
	},
	grammar.Rule{
		Name: "trap.severity",
		Re:   regexp.MustCompile(`^logging trap (?P<sev>` + severities + `)$`),
		Build: func(m grammar.Match) tree.Tree {
			return severity(m, "trap.severity")
		},
	},
	grammar.Rule{
		Name: "hostnameprefix",
		Re:   regexp.MustCompile(`^logging hostnameprefix (?P<v>\S+)$`),
		Build: func(m grammar.Match) tree.Tree {
			return tree.Tree{"hostnameprefix": m.Get("v")}
		},
	},
	grammar.Rule{
		Name: "facility",
		Re:   regexp.MustCompile(`^logging facility (?P<v>\S+)$`),
		Build: func(m grammar.Match) tree.Tree {
			return tree.Tree{"facility": m.Get("v")}
		},
	},
	grammar.Rule{
		Name: "ipv4.dscp",
		Re:   regexp.MustCompile(`^logging ipv4 dscp (?P<v>\S+)$`),
		Build: func(m grammar.Match) tree.Tree {
			return tree.Tree{"ipv4": tree.Tree{"dscp": m.Get("v")}}
		},
	},
	grammar.Rule{
		Name: "source_interfaces",
		Re:   regexp.MustCompile(`^logging source-interface (?P<if>\S+)(?: vrf (?P<vrf>\S+))?$`),
		Build: func(m grammar.Match) tree.Tree {
			key := m.Get("if") + " " + m.Get("vrf")
			return grammar.Nest(tree.Tree{"interface": m.Get("if"), "vrf": m.Str("vrf")}, "source_interfaces", key)
		},
	},
	grammar.Rule{
		Name: "files",
		Re: regexp.MustCompile(`^logging file (?P<name>\S+) path (?P<path>\S+)` +
			`(?: maxfilesize (?P<max>\d+))?(?: severity (?P<sev>\S+))?$`),
		Build: func(m grammar.Match) tree.Tree {
			return grammar.Nest(tree.Tree{
				"name":        m.Get("name"),
				"path":        m.Get("path"),
				"maxfilesize": m.Int("max"),
				"severity":    m.Str("sev"),
			}, "files", m.Get("name"))
		},
	},
	grammar.Rule{
		Name:   "tls_servers",
		Re:     regexp.MustCompile(`^logging tls-server (?P<tls>\S+)$`),
		Shared: true,
		Build: func(m grammar.Match) tree.Tree {
			return grammar.Nest(tree.Tree{"name": m.Get("tls")}, "tls_servers", m.Get("tls"))
		},
	},
	grammar.Rule{
		Name: "tls_servers.attr",
		Re:   regexp.MustCompile(`^(?P<attr>vrf|trustpoint|severity) (?P<v>\S+)$`),
		Build: func(m grammar.Match) tree.Tree {
			if !m.Has("tls") {
				return nil
			}
			return grammar.Nest(tree.Tree{m.Get("attr"): m.Get("v")}, "tls_servers", m.Get("tls"))
		},
	},
	grammar.Rule{
		Name: "hosts",
		Re: regexp.MustCompile(`^logging (?P<host>[0-9a-fA-F.:]*[.:][0-9a-fA-F.:]*)` +
			`(?: vrf (?P<vrf>\S+))?(?: severity (?P<sev>\S+))?(?: port (?P<port>\S+))?$`),
		Build: func(m grammar.Match) tree.Tree {
			key := m.Get("host") + " " + m.Get("vrf")
			return grammar.Nest(tree.Tree{
				"host":     m.Get("host"),
				"vrf":      m.Str("vrf"),
				"severity": m.Str("sev"),
				"port":     m.Int("port"),
			}, "hosts", key)
		},
	},
)

const argSpec = `{
  "type": "object",
  "additionalProperties": false,
  "definitions": {
    "severity": {"type": "string", "enum": ["alerts", "critical", "debugging", "emergencies", "errors", "informational", "notifications", "warnings"]},
    "level": {
      "type": "object",
      "additionalProperties": false,
      "properties": {"severity": {"$ref": "#/definitions/severity"}}
    }
  },
  "properties": {
    "buffered": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "size": {"type": "integer", "minimum": 307200, "maximum": 125000000},
        "severity": {"$ref": "#/definitions/severity"}
      }
    },
    "console": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "severity": {"$ref": "#/definitions/severity"},
        "disable": {"type": "boolean"}
      }
    },
    "monitor": {"$ref": "#/definitions/level"},
    "trap": {"$ref": "#/definitions/level"},
    "hostnameprefix": {"type": "string"},
    "facility": {"type": "string"},
    "ipv4": {
      "type": "object",
      "additionalProperties": false,
      "properties": {"dscp": {"type": "string"}}
    },
    "files": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["name", "path"],
        "properties": {
          "name": {"type": "string"},
          "path": {"type": "string"},
          "maxfilesize": {"type": "integer"},
          "severity": {"$ref": "#/definitions/severity"}
        }
      }
    },
    "hosts": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["host"],
        "properties": {
          "host": {"type": "string"},
          "vrf": {"type": "string"},
          "severity": {"$ref": "#/definitions/severity"},
          "port": {"type": ["integer", "string"]}
        }
      }
    },
    "tls_servers": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["name"],
        "properties": {
          "name": {"type": "string"},
          "vrf": {"type": "string"},
          "trustpoint": {"type": "string"},
          "severity": {"$ref": "#/definitions/severity"}
        }
      }
    },
    "source_interfaces": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["interface"],
        "properties": {
          "interface": {"type": "string"},
          "vrf": {"type": "string"}
        }
      }
    }
  }
}`

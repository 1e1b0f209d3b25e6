// Package rm is the want/have reconciliation engine shared by every
// resource module: the field registry, the differ, the begin-marker command
// list, the mode dispatcher and the executor that ties them to a device.
package rm

import (
	"xrctl/pkg/canon"
	"xrctl/pkg/grammar"
	"xrctl/pkg/tree"
)

// Module describes one configuration domain. Modules are built once and
// never mutated by a run.
type Module struct {
	// Name is the resource module name, e.g. "bgp_address_family".
	Name string
	// Scope is the running-config section handed to the transport,
	// e.g. "router bgp".
	Scope string
	// Schema names the repeated entities and their identifying fields.
	Schema canon.Schema
	// Grammar parses running-config text into a tree.
	Grammar *grammar.Grammar
	// PostParse optionally reshapes the parsed tree before it is
	// canonicalized, for values the line rules cannot express directly.
	PostParse func(tree.Tree) tree.Tree
	// ArgSpec is the JSON schema of the module's config.
	ArgSpec string
	// ScopeKeys are kept in want when deleting (e.g. as_number).
	ScopeKeys []string
	// Comparator emits the commands for one run.
	Comparator func(r *Run) error
}

// Run is the state of one comparison. Want and Have are canonical and
// owned by the run.
type Run struct {
	Module   *Module
	Want     tree.Tree
	Have     tree.Tree
	Mode     Mode
	Commands *Commands
}

// Compare diffs the named fields of want and have into the run's commands.
func (r *Run) Compare(reg *Registry, names []string, want, have tree.Tree) error {
	return Compare(reg, names, want, have, r.Commands)
}

// AddCmd renders one field into the run's commands.
func (r *Run) AddCmd(reg *Registry, t tree.Tree, name string, negate bool) error {
	return AddCmd(reg, t, name, negate, r.Commands)
}

// Negates reports whether have-only entities must be torn down.
func (r *Run) Negates() bool {
	return r.Mode.Negates()
}

// Parse turns running-config text into canonical facts.
func (m *Module) Parse(text string) (tree.Tree, error) {
	if m.Grammar == nil {
		return nil, &Error{Kind: KindParse, Module: m.Name, Err: errNoGrammar}
	}
	parsed := m.Grammar.Parse(text)
	if m.PostParse != nil {
		parsed = m.PostParse(parsed)
	}
	parsed = canon.Canonicalize(parsed, m.Schema)
	canon.SortCollections(parsed, m.Schema)
	return parsed, nil
}

// Facts formats a canonical tree for output, with collections as lists.
func (m *Module) Facts(t tree.Tree) tree.Tree {
	return canon.Flatten(t, m.Schema)
}

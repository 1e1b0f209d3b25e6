package rm

import (
	"errors"

	"xrctl/pkg/canon"
	"xrctl/pkg/tree"
)

var errNoGrammar = errors.New("module has no grammar")

// GenerateCommands canonicalizes want and have, shapes them for mode and
// runs the module comparator. Both trees are consumed.
//
//   - gathered, parsed: no commands
//   - rendered: have is ignored
//   - merged: want is deep-merged over have
//   - replaced, overridden: compared as-is, the comparator applies the
//     absence policy
//   - deleted: want keeps only scope keys, have is narrowed to the
//     entities want names (all of have when want names none)
func (m *Module) GenerateCommands(want, have tree.Tree, mode Mode) ([]string, error) {
	switch mode {
	case Gathered, Parsed:
		return nil, nil
	}
	if m.Comparator == nil {
		return nil, &Error{Kind: KindRender, Module: m.Name, Err: errors.New("module has no comparator")}
	}

	want = canon.Canonicalize(want, m.Schema)
	if mode == Rendered {
		have = nil
	}
	have = canon.Canonicalize(have, m.Schema)

	switch mode {
	case Merged:
		want = tree.Merge(have, want)
	case Deleted:
		want, have = m.scopeDeleted(want, have)
	}

	run := &Run{Module: m, Want: want, Have: have, Mode: mode, Commands: NewCommands()}
	if err := m.Comparator(run); err != nil {
		return nil, withModule(err, m.Name)
	}
	return run.Commands.Lines(), nil
}

func (m *Module) scopeDeleted(want, have tree.Tree) (tree.Tree, tree.Tree) {
	scopedWant := tree.Tree{}
	for _, k := range m.ScopeKeys {
		if v, ok := want[k]; ok {
			scopedWant[k] = v
		}
	}

	named := false
	for attr, f := range m.Schema {
		if f.Keys != nil && want.Coll(attr).Len() > 0 {
			named = true
			break
		}
	}
	if !named {
		return scopedWant, have
	}

	scopedHave := tree.Tree{}
	for _, k := range m.ScopeKeys {
		if v, ok := have[k]; ok {
			scopedHave[k] = v
		}
	}
	for attr, f := range m.Schema {
		if f.Keys == nil {
			continue
		}
		wc := want.Coll(attr)
		if wc.Len() == 0 {
			continue
		}
		hc := have.Coll(attr)
		filtered := tree.NewCollection()
		for _, k := range wc.Keys() {
			if h, ok := hc.Get(k); ok {
				filtered.Put(k, h)
			}
		}
		scopedHave[attr] = filtered
	}
	return scopedWant, scopedHave
}

package rm

import "xrctl/pkg/tree"

// Compare walks names in order and appends to cmds whatever it takes to
// move have to want for each field:
//
//   - want set and different from have: render want. A boolean want of
//     false renders the negation.
//   - want unset and have set: render have negated. A boolean have of
//     false renders the positive command.
//   - otherwise nothing.
func Compare(reg *Registry, names []string, want, have tree.Tree, cmds *Commands) error {
	for _, name := range names {
		f, ok := reg.Field(name)
		if !ok {
			return Errorf(KindRender, "unknown field %q", name)
		}
		inw, wok := want.Get(f.path())
		inh, hok := have.Get(f.path())
		if f.Flag {
			inw = flagState(inw)
			inh = flagState(inh)
		}

		switch {
		case wok && !(hok && tree.Equal(inw, inh)):
			negate := false
			if b, isBool := inw.(bool); isBool {
				negate = !b
			}
			if err := AddCmd(reg, want, name, negate, cmds); err != nil {
				return err
			}
		case !wok && hok:
			negate := true
			if b, isBool := inh.(bool); isBool {
				negate = b
			}
			if err := AddCmd(reg, have, name, negate, cmds); err != nil {
				return err
			}
		}
	}
	return nil
}

// flagState reduces a flag subtree to its compared form: false when set is
// false, otherwise the options that are set, without set itself.
func flagState(v any) any {
	t, ok := v.(tree.Tree)
	if !ok {
		return v
	}
	if set, isBool := t["set"].(bool); isBool && !set {
		return false
	}
	out := tree.Tree{}
	for k, e := range t {
		if k == "set" {
			continue
		}
		switch e := e.(type) {
		case nil:
		case bool:
			if e {
				out[k] = true
			}
		case string:
			if e != "" {
				out[k] = e
			}
		case tree.Tree:
			if s := flagState(e); s != false {
				out[k] = s
			}
		default:
			out[k] = e
		}
	}
	return out
}

// AddCmd renders one field against t and appends the result.
func AddCmd(reg *Registry, t tree.Tree, name string, negate bool, cmds *Commands) error {
	lines, err := reg.Render(t, name, negate)
	if err != nil {
		return err
	}
	cmds.Add(lines...)
	return nil
}

// CompareAll runs Compare over every field of the registry in order.
func CompareAll(reg *Registry, want, have tree.Tree, cmds *Commands) error {
	return Compare(reg, reg.Names(), want, have, cmds)
}

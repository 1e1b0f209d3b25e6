// Package grammar parses device running-config text into a configuration
// tree using ordered regular-expression line rules.
//
// Each rule matches one trimmed line. A shared rule (router bgp, vrf,
// neighbor, interface, ...) opens a context: its captures are visible to
// every following line that is indented deeper than the line that opened
// it. Rule results are deep-merged into one tree, with repeated entities
// represented as dicts keyed by their raw identifiers.
package grammar

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"

	"xrctl/pkg/tree"
)

// Match holds the named captures of a rule plus the inherited context.
type Match map[string]string

// Get returns the capture, "" when absent.
func (m Match) Get(name string) string { return m[name] }

// Has reports whether the capture matched a non-empty string.
func (m Match) Has(name string) bool { return m[name] != "" }

// Int returns the capture as int, or nil when absent. Non-numeric captures
// are returned as strings.
func (m Match) Int(name string) any {
	s, ok := m[name]
	if !ok || s == "" {
		return nil
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	return s
}

// Str returns the capture, or nil when absent, for use in tree literals.
func (m Match) Str(name string) any {
	if s := m[name]; s != "" {
		return s
	}
	return nil
}

// Flag returns true when the capture matched, nil otherwise, so that absent
// flags do not show up as false in facts.
func (m Match) Flag(name string) any {
	if m[name] != "" {
		return true
	}
	return nil
}

// Rule is one line rule.
type Rule struct {
	Name   string
	Re     *regexp.Regexp
	Shared bool
	Build  func(m Match) tree.Tree
}

// Grammar is an ordered rule set.
type Grammar struct {
	rules []Rule
}

// New returns a grammar trying rules in the given order.
func New(rules ...Rule) *Grammar {
	return &Grammar{rules: rules}
}

// Rules returns the rule names in order.
func (g *Grammar) Rules() []string {
	names := make([]string, len(g.rules))
	for i, r := range g.rules {
		names[i] = r.Name
	}
	return names
}

type frame struct {
	indent int
	caps   Match
}

// Parse runs the grammar over text. Lines no rule matches are ignored.
func (g *Grammar) Parse(text string) tree.Tree {
	result := tree.Tree{}
	var stack []frame

	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		raw := strings.TrimRight(sc.Text(), " \t\r")
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "!") {
			continue
		}
		indent := len(raw) - len(strings.TrimLeft(raw, " \t"))
		for len(stack) > 0 && stack[len(stack)-1].indent >= indent {
			stack = stack[:len(stack)-1]
		}

		for _, r := range g.rules {
			sub := r.Re.FindStringSubmatch(line)
			if sub == nil {
				continue
			}
			m := Match{}
			for _, f := range stack {
				for k, v := range f.caps {
					m[k] = v
				}
			}
			own := Match{}
			for i, name := range r.Re.SubexpNames() {
				if name == "" || sub[i] == "" {
					continue
				}
				own[name] = sub[i]
				m[name] = sub[i]
			}
			if r.Shared {
				stack = append(stack, frame{indent: indent, caps: own})
			}
			if r.Build != nil {
				if frag := r.Build(m); len(frag) > 0 {
					mergeInto(result, frag)
				}
			}
			break
		}
	}
	return result
}

// mergeInto deep-merges src into dst in place. Subtrees of src are adopted
// as they are, so src must not be used afterwards.
func mergeInto(dst, src tree.Tree) {
	for k, v := range src {
		if v == nil {
			continue
		}
		if st, ok := v.(tree.Tree); ok {
			if dt, ok := dst[k].(tree.Tree); ok {
				mergeInto(dt, st)
				continue
			}
		}
		dst[k] = v
	}
}

// Nest wraps v under the given path: Nest(v, "a", "b") is {a: {b: v}}.
// Nil values and empty subtrees inside v are dropped.
func Nest(v tree.Tree, path ...string) tree.Tree {
	out := Compact(v)
	for i := len(path) - 1; i >= 0; i-- {
		out = tree.Tree{path[i]: out}
	}
	return out
}

// Compact drops nil values and empty subtrees, recursively.
func Compact(t tree.Tree) tree.Tree {
	out := tree.Tree{}
	for k, v := range t {
		switch val := v.(type) {
		case nil:
		case tree.Tree:
			if c := Compact(val); len(c) > 0 {
				out[k] = c
			}
		default:
			out[k] = v
		}
	}
	return out
}

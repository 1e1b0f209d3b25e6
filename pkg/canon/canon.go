// Package canon turns repeated configuration entities into keyed
// collections so that want and have can be compared independently of the
// order the entities were written or parsed in.
package canon

import (
	"fmt"
	"sort"

	"xrctl/pkg/tree"
)

// Field describes one attribute of a tree that holds repeated entities.
// Keys names the identifying fields of each entity, in key order. A Field
// without Keys is a plain container: it is descended into but not keyed.
type Field struct {
	Keys   []string
	Nested Schema
}

// Schema maps attribute names to their repeated-entity description.
type Schema map[string]Field

// KeyOf derives the entity key from the identifying fields. Absent fields
// contribute an empty part.
func KeyOf(entity tree.Tree, fields []string) tree.Key {
	parts := make([]string, len(fields))
	for i, f := range fields {
		if v, ok := entity.Get(f); ok {
			parts[i] = fmt.Sprint(v)
		}
	}
	return tree.NewKey(parts...)
}

// Canonicalize replaces every repeated attribute named by s with a
// *tree.Collection and recurses into nested schemas. The tree is modified
// in place and returned. Values are normalized first, so callers may pass
// trees decoded from YAML or JSON directly.
func Canonicalize(t tree.Tree, s Schema) tree.Tree {
	if t == nil {
		return tree.Tree{}
	}
	for k, v := range t {
		t[k] = tree.Normalize(v)
	}
	canonicalize(t, s)
	return t
}

func canonicalize(t tree.Tree, s Schema) {
	for attr, f := range s {
		v, ok := t[attr]
		if !ok || v == nil {
			continue
		}
		if f.Keys == nil {
			if sub, ok := v.(tree.Tree); ok {
				canonicalize(sub, f.Nested)
			}
			continue
		}
		c := toCollection(v, f.Keys)
		if f.Nested != nil {
			c.Each(func(_ tree.Key, e tree.Tree) {
				canonicalize(e, f.Nested)
			})
		}
		t[attr] = c
	}
}

func toCollection(v any, keys []string) *tree.Collection {
	switch val := v.(type) {
	case *tree.Collection:
		// re-key: entities may have been edited since the last pass
		out := tree.NewCollection()
		val.Each(func(_ tree.Key, e tree.Tree) {
			out.Put(KeyOf(e, keys), e)
		})
		return out
	case []any:
		out := tree.NewCollection()
		for _, e := range val {
			ent := entity(e, keys)
			out.Put(KeyOf(ent, keys), ent)
		}
		return out
	case tree.Tree:
		// dict of entities, as produced by grammars keyed on raw names
		out := tree.NewCollection()
		for _, name := range val.SortedKeys() {
			ent := entity(val[name], keys)
			out.Put(KeyOf(ent, keys), ent)
		}
		return out
	default:
		out := tree.NewCollection()
		ent := entity(val, keys)
		out.Put(KeyOf(ent, keys), ent)
		return out
	}
}

// entity coerces one element into a tree. Scalars become an entity whose
// first identifying field holds the scalar.
func entity(v any, keys []string) tree.Tree {
	if t, ok := v.(tree.Tree); ok {
		return t
	}
	if len(keys) == 0 {
		return tree.Tree{}
	}
	if v == nil {
		return tree.Tree{}
	}
	return tree.Tree{keys[0]: v}
}

// Flatten converts collections named by s back into lists, in collection
// order, recursing into nested schemas. It returns a new tree.
func Flatten(t tree.Tree, s Schema) tree.Tree {
	if t == nil {
		return nil
	}
	out := t.Clone()
	flatten(out, s)
	return out
}

func flatten(t tree.Tree, s Schema) {
	for attr, f := range s {
		v, ok := t[attr]
		if !ok || v == nil {
			continue
		}
		if f.Keys == nil {
			if sub, ok := v.(tree.Tree); ok {
				flatten(sub, f.Nested)
			}
			continue
		}
		c, ok := v.(*tree.Collection)
		if !ok {
			continue
		}
		list := make([]any, 0, c.Len())
		c.Each(func(_ tree.Key, e tree.Tree) {
			if f.Nested != nil {
				flatten(e, f.Nested)
			}
			list = append(list, e)
		})
		t[attr] = list
	}
}

// SortCollections reorders every collection named by s by key, recursively.
// Facts parsed from a device are sorted so output is stable.
func SortCollections(t tree.Tree, s Schema) {
	for attr, f := range s {
		v, ok := t[attr]
		if !ok || v == nil {
			continue
		}
		if f.Keys == nil {
			if sub, ok := v.(tree.Tree); ok {
				SortCollections(sub, f.Nested)
			}
			continue
		}
		c, ok := v.(*tree.Collection)
		if !ok {
			continue
		}
		keys := c.Keys()
		sort.SliceStable(keys, func(i, j int) bool {
			return lessKey(keys[i], keys[j])
		})
		sorted := tree.NewCollection()
		for _, k := range keys {
			e, _ := c.Get(k)
			if f.Nested != nil {
				SortCollections(e, f.Nested)
			}
			sorted.Put(k, e)
		}
		t[attr] = sorted
	}
}

func lessKey(a, b tree.Key) bool {
	pa, pb := a.Parts(), b.Parts()
	for i := 0; i < len(pa) && i < len(pb); i++ {
		if pa[i] != pb[i] {
			return naturalLess(pa[i], pb[i])
		}
	}
	return len(pa) < len(pb)
}

// naturalLess orders digit runs numerically so GigabitEthernet0/0/0/10
// sorts after GigabitEthernet0/0/0/2 and sequence 20 after sequence 3.
func naturalLess(a, b string) bool {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		ca, cb := a[i], b[j]
		if isDigit(ca) && isDigit(cb) {
			si := i
			for i < len(a) && isDigit(a[i]) {
				i++
			}
			sj := j
			for j < len(b) && isDigit(b[j]) {
				j++
			}
			na, nb := trimZeros(a[si:i]), trimZeros(b[sj:j])
			if len(na) != len(nb) {
				return len(na) < len(nb)
			}
			if na != nb {
				return na < nb
			}
			continue
		}
		if ca != cb {
			return ca < cb
		}
		i++
		j++
	}
	return len(a)-i < len(b)-j
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func trimZeros(s string) string {
	for len(s) > 1 && s[0] == '0' {
		s = s[1:]
	}
	return s
}

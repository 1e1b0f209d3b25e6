// Package tree holds the configuration tree shared by want, have and facts.
//
// A Tree is a nested map of attribute names to values. Values are scalars
// (string, int, bool), scalar lists ([]any), nested trees, or, once a tree
// has been canonicalized, keyed collections of entities (*Collection).
package tree

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// Tree is one level of a configuration tree.
type Tree map[string]any

// Get resolves a dotted path. Absent segments resolve to (nil, false),
// never to an error.
func (t Tree) Get(path string) (any, bool) {
	if t == nil {
		return nil, false
	}
	var cur any = t
	for _, seg := range strings.Split(path, ".") {
		m, ok := asTree(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

// Set stores v at the dotted path, creating intermediate trees.
func (t Tree) Set(path string, v any) {
	segs := strings.Split(path, ".")
	cur := t
	for _, seg := range segs[:len(segs)-1] {
		next, ok := asTree(cur[seg])
		if !ok {
			next = Tree{}
		}
		cur[seg] = next
		cur = next
	}
	cur[segs[len(segs)-1]] = v
}

// Sub returns the nested tree at key, or an empty tree.
func (t Tree) Sub(key string) Tree {
	if v, ok := t.Get(key); ok {
		if m, ok := asTree(v); ok {
			return m
		}
	}
	return Tree{}
}

// Coll returns the collection at key. A missing or non-collection value
// yields a new empty collection that is not attached to t.
func (t Tree) Coll(key string) *Collection {
	if v, ok := t.Get(key); ok {
		if c, ok := v.(*Collection); ok {
			return c
		}
	}
	return NewCollection()
}

// Str returns the value at path formatted as a string, "" when absent.
func (t Tree) Str(path string) string {
	v, ok := t.Get(path)
	if !ok {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	default:
		return fmt.Sprint(v)
	}
}

// Int returns the integer at path, 0 when absent or not numeric.
func (t Tree) Int(path string) int {
	v, ok := t.Get(path)
	if !ok {
		return 0
	}
	switch n := Normalize(v).(type) {
	case int:
		return n
	case string:
		i, _ := strconv.Atoi(n)
		return i
	}
	return 0
}

// Bool returns the boolean at path, false when absent.
func (t Tree) Bool(path string) bool {
	v, ok := t.Get(path)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Has reports whether path resolves to a non-nil value.
func (t Tree) Has(path string) bool {
	_, ok := t.Get(path)
	return ok
}

// Clone returns a deep copy of t.
func (t Tree) Clone() Tree {
	if t == nil {
		return nil
	}
	out := make(Tree, len(t))
	for k, v := range t {
		out[k] = Copy(v)
	}
	return out
}

// Without returns a shallow copy of t without the named keys.
func (t Tree) Without(keys ...string) Tree {
	out := make(Tree, len(t))
	for k, v := range t {
		out[k] = v
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// With returns a shallow copy of t with kv pairs added. Nil values are skipped.
func (t Tree) With(kv Tree) Tree {
	out := make(Tree, len(t)+len(kv))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range kv {
		if v != nil {
			out[k] = v
		}
	}
	return out
}

// SortedKeys returns the keys of t in lexical order.
func (t Tree) SortedKeys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Copy deep-copies any tree value.
func Copy(v any) any {
	switch val := v.(type) {
	case Tree:
		return val.Clone()
	case map[string]any:
		return Tree(val).Clone()
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = Copy(e)
		}
		return out
	case *Collection:
		return val.Clone()
	default:
		return val
	}
}

// Equal reports structural equality. Nil and empty containers are equal.
func Equal(a, b any) bool {
	return cmp.Equal(Normalize(a), Normalize(b), cmpopts.EquateEmpty())
}

// Plain converts t into nested map[string]any and []any values only, with
// collections flattened to lists in order. Template engines that type-assert
// on map[string]interface{} need this form.
func Plain(v any) any {
	switch val := v.(type) {
	case Tree:
		out := make(map[string]any, len(val))
		for k, e := range val {
			out[k] = Plain(e)
		}
		return out
	case map[string]any:
		return Plain(Tree(val))
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = Plain(e)
		}
		return out
	case *Collection:
		out := make([]any, 0, val.Len())
		val.Each(func(_ Key, e Tree) {
			out = append(out, Plain(e))
		})
		return out
	default:
		return val
	}
}

// Normalize converts decoded values into the canonical tree representation:
// maps become Tree (including yaml.v2 map[interface{}]interface{}), integral
// numbers become int. It returns a new value and leaves v untouched.
func Normalize(v any) any {
	switch val := v.(type) {
	case Tree:
		out := make(Tree, len(val))
		for k, e := range val {
			out[k] = Normalize(e)
		}
		return out
	case map[string]any:
		return Normalize(Tree(val))
	case map[any]any:
		out := make(Tree, len(val))
		for k, e := range val {
			out[fmt.Sprintf("%v", k)] = Normalize(e)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = Normalize(e)
		}
		return out
	case *Collection:
		out := NewCollection()
		val.Each(func(k Key, e Tree) {
			out.Put(k, Normalize(e).(Tree))
		})
		return out
	case int8:
		return int(val)
	case int16:
		return int(val)
	case int32:
		return int(val)
	case int64:
		return int(val)
	case uint:
		return int(val)
	case uint8:
		return int(val)
	case uint16:
		return int(val)
	case uint32:
		return int(val)
	case uint64:
		return int(val)
	case float32:
		if float32(int(val)) == val {
			return int(val)
		}
		return float64(val)
	case float64:
		if float64(int(val)) == val {
			return int(val)
		}
		return val
	default:
		return val
	}
}

func asTree(v any) (Tree, bool) {
	switch m := v.(type) {
	case Tree:
		return m, m != nil
	case map[string]any:
		return Tree(m), m != nil
	}
	return nil, false
}

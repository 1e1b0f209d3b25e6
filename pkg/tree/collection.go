package tree

import (
	"fmt"
	"strings"
)

// MaxKeyParts bounds the number of identifying fields in a Key.
const MaxKeyParts = 4

// Key identifies one entity inside a Collection. It is a comparable tuple,
// so values containing separator characters never collide.
type Key struct {
	parts [MaxKeyParts]string
	n     int
}

// NewKey builds a key from its parts. It panics when given more than
// MaxKeyParts parts; key layouts are fixed per module.
func NewKey(parts ...string) Key {
	if len(parts) > MaxKeyParts {
		panic(fmt.Sprintf("tree: key with %d parts exceeds %d", len(parts), MaxKeyParts))
	}
	var k Key
	copy(k.parts[:], parts)
	k.n = len(parts)
	return k
}

// Parts returns the key parts in order.
func (k Key) Parts() []string {
	return append([]string(nil), k.parts[:k.n]...)
}

// Part returns the i-th part, "" when out of range.
func (k Key) Part(i int) string {
	if i < 0 || i >= k.n {
		return ""
	}
	return k.parts[i]
}

func (k Key) String() string {
	return strings.Join(k.parts[:k.n], "|")
}

// Collection is an insertion-ordered map of Key to entity Tree.
type Collection struct {
	order []Key
	items map[Key]Tree
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{items: map[Key]Tree{}}
}

// Put stores an entity. Storing an existing key overwrites the entity in
// place and keeps its original position.
func (c *Collection) Put(k Key, t Tree) {
	if c.items == nil {
		c.items = map[Key]Tree{}
	}
	if _, ok := c.items[k]; !ok {
		c.order = append(c.order, k)
	}
	c.items[k] = t
}

// Get returns the entity stored at k.
func (c *Collection) Get(k Key) (Tree, bool) {
	if c == nil {
		return nil, false
	}
	t, ok := c.items[k]
	return t, ok
}

// Has reports whether k is present.
func (c *Collection) Has(k Key) bool {
	_, ok := c.Get(k)
	return ok
}

// Pop removes and returns the entity at k, or an empty tree if absent.
func (c *Collection) Pop(k Key) Tree {
	t, ok := c.Get(k)
	if !ok {
		return Tree{}
	}
	c.Delete(k)
	return t
}

// Delete removes k.
func (c *Collection) Delete(k Key) {
	if c == nil {
		return
	}
	if _, ok := c.items[k]; !ok {
		return
	}
	delete(c.items, k)
	for i, o := range c.order {
		if o == k {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion order.
func (c *Collection) Keys() []Key {
	if c == nil {
		return nil
	}
	return append([]Key(nil), c.order...)
}

// Len returns the number of entities.
func (c *Collection) Len() int {
	if c == nil {
		return 0
	}
	return len(c.order)
}

// Each calls fn for every entity in order.
func (c *Collection) Each(fn func(Key, Tree)) {
	if c == nil {
		return
	}
	for _, k := range c.order {
		fn(k, c.items[k])
	}
}

// Clone deep-copies the collection.
func (c *Collection) Clone() *Collection {
	out := NewCollection()
	c.Each(func(k Key, t Tree) {
		out.Put(k, t.Clone())
	})
	return out
}

// Equal reports whether both collections hold the same keys with equal
// entities. Order is not significant.
func (c *Collection) Equal(o *Collection) bool {
	if c.Len() != o.Len() {
		return false
	}
	for _, k := range c.Keys() {
		ot, ok := o.Get(k)
		if !ok {
			return false
		}
		ct, _ := c.Get(k)
		if !Equal(ct, ot) {
			return false
		}
	}
	return true
}

func (c *Collection) String() string {
	var b strings.Builder
	b.WriteString("{")
	for i, k := range c.Keys() {
		if i > 0 {
			b.WriteString(" ")
		}
		fmt.Fprintf(&b, "%s:%v", k, c.items[k])
	}
	b.WriteString("}")
	return b.String()
}

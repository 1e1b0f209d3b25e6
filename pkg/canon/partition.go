package canon

import "xrctl/pkg/tree"

// Pair is one want entity and its have counterpart. Have is an empty tree
// when the entity does not exist in have, and InHave is false.
type Pair struct {
	Key    tree.Key
	Want   tree.Tree
	Have   tree.Tree
	InHave bool
}

// Entry is a single keyed entity.
type Entry struct {
	Key  tree.Key
	Tree tree.Tree
}

// Partition splits want and have into the entities to compare pairwise
// (every want key, in want order) and the entities that only exist in have
// (in have order). Neither collection is modified.
func Partition(want, have *tree.Collection) (matched []Pair, haveOnly []Entry) {
	want.Each(func(k tree.Key, w tree.Tree) {
		h, ok := have.Get(k)
		if !ok {
			h = tree.Tree{}
		}
		matched = append(matched, Pair{Key: k, Want: w, Have: h, InHave: ok})
	})
	have.Each(func(k tree.Key, h tree.Tree) {
		if !want.Has(k) {
			haveOnly = append(haveOnly, Entry{Key: k, Tree: h})
		}
	})
	return matched, haveOnly
}

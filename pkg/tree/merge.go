package tree

// Merge deep-merges override onto base and returns a new tree. Neither
// input is modified.
//
// Merge rules:
//   - Simple values and scalar lists: override replaces base
//   - Trees: recursively merged, override keys win
//   - Collections: entities matched by key are merged recursively, entities
//     only in base keep their position, new override entities are appended
func Merge(base, override Tree) Tree {
	if base == nil {
		return override.Clone()
	}
	if override == nil {
		return base.Clone()
	}

	result := base.Clone()
	for key, overrideVal := range override {
		baseVal, exists := result[key]
		if !exists || overrideVal == nil {
			if overrideVal != nil {
				result[key] = Copy(overrideVal)
			}
			continue
		}

		switch ov := overrideVal.(type) {
		case *Collection:
			if bc, ok := baseVal.(*Collection); ok {
				result[key] = mergeCollections(bc, ov)
			} else {
				result[key] = ov.Clone()
			}
		default:
			om, oIsTree := asTree(overrideVal)
			bm, bIsTree := asTree(baseVal)
			if oIsTree && bIsTree {
				result[key] = Merge(bm, om)
			} else {
				result[key] = Copy(overrideVal)
			}
		}
	}
	return result
}

func mergeCollections(base, override *Collection) *Collection {
	out := base.Clone()
	override.Each(func(k Key, ot Tree) {
		if bt, ok := out.Get(k); ok {
			out.Put(k, Merge(bt, ot))
			return
		}
		out.Put(k, ot.Clone())
	})
	return out
}

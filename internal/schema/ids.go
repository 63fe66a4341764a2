package schema

// AddIDs walks fields depth-first and assigns a fresh, strictly
// increasing id (starting from startingFrom+1) to every field whose ID is
// still zero (and isn't the reserved implicit "id" field, which always
// keeps ID 0). The starting counter must already account for every id
// ever assigned to this table, including removed fields' slots — callers
// derive it from the table's "<N>.schema" marker (spec.md §4.3, I3).
func AddIDs(fields Schema, startingFrom int) int {
	next := startingFrom
	var walkAssign func(Schema)
	walkAssign = func(fs Schema) {
		for _, f := range fs {
			if f.Key != "id" && f.ID == 0 {
				next++
				f.ID = next
			}
			if len(f.Children) > 0 {
				walkAssign(f.Children)
			}
		}
	}
	walkAssign(fields)
	return next
}

// MaxID returns the highest field id anywhere in the tree (0 if empty).
func MaxID(fields Schema) int {
	max := 0
	var walkMax func(Schema)
	walkMax = func(fs Schema) {
		for _, f := range fs {
			if f.ID > max {
				max = f.ID
			}
			if len(f.Children) > 0 {
				walkMax(f.Children)
			}
		}
	}
	walkMax(fields)
	return max
}

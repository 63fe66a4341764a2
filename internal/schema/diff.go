package schema

import "strings"

// renameScoreThreshold and renameSharedTokenMinLen mirror the thresholds
// the teacher's column-rename detector uses (internal/diff/diff_column_rename.go):
// a high bar on attribute similarity plus at least one corroborating
// signal before two fields are treated as the same field renamed, rather
// than a drop+add.
const (
	renameScoreThreshold  = 3
	renameSharedTokenMinLen = 3
)

// RenamedPair links an old-schema leaf to the new-schema leaf that
// replaced it when a field genuinely kept its identity but changed key.
type RenamedPair struct {
	OldPath string
	NewPath string
	OldID   int
	Score   int
}

// DiffForMigration compares an old and new schema leaf-set (already
// flattened) for setTableSchema: leaves present under the same key in
// both keep their old id; leaves only in the new set are matched against
// leaves only in the old set by similarity score, and promoted to a
// rename (carrying the old id, and triggering a column-file rename)
// when the score clears the threshold and at least one piece of
// corroborating evidence (a shared name token) is present.
func DiffForMigration(oldFields, newFields []PathField) (renamed []RenamedPair, added, removed []PathField) {
	oldByPath := map[string]PathField{}
	for _, p := range oldFields {
		oldByPath[p.Path] = p
	}
	newByPath := map[string]PathField{}
	for _, p := range newFields {
		newByPath[p.Path] = p
	}

	var onlyOld, onlyNew []PathField
	for _, p := range oldFields {
		if _, ok := newByPath[p.Path]; !ok {
			onlyOld = append(onlyOld, p)
		}
	}
	for _, p := range newFields {
		if _, ok := oldByPath[p.Path]; !ok {
			onlyNew = append(onlyNew, p)
		}
	}

	usedNew := map[int]bool{}
	for _, o := range onlyOld {
		bestIdx, bestScore := -1, -1
		for j, n := range onlyNew {
			if usedNew[j] {
				continue
			}
			s := similarity(o, n)
			if s > bestScore {
				bestScore, bestIdx = s, j
			}
		}
		if bestIdx >= 0 && bestScore >= renameScoreThreshold && hasSharedToken(o.Path, onlyNew[bestIdx].Path) {
			usedNew[bestIdx] = true
			renamed = append(renamed, RenamedPair{
				OldPath: o.Path, NewPath: onlyNew[bestIdx].Path, OldID: o.Field.ID, Score: bestScore,
			})
			continue
		}
		removed = append(removed, o)
	}
	for j, n := range onlyNew {
		if !usedNew[j] {
			added = append(added, n)
		}
	}
	return renamed, added, removed
}

func similarity(o, n PathField) int {
	score := 0
	if len(o.Field.Type) == len(n.Field.Type) {
		same := true
		for i := range o.Field.Type {
			if o.Field.Type[i] != n.Field.Type[i] {
				same = false
				break
			}
		}
		if same {
			score += 2
		}
	}
	if o.Field.Required == n.Field.Required {
		score++
	}
	if o.Field.Unique == n.Field.Unique {
		score++
	}
	if o.Field.Table == n.Field.Table && o.Field.Table != "" {
		score++
	}
	return score
}

func hasSharedToken(a, b string) bool {
	split := func(s string) []string {
		f := func(r rune) bool {
			return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
		}
		parts := strings.FieldsFunc(strings.ToLower(s), f)
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if len(p) >= renameSharedTokenMinLen {
				out = append(out, p)
			}
		}
		return out
	}
	ta, tb := split(a), split(b)
	set := map[string]bool{}
	for _, t := range ta {
		set[t] = true
	}
	for _, t := range tb {
		if set[t] {
			return true
		}
	}
	return false
}

package query

import (
	"sort"

	"inibase/internal/codec"
	"inibase/internal/icrypto"
	"inibase/internal/ierr"
	"inibase/internal/schema"
)

// PageInfo mirrors spec.md §4.7 step 7's pagination metadata, reported
// per table touched by a Get call.
type PageInfo struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// Options carries the page/perPage/columns triple spec.md §6 defines;
// Sort is handled by the sortpipe package before Get is reached.
type Options struct {
	Page    int
	PerPage int
	Columns []string
}

const defaultMaxJoinDepth = 5

// Get implements spec.md §4.7: resolve where to a line-number set (or
// take it as already resolved), walk the (possibly column-filtered)
// schema, and assemble one map[string]any per matching line.
func Get(r *Resolver, resolver TableResolver, where any, opts Options, maxJoinDepth int) ([]map[string]any, PageInfo, error) {
	if opts.Page <= 0 {
		opts.Page = 1
	}
	if opts.PerPage <= 0 {
		opts.PerPage = 15
	}
	if maxJoinDepth <= 0 {
		maxJoinDepth = defaultMaxJoinDepth
	}

	total, err := r.Total()
	if err != nil {
		return nil, PageInfo{}, err
	}
	if total == 0 {
		return nil, PageInfo{Page: opts.Page, PerPage: opts.PerPage}, nil
	}

	lineNumbers, authoritative, err := resolveWhere(r, where, opts)
	if err != nil {
		return nil, PageInfo{}, err
	}
	reportedTotal := total
	if authoritative {
		reportedTotal = len(lineNumbers)
	}

	fields := schema.Filter(r.Schema, opts.Columns)
	visited := map[string]bool{}
	records, err := assembleSchema(r, resolver, fields, "", lineNumbers, visited, maxJoinDepth)
	if err != nil {
		return nil, PageInfo{}, err
	}

	out := make([]map[string]any, 0, len(lineNumbers))
	lines := sortedLines(lineNumbers)
	for _, ln := range lines {
		rec, ok := records[ln]
		if !ok {
			continue
		}
		out = append(out, rec)
	}

	pi := PageInfo{
		Page:       opts.Page,
		PerPage:    opts.PerPage,
		Total:      reportedTotal,
		TotalPages: ceilDiv(reportedTotal, opts.PerPage),
	}
	return out, pi, nil
}

// AssembleLines assembles full, column-filtered, join-aware records for
// exactly the given line numbers, in the given order (duplicates
// preserved) — used by the sort pipeline, which has already computed
// its own ordering and page slice and only needs the record bodies.
func AssembleLines(r *Resolver, resolver TableResolver, lines []int, columns []string, maxJoinDepth int) ([]map[string]any, error) {
	if maxJoinDepth <= 0 {
		maxJoinDepth = defaultMaxJoinDepth
	}
	set := map[int]bool{}
	for _, ln := range lines {
		set[ln] = true
	}
	fields := schema.Filter(r.Schema, columns)
	records, err := assembleSchema(r, resolver, fields, "", set, map[string]bool{}, maxJoinDepth)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(lines))
	for _, ln := range lines {
		if rec, ok := records[ln]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// ResolveLines exposes resolveWhere for callers outside this package
// (the mutate pipeline's put/delete need the same where-to-line-numbers
// resolution Get uses, without assembling full records).
func ResolveLines(r *Resolver, where any, opts Options) (map[int]bool, error) {
	lines, _, err := resolveWhere(r, where, opts)
	return lines, err
}

// resolveWhere implements step 4 of spec.md §4.7: absent -> page
// window; numeric(s) -> literal line numbers (used by recursive join
// lookups); opaque id(s) -> resolved via id.txt; object -> §4.6.
// authoritative reports whether the resulting count is the table's true
// total (true whenever where narrowed the result, false for the plain
// page-window case where total comes from the pagination marker).
func resolveWhere(r *Resolver, where any, opts Options) (map[int]bool, bool, error) {
	switch w := where.(type) {
	case nil:
		start := (opts.Page-1)*opts.PerPage + 1
		end := opts.Page * opts.PerPage
		total, err := r.Total()
		if err != nil {
			return nil, false, err
		}
		out := map[int]bool{}
		for ln := start; ln <= end && ln <= total; ln++ {
			out[ln] = true
		}
		return out, false, nil
	case int:
		return map[int]bool{w: true}, true, nil
	case int64:
		return map[int]bool{int(w): true}, true, nil
	case []int:
		out := map[int]bool{}
		for _, n := range w {
			out[n] = true
		}
		return out, true, nil
	case string:
		ids := r.DecodeOpaqueIDs([]string{w})
		out, err := r.linesForIDs(ids)
		return out, true, err
	case []string:
		ids := r.DecodeOpaqueIDs(w)
		out, err := r.linesForIDs(ids)
		return out, true, err
	case map[string]any:
		out, err := Evaluate(r, w)
		return out, true, err
	default:
		return nil, false, ierr.InvalidParametersErr("unrecognized where shape")
	}
}

func assembleSchema(r *Resolver, resolver TableResolver, fields schema.Schema, prefix string, lineNumbers map[int]bool, visited map[string]bool, maxJoinDepth int) (map[int]map[string]any, error) {
	out := map[int]map[string]any{}
	for ln := range lineNumbers {
		out[ln] = map[string]any{}
	}
	for _, f := range fields {
		path := prefix + f.Key
		switch {
		case f.IsObject():
			sub, err := assembleSchema(r, resolver, f.Children, path+".", lineNumbers, visited, maxJoinDepth)
			if err != nil {
				return nil, err
			}
			for ln, rec := range sub {
				if allNil(rec) {
					continue
				}
				out[ln][f.Key] = rec
			}
		case f.IsArrayOfObjects():
			arrays, err := assembleArrayOfObjects(r, resolver, f, path+".*.", lineNumbers, visited, maxJoinDepth)
			if err != nil {
				return nil, err
			}
			for ln, items := range arrays {
				out[ln][f.Key] = items
			}
		case f.SoleType() == codec.TTable && !f.IsArray():
			if err := spliceTableField(r, resolver, f, path, lineNumbers, out, visited, maxJoinDepth); err != nil {
				return nil, err
			}
		default:
			ft, childType := valueType(f)
			values, _, err := r.Store.Get(r.columnPath(path, f), lineNumbers, false)
			if err != nil {
				return nil, err
			}
			for ln, raw := range values {
				out[ln][f.Key] = codec.Decode(raw, ft, childType, r.Salt)
			}
		}
	}
	return out, nil
}

// assembleArrayOfObjects zips the per-child column arrays for an
// array-of-objects field back into []map[string]any per record, per
// spec.md §4.7 step 5's "array of objects" handler.
func assembleArrayOfObjects(r *Resolver, resolver TableResolver, f *schema.Field, prefix string, lineNumbers map[int]bool, visited map[string]bool, maxJoinDepth int) (map[int][]map[string]any, error) {
	childValues := map[string]map[int][]any{}
	for _, child := range f.Children {
		path := prefix + child.Key
		ft, childType := valueType(child)
		raws, _, err := r.Store.Get(r.columnPath(path, child), lineNumbers, false)
		if err != nil {
			return nil, err
		}
		perLine := map[int][]any{}
		for ln, raw := range raws {
			decoded := codec.Decode(raw, codec.TArray, ft, r.Salt)
			arr, _ := decoded.([]any)
			perLine[ln] = arr
			_ = childType
		}
		childValues[child.Key] = perLine
	}

	out := map[int][]map[string]any{}
	for ln := range lineNumbers {
		length := 0
		for _, child := range f.Children {
			if arr := childValues[child.Key][ln]; len(arr) > length {
				length = len(arr)
			}
		}
		items := make([]map[string]any, 0, length)
		for idx := 0; idx < length; idx++ {
			item := map[string]any{}
			for _, child := range f.Children {
				arr := childValues[child.Key][ln]
				if idx < len(arr) {
					item[child.Key] = arr[idx]
				} else {
					item[child.Key] = nil
				}
			}
			items = append(items, item)
		}
		out[ln] = items
	}
	return out, nil
}

// spliceTableField implements the "table" handler of spec.md §4.7 step
// 5: read the owning column's foreign raw ids, fetch those records from
// the foreign table (recursively, join-depth capped and cycle-checked),
// and splice each into its owning line.
func spliceTableField(r *Resolver, resolver TableResolver, f *schema.Field, path string, lineNumbers map[int]bool, out map[int]map[string]any, visited map[string]bool, maxJoinDepth int) error {
	if resolver == nil || f.Table == "" {
		return nil
	}
	if maxJoinDepth <= 0 {
		return nil
	}
	cycleKey := f.Table
	if visited[cycleKey] {
		return nil
	}

	rawValues, _, err := r.Store.Get(r.columnPath(path, f), lineNumbers, false)
	if err != nil {
		return err
	}
	perLineID := map[int]int64{}
	idSet := map[int64]bool{}
	for ln, raw := range rawValues {
		n, ok := codec.DecodeRawInt(raw)
		if !ok {
			continue
		}
		perLineID[ln] = n
		idSet[n] = true
	}
	if len(idSet) == 0 {
		return nil
	}

	foreign, err := resolver.Resolve(f.Table)
	if err != nil {
		return err
	}
	ids := make([]int, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, int(id))
	}

	childVisited := map[string]bool{}
	for k := range visited {
		childVisited[k] = true
	}
	childVisited[cycleKey] = true

	foreignLines, _, err := resolveWhere(foreign, ids, Options{Page: 1, PerPage: len(ids)})
	if err != nil {
		return err
	}
	foreignRecords, err := assembleSchema(foreign, resolver, foreign.Schema, "", foreignLines, childVisited, maxJoinDepth-1)
	if err != nil {
		return err
	}
	byID := map[int64]map[string]any{}
	for _, rec := range foreignRecords {
		idRaw, _ := rec["id"]
		if idRaw == nil {
			continue
		}
		if opaque, ok := idRaw.(string); ok {
			if n, ok := icrypto.DecodeID(opaque, foreign.Salt); ok {
				byID[n] = rec
			}
		}
	}
	for ln, id := range perLineID {
		if rec, ok := byID[id]; ok {
			out[ln][f.Key] = rec
		}
	}
	return nil
}

func allNil(m map[string]any) bool {
	for _, v := range m {
		if v != nil {
			return false
		}
	}
	return true
}

func sortedLines(set map[int]bool) []int {
	out := make([]int, 0, len(set))
	for ln := range set {
		out = append(out, ln)
	}
	sort.Ints(out)
	return out
}

func ceilDiv(total, perPage int) int {
	if perPage <= 0 {
		return 0
	}
	if total == 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

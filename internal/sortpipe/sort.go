// Package sortpipe implements the external-merge-sort-equivalent
// pipeline of spec.md §4.8: an implicit "paste" of the id column and
// every sort-key column, a stable sort by typed comparator, and an
// optional per-sort-spec cache under .cache/.
package sortpipe

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"inibase/internal/codec"
	"inibase/internal/query"
	"inibase/internal/schema"
)

// Key is one sort column and its direction.
type Key struct {
	Path string
	Desc bool
}

// ParseSpec accepts every shape spec.md §4.8 allows for a sort spec:
// a bare column name, a list of column names, or a {col: direction}
// map where direction is "asc"/"desc"/1/-1.
func ParseSpec(spec any) []Key {
	switch s := spec.(type) {
	case string:
		return []Key{{Path: s}}
	case []string:
		out := make([]Key, len(s))
		for i, c := range s {
			out[i] = Key{Path: c}
		}
		return out
	case []any:
		out := make([]Key, 0, len(s))
		for _, c := range s {
			switch cs := c.(type) {
			case string:
				out = append(out, Key{Path: cs})
			case []any:
				if len(cs) != 2 {
					continue
				}
				path, ok := cs[0].(string)
				if !ok {
					continue
				}
				out = append(out, Key{Path: path, Desc: isDesc(cs[1])})
			}
		}
		return out
	case map[string]any:
		out := make([]Key, 0, len(s))
		for col, dir := range s {
			out = append(out, Key{Path: col, Desc: isDesc(dir)})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
		return out
	default:
		return nil
	}
}

func isDesc(dir any) bool {
	switch d := dir.(type) {
	case string:
		return strings.EqualFold(d, "desc") || d == "-1"
	case float64:
		return d < 0
	case int:
		return d < 0
	default:
		return false
	}
}

// SpecHash derives the cache-file name a given sort spec (plus any
// restricting where line-set) maps to.
func SpecHash(keys []Key, restrictedLines []int) string {
	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s:%v;", k.Path, k.Desc)
	}
	if len(restrictedLines) > 0 {
		sorted := append([]int(nil), restrictedLines...)
		sort.Ints(sorted)
		for _, ln := range sorted {
			fmt.Fprintf(&b, "%d,", ln)
		}
	}
	sum := sha1.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

type joinedRow struct {
	Line int
	Vals []any
}

// Run implements spec.md §4.8: resolve where (if any) to a restricting
// line set, build the joined id+sort-key projection, stable-sort it,
// filter, paginate, and assemble full records for the surviving lines.
// When cacheEnabled is true, the full sorted
// line order is cached under .cache/<hash> and reused by subsequent
// calls with the same spec and restriction.
func Run(r *query.Resolver, resolver query.TableResolver, where any, spec any, opts query.Options, cacheEnabled bool, maxJoinDepth int) ([]map[string]any, query.PageInfo, error) {
	keys := ParseSpec(spec)
	if len(keys) == 0 {
		return nil, query.PageInfo{}, fmt.Errorf("sortpipe: empty sort spec")
	}
	if opts.Page <= 0 {
		opts.Page = 1
	}
	if opts.PerPage <= 0 {
		opts.PerPage = 15
	}

	var restrict map[int]bool
	if where != nil {
		var err error
		restrict, err = query.ResolveLines(r, where, query.Options{})
		if err != nil {
			return nil, query.PageInfo{}, err
		}
	}

	var restrictedList []int
	for ln := range restrict {
		restrictedList = append(restrictedList, ln)
	}
	hash := SpecHash(keys, restrictedList)

	order, total, err := loadOrComputeOrder(r, keys, restrict, cacheEnabled, hash)
	if err != nil {
		return nil, query.PageInfo{}, err
	}

	start := (opts.Page - 1) * opts.PerPage
	end := start + opts.PerPage
	if start > len(order) {
		start = len(order)
	}
	if end > len(order) {
		end = len(order)
	}
	pageLines := order[start:end]

	records, err := query.AssembleLines(r, resolver, pageLines, opts.Columns, maxJoinDepth)
	if err != nil {
		return nil, query.PageInfo{}, err
	}

	pi := query.PageInfo{
		Page:       opts.Page,
		PerPage:    opts.PerPage,
		Total:      total,
		TotalPages: (total + opts.PerPage - 1) / opts.PerPage,
	}
	return records, pi, nil
}

func loadOrComputeOrder(r *query.Resolver, keys []Key, restrict map[int]bool, cacheEnabled bool, hash string) ([]int, int, error) {
	cachePath := r.Store.CacheDir() + "/" + hash
	if cacheEnabled {
		if order, ok := readCache(cachePath); ok {
			return order, len(order), nil
		}
	}
	rows, err := buildRows(r, keys)
	if err != nil {
		return nil, 0, err
	}
	if restrict != nil {
		filtered := rows[:0]
		for _, row := range rows {
			if restrict[row.Line] {
				filtered = append(filtered, row)
			}
		}
		rows = filtered
	}
	sortRows(rows, keys)
	order := make([]int, len(rows))
	for i, row := range rows {
		order[i] = row.Line
	}
	if cacheEnabled {
		_ = writeCache(cachePath, order)
	}
	return order, len(order), nil
}

func buildRows(r *query.Resolver, keys []Key) ([]joinedRow, error) {
	total, err := r.Total()
	if err != nil {
		return nil, err
	}
	colValues := make([][]any, len(keys))
	for ki, k := range keys {
		f := schema.GetField(r.Schema, k.Path)
		if f == nil {
			colValues[ki] = make([]any, total+1)
			continue
		}
		ft, childType := keyFieldType(f)
		path := r.Store.ColumnPath(schema.ColumnFileName(k.Path, r.Store.Compressed))
		raws, _, err := r.Store.Get(path, nil, true)
		if err != nil {
			return nil, err
		}
		vals := make([]any, total+1)
		for ln, raw := range raws {
			if ln <= total {
				vals[ln] = codec.Decode(raw, ft, childType, r.Salt)
			}
		}
		colValues[ki] = vals
	}

	rows := make([]joinedRow, total)
	for ln := 1; ln <= total; ln++ {
		vals := make([]any, len(keys))
		for ki := range keys {
			vals[ki] = colValues[ki][ln]
		}
		rows[ln-1] = joinedRow{Line: ln, Vals: vals}
	}
	return rows, nil
}

func keyFieldType(f *schema.Field) (codec.FieldType, codec.FieldType) {
	if f.IsArray() {
		return codec.TArray, f.ChildType()
	}
	return f.SoleType(), ""
}

func sortRows(rows []joinedRow, keys []Key) {
	sort.SliceStable(rows, func(i, j int) bool {
		for ki := range keys {
			a, b := rows[i].Vals[ki], rows[j].Vals[ki]
			c := compare(a, b)
			if c == 0 {
				continue
			}
			if keys[ki].Desc && a != nil && b != nil {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// compare orders two decoded leaf values: numerically when both parse
// as numbers (covers id/number/date-as-unix-like strings), lexically
// otherwise. nils sort last regardless of direction.
func compare(a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return 1
	}
	if b == nil {
		return -1
	}
	an, aok := asFloat(a)
	bn, bok := asFloat(b)
	if aok && bok {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		default:
			return 0
		}
	}
	as, bs := fmt.Sprint(a), fmt.Sprint(b)
	return strings.Compare(as, bs)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func readCache(path string) ([]int, bool) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	parts := strings.Split(strings.TrimSpace(string(b)), ",")
	if len(parts) == 1 && parts[0] == "" {
		return []int{}, true
	}
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}

func writeCache(path string, order []int) error {
	parts := make([]string, len(order))
	for i, n := range order {
		parts[i] = strconv.Itoa(n)
	}
	return os.WriteFile(path, []byte(strings.Join(parts, ",")), 0o644)
}

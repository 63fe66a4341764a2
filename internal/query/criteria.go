package query

import (
	"inibase/internal/codec"
	"inibase/internal/ierr"
	"inibase/internal/schema"
	"inibase/internal/search"
)

// Evaluate walks a criteria tree (spec.md §4.6) and returns the set of
// line numbers matching every key at this level (an implicit AND over
// sibling keys, the same combination an explicit {and: {...}} wrapper
// requests). Nested {and:{...}} / {or:{...}} groups recurse; a plain
// leaf key is handled by evaluateLeaf.
func Evaluate(r *Resolver, node map[string]any) (map[int]bool, error) {
	if len(node) == 0 {
		return map[int]bool{}, nil
	}
	var sets []map[int]bool
	for key, val := range node {
		var (
			set map[int]bool
			err error
		)
		switch key {
		case "and":
			inner, ok := val.(map[string]any)
			if !ok {
				return nil, ierr.InvalidParametersErr("and clause must be an object")
			}
			set, err = Evaluate(r, inner)
		case "or":
			inner, ok := val.(map[string]any)
			if !ok {
				return nil, ierr.InvalidParametersErr("or clause must be an object")
			}
			set, err = evaluateOr(r, inner)
		default:
			set, err = evaluateLeaf(r, key, val)
		}
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	return intersectAll(sets), nil
}

func evaluateOr(r *Resolver, node map[string]any) (map[int]bool, error) {
	if len(node) == 0 {
		return map[int]bool{}, nil
	}
	var sets []map[int]bool
	for key, val := range node {
		var (
			set map[int]bool
			err error
		)
		switch key {
		case "and":
			inner, ok := val.(map[string]any)
			if !ok {
				return nil, ierr.InvalidParametersErr("and clause must be an object")
			}
			set, err = Evaluate(r, inner)
		case "or":
			inner, ok := val.(map[string]any)
			if !ok {
				return nil, ierr.InvalidParametersErr("or clause must be an object")
			}
			set, err = evaluateOr(r, inner)
		default:
			set, err = evaluateLeaf(r, key, val)
		}
		if err != nil {
			return nil, err
		}
		sets = append(sets, set)
	}
	return unionAll(sets), nil
}

// evaluateLeaf handles one `{key: value}` entry in every shape spec.md
// §4.6 allows: a bare scalar (equality), a compact "<op><value>"
// string, a []vals (multi-operator AND), or {and:[vals]}/{or:[vals]}
// (multi-operator AND/OR).
func evaluateLeaf(r *Resolver, key string, v any) (map[int]bool, error) {
	f := schema.GetField(r.Schema, key)
	if f == nil {
		return map[int]bool{}, nil
	}
	ops, vals, logical := decomposeLeaf(v)
	ft, childType := valueType(f)
	if f.IsUnion() && len(vals) > 0 {
		ft = codec.Detect(toStr(vals[0]), allowedSet(f))
	}
	path := key
	res, err := search.Column(r.Store, r.columnPath(path, f), ops, vals, logical, ft, childType, r.Salt, searchOptions(true))
	if err != nil {
		return nil, err
	}
	return res.LineSet, nil
}

func decomposeLeaf(v any) ([]search.Operator, []any, search.Logical) {
	switch val := v.(type) {
	case map[string]any:
		if inner, ok := val["and"]; ok {
			return parseOpList(inner), valuesOf(inner), search.And
		}
		if inner, ok := val["or"]; ok {
			return parseOpList(inner), valuesOf(inner), search.Or
		}
		return []search.Operator{search.Eq}, []any{val}, search.And
	case []any:
		return parseOpList(val), valuesOf(val), search.And
	case string:
		op, operand := search.ParseOperator(val)
		return []search.Operator{op}, []any{membershipOperand(op, operand)}, search.And
	default:
		return []search.Operator{search.Eq}, []any{val}, search.And
	}
}

func parseOpList(v any) []search.Operator {
	items, _ := v.([]any)
	ops := make([]search.Operator, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			ops = append(ops, search.Eq)
			continue
		}
		op, _ := search.ParseOperator(s)
		ops = append(ops, op)
	}
	return ops
}

func valuesOf(v any) []any {
	items, _ := v.([]any)
	out := make([]any, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			op, operand := search.ParseOperator(s)
			out = append(out, membershipOperand(op, operand))
			continue
		}
		out = append(out, item)
	}
	return out
}

// membershipOperand decodes the operand of a "[]"/"![]" compact form as
// a codec array (the value side of a set membership test is encoded with
// the same comma delimiter as a stored array field, spec.md §4.1), so
// "Pizza,Burger" becomes the set {Pizza, Burger} rather than a single
// opaque string. Every other operator's operand is left untouched.
func membershipOperand(op search.Operator, operand string) any {
	if op != search.In && op != search.NotIn {
		return operand
	}
	return codec.DecodeNested(operand)
}

func toStr(v any) string {
	s, _ := v.(string)
	return s
}

func allowedSet(f *schema.Field) map[codec.FieldType]bool {
	out := map[codec.FieldType]bool{}
	for _, t := range f.Type {
		out[t] = true
	}
	return out
}

func intersectAll(sets []map[int]bool) map[int]bool {
	if len(sets) == 0 {
		return map[int]bool{}
	}
	out := sets[0]
	for _, s := range sets[1:] {
		next := map[int]bool{}
		for k := range out {
			if s[k] {
				next[k] = true
			}
		}
		out = next
	}
	return out
}

func unionAll(sets []map[int]bool) map[int]bool {
	out := map[int]bool{}
	for _, s := range sets {
		for k := range s {
			out[k] = true
		}
	}
	return out
}

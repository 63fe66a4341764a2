// Package search implements the per-column predicate scan of spec.md
// §4.5: stream a column file, decode each line, evaluate an operator set
// against a target value, and collect the matching line numbers. It is
// the sole place a comparison touches decoded Go values rather than raw
// column bytes.
package search

import (
	"regexp"
	"strconv"
	"strings"

	"inibase/internal/icrypto"
)

// Operator is one comparison supported by a column scan.
type Operator string

const (
	Eq      Operator = "="
	Neq     Operator = "!="
	Gt      Operator = ">"
	Lt      Operator = "<"
	Gte     Operator = ">="
	Lte     Operator = "<="
	In      Operator = "[]"
	NotIn   Operator = "![]"
	Like    Operator = "*"
	NotLike Operator = "!*"
)

// Logical combines multiple operators applied to the same column.
type Logical string

const (
	And Logical = "and"
	Or  Logical = "or"
)

// ParseOperator dispatches the compact "<op><value>" string form per
// spec.md §4.6: the leading 1-2 bytes select the operator, everything
// after is the operand.
func ParseOperator(s string) (Operator, string) {
	if s == "" {
		return Eq, s
	}
	switch s[0] {
	case '>':
		if len(s) > 1 && s[1] == '=' {
			return Gte, s[2:]
		}
		return Gt, s[1:]
	case '<':
		if len(s) > 1 && s[1] == '=' {
			return Lte, s[2:]
		}
		return Lt, s[1:]
	case '[':
		if len(s) > 1 && s[1] == ']' {
			return In, s[2:]
		}
		return Eq, s
	case '!':
		if strings.HasPrefix(s, "![]") {
			return NotIn, s[3:]
		}
		if strings.HasPrefix(s, "!=") {
			return Neq, s[2:]
		}
		if strings.HasPrefix(s, "!*") {
			return NotLike, s[2:]
		}
		return Neq, s[1:]
	case '=':
		return Eq, s[1:]
	case '*':
		return Like, s[1:]
	default:
		return Eq, s
	}
}

// Eval applies op to (actual, want) and reports whether the predicate
// matches. isPassword/isBoolean select the per-type specializations
// spec.md §4.5 calls out for "=": constant-time hash compare for
// password columns, numeric equality for booleans.
func Eval(op Operator, actual, want any, isPassword, isBoolean bool) bool {
	switch op {
	case Eq:
		return equal(actual, want, isPassword, isBoolean)
	case Neq:
		return !equal(actual, want, isPassword, isBoolean)
	case Gt, Lt, Gte, Lte:
		return compareOp(op, actual, want)
	case In:
		return membership(actual, want)
	case NotIn:
		return !membership(actual, want)
	case Like:
		return glob(actual, want)
	case NotLike:
		return !glob(actual, want)
	default:
		return false
	}
}

func equal(actual, want any, isPassword, isBoolean bool) bool {
	if isPassword {
		hashed, _ := actual.(string)
		plain, _ := want.(string)
		return hashed != "" && icrypto.ComparePassword(hashed, plain)
	}
	if isBoolean {
		return toNumeric(actual) == toNumeric(want)
	}
	an, aok := asNumber(actual)
	wn, wok := asNumber(want)
	if aok && wok {
		return an == wn
	}
	return toString(actual) == toString(want)
}

// compareOp requires both sides be non-null per spec.md §4.5.
func compareOp(op Operator, actual, want any) bool {
	if actual == nil || want == nil {
		return false
	}
	an, aok := asNumber(actual)
	wn, wok := asNumber(want)
	if aok && wok {
		switch op {
		case Gt:
			return an > wn
		case Lt:
			return an < wn
		case Gte:
			return an >= wn
		case Lte:
			return an <= wn
		}
	}
	as, ws := toString(actual), toString(want)
	switch op {
	case Gt:
		return as > ws
	case Lt:
		return as < ws
	case Gte:
		return as >= ws
	case Lte:
		return as <= ws
	}
	return false
}

func membership(actual, want any) bool {
	wantSet := toSlice(want)
	actualSet := toSlice(actual)
	if len(actualSet) == 0 {
		actualSet = []any{actual}
	}
	for _, a := range actualSet {
		for _, w := range wantSet {
			if equal(a, w, false, false) {
				return true
			}
		}
	}
	return false
}

func glob(actual, want any) bool {
	pattern, ok := want.(string)
	if !ok {
		return false
	}
	s := toString(actual)
	re := globToRegexp(pattern)
	return re.MatchString(s)
}

func globToRegexp(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("(?i)^")
	for _, r := range pattern {
		if r == '%' {
			b.WriteString(".*")
			continue
		}
		b.WriteString(regexp.QuoteMeta(string(r)))
	}
	b.WriteString("$")
	re, err := regexp.Compile(b.String())
	if err != nil {
		return regexp.MustCompile("$^")
	}
	return re
}

func toSlice(v any) []any {
	if arr, ok := v.([]any); ok {
		return arr
	}
	return []any{v}
}

func asNumber(v any) (float64, bool) {
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

func toNumeric(v any) float64 {
	if b, ok := v.(bool); ok {
		if b {
			return 1
		}
		return 0
	}
	n, _ := asNumber(v)
	return n
}

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return strconv.FormatFloat(toNumeric(v), 'f', -1, 64)
	}
}

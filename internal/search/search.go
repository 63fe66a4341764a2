package search

import (
	"inibase/internal/codec"
	"inibase/internal/store"
)

// Options controls how many hits a scan collects and whether it must
// report an authoritative total.
type Options struct {
	Limit     int
	Offset    int
	ReadWhole bool
}

// Result is one column scan's outcome: the decoded value at every
// matching line, the line-number set (used by the criteria evaluator
// for intersection/union), and a count of matching lines. Total is authoritative only
// when the scan ran with ReadWhole; otherwise it is len(Hits)-1, the
// spec's "at least limit" sentinel produced by stopping at limit+1.
type Result struct {
	Hits    map[int]any
	LineSet map[int]bool
	Total   int
}

// Column scans path, decoding each line as ft (with childType/salt for
// TArray/TID/TTable per codec.Decode), and evaluates ops against value
// (or values, one per op, combined by logical when len(ops) > 1).
func Column(s *store.Store, path string, ops []Operator, values []any, logical Logical, ft, childType codec.FieldType, salt []byte, opts Options) (Result, error) {
	isPassword := ft == codec.TPassword
	isBoolean := ft == codec.TBoolean

	res := Result{Hits: map[int]any{}, LineSet: map[int]bool{}}
	offsetRemaining := opts.Offset
	stopAt := 0
	if opts.Limit > 0 && !opts.ReadWhole {
		stopAt = opts.Limit + 1
	}

	matched := 0
	_, err := s.ForEachLine(path, func(lineNo int, raw string) bool {
		decoded := codec.Decode(raw, ft, childType, salt)
		if !matches(ops, values, logical, decoded, isPassword, isBoolean) {
			return false
		}
		matched++
		if offsetRemaining > 0 {
			offsetRemaining--
			return false
		}
		res.Hits[lineNo] = decoded
		res.LineSet[lineNo] = true
		if stopAt > 0 && len(res.Hits) >= stopAt {
			return true
		}
		return false
	})
	if err != nil {
		return Result{}, err
	}

	if opts.ReadWhole {
		res.Total = matched
	} else if stopAt > 0 && len(res.Hits) >= stopAt {
		res.Total = len(res.Hits) - 1
	} else {
		res.Total = len(res.Hits)
	}
	return res, nil
}

func matches(ops []Operator, values []any, logical Logical, actual any, isPassword, isBoolean bool) bool {
	if len(ops) == 0 {
		return true
	}
	if logical == Or {
		for i, op := range ops {
			if Eval(op, actual, valueAt(values, i), isPassword, isBoolean) {
				return true
			}
		}
		return false
	}
	for i, op := range ops {
		if !Eval(op, actual, valueAt(values, i), isPassword, isBoolean) {
			return false
		}
	}
	return true
}

func valueAt(values []any, i int) any {
	if i < len(values) {
		return values[i]
	}
	if len(values) > 0 {
		return values[0]
	}
	return nil
}

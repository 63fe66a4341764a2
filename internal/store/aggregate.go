package store

import (
	"strconv"

	"inibase/internal/codec"
)

// Sum streams path and totals every line parseable as a number,
// skipping blank lines (rows that hold no value for this column).
func (s *Store) Sum(path string) (float64, error) {
	var total float64
	_, err := s.ForEachLine(path, func(_ int, raw string) bool {
		if raw == "" {
			return false
		}
		if n, ok := codec.DecodeRawInt(raw); ok {
			total += float64(n)
			return false
		}
		total += parseFloat(raw)
		return false
	})
	return total, err
}

// Max streams path and returns the largest numeric line value.
func (s *Store) Max(path string) (float64, bool, error) {
	max, found := 0.0, false
	_, err := s.ForEachLine(path, func(_ int, raw string) bool {
		if raw == "" {
			return false
		}
		v := parseFloat(raw)
		if !found || v > max {
			max, found = v, true
		}
		return false
	})
	return max, found, err
}

// Min streams path and returns the smallest numeric line value.
func (s *Store) Min(path string) (float64, bool, error) {
	min, found := 0.0, false
	_, err := s.ForEachLine(path, func(_ int, raw string) bool {
		if raw == "" {
			return false
		}
		v := parseFloat(raw)
		if !found || v < min {
			min, found = v, true
		}
		return false
	})
	return min, found, err
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

package store

import "fmt"

// ForEachLine streams path line by line (1-indexed), invoking fn for each
// non-empty-file line. fn returns true to stop early. It returns the
// total number of lines seen before stopping (or before EOF). A missing
// file yields zero lines, not an error — a field added after a table
// already has rows has no column file until the first record touches it.
func (s *Store) ForEachLine(path string, fn func(lineNo int, raw string) bool) (int, error) {
	rc, sc, err := s.openReader(path)
	if err != nil {
		return 0, err
	}
	if rc == nil {
		return 0, nil
	}
	defer rc.Close()

	lineNo := 0
	for sc.Scan() {
		lineNo++
		if fn(lineNo, sc.Text()) {
			break
		}
	}
	if err := sc.Err(); err != nil {
		return lineNo, fmt.Errorf("store: scan %s: %w", path, err)
	}
	return lineNo, nil
}

// CountLines returns the total number of lines in path without decoding
// them.
func (s *Store) CountLines(path string) (int, error) {
	return s.ForEachLine(path, func(int, string) bool { return false })
}

// Get reads the raw lines at the given 1-indexed line numbers from path.
// A nil/empty set with all=true reads every line; a request for line -1
// is special-cased by callers before reaching Get (see GetLast).
func (s *Store) Get(path string, lineNumbers map[int]bool, all bool) (map[int]string, int, error) {
	out := map[int]string{}
	pending := len(lineNumbers)
	total, err := s.ForEachLine(path, func(lineNo int, raw string) bool {
		if all {
			out[lineNo] = raw
			return false
		}
		if lineNumbers[lineNo] {
			out[lineNo] = raw
			pending--
			if pending <= 0 {
				return true
			}
		}
		return false
	})
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// GetLast reads only the final line of path.
func (s *Store) GetLast(path string) (string, int, error) {
	last := ""
	total, err := s.ForEachLine(path, func(_ int, raw string) bool {
		last = raw
		return false
	})
	if err != nil {
		return "", 0, err
	}
	return last, total, nil
}

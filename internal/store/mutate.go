package store

import (
	"fmt"
	"os"
)

// Append stages newLines onto the end of path's current contents and
// returns a RenamePair for the caller to batch-rename once every column
// in the record has staged successfully (spec.md §4.4, §5). The staged
// temp file is a full copy of the original plus the appended lines,
// never a partial write to the original — nothing observes path change
// until RenameBatch runs.
func (s *Store) Append(path string, newLines []string) (RenamePair, error) {
	existing, _, err := s.readAllLines(path)
	if err != nil {
		return RenamePair{}, err
	}
	return s.stage(path, append(existing, newLines...))
}

// Prepend stages newLines onto the front of path's current contents.
func (s *Store) Prepend(path string, newLines []string) (RenamePair, error) {
	existing, _, err := s.readAllLines(path)
	if err != nil {
		return RenamePair{}, err
	}
	out := make([]string, 0, len(newLines)+len(existing))
	out = append(out, newLines...)
	out = append(out, existing...)
	return s.stage(path, out)
}

// ReplaceAll stages value as every line of path, for a scalar update
// applied uniformly across the whole column (e.g. a computed default
// backfilled onto every existing record).
func (s *Store) ReplaceAll(path, value string, count int) (RenamePair, error) {
	lines := make([]string, count)
	for i := range lines {
		lines[i] = value
	}
	return s.stage(path, lines)
}

// Replace stages path with the given 1-indexed line numbers overwritten
// by their mapped value; any line beyond the current length needed to
// reach a requested line number is padded with empty lines, mirroring
// how a later-added column backfills blank rows for earlier records.
func (s *Store) Replace(path string, changes map[int]string) (RenamePair, error) {
	existing, _, err := s.readAllLines(path)
	if err != nil {
		return RenamePair{}, err
	}
	maxLine := len(existing)
	for ln := range changes {
		if ln > maxLine {
			maxLine = ln
		}
	}
	out := make([]string, maxLine)
	copy(out, existing)
	for ln, v := range changes {
		out[ln-1] = v
	}
	return s.stage(path, out)
}

// Remove stages path with every line whose 1-indexed number is in
// lineNumbers dropped, shifting subsequent lines up — deletion
// renumbers a column file the same way it renumbers every sibling
// column file for the same table, keeping line alignment intact.
func (s *Store) Remove(path string, lineNumbers map[int]bool) (RenamePair, error) {
	existing, _, err := s.readAllLines(path)
	if err != nil {
		return RenamePair{}, err
	}
	out := make([]string, 0, len(existing))
	for i, line := range existing {
		if lineNumbers[i+1] {
			continue
		}
		out = append(out, line)
	}
	return s.stage(path, out)
}

func (s *Store) readAllLines(path string) ([]string, int, error) {
	lines, total, err := s.Get(path, nil, true)
	if err != nil {
		return nil, 0, err
	}
	out := make([]string, total)
	for ln, v := range lines {
		out[ln-1] = v
	}
	return out, total, nil
}

func (s *Store) stage(finalPath string, lines []string) (RenamePair, error) {
	if err := s.EnsureDirs(); err != nil {
		return RenamePair{}, err
	}
	fileName := fileNameOf(finalPath)
	tmpPath := s.newTempPath(fileName)
	if err := writeLines(tmpPath, s.Compressed, lines); err != nil {
		return RenamePair{}, err
	}
	return RenamePair{Temp: tmpPath, Final: finalPath}, nil
}

func fileNameOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}

// Delete removes a column file entirely, e.g. when a field is dropped
// from the schema and no record references it any longer.
func (s *Store) Delete(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("store: remove %s: %w", path, err)
	}
	return nil
}

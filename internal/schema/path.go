package schema

import "inibase/internal/codec"

// ColumnFileName returns the on-disk file name (without directory) for a
// scalar column path, escaping '.' and '*' so the mapping path -> file
// name -> path round-trips losslessly (spec.md §4.1).
func ColumnFileName(path string, compressed bool) string {
	name := codec.EscapeFileName(path) + ".txt"
	if compressed {
		name += ".gz"
	}
	return name
}

// PathFromFileName reverses ColumnFileName for a bare file name (no
// directory, no extension already stripped by the caller).
func PathFromFileName(name string) string {
	return codec.UnescapeFileName(name)
}

package codec

import (
	"fmt"
	"net/url"
	"strings"
)

// structuralChars are the bytes that could be mistaken for a delimiter
// (or a line boundary) if left unescaped inside a scalar string. They are
// percent-escaped on encode and restored on decode, the same way the
// delimiter characters themselves are reserved.
var structuralChars = []rune{'<', '>', ',', '|', '&', '$', '#', '@', '^', '%', ':', '!', ';', '\n', '\r'}

// EscapeString percent-decodes any existing URI escaping in v (so callers
// can pass already-escaped input idempotently) and then percent-escapes
// every structural character so it cannot collide with a delimiter or the
// line terminator. It uses path-style (percent-only) escaping throughout,
// since the query-style form would turn a literal '+' into a space and
// back, corrupting values that contain '+'.
func EscapeString(v string) string {
	if decoded, err := url.PathUnescape(v); err == nil {
		v = decoded
	}
	var b strings.Builder
	b.Grow(len(v))
	for _, r := range v {
		if isStructural(r) {
			b.WriteString(percentEncodeRune(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// UnescapeString reverses EscapeString: it is a plain percent-decode,
// since EscapeString only ever emits %XX sequences for reserved bytes.
func UnescapeString(v string) string {
	decoded, err := url.PathUnescape(v)
	if err != nil {
		return v
	}
	return decoded
}

func isStructural(r rune) bool {
	for _, c := range structuralChars {
		if c == r {
			return true
		}
	}
	return false
}

func percentEncodeRune(r rune) string {
	return fmt.Sprintf("%%%02X", r)
}

// EscapeFileName makes a dotted/starred column path safe to use as a
// filename by escaping '.' and '*' (which otherwise collide with the
// extension and the rest of the filesystem path) the same percent-style
// way as EscapeString, so the mapping path -> filename -> path is
// lossless.
func EscapeFileName(path string) string {
	var b strings.Builder
	b.Grow(len(path))
	for _, r := range path {
		switch r {
		case '.':
			b.WriteString("%2E")
		case '*':
			b.WriteString("%2A")
		case '%':
			b.WriteString("%25")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// UnescapeFileName reverses EscapeFileName.
func UnescapeFileName(name string) string {
	decoded, err := url.PathUnescape(name)
	if err != nil {
		return name
	}
	return decoded
}

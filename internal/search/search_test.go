package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"inibase/internal/codec"
	"inibase/internal/store"
)

func writeColumn(t *testing.T, s *store.Store, path string, lines []string) {
	t.Helper()
	if err := s.EnsureDirs(); err != nil {
		t.Fatalf("ensure dirs: %v", err)
	}
	pair, err := s.Append(path, lines)
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := s.RenameBatch([]store.RenamePair{pair}); err != nil {
		t.Fatalf("rename batch: %v", err)
	}
}

func TestParseOperatorDispatchesCompactForm(t *testing.T) {
	op, rest := ParseOperator(">=10")
	assert.Equal(t, Gte, op)
	assert.Equal(t, "10", rest)

	op, rest = ParseOperator("![]1,2")
	assert.Equal(t, NotIn, op)
	assert.Equal(t, "1,2", rest)

	op, rest = ParseOperator("*foo%")
	assert.Equal(t, Like, op)
	assert.Equal(t, "foo%", rest)

	op, rest = ParseOperator("plain")
	assert.Equal(t, Eq, op)
	assert.Equal(t, "plain", rest)
}

func TestEvalNumericComparisons(t *testing.T) {
	assert.True(t, Eval(Gt, float64(5), float64(3), false, false))
	assert.False(t, Eval(Lt, float64(5), float64(3), false, false))
	assert.True(t, Eval(Lte, float64(3), float64(3), false, false))
	assert.False(t, Eval(Gt, nil, float64(3), false, false))
}

func TestEvalLikeIsGlobMatchedCaseInsensitively(t *testing.T) {
	assert.True(t, Eval(Like, "Hello World", "hello%", false, false))
	assert.False(t, Eval(Like, "Hello World", "bye%", false, false))
}

func TestEvalInMembership(t *testing.T) {
	want := []any{float64(1), float64(2), float64(3)}
	assert.True(t, Eval(In, float64(2), want, false, false))
	assert.False(t, Eval(In, float64(9), want, false, false))
	assert.True(t, Eval(NotIn, float64(9), want, false, false))
}

func TestEvalBooleanEqualityComparesNumerically(t *testing.T) {
	assert.True(t, Eval(Eq, true, true, false, true))
	assert.False(t, Eval(Eq, true, false, false, true))
}

func TestColumnScanCollectsMatchingLines(t *testing.T) {
	dir := t.TempDir()
	s := store.New(dir, false, nil)
	path := s.ColumnPath("age.txt")
	writeColumn(t, s, path, []string{"10", "20", "30", "40"})

	res, err := Column(s, path, []Operator{Gt}, []any{float64(15)}, And, codec.TNumber, "", nil, Options{ReadWhole: true})
	if err != nil {
		t.Fatalf("column scan: %v", err)
	}
	assert.Len(t, res.Hits, 3)
	assert.Equal(t, 3, res.Total)
	for _, v := range res.Hits {
		assert.Greater(t, v.(float64), float64(15))
	}
}

func TestColumnScanRespectsLimitSentinel(t *testing.T) {
	dir := t.TempDir()
	s := store.New(dir, false, nil)
	path := s.ColumnPath("n.txt")
	writeColumn(t, s, path, []string{"1", "2", "3", "4", "5"})

	res, err := Column(s, path, nil, nil, And, codec.TNumber, "", nil, Options{Limit: 2})
	if err != nil {
		t.Fatalf("column scan: %v", err)
	}
	assert.Len(t, res.Hits, 3)
	assert.Equal(t, 2, res.Total)
}

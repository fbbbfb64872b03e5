package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetIntsetStaysIntUntilNonInteger(t *testing.T) {
	s := newSetData()
	require.True(t, s.Add([]byte("1")))
	require.True(t, s.Add([]byte("2")))
	require.True(t, s.isInt)

	require.True(t, s.Add([]byte("hello")))
	require.False(t, s.isInt)
	require.True(t, s.IsMember([]byte("1")))
	require.True(t, s.IsMember([]byte("hello")))
}

func TestSetAddDuplicateReturnsFalse(t *testing.T) {
	s := newSetData()
	require.True(t, s.Add([]byte("1")))
	require.False(t, s.Add([]byte("1")))
}

func TestSetUnionIntersectDiff(t *testing.T) {
	a := newSetData()
	a.Add([]byte("1"))
	a.Add([]byte("2"))
	b := newSetData()
	b.Add([]byte("2"))
	b.Add([]byte("3"))

	union := a.Union(b)
	require.Equal(t, 3, union.Len())

	inter := a.Intersect(b)
	require.Equal(t, 1, inter.Len())
	require.True(t, inter.IsMember([]byte("2")))

	diff := a.Diff(b)
	require.Equal(t, 1, diff.Len())
	require.True(t, diff.IsMember([]byte("1")))
}

func TestSetCombineResultsAreAlwaysHashEncoded(t *testing.T) {
	a := newSetData()
	a.Add([]byte("1"))
	a.Add([]byte("2"))
	b := newSetData()
	b.Add([]byte("2"))
	b.Add([]byte("3"))

	require.False(t, a.Union(b).isInt)
	require.False(t, a.Intersect(b).isInt)
	require.False(t, a.Diff(b).isInt)
}

func TestSetRandomDistinctCapsAtLength(t *testing.T) {
	s := newSetData()
	for _, m := range []string{"a", "b", "c"} {
		s.Add([]byte(m))
	}
	got := s.RandomDistinct(10)
	require.Len(t, got, 3)
}

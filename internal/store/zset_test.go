package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestZSetAddAndScore(t *testing.T) {
	z := newZSetData()
	require.True(t, z.Add("a", 1))
	require.False(t, z.Add("a", 2))
	s, ok := z.Score("a")
	require.True(t, ok)
	require.Equal(t, 2.0, s)
}

func TestZSetIncrBy(t *testing.T) {
	z := newZSetData()
	require.Equal(t, 5.0, z.IncrBy("a", 5))
	require.Equal(t, 8.0, z.IncrBy("a", 3))
}

func TestZSetRank(t *testing.T) {
	z := newZSetData()
	z.Add("a", 1)
	z.Add("b", 2)
	z.Add("c", 3)
	r, ok := z.Rank("b", false)
	require.True(t, ok)
	require.Equal(t, 1, r)

	r, ok = z.Rank("b", true)
	require.True(t, ok)
	require.Equal(t, 1, r)

	r, ok = z.Rank("a", true)
	require.True(t, ok)
	require.Equal(t, 2, r)
}

func TestZSetPopMinMax(t *testing.T) {
	z := newZSetData()
	z.Add("a", 1)
	z.Add("b", 2)
	z.Add("c", 3)

	mins := z.PopMin(2)
	require.Equal(t, []string{"a", "b"}, membersOf(mins))
	require.Equal(t, 1, z.Len())

	z.Add("a", 1)
	z.Add("b", 2)
	maxes := z.PopMax(2)
	require.Equal(t, []string{"c", "b"}, membersOf(maxes))
}

func TestZSetRemoveRangeByScore(t *testing.T) {
	z := newZSetData()
	for i, m := range []string{"a", "b", "c", "d"} {
		z.Add(m, float64(i+1))
	}
	n := z.RemoveRangeByScore(Included(2), Included(3))
	require.Equal(t, 2, n)
	require.Equal(t, 2, z.Len())
}

func TestZSetRangeByLex(t *testing.T) {
	z := newZSetData()
	for _, m := range []string{"a", "b", "c", "d"} {
		z.Add(m, 0)
	}
	got := z.RangeByLex(LexInclusive("b"), LexExclusive("d"), 0, -1, false)
	require.Equal(t, []string{"b", "c"}, membersOf(got))
}

func TestZUnionStoreSum(t *testing.T) {
	a := newZSetData()
	a.Add("x", 1)
	a.Add("y", 2)
	b := newZSetData()
	b.Add("y", 3)
	b.Add("z", 4)

	result := ZUnionStore([]*ZSetData{a, b}, []float64{1, 1}, AggSum)
	sx, _ := result.Score("x")
	sy, _ := result.Score("y")
	sz, _ := result.Score("z")
	require.Equal(t, 1.0, sx)
	require.Equal(t, 5.0, sy)
	require.Equal(t, 4.0, sz)
}

func TestZInterStoreMax(t *testing.T) {
	a := newZSetData()
	a.Add("x", 1)
	a.Add("y", 2)
	b := newZSetData()
	b.Add("y", 3)
	b.Add("z", 4)

	result := ZInterStore([]*ZSetData{a, b}, []float64{1, 1}, AggMax)
	require.Equal(t, 1, result.Len())
	sy, _ := result.Score("y")
	require.Equal(t, 3.0, sy)
}

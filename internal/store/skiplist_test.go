package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSkiplistInsertAndRank(t *testing.T) {
	sl := newSkiplist()
	sl.Insert("a", 1)
	sl.Insert("b", 2)
	sl.Insert("c", 3)
	require.Equal(t, 3, sl.Len())

	require.Equal(t, 0, sl.RankOf("a", 1))
	require.Equal(t, 1, sl.RankOf("b", 2))
	require.Equal(t, 2, sl.RankOf("c", 3))
	require.Equal(t, -1, sl.RankOf("missing", 9))
}

func TestSkiplistTieBreaksByMember(t *testing.T) {
	sl := newSkiplist()
	sl.Insert("zebra", 5)
	sl.Insert("alpha", 5)
	sl.Insert("mid", 5)

	out := sl.RangeByRank(0, -1, false)
	require.Equal(t, []string{"alpha", "mid", "zebra"}, membersOf(out))
}

func TestSkiplistRemove(t *testing.T) {
	sl := newSkiplist()
	sl.Insert("a", 1)
	sl.Insert("b", 2)
	require.True(t, sl.Remove("a", 1))
	require.False(t, sl.Remove("a", 1))
	require.Equal(t, 1, sl.Len())
}

func TestSkiplistRangeByScoreInclusiveExclusive(t *testing.T) {
	sl := newSkiplist()
	for i, m := range []string{"a", "b", "c", "d", "e"} {
		sl.Insert(m, float64(i+1))
	}
	// [2,4]
	got := sl.RangeByScore(Included(2), Included(4), 0, -1)
	require.Equal(t, []string{"b", "c", "d"}, membersOf(got))

	// (2,4)
	got = sl.RangeByScore(Excluded(2), Excluded(4), 0, -1)
	require.Equal(t, []string{"c"}, membersOf(got))

	// unbounded both sides
	got = sl.RangeByScore(Unbounded(), Unbounded(), 0, -1)
	require.Len(t, got, 5)
}

func TestSkiplistRangeByScoreTiedScoresExcludedLowerBound(t *testing.T) {
	sl := newSkiplist()
	sl.Insert("a", 5)
	sl.Insert("b", 5)
	sl.Insert("c", 10)
	got := sl.RangeByScore(Excluded(5), Unbounded(), 0, -1)
	require.Equal(t, []string{"c"}, membersOf(got))
}

func TestSkiplistRangeByScoreRev(t *testing.T) {
	sl := newSkiplist()
	for i, m := range []string{"a", "b", "c", "d", "e"} {
		sl.Insert(m, float64(i+1))
	}
	got := sl.RangeByScoreRev(Included(2), Included(4), 0, -1)
	require.Equal(t, []string{"d", "c", "b"}, membersOf(got))
}

func TestSkiplistRangeByRankReverse(t *testing.T) {
	sl := newSkiplist()
	for i, m := range []string{"a", "b", "c", "d"} {
		sl.Insert(m, float64(i))
	}
	got := sl.RangeByRank(0, 1, true)
	require.Equal(t, []string{"d", "c"}, membersOf(got))
}

func TestLevelCap(t *testing.T) {
	require.Equal(t, 16, levelCap(1))
	require.Equal(t, 16, levelCap(100))
	require.Equal(t, absoluteMaxLevel, levelCap(1<<40))
}

func membersOf(ms []ZMember) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Member
	}
	return out
}

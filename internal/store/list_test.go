package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestListPushPop(t *testing.T) {
	l := newListData()
	l.PushBack([]byte("a"))
	l.PushBack([]byte("b"))
	l.PushFront([]byte("z"))
	require.Equal(t, 3, l.Len())

	v, ok := l.PopFront()
	require.True(t, ok)
	require.Equal(t, "z", string(v))

	v, ok = l.PopBack()
	require.True(t, ok)
	require.Equal(t, "b", string(v))
	require.Equal(t, 1, l.Len())
}

func TestListRangeNegativeIndices(t *testing.T) {
	l := newListData()
	for _, s := range []string{"a", "b", "c", "d"} {
		l.PushBack([]byte(s))
	}
	got := l.Range(-2, -1)
	require.Equal(t, [][]byte{[]byte("c"), []byte("d")}, got)

	got = l.Range(0, -1)
	require.Len(t, got, 4)
}

func TestListTrim(t *testing.T) {
	l := newListData()
	for _, s := range []string{"a", "b", "c", "d", "e"} {
		l.PushBack([]byte(s))
	}
	l.Trim(1, 3)
	require.Equal(t, [][]byte{[]byte("b"), []byte("c"), []byte("d")}, l.ToSlice())
}

func TestListInsert(t *testing.T) {
	l := newListData()
	l.PushBack([]byte("a"))
	l.PushBack([]byte("c"))
	n := l.Insert(true, []byte("c"), []byte("b"))
	require.Equal(t, 3, n)
	require.Equal(t, [][]byte{[]byte("a"), []byte("b"), []byte("c")}, l.ToSlice())

	require.Equal(t, -1, l.Insert(true, []byte("missing"), []byte("x")))
}

func TestListRemove(t *testing.T) {
	l := newListData()
	for _, s := range []string{"a", "b", "a", "c", "a"} {
		l.PushBack([]byte(s))
	}
	removed := l.Remove(2, []byte("a"))
	require.Equal(t, 2, removed)
	require.Equal(t, [][]byte{[]byte("b"), []byte("c"), []byte("a")}, l.ToSlice())
}

func TestListRemoveFromTail(t *testing.T) {
	l := newListData()
	for _, s := range []string{"a", "b", "a", "c", "a"} {
		l.PushBack([]byte(s))
	}
	removed := l.Remove(-1, []byte("a"))
	require.Equal(t, 1, removed)
	require.Equal(t, [][]byte{[]byte("a"), []byte("b"), []byte("a"), []byte("c")}, l.ToSlice())
}

package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValueEmptyForContainers(t *testing.T) {
	v := newListValue()
	require.True(t, v.Empty())
	v.List.PushBack([]byte("x"))
	require.False(t, v.Empty())
}

func TestValueObjectEncoding(t *testing.T) {
	require.Equal(t, "int", newStringValue([]byte("5")).ObjectEncoding())
	require.Equal(t, "linkedlist", newListValue().ObjectEncoding())
	require.Equal(t, "intset", newSetValue().ObjectEncoding())
	require.Equal(t, "skiplist", newZSetValue().ObjectEncoding())
	require.Equal(t, "hashtable", newHashValue().ObjectEncoding())
}

func TestKindString(t *testing.T) {
	require.Equal(t, "string", KindString.String())
	require.Equal(t, "zset", KindZSet.String())
}

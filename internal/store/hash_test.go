package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashSetGetDel(t *testing.T) {
	h := HashData{}
	require.True(t, h.Set([]byte("f1"), []byte("v1")))
	require.False(t, h.Set([]byte("f1"), []byte("v2")))

	v, ok := h.Get([]byte("f1"))
	require.True(t, ok)
	require.Equal(t, "v2", string(v))

	require.True(t, h.Del([]byte("f1")))
	require.False(t, h.Del([]byte("f1")))
}

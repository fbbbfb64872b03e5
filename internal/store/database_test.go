package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDatabaseSetGetDel(t *testing.T) {
	db := newDatabase(0)
	db.Set("k", newStringValue([]byte("v")))
	v := db.Get("k")
	require.NotNil(t, v)
	require.Equal(t, "v", string(v.Str.Bytes()))

	require.True(t, db.Del("k"))
	require.Nil(t, db.Get("k"))
}

func TestDatabaseExpire(t *testing.T) {
	db := newDatabase(0)
	db.Set("k", newStringValue([]byte("v")))
	require.True(t, db.Expire("k", time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	require.Nil(t, db.Get("k"))
}

func TestDatabasePersist(t *testing.T) {
	db := newDatabase(0)
	db.Set("k", newStringValue([]byte("v")))
	db.Expire("k", time.Hour)
	require.True(t, db.Persist("k"))
	_, hasTTL, exists := db.TTL("k")
	require.True(t, exists)
	require.False(t, hasTTL)
}

func TestDatabaseRenameNX(t *testing.T) {
	db := newDatabase(0)
	db.Set("a", newStringValue([]byte("1")))
	db.Set("b", newStringValue([]byte("2")))
	ok, existed := db.RenameNX("a", "b")
	require.False(t, ok)
	require.True(t, existed)

	db.Del("b")
	ok, _ = db.RenameNX("a", "b")
	require.True(t, ok)
	require.Nil(t, db.Get("a"))
}

func TestDatabaseGetOrCreateWrongType(t *testing.T) {
	db := newDatabase(0)
	db.Set("k", newStringValue([]byte("v")))
	_, err := db.GetOrCreate("k", KindList, newListValue)
	require.ErrorIs(t, err, ErrWrongType)
}

func TestDatabaseActiveExpireCycle(t *testing.T) {
	db := newDatabase(0)
	db.Set("a", newStringValue([]byte("1")))
	db.Expire("a", time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	removed := db.ActiveExpireCycle(100)
	require.Equal(t, 1, removed)
	require.Equal(t, 0, db.Size())
}

func TestKeyspaceDBBounds(t *testing.T) {
	ks := NewKeyspace(4)
	require.Equal(t, 4, ks.Count())
	require.NotNil(t, ks.DB(0))
	require.Nil(t, ks.DB(4))
}

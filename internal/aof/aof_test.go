package aof

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppenderWritesSelectOnDBChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.aof")
	a, err := NewAppender(Config{Enabled: true, Filepath: path, SyncPolicy: SyncAlways, BufferSize: 4096}, nil)
	require.NoError(t, err)
	defer a.Close()

	a.Append(0, [][]byte{[]byte("SET"), []byte("k"), []byte("v")})
	a.Append(0, [][]byte{[]byte("SET"), []byte("k2"), []byte("v2")})
	a.Append(1, [][]byte{[]byte("SET"), []byte("k3"), []byte("v3")})
	require.NoError(t, a.Flush())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	data := string(raw)
	// First write on a fresh appender (lastDB seeded -1) always gets a
	// leading SELECT; the DB-1 write gets its own SELECT; the second DB-0
	// write does not repeat one.
	require.Equal(t, 2, countOccurrences(data, "SELECT"))
	require.Equal(t, 3, countOccurrences(data, "SET"))
}

func TestAppenderDisabledIsNoop(t *testing.T) {
	a, err := NewAppender(Config{Enabled: false}, nil)
	require.NoError(t, err)
	a.Append(0, [][]byte{[]byte("SET"), []byte("k"), []byte("v")})
	require.NoError(t, a.Flush())
	require.NoError(t, a.Close())
}

func countOccurrences(haystack, needle string) int {
	count := 0
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			count++
		}
	}
	return count
}

package aof

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"redisd/internal/command"
	"redisd/internal/store"
)

func TestReplayAppliesRecordedCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.aof")
	body := "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$1\r\nv\r\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	ks := store.NewKeyspace(16)
	disp := command.NewDispatcher(zap.NewNop())

	n, err := Replay(path, disp, ks)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	v := ks.DB(0).Get("k")
	require.NotNil(t, v)
}

func TestReplayTruncatesIncompleteTrailingRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.aof")
	body := "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$1\r\nv\r\n*3\r\n$3\r\nSET\r\n$2\r\nk2"
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	ks := store.NewKeyspace(16)
	disp := command.NewDispatcher(zap.NewNop())

	n, err := Replay(path, disp, ks)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "*3\r\n$3\r\nSET\r\n$1\r\nk\r\n$1\r\nv\r\n", string(raw))
}

func TestReplayMissingFileIsNotAnError(t *testing.T) {
	ks := store.NewKeyspace(16)
	disp := command.NewDispatcher(zap.NewNop())
	n, err := Replay(filepath.Join(t.TempDir(), "absent.aof"), disp, ks)
	require.NoError(t, err)
	require.Equal(t, 0, n)
}

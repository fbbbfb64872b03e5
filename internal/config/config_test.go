package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"redisd/internal/aof"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, []string{"127.0.0.1"}, cfg.Bind)
	require.Equal(t, 6379, cfg.Port)
	require.Equal(t, 16, cfg.Databases)
	require.True(t, cfg.AOF.Enabled)
}

func TestReadFileEmptyPathReturnsDefaults(t *testing.T) {
	cfg, err := ReadFile("")
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
}

func TestReadFileParsesDirectives(t *testing.T) {
	path := filepath.Join(t.TempDir(), "redis.conf")
	body := "# a comment\nbind 0.0.0.0\nport 7000\ndatabases 4\nappendonly no\nappendfsync always\nmaxclients 50\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, []string{"0.0.0.0"}, cfg.Bind)
	require.Equal(t, 7000, cfg.Port)
	require.Equal(t, 4, cfg.Databases)
	require.False(t, cfg.AOF.Enabled)
	require.Equal(t, aof.SyncAlways, cfg.AOF.SyncPolicy)
	require.Equal(t, 50, cfg.MaxConnections)
}

func TestReadFileInclude(t *testing.T) {
	dir := t.TempDir()
	includedPath := filepath.Join(dir, "extra.conf")
	require.NoError(t, os.WriteFile(includedPath, []byte("port 9999\n"), 0644))

	mainPath := filepath.Join(dir, "redis.conf")
	require.NoError(t, os.WriteFile(mainPath, []byte("include extra.conf\n"), 0644))

	cfg, err := ReadFile(mainPath)
	require.NoError(t, err)
	require.Equal(t, 9999, cfg.Port)
}

func TestReadFileRejectsInvalidPort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "redis.conf")
	require.NoError(t, os.WriteFile(path, []byte("port notanumber\n"), 0644))

	_, err := ReadFile(path)
	require.Error(t, err)
}

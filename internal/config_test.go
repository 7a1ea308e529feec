package internal

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "memsql.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	require.Equal(t, "memsql", cfg.AppName)
	require.Equal(t, "127.0.0.1:5432", cfg.Server.Addr)
	require.False(t, cfg.Server.SharedStore)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, "text", cfg.Log.Format)
	require.Equal(t, "SQL> ", cfg.REPL.Prompt)
	require.Equal(t, 1000, cfg.REPL.HistoryMax)
	require.Equal(t, 128, cfg.Executor.StmtCacheSize)
}

func TestLoadConfig_File(t *testing.T) {
	path := writeConfig(t, `
app_name: test
server:
  addr: ":7000"
  shared_store: true
log:
  level: debug
  format: json
repl:
  prompt: "> "
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, "test", cfg.AppName)
	require.Equal(t, ":7000", cfg.Server.Addr)
	require.True(t, cfg.Server.SharedStore)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "json", cfg.Log.Format)
	require.Equal(t, "> ", cfg.REPL.Prompt)
	// untouched keys keep their defaults
	require.Equal(t, 1000, cfg.REPL.HistoryMax)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "server:\n  addr: \":7000\"\n")
	t.Setenv("MEMSQL_SERVER_ADDR", ":9000")
	t.Setenv("MEMSQL_LOG_LEVEL", "warn")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.Server.Addr)
	require.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadConfig_Errors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "log:\n  format: xml\n"))
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = LoadConfig(writeConfig(t, "log:\n  level: loud\n"))
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = LoadConfig(writeConfig(t, "repl:\n  history_max: -1\n"))
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestNewLogger(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	var buf bytes.Buffer
	log := NewLogger(cfg, &buf)
	log.Debug("hidden")
	log.Info("shown", "k", 1)

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.Contains(t, out, "msg=shown")
	require.Contains(t, out, "app=memsql")

	cfg.Log.Format = "json"
	cfg.Server.Debug = true
	buf.Reset()
	NewLogger(cfg, &buf).Debug("dbg")
	require.True(t, strings.HasPrefix(buf.String(), "{"))
	require.Contains(t, buf.String(), `"msg":"dbg"`)
}

package logger

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInit_DisabledDiscards(t *testing.T) {
	require.NoError(t, Init(Options{Enabled: false}))
	require.False(t, L.Enabled(t.Context(), slog.LevelError))
}

func TestInit_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "heapkit.log")
	require.NoError(t, Init(Options{Enabled: true, Path: path, JSON: true, Level: slog.LevelDebug}))
	t.Cleanup(func() { _ = Close() })

	Debug("span split", "at", 1014, "remainder", 64)
	require.NoError(t, Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"msg":"span split"`)
	require.Contains(t, string(data), `"remainder":64`)
}

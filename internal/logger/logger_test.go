package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLogger_LevelsPrefix(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	l.Info("detected %d objects", 3)
	l.Warning("font fallback")
	l.Error("tier %s failed", "fast")

	out := buf.String()
	require.Contains(t, out, "INFO    detected 3 objects")
	require.Contains(t, out, "WARNING font fallback")
	require.Contains(t, out, "ERROR   tier fast failed")
}

func TestNewFile_WritesPerLevelFiles(t *testing.T) {
	dir := t.TempDir()
	l, err := NewFile(dir)
	require.NoError(t, err)

	l.Error("boom")
	require.NoError(t, l.Close())

	data, err := os.ReadFile(filepath.Join(dir, "error.log"))
	require.NoError(t, err)
	require.Contains(t, string(data), "boom")

	_, err = os.Stat(filepath.Join(dir, "info.log"))
	require.NoError(t, err)
}

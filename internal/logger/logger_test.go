package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l, closer, err := New(Config{Level: "warn", JSON: true, Output: &buf})
	require.NoError(t, err)
	defer closer.Close()

	l.Info("hidden")
	l.Warn("shown", "store", "tasks")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "shown", rec["msg"])
	assert.Equal(t, "tasks", rec["store"])
}

func TestNewWritesRotatingFile(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	l, closer, err := New(Config{Dir: dir, Output: &buf})
	require.NoError(t, err)
	l.Info("to file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(filepath.Join(dir, "redops.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
	assert.Contains(t, buf.String(), "to file")
}

func TestParseLevel(t *testing.T) {
	_, err := ParseLevel("loud")
	assert.Error(t, err)
	lvl, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, "DEBUG", lvl.String())
}

package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"matcha/internal/config"
)

func TestFindWalksUpToMarker(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, DotDir), 0755))
	deep := filepath.Join(root, "a", "b", "c")
	require.NoError(t, os.MkdirAll(deep, 0755))

	ws, err := Find(deep)
	require.NoError(t, err)
	assert.Equal(t, root, ws)
}

func TestFindWithoutMarkerReturnsStart(t *testing.T) {
	dir := t.TempDir()

	ws, err := Find(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, ws)
}

func TestFindIgnoresMarkerFile(t *testing.T) {
	// A plain file named .matcha is not a workspace marker.
	root := t.TempDir()
	child := filepath.Join(root, "sub")
	require.NoError(t, os.MkdirAll(child, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, DotDir), []byte("x"), 0644))

	ws, err := Find(child)
	require.NoError(t, err)
	assert.Equal(t, child, ws)
}

func TestFindPrefersNearestMarker(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, DotDir), 0755))
	nested := filepath.Join(root, "proj")
	require.NoError(t, os.MkdirAll(filepath.Join(nested, DotDir), 0755))

	ws, err := Find(filepath.Join(nested))
	require.NoError(t, err)
	assert.Equal(t, nested, ws)
}

func TestPathHelpers(t *testing.T) {
	cfg := config.DefaultConfig()
	ws := filepath.Join("/", "home", "dev", "proj")

	assert.Equal(t, filepath.Join(ws, ".matcha"), Dir(ws))
	assert.Equal(t, filepath.Join(ws, ".matcha", "logs"), LogsDir(ws))
	assert.Equal(t, filepath.Join(ws, "suites"), SuitesDir(ws, cfg))
	assert.Equal(t, filepath.Join(ws, ".matcha", "matchers"), MatchersDir(ws, cfg))
	assert.Equal(t, filepath.Join(ws, ".matcha", "history.db"), HistoryPath(ws, cfg))
}

func TestPathHelpersRespectAbsolutePaths(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Suites.Dir = "/srv/suites"
	cfg.History.Path = "/var/lib/matcha/history.db"

	assert.Equal(t, "/srv/suites", SuitesDir("/ws", cfg))
	assert.Equal(t, "/var/lib/matcha/history.db", HistoryPath("/ws", cfg))
}

func TestPathHelpersDefaultEmptyFields(t *testing.T) {
	cfg := &config.Config{}

	assert.Equal(t, filepath.Join("/ws", "suites"), SuitesDir("/ws", cfg))
	assert.Equal(t, filepath.Join("/ws", ".matcha", "matchers"), MatchersDir("/ws", cfg))
	assert.Equal(t, filepath.Join("/ws", ".matcha", "history.db"), HistoryPath("/ws", cfg))
}

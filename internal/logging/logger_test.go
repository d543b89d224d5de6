package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reset returns the package to the disabled state so tests stay independent.
func reset() {
	CloseAll()
	_ = Configure(os.TempDir(), Settings{})
}

func logFileNames(t *testing.T, ws string) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(ws, ".roadnerd", "logs"))
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func hasCategoryFile(names []string, category Category) bool {
	for _, n := range names {
		if strings.HasSuffix(n, "_"+string(category)+".log") {
			return true
		}
	}
	return false
}

func TestConfigureDebugModeWritesCategoryFiles(t *testing.T) {
	reset()
	ws := t.TempDir()
	require.NoError(t, Configure(ws, Settings{DebugMode: true, Level: "debug"}))
	t.Cleanup(reset)

	Gap("requirement %s verified", "FR1")
	WorldDebug("parsed %d files", 3)

	names := logFileNames(t, ws)
	assert.True(t, hasCategoryFile(names, CategoryBoot))
	assert.True(t, hasCategoryFile(names, CategoryGap))
	assert.True(t, hasCategoryFile(names, CategoryWorld))
}

func TestConfigureDisabledCategorySkipsFile(t *testing.T) {
	reset()
	ws := t.TempDir()
	require.NoError(t, Configure(ws, Settings{
		DebugMode:  true,
		Level:      "info",
		Categories: map[string]bool{"scoring": false},
	}))
	t.Cleanup(reset)

	Scoring("suppressed")
	Gap("recorded")

	names := logFileNames(t, ws)
	assert.True(t, hasCategoryFile(names, CategoryGap))
	assert.False(t, hasCategoryFile(names, CategoryScoring))
}

func TestConfigureProductionModeWritesNothing(t *testing.T) {
	reset()
	ws := t.TempDir()
	require.NoError(t, Configure(ws, Settings{}))

	Gap("dropped")
	Roadmap("dropped too")

	_, err := os.Stat(filepath.Join(ws, ".roadnerd", "logs"))
	assert.True(t, os.IsNotExist(err))
}

func TestConfigureRequiresWorkspace(t *testing.T) {
	assert.Error(t, Configure("", Settings{}))
}

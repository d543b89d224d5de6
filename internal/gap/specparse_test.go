package gap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roadnerd/internal/types"
)

func writeSpec(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseSpecFileHeadings(t *testing.T) {
	path := writeSpec(t, t.TempDir(), "spec.md", `# Backup Tool

## FR1: Create backup archives [P0]

  - archive is written atomically
  - accepts 2 arguments

## FR2: Restore archives

Some prose that is not a criterion.

### NFR-1: Fast startup [P2]
`)

	reqs, err := ParseSpecFile(path)
	require.NoError(t, err)
	require.Len(t, reqs, 3)

	assert.Equal(t, "FR1", reqs[0].ID)
	assert.Equal(t, "Create backup archives", reqs[0].Title)
	assert.Equal(t, types.PriorityP0, reqs[0].Priority)
	assert.Equal(t, []string{"archive is written atomically", "accepts 2 arguments"}, reqs[0].AcceptanceCriteria)

	assert.Equal(t, "FR2", reqs[1].ID)
	assert.Equal(t, types.PriorityP2, reqs[1].Priority) // default tier
	assert.Empty(t, reqs[1].AcceptanceCriteria)

	assert.Equal(t, "NFR1", reqs[2].ID)
}

func TestParseSpecFileCheckboxesAndGlyphs(t *testing.T) {
	path := writeSpec(t, t.TempDir(), "status.md", `# Status

- [x] FR1: Export data
- [ ] FR2: Import data
- ✅ FR3: Sync settings
- ❌ FR4: Offline mode
`)

	reqs, err := ParseSpecFile(path)
	require.NoError(t, err)
	require.Len(t, reqs, 4)
	assert.True(t, reqs[0].DeclaredDone)
	assert.False(t, reqs[1].DeclaredDone)
	assert.True(t, reqs[2].DeclaredDone)
	assert.False(t, reqs[3].DeclaredDone)
}

func TestParseSpecFileFrontMatter(t *testing.T) {
	path := writeSpec(t, t.TempDir(), "auth.md", `---
title: Authentication
category: security
priority: P1
---

## FR1: Hash passwords
`)

	reqs, err := ParseSpecFile(path)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, "security", reqs[0].Category)
	assert.Equal(t, types.PriorityP1, reqs[0].Priority)
}

func TestParseSpecFileDuplicateIDsSuffixed(t *testing.T) {
	path := writeSpec(t, t.TempDir(), "dup.md", `## FR1: First thing

## FR1: Second thing
`)

	reqs, err := ParseSpecFile(path)
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, "FR1", reqs[0].ID)
	assert.Equal(t, "FR1-2", reqs[1].ID)
}

func TestParseSpecFileUntaggedBulletGetsSlugID(t *testing.T) {
	path := writeSpec(t, t.TempDir(), "plain.md", "- [ ] Support incremental backups\n")

	reqs, err := ParseSpecFile(path)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, "support-incremental-backups", reqs[0].ID)
}

func TestDiscoverSpecsSortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	writeSpec(t, dir, "b.md", "x")
	writeSpec(t, dir, "a.md", "x")
	writeSpec(t, dir, "image.png", "x")

	specs, err := DiscoverSpecs(dir, nil)
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, "a.md", filepath.Base(specs[0]))
}

func TestNormalizeReqID(t *testing.T) {
	assert.Equal(t, "FR1", normalizeReqID("fr-1"))
	assert.Equal(t, "FR1", normalizeReqID("FR 1"))
	assert.Equal(t, "REQ3", normalizeReqID("Requirement 3"))
	assert.Equal(t, "", normalizeReqID(""))
}

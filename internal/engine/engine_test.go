package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"roadnerd/internal/brainstorm"
	"roadnerd/internal/config"
	"roadnerd/internal/gap"
	"roadnerd/internal/roadmap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fixtureProject lays out a small project with one implemented and one
// missing requirement, plus a README with an overstated claim.
func fixtureProject(t *testing.T) (codeDir, specsDir, docsDir string) {
	t.Helper()
	root := t.TempDir()
	codeDir = filepath.Join(root, "src")
	specsDir = filepath.Join(root, "specs")
	docsDir = filepath.Join(root, "docs")
	for _, dir := range []string{codeDir, specsDir, docsDir} {
		require.NoError(t, os.MkdirAll(dir, 0o755))
	}

	write := func(path, content string) {
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	write(filepath.Join(codeDir, "backup.go"), `package backup

func CreateBackup(src, dst string) error {
	if src == "" {
		return nil
	}
	data := read(src)
	return write(dst, data)
}

func read(string) []byte        { return nil }
func write(string, []byte) error { return nil }
`)
	write(filepath.Join(codeDir, "backup_test.go"), `package backup

import "testing"

func TestCreateBackup(t *testing.T) {
	_ = CreateBackup("a", "b")
}
`)

	write(filepath.Join(specsDir, "backup.md"), `# Backup

## FR1: CreateBackup [P1]

## FR2: EncryptArchive [P0]
`)

	write(filepath.Join(docsDir, "README.md"), `# Backup Tool

## Features

- Encrypted archives
`)
	return codeDir, specsDir, docsDir
}

func testEngine(provider brainstorm.SuggestionProvider) *Engine {
	cfg := config.DefaultConfig()
	cfg.Execution.MaxConcurrentFiles = 2
	return New(cfg, provider)
}

func TestAnalyzeFullPipeline(t *testing.T) {
	codeDir, specsDir, docsDir := fixtureProject(t)

	provider := &brainstorm.StaticProvider{
		Fallback: `[{"name": "Compression levels", "description": "configurable zstd levels", "effort_hours": 6, "confidence": 0.6}]`,
	}

	res, err := testEngine(provider).Analyze(context.Background(), Input{
		Project:  "backup-tool",
		CodeDir:  codeDir,
		SpecsDir: specsDir,
		DocsDir:  docsDir,
	})
	require.NoError(t, err)
	require.NotNil(t, res.Roadmap)
	assert.False(t, res.Partial)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, res.RunID, res.Roadmap.Metadata.RunID)

	// FR1 is implemented and tested; FR2 is absent.
	require.Len(t, res.SpecGaps, 2)
	byReq := map[string]gap.SpecGap{}
	for _, g := range res.SpecGaps {
		byReq[g.Requirement.ID] = g
	}
	assert.Equal(t, gap.StatusComplete, byReq["FR1"].Status)
	assert.Equal(t, gap.StatusMissing, byReq["FR2"].Status)

	// The claimed-but-missing encryption feature is flagged.
	require.NotEmpty(t, res.FeatureGaps)
	assert.NotEqual(t, gap.ClaimAccurate, res.FeatureGaps[0].Status)

	// Completed requirements never become roadmap items; the missing one does.
	ids := map[string]bool{}
	for _, it := range res.Roadmap.Items {
		ids[it.ID] = true
	}
	assert.False(t, ids["gap-spec:backup.md:FR1"])
	assert.True(t, ids["gap-spec:backup.md:FR2"])

	// The brainstormed features survive dedup into a single enhancement.
	assert.True(t, ids["feat-compression-levels"])

	assert.Less(t, res.Completeness.Overall, 100.0)
	assert.NotEmpty(t, res.Roadmap.Phases)
	assert.Greater(t, res.Roadmap.Timeline.TotalHours, 0.0)
}

func TestAnalyzeWithoutProviderSkipsBrainstorm(t *testing.T) {
	codeDir, specsDir, _ := fixtureProject(t)

	res, err := testEngine(nil).Analyze(context.Background(), Input{
		Project:  "backup-tool",
		CodeDir:  codeDir,
		SpecsDir: specsDir,
	})
	require.NoError(t, err)
	assert.Empty(t, res.Features)
	for _, it := range res.Roadmap.Items {
		assert.NotEqual(t, roadmap.ItemEnhancement, it.Type)
	}
}

func TestAnalyzeExcludesPreviouslyResolvedItems(t *testing.T) {
	codeDir, specsDir, _ := fixtureProject(t)
	eng := testEngine(nil)
	in := Input{Project: "backup-tool", CodeDir: codeDir, SpecsDir: specsDir}

	first, err := eng.Analyze(context.Background(), in)
	require.NoError(t, err)
	item := first.Roadmap.ItemByID("gap-spec:backup.md:FR2")
	require.NotNil(t, item)
	item.Status = roadmap.StatusWontDo

	in.Previous = first.Roadmap
	second, err := eng.Analyze(context.Background(), in)
	require.NoError(t, err)
	assert.Nil(t, second.Roadmap.ItemByID("gap-spec:backup.md:FR2"))

	in.Reinstate = []string{"gap-spec:backup.md:FR2"}
	third, err := eng.Analyze(context.Background(), in)
	require.NoError(t, err)
	reinstated := third.Roadmap.ItemByID("gap-spec:backup.md:FR2")
	require.NotNil(t, reinstated)
	assert.Equal(t, roadmap.StatusPending, reinstated.Status)
}

// stalledProvider blocks until the run context expires, forcing the
// brainstorm stage past the deadline.
type stalledProvider struct{}

func (stalledProvider) Generate(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestAnalyzeDeadlineYieldsPartialResult(t *testing.T) {
	codeDir, specsDir, docsDir := fixtureProject(t)
	cfg := config.DefaultConfig()
	cfg.Execution.MaxConcurrentFiles = 2
	cfg.Execution.RunDeadline = "500ms"

	res, err := New(cfg, stalledProvider{}).Analyze(context.Background(), Input{
		Project:  "backup-tool",
		CodeDir:  codeDir,
		SpecsDir: specsDir,
		DocsDir:  docsDir,
	})
	require.NoError(t, err)
	assert.True(t, res.Partial)

	// Completed stages survive: the roadmap is still built from the gap
	// analysis, while the stalled brainstorm yields nothing.
	require.NotNil(t, res.Roadmap)
	assert.NotEmpty(t, res.Roadmap.Items)
	require.Len(t, res.SpecGaps, 2)
	assert.Empty(t, res.Features)

	found := false
	for _, w := range res.Roadmap.Warnings {
		if strings.Contains(w, "run deadline exceeded") {
			found = true
		}
	}
	assert.True(t, found, "partial-completion warning recorded")
}

func TestAnalyzeMissingCodeDirFails(t *testing.T) {
	_, err := testEngine(nil).Analyze(context.Background(), Input{
		Project: "ghost",
		CodeDir: filepath.Join(t.TempDir(), "does-not-exist"),
	})
	assert.Error(t, err)
}

func TestAnalyzeDeterministicItemOrder(t *testing.T) {
	codeDir, specsDir, docsDir := fixtureProject(t)
	eng := testEngine(nil)
	in := Input{Project: "backup-tool", CodeDir: codeDir, SpecsDir: specsDir, DocsDir: docsDir}

	first, err := eng.Analyze(context.Background(), in)
	require.NoError(t, err)
	second, err := eng.Analyze(context.Background(), in)
	require.NoError(t, err)

	require.Equal(t, len(first.Roadmap.Items), len(second.Roadmap.Items))
	for i := range first.Roadmap.Items {
		assert.Equal(t, first.Roadmap.Items[i].ID, second.Roadmap.Items[i].ID)
		assert.Equal(t, first.Roadmap.Items[i].Phase, second.Roadmap.Items[i].Phase)
	}
}

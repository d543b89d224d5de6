package gap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roadnerd/internal/config"
	"roadnerd/internal/world"
)

// indexOf builds a symbol index without touching tree-sitter.
func indexOf(files ...*world.ParsedFile) *world.Index {
	return world.NewIndex(files)
}

func specAnalyzer() *SpecAnalyzer {
	return NewSpecAnalyzer(config.DefaultConfig(), nil)
}

func TestAnalyzeWithIndexMissingRequirement(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "spec.md"),
		[]byte("## FR1: Quantum teleportation [P0]\n"), 0o644))

	gaps, warnings, err := specAnalyzer().AnalyzeWithIndex(context.Background(), dir, indexOf(), nil)
	require.NoError(t, err)
	require.Len(t, gaps, 1)
	assert.Empty(t, warnings)

	g := gaps[0]
	assert.Equal(t, StatusMissing, g.Status)
	// A confirmed absence in a fully parsed codebase is high confidence.
	assert.GreaterOrEqual(t, g.Confidence, 85)
	assert.False(t, g.Excluded)
	assert.Greater(t, g.Effort.Range.Realistic, 0.0)
}

func TestAnalyzeWithIndexCompleteRequirement(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "spec.md"),
		[]byte("## FR1: CreateBackup\n"), 0o644))

	idx := indexOf(
		&world.ParsedFile{Path: "backup.go", Language: "go", Symbols: []world.Symbol{{
			Name: "CreateBackup", Kind: world.KindFunction, File: "backup.go", Line: 3,
			ParamCount: 2, Body: "a\nb\nc\nd\nif x {\n}\n", BodyLines: 6, HasBranch: true,
		}}},
		&world.ParsedFile{Path: "backup_test.go", Language: "go", Symbols: []world.Symbol{{
			Name: "TestCreateBackup", Kind: world.KindFunction, File: "backup_test.go", Line: 5,
		}}},
	)

	gaps, _, err := specAnalyzer().AnalyzeWithIndex(context.Background(), dir, idx, nil)
	require.NoError(t, err)
	require.Len(t, gaps, 1)

	g := gaps[0]
	assert.Equal(t, StatusComplete, g.Status)
	assert.Equal(t, "backup.go:3", g.ActualLocation)
	assert.Equal(t, 0.0, g.Effort.Range.Realistic)
}

func TestAnalyzeWithIndexStubDetected(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "spec.md"),
		[]byte("## FR1: ExportReport\n"), 0o644))

	idx := indexOf(&world.ParsedFile{Path: "report.go", Language: "go", Symbols: []world.Symbol{{
		Name: "ExportReport", Kind: world.KindFunction, File: "report.go", Line: 9,
		Body: `panic("not implemented")`, BodyLines: 1, HasBranch: false,
	}}})

	gaps, _, err := specAnalyzer().AnalyzeWithIndex(context.Background(), dir, idx, nil)
	require.NoError(t, err)
	require.Len(t, gaps, 1)
	assert.Equal(t, StatusStub, gaps[0].Status)
}

func TestAnalyzeWithIndexScanFailuresLowerConfidence(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "spec.md"),
		[]byte("## FR1: HiddenFeature\n"), 0o644))

	clean, _, err := specAnalyzer().AnalyzeWithIndex(context.Background(), dir, indexOf(), nil)
	require.NoError(t, err)

	failures := []world.ScanFailure{{Path: "broken.go", Err: assert.AnError}}
	degraded, warnings, err := specAnalyzer().AnalyzeWithIndex(context.Background(), dir, indexOf(), failures)
	require.NoError(t, err)
	require.Len(t, degraded, 1)

	assert.Less(t, degraded[0].Confidence, clean[0].Confidence)
	assert.NotEmpty(t, warnings)
}

func TestAnalyzeWithIndexArityHint(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "spec.md"),
		[]byte("## FR1: SendMessage\n\n  - takes 3 arguments\n"), 0o644))

	idx := indexOf(&world.ParsedFile{Path: "msg.go", Language: "go", Symbols: []world.Symbol{{
		Name: "SendMessage", Kind: world.KindFunction, File: "msg.go", Line: 1,
		ParamCount: 1, Body: "a\nb\nc\nd\nif x {\n}", BodyLines: 6, HasBranch: true,
	}}})

	gaps, _, err := specAnalyzer().AnalyzeWithIndex(context.Background(), dir, idx, nil)
	require.NoError(t, err)
	require.Len(t, gaps, 1)

	assert.Equal(t, StatusPartial, gaps[0].Status)
	var sawMismatch bool
	for _, e := range gaps[0].Evidence {
		if e.Type == EvidenceArityMismatch {
			sawMismatch = true
		}
	}
	assert.True(t, sawMismatch)
}

func TestAnalyzeWithIndexMissingSpecDirWarns(t *testing.T) {
	gaps, warnings, err := specAnalyzer().AnalyzeWithIndex(context.Background(), t.TempDir(), indexOf(), nil)
	require.NoError(t, err)
	assert.Empty(t, gaps)
	assert.NotEmpty(t, warnings)
}

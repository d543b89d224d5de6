package world

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"roadnerd/internal/logging"
)

// skipDirs are directory names never descended into during discovery.
var skipDirs = map[string]bool{
	".git": true, "node_modules": true, "vendor": true, "dist": true,
	"build": true, "target": true, "__pycache__": true, ".venv": true,
	".idea": true, ".vscode": true,
}

// Scanner discovers and parses source files into a symbol index.
// Parse failures on individual files are collected, never fatal.
type Scanner struct {
	cache       *ParseCache
	concurrency int
}

// NewScanner creates a scanner with the given run-scoped cache and
// worker pool size (<=0 defaults to 10).
func NewScanner(cache *ParseCache, concurrency int) *Scanner {
	if concurrency <= 0 {
		concurrency = 10
	}
	if cache == nil {
		cache = NewParseCache(0)
	}
	return &Scanner{cache: cache, concurrency: concurrency}
}

// Discover walks root and returns all supported source file paths, sorted.
func (s *Scanner) Discover(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			// unreadable entry: skip, don't abort the walk
			logging.WorldDebug("discover: skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if skipDirs[d.Name()] || (strings.HasPrefix(d.Name(), ".") && path != root) {
				return filepath.SkipDir
			}
			return nil
		}
		if LanguageForPath(path) != "" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// ScanResult is the outcome of scanning a codebase directory.
type ScanResult struct {
	Index    *Index
	Failures []ScanFailure
}

// ScanFailure records a per-file parse or read error.
type ScanFailure struct {
	Path string
	Err  error
}

// Scan discovers and parses all source files under root concurrently,
// merging per-file results into one Index after all workers complete.
func (s *Scanner) Scan(ctx context.Context, root string) (*ScanResult, error) {
	start := time.Now()
	files, err := s.Discover(root)
	if err != nil {
		return nil, err
	}
	logging.World("Scanning %s: %d source files, %d workers", root, len(files), s.concurrency)

	var mu sync.Mutex
	parsed := make([]*ParsedFile, 0, len(files))
	var failures []ScanFailure

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(s.concurrency)

	for _, path := range files {
		eg.Go(func() error {
			// Each worker owns its parser; tree-sitter parsers are not
			// safe for concurrent use.
			pf, err := s.parseOne(egCtx, path)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, ScanFailure{Path: path, Err: err})
				return nil // per-file failure never aborts the batch
			}
			parsed = append(parsed, pf)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	idx := NewIndex(parsed)
	logging.World("Scan complete: %d files parsed, %d failures, %d symbols in %v",
		len(parsed), len(failures), idx.SymbolCount(), time.Since(start))
	return &ScanResult{Index: idx, Failures: failures}, nil
}

// parseOne reads and parses a single file, consulting the cache first.
func (s *Scanner) parseOne(ctx context.Context, path string) (*ParsedFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if pf, ok := s.cache.Get(path, info.ModTime()); ok {
		return pf, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	parser := NewTreeSitterParser()
	defer parser.Close()

	pf, err := parser.Parse(ctx, path, content)
	if err != nil {
		return nil, err
	}
	s.cache.Put(path, info.ModTime(), pf)
	return pf, nil
}

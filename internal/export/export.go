// Package export renders roadmaps to markdown, JSON, CSV, and issue-tracker
// records. All writes are atomic (temp file plus rename) and all output is
// deterministic except the generation timestamp in the metadata block.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"roadnerd/internal/logging"
	"roadnerd/internal/roadmap"
)

// Format names a supported export format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatIssues   Format = "issues"
)

// AllFormats lists supported formats in canonical order.
var AllFormats = []Format{FormatMarkdown, FormatJSON, FormatCSV, FormatIssues}

// fileNames maps formats to their output file names.
var fileNames = map[Format]string{
	FormatMarkdown: "ROADMAP.md",
	FormatJSON:     "roadmap.json",
	FormatCSV:      "roadmap.csv",
	FormatIssues:   "issues.json",
}

// ExportError records a single format's failure.
type ExportError struct {
	Format Format
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export %s: %v", e.Format, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }

// Export writes the roadmap to dir in the requested formats. One format
// failing never blocks the others; all failures are returned together.
func Export(rm *roadmap.Roadmap, dir string, formats []Format) ([]string, []error) {
	if len(formats) == 0 {
		formats = AllFormats
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, []error{fmt.Errorf("create output dir: %w", err)}
	}

	var written []string
	var errs []error
	for _, f := range formats {
		name, ok := fileNames[f]
		if !ok {
			errs = append(errs, &ExportError{Format: f, Err: fmt.Errorf("unknown format")})
			continue
		}
		path := filepath.Join(dir, name)

		var data []byte
		var err error
		switch f {
		case FormatMarkdown:
			data = RenderMarkdown(rm)
		case FormatJSON:
			data, err = MarshalRoadmap(rm)
		case FormatCSV:
			data, err = RenderCSV(rm)
		case FormatIssues:
			data, err = RenderIssues(rm)
		}
		if err == nil {
			err = writeAtomic(path, data)
		}
		if err != nil {
			errs = append(errs, &ExportError{Format: f, Err: err})
			logging.Export("export %s failed: %v", f, err)
			continue
		}
		written = append(written, path)
		logging.ExportDebug("wrote %s (%d bytes)", path, len(data))
	}

	sort.Strings(written)
	logging.Export("Exported %d file(s), %d failure(s)", len(written), len(errs))
	return written, errs
}

// writeAtomic writes data to path via a temp file in the same directory and
// an atomic rename, so readers never observe a partial file.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}

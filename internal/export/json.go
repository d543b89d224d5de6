package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"roadnerd/internal/roadmap"
)

// MarshalRoadmap serializes a roadmap as indented JSON with a trailing
// newline. Marshal then Unmarshal yields an equal roadmap: every field is
// tagged, maps use string-compatible keys, and timestamps are RFC 3339.
func MarshalRoadmap(rm *roadmap.Roadmap) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(rm); err != nil {
		return nil, fmt.Errorf("marshal roadmap: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalRoadmap is the inverse of MarshalRoadmap.
func UnmarshalRoadmap(data []byte) (*roadmap.Roadmap, error) {
	var rm roadmap.Roadmap
	if err := json.Unmarshal(data, &rm); err != nil {
		return nil, fmt.Errorf("unmarshal roadmap: %w", err)
	}
	return &rm, nil
}

// LoadRoadmap reads a previously exported roadmap.json artifact.
func LoadRoadmap(path string) (*roadmap.Roadmap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roadmap %s: %w", path, err)
	}
	return UnmarshalRoadmap(data)
}

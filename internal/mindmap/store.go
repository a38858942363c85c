package mindmap

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SaveTree writes one serialized tree per file under dir.
func SaveTree(dir, filename string, tree *MindMap) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir %q: %w", dir, err)
	}
	text, err := tree.ToJSON()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	return nil
}

// LoadTree reads a previously saved tree. Loaded trees go through the same
// parse chain as LLM output, so a hand-edited file still gets validated.
func LoadTree(dir, filename string) (*MindMap, error) {
	path := filepath.Join(dir, filename)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}
	tree, _, err := Parse(string(data))
	return tree, err
}

// SeriesEntry is one interval of a dynamic generation series.
type SeriesEntry struct {
	Interval string   `json:"interval"`
	Tree     *MindMap `json:"tree,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// SaveSeries writes an ordered dynamic series, interval labels included,
// as a single file.
func SaveSeries(dir, filename string, entries []SeriesEntry) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir %q: %w", dir, err)
	}
	serializable := make([]SeriesEntry, len(entries))
	for i, e := range entries {
		serializable[i] = e
		if e.Tree != nil {
			serializable[i].Tree = e.Tree.toSerializable()
		}
	}
	data, err := json.MarshalIndent(serializable, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal series: %w", err)
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	return nil
}

// LoadSeries reads a series written by SaveSeries.
func LoadSeries(dir, filename string) ([]SeriesEntry, error) {
	path := filepath.Join(dir, filename)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %q: %w", path, err)
	}
	var entries []SeriesEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse series %q: %w", path, err)
	}
	return entries, nil
}

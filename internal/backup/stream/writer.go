// Package stream reads and writes the entries of a backup archive: single
// JSON documents (manifest, settings) and JSONL record files.
package stream

import (
	"archive/zip"
	"encoding/json"
	"fmt"
)

// Document writes v as one JSON document at name.
func Document(zw *zip.Writer, name string, v any) error {
	w, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("create %s: %w", name, err)
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return nil
}

// Lines writes items at name, one JSON object per line, and returns how
// many were written before any failure.
func Lines[T any](zw *zip.Writer, name string, items []T) (int, error) {
	w, err := zw.Create(name)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", name, err)
	}

	enc := json.NewEncoder(w)
	for i, item := range items {
		if err := enc.Encode(item); err != nil {
			return i, &LineError{Name: name, Line: i + 1, Err: err}
		}
	}
	return len(items), nil
}

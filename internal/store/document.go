package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// writeDocument serializes v and replaces the document at path atomically
// (temp file + rename), so a crash mid-write never leaves a torn document.
func writeDocument(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace document: %w", err)
	}
	return nil
}

// readDocument loads the document at path into v. A missing file is not an
// error; the caller keeps its zero-value collection.
func readDocument(path string, v any) (found bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read document: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("parse document %s: %w", filepath.Base(path), err)
	}
	return true, nil
}

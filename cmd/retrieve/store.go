package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/arete-go/retrieval/schema"
)

// passageFile is the on-disk record of every passage the local index
// knows about, the source of truth the index and vector store are rebuilt
// from on each invocation (per the spec's "persisted state layout": the
// core itself is stateless-in-memory, so a fresh process regenerates C1
// from scratch and reloads the vector store from its own persistence dir).
type passageFile struct {
	Passages []schema.Passage `json:"passages"`
}

func passagesPath(dataDir string) string {
	return filepath.Join(dataDir, "passages.json")
}

func chromemPath(dataDir string) string {
	return filepath.Join(dataDir, "chromem")
}

func loadPassages(dataDir string) ([]schema.Passage, error) {
	path := passagesPath(dataDir)
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var pf passageFile
	if err := json.Unmarshal(raw, &pf); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return pf.Passages, nil
}

func savePassages(dataDir string, passages []schema.Passage) error {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir %s: %w", dataDir, err)
	}
	raw, err := json.MarshalIndent(passageFile{Passages: passages}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode passages: %w", err)
	}
	if err := os.WriteFile(passagesPath(dataDir), raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", passagesPath(dataDir), err)
	}
	return nil
}

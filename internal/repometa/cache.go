package repometa

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileCache stores API responses as JSON files named after the catalog
// identifier. Entries never expire; delete the file to refresh one.
type FileCache struct {
	dir string
}

// NewFileCache returns a cache rooted at dir.
func NewFileCache(dir string) *FileCache {
	return &FileCache{dir: dir}
}

type contributorsEntry struct {
	Count int64 `json:"count"`
}

// Repository loads the cached repository document of id.
func (c *FileCache) Repository(id string) (map[string]any, bool, error) {
	var doc map[string]any
	ok, err := c.load(id+".json", &doc)
	return doc, ok, err
}

// StoreRepository writes the repository document of id with sorted keys.
func (c *FileCache) StoreRepository(id string, doc map[string]any) error {
	return c.store(id+".json", doc)
}

// Contributors loads the cached contributor count of id.
func (c *FileCache) Contributors(id string) (int64, bool, error) {
	var entry contributorsEntry
	ok, err := c.load(id+"_contributors.json", &entry)
	return entry.Count, ok, err
}

// StoreContributors writes the contributor count of id.
func (c *FileCache) StoreContributors(id string, count int64) error {
	return c.store(id+"_contributors.json", contributorsEntry{Count: count})
}

func (c *FileCache) load(name string, out any) (bool, error) {
	path := filepath.Join(c.dir, name)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("repometa cache: read %s: %w", path, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return false, fmt.Errorf("repometa cache: decode %s: %w", path, err)
	}
	return true, nil
}

func (c *FileCache) store(name string, value any) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("repometa cache: %w", err)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		return fmt.Errorf("repometa cache: encode %s: %w", name, err)
	}
	path := filepath.Join(c.dir, name)
	if err := os.WriteFile(path, bytes.TrimSuffix(buf.Bytes(), []byte("\n")), 0o644); err != nil {
		return fmt.Errorf("repometa cache: write %s: %w", path, err)
	}
	return nil
}

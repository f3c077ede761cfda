package markdown

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Entry is one catalog document read from disk.
type Entry struct {
	// ID is the file name without the .md extension.
	ID string
	// Path is slash-separated and relative to the loader root.
	Path   string
	Source []byte
}

// Index documents that live next to entries but describe none.
var skippedNames = map[string]struct{}{
	"README.md": {},
	"index.md":  {},
}

// Loader discovers catalog documents inside a filesystem root.
type Loader struct {
	fsys fs.FS
}

// NewLoader constructs a loader over fsys.
func NewLoader(fsys fs.FS) *Loader {
	return &Loader{fsys: fsys}
}

// NewDirLoader constructs a loader rooted at a directory on disk.
func NewDirLoader(root string) *Loader {
	return NewLoader(os.DirFS(root))
}

// Discover lists document paths matching pattern in lexical order,
// excluding README.md and index.md.
func (l *Loader) Discover(ctx context.Context, pattern string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	matches, err := fs.Glob(l.fsys, filepath.ToSlash(pattern))
	if err != nil {
		return nil, fmt.Errorf("markdown loader glob %s: %w", pattern, err)
	}
	out := matches[:0]
	for _, match := range matches {
		if _, skip := skippedNames[path.Base(match)]; skip {
			continue
		}
		out = append(out, match)
	}
	sort.Strings(out)
	return out, nil
}

// Load reads every document matching pattern.
func (l *Loader) Load(ctx context.Context, pattern string) ([]Entry, error) {
	paths, err := l.Discover(ctx, pattern)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(paths))
	for _, p := range paths {
		entry, err := l.LoadFile(ctx, p)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// LoadFile reads a single document by its root-relative path.
func (l *Loader) LoadFile(ctx context.Context, name string) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	name = filepath.ToSlash(name)
	data, err := fs.ReadFile(l.fsys, name)
	if err != nil {
		return Entry{}, fmt.Errorf("markdown loader read %s: %w", name, err)
	}
	return Entry{
		ID:     strings.TrimSuffix(path.Base(name), ".md"),
		Path:   name,
		Source: data,
	}, nil
}

// WriteIfChanged writes updated to path unless it equals original. It reports
// whether the file was written.
func WriteIfChanged(path string, original, updated []byte) (bool, error) {
	if bytes.Equal(original, updated) {
		return false, nil
	}
	mode := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, updated, mode); err != nil {
		return false, fmt.Errorf("markdown write %s: %w", path, err)
	}
	return true, nil
}

// Package export writes the merged catalog rows as JSON and JSONP files.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/goliatone/go-jszoo/internal/catalog"
)

// EncodeJSON renders rows with two-space indentation and no HTML escaping.
// Object keys come out sorted; there is no trailing newline.
func EncodeJSON(rows []catalog.Row) ([]byte, error) {
	if rows == nil {
		rows = []catalog.Row{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rows); err != nil {
		return nil, fmt.Errorf("export: encode rows: %w", err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// WriteJSON streams the JSON export of rows to w.
func WriteJSON(w io.Writer, rows []catalog.Row) error {
	data, err := EncodeJSON(rows)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// WriteJSONP streams the JavaScript companion: banner comment lines, then
// "const <variable> = <json>".
func WriteJSONP(w io.Writer, banner []string, variable string, rows []catalog.Row) error {
	variable = strings.TrimSpace(variable)
	if variable == "" {
		return fmt.Errorf("export: jsonp variable name is required")
	}
	data, err := EncodeJSON(rows)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	for _, line := range banner {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	buf.WriteString("const ")
	buf.WriteString(variable)
	buf.WriteString(" = ")
	buf.Write(data)
	_, err = w.Write(buf.Bytes())
	return err
}

// Files writes the JSON export to jsonPath and, when variable is set, the
// JSONP companion next to it with a .js extension. It returns the written paths.
func Files(jsonPath string, banner []string, variable string, rows []catalog.Row) ([]string, error) {
	var jsonBuf bytes.Buffer
	if err := WriteJSON(&jsonBuf, rows); err != nil {
		return nil, err
	}
	if err := writeFile(jsonPath, jsonBuf.Bytes()); err != nil {
		return nil, err
	}
	written := []string{jsonPath}
	if strings.TrimSpace(variable) == "" {
		return written, nil
	}

	jsPath := strings.TrimSuffix(jsonPath, filepath.Ext(jsonPath)) + ".js"
	var jsBuf bytes.Buffer
	if err := WriteJSONP(&jsBuf, banner, variable, rows); err != nil {
		return written, err
	}
	if err := writeFile(jsPath, jsBuf.Bytes()); err != nil {
		return written, err
	}
	return append(written, jsPath), nil
}

// writeFile leaves path untouched when it already holds data.
func writeFile(path string, data []byte) error {
	existing, err := os.ReadFile(path)
	switch {
	case err == nil && bytes.Equal(existing, data):
		return nil
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("export: read %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("export: create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	return nil
}

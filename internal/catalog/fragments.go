package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// FragmentValidator checks decoded fragment payloads before merging.
type FragmentValidator interface {
	ValidateDist(payload any) error
	ValidateBench(payload any) error
}

// LoadDistDir merges every dir/*.json distribution fragment for arch.
// A missing directory is not an error.
func (m *Merger) LoadDistDir(ctx context.Context, dir, arch string) error {
	files, err := jsonFiles(dir)
	if err != nil {
		return err
	}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		raw, err := readJSON(file)
		if err != nil {
			return err
		}
		if m.validator != nil {
			if err := m.validator.ValidateDist(raw); err != nil {
				return &DataError{Path: file, Msg: err.Error()}
			}
		}
		fragment, ok := raw.(map[string]any)
		if !ok {
			return &DataError{Path: file, Msg: "fragment must be a JSON object"}
		}
		m.logger.Debug("catalog.dist.apply", "file", file, "arch", arch)
		if err := m.ApplyDist(arch, file, fragment); err != nil {
			return err
		}
	}
	return nil
}

// LoadBenchDir merges every dir/*.json benchmark run for arch.
func (m *Merger) LoadBenchDir(ctx context.Context, dir, arch string) error {
	files, err := jsonFiles(dir)
	if err != nil {
		return err
	}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("catalog: read %s: %w", file, err)
		}
		if m.validator != nil {
			raw, err := decodeJSON(file, data)
			if err != nil {
				return err
			}
			if err := m.validator.ValidateBench(raw); err != nil {
				return &DataError{Path: file, Msg: err.Error()}
			}
		}
		var fragment BenchFragment
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber()
		if err := decoder.Decode(&fragment); err != nil {
			return &DataError{Path: file, Msg: fmt.Sprintf("invalid benchmark file: %v", err)}
		}
		m.logger.Debug("catalog.bench.apply", "file", file, "arch", arch)
		if err := m.ApplyBench(arch, file, fragment); err != nil {
			return err
		}
	}
	return nil
}

func jsonFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("catalog: list %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

func readJSON(file string) (any, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", file, err)
	}
	return decodeJSON(file, data)
}

func decodeJSON(file string, data []byte) (any, error) {
	var raw any
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&raw); err != nil {
		return nil, &DataError{Path: file, Msg: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return raw, nil
}

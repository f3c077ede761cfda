package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
	"strings"
)

// Row keys shared by every catalog entry.
const (
	KeyID          = "id"
	KeyEngine      = "engine"
	KeyVariant     = "variant"
	KeyArch        = "arch"
	KeyTitle       = "title"
	KeySummary     = "summary"
	KeyURL         = "jsz_url"
	KeyMarkdown    = "markdown"
	KeyBench       = "bench"
	KeyConformance = "conformance"

	DetailedSuffix = "_detailed"
	ErrorSuffix    = "_error"
)

// Row is one output record. Values are strings, integers, json.Number,
// nested rows, or lists of rows.
type Row map[string]any

// ID returns the row identifier.
func (r Row) ID() string {
	return r.Text(KeyID)
}

// Text renders the value under key as display text; missing keys render empty.
func (r Row) Text(key string) string {
	value, ok := r[key]
	if !ok || value == nil {
		return ""
	}
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// Number returns the value under key as a float when it is numeric.
func (r Row) Number(key string) (float64, bool) {
	switch v := r[key].(type) {
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Has reports whether key holds a non-empty value.
func (r Row) Has(key string) bool {
	value, ok := r[key]
	if !ok || value == nil {
		return false
	}
	if s, isString := value.(string); isString {
		return s != ""
	}
	return true
}

// Clone returns a shallow copy; nested bench rows are copied too.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	maps.Copy(out, r)
	if bench, ok := r[KeyBench].([]Row); ok {
		copied := make([]Row, len(bench))
		for i, entry := range bench {
			copied[i] = entry.Clone()
		}
		out[KeyBench] = copied
	}
	return out
}

// SplitID separates an identifier into engine and variant at the first "_".
func SplitID(id string) (engine, variant string) {
	engine, variant, _ = strings.Cut(id, "_")
	return engine, variant
}

// DataError reports an inconsistent input set.
type DataError struct {
	Path string
	Msg  string
}

func (e *DataError) Error() string {
	if e.Path == "" {
		return "catalog: " + e.Msg
	}
	return e.Path + ": " + e.Msg
}

// valuesEqual compares values by their JSON encoding so numbers decoded as
// json.Number match integers parsed from documents.
func valuesEqual(a, b any) bool {
	left, errA := json.Marshal(a)
	right, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return fmt.Sprint(a) == fmt.Sprint(b)
	}
	return bytes.Equal(left, right)
}

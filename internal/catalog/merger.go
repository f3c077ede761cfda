package catalog

import (
	"encoding/json"
	"fmt"
	"maps"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goliatone/go-jszoo/internal/logging"
	"github.com/goliatone/go-jszoo/internal/metadata"
	"github.com/goliatone/go-jszoo/pkg/interfaces"
)

// Variants that only exist for conformance runs.
const (
	variantFull    = "full"
	variantIntl    = "intl"
	variantJitless = "jitless"
)

// BenchFragment is one benchmark run file.
type BenchFragment struct {
	Metadata   map[string]any            `json:"metadata"`
	Benchmarks map[string]map[string]any `json:"benchmarks"`
}

// ScoreSource resolves conformance scores by name.
type ScoreSource interface {
	Scores(name string) (map[string]float64, bool)
}

// Option configures a Merger.
type Option func(*Merger)

// WithLinksBase sets the URL prefix used for jsz_url.
func WithLinksBase(base string) Option {
	return func(m *Merger) {
		m.linksBase = base
	}
}

// WithLogger injects the merger logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(m *Merger) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithValidator checks fragments before they are merged.
func WithValidator(v FragmentValidator) Option {
	return func(m *Merger) {
		m.validator = v
	}
}

// Merger folds parsed documents and external fragments into output rows.
type Merger struct {
	kind      string
	linksBase string
	logger    interfaces.Logger
	validator FragmentValidator

	rows  map[string]Row
	order []string
	bench map[string]map[string]Row
}

// NewMerger creates a merger for one catalog kind ("engine", "parser").
func NewMerger(kind string, opts ...Option) *Merger {
	m := &Merger{
		kind:   kind,
		logger: logging.NoOp(),
		rows:   map[string]Row{},
		bench:  map[string]map[string]Row{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Kind returns the catalog kind.
func (m *Merger) Kind() string {
	return m.kind
}

// AddDocument creates the row for id from a parsed document.
func (m *Merger) AddDocument(id, file string, doc *metadata.Document, source []byte) (Row, error) {
	if _, exists := m.rows[id]; exists {
		return nil, &DataError{Path: file, Msg: fmt.Sprintf("duplicate identifier %q", id)}
	}

	row := Row{KeyID: id}
	if engine, variant := SplitID(id); variant != "" {
		row[KeyEngine] = engine
		row[KeyVariant] = variant
	}
	row[KeyTitle] = doc.Title
	row[KeySummary] = metadata.StripMarkdownLinks(doc.Summary)
	row[KeyURL] = m.linksBase + m.kind + "s/" + path.Base(filepath.ToSlash(file))
	row[KeyMarkdown] = string(source)

	values, conflicts := doc.Values()
	for _, c := range conflicts {
		m.logger.Warn("catalog.field.conflict",
			"id", id,
			"output_key", c.OutputKey,
			"first_line", c.First.Line,
			"second_line", c.Second.Line,
			"kept", c.Second.Text,
		)
	}
	for _, v := range values {
		row[v.OutputKey] = v.Simplified
		delete(row, v.OutputKey+DetailedSuffix)
		if v.DropDetailed || !v.DetailedDiffers() {
			continue
		}
		row[v.OutputKey+DetailedSuffix] = v.Detailed
	}

	m.rows[id] = row
	m.order = append(m.order, id)
	return row, nil
}

// Lookup returns the live row for id so enrichers can add fields.
func (m *Merger) Lookup(id string) (Row, bool) {
	row, ok := m.rows[id]
	return row, ok
}

// IDs lists identifiers in insertion order, variants included.
func (m *Merger) IDs() []string {
	return append([]string(nil), m.order...)
}

// ApplyDist merges a distribution fragment read from file under arch.
func (m *Merger) ApplyDist(arch, file string, fragment map[string]any) error {
	engine, variant, ok, err := m.resolveFragment(arch, file, fragment)
	if err != nil || !ok {
		return err
	}
	if variant == variantFull || variant == variantIntl {
		return nil
	}
	if !hasPayload(fragment) {
		return nil
	}

	entry := Row{}
	if variant != "" {
		if variantRow, found := m.rows[engine+"_"+variant]; found {
			maps.Copy(entry, variantRow)
		}
	}
	maps.Copy(entry, fragment)
	m.benchFor(engine)[benchKey(arch, engine, variant)] = entry
	return nil
}

// ApplyBench merges a benchmark run read from file under arch.
func (m *Merger) ApplyBench(arch, file string, fragment BenchFragment) error {
	meta := fragment.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	engine, variant, ok, err := m.resolveFragment(arch, file, meta)
	if err != nil || !ok {
		return err
	}
	if variant == variantFull {
		return nil
	}

	key := benchKey(arch, engine, variant)
	entry := Row{}
	if existing, found := m.bench[engine][key]; found {
		maps.Copy(entry, existing)
	}
	maps.Copy(entry, meta)
	if variant == variantJitless {
		entry["jit"] = ""
	}

	columns := make([]string, 0, len(fragment.Benchmarks))
	for col := range fragment.Benchmarks {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	for _, col := range columns {
		result := fragment.Benchmarks[col]
		if result == nil {
			return &DataError{Path: file, Msg: fmt.Sprintf("benchmark %q is not an object", col)}
		}
		scores, err := scoreSeries(result["score"])
		if err != nil {
			return &DataError{Path: file, Msg: fmt.Sprintf("benchmark %q: %v", col, err)}
		}
		if len(scores) > 0 {
			median, _ := Median(scores)
			summary, _ := SummarizeScores(scores)
			entry[col] = median
			entry[col+DetailedSuffix] = summary
			continue
		}
		if msg, _ := result["error"].(string); msg != "" {
			entry[col+ErrorSuffix] = msg
		}
	}

	m.benchFor(engine)[key] = entry
	return nil
}

// AttachConformance sets the conformance scores of every row, matching the
// identifier first and the engine part second.
func (m *Merger) AttachConformance(src ScoreSource) {
	if src == nil {
		return
	}
	for _, id := range m.order {
		engine, _ := SplitID(id)
		scores, ok := src.Scores(id)
		if !ok {
			scores, ok = src.Scores(engine)
		}
		if ok && len(scores) > 0 {
			m.rows[id][KeyConformance] = maps.Clone(scores)
		}
	}
}

// Rows returns the final rows: variant rows dropped, bench entries flattened
// in key order with parent-equal fields elided.
func (m *Merger) Rows() []Row {
	out := make([]Row, 0, len(m.order))
	for _, id := range m.order {
		parent := m.rows[id]
		if _, isVariant := parent[KeyVariant]; isVariant {
			continue
		}
		row := parent.Clone()
		delete(row, KeyBench)

		entries := m.bench[id]
		keys := make([]string, 0, len(entries))
		for key := range entries {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		flat := make([]Row, 0, len(keys))
		for _, key := range keys {
			entry := entries[key].Clone()
			delete(entry, KeyEngine)
			for field, value := range parent {
				if other, ok := entry[field]; ok && valuesEqual(other, value) {
					delete(entry, field)
				}
			}
			delete(entry, KeyTitle)
			delete(entry, KeyBench)
			flat = append(flat, entry)
		}
		if len(flat) > 0 {
			row[KeyBench] = flat
		}
		out = append(out, row)
	}
	return out
}

func (m *Merger) resolveFragment(arch, file string, fragment map[string]any) (engine, variant string, ok bool, err error) {
	engine, _ = fragment[KeyEngine].(string)
	if engine == "" {
		return "", "", false, nil
	}
	if _, known := m.rows[engine]; !known {
		m.logger.Debug("catalog.fragment.stale", "file", file, "engine", engine)
		return "", "", false, nil
	}
	variant, _ = fragment[KeyVariant].(string)
	if !strings.HasSuffix(file, variant+".json") {
		return "", "", false, &DataError{Path: file, Msg: fmt.Sprintf("file name does not end with variant %q", variant)}
	}
	if declared, present := fragment[KeyArch]; present && declared != arch {
		return "", "", false, &DataError{Path: file, Msg: fmt.Sprintf("arch %v does not match directory %s", declared, arch)}
	}
	return engine, variant, true, nil
}

func (m *Merger) benchFor(engine string) map[string]Row {
	entries, ok := m.bench[engine]
	if !ok {
		entries = map[string]Row{}
		m.bench[engine] = entries
	}
	return entries
}

func benchKey(arch, engine, variant string) string {
	return arch + "/" + engine + "/" + variant
}

func hasPayload(fragment map[string]any) bool {
	for key := range fragment {
		switch key {
		case KeyArch, KeyVariant, KeyEngine:
		default:
			return true
		}
	}
	return false
}

func scoreSeries(value any) ([]json.Number, error) {
	if value == nil {
		return nil, nil
	}
	list, ok := value.([]any)
	if !ok {
		return nil, fmt.Errorf("score must be a list, got %T", value)
	}
	out := make([]json.Number, 0, len(list))
	for _, item := range list {
		switch v := item.(type) {
		case json.Number:
			out = append(out, v)
		case float64:
			out = append(out, json.Number(fmt.Sprint(v)))
		case int:
			out = append(out, json.Number(fmt.Sprint(v)))
		default:
			return nil, fmt.Errorf("score entries must be numbers, got %T", item)
		}
	}
	return out, nil
}

package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-jszoo/internal/metadata"
)

type stubScores map[string]map[string]float64

func (s stubScores) Scores(name string) (map[string]float64, bool) {
	scores, ok := s[name]
	return scores, ok
}

func addDoc(t *testing.T, m *Merger, id, src string) Row {
	t.Helper()
	file := "engines/" + id + ".md"
	doc, err := metadata.Parse(file, []byte(src), metadata.DefaultRegistry())
	if err != nil {
		t.Fatalf("Parse(%s) returned error: %v", id, err)
	}
	row, err := m.AddDocument(id, file, doc, []byte(src))
	if err != nil {
		t.Fatalf("AddDocument(%s) returned error: %v", id, err)
	}
	return row
}

const fooDoc = "# Foo\n\nA [small](https://foo.dev) engine.\n\n* Homepage: https://foo.dev\n* License: MIT (see COPYING)\n* LOC: 1500\n* Fork: [bar](bar.md) (2019)\n"

func TestAddDocumentBuildsRow(t *testing.T) {
	m := NewMerger("engine", WithLinksBase("https://example.com/zoo/"))
	row := addDoc(t, m, "foo", fooDoc)

	if row.ID() != "foo" || row.Text(KeyTitle) != "Foo" {
		t.Fatalf("unexpected identity fields %v", row)
	}
	if row.Text(KeySummary) != "A small engine." {
		t.Fatalf("expected links stripped from summary, got %q", row.Text(KeySummary))
	}
	if row.Text(KeyURL) != "https://example.com/zoo/engines/foo.md" {
		t.Fatalf("unexpected jsz_url %q", row.Text(KeyURL))
	}
	if row.Text(KeyMarkdown) != fooDoc {
		t.Fatal("expected raw markdown on row")
	}
	if row["license"] != "MIT" || row["license_detailed"] != "MIT (see COPYING)" {
		t.Fatalf("unexpected license fields %v / %v", row["license"], row["license_detailed"])
	}
	if row["loc"] != 1500 {
		t.Fatalf("expected integer loc, got %#v", row["loc"])
	}
	if _, ok := row["loc_detailed"]; ok {
		t.Fatal("expected loc_detailed omitted when equal to simplified value")
	}
	if _, ok := row["homepage_detailed"]; ok {
		t.Fatal("expected homepage_detailed omitted")
	}
	if row["forks"] != "bar" {
		t.Fatalf("expected forks bar, got %v", row["forks"])
	}
	if _, ok := row["forks_detailed"]; ok {
		t.Fatal("expected forks_detailed dropped by field definition")
	}
	if _, ok := row[KeyVariant]; ok {
		t.Fatal("expected no variant on primary row")
	}
}

func TestAddDocumentRejectsDuplicates(t *testing.T) {
	m := NewMerger("engine")
	addDoc(t, m, "foo", fooDoc)
	doc, _ := metadata.Parse("other/foo.md", []byte(fooDoc), metadata.DefaultRegistry())
	_, err := m.AddDocument("foo", "other/foo.md", doc, []byte(fooDoc))
	var dataErr *DataError
	if !errors.As(err, &dataErr) {
		t.Fatalf("expected DataError, got %v", err)
	}
}

func TestVariantFoldsIntoParentBench(t *testing.T) {
	m := NewMerger("engine")
	addDoc(t, m, "foo", fooDoc)
	variant := addDoc(t, m, "foo_v2", "# Foo v2\n\nA [small](https://foo.dev) engine.\n\n* Homepage: https://foo.dev\n* License: MIT (see COPYING)\n* JIT: yes\n")
	if variant.Text(KeyEngine) != "foo" || variant.Text(KeyVariant) != "v2" {
		t.Fatalf("expected engine/variant split, got %v", variant)
	}

	err := m.ApplyDist("amd64", "dist/amd64/foo_v2.json", map[string]any{
		"engine":      "foo",
		"variant":     "v2",
		"arch":        "amd64",
		"binary_size": json.Number("2048"),
		"license":     "MIT",
	})
	if err != nil {
		t.Fatalf("ApplyDist returned error: %v", err)
	}

	rows := m.Rows()
	if len(rows) != 1 || rows[0].ID() != "foo" {
		t.Fatalf("expected only the parent row, got %d rows", len(rows))
	}
	bench, ok := rows[0][KeyBench].([]Row)
	if !ok || len(bench) != 1 {
		t.Fatalf("expected one bench entry, got %#v", rows[0][KeyBench])
	}
	entry := bench[0]
	if entry.Text(KeyVariant) != "v2" || entry.Text(KeyArch) != "amd64" || entry.Text(KeyID) != "foo_v2" {
		t.Fatalf("unexpected bench entry identity %v", entry)
	}
	if entry.Text("jit") != "yes" || entry.Text("binary_size") != "2048" {
		t.Fatalf("expected variant metadata merged, got %v", entry)
	}
	for _, key := range []string{"license", "license_detailed", "homepage", KeySummary, KeyEngine, KeyTitle} {
		if _, ok := entry[key]; ok {
			t.Fatalf("expected %s elided from bench entry", key)
		}
	}
}

func TestApplyBenchScoresAndErrors(t *testing.T) {
	m := NewMerger("engine")
	addDoc(t, m, "foo", fooDoc)

	fragment := BenchFragment{
		Metadata: map[string]any{"engine": "foo", "arch": "arm64", "variant": "jitless", "jit": "yes"},
		Benchmarks: map[string]map[string]any{
			"richards": {"score": []any{json.Number("14"), json.Number("10"), json.Number("12")}},
			"splay":    {"error": "timeout"},
		},
	}
	if err := m.ApplyBench("arm64", "bench/arm64/foo_jitless.json", fragment); err != nil {
		t.Fatalf("ApplyBench returned error: %v", err)
	}

	bench := m.Rows()[0][KeyBench].([]Row)
	entry := bench[0]
	if entry["richards"] != json.Number("12") {
		t.Fatalf("expected median 12, got %#v", entry["richards"])
	}
	if entry.Text("richards_detailed") != "N=3 median=12 mean=12.00±1.15 max=14" {
		t.Fatalf("unexpected summary %q", entry.Text("richards_detailed"))
	}
	if entry.Text("splay_error") != "timeout" {
		t.Fatalf("expected splay_error, got %v", entry)
	}
	if v, ok := entry["jit"]; !ok || v != "" {
		t.Fatalf("expected jitless variant to clear jit, got %#v", v)
	}
}

func TestFragmentPolicies(t *testing.T) {
	m := NewMerger("engine")
	addDoc(t, m, "foo", fooDoc)

	if err := m.ApplyDist("amd64", "dist/amd64/ghost.json", map[string]any{"engine": "ghost", "size": 1}); err != nil {
		t.Fatalf("expected stale fragment to be ignored, got %v", err)
	}
	if err := m.ApplyDist("amd64", "dist/amd64/foo_full.json", map[string]any{"engine": "foo", "variant": "full", "size": 1}); err != nil {
		t.Fatalf("expected full variant to be skipped, got %v", err)
	}
	if err := m.ApplyDist("amd64", "dist/amd64/foo.json", map[string]any{"engine": "foo", "arch": "amd64"}); err != nil {
		t.Fatalf("expected empty fragment to be skipped, got %v", err)
	}
	if _, ok := m.Rows()[0][KeyBench]; ok {
		t.Fatal("expected no bench entries")
	}

	err := m.ApplyDist("amd64", "dist/amd64/foo.json", map[string]any{"engine": "foo", "variant": "v3", "size": 1})
	var dataErr *DataError
	if !errors.As(err, &dataErr) {
		t.Fatalf("expected DataError for file/variant mismatch, got %v", err)
	}
	err = m.ApplyDist("amd64", "dist/amd64/foo.json", map[string]any{"engine": "foo", "arch": "arm64", "size": 1})
	if !errors.As(err, &dataErr) {
		t.Fatalf("expected DataError for arch mismatch, got %v", err)
	}
}

func TestAttachConformanceFallsBackToEngine(t *testing.T) {
	m := NewMerger("engine")
	addDoc(t, m, "foo", fooDoc)
	addDoc(t, m, "baz_next", "# Baz\n\nS.\n\n* Homepage: h\n")
	addDoc(t, m, "qux", "# Qux\n\nS.\n\n* Homepage: h\n")

	m.AttachConformance(stubScores{
		"foo": {"es5": 1},
		"baz": {"es5": 0.5},
	})

	foo, _ := m.Lookup("foo")
	if scores, ok := foo[KeyConformance].(map[string]float64); !ok || scores["es5"] != 1 {
		t.Fatalf("expected exact conformance match, got %#v", foo[KeyConformance])
	}
	baz, _ := m.Lookup("baz_next")
	if scores, ok := baz[KeyConformance].(map[string]float64); !ok || scores["es5"] != 0.5 {
		t.Fatalf("expected engine fallback, got %#v", baz[KeyConformance])
	}
	qux, _ := m.Lookup("qux")
	if _, ok := qux[KeyConformance]; ok {
		t.Fatal("expected no conformance for qux")
	}
}

type rejectAll struct{}

func (rejectAll) ValidateDist(any) error  { return errors.New("rejected") }
func (rejectAll) ValidateBench(any) error { return errors.New("rejected") }

func TestLoadDirectories(t *testing.T) {
	dir := t.TempDir()
	distDir := filepath.Join(dir, "dist", "amd64")
	benchDir := filepath.Join(dir, "bench", "amd64")
	for _, d := range []string{distDir, benchDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	write := func(path, body string) {
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	write(filepath.Join(distDir, "foo.json"), `{"engine": "foo", "arch": "amd64", "binary_size": 4096, "version": "1.2"}`)
	write(filepath.Join(benchDir, "foo.json"), `{"metadata": {"engine": "foo", "arch": "amd64"}, "benchmarks": {"crypto": {"score": [5.5]}}}`)

	m := NewMerger("engine")
	addDoc(t, m, "foo", fooDoc)
	ctx := context.Background()
	if err := m.LoadDistDir(ctx, distDir, "amd64"); err != nil {
		t.Fatalf("LoadDistDir returned error: %v", err)
	}
	if err := m.LoadBenchDir(ctx, benchDir, "amd64"); err != nil {
		t.Fatalf("LoadBenchDir returned error: %v", err)
	}
	if err := m.LoadDistDir(ctx, filepath.Join(dir, "missing"), "amd64"); err != nil {
		t.Fatalf("expected missing directory to be ignored, got %v", err)
	}

	entry := m.Rows()[0][KeyBench].([]Row)[0]
	if entry.Text("binary_size") != "4096" || entry.Text("version") != "1.2" {
		t.Fatalf("unexpected dist fields %v", entry)
	}
	if entry.Text("crypto") != "5.5" || entry.Text("crypto_detailed") != "N=1 median=5.5 mean=6 max=5.5" {
		t.Fatalf("unexpected bench fields %v", entry)
	}

	strict := NewMerger("engine", WithValidator(rejectAll{}))
	addDoc(t, strict, "foo", fooDoc)
	var dataErr *DataError
	if err := strict.LoadDistDir(ctx, distDir, "amd64"); !errors.As(err, &dataErr) {
		t.Fatalf("expected validator rejection, got %v", err)
	}
}

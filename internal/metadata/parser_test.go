package metadata

import (
	"errors"
	"strings"
	"testing"
)

func TestParseMinimalDocument(t *testing.T) {
	src := "# Foo\n\nA thing.\n\n* Homepage: http://x\n* License: BSD-3-Clause-Clear\n"

	doc, err := Parse("engines/foo.md", []byte(src), DefaultRegistry())
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if doc.Title != "Foo" {
		t.Fatalf("expected title Foo, got %q", doc.Title)
	}
	if doc.Summary != "A thing." {
		t.Fatalf("expected summary, got %q", doc.Summary)
	}
	if len(doc.Items) != 2 || len(doc.Tree) != 2 {
		t.Fatalf("expected 2 items, got %d (tree %d)", len(doc.Items), len(doc.Tree))
	}

	license := doc.Items[1]
	if license.Line != 6 {
		t.Fatalf("expected license on line 6, got %d", license.Line)
	}
	if license.Detailed != "BSD-3-Clause-Clear" {
		t.Fatalf("unexpected detailed value %q", license.Detailed)
	}
	if license.Simplified != "BSD-3" {
		t.Fatalf("expected simplified BSD-3, got %#v", license.Simplified)
	}
}

func TestParseNestedItemsAndValues(t *testing.T) {
	src := strings.Join([]string{
		"# Engine",
		"",
		"First line of the summary",
		"with a [link](https://example.com).",
		"",
		`* Repository: https://github.com/acme/engine.git <span class="shields"><img src="x"></span>`,
		"  * Mirror: https://gitlab.com/acme/engine",
		"    * Note: deep",
		"* LOC: 120000 (approx)",
		"* Language: C++ (with some C)",
		"* Label only",
		"",
		"## Details",
		"",
	}, "\n")

	doc, err := Parse("engine.md", []byte(src), DefaultRegistry())
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if doc.Summary != "First line of the summary with a [link](https://example.com)." {
		t.Fatalf("unexpected summary %q", doc.Summary)
	}
	if len(doc.Items) != 6 || len(doc.Tree) != 4 {
		t.Fatalf("expected 6 items and 4 roots, got %d and %d", len(doc.Items), len(doc.Tree))
	}

	repo := doc.Tree[0]
	if repo.Detailed != "https://github.com/acme/engine.git" {
		t.Fatalf("expected shields stripped, got %q", repo.Detailed)
	}
	if len(repo.Children) != 1 || repo.Children[0].Path != "Repository/Mirror" {
		t.Fatalf("unexpected children %+v", repo.Children)
	}
	deep := repo.Children[0].Children[0]
	if deep.Path != "Repository/Mirror/Note" || deep.Depth() != 2 {
		t.Fatalf("unexpected deep item %+v", deep)
	}
	if deep.Field != nil || deep.HasValue {
		t.Fatal("expected unresolved nested item to carry no value")
	}

	if doc.Tree[1].Simplified != 120000 {
		t.Fatalf("expected LOC integer, got %#v", doc.Tree[1].Simplified)
	}
	if doc.Tree[2].Simplified != "C++" {
		t.Fatalf("expected language C++, got %#v", doc.Tree[2].Simplified)
	}
	if doc.Tree[3].Label != "Label only" || doc.Tree[3].HasValue {
		t.Fatalf("unexpected label-only item %+v", doc.Tree[3])
	}
}

func TestParseEveryResolvedValueIsSimplified(t *testing.T) {
	src := "# X\n\nS.\n\n* Homepage: h\n* Type: Engine\n* JIT: none\n* Standard: ES5 (partial)\n"
	doc, err := Parse("x.md", []byte(src), DefaultRegistry())
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	for _, item := range doc.Items {
		if item.Field != nil && item.HasValue && item.Simplified == nil {
			t.Fatalf("item %q has no simplified value", item.Path)
		}
	}
}

func TestParseFormatErrors(t *testing.T) {
	cases := []struct {
		name string
		src  string
		line int
		msg  string
	}{
		{"missing title", "Foo\n\nA.\n\n* Homepage: x\n", 1, "missing title"},
		{"title without blank", "# Foo\nA.\n\n* Homepage: x\n", 1, "missing title"},
		{"missing summary", "# Foo\n\n* Homepage: x\n", 3, "missing summary"},
		{"no blank after summary", "# Foo\n\nA.\n* Homepage: x\n", 4, "expected blank line"},
		{"missing list", "# Foo\n\nA.\n\nMore prose.\n", 5, "expected metadata list"},
		{"odd indent", "# Foo\n\nA thing.\n\n* Homepage: http://x\n   * Note: y\n", 6, "bad indent"},
		{"orphan", "# Foo\n\nA.\n\n* Homepage: x\n    * Deep: y\n", 6, "no parent"},
		{"not a bullet", "# Foo\n\nA.\n\n* Homepage: x\nprose\n", 6, "expected metadata list line"},
		{"tab indent", "# Foo\n\nA.\n\n* Homepage: x\n\t* Note: y\n", 6, "spaces"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse("foo.md", []byte(tc.src), DefaultRegistry())
			var formatErr *FormatError
			if !errors.As(err, &formatErr) {
				t.Fatalf("expected *FormatError, got %v", err)
			}
			if formatErr.Line != tc.line {
				t.Fatalf("expected line %d, got %d (%v)", tc.line, formatErr.Line, err)
			}
			if !strings.Contains(err.Error(), tc.msg) {
				t.Fatalf("expected %q in %q", tc.msg, err.Error())
			}
			if !strings.HasPrefix(err.Error(), "foo.md:") {
				t.Fatalf("expected file name in %q", err.Error())
			}
		})
	}
}

func TestDocumentValuesReportsSynonymConflicts(t *testing.T) {
	src := "# Bar\n\nS.\n\n* Fork: [baz](baz.md)\n* Forks: [qux](qux.md)\n* Ancestor: [v8](v8.md)\n* Ancestors: [v8](v8.md) (via node)\n"
	doc, err := Parse("bar.md", []byte(src), DefaultRegistry())
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}

	values, conflicts := doc.Values()
	if len(values) != 2 {
		t.Fatalf("expected 2 output keys, got %d", len(values))
	}
	if values[0].OutputKey != "forks" || values[0].Simplified != "qux" {
		t.Fatalf("expected last forks value to win, got %+v", values[0])
	}
	if values[1].Simplified != "v8" {
		t.Fatalf("expected ancestors v8, got %+v", values[1])
	}
	if len(conflicts) != 2 {
		t.Fatalf("expected 2 conflicts, got %d", len(conflicts))
	}
	if conflicts[0].First.Line != 5 || conflicts[0].Second.Line != 6 {
		t.Fatalf("unexpected conflict lines %d/%d", conflicts[0].First.Line, conflicts[0].Second.Line)
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(
		FieldDefinition{Key: "Homepage", OutputKey: "homepage"},
		FieldDefinition{Key: "Homepage", OutputKey: "url"},
	)
	if !errors.Is(err, ErrFieldDuplicate) {
		t.Fatalf("expected ErrFieldDuplicate, got %v", err)
	}
	if _, err := NewRegistry(FieldDefinition{Key: "X"}); !errors.Is(err, ErrFieldOutputKeyRequired) {
		t.Fatalf("expected ErrFieldOutputKeyRequired, got %v", err)
	}
}

func TestRegistryOrderAndOutputKeys(t *testing.T) {
	reg := DefaultRegistry()
	home, _ := reg.Rank("Homepage")
	dll, _ := reg.Rank("DLL")
	if home != 0 || dll != reg.Len()-1 {
		t.Fatalf("unexpected ranks homepage=%d dll=%d", home, dll)
	}
	keys := reg.OutputKeys()
	seen := map[string]bool{}
	for _, key := range keys {
		if seen[key] {
			t.Fatalf("duplicate output key %s", key)
		}
		seen[key] = true
	}
	if !seen["forks"] || !seen["ancestors"] {
		t.Fatalf("expected synonym output keys, got %v", keys)
	}
}

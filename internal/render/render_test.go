package render

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-jszoo/internal/catalog"
)

const linksBase = "https://example.com/zoo/blob/master/"

func fixtureRows() []catalog.Row {
	return []catalog.Row{
		{
			"id": "brent", "title": "Brent", "jsz_url": linksBase + "engines/brent.md",
			"homepage": "https://brent-lang.org/", "language": "TypeScript, JavaScript", "type": "Engine",
		},
		{
			"id": "acorn", "title": "Acorn", "jsz_url": linksBase + "parsers/acorn.md",
			"language": "JavaScript", "type": "Parser",
		},
		{
			"id": "quickjs", "title": "QuickJS", "jsz_url": linksBase + "engines/quickjs.md",
			"repository": "https://github.com/bellard/quickjs.git", "language": "C", "type": "Engine",
			"github_stars": 500, "standard": "ES2023", "loc": 70000,
		},
		{
			"id": "v8", "title": "V8", "jsz_url": linksBase + "engines/v8.md",
			"github": "https://github.com/v8/v8", "language": "C++", "type": "Engine", "github_stars": 1000,
		},
	}
}

func TestStandardAbbr(t *testing.T) {
	cases := map[string]string{
		"ES2021 (≈ES6)":      "ES2021<sup>*</sup>",
		"ES5":                "ES5",
		"ES2015+ (partial)":  "ES2015<sup>*</sup>",
		"TypeScript (tsc 5)": "TypeScript",
		"":                   "",
	}
	for input, want := range cases {
		if got := StandardAbbr(input); got != want {
			t.Fatalf("StandardAbbr(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestLOCAbbr(t *testing.T) {
	cases := map[float64]string{
		999:     "999",
		1500:    "1.5K",
		45000:   "45K",
		3400000: "3.4M",
	}
	for input, want := range cases {
		if got := LOCAbbr(input); got != want {
			t.Fatalf("LOCAbbr(%v) = %q, want %q", input, got, want)
		}
	}
}

func TestDomainAndLanguage(t *testing.T) {
	if got := Domain("https://www.example.com/x"); got != "example.com" {
		t.Fatalf("unexpected domain %q", got)
	}
	if got := Domain("http://foo.dev"); got != "foo.dev" {
		t.Fatalf("unexpected domain %q", got)
	}
	if got := Domain("not a url"); got != "" {
		t.Fatalf("expected empty domain, got %q", got)
	}
	if got := LanguageAbbr("C++, Python"); got != "C++" {
		t.Fatalf("unexpected language %q", got)
	}
}

func TestSortKey(t *testing.T) {
	rows := fixtureRows()
	want := []string{"JavaScript 999999 brent", "JavaScript 999999 acorn", "C 999498 quickjs", "A00"}
	for i, row := range rows {
		if got := SortKey(row); got != want[i] {
			t.Fatalf("SortKey(%s) = %q, want %q", row.ID(), got, want[i])
		}
	}
	if got := SortKey(catalog.Row{"id": "X", "language": "C++"}); got != "C 999999 x" {
		t.Fatalf("expected C++ folded into C, got %q", got)
	}
}

func TestSortRowsIsStable(t *testing.T) {
	rows := []catalog.Row{
		{"id": "b", "sort_key": "K"},
		{"id": "a", "sort_key": "K"},
		{"id": "c", "sort_key": "A"},
	}
	SortRows(rows)
	got := []string{rows[0].ID(), rows[1].ID(), rows[2].ID()}
	if diff := cmp.Diff([]string{"c", "b", "a"}, got); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestDecorateEngineLinks(t *testing.T) {
	src := fixtureRows()
	rows := Decorator{Document: "parsers/acorn.md", LinksBase: linksBase}.Decorate(src)

	quickjs := rows[2]
	repo := "https://github.com/bellard/quickjs"
	want := "[QuickJS](../engines/quickjs.md)<br>[" + ShieldsFor(repo, true) + "](" + repo + ")"
	if got := quickjs.Text(KeyEngineLink); got != want {
		t.Fatalf("unexpected quickjs link\nwant: %s\ngot:  %s", want, got)
	}
	if quickjs.Text(KeyLOCAbbr) != "70K" || quickjs.Text(KeyStandardAbbr) != "ES2023" {
		t.Fatalf("unexpected derived columns %v", quickjs)
	}

	brent := rows[0]
	if got := brent.Text(KeyEngineLink); got != "[Brent](../engines/brent.md)<br>([brent‑lang.org](https://brent-lang.org/))" {
		t.Fatalf("unexpected brent link %q", got)
	}
	if _, ok := brent[KeyLOCAbbr]; ok {
		t.Fatal("expected no loc_abbr without loc")
	}

	if got := rows[1].Text(KeyEngineLink); got != "[Acorn](acorn.md)" {
		t.Fatalf("unexpected acorn link %q", got)
	}
	if _, ok := src[0][KeySortKey]; ok {
		t.Fatal("expected source rows untouched")
	}
}

func TestDecoratePrefersDetailedStandard(t *testing.T) {
	rows := Decorator{Document: "README.md"}.Decorate([]catalog.Row{{
		"id": "foo", "standard": "ES2021", "standard_detailed": "ES2021 (≈ES6)",
	}})
	if got := rows[0].Text(KeyStandardAbbr); got != "ES2021<sup>*</sup>" {
		t.Fatalf("unexpected standard_abbr %q", got)
	}
}

func TestShieldsFor(t *testing.T) {
	gh := ShieldsFor("https://github.com/v8/v8", false)
	if !strings.HasPrefix(gh, `<span class="shields"><img src="https://img.shields.io/github/stars/v8/v8?label=&style=flat-square" alt="Stars" title="Stars">`) {
		t.Fatalf("unexpected github shields %s", gh)
	}
	if !strings.Contains(gh, "github/last-commit/v8/v8") || !strings.HasSuffix(gh, "</span>") {
		t.Fatalf("expected last-commit badge, got %s", gh)
	}
	if got := ShieldsFor("https://gitlab.com/a/b.git", true); !strings.Contains(got, "gitlab/stars/a/b?") || !strings.HasPrefix(got, `<div class="shields">`) {
		t.Fatalf("unexpected gitlab shields %s", got)
	}
	if got := ShieldsFor("https://codeberg.org/a/b/", false); !strings.Contains(got, "gitea/stars/a/b?label=&style=flat-square&gitea_url=https://codeberg.org") {
		t.Fatalf("unexpected codeberg shields %s", got)
	}
	if got := ShieldsFor("https://example.com/a/b", false); got != "" {
		t.Fatalf("expected no shields for unknown host, got %s", got)
	}
}

func TestApplyBadges(t *testing.T) {
	source := "* Repository: https://github.com/v8/v8 <span class=\"shields\">old</span>\n" +
		"* Homepage: https://example.com/x <span class=\"shields\">keep</span>\n"
	got := string(ApplyBadges([]byte(source), false))
	want := "* Repository: https://github.com/v8/v8 " + ShieldsFor("https://github.com/v8/v8", false) + "\n" +
		"* Homepage: https://example.com/x <span class=\"shields\">keep</span>\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("badges mismatch (-want +got):\n%s", diff)
	}
	if again := string(ApplyBadges([]byte(got), false)); again != got {
		t.Fatal("expected idempotent badge update")
	}

	plain := []byte("no badges here\n")
	if out := ApplyBadges(plain, true); string(out) != string(plain) {
		t.Fatal("expected untouched document")
	}
}

func TestParseTableSpec(t *testing.T) {
	spec, err := ParseTableSpec(`{columns: {Engine: engine_link, Language: language_abbr}, where: {type: Engine}, missing: [variant]}`)
	if err != nil {
		t.Fatalf("ParseTableSpec returned error: %v", err)
	}
	wantCols := Columns{{Title: "Engine", Key: "engine_link"}, {Title: "Language", Key: "language_abbr"}}
	if diff := cmp.Diff(wantCols, spec.Columns); diff != "" {
		t.Fatalf("columns mismatch (-want +got):\n%s", diff)
	}
	if spec.Where["type"] != "Engine" || len(spec.Missing) != 1 {
		t.Fatalf("unexpected filters %+v", spec)
	}

	for _, bad := range []string{`{where: {type: Engine}}`, `{columns: [a, b]}`, `{columns: {A: a}, colour: red}`, `{columns: {A: ""}}`} {
		if _, err := ParseTableSpec(bad); err == nil {
			t.Fatalf("expected error for %s", bad)
		}
	}
}

const tableMarker = "<!-- jszoo:table {columns: {Engine: engine_link, Language: language_abbr, LOC: loc_abbr}, where: {type: Engine}} -->\n"

func TestUpdateTablesRendersAndIsIdempotent(t *testing.T) {
	source := "# Zoo\n\n" + tableMarker + "| stale |\n<!-- end of generated table (1 rows) -->\n\nFooter\n"
	r := NewRenderer(linksBase, "README.md", nil)

	got, err := r.UpdateTables("README.md", []byte(source), fixtureRows())
	if err != nil {
		t.Fatalf("UpdateTables returned error: %v", err)
	}

	v8Repo, qjsRepo := "https://github.com/v8/v8", "https://github.com/bellard/quickjs"
	want := "# Zoo\n\n" + tableMarker +
		"| Engine | Language | LOC |\n" +
		"|---|---|---|\n" +
		"| [V8](engines/v8.md)<br>[" + ShieldsFor(v8Repo, true) + "](" + v8Repo + ") | C++ |  |\n" +
		"| [QuickJS](engines/quickjs.md)<br>[" + ShieldsFor(qjsRepo, true) + "](" + qjsRepo + ") | C | 70K |\n" +
		"| [Brent](engines/brent.md)<br>([brent‑lang.org](https://brent-lang.org/)) | TypeScript |  |\n" +
		"<!-- end of generated table (3 rows) -->\n\nFooter\n"
	if diff := cmp.Diff(want, string(got)); diff != "" {
		t.Fatalf("table mismatch (-want +got):\n%s", diff)
	}

	again, err := r.UpdateTables("README.md", got, fixtureRows())
	if err != nil {
		t.Fatalf("second UpdateTables returned error: %v", err)
	}
	if string(again) != string(got) {
		t.Fatal("expected idempotent table update")
	}
}

func TestApplyTablesFormatErrors(t *testing.T) {
	_, err := ApplyTables("README.md", []byte("x\n"+tableMarker+"| a |\n"), nil)
	var formatErr *FormatError
	if !errors.As(err, &formatErr) || formatErr.Line != 2 {
		t.Fatalf("expected missing end marker error on line 2, got %v", err)
	}

	_, err = ApplyTables("README.md", []byte("<!-- jszoo:table {columns: nope} -->\n<!-- end of generated table -->\n"), nil)
	if !errors.As(err, &formatErr) || formatErr.Line != 1 {
		t.Fatalf("expected invalid spec error on line 1, got %v", err)
	}
}

func TestFormatTableFilters(t *testing.T) {
	spec := TableSpec{
		Columns: Columns{{Title: "ID", Key: "id"}},
		Has:     []string{"github_stars"},
		IDs:     []string{"v8", "acorn"},
	}
	got := FormatTable(fixtureRows(), spec)
	want := []string{"| ID |\n", "|---|\n", "| v8 |\n", "<!-- end of generated table (1 rows) -->\n"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("table mismatch (-want +got):\n%s", diff)
	}
}

package render

import (
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/goliatone/go-jszoo/internal/catalog"
)

// Derived display columns.
const (
	KeyStandardAbbr = "standard_abbr"
	KeyLOCAbbr      = "loc_abbr"
	KeyLanguageAbbr = "language_abbr"
	KeySortKey      = "sort_key"
	KeyEngineLink   = "engine_link"
)

// PinnedIDs lead every table in this order.
var PinnedIDs = []string{"v8", "spidermonkey", "jsc"}

var (
	standardVersionPattern = regexp.MustCompile(`^(ES[^( ]*) *\(.*\)`)
	standardRemarkPattern  = regexp.MustCompile(` *\(.*\)`)
	hostPattern            = regexp.MustCompile(`^https?://?([^/]+)`)
	githubRepoPattern      = regexp.MustCompile(`^https?://github\.com/([^/]+)/([^/]+?)(\.git)?$`)
)

// StandardAbbr shortens a standard description. A qualified version
// ("ES2021 (≈ES6)") is flagged with a superscript asterisk.
func StandardAbbr(standard string) string {
	std := standardVersionPattern.ReplaceAllString(standard, "${1}*")
	std = strings.TrimSpace(standardRemarkPattern.ReplaceAllString(std, ""))
	std = strings.ReplaceAll(std, "+*", "*")
	return strings.ReplaceAll(std, "*", "<sup>*</sup>")
}

// LOCAbbr renders a line count as 1.2K, 45K or 3.4M.
func LOCAbbr(loc float64) string {
	switch {
	case loc >= 1000000:
		return fmt.Sprintf("%.1fM", loc/1000000)
	case loc >= 10000:
		return fmt.Sprintf("%.0fK", loc/1000)
	case loc >= 1000:
		return fmt.Sprintf("%.1fK", loc/1000)
	default:
		return fmt.Sprintf("%.0f", loc)
	}
}

// LanguageAbbr keeps the primary implementation language.
func LanguageAbbr(language string) string {
	primary, _, _ := strings.Cut(language, ", ")
	return primary
}

// Domain returns the registrable part of a URL host ("www.example.com" ->
// "example.com").
func Domain(url string) string {
	m := hostPattern.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	labels := strings.Split(m[1], ".")
	if len(labels) > 2 {
		labels = labels[len(labels)-2:]
	}
	return strings.Join(labels, ".")
}

// SortKey orders rows: pinned engines first, then by language family,
// descending stars and identifier.
func SortKey(row catalog.Row) string {
	if idx := slices.Index(PinnedIDs, row.ID()); idx >= 0 {
		return fmt.Sprintf("A%02d", idx)
	}
	family := LanguageAbbr(row.Text("language"))
	family = strings.ReplaceAll(family, "TypeScript", "JavaScript")
	family = strings.ReplaceAll(family, "C++", "C")

	stars := -1.0
	if n, ok := row.Number("github_stars"); ok {
		stars = n
	}
	return fmt.Sprintf("%s %06d %s", family, int64(999998-stars), strings.ToLower(row.ID()))
}

// Decorator adds the derived display columns for one target document.
type Decorator struct {
	// Document is the slash path of the document the table lives in,
	// relative to the catalog root.
	Document  string
	LinksBase string
}

// Decorate returns copies of rows carrying the derived columns. Source rows
// are not modified.
func (d Decorator) Decorate(rows []catalog.Row) []catalog.Row {
	out := make([]catalog.Row, 0, len(rows))
	for _, src := range rows {
		row := src.Clone()

		if std := StandardAbbr(standardSource(row)); std != "" {
			row[KeyStandardAbbr] = std
		}
		if loc, ok := row.Number("loc"); ok && loc != 0 {
			row[KeyLOCAbbr] = LOCAbbr(loc)
		}
		row[KeyLanguageAbbr] = LanguageAbbr(row.Text("language"))
		row[KeySortKey] = SortKey(row)
		row[KeyEngineLink] = d.engineLink(row)

		out = append(out, row)
	}
	return out
}

// standardSource prefers the detailed standard text so qualifiers survive.
func standardSource(row catalog.Row) string {
	if detailed := row.Text("standard" + catalog.DetailedSuffix); detailed != "" {
		return detailed
	}
	return row.Text("standard")
}

func (d Decorator) engineLink(row catalog.Row) string {
	repoLink := row.Text("github")
	if repoLink == "" {
		repoLink = row.Text("repository")
	}
	if homepage := row.Text("homepage"); repoLink == "" && strings.HasPrefix(homepage, "http") {
		repoLink = homepage
	}

	repoText := ""
	if repoLink != "" {
		repoText = Domain(repoLink)
		if repoText == "" {
			repoText = "link"
		}
	}
	if m := githubRepoPattern.FindStringSubmatch(repoLink); m != nil {
		repoText = m[1] + "/" + m[2]
		repoLink = strings.TrimSuffix(repoLink, ".git")
	}

	link := fmt.Sprintf("[%s](%s)", row.Text(catalog.KeyTitle), d.relativeURL(row.Text(catalog.KeyURL)))
	if repoLink == "" {
		return link
	}
	if shields := ShieldsFor(repoLink, true); shields != "" {
		return link + fmt.Sprintf("<br>[%s](%s)", shields, repoLink)
	}
	// U+2011 keeps "brent-..." repository names from wrapping.
	text := fmt.Sprintf("<br>([%s](%s))", repoText, repoLink)
	return link + strings.ReplaceAll(text, "[brent-", "[brent‑")
}

func (d Decorator) relativeURL(url string) string {
	target := strings.TrimPrefix(url, d.LinksBase)
	return relativePath(path.Dir(d.Document), target)
}

func relativePath(base, target string) string {
	rel, err := filepath.Rel(filepath.FromSlash(base), filepath.FromSlash(target))
	if err != nil {
		return target
	}
	return filepath.ToSlash(rel)
}

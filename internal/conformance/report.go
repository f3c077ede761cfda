package conformance

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"path"
	"sort"
	"strings"
)

// SectionHeading opens the generated section in entry documents.
const SectionHeading = "## Conformance\n"

// DefaultMaxFailing is how many failing tests are listed per directory.
const DefaultMaxFailing = 21

// ErrPerfectScoreWithFailures flags a directory scored 100% that still lists
// failing tests, which only happens with zero-weight tests.
var ErrPerfectScoreWithFailures = errors.New("conformance: perfect score with failing tests")

// FormatScore renders a ratio as a percentage. Only an exact 1 renders as
// 100%; anything else is capped at 99%.
func FormatScore(score float64) string {
	if score == 1 {
		return "100%"
	}
	return fmt.Sprintf("%.0f%%", math.Min(score, 0.99)*100)
}

// DisplayName turns a results directory into its report label
// ("kangax-es2016" -> "ES2016").
func DisplayName(dir string) string {
	name := strings.ReplaceAll(dir, "kangax-", "")
	name = strings.ReplaceAll(name, "es", "ES")
	name = strings.ReplaceAll(name, "intl", "Intl")
	return strings.ReplaceAll(name, "next", "Next")
}

type block struct {
	headline string
	dirs     []string
	fullLog  bool
}

func blocks(scores map[string]float64) []block {
	var out []block
	if score, ok := scores[ScoreES1ToES5]; ok {
		out = append(out, block{
			headline: "ES1-ES5: " + FormatScore(score),
			dirs:     []string{"es1", "es3", "es5"},
			fullLog:  true,
		})
	}
	if score, ok := scores["kangax-es6"]; ok {
		headline := "compat-table: ES6 " + FormatScore(score)
		if s, ok := scores[ScoreES2016Plus]; ok {
			headline += ", ES2016+ " + FormatScore(s)
		}
		if s, ok := scores["kangax-next"]; ok {
			headline += ", Next " + FormatScore(s)
		}
		if s, ok := scores["kangax-intl"]; ok {
			headline += ", Intl " + FormatScore(s)
		}
		yearly := []string{}
		for dir := range scores {
			if yearlyKangax.MatchString(dir) {
				yearly = append(yearly, dir)
			}
		}
		sort.Strings(yearly)
		dirs := append([]string{"kangax-es6"}, yearly...)
		dirs = append(dirs, "kangax-next", "kangax-intl")
		out = append(out, block{headline: headline, dirs: dirs})
	}
	return out
}

func crashSuffix(n int) string {
	switch {
	case n <= 0:
		return ""
	case n == 1:
		return ", <b>1 crash</b>"
	default:
		return fmt.Sprintf(", <b>%d crashes</b>", n)
	}
}

// RenderSection builds the "## Conformance" section for rec. Directories
// scoring between 50% and 100% list up to maxFailing failing tests.
func RenderSection(rec *Record, maxFailing int) (string, error) {
	if rec == nil {
		return "", errors.New("conformance: nil record")
	}
	if maxFailing <= 0 {
		maxFailing = DefaultMaxFailing
	}

	var b strings.Builder
	b.WriteString(SectionHeading)
	b.WriteString("\n")
	lastBlank := true

	for _, blk := range blocks(rec.Scores) {
		dirs := make([]string, 0, len(blk.dirs))
		for _, dir := range blk.dirs {
			if _, ok := rec.Scores[dir]; ok {
				dirs = append(dirs, dir)
			}
		}
		if len(dirs) == 0 {
			continue
		}
		if !lastBlank {
			b.WriteString("\n")
		}
		lastBlank = false

		fmt.Fprintf(&b, "<details><summary>%s</summary><ul>\n", blk.headline)
		if blk.fullLog {
			fmt.Fprintf(&b, "<li>Based on this repository's basic test suite. <a href=\"../%s\">Full log</a>.</li>\n", rec.ResultsPath)
		}

		for _, dir := range dirs {
			name := DisplayName(dir)
			score := rec.Scores[dir]
			failing := rec.FailingByDir[dir]
			crashes := crashSuffix(rec.CrashesByDir[dir])

			switch {
			case score == 1:
				if len(failing) > 0 {
					return "", fmt.Errorf("%w: %s %s", ErrPerfectScoreWithFailures, rec.Name, dir)
				}
				fmt.Fprintf(&b, "<li>%s: %s</li>\n", name, FormatScore(score))
			case score < 0.5:
				fmt.Fprintf(&b, "<li>%s: %s%s</li>\n", name, FormatScore(score), crashes)
			default:
				fmt.Fprintf(&b, "<li>%s: %s%s<pre>\n", name, FormatScore(score), crashes)
				for i, test := range failing {
					if i >= maxFailing {
						b.WriteString("...\n")
						break
					}
					fmt.Fprintf(&b, "<a href=\"../conformance/%s\">%s</a>: %s\n",
						test.Test, path.Base(test.Test), escapeResult(test.Result))
				}
				b.WriteString("</pre></li>\n")
			}
		}
		b.WriteString("</ul></details>\n")
	}

	if rec.Crashes > 0 {
		noun := "crashes"
		if rec.Crashes == 1 {
			noun = "crash"
		}
		fmt.Fprintf(&b, "\n💥 **%d %s during testing**\n", rec.Crashes, noun)
	}
	return b.String(), nil
}

// escapeResult escapes markup characters but leaves quotes alone.
func escapeResult(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	return strings.ReplaceAll(s, ">", "&gt;")
}

// ApplySection replaces the existing conformance section of source, which
// runs up to the next heading line, with section. Without one the section
// is appended after a blank line. The result is byte-identical to source
// when nothing changed.
func ApplySection(source []byte, section string) []byte {
	lines := bytes.SplitAfter(source, []byte("\n"))
	if n := len(lines); n > 0 && len(lines[n-1]) == 0 {
		lines = lines[:n-1]
	}

	var out bytes.Buffer
	out.Grow(len(source) + len(section))
	replaced := false
	skipping := false
	for _, line := range lines {
		switch {
		case skipping:
			if bytes.HasPrefix(line, []byte("#")) {
				out.WriteString("\n")
				out.Write(line)
				skipping = false
			}
		case !replaced && string(line) == SectionHeading:
			out.WriteString(section)
			replaced = true
			skipping = true
		default:
			out.Write(line)
		}
	}

	if !replaced {
		if out.Len() > 0 && !bytes.HasSuffix(out.Bytes(), []byte("\n")) {
			out.WriteString("\n")
		}
		if out.Len() > 0 && !bytes.HasSuffix(out.Bytes(), []byte("\n\n")) {
			out.WriteString("\n")
		}
		out.WriteString(section)
	}
	return out.Bytes()
}

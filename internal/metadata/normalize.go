package metadata

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	markdownLinkPattern    = regexp.MustCompile(`\[([^\]]+)\]\([^\)]+\)`)
	shieldsPattern         = regexp.MustCompile(`<(?:div|span) class="shields">.*?</(?:div|span)>`)
	htmlTagPattern         = regexp.MustCompile(`<[^<]+?>`)
	bracketsPattern        = regexp.MustCompile(` +\([^()]+\)`)
	trailingBracketPattern = regexp.MustCompile(` +\(.+\)`)
)

type rewrite struct {
	pattern *regexp.Regexp
	repl    string
}

// licenseRewrites collapse SPDX expressions into the short forms used in tables.
var licenseRewrites = []rewrite{
	{regexp.MustCompile(`BSD-([0-9])-Clause(-Clear)?`), "BSD-${1}"},
	{regexp.MustCompile(`-([0-9.]+)-only`), "-${1}"},
	{regexp.MustCompile(`-([0-9.]+)-or-later`), "-${1}+"},
	{regexp.MustCompile(` *( OR| AND|,) *`), "/"},
	{regexp.MustCompile(` WITH[^,/]*`), ""},
	{regexp.MustCompile(`Apache[-0-9.+]*/LGPL[-0-9.+]*`), "Apache/LGPL"},
	{regexp.MustCompile(`Apache[-0-9.+]*/MIT`), "Apache/MIT"},
	{regexp.MustCompile(`MPL[-0-9.+]*/GPL[-0-9.+]*/LGPL[-0-9.+]*`), "MPL/GPL/LGPL"},
	{regexp.MustCompile(`Artistic[-0-9.+A-Za-z]*/GPL[-0-9.+]+`), "Artistic/GPL"},
}

// StripMarkdownLinks replaces [text](url) with text.
func StripMarkdownLinks(text string) string {
	return strings.TrimSpace(markdownLinkPattern.ReplaceAllString(text, "${1}"))
}

// StripShields removes inline badge containers.
func StripShields(text string) string {
	return strings.TrimSpace(shieldsPattern.ReplaceAllString(text, ""))
}

// StripHTML removes HTML tags, keeping their inner text.
func StripHTML(text string) string {
	return strings.TrimSpace(htmlTagPattern.ReplaceAllString(text, ""))
}

// StripBrackets drops parenthesised remarks that contain no nested brackets.
func StripBrackets(text string) string {
	return strings.TrimSpace(bracketsPattern.ReplaceAllString(text, " "))
}

// StripTrailingBrackets drops everything from the first spaced "(" to the last ")".
func StripTrailingBrackets(text string) string {
	return strings.TrimSpace(trailingBracketPattern.ReplaceAllString(text, " "))
}

// SimplifyLicense shortens SPDX license expressions.
func SimplifyLicense(text string) string {
	for _, rw := range licenseRewrites {
		text = rw.pattern.ReplaceAllString(text, rw.repl)
	}
	return text
}

// Simplify runs the definition's chain over a detailed value and applies the
// value kind.
func (def FieldDefinition) Simplify(detailed string) any {
	text := detailed
	for _, fn := range def.Normalize {
		text = fn(strings.TrimSpace(text))
	}
	if def.Kind == KindInteger {
		if text == "" {
			return text
		}
		if n, err := strconv.Atoi(strings.TrimSpace(text)); err == nil {
			return n
		}
	}
	return text
}

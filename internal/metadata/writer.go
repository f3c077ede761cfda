package metadata

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	minLabelWidth = 14
	maxLabelWidth = 32
)

// Write re-serializes the metadata list of doc into source. Children are
// sorted by registry rank (unresolved items last, by line) and values are
// aligned to a shared column. The list keeps the line ending of its first
// line. Content outside the list range is returned unchanged.
func Write(doc *Document, source []byte, reg *Registry) ([]byte, error) {
	if doc == nil || len(doc.Items) == 0 {
		return source, nil
	}

	lines := strings.SplitAfter(string(source), "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}

	start, end := doc.Items[0].Line, doc.Items[0].Line
	for _, item := range doc.Items {
		start = min(start, item.Line)
		end = max(end, item.Line)
	}
	start--
	if start < 0 || end > len(lines) {
		return nil, &FormatError{Path: doc.Path, Line: end, Msg: "metadata list outside document bounds"}
	}

	eol := "\n"
	if strings.HasSuffix(lines[start], "\r\n") {
		eol = "\r\n"
	}
	width := labelWidth(doc.Items)
	var b strings.Builder
	var emit func(items []*Item, indent string)
	emit = func(items []*Item, indent string) {
		SortItems(items, reg)
		for _, item := range items {
			writeItem(&b, item, indent, width, eol)
			emit(item.Children, indent+"  ")
		}
	}
	emit(doc.Tree, "")

	block := b.String()
	if !strings.HasSuffix(lines[end-1], "\n") {
		block = strings.TrimSuffix(block, eol)
	}

	var out strings.Builder
	out.Grow(len(source) + 64)
	for _, line := range lines[:start] {
		out.WriteString(line)
	}
	out.WriteString(block)
	for _, line := range lines[end:] {
		out.WriteString(line)
	}
	return []byte(out.String()), nil
}

// SortItems orders siblings by registry rank; unresolved items keep their
// relative source order after all resolved ones.
func SortItems(items []*Item, reg *Registry) {
	sort.SliceStable(items, func(i, j int) bool {
		ri, okI := reg.Rank(items[i].Path)
		rj, okJ := reg.Rank(items[j].Path)
		switch {
		case okI && okJ:
			if ri != rj {
				return ri < rj
			}
			return items[i].Line < items[j].Line
		case okI != okJ:
			return okI
		default:
			return items[i].Line < items[j].Line
		}
	})
}

func labelWidth(items []*Item) int {
	width := 0
	for _, item := range items {
		if idx := strings.Index(item.Text, labelSeparator); idx >= 0 {
			width = max(width, 4+item.Indent+utf8.RuneCountInString(item.Text[:idx]))
		}
	}
	return min(max(width, minLabelWidth), maxLabelWidth)
}

func writeItem(b *strings.Builder, item *Item, indent string, width int, eol string) {
	idx := strings.Index(item.Text, labelSeparator)
	if idx < 0 {
		fmt.Fprintf(b, "%s* %s%s", indent, item.Text, eol)
		return
	}
	lhs := indent + "* " + item.Text[:idx] + labelSeparator
	if pad := width - utf8.RuneCountInString(lhs); pad > 0 {
		lhs += strings.Repeat(" ", pad)
	}
	b.WriteString(lhs)
	b.WriteString(strings.TrimLeft(item.Text[idx+1:], " \t"))
	b.WriteString(eol)
}

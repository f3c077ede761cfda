package metadata

import (
	"fmt"
	"strconv"
	"strings"
)

const labelSeparator = ": "

// FormatError reports a document that does not follow the catalog grammar.
type FormatError struct {
	Path string
	Line int
	Text string
	Msg  string
}

func (e *FormatError) Error() string {
	location := e.Path
	if location == "" {
		location = "<document>"
	}
	if e.Line > 0 {
		location = location + ":" + strconv.Itoa(e.Line)
	}
	if e.Text != "" {
		return fmt.Sprintf("%s: %s: %q", location, e.Msg, e.Text)
	}
	return fmt.Sprintf("%s: %s", location, e.Msg)
}

// Item is one bulleted line of the metadata list.
type Item struct {
	// Line is the 1-based line number in the source document.
	Line int
	// Text is the line content after "* ", trimmed.
	Text   string
	Indent int
	// Label is the text before the first ": ", or the whole text.
	Label    string
	Path     string
	Children []*Item
	Field    *FieldDefinition

	// HasValue is set for resolved "label: value" lines.
	HasValue   bool
	Detailed   string
	Simplified any
}

// Depth returns the nesting level derived from the indentation.
func (it *Item) Depth() int {
	return it.Indent / 2
}

// Document is the parsed form of a catalog entry.
type Document struct {
	Path    string
	Title   string
	Summary string
	// Items lists every metadata item depth-first in declaration order.
	Items []*Item
	// Tree holds the top-level items.
	Tree []*Item
}

// FieldValue is the resolved value of one output key.
type FieldValue struct {
	OutputKey    string
	Detailed     string
	Simplified   any
	DropDetailed bool
	Item         *Item
}

// Conflict records two items resolving to the same output key with
// different values.
type Conflict struct {
	OutputKey string
	First     *Item
	Second    *Item
}

// Parse reads a catalog document. Every grammar violation is returned as a
// *FormatError carrying the path and line.
func Parse(path string, source []byte, reg *Registry) (*Document, error) {
	lines := splitLines(string(source))
	fail := func(idx int, msg string) error {
		text := ""
		if idx >= 0 && idx < len(lines) {
			text = lines[idx]
		}
		return &FormatError{Path: path, Line: idx + 1, Text: text, Msg: msg}
	}

	if len(lines) < 3 || !strings.HasPrefix(lines[0], "# ") || lines[1] != "" {
		return nil, &FormatError{Path: path, Line: 1, Msg: "missing title"}
	}
	doc := &Document{
		Path:  path,
		Title: strings.TrimSpace(lines[0][1:]),
	}

	no := 2
	if first := strings.TrimSpace(lines[no]); first == "" || strings.HasPrefix(first, "*") {
		return nil, fail(no, "missing summary paragraph")
	}
	summary := make([]string, 0, 4)
	for no < len(lines) && lines[no] != "" && !strings.HasPrefix(strings.TrimSpace(lines[no]), "*") {
		summary = append(summary, strings.TrimSpace(lines[no]))
		no++
	}
	doc.Summary = strings.Join(summary, " ")

	if strings.TrimSpace(lines[no]) != "" {
		return nil, fail(no, "expected blank line after summary")
	}
	no++

	if no >= len(lines) || !strings.HasPrefix(lines[no], "* ") {
		return nil, fail(no, "expected metadata list")
	}

	var stack []*Item
	for ; no < len(lines) && lines[no] != ""; no++ {
		line := lines[no]
		trimmed := strings.TrimLeft(line, " ")
		if !strings.HasPrefix(trimmed, "* ") {
			if strings.HasPrefix(strings.TrimSpace(line), "* ") {
				return nil, fail(no, "indentation must use spaces")
			}
			return nil, fail(no, "expected metadata list line")
		}
		indent := len(line) - len(trimmed)
		if indent%2 != 0 {
			return nil, fail(no, "bad indent")
		}

		item := &Item{
			Line:   no + 1,
			Text:   strings.TrimSpace(trimmed[1:]),
			Indent: indent,
		}
		item.Label = item.Text
		sep := strings.Index(item.Text, labelSeparator)
		if sep >= 0 {
			item.Label = strings.TrimSpace(item.Text[:sep])
		}

		for len(stack) > 0 && stack[len(stack)-1].Indent >= indent {
			stack = stack[:len(stack)-1]
		}
		if indent == 0 {
			item.Path = item.Label
			doc.Tree = append(doc.Tree, item)
		} else {
			if len(stack) == 0 || stack[len(stack)-1].Indent != indent-2 {
				return nil, fail(no, "nested item has no parent")
			}
			parent := stack[len(stack)-1]
			item.Path = parent.Path + "/" + item.Label
			parent.Children = append(parent.Children, item)
		}
		stack = append(stack, item)
		doc.Items = append(doc.Items, item)

		def, ok := reg.Lookup(item.Path)
		if !ok {
			continue
		}
		item.Field = &def
		if sep < 0 {
			continue
		}
		item.HasValue = true
		item.Detailed = StripShields(strings.TrimSpace(item.Text[sep+1:]))
		item.Simplified = def.Simplify(item.Detailed)
	}

	return doc, nil
}

// Values returns the resolved output values in first-seen order. When
// several items share an output key the last one in document order wins;
// differing values are reported as conflicts.
func (d *Document) Values() ([]FieldValue, []Conflict) {
	if d == nil {
		return nil, nil
	}
	var (
		values    []FieldValue
		conflicts []Conflict
		position  = map[string]int{}
	)
	for _, item := range d.Items {
		if item.Field == nil || !item.HasValue {
			continue
		}
		value := FieldValue{
			OutputKey:    item.Field.OutputKey,
			Detailed:     item.Detailed,
			Simplified:   item.Simplified,
			DropDetailed: item.Field.DropDetailed,
			Item:         item,
		}
		idx, seen := position[value.OutputKey]
		if !seen {
			position[value.OutputKey] = len(values)
			values = append(values, value)
			continue
		}
		prev := values[idx]
		if prev.Detailed != value.Detailed || !sameValue(prev.Simplified, value.Simplified) {
			conflicts = append(conflicts, Conflict{
				OutputKey: value.OutputKey,
				First:     prev.Item,
				Second:    item,
			})
		}
		values[idx] = value
	}
	return values, conflicts
}

// DetailedDiffers reports whether the detailed text carries information the
// simplified value lost.
func (v FieldValue) DetailedDiffers() bool {
	return !sameValue(v.Simplified, v.Detailed)
}

func sameValue(a, b any) bool {
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// splitLines mirrors a line-oriented read: trailing whitespace is dropped
// and a blank sentinel terminates the final paragraph.
func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	if len(raw) > 0 && raw[len(raw)-1] == "" {
		raw = raw[:len(raw)-1]
	}
	lines := make([]string, 0, len(raw)+1)
	for _, line := range raw {
		lines = append(lines, strings.TrimRight(line, " \t\r"))
	}
	return append(lines, "")
}

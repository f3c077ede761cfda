package render

import (
	"bytes"
	"fmt"
	"regexp"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-jszoo/internal/catalog"
)

var (
	tableMarkerPattern = regexp.MustCompile(`^<!-- jszoo:table (.*) -->$`)
	tableEndPattern    = regexp.MustCompile(`^<!-- end of generated table .*-->$`)
)

// FormatError reports a malformed table region.
type FormatError struct {
	Path string
	Line int
	Msg  string
	Err  error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s:%d: %s: %v", e.Path, e.Line, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// Column maps a table header to a row key.
type Column struct {
	Title string
	Key   string
}

// Columns keeps the declaration order of a YAML mapping.
type Columns []Column

// UnmarshalYAML decodes a "title: key" mapping preserving order.
func (c *Columns) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("columns must be a mapping, got %s", node.Tag)
	}
	out := make(Columns, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		title, key := node.Content[i], node.Content[i+1]
		if key.Kind != yaml.ScalarNode {
			return fmt.Errorf("column %q must map to a row key", title.Value)
		}
		out = append(out, Column{Title: title.Value, Key: key.Value})
	}
	*c = out
	return nil
}

// TableSpec is the declarative filter carried by a table marker:
//
//	<!-- jszoo:table {columns: {Engine: engine_link}, where: {type: Engine}} -->
type TableSpec struct {
	Columns Columns           `yaml:"columns"`
	Where   map[string]string `yaml:"where"`
	Has     []string          `yaml:"has"`
	Missing []string          `yaml:"missing"`
	IDs     []string          `yaml:"ids"`
}

// Validate implements validation.Validatable.
func (s TableSpec) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Columns, validation.Required, validation.By(func(value any) error {
			for _, col := range value.(Columns) {
				if strings.TrimSpace(col.Key) == "" {
					return validation.NewError("jszoo.table.column_key_required", "column "+col.Title+" needs a row key")
				}
			}
			return nil
		})),
		validation.Field(&s.Has, validation.Each(validation.Required)),
		validation.Field(&s.Missing, validation.Each(validation.Required)),
	)
}

// ParseTableSpec decodes the YAML flow mapping of a table marker.
func ParseTableSpec(text string) (TableSpec, error) {
	var spec TableSpec
	dec := yaml.NewDecoder(strings.NewReader(text))
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		return TableSpec{}, err
	}
	if err := spec.Validate(); err != nil {
		return TableSpec{}, err
	}
	return spec, nil
}

// Matches reports whether row passes every filter of the spec.
func (s TableSpec) Matches(row catalog.Row) bool {
	if len(s.IDs) > 0 && !slices.Contains(s.IDs, row.ID()) {
		return false
	}
	for key, want := range s.Where {
		if row.Text(key) != want {
			return false
		}
	}
	for _, key := range s.Has {
		if !row.Has(key) {
			return false
		}
	}
	for _, key := range s.Missing {
		if row.Has(key) {
			return false
		}
	}
	return true
}

// FormatTable renders the rows matching spec, in input order, as a
// markdown table followed by the end marker.
func FormatTable(rows []catalog.Row, spec TableSpec) []string {
	titles := make([]string, len(spec.Columns))
	for i, col := range spec.Columns {
		titles[i] = col.Title
	}
	lines := []string{
		"| " + strings.Join(titles, " | ") + " |\n",
		strings.Repeat("|---", len(spec.Columns)) + "|\n",
	}

	count := 0
	for _, row := range rows {
		if !spec.Matches(row) {
			continue
		}
		values := make([]string, len(spec.Columns))
		for i, col := range spec.Columns {
			values[i] = row.Text(col.Key)
		}
		lines = append(lines, "| "+strings.Join(values, " | ")+" |\n")
		count++
	}
	return append(lines, fmt.Sprintf("<!-- end of generated table (%d rows) -->\n", count))
}

// ApplyTables regenerates every table region of the document at path.
// Rows must already be decorated and sorted.
func ApplyTables(path string, source []byte, rows []catalog.Row) ([]byte, error) {
	lines := bytes.SplitAfter(source, []byte("\n"))
	var out bytes.Buffer
	out.Grow(len(source))

	skipping := false
	markerLine := 0
	for i, line := range lines {
		trimmed := strings.TrimSpace(string(line))
		if skipping {
			if tableEndPattern.MatchString(trimmed) {
				skipping = false
			}
			continue
		}
		out.Write(line)

		m := tableMarkerPattern.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		spec, err := ParseTableSpec(m[1])
		if err != nil {
			return nil, &FormatError{Path: path, Line: i + 1, Msg: "invalid table spec", Err: err}
		}
		if !bytes.HasSuffix(line, []byte("\n")) {
			out.WriteString("\n")
		}
		for _, generated := range FormatTable(rows, spec) {
			out.WriteString(generated)
		}
		skipping = true
		markerLine = i + 1
	}
	if skipping {
		return nil, &FormatError{Path: path, Line: markerLine, Msg: `missing "<!-- end of generated table -->" marker`}
	}
	return out.Bytes(), nil
}

package markdown

import (
	"bytes"
	"fmt"

	"github.com/adrg/frontmatter"
)

// ParseFrontMatter splits an optional YAML/TOML front matter block from the
// Markdown body. Documents without front matter return an empty map and the
// source unchanged.
func ParseFrontMatter(source []byte) (map[string]any, []byte, error) {
	meta := map[string]any{}
	body, err := frontmatter.Parse(bytes.NewReader(source), &meta)
	if err != nil {
		return nil, nil, fmt.Errorf("parse frontmatter: %w", err)
	}
	return meta, body, nil
}

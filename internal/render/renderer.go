package render

import (
	"bytes"

	"github.com/goliatone/go-jszoo/internal/catalog"
	"github.com/goliatone/go-jszoo/internal/logging"
	"github.com/goliatone/go-jszoo/pkg/interfaces"
)

// Renderer regenerates badges and tables of catalog documents.
type Renderer struct {
	linksBase string
	index     string
	logger    interfaces.Logger
}

// NewRenderer builds a renderer. index is the slash path of the top-level
// document whose badges use block containers.
func NewRenderer(linksBase, index string, logger interfaces.Logger) *Renderer {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &Renderer{linksBase: linksBase, index: index, logger: logger}
}

// UpdateBadges refreshes the shields of the document at path.
func (r *Renderer) UpdateBadges(path string, source []byte) []byte {
	return ApplyBadges(source, path == r.index)
}

// UpdateTables refreshes badges then every generated table of the document
// at path from rows. The result equals source when nothing changed.
func (r *Renderer) UpdateTables(path string, source []byte, rows []catalog.Row) ([]byte, error) {
	updated := r.UpdateBadges(path, source)

	decorated := Decorator{Document: path, LinksBase: r.linksBase}.Decorate(rows)
	SortRows(decorated)

	out, err := ApplyTables(path, updated, decorated)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(out, source) {
		r.logger.Debug("render.document.changed", "document", path, "rows", len(decorated))
	}
	return out, nil
}

package catalogcmd

import (
	"path"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	updateCatalogMessageType   = "jszoo.catalog.update"
	formatDocumentsMessageType = "jszoo.catalog.format"
	checkDocumentsMessageType  = "jszoo.catalog.check"
	previewDocumentMessageType = "jszoo.catalog.preview"
)

// UpdateCatalogCommand runs a full update: conformance, every catalog,
// exports and generated tables.
type UpdateCatalogCommand struct {
	// FormatMarkdown reformats metadata, badges and conformance sections of entry documents.
	FormatMarkdown bool `json:"format_markdown,omitempty"`
	// GitHub enriches rows with repository statistics.
	GitHub bool `json:"github,omitempty"`
	// Snapshot persists rows to the snapshot database.
	Snapshot bool `json:"snapshot,omitempty"`
	// DryRun reports changes without writing files.
	DryRun bool `json:"dry_run,omitempty"`
}

// Type implements command.Message.
func (UpdateCatalogCommand) Type() string { return updateCatalogMessageType }

// Validate rejects snapshots of dry runs; nothing would be persisted consistently.
func (cmd UpdateCatalogCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Snapshot, validation.By(func(value any) error {
			if value.(bool) && cmd.DryRun {
				return validation.NewError("jszoo.catalog.update.snapshot_dry_run", "snapshot cannot be combined with dry run")
			}
			return nil
		})),
	)
}

// FormatDocumentsCommand reformats the metadata list of every entry document.
type FormatDocumentsCommand struct {
	DryRun bool `json:"dry_run,omitempty"`
}

// Type implements command.Message.
func (FormatDocumentsCommand) Type() string { return formatDocumentsMessageType }

// Validate implements command.Message validation; the command has no required input.
func (FormatDocumentsCommand) Validate() error { return nil }

// CheckDocumentsCommand parses every entry document and reports format errors.
type CheckDocumentsCommand struct{}

// Type implements command.Message.
func (CheckDocumentsCommand) Type() string { return checkDocumentsMessageType }

// Validate implements command.Message validation.
func (CheckDocumentsCommand) Validate() error { return nil }

// PreviewDocumentCommand renders a catalog document to HTML.
type PreviewDocumentCommand struct {
	// Path is relative to the catalog root.
	Path string `json:"path"`
}

// Type implements command.Message.
func (PreviewDocumentCommand) Type() string { return previewDocumentMessageType }

// Validate ensures a markdown document inside the root was named.
func (cmd PreviewDocumentCommand) Validate() error {
	return validation.ValidateStruct(&cmd,
		validation.Field(&cmd.Path, validation.Required, validation.By(func(value any) error {
			p := strings.TrimSpace(value.(string))
			if p == "" {
				return validation.NewError("jszoo.catalog.preview.path_required", "path is required")
			}
			if path.Ext(p) != ".md" {
				return validation.NewError("jszoo.catalog.preview.path_extension", "path must name a .md document")
			}
			if clean := path.Clean(p); strings.HasPrefix(clean, "../") || path.IsAbs(clean) {
				return validation.NewError("jszoo.catalog.preview.path_outside_root", "path must stay inside the catalog root")
			}
			return nil
		})),
	)
}

package logging

import (
	"context"
	"strings"

	"github.com/goliatone/go-jszoo/pkg/interfaces"
)

const (
	rootModule        = "jszoo"
	metadataModule    = "jszoo.metadata"
	catalogModule     = "jszoo.catalog"
	renderModule      = "jszoo.render"
	conformanceModule = "jszoo.conformance"
	repometaModule    = "jszoo.repometa"
	exportModule      = "jszoo.export"
)

const (
	fieldDocumentPath = "document"
	fieldCatalogKind  = "kind"
	fieldAction       = "action"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The module name is attached
// as a structured field.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// RootLogger returns the top-level namespace used by the run orchestration.
func RootLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, rootModule)
}

// MetadataLogger returns the namespace for document parsing and formatting.
func MetadataLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, metadataModule)
}

// CatalogLogger returns the namespace for row merging.
func CatalogLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, catalogModule)
}

// RenderLogger returns the namespace for table and badge regeneration.
func RenderLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, renderModule)
}

// ConformanceLogger returns the namespace for conformance parsing and reports.
func ConformanceLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, conformanceModule)
}

// RepoMetaLogger returns the namespace for repository statistics lookups.
func RepoMetaLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, repometaModule)
}

// ExportLogger returns the namespace for JSON exports and snapshots.
func ExportLogger(provider interfaces.LoggerProvider) interfaces.Logger {
	return ModuleLogger(provider, exportModule)
}

// WithDocumentContext enriches logger with the document path, catalog kind
// and action being performed. Empty values are ignored.
func WithDocumentContext(logger interfaces.Logger, path, kind, action string) interfaces.Logger {
	fields := map[string]any{}
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		fields[fieldDocumentPath] = trimmed
	}
	if trimmed := strings.TrimSpace(kind); trimmed != "" {
		fields[fieldCatalogKind] = trimmed
	}
	if trimmed := strings.TrimSpace(action); trimmed != "" {
		fields[fieldAction] = trimmed
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}

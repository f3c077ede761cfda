package catalogcmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-jszoo/internal/commands"
	"github.com/goliatone/go-jszoo/internal/generator"
	"github.com/goliatone/go-jszoo/internal/logging"
	"github.com/goliatone/go-jszoo/pkg/interfaces"
)

const (
	updateOperation  = "catalog.update"
	formatOperation  = "catalog.format"
	checkOperation   = "catalog.check"
	previewOperation = "catalog.preview"
)

var (
	// ErrGitHubFeatureDisabled is returned when GitHub enrichment is requested but disabled.
	ErrGitHubFeatureDisabled = errors.New("catalog command: github feature disabled")
	// ErrSnapshotFeatureDisabled is returned when a snapshot is requested but disabled.
	ErrSnapshotFeatureDisabled = errors.New("catalog command: snapshot feature disabled")
)

var (
	_ command.Commander[UpdateCatalogCommand]   = (*UpdateCatalogHandler)(nil)
	_ command.Commander[FormatDocumentsCommand] = (*FormatDocumentsHandler)(nil)
	_ command.Commander[CheckDocumentsCommand]  = (*CheckDocumentsHandler)(nil)
	_ command.Commander[PreviewDocumentCommand] = (*PreviewDocumentHandler)(nil)
)

// UpdateCatalogHandler runs generator updates through the shared command handler.
type UpdateCatalogHandler struct {
	inner *commands.Handler[UpdateCatalogCommand]
}

// NewUpdateCatalogHandler creates a handler bound to the generator service.
// observe, when set, receives every successful result.
func NewUpdateCatalogHandler(service generator.Service, logger interfaces.Logger, gates FeatureGates, observe func(*generator.UpdateResult), opts ...commands.HandlerOption[UpdateCatalogCommand]) *UpdateCatalogHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg UpdateCatalogCommand) error {
		if msg.GitHub && !gates.githubEnabled() {
			return ErrGitHubFeatureDisabled
		}
		if msg.Snapshot && !gates.snapshotEnabled() {
			return ErrSnapshotFeatureDisabled
		}
		result, err := service.Update(ctx, generator.UpdateOptions{
			FormatMarkdown: msg.FormatMarkdown,
			GitHub:         msg.GitHub,
			Snapshot:       msg.Snapshot,
			DryRun:         msg.DryRun,
		})
		if err != nil {
			return err
		}
		rows := 0
		for _, kind := range result.Kinds {
			rows += kind.Rows
		}
		logging.WithFields(baseLogger.WithContext(ctx), map[string]any{
			"run_id":        result.RunID,
			"rows":          rows,
			"written_count": len(result.Written),
			"dry_run":       result.DryRun,
		}).Info("catalog.command.update.completed")
		if observe != nil {
			observe(result)
		}
		return nil
	}

	handlerOpts := []commands.HandlerOption[UpdateCatalogCommand]{
		commands.WithLogger[UpdateCatalogCommand](baseLogger),
		commands.WithOperation[UpdateCatalogCommand](updateOperation),
		commands.WithMessageFields(func(msg UpdateCatalogCommand) map[string]any {
			fields := map[string]any{}
			if msg.FormatMarkdown {
				fields["format_markdown"] = true
			}
			if msg.GitHub {
				fields["github"] = true
			}
			if msg.Snapshot {
				fields["snapshot"] = true
			}
			if msg.DryRun {
				fields["dry_run"] = true
			}
			return fields
		}),
		commands.WithTelemetry(commands.DefaultTelemetry[UpdateCatalogCommand]()),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &UpdateCatalogHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[UpdateCatalogCommand].
func (h *UpdateCatalogHandler) Execute(ctx context.Context, msg UpdateCatalogCommand) error {
	return h.inner.Execute(ctx, msg)
}

// FormatDocumentsHandler reformats entry documents.
type FormatDocumentsHandler struct {
	inner *commands.Handler[FormatDocumentsCommand]
}

// NewFormatDocumentsHandler creates a handler bound to the generator service.
func NewFormatDocumentsHandler(service generator.Service, logger interfaces.Logger, opts ...commands.HandlerOption[FormatDocumentsCommand]) *FormatDocumentsHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg FormatDocumentsCommand) error {
		result, err := service.Format(ctx, generator.FormatOptions{DryRun: msg.DryRun})
		if err != nil {
			return err
		}
		logging.WithFields(baseLogger.WithContext(ctx), map[string]any{
			"documents":     result.Documents,
			"written_count": len(result.Written),
			"dry_run":       msg.DryRun,
		}).Info("catalog.command.format.completed")
		return nil
	}

	handlerOpts := []commands.HandlerOption[FormatDocumentsCommand]{
		commands.WithLogger[FormatDocumentsCommand](baseLogger),
		commands.WithOperation[FormatDocumentsCommand](formatOperation),
		commands.WithTelemetry(commands.DefaultTelemetry[FormatDocumentsCommand]()),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &FormatDocumentsHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[FormatDocumentsCommand].
func (h *FormatDocumentsHandler) Execute(ctx context.Context, msg FormatDocumentsCommand) error {
	return h.inner.Execute(ctx, msg)
}

// CheckDocumentsHandler parses entry documents without writing.
type CheckDocumentsHandler struct {
	inner *commands.Handler[CheckDocumentsCommand]
}

// NewCheckDocumentsHandler creates a handler that fails when any document is malformed.
// Every format error is written to report, one per line.
func NewCheckDocumentsHandler(service generator.Service, logger interfaces.Logger, report io.Writer, opts ...commands.HandlerOption[CheckDocumentsCommand]) *CheckDocumentsHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, _ CheckDocumentsCommand) error {
		result, err := service.Check(ctx)
		if result != nil && report != nil {
			for _, docErr := range result.Errors {
				fmt.Fprintln(report, docErr)
			}
		}
		if err != nil {
			return err
		}
		baseLogger.WithContext(ctx).Info("catalog.command.check.completed", "documents", result.Documents)
		return nil
	}

	handlerOpts := []commands.HandlerOption[CheckDocumentsCommand]{
		commands.WithLogger[CheckDocumentsCommand](baseLogger),
		commands.WithOperation[CheckDocumentsCommand](checkOperation),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &CheckDocumentsHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[CheckDocumentsCommand].
func (h *CheckDocumentsHandler) Execute(ctx context.Context, msg CheckDocumentsCommand) error {
	return h.inner.Execute(ctx, msg)
}

// PreviewDocumentHandler renders a document to HTML on out.
type PreviewDocumentHandler struct {
	inner *commands.Handler[PreviewDocumentCommand]
}

// NewPreviewDocumentHandler creates a preview handler writing to out.
func NewPreviewDocumentHandler(service generator.Service, out io.Writer, logger interfaces.Logger, opts ...commands.HandlerOption[PreviewDocumentCommand]) *PreviewDocumentHandler {
	baseLogger := commands.EnsureLogger(logger)

	exec := func(ctx context.Context, msg PreviewDocumentCommand) error {
		html, err := service.Preview(ctx, msg.Path)
		if err != nil {
			return err
		}
		if out == nil {
			return nil
		}
		_, err = out.Write(html)
		return err
	}

	handlerOpts := []commands.HandlerOption[PreviewDocumentCommand]{
		commands.WithLogger[PreviewDocumentCommand](baseLogger),
		commands.WithOperation[PreviewDocumentCommand](previewOperation),
		commands.WithMessageFields(func(msg PreviewDocumentCommand) map[string]any {
			return map[string]any{"document": msg.Path}
		}),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &PreviewDocumentHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[PreviewDocumentCommand].
func (h *PreviewDocumentHandler) Execute(ctx context.Context, msg PreviewDocumentCommand) error {
	return h.inner.Execute(ctx, msg)
}

package generator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goliatone/go-jszoo/internal/catalog"
	"github.com/goliatone/go-jszoo/internal/conformance"
	"github.com/goliatone/go-jszoo/internal/export"
	"github.com/goliatone/go-jszoo/internal/export/snapshot"
	"github.com/goliatone/go-jszoo/internal/identity"
	"github.com/goliatone/go-jszoo/internal/logging"
	"github.com/goliatone/go-jszoo/internal/markdown"
	"github.com/goliatone/go-jszoo/internal/metadata"
	"github.com/goliatone/go-jszoo/internal/render"
	"github.com/goliatone/go-jszoo/internal/runtimeconfig"
	"github.com/goliatone/go-jszoo/pkg/interfaces"
)

var (
	// ErrServiceDisabled indicates the generator was built without a usable configuration.
	ErrServiceDisabled = errors.New("generator: service disabled")
	// ErrUnknownKind is returned when a table references a catalog that is not configured.
	ErrUnknownKind = errors.New("generator: unknown catalog kind")
)

// Service runs the catalog maintenance workflows.
type Service interface {
	Update(ctx context.Context, opts UpdateOptions) (*UpdateResult, error)
	Format(ctx context.Context, opts FormatOptions) (*FormatResult, error)
	Check(ctx context.Context) (*CheckResult, error)
	Preview(ctx context.Context, document string) ([]byte, error)
}

// UpdateOptions narrows one update run.
type UpdateOptions struct {
	// FormatMarkdown reformats metadata lists and refreshes badges and
	// conformance sections of every entry document.
	FormatMarkdown bool
	// GitHub enriches rows with repository statistics.
	GitHub bool
	// Snapshot persists rows through the snapshot store.
	Snapshot bool
	// DryRun computes everything but writes nothing.
	DryRun bool
}

// KindResult reports what an update run produced for one catalog.
type KindResult struct {
	Kind     string
	Rows     int
	Exports  []string
	Snapshot *snapshot.SaveResult
}

// UpdateResult aggregates an update run.
type UpdateResult struct {
	RunID    string
	Kinds    []KindResult
	Written  []string
	DryRun   bool
	Duration time.Duration
}

// FormatOptions narrows a format run.
type FormatOptions struct {
	DryRun bool
}

// FormatResult lists the documents a format run rewrote.
type FormatResult struct {
	Documents int
	Written   []string
}

// CheckResult collects every format error found while parsing.
type CheckResult struct {
	Documents int
	Errors    []error
}

// Enricher adds external statistics to a row in place. fetch allows
// network lookups; without it only cached statistics are applied.
type Enricher interface {
	Enrich(ctx context.Context, row catalog.Row, fetch bool) error
}

// SnapshotWriter persists the rows of one catalog.
type SnapshotWriter interface {
	Save(ctx context.Context, kind, runID string, rows []catalog.Row) (snapshot.SaveResult, error)
}

// Dependencies lists the collaborators of the generator. Nil fields fall
// back to defaults derived from the configuration; a nil Enricher or
// Snapshot disables the matching option.
type Dependencies struct {
	Registry       *metadata.Registry
	Loader         *markdown.Loader
	Renderer       *render.Renderer
	Markdown       interfaces.MarkdownRenderer
	Validator      catalog.FragmentValidator
	Enricher       Enricher
	Snapshot       SnapshotWriter
	LoggerProvider interfaces.LoggerProvider
	RunID          func() string
}

type service struct {
	cfg  runtimeconfig.Config
	deps Dependencies
	now  func() time.Time

	logger            interfaces.Logger
	catalogLogger     interfaces.Logger
	conformanceLogger interfaces.Logger
	exportLogger      interfaces.Logger
	metadataLogger    interfaces.Logger
}

type disabledService struct{}

// NewService wires a generator with the provided configuration and dependencies.
func NewService(cfg runtimeconfig.Config, deps Dependencies) Service {
	if deps.Registry == nil {
		deps.Registry = metadata.DefaultRegistry()
	}
	if deps.Loader == nil {
		deps.Loader = markdown.NewDirLoader(cfg.Root)
	}
	if deps.Renderer == nil {
		deps.Renderer = render.NewRenderer(cfg.Links.Base, cfg.Index, logging.RenderLogger(deps.LoggerProvider))
	}
	if deps.Markdown == nil {
		deps.Markdown = markdown.NewGoldmarkRenderer(interfaces.RenderOptions{
			Extensions: cfg.Markdown.Extensions,
			HardWraps:  cfg.Markdown.HardWraps,
			SafeMode:   cfg.Markdown.SafeMode,
		})
	}
	if deps.RunID == nil {
		deps.RunID = identity.RunID
	}
	return &service{
		cfg:               cfg,
		deps:              deps,
		now:               time.Now,
		logger:            logging.RootLogger(deps.LoggerProvider),
		catalogLogger:     logging.CatalogLogger(deps.LoggerProvider),
		conformanceLogger: logging.ConformanceLogger(deps.LoggerProvider),
		exportLogger:      logging.ExportLogger(deps.LoggerProvider),
		metadataLogger:    logging.MetadataLogger(deps.LoggerProvider),
	}
}

// NewDisabledService returns a Service that fails every operation with ErrServiceDisabled.
func NewDisabledService() Service {
	return disabledService{}
}

// Update runs conformance parsing, every configured catalog in order, then
// the generated tables.
func (s *service) Update(ctx context.Context, opts UpdateOptions) (*UpdateResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := s.now()
	runID := s.deps.RunID()
	ctx = logging.ContextWithFields(ctx, map[string]any{"run_id": runID})
	logger := s.logger.WithContext(ctx)

	result := &UpdateResult{RunID: runID, DryRun: opts.DryRun}
	logger.Info("generator.update.start",
		"format_markdown", opts.FormatMarkdown,
		"github", opts.GitHub,
		"snapshot", opts.Snapshot,
		"dry_run", opts.DryRun,
	)

	scores, err := s.loadConformance(ctx)
	if err != nil {
		return nil, err
	}

	rowsByKind := map[string][]catalog.Row{}
	for _, kind := range s.cfg.Kinds {
		rows, written, err := s.buildKind(ctx, kind, scores, opts)
		result.Written = append(result.Written, written...)
		if err != nil {
			return result, err
		}
		rowsByKind[kind.Name] = rows

		kindResult, err := s.publish(ctx, kind, runID, rows, opts)
		if err != nil {
			return result, err
		}
		result.Kinds = append(result.Kinds, kindResult)
	}

	for _, table := range s.cfg.Tables {
		rows, ok := rowsByKind[table.Kind]
		if !ok {
			return result, fmt.Errorf("%w: %s (table %s)", ErrUnknownKind, table.Kind, table.Document)
		}
		written, err := s.updateTables(ctx, table.Document, rows, opts.DryRun)
		if err != nil {
			return result, err
		}
		if written {
			result.Written = append(result.Written, table.Document)
		}
	}

	result.Duration = s.now().Sub(start)
	logger.Info("generator.update.completed",
		"kinds", len(result.Kinds),
		"written", len(result.Written),
		"duration", result.Duration,
	)
	return result, nil
}

func (s *service) loadConformance(ctx context.Context) (conformance.Set, error) {
	logger := s.conformanceLogger.WithContext(ctx)
	weights := conformance.Weights{}
	if file := s.cfg.Conformance.WeightsFile; file != "" {
		loaded, err := conformance.LoadWeights(s.path(file))
		switch {
		case err == nil:
			weights = loaded
		case errors.Is(err, os.ErrNotExist):
			logger.Warn("conformance.weights.missing", "file", file)
		default:
			return nil, err
		}
	}
	set, err := conformance.LoadResultsDir(ctx, s.cfg.Root, s.cfg.Conformance.ResultsDir, weights, logger)
	if err != nil {
		return nil, err
	}
	logger.Debug("conformance.loaded", "records", len(set))
	return set, nil
}

func (s *service) buildKind(ctx context.Context, kind runtimeconfig.KindConfig, scores conformance.Set, opts UpdateOptions) ([]catalog.Row, []string, error) {
	logger := logging.WithFields(s.catalogLogger.WithContext(ctx), map[string]any{"kind": kind.Name})

	mergerOpts := []catalog.Option{
		catalog.WithLinksBase(s.cfg.Links.Base),
		catalog.WithLogger(logger),
	}
	if s.cfg.Fragments.Validate && s.deps.Validator != nil {
		mergerOpts = append(mergerOpts, catalog.WithValidator(s.deps.Validator))
	}
	merger := catalog.NewMerger(kind.Name, mergerOpts...)

	entries, err := s.deps.Loader.Load(ctx, kind.Glob)
	if err != nil {
		return nil, nil, err
	}

	docs := make([]*metadata.Document, len(entries))
	for i, entry := range entries {
		logger.Debug("catalog.document", "document", entry.Path)
		doc, err := metadata.Parse(entry.Path, entry.Source, s.deps.Registry)
		if err != nil {
			return nil, nil, err
		}
		docs[i] = doc
		row, err := merger.AddDocument(entry.ID, entry.Path, doc, entry.Source)
		if err != nil {
			return nil, nil, err
		}
		if s.deps.Enricher != nil {
			if err := s.deps.Enricher.Enrich(ctx, row, opts.GitHub); err != nil {
				return nil, nil, err
			}
		}
	}
	merger.AttachConformance(scores)

	var written []string
	if opts.FormatMarkdown {
		for i, entry := range entries {
			rec, _ := scores.Record(entry.ID)
			changed, err := s.formatEntry(ctx, entry, docs[i], rec, opts.DryRun)
			if err != nil {
				return nil, written, err
			}
			if changed {
				written = append(written, entry.Path)
			}
		}
	}

	for _, arch := range s.cfg.Fragments.Architectures {
		if err := merger.LoadDistDir(ctx, s.path(s.cfg.Fragments.DistDir, arch), arch); err != nil {
			return nil, written, err
		}
	}
	for _, arch := range s.cfg.Fragments.Architectures {
		if err := merger.LoadBenchDir(ctx, s.path(s.cfg.Fragments.BenchDir, arch), arch); err != nil {
			return nil, written, err
		}
	}

	rows := merger.Rows()
	render.SortRows(rows)
	logger.Info("catalog.rows", "rows", len(rows), "documents", len(entries))
	return rows, written, nil
}

// formatEntry rewrites the metadata list, badges and conformance section of
// one entry document.
func (s *service) formatEntry(ctx context.Context, entry markdown.Entry, doc *metadata.Document, rec *conformance.Record, dryRun bool) (bool, error) {
	updated, err := metadata.Write(doc, entry.Source, s.deps.Registry)
	if err != nil {
		return false, err
	}
	updated = s.deps.Renderer.UpdateBadges(entry.Path, updated)
	if rec != nil {
		section, err := conformance.RenderSection(rec, s.cfg.Conformance.MaxFailingTests)
		if err != nil {
			return false, fmt.Errorf("%s: %w", entry.Path, err)
		}
		updated = conformance.ApplySection(updated, section)
	}
	return s.write(ctx, entry.Path, entry.Source, updated, dryRun)
}

func (s *service) publish(ctx context.Context, kind runtimeconfig.KindConfig, runID string, rows []catalog.Row, opts UpdateOptions) (KindResult, error) {
	logger := s.exportLogger.WithContext(ctx)
	result := KindResult{Kind: kind.Name, Rows: len(rows)}
	if opts.DryRun {
		return result, nil
	}

	if kind.JSONOutput != "" {
		paths, err := export.Files(s.path(kind.JSONOutput), s.cfg.Export.Banner, kind.JSONPVar, rows)
		if err != nil {
			return result, err
		}
		for _, p := range paths {
			rel, relErr := filepath.Rel(s.cfg.Root, p)
			if relErr != nil {
				rel = p
			}
			result.Exports = append(result.Exports, filepath.ToSlash(rel))
		}
		logger.Info("export.written", "kind", kind.Name, "files", result.Exports)
	}

	if opts.Snapshot && s.deps.Snapshot != nil {
		saved, err := s.deps.Snapshot.Save(ctx, kind.Name, runID, rows)
		if err != nil {
			return result, err
		}
		result.Snapshot = &saved
	}
	return result, nil
}

func (s *service) updateTables(ctx context.Context, document string, rows []catalog.Row, dryRun bool) (bool, error) {
	entry, err := s.deps.Loader.LoadFile(ctx, document)
	if err != nil {
		return false, err
	}
	updated, err := s.deps.Renderer.UpdateTables(document, entry.Source, rows)
	if err != nil {
		return false, err
	}
	return s.write(ctx, document, entry.Source, updated, dryRun)
}

// Format reformats the metadata list of every entry document.
func (s *service) Format(ctx context.Context, opts FormatOptions) (*FormatResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	result := &FormatResult{}
	for _, kind := range s.cfg.Kinds {
		entries, err := s.deps.Loader.Load(ctx, kind.Glob)
		if err != nil {
			return result, err
		}
		for _, entry := range entries {
			doc, err := metadata.Parse(entry.Path, entry.Source, s.deps.Registry)
			if err != nil {
				return result, err
			}
			updated, err := metadata.Write(doc, entry.Source, s.deps.Registry)
			if err != nil {
				return result, err
			}
			result.Documents++
			changed, err := s.write(ctx, entry.Path, entry.Source, updated, opts.DryRun)
			if err != nil {
				return result, err
			}
			if changed {
				result.Written = append(result.Written, entry.Path)
			}
		}
	}
	s.metadataLogger.WithContext(ctx).Info("metadata.format.completed",
		"documents", result.Documents,
		"written", len(result.Written),
	)
	return result, nil
}

// Check parses every entry document and collects format errors. The
// returned error wraps the first one found.
func (s *service) Check(ctx context.Context) (*CheckResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := s.metadataLogger.WithContext(ctx)
	result := &CheckResult{}
	for _, kind := range s.cfg.Kinds {
		entries, err := s.deps.Loader.Load(ctx, kind.Glob)
		if err != nil {
			return result, err
		}
		for _, entry := range entries {
			result.Documents++
			if _, err := metadata.Parse(entry.Path, entry.Source, s.deps.Registry); err != nil {
				logger.Warn("metadata.check.failed", "document", entry.Path, "error", err)
				result.Errors = append(result.Errors, err)
			}
		}
	}
	if len(result.Errors) > 0 {
		return result, fmt.Errorf("generator: %d document(s) failed to parse: %w", len(result.Errors), result.Errors[0])
	}
	return result, nil
}

// Preview renders one document, relative to the root, as HTML.
func (s *service) Preview(ctx context.Context, document string) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	entry, err := s.deps.Loader.LoadFile(ctx, document)
	if err != nil {
		return nil, err
	}
	return markdown.Preview(s.deps.Markdown, entry.Source)
}

func (s *service) write(ctx context.Context, rel string, original, updated []byte, dryRun bool) (bool, error) {
	if string(original) == string(updated) {
		return false, nil
	}
	logger := s.metadataLogger.WithContext(ctx)
	if dryRun {
		logger.Info("document.changed", "document", rel, "dry_run", true)
		return true, nil
	}
	written, err := markdown.WriteIfChanged(s.path(rel), original, updated)
	if err != nil {
		return false, err
	}
	if written {
		logger.Info("document.written", "document", rel)
	}
	return written, nil
}

func (s *service) path(parts ...string) string {
	return filepath.Join(append([]string{s.cfg.Root}, parts...)...)
}

func (disabledService) Update(context.Context, UpdateOptions) (*UpdateResult, error) {
	return nil, ErrServiceDisabled
}

func (disabledService) Format(context.Context, FormatOptions) (*FormatResult, error) {
	return nil, ErrServiceDisabled
}

func (disabledService) Check(context.Context) (*CheckResult, error) {
	return nil, ErrServiceDisabled
}

func (disabledService) Preview(context.Context, string) ([]byte, error) {
	return nil, ErrServiceDisabled
}

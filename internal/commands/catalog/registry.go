package catalogcmd

import (
	"context"
	"errors"
	"io"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-jszoo/internal/commands"
	"github.com/goliatone/go-jszoo/internal/generator"
	"github.com/goliatone/go-jszoo/pkg/interfaces"
)

// CommandRegistry is the minimal registration contract expected when wiring command handlers.
type CommandRegistry interface {
	RegisterCommand(handler any) error
}

// CronRegistrar matches the function signature used by go-command registries.
type CronRegistrar func(command.HandlerConfig, any) error

// HandlerSet groups the catalog command handlers produced by RegisterCatalogCommands.
type HandlerSet struct {
	Update  *UpdateCatalogHandler
	Format  *FormatDocumentsHandler
	Check   *CheckDocumentsHandler
	Preview *PreviewDocumentHandler
}

// Option customises handler wiring during registration.
type Option func(*options)

type options struct {
	updateHandlerOpts  []commands.HandlerOption[UpdateCatalogCommand]
	formatHandlerOpts  []commands.HandlerOption[FormatDocumentsCommand]
	checkHandlerOpts   []commands.HandlerOption[CheckDocumentsCommand]
	previewHandlerOpts []commands.HandlerOption[PreviewDocumentCommand]

	observe     func(*generator.UpdateResult)
	previewOut  io.Writer
	checkReport io.Writer
}

// WithUpdateHandlerOptions forwards options to the UpdateCatalogHandler constructor.
func WithUpdateHandlerOptions(opts ...commands.HandlerOption[UpdateCatalogCommand]) Option {
	return func(cfg *options) {
		cfg.updateHandlerOpts = append(cfg.updateHandlerOpts, opts...)
	}
}

// WithFormatHandlerOptions forwards options to the FormatDocumentsHandler constructor.
func WithFormatHandlerOptions(opts ...commands.HandlerOption[FormatDocumentsCommand]) Option {
	return func(cfg *options) {
		cfg.formatHandlerOpts = append(cfg.formatHandlerOpts, opts...)
	}
}

// WithCheckHandlerOptions forwards options to the CheckDocumentsHandler constructor.
func WithCheckHandlerOptions(opts ...commands.HandlerOption[CheckDocumentsCommand]) Option {
	return func(cfg *options) {
		cfg.checkHandlerOpts = append(cfg.checkHandlerOpts, opts...)
	}
}

// WithPreviewHandlerOptions forwards options to the PreviewDocumentHandler constructor.
func WithPreviewHandlerOptions(opts ...commands.HandlerOption[PreviewDocumentCommand]) Option {
	return func(cfg *options) {
		cfg.previewHandlerOpts = append(cfg.previewHandlerOpts, opts...)
	}
}

// WithUpdateObserver receives the result of every successful update.
func WithUpdateObserver(fn func(*generator.UpdateResult)) Option {
	return func(cfg *options) {
		cfg.observe = fn
	}
}

// WithPreviewOutput sets where rendered previews are written.
func WithPreviewOutput(w io.Writer) Option {
	return func(cfg *options) {
		cfg.previewOut = w
	}
}

// WithCheckReport sets where check failures are listed.
func WithCheckReport(w io.Writer) Option {
	return func(cfg *options) {
		cfg.checkReport = w
	}
}

// RegisterCatalogCommands builds the catalog command handlers and registers them with the
// provided registry. The HandlerSet is returned so callers can wire a dispatcher or cron.
func RegisterCatalogCommands(reg CommandRegistry, service generator.Service, provider interfaces.LoggerProvider, gates FeatureGates, opts ...Option) (*HandlerSet, error) {
	if service == nil {
		return nil, errors.New("catalog command registration: service is nil")
	}

	cfg := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	logger := commands.CommandLogger(provider, "catalog")

	set := &HandlerSet{
		Update:  NewUpdateCatalogHandler(service, logger, gates, cfg.observe, cfg.updateHandlerOpts...),
		Format:  NewFormatDocumentsHandler(service, logger, cfg.formatHandlerOpts...),
		Check:   NewCheckDocumentsHandler(service, logger, cfg.checkReport, cfg.checkHandlerOpts...),
		Preview: NewPreviewDocumentHandler(service, cfg.previewOut, logger, cfg.previewHandlerOpts...),
	}

	if reg != nil {
		for _, handler := range []any{set.Update, set.Format, set.Check, set.Preview} {
			if err := reg.RegisterCommand(handler); err != nil {
				return nil, err
			}
		}
	}
	return set, nil
}

// RegisterUpdateCron wires the update handler into a cron registrar using the supplied
// command configuration and message payload. The handler runs with a background context.
func RegisterUpdateCron(reg CronRegistrar, handler *UpdateCatalogHandler, cfg command.HandlerConfig, msg UpdateCatalogCommand) error {
	if reg == nil || handler == nil {
		return nil
	}
	return reg(cfg, func() error {
		return handler.Execute(context.Background(), msg)
	})
}

// Package jszoo maintains a catalog of JavaScript engines and parsers kept
// as markdown documents: it normalizes their metadata lists, merges build
// and benchmark fragments, exports JSON and regenerates index tables.
package jszoo

import (
	"context"

	catalogcmd "github.com/goliatone/go-jszoo/internal/commands/catalog"
	"github.com/goliatone/go-jszoo/internal/di"
	"github.com/goliatone/go-jszoo/internal/generator"
	"github.com/goliatone/go-jszoo/pkg/interfaces"
)

// GeneratorService exports the catalog generator contract.
type GeneratorService = generator.Service

// UpdateOptions exports the update run toggles.
type UpdateOptions = generator.UpdateOptions

// UpdateResult exports the update run summary.
type UpdateResult = generator.UpdateResult

// CommandHandlers exports the registered catalog command handlers.
type CommandHandlers = catalogcmd.HandlerSet

// Option overrides container wiring.
type Option = di.Option

// Module is the top level catalog runtime.
type Module struct {
	container *di.Container
}

// New constructs a module using the provided configuration and optional DI overrides.
func New(cfg Config, opts ...Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Generator returns the configured generator service.
func (m *Module) Generator() GeneratorService {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.GeneratorService()
}

// Commands returns the catalog command handlers.
func (m *Module) Commands() *CommandHandlers {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.CommandHandlers()
}

// Logger returns a module scoped logger.
func (m *Module) Logger(name string) interfaces.Logger {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.LoggerProvider().GetLogger(name)
}

// Update runs a full catalog update.
func (m *Module) Update(ctx context.Context, opts UpdateOptions) (*UpdateResult, error) {
	return m.Generator().Update(ctx, opts)
}

// Close releases resources owned by the module.
func (m *Module) Close() error {
	if m == nil || m.container == nil {
		return nil
	}
	return m.container.Close()
}

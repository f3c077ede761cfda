package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-command/dispatcher"

	catalogcmd "github.com/goliatone/go-jszoo/internal/commands/catalog"
	"github.com/goliatone/go-jszoo/internal/di"
	"github.com/goliatone/go-jszoo/internal/runtimeconfig"
)

// loadConfig reads the config file and applies global overrides. An explicit
// --config must exist; the default jszoo.yaml is optional.
func (g *Globals) loadConfig() (runtimeconfig.Config, error) {
	path := strings.TrimSpace(g.Config)
	required := path != ""
	if !required {
		path = filepath.Join(g.Root, runtimeconfig.DefaultFileName)
	}
	cfg, err := runtimeconfig.Load(path, required)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if root := strings.TrimSpace(g.Root); root != "" {
		cfg.Root = root
	}
	if level := strings.TrimSpace(g.LogLevel); level != "" {
		cfg.Logging.Level = level
	}
	return cfg, nil
}

type unsubscriber interface {
	Unsubscribe()
}

// dispatchRegistry subscribes catalog handlers on the go-command dispatcher.
type dispatchRegistry struct {
	subs []unsubscriber
}

func (r *dispatchRegistry) RegisterCommand(handler any) error {
	switch h := handler.(type) {
	case *catalogcmd.UpdateCatalogHandler:
		r.subs = append(r.subs, dispatcher.SubscribeCommand(command.Commander[catalogcmd.UpdateCatalogCommand](h)))
	case *catalogcmd.FormatDocumentsHandler:
		r.subs = append(r.subs, dispatcher.SubscribeCommand(command.Commander[catalogcmd.FormatDocumentsCommand](h)))
	case *catalogcmd.CheckDocumentsHandler:
		r.subs = append(r.subs, dispatcher.SubscribeCommand(command.Commander[catalogcmd.CheckDocumentsCommand](h)))
	case *catalogcmd.PreviewDocumentHandler:
		r.subs = append(r.subs, dispatcher.SubscribeCommand(command.Commander[catalogcmd.PreviewDocumentCommand](h)))
	default:
		return fmt.Errorf("jszoo: unsupported command handler %T", handler)
	}
	return nil
}

func (r *dispatchRegistry) close() {
	for _, sub := range r.subs {
		sub.Unsubscribe()
	}
	r.subs = nil
}

// dispatch builds a container for cfg, sends msg through the dispatcher and
// tears everything down again.
func dispatch[T command.Message](g *Globals, cfg runtimeconfig.Config, msg T, opts ...catalogcmd.Option) error {
	registry := &dispatchRegistry{}
	defer registry.close()

	diOpts := []di.Option{
		di.WithLogWriter(g.stderr),
		di.WithCommandRegistry(registry),
		di.WithCommandOptions(opts...),
	}
	container, err := di.NewContainer(cfg, diOpts...)
	if err != nil {
		return err
	}
	defer container.Close()

	return dispatcher.Dispatch(context.Background(), msg)
}

package di

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	command "github.com/goliatone/go-command"
	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-jszoo/internal/commands"
	catalogcmd "github.com/goliatone/go-jszoo/internal/commands/catalog"
	"github.com/goliatone/go-jszoo/internal/export/snapshot"
	"github.com/goliatone/go-jszoo/internal/generator"
	"github.com/goliatone/go-jszoo/internal/logging"
	"github.com/goliatone/go-jszoo/internal/logging/console"
	"github.com/goliatone/go-jszoo/internal/logging/gologger"
	"github.com/goliatone/go-jszoo/internal/repometa"
	"github.com/goliatone/go-jszoo/internal/runtimeconfig"
	"github.com/goliatone/go-jszoo/internal/validation"
	"github.com/goliatone/go-jszoo/pkg/interfaces"
)

// CommandRegistry receives every catalog command handler.
type CommandRegistry = catalogcmd.CommandRegistry

// CronRegistrar schedules the recurring update configured by Commands.UpdateCron.
type CronRegistrar = catalogcmd.CronRegistrar

// Container wires the generator, its optional integrations and the command handlers.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	logWriter      io.Writer

	bunDB         *bun.DB
	ownsDB        bool
	cacheTTL      time.Duration
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer

	httpClient *http.Client

	snapshotStore *snapshot.Store
	repoMeta      *repometa.Service
	validator     *validation.FragmentValidator

	generatorSvc generator.Service

	commandRegistry CommandRegistry
	cronRegistrar   CronRegistrar
	commandOpts     []catalogcmd.Option
	handlers        *catalogcmd.HandlerSet
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the provider derived from Config.Logging.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithLogWriter sets where the console provider writes. Defaults to stderr.
func WithLogWriter(w io.Writer) Option {
	return func(c *Container) {
		c.logWriter = w
	}
}

// WithBunDB supplies the snapshot database instead of opening Export.SnapshotDSN.
// The caller keeps ownership of db.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithCache overrides the snapshot read cache.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithHTTPClient overrides the GitHub API transport.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Container) {
		c.httpClient = client
	}
}

// WithGeneratorService overrides the generator binding.
func WithGeneratorService(svc generator.Service) Option {
	return func(c *Container) {
		c.generatorSvc = svc
	}
}

// WithCommandRegistry registers the catalog handlers with reg.
func WithCommandRegistry(reg CommandRegistry) Option {
	return func(c *Container) {
		c.commandRegistry = reg
	}
}

// WithCronRegistrar schedules Commands.UpdateCron through reg.
func WithCronRegistrar(reg CronRegistrar) Option {
	return func(c *Container) {
		c.cronRegistrar = reg
	}
}

// WithCommandOptions forwards options to the catalog command registration.
func WithCommandOptions(opts ...catalogcmd.Option) Option {
	return func(c *Container) {
		c.commandOpts = append(c.commandOpts, opts...)
	}
}

// NewContainer creates a container with the provided configuration.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{
		Config:   cfg,
		cacheTTL: cfg.Export.CacheTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLoggerProvider(); err != nil {
		return nil, err
	}
	if err := c.configureValidator(); err != nil {
		return nil, err
	}
	c.configureRepoMeta()
	if err := c.configureSnapshot(); err != nil {
		return nil, err
	}
	c.configureGenerator()
	if err := c.configureCommands(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Container) configureLoggerProvider() error {
	if c.loggerProvider != nil {
		return nil
	}
	cfg := c.Config.Logging
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "gologger":
		provider, err := gologger.NewProvider(gologger.Config{
			Level:     cfg.Level,
			Format:    cfg.Format,
			AddSource: cfg.AddSource,
			Focus:     cfg.Focus,
		})
		if err != nil {
			return err
		}
		c.loggerProvider = provider
	default:
		options := console.Options{Writer: c.logWriter}
		if level := strings.TrimSpace(cfg.Level); level != "" {
			parsed, err := console.ParseLevel(level)
			if err != nil {
				return err
			}
			options.MinLevel = &parsed
		}
		c.loggerProvider = console.NewProvider(options)
	}
	logging.RootLogger(c.loggerProvider).Debug("logger.configured", "provider", cfg.Provider)
	return nil
}

func (c *Container) configureValidator() error {
	if !c.Config.Fragments.Validate {
		return nil
	}
	validator, err := validation.NewFragmentValidator()
	if err != nil {
		return fmt.Errorf("di: fragment schemas: %w", err)
	}
	c.validator = validator
	return nil
}

// configureRepoMeta always builds the cache-backed service so cached stats
// apply to every run. The API client only exists when GitHub is enabled.
func (c *Container) configureRepoMeta() {
	gh := c.Config.GitHub
	if strings.TrimSpace(gh.CacheDir) == "" {
		return
	}
	var client *repometa.Client
	if c.Config.Features.GitHub {
		client = repometa.NewClient(repometa.ClientOptions{
			BaseURL:           gh.APIBaseURL,
			Token:             gh.Token,
			Timeout:           gh.Timeout,
			RepoDelay:         gh.RepoDelay,
			ContributorsDelay: gh.ContributorsDelay,
			HTTPClient:        c.httpClient,
		})
	}
	cacheDir := gh.CacheDir
	if !filepath.IsAbs(cacheDir) {
		cacheDir = filepath.Join(c.Config.Root, cacheDir)
	}
	logger := logging.RepoMetaLogger(c.loggerProvider)
	c.repoMeta = repometa.NewService(client, repometa.NewFileCache(cacheDir), logger)
	logger.Debug("repometa.configured", "cache_dir", cacheDir, "fetch", client != nil)
}

func (c *Container) configureCacheDefaults() {
	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if c.cacheTTL > 0 {
			cfg.TTL = c.cacheTTL
		}
		service, err := repocache.NewCacheService(cfg)
		if err == nil {
			c.cacheService = service
		}
	}
	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
}

func (c *Container) configureSnapshot() error {
	if !c.Config.Features.Snapshot {
		return nil
	}
	if c.bunDB == nil {
		dsn := c.Config.Export.SnapshotDSN
		db, err := snapshot.Open(c.Config.Export.SnapshotDriver, dsn)
		if err != nil {
			return err
		}
		c.bunDB = db
		c.ownsDB = true
	}
	c.configureCacheDefaults()

	logger := logging.ExportLogger(c.loggerProvider)
	storeOpts := []snapshot.Option{snapshot.WithLogger(logger)}
	if c.cacheService != nil {
		storeOpts = append(storeOpts, snapshot.WithCache(c.cacheService, c.keySerializer))
	}
	store := snapshot.NewStore(c.bunDB, storeOpts...)
	if err := store.Migrate(context.Background()); err != nil {
		_ = c.Close()
		return err
	}
	c.snapshotStore = store
	logger.Debug("snapshot.configured", "driver", c.Config.Export.SnapshotDriver, "cached", c.cacheService != nil)
	return nil
}

func (c *Container) configureGenerator() {
	if c.generatorSvc != nil {
		return
	}
	deps := generator.Dependencies{LoggerProvider: c.loggerProvider}
	if c.validator != nil {
		deps.Validator = c.validator
	}
	if c.repoMeta != nil {
		deps.Enricher = c.repoMeta
	}
	if c.snapshotStore != nil {
		deps.Snapshot = c.snapshotStore
	}
	c.generatorSvc = generator.NewService(c.Config, deps)
}

func (c *Container) configureCommands() error {
	features := c.Config.Features
	gates := catalogcmd.FeatureGates{
		GitHubEnabled:   func() bool { return c.Config.Features.GitHub },
		SnapshotEnabled: func() bool { return c.snapshotStore != nil },
	}

	opts := []catalogcmd.Option{}
	if timeout := c.Config.Commands.Timeout; timeout > 0 {
		opts = append(opts,
			catalogcmd.WithUpdateHandlerOptions(commands.WithTimeout[catalogcmd.UpdateCatalogCommand](timeout)),
			catalogcmd.WithFormatHandlerOptions(commands.WithTimeout[catalogcmd.FormatDocumentsCommand](timeout)),
			catalogcmd.WithCheckHandlerOptions(commands.WithTimeout[catalogcmd.CheckDocumentsCommand](timeout)),
			catalogcmd.WithPreviewHandlerOptions(commands.WithTimeout[catalogcmd.PreviewDocumentCommand](timeout)),
		)
	}
	opts = append(opts, c.commandOpts...)

	set, err := catalogcmd.RegisterCatalogCommands(c.commandRegistry, c.generatorSvc, c.loggerProvider, gates, opts...)
	if err != nil {
		return err
	}
	c.handlers = set

	expression := strings.TrimSpace(c.Config.Commands.UpdateCron)
	if expression == "" || c.cronRegistrar == nil {
		return nil
	}
	msg := catalogcmd.UpdateCatalogCommand{
		FormatMarkdown: features.FormatMarkdown,
		GitHub:         features.GitHub,
		Snapshot:       features.Snapshot,
	}
	return catalogcmd.RegisterUpdateCron(c.cronRegistrar, set.Update, command.HandlerConfig{Expression: expression}, msg)
}

// LoggerProvider exposes the configured logger provider.
func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

// GeneratorService returns the configured generator.
func (c *Container) GeneratorService() generator.Service {
	return c.generatorSvc
}

// SnapshotStore returns the snapshot store, nil when snapshots are disabled.
func (c *Container) SnapshotStore() *snapshot.Store {
	return c.snapshotStore
}

// RepoMeta returns the repository statistics service.
func (c *Container) RepoMeta() *repometa.Service {
	return c.repoMeta
}

// CommandHandlers returns the catalog command handlers.
func (c *Container) CommandHandlers() *catalogcmd.HandlerSet {
	return c.handlers
}

// Close releases the snapshot database when the container opened it.
func (c *Container) Close() error {
	if c.bunDB == nil || !c.ownsDB {
		return nil
	}
	err := c.bunDB.Close()
	c.bunDB = nil
	c.ownsDB = false
	return err
}

package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrRootRequired            = errors.New("jszoo config: root directory is required")
	ErrKindsRequired           = errors.New("jszoo config: at least one catalog kind is required")
	ErrKindNameRequired        = errors.New("jszoo config: catalog kind name is required")
	ErrKindGlobRequired        = errors.New("jszoo config: catalog kind glob is required")
	ErrKindDuplicate           = errors.New("jszoo config: catalog kind declared twice")
	ErrTableKindUnknown        = errors.New("jszoo config: table document references an unknown kind")
	ErrTableDocumentRequired   = errors.New("jszoo config: table document path is required")
	ErrArchitecturesRequired   = errors.New("jszoo config: at least one architecture is required")
	ErrConformanceMaxFailing   = errors.New("jszoo config: conformance max failing tests must be positive")
	ErrGitHubAPIRequired       = errors.New("jszoo config: github api base url is required when github is enabled")
	ErrGitHubCacheDirRequired  = errors.New("jszoo config: github cache directory is required when github is enabled")
	ErrGitHubDelayInvalid      = errors.New("jszoo config: github request delays must be zero or positive")
	ErrSnapshotDSNRequired     = errors.New("jszoo config: snapshot dsn is required when snapshot is enabled")
	ErrSnapshotDriverUnknown   = errors.New("jszoo config: snapshot driver is invalid")
	ErrLoggingProviderRequired = errors.New("jszoo config: logging provider is required")
	ErrLoggingProviderUnknown  = errors.New("jszoo config: logging provider is invalid")
	ErrLoggingLevelInvalid     = errors.New("jszoo config: logging level is invalid")
	ErrLoggingFormatInvalid    = errors.New("jszoo config: logging format is invalid")
	ErrCommandTimeoutInvalid   = errors.New("jszoo config: command timeout must be zero or positive")
	ErrSnapshotCacheTTLInvalid = errors.New("jszoo config: snapshot cache ttl must be zero or positive")
)

// Config aggregates every knob of an update run. Paths are relative to Root.
type Config struct {
	Root        string            `yaml:"root"`
	Kinds       []KindConfig      `yaml:"kinds"`
	Tables      []TableConfig     `yaml:"tables"`
	Index       string            `yaml:"index"`
	Fragments   FragmentConfig    `yaml:"fragments"`
	Conformance ConformanceConfig `yaml:"conformance"`
	GitHub      GitHubConfig      `yaml:"github"`
	Export      ExportConfig      `yaml:"export"`
	Links       LinksConfig       `yaml:"links"`
	Markdown    MarkdownConfig    `yaml:"markdown"`
	Commands    CommandsConfig    `yaml:"commands"`
	Features    Features          `yaml:"features"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// KindConfig describes one catalog: where its documents live and where its
// rows are exported. An empty JSONOutput disables the export.
type KindConfig struct {
	Name       string `yaml:"name"`
	Glob       string `yaml:"glob"`
	JSONOutput string `yaml:"json_output"`
	JSONPVar   string `yaml:"jsonp_var"`
}

// TableConfig binds a markdown document holding generated tables to the
// catalog whose rows feed them.
type TableConfig struct {
	Document string `yaml:"document"`
	Kind     string `yaml:"kind"`
}

// FragmentConfig locates dist and bench JSON fragments.
type FragmentConfig struct {
	DistDir       string   `yaml:"dist_dir"`
	BenchDir      string   `yaml:"bench_dir"`
	Architectures []string `yaml:"architectures"`
	Validate      bool     `yaml:"validate"`
}

// ConformanceConfig locates conformance logs and weights.
type ConformanceConfig struct {
	ResultsDir      string `yaml:"results_dir"`
	WeightsFile     string `yaml:"weights_file"`
	MaxFailingTests int    `yaml:"max_failing_tests"`
}

// GitHubConfig configures repository statistics lookups.
type GitHubConfig struct {
	Token             string        `yaml:"token"`
	APIBaseURL        string        `yaml:"api_base_url"`
	CacheDir          string        `yaml:"cache_dir"`
	RepoDelay         time.Duration `yaml:"repo_delay"`
	ContributorsDelay time.Duration `yaml:"contributors_delay"`
	Timeout           time.Duration `yaml:"timeout"`
}

// ExportConfig controls JSON exports and the optional snapshot database.
type ExportConfig struct {
	Banner         []string      `yaml:"banner"`
	SnapshotDriver string        `yaml:"snapshot_driver"`
	SnapshotDSN    string        `yaml:"snapshot_dsn"`
	// CacheTTL bounds snapshot read caching. Zero keeps the cache default.
	CacheTTL       time.Duration `yaml:"cache_ttl"`
}

// LinksConfig holds the public base URL of the catalog documents.
type LinksConfig struct {
	Base string `yaml:"base"`
}

// MarkdownConfig mirrors interfaces.RenderOptions for previews.
type MarkdownConfig struct {
	Extensions []string `yaml:"extensions"`
	HardWraps  bool     `yaml:"hard_wraps"`
	SafeMode   bool     `yaml:"safe_mode"`
}

// CommandsConfig captures command-layer behaviour.
type CommandsConfig struct {
	Timeout    time.Duration `yaml:"timeout"`
	// UpdateCron schedules a recurring update when a cron registrar is wired.
	UpdateCron string        `yaml:"update_cron"`
}

// Features toggles optional parts of the update run.
type Features struct {
	FormatMarkdown bool `yaml:"format_markdown"`
	GitHub         bool `yaml:"github"`
	Snapshot       bool `yaml:"snapshot"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `yaml:"provider"`
	Level     string   `yaml:"level"`
	Format    string   `yaml:"format"`
	AddSource bool     `yaml:"add_source"`
	Focus     []string `yaml:"focus"`
}

// DefaultConfig returns the layout of the js-zoo repository.
func DefaultConfig() Config {
	return Config{
		Root: ".",
		Kinds: []KindConfig{
			{Name: "engine", Glob: "engines/*.md", JSONOutput: "engines.json", JSONPVar: "jsz_engines"},
			{Name: "parser", Glob: "parsers/*.md"},
		},
		Tables: []TableConfig{
			{Document: "README.md", Kind: "engine"},
			{Document: "parsers/README.md", Kind: "parser"},
			{Document: "parsers/acorn.md", Kind: "engine"},
		},
		Index: "README.md",
		Fragments: FragmentConfig{
			DistDir:       "dist",
			BenchDir:      "bench",
			Architectures: []string{"arm64", "amd64"},
			Validate:      true,
		},
		Conformance: ConformanceConfig{
			ResultsDir:      "conformance/results",
			WeightsFile:     "conformance/gen-kangax.json",
			MaxFailingTests: 21,
		},
		GitHub: GitHubConfig{
			APIBaseURL:        "https://api.github.com",
			CacheDir:          ".cache/github",
			RepoDelay:         100 * time.Millisecond,
			ContributorsDelay: 250 * time.Millisecond,
			Timeout:           30 * time.Second,
		},
		Export: ExportConfig{
			Banner: []string{
				"// SPDX-FileCopyrightText: 2025 Ivan Krasilnikov",
				"// SPDX-License-Identifier: MIT",
			},
			SnapshotDriver: "sqlite3",
			SnapshotDSN:    "file:.cache/jszoo.db?cache=shared",
		},
		Links: LinksConfig{
			Base: "https://github.com/ivankra/javascript-zoo/blob/master/",
		},
		Markdown: MarkdownConfig{
			Extensions: []string{"table", "strikethrough", "linkify"},
		},
		Commands: CommandsConfig{
			Timeout: 10 * time.Minute,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
	}
}

// Kind returns the configuration of the named catalog kind.
func (cfg Config) Kind(name string) (KindConfig, bool) {
	for _, kind := range cfg.Kinds {
		if kind.Name == name {
			return kind, true
		}
	}
	return KindConfig{}, false
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	if strings.TrimSpace(cfg.Root) == "" {
		return ErrRootRequired
	}
	if len(cfg.Kinds) == 0 {
		return ErrKindsRequired
	}
	seen := map[string]bool{}
	for _, kind := range cfg.Kinds {
		name := strings.TrimSpace(kind.Name)
		if name == "" {
			return ErrKindNameRequired
		}
		if seen[name] {
			return fmt.Errorf("%w: %s", ErrKindDuplicate, name)
		}
		seen[name] = true
		if strings.TrimSpace(kind.Glob) == "" {
			return fmt.Errorf("%w: %s", ErrKindGlobRequired, name)
		}
	}
	for _, table := range cfg.Tables {
		if strings.TrimSpace(table.Document) == "" {
			return ErrTableDocumentRequired
		}
		if !seen[table.Kind] {
			return fmt.Errorf("%w: %s (%s)", ErrTableKindUnknown, table.Kind, table.Document)
		}
	}
	if len(cfg.Fragments.Architectures) == 0 {
		return ErrArchitecturesRequired
	}
	if cfg.Conformance.MaxFailingTests <= 0 {
		return ErrConformanceMaxFailing
	}
	if cfg.Features.GitHub {
		if strings.TrimSpace(cfg.GitHub.APIBaseURL) == "" {
			return ErrGitHubAPIRequired
		}
		if strings.TrimSpace(cfg.GitHub.CacheDir) == "" {
			return ErrGitHubCacheDirRequired
		}
	}
	if cfg.GitHub.RepoDelay < 0 || cfg.GitHub.ContributorsDelay < 0 {
		return ErrGitHubDelayInvalid
	}
	if cfg.Features.Snapshot {
		if strings.TrimSpace(cfg.Export.SnapshotDSN) == "" {
			return ErrSnapshotDSNRequired
		}
		if !isSupportedDriver(cfg.Export.SnapshotDriver) {
			return fmt.Errorf("%w: %s", ErrSnapshotDriverUnknown, cfg.Export.SnapshotDriver)
		}
	}
	if cfg.Commands.Timeout < 0 {
		return ErrCommandTimeoutInvalid
	}
	if cfg.Export.CacheTTL < 0 {
		return ErrSnapshotCacheTTLInvalid
	}

	provider := normalizeProvider(cfg.Logging.Provider)
	if provider == "" {
		return ErrLoggingProviderRequired
	}
	if !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedDriver(driver string) bool {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "sqlite3", "sqlite", "postgres", "pg":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}

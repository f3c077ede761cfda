package jszoo

import "github.com/goliatone/go-jszoo/internal/runtimeconfig"

var (
	ErrRootRequired            = runtimeconfig.ErrRootRequired
	ErrKindsRequired           = runtimeconfig.ErrKindsRequired
	ErrKindDuplicate           = runtimeconfig.ErrKindDuplicate
	ErrTableKindUnknown        = runtimeconfig.ErrTableKindUnknown
	ErrArchitecturesRequired   = runtimeconfig.ErrArchitecturesRequired
	ErrGitHubAPIRequired       = runtimeconfig.ErrGitHubAPIRequired
	ErrSnapshotDSNRequired     = runtimeconfig.ErrSnapshotDSNRequired
	ErrSnapshotDriverUnknown   = runtimeconfig.ErrSnapshotDriverUnknown
	ErrLoggingProviderRequired = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown  = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid     = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid    = runtimeconfig.ErrLoggingFormatInvalid
	ErrCommandTimeoutInvalid   = runtimeconfig.ErrCommandTimeoutInvalid
)

type (
	Config            = runtimeconfig.Config
	KindConfig        = runtimeconfig.KindConfig
	TableConfig       = runtimeconfig.TableConfig
	FragmentConfig    = runtimeconfig.FragmentConfig
	ConformanceConfig = runtimeconfig.ConformanceConfig
	GitHubConfig      = runtimeconfig.GitHubConfig
	ExportConfig      = runtimeconfig.ExportConfig
	LinksConfig       = runtimeconfig.LinksConfig
	MarkdownConfig    = runtimeconfig.MarkdownConfig
	CommandsConfig    = runtimeconfig.CommandsConfig
	Features          = runtimeconfig.Features
	LoggingConfig     = runtimeconfig.LoggingConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig overlays the YAML file at path onto DefaultConfig.
func LoadConfig(path string, required bool) (Config, error) {
	return runtimeconfig.Load(path, required)
}

package interfaces

// MarkdownRenderer converts catalog documents into HTML for previews.
type MarkdownRenderer interface {
	// Render converts Markdown using the renderer defaults.
	Render(markdown []byte) ([]byte, error)
	// RenderWithOptions converts Markdown using per-call overrides.
	RenderWithOptions(markdown []byte, opts RenderOptions) ([]byte, error)
}

// RenderOptions customises HTML rendering. Names stay flat so they can be
// set from configuration files and CLI flags.
type RenderOptions struct {
	Extensions []string `yaml:"extensions"`
	HardWraps  bool     `yaml:"hard_wraps"`
	SafeMode   bool     `yaml:"safe_mode"`
}

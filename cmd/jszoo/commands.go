package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	catalogcmd "github.com/goliatone/go-jszoo/internal/commands/catalog"
	"github.com/goliatone/go-jszoo/internal/generator"
)

// githubFlag accepts both --github and --github=TOKEN.
type githubFlag struct {
	Enabled bool
	Token   string
}

// IsBool lets the flag be given without a value.
func (f *githubFlag) IsBool() bool { return true }

// Decode implements kong.MapperValue.
func (f *githubFlag) Decode(ctx *kong.DecodeContext) error {
	f.Enabled = true
	if ctx.Scan.Peek().Type != kong.FlagValueToken {
		return nil
	}
	token := ctx.Scan.Pop()
	switch v := token.Value.(type) {
	case bool:
		f.Enabled = v
	case string:
		if enabled, err := strconv.ParseBool(v); err == nil {
			f.Enabled = enabled
			return nil
		}
		f.Token = strings.TrimSpace(v)
	default:
		return fmt.Errorf("--github: unexpected value %v", token.Value)
	}
	return nil
}

// UpdateCmd runs a full catalog update.
type UpdateCmd struct {
	GitHub         githubFlag `name:"github" placeholder:"TOKEN" help:"Fetch GitHub metadata. Optionally provide an API token (--github=TOKEN)"`
	FormatMarkdown bool       `name:"format-markdown" short:"m" help:"Reformat metadata in markdown files"`
	Snapshot       bool       `help:"Persist rows to the snapshot database"`
	DryRun         bool       `name:"dry-run" help:"Report changes without writing files"`
}

func (c *UpdateCmd) Run(g *Globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	if c.GitHub.Enabled {
		cfg.Features.GitHub = true
		if c.GitHub.Token != "" {
			cfg.GitHub.Token = c.GitHub.Token
		}
	}
	if c.Snapshot {
		cfg.Features.Snapshot = true
	}

	msg := catalogcmd.UpdateCatalogCommand{
		FormatMarkdown: c.FormatMarkdown || cfg.Features.FormatMarkdown,
		GitHub:         cfg.Features.GitHub,
		Snapshot:       cfg.Features.Snapshot,
		DryRun:         c.DryRun,
	}
	return dispatch(g, cfg, msg, catalogcmd.WithUpdateObserver(func(result *generator.UpdateResult) {
		printUpdate(g, result)
	}))
}

func printUpdate(g *Globals, result *generator.UpdateResult) {
	for _, kind := range result.Kinds {
		fmt.Fprintf(g.stdout, "%s: %d rows\n", kind.Kind, kind.Rows)
		if kind.Snapshot != nil {
			fmt.Fprintf(g.stdout, "%s: snapshot created=%d updated=%d bench=%d\n",
				kind.Kind, kind.Snapshot.Created, kind.Snapshot.Updated, kind.Snapshot.Bench)
		}
	}
	verb := "wrote"
	if result.DryRun {
		verb = "would write"
	}
	for _, path := range result.Written {
		fmt.Fprintf(g.stdout, "%s %s\n", verb, path)
	}
}

// FormatCmd reformats entry metadata only.
type FormatCmd struct {
	DryRun bool `name:"dry-run" help:"Report changes without writing files"`
}

func (c *FormatCmd) Run(g *Globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	return dispatch(g, cfg, catalogcmd.FormatDocumentsCommand{DryRun: c.DryRun})
}

// CheckCmd validates every entry document without writing.
type CheckCmd struct{}

func (c *CheckCmd) Run(g *Globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	return dispatch(g, cfg, catalogcmd.CheckDocumentsCommand{}, catalogcmd.WithCheckReport(g.stderr))
}

// PreviewCmd renders one document to HTML on stdout.
type PreviewCmd struct {
	File string `arg:"" help:"Markdown document, relative to the catalog root"`
}

func (c *PreviewCmd) Run(g *Globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	return dispatch(g, cfg, catalogcmd.PreviewDocumentCommand{Path: c.File}, catalogcmd.WithPreviewOutput(g.stdout))
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run(g *Globals) error {
	_, err := fmt.Fprintf(g.stdout, "jszoo %s\n", version)
	return err
}

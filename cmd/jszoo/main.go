// Command jszoo maintains the JavaScript engine catalog: it reformats entry
// metadata, merges build and benchmark fragments, exports JSON and
// regenerates the tables of the index documents.
package main

import (
	"io"
	"os"

	"github.com/alecthomas/kong"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// CLI defines the command-line interface.
type CLI struct {
	Globals

	Update  UpdateCmd  `cmd:"" default:"withargs" help:"Regenerate exports and index tables (default)"`
	Format  FormatCmd  `cmd:"" help:"Reformat the metadata list of every entry document"`
	Check   CheckCmd   `cmd:"" help:"Parse every entry document and report format errors"`
	Preview PreviewCmd `cmd:"" help:"Render a catalog document to HTML"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// Globals are flags shared by every command.
type Globals struct {
	Root     string `help:"Catalog root directory" type:"path"`
	Config   string `help:"Config file (defaults to jszoo.yaml in the root)" type:"path"`
	LogLevel string `name:"log-level" help:"Override the configured log level"`

	stdout io.Writer `kong:"-"`
	stderr io.Writer `kong:"-"`
}

func newParser(cli *CLI, stdout, stderr io.Writer) (*kong.Kong, error) {
	cli.stdout = stdout
	cli.stderr = stderr
	return kong.New(cli,
		kong.Name("jszoo"),
		kong.Description("JavaScript engine zoo catalog generator"),
		kong.UsageOnError(),
		kong.Writers(stdout, stderr),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Bind(&cli.Globals),
	)
}

func main() {
	var cli CLI
	parser, err := newParser(&cli, os.Stdout, os.Stderr)
	if err != nil {
		panic(err)
	}
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	ctx.FatalIfErrorf(ctx.Run())
}

// Package main provides the jiraconv command line tool.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/astsu-dev/jiraconv"
	"github.com/astsu-dev/jiraconv/internal/logging"
	"github.com/astsu-dev/jiraconv/internal/logging/gologger"
)

// Globals are the flags shared by every conversion command.
type Globals struct {
	Output    string `name:"output" short:"o" help:"Output file (default: stdout)" type:"path"`
	Verbose   bool   `name:"verbose" short:"v" help:"Show conversion warnings on stderr"`
	LogLevel  string `name:"log-level" help:"Log level (trace, debug, info, warn, error, fatal). Logging is off when empty"`
	LogFormat string `name:"log-format" default:"console" help:"Log format (console, json, pretty)"`
}

// CLI defines the command-line interface using Kong
var CLI struct {
	Globals

	Markup   MarkupCmd   `cmd:"" help:"Convert rich text HTML to wiki markup"`
	RichText RichTextCmd `cmd:"" name:"richtext" help:"Convert wiki markup to rich text HTML"`
	Markdown MarkdownCmd `cmd:"" help:"Convert Markdown to wiki markup"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`
}

// MarkupCmd converts rich text to markup.
type MarkupCmd struct {
	File string `arg:"" optional:"" help:"Input file (default: stdin)" type:"existingfile"`
}

func (c *MarkupCmd) Run() error {
	return run(CLI.Globals, jiraconv.ToMarkupDirection, c.File)
}

// RichTextCmd converts markup to rich text.
type RichTextCmd struct {
	File string `arg:"" optional:"" help:"Input file (default: stdin)" type:"existingfile"`
}

func (c *RichTextCmd) Run() error {
	return run(CLI.Globals, jiraconv.ToRichTextDirection, c.File)
}

// MarkdownCmd imports Markdown as markup.
type MarkdownCmd struct {
	File string `arg:"" optional:"" help:"Input file (default: stdin)" type:"existingfile"`
}

func (c *MarkdownCmd) Run() error {
	return run(CLI.Globals, jiraconv.FromMarkdownDirection, c.File)
}

// VersionCmd prints version information
type VersionCmd struct{}

func (v *VersionCmd) Run() error {
	fmt.Printf("jiraconv version %s\n", jiraconv.Version)
	return nil
}

func run(g Globals, dir jiraconv.Direction, file string) error {
	var stdin io.Reader
	if file == "" {
		stat, err := os.Stdin.Stat()
		if err != nil || stat.Mode()&os.ModeCharDevice != 0 {
			return fmt.Errorf("no input: pass a file or pipe text on stdin")
		}
		stdin = os.Stdin
	}
	return convert(g, dir, file, stdin, os.Stdout, os.Stderr)
}

// convert reads file, or stdin when file is empty, and writes the result to
// the output file or stdout. Warnings go to stderr in verbose mode.
func convert(g Globals, dir jiraconv.Direction, file string, stdin io.Reader, stdout, stderr io.Writer) error {
	cfg := jiraconv.DefaultConfig()
	cfg.WarnOnUnsupported = g.Verbose
	cfg.Logging.Level = g.LogLevel
	if g.LogFormat != "" {
		cfg.Logging.Format = g.LogFormat
	}

	conv, err := jiraconv.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	logger, err := cliLogger(cfg.Logging)
	if err != nil {
		return err
	}

	source := file
	if source == "" {
		source = "stdin"
	}
	logger = logging.WithConversionContext(logger, dir.String(), source)
	logger.Info("converting")

	var res jiraconv.Result
	switch {
	case file != "" && g.Output != "":
		res, err = conv.ConvertFileToFile(dir, file, g.Output)
	case file != "":
		res, err = conv.ConvertFile(dir, file)
	case g.Output != "":
		res, err = conv.ConvertReaderToFile(dir, stdin, g.Output)
	default:
		var sb strings.Builder
		res, err = conv.ConvertReader(dir, stdin, &sb)
	}
	if err != nil {
		logger.Error("conversion failed", "error", err)
		return err
	}

	if g.Verbose && len(res.Warnings) > 0 {
		fmt.Fprintln(stderr, "Warnings:")
		for _, w := range res.Warnings {
			fmt.Fprintf(stderr, "  - %s\n", w)
		}
		fmt.Fprintln(stderr)
	}

	if g.Output != "" {
		logger.Info("output written", "path", g.Output, "warnings", len(res.Warnings))
		return nil
	}
	_, err = fmt.Fprintln(stdout, res.Output)
	return err
}

func cliLogger(cfg jiraconv.LoggingConfig) (logging.Logger, error) {
	if strings.TrimSpace(cfg.Level) == "" {
		return logging.CLILogger(nil), nil
	}
	provider, err := gologger.NewProvider(gologger.Config{
		Level:     cfg.Level,
		Format:    cfg.Format,
		AddSource: cfg.AddSource,
	})
	if err != nil {
		return nil, err
	}
	return logging.CLILogger(provider), nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("jiraconv"),
		kong.Description("Convert between rich text HTML, Jira wiki markup and Markdown"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}

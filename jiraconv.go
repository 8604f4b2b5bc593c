// Package jiraconv converts article bodies between the restricted HTML used
// by the rich text editor and Jira-style wiki markup. Markdown can be
// imported as markup too.
//
// Conversions never fail: malformed input is recovered from and reported as
// warnings.
package jiraconv

import (
	"fmt"
	"io"
	"os"

	"github.com/astsu-dev/jiraconv/internal/document"
	"github.com/astsu-dev/jiraconv/internal/logging"
	"github.com/astsu-dev/jiraconv/internal/markdown"
	"github.com/astsu-dev/jiraconv/internal/richtext"
	"github.com/astsu-dev/jiraconv/internal/wiki"
)

// Version of the converter.
const Version = "1.0.0"

type (
	// Logger is the leveled logger warnings are reported to.
	Logger = logging.Logger
	// LoggerProvider hands out module-scoped loggers.
	LoggerProvider = logging.LoggerProvider
	// Diagnostic is a non-fatal condition found while parsing.
	Diagnostic = document.Diagnostic
)

// Options holds conversion options.
type Options struct {
	// Logger receives every reported warning at warn level. It is ignored
	// when Provider is set.
	Logger Logger
	// Provider supplies one logger per converter module.
	Provider LoggerProvider
	// WarnOnUnsupported reports elements that were unwrapped or flattened.
	// Unterminated blocks are always reported.
	WarnOnUnsupported bool
}

// Result holds conversion output with warnings.
type Result struct {
	Output      string
	Warnings    []string
	Diagnostics []Diagnostic
}

// Converter provides the conversion API.
type Converter struct {
	options  Options
	provider LoggerProvider
}

// NewConverter creates a converter with default options.
func NewConverter() *Converter {
	return NewConverterWithOptions(Options{})
}

// NewConverterWithOptions creates a converter with the given options.
func NewConverterWithOptions(opts Options) *Converter {
	provider := opts.Provider
	if provider == nil {
		provider = logging.StaticProvider{Logger: opts.Logger}
	}
	return &Converter{options: opts, provider: provider}
}

// ToMarkup converts rich text to wiki markup.
func ToMarkup(richText string) string {
	return ConvertWithOptions(ToMarkupDirection, richText, Options{}).Output
}

// ToRichText converts wiki markup to rich text.
func ToRichText(markup string) string {
	return ConvertWithOptions(ToRichTextDirection, markup, Options{}).Output
}

// FromMarkdown converts Markdown to wiki markup.
func FromMarkdown(md string) string {
	return ConvertWithOptions(FromMarkdownDirection, md, Options{}).Output
}

// ConvertWithOptions runs a single conversion.
func ConvertWithOptions(dir Direction, input string, opts Options) Result {
	return NewConverterWithOptions(opts).Convert(dir, input)
}

// ToMarkup converts rich text to wiki markup.
func (c *Converter) ToMarkup(richText string) string {
	return c.Convert(ToMarkupDirection, richText).Output
}

// ToRichText converts wiki markup to rich text.
func (c *Converter) ToRichText(markup string) string {
	return c.Convert(ToRichTextDirection, markup).Output
}

// ToMarkupWithWarnings converts rich text and returns the warnings.
func (c *Converter) ToMarkupWithWarnings(richText string) (string, []string) {
	res := c.Convert(ToMarkupDirection, richText)
	return res.Output, res.Warnings
}

// ToRichTextWithWarnings converts wiki markup and returns the warnings.
func (c *Converter) ToRichTextWithWarnings(markup string) (string, []string) {
	res := c.Convert(ToRichTextDirection, markup)
	return res.Output, res.Warnings
}

// FromMarkdown converts Markdown to wiki markup.
func (c *Converter) FromMarkdown(md string) Result {
	return c.Convert(FromMarkdownDirection, md)
}

// Convert runs the conversion selected by dir.
func (c *Converter) Convert(dir Direction, input string) Result {
	return c.convert(dir, input, "")
}

// ConvertReader converts everything read from r and writes the output to w.
func (c *Converter) ConvertReader(dir Direction, r io.Reader, w io.Writer) (Result, error) {
	input, err := io.ReadAll(r)
	if err != nil {
		return Result{}, wrapIOError(err, readFailedCode, "reading input failed")
	}
	res := c.convert(dir, string(input), "")
	if _, err := io.WriteString(w, res.Output); err != nil {
		return res, wrapIOError(err, writeFailedCode, "writing output failed")
	}
	return res, nil
}

// ConvertReaderToFile converts everything read from r into an output file.
func (c *Converter) ConvertReaderToFile(dir Direction, r io.Reader, outputPath string) (Result, error) {
	input, err := io.ReadAll(r)
	if err != nil {
		return Result{}, wrapIOError(err, readFailedCode, "reading input failed")
	}
	res := c.convert(dir, string(input), "")
	return res, writeOutput(outputPath, res.Output)
}

// ConvertFile converts a file and returns the result.
func (c *Converter) ConvertFile(dir Direction, inputPath string) (Result, error) {
	input, err := os.ReadFile(inputPath)
	if err != nil {
		return Result{}, wrapIOError(err, readFailedCode, "reading input file failed")
	}
	return c.convert(dir, string(input), inputPath), nil
}

// ConvertFileToFile converts an input file into an output file.
func (c *Converter) ConvertFileToFile(dir Direction, inputPath, outputPath string) (Result, error) {
	res, err := c.ConvertFile(dir, inputPath)
	if err != nil {
		return res, err
	}
	return res, writeOutput(outputPath, res.Output)
}

func writeOutput(path, output string) error {
	if err := os.WriteFile(path, []byte(output), 0o644); err != nil {
		return wrapIOError(err, writeFailedCode, "writing output file failed")
	}
	return nil
}

func (c *Converter) convert(dir Direction, input, source string) (res Result) {
	logger := logging.WithConversionContext(c.moduleLogger(dir), dir.String(), source)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("conversion aborted", "panic", r)
			res = Result{Warnings: []string{fmt.Sprintf("conversion aborted: %v", r)}}
		}
	}()

	var (
		doc   *document.Document
		diags []document.Diagnostic
	)
	switch dir {
	case ToMarkupDirection:
		doc, diags = richtext.Parse(input)
		res.Output = wiki.Render(doc)
	case ToRichTextDirection:
		doc, diags = wiki.Parse(input)
		res.Output = richtext.Render(doc)
	case FromMarkdownDirection:
		doc, diags = markdown.Parse([]byte(input))
		res.Output = wiki.Render(doc)
	default:
		logger.Error("unknown conversion direction", "direction", int(dir))
		return res
	}

	for _, d := range diags {
		if d.Code == document.CodeUnsupported && !c.options.WarnOnUnsupported {
			continue
		}
		logger.Warn(d.Message, "code", d.Code, "line", d.Line)
		res.Diagnostics = append(res.Diagnostics, d)
		res.Warnings = append(res.Warnings, d.String())
	}
	logger.Debug("conversion finished", "blocks", len(doc.Blocks), "warnings", len(res.Warnings))
	return res
}

func (c *Converter) moduleLogger(dir Direction) Logger {
	switch dir {
	case ToMarkupDirection:
		return logging.RichTextLogger(c.provider)
	case ToRichTextDirection:
		return logging.WikiLogger(c.provider)
	case FromMarkdownDirection:
		return logging.MarkdownLogger(c.provider)
	}
	return logging.ModuleLogger(c.provider, "")
}

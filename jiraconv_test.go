package jiraconv_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astsu-dev/jiraconv"
	"github.com/astsu-dev/jiraconv/internal/richtext"
	"github.com/astsu-dev/jiraconv/internal/wiki"
)

const linkAttrs = `target="_blank" rel="noopener noreferrer nofollow"`

func TestEmptyInput(t *testing.T) {
	assert.Equal(t, "", jiraconv.ToMarkup(""))
	assert.Equal(t, "", jiraconv.ToRichText(""))
	assert.Equal(t, "", jiraconv.FromMarkdown(""))
	assert.Equal(t, "", jiraconv.ToMarkup("  \n\t"))
	assert.Equal(t, "", jiraconv.ToRichText("\n\n\n"))
}

func TestTotality(t *testing.T) {
	inputs := []string{
		"*", "**", "***", "_", "+", "-", "!", "!!", "[", "]", "[|]", "{{", "}}",
		"{code}", "{quote}", "{code:}", "h1.", "h9. x", " * ", " # ", "----", "\\",
		"<", "<p", "</p>", "<ul><li>", "</li></ul>", "<pre>", "<blockquote>",
		"<a href=", "<img>", "<img src=''>", "&amp", "<h1><h2>x</h1></h2>",
		"*_+-*_+-", "[*|_]", "!|!", "{{{{", "\x00", "\xff\xfe",
	}
	for _, in := range inputs {
		for _, dir := range []jiraconv.Direction{
			jiraconv.ToMarkupDirection,
			jiraconv.ToRichTextDirection,
			jiraconv.FromMarkdownDirection,
		} {
			res := jiraconv.ConvertWithOptions(dir, in, jiraconv.Options{WarnOnUnsupported: true})
			for _, w := range res.Warnings {
				assert.NotContains(t, w, "conversion aborted", "%s %q", dir, in)
			}
		}
	}
}

func TestOutputIsClean(t *testing.T) {
	rich := []string{
		"<p></p><p>x</p>",
		"<p><img src=\"a.png\"></p>",
		"<h1>T</h1>\n\n\n<p> a </p>",
		"<pre>  keep  \n\n\n</pre>",
	}
	for _, in := range rich {
		out := jiraconv.ToMarkup(in)
		assert.Equal(t, wiki.Clean(out), out, "input %q", in)
		back := jiraconv.ToRichText(out)
		assert.Equal(t, richtext.Clean(back), back, "input %q", in)
	}
}

func TestSemanticRoundTrip(t *testing.T) {
	src := "<h2>Release notes</h2>" +
		"<p>Some <strong>bold</strong> and <em>italic</em> text with <a href=\"https://x.test\">a link</a>.</p>" +
		"<ul><li>one</li><li>two</li></ul>" +
		"<ol><li>first</li></ol>" +
		"<blockquote><p>quoted<br>twice</p></blockquote>" +
		"<pre><code class=\"language-go\">if a < b {\n\treturn\n}</code></pre>" +
		"<img src=\"https://x.test/a.png\" alt=\"a\">" +
		"<hr>" +
		"<p>end</p>"

	orig, _ := richtext.Parse(src)
	back, _ := richtext.Parse(jiraconv.ToRichText(jiraconv.ToMarkup(src)))
	assert.Equal(t, orig.Kinds(), back.Kinds())
}

func TestMarkupRoundTrip(t *testing.T) {
	markup := "h2. Title\n\n" +
		"Some *bold* and _it_ text\n\n" +
		" * a\n * b\n\n" +
		"{quote}\nq\n{quote}\n\n" +
		"{code:go}\nx := 1\n{code}\n\n" +
		"!https://x.test/a.png!\n\n" +
		"----"
	assert.Equal(t, markup, jiraconv.ToMarkup(jiraconv.ToRichText(markup)))
}

func TestInlineFidelity(t *testing.T) {
	assert.Equal(t, "<p><strong>A</strong> and <em>B</em></p>", jiraconv.ToRichText("*A* and _B_"))
	assert.Equal(t, "*A* and _B_", jiraconv.ToMarkup("<p><strong>A</strong> and <em>B</em></p>"))
}

func TestMidWordMarks(t *testing.T) {
	assert.Equal(t, "foo*bar* baz", jiraconv.ToMarkup("<p>foo<strong>bar</strong> baz</p>"))
	assert.Equal(t, "<p>foo<strong>bar</strong> baz</p>", jiraconv.ToRichText("foo*bar* baz"))
	assert.Equal(t, "<p>a<strong>b</strong> c</p>", jiraconv.ToRichText("a*b* c"))
}

func TestListBoundary(t *testing.T) {
	assert.Equal(t,
		"<ul>\n<li>one</li>\n<li>two</li>\n</ul>\n<p>Paragraph</p>",
		jiraconv.ToRichText(" * one\n * two\n\nParagraph"))
}

func TestCodeBlockVerbatim(t *testing.T) {
	assert.Equal(t,
		`<pre><code class="code-block">&lt;b&gt;not bold&lt;/b&gt;</code></pre>`,
		jiraconv.ToRichText("{code}\n<b>not bold</b>\n{code}"))
	assert.Equal(t,
		"{code}\n<b>not bold</b>\n{code}",
		jiraconv.ToMarkup(`<pre><code class="code-block">&lt;b&gt;not bold&lt;/b&gt;</code></pre>`))
}

func TestLinkStructure(t *testing.T) {
	rich := `<p><a href="https://x.test" ` + linkAttrs + `>site</a></p>`
	assert.Equal(t, rich, jiraconv.ToRichText("[site|https://x.test]"))
	assert.Equal(t, "[site|https://x.test]", jiraconv.ToMarkup(rich))
}

func TestUnterminatedBlock(t *testing.T) {
	out, warnings := jiraconv.NewConverter().ToRichTextWithWarnings("{code}\nfoo")
	assert.Equal(t, `<pre><code class="code-block">foo</code></pre>`, out)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "line 1")

	out, warnings = jiraconv.NewConverter().ToRichTextWithWarnings("{quote}\nfoo")
	assert.Equal(t, "<blockquote><p>foo</p></blockquote>", out)
	assert.Len(t, warnings, 1)
}

func TestToMarkupBlocks(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"paragraph", "<p>Hello <strong>world</strong></p>", "Hello *world*"},
		{"heading", "<h1>T</h1><p>x</p>", "h1. T\n\nx"},
		{"image", `<p><img src="https://x.test/a.png" alt="x"></p>`, "!https://x.test/a.png!"},
		{"break", "<p>a<br>b</p>", "a\nb"},
		{"ordered", "<ol><li>x</li><li>y</li></ol>", "# x\n # y"},
		{"quote", "<blockquote><p>a</p><p>b</p></blockquote>", "{quote}\na\nb\n{quote}"},
		{"escaped", "<p>*literal*</p>", `\*literal\*`},
		{"underline strike", "<p><u>u</u> <s>s</s></p>", "+u+ -s-"},
		{"inline code", "<p><code>a*b</code></p>", "{{a*b}}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, jiraconv.ToMarkup(tt.in))
		})
	}
}

func TestFromMarkdown(t *testing.T) {
	md := "# Title\n\nSome **bold** and *it*.\n\n- a\n- b\n\n```py\nprint(1)\n```\n"
	want := "h1. Title\n\nSome *bold* and _it_.\n\n * a\n * b\n\n{code:python}\nprint(1)\n{code}"
	assert.Equal(t, want, jiraconv.FromMarkdown(md))
}

type recordingLogger struct {
	warnings []string
	fields   []map[string]any
}

func (r *recordingLogger) Trace(string, ...any)                      {}
func (r *recordingLogger) Debug(string, ...any)                      {}
func (r *recordingLogger) Info(string, ...any)                       {}
func (r *recordingLogger) Warn(msg string, _ ...any)                 { r.warnings = append(r.warnings, msg) }
func (r *recordingLogger) Error(string, ...any)                      {}
func (r *recordingLogger) Fatal(string, ...any)                      {}
func (r *recordingLogger) WithContext(context.Context) jiraconv.Logger { return r }

func (r *recordingLogger) WithFields(fields map[string]any) jiraconv.Logger {
	r.fields = append(r.fields, fields)
	return r
}

type recordingProvider struct {
	names  []string
	logger *recordingLogger
}

func (p *recordingProvider) GetLogger(name string) jiraconv.Logger {
	p.names = append(p.names, name)
	return p.logger
}

func TestWarnOnUnsupported(t *testing.T) {
	in := "<p><custom>x</custom></p>"

	out, warnings := jiraconv.NewConverter().ToMarkupWithWarnings(in)
	assert.Equal(t, "x", out)
	assert.Empty(t, warnings)

	rec := &recordingLogger{}
	c := jiraconv.NewConverterWithOptions(jiraconv.Options{Logger: rec, WarnOnUnsupported: true})
	out, warnings = c.ToMarkupWithWarnings(in)
	assert.Equal(t, "x", out)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "<custom>")
	assert.Len(t, rec.warnings, 1)
}

func TestConverterUsesModuleLoggers(t *testing.T) {
	provider := &recordingProvider{logger: &recordingLogger{}}
	c := jiraconv.NewConverterWithOptions(jiraconv.Options{Provider: provider})

	c.ToRichText("{quote}\nopen")
	c.ToMarkup("<p>x</p>")
	c.FromMarkdown("x")

	assert.Equal(t, []string{"jiraconv.wiki", "jiraconv.richtext", "jiraconv.markdown"}, provider.names)
	assert.Len(t, provider.logger.warnings, 1)
	require.NotEmpty(t, provider.logger.fields)
	assert.Equal(t, "jiraconv.wiki", provider.logger.fields[0]["module"])
}

func TestConvertReader(t *testing.T) {
	var out bytes.Buffer
	res, err := jiraconv.NewConverter().ConvertReader(jiraconv.ToRichTextDirection, strings.NewReader("*x*"), &out)
	require.NoError(t, err)
	assert.Equal(t, "<p><strong>x</strong></p>", out.String())
	assert.Equal(t, out.String(), res.Output)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("boom") }

func TestConvertReaderReadError(t *testing.T) {
	_, err := jiraconv.NewConverter().ConvertReader(jiraconv.ToMarkupDirection, failingReader{}, &bytes.Buffer{})
	require.Error(t, err)
	assert.True(t, goerrors.IsCategory(err, goerrors.CategoryCommand))
}

func TestConvertFileToFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.md")
	out := filepath.Join(dir, "out.txt")
	require.NoError(t, os.WriteFile(in, []byte("**hi**"), 0o644))

	res, err := jiraconv.NewConverter().ConvertFileToFile(jiraconv.FromMarkdownDirection, in, out)
	require.NoError(t, err)
	assert.Equal(t, "*hi*", res.Output)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "*hi*", string(data))

	_, err = jiraconv.NewConverter().ConvertFile(jiraconv.FromMarkdownDirection, filepath.Join(dir, "missing.md"))
	require.Error(t, err)
}

func TestConvertReaderToFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.html")
	res, err := jiraconv.NewConverter().ConvertReaderToFile(jiraconv.ToRichTextDirection, strings.NewReader("_x_"), out)
	require.NoError(t, err)
	assert.Equal(t, "<p><em>x</em></p>", res.Output)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, res.Output, string(data))
}

func TestConvertReaderToFileWriteError(t *testing.T) {
	res, err := jiraconv.NewConverter().ConvertReaderToFile(jiraconv.ToRichTextDirection, strings.NewReader("x"), t.TempDir())
	require.Error(t, err)
	assert.True(t, goerrors.IsCategory(err, goerrors.CategoryCommand))
	assert.Equal(t, "<p>x</p>", res.Output)
}

func TestParseDirection(t *testing.T) {
	tests := map[string]jiraconv.Direction{
		"to-markup":     jiraconv.ToMarkupDirection,
		"markup":        jiraconv.ToMarkupDirection,
		"To-RichText":   jiraconv.ToRichTextDirection,
		"richtext":      jiraconv.ToRichTextDirection,
		"from-markdown": jiraconv.FromMarkdownDirection,
		" markdown ":    jiraconv.FromMarkdownDirection,
	}
	for in, want := range tests {
		got, err := jiraconv.ParseDirection(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := jiraconv.ParseDirection("sideways")
	require.Error(t, err)
	assert.True(t, goerrors.IsCategory(err, goerrors.CategoryValidation))

	assert.Equal(t, "to-richtext", jiraconv.ToRichTextDirection.String())
	assert.Equal(t, "direction(9)", jiraconv.Direction(9).String())
}

func FuzzToMarkup(f *testing.F) {
	for _, seed := range []string{
		"<p>Hello <strong>world</strong></p>",
		"<ul><li>a<ol><li>b</li></ol></li></ul>",
		"<blockquote><pre>x</pre></blockquote>",
		"<p>*_+-[]{}!|\\</p>",
		"<a href=x><img src=y></a>",
	} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, in string) {
		res := jiraconv.ConvertWithOptions(jiraconv.ToMarkupDirection, in, jiraconv.Options{})
		for _, w := range res.Warnings {
			if strings.Contains(w, "conversion aborted") {
				t.Fatalf("ToMarkup(%q): %s", in, w)
			}
		}
		if wiki.Clean(res.Output) != res.Output {
			t.Fatalf("ToMarkup(%q) output is not clean: %q", in, res.Output)
		}
	})
}

func FuzzToRichText(f *testing.F) {
	for _, seed := range []string{
		"*A* and _B_",
		" * one\n * two\n\nParagraph",
		"{code}\n<b>not bold</b>\n{code}",
		"[site|https://x.test]",
		"{code}\nfoo",
		"\\*x\\* !a.png! {{c}} +u+ -s-",
	} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, in string) {
		res := jiraconv.ConvertWithOptions(jiraconv.ToRichTextDirection, in, jiraconv.Options{})
		for _, w := range res.Warnings {
			if strings.Contains(w, "conversion aborted") {
				t.Fatalf("ToRichText(%q): %s", in, w)
			}
		}
		if richtext.Clean(res.Output) != res.Output {
			t.Fatalf("ToRichText(%q) output is not clean: %q", in, res.Output)
		}
	})
}

func TestEachMarkupLineIsParagraph(t *testing.T) {
	assert.Equal(t, "<p>a</p>\n<p>b</p>", jiraconv.ToRichText("a\nb"))
}

package wiki

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/astsu-dev/jiraconv/internal/document"
)

func text(s string) document.Inline { return document.Text(s) }

func TestParseInline(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []document.Inline
	}{
		{
			name: "bold",
			in:   "*bold*",
			want: []document.Inline{document.Mark(document.InlineBold, text("bold"))},
		},
		{
			name: "marks between words",
			in:   "*A* and _B_",
			want: []document.Inline{
				document.Mark(document.InlineBold, text("A")),
				text(" and "),
				document.Mark(document.InlineItalic, text("B")),
			},
		},
		{
			name: "underline and strike",
			in:   "+under+ -strike-",
			want: []document.Inline{
				document.Mark(document.InlineUnderline, text("under")),
				text(" "),
				document.Mark(document.InlineStrike, text("strike")),
			},
		},
		{
			name: "nested marks",
			in:   "*a _b_ c*",
			want: []document.Inline{
				document.Mark(document.InlineBold,
					text("a "),
					document.Mark(document.InlineItalic, text("b")),
					text(" c"),
				),
			},
		},
		{
			name: "mark opens inside a word",
			in:   "foo*bar* baz",
			want: []document.Inline{
				text("foo"),
				document.Mark(document.InlineBold, text("bar")),
				text(" baz"),
			},
		},
		{
			name: "marks between word parts",
			in:   "snake_case_name",
			want: []document.Inline{
				text("snake"),
				document.Mark(document.InlineItalic, text("case")),
				text("name"),
			},
		},
		{
			name: "escaped mid word delimiters",
			in:   `snake\_case\_name and 2\*3\*4`,
			want: []document.Inline{text("snake_case_name and 2*3*4")},
		},
		{
			name: "delimiter before space is literal",
			in:   "2 * 3 * 4",
			want: []document.Inline{text("2 * 3 * 4")},
		},
		{
			name: "unclosed mark",
			in:   "*unclosed",
			want: []document.Inline{text("*unclosed")},
		},
		{
			name: "escaped delimiters",
			in:   `\*not bold\*`,
			want: []document.Inline{text("*not bold*")},
		},
		{
			name: "backslash before letter is literal",
			in:   `C:\temp`,
			want: []document.Inline{text(`C:\temp`)},
		},
		{
			name: "inline code is verbatim",
			in:   "run {{a*b* _c_}} now",
			want: []document.Inline{
				text("run "),
				{Kind: document.InlineCode, Text: "a*b* _c_"},
				text(" now"),
			},
		},
		{
			name: "inline code ending in braces",
			in:   "{{a}}}} x",
			want: []document.Inline{{Kind: document.InlineCode, Text: "a}}"}, text(" x")},
		},
		{
			name: "adjacent code spans join",
			in:   "{{a}}}}{{b}}",
			want: []document.Inline{{Kind: document.InlineCode, Text: "a}}b"}},
		},
		{
			name: "link",
			in:   "[site|https://x.test]",
			want: []document.Inline{document.Link("https://x.test", text("site"))},
		},
		{
			name: "link with marked text",
			in:   "see [*docs*|https://x.test/docs] here",
			want: []document.Inline{
				text("see "),
				document.Link("https://x.test/docs", document.Mark(document.InlineBold, text("docs"))),
				text(" here"),
			},
		},
		{
			name: "bare link",
			in:   "[https://x.test]",
			want: []document.Inline{document.Link("https://x.test", text("https://x.test"))},
		},
		{
			name: "bare link with escaped brackets",
			in:   `[https://x.test/\[a\]]`,
			want: []document.Inline{document.Link("https://x.test/[a]", text("https://x.test/[a]"))},
		},
		{
			name: "nested brackets are not a bare link",
			in:   "[a[https://x.test]",
			want: []document.Inline{text("[a"), document.Link("https://x.test", text("https://x.test"))},
		},
		{
			name: "brackets without url",
			in:   "[not a link]",
			want: []document.Inline{text("[not a link]")},
		},
		{
			name: "image",
			in:   "!https://x.test/a.png!",
			want: []document.Inline{{Kind: document.InlineImage, Src: "https://x.test/a.png", Alt: "a.png"}},
		},
		{
			name: "image alt is ignored",
			in:   "!a.png|alt=my photo!",
			want: []document.Inline{{Kind: document.InlineImage, Src: "a.png", Alt: "a.png"}},
		},
		{
			name: "exclamation after word",
			in:   "wow! such!",
			want: []document.Inline{text("wow! such!")},
		},
		{
			name: "escaped pipe in image source",
			in:   `!a\|b.png!`,
			want: []document.Inline{{Kind: document.InlineImage, Src: "a|b.png", Alt: "a|b.png"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseInline(tt.in))
		})
	}
}

func TestParseInlineDelimiterOnly(t *testing.T) {
	for _, in := range []string{"*", "**", "_", "__", "!", "!!", "[", "[]", "[|]", "{{", "{{}}", "\\", "-", "+ +"} {
		assert.Equal(t, []document.Inline{text(in)}, ParseInline(in), "input %q", in)
	}
	for _, in := range []string{"***", "----", "\\\\", "*_*_", "[!|!]", "{{{{}}}}", "!|!", "-*-*-"} {
		assert.NotPanics(t, func() { ParseInline(in) }, "input %q", in)
	}
}

func TestParseInlineLongLine(t *testing.T) {
	line := strings.Repeat("*a _b ", 5000)
	spans := ParseInline(line)
	assert.Equal(t, line, document.PlainText(spans))
}

func TestEscapeTextRoundTrip(t *testing.T) {
	inputs := []string{
		"2 * 3 * 4",
		"*not bold*",
		"_not italic_ either",
		"snake_case_name",
		"a [bracket] here",
		"{{not code}}",
		"price 5$ - 10$",
		`back\slash`,
		`ends with \`,
		`escaped \* star`,
		"wow! !nope!",
		"a | b ] c",
		"x -y- z",
		"+plus+",
		"100%",
		"well-known 2*3*4",
		"}} closing braces",
	}
	for _, in := range inputs {
		escaped := escapeText(in, nil, false)
		assert.Equal(t, []document.Inline{text(in)}, ParseInline(escaped), "input %q escaped as %q", in, escaped)
	}
}

func TestSplitCodeRoundTrip(t *testing.T) {
	for _, code := range []string{"a}}b", "}}", "}", "a}", "x}}}y}}z", "{{a}}", "plain"} {
		var sb strings.Builder
		for _, piece := range splitCode(code) {
			sb.WriteString("{{" + piece + "}}")
		}
		assert.Equal(t, []document.Inline{{Kind: document.InlineCode, Text: code}}, ParseInline(sb.String()), "code %q as %q", code, sb.String())
	}
}

// parseTime reports how long ParseInline takes on build(n).
func parseTime(build func(n int) string, n int) time.Duration {
	line := build(n)
	start := time.Now()
	ParseInline(line)
	return time.Since(start)
}

func TestParseInlineScalesLinearly(t *testing.T) {
	if testing.Short() {
		t.Skip("timing test")
	}
	builders := map[string]func(n int) string{
		"open brackets":      func(n int) string { return strings.Repeat("[", n) + "]" },
		"brackets and pipes": func(n int) string { return strings.Repeat("[", n) + "|" + strings.Repeat(" ", n) + "]" },
		"bangs":              func(n int) string { return strings.Repeat("!a ", n) },
		"marks":              func(n int) string { return strings.Repeat("*a_", n) },
		"braces":             func(n int) string { return strings.Repeat("{{", n) + "}}" },
	}
	for name, build := range builders {
		small := parseTime(build, 20000)
		large := parseTime(build, 80000)
		assert.Less(t, large, 8*small+50*time.Millisecond, "%s: 20k took %v, 80k took %v", name, small, large)
	}
}

func TestEscapeTextInLink(t *testing.T) {
	assert.Equal(t, `a \| b \] c`, escapeText("a | b ] c", nil, true))
	assert.Equal(t, "a | b ] c", escapeText("a | b ] c", nil, false))
}

func TestGuardLine(t *testing.T) {
	tests := map[string]string{
		"plain":           "plain",
		"h1. heading":     `\h1. heading`,
		"* item":          `\* item`,
		"# item":          `\# item`,
		"{quote}":         `\{quote}`,
		"{code}":          `\{code}`,
		"----":            `\----`,
		"!a.png!":         `\!a.png!`,
		`\path`:           `\\path`,
		`\*already`:       `\*already`,
		"hello h1. world": "hello h1. world",
	}
	for in, want := range tests {
		assert.Equal(t, want, guardLine(in), "input %q", in)
	}
}

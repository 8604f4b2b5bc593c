// Package markdown imports GitHub Flavored Markdown into the shared document
// model so it can be written out as markup or rich text.
package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/astsu-dev/jiraconv/internal/document"
	"github.com/astsu-dev/jiraconv/internal/richtext"
)

var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
)

// builder walks a goldmark AST into a document.
type builder struct {
	source   []byte
	doc      *document.Document
	diags    []document.Diagnostic
	reported map[string]bool
}

// Parse reads Markdown into a document. Tables, nested lists and inline HTML
// have no place in the document model; they are flattened and reported.
func Parse(src []byte) (*document.Document, []document.Diagnostic) {
	b := &builder{
		source:   src,
		doc:      &document.Document{},
		reported: map[string]bool{},
	}
	if len(bytes.TrimSpace(src)) == 0 {
		return b.doc, nil
	}
	root := md.Parser().Parse(text.NewReader(src))
	b.blocks(root)
	return b.doc, b.diags
}

func (b *builder) blocks(parent ast.Node) {
	for child := parent.FirstChild(); child != nil; child = child.NextSibling() {
		b.block(child)
	}
}

func (b *builder) block(node ast.Node) {
	switch n := node.(type) {
	case *ast.Heading:
		b.doc.Append(document.Block{
			Kind:    document.KindHeading,
			Level:   min(max(n.Level, 1), 6),
			Inlines: b.inlines(n),
		})

	case *ast.Paragraph, *ast.TextBlock:
		b.paragraph(b.inlines(n))

	case *ast.FencedCodeBlock:
		b.doc.Append(document.Block{
			Kind:     document.KindCode,
			Text:     b.lines(n),
			Language: mapLanguage(string(n.Language(b.source))),
		})

	case *ast.CodeBlock:
		b.doc.Append(document.Block{Kind: document.KindCode, Text: b.lines(n)})

	case *ast.List:
		b.list(n)

	case *ast.Blockquote:
		quote := document.Block{Kind: document.KindQuote}
		b.quoteLines(&quote, n)
		if len(quote.Lines) > 0 {
			b.doc.Append(quote)
		}

	case *ast.ThematicBreak:
		b.doc.Append(document.Block{Kind: document.KindRule})

	case *ast.HTMLBlock:
		b.htmlBlock(n)

	case *east.Table:
		b.report("table", b.lineOf(n), "table flattened to paragraphs")
		b.table(n)

	default:
		if node.HasChildren() {
			b.blocks(node)
		}
	}
}

// paragraph appends spans as a paragraph, or as image blocks when the
// paragraph holds nothing but images.
func (b *builder) paragraph(spans []document.Inline) {
	if document.IsBlank(spans) {
		return
	}
	var images []document.Block
	for _, s := range spans {
		switch {
		case s.Kind == document.InlineImage:
			images = append(images, document.Block{Kind: document.KindImage, Src: s.Src, Alt: s.Alt})
		case s.Kind == document.InlineBreak:
		case s.Kind == document.InlineText && strings.TrimSpace(s.Text) == "":
		default:
			b.doc.Append(document.Block{Kind: document.KindParagraph, Inlines: spans})
			return
		}
	}
	b.doc.Append(images...)
}

func (b *builder) list(n *ast.List) {
	kind := document.KindBulletList
	if n.IsOrdered() {
		kind = document.KindOrderedList
	}
	block := document.Block{Kind: kind}
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		if item, ok := child.(*ast.ListItem); ok {
			block.Items = append(block.Items, b.itemInlines(item))
		}
	}
	b.doc.Append(block)
}

// itemInlines flattens the blocks of a list item into a single span list.
// Nested lists are folded into the item text.
func (b *builder) itemInlines(item ast.Node) []document.Inline {
	var out []document.Inline
	join := func(spans []document.Inline) {
		if document.IsBlank(spans) {
			return
		}
		if len(out) > 0 {
			out = append(out, document.Text(" "))
		}
		out = append(out, spans...)
	}
	for child := item.FirstChild(); child != nil; child = child.NextSibling() {
		switch n := child.(type) {
		case *ast.Paragraph, *ast.TextBlock, *ast.Heading:
			join(b.inlines(n))
		case *ast.List:
			b.report("nested list", b.lineOf(n), "nested list flattened into its parent item")
			for li := n.FirstChild(); li != nil; li = li.NextSibling() {
				join(b.itemInlines(li))
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if code := b.lines(n); code != "" {
				join([]document.Inline{{Kind: document.InlineCode, Text: code}})
			}
		default:
			join(b.itemInlines(n))
		}
	}
	return out
}

// quoteLines appends one quote line per paragraph, split at hard breaks.
func (b *builder) quoteLines(quote *document.Block, parent ast.Node) {
	add := func(spans []document.Inline) {
		var cur []document.Inline
		flush := func() {
			if !document.IsBlank(cur) {
				quote.Lines = append(quote.Lines, cur)
			}
			cur = nil
		}
		for _, s := range spans {
			if s.Kind == document.InlineBreak {
				flush()
				continue
			}
			cur = append(cur, s)
		}
		flush()
	}
	for child := parent.FirstChild(); child != nil; child = child.NextSibling() {
		switch n := child.(type) {
		case *ast.Paragraph, *ast.TextBlock, *ast.Heading:
			add(b.inlines(n))
		case *ast.List:
			for li := n.FirstChild(); li != nil; li = li.NextSibling() {
				add(b.itemInlines(li))
			}
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			for _, line := range strings.Split(b.lines(n), "\n") {
				add([]document.Inline{document.Text(line)})
			}
		default:
			b.quoteLines(quote, n)
		}
	}
}

// htmlBlock converts raw block HTML through the rich text parser.
func (b *builder) htmlBlock(n *ast.HTMLBlock) {
	var buf strings.Builder
	buf.WriteString(b.lines(n))
	if n.HasClosure() {
		buf.WriteByte('\n')
		buf.Write(n.ClosureLine.Value(b.source))
	}
	doc, diags := richtext.Parse(buf.String())
	b.doc.Append(doc.Blocks...)

	line := b.lineOf(n)
	for _, d := range diags {
		if d.Line == 0 {
			d.Line = line
		}
		b.diags = append(b.diags, d)
	}
}

func (b *builder) table(n *east.Table) {
	for row := n.FirstChild(); row != nil; row = row.NextSibling() {
		var spans []document.Inline
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			content := b.inlines(cell)
			if document.IsBlank(content) {
				continue
			}
			if len(spans) > 0 {
				spans = append(spans, document.Text(" | "))
			}
			spans = append(spans, content...)
		}
		if _, header := row.(*east.TableHeader); header && len(spans) > 0 {
			spans = []document.Inline{document.Mark(document.InlineBold, spans...)}
		}
		b.paragraph(spans)
	}
}

// inlines converts the inline children of node.
func (b *builder) inlines(node ast.Node) []document.Inline {
	var out []document.Inline
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		out = b.inline(out, child)
	}
	return mergeText(out)
}

func (b *builder) inline(out []document.Inline, node ast.Node) []document.Inline {
	switch n := node.(type) {
	case *ast.Text:
		out = appendText(out, string(n.Segment.Value(b.source)))
		if n.HardLineBreak() {
			out = append(out, document.Inline{Kind: document.InlineBreak})
		} else if n.SoftLineBreak() {
			out = appendText(out, " ")
		}

	case *ast.String:
		out = appendText(out, string(n.Value))

	case *ast.Emphasis:
		kind := document.InlineItalic
		if n.Level >= 2 {
			kind = document.InlineBold
		}
		out = append(out, document.Mark(kind, b.inlines(n)...))

	case *east.Strikethrough:
		out = append(out, document.Mark(document.InlineStrike, b.inlines(n)...))

	case *ast.CodeSpan:
		if code := b.codeSpan(n); code != "" {
			out = append(out, document.Inline{Kind: document.InlineCode, Text: code})
		}

	case *ast.Link:
		out = append(out, document.Link(string(n.Destination), b.inlines(n)...))

	case *ast.AutoLink:
		label := string(n.Label(b.source))
		href := string(n.URL(b.source))
		if n.AutoLinkType == ast.AutoLinkEmail && !strings.HasPrefix(href, "mailto:") {
			href = "mailto:" + href
		}
		out = append(out, document.Link(href, document.Text(label)))

	case *ast.Image:
		out = append(out, document.Inline{
			Kind: document.InlineImage,
			Src:  string(n.Destination),
			Alt:  document.PlainText(b.inlines(n)),
		})

	case *ast.RawHTML:
		out = b.rawHTML(out, n)

	case *east.TaskCheckBox:
		if n.IsChecked {
			out = appendText(out, "(/) ")
		} else {
			out = appendText(out, "( ) ")
		}

	default:
		for child := node.FirstChild(); child != nil; child = child.NextSibling() {
			out = b.inline(out, child)
		}
	}
	return out
}

// rawHTML keeps <br> as a line break and drops every other inline tag. The
// text between tags is ordinary Markdown text and survives on its own.
func (b *builder) rawHTML(out []document.Inline, n *ast.RawHTML) []document.Inline {
	var raw strings.Builder
	for i := 0; i < n.Segments.Len(); i++ {
		seg := n.Segments.At(i)
		raw.Write(seg.Value(b.source))
	}
	z := html.NewTokenizer(strings.NewReader(raw.String()))
	switch z.Next() {
	case html.StartTagToken, html.SelfClosingTagToken:
		name, _ := z.TagName()
		if atom.Lookup(name) == atom.Br {
			return append(out, document.Inline{Kind: document.InlineBreak})
		}
		b.report("<"+string(name)+">", 0, fmt.Sprintf("inline HTML <%s> stripped", name))
	}
	return out
}

func (b *builder) codeSpan(n *ast.CodeSpan) string {
	var sb strings.Builder
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch c := child.(type) {
		case *ast.Text:
			sb.Write(c.Segment.Value(b.source))
		case *ast.String:
			sb.Write(c.Value)
		}
	}
	return sb.String()
}

// lines joins the raw lines of a block node without the final newline.
func (b *builder) lines(n ast.Node) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(b.source))
	}
	return strings.TrimRight(buf.String(), "\n")
}

// lineOf returns the 1-based source line a block starts on, or 0 when the
// node carries no lines.
func (b *builder) lineOf(n ast.Node) int {
	lines := n.Lines()
	if lines == nil || lines.Len() == 0 {
		return 0
	}
	return bytes.Count(b.source[:lines.At(0).Start], []byte("\n")) + 1
}

func (b *builder) report(key string, line int, msg string) {
	if b.reported[key] {
		return
	}
	b.reported[key] = true
	b.diags = append(b.diags, document.Diagnostic{Code: document.CodeUnsupported, Line: line, Message: msg})
}

func appendText(out []document.Inline, s string) []document.Inline {
	if s == "" {
		return out
	}
	return append(out, document.Text(s))
}

// mergeText joins runs of adjacent text spans in one pass.
func mergeText(spans []document.Inline) []document.Inline {
	out := spans[:0]
	var sb strings.Builder
	for i, s := range spans {
		if s.Kind != document.InlineText {
			out = append(out, s)
			continue
		}
		sb.WriteString(s.Text)
		if i+1 < len(spans) && spans[i+1].Kind == document.InlineText {
			continue
		}
		out = append(out, document.Text(sb.String()))
		sb.Reset()
	}
	return out
}

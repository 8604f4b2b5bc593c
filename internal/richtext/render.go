package richtext

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/astsu-dev/jiraconv/internal/document"
)

const (
	imageStyle = "max-width: 100%; height: auto;"
	linkTarget = "_blank"
	linkRel    = "noopener noreferrer nofollow"
	codeClass  = "code-block"
)

var markTags = map[document.InlineKind]string{
	document.InlineBold:      "strong",
	document.InlineItalic:    "em",
	document.InlineUnderline: "u",
	document.InlineStrike:    "s",
}

// Render writes a document as rich text, one block per line. The output has
// already been through Clean.
func Render(doc *document.Document) string {
	if doc == nil {
		return ""
	}
	lines := make([]string, 0, len(doc.Blocks))
	for _, b := range doc.Blocks {
		if s := renderBlock(b); s != "" {
			lines = append(lines, s)
		}
	}
	return Clean(strings.Join(lines, "\n"))
}

func renderBlock(b document.Block) string {
	var sb strings.Builder
	switch b.Kind {
	case document.KindParagraph:
		sb.WriteString("<p>")
		writeInline(&sb, b.Inlines)
		sb.WriteString("</p>")

	case document.KindHeading:
		level := min(max(b.Level, 1), 6)
		fmt.Fprintf(&sb, "<h%d>", level)
		writeInline(&sb, b.Inlines)
		fmt.Fprintf(&sb, "</h%d>", level)

	case document.KindBulletList, document.KindOrderedList:
		tag := "ul"
		if b.Kind == document.KindOrderedList {
			tag = "ol"
		}
		sb.WriteString("<" + tag + ">\n")
		for _, item := range b.Items {
			sb.WriteString("<li>")
			writeInline(&sb, item)
			sb.WriteString("</li>\n")
		}
		sb.WriteString("</" + tag + ">")

	case document.KindQuote:
		sb.WriteString("<blockquote><p>")
		for i, line := range b.Lines {
			if i > 0 {
				sb.WriteString("<br />")
			}
			writeInline(&sb, line)
		}
		sb.WriteString("</p></blockquote>")

	case document.KindCode:
		class := codeClass
		if b.Language != "" {
			class += " language-" + b.Language
		}
		fmt.Fprintf(&sb, `<pre><code class="%s">`, html.EscapeString(class))
		sb.WriteString(html.EscapeString(b.Text))
		sb.WriteString("</code></pre>")

	case document.KindImage:
		writeImage(&sb, b.Src, b.Alt)

	case document.KindRule:
		sb.WriteString("<hr />")
	}
	return sb.String()
}

func writeInline(sb *strings.Builder, spans []document.Inline) {
	for _, s := range spans {
		switch s.Kind {
		case document.InlineText:
			sb.WriteString(html.EscapeString(s.Text))
		case document.InlineBreak:
			sb.WriteString("<br />")
		case document.InlineCode:
			sb.WriteString("<code>" + html.EscapeString(s.Text) + "</code>")
		case document.InlineImage:
			writeImage(sb, s.Src, s.Alt)
		case document.InlineLink:
			fmt.Fprintf(sb, `<a href="%s" target="%s" rel="%s">`, html.EscapeString(s.Href), linkTarget, linkRel)
			writeInline(sb, s.Children)
			sb.WriteString("</a>")
		default:
			tag, ok := markTags[s.Kind]
			if !ok || len(s.Children) == 0 {
				writeInline(sb, s.Children)
				continue
			}
			sb.WriteString("<" + tag + ">")
			writeInline(sb, s.Children)
			sb.WriteString("</" + tag + ">")
		}
	}
}

func writeImage(sb *strings.Builder, src, alt string) {
	if src == "" {
		return
	}
	if alt == "" {
		alt = document.AltFromSource(src)
	}
	fmt.Fprintf(sb, `<img src="%s" alt="%s" style="%s" />`, html.EscapeString(src), html.EscapeString(alt), imageStyle)
}

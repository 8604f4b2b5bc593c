package wiki

import (
	"fmt"
	"strings"

	"github.com/astsu-dev/jiraconv/internal/document"
)

var markDelims = map[document.InlineKind]byte{
	document.InlineBold:      '*',
	document.InlineItalic:    '_',
	document.InlineUnderline: '+',
	document.InlineStrike:    '-',
}

// Render writes a document as wiki markup. The output has already been
// through Clean.
func Render(doc *document.Document) string {
	if doc == nil {
		return ""
	}
	var buf strings.Builder
	for _, b := range doc.Blocks {
		renderBlock(&buf, b)
	}
	return Clean(buf.String())
}

func renderBlock(buf *strings.Builder, b document.Block) {
	switch b.Kind {
	case document.KindParagraph:
		for _, line := range splitLines(b.Inlines) {
			text := strings.TrimSpace(renderInline(line, nil, false))
			if text == "" {
				continue
			}
			buf.WriteString(guardLine(text))
			buf.WriteByte('\n')
		}
		buf.WriteString("\n")

	case document.KindHeading:
		text := strings.TrimSpace(renderInline(b.Inlines, nil, false))
		if text == "" {
			return
		}
		fmt.Fprintf(buf, "h%d. %s\n\n", min(max(b.Level, 1), 6), text)

	case document.KindBulletList, document.KindOrderedList:
		marker := " * "
		if b.Kind == document.KindOrderedList {
			marker = " # "
		}
		written := false
		for _, item := range b.Items {
			text := strings.TrimSpace(renderInline(item, nil, false))
			if text == "" {
				continue
			}
			buf.WriteString(marker)
			buf.WriteString(text)
			buf.WriteByte('\n')
			written = true
		}
		if written {
			buf.WriteString("\n")
		}

	case document.KindQuote:
		buf.WriteString("{quote}\n")
		for _, spans := range b.Lines {
			for _, line := range splitLines(spans) {
				text := strings.TrimSpace(renderInline(line, nil, false))
				if text == "" {
					continue
				}
				if text == "{quote}" {
					text = `\` + text
				}
				buf.WriteString(text)
				buf.WriteByte('\n')
			}
		}
		buf.WriteString("{quote}\n\n")

	case document.KindCode:
		if b.Language != "" {
			fmt.Fprintf(buf, "{code:%s}\n", b.Language)
		} else {
			buf.WriteString("{code}\n")
		}
		buf.WriteString(strings.TrimRight(b.Text, "\n"))
		buf.WriteString("\n{code}\n\n")

	case document.KindImage:
		if src := escapeImageURL(b.Src); src != "" {
			fmt.Fprintf(buf, "!%s!\n\n", src)
		}

	case document.KindRule:
		buf.WriteString(ruleMarker + "\n\n")
	}
}

// splitLines cuts spans at top-level line breaks.
func splitLines(spans []document.Inline) [][]document.Inline {
	var (
		lines [][]document.Inline
		cur   []document.Inline
	)
	for _, s := range spans {
		if s.Kind == document.InlineBreak {
			lines = append(lines, cur)
			cur = nil
			continue
		}
		cur = append(cur, s)
	}
	return append(lines, cur)
}

// renderInline writes spans with marks wrapped outermost first. open holds
// the delimiters of the enclosing marks.
func renderInline(spans []document.Inline, open []byte, inLink bool) string {
	var sb strings.Builder
	for _, s := range spans {
		switch s.Kind {
		case document.InlineText:
			sb.WriteString(escapeText(flattenNewlines(s.Text), open, inLink))

		case document.InlineBreak:
			sb.WriteByte(' ')

		case document.InlineCode:
			for _, piece := range splitCode(flattenNewlines(s.Text)) {
				sb.WriteString("{{" + piece + "}}")
			}

		case document.InlineImage:
			if src := escapeImageURL(s.Src); src != "" {
				sb.WriteString("!" + src + "!")
			}

		case document.InlineLink:
			sb.WriteString(renderLink(s, open, inLink))

		default:
			delim, ok := markDelims[s.Kind]
			if !ok || strings.IndexByte(string(open), delim) >= 0 {
				sb.WriteString(renderInline(s.Children, open, inLink))
				continue
			}
			inner := renderInline(s.Children, append(open[:len(open):len(open)], delim), inLink)
			core := strings.TrimSpace(inner)
			if core == "" {
				sb.WriteString(inner)
				continue
			}
			lead := inner[:strings.Index(inner, core)]
			trail := inner[len(lead)+len(core):]
			sb.WriteString(lead)
			sb.WriteByte(delim)
			sb.WriteString(core)
			sb.WriteByte(delim)
			sb.WriteString(trail)
		}
	}
	return sb.String()
}

// splitCode cuts code after every run of two or more closing braces that is
// followed by other text. Each piece then reads back as one {{code}} token
// and the scanner joins the pieces again.
func splitCode(code string) []string {
	var pieces []string
	start := 0
	for i := 0; i+1 < len(code); i++ {
		if code[i] != '}' || code[i+1] != '}' {
			continue
		}
		j := i + 2
		for j < len(code) && code[j] == '}' {
			j++
		}
		if j < len(code) {
			pieces = append(pieces, code[start:j])
			start = j
		}
		i = j - 1
	}
	if start < len(code) {
		pieces = append(pieces, code[start:])
	}
	return pieces
}

func renderLink(s document.Inline, open []byte, inLink bool) string {
	href := strings.TrimSpace(s.Href)
	if href == "" || inLink {
		return renderInline(s.Children, open, inLink)
	}
	if isBareLink(s) && looksLikeURL(href) {
		return "[" + strings.ReplaceAll(escapeLinkURL(href), "|", `\|`) + "]"
	}
	text := strings.TrimSpace(renderInline(s.Children, open, true))
	if text == "" {
		text = escapeText(href, open, true)
	}
	return "[" + text + "|" + escapeLinkURL(href) + "]"
}

// isBareLink reports whether the link text is the URL itself.
func isBareLink(s document.Inline) bool {
	if document.IsBlank(s.Children) {
		return true
	}
	return len(s.Children) == 1 && s.Children[0].Kind == document.InlineText &&
		strings.TrimSpace(s.Children[0].Text) == strings.TrimSpace(s.Href)
}

var newlineReplacer = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

func flattenNewlines(s string) string {
	return newlineReplacer.Replace(s)
}

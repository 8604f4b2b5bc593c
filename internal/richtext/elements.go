package richtext

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/astsu-dev/jiraconv/internal/document"
)

var markKinds = map[atom.Atom]document.InlineKind{
	atom.Strong: document.InlineBold,
	atom.B:      document.InlineBold,
	atom.Em:     document.InlineItalic,
	atom.I:      document.InlineItalic,
	atom.U:      document.InlineUnderline,
	atom.Ins:    document.InlineUnderline,
	atom.S:      document.InlineStrike,
	atom.Strike: document.InlineStrike,
	atom.Del:    document.InlineStrike,
}

// transparent elements are unwrapped without a diagnostic.
var transparent = map[atom.Atom]bool{
	atom.Html:    true,
	atom.Body:    true,
	atom.Span:    true,
	atom.Section: true,
	atom.Article: true,
	atom.Main:    true,
	atom.Header:  true,
	atom.Footer:  true,
}

// blockish elements end the current paragraph when they open or close.
var blockish = map[atom.Atom]bool{
	atom.Section:    true,
	atom.Article:    true,
	atom.Main:       true,
	atom.Header:     true,
	atom.Footer:     true,
	atom.Nav:        true,
	atom.Aside:      true,
	atom.Address:    true,
	atom.Figure:     true,
	atom.Figcaption: true,
	atom.Table:      true,
	atom.Caption:    true,
	atom.Tr:         true,
	atom.Td:         true,
	atom.Th:         true,
	atom.Dl:         true,
	atom.Dt:         true,
	atom.Dd:         true,
	atom.Details:    true,
	atom.Summary:    true,
	atom.Form:       true,
	atom.Fieldset:   true,
}

func isSkipped(a atom.Atom) bool {
	switch a {
	case atom.Script, atom.Style, atom.Head, atom.Title, atom.Template:
		return true
	}
	return false
}

func headingLevel(a atom.Atom) int {
	switch a {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	case atom.H6:
		return 6
	}
	return 0
}

func attr(tok html.Token, name string) string {
	for _, a := range tok.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val
		}
	}
	return ""
}

// languageOf reads a code language from data-language or a language-xxx /
// lang-xxx class.
func languageOf(tok html.Token) string {
	if lang := strings.TrimSpace(attr(tok, "data-language")); lang != "" {
		return lang
	}
	for _, class := range strings.Fields(attr(tok, "class")) {
		for _, prefix := range []string{"language-", "lang-"} {
			if lang, ok := strings.CutPrefix(class, prefix); ok && lang != "" {
				return lang
			}
		}
	}
	return ""
}

// trimSpans strips leading whitespace from the first text and trailing
// whitespace from the last text, descending into marks and links.
func trimSpans(spans []document.Inline) []document.Inline {
	spans = trimEdge(spans, true)
	return trimEdge(spans, false)
}

func trimEdge(spans []document.Inline, left bool) []document.Inline {
	for len(spans) > 0 {
		idx := len(spans) - 1
		if left {
			idx = 0
		}
		s := &spans[idx]
		switch {
		case s.Kind == document.InlineText:
			if left {
				s.Text = strings.TrimLeft(s.Text, " ")
			} else {
				s.Text = strings.TrimRight(s.Text, " ")
			}
			if s.Text != "" {
				return spans
			}
		case s.Kind == document.InlineBreak:
		case s.Kind.IsMark() || s.Kind == document.InlineLink:
			s.Children = trimEdge(s.Children, left)
			return spans
		default:
			return spans
		}
		if left {
			spans = spans[1:]
		} else {
			spans = spans[:idx]
		}
	}
	return spans
}

// joinSpans appends more to spans with a separating space.
func joinSpans(spans, more []document.Inline) []document.Inline {
	if len(spans) > 0 {
		spans = append(spans, document.Text(" "))
	}
	return append(spans, more...)
}

// splitBreaks cuts spans at top-level line breaks.
func splitBreaks(spans []document.Inline) [][]document.Inline {
	var (
		lines [][]document.Inline
		cur   []document.Inline
	)
	for _, s := range spans {
		if s.Kind == document.InlineBreak {
			lines = append(lines, trimSpans(cur))
			cur = nil
			continue
		}
		cur = append(cur, s)
	}
	return append(lines, trimSpans(cur))
}

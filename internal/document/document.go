// Package document holds the intermediate tree shared by the rich text,
// wiki markup and Markdown front ends. Parsers build a Document and
// renderers walk it; nothing in here performs I/O or keeps state between
// calls.
package document

import "strings"

// BlockKind identifies a block-level element.
type BlockKind int

const (
	KindParagraph BlockKind = iota
	KindHeading
	KindBulletList
	KindOrderedList
	KindQuote
	KindCode
	KindImage
	KindRule
)

func (k BlockKind) String() string {
	switch k {
	case KindParagraph:
		return "paragraph"
	case KindHeading:
		return "heading"
	case KindBulletList:
		return "bullet_list"
	case KindOrderedList:
		return "ordered_list"
	case KindQuote:
		return "quote"
	case KindCode:
		return "code"
	case KindImage:
		return "image"
	case KindRule:
		return "rule"
	default:
		return "unknown"
	}
}

// InlineKind identifies a span inside a block.
type InlineKind int

const (
	InlineText InlineKind = iota
	InlineBold
	InlineItalic
	InlineUnderline
	InlineStrike
	InlineCode
	InlineLink
	InlineImage
	InlineBreak
)

func (k InlineKind) String() string {
	switch k {
	case InlineText:
		return "text"
	case InlineBold:
		return "bold"
	case InlineItalic:
		return "italic"
	case InlineUnderline:
		return "underline"
	case InlineStrike:
		return "strike"
	case InlineCode:
		return "code"
	case InlineLink:
		return "link"
	case InlineImage:
		return "image"
	case InlineBreak:
		return "break"
	default:
		return "unknown"
	}
}

// IsMark reports whether the kind is a formatting mark that wraps children.
func (k InlineKind) IsMark() bool {
	switch k {
	case InlineBold, InlineItalic, InlineUnderline, InlineStrike:
		return true
	}
	return false
}

// Inline is a span of text or a mark wrapping other spans.
//
// Text carries the literal content for InlineText and InlineCode. Href is
// set for links, Src and Alt for images. Marks and links keep their content
// in Children.
type Inline struct {
	Kind     InlineKind
	Text     string
	Href     string
	Src      string
	Alt      string
	Children []Inline
}

// Text returns a plain text span.
func Text(s string) Inline { return Inline{Kind: InlineText, Text: s} }

// Mark returns a formatting span of the given kind around children.
func Mark(kind InlineKind, children ...Inline) Inline {
	return Inline{Kind: kind, Children: children}
}

// Link returns a hyperlink span.
func Link(href string, children ...Inline) Inline {
	return Inline{Kind: InlineLink, Href: href, Children: children}
}

// Block is a structural unit of a Document.
//
// Paragraphs and headings keep their spans in Inlines. Lists keep one span
// list per item in Items, quotes one per line in Lines. Code blocks keep the
// verbatim text in Text.
type Block struct {
	Kind     BlockKind
	Level    int
	Inlines  []Inline
	Items    [][]Inline
	Lines    [][]Inline
	Text     string
	Language string
	Src      string
	Alt      string
}

// Document is an ordered list of blocks.
type Document struct {
	Blocks []Block
}

// Append adds blocks to the document.
func (d *Document) Append(blocks ...Block) {
	d.Blocks = append(d.Blocks, blocks...)
}

// Kinds returns the ordered sequence of block kinds. Two documents with the
// same Kinds are considered structurally equivalent.
func (d *Document) Kinds() []BlockKind {
	if d == nil {
		return nil
	}
	kinds := make([]BlockKind, 0, len(d.Blocks))
	for _, b := range d.Blocks {
		kinds = append(kinds, b.Kind)
	}
	return kinds
}

// PlainText flattens spans into their visible text.
func PlainText(spans []Inline) string {
	var sb strings.Builder
	writePlain(&sb, spans)
	return sb.String()
}

func writePlain(sb *strings.Builder, spans []Inline) {
	for _, s := range spans {
		switch s.Kind {
		case InlineText, InlineCode:
			sb.WriteString(s.Text)
		case InlineBreak:
			sb.WriteByte('\n')
		case InlineImage:
		default:
			writePlain(sb, s.Children)
		}
	}
}

// IsBlank reports whether spans render to nothing but whitespace.
func IsBlank(spans []Inline) bool {
	for _, s := range spans {
		switch s.Kind {
		case InlineText:
			if strings.TrimSpace(s.Text) != "" {
				return false
			}
		case InlineBreak:
		case InlineCode, InlineImage:
			return false
		default:
			if !IsBlank(s.Children) {
				return false
			}
		}
	}
	return true
}

// AltFromSource derives image alt text from the last path segment of src.
// An empty segment, as in a URL ending in a slash, gives "image".
func AltFromSource(src string) string {
	s := src
	if i := strings.IndexAny(s, "?#"); i >= 0 {
		s = s[:i]
	}
	if name := s[strings.LastIndexByte(s, '/')+1:]; name != "" {
		return name
	}
	return "image"
}

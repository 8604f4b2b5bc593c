// Package richtext reads and writes the restricted HTML produced by the
// article editor. Parsing runs over the x/net/html tokenizer as a small
// state machine; nothing is matched with regular expressions.
package richtext

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/astsu-dev/jiraconv/internal/document"
)

// frame is an open inline element collecting its children. Text is
// gathered in pending and becomes a span when a non-text child arrives or
// the frame closes.
type frame struct {
	kind    document.InlineKind
	href    string
	tag     atom.Atom
	spans   []document.Inline
	pending []byte
}

// flush moves pending text into spans.
func (f *frame) flush() {
	if len(f.pending) == 0 {
		return
	}
	f.spans = append(f.spans, document.Text(string(f.pending)))
	f.pending = f.pending[:0]
}

type parser struct {
	doc      *document.Document
	diags    []document.Diagnostic
	reported map[string]bool

	// frames[0] is the flow root of the current block. open counts the
	// frames per tag so closing an element that is not open costs nothing.
	frames    []frame
	open      map[atom.Atom]int
	lastSpace bool

	heading int

	list      *document.Block
	listDepth int
	inItem    bool
	item      []document.Inline

	quote      *document.Block
	quoteDepth int

	pre     bool
	preBuf  strings.Builder
	preLang string

	skipDepth int
}

// Parse reads rich text into a document. Unsupported elements are
// unwrapped and their text kept; the first occurrence of each is reported.
func Parse(src string) (*document.Document, []document.Diagnostic) {
	p := &parser{
		doc:       &document.Document{},
		reported:  map[string]bool{},
		frames:    []frame{{}},
		open:      map[atom.Atom]int{},
		lastSpace: true,
	}
	if strings.TrimSpace(src) == "" {
		return p.doc, nil
	}

	z := html.NewTokenizer(strings.NewReader(src))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if z.Err() != io.EOF {
				p.unsupported("input", fmt.Sprintf("tokenizer stopped: %v", z.Err()))
			}
			break
		}
		p.token(tt, z.Token(), string(z.Raw()))
	}
	p.finish()
	return p.doc, p.diags
}

func (p *parser) token(tt html.TokenType, tok html.Token, raw string) {
	if p.skipDepth > 0 {
		switch {
		case tt == html.StartTagToken && isSkipped(tok.DataAtom):
			p.skipDepth++
		case tt == html.EndTagToken && isSkipped(tok.DataAtom):
			p.skipDepth--
		}
		return
	}

	if p.pre {
		p.preToken(tt, tok, raw)
		return
	}

	switch tt {
	case html.TextToken:
		p.text(tok.Data)
	case html.StartTagToken:
		p.start(tok, false)
	case html.SelfClosingTagToken:
		p.start(tok, true)
	case html.EndTagToken:
		p.end(tok)
	}
}

// preToken collects code block content verbatim. Markup nested in the code
// element is kept as literal source text.
func (p *parser) preToken(tt html.TokenType, tok html.Token, raw string) {
	switch tt {
	case html.TextToken:
		p.preBuf.WriteString(tok.Data)
	case html.StartTagToken, html.SelfClosingTagToken:
		switch tok.DataAtom {
		case atom.Code:
			if lang := languageOf(tok); lang != "" {
				p.preLang = lang
			}
		case atom.Br:
			p.preBuf.WriteByte('\n')
		default:
			p.preBuf.WriteString(raw)
		}
	case html.EndTagToken:
		switch tok.DataAtom {
		case atom.Pre:
			p.closePre()
		case atom.Code:
		default:
			p.preBuf.WriteString(raw)
		}
	}
}

func (p *parser) start(tok html.Token, selfClosing bool) {
	a := tok.DataAtom
	if level := headingLevel(a); level > 0 {
		p.boundary()
		if !p.nested() {
			p.heading = level
		}
		return
	}
	if kind, ok := markKinds[a]; ok {
		if !selfClosing {
			p.push(frame{kind: kind, tag: a})
		}
		return
	}

	switch a {
	case atom.P, atom.Div:
		p.boundary()
	case atom.Br:
		p.appendSpan(document.Inline{Kind: document.InlineBreak})
		p.lastSpace = true
	case atom.A:
		if !selfClosing {
			p.push(frame{kind: document.InlineLink, href: attr(tok, "href"), tag: a})
		}
	case atom.Code:
		if !selfClosing {
			p.push(frame{kind: document.InlineCode, tag: a})
		}
	case atom.Img:
		p.image(attr(tok, "src"), attr(tok, "alt"))
	case atom.Hr:
		p.boundary()
		if !p.nested() {
			p.doc.Append(document.Block{Kind: document.KindRule})
		}
	case atom.Pre:
		p.boundary()
		p.pre = true
		p.preBuf.Reset()
		p.preLang = languageOf(tok)
	case atom.Blockquote:
		p.boundary()
		if p.listDepth > 0 {
			return
		}
		if p.quoteDepth == 0 {
			p.quote = &document.Block{Kind: document.KindQuote}
		}
		p.quoteDepth++
	case atom.Ul, atom.Ol:
		p.openList(a)
	case atom.Li:
		p.openItem()
	case atom.Script, atom.Style, atom.Head, atom.Title, atom.Template:
		if !selfClosing {
			p.skipDepth++
		}
	default:
		if blockish[a] {
			p.boundary()
		}
		if !transparent[a] {
			p.unsupported(tok.Data, fmt.Sprintf("unsupported element <%s> unwrapped", tok.Data))
		}
	}
}

func (p *parser) end(tok html.Token) {
	a := tok.DataAtom
	if level := headingLevel(a); level > 0 {
		if p.heading == 0 {
			p.boundary()
			return
		}
		spans := p.collect()
		p.heading = 0
		p.doc.Append(document.Block{Kind: document.KindHeading, Level: level, Inlines: spans})
		return
	}
	if _, ok := markKinds[a]; ok {
		p.pop(a)
		return
	}

	switch a {
	case atom.A, atom.Code:
		p.pop(a)
	case atom.P, atom.Div:
		p.boundary()
	case atom.Blockquote:
		p.boundary()
		if p.quoteDepth == 0 || p.listDepth > 0 {
			return
		}
		p.quoteDepth--
		if p.quoteDepth == 0 {
			p.doc.Append(*p.quote)
			p.quote = nil
		}
	case atom.Li:
		p.closeItem()
	case atom.Ul, atom.Ol:
		p.closeList()
	default:
		if blockish[a] {
			p.boundary()
		}
	}
}

func (p *parser) text(data string) {
	top := &p.frames[len(p.frames)-1]
	for _, r := range data {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f' {
			if !p.lastSpace {
				top.pending = append(top.pending, ' ')
				p.lastSpace = true
			}
			continue
		}
		top.pending = utf8.AppendRune(top.pending, r)
		p.lastSpace = false
	}
}

func (p *parser) push(f frame) {
	p.frames = append(p.frames, f)
	p.open[f.tag]++
}

// pop closes the innermost open frame for tag, folding any frames opened
// after it into their parents.
func (p *parser) pop(tag atom.Atom) {
	if p.open[tag] == 0 {
		return
	}
	idx := -1
	for i := len(p.frames) - 1; i > 0; i-- {
		if p.frames[i].tag == tag {
			idx = i
			break
		}
	}
	if idx < 0 {
		return
	}
	for len(p.frames)-1 >= idx {
		p.closeTop()
	}
}

func (p *parser) closeTop() {
	f := p.frames[len(p.frames)-1]
	f.flush()
	p.frames = p.frames[:len(p.frames)-1]
	p.open[f.tag]--

	var span []document.Inline
	switch f.kind {
	case document.InlineCode:
		span = []document.Inline{{Kind: document.InlineCode, Text: document.PlainText(f.spans)}}
	case document.InlineLink:
		if strings.TrimSpace(f.href) == "" {
			span = f.spans
		} else {
			span = []document.Inline{document.Link(f.href, f.spans...)}
		}
	default:
		span = []document.Inline{document.Mark(f.kind, f.spans...)}
	}
	for _, s := range span {
		p.appendSpan(s)
	}
}

func (p *parser) appendSpan(s document.Inline) {
	top := &p.frames[len(p.frames)-1]
	if s.Kind == document.InlineText {
		top.pending = append(top.pending, s.Text...)
		return
	}
	top.flush()
	top.spans = append(top.spans, s)
}

// collect closes every open inline frame and returns the trimmed flow of
// the current block, resetting it for the next one.
func (p *parser) collect() []document.Inline {
	for len(p.frames) > 1 {
		p.closeTop()
	}
	p.frames[0].flush()
	spans := trimSpans(p.frames[0].spans)
	p.frames[0].spans = nil
	p.lastSpace = true
	return spans
}

// boundary ends the current run of flow content and delivers it to the
// enclosing container.
func (p *parser) boundary() {
	if p.heading > 0 {
		return
	}
	spans := p.collect()
	if document.IsBlank(spans) {
		return
	}

	switch {
	case p.listDepth > 0:
		if !p.inItem {
			p.inItem = true
			p.item = nil
		}
		p.item = joinSpans(p.item, spans)
	case p.quoteDepth > 0:
		for _, line := range splitBreaks(spans) {
			if !document.IsBlank(line) {
				p.quote.Lines = append(p.quote.Lines, line)
			}
		}
	default:
		p.doc.Append(document.Block{Kind: document.KindParagraph, Inlines: spans})
	}
}

// image lifts a top-level image out of the paragraph flow into its own
// block. Images inside marks, links, headings, list items or quotes stay
// inline.
func (p *parser) image(src, alt string) {
	src = strings.TrimSpace(src)
	if src == "" {
		return
	}
	if len(p.frames) > 1 || p.heading > 0 || p.listDepth > 0 || p.quoteDepth > 0 {
		p.appendSpan(document.Inline{Kind: document.InlineImage, Src: src, Alt: alt})
		p.lastSpace = false
		return
	}
	p.boundary()
	p.doc.Append(document.Block{Kind: document.KindImage, Src: src, Alt: alt})
}

// nested reports whether block content must stay inline because a list or
// quote is open.
func (p *parser) nested() bool {
	return p.listDepth > 0 || p.quoteDepth > 0
}

// openList starts a list block. Lists inside quotes are unwrapped so each
// item becomes a quote line; lists inside list items are flattened into the
// item text.
func (p *parser) openList(a atom.Atom) {
	if p.quoteDepth > 0 {
		p.boundary()
		return
	}
	if p.listDepth == 0 {
		p.boundary()
		kind := document.KindBulletList
		if a == atom.Ol {
			kind = document.KindOrderedList
		}
		p.list = &document.Block{Kind: kind}
	} else {
		p.boundary()
	}
	p.listDepth++
}

func (p *parser) closeList() {
	if p.listDepth == 0 {
		p.boundary()
		return
	}
	if p.listDepth == 1 {
		p.closeItem()
	} else {
		p.boundary()
	}
	p.listDepth--
	if p.listDepth == 0 {
		if len(p.list.Items) > 0 {
			p.doc.Append(*p.list)
		}
		p.list = nil
	}
}

func (p *parser) openItem() {
	if p.listDepth == 0 {
		p.boundary()
		return
	}
	if p.listDepth > 1 {
		p.boundary()
		return
	}
	p.closeItem()
	p.inItem = true
	p.item = nil
}

func (p *parser) closeItem() {
	if p.listDepth != 1 {
		p.boundary()
		return
	}
	p.boundary()
	if p.inItem {
		p.list.Items = append(p.list.Items, p.item)
	}
	p.inItem = false
	p.item = nil
}

func (p *parser) closePre() {
	text := p.preBuf.String()
	text = strings.TrimPrefix(text, "\n")
	text = strings.TrimRight(text, "\n")
	p.pre = false
	p.preBuf.Reset()
	lang := p.preLang
	p.preLang = ""
	if p.nested() {
		p.appendSpan(document.Inline{Kind: document.InlineCode, Text: text})
		p.boundary()
		return
	}
	p.doc.Append(document.Block{Kind: document.KindCode, Text: text, Language: lang})
}

func (p *parser) finish() {
	if p.pre {
		p.closePre()
	}
	if p.heading > 0 {
		level := p.heading
		spans := p.collect()
		p.heading = 0
		p.doc.Append(document.Block{Kind: document.KindHeading, Level: level, Inlines: spans})
	}
	for p.listDepth > 0 {
		p.closeList()
	}
	for p.quoteDepth > 0 {
		p.boundary()
		p.quoteDepth--
		if p.quoteDepth == 0 {
			p.doc.Append(*p.quote)
			p.quote = nil
		}
	}
	p.boundary()
}

func (p *parser) unsupported(name, msg string) {
	if p.reported[name] {
		return
	}
	p.reported[name] = true
	p.diags = append(p.diags, document.Diagnostic{Code: document.CodeUnsupported, Message: msg})
}

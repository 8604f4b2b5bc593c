// Package wiki reads and writes Jira-style wiki markup: hN. headings,
// " * " and " # " lists, {quote} and {code} blocks, !image! lines and the
// *bold* _italic_ +underline+ -strike- {{code}} [text|url] inline marks.
package wiki

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/astsu-dev/jiraconv/internal/document"
)

var headingRe = regexp.MustCompile(`^h([1-6])\.\s+(\S.*)$`)

type state int

const (
	stateNormal state = iota
	stateCode
	stateQuote
	stateBulletList
	stateOrderedList
)

type parser struct {
	doc   *document.Document
	diags []document.Diagnostic

	state state
	list  *document.Block

	// raw lines of an open {code} or {quote} block
	buf      []string
	lang     string
	openLine int
}

// Parse reads markup into a document. It never fails: unterminated
// {code} and {quote} blocks are closed at the end of input and reported as
// diagnostics.
func Parse(src string) (*document.Document, []document.Diagnostic) {
	p := &parser{doc: &document.Document{}}
	if strings.TrimSpace(src) == "" {
		return p.doc, nil
	}

	src = strings.ReplaceAll(src, "\r\n", "\n")
	for i, raw := range strings.Split(src, "\n") {
		p.line(i+1, raw)
	}
	p.finish()
	return p.doc, p.diags
}

func (p *parser) line(num int, raw string) {
	line := strings.TrimSpace(raw)

	switch p.state {
	case stateCode:
		if line == "{code}" {
			p.closeCode()
			return
		}
		p.buf = append(p.buf, raw)
		return
	case stateQuote:
		if line == "{quote}" {
			p.closeQuote()
			return
		}
		p.buf = append(p.buf, line)
		return
	}

	if line == "" {
		p.closeList()
		return
	}

	if lang, ok := codeOpener(line); ok {
		p.closeList()
		p.state = stateCode
		p.lang = lang
		p.openLine = num
		p.buf = p.buf[:0]
		return
	}

	if line == "{quote}" {
		p.closeList()
		p.state = stateQuote
		p.openLine = num
		p.buf = p.buf[:0]
		return
	}

	if m := headingRe.FindStringSubmatch(line); m != nil {
		p.closeList()
		p.doc.Append(document.Block{
			Kind:    document.KindHeading,
			Level:   int(m[1][0] - '0'),
			Inlines: ParseInline(m[2]),
		})
		return
	}

	if content, ok := listItem(line, '*'); ok {
		p.item(stateBulletList, document.KindBulletList, content)
		return
	}
	if content, ok := listItem(line, '#'); ok {
		p.item(stateOrderedList, document.KindOrderedList, content)
		return
	}

	if line == ruleMarker {
		p.closeList()
		p.doc.Append(document.Block{Kind: document.KindRule})
		return
	}

	if src, ok := imageLine(line); ok {
		p.closeList()
		p.doc.Append(document.Block{Kind: document.KindImage, Src: src, Alt: document.AltFromSource(src)})
		return
	}

	p.closeList()
	if len(line) > 1 && line[0] == '\\' && !isASCIIPunct(line[1]) {
		line = line[1:]
	}
	if spans := ParseInline(line); !document.IsBlank(spans) {
		p.doc.Append(document.Block{Kind: document.KindParagraph, Inlines: spans})
	}
}

// item appends a list item, opening a new list when the kind changes. List
// content is never parsed for nested markers.
func (p *parser) item(st state, kind document.BlockKind, content string) {
	if p.state != st {
		p.closeList()
		p.state = st
		p.list = &document.Block{Kind: kind}
	}
	p.list.Items = append(p.list.Items, ParseInline(content))
}

func (p *parser) closeList() {
	if p.list != nil {
		p.doc.Append(*p.list)
		p.list = nil
	}
	if p.state == stateBulletList || p.state == stateOrderedList {
		p.state = stateNormal
	}
}

func (p *parser) closeCode() {
	p.doc.Append(document.Block{
		Kind:     document.KindCode,
		Text:     strings.Join(trimBlankLines(p.buf), "\n"),
		Language: p.lang,
	})
	p.reset()
}

func (p *parser) closeQuote() {
	block := document.Block{Kind: document.KindQuote}
	for _, l := range p.buf {
		if l == "" {
			continue
		}
		block.Lines = append(block.Lines, ParseInline(l))
	}
	p.doc.Append(block)
	p.reset()
}

func (p *parser) reset() {
	p.state = stateNormal
	p.buf = p.buf[:0]
	p.lang = ""
}

func (p *parser) finish() {
	switch p.state {
	case stateCode:
		p.warn(document.CodeUnterminatedCode, "{code} block is not closed")
		p.closeCode()
	case stateQuote:
		p.warn(document.CodeUnterminatedQuote, "{quote} block is not closed")
		p.closeQuote()
	default:
		p.closeList()
	}
}

func (p *parser) warn(code, msg string) {
	p.diags = append(p.diags, document.Diagnostic{
		Code:    code,
		Line:    p.openLine,
		Message: fmt.Sprintf("%s, closed at end of input", msg),
	})
}

const ruleMarker = "----"

// codeOpener matches {code} and {code:lang}.
func codeOpener(line string) (string, bool) {
	if line == "{code}" {
		return "", true
	}
	if strings.HasPrefix(line, "{code:") && strings.HasSuffix(line, "}") {
		lang := strings.TrimSpace(line[len("{code:") : len(line)-1])
		if i := strings.IndexAny(lang, "|}{"); i >= 0 {
			lang = lang[:i]
		}
		return lang, true
	}
	return "", false
}

// listItem matches "* item" and "# item" on a trimmed line. A marker with
// no content is not an item.
func listItem(line string, marker byte) (string, bool) {
	if len(line) < 3 || line[0] != marker || !isSpace(line[1]) {
		return "", false
	}
	content := strings.TrimSpace(line[2:])
	return content, content != ""
}

// imageLine matches a line holding exactly one !url! token.
func imageLine(line string) (string, bool) {
	if len(line) < 3 || line[0] != '!' || line[len(line)-1] != '!' {
		return "", false
	}
	spans := ParseInline(line)
	if len(spans) != 1 || spans[0].Kind != document.InlineImage {
		return "", false
	}
	return spans[0].Src, true
}

func trimBlankLines(lines []string) []string {
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return lines[start:end]
}

package wiki

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/astsu-dev/jiraconv/internal/document"
)

// activeSet tracks which span kinds enclose the range being scanned. A kind
// never nests inside itself.
type activeSet uint8

const (
	activeBold activeSet = 1 << iota
	activeItalic
	activeUnderline
	activeStrike
	activeLink
)

// markers maps each mark delimiter to its span kind and active bit.
var markers = [...]struct {
	delim byte
	kind  document.InlineKind
	bit   activeSet
}{
	{'*', document.InlineBold, activeBold},
	{'_', document.InlineItalic, activeItalic},
	{'+', document.InlineUnderline, activeUnderline},
	{'-', document.InlineStrike, activeStrike},
}

func markerIndex(c byte) int {
	for i, m := range markers {
		if m.delim == c {
			return i
		}
	}
	return -1
}

// scanner tokenizes a single line of markup. All delimiter lookups go
// through next-index tables built once per line, so the scan is linear in
// the line length times the (bounded) nesting depth.
type scanner struct {
	src string
	n   int

	// skip marks escape backslashes, lit marks the byte they escape.
	skip []bool
	lit  []bool
	// spaces[i] counts whitespace bytes in src[:i].
	spaces []int

	nextBang   []int
	nextOpen   []int
	nextClose  []int
	nextPipe   []int
	nextBraces []int
	// braceEnd[i] is the last index of the run of '}' holding i.
	braceEnd []int
	nextMark   [len(markers)][]int
}

// ParseInline scans one line of markup into spans. Unmatched delimiters are
// kept as literal text.
func ParseInline(line string) []document.Inline {
	if line == "" {
		return nil
	}
	s := newScanner(line)
	return s.parse(0, s.n, 0)
}

func newScanner(src string) *scanner {
	n := len(src)
	s := &scanner{
		src:    src,
		n:      n,
		skip:   make([]bool, n+1),
		lit:    make([]bool, n+1),
		spaces: make([]int, n+1),
	}
	for i := 0; i < n; i++ {
		if src[i] == '\\' && i+1 < n && isASCIIPunct(src[i+1]) {
			s.skip[i] = true
			s.lit[i+1] = true
			i++
		}
	}
	for i := 0; i < n; i++ {
		s.spaces[i+1] = s.spaces[i]
		if isSpace(src[i]) {
			s.spaces[i+1]++
		}
	}

	s.nextBang = s.buildNext(func(i int) bool { return src[i] == '!' && s.special(i) })
	s.nextOpen = s.buildNext(func(i int) bool { return src[i] == '[' && s.special(i) })
	s.nextClose = s.buildNext(func(i int) bool { return src[i] == ']' && s.special(i) })
	s.nextPipe = s.buildNext(func(i int) bool { return src[i] == '|' && s.special(i) })
	s.nextBraces = s.buildNext(func(i int) bool { return src[i] == '}' && i+1 < n && src[i+1] == '}' })
	s.braceEnd = make([]int, n)
	for i := n - 1; i >= 0; i-- {
		s.braceEnd[i] = i
		if src[i] == '}' && i+1 < n && src[i+1] == '}' {
			s.braceEnd[i] = s.braceEnd[i+1]
		}
	}
	for m := range markers {
		delim := markers[m].delim
		s.nextMark[m] = s.buildNext(func(i int) bool {
			return src[i] == delim && s.special(i) && i > 0 && !isSpace(src[i-1])
		})
	}
	return s
}

// buildNext returns a table where t[i] is the smallest j >= i with match(j),
// or n when there is none.
func (s *scanner) buildNext(match func(int) bool) []int {
	t := make([]int, s.n+2)
	t[s.n] = s.n
	t[s.n+1] = s.n
	for i := s.n - 1; i >= 0; i-- {
		if match(i) {
			t[i] = i
		} else {
			t[i] = t[i+1]
		}
	}
	return t
}

// special reports whether the byte at i can act as a delimiter.
func (s *scanner) special(i int) bool {
	return !s.skip[i] && !s.lit[i]
}

func (s *scanner) hasSpace(lo, hi int) bool {
	return s.spaces[hi]-s.spaces[lo] > 0
}

// opener reports whether the delimiter at i may open a span: it must be
// followed by a non-space byte. Marks may start inside a word.
func (s *scanner) opener(i int) bool {
	return i+1 < s.n && !isSpace(s.src[i+1])
}

// blank reports whether src[lo:hi] holds only whitespace.
func (s *scanner) blank(lo, hi int) bool {
	return s.spaces[hi]-s.spaces[lo] == hi-lo
}

func (s *scanner) parse(lo, hi int, active activeSet) []document.Inline {
	var (
		out []document.Inline
		buf strings.Builder
	)
	flush := func() {
		if buf.Len() == 0 {
			return
		}
		out = appendText(out, buf.String())
		buf.Reset()
	}

	i := lo
	for i < hi {
		if s.skip[i] {
			i++
			continue
		}
		c := s.src[i]
		if s.lit[i] {
			buf.WriteByte(c)
			i++
			continue
		}

		switch {
		case c == '{' && i+1 < hi && s.src[i+1] == '{':
			if end, ok := s.codeEnd(i, hi); ok {
				flush()
				out = append(out, document.Inline{Kind: document.InlineCode, Text: s.src[i+2 : end]})
				i = end + 2
				continue
			}

		case c == '!':
			if span, next, ok := s.image(i, hi); ok {
				flush()
				out = append(out, span)
				i = next
				continue
			}

		case c == '[' && active&activeLink == 0:
			if span, next, ok := s.link(i, hi, active); ok {
				flush()
				out = append(out, span)
				i = next
				continue
			}

		default:
			if m := markerIndex(c); m >= 0 && active&markers[m].bit == 0 && s.opener(i) {
				if end := s.closer(m, i, hi); end >= 0 {
					flush()
					children := s.parse(i+1, end, active|markers[m].bit)
					out = append(out, document.Mark(markers[m].kind, children...))
					i = end + 1
					continue
				}
			}
		}

		buf.WriteByte(c)
		i++
	}
	flush()
	return mergeCode(out)
}

// mergeCode joins directly adjacent code spans. The renderer splits code
// holding "}}" into several spans.
func mergeCode(spans []document.Inline) []document.Inline {
	out := spans[:0]
	var sb strings.Builder
	for i, s := range spans {
		if s.Kind != document.InlineCode {
			out = append(out, s)
			continue
		}
		sb.WriteString(s.Text)
		if i+1 < len(spans) && spans[i+1].Kind == document.InlineCode {
			continue
		}
		out = append(out, document.Inline{Kind: document.InlineCode, Text: sb.String()})
		sb.Reset()
	}
	return out
}

// codeEnd finds the closing }} of inline code opened at i. Code holds at
// least one byte and closes on the last two braces of a run, so it may end
// in braces of its own.
func (s *scanner) codeEnd(i, hi int) (int, bool) {
	if i+3 >= s.n {
		return 0, false
	}
	end := s.nextBraces[i+3]
	if end+2 > hi {
		return 0, false
	}
	return min(s.braceEnd[end], hi-1) - 1, true
}

// closer finds the first valid closing delimiter for the mark opened at i.
func (s *scanner) closer(m, i, hi int) int {
	table := s.nextMark[m]
	end := table[i+1]
	if end == i+1 {
		end = table[i+2]
	}
	if end >= hi {
		return -1
	}
	return end
}

func (s *scanner) image(i, hi int) (document.Inline, int, bool) {
	if i > 0 {
		if r, _ := utf8.DecodeLastRuneInString(s.src[:i]); isAlnum(r) {
			return document.Inline{}, 0, false
		}
	}
	end := s.nextBang[i+1]
	if end >= hi || end == i+1 {
		return document.Inline{}, 0, false
	}
	srcEnd := min(s.nextPipe[i+1], end)
	if srcEnd == i+1 || s.hasSpace(i+1, srcEnd) {
		return document.Inline{}, 0, false
	}
	src := s.unescape(i+1, srcEnd)
	if src == "" {
		return document.Inline{}, 0, false
	}
	return document.Inline{Kind: document.InlineImage, Src: src, Alt: document.AltFromSource(src)}, end + 1, true
}

func (s *scanner) link(i, hi int, active activeSet) (document.Inline, int, bool) {
	end := s.nextClose[i+1]
	if end >= hi {
		return document.Inline{}, 0, false
	}
	if pipe := s.nextPipe[i+1]; pipe < end {
		if s.blank(pipe+1, end) {
			return document.Inline{}, 0, false
		}
		href := strings.TrimSpace(s.unescape(pipe+1, end))
		children := s.parse(i+1, pipe, active|activeLink)
		if document.IsBlank(children) {
			children = []document.Inline{document.Text(href)}
		}
		return document.Link(href, children...), end + 1, true
	}
	// A bare [url] holds no whitespace and no other opening bracket. Both
	// are table lookups, so rejected candidates cost nothing to scan.
	if s.hasSpace(i+1, end) || s.nextOpen[i+1] < end {
		return document.Inline{}, 0, false
	}
	href := s.unescape(i+1, end)
	if !looksLikeURL(href) {
		return document.Inline{}, 0, false
	}
	return document.Link(href, document.Text(href)), end + 1, true
}

// unescape returns src[lo:hi] with escape backslashes removed.
func (s *scanner) unescape(lo, hi int) string {
	var sb strings.Builder
	for i := lo; i < hi; i++ {
		if !s.skip[i] {
			sb.WriteByte(s.src[i])
		}
	}
	return sb.String()
}

func appendText(out []document.Inline, s string) []document.Inline {
	if n := len(out); n > 0 && out[n-1].Kind == document.InlineText {
		out[n-1].Text += s
		return out
	}
	return append(out, document.Text(s))
}

func looksLikeURL(s string) bool {
	if s == "" || strings.ContainsAny(s, " \t") {
		return false
	}
	return strings.Contains(s, "://") || strings.HasPrefix(s, "mailto:")
}

func isASCIIPunct(c byte) bool {
	return (c >= '!' && c <= '/') || (c >= ':' && c <= '@') || (c >= '[' && c <= '`') || (c >= '{' && c <= '~')
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

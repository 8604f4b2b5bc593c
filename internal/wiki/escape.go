package wiki

import (
	"strings"
	"unicode/utf8"
)

// escapeText backslash-escapes the characters of a text run that the inline
// scanner could otherwise take for a delimiter. Run edges are treated as
// delimiter-friendly because the neighbouring output is not known here.
// open lists the mark delimiters enclosing the run; inLink adds | and ].
func escapeText(s string, open []byte, inLink bool) string {
	var sb strings.Builder
	sb.Grow(len(s) + 8)

	prev := rune(-1)
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		next := rune(-1)
		if i+size < len(s) {
			next, _ = utf8.DecodeRuneInString(s[i+size:])
		}

		if r < utf8.RuneSelf && needsEscape(byte(r), prev, next, open, inLink) {
			sb.WriteByte('\\')
		}
		sb.WriteString(s[i : i+size])
		prev = r
		i += size
	}
	return sb.String()
}

func needsEscape(c byte, prev, next rune, open []byte, inLink bool) bool {
	switch c {
	case '\\':
		return next < 0 || (next < utf8.RuneSelf && isASCIIPunct(byte(next)))
	case '*', '_', '+', '-':
		if canOpen(next) {
			return true
		}
		return strings.IndexByte(string(open), c) >= 0 && (prev < 0 || !isSpaceRune(prev))
	case '!':
		return canOpenImage(prev, next)
	case '[':
		return true
	case '{':
		return next < 0 || next == '{'
	case '}':
		return prev < 0
	case '|', ']':
		return inLink
	}
	return false
}

// canOpen mirrors scanner.opener with an unknown successor counted as
// delimiter-friendly.
func canOpen(next rune) bool {
	return next < 0 || !isSpaceRune(next)
}

// canOpenImage mirrors the start rule of scanner.image.
func canOpenImage(prev, next rune) bool {
	return canOpen(next) && (prev < 0 || !isAlnum(prev))
}

func isSpaceRune(r rune) bool {
	return r < utf8.RuneSelf && isSpace(byte(r))
}

// guardLine prefixes a backslash to a text line the block parser would
// otherwise read as a block marker.
func guardLine(line string) string {
	if line == "" {
		return line
	}
	if isBlockMarker(line) {
		return `\` + line
	}
	if line[0] == '\\' && (len(line) == 1 || !isASCIIPunct(line[1])) {
		return `\` + line
	}
	return line
}

func isBlockMarker(line string) bool {
	if _, ok := codeOpener(line); ok {
		return true
	}
	if _, ok := listItem(line, '*'); ok {
		return true
	}
	if _, ok := listItem(line, '#'); ok {
		return true
	}
	if _, ok := imageLine(line); ok {
		return true
	}
	return line == "{quote}" || line == ruleMarker || headingRe.MatchString(line)
}

var (
	linkURLReplacer = strings.NewReplacer(
		"\\", "\\\\",
		"[", "\\[",
		"]", "\\]",
		"\n", "%0A",
	)
	imageURLReplacer = strings.NewReplacer(
		"\\", "\\\\",
		"!", "\\!",
		"|", "\\|",
		" ", "%20",
		"\t", "%09",
		"\n", "%0A",
	)
)

// escapeLinkURL escapes the brackets that would end a [text|url] token or
// stop a bare [url] from being read back.
func escapeLinkURL(u string) string {
	return linkURLReplacer.Replace(strings.TrimSpace(u))
}

// escapeImageURL escapes the bytes that would end an !url! token. Whitespace
// cannot be escaped and is percent-encoded instead.
func escapeImageURL(u string) string {
	return imageURLReplacer.Replace(strings.TrimSpace(u))
}

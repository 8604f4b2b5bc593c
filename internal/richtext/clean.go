package richtext

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

type rawToken struct {
	tt   html.TokenType
	atom atom.Atom
	raw  string
}

// Clean drops empty paragraphs and unwraps paragraphs that hold nothing but
// images. Every other byte of the input is preserved, so running Clean on
// its own output changes nothing.
func Clean(src string) string {
	if src == "" {
		return ""
	}
	toks := tokenize(src)

	var sb strings.Builder
	sb.Grow(len(src))
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		if t.tt != html.StartTagToken || t.atom != atom.P {
			sb.WriteString(t.raw)
			continue
		}
		end, images, ok := paragraphExtent(toks, i)
		if !ok {
			sb.WriteString(t.raw)
			continue
		}
		if len(images) == 0 {
			// empty paragraph: drop it with the whitespace that follows
			if end+1 < len(toks) && isWhitespace(toks[end+1]) {
				end++
			}
		} else {
			for j, img := range images {
				if j > 0 {
					sb.WriteByte('\n')
				}
				sb.WriteString(img)
			}
		}
		i = end
	}
	return sb.String()
}

// paragraphExtent looks for the </p> closing the paragraph opened at start.
// It succeeds only when the paragraph holds whitespace and images alone,
// returning the closing index and the raw image tags.
func paragraphExtent(toks []rawToken, start int) (int, []string, bool) {
	var images []string
	for j := start + 1; j < len(toks); j++ {
		t := toks[j]
		switch {
		case isWhitespace(t):
		case (t.tt == html.StartTagToken || t.tt == html.SelfClosingTagToken) && t.atom == atom.Img:
			images = append(images, t.raw)
		case t.tt == html.EndTagToken && t.atom == atom.P:
			return j, images, true
		default:
			return 0, nil, false
		}
	}
	return 0, nil, false
}

func isWhitespace(t rawToken) bool {
	return t.tt == html.TextToken && strings.TrimSpace(t.raw) == ""
}

// tokenize splits src into raw tokens whose concatenation is src.
func tokenize(src string) []rawToken {
	var (
		toks     []rawToken
		consumed int
	)
	z := html.NewTokenizer(strings.NewReader(src))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		raw := string(z.Raw())
		consumed += len(raw)
		var a atom.Atom
		if tt == html.StartTagToken || tt == html.EndTagToken || tt == html.SelfClosingTagToken {
			name, _ := z.TagName()
			a = atom.Lookup(name)
		}
		toks = append(toks, rawToken{tt: tt, atom: a, raw: raw})
	}
	if consumed < len(src) {
		toks = append(toks, rawToken{tt: html.TextToken, raw: src[consumed:]})
	}
	return toks
}

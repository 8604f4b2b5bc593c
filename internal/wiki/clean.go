package wiki

import "strings"

// Clean normalizes markup outside {code} blocks: trailing spaces are
// trimmed, runs of blank lines collapse to one and the document is trimmed.
// Code block contents are left untouched. Clean is idempotent.
func Clean(src string) string {
	if src == "" {
		return ""
	}
	src = strings.ReplaceAll(src, "\r\n", "\n")

	var (
		out    []string
		inCode bool
		blank  bool
	)
	for _, line := range strings.Split(src, "\n") {
		trimmed := strings.TrimSpace(line)
		if inCode {
			if trimmed == "{code}" {
				inCode = false
				line = trimmed
			}
			out = append(out, line)
			blank = false
			continue
		}
		if _, ok := codeOpener(trimmed); ok {
			inCode = true
		}

		line = strings.TrimRight(line, " \t")
		if line == "" {
			if blank || len(out) == 0 {
				continue
			}
			blank = true
		} else {
			blank = false
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}

package jiraconv

import (
	"fmt"
	"strings"
)

// Direction selects a conversion.
type Direction int

const (
	// ToMarkupDirection converts rich text to wiki markup.
	ToMarkupDirection Direction = iota
	// ToRichTextDirection converts wiki markup to rich text.
	ToRichTextDirection
	// FromMarkdownDirection converts Markdown to wiki markup.
	FromMarkdownDirection
)

var directionNames = map[Direction]string{
	ToMarkupDirection:     "to-markup",
	ToRichTextDirection:   "to-richtext",
	FromMarkdownDirection: "from-markdown",
}

func (d Direction) String() string {
	if name, ok := directionNames[d]; ok {
		return name
	}
	return fmt.Sprintf("direction(%d)", int(d))
}

// ParseDirection reads a direction name. The short forms "markup",
// "richtext" and "markdown" name the output or input format of each
// direction and are accepted as well.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "to-markup", "markup":
		return ToMarkupDirection, nil
	case "to-richtext", "richtext":
		return ToRichTextDirection, nil
	case "from-markdown", "markdown":
		return FromMarkdownDirection, nil
	}
	return 0, wrapValidationError(fmt.Errorf("unknown direction %q", s), directionUnknownCode, "invalid conversion direction")
}

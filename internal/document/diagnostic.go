package document

import "fmt"

// Diagnostic codes reported by the parsers. None of them is fatal.
const (
	CodeUnterminatedCode  = "unterminated_code"
	CodeUnterminatedQuote = "unterminated_quote"
	CodeUnsupported       = "unsupported_element"
)

// Diagnostic describes input the parsers recovered from.
type Diagnostic struct {
	Code    string
	Line    int
	Message string
}

func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("line %d: %s", d.Line, d.Message)
	}
	return d.Message
}

package label

import "fmt"

// ParseError reports a failure at a specific byte offset in the source
// that was being parsed.
type ParseError struct {
	Offset  int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at offset %d: %s", e.Offset, e.Message)
}

func errAt(offset int, format string, a ...any) error {
	return &ParseError{Offset: offset, Message: fmt.Sprintf(format, a...)}
}

// Package diag provides diagnostic (error/warning) types shared by the
// lexer, parser and resolver.
package diag

import (
	"fmt"

	"lox-lang/internal/span"
)

// Severity indicates the severity of a diagnostic.
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "Error"
	case Warning:
		return "Warning"
	default:
		return "Unknown"
	}
}

// Diagnostic represents a static (lex/parse/resolve) diagnostic message.
//
// Where is the "<where>" fragment of "[line N] Error<where>: <msg>": " at
// end", " at '<lexeme>'", or empty for lexer and resolver diagnostics, which
// are reported without a token fragment.
type Diagnostic struct {
	Severity Severity
	Message  string
	Span     span.Span
	Where    string
}

// String renders the diagnostic in the format "[line N] Error<where>: <msg>".
func (d Diagnostic) String() string {
	return fmt.Sprintf("[line %d] %s%s: %s", d.Span.Start.Line, d.Severity, d.Where, d.Message)
}

// Errorf creates an error diagnostic with no token context.
func Errorf(s span.Span, format string, args ...interface{}) Diagnostic {
	return Diagnostic{
		Severity: Error,
		Message:  fmt.Sprintf(format, args...),
		Span:     s,
	}
}

// ErrorAt creates an error diagnostic anchored on a token lexeme, used by the
// parser to render the " at '<lexeme>'" / " at end" fragment.
func ErrorAt(s span.Span, where string, format string, args ...interface{}) Diagnostic {
	return Diagnostic{
		Severity: Error,
		Message:  fmt.Sprintf(format, args...),
		Span:     s,
		Where:    where,
	}
}

// Warningf creates a warning diagnostic at the given span.
func Warningf(s span.Span, format string, args ...interface{}) Diagnostic {
	return Diagnostic{
		Severity: Warning,
		Message:  fmt.Sprintf(format, args...),
		Span:     s,
	}
}

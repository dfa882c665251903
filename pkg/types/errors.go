package types

import (
	"errors"
	"fmt"

	"github.com/agext/levenshtein"
)

// ErrorKind classifies an expression error.
type ErrorKind string

// Error kinds raised by the engine.
const (
	// KindSyntax is raised by the lexer and the parser.
	KindSyntax ErrorKind = "syntax"
	// KindLogic is raised on misuse of the API, e.g. registering a function
	// after the first parse.
	KindLogic ErrorKind = "logic"
	// KindRuntime is raised during evaluation.
	KindRuntime ErrorKind = "runtime"
	// KindUnsupported is raised when a node cannot be dumped back to source.
	KindUnsupported ErrorKind = "unsupported"
	// KindCache is raised when the parsed expression cache backend fails.
	KindCache ErrorKind = "cache"
)

// Sentinel errors, one per kind. Use errors.Is to classify any error
// returned by the engine:
//
//	if errors.Is(err, types.ErrSyntax) { ... }
var (
	ErrSyntax      = errors.New("syntax error")
	ErrLogic       = errors.New("logic error")
	ErrRuntime     = errors.New("runtime error")
	ErrUnsupported = errors.New("unsupported operation")
	ErrCache       = errors.New("cache unavailable")
)

var sentinels = map[ErrorKind]error{
	KindSyntax:      ErrSyntax,
	KindLogic:       ErrLogic,
	KindRuntime:     ErrRuntime,
	KindUnsupported: ErrUnsupported,
	KindCache:       ErrCache,
}

// Error represents a structured expression error.
type Error struct {
	Kind     ErrorKind
	Message  string
	Position int    // Offset in Source, -1 when unknown
	Token    string // Offending token value, if any
	Source   string // Full expression text, if known
	Hint     string // Suggestion appended to the message, e.g. `Did you mean "foo"?`
	Err      error
}

// NewError creates a new error of the given kind.
func NewError(kind ErrorKind, message string, position int) *Error {
	return &Error{
		Kind:     kind,
		Message:  message,
		Position: position,
	}
}

// NewSyntaxError creates a syntax error located at position in source.
func NewSyntaxError(message string, position int, source string) *Error {
	return &Error{
		Kind:     KindSyntax,
		Message:  message,
		Position: position,
		Source:   source,
	}
}

// NewRuntimeError creates a runtime error with a formatted message.
func NewRuntimeError(format string, args ...any) *Error {
	return NewError(KindRuntime, fmt.Sprintf(format, args...), -1)
}

// NewLogicError creates a logic error with a formatted message.
func NewLogicError(format string, args ...any) *Error {
	return NewError(KindLogic, fmt.Sprintf(format, args...), -1)
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Kind == KindSyntax && e.Position >= 0 {
		msg = fmt.Sprintf("%s around position %d", msg, e.Position)
		if e.Source != "" {
			msg = fmt.Sprintf("%s for expression `%s`", msg, e.Source)
		}
		msg += "."
	}
	if e.Hint != "" {
		msg += " " + e.Hint
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind.
func (e *Error) Is(target error) bool {
	return sentinels[e.Kind] == target
}

// WithToken adds token information to the error.
func (e *Error) WithToken(token string) *Error {
	e.Token = token
	return e
}

// WithSource attaches the expression text to the error.
func (e *Error) WithSource(source string) *Error {
	e.Source = source
	return e
}

// WithSuggestion sets a "Did you mean" hint naming the proposal closest
// to subject, if one is within an edit distance of 2.
func (e *Error) WithSuggestion(subject string, proposals []string) *Error {
	best, bestScore := "", 3
	for _, p := range proposals {
		if d := levenshtein.Distance(subject, p, nil); d < bestScore {
			best, bestScore = p, d
		}
	}
	if best != "" {
		e.Hint = fmt.Sprintf("Did you mean %q?", best)
	}
	return e
}

// WithCause wraps another error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

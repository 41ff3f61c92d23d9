package scim

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/brunoga/scim/internal/errors"
)

// ErrorType is the SCIM "scimType" keyword identifying the category of an error.
type ErrorType string

const (
	// InvalidFilter marks a malformed filter expression.
	InvalidFilter ErrorType = "invalidFilter"
	// InvalidPath marks a malformed attribute path, or a path that cannot address the document.
	InvalidPath ErrorType = "invalidPath"
	// NoTarget marks a patch target that does not exist.
	NoTarget ErrorType = "noTarget"
	// InvalidValue marks a patch value that is missing or of the wrong shape.
	InvalidValue ErrorType = "invalidValue"
	// InvalidSyntax marks a malformed patch request.
	InvalidSyntax ErrorType = "invalidSyntax"
)

func (t ErrorType) describe() string {
	switch t {
	case InvalidFilter:
		return "invalid filter"
	case InvalidPath:
		return "invalid path"
	case NoTarget:
		return "no target"
	case InvalidValue:
		return "invalid value"
	case InvalidSyntax:
		return "invalid syntax"
	}
	return string(t)
}

// Error is the error returned by every parsing and patching operation of this module. Position is a byte offset
// into Expression, or -1 when the error is not tied to a location.
type Error struct {
	Type       ErrorType
	Message    string
	Expression string
	Position   int
	Cause      error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Type.describe())
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Expression != "" {
		if e.Position >= 0 {
			fmt.Fprintf(&sb, " at position %d in %q", e.Position, e.Expression)
		} else {
			fmt.Fprintf(&sb, " in %q", e.Expression)
		}
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Status returns the HTTP status a SCIM service responds with for this error.
func (e *Error) Status() int {
	return http.StatusBadRequest
}

// Diagnostic renders the error with the offending expression and a caret under the failing position.
func (e *Error) Diagnostic() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s\n", e.Type.describe(), e.Message)
	if e.Expression == "" {
		return sb.String()
	}
	fmt.Fprintf(&sb, "    %s\n", e.Expression)
	if e.Position >= 0 && e.Position <= len(e.Expression) {
		fmt.Fprintf(&sb, "    %s^\n", strings.Repeat(" ", e.Position))
	}
	return sb.String()
}

// NewError returns an *Error of the given type, wrapped with a stack trace.
func NewError(typ ErrorType, format string, args ...any) error {
	return errors.New(&Error{Type: typ, Message: fmt.Sprintf(format, args...), Position: -1})
}

func newExprError(typ ErrorType, expr string, pos int, format string, args ...any) error {
	return errors.New(&Error{
		Type:       typ,
		Message:    fmt.Sprintf(format, args...),
		Expression: expr,
		Position:   pos,
	})
}

// AsError returns the *Error in err's chain, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func isType(err error, typ ErrorType) bool {
	e, ok := AsError(err)
	return ok && e.Type == typ
}

// IsFilterError reports whether err is an invalid filter error.
func IsFilterError(err error) bool { return isType(err, InvalidFilter) }

// IsPathError reports whether err is an invalid path error.
func IsPathError(err error) bool { return isType(err, InvalidPath) }

// IsNoTarget reports whether err is a missing patch target error.
func IsNoTarget(err error) bool { return isType(err, NoTarget) }

// IsInvalidValue reports whether err is an invalid patch value error.
func IsInvalidValue(err error) bool { return isType(err, InvalidValue) }

// IsInvalidSyntax reports whether err is a malformed patch request error.
func IsInvalidSyntax(err error) bool { return isType(err, InvalidSyntax) }

func newPathErrorWithCause(expr string, pos int, msg string, cause error) error {
	return errors.New(&Error{
		Type:       InvalidPath,
		Message:    msg,
		Expression: expr,
		Position:   pos,
		Cause:      cause,
	})
}

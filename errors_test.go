package scim

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	_, err := ParseFilter("a eq")
	want := `invalid filter: expected comparison value but found end of filter at position 4 in "a eq"`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	e := NewError(NoTarget, "no attribute %q", "title")
	if e.Error() != `no target: no attribute "title"` {
		t.Errorf("Error() = %q", e.Error())
	}
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		err  error
		pred func(error) bool
	}{
		{NewError(InvalidFilter, "x"), IsFilterError},
		{NewError(InvalidPath, "x"), IsPathError},
		{NewError(NoTarget, "x"), IsNoTarget},
		{NewError(InvalidValue, "x"), IsInvalidValue},
		{NewError(InvalidSyntax, "x"), IsInvalidSyntax},
	}
	for _, tt := range tests {
		if !tt.pred(tt.err) {
			t.Errorf("predicate rejected %v", tt.err)
		}
		wrapped := fmt.Errorf("operation 1: %w", tt.err)
		if !tt.pred(wrapped) {
			t.Errorf("predicate rejected wrapped %v", wrapped)
		}
		e, _ := AsError(wrapped)
		if e.Status() != http.StatusBadRequest {
			t.Errorf("Status() = %d", e.Status())
		}
	}

	if IsFilterError(errors.New("plain")) || IsPathError(nil) {
		t.Error("plain errors are not SCIM errors")
	}
	if IsPathError(NewError(InvalidFilter, "x")) {
		t.Error("filter and path errors must stay distinct")
	}
}

func TestDiagnostic(t *testing.T) {
	e := &Error{Type: InvalidPath, Message: "unexpected end of path", Expression: "name.", Position: 5}
	want := "invalid path: unexpected end of path\n    name.\n         ^\n"
	if e.Diagnostic() != want {
		t.Errorf("Diagnostic() =\n%q\nwant\n%q", e.Diagnostic(), want)
	}

	bare := &Error{Type: NoTarget, Message: "missing", Position: -1}
	if !strings.HasPrefix(bare.Diagnostic(), "no target: missing") || strings.Contains(bare.Diagnostic(), "^") {
		t.Errorf("unexpected diagnostic %q", bare.Diagnostic())
	}
}

package errors_test

import (
	stderrors "errors"
	"testing"

	"github.com/brunoga/scim/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type codeError struct{ code int }

func (e codeError) Error() string { return "code error" }

func TestNewKeepsUnderlyingValue(t *testing.T) {
	t.Parallel()

	err := errors.New(codeError{code: 7})
	require.Error(t, err)

	var target codeError
	require.True(t, errors.As(err, &target))
	assert.Equal(t, 7, target.code)
	assert.Contains(t, errors.ErrorStack(err), "errors_test.go")
}

func TestNilPassthrough(t *testing.T) {
	t.Parallel()

	assert.NoError(t, errors.New(nil))
	assert.NoError(t, errors.WithStackTrace(nil))
	assert.NoError(t, errors.WithStackTraceAndPrefix(nil, "prefix"))
	assert.Empty(t, errors.ErrorStack(nil))
}

func TestWithStackTraceAndPrefix(t *testing.T) {
	t.Parallel()

	base := stderrors.New("boom")
	err := errors.WithStackTraceAndPrefix(base, "operation %d", 3)
	assert.Equal(t, "operation 3: boom", err.Error())
	assert.True(t, errors.Is(err, base))
}

func TestErrorWithExitCode(t *testing.T) {
	t.Parallel()

	base := stderrors.New("bad input")
	err := error(errors.ErrorWithExitCode{Err: base, ExitCode: 2})
	assert.Equal(t, "bad input", err.Error())
	assert.True(t, errors.Is(err, base))
}

func TestRecover(t *testing.T) {
	t.Parallel()

	run := func() (err error) {
		defer errors.Recover(func(cause error) {
			err = cause
		})
		panic("kaboom")
	}

	err := run()
	require.Error(t, err)
	assert.Equal(t, "kaboom", err.Error())
}

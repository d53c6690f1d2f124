package shell

import (
	"errors"
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

var (
	// ErrUnterminatedQuote is returned when a quote character has no pair.
	ErrUnterminatedQuote = errors.New("unterminated quote")
	// ErrUnterminatedSubshell is returned when a $( is never closed.
	ErrUnterminatedSubshell = errors.New("unterminated subshell")
	// ErrEmptyStage is returned when a pipeline stage has no command.
	ErrEmptyStage = errors.New("syntax error: empty command")
	// ErrMissingTarget is returned when a redirection has no file name.
	ErrMissingTarget = errors.New("syntax error: missing redirection target")
	// ErrUnsupportedDup is returned for 2>&1 anywhere except after "> FILE"
	// at the end of a command.
	ErrUnsupportedDup = errors.New("syntax error: unsupported descriptor duplication")
	// ErrSubstitution is returned for lines that use $(...).
	ErrSubstitution = errors.New("command substitution is not supported")
)

// ParseError is a problem with the text of a line. The line is not run.
type ParseError struct {
	// Token is the offending token, if any.
	Token string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Token == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v near %q", e.Err, e.Token)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func parseErr(err error, token string) *ParseError {
	return &ParseError{Token: token, Err: err}
}

// ResourceError is a failed pipe, open or close call.
type ResourceError struct {
	Op   string
	Path string
	Err  error
}

func (e *ResourceError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}

// Errno returns the system error number behind the failure or 0 if there
// isn't one.
func (e *ResourceError) Errno() syscall.Errno {
	var errno syscall.Errno
	if errors.As(e.Err, &errno) {
		return errno
	}
	return 0
}

// SpawnError means a program that was found on the search path could not be
// started. The shell can't continue safely after it.
type SpawnError struct {
	Path string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("cannot start %s: %v", e.Path, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// Status converts a line error into the exit status reported for the line.
func Status(err error) int {
	var resErr *ResourceError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &resErr):
		if errno := resErr.Errno(); errno != 0 {
			return int(errno)
		}
		return 1
	default:
		return 1
	}
}

// ErrnoName returns the symbolic name of a status that came from a system
// error, e.g. "ENOENT", or the empty string.
func ErrnoName(status int) string {
	if status <= 0 {
		return ""
	}
	return unix.ErrnoName(syscall.Errno(status))
}

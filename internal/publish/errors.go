package publish

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNothingToCommit reports a publish with no staged changes. Callers treat it as success.
var ErrNothingToCommit = errors.New("nothing to commit")

// CommandError is a failed git invocation.
type CommandError struct {
	Args     []string
	Output   string
	ExitCode int
	Err      error
}

func (e *CommandError) Error() string {
	out := strings.TrimSpace(e.Output)
	if out == "" {
		return fmt.Sprintf("git %s: exit %d: %v", strings.Join(e.Args, " "), e.ExitCode, e.Err)
	}
	return fmt.Sprintf("git %s: exit %d: %s", strings.Join(e.Args, " "), e.ExitCode, out)
}

func (e *CommandError) Unwrap() error { return e.Err }

// StatusError is an unexpected response from the hosting API.
type StatusError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
}

package simulator

import (
	"fmt"
	"strings"
	"time"
)

// PrecheckError reports a file the simulator needs that is not present.
type PrecheckError struct {
	// Kind is "executable" or "trace".
	Kind string
	Path string
	Err  error
}

func (e *PrecheckError) Error() string {
	return fmt.Sprintf("%s %s not found: %v", e.Kind, e.Path, e.Err)
}

func (e *PrecheckError) Unwrap() error {
	return e.Err
}

// ProcessExecutionError reports a simulator invocation that could not start,
// exited non-zero, or did not produce its report.
type ProcessExecutionError struct {
	Args []string

	// ExitCode is -1 when the process never ran to completion.
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ProcessExecutionError) Error() string {
	msg := fmt.Sprintf("simulator %s: exit code %d",
		strings.Join(e.Args, " "), e.ExitCode)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}

	return msg
}

func (e *ProcessExecutionError) Unwrap() error {
	return e.Err
}

// TimeoutError reports a simulator invocation killed after exceeding the
// configured ceiling.
type TimeoutError struct {
	Args  []string
	Limit time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("simulator %s: timed out after %v",
		strings.Join(e.Args, " "), e.Limit)
}

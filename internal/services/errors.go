package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration marks failures surfaced synchronously to the caller:
	// bad directories, invalid numeric parameters, unusable config.
	ErrConfiguration = errors.New("configuration error")
	// ErrTransient marks per-file pipeline failures. The file is dropped from
	// its batch; the rest of the batch continues.
	ErrTransient = errors.New("transient failure")
	// ErrFatal marks unexpected failures inside the scheduler worker. The
	// scheduler logs them and stays live.
	ErrFatal = errors.New("fatal scheduler error")
	// ErrUnavailable marks a collaborator that is reachable but busy, such as
	// the description daemon mid-inference.
	ErrUnavailable = errors.New("service unavailable")
	// ErrNotFound marks missing files or catalog entries.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyRunning marks an attempt to start a service that is running.
	ErrAlreadyRunning = errors.New("already running")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}

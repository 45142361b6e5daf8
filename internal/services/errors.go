package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTransient marks remote listing, fetch, and decode failures that the
	// pipeline retries or degrades around. Never fatal.
	ErrTransient = errors.New("transient failure")

	// ErrConfiguration marks unusable settings detected at runtime.
	ErrConfiguration = errors.New("configuration error")

	// ErrExternalTool marks failures of helper binaries (indi_getprop,
	// solve-field).
	ErrExternalTool = errors.New("external tool error")

	// ErrStorage marks unrecoverable local persistence failures (disk full,
	// permission denied). The analyzer halts on these rather than silently
	// losing records.
	ErrStorage = errors.New("storage failure")
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

// IsFatal reports whether an error must halt processing instead of being
// retried or degraded.
func IsFatal(err error) bool {
	return errors.Is(err, ErrStorage)
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

package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks caller mistakes: bad date ranges, unknown candidate
	// ids, selections on jobs that are not complete.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks missing or unusable process configuration, such
	// as absent print credentials. Never retryable.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks lookups for jobs, candidates, or orders that do not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks operations that are valid in general but not in the
	// target's current state, such as toggling a selection on a running job.
	ErrConflict = errors.New("conflict")
	// ErrRejected marks application-level rejections from a remote API.
	// The request reached the provider and was refused; retrying is pointless.
	ErrRejected = errors.New("rejected")
	// ErrTransient marks transport-level failures that may succeed on retry.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
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

// Retryable reports whether an error is worth retrying at the transport level.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrTransient)
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

package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUpstream marks failures of an external collaborator (search API or
	// language model) that survived the local retry policy.
	ErrUpstream = errors.New("upstream error")
	// ErrValidation marks malformed or unusable caller input.
	ErrValidation = errors.New("validation error")
	// ErrConfiguration marks missing or inconsistent configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrTransient marks failures worth retrying at the caller's discretion.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsUpstream reports whether the error chain carries the upstream marker.
func IsUpstream(err error) bool {
	return errors.Is(err, ErrUpstream)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
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

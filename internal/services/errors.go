package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks bad or missing metadata; the document is skipped and
	// reported but the batch continues.
	ErrValidation = errors.New("validation error")
	// ErrProvider marks network, auth, or quota failures from an external
	// translation or extraction backend.
	ErrProvider = errors.New("provider error")
	// ErrTranslationExhausted marks a translation where every tier failed and
	// the request belongs in the retry queue.
	ErrTranslationExhausted = errors.New("translation exhausted")
	// ErrIntegrityMismatch marks a ledger-vs-filesystem hash mismatch. Never
	// auto-resolved; requires operator action.
	ErrIntegrityMismatch = errors.New("integrity mismatch")
	// ErrStorageIO marks a ledger or queue write failure. Fatal to the run.
	ErrStorageIO = errors.New("storage i/o error")
	// ErrConfiguration marks missing or invalid configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrNotFound marks a missing file or record.
	ErrNotFound = errors.New("not found")
	// ErrTimeout marks an external call that exceeded its per-call deadline.
	ErrTimeout = errors.New("timeout")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrProvider
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsFatal reports whether an error must halt the whole run rather than fail a
// single document. Only audit-trail storage failures qualify.
func IsFatal(err error) bool {
	return errors.Is(err, ErrStorageIO)
}

// IsRetryable reports whether a translation failure should land in the retry
// queue rather than be abandoned.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrProvider) || errors.Is(err, ErrTimeout) || errors.Is(err, ErrTranslationExhausted)
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

package finance

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigurationError means the business is missing its settings row or
// platform credentials. Fatal for the single operation, never defaulted away.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return e.Msg }

func NewConfigurationError(format string, args ...any) error {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// UpstreamError wraps a commerce-platform API failure. The caller retries at
// the next manual or scheduled sync; nothing retries inside the call.
type UpstreamError struct {
	Op  string
	Err error
}

func (e *UpstreamError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *UpstreamError) Unwrap() error { return e.Err }

func NewUpstreamError(op string, err error) error {
	return &UpstreamError{Op: op, Err: err}
}

func IsUpstreamError(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

// ValidationError rejects malformed input before any external call is made.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func NewValidationError(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// PartialBatchError reports a multi-item write where some items failed.
// Not fatal: successes are persisted and the caller is told the counts.
type PartialBatchError struct {
	Updated int
	Total   int
	Errors  []string
}

func (e *PartialBatchError) Error() string {
	return fmt.Sprintf("updated %d of %d: %s", e.Updated, e.Total, strings.Join(e.Errors, "; "))
}

func NewPartialBatchError(updated, total int, errs []string) error {
	return &PartialBatchError{Updated: updated, Total: total, Errors: errs}
}

func IsPartialBatchError(err error) bool {
	var pe *PartialBatchError
	return errors.As(err, &pe)
}

package errors

import (
	"errors"
	"fmt"
)

// Pipeline error kinds. Handlers map these to HTTP statuses with errors.Is.

var (
	// ErrValidation indicates a malformed field map or a triggered honeypot
	ErrValidation = errors.New("validation failed")

	// ErrCaptcha indicates a missing, invalid or unverifiable captcha token
	ErrCaptcha = errors.New("captcha failed")

	// ErrRateLimit indicates a submission inside the cooldown window
	ErrRateLimit = errors.New("rate limited")

	// ErrModeration indicates a text or attachment rule violation
	ErrModeration = errors.New("moderation rejected")

	// ErrDispatch indicates the messaging service returned failure or was unreachable
	ErrDispatch = errors.New("dispatch failed")
)

// Error carries a submitter-facing detail string on top of a kind sentinel.
type Error struct {
	kind   error
	detail string
}

func (e *Error) Error() string { return e.detail }

func (e *Error) Unwrap() error { return e.kind }

// ValidationError creates a validation error with a display detail
func ValidationError(detail string) error {
	return &Error{kind: ErrValidation, detail: detail}
}

// CaptchaError creates a captcha error with a display detail
func CaptchaError(detail string) error {
	return &Error{kind: ErrCaptcha, detail: detail}
}

// RateLimitError creates a rate-limit error with a display detail
func RateLimitError(detail string) error {
	return &Error{kind: ErrRateLimit, detail: detail}
}

// ModerationError creates a moderation error carrying the rule's reason
func ModerationError(reason string) error {
	return &Error{kind: ErrModeration, detail: reason}
}

// DispatchError wraps an outbound messaging failure. The cause is kept for
// logs; the detail shown to clients stays generic.
func DispatchError(cause error) error {
	return &Error{kind: ErrDispatch, detail: fmt.Sprintf("dispatch failed: %v", cause)}
}

// Detail returns the submitter-facing message for a pipeline error, or the
// plain error text for anything else.
func Detail(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.detail
	}
	return err.Error()
}

// Is checks if an error matches a target error (works with wrapped errors)
func Is(err, target error) bool {
	return errors.Is(err, target)
}

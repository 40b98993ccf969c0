package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors for the capture and moderation domains.
// Controllers map these to HTTP statuses in serverutils.
var (
	// ErrDevice: camera/frame source unavailable or denied. User-actionable,
	// the system does not retry.
	ErrDevice = errors.New("capture device unavailable")

	// ErrModelLoad: pose detector failed to initialize. Retryable by
	// calling Load again.
	ErrModelLoad = errors.New("pose model failed to load")

	// ErrNotReady: recording requested before the detector is ready.
	ErrNotReady = errors.New("detector not ready")

	// ErrRateLimited: verifier model hit its quota. Triggers fallback to
	// the next model, never surfaced to the end user directly.
	ErrRateLimited = errors.New("verifier rate limited")

	// ErrParse: verifier response malformed. Degrades to an uncertain
	// verdict, never a hard failure.
	ErrParse = errors.New("verifier response unparseable")

	// ErrConflict: status transition attempted from a non-pending state.
	ErrConflict = errors.New("submission already decided")

	// ErrVerifierUnavailable: every model in the fallback chain was
	// exhausted. The submission stays pending with no verdict attached.
	ErrVerifierUnavailable = errors.New("automated verification unavailable")

	ErrNotFound     = errors.New("record not found")
	ErrUnauthorized = errors.New("not allowed")
)

// DeviceError wraps a source failure with its cause.
func DeviceError(cause error) error {
	return fmt.Errorf("%w: %v", ErrDevice, cause)
}

// ModelLoadError wraps a detector init failure with its cause.
func ModelLoadError(cause error) error {
	return fmt.Errorf("%w: %v", ErrModelLoad, cause)
}

// ParseError carries the raw verifier text for human inspection.
func ParseError(raw string, cause error) error {
	return fmt.Errorf("%w: %v (raw: %s)", ErrParse, cause, raw)
}

// Package apierr provides typed errors that carry a stable wire error
// code, so that handlers fail closed at the HTTP boundary: every error
// that can reach a handler already knows how to render itself into the
// standard envelope, instead of an exception propagating to the
// transport.
package apierr

import (
	"errors"
	"fmt"

	"github.com/dstbp/vaultshard/internal/wire"
)

// Error is a typed error carrying a stable wire error code.
type Error struct {
	Code int
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an *Error with the stable message for code, optionally
// wrapping a lower-level cause.
func New(code int, cause error) *Error {
	return &Error{Code: code, Msg: wire.MessageFor(code), Err: cause}
}

// Newf builds an *Error with a custom message.
func Newf(code int, format string, args ...any) *Error {
	return &Error{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the wire error code from err, defaulting to
// wire.CodeInternalError for untyped errors.
func CodeOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return wire.CodeInternalError
}

// ToEnvelope renders err as a standard error envelope.
func ToEnvelope(err error) wire.Envelope {
	return wire.Error(CodeOf(err))
}

// Sentinel domain errors referenced across packages (§4.1, §4.6, §4.10).
var (
	ErrThresholdTooSmall  = New(wire.CodeMissingParam, errors.New("threshold too small for key size"))
	ErrReconstructFailed  = Newf(wire.CodeInternalError, "fewer than T shares verified")
	ErrIntegrityViolation = Newf(wire.CodeInternalError, "content hash mismatch after decryption")
)

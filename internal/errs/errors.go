// Package errs defines the typed error kinds used across the transcode
// pipeline, so callers can distinguish failure modes with errors.Is/As
// instead of matching on message text.
package errs

import (
	"errors"
	"fmt"
)

// Kind identifies which class of failure occurred.
type Kind int

const (
	// InvalidArgument marks a malformed or out-of-range CLI flag.
	InvalidArgument Kind = iota
	// OpenInput marks a failure to open or probe the input.
	OpenInput
	// OpenOutput marks a failure to open or create the output.
	OpenOutput
	// CodecInit marks a codec or resampler setup failure.
	CodecInit
	// DecodeError marks a recoverable decode failure; the caller logs and
	// discards the affected frame.
	DecodeError
	// EncodeError marks an encoder failure; always fatal.
	EncodeError
	// ResourceExhausted marks an allocation failure; always fatal.
	ResourceExhausted
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid_argument"
	case OpenInput:
		return "open_input"
	case OpenOutput:
		return "open_output"
	case CodecInit:
		return "codec_init"
	case DecodeError:
		return "decode_error"
	case EncodeError:
		return "encode_error"
	case ResourceExhausted:
		return "resource_exhausted"
	default:
		return "unknown"
	}
}

// Fatal reports whether an error of this kind always unwinds to exit,
// per spec §7's policy table.
func (k Kind) Fatal() bool {
	return k != DecodeError
}

// Error wraps an underlying error with the operation and kind that
// produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is allows errors.Is(err, errs.ErrInvalidArgument) style checks by kind,
// matching any of the Err* sentinels below against e.Kind.
func (e *Error) Is(target error) bool {
	if ke, ok := target.(kindError); ok {
		return e.Kind == ke.kind
	}
	return false
}

// New wraps err as an *Error of the given kind and operation. A nil err
// still produces a non-nil *Error (used for sentinel-style construction).
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

type kindError struct{ kind Kind }

func (k kindError) Error() string { return k.kind.String() }

// matching sentinels for errors.Is(err, errs.ErrInvalidArgument) etc.
var (
	ErrInvalidArgument   error = kindError{InvalidArgument}
	ErrOpenInput         error = kindError{OpenInput}
	ErrOpenOutput        error = kindError{OpenOutput}
	ErrCodecInit         error = kindError{CodecInit}
	ErrDecodeError       error = kindError{DecodeError}
	ErrEncodeError       error = kindError{EncodeError}
	ErrResourceExhausted error = kindError{ResourceExhausted}
)

// OfKind reports whether err (or something it wraps) is an *Error of kind k.
func OfKind(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}

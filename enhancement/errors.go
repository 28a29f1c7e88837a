/*
DESCRIPTION
  errors.go defines the host-facing error taxonomy from section 6 and the
  three-kind classification from section 7: bitstream malformity, resource
  exhaustion, and programmer error. Failures this package detects itself
  are returned as *Error carrying one of these codes; errors that come
  up from the bitstream and huffman packages are passed on wrapped with
  github.com/pkg/errors at each call site rather than converted to an
  *Error, the same convention the teacher package uses throughout its
  own parse tree.

AUTHORS
  LCEVC enhancement core contributors.
*/

package enhancement

import "github.com/pkg/errors"

// ErrorCode classifies a failure the way section 6 names it, so a host
// can dispatch on a stable code rather than string-matching an error.
type ErrorCode int

const (
	// ErrMalformedNAL names the same failure as nal.ErrMalformedNAL. No
	// function in this package returns it; NAL unencapsulation lives in
	// the nal package, which returns its own error.
	ErrMalformedNAL ErrorCode = iota
	// ErrStreamDesync fires when a config block's declared size does not
	// match the number of bytes actually consumed parsing it.
	ErrStreamDesync
	// ErrUnsupportedFeature fires for combinations the core recognises
	// but does not support, e.g. enhancement depth < base depth.
	ErrUnsupportedFeature
	// ErrHuffmanInvalid names an invalid Huffman table or code. No
	// function in this package returns it: huffman.ErrInvalid reaches the
	// caller wrapped with pkg/errors, not converted to an *Error.
	ErrHuffmanInvalid
	// ErrEntropyOverflow fires when an entropy decoder is asked to
	// produce more data than its chunk can supply.
	ErrEntropyOverflow
	// ErrNegativeTemporalRun fires when temporal run-length bookkeeping
	// would go negative, which can only happen on a malformed stream.
	ErrNegativeTemporalRun
	// ErrAllocationFailed names a capability allocator that cannot
	// satisfy a growth request. No function in this package returns it.
	ErrAllocationFailed
	// ErrInvalidArgument fires for programmer errors: bad (plane, LOQ,
	// tile) triples, nil sinks, or other caller misuse.
	ErrInvalidArgument
)

func (c ErrorCode) String() string {
	switch c {
	case ErrMalformedNAL:
		return "MalformedNAL"
	case ErrStreamDesync:
		return "StreamDesync"
	case ErrUnsupportedFeature:
		return "UnsupportedFeature"
	case ErrHuffmanInvalid:
		return "HuffmanInvalid"
	case ErrEntropyOverflow:
		return "EntropyOverflow"
	case ErrNegativeTemporalRun:
		return "NegativeTemporalRun"
	case ErrAllocationFailed:
		return "AllocationFailed"
	case ErrInvalidArgument:
		return "InvalidArgument"
	default:
		return "Unknown"
	}
}

// Error is the error type for failures this package detects itself.
// It carries a stable ErrorCode plus a wrapped cause with the call-site
// trail pkg/errors builds up.
type Error struct {
	Code  ErrorCode
	cause error
}

func (e *Error) Error() string {
	if e.cause == nil {
		return e.Code.String()
	}
	return e.Code.String() + ": " + e.cause.Error()
}

// Unwrap lets errors.Is/errors.As see through to the wrapped cause.
func (e *Error) Unwrap() error { return e.cause }

// newError constructs an *Error, wrapping cause with msg via pkg/errors
// so the resulting error carries both a stack-style trail and the stable
// code a host dispatches on.
func newError(code ErrorCode, cause error, msg string) *Error {
	if cause == nil {
		return &Error{Code: code, cause: errors.New(msg)}
	}
	return &Error{Code: code, cause: errors.Wrap(cause, msg)}
}

// newErrorf is newError with a formatted message.
func newErrorf(code ErrorCode, cause error, format string, args ...interface{}) *Error {
	if cause == nil {
		return &Error{Code: code, cause: errors.Errorf(format, args...)}
	}
	return &Error{Code: code, cause: errors.Wrapf(cause, format, args...)}
}

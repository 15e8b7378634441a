package common

import (
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error taxonomy. Validation and security failures always propagate to the
// caller; recognition/extraction unavailability is absorbed one level by the
// orchestrator's fallback before propagating; cache errors never propagate.
var (
	ErrInvalidInput           = errors.New("invalid input")
	ErrUnsupportedFormat      = errors.New("image data invalid")
	ErrSecurityRejected       = errors.New("content rejected by security scan")
	ErrRecognitionUnavailable = errors.New("text recognition unavailable")
	ErrExtractionUnavailable  = errors.New("structured extraction unavailable")
	ErrQuotaExceeded          = errors.New("service quota exceeded")
	ErrRateLimited            = errors.New("rate limited")
	ErrNotFound               = errors.New("resource not found")
	ErrInternal               = errors.New("internal error")
)

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// WithSentinel ties a concrete cause to a taxonomy sentinel so callers can
// match with errors.Is while keeping the original chain intact.
func WithSentinel(sentinel, cause error) error {
	if cause == nil {
		return sentinel
	}
	return errors.Join(sentinel, cause)
}

// QuotaExceededError carries the time at which the remote quota resets.
// The caller owns any retry policy; the core never retries.
type QuotaExceededError struct {
	ResetAt time.Time
	Cause   error
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded, resets at %s", e.ResetAt.Format(time.RFC3339))
}

func (e *QuotaExceededError) Unwrap() error { return e.Cause }

func (e *QuotaExceededError) Is(target error) bool { return target == ErrQuotaExceeded }

// RateLimitedError carries the retry-after duration reported by the service.
type RateLimitedError struct {
	RetryAfter time.Duration
	Cause      error
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

func (e *RateLimitedError) Unwrap() error { return e.Cause }

func (e *RateLimitedError) Is(target error) bool { return target == ErrRateLimited }

// gRPC error helpers for an RPC facade over the pipeline.
func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func NotFoundError(message string) error {
	return status.Error(codes.NotFound, message)
}

func InternalError(message string) error {
	return status.Error(codes.Internal, message)
}

func UnavailableError(message string) error {
	return status.Error(codes.Unavailable, message)
}

func ResourceExhaustedError(message string) error {
	return status.Error(codes.ResourceExhausted, message)
}

// ToStatusError maps a pipeline error onto a gRPC status, keeping secrets and
// internal context out of the user-facing message.
func ToStatusError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrUnsupportedFormat):
		return InvalidArgumentError(err.Error())
	case errors.Is(err, ErrSecurityRejected):
		return InvalidArgumentError(ErrSecurityRejected.Error())
	case errors.Is(err, ErrQuotaExceeded), errors.Is(err, ErrRateLimited):
		return ResourceExhaustedError(err.Error())
	case errors.Is(err, ErrRecognitionUnavailable), errors.Is(err, ErrExtractionUnavailable):
		return UnavailableError(err.Error())
	case errors.Is(err, ErrNotFound):
		return NotFoundError(err.Error())
	default:
		return InternalError("extraction failed")
	}
}

// ExitCode maps a pipeline error onto a process exit code using the same
// taxonomy routing as the status mapping, so CLI and RPC callers agree on
// what kind of failure occurred. 0 ok, 2 bad input, 3 backend unavailable,
// 4 quota or rate limit, 5 not found, 1 everything else.
func ExitCode(err error) int {
	switch status.Code(ToStatusError(err)) {
	case codes.OK:
		return 0
	case codes.InvalidArgument:
		return 2
	case codes.Unavailable:
		return 3
	case codes.ResourceExhausted:
		return 4
	case codes.NotFound:
		return 5
	default:
		return 1
	}
}

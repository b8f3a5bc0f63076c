// Package aiwrap is the runtime contract behind compiled AI
// operations. Generated server code declares one Operation per ai()
// site and executes it through a Client, which layers caching, retry,
// rate limiting, output validation, and cost tracking around a
// substitutable Invoker.
package aiwrap

import (
	"context"
	"errors"
	"time"
)

// Mode is the operation mode of an AI call.
type Mode string

const (
	Classify Mode = "classify"
	Extract  Mode = "extract"
	Generate Mode = "generate"
)

// OutputType is the expected shape of an operation result.
type OutputType int

const (
	TextOutput OutputType = iota
	BoolOutput
	NumberOutput
)

// String returns the name of the output type.
func (t OutputType) String() string {
	switch t {
	case BoolOutput:
		return "bool"
	case NumberOutput:
		return "number"
	default:
		return "text"
	}
}

// OutputSpec declares the result shape an operation must produce. A
// non-empty Enum restricts text results to the listed values.
type OutputSpec struct {
	Type OutputType
	Enum []string
}

// Operation is one compiled AI operation. The ID is content-derived:
// identical prompt and mode always yield the same ID, so cached
// results survive recompilation.
type Operation struct {
	ID     string
	Prompt string
	Mode   Mode
	Output OutputSpec
	Config Config
}

// Config carries the wrapper parameters of an operation.
type Config struct {
	// MaxAttempts bounds invocation tries, including the first.
	MaxAttempts int

	// BaseBackoff is the delay before the first retry; each retry
	// doubles it up to MaxBackoff. Jitter is applied on top.
	BaseBackoff time.Duration
	MaxBackoff  time.Duration

	// Burst and RefillPerSec parameterize the token bucket.
	Burst        int
	RefillPerSec float64

	// WaitCeiling bounds how long an invocation may wait for a token
	// before failing with ErrRateLimitExceeded.
	WaitCeiling time.Duration

	// GlobalLimit shares one bucket across all operations instead of
	// one bucket per operation id.
	GlobalLimit bool

	// CostPerCall is the advisory cost unit recorded per external
	// invocation.
	CostPerCall float64
}

// DefaultConfig returns the wrapper parameters compiled code uses
// unless overridden.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  3,
		BaseBackoff:  200 * time.Millisecond,
		MaxBackoff:   5 * time.Second,
		Burst:        5,
		RefillPerSec: 1,
		WaitCeiling:  10 * time.Second,
		CostPerCall:  1,
	}
}

// Invoker performs the actual model call. Implementations classify
// their failures with the sentinel errors below so the client can
// decide whether to retry.
type Invoker interface {
	Invoke(ctx context.Context, op Operation, payload any) (any, error)
}

// InvokerFunc adapts a function to the Invoker interface.
type InvokerFunc func(ctx context.Context, op Operation, payload any) (any, error)

// Invoke calls f.
func (f InvokerFunc) Invoke(ctx context.Context, op Operation, payload any) (any, error) {
	return f(ctx, op, payload)
}

// Failure sentinels. Invokers wrap or return these to classify errors.
var (
	// Retryable.
	ErrTimeout     = errors.New("aiwrap: request timed out")
	ErrRateLimited = errors.New("aiwrap: provider rate limited the request")
	ErrUnavailable = errors.New("aiwrap: provider temporarily unavailable")

	// Non-retryable.
	ErrInvalidInput = errors.New("aiwrap: invalid input")
	ErrUnauthorized = errors.New("aiwrap: unauthorized")

	// ErrMalformedOutput marks a result that failed output validation.
	// The client treats the first occurrence per invocation as
	// retryable and any recurrence as final.
	ErrMalformedOutput = errors.New("aiwrap: malformed output")

	// ErrRateLimitExceeded is returned when no token became available
	// within the configured wait ceiling.
	ErrRateLimitExceeded = errors.New("aiwrap: rate limit wait ceiling exceeded")
)

// IsRetryable reports whether an invocation error is worth retrying.
// Unknown errors are treated as non-retryable.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrUnavailable)
}

// Result is a validated operation result.
type Result struct {
	value any
}

// Bool returns the result as a bool, or false for non-bool results.
func (r Result) Bool() bool {
	b, _ := r.value.(bool)
	return b
}

// Text returns the result as a string, or "" for non-text results.
func (r Result) Text() string {
	s, _ := r.value.(string)
	return s
}

// Number returns the result as a float64, or 0 for non-number results.
func (r Result) Number() float64 {
	n, _ := r.value.(float64)
	return n
}

// Value returns the untyped result.
func (r Result) Value() any { return r.value }

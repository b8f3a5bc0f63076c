package aiwrap

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// state is the explicit invocation state machine.
type state int

const (
	stateIdle state = iota
	stateCacheLookup
	stateInvoking
	stateValidating
	stateSuccess
	stateRetry
	stateFailed
)

// String returns the state name used in logs.
func (s state) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateCacheLookup:
		return "cache_lookup"
	case stateInvoking:
		return "invoking"
	case stateValidating:
		return "validating"
	case stateSuccess:
		return "success"
	case stateRetry:
		return "retry"
	case stateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Client executes operations through an Invoker with caching, retry,
// rate limiting, output validation, and cost tracking. A Client is
// safe for concurrent use.
type Client struct {
	invoker Invoker
	cache   Cache
	limits  *limiterPool
	group   singleflight.Group
	costs   *CostTracker
	log     zerolog.Logger

	// Overridable in tests.
	sleep  func(ctx context.Context, d time.Duration) error
	jitter func() float64
}

// Option configures a Client.
type Option func(*Client)

// WithCache replaces the default in-memory cache.
func WithCache(cache Cache) Option {
	return func(c *Client) { c.cache = cache }
}

// WithLogger sets the structured logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithCostTracker replaces the default cost tracker.
func WithCostTracker(t *CostTracker) Option {
	return func(c *Client) { c.costs = t }
}

// New creates a Client around an Invoker.
func New(invoker Invoker, opts ...Option) *Client {
	c := &Client{
		invoker: invoker,
		cache:   NewMemoryCache(),
		limits:  newLimiterPool(),
		log:     zerolog.Nop(),
		sleep:   sleepCtx,
		jitter:  rand.Float64,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.costs == nil {
		c.costs = NewCostTracker(c.log)
	}
	return c
}

// Do executes one operation. Identical concurrent invocations (same
// operation and payload) collapse to a single in-flight call; an
// occasional duplicate under a race is acceptable.
func (c *Client) Do(ctx context.Context, op Operation, payload any) (Result, error) {
	key, err := CacheKey(op.ID, payload)
	if err != nil {
		return Result{}, err
	}
	v, err, _ := c.group.Do(key, func() (any, error) {
		return c.run(ctx, op, key, payload)
	})
	if err != nil {
		return Result{}, err
	}
	return v.(Result), nil
}

// run drives the invocation state machine:
// Idle -> CacheLookup -> Invoking -> Validating -> Success | Retry | Failed.
func (c *Client) run(ctx context.Context, op Operation, key string, payload any) (Result, error) {
	var (
		st        = stateCacheLookup
		attempt   int
		lastErr   error
		raw       any
		res       Result
		malformed bool
	)

	for {
		c.log.Trace().Str("operation_id", op.ID).Stringer("state", st).Msg("ai invocation")

		switch st {
		case stateCacheLookup:
			if data, ok, err := c.cache.Get(ctx, key); err == nil && ok {
				if v, err := decodeValue(data); err == nil {
					c.costs.Record(op.ID, 0, true)
					return Result{value: v}, nil
				}
			}
			st = stateInvoking

		case stateInvoking:
			if err := ctx.Err(); err != nil {
				return Result{}, err
			}
			if err := c.waitForToken(ctx, op); err != nil {
				lastErr = err
				st = stateFailed
				continue
			}
			attempt++
			raw, lastErr = c.invoker.Invoke(ctx, op, payload)
			c.costs.Record(op.ID, op.Config.CostPerCall, false)
			if lastErr != nil {
				if IsRetryable(lastErr) && attempt < op.Config.MaxAttempts {
					st = stateRetry
				} else {
					st = stateFailed
				}
				continue
			}
			st = stateValidating

		case stateValidating:
			res, lastErr = validateOutput(op.Output, raw)
			if lastErr != nil {
				// A malformed shape is retryable once, final after that
				if !malformed && attempt < op.Config.MaxAttempts {
					malformed = true
					st = stateRetry
				} else {
					st = stateFailed
				}
				continue
			}
			st = stateSuccess

		case stateRetry:
			if err := c.sleep(ctx, c.backoff(op.Config, attempt)); err != nil {
				return Result{}, err
			}
			st = stateInvoking

		case stateSuccess:
			if data, err := encodeValue(res.value); err == nil {
				if err := c.cache.Put(ctx, key, data); err != nil {
					c.log.Warn().Err(err).Str("operation_id", op.ID).Msg("cache write failed")
				}
			}
			return res, nil

		case stateFailed:
			c.log.Debug().Err(lastErr).Str("operation_id", op.ID).Int("attempts", attempt).Msg("ai invocation failed")
			return Result{}, lastErr

		default:
			st = stateCacheLookup
		}
	}
}

// waitForToken blocks for a rate-limit token up to the configured
// ceiling.
func (c *Client) waitForToken(ctx context.Context, op Operation) error {
	lim := c.limits.get(op)
	if lim.Allow() {
		return nil
	}

	wctx, cancel := context.WithTimeout(ctx, op.Config.WaitCeiling)
	defer cancel()
	if err := lim.Wait(wctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// Wait reports up front when a token cannot arrive before the
		// ceiling, without blocking until the deadline.
		return ErrRateLimitExceeded
	}
	return nil
}

// backoff computes the delay before the next attempt: exponential from
// BaseBackoff, capped at MaxBackoff, with up to 50% jitter on top.
func (c *Client) backoff(cfg Config, attempt int) time.Duration {
	d := cfg.BaseBackoff
	for i := 1; i < attempt && d < cfg.MaxBackoff; i++ {
		d *= 2
	}
	if d > cfg.MaxBackoff {
		d = cfg.MaxBackoff
	}
	return d + time.Duration(c.jitter()*float64(d)/2)
}

// Costs exposes the client's cost tracker.
func (c *Client) Costs() *CostTracker { return c.costs }

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Package retrylimit wraps outbound calls with an adaptive rate limit and
// exponential backoff.
//
//	lim := retrylimit.NewAdaptiveLimiter(5, 1, 20, 1, 0.5)
//	err := retrylimit.Do(ctx, lim, retrylimit.DefaultConfig(), func(ctx context.Context) error {
//	    return call(ctx)
//	})
package retrylimit

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// AdaptiveLimiter raises its rate after successes and cuts it after
// overload responses. Safe for concurrent use.
type AdaptiveLimiter struct {
	mu        sync.Mutex
	limiter   *rate.Limiter
	min, max  rate.Limit
	stepUp    rate.Limit
	stepDown  float64
	cooldown  time.Duration
	lastError time.Time
	now       func() time.Time
}

// NewAdaptiveLimiter starts at initial requests per second and stays within
// [min, max]. stepUp is added on success, stepDown multiplies on overload.
func NewAdaptiveLimiter(initial, min, max, stepUp rate.Limit, stepDown float64) *AdaptiveLimiter {
	if min <= 0 {
		min = 1
	}
	if max < min {
		max = min
	}
	initial = clampLimit(initial, min, max)
	if stepDown <= 0 || stepDown >= 1 {
		stepDown = 0.5
	}
	return &AdaptiveLimiter{
		limiter:  rate.NewLimiter(initial, burstFor(initial)),
		min:      min,
		max:      max,
		stepUp:   stepUp,
		stepDown: stepDown,
		cooldown: 10 * time.Second,
		now:      time.Now,
	}
}

func (a *AdaptiveLimiter) Wait(ctx context.Context) error { return a.limiter.Wait(ctx) }

// Success raises the rate unless an overload was seen within the cooldown.
func (a *AdaptiveLimiter) Success() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.now().Sub(a.lastError) > a.cooldown {
		a.set(a.limiter.Limit() + a.stepUp)
	}
}

func (a *AdaptiveLimiter) RateLimited() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastError = a.now()
	a.set(rate.Limit(float64(a.limiter.Limit()) * a.stepDown))
}

// Limit is the current requests per second.
func (a *AdaptiveLimiter) Limit() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return float64(a.limiter.Limit())
}

func (a *AdaptiveLimiter) set(l rate.Limit) {
	l = clampLimit(l, a.min, a.max)
	if l == a.limiter.Limit() {
		return
	}
	a.limiter.SetLimit(l)
	a.limiter.SetBurst(burstFor(l))
}

func clampLimit(l, min, max rate.Limit) rate.Limit {
	switch {
	case l < min:
		return min
	case l > max:
		return max
	}
	return l
}

func burstFor(l rate.Limit) int { return max(1, int(l)) }

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("http status %d", e.Code)
	}
	return fmt.Sprintf("http status %d: %s", e.Code, e.Body)
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err}
}

type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// IsPermanent reports whether err was wrapped with Permanent or is a 4xx
// other than 429.
func IsPermanent(err error) bool {
	var p *permanentError
	if errors.As(err, &p) {
		return true
	}
	code := statusCode(err)
	return code >= 400 && code < 500 && code != http.StatusTooManyRequests
}

func statusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 0
}

// Overloaded reports a 429 or 5xx response.
func Overloaded(err error) bool {
	code := statusCode(err)
	return code == http.StatusTooManyRequests || code >= 500
}

type Config struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       bool
	Logger       zerolog.Logger
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts:  4,
		InitialDelay: 250 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2,
		Jitter:       true,
		Logger:       zerolog.Nop(),
	}
}

// Do calls fn until it succeeds, returns a permanent error, the context ends
// or MaxAttempts is spent. lim may be nil.
func Do(ctx context.Context, lim *AdaptiveLimiter, cfg Config, fn func(context.Context) error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = 1
	}
	delay := cfg.InitialDelay

	var err error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if lim != nil {
			if werr := lim.Wait(ctx); werr != nil {
				return errors.Join(werr, err)
			}
		}
		if err = fn(ctx); err == nil {
			if lim != nil {
				lim.Success()
			}
			if attempt > 1 {
				cfg.Logger.Debug().Int("attempt", attempt).Msg("request succeeded after retry")
			}
			return nil
		}
		if IsPermanent(err) || ctx.Err() != nil {
			return err
		}
		if Overloaded(err) && lim != nil {
			lim.RateLimited()
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		wait := delay
		if cfg.Jitter && wait > 0 {
			wait += rand.N(wait/4 + 1)
		}
		cfg.Logger.Warn().Err(err).Int("attempt", attempt).Dur("backoff", wait).Msg("request failed, retrying")

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return errors.Join(ctx.Err(), err)
		case <-t.C:
		}
		delay = min(time.Duration(float64(delay)*cfg.Multiplier), cfg.MaxDelay)
	}
	return fmt.Errorf("gave up after %d attempts: %w", cfg.MaxAttempts, err)
}

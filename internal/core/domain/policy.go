package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// RetryPolicy holds the numeric knobs for bounded exponential backoff.
// An error whose message matches none of RetryableErrors short-circuits to
// immediate dead-lettering regardless of remaining retry budget.
type RetryPolicy struct {
	MaxRetries      int
	BaseDelay       time.Duration
	MaxDelay        time.Duration
	BackoffFactor   float64
	RetryableErrors []string
}

// Validate checks the policy invariants.
func (p RetryPolicy) Validate() error {
	if p.MaxRetries < 0 {
		return fmt.Errorf("max retries must be >= 0, got %d", p.MaxRetries)
	}
	if p.BaseDelay <= 0 {
		return fmt.Errorf("base delay must be > 0, got %v", p.BaseDelay)
	}
	if p.MaxDelay < p.BaseDelay {
		return fmt.Errorf("max delay %v < base delay %v", p.MaxDelay, p.BaseDelay)
	}
	if p.BackoffFactor <= 1 {
		return fmt.Errorf("backoff factor must be > 1, got %v", p.BackoffFactor)
	}
	return nil
}

// Delay returns the backoff to sleep after the given failed attempt (1-based):
// min(BaseDelay * BackoffFactor^(attempt-1), MaxDelay). No jitter.
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := float64(p.BaseDelay) * math.Pow(p.BackoffFactor, float64(attempt-1))
	if delay > float64(p.MaxDelay) {
		return p.MaxDelay
	}
	return time.Duration(delay)
}

// Retryable reports whether the error message contains any of the policy's
// retryable markers. Matching is case-insensitive substring.
func (p RetryPolicy) Retryable(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range p.RetryableErrors {
		if strings.Contains(msg, strings.ToLower(marker)) {
			return true
		}
	}
	return false
}

// Package retry runs model backend calls with exponential backoff on
// transient failures.
package retry

import (
	"math"
	"math/rand/v2"
	"time"

	ai "github.com/spetersoncode/pausable"
)

// Delay calculates the wait before retrying after the given attempt (0-indexed).
// Formula: min(maxDelay, initialDelay * multiplier^attempt) * (1 ± jitter)
func Delay(cfg ai.RetryConfig, attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}

	delay := float64(cfg.InitialDelay) * math.Pow(cfg.Multiplier, float64(attempt))
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}

	if cfg.Jitter > 0 {
		delay *= 1.0 + (rand.Float64()*2-1)*cfg.Jitter
	}

	return time.Duration(delay)
}

// effectiveDelay returns the delay to use, honoring the server's Retry-After if larger.
func effectiveDelay(configured time.Duration, err error) time.Duration {
	if server := ai.RetryAfterOf(err); server > configured {
		return server
	}
	return configured
}

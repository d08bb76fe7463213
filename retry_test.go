package pausable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()

	assert.Equal(t, 5, cfg.MaxAttempts)
	assert.Equal(t, time.Second, cfg.InitialDelay)
	assert.Equal(t, 7.0, cfg.Multiplier)
	assert.Equal(t, []int{429, 500, 503, 504}, cfg.RetryableStatusCodes)
	assert.NoError(t, cfg.Validate())
}

func TestDefaultRetryConfig_DoesNotShareCodes(t *testing.T) {
	cfg := DefaultRetryConfig()
	cfg.RetryableStatusCodes[0] = 418

	assert.Equal(t, 429, DefaultRetryableStatusCodes[0])
}

func TestRetryConfig_RetriesStatus(t *testing.T) {
	cfg := DefaultRetryConfig()

	assert.True(t, cfg.RetriesStatus(0))
	assert.True(t, cfg.RetriesStatus(429))
	assert.True(t, cfg.RetriesStatus(504))
	assert.False(t, cfg.RetriesStatus(502))

	open := RetryConfig{MaxAttempts: 3}
	assert.True(t, open.RetriesStatus(502))
}

func TestRetryConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		cfg  RetryConfig
		key  string
	}{
		{"zero attempts", RetryConfig{}, "RETRY_ATTEMPTS"},
		{"shrinking base", RetryConfig{MaxAttempts: 3, Multiplier: 0.5}, "RETRY_EXP_BASE"},
		{"negative delay", RetryConfig{MaxAttempts: 3, Multiplier: 2, InitialDelay: -time.Second}, "RETRY_INITIAL_DELAY"},
		{"bad status", RetryConfig{MaxAttempts: 3, Multiplier: 2, RetryableStatusCodes: []int{42}}, "RETRY_STATUS_CODES"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			var ce *ConfigurationError
			if assert.ErrorAs(t, err, &ce) {
				assert.Equal(t, tt.key, ce.Key)
			}
		})
	}

	assert.NoError(t, DisabledRetryConfig().Validate())
}

package llm

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// RetryConfig defines retry behavior for provider rate-limit handling.
type RetryConfig struct {
	// MaxRetries is the maximum number of retry attempts
	MaxRetries int

	// InitialBackoff is the initial wait time before first retry
	InitialBackoff time.Duration

	// MaxBackoff is the maximum wait time between retries
	MaxBackoff time.Duration

	// BackoffMultiplier is applied to backoff on each retry
	BackoffMultiplier float64
}

// NewRetryConfig returns a RetryConfig with sensible defaults for the given
// retry budget.
func NewRetryConfig(maxRetries int) *RetryConfig {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &RetryConfig{
		MaxRetries:        maxRetries,
		InitialBackoff:    2 * time.Second,
		MaxBackoff:        30 * time.Second,
		BackoffMultiplier: 2.0,
	}
}

// IsRateLimitError checks if an error is a provider rate limit error.
// Matches 429 status codes and RESOURCE_EXHAUSTED/quota errors.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "RESOURCE_EXHAUSTED") ||
		strings.Contains(errStr, "quota")
}

// retryDelayRegex matches "Please retry in Xs" or "retryDelay:Xs" patterns
var retryDelayRegex = regexp.MustCompile(`(?i)(?:Please retry in |retryDelay[:\s]+)(\d+(?:\.\d+)?)\s*s`)

// ExtractRetryDelay parses the API-suggested retry delay from a provider
// error message. Returns 0 if no delay is found.
func ExtractRetryDelay(err error) time.Duration {
	if err == nil {
		return 0
	}

	matches := retryDelayRegex.FindStringSubmatch(err.Error())
	if len(matches) < 2 {
		return 0
	}

	seconds, parseErr := strconv.ParseFloat(matches[1], 64)
	if parseErr != nil {
		return 0
	}

	return time.Duration(seconds * float64(time.Second))
}

// CalculateBackoff computes the backoff duration for a given attempt.
// If apiDelay > 0 (from ExtractRetryDelay), it's used as the base.
// The result is capped at MaxBackoff.
func (c *RetryConfig) CalculateBackoff(attempt int, apiDelay time.Duration) time.Duration {
	base := c.InitialBackoff
	if apiDelay > 0 {
		base = apiDelay + time.Second
	}

	multiplier := 1.0
	for i := 0; i < attempt; i++ {
		multiplier *= c.BackoffMultiplier
	}

	backoff := time.Duration(float64(base) * multiplier)
	if backoff > c.MaxBackoff {
		backoff = c.MaxBackoff
	}

	return backoff
}

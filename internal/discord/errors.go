package discord

import (
	"fmt"
	"net/http"
	"time"
)

// APIError is a non-success response from the Discord API, carrying the
// status code so callers can act on the failure class
type APIError struct {
	StatusCode int
	Message    string
	RetryAfter time.Duration // populated from a 429 retry hint, zero otherwise
}

func (e *APIError) Error() string {
	return fmt.Sprintf("discord API error (HTTP %d): %s", e.StatusCode, e.Message)
}

// Retryable reports whether the failure is worth another attempt:
// rate limits and server errors are, other client errors are not
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Guidance returns actionable advice keyed on the status code, shown in
// logs so a failed notification can be fixed without reading Discord docs
func (e *APIError) Guidance() string {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return "unauthorized: check that DISCORD_BOT_TOKEN is a valid bot token"
	case http.StatusForbidden:
		return "forbidden: the bot lacks permission to post in this channel"
	case http.StatusNotFound:
		return "not found: the channel or message does not exist (it may have been deleted)"
	case http.StatusTooManyRequests:
		return "rate limited by Discord; the client backs off automatically"
	default:
		return fmt.Sprintf("unexpected Discord API response (HTTP %d)", e.StatusCode)
	}
}

package discord

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the Discord REST API root
const DefaultBaseURL = "https://discord.com/api/v10"

// Notifier is the remote side of the tracker: create, edit and delete the
// one channel message the pipeline keeps updating. Implementations handle
// their own retries; callers treat any returned error as final.
type Notifier interface {
	Send(msg *Message) (string, error)
	Update(messageID string, msg *Message) error
	Delete(messageID string) error
	Health() HealthStatus
}

// Config controls client behaviour
type Config struct {
	BotToken       string
	ChannelID      string
	BaseURL        string
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Timeout        time.Duration
}

func normalizeConfig(cfg Config) Config {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 1 * time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Second
	}
	if cfg.MaxBackoff < cfg.InitialBackoff {
		cfg.MaxBackoff = cfg.InitialBackoff
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return cfg
}

// Client talks to the Discord channel-message API with retry and backoff
type Client struct {
	cfg        Config
	httpClient *http.Client
	sleep      func(time.Duration) // replaced in tests
}

var _ Notifier = (*Client)(nil)

// NewClient validates the credentials and builds a client
func NewClient(cfg Config) (*Client, error) {
	if err := ValidateBotToken(cfg.BotToken); err != nil {
		return nil, err
	}
	if err := ValidateChannelID(cfg.ChannelID); err != nil {
		return nil, err
	}

	cfg = normalizeConfig(cfg)
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		sleep:      time.Sleep,
	}, nil
}

// ValidateBotToken rejects an empty credential
func ValidateBotToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return errors.New("bot token must not be empty")
	}
	return nil
}

// ValidateChannelID accepts a numeric channel id. Scientific notation
// (e.g. "1.39589530256487E+18") is tolerated because channel ids pasted
// through spreadsheets arrive mangled that way.
func ValidateChannelID(channelID string) error {
	if channelID == "" {
		return errors.New("channel ID must not be empty")
	}
	if strings.ContainsAny(channelID, "eE") {
		if _, err := strconv.ParseFloat(channelID, 64); err != nil {
			return fmt.Errorf("channel ID %q is not numeric", channelID)
		}
		return nil
	}
	for _, r := range channelID {
		if r < '0' || r > '9' {
			return fmt.Errorf("channel ID %q is not numeric", channelID)
		}
	}
	return nil
}

func (c *Client) messagesURL() string {
	return fmt.Sprintf("%s/channels/%s/messages", c.cfg.BaseURL, c.cfg.ChannelID)
}

func (c *Client) messageURL(messageID string) string {
	return fmt.Sprintf("%s/channels/%s/messages/%s", c.cfg.BaseURL, c.cfg.ChannelID, messageID)
}

// Send creates a new channel message and returns its id
func (c *Client) Send(msg *Message) (string, error) {
	var messageID string
	err := c.withRetry("send message", func() error {
		body, err := c.do(http.MethodPost, c.messagesURL(), msg)
		if err != nil {
			return err
		}
		var resp messageResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return fmt.Errorf("failed to parse send response: %w", err)
		}
		if resp.ID == "" {
			return errors.New("send response carried no message id")
		}
		messageID = resp.ID
		return nil
	})
	return messageID, err
}

// Update edits an existing channel message in place
func (c *Client) Update(messageID string, msg *Message) error {
	return c.withRetry("update message", func() error {
		_, err := c.do(http.MethodPatch, c.messageURL(messageID), msg)
		return err
	})
}

// Delete removes a channel message
func (c *Client) Delete(messageID string) error {
	return c.withRetry("delete message", func() error {
		_, err := c.do(http.MethodDelete, c.messageURL(messageID), nil)
		return err
	})
}

// Health probes the configured channel and reports reachability
func (c *Client) Health() HealthStatus {
	err := c.withRetry("health check", func() error {
		url := fmt.Sprintf("%s/channels/%s", c.cfg.BaseURL, c.cfg.ChannelID)
		_, err := c.do(http.MethodGet, url, nil)
		return err
	})
	if err == nil {
		return HealthStatus{Available: true}
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return HealthStatus{Available: false, Reason: apiErr.Guidance()}
	}
	return HealthStatus{Available: false, Reason: err.Error()}
}

// do performs one HTTP round trip and maps non-success responses to
// *APIError. The caller's retry loop decides what to do with them.
func (c *Client) do(method, url string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.cfg.BotToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return body, nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode, Message: "unknown error"}
	var errResp errorResponse
	if json.Unmarshal(body, &errResp) == nil && errResp.Message != "" {
		apiErr.Message = errResp.Message
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		apiErr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
	}
	return nil, apiErr
}

// parseRetryAfter reads the Retry-After header as seconds, possibly
// fractional. Zero means no hint.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/deliverybot/discord-tracker/internal/discord"
	"github.com/deliverybot/discord-tracker/internal/storage"
)

// Config holds all configuration for the discord-tracker CLI
type Config struct {
	// Discord credentials
	BotToken  string
	ChannelID string

	// API settings
	BaseURL      string
	MaxRetries   int
	RetryInitial time.Duration
	RetryMax     time.Duration
	HTTPTimeout  time.Duration

	// State file location, relative to the working directory
	StateFile string
}

// Load reads configuration from environment variables. Credentials are not
// validated here because they may still arrive via CLI flags; call
// ValidateCredentials after merging.
func Load() *Config {
	return &Config{
		BotToken:     os.Getenv("DISCORD_BOT_TOKEN"),
		ChannelID:    os.Getenv("DISCORD_CHANNEL_ID"),
		BaseURL:      getEnv("DISCORD_API_BASE_URL", discord.DefaultBaseURL),
		MaxRetries:   getEnvInt("DISCORD_MAX_RETRIES", 3),
		RetryInitial: time.Duration(getEnvInt("DISCORD_RETRY_INITIAL_MS", 1000)) * time.Millisecond,
		RetryMax:     time.Duration(getEnvInt("DISCORD_RETRY_MAX_MS", 30000)) * time.Millisecond,
		HTTPTimeout:  time.Duration(getEnvInt("DISCORD_HTTP_TIMEOUT_SECONDS", 30)) * time.Second,
		StateFile:    getEnv("STATE_FILE", storage.DefaultStateFile),
	}
}

// ValidateCredentials checks the merged credential set
func (c *Config) ValidateCredentials() error {
	if c.BotToken == "" {
		return fmt.Errorf("DISCORD_BOT_TOKEN (or --bot-token) is required")
	}
	if c.ChannelID == "" {
		return fmt.Errorf("DISCORD_CHANNEL_ID (or --channel-id) is required")
	}
	if err := discord.ValidateBotToken(c.BotToken); err != nil {
		return err
	}
	return discord.ValidateChannelID(c.ChannelID)
}

// ClientConfig maps the configuration onto the Discord client settings
func (c *Config) ClientConfig() discord.Config {
	return discord.Config{
		BotToken:       c.BotToken,
		ChannelID:      c.ChannelID,
		BaseURL:        c.BaseURL,
		MaxRetries:     c.MaxRetries,
		InitialBackoff: c.RetryInitial,
		MaxBackoff:     c.RetryMax,
		Timeout:        c.HTTPTimeout,
	}
}

// getEnv gets environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets environment variable as int with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

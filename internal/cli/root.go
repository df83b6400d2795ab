// Package cli wires the cobra command surface: one short-lived invocation
// per CI step, four actions (init, step, complete, fail) plus diagnostics.
package cli

import (
	"log"

	"github.com/deliverybot/discord-tracker/internal/config"
	"github.com/deliverybot/discord-tracker/internal/discord"
	"github.com/deliverybot/discord-tracker/internal/storage"
	"github.com/deliverybot/discord-tracker/internal/tracker"
	"github.com/spf13/cobra"
)

// Version is stamped at build time via -ldflags
var Version = "1.0.0"

var (
	flagBotToken  string
	flagChannelID string
	flagStateFile string
)

var rootCmd = &cobra.Command{
	Use:   "discord-tracker",
	Short: "Discord pipeline tracker for CI/CD workflows",
	Long: `discord-tracker posts one Discord message when a pipeline starts and keeps
editing it as steps complete, instead of sending one message per step.
State is carried between invocations in a small file in the working
directory, so each CI step can run it as a fresh process.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI and returns the process exit code. Failures emit
// machine-readable outputs before the non-zero exit.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Error: %v", err)
		emitFailure(err)
		return 1
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagBotToken, "bot-token", "", "Discord bot token (defaults to DISCORD_BOT_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&flagChannelID, "channel-id", "", "Discord channel ID (defaults to DISCORD_CHANNEL_ID)")
	rootCmd.PersistentFlags().StringVar(&flagStateFile, "state-file", "", "state file path (defaults to STATE_FILE or "+storage.DefaultStateFile+")")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(stepCmd)
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(failCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig merges env configuration with CLI flags (flags win) and
// validates the credential set
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if flagBotToken != "" {
		cfg.BotToken = flagBotToken
	}
	if flagChannelID != "" {
		cfg.ChannelID = flagChannelID
	}
	if flagStateFile != "" {
		cfg.StateFile = flagStateFile
	}
	if err := cfg.ValidateCredentials(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newTracker builds the reconciler over a file store and a live Discord
// client
func newTracker() (*tracker.Tracker, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	client, err := discord.NewClient(cfg.ClientConfig())
	if err != nil {
		return nil, err
	}
	return tracker.New(storage.NewFileStore(cfg.StateFile), client), nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("discord-tracker %s\n", Version)
	},
}

package cli

import (
	"fmt"

	"github.com/deliverybot/discord-tracker/internal/discord"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check configuration and Discord channel reachability",
	Long: `Diagnostic command: validates the credential configuration and probes the
configured channel. Exits non-zero when the channel is unreachable. Not
meant to run as a pipeline step.`,
	RunE: runHealth,
}

func runHealth(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	client, err := discord.NewClient(cfg.ClientConfig())
	if err != nil {
		return err
	}

	status := client.Health()
	if !status.Available {
		return fmt.Errorf("discord channel %s unavailable: %s", cfg.ChannelID, status.Reason)
	}
	cmd.Printf("Discord channel %s reachable\n", cfg.ChannelID)
	emitSuccess()
	return nil
}

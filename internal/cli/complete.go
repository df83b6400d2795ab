package cli

import (
	"github.com/spf13/cobra"
)

var completeCmd = &cobra.Command{
	Use:   "complete",
	Short: "Send the final summary and clear the pipeline state",
	Long: `Edits the tracked message with the overall result and elapsed time, then
removes the state file so the next pipeline in this directory starts clean.
Cleanup runs even when the final edit fails.`,
	RunE: runComplete,
}

func runComplete(cmd *cobra.Command, args []string) error {
	tr, err := newTracker()
	if err != nil {
		return err
	}
	if err := tr.Complete(); err != nil {
		return err
	}
	emitSuccess()
	return nil
}

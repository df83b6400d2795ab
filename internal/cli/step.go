package cli

import (
	"fmt"
	"strings"

	"github.com/deliverybot/discord-tracker/internal/pipeline"
	"github.com/spf13/cobra"
)

var (
	stepNumber int
	stepTotal  int
	stepName   string
	stepStatus string
	stepInfo   []string
)

var stepCmd = &cobra.Command{
	Use:   "step",
	Short: "Record a step observation and update the tracked message",
	Long: `Merges one step observation into the persisted pipeline state and edits
the Discord message. State is saved before the remote call; if the save
fails, the remote update is skipped for this invocation.`,
	RunE: runStep,
}

func init() {
	stepCmd.Flags().IntVar(&stepNumber, "step-number", 0, "current step number (1-based)")
	stepCmd.Flags().IntVar(&stepTotal, "total-steps", 0, "total number of steps")
	stepCmd.Flags().StringVar(&stepName, "step-name", "", "name of the current step")
	stepCmd.Flags().StringVar(&stepStatus, "status", "", "step status (pending, running, success, failed, skipped)")
	stepCmd.Flags().StringArrayVar(&stepInfo, "additional-info", nil, "extra key=value pair shown on the step line (repeatable)")
	stepCmd.MarkFlagRequired("step-number")
	stepCmd.MarkFlagRequired("total-steps")
	stepCmd.MarkFlagRequired("step-name")
	stepCmd.MarkFlagRequired("status")
}

func runStep(cmd *cobra.Command, args []string) error {
	info, err := parseInfoPairs(stepInfo)
	if err != nil {
		return err
	}

	tr, err := newTracker()
	if err != nil {
		return err
	}

	if err := tr.UpdateStep(stepNumber, stepTotal, stepName, stepStatus, info); err != nil {
		return err
	}
	emitSuccess()
	return nil
}

// parseInfoPairs converts repeated "key=value" flags into ordered pairs
func parseInfoPairs(values []string) ([]pipeline.InfoPair, error) {
	if len(values) == 0 {
		return nil, nil
	}
	pairs := make([]pipeline.InfoPair, 0, len(values))
	for _, v := range values {
		key, value, ok := strings.Cut(v, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --additional-info %q: expected key=value", v)
		}
		pairs = append(pairs, pipeline.InfoPair{key, value})
	}
	return pairs, nil
}

package cli

import (
	"github.com/spf13/cobra"
)

var (
	failStepName     string
	failErrorMessage string
)

var failCmd = &cobra.Command{
	Use:   "fail",
	Short: "Record a pipeline failure",
	Long: `Records the failing step as a single-step pipeline with the error message
attached and updates the tracked Discord message accordingly.`,
	RunE: runFail,
}

func init() {
	failCmd.Flags().StringVar(&failStepName, "step-name", "", "name of the step that failed")
	failCmd.Flags().StringVar(&failErrorMessage, "error-message", "", "error message to attach")
	failCmd.MarkFlagRequired("step-name")
	failCmd.MarkFlagRequired("error-message")
}

func runFail(cmd *cobra.Command, args []string) error {
	tr, err := newTracker()
	if err != nil {
		return err
	}
	if err := tr.Fail(failStepName, failErrorMessage); err != nil {
		return err
	}
	emitSuccess()
	return nil
}

package main

import (
	"fmt"
	"time"

	"casbot/internal/prompt"

	"github.com/spf13/cobra"
)

var workflowHeadless bool

var workflowCmd = &cobra.Command{
	Use:   "workflow",
	Short: "Interactively describe an activity, generate, review and submit",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		if !prompt.Interactive() {
			return fmt.Errorf("workflow needs a terminal; use check or submit --auto instead")
		}
		model, err := newModel(ctx)
		if err != nil {
			return err
		}

		ui := prompt.New()
		header("CAS AUTOMATION WORKFLOW")
		fmt.Println("  1. Describe your activity")
		fmt.Println("  2. Analyze your photos (optional)")
		fmt.Println("  3. Generate a reflection in your style")
		fmt.Println("  4. Review and submit to ManageBac")
		fmt.Println()

		res, err := newPipeline(model, workflowHeadless, ui).Workflow(ctx, ui, showReflection, time.Now())
		if err != nil {
			return err
		}
		if res.Report.State != "" {
			printReport(res.Report)
		}
		return nil
	},
}

func init() {
	workflowCmd.Flags().BoolVar(&workflowHeadless, "headless", false, "Run the browser headless")
}

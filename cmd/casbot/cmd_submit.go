package main

import (
	"fmt"
	"strings"
	"time"

	"casbot/internal/formdriver"
	"casbot/internal/prompt"

	"github.com/spf13/cobra"
)

var (
	submitAuto     bool
	submitHeadless bool
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit the saved reflection to ManageBac",
	Long: `Logs in to ManageBac, opens a new CAS journal entry, fills in the saved
reflection, ticks its learning outcomes and clicks Add Entry. A screenshot is
saved to <scratch>/submission_screenshot.png.

Without --auto you are shown the reflection and asked to type "yes" first, and
can finish navigation by hand if the CAS section cannot be found.`,
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().BoolVar(&submitAuto, "auto", false, "Submit without confirmation")
	submitCmd.Flags().BoolVar(&submitHeadless, "headless", false, "Run the browser headless")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	if err := cfg.ValidateManageBac(); err != nil {
		return err
	}

	var prompter *prompt.Prompter
	var driverPrompter formdriver.Prompter
	if !submitAuto && prompt.Interactive() {
		prompter = prompt.New()
		driverPrompter = prompter
	}
	p := newPipeline(nil, submitHeadless, driverPrompter)

	result, err := p.LoadSubmittable()
	if err != nil {
		return err
	}

	if !submitAuto {
		showReflection(result)
		if prompter == nil {
			return fmt.Errorf("confirmation needs a terminal; use --auto to submit unattended")
		}
		ok, err := prompter.Confirm(ctx, "Submit this reflection to ManageBac?")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println(styles.Muted.Render("Submission cancelled."))
			return nil
		}
	}

	report, err := p.SubmitReflection(ctx, result)
	if err != nil {
		return err
	}
	printReport(report)
	return nil
}

func printReport(r formdriver.Report) {
	header("Submission report")
	line := func(label string, ok bool) {
		mark := styles.Success.Render("ok")
		if !ok {
			mark = styles.Warning.Render("--")
		}
		fmt.Printf("  %s %s\n", mark, label)
	}
	line("logged in", r.LoggedIn)
	line("reached CAS section", r.Navigated)
	line("reflection entered", r.Filled)
	line("learning outcomes: "+strings.Join(r.OutcomesSelected, ", "), len(r.OutcomesSkipped) == 0)
	line("Add Entry clicked", r.Submitted)
	if len(r.OutcomesSkipped) > 0 {
		fmt.Println(styles.Warning.Render("  skipped outcomes: " + strings.Join(r.OutcomesSkipped, ", ")))
	}
	for _, e := range r.Errors {
		fmt.Println(styles.Warning.Render("  " + e))
	}
	if r.Screenshot != "" {
		fmt.Println(styles.Muted.Render("Screenshot: " + r.Screenshot))
	}
	if r.Submitted {
		fmt.Println(styles.Muted.Render("Acceptance is not verified; check the screenshot or ManageBac. " + time.Now().Format(time.DateTime)))
	}
}

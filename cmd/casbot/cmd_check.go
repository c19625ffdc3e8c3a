package main

import (
	"fmt"
	"time"

	"casbot/internal/gemini"
	"casbot/internal/history"
	"casbot/internal/logging"
	"casbot/internal/scheduler"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	checkForce    bool
	checkInterval time.Duration
	checkHeadless bool
)

// checkCmd is the scheduler entry point
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the full pipeline if the last successful run is old enough",
	Long: `Checks the last successful run in <scratch>/last_run.json. When at least
one interval has passed (default 4 days) it generates an idea, writes a
reflection and submits it, then records the run.

A failed stage leaves the record untouched so the next check retries. Stage
failures exit 0; only configuration errors exit non-zero.`,
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkForce, "force", false, "Run even if not due")
	checkCmd.Flags().DurationVar(&checkInterval, "interval", 0, "Override the run interval (e.g. 96h)")
	checkCmd.Flags().BoolVar(&checkHeadless, "headless", false, "Run the browser headless")
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	header("CAS AUTOPILOT CHECK")

	interval := cfg.GetInterval()
	if checkInterval > 0 {
		interval = checkInterval
	}
	store := scheduler.NewStore(cfg.ScratchDir, logging.For(logger, logging.CategoryScheduler))

	// Configuration is only needed when something will run.
	last, err := store.Load()
	if err != nil {
		return err
	}
	var model gemini.Generator
	if checkForce || scheduler.IsDue(time.Now(), last, interval) {
		if err := cfg.ValidateManageBac(); err != nil {
			return err
		}
		if model, err = newModel(ctx); err != nil {
			return err
		}
	}

	runner := &scheduler.Runner{
		Store:    store,
		Stages:   newPipeline(model, checkHeadless, nil).Stages(),
		Interval: interval,
		Force:    checkForce,
		Logger:   logging.For(logger, logging.CategoryScheduler),
	}

	ledger, err := history.Open(cfg.ScratchDir, logging.For(logger, logging.CategoryHistory))
	if err != nil {
		logger.Warn("run history unavailable", zap.Error(err))
	} else {
		defer ledger.Close()
		runner.Ledger = ledger
	}

	out, err := runner.RunIfDue(ctx)
	if err != nil {
		return err
	}
	printOutcome(out)
	return nil
}

func printOutcome(out scheduler.Outcome) {
	switch {
	case !out.Ran:
		fmt.Println(styles.Muted.Render(fmt.Sprintf("Not due. Next run after %s.", out.NextDue.Format(time.DateTime))))
	case out.Err != nil:
		fmt.Println(styles.Warning.Render(fmt.Sprintf("Stage %q failed: %v. Will retry on the next check.", out.FailedStage, out.Err)))
	default:
		fmt.Println(styles.Success.Render(fmt.Sprintf("Run complete. Next run after %s.", out.NextDue.Format(time.DateTime))))
	}
}

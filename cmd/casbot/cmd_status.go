package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"casbot/internal/cas"
	"casbot/internal/history"
	"casbot/internal/logging"
	"casbot/internal/scheduler"

	"github.com/spf13/cobra"
)

var historyLimit int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the last run, next due time and saved files",
	RunE:  runStatus,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent scheduler attempts",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of attempts to show")
}

func runStatus(cmd *cobra.Command, args []string) error {
	store := scheduler.NewStore(cfg.ScratchDir, logging.For(logger, logging.CategoryScheduler))
	last, err := store.Load()
	if err != nil {
		return err
	}

	now := time.Now()
	interval := cfg.GetInterval()

	header("casbot status")
	if last == nil {
		fmt.Println("Last run:  never")
	} else {
		fmt.Printf("Last run:  %s (%.1f days ago)\n", last.Date, scheduler.DaysSince(now, last))
		fmt.Printf("Next due:  %s\n", last.Time().Add(interval).Format(time.DateTime))
	}
	due := scheduler.IsDue(now, last, interval)
	fmt.Printf("Due now:   %v (interval %s)\n", due, interval)

	fmt.Println()
	for _, name := range []string{cas.IdeaFile, cas.ImageAnalysisFile, cas.ReflectionFile, cas.ReflectionTextFile, cas.ScreenshotFile} {
		path := cfg.ScratchPath(name)
		if info, err := os.Stat(path); err == nil {
			fmt.Printf("  %-28s %s\n", name, info.ModTime().Format(time.DateTime))
		} else {
			fmt.Printf("  %-28s %s\n", name, styles.Muted.Render("missing"))
		}
	}

	ledger, err := history.Open(cfg.ScratchDir, logging.For(logger, logging.CategoryHistory))
	if err != nil {
		return nil
	}
	defer ledger.Close()
	counts, err := ledger.Counts(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("\nAttempts:  %d succeeded, %d failed, %d skipped\n",
		counts[scheduler.StatusSucceeded], counts[scheduler.StatusFailed], counts[scheduler.StatusSkipped])
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	ledger, err := history.Open(cfg.ScratchDir, logging.For(logger, logging.CategoryHistory))
	if err != nil {
		return err
	}
	defer ledger.Close()

	attempts, err := ledger.Recent(context.Background(), historyLimit)
	if err != nil {
		return err
	}
	if len(attempts) == 0 {
		fmt.Println(styles.Muted.Render("No attempts recorded yet."))
		return nil
	}
	for _, a := range attempts {
		status := a.Status
		switch a.Status {
		case scheduler.StatusSucceeded:
			status = styles.Success.Render(status)
		case scheduler.StatusFailed:
			status = styles.Error.Render(status)
		default:
			status = styles.Muted.Render(status)
		}
		fmt.Printf("%s  %-10s", a.StartedAt.Local().Format(time.DateTime), status)
		if a.Forced {
			fmt.Print("  forced")
		}
		if a.FailedStage != "" {
			fmt.Printf("  %s: %s", a.FailedStage, a.Error)
		}
		fmt.Println()
	}
	return nil
}

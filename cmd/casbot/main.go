package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"casbot/internal/browser"
	"casbot/internal/config"
	"casbot/internal/formdriver"
	"casbot/internal/gemini"
	"casbot/internal/logging"
	"casbot/internal/pipeline"
	"casbot/internal/prompt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	verbose    bool
	configPath string
	scratchDir string

	cfg    *config.Config
	logger *zap.Logger
	styles = prompt.DefaultStyles()
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "casbot",
	Short: "casbot - CAS reflection autopilot for ManageBac",
	Long: `casbot drafts IB CAS journal reflections in your own writing style and
submits them to ManageBac.

Run "casbot check" from a scheduler (cron, CI) to generate and submit a new
reflection every few days, or "casbot workflow" to do it interactively.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if scratchDir != "" {
			cfg.ScratchDir = scratchDir
		}
		if err := os.MkdirAll(cfg.ScratchDir, 0755); err != nil {
			return fmt.Errorf("failed to create scratch directory: %w", err)
		}

		logFile := cfg.Logging.File
		if logFile != "" && !filepath.IsAbs(logFile) {
			logFile = cfg.ScratchPath(logFile)
		}
		logger, err = logging.New(logging.Options{
			Level:   cfg.Logging.Level,
			Verbose: verbose,
			File:    logFile,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "casbot.yaml", "Config file")
	rootCmd.PersistentFlags().StringVar(&scratchDir, "scratch", "", "Scratch directory (default from config: .tmp)")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(ideaCmd)
	rootCmd.AddCommand(reflectCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(workflowCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(setupCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styles.Error.Render(err.Error()))
		os.Exit(1)
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// newModel builds the Gemini client, failing on a missing API key.
func newModel(ctx context.Context) (gemini.Generator, error) {
	client, err := gemini.NewClient(ctx, cfg, logging.For(logger, logging.CategoryBoot))
	if err != nil {
		return nil, err
	}
	return client, nil
}

// newPipeline wires a pipeline. model may be nil for commands that never
// generate; interactive commands pass a prompter for manual navigation.
func newPipeline(model gemini.Generator, headless bool, prompter formdriver.Prompter) *pipeline.Pipeline {
	bc := browser.FromConfig(cfg)
	if headless {
		bc.Headless = true
	}
	return pipeline.New(pipeline.Deps{
		Config:   cfg,
		Model:    model,
		Open:     browser.Opener(bc, logging.For(logger, logging.CategoryBrowser)),
		Prompter: prompter,
		Logger:   logger,
	})
}

func header(title string) {
	fmt.Println(styles.Title.Render(title))
}

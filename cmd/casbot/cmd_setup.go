package main

import (
	"fmt"
	"os"
	"path/filepath"

	"casbot/internal/browser"
	"casbot/internal/config"
	"casbot/internal/vision"

	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Check configuration, training data and browser",
	RunE: func(cmd *cobra.Command, args []string) error {
		header("casbot setup check")
		results := setupChecks(cfg)
		failed := 0
		for _, r := range results {
			mark := styles.Success.Render("ok")
			switch {
			case r.err != nil && r.optional:
				mark = styles.Warning.Render("!!")
			case r.err != nil:
				mark = styles.Error.Render("xx")
				failed++
			}
			fmt.Printf("  %s %s", mark, r.name)
			if r.detail != "" {
				fmt.Printf(" %s", styles.Muted.Render(r.detail))
			}
			if r.err != nil {
				fmt.Printf(": %v", r.err)
			}
			fmt.Println()
		}
		if failed > 0 {
			return fmt.Errorf("%d setup checks failed", failed)
		}
		fmt.Println(styles.Success.Render("\nReady."))
		return nil
	},
}

type checkResult struct {
	name     string
	detail   string
	err      error
	optional bool
}

func setupChecks(c *config.Config) []checkResult {
	var out []checkResult

	out = append(out, checkResult{name: "Gemini API key", err: c.ValidateGemini()})

	mb := checkResult{name: "ManageBac credentials", err: c.ValidateManageBac()}
	if mb.err == nil {
		mb.detail = c.ManageBac.URL + " as " + c.ManageBac.Username
	}
	out = append(out, mb)

	text := filepath.Join(c.TrainingDataPath, "Text training")
	txt, err := filepath.Glob(filepath.Join(text, "*.txt"))
	switch {
	case err != nil:
		out = append(out, checkResult{name: "Text training", err: err})
	case len(txt) == 0:
		out = append(out, checkResult{name: "Text training", err: fmt.Errorf("no .txt files in %s", text)})
	default:
		out = append(out, checkResult{name: "Text training", detail: fmt.Sprintf("%d files", len(txt))})
	}

	photos := filepath.Join(c.TrainingDataPath, "Photos training")
	if imgs, err := vision.ListImages(photos); err != nil {
		out = append(out, checkResult{name: "Photos training", err: err, optional: true})
	} else {
		out = append(out, checkResult{name: "Photos training", detail: fmt.Sprintf("%d photos", len(imgs))})
	}

	if bin, ok := browser.Available(browser.FromConfig(c)); ok {
		out = append(out, checkResult{name: "Chromium", detail: bin})
	} else {
		out = append(out, checkResult{name: "Chromium", err: fmt.Errorf("not found; rod downloads one on first launch"), optional: true})
	}

	scratch := checkResult{name: "Scratch directory", detail: c.ScratchDir}
	if err := os.MkdirAll(c.ScratchDir, 0755); err != nil {
		scratch.err = err
	} else if f, err := os.CreateTemp(c.ScratchDir, ".write-check-*"); err != nil {
		scratch.err = err
	} else {
		f.Close()
		os.Remove(f.Name())
	}
	out = append(out, scratch)

	return out
}

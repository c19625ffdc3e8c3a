package main

import (
	"fmt"
	"os"
	"time"

	"casbot/internal/cas"
	"casbot/internal/prompt"
	"casbot/internal/vision"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

var reflectAuto bool

var ideaCmd = &cobra.Command{
	Use:   "idea",
	Short: "Generate a new CAS activity idea",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		model, err := newModel(ctx)
		if err != nil {
			return err
		}
		ai, err := newPipeline(model, false, nil).GenerateIdea(ctx)
		if err != nil {
			return err
		}

		header("New activity idea")
		fmt.Printf("%s\n\n", ai.Description)
		fmt.Printf("%s %s\n", styles.Label.Render("Date:"), ai.Date)
		fmt.Printf("%s %s\n", styles.Label.Render("Strand:"), ai.Strand)
		fmt.Printf("%s %g hours\n", styles.Label.Render("Duration:"), float64(ai.Duration))
		fmt.Printf("%s %v\n", styles.Label.Render("Learning outcomes:"), ai.LearningOutcomes)
		fmt.Println(styles.Muted.Render("Saved to " + cfg.ScratchPath(cas.IdeaFile)))
		return nil
	},
}

var reflectCmd = &cobra.Command{
	Use:   "reflect",
	Short: "Write a reflection in your style",
	Long: `Writes a reflection from the training examples. With --auto the activity
comes from the saved idea (and photo analysis, if any); otherwise you are
asked for the details.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		model, err := newModel(ctx)
		if err != nil {
			return err
		}
		p := newPipeline(model, false, nil)

		var result cas.ReflectionResult
		if reflectAuto {
			result, err = p.ReflectFromIdea(ctx)
		} else {
			req, derr := p.CollectDetails(ctx, prompt.New(), time.Now())
			if derr != nil {
				return derr
			}
			result, err = p.Reflect(ctx, req)
		}
		if err != nil {
			return err
		}

		showReflection(result)
		fmt.Println(styles.Muted.Render("Saved to " + cfg.ScratchPath(cas.ReflectionFile) + " and " + cas.ReflectionTextFile))
		return nil
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <image or folder>...",
	Short: "Describe activity photos for the next reflection",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		paths, err := expandImages(args)
		if err != nil {
			return err
		}
		model, err := newModel(ctx)
		if err != nil {
			return err
		}
		analysis, err := newPipeline(model, false, nil).AnalyzeImages(ctx, paths)
		if err != nil {
			return err
		}
		if !analysis.Success {
			return fmt.Errorf("image analysis failed: %s", analysis.Error)
		}

		header(fmt.Sprintf("Analysis of %d images", analysis.NumImages))
		fmt.Println(renderMarkdown(analysis.Analysis))
		return nil
	},
}

func init() {
	reflectCmd.Flags().BoolVar(&reflectAuto, "auto", false, "Use the saved idea instead of asking")
}

// expandImages replaces folder arguments with the images inside them.
func expandImages(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		found, err := vision.ListImages(arg)
		if err != nil {
			return nil, err
		}
		paths = append(paths, found...)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no images found in %v", args)
	}
	return paths, nil
}

func showReflection(r cas.ReflectionResult) {
	header("Generated reflection")
	fmt.Println(renderMarkdown(r.Reflection))
}

// renderMarkdown renders for the terminal, falling back to the raw text.
func renderMarkdown(text string) string {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(88))
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return out
}

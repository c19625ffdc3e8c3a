package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"casbot/internal/cas"
	"casbot/internal/formdriver"
	"casbot/internal/idea"
	"casbot/internal/prompt"
	"casbot/internal/reflection"
	"casbot/internal/vision"

	"go.uber.org/zap"
)

// UI is what the interactive workflow asks through.
type UI interface {
	Form(ctx context.Context, title string, fields []prompt.Field) (map[string]string, error)
	Choose(ctx context.Context, title string, options []string) (int, error)
	Confirm(ctx context.Context, question string) (bool, error)
}

// Review menu entries.
const (
	choiceSubmit = iota
	choiceRegenerate
	choiceSaveExit
)

var reviewOptions = []string{
	"Submit to ManageBac",
	"Regenerate",
	"Save and exit (submit later)",
}

// WorkflowResult summarizes an interactive run.
type WorkflowResult struct {
	Reflection cas.ReflectionResult
	Analysis   *cas.ImageAnalysis
	Submitted  bool
	Report     formdriver.Report
}

// Workflow walks the operator through details, photos, generation, review
// and a typed "yes" before anything is submitted. show renders the draft.
func (p *Pipeline) Workflow(ctx context.Context, ui UI, show func(cas.ReflectionResult), now time.Time) (WorkflowResult, error) {
	var out WorkflowResult

	req, err := p.CollectDetails(ctx, ui, now)
	if err != nil {
		return out, err
	}

	analysis, err := p.collectPhotos(ctx, ui)
	if err != nil {
		return out, err
	}
	if analysis != nil {
		out.Analysis = analysis
		if analysis.Success {
			req.ImageAnalysis = analysis.Analysis
		} else {
			p.logger.Warn("image analysis failed, continuing without it", zap.String("error", analysis.Error))
		}
	}

	for {
		result, err := p.Reflect(ctx, req)
		if err != nil {
			return out, err
		}
		out.Reflection = result
		if show != nil {
			show(result)
		}

		choice, err := ui.Choose(ctx, "What next?", reviewOptions)
		if err != nil {
			return out, err
		}
		switch choice {
		case choiceRegenerate:
			continue
		case choiceSaveExit:
			p.logger.Info("reflection saved", zap.String("file", p.cfg.ScratchPath(cas.ReflectionFile)))
			return out, nil
		}

		ok, err := ui.Confirm(ctx, "Ready to submit to ManageBac?")
		if err != nil {
			return out, err
		}
		if !ok {
			p.logger.Info("submission cancelled, reflection saved", zap.String("file", p.cfg.ScratchPath(cas.ReflectionFile)))
			return out, nil
		}

		report, err := p.SubmitReflection(ctx, result)
		out.Report = report
		if err != nil {
			return out, err
		}
		out.Submitted = report.Submitted
		return out, nil
	}
}

// CollectDetails asks for the activity the reflection is about.
func (p *Pipeline) CollectDetails(ctx context.Context, ui UI, now time.Time) (reflection.Request, error) {
	values, err := ui.Form(ctx, "Activity details\n\n"+cas.OutcomeMenu(), []prompt.Field{
		{Key: "description", Label: "Describe your activity", Validate: required},
		{Key: "date", Label: "Date", Default: now.Format(idea.DateLayout)},
		{Key: "strand", Label: "CAS strand (Creativity/Activity/Service)", Default: string(cas.StrandService), Validate: validStrand},
		{Key: "duration", Label: "Duration in hours", Default: "2", Validate: validHours},
		{Key: "outcomes", Label: "Learning outcome numbers, comma separated", Placeholder: "1,5"},
	})
	if err != nil {
		return reflection.Request{}, err
	}

	strand, _ := cas.ParseStrand(values["strand"])
	hours, _ := strconv.ParseFloat(values["duration"], 64)
	outcomes := cas.ParseOutcomes(values["outcomes"])
	for _, code := range outcomes {
		if _, ok := cas.OutcomeLabel(code); !ok {
			p.logger.Warn("unknown learning outcome will be skipped on submit", zap.String("code", code))
		}
	}

	return reflection.Request{
		ActivityDescription: values["description"],
		Date:                values["date"],
		Strand:              strand,
		DurationHours:       cas.Hours(hours),
		LearningOutcomes:    outcomes,
	}, nil
}

// collectPhotos returns nil when the operator has no photos or none were found.
func (p *Pipeline) collectPhotos(ctx context.Context, ui UI) (*cas.ImageAnalysis, error) {
	options := []string{"No photos"}
	training := filepath.Join(p.cfg.TrainingDataPath, "Photos training")
	hasTraining := isDir(training)
	if hasTraining {
		options = append(options, "Use photos from "+training)
	}
	options = append(options, "Photos from another folder")

	choice, err := ui.Choose(ctx, "Do you have photos to analyze?", options)
	if err != nil {
		return nil, err
	}

	var dir string
	switch {
	case choice == 0:
		return nil, nil
	case hasTraining && choice == 1:
		dir = training
	default:
		values, err := ui.Form(ctx, "", []prompt.Field{{Key: "dir", Label: "Folder with photos", Validate: validDir}})
		if err != nil {
			return nil, err
		}
		dir = values["dir"]
	}

	paths, err := vision.ListImages(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		p.logger.Warn("no images found", zap.String("dir", dir))
		return nil, nil
	}
	p.logger.Info("found images", zap.Int("count", len(paths)))

	analysis, err := p.AnalyzeImages(ctx, paths)
	if err != nil {
		return nil, err
	}
	return &analysis, nil
}

func required(s string) error {
	if s == "" {
		return errors.New("required")
	}
	return nil
}

func validStrand(s string) error {
	_, err := cas.ParseStrand(s)
	return err
}

func validHours(s string) error {
	h, err := strconv.ParseFloat(s, 64)
	if err != nil || h <= 0 {
		return fmt.Errorf("enter a positive number of hours")
	}
	return nil
}

func validDir(s string) error {
	if !isDir(s) {
		return fmt.Errorf("%s is not a folder", s)
	}
	return nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

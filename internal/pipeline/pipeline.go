// Package pipeline connects the stages: idea, reflection, optional photo
// analysis, and submission. Stages hand off through files in the scratch
// directory so each can also be run on its own.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"casbot/internal/cas"
	"casbot/internal/config"
	"casbot/internal/formdriver"
	"casbot/internal/gemini"
	"casbot/internal/idea"
	"casbot/internal/logging"
	"casbot/internal/reflection"
	"casbot/internal/scheduler"
	"casbot/internal/vision"

	"go.uber.org/zap"
)

// Stage names, as recorded in the run ledger.
const (
	StageIdea       = "idea"
	StageReflection = "reflection"
	StageSubmit     = "submit"
)

// ErrReflectionFailed marks a reflection that cannot be submitted.
var ErrReflectionFailed = errors.New("reflection generation failed")

// Deps are the collaborators a Pipeline needs. Model may be nil when only
// submitting; Prompter is nil when unattended.
type Deps struct {
	Config   *config.Config
	Model    gemini.Generator
	Open     formdriver.Opener
	Prompter formdriver.Prompter
	Logger   *zap.Logger
}

// Pipeline runs the stages against one scratch directory.
type Pipeline struct {
	cfg      *config.Config
	model    gemini.Generator
	open     formdriver.Opener
	prompter formdriver.Prompter
	base     *zap.Logger
	logger   *zap.Logger
}

// New creates a Pipeline.
func New(d Deps) *Pipeline {
	return &Pipeline{
		cfg:      d.Config,
		model:    d.Model,
		open:     d.Open,
		prompter: d.Prompter,
		base:     d.Logger,
		logger:   logging.For(d.Logger, logging.CategoryBoot),
	}
}

func (p *Pipeline) dir() string {
	return p.cfg.ScratchDir
}

func (p *Pipeline) requireModel() error {
	if p.model == nil {
		return config.ErrMissingAPIKey
	}
	return nil
}

// GenerateIdea creates a new activity idea and saves it.
func (p *Pipeline) GenerateIdea(ctx context.Context) (cas.ActivityIdea, error) {
	if err := p.requireModel(); err != nil {
		return cas.ActivityIdea{}, err
	}
	gen := idea.NewGenerator(p.model, p.cfg.TrainingDataPath, logging.For(p.base, logging.CategoryIdea))
	ai, err := gen.Generate(ctx)
	if err != nil {
		return cas.ActivityIdea{}, err
	}
	if err := cas.SaveIdea(p.dir(), ai); err != nil {
		return cas.ActivityIdea{}, err
	}
	return ai, nil
}

// AnalyzeImages describes the photos and saves the analysis. Failures are
// reported inside the result.
func (p *Pipeline) AnalyzeImages(ctx context.Context, paths []string) (cas.ImageAnalysis, error) {
	if err := p.requireModel(); err != nil {
		return cas.ImageAnalysis{}, err
	}
	analysis := vision.NewAnalyzer(p.model, logging.For(p.base, logging.CategoryVision)).Analyze(ctx, paths)
	if err := cas.SaveImageAnalysis(p.dir(), analysis); err != nil {
		return analysis, err
	}
	return analysis, nil
}

// Reflect generates and saves a reflection for req. An unsuccessful result is
// saved too, and wraps ErrReflectionFailed.
func (p *Pipeline) Reflect(ctx context.Context, req reflection.Request) (cas.ReflectionResult, error) {
	if err := p.requireModel(); err != nil {
		return cas.ReflectionResult{}, err
	}
	gen := reflection.NewGenerator(p.model, p.cfg.TrainingDataPath, logging.For(p.base, logging.CategoryReflection))
	result := gen.Generate(ctx, req)
	if err := cas.SaveReflection(p.dir(), result); err != nil {
		return result, err
	}
	if !result.Success {
		return result, fmt.Errorf("%w: %s", ErrReflectionFailed, result.Error)
	}
	return result, nil
}

// ReflectFromIdea builds the request from the saved idea and, when present
// and successful, the saved photo analysis.
func (p *Pipeline) ReflectFromIdea(ctx context.Context) (cas.ReflectionResult, error) {
	ai, err := cas.LoadIdea(p.dir())
	if err != nil {
		return cas.ReflectionResult{}, fmt.Errorf("load idea: %w", err)
	}
	req := reflection.RequestFromIdea(ai)

	analysis, err := cas.LoadImageAnalysis(p.dir())
	switch {
	case err == nil && analysis.Success:
		req.ImageAnalysis = analysis.Analysis
	case err != nil && !errors.Is(err, cas.ErrNotFound):
		p.logger.Warn("ignoring unreadable image analysis", zap.Error(err))
	}
	return p.Reflect(ctx, req)
}

// LoadSubmittable reads the saved reflection. Edits to the plain-text copy
// take precedence over the JSON body.
func (p *Pipeline) LoadSubmittable() (cas.ReflectionResult, error) {
	result, err := cas.LoadReflection(p.dir())
	if err != nil {
		return result, fmt.Errorf("load reflection: %w", err)
	}
	if !result.Success {
		return result, fmt.Errorf("%w: %s", ErrReflectionFailed, result.Error)
	}
	if edited, err := os.ReadFile(filepath.Join(p.dir(), cas.ReflectionTextFile)); err == nil {
		text := strings.TrimSpace(string(edited))
		if text != "" && text != strings.TrimSpace(result.Reflection) {
			p.logger.Info("using edited reflection text", zap.String("file", cas.ReflectionTextFile))
			result.Reflection = text
		}
	}
	if strings.TrimSpace(result.Reflection) == "" {
		return result, fmt.Errorf("%w: empty reflection", ErrReflectionFailed)
	}
	return result, nil
}

// DriverOptions maps the config onto form driver options.
func (p *Pipeline) DriverOptions() formdriver.Options {
	return formdriver.Options{
		BaseURL:        p.cfg.ManageBac.URL,
		Username:       p.cfg.ManageBac.Username,
		Password:       p.cfg.ManageBac.Password,
		ReflectionsURL: p.cfg.ManageBac.ReflectionsURL,
		ScreenshotPath: p.cfg.ScratchPath(cas.ScreenshotFile),
		SettleDelay:    p.cfg.GetSettleDelay(),
		ClickDelay:     p.cfg.GetSettleDelay() / 4,
		WaitTimeout:    p.cfg.GetNavigationTimeout() / 3,
		Prompter:       p.prompter,
	}
}

// SubmitReflection drives the browser for result.
func (p *Pipeline) SubmitReflection(ctx context.Context, result cas.ReflectionResult) (formdriver.Report, error) {
	if err := p.cfg.ValidateManageBac(); err != nil {
		return formdriver.Report{}, err
	}
	if p.open == nil {
		return formdriver.Report{}, errors.New("no browser configured")
	}
	runner := &formdriver.Runner{
		Open:       p.open,
		Options:    p.DriverOptions(),
		CloseGrace: p.cfg.GetCloseGrace(),
		Logger:     logging.For(p.base, logging.CategoryDriver),
	}
	report, err := runner.Run(ctx, result)
	if err != nil {
		return report, err
	}
	p.logger.Info("submission finished",
		zap.String("state", string(report.State)),
		zap.Bool("submitted", report.Submitted),
		zap.Strings("outcomes", report.OutcomesSelected),
		zap.Strings("skipped", report.OutcomesSkipped),
		zap.Int("errors", len(report.Errors)),
	)
	return report, nil
}

// Submit loads the saved reflection and submits it.
func (p *Pipeline) Submit(ctx context.Context) (formdriver.Report, error) {
	result, err := p.LoadSubmittable()
	if err != nil {
		return formdriver.Report{}, err
	}
	return p.SubmitReflection(ctx, result)
}

// Stages returns the unattended sequence run when the schedule is due.
func (p *Pipeline) Stages() []scheduler.Stage {
	return []scheduler.Stage{
		scheduler.NewStage(StageIdea, func(ctx context.Context) error {
			_, err := p.GenerateIdea(ctx)
			return err
		}),
		scheduler.NewStage(StageReflection, func(ctx context.Context) error {
			_, err := p.ReflectFromIdea(ctx)
			return err
		}),
		scheduler.NewStage(StageSubmit, func(ctx context.Context) error {
			_, err := p.Submit(ctx)
			return err
		}),
	}
}

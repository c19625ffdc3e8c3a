// Package idea invents the next plausible session of the CAS project.
package idea

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"casbot/internal/cas"
	"casbot/internal/gemini"

	"go.uber.org/zap"
)

// DefaultContext is used when the training folder has no project description.
const DefaultContext = "Volunteering at Resala Charity, organizing clothes and helping the community."

// DateLayout is the human date format used in ideas and reflections.
const DateLayout = "January 2, 2006"

// Generator produces ActivityIdeas.
type Generator struct {
	model        gemini.Generator
	trainingPath string
	logger       *zap.Logger
	now          func() time.Time
}

// NewGenerator creates an idea generator reading context from trainingPath.
func NewGenerator(model gemini.Generator, trainingPath string, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{model: model, trainingPath: trainingPath, logger: logger, now: time.Now}
}

// LoadContext reads the project description, falling back to DefaultContext.
func LoadContext(trainingPath string) string {
	data, err := os.ReadFile(filepath.Join(trainingPath, "Text training", "Description and goals.txt"))
	if err != nil || strings.TrimSpace(string(data)) == "" {
		return DefaultContext
	}
	return string(data)
}

// Generate asks the model for one idea and normalizes it.
func (g *Generator) Generate(ctx context.Context) (cas.ActivityIdea, error) {
	g.logger.Info("generating new activity idea")

	today := g.now().Format(DateLayout)
	prompt := buildPrompt(LoadContext(g.trainingPath), today)

	reply, err := g.model.Generate(ctx, prompt)
	if err != nil {
		return cas.ActivityIdea{}, fmt.Errorf("generate idea: %w", err)
	}

	var idea cas.ActivityIdea
	if err := gemini.DecodeJSON(reply, &idea); err != nil {
		return cas.ActivityIdea{}, fmt.Errorf("generate idea: %w", err)
	}

	idea, err = Normalize(idea, today)
	if err != nil {
		return cas.ActivityIdea{}, err
	}
	g.logger.Info("idea generated", zap.String("description", idea.Description))
	return idea, nil
}

// Normalize fills defaults the model is allowed to omit: today's date, the
// Service strand, and a duration inside the 2..4 hour window.
func Normalize(idea cas.ActivityIdea, today string) (cas.ActivityIdea, error) {
	idea.Description = strings.TrimSpace(idea.Description)
	if idea.Description == "" {
		return idea, fmt.Errorf("generate idea: model returned no description")
	}
	if strings.TrimSpace(idea.Date) == "" {
		idea.Date = today
	}

	strand, err := cas.ParseStrand(string(idea.Strand))
	if err != nil {
		strand = cas.StrandService
	}
	idea.Strand = strand

	switch {
	case idea.Duration <= 0:
		idea.Duration = 3
	case idea.Duration < 2:
		idea.Duration = 2
	case idea.Duration > 4:
		idea.Duration = 4
	}

	idea.LearningOutcomes = cas.NormalizeOutcomes(idea.LearningOutcomes)
	return idea, nil
}

func buildPrompt(projectContext, today string) string {
	return fmt.Sprintf(`
CONTEXT:
Student is doing a CAS project:
%s

TASK:
Invent a REALISTIC, SPECIFIC activity for the "next session" of this project.
It should be something they plausibly did today (%s).

Examples of activities:
- Sorting winter clothes for distribution
- Packing Ramadan food boxes
- Organizing the warehouse shelves
- Labeling donation bags
- Coordinating with new volunteers

REQUIREMENTS:
1. "description": 1 sentence describing what was done today. Be specific (e.g., "Sorted 50 bags", "Fixed the labeling system").
2. "duration": Number of hours (between 2 and 4).
3. "cas_strand": Always "Service".
4. "learning_outcomes": Select 2-3 relevant outcome numbers (1-7).

OUTPUT JSON ONLY:
{
    "description": "...",
    "date": "%s",
    "duration": 3,
    "cas_strand": "Service",
    "learning_outcomes": ["1", "4"]
}
`, projectContext, today, today)
}

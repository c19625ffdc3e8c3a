// Package reflection writes a first-person CAS reflection in the student's
// own style from an activity and optional photo analysis.
package reflection

import (
	"context"
	"fmt"
	"strings"

	"casbot/internal/cas"
	"casbot/internal/gemini"

	"go.uber.org/zap"
)

// Request is the activity to reflect on.
type Request struct {
	ActivityDescription string
	ImageAnalysis       string
	LearningOutcomes    []string
	Date                string
	Strand              cas.Strand
	DurationHours       cas.Hours
}

// RequestFromIdea converts a generated idea into a reflection request.
func RequestFromIdea(idea cas.ActivityIdea) Request {
	return Request{
		ActivityDescription: idea.Description,
		LearningOutcomes:    idea.LearningOutcomes,
		Date:                idea.Date,
		Strand:              idea.Strand,
		DurationHours:       idea.Duration,
	}
}

// Generator produces reflections.
type Generator struct {
	model        gemini.Generator
	trainingPath string
	logger       *zap.Logger
}

// NewGenerator creates a reflection generator.
func NewGenerator(model gemini.Generator, trainingPath string, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{model: model, trainingPath: trainingPath, logger: logger}
}

// Generate never returns a Go error for model failures: the result carries
// Success=false and the error text, matching the handoff file format.
func (g *Generator) Generate(ctx context.Context, req Request) cas.ReflectionResult {
	g.logger.Info("generating CAS reflection")

	td := LoadTrainingData(g.trainingPath)
	g.logger.Info("loaded example reflections", zap.Int("count", len(td.Reflections)))

	if req.Strand == "" {
		req.Strand = cas.StrandService
	}

	text, err := g.model.Generate(ctx, BuildPrompt(td, req))
	if err != nil {
		g.logger.Error("reflection generation failed", zap.Error(err))
		return cas.ReflectionResult{Success: false, Error: err.Error()}
	}

	return cas.ReflectionResult{
		Success:             true,
		Reflection:          strings.TrimSpace(text),
		ActivityDescription: req.ActivityDescription,
		LearningOutcomes:    req.LearningOutcomes,
		Date:                req.Date,
		Strand:              req.Strand,
		DurationHours:       req.DurationHours,
	}
}

// BuildPrompt assembles the training examples and the activity details.
func BuildPrompt(td TrainingData, req Request) string {
	var b strings.Builder

	b.WriteString("\nTRAINING DATA - Learn from these examples:\n\nPROJECT DESCRIPTION:\n")
	b.WriteString(td.Description)
	b.WriteString("\n\nLEARNING OUTCOMES:\n")
	b.WriteString(td.LearningOutcomes)
	b.WriteString("\n\nEXAMPLE REFLECTIONS (learn the writing style):\n")
	for i, r := range td.Reflections {
		fmt.Fprintf(&b, "\n--- Example %d ---\n%s\n", i+1, r)
	}

	date := req.Date
	if date == "" {
		date = "Recent"
	}
	duration := "N/A"
	if req.DurationHours > 0 {
		duration = fmt.Sprintf("%g", float64(req.DurationHours))
	}
	outcomes := "To be determined"
	if len(req.LearningOutcomes) > 0 {
		outcomes = strings.Join(req.LearningOutcomes, ", ")
	}

	fmt.Fprintf(&b, `

---

Now, write a NEW CAS reflection based on this activity:

ACTIVITY DETAILS:
- Description: %s
- Date: %s
- CAS Strand: %s
- Duration: %s hours
- Learning Outcomes: %s

`, req.ActivityDescription, date, req.Strand, duration, outcomes)

	if req.ImageAnalysis != "" {
		fmt.Fprintf(&b, "\nIMAGE ANALYSIS:\n%s\n\n", req.ImageAnalysis)
	}

	b.WriteString(`
INSTRUCTIONS:
1. Write in the SAME STYLE as the example reflections above
2. Match the tone, vocabulary level, and structure
3. Be authentic and personal - this should sound like the student who wrote the examples
4. Include specific details from the activity description and image analysis
5. Reference the learning outcomes naturally (e.g., "This showed me LO1..." or "I demonstrated LO5 by...")
6. Keep it concise but meaningful (similar length to the examples)
7. Use a mix of English and Arabic terms where appropriate (like the examples)
8. Focus on personal growth, challenges, and impact

FORMAT:
Reflection [number]: [Title] (LO[X] & LO[Y])
Date: [date]
CAS Strand: [strand]

[Reflection text - 2-3 paragraphs]

Write the reflection now:`)

	return b.String()
}

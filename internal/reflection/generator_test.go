package reflection

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"casbot/internal/cas"
	"casbot/internal/gemini"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTraining(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	dir := filepath.Join(root, "Text training")
	require.NoError(t, os.MkdirAll(dir, 0755))

	files := map[string]string{
		"Description and goals.txt": "Helping Resala sort donations.",
		"learning outcomes.txt":     "LO1 ... LO7",
		"Reflection 1.txt":          "First example.",
		"reflection 2.txt":          "Second example, lowercase file.",
		"Reflection 4.txt":          "Fourth example after a gap.",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0644))
	}
	return root
}

func TestLoadTrainingData(t *testing.T) {
	td := LoadTrainingData(writeTraining(t))

	assert.Equal(t, "Helping Resala sort donations.", td.Description)
	assert.Equal(t, "LO1 ... LO7", td.LearningOutcomes)
	assert.Equal(t, []string{"First example.", "Second example, lowercase file.", "Fourth example after a gap."}, td.Reflections)
}

func TestLoadTrainingData_MissingFolder(t *testing.T) {
	td := LoadTrainingData(filepath.Join(t.TempDir(), "nope"))
	assert.Empty(t, td.Description)
	assert.Empty(t, td.Reflections)
}

func TestGenerate_Success(t *testing.T) {
	fake := &gemini.Fake{Responses: []string{"  Reflection 5: Sorting (LO1 & LO5)\n\nWe sorted bags.  "}}
	g := NewGenerator(fake, writeTraining(t), nil)

	res := g.Generate(context.Background(), Request{
		ActivityDescription: "Helped organize donated clothes",
		ImageAnalysis:       "Ten volunteers around folding tables.",
		LearningOutcomes:    []string{"1", "5"},
		Date:                "December 1, 2025",
		DurationHours:       2,
	})

	require.True(t, res.Success)
	assert.Equal(t, "Reflection 5: Sorting (LO1 & LO5)\n\nWe sorted bags.", res.Reflection)
	assert.Equal(t, cas.StrandService, res.Strand)
	assert.Equal(t, cas.OutcomeCodes{"1", "5"}, res.LearningOutcomes)

	prompt := fake.Prompts[0]
	assert.Contains(t, prompt, "--- Example 3 ---\nFourth example after a gap.")
	assert.Contains(t, prompt, "- Learning Outcomes: 1, 5")
	assert.Contains(t, prompt, "- Duration: 2 hours")
	assert.Contains(t, prompt, "IMAGE ANALYSIS:\nTen volunteers around folding tables.")
}

func TestGenerate_FailureIsStructured(t *testing.T) {
	fake := &gemini.Fake{Err: errors.New("503 overloaded")}
	res := NewGenerator(fake, t.TempDir(), nil).Generate(context.Background(), Request{ActivityDescription: "x"})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "503 overloaded")
	assert.Empty(t, res.Reflection)
}

func TestBuildPrompt_Defaults(t *testing.T) {
	p := BuildPrompt(TrainingData{}, Request{ActivityDescription: "x", Strand: cas.StrandActivity})
	assert.Contains(t, p, "- Date: Recent")
	assert.Contains(t, p, "- Duration: N/A hours")
	assert.Contains(t, p, "- Learning Outcomes: To be determined")
	assert.Contains(t, p, "- CAS Strand: Activity")
	assert.NotContains(t, p, "IMAGE ANALYSIS")
}

func TestRequestFromIdea(t *testing.T) {
	req := RequestFromIdea(cas.ActivityIdea{
		Description: "d", Date: "today", Duration: 3, Strand: cas.StrandService, LearningOutcomes: []string{"4"},
	})
	assert.Equal(t, Request{
		ActivityDescription: "d", Date: "today", DurationHours: 3, Strand: cas.StrandService, LearningOutcomes: []string{"4"},
	}, req)
}

package reflection

import (
	"fmt"
	"os"
	"path/filepath"
)

// maxExamples bounds how many numbered example reflections are read.
const maxExamples = 9

// TrainingData is the student's own writing used as style examples.
type TrainingData struct {
	Description      string
	Reflections      []string
	LearningOutcomes string
}

// LoadTrainingData reads "<root>/Text training". Missing files are skipped;
// numbered reflections accept either "Reflection N.txt" or "reflection N.txt".
func LoadTrainingData(root string) TrainingData {
	textDir := filepath.Join(root, "Text training")

	var td TrainingData
	td.Description = readOptional(filepath.Join(textDir, "Description and goals.txt"))
	td.LearningOutcomes = readOptional(filepath.Join(textDir, "learning outcomes.txt"))

	for i := 1; i <= maxExamples; i++ {
		for _, name := range []string{fmt.Sprintf("Reflection %d.txt", i), fmt.Sprintf("reflection %d.txt", i)} {
			if body := readOptional(filepath.Join(textDir, name)); body != "" {
				td.Reflections = append(td.Reflections, body)
				break
			}
		}
	}
	return td
}

func readOptional(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return string(data)
}

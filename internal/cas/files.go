package cas

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Scratch file names shared by the stages.
const (
	IdeaFile           = "generated_idea.json"
	ReflectionFile     = "generated_reflection.json"
	ReflectionTextFile = "generated_reflection.txt"
	ImageAnalysisFile  = "image_analysis.json"
	ScreenshotFile     = "submission_screenshot.png"
)

// ErrNotFound reports a missing handoff file: the producing stage has not run.
var ErrNotFound = errors.New("handoff file not found")

// WriteJSON writes v as indented JSON, creating parent directories.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ReadJSON decodes path into v. A missing file wraps ErrNotFound.
func ReadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// SaveIdea writes the idea handoff file.
func SaveIdea(dir string, idea ActivityIdea) error {
	return WriteJSON(filepath.Join(dir, IdeaFile), idea)
}

// LoadIdea reads the idea handoff file.
func LoadIdea(dir string) (ActivityIdea, error) {
	var idea ActivityIdea
	err := ReadJSON(filepath.Join(dir, IdeaFile), &idea)
	return idea, err
}

// SaveReflection writes both representations: the structured JSON record and
// a plain-text copy of the reflection body.
func SaveReflection(dir string, r ReflectionResult) error {
	if err := WriteJSON(filepath.Join(dir, ReflectionFile), r); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, ReflectionTextFile), []byte(r.Reflection), 0644); err != nil {
		return fmt.Errorf("write %s: %w", ReflectionTextFile, err)
	}
	return nil
}

// LoadReflection reads the structured reflection record.
func LoadReflection(dir string) (ReflectionResult, error) {
	var r ReflectionResult
	err := ReadJSON(filepath.Join(dir, ReflectionFile), &r)
	return r, err
}

// SaveImageAnalysis writes the image analysis handoff file.
func SaveImageAnalysis(dir string, a ImageAnalysis) error {
	return WriteJSON(filepath.Join(dir, ImageAnalysisFile), a)
}

// LoadImageAnalysis reads the image analysis handoff file.
func LoadImageAnalysis(dir string) (ImageAnalysis, error) {
	var a ImageAnalysis
	err := ReadJSON(filepath.Join(dir, ImageAnalysisFile), &a)
	return a, err
}

// Package vision describes activity photos so the reflection can mention
// concrete details. Failure here never blocks the pipeline.
package vision

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"casbot/internal/cas"
	"casbot/internal/gemini"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxParallelReads bounds concurrent image file reads.
const maxParallelReads = 4

var mimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
}

// MIMEType returns the image MIME type for path's extension.
func MIMEType(path string) (string, bool) {
	mt, ok := mimeTypes[strings.ToLower(filepath.Ext(path))]
	return mt, ok
}

// ListImages returns the image files directly inside dir, sorted by name.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := MIMEType(e.Name()); ok {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

const analysisPrompt = `Analyze these CAS (Creativity, Activity, Service) activity photos.

Please provide:
1. **Activity Type**: What activity is shown? (e.g., charity work, sports, art project)
2. **Setting**: Where is this taking place? (indoor/outdoor, specific location if visible)
3. **People**: How many people are involved? What are they doing?
4. **Actions**: What specific tasks or activities are being performed?
5. **Materials/Objects**: What items, equipment, or materials are visible?
6. **Atmosphere**: What's the mood/energy? (collaborative, focused, energetic, etc.)
7. **Key Details**: Any specific details that would be important for a reflection (safety concerns, organization, teamwork, challenges visible, etc.)

Be specific and observational. Focus on concrete details that would help write an authentic reflection.`

// Analyzer runs photo analysis.
type Analyzer struct {
	model  gemini.Generator
	logger *zap.Logger
}

// NewAnalyzer creates an analyzer.
func NewAnalyzer(model gemini.Generator, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{model: model, logger: logger}
}

// Analyze loads the images and asks the model to describe them. Unreadable or
// unsupported files are skipped with a warning. Errors come back inside the
// result, never as a Go error.
func (a *Analyzer) Analyze(ctx context.Context, paths []string) cas.ImageAnalysis {
	a.logger.Info("analyzing images", zap.Int("count", len(paths)))

	images := a.load(ctx, paths)
	if len(images) == 0 {
		return cas.ImageAnalysis{Success: false, Error: "No images could be loaded"}
	}

	text, err := a.model.GenerateWithImages(ctx, analysisPrompt, images)
	if err != nil {
		a.logger.Error("image analysis failed", zap.Error(err))
		return cas.ImageAnalysis{Success: false, Error: err.Error()}
	}

	loaded := make([]string, len(images))
	for i, img := range images {
		loaded[i] = img.Path
	}
	return cas.ImageAnalysis{
		Success:    true,
		Analysis:   text,
		NumImages:  len(images),
		ImagePaths: loaded,
	}
}

// load reads files concurrently, keeping input order.
func (a *Analyzer) load(ctx context.Context, paths []string) []gemini.Image {
	slots := make([]*gemini.Image, len(paths))

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelReads)
	for i, path := range paths {
		g.Go(func() error {
			mt, ok := MIMEType(path)
			if !ok {
				a.logger.Warn("skipping unsupported file", zap.String("path", path))
				return nil
			}
			data, err := os.ReadFile(path)
			if err != nil {
				a.logger.Warn("error loading image", zap.String("path", path), zap.Error(err))
				return nil
			}
			slots[i] = &gemini.Image{Path: path, MIMEType: mt, Data: data}
			a.logger.Info("loaded image", zap.String("name", filepath.Base(path)))
			return nil
		})
	}
	_ = g.Wait()

	images := make([]gemini.Image, 0, len(paths))
	for _, img := range slots {
		if img != nil {
			images = append(images, *img)
		}
	}
	return images
}

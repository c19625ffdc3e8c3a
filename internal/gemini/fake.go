package gemini

import (
	"context"
	"sync"
)

// Fake is a scripted Generator for tests and dry runs.
type Fake struct {
	mu        sync.Mutex
	Responses []string
	Err       error
	Prompts   []string
	Images    [][]Image
}

// Generate returns the next scripted response.
func (f *Fake) Generate(ctx context.Context, prompt string) (string, error) {
	return f.GenerateWithImages(ctx, prompt, nil)
}

// GenerateWithImages records the call and returns the next scripted response.
func (f *Fake) GenerateWithImages(_ context.Context, prompt string, images []Image) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Prompts = append(f.Prompts, prompt)
	f.Images = append(f.Images, images)
	if f.Err != nil {
		return "", f.Err
	}
	if len(f.Responses) == 0 {
		return "", ErrEmptyResponse
	}
	resp := f.Responses[0]
	f.Responses = f.Responses[1:]
	return resp, nil
}

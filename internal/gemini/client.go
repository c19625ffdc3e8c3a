// Package gemini wraps the Google GenAI SDK for the text and vision calls the
// casbot stages make.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"casbot/internal/config"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Image is an inline image part.
type Image struct {
	Path     string
	MIMEType string
	Data     []byte
}

// Generator is the capability the stages depend on.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	GenerateWithImages(ctx context.Context, prompt string, images []Image) (string, error)
}

// ErrEmptyResponse is returned when the model produced no text.
var ErrEmptyResponse = errors.New("gemini returned an empty response")

// Client is the genai-backed Generator.
type Client struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewClient creates a Gemini client. A missing API key is a configuration error.
func NewClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Client, error) {
	if err := cfg.ValidateGemini(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.Gemini.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	model := cfg.Gemini.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	return &Client{
		client:  client,
		model:   model,
		timeout: cfg.GetGeminiTimeout(),
		logger:  logger,
	}, nil
}

// Name returns the model identifier.
func (c *Client) Name() string {
	return fmt.Sprintf("genai:%s", c.model)
}

// Generate sends a single text prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.generate(ctx, []*genai.Part{genai.NewPartFromText(prompt)})
}

// GenerateWithImages sends the prompt followed by inline images.
func (c *Client) GenerateWithImages(ctx context.Context, prompt string, images []Image) (string, error) {
	parts := make([]*genai.Part, 0, len(images)+1)
	parts = append(parts, genai.NewPartFromText(prompt))
	for _, img := range images {
		parts = append(parts, genai.NewPartFromBytes(img.Data, img.MIMEType))
	}
	return c.generate(ctx, parts)
}

func (c *Client) generate(ctx context.Context, parts []*genai.Part) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	c.logger.Debug("gemini response",
		zap.String("model", c.model),
		zap.Int("parts", len(parts)),
		zap.Int("chars", len(text)),
		zap.Duration("latency", time.Since(start)))

	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

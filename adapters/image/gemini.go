package image

import (
	"context"
	"encoding/base64"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/meomirror/server/domain/repositories"
)

const defaultImageModel = "imagen-3.0-generate-002"

// GeminiImageGenerator implements ImageGenerator using Google's Imagen models
// through the Gemini API. The artifact reference is a data URL, so the
// display renders it without any extra storage hop.
type GeminiImageGenerator struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

var _ repositories.ImageGenerator = (*GeminiImageGenerator)(nil)

// NewGeminiImageGenerator creates the adapter. apiKey is required.
func NewGeminiImageGenerator(ctx context.Context, apiKey string, logger *zap.Logger) (*GeminiImageGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiImageGenerator{
		client: client,
		model:  defaultImageModel,
		logger: logger,
	}, nil
}

// Generate produces one image for the prompt and returns it as a data URL.
func (g *GeminiImageGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if prompt == "" {
		prompt = "a calm painting for an ambient display"
	}

	resp, err := g.client.Models.GenerateImages(ctx, g.model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
	})
	if err != nil {
		return "", &repositories.UpstreamError{Service: "image", Err: err}
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return "", &repositories.UpstreamError{Service: "image", Err: fmt.Errorf("no image returned")}
	}

	img := resp.GeneratedImages[0].Image
	mimeType := img.MIMEType
	if mimeType == "" {
		mimeType = "image/png"
	}

	g.logger.Info("Generated image",
		zap.String("model", g.model),
		zap.Int("bytes", len(img.ImageBytes)))

	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(img.ImageBytes)), nil
}

package repositories

import "context"

// ImageGenerator abstracts the remote image-generation/lookup service
type ImageGenerator interface {
	// Generate produces a displayable artifact and returns its reference (URL)
	Generate(ctx context.Context, prompt string) (string, error)
}

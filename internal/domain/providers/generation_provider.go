package providers

import "context"

// GenerationProvider completes a single-turn prompt
type GenerationProvider interface {
	Generate(ctx context.Context, prompt string) (string, error)
	// Name identifies the provider and model for logs and events
	Name() string
	Model() string
}

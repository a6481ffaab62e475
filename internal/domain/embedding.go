package domain

import "context"

// EmbeddingProvider converts note text into a fixed length vector. Any error
// means the provider is unavailable; callers store no vector and carry on.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Name() string
}

package embedding

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAI embeds through any OpenAI compatible endpoint (OpenAI, vLLM,
// LM Studio, llama.cpp server).
type OpenAI struct {
	embedder embeddings.Embedder
}

// NewOpenAI creates the client. Local servers usually accept any token.
func NewOpenAI(baseURL, model, apiKey string) (*OpenAI, error) {
	if apiKey == "" {
		apiKey = "none"
	}
	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithEmbeddingModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("openai: create client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("openai: create embedder: %w", err)
	}
	return &OpenAI{embedder: embedder}, nil
}

func (o *OpenAI) Name() string {
	return "openai"
}

func (o *OpenAI) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := o.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("openai: empty embedding")
	}
	return vectors[0], nil
}

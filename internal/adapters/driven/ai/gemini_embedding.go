package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/botmesh/botmesh-core/internal/core/domain"
	"github.com/botmesh/botmesh-core/internal/core/ports/driven"
)

// Ensure GeminiEmbedding implements EmbeddingService
var _ driven.EmbeddingService = (*GeminiEmbedding)(nil)

const (
	// DefaultGeminiEmbeddingModel is the embedding model used when none is configured.
	DefaultGeminiEmbeddingModel = "text-embedding-004"

	// geminiEmbeddingDimensions is the vector size produced by text-embedding-004.
	// It must match the vector(N) column width in the embeddings table.
	geminiEmbeddingDimensions = 768

	taskTypeDocument = "RETRIEVAL_DOCUMENT"
	taskTypeQuery    = "RETRIEVAL_QUERY"
)

// GeminiEmbedding implements EmbeddingService using the Gemini embedding API.
// Documents and queries are embedded with different task types so the model
// optimizes each side of the retrieval pair.
type GeminiEmbedding struct {
	client *genai.Client
	model  string
}

// NewGeminiEmbedding creates a Gemini embedding service.
func NewGeminiEmbedding(ctx context.Context, apiKey, model string) (*GeminiEmbedding, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if model == "" {
		model = DefaultGeminiEmbeddingModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	return &GeminiEmbedding{client: client, model: model}, nil
}

// EmbedDocuments generates embeddings for document chunks.
func (g *GeminiEmbedding) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return g.embed(ctx, texts, taskTypeDocument)
}

// EmbedQuery generates an embedding for a search query.
func (g *GeminiEmbedding) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	embeddings, err := g.embed(ctx, []string{query}, taskTypeQuery)
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("%w: no embedding returned for query", domain.ErrEmbeddingService)
	}
	return embeddings[0], nil
}

func (g *GeminiEmbedding) embed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	resp, err := g.client.Models.EmbedContent(ctx, g.model, contents, &genai.EmbedContentConfig{
		TaskType: taskType,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingService, err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts",
			domain.ErrEmbeddingService, len(resp.Embeddings), len(texts))
	}

	embeddings := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		embeddings[i] = emb.Values
	}
	return embeddings, nil
}

// Dimensions returns the embedding dimension size.
func (g *GeminiEmbedding) Dimensions() int {
	return geminiEmbeddingDimensions
}

// Model returns the model name being used.
func (g *GeminiEmbedding) Model() string {
	return g.model
}

// HealthCheck verifies the embedding service is available.
func (g *GeminiEmbedding) HealthCheck(ctx context.Context) error {
	_, err := g.EmbedQuery(ctx, "health check")
	return err
}

// Close releases resources held by the embedding service.
func (g *GeminiEmbedding) Close() error {
	return nil
}

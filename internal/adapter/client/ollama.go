package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"policychat/internal/domain/entity"
)

// OllamaClient talks to a local Ollama instance, the deployment the
// reference corpus ran on (llama3 + nomic-embed-text).
type OllamaClient struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewOllamaClient(baseURL, model string) *OllamaClient {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3"
	}
	return &OllamaClient{
		baseURL: baseURL,
		model:   model,
		client: &http.Client{
			Timeout: 300 * time.Second,
		},
	}
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody := ollamaGenerateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
	}
	var genResp ollamaGenerateResponse
	if err := c.post(ctx, "/api/generate", reqBody, &genResp); err != nil {
		return "", fmt.Errorf("%w: %v", entity.ErrGenerationFailure, err)
	}
	return genResp.Response, nil
}

// OllamaEmbedder implements the embedding contract against Ollama.
type OllamaEmbedder struct {
	baseURL string
	model   string
	dim     int
	client  *http.Client
}

func NewOllamaEmbedder(baseURL, model string, dim int) *OllamaEmbedder {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if model == "" {
		model = "nomic-embed-text"
	}
	return &OllamaEmbedder{
		baseURL: baseURL,
		model:   model,
		dim:     dim,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}

func (e *OllamaEmbedder) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	reqBody := ollamaEmbedRequest{
		Model:  e.model,
		Prompt: text,
	}
	var embedResp ollamaEmbedResponse
	if err := post(ctx, e.client, e.baseURL+"/api/embeddings", reqBody, &embedResp); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrEmbeddingUnavailable, err)
	}
	if e.dim > 0 && len(embedResp.Embedding) != e.dim {
		return nil, fmt.Errorf("%w: model %s returned %d values, want %d",
			entity.ErrDimensionMismatch, e.model, len(embedResp.Embedding), e.dim)
	}
	return embedResp.Embedding, nil
}

func (c *OllamaClient) post(ctx context.Context, path string, in, out any) error {
	return post(ctx, c.client, c.baseURL+path, in, out)
}

func post(ctx context.Context, client *http.Client, url string, in, out any) error {
	jsonData, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("calling Ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Ollama returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ppiankov/sourcecheck/internal/util"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// OpenAICompatClient lists models through an OpenAI-compatible /v1 endpoint.
// Ollama, vLLM and llama.cpp servers all expose one.
type OpenAICompatClient struct {
	client  *openai.Client
	limiter *rate.Limiter
	config  Config
}

// NewOpenAICompatClient creates a new OpenAI-compatible client
func NewOpenAICompatClient(config Config) (*OpenAICompatClient, error) {
	baseURL, err := normalizeBaseURL(config.BaseURL)
	if err != nil {
		return nil, err
	}

	// Local servers ignore the key but the client always sends one
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = "ollama"
	}

	clientConfig := openai.DefaultConfig(apiKey)
	clientConfig.BaseURL = baseURL + "/v1"
	clientConfig.HTTPClient = &http.Client{
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
		},
	}

	return &OpenAICompatClient{
		client:  openai.NewClientWithConfig(clientConfig),
		limiter: newLimiter(config.RequestsPerSecond),
		config:  config,
	}, nil
}

// Name returns the API flavour name
func (c *OpenAICompatClient) Name() string {
	return "openai"
}

// ListModels lists models via GET /v1/models
func (c *OpenAICompatClient) ListModels(ctx context.Context) ([]Model, error) {
	ctx, cancel := withTimeout(ctx, c.config.TagsTimeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	list, err := c.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}

	models := make([]Model, 0, len(list.Models))
	for _, m := range list.Models {
		model := Model{Name: m.ID, Model: m.ID}
		if m.CreatedAt > 0 {
			model.ModifiedAt = time.Unix(m.CreatedAt, 0).UTC().Format(time.RFC3339)
		}
		models = append(models, model)
	}

	return models, nil
}

package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ppiankov/sourcecheck/internal/util"
	"golang.org/x/time/rate"
)

// OllamaClient talks to the native Ollama REST API
type OllamaClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	config     Config
}

// Ollama API structures
type ollamaTagsResponse struct {
	Models []Model `json:"models"`
}

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaResponse struct {
	Model     string `json:"model"`
	CreatedAt string `json:"created_at"`
	Response  string `json:"response"`
	Done      bool   `json:"done"`

	// Token counts (only present when done=true)
	TotalDuration   int64 `json:"total_duration,omitempty"`
	PromptEvalCount int   `json:"prompt_eval_count,omitempty"`
	EvalCount       int   `json:"eval_count,omitempty"`
}

type ollamaError struct {
	Error string `json:"error"`
}

// NewOllamaClient creates a new Ollama client
func NewOllamaClient(config Config) (*OllamaClient, error) {
	baseURL, err := normalizeBaseURL(config.BaseURL)
	if err != nil {
		return nil, err
	}

	return &OllamaClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
			},
		},
		limiter: newLimiter(config.RequestsPerSecond),
		config:  config,
	}, nil
}

// Name returns the API flavour name
func (c *OllamaClient) Name() string {
	return "ollama"
}

// BaseURL returns the normalized server URL
func (c *OllamaClient) BaseURL() string {
	return c.baseURL
}

// ListModels lists local models via GET /api/tags
func (c *OllamaClient) ListModels(ctx context.Context) ([]Model, error) {
	ctx, cancel := withTimeout(ctx, c.config.TagsTimeout)
	defer cancel()

	body, err := c.do(ctx, http.MethodGet, "/api/tags", nil)
	if err != nil {
		return nil, err
	}

	var tags ollamaTagsResponse
	if err := json.Unmarshal(body, &tags); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	return tags.Models, nil
}

// IsAvailable reports whether the server answers /api/tags
func (c *OllamaClient) IsAvailable(ctx context.Context) bool {
	_, err := c.ListModels(ctx)
	return err == nil
}

// Generate runs a single non-streaming generation via POST /api/generate
func (c *OllamaClient) Generate(ctx context.Context, req GenerateRequest) (*GenerateResponse, error) {
	model := req.Model
	if model == "" {
		model = c.config.Model
	}
	if model == "" {
		return nil, fmt.Errorf("ollama: %w (e.g., llama3.1:8b, gpt-oss:20b)", ErrNoModel)
	}

	payload, err := json.Marshal(ollamaRequest{
		Model:  model,
		Prompt: req.Prompt,
		Stream: false,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	// Model loading can take most of this budget
	ctx, cancel := withTimeout(ctx, c.config.GenerateTimeout)
	defer cancel()

	body, err := c.do(ctx, http.MethodPost, "/api/generate", payload)
	if err != nil {
		return nil, err
	}

	var resp ollamaResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	return &GenerateResponse{
		Model:      resp.Model,
		Response:   resp.Response,
		Done:       resp.Done,
		TokensUsed: resp.PromptEvalCount + resp.EvalCount,
		Duration:   time.Duration(resp.TotalDuration),
	}, nil
}

// do performs one request and returns the body of a 200 response
func (c *OllamaClient) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		var apiErr ollamaError
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Error != "" {
			return nil, &APIError{StatusCode: httpResp.StatusCode, Message: apiErr.Error}
		}
		return nil, &APIError{StatusCode: httpResp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	return respBody, nil
}

// normalizeBaseURL validates a server URL and strips trailing slashes
func normalizeBaseURL(raw string) (string, error) {
	if raw == "" {
		raw = DefaultConfig().BaseURL
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("base URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("base URL %q: missing host", raw)
	}

	return strings.TrimRight(raw, "/"), nil
}

package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"
)

// ModelLister lists the models served by an inference server
type ModelLister interface {
	// Name returns the API flavour name
	Name() string

	// ListModels returns the models the server currently offers
	ListModels(ctx context.Context) ([]Model, error)
}

// Model describes one model served by the inference server
type Model struct {
	Name       string `json:"name"`
	Model      string `json:"model,omitempty"`
	ModifiedAt string `json:"modified_at,omitempty"`
	Size       int64  `json:"size,omitempty"`
	Digest     string `json:"digest,omitempty"`
}

// GenerateRequest is a single non-streaming generation call
type GenerateRequest struct {
	Model  string
	Prompt string
}

// GenerateResponse contains the generated text
type GenerateResponse struct {
	Model      string
	Response   string
	Done       bool
	TokensUsed int
	Duration   time.Duration // Server-reported total duration
}

// Config holds inference server client configuration
type Config struct {
	// API flavour: "ollama" (native /api) or "openai" (compatible /v1)
	API string

	// BaseURL of the server, e.g. http://localhost:11434
	BaseURL string

	// Model used by Generate when the request names none
	Model string

	// APIKey for OpenAI-compatible endpoints (Ollama ignores it)
	APIKey string

	// Per-call timeouts; zero disables the deadline
	TagsTimeout     time.Duration
	GenerateTimeout time.Duration

	// RequestsPerSecond throttles outgoing calls; zero means unlimited
	RequestsPerSecond float64

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		API:             "ollama",
		BaseURL:         "http://localhost:11434",
		TagsTimeout:     5 * time.Second,
		GenerateTimeout: 60 * time.Second,
	}
}

// ErrNoModel is returned when a generation names no model
var ErrNoModel = errors.New("model must be specified")

// ErrDecode marks responses whose body could not be decoded
var ErrDecode = errors.New("decode response")

// APIError is returned for non-200 responses
type APIError struct {
	StatusCode int
	Message    string // Server error message, or the raw body
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// ErrorKind classifies probe failures for reporting
type ErrorKind string

const (
	KindConnection ErrorKind = "connection"
	KindTimeout    ErrorKind = "timeout"
	KindStatus     ErrorKind = "status"
	KindDecode     ErrorKind = "decode"
	KindOther      ErrorKind = "other"
)

// Classify maps an error returned by a client call to an ErrorKind
func Classify(err error) ErrorKind {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	var oaAPIErr *openai.APIError
	var oaReqErr *openai.RequestError
	if errors.As(err, &apiErr) || errors.As(err, &oaAPIErr) || errors.As(err, &oaReqErr) {
		return KindStatus
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) || errors.As(err, &dnsErr) || errors.Is(err, syscall.ECONNREFUSED) {
		return KindConnection
	}

	if errors.Is(err, ErrDecode) {
		return KindDecode
	}

	return KindOther
}

// StatusOf extracts the HTTP status and message from a non-200 error
func StatusOf(err error) (int, string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode, apiErr.Message, true
	}
	var oaAPIErr *openai.APIError
	if errors.As(err, &oaAPIErr) {
		return oaAPIErr.HTTPStatusCode, oaAPIErr.Message, true
	}
	var oaReqErr *openai.RequestError
	if errors.As(err, &oaReqErr) {
		return oaReqErr.HTTPStatusCode, oaReqErr.Error(), true
	}
	return 0, "", false
}

// newLimiter returns a limiter allowing rps calls per second, or unlimited
func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// withTimeout derives a deadline-bound context when d is positive
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

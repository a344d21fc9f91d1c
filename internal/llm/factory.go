package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/sourcecheck/internal/model"
)

// NewModelLister creates a model lister for the configured API flavour
func NewModelLister(config Config) (ModelLister, error) {
	switch strings.ToLower(config.API) {
	case "", "ollama":
		return NewOllamaClient(config)

	case "openai":
		return NewOpenAICompatClient(config)

	default:
		return nil, fmt.Errorf("unknown API: %s (supported: ollama, openai)", config.API)
	}
}

// ConfigFromModel converts model.OllamaConfig to llm.Config
func ConfigFromModel(modelConfig model.OllamaConfig) Config {
	return Config{
		API:               modelConfig.API,
		BaseURL:           modelConfig.BaseURL,
		Model:             modelConfig.Model,
		TagsTimeout:       modelConfig.TagsTimeout,
		GenerateTimeout:   modelConfig.GenerateTimeout,
		RequestsPerSecond: modelConfig.RequestsPerSecond,
		HTTPProxy:         modelConfig.HTTPProxy,
		HTTPSProxy:        modelConfig.HTTPSProxy,
		NoProxy:           modelConfig.NoProxy,
	}
}

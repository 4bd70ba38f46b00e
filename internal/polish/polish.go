package polish

import (
	"context"
	"fmt"
)

// Adapter cleans up a raw transcript before delivery.
type Adapter interface {
	Process(ctx context.Context, text string) (string, error)
}

// Config holds polish adapter configuration
type Config struct {
	Provider string
	APIKey   string
	Model    string
}

// NewAdapter creates a polish adapter based on the provider
func NewAdapter(cfg Config) (Adapter, error) {
	switch cfg.Provider {
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		return NewOpenAIAdapter(cfg), nil
	case "groq":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("Groq API key required")
		}
		return NewGroqAdapter(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported polish provider: %s", cfg.Provider)
	}
}

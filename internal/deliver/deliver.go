package deliver

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Deliverer ships a final transcript to its destination.
type Deliverer interface {
	Deliver(ctx context.Context, text string) error
}

// Config for transcript delivery
type Config struct {
	Backends       []string // tried in order until one succeeds
	NotesEndpoint  string   // Cortex notes API URL for the cortex backend
	Token          string   // bearer token for the cortex backend
	RequestTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Backends:       []string{"cortex", "clipboard"},
		RequestTimeout: 10 * time.Second,
	}
}

type backend interface {
	name() string
	deliver(ctx context.Context, text string) error
}

type deliverer struct {
	backends []backend
}

// New builds a deliverer from the configured backend names. Unknown names
// are rejected up front rather than at delivery time.
func New(cfg Config) (Deliverer, error) {
	if len(cfg.Backends) == 0 {
		return nil, fmt.Errorf("no delivery backends configured")
	}

	var backends []backend
	for _, name := range cfg.Backends {
		switch name {
		case "cortex":
			backends = append(backends, newCortexBackend(cfg))
		case "clipboard":
			backends = append(backends, clipboardBackend{})
		case "log":
			backends = append(backends, logBackend{})
		default:
			return nil, fmt.Errorf("unknown delivery backend: %q", name)
		}
	}
	return &deliverer{backends: backends}, nil
}

// Deliver tries each backend in order and stops at the first success.
func (d *deliverer) Deliver(ctx context.Context, text string) error {
	if text == "" {
		return fmt.Errorf("cannot deliver empty transcript")
	}

	var lastErr error
	for _, b := range d.backends {
		if err := b.deliver(ctx, text); err != nil {
			log.Printf("deliver: %s backend failed: %v", b.name(), err)
			lastErr = err
			continue
		}
		log.Printf("deliver: transcript delivered via %s (%d chars)", b.name(), len(text))
		return nil
	}
	return fmt.Errorf("all delivery backends failed: %w", lastErr)
}

type logBackend struct{}

func (logBackend) name() string { return "log" }

func (logBackend) deliver(ctx context.Context, text string) error {
	log.Printf("deliver: transcript: %s", text)
	return nil
}

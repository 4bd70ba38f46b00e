package deliver

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// cortexBackend posts the transcript to the Cortex notes API, where it shows
// up as a new voice note.
type cortexBackend struct {
	endpoint string
	token    string
	client   *http.Client
}

type noteRequest struct {
	Content string `json:"content"`
	Source  string `json:"source"`
}

func newCortexBackend(cfg Config) *cortexBackend {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &cortexBackend{
		endpoint: cfg.NotesEndpoint,
		token:    cfg.Token,
		client:   &http.Client{Timeout: timeout},
	}
}

func (b *cortexBackend) name() string { return "cortex" }

func (b *cortexBackend) deliver(ctx context.Context, text string) error {
	body, err := json.Marshal(noteRequest{Content: text, Source: "voice"})
	if err != nil {
		return fmt.Errorf("encode note request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build note request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("post note: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("notes API returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	return nil
}

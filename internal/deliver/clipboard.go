package deliver

import (
	"context"
	"fmt"

	"github.com/atotto/clipboard"
)

// clipboardBackend copies the transcript to the system clipboard so it can be
// pasted straight into an editor.
type clipboardBackend struct{}

func (clipboardBackend) name() string { return "clipboard" }

func (clipboardBackend) deliver(ctx context.Context, text string) error {
	if clipboard.Unsupported {
		return fmt.Errorf("no clipboard utility available")
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}

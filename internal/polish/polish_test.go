package polish

import (
	"strings"
	"testing"
)

func TestNewAdapter(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"openai with key", Config{Provider: "openai", APIKey: "k"}, false},
		{"groq with key", Config{Provider: "groq", APIKey: "k"}, false},
		{"openai without key", Config{Provider: "openai"}, true},
		{"groq without key", Config{Provider: "groq"}, true},
		{"unknown provider", Config{Provider: "local", APIKey: "k"}, true},
		{"empty provider", Config{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter, err := NewAdapter(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewAdapter() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && adapter == nil {
				t.Error("NewAdapter() returned nil adapter without error")
			}
		})
	}
}

func TestBuildSystemPrompt(t *testing.T) {
	prompt := BuildSystemPrompt()
	for _, want := range []string{"punctuation", "filler words", "same language", "only the cleaned text"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
}

func TestBuildUserPrompt(t *testing.T) {
	prompt := BuildUserPrompt("hello world")
	if !strings.Contains(prompt, "hello world") {
		t.Errorf("user prompt does not include the transcript: %q", prompt)
	}
}

package tui

import (
	"strings"
	"testing"

	"github.com/cortexhq/cortexvoice/internal/config"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name    string
		resp    string
		want    StatusInfo
		wantErr bool
	}{
		{
			name: "idle",
			resp: "STATUS status=idle duration=0\n",
			want: StatusInfo{Status: "idle"},
		},
		{
			name: "listening with duration",
			resp: "STATUS status=listening duration=75\n",
			want: StatusInfo{Status: "listening", Duration: 75},
		},
		{
			name: "error with quoted message",
			resp: `STATUS status=error duration=3 error="microphone permission denied: pw-cli"` + "\n",
			want: StatusInfo{Status: "error", Duration: 3, Error: "microphone permission denied: pw-cli"},
		},
		{
			name:    "not a status reply",
			resp:    "ERR no session\n",
			wantErr: true,
		},
		{
			name:    "missing status key",
			resp:    "STATUS duration=1\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStatus(tt.resp)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseStatus(%q) = %+v, want error", tt.resp, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseStatus(%q) = %v", tt.resp, err)
			}
			if got != tt.want {
				t.Errorf("ParseStatus(%q) = %+v, want %+v", tt.resp, got, tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "0:00"},
		{9, "0:09"},
		{75, "1:15"},
		{600, "10:00"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.seconds); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestRenderStatusIncludesError(t *testing.T) {
	out := RenderStatus(StatusInfo{Status: "error", Error: "transcription service connection timed out"})
	if !strings.Contains(out, "timed out") {
		t.Errorf("RenderStatus() = %q, want error message included", out)
	}
}

func TestDefaultModelFor(t *testing.T) {
	if got := defaultModelFor("groq"); got != "llama-3.3-70b-versatile" {
		t.Errorf("defaultModelFor(groq) = %q", got)
	}
	if got := defaultModelFor("openai"); got != "gpt-4o-mini" {
		t.Errorf("defaultModelFor(openai) = %q", got)
	}
}

func TestValidateEndpoint(t *testing.T) {
	if err := validateEndpoint("wss://api.cortex.test/v1/transcribe"); err != nil {
		t.Errorf("validateEndpoint() = %v, want nil", err)
	}
	if err := validateEndpoint("https://api.cortex.test"); err == nil {
		t.Error("validateEndpoint() accepted a non-websocket URL")
	}
	if err := validateEndpoint(""); err == nil {
		t.Error("validateEndpoint() accepted empty input")
	}
}

func TestApplyToRoundtrip(t *testing.T) {
	cfg := config.DefaultConfig()
	v := valuesFromConfig(cfg)
	v.token = "tok"
	v.polishEnabled = true
	v.provider = "groq"
	v.model = "llama-3.3-70b-versatile"
	v.apiKey = "gsk-test"
	v.backends = []string{"clipboard"}

	if err := v.applyTo(cfg); err != nil {
		t.Fatalf("applyTo() = %v", err)
	}
	if cfg.Polish.Provider != "groq" || cfg.Providers["groq"].APIKey != "gsk-test" {
		t.Errorf("polish settings not applied: %+v", cfg.Polish)
	}
	if len(cfg.Delivery.Backends) != 1 || cfg.Delivery.Backends[0] != "clipboard" {
		t.Errorf("backends = %v", cfg.Delivery.Backends)
	}
}

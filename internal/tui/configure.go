package tui

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/cortexhq/cortexvoice/internal/config"
)

// ConfigureResult holds the outcome of the configuration form.
type ConfigureResult struct {
	Config    *config.Config
	Cancelled bool
}

// formValues is the string-typed view of the config the form binds to.
type formValues struct {
	endpoint      string
	token         string
	device        string
	sampleRate    string
	polishEnabled bool
	provider      string
	model         string
	apiKey        string
	backends      []string
	notesEndpoint string
	notifyType    string
}

func valuesFromConfig(cfg *config.Config) *formValues {
	v := &formValues{
		endpoint:      cfg.Stream.Endpoint,
		token:         cfg.Stream.Token,
		device:        cfg.Capture.Device,
		sampleRate:    strconv.Itoa(cfg.Capture.SampleRate),
		polishEnabled: cfg.Polish.Enabled,
		provider:      cfg.Polish.Provider,
		model:         cfg.Polish.Model,
		backends:      cfg.Delivery.Backends,
		notesEndpoint: cfg.Delivery.NotesEndpoint,
		notifyType:    cfg.Notifications.Type,
	}
	if v.provider == "" {
		v.provider = "openai"
	}
	if p, ok := cfg.Providers[v.provider]; ok {
		v.apiKey = p.APIKey
	}
	return v
}

func (v *formValues) applyTo(cfg *config.Config) error {
	rate, err := strconv.Atoi(v.sampleRate)
	if err != nil {
		return fmt.Errorf("invalid sample rate: %q", v.sampleRate)
	}

	cfg.Stream.Endpoint = strings.TrimSpace(v.endpoint)
	cfg.Stream.Token = strings.TrimSpace(v.token)
	cfg.Capture.Device = strings.TrimSpace(v.device)
	cfg.Capture.SampleRate = rate
	cfg.Polish.Enabled = v.polishEnabled
	cfg.Delivery.Backends = v.backends
	cfg.Delivery.NotesEndpoint = strings.TrimSpace(v.notesEndpoint)
	cfg.Notifications.Type = v.notifyType
	cfg.Notifications.Enabled = v.notifyType != "none"

	if v.polishEnabled {
		cfg.Polish.Provider = v.provider
		cfg.Polish.Model = strings.TrimSpace(v.model)
		if cfg.Providers == nil {
			cfg.Providers = make(map[string]config.ProviderConfig)
		}
		if key := strings.TrimSpace(v.apiKey); key != "" {
			cfg.Providers[v.provider] = config.ProviderConfig{APIKey: key}
		}
	}
	return nil
}

func validateEndpoint(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("endpoint is required")
	}
	if !strings.HasPrefix(s, "ws://") && !strings.HasPrefix(s, "wss://") {
		return fmt.Errorf("must be a ws:// or wss:// URL")
	}
	return nil
}

// notesEndpointValidator reads v.backends at validation time, after the
// multiselect has been answered.
func (v *formValues) notesEndpointValidator() func(string) error {
	return func(s string) error {
		for _, b := range v.backends {
			if b == "cortex" && strings.TrimSpace(s) == "" {
				return fmt.Errorf("required when the cortex backend is enabled")
			}
		}
		return nil
	}
}

func defaultModelFor(provider string) string {
	switch provider {
	case "groq":
		return "llama-3.3-70b-versatile"
	default:
		return "gpt-4o-mini"
	}
}

func buildForm(v *formValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Transcription endpoint").
				Description("WebSocket URL of the Cortex transcription service").
				Value(&v.endpoint).
				Validate(validateEndpoint),
			huh.NewInput().
				Title("Access token").
				Description("Leave empty to use the CORTEX_TOKEN environment variable").
				EchoMode(huh.EchoModePassword).
				Value(&v.token),
		).Title("Connection"),

		huh.NewGroup(
			huh.NewInput().
				Title("Capture device").
				Description("PipeWire target, empty for the default microphone").
				Value(&v.device),
			huh.NewSelect[string]().
				Title("Sample rate").
				Options(
					huh.NewOption("16 kHz (recommended for speech)", "16000"),
					huh.NewOption("44.1 kHz", "44100"),
					huh.NewOption("48 kHz", "48000"),
				).
				Value(&v.sampleRate),
		).Title("Audio"),

		huh.NewGroup(
			huh.NewConfirm().
				Title("Polish transcripts with an LLM before delivery?").
				Value(&v.polishEnabled),
		).Title("Polish"),

		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Provider").
				Options(
					huh.NewOption("OpenAI", "openai"),
					huh.NewOption("Groq", "groq"),
				).
				Value(&v.provider),
			huh.NewInput().
				Title("Model").
				Description("Leave empty for the provider default").
				Value(&v.model),
			huh.NewInput().
				Title("API key").
				Description("Leave empty to use the provider's environment variable").
				EchoMode(huh.EchoModePassword).
				Value(&v.apiKey),
		).WithHideFunc(func() bool { return !v.polishEnabled }),

		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Delivery backends").
				Description("Tried in order until one succeeds").
				Options(
					huh.NewOption("Cortex notes", "cortex"),
					huh.NewOption("Clipboard", "clipboard"),
					huh.NewOption("Daemon log", "log"),
				).
				Value(&v.backends).
				Validate(func(selected []string) error {
					if len(selected) == 0 {
						return fmt.Errorf("pick at least one backend")
					}
					return nil
				}),
			huh.NewInput().
				Title("Notes endpoint").
				Description("Cortex notes API URL").
				Value(&v.notesEndpoint).
				Validate(v.notesEndpointValidator()),
		).Title("Delivery"),

		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Notifications").
				Options(
					huh.NewOption("Desktop (notify-send)", "desktop"),
					huh.NewOption("Daemon log", "log"),
					huh.NewOption("Off", "none"),
				).
				Value(&v.notifyType),
		).Title("Notifications"),
	)
}

// Run walks the user through the configuration form, starting from the given
// config (usually the saved one, or DefaultConfig on first run). The returned
// config is validated but not saved.
func Run(cfg *config.Config) (*ConfigureResult, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	fmt.Println(Logo())
	fmt.Println(render(StyleSubtle, "voice capture for Cortex"))
	fmt.Println()

	v := valuesFromConfig(cfg)
	if err := buildForm(v).Run(); err != nil {
		if err == huh.ErrUserAborted {
			return &ConfigureResult{Cancelled: true}, nil
		}
		return nil, err
	}

	if v.polishEnabled && strings.TrimSpace(v.model) == "" {
		v.model = defaultModelFor(v.provider)
	}
	if err := v.applyTo(cfg); err != nil {
		return nil, err
	}
	if cfg.Stream.ConnectTimeout <= 0 {
		cfg.Stream.ConnectTimeout = 5 * time.Second
	}

	return &ConfigureResult{Config: cfg}, nil
}

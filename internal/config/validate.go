package config

import (
	"fmt"
	"strings"
)

func (c *Config) Validate() error {
	if c.Capture.SampleRate <= 0 {
		return fmt.Errorf("invalid capture.sample_rate: %d", c.Capture.SampleRate)
	}
	if c.Capture.Channels <= 0 {
		return fmt.Errorf("invalid capture.channels: %d", c.Capture.Channels)
	}
	if c.Capture.Format != "s16le" {
		return fmt.Errorf("invalid capture.format: %q (only s16le is supported)", c.Capture.Format)
	}
	if c.Capture.SliceInterval <= 0 {
		return fmt.Errorf("invalid capture.slice_interval: %v", c.Capture.SliceInterval)
	}
	if c.Capture.ChannelBufferSize <= 0 {
		return fmt.Errorf("invalid capture.channel_buffer_size: %d", c.Capture.ChannelBufferSize)
	}

	if c.Stream.Endpoint == "" {
		return fmt.Errorf("invalid stream.endpoint: empty")
	}
	if !strings.HasPrefix(c.Stream.Endpoint, "ws://") && !strings.HasPrefix(c.Stream.Endpoint, "wss://") {
		return fmt.Errorf("invalid stream.endpoint: %q (must be a ws:// or wss:// URL)", c.Stream.Endpoint)
	}
	if c.Stream.ConnectTimeout <= 0 {
		return fmt.Errorf("invalid stream.connect_timeout: %v", c.Stream.ConnectTimeout)
	}
	if c.ResolveToken() == "" {
		return fmt.Errorf("Cortex access token required: not found in config (stream.token) or environment variable (CORTEX_TOKEN)")
	}

	if c.Polish.Enabled {
		validProviders := map[string]bool{"openai": true, "groq": true}
		if !validProviders[c.Polish.Provider] {
			return fmt.Errorf("invalid polish.provider: %q (must be openai or groq)", c.Polish.Provider)
		}
		if c.Polish.Model == "" {
			return fmt.Errorf("polish.model required when polish.enabled = true")
		}
		if c.resolveAPIKeyForProvider(c.Polish.Provider) == "" {
			switch c.Polish.Provider {
			case "openai":
				return fmt.Errorf("OpenAI API key required for polish: not found in config (providers.openai.api_key) or environment variable (OPENAI_API_KEY)")
			case "groq":
				return fmt.Errorf("Groq API key required for polish: not found in config (providers.groq.api_key) or environment variable (GROQ_API_KEY)")
			}
		}
	}

	if len(c.Delivery.Backends) == 0 {
		return fmt.Errorf("invalid delivery.backends: empty (must have at least one backend)")
	}
	validBackends := map[string]bool{"cortex": true, "clipboard": true, "log": true}
	for _, backend := range c.Delivery.Backends {
		if !validBackends[backend] {
			return fmt.Errorf("invalid delivery.backends: unknown backend %q (must be cortex, clipboard, or log)", backend)
		}
	}
	hasCortex := false
	for _, backend := range c.Delivery.Backends {
		if backend == "cortex" {
			hasCortex = true
		}
	}
	if hasCortex && c.Delivery.NotesEndpoint == "" {
		return fmt.Errorf("delivery.notes_endpoint required when the cortex backend is enabled")
	}
	if c.Delivery.RequestTimeout <= 0 {
		return fmt.Errorf("invalid delivery.request_timeout: %v", c.Delivery.RequestTimeout)
	}

	validTypes := map[string]bool{"desktop": true, "log": true, "none": true}
	if !validTypes[c.Notifications.Type] {
		return fmt.Errorf("invalid notifications.type: %s (must be desktop, log, or none)", c.Notifications.Type)
	}

	return nil
}

package config

import (
	"os"
	"time"

	"github.com/cortexhq/cortexvoice/internal/capture"
	"github.com/cortexhq/cortexvoice/internal/deliver"
	"github.com/cortexhq/cortexvoice/internal/polish"
	"github.com/cortexhq/cortexvoice/internal/session"
	"github.com/cortexhq/cortexvoice/internal/stream"
)

type Config struct {
	Capture       CaptureConfig             `toml:"capture"`
	Stream        StreamConfig              `toml:"stream"`
	Polish        PolishConfig              `toml:"polish"`
	Delivery      DeliveryConfig            `toml:"delivery"`
	Notifications NotificationsConfig       `toml:"notifications"`
	Providers     map[string]ProviderConfig `toml:"providers"`
}

type CaptureConfig struct {
	SampleRate        int           `toml:"sample_rate"`
	Channels          int           `toml:"channels"`
	Format            string        `toml:"format"`
	Device            string        `toml:"device"`
	SliceInterval     time.Duration `toml:"slice_interval"`
	ChannelBufferSize int           `toml:"channel_buffer_size"`
}

type StreamConfig struct {
	Endpoint       string        `toml:"endpoint"`
	Token          string        `toml:"token"` // falls back to CORTEX_TOKEN
	ConnectTimeout time.Duration `toml:"connect_timeout"`
}

// PolishConfig configures optional LLM cleanup of the final transcript.
type PolishConfig struct {
	Enabled  bool   `toml:"enabled"`
	Provider string `toml:"provider"` // "openai" or "groq"
	Model    string `toml:"model"`
}

type DeliveryConfig struct {
	Backends       []string      `toml:"backends"` // "cortex", "clipboard", "log"
	NotesEndpoint  string        `toml:"notes_endpoint"`
	RequestTimeout time.Duration `toml:"request_timeout"`
}

type NotificationsConfig struct {
	Enabled bool   `toml:"enabled"`
	Type    string `toml:"type"` // "desktop", "log", "none"
}

// ProviderConfig holds the API key for an LLM provider
type ProviderConfig struct {
	APIKey string `toml:"api_key"`
}

// ResolveToken returns the Cortex access token: config first, then the
// CORTEX_TOKEN environment variable.
func (c *Config) ResolveToken() string {
	if c.Stream.Token != "" {
		return c.Stream.Token
	}
	return os.Getenv("CORTEX_TOKEN")
}

func (c *Config) resolveAPIKeyForProvider(provider string) string {
	if p, ok := c.Providers[provider]; ok && p.APIKey != "" {
		return p.APIKey
	}
	switch provider {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "groq":
		return os.Getenv("GROQ_API_KEY")
	}
	return ""
}

func (c *Config) ToCaptureConfig() capture.Config {
	return capture.Config{
		SampleRate:        c.Capture.SampleRate,
		Channels:          c.Capture.Channels,
		Format:            c.Capture.Format,
		Device:            c.Capture.Device,
		SliceInterval:     c.Capture.SliceInterval,
		ChannelBufferSize: c.Capture.ChannelBufferSize,
	}
}

func (c *Config) ToStreamConfig() stream.Config {
	return stream.Config{
		Endpoint:       c.Stream.Endpoint,
		Token:          c.ResolveToken(),
		ConnectTimeout: c.Stream.ConnectTimeout,
	}
}

func (c *Config) ToSessionConfig() session.Config {
	return session.Config{
		Capture:      c.ToCaptureConfig(),
		Stream:       c.ToStreamConfig(),
		TickInterval: time.Second,
	}
}

func (c *Config) ToPolishConfig() polish.Config {
	return polish.Config{
		Provider: c.Polish.Provider,
		APIKey:   c.resolveAPIKeyForProvider(c.Polish.Provider),
		Model:    c.Polish.Model,
	}
}

func (c *Config) ToDeliveryConfig() deliver.Config {
	return deliver.Config{
		Backends:       c.Delivery.Backends,
		NotesEndpoint:  c.Delivery.NotesEndpoint,
		Token:          c.ResolveToken(),
		RequestTimeout: c.Delivery.RequestTimeout,
	}
}

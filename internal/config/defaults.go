package config

import "time"

// DefaultConfig returns the initial configuration written by the configure
// command.
func DefaultConfig() *Config {
	return &Config{
		Capture: CaptureConfig{
			SampleRate:        16000,
			Channels:          1,
			Format:            "s16le",
			Device:            "",
			SliceInterval:     100 * time.Millisecond,
			ChannelBufferSize: 30,
		},
		Stream: StreamConfig{
			Endpoint:       "wss://api.cortex.app/v1/transcribe",
			Token:          "",
			ConnectTimeout: 5 * time.Second,
		},
		Polish: PolishConfig{
			Enabled: false,
		},
		Delivery: DeliveryConfig{
			Backends:       []string{"cortex", "clipboard"},
			NotesEndpoint:  "https://api.cortex.app/v1/notes",
			RequestTimeout: 10 * time.Second,
		},
		Notifications: NotificationsConfig{
			Enabled: true,
			Type:    "desktop",
		},
		Providers: make(map[string]ProviderConfig),
	}
}

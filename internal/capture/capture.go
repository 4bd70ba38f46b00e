package capture

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Frame is one slice of captured PCM audio.
type Frame struct {
	Data      []byte
	Timestamp time.Time
}

// ErrPermissionDenied marks device or audio-daemon access failures so callers
// can distinguish them from ordinary capture faults.
var ErrPermissionDenied = errors.New("microphone access denied")

// Recorder is the capture device handle. It is exclusively owned by one
// transcription session at a time: Acquire requests device access, Start begins
// emitting fixed-interval audio slices, Pause/Resume gate emission without
// releasing the device, and Release stops capture and frees the device.
// Release must be safe to call from any state, any number of times.
type Recorder interface {
	Acquire(ctx context.Context) error
	Start() (<-chan Frame, <-chan error, error)
	Pause()
	Resume()
	Release() error
}

type Config struct {
	SampleRate        int
	Channels          int
	Format            string
	Device            string
	SliceInterval     time.Duration
	ChannelBufferSize int
}

func DefaultConfig() Config {
	return Config{
		SampleRate:        16000,
		Channels:          1,
		Format:            "s16le",
		Device:            "",
		SliceInterval:     100 * time.Millisecond,
		ChannelBufferSize: 30,
	}
}

// sliceBytes returns the number of PCM bytes covering one SliceInterval.
// Only s16le is supported, so a sample is 2 bytes per channel.
func (c Config) sliceBytes() int {
	b := c.SampleRate * c.Channels * 2 * int(c.SliceInterval/time.Millisecond) / 1000
	if b <= 0 {
		b = 2 * c.Channels
	}
	return b
}

func (c Config) validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("invalid SampleRate: %d", c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("invalid Channels: %d", c.Channels)
	}
	if c.Format != "s16le" {
		return fmt.Errorf("invalid Format: %q (only s16le is supported)", c.Format)
	}
	if c.SliceInterval <= 0 {
		return fmt.Errorf("invalid SliceInterval: %v", c.SliceInterval)
	}
	if c.ChannelBufferSize <= 0 {
		return fmt.Errorf("invalid ChannelBufferSize: %d", c.ChannelBufferSize)
	}
	return nil
}

package capture

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.validate(); err != nil {
		t.Errorf("DefaultConfig() is invalid: %v", err)
	}
	if cfg.SliceInterval != 100*time.Millisecond {
		t.Errorf("SliceInterval = %v, want 100ms", cfg.SliceInterval)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero sample rate", func(c *Config) { c.SampleRate = 0 }, "SampleRate"},
		{"zero channels", func(c *Config) { c.Channels = 0 }, "Channels"},
		{"bad format", func(c *Config) { c.Format = "f32le" }, "Format"},
		{"zero slice interval", func(c *Config) { c.SliceInterval = 0 }, "SliceInterval"},
		{"zero channel buffer", func(c *Config) { c.ChannelBufferSize = 0 }, "ChannelBufferSize"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.validate()
			if err == nil {
				t.Fatalf("validate() = nil, want error mentioning %s", tt.want)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("validate() = %v, want mention of %s", err, tt.want)
			}
		})
	}
}

func TestConfigSliceBytes(t *testing.T) {
	cfg := DefaultConfig()
	// 16kHz mono s16le at 100ms slices: 16000 * 1 * 2 / 10
	if got := cfg.sliceBytes(); got != 3200 {
		t.Errorf("sliceBytes() = %d, want 3200", got)
	}

	cfg.SampleRate = 48000
	cfg.Channels = 2
	cfg.SliceInterval = 50 * time.Millisecond
	if got := cfg.sliceBytes(); got != 9600 {
		t.Errorf("sliceBytes() = %d, want 9600", got)
	}
}

func TestPwRecorderBuildArgs(t *testing.T) {
	cfg := DefaultConfig()
	r := NewPwRecorder(cfg)
	args := strings.Join(r.buildPwRecordArgs(), " ")
	if !strings.Contains(args, "--rate 16000") || !strings.Contains(args, "--channels 1") {
		t.Errorf("unexpected args: %s", args)
	}
	if strings.Contains(args, "--target") {
		t.Errorf("args include --target without a device: %s", args)
	}

	cfg.Device = "alsa_input.usb"
	r = NewPwRecorder(cfg)
	args = strings.Join(r.buildPwRecordArgs(), " ")
	if !strings.Contains(args, "--target alsa_input.usb") {
		t.Errorf("args missing --target: %s", args)
	}
}

func TestPwRecorderStartWithoutAcquire(t *testing.T) {
	r := NewPwRecorder(DefaultConfig())
	if _, _, err := r.Start(); err == nil {
		t.Error("Start() before Acquire() should fail")
	}
}

func TestPwRecorderReleaseIdempotent(t *testing.T) {
	r := NewPwRecorder(DefaultConfig())

	// Release before any acquisition must be a clean no-op, twice.
	if err := r.Release(); err != nil {
		t.Errorf("first Release() = %v", err)
	}
	if err := r.Release(); err != nil {
		t.Errorf("second Release() = %v", err)
	}
}

func TestPwRecorderPauseGate(t *testing.T) {
	r := NewPwRecorder(DefaultConfig())
	if r.paused.Load() {
		t.Error("recorder starts paused")
	}
	r.Pause()
	if !r.paused.Load() {
		t.Error("Pause() did not set the gate")
	}
	r.Resume()
	if r.paused.Load() {
		t.Error("Resume() did not clear the gate")
	}
}

func TestClassifyExitPermission(t *testing.T) {
	r := NewPwRecorder(DefaultConfig())
	r.stderrTail = "error: Permission denied opening device"
	err := r.classifyExit()
	if !strings.Contains(strings.ToLower(err.Error()), "permission") {
		t.Errorf("classifyExit() = %v, want permission error", err)
	}
}

package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cortexhq/cortexvoice/internal/capture"
	"github.com/cortexhq/cortexvoice/internal/config"
	"github.com/cortexhq/cortexvoice/internal/stream"
)

// TestConfig returns a valid configuration for testing
func TestConfig() *config.Config {
	return &config.Config{
		Capture: config.CaptureConfig{
			SampleRate:        16000,
			Channels:          1,
			Format:            "s16le",
			Device:            "",
			SliceInterval:     100 * time.Millisecond,
			ChannelBufferSize: 30,
		},
		Stream: config.StreamConfig{
			Endpoint:       "wss://api.cortex.test/v1/transcribe",
			Token:          "test-token",
			ConnectTimeout: 5 * time.Second,
		},
		Polish: config.PolishConfig{
			Enabled:  false,
			Provider: "openai",
			Model:    "gpt-4o-mini",
		},
		Delivery: config.DeliveryConfig{
			Backends:       []string{"log"},
			NotesEndpoint:  "https://api.cortex.test/v1/notes",
			RequestTimeout: 10 * time.Second,
		},
		Notifications: config.NotificationsConfig{
			Enabled: true,
			Type:    "log",
		},
		Providers: map[string]config.ProviderConfig{
			"openai": {APIKey: "test-api-key"},
		},
	}
}

// TestConfigWithInvalidValues returns a config with invalid values for testing validation
func TestConfigWithInvalidValues() *config.Config {
	return &config.Config{
		Capture: config.CaptureConfig{
			SampleRate:        0,  // Invalid
			Channels:          0,  // Invalid
			Format:            "", // Invalid
			SliceInterval:     0,  // Invalid
			ChannelBufferSize: 0,  // Invalid
		},
		Stream: config.StreamConfig{
			Endpoint:       "", // Invalid
			ConnectTimeout: 0,  // Invalid
		},
		Delivery: config.DeliveryConfig{
			Backends: []string{}, // Invalid (empty)
		},
		Notifications: config.NotificationsConfig{
			Type: "invalid", // Invalid
		},
	}
}

// CreateTempConfigFile creates a temporary config file for testing
func CreateTempConfigFile(t *testing.T, configContent string) string {
	t.Helper()

	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "config.toml")

	err := os.WriteFile(configPath, []byte(configContent), 0644)
	if err != nil {
		t.Fatalf("Failed to create temp config file: %v", err)
	}

	return configPath
}

// MockAudioFrame creates a test audio frame
func MockAudioFrame(data []byte) capture.Frame {
	if data == nil {
		data = make([]byte, 1024)
		for i := range data {
			data[i] = byte(i % 256)
		}
	}

	return capture.Frame{
		Data:      data,
		Timestamp: time.Now(),
	}
}

// TestContext returns a context with timeout for testing
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// WaitForCondition waits for a condition to be true or times out
func WaitForCondition(t *testing.T, condition func() bool, timeout time.Duration) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			t.Fatalf("Condition not met within %v", timeout)
		default:
			if condition() {
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
	}
}

// MockRecorder implements capture.Recorder for testing. Frames are emitted
// once after Start, then the channel stays open until Release.
type MockRecorder struct {
	Frames       []capture.Frame
	AcquireError error
	StartError   error
	CaptureError error // sent on the error channel after the frames

	mu       sync.Mutex
	acquired bool
	started  bool
	stopCh   chan struct{}

	paused   atomic.Bool
	released atomic.Bool
	pauses   atomic.Int32
	resumes  atomic.Int32
}

func NewMockRecorder() *MockRecorder {
	return &MockRecorder{
		Frames: []capture.Frame{MockAudioFrame(nil)},
	}
}

func (m *MockRecorder) Acquire(ctx context.Context) error {
	if m.AcquireError != nil {
		return m.AcquireError
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.acquired = true
	m.mu.Unlock()
	return nil
}

func (m *MockRecorder) Start() (<-chan capture.Frame, <-chan error, error) {
	if m.StartError != nil {
		return nil, nil, m.StartError
	}

	m.mu.Lock()
	m.started = true
	m.stopCh = make(chan struct{})
	stopCh := m.stopCh
	m.mu.Unlock()

	frameCh := make(chan capture.Frame, len(m.Frames)+1)
	errCh := make(chan error, 1)

	go func() {
		defer close(frameCh)
		defer close(errCh)

		for _, frame := range m.Frames {
			select {
			case <-stopCh:
				return
			case frameCh <- frame:
			}
		}

		if m.CaptureError != nil {
			select {
			case <-stopCh:
			case errCh <- m.CaptureError:
			}
			return
		}

		// keep channels open until released
		<-stopCh
	}()

	return frameCh, errCh, nil
}

func (m *MockRecorder) Pause() {
	m.paused.Store(true)
	m.pauses.Add(1)
}

func (m *MockRecorder) Resume() {
	m.paused.Store(false)
	m.resumes.Add(1)
}

func (m *MockRecorder) Release() error {
	if m.released.Swap(true) {
		return nil
	}
	m.mu.Lock()
	if m.stopCh != nil {
		close(m.stopCh)
		m.stopCh = nil
	}
	m.mu.Unlock()
	return nil
}

func (m *MockRecorder) IsAcquired() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acquired
}

func (m *MockRecorder) IsPaused() bool   { return m.paused.Load() }
func (m *MockRecorder) IsReleased() bool { return m.released.Load() }
func (m *MockRecorder) PauseCount() int  { return int(m.pauses.Load()) }
func (m *MockRecorder) ResumeCount() int { return int(m.resumes.Load()) }

// MockConn implements stream.Conn for testing. Fragments pushed with
// PushFragment are returned by Recv in order; FailClosed ends the stream
// with an abnormal-closure error instead of a clean shutdown.
type MockConn struct {
	SendError error

	mu    sync.Mutex
	sent  [][]byte
	frags chan stream.Fragment

	closed    atomic.Bool
	closes    atomic.Int32
	closeCh   chan struct{}
	closeOnce sync.Once
	failErr   error
}

func NewMockConn() *MockConn {
	return &MockConn{
		frags:   make(chan stream.Fragment, 32),
		closeCh: make(chan struct{}),
	}
}

// PushFragment queues a transcript message for Recv.
func (m *MockConn) PushFragment(text string, isPartial bool) {
	m.frags <- stream.Fragment{Text: text, IsPartial: isPartial}
}

// FailClosed makes the next Recv return err, simulating the peer dropping
// the connection.
func (m *MockConn) FailClosed(err error) {
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.failErr = err
		m.mu.Unlock()
		close(m.closeCh)
	})
}

func (m *MockConn) Send(audio []byte) error {
	if m.SendError != nil {
		return m.SendError
	}
	if m.closed.Load() {
		return stream.ErrClosed
	}
	data := make([]byte, len(audio))
	copy(data, audio)
	m.mu.Lock()
	m.sent = append(m.sent, data)
	m.mu.Unlock()
	return nil
}

func (m *MockConn) Recv() (stream.Fragment, error) {
	select {
	case frag := <-m.frags:
		return frag, nil
	case <-m.closeCh:
		m.mu.Lock()
		err := m.failErr
		m.mu.Unlock()
		if err == nil {
			err = stream.ErrClosed
		}
		return stream.Fragment{}, err
	}
}

func (m *MockConn) Close() error {
	m.closes.Add(1)
	if m.closed.Swap(true) {
		return nil
	}
	m.closeOnce.Do(func() { close(m.closeCh) })
	return nil
}

func (m *MockConn) IsClosed() bool   { return m.closed.Load() }
func (m *MockConn) CloseCount() int  { return int(m.closes.Load()) }
func (m *MockConn) SentFrames() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// MockDialer returns a stream.DialFunc that hands out the given conn, or
// fails with dialErr when non-nil.
func MockDialer(conn *MockConn, dialErr error) stream.DialFunc {
	return func(ctx context.Context, cfg stream.Config) (stream.Conn, error) {
		if dialErr != nil {
			return nil, dialErr
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return conn, nil
	}
}

// MockRecorderFactory returns a factory that creates the given mock recorder
func MockRecorderFactory(mock *MockRecorder) func(cfg capture.Config) capture.Recorder {
	return func(cfg capture.Config) capture.Recorder {
		return mock
	}
}

// MockPolishAdapter implements polish.Adapter for testing
type MockPolishAdapter struct {
	ProcessedText string
	ProcessError  error

	mu            sync.Mutex
	ProcessCalled bool
	InputText     string
}

func NewMockPolishAdapter(processedText string) *MockPolishAdapter {
	return &MockPolishAdapter{ProcessedText: processedText}
}

func (m *MockPolishAdapter) Process(ctx context.Context, text string) (string, error) {
	m.mu.Lock()
	m.ProcessCalled = true
	m.InputText = text
	m.mu.Unlock()

	if m.ProcessError != nil {
		return "", m.ProcessError
	}
	return m.ProcessedText, nil
}

// MockDeliverer implements deliver.Deliverer for testing
type MockDeliverer struct {
	DeliverError error

	mu        sync.Mutex
	delivered []string
}

func NewMockDeliverer() *MockDeliverer {
	return &MockDeliverer{}
}

func (m *MockDeliverer) Deliver(ctx context.Context, text string) error {
	if m.DeliverError != nil {
		return m.DeliverError
	}
	m.mu.Lock()
	m.delivered = append(m.delivered, text)
	m.mu.Unlock()
	return nil
}

func (m *MockDeliverer) Delivered() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]string, len(m.delivered))
	copy(result, m.delivered)
	return result
}

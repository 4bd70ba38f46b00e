package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// PwRecorder captures microphone audio through the pw-record PipeWire client.
// The child process keeps the device open for the whole session; Pause only
// gates frame emission so the device handle survives pause/resume.
type PwRecorder struct {
	config Config

	acquired atomic.Bool
	started  atomic.Bool
	paused   atomic.Bool
	released atomic.Bool

	mu     sync.Mutex // guards cmd and cancel
	cmd    *exec.Cmd
	cancel context.CancelFunc
	ctx    context.Context

	stderrMu   sync.Mutex
	stderrTail string

	wg sync.WaitGroup
}

func NewPwRecorder(config Config) *PwRecorder {
	return &PwRecorder{config: config}
}

// Acquire verifies that pw-record and a running PipeWire daemon are reachable.
// This is the closest analog to a microphone permission request this backend
// has: failures here wrap ErrPermissionDenied.
func (r *PwRecorder) Acquire(ctx context.Context) error {
	if r.acquired.Load() {
		return fmt.Errorf("device already acquired")
	}
	if err := r.config.validate(); err != nil {
		return err
	}

	if _, err := exec.LookPath("pw-record"); err != nil {
		return fmt.Errorf("pw-record not found (install pipewire-tools): %w", err)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if out, err := exec.CommandContext(checkCtx, "pw-cli", "info").CombinedOutput(); err != nil {
		return fmt.Errorf("%w: PipeWire not running or accessible: %v (%s)",
			ErrPermissionDenied, err, strings.TrimSpace(string(out)))
	}

	captureCtx, captureCancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.ctx = captureCtx
	r.cancel = captureCancel
	r.mu.Unlock()

	r.acquired.Store(true)
	return nil
}

// Start launches pw-record and begins emitting one Frame per SliceInterval.
func (r *PwRecorder) Start() (<-chan Frame, <-chan error, error) {
	if !r.acquired.Load() {
		return nil, nil, fmt.Errorf("device not acquired")
	}
	if r.started.Load() {
		return nil, nil, fmt.Errorf("already capturing")
	}

	frameCh := make(chan Frame, r.config.ChannelBufferSize)
	errCh := make(chan error, 1)

	r.started.Store(true)
	r.wg.Add(1)
	go r.captureLoop(frameCh, errCh)

	return frameCh, errCh, nil
}

func (r *PwRecorder) Pause()  { r.paused.Store(true) }
func (r *PwRecorder) Resume() { r.paused.Store(false) }

// Release stops capture and frees the device. Safe from any state and
// idempotent: a second call is a no-op.
func (r *PwRecorder) Release() error {
	if r.released.Swap(true) {
		return nil
	}

	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	r.wg.Wait()

	r.acquired.Store(false)
	r.started.Store(false)
	return nil
}

func (r *PwRecorder) captureLoop(frameCh chan<- Frame, errCh chan<- error) {
	defer func() {
		close(frameCh)
		close(errCh)

		// Ensure the child process is reaped.
		r.mu.Lock()
		if r.cmd != nil {
			_ = r.cmd.Wait()
			r.cmd = nil
		}
		r.mu.Unlock()

		r.wg.Done()
	}()

	cmd := exec.CommandContext(r.ctx, "pw-record", r.buildPwRecordArgs()...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		r.emitErr(errCh, fmt.Errorf("create stdout pipe: %w", err))
		return
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		r.emitErr(errCh, fmt.Errorf("create stderr pipe: %w", err))
		return
	}

	r.mu.Lock()
	r.cmd = cmd
	r.mu.Unlock()

	if err := cmd.Start(); err != nil {
		r.emitErr(errCh, fmt.Errorf("start pw-record: %w", err))
		return
	}

	go r.drainStderr(stderr)

	slice := r.config.sliceBytes()
	buffer := make([]byte, slice)
	var droppedCount int
	lastDropLog := time.Now()

	for {
		n, readErr := io.ReadFull(stdout, buffer)
		if n > 0 && !r.paused.Load() {
			frameData := make([]byte, n)
			copy(frameData, buffer[:n])

			select {
			case frameCh <- Frame{Data: frameData, Timestamp: time.Now()}:
			case <-r.ctx.Done():
				return
			default:
				droppedCount++
				if time.Since(lastDropLog) > time.Second {
					log.Printf("capture: dropped %d frames due to backpressure", droppedCount)
					lastDropLog = time.Now()
					droppedCount = 0
				}
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) || errors.Is(readErr, io.ErrUnexpectedEOF) {
				if r.ctx.Err() == nil {
					// pw-record exited on its own: the device went away.
					r.emitErr(errCh, r.classifyExit())
				}
				return
			}
			r.emitErr(errCh, fmt.Errorf("read audio: %w", readErr))
			return
		}

		select {
		case <-r.ctx.Done():
			return
		default:
		}
	}
}

func (r *PwRecorder) drainStderr(stderr io.Reader) {
	buf := make([]byte, 1024)
	for {
		n, err := stderr.Read(buf)
		if n > 0 {
			line := strings.TrimSpace(string(buf[:n]))
			if line != "" {
				log.Printf("capture: pw-record: %s", line)
				r.stderrMu.Lock()
				r.stderrTail = line
				r.stderrMu.Unlock()
			}
		}
		if err != nil {
			return
		}
	}
}

// classifyExit turns an unexpected pw-record exit into a capture error,
// mapping access failures onto ErrPermissionDenied.
func (r *PwRecorder) classifyExit() error {
	r.stderrMu.Lock()
	tail := r.stderrTail
	r.stderrMu.Unlock()

	lower := strings.ToLower(tail)
	if strings.Contains(lower, "permission") || strings.Contains(lower, "access denied") {
		return fmt.Errorf("%w: %s", ErrPermissionDenied, tail)
	}
	if tail != "" {
		return fmt.Errorf("pw-record exited: %s", tail)
	}
	return fmt.Errorf("pw-record exited unexpectedly")
}

func (r *PwRecorder) emitErr(errCh chan<- error, err error) {
	select {
	case errCh <- err:
	default:
	}
	log.Printf("capture: %v", err)
}

func (r *PwRecorder) buildPwRecordArgs() []string {
	args := []string{
		"--format", "s16",
		"--rate", strconv.Itoa(r.config.SampleRate),
		"--channels", strconv.Itoa(r.config.Channels),
		"-", // stdout
	}
	if r.config.Device != "" {
		args = append(args, "--target", r.config.Device)
	}
	return args
}

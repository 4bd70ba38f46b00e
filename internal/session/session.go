package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cortexhq/cortexvoice/internal/capture"
	"github.com/cortexhq/cortexvoice/internal/stream"
)

// Status is the observable state of the transcription controller.
type Status string

const (
	Idle       Status = "idle"
	Processing Status = "processing" // negotiating device access and connection
	Listening  Status = "listening"
	Paused     Status = "paused"
	Stopped    Status = "stopped"
	Error      Status = "error"
)

// Callbacks are invoked by the controller as the session progresses.
// OnTranscript fires once at Stop with the full accumulated text (only when
// non-empty). OnStreamingText fires per inbound message. OnStatusChange fires
// on every transition, asynchronously.
type Callbacks struct {
	OnTranscript    func(finalText string)
	OnStreamingText func(fragment string, isPartial bool)
	OnStatusChange  func(status Status)
}

type Config struct {
	Capture      capture.Config
	Stream       stream.Config
	TickInterval time.Duration // duration counter granularity
}

func DefaultConfig() Config {
	return Config{
		Capture:      capture.DefaultConfig(),
		Stream:       stream.DefaultConfig(),
		TickInterval: time.Second,
	}
}

// RecorderFactory builds the capture device handle for one session.
type RecorderFactory func(cfg capture.Config) capture.Recorder

func defaultRecorderFactory(cfg capture.Config) capture.Recorder {
	return capture.NewPwRecorder(cfg)
}

// Controller owns at most one live transcription session and drives the
// state machine idle -> processing -> listening <-> paused -> stopped, with
// error reachable from every active state. Start is accepted from idle,
// stopped and error only; every other operation validates its source state
// and is rejected without side effects otherwise.
type Controller struct {
	cfg         config
	newRecorder RecorderFactory
	dial        stream.DialFunc
	callbacks   Callbacks

	mu          sync.Mutex
	status      Status
	lastError   string
	accumulated string
	duration    int
	current     *session
}

// config is Config with defaults applied.
type config struct {
	capture      capture.Config
	stream       stream.Config
	tickInterval time.Duration
}

func New(cfg Config, cb Callbacks) *Controller {
	return NewWithFactories(cfg, cb, defaultRecorderFactory, stream.Dial)
}

// NewWithFactories injects the capture and connection constructors. Tests use
// it to wire fakes; production code goes through New.
func NewWithFactories(cfg Config, cb Callbacks, rf RecorderFactory, dial stream.DialFunc) *Controller {
	tick := cfg.TickInterval
	if tick <= 0 {
		tick = time.Second
	}
	return &Controller{
		cfg: config{
			capture:      cfg.Capture,
			stream:       cfg.Stream,
			tickInterval: tick,
		},
		newRecorder: rf,
		dial:        dial,
		callbacks:   cb,
		status:      Idle,
	}
}

// session is one transcription attempt. It exclusively owns the capture
// device handle and the connection; releaseResources is the single cleanup
// path used by Stop and every fault, and is idempotent.
type session struct {
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	recorder capture.Recorder
	conn     stream.Conn
	closing  bool

	release sync.Once
	wg      sync.WaitGroup
}

// adoptRecorder hands ownership of the recorder to the session. If cleanup
// already ran the handoff is refused and the caller must release it directly.
func (s *session) adoptRecorder(r capture.Recorder) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.recorder = r
	return true
}

func (s *session) getRecorder() capture.Recorder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recorder
}

func (s *session) adoptConn(c stream.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.conn = c
	return true
}

func (s *session) getConn() stream.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

func (s *session) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

func (s *session) releaseResources() {
	s.release.Do(func() {
		s.mu.Lock()
		s.closing = true
		recorder := s.recorder
		conn := s.conn
		s.mu.Unlock()

		s.cancel()
		if recorder != nil {
			if err := recorder.Release(); err != nil {
				log.Printf("session: release capture device: %v", err)
			}
		}
		if conn != nil {
			if err := conn.Close(); err != nil {
				log.Printf("session: close connection: %v", err)
			}
		}
	})
}

func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// LastError returns the human-readable message of the most recent fault.
// Empty unless the controller is (or was) in the error state.
func (c *Controller) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastError
}

// Transcript returns the text accumulated so far. After a stop it holds the
// delivered transcript until the next start.
func (c *Controller) Transcript() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accumulated
}

// DurationSeconds returns the recording duration counter. It increments once
// per tick while listening, holds while paused, and resets on Start.
func (c *Controller) DurationSeconds() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.duration
}

// Start begins a new session. It returns immediately; device acquisition and
// connection negotiation proceed in the background with the status visible as
// processing. Valid from idle, stopped and error only.
func (c *Controller) Start() error {
	c.mu.Lock()
	switch c.status {
	case Idle, Stopped, Error:
	default:
		status := c.status
		c.mu.Unlock()
		return fmt.Errorf("cannot start while %s", status)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &session{ctx: ctx, cancel: cancel}
	c.current = s
	c.accumulated = ""
	c.duration = 0
	c.lastError = ""
	c.status = Processing
	c.mu.Unlock()

	c.notifyStatus(Processing)

	s.wg.Add(1)
	go c.begin(s)
	return nil
}

// Pause suspends audio capture. The device stays acquired and the connection
// stays open. Valid from listening only.
func (c *Controller) Pause() error {
	c.mu.Lock()
	if c.status != Listening {
		status := c.status
		c.mu.Unlock()
		return fmt.Errorf("cannot pause while %s", status)
	}
	s := c.current
	c.status = Paused
	c.mu.Unlock()

	s.getRecorder().Pause()
	c.notifyStatus(Paused)
	return nil
}

// Resume restarts audio capture and the duration counter. Valid from paused
// only.
func (c *Controller) Resume() error {
	c.mu.Lock()
	if c.status != Paused {
		status := c.status
		c.mu.Unlock()
		return fmt.Errorf("cannot resume while %s", status)
	}
	s := c.current
	c.status = Listening
	c.mu.Unlock()

	s.getRecorder().Resume()
	c.notifyStatus(Listening)
	return nil
}

// Stop finishes the session: delivers the accumulated transcript (if any),
// then releases the capture device, closes the connection and stops the
// counter. It is the cancellation operator: valid from any active state, and
// a no-op when there is nothing to stop.
func (c *Controller) Stop() error {
	c.mu.Lock()
	switch c.status {
	case Processing, Listening, Paused:
	default:
		c.mu.Unlock()
		return nil
	}
	s := c.current
	text := c.accumulated
	c.status = Stopped
	c.mu.Unlock()

	if text != "" {
		if cb := c.callbacks.OnTranscript; cb != nil {
			cb(text)
		}
	}

	s.releaseResources()
	s.wg.Wait()

	c.notifyStatus(Stopped)
	return nil
}

func (c *Controller) notifyStatus(status Status) {
	if cb := c.callbacks.OnStatusChange; cb != nil {
		go cb(status)
	}
}

// begin negotiates the session: device access first, then the connection,
// then capture slicing. Runs off the caller's goroutine; any failure lands
// in fault.
func (c *Controller) begin(s *session) {
	defer s.wg.Done()

	rec := c.newRecorder(c.cfg.capture)
	if err := rec.Acquire(s.ctx); err != nil {
		c.fault(s, classifyCaptureErr(err))
		return
	}
	if !s.adoptRecorder(rec) {
		// Stopped while acquiring; cleanup already ran without this recorder.
		if err := rec.Release(); err != nil {
			log.Printf("session: release capture device: %v", err)
		}
		return
	}

	conn, err := c.dial(s.ctx, c.cfg.stream)
	if err != nil {
		c.fault(s, classifyDialErr(err))
		return
	}
	if !s.adoptConn(conn) {
		if err := conn.Close(); err != nil {
			log.Printf("session: close connection: %v", err)
		}
		return
	}

	frameCh, errCh, err := rec.Start()
	if err != nil {
		c.fault(s, classifyCaptureErr(err))
		return
	}

	c.mu.Lock()
	if c.current != s || c.status != Processing {
		// Stopped (or faulted) while negotiating.
		c.mu.Unlock()
		s.releaseResources()
		return
	}
	c.status = Listening
	c.mu.Unlock()
	c.notifyStatus(Listening)

	s.wg.Add(3)
	go c.sendLoop(s, frameCh, errCh)
	go c.recvLoop(s)
	go c.tickLoop(s)
}

// sendLoop forwards capture slices to the connection and watches for capture
// faults.
func (c *Controller) sendLoop(s *session, frameCh <-chan capture.Frame, errCh <-chan error) {
	defer s.wg.Done()

	conn := s.getConn()
	for {
		select {
		case <-s.ctx.Done():
			return

		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				c.fault(s, classifyCaptureErr(err))
				return
			}

		case frame, ok := <-frameCh:
			if !ok {
				frameCh = nil
				continue
			}
			if err := conn.Send(frame.Data); err != nil {
				if s.isClosing() {
					return
				}
				c.fault(s, newFault(FaultConnection, err))
				return
			}
		}
	}
}

// recvLoop accumulates inbound fragments. Fragments append in arrival order
// with a single separating space, regardless of the partial flag; the flag is
// only forwarded to the streaming callback. A read error while the session is
// active is an unexpected closure and faults the session.
func (c *Controller) recvLoop(s *session) {
	defer s.wg.Done()

	conn := s.getConn()
	for {
		frag, err := conn.Recv()
		if err != nil {
			if s.isClosing() || s.ctx.Err() != nil {
				return
			}
			c.fault(s, newFault(FaultConnection, fmt.Errorf("connection closed unexpectedly: %w", err)))
			return
		}

		if frag.Text != "" {
			c.mu.Lock()
			if c.current != s {
				c.mu.Unlock()
				return
			}
			if c.accumulated != "" {
				c.accumulated += " " + frag.Text
			} else {
				c.accumulated = frag.Text
			}
			c.mu.Unlock()
		}

		if cb := c.callbacks.OnStreamingText; cb != nil {
			cb(frag.Text, frag.IsPartial)
		}
	}
}

// tickLoop increments the duration counter once per tick, but only while
// listening: paused and terminal states never count.
func (c *Controller) tickLoop(s *session) {
	defer s.wg.Done()

	ticker := time.NewTicker(c.cfg.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.current == s && c.status == Listening {
				c.duration++
			}
			c.mu.Unlock()
		}
	}
}

// fault moves the session to the error state and runs the same unconditional
// cleanup as Stop. Stale sessions (already replaced or terminal) only release
// their resources.
func (c *Controller) fault(s *session, f *Fault) {
	c.mu.Lock()
	if c.current != s {
		c.mu.Unlock()
		s.releaseResources()
		return
	}
	switch c.status {
	case Processing, Listening, Paused:
	default:
		c.mu.Unlock()
		s.releaseResources()
		return
	}
	c.status = Error
	c.lastError = f.Message()
	c.mu.Unlock()

	log.Printf("session: %v", f)
	c.notifyStatus(Error)
	s.releaseResources()
}

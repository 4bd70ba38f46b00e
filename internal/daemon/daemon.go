package daemon

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/cortexhq/cortexvoice/internal/bus"
	"github.com/cortexhq/cortexvoice/internal/config"
	"github.com/cortexhq/cortexvoice/internal/deliver"
	"github.com/cortexhq/cortexvoice/internal/notify"
	"github.com/cortexhq/cortexvoice/internal/polish"
	"github.com/cortexhq/cortexvoice/internal/session"
)

const deliveryTimeout = 30 * time.Second

// Daemon owns the transcription controller and exposes it over the control
// socket. One session at a time; a new start builds a fresh controller from
// the current configuration so config reloads take effect between sessions.
type Daemon struct {
	mu         sync.Mutex
	controller *session.Controller

	manager  *config.Manager
	notifier notify.Notifier

	ctx    context.Context
	cancel context.CancelFunc

	// seams for tests
	getConfig     func() *config.Config
	newController func(cfg session.Config, cb session.Callbacks) *session.Controller
	newDeliverer  func(cfg deliver.Config) (deliver.Deliverer, error)
	newPolisher   func(cfg polish.Config) (polish.Adapter, error)

	wg sync.WaitGroup // in-flight transcript deliveries
}

func New() (*Daemon, error) {
	manager, err := config.NewManager()
	if err != nil {
		return nil, err
	}

	cfg := manager.GetConfig()
	ctx, cancel := context.WithCancel(context.Background())
	d := &Daemon{
		manager:       manager,
		notifier:      notify.New(cfg.Notifications.Enabled, cfg.Notifications.Type),
		ctx:           ctx,
		cancel:        cancel,
		getConfig:     manager.GetConfig,
		newController: session.New,
		newDeliverer:  deliver.New,
		newPolisher:   polish.NewAdapter,
	}
	return d, nil
}

func (d *Daemon) Run() error {
	if err := bus.CheckExistingDaemon(); err != nil {
		return err
	}

	ln, err := bus.Listen()
	if err != nil {
		return err
	}
	defer ln.Close()

	if err := bus.CreatePidFile(); err != nil {
		return fmt.Errorf("failed to create PID file: %w", err)
	}
	defer bus.RemovePidFile()

	if err := d.manager.StartWatching(d.ctx); err != nil {
		log.Printf("daemon: config watching disabled: %v", err)
	}
	defer d.manager.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	go func() {
		sig := <-sigCh
		log.Printf("daemon: received signal %v, shutting down gracefully", sig)
		d.cancel()
	}()

	// Close the listener when context is done
	go func() {
		<-d.ctx.Done()
		ln.Close()
	}()

	log.Printf("daemon: started, listening on socket")

	for {
		c, err := ln.Accept()
		if err != nil {
			if d.ctx.Err() != nil {
				log.Printf("daemon: shutdown requested")
				d.shutdown()
				return nil
			}
			log.Printf("daemon: accept error: %v", err)
			return fmt.Errorf("accept failed: %w", err)
		}
		go d.handle(c)
	}
}

// shutdown stops any live session and waits for deliveries in flight.
func (d *Daemon) shutdown() {
	d.mu.Lock()
	ctrl := d.controller
	d.mu.Unlock()

	if ctrl != nil {
		if err := ctrl.Stop(); err != nil {
			log.Printf("daemon: stop on shutdown: %v", err)
		}
	}
	d.wg.Wait()
}

func (d *Daemon) handle(c net.Conn) {
	defer c.Close()

	line, err := bufio.NewReader(c).ReadString('\n')
	if err != nil {
		log.Printf("daemon: client read error: %v", err)
		fmt.Fprintf(c, "ERR read_error: %v\n", err)
		return
	}
	if len(line) == 0 {
		fmt.Fprint(c, "ERR empty\n")
		return
	}
	cmd := line[0]

	switch cmd {
	case 'r':
		if err := d.startSession(); err != nil {
			fmt.Fprintf(c, "ERR %v\n", err)
			return
		}
		fmt.Fprint(c, "OK started\n")
	case 'p':
		d.controllerOp(c, "paused", (*session.Controller).Pause)
	case 'u':
		d.controllerOp(c, "resumed", (*session.Controller).Resume)
	case 'f':
		d.controllerOp(c, "stopped", (*session.Controller).Stop)
	case 's':
		fmt.Fprint(c, d.statusLine())
	case 'v':
		fmt.Fprintf(c, "STATUS proto=%s\n", bus.ProtoVer)
	case 'q':
		fmt.Fprint(c, "OK quitting\n")
		d.cancel()
	default:
		log.Printf("daemon: unknown command: %c", cmd)
		fmt.Fprintf(c, "ERR unknown=%q\n", cmd)
	}
}

func (d *Daemon) controllerOp(c net.Conn, verb string, op func(*session.Controller) error) {
	d.mu.Lock()
	ctrl := d.controller
	d.mu.Unlock()

	if ctrl == nil {
		fmt.Fprint(c, "ERR no session\n")
		return
	}
	if err := op(ctrl); err != nil {
		fmt.Fprintf(c, "ERR %v\n", err)
		return
	}
	fmt.Fprintf(c, "OK %s\n", verb)
}

func (d *Daemon) statusLine() string {
	d.mu.Lock()
	ctrl := d.controller
	d.mu.Unlock()

	if ctrl == nil {
		return fmt.Sprintf("STATUS status=%s duration=0\n", session.Idle)
	}
	line := fmt.Sprintf("STATUS status=%s duration=%d", ctrl.Status(), ctrl.DurationSeconds())
	if msg := ctrl.LastError(); msg != "" {
		line += fmt.Sprintf(" error=%q", msg)
	}
	return line + "\n"
}

// startSession builds a controller from the current config and starts it.
// Rejected while a session is still active.
func (d *Daemon) startSession() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.controller != nil {
		switch d.controller.Status() {
		case session.Processing, session.Listening, session.Paused:
			return fmt.Errorf("session already active (%s)", d.controller.Status())
		}
	}

	cfg := d.getConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var ctrl *session.Controller
	ctrl = d.newController(cfg.ToSessionConfig(), session.Callbacks{
		OnTranscript: func(text string) {
			d.wg.Add(1)
			go func() {
				defer d.wg.Done()
				d.handleTranscript(cfg, text)
			}()
		},
		OnStatusChange: func(status session.Status) {
			d.notifier.StatusChanged(status)
			if status == session.Error {
				d.notifier.Error(ctrl.LastError())
			}
		},
	})

	if err := ctrl.Start(); err != nil {
		return err
	}
	d.controller = ctrl
	return nil
}

// handleTranscript runs the post-session pipeline: optional polish, then
// delivery. A polish failure falls back to the raw transcript.
func (d *Daemon) handleTranscript(cfg *config.Config, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()

	if cfg.Polish.Enabled {
		adapter, err := d.newPolisher(cfg.ToPolishConfig())
		if err != nil {
			log.Printf("daemon: polish unavailable: %v", err)
		} else if cleaned, err := adapter.Process(ctx, text); err != nil {
			log.Printf("daemon: polish failed, delivering raw transcript: %v", err)
		} else if cleaned != "" {
			text = cleaned
		}
	}

	deliverer, err := d.newDeliverer(cfg.ToDeliveryConfig())
	if err != nil {
		log.Printf("daemon: delivery unavailable: %v", err)
		d.notifier.Error(fmt.Sprintf("transcript delivery unavailable: %v", err))
		return
	}
	if err := deliverer.Deliver(ctx, text); err != nil {
		log.Printf("daemon: delivery failed: %v", err)
		d.notifier.Error(fmt.Sprintf("transcript delivery failed: %v", err))
		return
	}
	d.notifier.TranscriptReady(len(text))
}

package notify

import (
	"fmt"
	"log"
	"os/exec"

	"github.com/cortexhq/cortexvoice/internal/session"
)

// Notifier surfaces session lifecycle events to the user.
type Notifier interface {
	StatusChanged(status session.Status)
	TranscriptReady(chars int)
	Error(msg string)
}

// New returns the notifier for the configured type: "desktop", "log", or
// anything else for a no-op.
func New(enabled bool, kind string) Notifier {
	if !enabled {
		return Nop{}
	}
	switch kind {
	case "desktop":
		return Desktop{}
	case "log":
		return Log{}
	default:
		return Nop{}
	}
}

type Desktop struct{}

func (Desktop) StatusChanged(status session.Status) {
	var body string
	switch status {
	case session.Listening:
		body = "Listening"
	case session.Paused:
		body = "Paused"
	case session.Stopped:
		body = "Recording finished"
	default:
		return
	}
	send(body, false)
}

func (Desktop) TranscriptReady(chars int) {
	send(fmt.Sprintf("Transcript saved (%d characters)", chars), false)
}

func (Desktop) Error(msg string) {
	send(msg, true)
}

func send(body string, critical bool) {
	args := []string{"-a", "Cortexvoice"}
	if critical {
		args = append(args, "-u", "critical")
	}
	args = append(args, "Cortexvoice", body)
	if err := exec.Command("notify-send", args...).Run(); err != nil {
		log.Printf("notify: failed to send notification: %v", err)
	}
}

// Log writes notifications to the daemon log instead of the desktop.
type Log struct{}

func (Log) StatusChanged(status session.Status) {
	log.Printf("notify: status %s", status)
}

func (Log) TranscriptReady(chars int) {
	log.Printf("notify: transcript ready (%d chars)", chars)
}

func (Log) Error(msg string) {
	log.Printf("notify: error: %s", msg)
}

// Nop is a Notifier that does absolutely nothing.
// Useful in unit tests or headless builds.
type Nop struct{}

func (Nop) StatusChanged(status session.Status) {}
func (Nop) TranscriptReady(chars int)           {}
func (Nop) Error(msg string)                    {}

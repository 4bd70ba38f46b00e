package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/cortexhq/cortexvoice/internal/capture"
	"github.com/cortexhq/cortexvoice/internal/stream"
)

// FaultKind classifies the failures that move a session to the error state.
// Every kind is recoverable: Start is accepted again afterwards.
type FaultKind string

const (
	FaultPermission FaultKind = "permission_denied"
	FaultTimeout    FaultKind = "connection_timeout"
	FaultConnection FaultKind = "connection_fault"
	FaultCapture    FaultKind = "capture_fault"
)

// Fault wraps the underlying cause of a session failure with its kind and a
// human-readable message for the status surface.
type Fault struct {
	Kind FaultKind
	Err  error
}

func (f *Fault) Error() string {
	return f.Message()
}

func (f *Fault) Unwrap() error {
	if f == nil {
		return nil
	}
	return f.Err
}

// Message returns the user-visible error text.
func (f *Fault) Message() string {
	switch f.Kind {
	case FaultPermission:
		return fmt.Sprintf("microphone permission denied: %v", f.Err)
	case FaultTimeout:
		return fmt.Sprintf("transcription service connection timed out: %v", f.Err)
	case FaultConnection:
		return fmt.Sprintf("transcription service connection failed: %v", f.Err)
	case FaultCapture:
		return fmt.Sprintf("audio capture failed: %v", f.Err)
	default:
		return fmt.Sprintf("session error: %v", f.Err)
	}
}

func newFault(kind FaultKind, err error) *Fault {
	return &Fault{Kind: kind, Err: err}
}

func classifyCaptureErr(err error) *Fault {
	if errors.Is(err, capture.ErrPermissionDenied) {
		return newFault(FaultPermission, err)
	}
	return newFault(FaultCapture, err)
}

func classifyDialErr(err error) *Fault {
	if errors.Is(err, stream.ErrConnectTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return newFault(FaultTimeout, err)
	}
	return newFault(FaultConnection, err)
}

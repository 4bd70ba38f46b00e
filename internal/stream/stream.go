package stream

import (
	"context"
	"errors"
	"time"
)

// Fragment is one transcript unit delivered by an inbound message.
type Fragment struct {
	Text      string
	IsPartial bool
}

// ErrConnectTimeout reports that the transcription endpoint did not become
// ready within Config.ConnectTimeout.
var ErrConnectTimeout = errors.New("transcription endpoint connect timeout")

// ErrClosed reports an operation on a connection that was already closed
// locally.
var ErrClosed = errors.New("connection closed")

// Conn is a live connection to the transcription endpoint. Send ships raw
// audio, Recv blocks for the next well-formed transcript message (malformed
// payloads are logged and skipped internally), and Close is idempotent.
type Conn interface {
	Send(audio []byte) error
	Recv() (Fragment, error)
	Close() error
}

type Config struct {
	Endpoint       string        // ws:// or wss:// URL of the transcription service
	Token          string        // access token, appended as a query parameter
	ConnectTimeout time.Duration // bound on the dial handshake
}

func DefaultConfig() Config {
	return Config{
		ConnectTimeout: 5 * time.Second,
	}
}

// DialFunc opens a Conn. The production implementation is Dial; tests inject
// fakes through this type.
type DialFunc func(ctx context.Context, cfg Config) (Conn, error)

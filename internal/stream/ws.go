package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
)

// wireMessage is the transcript payload emitted by the Cortex transcription
// service: a text fragment plus a partial/final flag.
type wireMessage struct {
	Transcript string `json:"transcript"`
	IsPartial  bool   `json:"is_partial"`
}

type wsConn struct {
	conn *websocket.Conn

	writeMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

// Dial connects to the transcription endpoint, authenticating with the access
// token as a query parameter. The handshake is bounded by cfg.ConnectTimeout;
// exceeding it returns ErrConnectTimeout.
func Dial(ctx context.Context, cfg Config) (Conn, error) {
	u, err := url.Parse(cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint url: %w", err)
	}
	q := u.Query()
	if cfg.Token != "" {
		q.Set("token", cfg.Token)
	}
	u.RawQuery = q.Encode()

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().ConnectTimeout
	}
	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log.Printf("stream: connecting to %s", u.Host)
	conn, resp, err := websocket.DefaultDialer.DialContext(dialCtx, u.String(), nil)
	if err != nil {
		if resp != nil {
			log.Printf("stream: dial failed with status %d", resp.StatusCode)
		}
		if errors.Is(dialCtx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrConnectTimeout, err)
		}
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	log.Printf("stream: connected")
	return &wsConn{conn: conn}, nil
}

func (c *wsConn) Send(audio []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.BinaryMessage, audio); err != nil {
		return fmt.Errorf("websocket write: %w", err)
	}
	return nil
}

// Recv blocks until the next well-formed transcript message. Malformed
// payloads are logged and skipped: only transport failures surface as errors.
func (c *wsConn) Recv() (Fragment, error) {
	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			return Fragment{}, fmt.Errorf("websocket read: %w", err)
		}

		frag, ok := decodeMessage(msgType, data)
		if !ok {
			log.Printf("stream: ignoring malformed message (%d bytes)", len(data))
			continue
		}
		return frag, nil
	}
}

func decodeMessage(msgType int, data []byte) (Fragment, bool) {
	if msgType != websocket.TextMessage {
		return Fragment{}, false
	}
	var msg wireMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return Fragment{}, false
	}
	return Fragment{Text: msg.Transcript, IsPartial: msg.IsPartial}, true
}

// Close sends a close frame (best effort) and tears the connection down.
// Repeated calls return the first result.
func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		c.writeMu.Lock()
		_ = c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.writeMu.Unlock()
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

package ari

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Transport is a duplex message channel. Send may be called concurrently;
// Receive is only called by the client's read loop.
type Transport interface {
	// Send writes one message.
	Send(data []byte) error
	// Receive blocks until the next message arrives.
	Receive() ([]byte, error)
	// Close releases the connection and unblocks Receive. It is safe to
	// call more than once.
	Close() error
}

// WebSocketTransport carries frames as WebSocket text messages.
type WebSocketTransport struct {
	conn    *websocket.Conn
	log     *logrus.Entry
	writeMu sync.Mutex

	closeOnce sync.Once
	closeErr  error
}

// DialWebSocket connects to rawURL, typically the Asterisk /ari/events
// endpoint.
func DialWebSocket(ctx context.Context, rawURL string, header http.Header, log *logrus.Entry) (*WebSocketTransport, error) {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
		ReadBufferSize:   4096,
		WriteBufferSize:  4096,
	}
	conn, resp, err := dialer.DialContext(ctx, rawURL, header)
	if err != nil {
		if resp != nil {
			return nil, NewTransportError("dial", fmt.Errorf("%s: %w", resp.Status, err))
		}
		return nil, NewTransportError("dial", err)
	}
	return NewWebSocketTransport(conn, log), nil
}

// NewWebSocketTransport wraps an established connection.
func NewWebSocketTransport(conn *websocket.Conn, log *logrus.Entry) *WebSocketTransport {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &WebSocketTransport{conn: conn, log: log}
}

// Send writes data as a single text message.
func (t *WebSocketTransport) Send(data []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if err := t.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return NewTransportError("write message", err)
	}
	return nil
}

// Receive returns the next text message. Binary messages are logged and
// skipped.
func (t *WebSocketTransport) Receive() ([]byte, error) {
	for {
		kind, data, err := t.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, NewTransportError("read message", ErrClosed)
			}
			return nil, NewTransportError("read message", err)
		}
		if kind == websocket.BinaryMessage {
			t.log.Debugf("Binary message received: %d bytes", len(data))
			continue
		}
		return data, nil
	}
}

// Close sends a close control frame and closes the connection.
func (t *WebSocketTransport) Close() error {
	t.closeOnce.Do(func() {
		t.writeMu.Lock()
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		err := t.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		t.writeMu.Unlock()
		if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
			t.log.WithError(err).Debug("close handshake failed")
		}
		t.closeErr = t.conn.Close()
	})
	return t.closeErr
}

// Package aritest provides an in-memory ari.Transport for tests.
package aritest

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"aribridge/ari"
)

// ErrClosed is returned by Receive and Send after Close.
var ErrClosed = errors.New("aritest: transport closed")

// SentRequest is a RESTRequest frame as written by the client.
type SentRequest struct {
	Type         string            `json:"type"`
	RequestID    string            `json:"request_id"`
	Method       string            `json:"method"`
	URI          string            `json:"uri"`
	QueryStrings []ari.QueryString `json:"query_strings,omitempty"`
	ContentType  string            `json:"content_type,omitempty"`
	MessageBody  string            `json:"message_body,omitempty"`

	Raw []byte `json:"-"`
}

// Query returns the first query_strings value for name.
func (r SentRequest) Query(name string) string {
	for _, q := range r.QueryStrings {
		if q.Name == name {
			return q.Value
		}
	}
	return ""
}

// Responder builds the reply for a sent request. Returning nil sends
// nothing.
type Responder func(req SentRequest) []byte

// Transport is an in-memory duplex transport. Frames written by the
// client are recorded; frames passed to Deliver are returned by Receive.
type Transport struct {
	mu        sync.Mutex
	sent      []SentRequest
	sendErr   error
	failWhen  func(SentRequest) error
	responder Responder

	sentCh  chan SentRequest
	inbound chan []byte
	closed  chan struct{}
	once    sync.Once
}

// New creates an open transport.
func New() *Transport {
	return &Transport{
		sentCh:  make(chan SentRequest, 1024),
		inbound: make(chan []byte, 1024),
		closed:  make(chan struct{}),
	}
}

// Send records data. It fails with the error set by FailSends, if any.
func (t *Transport) Send(data []byte) error {
	select {
	case <-t.closed:
		return ErrClosed
	default:
	}

	t.mu.Lock()
	if t.sendErr != nil {
		err := t.sendErr
		t.mu.Unlock()
		return err
	}
	var req SentRequest
	if err := json.Unmarshal(data, &req); err != nil {
		t.mu.Unlock()
		return err
	}
	req.Raw = append([]byte(nil), data...)
	if t.failWhen != nil {
		if err := t.failWhen(req); err != nil {
			t.mu.Unlock()
			return err
		}
	}
	t.sent = append(t.sent, req)
	responder := t.responder
	t.mu.Unlock()

	t.sentCh <- req
	if responder != nil {
		if reply := responder(req); reply != nil {
			t.Deliver(reply)
		}
	}
	return nil
}

// Receive returns the next delivered frame.
func (t *Transport) Receive() ([]byte, error) {
	select {
	case data := <-t.inbound:
		return data, nil
	case <-t.closed:
		return nil, ErrClosed
	}
}

// Close unblocks Receive. Safe to call more than once.
func (t *Transport) Close() error {
	t.once.Do(func() { close(t.closed) })
	return nil
}

// Deliver queues an inbound frame.
func (t *Transport) Deliver(frame []byte) {
	t.inbound <- frame
}

// DeliverJSON marshals v and queues it as an inbound frame.
func (t *Transport) DeliverJSON(v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	t.Deliver(data)
}

// FailSends makes every following Send return err; nil restores normal
// operation.
func (t *Transport) FailSends(err error) {
	t.mu.Lock()
	t.sendErr = err
	t.mu.Unlock()
}

// FailWhen makes Send return the error fn reports for a request. Failed
// requests are not recorded. nil restores normal operation.
func (t *Transport) FailWhen(fn func(SentRequest) error) {
	t.mu.Lock()
	t.failWhen = fn
	t.mu.Unlock()
}

// SetResponder installs an automatic responder.
func (t *Transport) SetResponder(fn Responder) {
	t.mu.Lock()
	t.responder = fn
	t.mu.Unlock()
}

// Sent returns every request written so far.
func (t *Transport) Sent() []SentRequest {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]SentRequest, len(t.sent))
	copy(out, t.sent)
	return out
}

// Next waits up to timeout for the next written request.
func (t *Transport) Next(timeout time.Duration) (SentRequest, bool) {
	select {
	case req := <-t.sentCh:
		return req, true
	case <-time.After(timeout):
		return SentRequest{}, false
	}
}

// Response builds a RESTResponse frame answering req. A non-nil body is
// marshalled and carried as a JSON string, as Asterisk does.
func Response(req SentRequest, status int, reason string, body interface{}) []byte {
	return ResponseFor(req.RequestID, req.URI, status, reason, body)
}

// ResponseFor builds a RESTResponse frame for an arbitrary request id.
func ResponseFor(requestID, uri string, status int, reason string, body interface{}) []byte {
	frame := map[string]interface{}{
		"type":          ari.TypeRESTResponse,
		"request_id":    requestID,
		"status_code":   status,
		"reason_phrase": reason,
		"uri":           uri,
	}
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}
		frame["content_type"] = "application/json"
		frame["message_body"] = string(payload)
	}
	data, err := json.Marshal(frame)
	if err != nil {
		panic(err)
	}
	return data
}

// OK answers every request with 200 and an empty body.
func OK(req SentRequest) []byte {
	return Response(req, 200, "OK", nil)
}

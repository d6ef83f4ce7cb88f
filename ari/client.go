package ari

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Requester is the request surface handed to event handlers and resource
// builders.
type Requester interface {
	// SendRequest transmits req. With wait it returns a *Future registered
	// before the frame is written, otherwise a Fired handle.
	SendRequest(req *Request, wait bool) (Handle, error)
	// Do sends req and waits for its response.
	Do(ctx context.Context, req *Request) (*Response, error)
	// Fire sends req without waiting for a response.
	Fire(req *Request) error
}

// Client multiplexes requests and events over one Transport.
type Client struct {
	transport Transport
	pending   *pendingTable
	router    *Router

	log      *logrus.Entry
	frameLog *logrus.Entry
	metrics  *Metrics

	handlers       EventHandlers
	generic        EventHandler
	requestTimeout time.Duration
	newID          func() string

	closeOnce sync.Once
}

var _ Requester = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for requests, responses and events.
func WithLogger(log *logrus.Entry) Option {
	return func(c *Client) { c.log = log }
}

// WithFrameLogger sets the logger receiving raw inbound frames at trace level.
func WithFrameLogger(log *logrus.Entry) Option {
	return func(c *Client) { c.frameLog = log }
}

// WithMetrics enables instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithEventHandlers installs the event dispatch table.
func WithEventHandlers(h EventHandlers) Option {
	return func(c *Client) { c.handlers = h }
}

// WithGenericHandler installs the handler run for every event before the
// type-specific one.
func WithGenericHandler(h EventHandler) Option {
	return func(c *Client) { c.generic = h }
}

// WithRequestTimeout bounds Do when the caller's context has no deadline.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) { c.requestTimeout = d }
}

// WithIDGenerator replaces the correlation id generator.
func WithIDGenerator(fn func() string) Option {
	return func(c *Client) { c.newID = fn }
}

// NewClient creates a client over t.
func NewClient(t Transport, opts ...Option) *Client {
	c := &Client{
		transport: t,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logrus.NewEntry(logrus.StandardLogger())
	}
	if c.frameLog == nil {
		c.frameLog = c.log
	}
	c.pending = newPendingTable(c.metrics)
	c.router = newRouter(c.pending, c, c.handlers, c.generic, c.log, c.frameLog, c.metrics)
	return c
}

// SendRequest transmits req. A request id is generated unless req already
// carries one.
func (c *Client) SendRequest(req *Request, wait bool) (Handle, error) {
	if req != nil && req.RequestID == "" {
		req.RequestID = c.newID()
	}
	data, err := Encode(req)
	if err != nil {
		return nil, err
	}

	if !wait {
		if err := c.transport.Send(data); err != nil {
			return nil, asTransportError("send", err)
		}
		c.metrics.requestSent(req.Method, false)
		c.log.Infof("RESTRequest: %s %s %s (no wait)", req.Method, req.URI, req.RequestID)
		return Fired{ID: req.RequestID}, nil
	}

	future, err := c.pending.register(req.RequestID)
	if err != nil {
		return nil, err
	}
	if err := c.transport.Send(data); err != nil {
		c.pending.cancel(req.RequestID)
		return nil, asTransportError("send", err)
	}
	c.metrics.requestSent(req.Method, true)
	c.log.Infof("RESTRequest: %s %s %s", req.Method, req.URI, req.RequestID)
	return future, nil
}

// Do sends req and waits for the matching response. The pending entry is
// cancelled if ctx ends first. A non-2xx status is returned as the
// response, not as an error; see Response.Err.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if c.requestTimeout > 0 {
		if _, ok := ctx.Deadline(); !ok {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.requestTimeout)
			defer cancel()
		}
	}

	h, err := c.SendRequest(req, true)
	if err != nil {
		return nil, err
	}
	resp, err := h.(*Future).Wait(ctx)
	if err != nil {
		return nil, err
	}
	if resp.URI == "" {
		resp.URI = req.URI
	}
	c.log.Infof("RESTResponse: %s %s %d %s", req.Method, req.URI, resp.StatusCode, resp.ReasonPhrase)
	return resp, nil
}

// Fire sends req without registering a waiter.
func (c *Client) Fire(req *Request) error {
	_, err := c.SendRequest(req, false)
	return err
}

// HandleFrame routes one inbound frame. Run calls it for every received
// message. It is meant for transports that push frames themselves and must
// not be called while Run is active: frames are routed on one goroutine.
func (c *Client) HandleFrame(ctx context.Context, data []byte) error {
	return c.router.HandleFrame(ctx, data)
}

// Run reads frames until the transport fails or ctx ends. On exit every
// pending waiter is failed with a TransportError. It returns nil when ctx
// ended the loop.
func (c *Client) Run(ctx context.Context) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = c.transport.Close()
		case <-stop:
		}
	}()

	for {
		data, err := c.transport.Receive()
		if err != nil {
			cause := err
			if ctx.Err() != nil {
				cause = ErrClosed
			}
			n := c.pending.failAll(NewTransportError("receive", cause))
			if n > 0 {
				c.log.Warnf("failed %d pending requests: %v", n, cause)
			}
			if ctx.Err() != nil {
				return nil
			}
			return asTransportError("receive", err)
		}
		_ = c.router.HandleFrame(ctx, data)
	}
}

// Close closes the transport and fails all pending waiters.
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.transport.Close()
		c.pending.failAll(NewTransportError("close", ErrClosed))
	})
	return err
}

// Pending returns the number of requests awaiting a response.
func (c *Client) Pending() int {
	return c.pending.len()
}

func asTransportError(op string, err error) error {
	var te *TransportError
	if errors.As(err, &te) {
		return err
	}
	return NewTransportError(op, err)
}

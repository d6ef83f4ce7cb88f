package ari

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Router classifies inbound frames. HandleFrame must be called from a
// single goroutine, in arrival order.
type Router struct {
	pending   *pendingTable
	requester Requester
	handlers  EventHandlers
	generic   EventHandler
	log       *logrus.Entry
	frameLog  *logrus.Entry
	metrics   *Metrics
}

func newRouter(pending *pendingTable, requester Requester, handlers EventHandlers, generic EventHandler, log, frameLog *logrus.Entry, m *Metrics) *Router {
	return &Router{
		pending:   pending,
		requester: requester,
		handlers:  handlers.normalized(),
		generic:   generic,
		log:       log,
		frameLog:  frameLog,
		metrics:   m,
	}
}

// HandleFrame decodes and routes one frame. Errors are logged here and
// returned for inspection only; they never stop the router.
func (r *Router) HandleFrame(ctx context.Context, data []byte) error {
	r.frameLog.Tracef("frame: %s", data)

	frame, err := Decode(data)
	if err != nil {
		r.metrics.malformedFrame()
		r.log.WithError(err).Warn("dropping inbound frame")
		return err
	}

	if frame.Response != nil {
		return r.routeResponse(frame.Response)
	}
	r.routeEvent(ctx, frame.Event)
	return nil
}

func (r *Router) routeResponse(resp *Response) error {
	if err := r.pending.resolve(resp); err != nil {
		r.metrics.unknownResponse()
		r.log.Errorf("Pending request %s not found.", resp.RequestID)
		return err
	}
	r.metrics.responseResolved(resp.StatusCode)
	return nil
}

func (r *Router) routeEvent(ctx context.Context, ev *Event) {
	r.metrics.eventReceived(ev.Type)

	if r.generic != nil {
		r.invoke(ctx, "generic", r.generic, ev)
	}

	handler, ok := r.handlers[normalizeEventType(ev.Type)]
	if !ok {
		r.log.Debugf("%s observed, no action", ev.Type)
		return
	}
	r.invoke(ctx, ev.Type, handler, ev)
}

// invoke runs one handler, containing any panic to this frame.
func (r *Router) invoke(ctx context.Context, name string, h EventHandler, ev *Event) {
	defer func() {
		if rec := recover(); rec != nil {
			r.metrics.handlerPanic()
			r.log.WithFields(logrus.Fields{
				"handler": name,
				"event":   ev.Type,
				"panic":   rec,
			}).Error("event handler panicked")
		}
	}()
	h(ctx, r.requester, ev)
}

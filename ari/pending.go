package ari

import (
	"context"
	"sync"
)

// Handle is returned by SendRequest: either a *Future to wait on or Fired
// when no reply is awaited.
type Handle interface {
	RequestID() string
	isHandle()
}

// Fired is the handle of a fire-and-forget request. No pending entry
// exists for it.
type Fired struct {
	ID string
}

func (f Fired) RequestID() string { return f.ID }
func (Fired) isHandle()           {}

// Future is a single-assignment result slot for one pending request.
type Future struct {
	id    string
	table *pendingTable

	done chan struct{}
	once sync.Once
	resp *Response
	err  error
}

func newFuture(id string, table *pendingTable) *Future {
	return &Future{id: id, table: table, done: make(chan struct{})}
}

func (f *Future) RequestID() string { return f.id }
func (*Future) isHandle()           {}

// Done is closed once the future is resolved, failed or cancelled.
func (f *Future) Done() <-chan struct{} { return f.done }

// complete fulfills the future exactly once; later calls are ignored.
func (f *Future) complete(resp *Response, err error) bool {
	fired := false
	f.once.Do(func() {
		f.resp = resp
		f.err = err
		fired = true
		close(f.done)
	})
	return fired
}

// Wait blocks until the response arrives or ctx ends. Abandoning the wait
// cancels the pending entry, so a late reply is discarded.
func (f *Future) Wait(ctx context.Context) (*Response, error) {
	select {
	case <-f.done:
		return f.resp, f.err
	case <-ctx.Done():
		if f.table != nil {
			f.table.cancel(f.id)
		}
		return nil, ctx.Err()
	}
}

// pendingTable maps correlation ids to futures.
type pendingTable struct {
	mu      sync.Mutex
	entries map[string]*Future
	metrics *Metrics
	closed  bool
}

func newPendingTable(m *Metrics) *pendingTable {
	return &pendingTable{entries: make(map[string]*Future), metrics: m}
}

func (t *pendingTable) register(id string) (*Future, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil, NewTransportError("send", ErrClosed)
	}
	if _, exists := t.entries[id]; exists {
		return nil, ErrDuplicateCorrelationID
	}
	f := newFuture(id, t)
	t.entries[id] = f
	t.metrics.setPending(len(t.entries))
	return f, nil
}

// resolve removes the entry for resp.RequestID and fulfills it.
func (t *pendingTable) resolve(resp *Response) error {
	t.mu.Lock()
	f, ok := t.entries[resp.RequestID]
	if ok {
		delete(t.entries, resp.RequestID)
		t.metrics.setPending(len(t.entries))
	}
	t.mu.Unlock()

	if !ok {
		return &UnknownCorrelationIDError{RequestID: resp.RequestID}
	}
	f.complete(resp, nil)
	return nil
}

// cancel removes the entry without fulfilling it. Waiters still blocked on
// the future observe ErrCanceled.
func (t *pendingTable) cancel(id string) bool {
	t.mu.Lock()
	f, ok := t.entries[id]
	if ok {
		delete(t.entries, id)
		t.metrics.setPending(len(t.entries))
	}
	t.mu.Unlock()

	if ok {
		f.complete(nil, ErrCanceled)
	}
	return ok
}

// failAll drains the table, failing every waiter with err. The table is
// closed afterwards: register fails with ErrClosed.
func (t *pendingTable) failAll(err error) int {
	t.mu.Lock()
	t.closed = true
	entries := t.entries
	t.entries = make(map[string]*Future)
	t.metrics.setPending(0)
	t.mu.Unlock()

	for _, f := range entries {
		f.complete(nil, err)
	}
	return len(entries)
}

func (t *pendingTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

func (t *pendingTable) has(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.entries[id]
	return ok
}

package ari

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingRegisterResolve(t *testing.T) {
	table := newPendingTable(nil)
	f, err := table.register("a")
	require.NoError(t, err)
	assert.True(t, table.has("a"))

	resp := &Response{RequestID: "a", StatusCode: 200}
	require.NoError(t, table.resolve(resp))
	assert.False(t, table.has("a"))

	got, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Same(t, resp, got)
}

func TestPendingDuplicate(t *testing.T) {
	table := newPendingTable(nil)
	_, err := table.register("a")
	require.NoError(t, err)
	_, err = table.register("a")
	assert.ErrorIs(t, err, ErrDuplicateCorrelationID)
	assert.Equal(t, 1, table.len())
}

func TestPendingResolveTwice(t *testing.T) {
	table := newPendingTable(nil)
	f, err := table.register("a")
	require.NoError(t, err)

	first := &Response{RequestID: "a", StatusCode: 200}
	require.NoError(t, table.resolve(first))

	err = table.resolve(&Response{RequestID: "a", StatusCode: 500})
	assert.ErrorIs(t, err, ErrUnknownCorrelationID)

	got, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 200, got.StatusCode)
}

func TestPendingUnknownLeavesOthers(t *testing.T) {
	table := newPendingTable(nil)
	f, err := table.register("a")
	require.NoError(t, err)

	err = table.resolve(&Response{RequestID: "zzz"})
	var unknown *UnknownCorrelationIDError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "zzz", unknown.RequestID)

	assert.True(t, table.has("a"))
	select {
	case <-f.Done():
		t.Fatal("unrelated future must stay pending")
	default:
	}
}

func TestPendingCancelThenLateResolve(t *testing.T) {
	table := newPendingTable(nil)
	f, err := table.register("a")
	require.NoError(t, err)

	assert.True(t, table.cancel("a"))
	assert.False(t, table.cancel("a"))
	assert.Equal(t, 0, table.len())

	err = table.resolve(&Response{RequestID: "a"})
	assert.ErrorIs(t, err, ErrUnknownCorrelationID)

	_, err = f.Wait(context.Background())
	assert.ErrorIs(t, err, ErrCanceled)
}

func TestFutureWaitAbandonCancelsEntry(t *testing.T) {
	table := newPendingTable(nil)
	f, err := table.register("a")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = f.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, table.has("a"))

	assert.Error(t, table.resolve(&Response{RequestID: "a"}))
}

func TestPendingFailAll(t *testing.T) {
	table := newPendingTable(nil)
	a, _ := table.register("a")
	b, _ := table.register("b")

	cause := NewTransportError("receive", ErrClosed)
	assert.Equal(t, 2, table.failAll(cause))
	assert.Equal(t, 0, table.len())

	for _, f := range []*Future{a, b} {
		_, err := f.Wait(context.Background())
		assert.ErrorIs(t, err, ErrClosed)
	}
}

func TestFiredHandle(t *testing.T) {
	var h Handle = Fired{ID: "x"}
	assert.Equal(t, "x", h.RequestID())
	_, isFuture := h.(*Future)
	assert.False(t, isFuture)
}

func TestRegisterAfterFailAllIsRejected(t *testing.T) {
	table := newPendingTable(nil)
	table.failAll(NewTransportError("receive", errors.New("connection reset")))

	f, err := table.register("late")
	assert.Nil(t, f)
	var te *TransportError
	require.True(t, errors.As(err, &te))
	assert.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, 0, table.len())
}

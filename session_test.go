package main

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLog() *logrus.Entry {
	logger, _ := test.NewNullLogger()
	return logrus.NewEntry(logger)
}

func TestSessionHappyPath(t *testing.T) {
	ctx := context.Background()
	logger, hook := test.NewNullLogger()
	s := NewSession("C1", "PJSIP/in", logrus.NewEntry(logger))
	assert.Equal(t, StateNone, s.State())

	require.NoError(t, s.Transition(ctx, evEstablish))
	assert.Equal(t, StateEstablishingBridge, s.State())
	require.NoError(t, s.Transition(ctx, evDial))
	assert.Equal(t, StateChannelDialing, s.State())
	require.NoError(t, s.Transition(ctx, evAnswer))
	assert.Equal(t, StateActive, s.State())

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "session answer: channel_dialing -> active", hook.LastEntry().Message)
	assert.Equal(t, "C1", hook.LastEntry().Data["channel"])
}

func TestSessionRejectsOutOfOrderEvents(t *testing.T) {
	ctx := context.Background()
	s := NewSession("C1", "PJSIP/in", quietLog())

	assert.Error(t, s.Transition(ctx, evAnswer))
	assert.Error(t, s.Transition(ctx, evDial))
	assert.Equal(t, StateNone, s.State())
}

func TestSessionTeardown(t *testing.T) {
	ctx := context.Background()
	s := NewSession("C1", "PJSIP/in", quietLog())
	require.NoError(t, s.Transition(ctx, evEstablish))
	s.SetBridge("B1")
	require.True(t, s.SetOther("C2", "PJSIP/out"))

	other, bridge, ok := s.Teardown(ctx)
	require.True(t, ok)
	assert.Equal(t, "C2", other)
	assert.Equal(t, "B1", bridge)
	assert.Equal(t, StateTearingDown, s.State())
	assert.True(t, s.TearingDown())

	_, _, ok = s.Teardown(ctx)
	assert.False(t, ok, "teardown runs once")

	assert.False(t, s.SetOther("C3", "PJSIP/late"))
	id, name := s.Other()
	assert.Equal(t, "C2", id)
	assert.Equal(t, "PJSIP/out", name)
	assert.Error(t, s.Transition(ctx, evDial))
}

func TestCallStateString(t *testing.T) {
	assert.Equal(t, "establishing_bridge", StateEstablishingBridge.String())
	assert.Equal(t, "unknown", CallState(42).String())
	assert.Equal(t, StateActive, parseCallState("active"))
	assert.Equal(t, StateNone, parseCallState("bogus"))
}

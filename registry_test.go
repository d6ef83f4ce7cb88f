package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryAddGetRemove(t *testing.T) {
	r := NewRegistry()
	s := NewSession("C1", "PJSIP/in", quietLog())

	require.True(t, r.Add(s))
	assert.False(t, r.Add(NewSession("C1", "PJSIP/dup", quietLog())), "one live session per incoming channel")
	assert.Equal(t, 1, r.Len())

	got, ok := r.Get("C1")
	require.True(t, ok)
	assert.Same(t, s, got)

	removed, ok := r.Remove("C1")
	require.True(t, ok)
	assert.Same(t, s, removed)
	_, ok = r.Remove("C1")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestRegistryCompanionIndex(t *testing.T) {
	r := NewRegistry()
	s := NewSession("C1", "PJSIP/in", quietLog())
	require.True(t, r.Add(s))

	r.LinkOther(s, "C2")
	got, ok := r.ByOther("C2")
	require.True(t, ok)
	assert.Same(t, s, got)

	r.Remove("C1")
	_, ok = r.ByOther("C2")
	assert.False(t, ok)

	r.LinkOther(s, "C3")
	_, ok = r.ByOther("C3")
	assert.False(t, ok, "removed sessions are not indexed")
}

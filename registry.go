package main

import "sync"

// Registry owns the live sessions, keyed by incoming channel id, with a
// secondary index from companion channel id.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	byOther  map[string]string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		byOther:  make(map[string]string),
	}
}

// Add stores s. It reports false when a session for the same incoming
// channel already exists.
func (r *Registry) Add(s *Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.IncomingChannelID]; ok {
		return false
	}
	r.sessions[s.IncomingChannelID] = s
	return true
}

// Get returns the session of an incoming channel.
func (r *Registry) Get(incomingID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[incomingID]
	return s, ok
}

// LinkOther indexes the session by its companion channel.
func (r *Registry) LinkOther(s *Session, otherID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s.IncomingChannelID]; !ok {
		return
	}
	r.byOther[otherID] = s.IncomingChannelID
}

// ByOther returns the session owning a companion channel.
func (r *Registry) ByOther(otherID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byOther[otherID]
	if !ok {
		return nil, false
	}
	s, ok := r.sessions[id]
	return s, ok
}

// Remove deletes the session of an incoming channel and its index entry.
func (r *Registry) Remove(incomingID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[incomingID]
	if !ok {
		return nil, false
	}
	delete(r.sessions, incomingID)
	for other, id := range r.byOther {
		if id == incomingID {
			delete(r.byOther, other)
		}
	}
	return s, true
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

package main

import (
	"strings"
	"sync"
)

// EndpointDirectory maps dialplan extensions to the endpoint dialed for the
// far end of a call.
type EndpointDirectory struct {
	mu         sync.RWMutex
	fallback   string
	extensions map[string]string
}

// NewEndpointDirectory creates a directory resolving unknown extensions to
// fallback.
func NewEndpointDirectory(fallback string) *EndpointDirectory {
	return &EndpointDirectory{
		fallback:   fallback,
		extensions: make(map[string]string),
	}
}

// Set replaces directory content with the provided extension map.
func (d *EndpointDirectory) Set(entries map[string]string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.extensions = make(map[string]string, len(entries))
	for ext, endpoint := range entries {
		d.addLocked(ext, endpoint)
	}
}

// Update adds or replaces a single extension.
func (d *EndpointDirectory) Update(ext, endpoint string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.addLocked(ext, endpoint)
}

// addLocked stores one entry; caller must hold write lock.
func (d *EndpointDirectory) addLocked(ext, endpoint string) {
	ext = strings.TrimSpace(ext)
	endpoint = strings.TrimSpace(endpoint)
	if ext == "" || endpoint == "" {
		return
	}
	d.extensions[ext] = endpoint
}

// Resolve returns the endpoint for ext, or the fallback.
func (d *EndpointDirectory) Resolve(ext string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if endpoint, ok := d.extensions[ext]; ok {
		return endpoint
	}
	return d.fallback
}

// Len returns the number of explicit entries.
func (d *EndpointDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.extensions)
}

package mfa

import (
	"maps"
	"strings"
	"sync"
)

// ChannelRegistry holds the delivery channels available to the challenge
// engine, keyed by lowercased channel name. Each Service owns its own
// registry; there is no process-wide instance, so independent facades (and
// tests) never share channel state.
type ChannelRegistry struct {
	mu       sync.RWMutex
	channels map[string]Channel
}

// NewChannelRegistry creates an empty registry.
func NewChannelRegistry() *ChannelRegistry {
	return &ChannelRegistry{channels: make(map[string]Channel)}
}

// Register stores the channel under its lowercased name, replacing any
// previous channel of the same name (last registration wins).
func (r *ChannelRegistry) Register(channel Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels[strings.ToLower(channel.Name())] = channel
}

// Get returns the channel registered under the name, case-insensitively, or
// nil when none exists.
func (r *ChannelRegistry) Get(name string) Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.channels[strings.ToLower(name)]
}

// Has reports whether a channel is registered under the name.
func (r *ChannelRegistry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.channels[strings.ToLower(name)]
	return ok
}

// All returns a copy of the name-to-channel mapping.
func (r *ChannelRegistry) All() map[string]Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.channels)
}

// Clear empties the registry. Used when reloading configuration.
func (r *ChannelRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels = make(map[string]Channel)
}

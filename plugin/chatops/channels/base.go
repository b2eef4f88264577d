// Package channels provides the NotifyChannel interface for all chat
// platform integrations and a router keyed by platform.
package channels

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"github.com/sprintlens/sprintlens/plugin/chatops"
)

// ErrNoChannelForPlatform is returned when no channel is registered for the
// requested platform.
var ErrNoChannelForPlatform = errors.New("no channel registered for platform")

// NotifyChannel defines the posting interface for one chat platform.
type NotifyChannel interface {
	// Name returns the platform name (e.g., "slack", "telegram").
	Name() chatops.Platform

	// Post sends a message to the platform.
	Post(ctx context.Context, msg *chatops.OutgoingMessage) error
}

// Router routes outgoing messages to the appropriate channel.
// Concurrent-safe for Register and Get operations.
type Router struct {
	mu       sync.RWMutex
	registry map[chatops.Platform]NotifyChannel
}

// NewRouter creates a new channel router.
func NewRouter() *Router {
	return &Router{registry: make(map[chatops.Platform]NotifyChannel)}
}

// Register registers a notify channel for a platform.
func (r *Router) Register(channel NotifyChannel) {
	r.mu.Lock()
	r.registry[channel.Name()] = channel
	r.mu.Unlock()
}

// Get returns the channel for a platform, or nil if not registered.
func (r *Router) Get(platform chatops.Platform) NotifyChannel {
	r.mu.RLock()
	ch := r.registry[platform]
	r.mu.RUnlock()
	return ch
}

// Post sends a message through the platform's registered channel.
func (r *Router) Post(ctx context.Context, platform chatops.Platform, msg *chatops.OutgoingMessage) error {
	channel := r.Get(platform)
	if channel == nil {
		return ErrNoChannelForPlatform
	}
	return channel.Post(ctx, msg)
}

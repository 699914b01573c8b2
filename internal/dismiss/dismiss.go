// Package dismiss routes pointer clicks to at most one outside-click listener.
package dismiss

import (
	"errors"
	"sync"
)

// ErrReleased is returned when dismissing a released subscription.
var ErrReleased = errors.New("subscription released")

// Target identifies where a click landed.
type Target int

const (
	TargetOutside Target = iota
	TargetMenu
	TargetInput
	TargetShowMoreTokens
	TargetShowMorePools
)

var targetNames = map[Target]string{
	TargetOutside:        "outside",
	TargetMenu:           "menu",
	TargetInput:          "input",
	TargetShowMoreTokens: "more-tokens",
	TargetShowMorePools:  "more-pools",
}

// String returns the wire name of the target.
func (t Target) String() string {
	if name, ok := targetNames[t]; ok {
		return name
	}
	return "outside"
}

// ParseTarget maps a wire name to a Target. Unknown names are outside clicks.
func ParseTarget(name string) Target {
	for t, n := range targetNames {
		if n == name {
			return t
		}
	}
	return TargetOutside
}

// Hub holds the single active subscription of a menu.
type Hub struct {
	mu     sync.Mutex
	active *Subscription
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{}
}

// Acquire installs onDismiss as the outside-click listener, releasing any
// previous subscription first.
func (h *Hub) Acquire(onDismiss func()) *Subscription {
	h.mu.Lock()
	prev := h.active
	sub := &Subscription{hub: h, onDismiss: onDismiss}
	h.active = sub
	h.mu.Unlock()

	if prev != nil {
		prev.Release()
	}
	return sub
}

// Active reports whether a listener is installed.
func (h *Hub) Active() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.active != nil
}

// Click delivers a click. Only clicks outside every protected region
// dismiss; it reports whether a listener was dismissed.
func (h *Hub) Click(target Target) bool {
	if target != TargetOutside {
		return false
	}

	h.mu.Lock()
	sub := h.active
	h.mu.Unlock()

	if sub == nil {
		return false
	}
	return sub.Dismiss() == nil
}

// Close releases the active subscription.
func (h *Hub) Close() {
	h.mu.Lock()
	sub := h.active
	h.mu.Unlock()

	if sub != nil {
		sub.Release()
	}
}

// Subscription is one installed outside-click listener.
type Subscription struct {
	hub       *Hub
	onDismiss func()
	released  bool // guarded by hub.mu
}

// Release uninstalls the listener. Calling it more than once is a no-op.
func (s *Subscription) Release() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	s.releaseLocked()
}

// Released reports whether the subscription was released.
func (s *Subscription) Released() bool {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	return s.released
}

// Dismiss releases the subscription and runs its handler.
func (s *Subscription) Dismiss() error {
	s.hub.mu.Lock()
	if s.released {
		s.hub.mu.Unlock()
		return ErrReleased
	}
	s.releaseLocked()
	s.hub.mu.Unlock()

	if s.onDismiss != nil {
		s.onDismiss()
	}
	return nil
}

func (s *Subscription) releaseLocked() {
	s.released = true
	if s.hub.active == s {
		s.hub.active = nil
	}
}

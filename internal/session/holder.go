package session

import (
	"sync"

	"github.com/google/uuid"
)

// Holder tracks the most recent session for the process and republishes
// lifecycle changes to in-process consumers. Nothing may read from it before
// Init has resolved; callers wait on Ready.
type Holder struct {
	store *Store

	mu      sync.RWMutex
	current *Session

	ready     chan struct{}
	readyOnce sync.Once
}

// NewHolder constructs a Holder bound to the store for its whole lifetime.
func NewHolder(store *Store) *Holder {
	return &Holder{
		store: store,
		ready: make(chan struct{}),
	}
}

// Init performs the initial session fetch, marks the holder ready and then
// follows session changes until the restore channel closes. A fresh process
// has no current session, so the initial fetch resolves to nil.
func (h *Holder) Init() {
	events := h.store.Subscribe()

	h.readyOnce.Do(func() { close(h.ready) })

	go func() {
		for event := range events {
			h.apply(event)
		}
	}()
}

func (h *Holder) apply(event Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch event.Type {
	case EventSignedIn, EventRefreshed:
		h.current = event.Session
	case EventSignedOut:
		if h.current != nil && h.current.ID == event.Session.ID {
			h.current = nil
		}
	}
}

// Ready closes once the initial fetch has resolved.
func (h *Holder) Ready() <-chan struct{} {
	return h.ready
}

// Current returns the tracked session, nil when signed out.
func (h *Holder) Current() *Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// User returns the tracked session's user ID, false when signed out.
func (h *Holder) User() (uuid.UUID, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.current == nil {
		return uuid.Nil, false
	}
	return h.current.UserID, true
}

// IsAuthenticated reports whether a session is currently tracked.
func (h *Holder) IsAuthenticated() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current != nil
}

// SignOut revokes the tracked session through the store. Store failures are
// returned to the caller rather than swallowed.
func (h *Holder) SignOut() error {
	h.mu.RLock()
	current := h.current
	h.mu.RUnlock()

	if current == nil {
		return nil
	}
	return h.store.Revoke(current.ID)
}

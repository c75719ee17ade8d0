package room

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/coder/quartz"
)

var (
	// ErrReconnectTimeout is returned when a seat's window closes before
	// its player comes back.
	ErrReconnectTimeout = errors.New("reconnection window expired")
	// ErrNoReconnection is returned when nobody is waiting for the session.
	ErrNoReconnection = errors.New("no reconnection pending for session")
)

// Reconnector implements Host.AllowReconnection on a clock. Each
// disconnected session gets a waiter that Reconnect resolves, unless the
// window closes first.
type Reconnector struct {
	clock quartz.Clock

	mu      sync.Mutex
	waiting map[string]*waiter
}

type waiter struct {
	done chan struct{}
	ok   bool
}

// NewReconnector creates a reconnector running its windows on clock.
func NewReconnector(clock quartz.Clock) *Reconnector {
	return &Reconnector{
		clock:   clock,
		waiting: make(map[string]*waiter),
	}
}

// AllowReconnection blocks until sessionID reconnects, the window elapses or
// ctx is cancelled.
func (r *Reconnector) AllowReconnection(ctx context.Context, sessionID string, window time.Duration) error {
	w := &waiter{done: make(chan struct{})}
	r.mu.Lock()
	if old, ok := r.waiting[sessionID]; ok {
		r.resolveLocked(sessionID, old, false)
	}
	// the window is armed before the waiter is visible to Pending
	timer := r.clock.AfterFunc(window, func() {
		r.resolve(sessionID, w, false)
	}, "reconnect", sessionID)
	r.waiting[sessionID] = w
	r.mu.Unlock()
	defer timer.Stop()

	select {
	case <-w.done:
	case <-ctx.Done():
		if r.resolve(sessionID, w, false) {
			return ctx.Err()
		}
		<-w.done
	}
	if !w.ok {
		return ErrReconnectTimeout
	}
	return nil
}

// Reconnect resolves the pending window for sessionID. It fails when the
// window already closed or was never opened.
func (r *Reconnector) Reconnect(sessionID string) error {
	r.mu.Lock()
	w, ok := r.waiting[sessionID]
	r.mu.Unlock()
	if !ok || !r.resolve(sessionID, w, true) {
		return ErrNoReconnection
	}
	return nil
}

// Pending reports whether sessionID has an open window.
func (r *Reconnector) Pending(sessionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.waiting[sessionID]
	return ok
}

// resolve settles w once; it reports whether this call did it.
func (r *Reconnector) resolve(sessionID string, w *waiter, ok bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolveLocked(sessionID, w, ok)
}

func (r *Reconnector) resolveLocked(sessionID string, w *waiter, ok bool) bool {
	if r.waiting[sessionID] != w {
		return false
	}
	delete(r.waiting, sessionID)
	w.ok = ok
	close(w.done)
	return true
}

package room

import "sync"

// mailbox is an unbounded FIFO of closures drained by a single goroutine.
// push never blocks, so timer callbacks and host goroutines can always
// hand work to the room.
type mailbox struct {
	mu     sync.Mutex
	items  []func()
	wake   chan struct{}
	closed bool
}

func newMailbox() *mailbox {
	return &mailbox{wake: make(chan struct{}, 1)}
}

// push enqueues fn. It returns false once the mailbox is closed.
func (m *mailbox) push(fn func()) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.items = append(m.items, fn)
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
	return true
}

func (m *mailbox) pop() (func(), bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.items) == 0 {
		return nil, false
	}
	fn := m.items[0]
	m.items[0] = nil
	m.items = m.items[1:]
	return fn, true
}

// close drops anything still queued and refuses new work.
func (m *mailbox) close() {
	m.mu.Lock()
	m.closed = true
	m.items = nil
	m.mu.Unlock()
}

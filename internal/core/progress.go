package core

import "sync"

// listenerBuffer is the channel capacity of each progress subscriber.
const listenerBuffer = 32

// progressTracker fans progress values out to subscribers.
//
// Current never decreases and Total never goes back to zero once known, so
// every subscriber observes a monotone sequence. A slow subscriber loses
// its oldest buffered values, never the newest.
type progressTracker struct {
	importID string

	mu        sync.Mutex
	current   ImportProgress
	listeners []chan ImportProgress
	closed    bool
}

func newProgressTracker(importID string) *progressTracker {
	return &progressTracker{
		importID: importID,
		current:  ImportProgress{ImportID: importID, Phase: PhaseUploading},
	}
}

// subscribe registers a listener and sends it the current value.
func (t *progressTracker) subscribe() <-chan ImportProgress {
	ch := make(chan ImportProgress, listenerBuffer)

	t.mu.Lock()
	defer t.mu.Unlock()

	ch <- t.current
	if t.closed {
		close(ch)
		return ch
	}
	t.listeners = append(t.listeners, ch)
	return ch
}

func (t *progressTracker) snapshot() ImportProgress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// publish records p and notifies every listener. A terminal phase closes
// all listeners; later values are ignored.
func (t *progressTracker) publish(p ImportProgress) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}

	p.ImportID = t.importID
	if p.Total == 0 {
		p.Total = t.current.Total
	}
	if p.Current < t.current.Current {
		p.Current = t.current.Current
	}
	t.current = p

	for _, ch := range t.listeners {
		sendLatest(ch, p)
	}

	if p.Phase.Terminal() {
		for _, ch := range t.listeners {
			close(ch)
		}
		t.listeners = nil
		t.closed = true
	}
}

// sendLatest delivers p without blocking, dropping the oldest buffered
// value when ch is full.
func sendLatest(ch chan ImportProgress, p ImportProgress) {
	select {
	case ch <- p:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- p:
	default:
	}
}

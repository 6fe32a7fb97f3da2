package editor

import (
	"time"
)

// EventKind names what changed.
type EventKind string

const (
	EventAdded     EventKind = "added"
	EventMoved     EventKind = "moved"
	EventProps     EventKind = "props"
	EventDeleted   EventKind = "deleted"
	EventLoaded    EventKind = "loaded"
	EventSelection EventKind = "selection"
	EventMode      EventKind = "mode"
)

// ChangeEvent reports one applied change. NodeID is the root of the
// affected subtree; it is ROOT for document-wide events.
type ChangeEvent struct {
	Kind      EventKind `json:"kind"`
	NodeID    string    `json:"nodeId,omitempty"`
	NodeIDs   []string  `json:"nodeIds,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Watch returns a channel that receives change events.
func (e *Engine) Watch() <-chan ChangeEvent {
	e.watchMutex.Lock()
	defer e.watchMutex.Unlock()

	ch := make(chan ChangeEvent, 100)
	e.watchers = append(e.watchers, ch)
	return ch
}

// Unwatch removes a watcher channel and closes it.
func (e *Engine) Unwatch(ch <-chan ChangeEvent) {
	e.watchMutex.Lock()
	defer e.watchMutex.Unlock()

	for i, w := range e.watchers {
		if w == ch {
			close(w)
			e.watchers = append(e.watchers[:i], e.watchers[i+1:]...)
			break
		}
	}
}

func (e *Engine) emit(kind EventKind, nodeID string, ids ...string) {
	event := ChangeEvent{
		Kind:      kind,
		NodeID:    nodeID,
		NodeIDs:   ids,
		Timestamp: time.Now(),
	}

	e.watchMutex.Lock()
	defer e.watchMutex.Unlock()

	for _, w := range e.watchers {
		select {
		case w <- event:
		default:
			// Skip if channel is full
		}
	}
}

// Package history keeps a bounded, linear undo/redo log of whole-document
// snapshots. It knows how to record and walk snapshots, not when; callers
// decide when to checkpoint, usually through a Checkpointer.
package history

import (
	"bytes"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCapacity is the number of snapshots kept when none is given.
const DefaultCapacity = 50

// Entry is one immutable snapshot.
type Entry struct {
	ID        string
	Timestamp time.Time
	data      []byte
}

// Data returns a copy of the snapshot bytes.
func (e Entry) Data() []byte {
	return append([]byte(nil), e.data...)
}

// Manager is the undo/redo log. The zero value is not usable; call New.
type Manager struct {
	entries  []Entry
	cursor   int
	capacity int
	now      func() time.Time
	mutex    sync.Mutex
}

// New creates a Manager holding at most capacity snapshots. Non-positive
// capacities fall back to DefaultCapacity.
func New(capacity int) *Manager {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Manager{
		capacity: capacity,
		cursor:   -1,
		now:      time.Now,
	}
}

// Record appends snapshot unless it equals the snapshot at the cursor.
// Any redo branch after the cursor is discarded and the oldest entry is
// evicted once capacity is exceeded. Reports whether an entry was added.
func (m *Manager) Record(snapshot []byte) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.cursor >= 0 && bytes.Equal(m.entries[m.cursor].data, snapshot) {
		return false
	}

	m.entries = append(m.entries[:m.cursor+1], Entry{
		ID:        uuid.NewString(),
		Timestamp: m.now(),
		data:      append([]byte(nil), snapshot...),
	})
	if over := len(m.entries) - m.capacity; over > 0 {
		m.entries = append([]Entry(nil), m.entries[over:]...)
	}
	m.cursor = len(m.entries) - 1
	return true
}

// Undo steps the cursor back and returns that snapshot. It is a no-op
// returning false at the oldest entry.
func (m *Manager) Undo() ([]byte, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.cursor <= 0 {
		return nil, false
	}
	m.cursor--
	return m.entries[m.cursor].Data(), true
}

// Redo steps the cursor forward and returns that snapshot. It is a no-op
// returning false at the newest entry.
func (m *Manager) Redo() ([]byte, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.cursor >= len(m.entries)-1 {
		return nil, false
	}
	m.cursor++
	return m.entries[m.cursor].Data(), true
}

// CanUndo reports whether Undo would move the cursor.
func (m *Manager) CanUndo() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.cursor > 0
}

// CanRedo reports whether Redo would move the cursor.
func (m *Manager) CanRedo() bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.cursor >= 0 && m.cursor < len(m.entries)-1
}

// Clear drops every entry.
func (m *Manager) Clear() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.entries = nil
	m.cursor = -1
}

// Len returns the number of entries.
func (m *Manager) Len() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.entries)
}

// Cursor returns the current index, or -1 when empty.
func (m *Manager) Cursor() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.cursor
}

// Capacity returns the maximum number of entries kept.
func (m *Manager) Capacity() int {
	return m.capacity
}

// Current returns the entry at the cursor.
func (m *Manager) Current() (Entry, bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if m.cursor < 0 {
		return Entry{}, false
	}
	e := m.entries[m.cursor]
	e.data = e.Data()
	return e, true
}

// Status summarizes the log for display.
type Status struct {
	Len      int  `json:"len"`
	Cursor   int  `json:"cursor"`
	Capacity int  `json:"capacity"`
	CanUndo  bool `json:"canUndo"`
	CanRedo  bool `json:"canRedo"`
}

// Status returns a consistent snapshot of the log's position.
func (m *Manager) Status() Status {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return Status{
		Len:      len(m.entries),
		Cursor:   m.cursor,
		Capacity: m.capacity,
		CanUndo:  m.cursor > 0,
		CanRedo:  m.cursor >= 0 && m.cursor < len(m.entries)-1,
	}
}

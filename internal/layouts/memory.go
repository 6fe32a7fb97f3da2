package layouts

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// MemoryStore keeps layouts in process memory.
type MemoryStore struct {
	layouts map[string]Layout
	order   []string
	mutex   sync.RWMutex
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{layouts: make(map[string]Layout)}
}

func (s *MemoryStore) Save(_ context.Context, l *Layout) error {
	if err := l.Validate(); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	l.UpdatedAt = time.Now().UTC()
	if existing, ok := s.layouts[l.ID]; ok {
		l.CreatedAt = existing.CreatedAt
	} else {
		if l.CreatedAt.IsZero() {
			l.CreatedAt = l.UpdatedAt
		}
		s.order = append(s.order, l.ID)
	}
	s.layouts[l.ID] = copyLayout(*l)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Layout, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	l, ok := s.layouts[id]
	if !ok {
		return nil, notFound(id)
	}
	out := copyLayout(l)
	return &out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.layouts[id]; !ok {
		return notFound(id)
	}
	delete(s.layouts, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Layout, error) {
	return s.ListByType(ctx, "")
}

// ListByType filters by kind; an empty kind matches everything.
func (s *MemoryStore) ListByType(_ context.Context, kind Kind) ([]Layout, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	out := make([]Layout, 0, len(s.order))
	for _, id := range s.order {
		l := s.layouts[id]
		if kind == "" || l.Type == kind {
			out = append(out, copyLayout(l))
		}
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }

func copyLayout(l Layout) Layout {
	l.CraftJSON = append(json.RawMessage(nil), l.CraftJSON...)
	return l
}

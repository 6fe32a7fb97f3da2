package server

import (
	"context"
	"sync"
	"time"

	"github.com/conneroisu/pagecraft/internal/editor"
	"github.com/conneroisu/pagecraft/internal/history"
	"github.com/conneroisu/pagecraft/internal/logging"
)

// Session serializes every request touching one editor engine, the way
// a UI event loop would, and checkpoints bursts of edits after a quiet
// period.
type Session struct {
	engine      *editor.Engine
	checkpoints *history.Checkpointer
	logger      logging.Logger
	mutex       sync.Mutex
}

// NewSession wraps engine. A non-positive delay uses
// history.DefaultCheckpointDelay.
func NewSession(engine *editor.Engine, delay time.Duration, logger logging.Logger) *Session {
	s := &Session{
		engine: engine,
		logger: logging.OrNop(logger).WithComponent("session"),
	}
	s.checkpoints = history.NewCheckpointer(delay, s.recordCheckpoint)
	return s
}

func (s *Session) recordCheckpoint() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, err := s.engine.Checkpoint(); err != nil {
		s.logger.Warn(context.Background(), err, "Checkpoint failed")
	}
}

// Do runs fn with exclusive access to the engine.
func (s *Session) Do(fn func(e *editor.Engine) error) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return fn(s.engine)
}

// Edit runs fn like Do and schedules a checkpoint when it succeeds.
func (s *Session) Edit(fn func(e *editor.Engine) error) error {
	if err := s.Do(fn); err != nil {
		return err
	}
	s.checkpoints.Touch()
	return nil
}

// Checkpoint records the current tree now. It reports whether a new
// entry was added. A checkpoint still scheduled afterwards finds nothing
// new and records nothing.
func (s *Session) Checkpoint() (bool, error) {
	var added bool
	err := s.Do(func(e *editor.Engine) error {
		var err error
		added, err = e.Checkpoint()
		return err
	})
	return added, err
}

// History runs fn after flushing pending edits into history, so an undo
// always steps back over them.
func (s *Session) History(fn func(e *editor.Engine) error) error {
	s.checkpoints.Flush()
	return s.Do(fn)
}

// Close records pending edits and stops the checkpointer.
func (s *Session) Close() {
	s.checkpoints.Flush()
	s.checkpoints.Stop()
}

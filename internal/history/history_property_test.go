//go:build property

package history

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestHistoryProperties checks recording and cursor movement.
func TestHistoryProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(4242)
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	// Property: recording the same snapshot twice adds one entry
	properties.Property("record is idempotent", prop.ForAll(
		func(s string) bool {
			m := New(10)
			first := m.Record([]byte(s))
			second := m.Record([]byte(s))
			return first && !second && m.Len() == 1
		},
		gen.AnyString(),
	))

	// Property: N undos return to the first snapshot, N redos to the last
	properties.Property("undo and redo are symmetric", prop.ForAll(
		func(n int) bool {
			m := New(n + 1)
			for i := 0; i <= n; i++ {
				m.Record([]byte(fmt.Sprintf("state-%d", i)))
			}

			var got []byte
			for i := 0; i < n; i++ {
				var ok bool
				if got, ok = m.Undo(); !ok {
					return false
				}
			}
			if n > 0 && string(got) != "state-0" {
				return false
			}
			if m.CanUndo() {
				return false
			}

			for i := 0; i < n; i++ {
				var ok bool
				if got, ok = m.Redo(); !ok {
					return false
				}
			}
			if n > 0 && string(got) != fmt.Sprintf("state-%d", n) {
				return false
			}
			return !m.CanRedo()
		},
		gen.IntRange(0, 60),
	))

	// Property: the log never exceeds its capacity
	properties.Property("capacity is respected", prop.ForAll(
		func(capacity, records int) bool {
			m := New(capacity)
			for i := 0; i < records; i++ {
				m.Record([]byte(fmt.Sprint(i)))
			}
			return m.Len() <= capacity && m.Cursor() == m.Len()-1
		},
		gen.IntRange(1, 20),
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}

//go:build property

package watcher

import (
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestDebouncerProperties checks that a flushed batch holds the latest
// event for each distinct path, sorted by path.
func TestDebouncerProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(9876)
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("flush keeps the latest event per path", prop.ForAll(
		func(paths []int, kinds []int) bool {
			if len(paths) == 0 {
				return true
			}
			d := newDebouncer(time.Hour)
			defer d.stop()

			latest := map[string]EventType{}
			for i, p := range paths {
				kind := EventTypeModified
				if i < len(kinds) {
					kind = EventType(kinds[i] % 4)
				}
				path := "f" + strconv.Itoa(p) + ".json"
				d.addEvent(ChangeEvent{Type: kind, Path: path})
				latest[path] = kind
			}
			d.flush()

			batch := <-d.output
			if len(batch) != len(latest) {
				return false
			}
			if !sort.SliceIsSorted(batch, func(i, j int) bool { return batch[i].Path < batch[j].Path }) {
				return false
			}
			for _, e := range batch {
				if latest[e.Path] != e.Type {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 9)),
		gen.SliceOf(gen.IntRange(0, 3)),
	))

	properties.TestingRun(t)
}

//go:build property

package editor

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/conneroisu/pagecraft/internal/document"
	"github.com/conneroisu/pagecraft/internal/history"
	"github.com/conneroisu/pagecraft/internal/props"
	"github.com/conneroisu/pagecraft/internal/registry"
)

var opTypes = []string{"Container", "Grid", "Text", "Button", "Image"}

// apply interprets seed as one editor operation against the live ids.
// Rejected operations are expected and ignored.
func apply(e *Engine, seed int) {
	ids := e.Tree().IDs()
	pick := func(n int) string { return ids[n%len(ids)] }

	switch seed % 7 {
	case 0, 1:
		_, _ = e.AddNode(opTypes[(seed/7)%len(opTypes)], nil, pick(seed/3), seed%4)
	case 2:
		_ = e.MoveNode(pick(seed/5), pick(seed/11), seed%3)
	case 3:
		_ = e.DeleteNode(pick(seed / 13))
	case 4:
		_ = e.SetProp(pick(seed/17), "label", seed)
	case 5:
		e.Select([]string{pick(seed / 19)}, SelectReplace)
		_, _ = e.DuplicateSelected()
	case 6:
		_, _ = e.Checkpoint()
		if seed%2 == 0 {
			_, _ = e.Undo()
		} else {
			_, _ = e.Redo()
		}
	}
}

func invariantHolds(tree *document.Tree) bool {
	if tree.Validate() != nil {
		return false
	}
	seen := map[string]int{}
	for _, id := range tree.IDs() {
		for _, c := range tree.Children(id) {
			seen[c]++
		}
		for _, a := range tree.AncestorPath(id) {
			if a == id {
				return false
			}
		}
	}
	for _, id := range tree.IDs() {
		if id == document.RootID {
			if seen[id] != 0 {
				return false
			}
			continue
		}
		if seen[id] != 1 {
			return false
		}
	}
	return true
}

// TestEngineProperties checks the tree invariant and history symmetry
// under random operation sequences.
func TestEngineProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.Rng.Seed(777)
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)
	reg := registry.Default()
	reg.Freeze()

	// Property: every reachable state is a single well-formed tree
	properties.Property("tree invariant holds", prop.ForAll(
		func(seeds []int) bool {
			e, err := New(nil, Options{Registry: reg, History: history.New(20), IDs: document.SequentialIDs("p")})
			if err != nil {
				return false
			}
			for _, s := range seeds {
				apply(e, s)
				if !invariantHolds(e.Tree()) {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(0, 100000)),
	))

	// Property: N checkpointed edits undo to the start and redo to the end
	properties.Property("undo and redo are symmetric", prop.ForAll(
		func(n int) bool {
			e, err := New(nil, Options{Registry: reg, History: history.New(n + 1), IDs: document.SequentialIDs("s")})
			if err != nil {
				return false
			}
			initial := e.Tree()
			for i := 0; i < n; i++ {
				if _, err := e.AddNode("Text", props.Bag{"text": i}, document.RootID, -1); err != nil {
					return false
				}
				if _, err := e.Checkpoint(); err != nil {
					return false
				}
			}
			final := e.Tree()

			for i := 0; i < n; i++ {
				if ok, err := e.Undo(); !ok || err != nil {
					return false
				}
			}
			if !e.Tree().Equal(initial) {
				return false
			}
			for i := 0; i < n; i++ {
				if ok, err := e.Redo(); !ok || err != nil {
					return false
				}
			}
			return e.Tree().Equal(final)
		},
		gen.IntRange(0, 30),
	))

	properties.TestingRun(t)
}

package codec

import (
	"testing"

	"github.com/conneroisu/pagecraft/internal/registry"
)

// FuzzDeserialize checks that arbitrary input never panics and that any
// document that loads also validates and re-serializes.
func FuzzDeserialize(f *testing.F) {
	f.Add([]byte(craftDoc))
	f.Add([]byte(`{}`))
	f.Add([]byte(`{"ROOT":null}`))
	f.Add([]byte(`"{\"ROOT\":{\"type\":\"div\",\"isCanvas\":true,\"nodes\":[]}}"`))
	f.Add([]byte(`{"ROOT":{"type":{"resolvedName":"Container"},"isCanvas":true,"nodes":["ROOT"]}}`))
	f.Add([]byte(`{"ROOT":{"type":{"resolvedName":"X"},"isCanvas":true,"nodes":["a"]},"a":{"type":1}}`))

	reg := registry.Default()
	reg.Freeze()

	f.Fuzz(func(t *testing.T, data []byte) {
		if len(data) > 1<<16 {
			t.Skip("input too large")
		}

		tree, err := Deserialize(data, reg)
		if err != nil {
			return
		}
		if err := tree.Validate(); err != nil {
			t.Fatalf("loaded tree is invalid: %v", err)
		}
		if _, err := Serialize(tree); err != nil {
			t.Fatalf("loaded tree does not serialize: %v", err)
		}
	})
}

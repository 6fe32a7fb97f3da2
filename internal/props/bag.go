// Package props models component property bags. On the wire and inside
// the document tree a node's props are a JSON-compatible Bag; each
// component type also has a strongly typed struct the bag decodes into,
// with defaults applied and values validated.
package props

import (
	"sort"
)

// Bag is the untyped property map stored on a node.
type Bag map[string]any

// Clone returns a deep copy of b. Nested maps and slices are copied so
// the result never aliases the original.
func (b Bag) Clone() Bag {
	if b == nil {
		return Bag{}
	}
	out := make(Bag, len(b))
	for k, v := range b {
		out[k] = cloneValue(v)
	}
	return out
}

// Keys returns the bag's keys in sorted order.
func (b Bag) Keys() []string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value for key, falling back to defaults.
func (b Bag) Get(key string, defaults Bag) (any, bool) {
	if v, ok := b[key]; ok {
		return v, true
	}
	v, ok := defaults[key]
	return v, ok
}

// WithProp returns a copy of b with key set to value.
func WithProp(b Bag, key string, value any) Bag {
	out := b.Clone()
	out[key] = cloneValue(value)
	return out
}

// Merge layers overrides on top of defaults and returns a new bag.
func Merge(defaults, overrides Bag) Bag {
	out := defaults.Clone()
	for k, v := range overrides {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return map[string]any(Bag(t).Clone())
	case Bag:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	case []float64:
		return append([]float64(nil), t...)
	case []int:
		return append([]int(nil), t...)
	default:
		return v
	}
}

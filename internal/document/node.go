// Package document holds the in-memory page tree: nodes keyed by id with
// parent and ordered child links and a single distinguished ROOT.
package document

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/conneroisu/pagecraft/internal/props"
	"github.com/conneroisu/pagecraft/internal/registry"
)

// RootID is the reserved id of the document root.
const RootID = "ROOT"

// Node is one placed component instance.
type Node struct {
	ID          string
	Type        string
	Props       props.Bag
	IsCanvas    bool
	Parent      string
	Children    []string
	DisplayName string
	Hidden      bool
	Custom      map[string]any
	// LinkedNodes are named slots carried through from stored documents.
	LinkedNodes map[string]string
	// Rules overrides the registry placement rules for this node.
	Rules *registry.Rules
}

// Clone returns a deep copy of n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := *n
	out.Props = n.Props.Clone()
	out.Children = append([]string(nil), n.Children...)
	if n.Custom != nil {
		out.Custom = map[string]any(props.Bag(n.Custom).Clone())
	}
	if n.LinkedNodes != nil {
		out.LinkedNodes = make(map[string]string, len(n.LinkedNodes))
		for k, v := range n.LinkedNodes {
			out.LinkedNodes[k] = v
		}
	}
	if n.Rules != nil {
		r := *n.Rules
		r.Accepts = append([]string(nil), n.Rules.Accepts...)
		out.Rules = &r
	}
	return &out
}

// IsRoot reports whether n is the document root.
func (n *Node) IsRoot() bool {
	return n.ID == RootID
}

// EffectiveRules returns the per-node override if present, otherwise the
// rules of d. A nil descriptor yields fully restrictive rules.
func (n *Node) EffectiveRules(d *registry.Descriptor) registry.Rules {
	if n.Rules != nil {
		return *n.Rules
	}
	if d == nil {
		return registry.Rules{}
	}
	return d.Rules
}

// IsDeletable applies the deletability rule. ROOT never is.
func (n *Node) IsDeletable(d *registry.Descriptor) bool {
	return !n.IsRoot() && n.EffectiveRules(d).CanDelete
}

// IsDraggable applies the drag rule. ROOT never is.
func (n *Node) IsDraggable(d *registry.Descriptor) bool {
	return !n.IsRoot() && n.EffectiveRules(d).CanDrag
}

// IsDroppable reports whether a child of childType may be placed in n.
func (n *Node) IsDroppable(d *registry.Descriptor, childType string) bool {
	return n.IsCanvas && n.EffectiveRules(d).AcceptsType(childType)
}

// IDGenerator produces fresh node ids.
type IDGenerator func() string

// DefaultIDGenerator returns short random ids.
func DefaultIDGenerator() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}

// SequentialIDs returns a deterministic generator yielding prefix1,
// prefix2, ... for tests and fixtures.
func SequentialIDs(prefix string) IDGenerator {
	n := 0
	return func() string {
		n++
		return prefix + strconv.Itoa(n)
	}
}

package document

import (
	"bytes"
	"encoding/json"
	"reflect"
	"sort"

	"github.com/conneroisu/pagecraft/internal/errors"
	"github.com/conneroisu/pagecraft/internal/props"
)

// Tree is a document: a set of nodes forming a single tree under ROOT.
// Query methods return copies; mutators enforce the structural
// invariants and leave the tree unchanged when they fail.
type Tree struct {
	nodes map[string]*Node
}

// New creates a tree whose root is root. The root's id is forced to
// RootID and its parent and children are cleared.
func New(root *Node) *Tree {
	r := root.Clone()
	r.ID = RootID
	r.Parent = ""
	r.Children = nil
	if r.Props == nil {
		r.Props = props.Bag{}
	}
	return &Tree{nodes: map[string]*Node{RootID: r}}
}

// NewWithRoot creates a tree with a fresh root of the given type.
func NewWithRoot(typ string, bag props.Bag, isCanvas bool) *Tree {
	return New(&Node{Type: typ, Props: bag, IsCanvas: isCanvas})
}

// FromNodes builds a tree from a complete node set and validates it.
func FromNodes(nodes map[string]*Node) (*Tree, error) {
	t := &Tree{nodes: make(map[string]*Node, len(nodes))}
	for id, n := range nodes {
		c := n.Clone()
		c.ID = id
		if c.Props == nil {
			c.Props = props.Bag{}
		}
		t.nodes[id] = c
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Node returns a copy of the node with id.
func (t *Tree) Node(id string) (*Node, bool) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, false
	}
	return n.Clone(), true
}

// Has reports whether id is present.
func (t *Tree) Has(id string) bool {
	_, ok := t.nodes[id]
	return ok
}

// Root returns a copy of the root node.
func (t *Tree) Root() *Node {
	return t.nodes[RootID].Clone()
}

// Children returns the ordered child ids of id, or nil when id is absent.
func (t *Tree) Children(id string) []string {
	n, ok := t.nodes[id]
	if !ok {
		return nil
	}
	return append([]string(nil), n.Children...)
}

// Parent returns the parent id of id. ROOT and absent ids report false.
func (t *Tree) Parent(id string) (string, bool) {
	n, ok := t.nodes[id]
	if !ok || n.Parent == "" {
		return "", false
	}
	return n.Parent, true
}

// IndexOf returns the position of id among its siblings, or -1.
func (t *Tree) IndexOf(id string) int {
	n, ok := t.nodes[id]
	if !ok || n.Parent == "" {
		return -1
	}
	return indexOf(t.nodes[n.Parent].Children, id)
}

// AncestorPath returns the ancestors of id, ROOT first, excluding id.
func (t *Tree) AncestorPath(id string) []string {
	var path []string
	n, ok := t.nodes[id]
	for ok && n.Parent != "" {
		path = append(path, n.Parent)
		n, ok = t.nodes[n.Parent]
		if len(path) > len(t.nodes) {
			break
		}
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Descendants returns every node below id in depth-first pre-order.
func (t *Tree) Descendants(id string) []string {
	var out []string
	n, ok := t.nodes[id]
	if !ok {
		return nil
	}
	var visit func(ids []string)
	visit = func(ids []string) {
		for _, c := range ids {
			out = append(out, c)
			if child, ok := t.nodes[c]; ok {
				visit(child.Children)
			}
		}
	}
	visit(n.Children)
	return out
}

// IsAncestor reports whether ancestor is a strict ancestor of id.
func (t *Tree) IsAncestor(ancestor, id string) bool {
	for _, a := range t.AncestorPath(id) {
		if a == ancestor {
			return true
		}
	}
	return false
}

// Walk visits nodes depth-first in pre-order starting at ROOT. Returning
// false from fn skips the node's children.
func (t *Tree) Walk(fn func(n *Node, depth int) bool) {
	var visit func(id string, depth int)
	visit = func(id string, depth int) {
		n, ok := t.nodes[id]
		if !ok {
			return
		}
		if !fn(n.Clone(), depth) {
			return
		}
		for _, c := range n.Children {
			visit(c, depth+1)
		}
	}
	visit(RootID, 0)
}

// Len returns the number of nodes.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// IDs returns every node id, sorted.
func (t *Tree) IDs() []string {
	ids := make([]string, 0, len(t.nodes))
	for id := range t.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Insert places a single childless node under parent at index. A
// negative or out-of-range index appends.
func (t *Tree) Insert(n *Node, parent string, index int) error {
	if n == nil {
		return errors.New(errors.ErrMalformedDocument, "nil node")
	}
	return t.InsertSubtree([]*Node{n}, parent, index)
}

// InsertSubtree places nodes under parent at index. nodes[0] is the
// subtree root; the rest are its descendants, linked through their own
// Parent and Children fields.
func (t *Tree) InsertSubtree(nodes []*Node, parent string, index int) error {
	if len(nodes) == 0 {
		return errors.New(errors.ErrMalformedDocument, "empty subtree")
	}
	p, ok := t.nodes[parent]
	if !ok {
		return errors.Newf(errors.ErrNodeNotFound, "parent %q not found", parent).WithNode(parent)
	}
	if !p.IsCanvas {
		return errors.Newf(errors.ErrInvalidParent, "node %q is not a canvas", parent).WithNode(parent)
	}

	staged := make(map[string]*Node, len(nodes))
	for i, n := range nodes {
		if n.ID == "" || n.ID == RootID {
			return errors.Newf(errors.ErrMalformedDocument, "invalid node id %q", n.ID)
		}
		if _, exists := t.nodes[n.ID]; exists {
			return errors.Newf(errors.ErrMalformedDocument, "duplicate node id %q", n.ID).WithNode(n.ID)
		}
		if _, dup := staged[n.ID]; dup {
			return errors.Newf(errors.ErrMalformedDocument, "duplicate node id %q", n.ID).WithNode(n.ID)
		}
		c := n.Clone()
		if c.Props == nil {
			c.Props = props.Bag{}
		}
		if i == 0 {
			c.Parent = parent
		}
		staged[c.ID] = c
	}

	// The staged subtree must be self-contained and reach every node.
	seen := map[string]bool{}
	var check func(id string) error
	check = func(id string) error {
		if seen[id] {
			return errors.Newf(errors.ErrCycleDetected, "node %q appears twice in subtree", id).WithNode(id)
		}
		seen[id] = true
		n := staged[id]
		if !n.IsCanvas && len(n.Children) > 0 {
			return errors.Newf(errors.ErrMalformedDocument, "leaf node %q has children", id).WithNode(id)
		}
		for _, c := range n.Children {
			child, ok := staged[c]
			if !ok {
				return errors.Newf(errors.ErrDanglingReference, "child %q of %q is missing", c, id).WithNode(id)
			}
			if child.Parent != id {
				return errors.Newf(errors.ErrMalformedDocument, "node %q does not point back to %q", c, id).WithNode(c)
			}
			if err := check(c); err != nil {
				return err
			}
		}
		return nil
	}
	if err := check(nodes[0].ID); err != nil {
		return err
	}
	if len(seen) != len(staged) {
		return errors.New(errors.ErrMalformedDocument, "subtree contains unreachable nodes")
	}

	for id, n := range staged {
		t.nodes[id] = n
	}
	p.Children = insertAt(p.Children, nodes[0].ID, index)
	return nil
}

// Move re-parents id under parent at index. The index is interpreted
// against parent's children after id has been detached, and clamped.
func (t *Tree) Move(id, parent string, index int) error {
	n, ok := t.nodes[id]
	if !ok {
		return errors.Newf(errors.ErrNodeNotFound, "node %q not found", id).WithNode(id)
	}
	if n.IsRoot() {
		return errors.New(errors.ErrNotDraggable, "the root cannot be moved").WithNode(id)
	}
	p, ok := t.nodes[parent]
	if !ok {
		return errors.Newf(errors.ErrNodeNotFound, "parent %q not found", parent).WithNode(parent)
	}
	if parent == id || t.IsAncestor(id, parent) {
		return errors.Newf(errors.ErrCycleDetected, "cannot move %q into its own subtree", id).WithNode(id)
	}
	if !p.IsCanvas {
		return errors.Newf(errors.ErrInvalidParent, "node %q is not a canvas", parent).WithNode(parent)
	}

	old := t.nodes[n.Parent]
	old.Children = removeID(old.Children, id)
	p.Children = insertAt(p.Children, id, index)
	n.Parent = parent
	return nil
}

// Remove deletes id and its whole subtree, returning the removed ids
// (id first, then descendants in pre-order).
func (t *Tree) Remove(id string) ([]string, error) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, errors.Newf(errors.ErrNodeNotFound, "node %q not found", id).WithNode(id)
	}
	if n.IsRoot() {
		return nil, errors.New(errors.ErrNotDeletable, "the root cannot be deleted").WithNode(id)
	}

	removed := append([]string{id}, t.Descendants(id)...)
	parent := t.nodes[n.Parent]
	parent.Children = removeID(parent.Children, id)
	for _, r := range removed {
		delete(t.nodes, r)
	}
	return removed, nil
}

// Replace overwrites the content of id with n while keeping its place in
// the tree: ID, Parent and Children are preserved.
func (t *Tree) Replace(id string, n *Node) error {
	cur, ok := t.nodes[id]
	if !ok {
		return errors.Newf(errors.ErrNodeNotFound, "node %q not found", id).WithNode(id)
	}
	if !n.IsCanvas && len(cur.Children) > 0 {
		return errors.Newf(errors.ErrInvalidParent, "node %q has children and must stay a canvas", id).WithNode(id)
	}
	c := n.Clone()
	c.ID = cur.ID
	c.Parent = cur.Parent
	c.Children = cur.Children
	if c.Props == nil {
		c.Props = props.Bag{}
	}
	t.nodes[id] = c
	return nil
}

// SetProps replaces the prop bag of id with a copy of bag.
func (t *Tree) SetProps(id string, bag props.Bag) error {
	n, ok := t.nodes[id]
	if !ok {
		return errors.Newf(errors.ErrNodeNotFound, "node %q not found", id).WithNode(id)
	}
	n.Props = bag.Clone()
	return nil
}

// Clone returns a deep copy of the tree.
func (t *Tree) Clone() *Tree {
	out := &Tree{nodes: make(map[string]*Node, len(t.nodes))}
	for id, n := range t.nodes {
		out.nodes[id] = n.Clone()
	}
	return out
}

// Equal reports structural equality: same ids, types, props, flags and
// child order. Props compare by their JSON form so 16 and 16.0 match.
func (t *Tree) Equal(other *Tree) bool {
	if other == nil || len(t.nodes) != len(other.nodes) {
		return false
	}
	for id, a := range t.nodes {
		b, ok := other.nodes[id]
		if !ok {
			return false
		}
		if a.Type != b.Type || a.IsCanvas != b.IsCanvas || a.Parent != b.Parent ||
			a.DisplayName != b.DisplayName || a.Hidden != b.Hidden {
			return false
		}
		if !equalStrings(a.Children, b.Children) {
			return false
		}
		if !jsonEqual(a.Props, b.Props) || !jsonEqual(a.Custom, b.Custom) || !jsonEqual(a.LinkedNodes, b.LinkedNodes) {
			return false
		}
		if !reflect.DeepEqual(a.Rules, b.Rules) {
			return false
		}
	}
	return true
}

// Validate checks every structural invariant and returns the first
// violation found.
func (t *Tree) Validate() error {
	root, ok := t.nodes[RootID]
	if !ok {
		return errors.New(errors.ErrMissingRoot, "document has no ROOT node")
	}
	if root.Parent != "" {
		return errors.New(errors.ErrMalformedDocument, "ROOT must not have a parent").WithNode(RootID)
	}

	for _, id := range t.IDs() {
		n := t.nodes[id]
		if !n.IsCanvas && len(n.Children) > 0 {
			return errors.Newf(errors.ErrMalformedDocument, "leaf node %q has children", id).WithNode(id)
		}
		seen := make(map[string]bool, len(n.Children))
		for _, c := range n.Children {
			if seen[c] {
				return errors.Newf(errors.ErrMalformedDocument, "child %q listed twice under %q", c, id).WithNode(id)
			}
			seen[c] = true
			child, ok := t.nodes[c]
			if !ok {
				return errors.Newf(errors.ErrDanglingReference, "child %q of %q does not exist", c, id).WithNode(id)
			}
			if child.Parent != id {
				return errors.Newf(errors.ErrMalformedDocument, "node %q is listed under %q but its parent is %q", c, id, child.Parent).WithNode(c)
			}
		}
		if id == RootID {
			continue
		}
		if n.Parent == "" {
			return errors.Newf(errors.ErrMalformedDocument, "node %q has no parent", id).WithNode(id)
		}
		p, ok := t.nodes[n.Parent]
		if !ok {
			return errors.Newf(errors.ErrDanglingReference, "parent %q of %q does not exist", n.Parent, id).WithNode(id)
		}
		if indexOf(p.Children, id) < 0 {
			return errors.Newf(errors.ErrMalformedDocument, "node %q is not listed by its parent %q", id, n.Parent).WithNode(id)
		}
	}

	reached := 0
	visited := make(map[string]bool, len(t.nodes))
	var visit func(id string) error
	visit = func(id string) error {
		if visited[id] {
			return errors.Newf(errors.ErrCycleDetected, "node %q is reachable twice", id).WithNode(id)
		}
		visited[id] = true
		reached++
		for _, c := range t.nodes[id].Children {
			if err := visit(c); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(RootID); err != nil {
		return err
	}
	if reached != len(t.nodes) {
		return errors.Newf(errors.ErrMalformedDocument, "%d nodes are not reachable from ROOT", len(t.nodes)-reached)
	}
	return nil
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func insertAt(ids []string, id string, index int) []string {
	if index < 0 || index > len(ids) {
		index = len(ids)
	}
	out := make([]string, 0, len(ids)+1)
	out = append(out, ids[:index]...)
	out = append(out, id)
	return append(out, ids[index:]...)
}

func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func jsonEqual(a, b any) bool {
	if isEmpty(a) && isEmpty(b) {
		return true
	}
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	return errA == nil && errB == nil && bytes.Equal(ja, jb)
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice:
		return rv.Len() == 0
	}
	return false
}

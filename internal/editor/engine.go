// Package editor owns a live document tree together with the session's
// interaction state (selection, editing mode, drag) and exposes the
// mutations a UI performs, checked against the registry placement rules.
package editor

import (
	"context"
	"sync"

	"github.com/conneroisu/pagecraft/internal/codec"
	"github.com/conneroisu/pagecraft/internal/document"
	"github.com/conneroisu/pagecraft/internal/errors"
	"github.com/conneroisu/pagecraft/internal/history"
	"github.com/conneroisu/pagecraft/internal/logging"
	"github.com/conneroisu/pagecraft/internal/props"
	"github.com/conneroisu/pagecraft/internal/registry"
)

// Options configures an Engine.
type Options struct {
	// Registry is required.
	Registry *registry.Registry
	// History, when set, receives checkpoints and backs Undo and Redo.
	History *history.Manager
	// IDs generates node ids. Defaults to document.DefaultIDGenerator.
	IDs    document.IDGenerator
	Logger logging.Logger
}

// Engine is one editing session. It is not safe for concurrent use;
// callers serialize access the way a UI event loop would. Only the
// watcher list is guarded.
type Engine struct {
	tree      *document.Tree
	reg       *registry.Registry
	history   *history.Manager
	ids       document.IDGenerator
	log       logging.Logger
	selection Selection
	editing   bool
	dragging  string

	watchers   []chan ChangeEvent
	watchMutex sync.Mutex
}

// New starts a session on tree. A nil tree starts from an empty
// Container root.
func New(tree *document.Tree, opts Options) (*Engine, error) {
	if opts.Registry == nil {
		return nil, errors.NewInternalError("editor requires a registry", nil)
	}
	if tree == nil {
		tree = document.NewWithRoot(props.TypeContainer, nil, true)
	}
	if err := tree.Validate(); err != nil {
		return nil, err
	}
	if opts.IDs == nil {
		opts.IDs = document.DefaultIDGenerator
	}

	e := &Engine{
		tree:    tree.Clone(),
		reg:     opts.Registry,
		history: opts.History,
		ids:     opts.IDs,
		log:     logging.OrNop(opts.Logger).WithComponent("editor"),
		editing: true,
	}
	if e.history != nil {
		if _, err := e.Checkpoint(); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Tree returns a copy of the live tree.
func (e *Engine) Tree() *document.Tree {
	return e.tree.Clone()
}

// Node returns a copy of one node.
func (e *Engine) Node(id string) (*document.Node, bool) {
	return e.tree.Node(id)
}

// Registry returns the registry the session resolves types against.
func (e *Engine) Registry() *registry.Registry {
	return e.reg
}

// History returns the attached history manager, if any.
func (e *Engine) History() *history.Manager {
	return e.history
}

// ResolvedProps returns the typed, defaulted props of a node.
func (e *Engine) ResolvedProps(id string) (props.Props, error) {
	n, ok := e.tree.Node(id)
	if !ok {
		return nil, notFound(id)
	}
	return e.reg.ResolveProps(n.Type, n.Props)
}

// EditingEnabled reports whether mutations are accepted.
func (e *Engine) EditingEnabled() bool {
	return e.editing
}

// SetEditingEnabled toggles between editing and preview. Disabling ends
// any drag in progress.
func (e *Engine) SetEditingEnabled(enabled bool) {
	if e.editing == enabled {
		return
	}
	e.editing = enabled
	if !enabled {
		e.dragging = ""
	}
	e.emit(EventMode, "")
}

// AddNode creates a node of typ under parentID at index and selects it.
// initial holds prop overrides; defaults come from the registry.
func (e *Engine) AddNode(typ string, initial props.Bag, parentID string, index int) (string, error) {
	if err := e.requireEditing(); err != nil {
		return "", err
	}

	d, err := e.reg.Resolve(typ)
	if err != nil {
		return "", err
	}
	if d.Hidden {
		return "", errors.Newf(errors.ErrUnknownType, "component type %q cannot be placed", typ).WithComponent(typ)
	}

	parent, ok := e.tree.Node(parentID)
	if !ok {
		return "", notFound(parentID)
	}
	if !parent.IsDroppable(e.descriptor(parent), typ) {
		return "", errors.Newf(errors.ErrInvalidParent, "%s cannot be placed inside %q", typ, parentID).
			WithNode(parentID).WithComponent(typ)
	}
	if _, err := e.reg.ResolveProps(typ, initial); err != nil {
		return "", err
	}

	id := e.newID()
	node := &document.Node{
		ID:       id,
		Type:     typ,
		Props:    initial.Clone(),
		IsCanvas: d.IsCanvas,
	}
	if err := e.tree.Insert(node, parentID, index); err != nil {
		return "", err
	}

	e.selection.Apply([]string{id}, SelectReplace)
	e.log.Debug(context.Background(), "Node added", "node_id", id, "type", typ, "parent", parentID)
	e.emit(EventAdded, id)
	return id, nil
}

// MoveNode re-parents id under parentID at index. The index counts
// positions after id has been detached from its current parent.
func (e *Engine) MoveNode(id, parentID string, index int) error {
	if err := e.requireEditing(); err != nil {
		return err
	}

	n, ok := e.tree.Node(id)
	if !ok {
		return notFound(id)
	}
	if !n.IsDraggable(e.descriptor(n)) {
		return errors.Newf(errors.ErrNotDraggable, "node %q cannot be moved", id).WithNode(id)
	}
	if parentID == id || e.tree.IsAncestor(id, parentID) {
		return errors.Newf(errors.ErrCycleDetected, "cannot move %q into its own subtree", id).WithNode(id)
	}
	target, ok := e.tree.Node(parentID)
	if !ok {
		return notFound(parentID)
	}
	if n.Parent != parentID {
		if old, ok := e.tree.Node(n.Parent); ok && !old.EffectiveRules(e.descriptor(old)).CanMoveOut {
			return errors.Newf(errors.ErrNotDraggable, "children of %q cannot be moved out", n.Parent).WithNode(id)
		}
	}
	if !target.IsDroppable(e.descriptor(target), n.Type) {
		return errors.Newf(errors.ErrNotDroppable, "%q does not accept %s", parentID, n.Type).
			WithNode(parentID).WithComponent(n.Type)
	}

	if err := e.tree.Move(id, parentID, index); err != nil {
		return err
	}
	e.emit(EventMoved, id)
	return nil
}

// SetProp sets one prop on id. Values are not validated; resolving the
// props later reports problems.
func (e *Engine) SetProp(id, key string, value any) error {
	if err := e.requireEditing(); err != nil {
		return err
	}
	n, ok := e.tree.Node(id)
	if !ok {
		return notFound(id)
	}
	if err := e.tree.SetProps(id, props.WithProp(n.Props, key, value)); err != nil {
		return err
	}
	e.emit(EventProps, id)
	return nil
}

// SetProps merges bag into the props of id.
func (e *Engine) SetProps(id string, bag props.Bag) error {
	if err := e.requireEditing(); err != nil {
		return err
	}
	n, ok := e.tree.Node(id)
	if !ok {
		return notFound(id)
	}
	if err := e.tree.SetProps(id, props.Merge(n.Props, bag)); err != nil {
		return err
	}
	e.emit(EventProps, id)
	return nil
}

// SetHidden toggles whether a node is rendered.
func (e *Engine) SetHidden(id string, hidden bool) error {
	if err := e.requireEditing(); err != nil {
		return err
	}
	n, ok := e.tree.Node(id)
	if !ok {
		return notFound(id)
	}
	n.Hidden = hidden
	if err := e.tree.Replace(id, n); err != nil {
		return err
	}
	e.emit(EventProps, id)
	return nil
}

// DeleteNode removes id and its subtree. Children are deleted, not
// promoted. ROOT is never deletable; see ClearCanvas.
func (e *Engine) DeleteNode(id string) error {
	if err := e.requireEditing(); err != nil {
		return err
	}
	n, ok := e.tree.Node(id)
	if !ok {
		return notFound(id)
	}
	if !n.IsDeletable(e.descriptor(n)) {
		return errors.Newf(errors.ErrNotDeletable, "node %q cannot be deleted", id).WithNode(id)
	}

	removed, err := e.tree.Remove(id)
	if err != nil {
		return err
	}
	e.forget(removed)
	e.log.Debug(context.Background(), "Node deleted", "node_id", id, "removed", len(removed))
	e.emit(EventDeleted, id, removed...)
	return nil
}

// ClearCanvas deletes every deletable child of ROOT and returns the
// removed ids. Locked children stay.
func (e *Engine) ClearCanvas() ([]string, error) {
	if err := e.requireEditing(); err != nil {
		return nil, err
	}

	var removed []string
	for _, id := range e.tree.Children(document.RootID) {
		n, _ := e.tree.Node(id)
		if !n.IsDeletable(e.descriptor(n)) {
			continue
		}
		ids, err := e.tree.Remove(id)
		if err != nil {
			return removed, err
		}
		removed = append(removed, ids...)
	}
	e.forget(removed)
	e.emit(EventDeleted, document.RootID, removed...)
	return removed, nil
}

// Select updates the selection. Ids not in the tree are ignored.
func (e *Engine) Select(ids []string, mode SelectMode) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if e.tree.Has(id) {
			valid = append(valid, id)
		}
	}
	e.selection.Apply(valid, mode)
	e.emit(EventSelection, "", e.selection.IDs()...)
}

// ClearSelection empties the selection.
func (e *Engine) ClearSelection() {
	e.selection.Clear()
	e.emit(EventSelection, "")
}

// Selected returns the selected ids, dropping any that went stale.
func (e *Engine) Selected() []string {
	if stale := e.selection.Prune(e.tree.Has); len(stale) > 0 {
		e.log.Debug(context.Background(), "Pruned stale selection", "ids", stale)
	}
	return e.selection.IDs()
}

// BeginDrag marks id as being dragged.
func (e *Engine) BeginDrag(id string) error {
	if err := e.requireEditing(); err != nil {
		return err
	}
	n, ok := e.tree.Node(id)
	if !ok {
		return notFound(id)
	}
	if !n.IsDraggable(e.descriptor(n)) {
		return errors.Newf(errors.ErrNotDraggable, "node %q cannot be moved", id).WithNode(id)
	}
	e.dragging = id
	return nil
}

// EndDrag clears the drag state.
func (e *Engine) EndDrag() {
	e.dragging = ""
}

// Dragging returns the node being dragged.
func (e *Engine) Dragging() (string, bool) {
	if e.dragging != "" && !e.tree.Has(e.dragging) {
		e.dragging = ""
	}
	return e.dragging, e.dragging != ""
}

// Snapshot serializes the live tree.
func (e *Engine) Snapshot() ([]byte, error) {
	return codec.Serialize(e.tree)
}

// Load replaces the whole tree with the decoded document. It is atomic:
// on error nothing changes. Selection, drag state and history are reset
// and the loaded document becomes the first history entry.
func (e *Engine) Load(data []byte) error {
	if err := e.requireEditing(); err != nil {
		return err
	}
	tree, err := e.decode(data)
	if err != nil {
		return err
	}

	e.swap(tree)
	if e.history != nil {
		e.history.Clear()
		if _, err := e.Checkpoint(); err != nil {
			return err
		}
	}
	e.emit(EventLoaded, document.RootID)
	return nil
}

// Checkpoint records the current tree in history. It reports whether a
// new entry was added.
func (e *Engine) Checkpoint() (bool, error) {
	if e.history == nil {
		return false, nil
	}
	data, err := e.Snapshot()
	if err != nil {
		return false, err
	}
	return e.history.Record(data), nil
}

// Undo restores the previous checkpoint. Edits made since the last
// checkpoint are recorded first so they can be redone. It reports false
// when there is nothing to undo.
func (e *Engine) Undo() (bool, error) {
	if err := e.requireEditing(); err != nil {
		return false, err
	}
	if e.history == nil {
		return false, nil
	}
	if _, err := e.Checkpoint(); err != nil {
		return false, err
	}
	data, ok := e.history.Undo()
	if !ok {
		return false, nil
	}
	return true, e.restore(data)
}

// Redo restores the next checkpoint. Pending edits are recorded first;
// when they diverge from history they drop the redo branch and Redo
// reports false.
func (e *Engine) Redo() (bool, error) {
	if err := e.requireEditing(); err != nil {
		return false, err
	}
	if e.history == nil {
		return false, nil
	}
	if _, err := e.Checkpoint(); err != nil {
		return false, err
	}
	data, ok := e.history.Redo()
	if !ok {
		return false, nil
	}
	return true, e.restore(data)
}

func (e *Engine) restore(data []byte) error {
	tree, err := e.decode(data)
	if err != nil {
		return err
	}
	e.tree = tree
	if stale := e.selection.Prune(e.tree.Has); len(stale) > 0 {
		e.log.Debug(context.Background(), "Pruned stale selection", "ids", stale)
	}
	if e.dragging != "" && !e.tree.Has(e.dragging) {
		e.dragging = ""
	}
	e.emit(EventLoaded, document.RootID)
	return nil
}

func (e *Engine) decode(data []byte) (*document.Tree, error) {
	c := &codec.Codec{Registry: e.reg, Logger: e.log}
	return c.Decode(data)
}

func (e *Engine) swap(tree *document.Tree) {
	e.tree = tree
	e.selection.Clear()
	e.dragging = ""
}

func (e *Engine) forget(removed []string) {
	e.selection.Remove(removed...)
	for _, id := range removed {
		if id == e.dragging {
			e.dragging = ""
		}
	}
}

func (e *Engine) requireEditing() error {
	if !e.editing {
		return errors.New(errors.ErrEditingDisabled, "editing is disabled")
	}
	return nil
}

// descriptor resolves n's type, falling back to the Unknown placeholder.
func (e *Engine) descriptor(n *document.Node) *registry.Descriptor {
	if d, err := e.reg.Resolve(n.Type); err == nil {
		return d
	}
	if d, err := e.reg.Resolve(props.TypeUnknown); err == nil {
		return d
	}
	return nil
}

func (e *Engine) newID() string {
	for i := 0; i < 100; i++ {
		id := e.ids()
		if id != "" && id != document.RootID && !e.tree.Has(id) {
			return id
		}
	}
	// The configured generator keeps colliding.
	for {
		if id := document.DefaultIDGenerator(); !e.tree.Has(id) {
			return id
		}
	}
}

func notFound(id string) error {
	return errors.Newf(errors.ErrNodeNotFound, "node %q not found", id).WithNode(id)
}

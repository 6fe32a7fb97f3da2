package editor

import (
	"sort"
	"strings"

	"github.com/conneroisu/pagecraft/internal/document"
	"github.com/conneroisu/pagecraft/internal/errors"
)

// FocusContext is where keyboard focus was when a key was pressed.
type FocusContext int

const (
	// FocusCanvas is the editor surface; shortcuts apply.
	FocusCanvas FocusContext = iota
	// FocusTextInput is an input, textarea or contenteditable element.
	// Shortcuts are suppressed so native text editing keeps working.
	FocusTextInput
)

// Key is a key press. Mod is Ctrl, or Cmd on macOS.
type Key struct {
	Name  string `json:"key"`
	Mod   bool   `json:"mod"`
	Shift bool   `json:"shift"`
}

// Action names a shortcut.
type Action string

const (
	ActionNone      Action = ""
	ActionDelete    Action = "delete"
	ActionMoveUp    Action = "move-up"
	ActionMoveDown  Action = "move-down"
	ActionDuplicate Action = "duplicate"
	ActionUndo      Action = "undo"
	ActionRedo      Action = "redo"
)

// ActionFor maps a key chord to its action.
func ActionFor(k Key) Action {
	name := strings.ToLower(k.Name)
	switch {
	case !k.Mod && (name == "delete" || name == "backspace"):
		return ActionDelete
	case k.Mod && name == "arrowup":
		return ActionMoveUp
	case k.Mod && name == "arrowdown":
		return ActionMoveDown
	case k.Mod && !k.Shift && name == "d":
		return ActionDuplicate
	case k.Mod && k.Shift && name == "z":
		return ActionRedo
	case k.Mod && name == "z":
		return ActionUndo
	case k.Mod && name == "y":
		return ActionRedo
	default:
		return ActionNone
	}
}

// HandleKey runs the shortcut bound to k. It reports whether a shortcut
// was recognized; chords are never handled while a text control has
// focus.
func (e *Engine) HandleKey(k Key, focus FocusContext) (bool, error) {
	if focus == FocusTextInput {
		return false, nil
	}

	switch ActionFor(k) {
	case ActionDelete:
		return true, e.DeleteSelected()
	case ActionMoveUp:
		return true, e.MoveSelectedUp()
	case ActionMoveDown:
		return true, e.MoveSelectedDown()
	case ActionDuplicate:
		_, err := e.DuplicateSelected()
		return true, err
	case ActionUndo:
		_, err := e.Undo()
		return true, err
	case ActionRedo:
		_, err := e.Redo()
		return true, err
	default:
		return false, nil
	}
}

// topLevelSelection returns selected ids whose ancestors are not also
// selected, in selection order.
func (e *Engine) topLevelSelection() []string {
	selected := e.Selected()
	out := make([]string, 0, len(selected))
	for _, id := range selected {
		covered := false
		for _, other := range selected {
			if other != id && e.tree.IsAncestor(other, id) {
				covered = true
				break
			}
		}
		if !covered {
			out = append(out, id)
		}
	}
	return out
}

// DeleteSelected deletes every selected node it is allowed to. It
// returns the first rejection after attempting all of them.
func (e *Engine) DeleteSelected() error {
	if err := e.requireEditing(); err != nil {
		return err
	}
	var first error
	for _, id := range e.topLevelSelection() {
		if err := e.DeleteNode(id); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// MoveSelectedUp swaps each selected node with its previous sibling.
func (e *Engine) MoveSelectedUp() error {
	return e.shiftSelected(-1)
}

// MoveSelectedDown swaps each selected node with its next sibling.
func (e *Engine) MoveSelectedDown() error {
	return e.shiftSelected(1)
}

func (e *Engine) shiftSelected(delta int) error {
	if err := e.requireEditing(); err != nil {
		return err
	}
	ids := e.topLevelSelection()
	// Move the node nearest the edge first so neighbours do not block
	// each other. Nodes under different parents never interact.
	sort.SliceStable(ids, func(i, j int) bool {
		if delta > 0 {
			return e.tree.IndexOf(ids[i]) > e.tree.IndexOf(ids[j])
		}
		return e.tree.IndexOf(ids[i]) < e.tree.IndexOf(ids[j])
	})
	stuck := map[string]bool{}
	for _, id := range ids {
		parent, ok := e.tree.Parent(id)
		if !ok {
			continue
		}
		siblings := e.tree.Children(parent)
		target := e.tree.IndexOf(id) + delta
		if target < 0 || target >= len(siblings) || stuck[siblings[target]] {
			stuck[id] = true
			continue
		}
		if err := e.MoveNode(id, parent, target); err != nil {
			return err
		}
	}
	return nil
}

// DuplicateSelected deep-copies each selected subtree with fresh ids,
// inserts each copy right after its original and selects the copies.
func (e *Engine) DuplicateSelected() ([]string, error) {
	if err := e.requireEditing(); err != nil {
		return nil, err
	}

	var copies []string
	for _, id := range e.topLevelSelection() {
		copyID, err := e.Duplicate(id)
		if err != nil {
			return copies, err
		}
		copies = append(copies, copyID)
	}
	if len(copies) > 0 {
		e.selection.Apply(copies, SelectReplace)
		e.emit(EventSelection, "", copies...)
	}
	return copies, nil
}

// Duplicate deep-copies the subtree at id and inserts it after id.
func (e *Engine) Duplicate(id string) (string, error) {
	if err := e.requireEditing(); err != nil {
		return "", err
	}
	n, ok := e.tree.Node(id)
	if !ok {
		return "", notFound(id)
	}
	if n.IsRoot() {
		return "", errors.New(errors.ErrInvalidParent, "the root cannot be duplicated").WithNode(id)
	}
	parent, _ := e.tree.Node(n.Parent)
	if !parent.IsDroppable(e.descriptor(parent), n.Type) {
		return "", errors.Newf(errors.ErrNotDroppable, "%q does not accept %s", n.Parent, n.Type).WithNode(n.Parent)
	}

	fresh := map[string]string{}
	subtree := append([]string{id}, e.tree.Descendants(id)...)
	for _, old := range subtree {
		fresh[old] = e.newIDExcluding(fresh)
	}

	nodes := make([]*document.Node, 0, len(subtree))
	for _, old := range subtree {
		src, _ := e.tree.Node(old)
		c := src.Clone()
		c.ID = fresh[old]
		if old != id {
			c.Parent = fresh[src.Parent]
		}
		for i, child := range c.Children {
			c.Children[i] = fresh[child]
		}
		nodes = append(nodes, c)
	}

	if err := e.tree.InsertSubtree(nodes, n.Parent, e.tree.IndexOf(id)+1); err != nil {
		return "", err
	}
	e.emit(EventAdded, fresh[id])
	return fresh[id], nil
}

func (e *Engine) newIDExcluding(taken map[string]string) string {
	for {
		id := e.newID()
		clash := false
		for _, v := range taken {
			if v == id {
				clash = true
				break
			}
		}
		if !clash {
			return id
		}
	}
}

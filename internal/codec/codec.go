package codec

import (
	"bytes"
	"context"
	"encoding/json"
	"sort"

	"github.com/conneroisu/pagecraft/internal/document"
	"github.com/conneroisu/pagecraft/internal/errors"
	"github.com/conneroisu/pagecraft/internal/logging"
	"github.com/conneroisu/pagecraft/internal/props"
	"github.com/conneroisu/pagecraft/internal/registry"
)

// Codec decodes persisted documents against a registry. Recoverable
// problems (unknown types, orphaned nodes) are logged and collected
// instead of failing the load.
type Codec struct {
	// Registry resolves component types. Nil accepts every type.
	Registry *registry.Registry
	Logger   logging.Logger
	// Diagnostics, when set, receives one warning per healed problem.
	Diagnostics *errors.ErrorCollector
}

// Serialize encodes tree. Output is deterministic: keys are sorted and
// no session state is included.
func Serialize(tree *document.Tree) ([]byte, error) {
	doc, err := ToDocument(tree)
	if err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// Deserialize decodes data against reg with no logging.
func Deserialize(data []byte, reg *registry.Registry) (*document.Tree, error) {
	return (&Codec{Registry: reg}).Decode(data)
}

// ToDocument converts tree into its wire map.
func ToDocument(tree *document.Tree) (Document, error) {
	if tree == nil || !tree.Has(document.RootID) {
		return nil, errors.New(errors.ErrMissingRoot, "document has no ROOT node")
	}

	doc := make(Document, tree.Len())
	for _, id := range tree.IDs() {
		n, _ := tree.Node(id)
		doc[id] = toWire(n)
	}
	return doc, nil
}

func toWire(n *document.Node) *WireNode {
	typ := n.Type
	custom := map[string]any{}
	for k, v := range n.Custom {
		custom[k] = v
	}
	if n.Type == props.TypeUnknown {
		if orig, ok := custom[OriginalTypeKey].(string); ok && orig != "" {
			typ = orig
			delete(custom, OriginalTypeKey)
		}
	}

	display := n.DisplayName
	if display == "" {
		display = typ
	}

	var parent *string
	if n.Parent != "" {
		p := n.Parent
		parent = &p
	}

	linked := map[string]string{}
	for k, v := range n.LinkedNodes {
		linked[k] = v
	}

	w := &WireNode{
		Type:        WireType{ResolvedName: typ},
		IsCanvas:    n.IsCanvas,
		Props:       map[string]any(n.Props.Clone()),
		DisplayName: display,
		Custom:      custom,
		Hidden:      n.Hidden,
		Parent:      parent,
		Nodes:       append([]string{}, n.Children...),
		LinkedNodes: linked,
	}
	if n.Rules != nil {
		r := *n.Rules
		w.Rules = &r
	}
	return w
}

// Decode parses data into a validated tree. data may also be a JSON
// string whose content is the document.
func (c *Codec) Decode(data []byte) (*document.Tree, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return c.FromDocument(doc)
}

// Parse unmarshals data into a Document without structural checks.
func Parse(data []byte) (Document, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return nil, errors.New(errors.ErrMalformedDocument, "invalid JSON string").WithCause(err)
		}
		data = bytes.TrimSpace([]byte(inner))
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, errors.New(errors.ErrMalformedDocument, "document is not a JSON object").WithCause(err)
	}

	doc := make(Document, len(raw))
	for id, msg := range raw {
		if bytes.Equal(bytes.TrimSpace(msg), []byte("null")) {
			doc[id] = nil
			continue
		}
		var w WireNode
		if err := json.Unmarshal(msg, &w); err != nil {
			return nil, errors.Newf(errors.ErrMalformedDocument, "node %q is malformed", id).
				WithNode(id).WithCause(err)
		}
		doc[id] = &w
	}
	return doc, nil
}

// FromDocument converts doc into a validated tree.
func (c *Codec) FromDocument(doc Document) (*document.Tree, error) {
	ctx := context.Background()
	log := logging.OrNop(c.Logger).WithComponent("codec")

	root, ok := doc[document.RootID]
	if !ok || root == nil {
		return nil, errors.New(errors.ErrMissingRoot, `document has no "ROOT" entry`)
	}

	ids := make([]string, 0, len(doc))
	for id := range doc {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		w := doc[id]
		if w == nil {
			return nil, errors.Newf(errors.ErrMalformedDocument, "node %q is null", id).WithNode(id)
		}
		for _, child := range w.Nodes {
			if _, ok := doc[child]; !ok {
				return nil, errors.Newf(errors.ErrDanglingReference, "node %q lists missing child %q", id, child).WithNode(id)
			}
		}
		if w.Parent != nil && *w.Parent != "" {
			if _, ok := doc[*w.Parent]; !ok {
				return nil, errors.Newf(errors.ErrDanglingReference, "node %q has missing parent %q", id, *w.Parent).WithNode(id)
			}
		}
	}
	if root.Parent != nil && *root.Parent != "" {
		return nil, errors.New(errors.ErrMalformedDocument, "ROOT must not have a parent").WithNode(document.RootID)
	}

	// Walk from ROOT. The child lists are authoritative; a node reached
	// twice means a cycle or multi-parenting.
	parents := map[string]string{document.RootID: ""}
	var walk func(id string) error
	walk = func(id string) error {
		w := doc[id]
		if !w.IsCanvas && len(w.Nodes) > 0 {
			return errors.Newf(errors.ErrMalformedDocument, "leaf node %q has children", id).WithNode(id)
		}
		for _, child := range w.Nodes {
			if _, seen := parents[child]; seen {
				return errors.Newf(errors.ErrMalformedDocument, "node %q is reachable more than once", child).WithNode(child)
			}
			cw := doc[child]
			if cw.Parent != nil && *cw.Parent != "" && *cw.Parent != id {
				return errors.Newf(errors.ErrMalformedDocument, "node %q is listed by %q but names %q as parent", child, id, *cw.Parent).WithNode(child)
			}
			parents[child] = id
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(document.RootID); err != nil {
		return nil, err
	}

	nodes := make(map[string]*document.Node, len(parents))
	for _, id := range ids {
		parent, reachable := parents[id]
		if !reachable {
			log.Warn(ctx, nil, "Dropping node not reachable from ROOT", "node_id", id)
			c.Diagnostics.Warn(id, doc[id].Type.ResolvedName, "node %q is not reachable from ROOT and was dropped", id)
			continue
		}
		nodes[id] = c.fromWire(ctx, log, id, parent, doc[id])
	}

	return document.FromNodes(nodes)
}

func (c *Codec) fromWire(ctx context.Context, log logging.Logger, id, parent string, w *WireNode) *document.Node {
	n := &document.Node{
		ID:          id,
		Type:        w.Type.ResolvedName,
		Props:       props.Bag(w.Props).Clone(),
		IsCanvas:    w.IsCanvas,
		Parent:      parent,
		Children:    append([]string(nil), w.Nodes...),
		Hidden:      w.Hidden,
		LinkedNodes: w.LinkedNodes,
	}
	if w.DisplayName != w.Type.ResolvedName {
		n.DisplayName = w.DisplayName
	}
	if len(w.Custom) > 0 {
		n.Custom = map[string]any(props.Bag(w.Custom).Clone())
	}
	if len(n.LinkedNodes) == 0 {
		n.LinkedNodes = nil
	}
	if w.Rules != nil {
		r := *w.Rules
		n.Rules = &r
	}

	if c.Registry != nil && !c.Registry.Has(n.Type) {
		log.Warn(ctx, nil, "Substituting placeholder for unknown component type",
			"node_id", id, "type", n.Type)
		c.Diagnostics.Warn(id, n.Type, "unknown component type %q", n.Type)
		if n.Custom == nil {
			n.Custom = map[string]any{}
		}
		n.Custom[OriginalTypeKey] = n.Type
		n.Type = props.TypeUnknown
	}
	return n
}

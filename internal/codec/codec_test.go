package codec

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/pagecraft/internal/document"
	"github.com/conneroisu/pagecraft/internal/errors"
	"github.com/conneroisu/pagecraft/internal/logging"
	"github.com/conneroisu/pagecraft/internal/props"
	"github.com/conneroisu/pagecraft/internal/registry"
)

const craftDoc = `{
  "ROOT": {
    "type": {"resolvedName": "Container"},
    "isCanvas": true,
    "props": {"background": "#fff", "padding": "16"},
    "displayName": "Container",
    "custom": {},
    "hidden": false,
    "parent": null,
    "nodes": ["t1", "b1"],
    "linkedNodes": {}
  },
  "t1": {
    "type": {"resolvedName": "Text"},
    "isCanvas": false,
    "props": {"text": "Hello", "fontSize": 16},
    "displayName": "Text",
    "custom": {},
    "hidden": false,
    "parent": "ROOT",
    "nodes": [],
    "linkedNodes": {}
  },
  "b1": {
    "type": {"resolvedName": "Button"},
    "props": {"text": "Go", "href": "/start"},
    "parent": "ROOT",
    "nodes": []
  }
}`

func sampleTree(t *testing.T) *document.Tree {
	t.Helper()
	tree := document.NewWithRoot("Container", props.Bag{"padding": 16}, true)
	require.NoError(t, tree.Insert(&document.Node{ID: "box", Type: "Container", IsCanvas: true, Props: props.Bag{"gap": 8}}, document.RootID, -1))
	require.NoError(t, tree.Insert(&document.Node{ID: "txt", Type: "Text", Props: props.Bag{"text": "Hi", "margin": []any{4, 8}}}, "box", -1))
	require.NoError(t, tree.Insert(&document.Node{ID: "img", Type: "Image", DisplayName: "Logo", Hidden: true}, document.RootID, -1))
	return tree
}

func TestDeserializeCraftDocument(t *testing.T) {
	tree, err := Deserialize([]byte(craftDoc), registry.Default())
	require.NoError(t, err)

	assert.Equal(t, 3, tree.Len())
	assert.Equal(t, []string{"t1", "b1"}, tree.Children(document.RootID))

	text, ok := tree.Node("t1")
	require.True(t, ok)
	assert.Equal(t, "Text", text.Type)
	assert.Equal(t, "Hello", text.Props["text"])
	assert.Equal(t, "", text.DisplayName)
	assert.Equal(t, document.RootID, text.Parent)
}

func TestDeserializeAcceptsJSONString(t *testing.T) {
	quoted, err := json.Marshal(craftDoc)
	require.NoError(t, err)

	tree, err := Deserialize(quoted, registry.Default())
	require.NoError(t, err)
	assert.Equal(t, 3, tree.Len())
}

func TestDeserializeAcceptsBareStringType(t *testing.T) {
	doc := `{"ROOT":{"type":"div","isCanvas":true,"props":{},"nodes":[]}}`
	tree, err := Deserialize([]byte(doc), nil)
	require.NoError(t, err)
	assert.Equal(t, "div", tree.Root().Type)
}

func TestRoundTrip(t *testing.T) {
	tree := sampleTree(t)

	data, err := Serialize(tree)
	require.NoError(t, err)

	back, err := Deserialize(data, registry.Default())
	require.NoError(t, err)
	assert.True(t, tree.Equal(back))

	again, err := Serialize(back)
	require.NoError(t, err)
	assert.JSONEq(t, string(data), string(again))
}

func TestSerializeIsDeterministic(t *testing.T) {
	tree := sampleTree(t)

	a, err := Serialize(tree)
	require.NoError(t, err)
	b, err := Serialize(tree.Clone())
	require.NoError(t, err)
	assert.True(t, bytes.Equal(a, b))
}

func TestSerializeWireShape(t *testing.T) {
	data, err := Serialize(sampleTree(t))
	require.NoError(t, err)

	var raw map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	root := raw[document.RootID]
	assert.Nil(t, root["parent"])
	assert.Equal(t, map[string]any{"resolvedName": "Container"}, root["type"])
	assert.Equal(t, []any{"box", "img"}, root["nodes"])
	assert.Equal(t, "Container", root["displayName"])

	img := raw["img"]
	assert.Equal(t, "Logo", img["displayName"])
	assert.Equal(t, true, img["hidden"])
	assert.Equal(t, []any{}, img["nodes"])
	assert.NotContains(t, img, "rules")
}

func TestUnknownTypeIsPreserved(t *testing.T) {
	doc := `{
	  "ROOT": {"type":{"resolvedName":"Container"},"isCanvas":true,"props":{},"parent":null,"nodes":["n1"]},
	  "n1": {"type":{"resolvedName":"UnknownWidget"},"isCanvas":false,"props":{"x":1},"parent":"ROOT","nodes":[]}
	}`
	collector := errors.NewErrorCollector()
	c := &Codec{Registry: registry.Default(), Logger: logging.NopLogger{}, Diagnostics: collector}

	tree, err := c.Decode([]byte(doc))
	require.NoError(t, err)

	n, ok := tree.Node("n1")
	require.True(t, ok)
	assert.Equal(t, props.TypeUnknown, n.Type)
	assert.Equal(t, "UnknownWidget", n.Custom[OriginalTypeKey])
	assert.Len(t, collector.GetByNode("n1"), 1)

	out, err := Serialize(tree)
	require.NoError(t, err)
	var raw map[string]map[string]any
	require.NoError(t, json.Unmarshal(out, &raw))
	assert.Equal(t, map[string]any{"resolvedName": "UnknownWidget"}, raw["n1"]["type"])
	assert.Equal(t, map[string]any{}, raw["n1"]["custom"])
}

func TestOrphansAreDropped(t *testing.T) {
	doc := `{
	  "ROOT": {"type":{"resolvedName":"Container"},"isCanvas":true,"nodes":[]},
	  "lost": {"type":{"resolvedName":"Text"},"parent":"ROOT","nodes":[]}
	}`
	collector := errors.NewErrorCollector()
	tree, err := (&Codec{Registry: registry.Default(), Diagnostics: collector}).Decode([]byte(doc))
	require.NoError(t, err)

	assert.Equal(t, 1, tree.Len())
	assert.False(t, tree.Has("lost"))
	assert.Len(t, collector.GetDiagnostics(), 1)
}

func TestDeserializeErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"not json", `{nope`, errors.ErrMalformedDocument},
		{"array", `[]`, errors.ErrMalformedDocument},
		{"missing root", `{"a":{"type":{"resolvedName":"Text"},"nodes":[]}}`, errors.ErrMissingRoot},
		{"null root", `{"ROOT":null}`, errors.ErrMissingRoot},
		{"dangling child", `{"ROOT":{"type":{"resolvedName":"Container"},"isCanvas":true,"nodes":["ghost"]}}`, errors.ErrDanglingReference},
		{"dangling parent", `{
			"ROOT":{"type":{"resolvedName":"Container"},"isCanvas":true,"nodes":[]},
			"a":{"type":{"resolvedName":"Text"},"parent":"ghost","nodes":[]}}`, errors.ErrDanglingReference},
		{"leaf with children", `{
			"ROOT":{"type":{"resolvedName":"Container"},"isCanvas":true,"nodes":["a"]},
			"a":{"type":{"resolvedName":"Text"},"parent":"ROOT","nodes":["b"]},
			"b":{"type":{"resolvedName":"Text"},"parent":"a","nodes":[]}}`, errors.ErrMalformedDocument},
		{"cycle through root", `{
			"ROOT":{"type":{"resolvedName":"Container"},"isCanvas":true,"nodes":["a"]},
			"a":{"type":{"resolvedName":"Container"},"isCanvas":true,"parent":"ROOT","nodes":["ROOT"]}}`, errors.ErrMalformedDocument},
		{"multi parent", `{
			"ROOT":{"type":{"resolvedName":"Container"},"isCanvas":true,"nodes":["a","b"]},
			"a":{"type":{"resolvedName":"Container"},"isCanvas":true,"parent":"ROOT","nodes":["c"]},
			"b":{"type":{"resolvedName":"Container"},"isCanvas":true,"parent":"ROOT","nodes":["c"]},
			"c":{"type":{"resolvedName":"Text"},"parent":"a","nodes":[]}}`, errors.ErrMalformedDocument},
		{"bad node shape", `{"ROOT":{"type":{"resolvedName":"Container"},"nodes":"oops"}}`, errors.ErrMalformedDocument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Deserialize([]byte(tt.doc), registry.Default())
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, tt.want), err.Error())
		})
	}
}

func TestSerializeNilTree(t *testing.T) {
	_, err := Serialize(nil)
	assert.True(t, stderrors.Is(err, errors.ErrMissingRoot))
}

func TestRulesOverrideRoundTrip(t *testing.T) {
	tree := document.NewWithRoot("Container", nil, true)
	locked := registry.AllowAll()
	locked.CanDelete = false
	require.NoError(t, tree.Insert(&document.Node{ID: "hdr", Type: "Section", IsCanvas: true, Rules: &locked}, document.RootID, 0))

	data, err := Serialize(tree)
	require.NoError(t, err)
	back, err := Deserialize(data, registry.Default())
	require.NoError(t, err)

	n, _ := back.Node("hdr")
	require.NotNil(t, n.Rules)
	assert.False(t, n.Rules.CanDelete)
	assert.True(t, tree.Equal(back))
}

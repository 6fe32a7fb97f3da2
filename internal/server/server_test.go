package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/pagecraft/internal/backend"
	"github.com/conneroisu/pagecraft/internal/config"
	"github.com/conneroisu/pagecraft/internal/document"
	"github.com/conneroisu/pagecraft/internal/editor"
	"github.com/conneroisu/pagecraft/internal/errors"
	"github.com/conneroisu/pagecraft/internal/history"
	"github.com/conneroisu/pagecraft/internal/registry"
)

type testServer struct {
	*Server
	url string
}

func newTestServer(t *testing.T, modify ...func(*Options)) *testServer {
	t.Helper()
	reg := registry.Default()
	reg.Freeze()
	engine, err := editor.New(nil, editor.Options{
		Registry: reg,
		History:  history.New(20),
		IDs:      document.SequentialIDs("n"),
	})
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Server.AllowedOrigins = []string{"http://localhost:5173"}
	cfg.Editor.CheckpointDelay = time.Hour
	cfg.Export.Title = "Test Page"
	cfg.Export.Lang = "en"

	opts := Options{Config: cfg, Engine: engine}
	for _, m := range modify {
		m(&opts)
	}
	srv, err := New(opts)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Shutdown(context.Background())
	})
	return &testServer{Server: srv, url: ts.URL}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, ts.url+path, r)
	require.NoError(t, err)
	if r != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (ts *testServer) add(t *testing.T, typ, parent string) string {
	t.Helper()
	resp, body := ts.do(t, http.MethodPost, "/api/nodes", map[string]any{"type": typ, "parent": parent})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var out struct{ ID string }
	require.NoError(t, json.Unmarshal(body, &out))
	return out.ID
}

func errorCode(t *testing.T, body []byte) string {
	t.Helper()
	var out errorBody
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return out.Error.Code
}

func getDocument(t *testing.T, ts *testServer) map[string]any {
	t.Helper()
	resp, body := ts.do(t, http.MethodGet, "/api/document", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(body, &doc))
	return doc
}

func TestAddAndGetNode(t *testing.T) {
	ts := newTestServer(t)
	id := ts.add(t, "Text", "")
	assert.Equal(t, "n1", id)

	doc := getDocument(t, ts)
	assert.Contains(t, doc, "ROOT")
	assert.Contains(t, doc, "n1")

	resp, body := ts.do(t, http.MethodGet, "/api/nodes/n1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var view NodeView
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Equal(t, "Text", view.Type)
	assert.Equal(t, document.RootID, view.Parent)
	assert.True(t, view.Selected)
	assert.Empty(t, view.Nodes)
	assert.Empty(t, view.PropsError)
}

func TestErrorStatuses(t *testing.T) {
	ts := newTestServer(t)
	ts.add(t, "Text", "")
	outer := ts.add(t, "Container", "")
	inner := ts.add(t, "Container", outer)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"leaf parent", http.MethodPost, "/api/nodes", map[string]any{"type": "Text", "parent": "n1"}, http.StatusForbidden, errors.CodeInvalidParent},
		{"unknown type", http.MethodPost, "/api/nodes", map[string]any{"type": "Marquee"}, http.StatusUnprocessableEntity, errors.CodeUnknownType},
		{"missing node", http.MethodDelete, "/api/nodes/ghost", nil, http.StatusNotFound, errors.CodeNodeNotFound},
		{"root not deletable", http.MethodDelete, "/api/nodes/ROOT", nil, http.StatusForbidden, errors.CodeNotDeletable},
		{"cycle", http.MethodPost, "/api/nodes/" + outer + "/move", map[string]any{"parent": inner}, http.StatusConflict, errors.CodeCycleDetected},
		{"malformed document", http.MethodPut, "/api/document", "{", http.StatusConflict, errors.CodeMalformed},
		{"bad body", http.MethodPost, "/api/nodes", "[", http.StatusBadRequest, errors.CodeInvalidProps},
		{"missing move parent", http.MethodPost, "/api/nodes/n1/move", map[string]any{}, http.StatusBadRequest, errors.CodeInvalidProps},
		{"bad selection mode", http.MethodPost, "/api/selection", map[string]any{"mode": "lasso"}, http.StatusBadRequest, errors.CodeInvalidProps},
		{"unknown component", http.MethodGet, "/api/components/Marquee", nil, http.StatusUnprocessableEntity, errors.CodeUnknownType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := ts.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode, string(body))
			assert.Equal(t, tt.code, errorCode(t, body))
		})
	}
}

func TestPreviewModeLocksEditing(t *testing.T) {
	ts := newTestServer(t)
	id := ts.add(t, "Text", "")

	resp, _ := ts.do(t, http.MethodPost, "/api/mode", map[string]any{"editing": false})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := ts.do(t, http.MethodPost, "/api/nodes", map[string]any{"type": "Text"})
	assert.Equal(t, http.StatusLocked, resp.StatusCode)
	assert.Equal(t, errors.CodeEditingDisabled, errorCode(t, body))

	resp, _ = ts.do(t, http.MethodPost, "/api/selection", map[string]any{"ids": []string{id}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	_, body = ts.do(t, http.MethodGet, "/api/mode", nil)
	assert.JSONEq(t, `{"editing":false}`, string(body))
}

func TestPropsHiddenMoveDuplicate(t *testing.T) {
	ts := newTestServer(t)
	text := ts.add(t, "Text", "")
	box := ts.add(t, "Container", "")

	resp, _ := ts.do(t, http.MethodPatch, "/api/nodes/"+text+"/props", map[string]any{"text": "Hello"})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = ts.do(t, http.MethodPost, "/api/nodes/"+text+"/hidden", map[string]any{"hidden": true})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	_, body := ts.do(t, http.MethodGet, "/api/nodes/"+text, nil)
	var view NodeView
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Equal(t, "Hello", view.Props["text"])
	assert.True(t, view.Hidden)

	resp, _ = ts.do(t, http.MethodPost, "/api/nodes/"+text+"/move", map[string]any{"parent": box, "index": 0})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	_, body = ts.do(t, http.MethodGet, "/api/nodes/"+box, nil)
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Equal(t, []string{text}, view.Nodes)

	resp, body = ts.do(t, http.MethodPost, "/api/nodes/"+text+"/duplicate", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	_, body = ts.do(t, http.MethodGet, "/api/nodes/"+box, nil)
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Len(t, view.Nodes, 2)
	assert.Equal(t, text, view.Nodes[0])
}

func TestClearCanvas(t *testing.T) {
	ts := newTestServer(t)
	ts.add(t, "Text", "")
	box := ts.add(t, "Container", "")
	ts.add(t, "Button", box)

	resp, body := ts.do(t, http.MethodDelete, "/api/nodes", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct{ Removed []string }
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Len(t, out.Removed, 3)
	assert.Len(t, getDocument(t, ts), 1)
}

func TestSelectionAndKeys(t *testing.T) {
	ts := newTestServer(t)
	a := ts.add(t, "Text", "")
	b := ts.add(t, "Text", "")

	_, body := ts.do(t, http.MethodPost, "/api/selection", map[string]any{"ids": []string{a, "ghost"}})
	assert.JSONEq(t, `{"ids":["n1"]}`, string(body))
	_, body = ts.do(t, http.MethodPost, "/api/selection", map[string]any{"ids": []string{b}, "mode": "add"})
	assert.JSONEq(t, `{"ids":["n1","n2"]}`, string(body))

	_, body = ts.do(t, http.MethodPost, "/api/keys", map[string]any{"key": "Delete", "focus": "text"})
	assert.JSONEq(t, `{"handled":false,"action":"delete"}`, string(body))
	assert.Len(t, getDocument(t, ts), 3)

	resp, body := ts.do(t, http.MethodPost, "/api/keys", map[string]any{"key": "Delete"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.JSONEq(t, `{"handled":true,"action":"delete"}`, string(body))
	assert.Len(t, getDocument(t, ts), 1)

	_, body = ts.do(t, http.MethodPost, "/api/selection", map[string]any{"ids": []string{}})
	assert.JSONEq(t, `{"ids":[]}`, string(body))
}

func TestHistoryEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ts.add(t, "Text", "")

	_, body := ts.do(t, http.MethodPost, "/api/history/checkpoint", nil)
	var out historyResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.True(t, out.Changed)
	assert.Equal(t, 2, out.Status.Len)
	assert.True(t, out.Status.CanUndo)

	_, body = ts.do(t, http.MethodPost, "/api/history/undo", nil)
	require.NoError(t, json.Unmarshal(body, &out))
	assert.True(t, out.Changed)
	assert.NotContains(t, getDocument(t, ts), "n1")

	_, body = ts.do(t, http.MethodPost, "/api/history/redo", nil)
	require.NoError(t, json.Unmarshal(body, &out))
	assert.True(t, out.Changed)
	assert.Contains(t, getDocument(t, ts), "n1")

	_, body = ts.do(t, http.MethodPost, "/api/history/redo", nil)
	require.NoError(t, json.Unmarshal(body, &out))
	assert.False(t, out.Changed)

	resp, _ := ts.do(t, http.MethodPost, "/api/history/rewind", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUndoIncludesPendingEdits(t *testing.T) {
	ts := newTestServer(t)
	ts.add(t, "Text", "")
	ts.add(t, "Text", "")

	// Both adds are pending under the hour-long delay; undo records them
	// first and then steps back to the empty document.
	_, body := ts.do(t, http.MethodPost, "/api/history/undo", nil)
	var out historyResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.True(t, out.Changed)
	assert.Len(t, getDocument(t, ts), 1)
	assert.True(t, out.Status.CanRedo)
}

func TestDebouncedCheckpoint(t *testing.T) {
	ts := newTestServer(t, func(o *Options) {
		o.Config.Editor.CheckpointDelay = 20 * time.Millisecond
	})
	ts.add(t, "Text", "")
	ts.add(t, "Text", "")

	assert.Eventually(t, func() bool {
		return ts.historyStatus().Len == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestComponentsAndHealth(t *testing.T) {
	ts := newTestServer(t)

	_, body := ts.do(t, http.MethodGet, "/api/components", nil)
	var out struct {
		Components []registry.Descriptor
	}
	require.NoError(t, json.Unmarshal(body, &out))
	var names []string
	for _, d := range out.Components {
		names = append(names, d.Name)
	}
	assert.Contains(t, names, "Button")
	assert.Contains(t, names, "Container")

	resp, body := ts.do(t, http.MethodGet, "/api/components/Button", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"isCanvas":false`)

	resp, body = ts.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var health map[string]any
	require.NoError(t, json.Unmarshal(body, &health))
	assert.Equal(t, "healthy", health["status"])
	assert.EqualValues(t, 1, health["nodes"])
}

func TestLayoutsEndpoints(t *testing.T) {
	ts := newTestServer(t)
	ts.add(t, "Button", "")

	resp, body := ts.do(t, http.MethodPost, "/api/layouts", map[string]any{"name": "Call to action", "type": "section"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var saved struct {
		ID        string
		CraftJSON json.RawMessage
	}
	require.NoError(t, json.Unmarshal(body, &saved))
	assert.Contains(t, string(saved.CraftJSON), "Button")

	resp, body = ts.do(t, http.MethodPost, "/api/layouts", map[string]any{"name": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))

	_, body = ts.do(t, http.MethodGet, "/api/layouts?type=section", nil)
	assert.Contains(t, string(body), saved.ID)
	_, body = ts.do(t, http.MethodGet, "/api/layouts?type=header", nil)
	assert.JSONEq(t, `{"layouts":[]}`, string(body))
	resp, _ = ts.do(t, http.MethodGet, "/api/layouts?type=sidebar", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	ts.do(t, http.MethodDelete, "/api/nodes", nil)
	assert.Len(t, getDocument(t, ts), 1)

	resp, _ = ts.do(t, http.MethodPost, "/api/layouts/"+saved.ID+"/load", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Len(t, getDocument(t, ts), 2)

	resp, _ = ts.do(t, http.MethodDelete, "/api/layouts/"+saved.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, body = ts.do(t, http.MethodGet, "/api/layouts/"+saved.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, errors.CodeLayoutNotFound, errorCode(t, body))
}

func TestPreviewAndExport(t *testing.T) {
	ts := newTestServer(t)
	id := ts.add(t, "Text", "")
	ts.do(t, http.MethodPatch, "/api/nodes/"+id+"/props", map[string]any{"text": "<b>hi</b>"})

	resp, body := ts.do(t, http.MethodGet, "/preview", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(string(body), "<!DOCTYPE html>"))
	assert.Contains(t, string(body), "<title>Test Page</title>")
	assert.Contains(t, string(body), "&lt;b&gt;hi&lt;/b&gt;")
	assert.Empty(t, resp.Header.Get("Content-Disposition"))

	resp, body = ts.do(t, http.MethodGet, "/export?title=About%20Us", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="about-us.html"`, resp.Header.Get("Content-Disposition"))
	assert.Contains(t, string(body), "<title>About Us</title>")
}

func TestPutDocumentReplacesTree(t *testing.T) {
	ts := newTestServer(t)
	ts.add(t, "Text", "")

	doc := `{"ROOT":{"type":{"resolvedName":"Container"},"isCanvas":true,"props":{},"parent":null,"nodes":["x"]},
		"x":{"type":{"resolvedName":"Heading"},"isCanvas":false,"props":{"text":"Hi"},"parent":"ROOT","nodes":[]}}`
	resp, body := ts.do(t, http.MethodPut, "/api/document", doc)
	require.Equal(t, http.StatusNoContent, resp.StatusCode, string(body))

	got := getDocument(t, ts)
	assert.Contains(t, got, "x")
	assert.NotContains(t, got, "n1")
	assert.Equal(t, 1, ts.historyStatus().Len)
}

type fakeBackend struct {
	backend.Client
	saved []backend.PageInput
}

func (f *fakeBackend) CreatePage(_ context.Context, in backend.PageInput) (*backend.Page, error) {
	f.saved = append(f.saved, in)
	return &backend.Page{ID: "p1", Title: in.Title, Slug: in.Slug}, nil
}

func TestSavePage(t *testing.T) {
	ts := newTestServer(t)
	resp, body := ts.do(t, http.MethodPost, "/api/pages/save", map[string]any{"title": "Home"})
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, errors.CodeBackend, errorCode(t, body))

	fake := &fakeBackend{}
	ts = newTestServer(t, func(o *Options) { o.Backend = fake })
	ts.add(t, "Text", "")

	resp, body = ts.do(t, http.MethodPost, "/api/pages/save", map[string]any{"title": "Home Page"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, string(body), `"id":"p1"`)
	require.Len(t, fake.saved, 1)
	assert.Equal(t, "home-page", fake.saved[0].Slug)
	assert.Contains(t, string(fake.saved[0].Content), "n1")
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.url+"/api/nodes", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))

	req, err = http.NewRequest(http.MethodGet, ts.url+"/health", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://evil.example")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New(errors.ErrCycleDetected, "x"), http.StatusConflict},
		{errors.New(errors.ErrNotDraggable, "x"), http.StatusForbidden},
		{errors.New(errors.ErrUnknownType, "x"), http.StatusUnprocessableEntity},
		{errors.NewValidationError("x", nil), http.StatusBadRequest},
		{errors.New(errors.ErrEditingDisabled, "x"), http.StatusLocked},
		{errors.New(errors.ErrNodeNotFound, "x"), http.StatusNotFound},
		{errors.NewNetworkError("x", nil), http.StatusBadGateway},
		{io.EOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestOriginPatterns(t *testing.T) {
	assert.Equal(t,
		[]string{"localhost:5173", "*", "example.com"},
		originPatterns([]string{"http://localhost:5173", "*", "https://example.com", "::bad", "nohost"}))
}

func TestNewRequiresEngine(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/conneroisu/pagecraft/internal/backend"
	"github.com/conneroisu/pagecraft/internal/document"
	"github.com/conneroisu/pagecraft/internal/editor"
	"github.com/conneroisu/pagecraft/internal/errors"
	"github.com/conneroisu/pagecraft/internal/history"
	"github.com/conneroisu/pagecraft/internal/layouts"
	"github.com/conneroisu/pagecraft/internal/props"
	"github.com/conneroisu/pagecraft/internal/registry"
	"github.com/conneroisu/pagecraft/internal/renderer"
	"github.com/conneroisu/pagecraft/internal/version"
)

// NodeView is the API shape of one node.
type NodeView struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	DisplayName string    `json:"displayName,omitempty"`
	IsCanvas    bool      `json:"isCanvas"`
	Parent      string    `json:"parent,omitempty"`
	Nodes       []string  `json:"nodes"`
	Props       props.Bag `json:"props"`
	Hidden      bool      `json:"hidden"`
	Selected    bool      `json:"selected"`
	// PropsError explains why the props do not resolve, if they don't.
	PropsError string `json:"propsError,omitempty"`
}

type addNodeRequest struct {
	Type   string    `json:"type"`
	Props  props.Bag `json:"props"`
	Parent string    `json:"parent"`
	// Index is the child position; nil or out of range appends.
	Index *int `json:"index"`
}

type moveRequest struct {
	Parent string `json:"parent"`
	Index  *int   `json:"index"`
}

type selectRequest struct {
	IDs  []string          `json:"ids"`
	Mode editor.SelectMode `json:"mode"`
}

type keyRequest struct {
	editor.Key
	// Focus is "canvas" (default) or "text".
	Focus string `json:"focus"`
}

type modeBody struct {
	Editing bool `json:"editing"`
}

type historyResponse struct {
	Changed bool           `json:"changed"`
	Status  history.Status `json:"status"`
}

type saveLayoutRequest struct {
	Name      string       `json:"name"`
	Type      layouts.Kind `json:"type"`
	Thumbnail string       `json:"thumbnail"`
}

type savePageRequest struct {
	PageID string         `json:"pageId"`
	Title  string         `json:"title"`
	Status backend.Status `json:"status"`
}

func index(i *int) int {
	if i == nil {
		return -1
	}
	return *i
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	var data []byte
	err := s.session.Do(func(e *editor.Engine) error {
		var err error
		data, err = e.Snapshot()
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeRaw(w, r, data)
}

func (s *Server) handlePutDocument(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.session.Do(func(e *editor.Engine) error { return e.Load(body) }); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddNode(w http.ResponseWriter, r *http.Request) {
	var req addNodeRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Parent == "" {
		req.Parent = document.RootID
	}

	var id string
	err := s.session.Edit(func(e *editor.Engine) error {
		var err error
		id, err = e.AddNode(req.Type, req.Props, req.Parent, index(req.Index))
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleClearCanvas(w http.ResponseWriter, r *http.Request) {
	var removed []string
	err := s.session.Edit(func(e *editor.Engine) error {
		var err error
		removed, err = e.ClearCanvas()
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if removed == nil {
		removed = []string{}
	}
	s.writeJSON(w, r, http.StatusOK, map[string][]string{"removed": removed})
}

func (s *Server) handleGetNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var view NodeView
	err := s.session.Do(func(e *editor.Engine) error {
		n, ok := e.Node(id)
		if !ok {
			return errors.Newf(errors.ErrNodeNotFound, "node %q not found", id).WithNode(id)
		}
		view = NodeView{
			ID:          n.ID,
			Type:        n.Type,
			DisplayName: n.DisplayName,
			IsCanvas:    n.IsCanvas,
			Parent:      n.Parent,
			Nodes:       n.Children,
			Props:       n.Props,
			Hidden:      n.Hidden,
		}
		if view.Nodes == nil {
			view.Nodes = []string{}
		}
		for _, sel := range e.Selected() {
			if sel == id {
				view.Selected = true
			}
		}
		if _, err := e.ResolvedProps(id); err != nil {
			view.PropsError = err.Error()
		}
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, view)
}

func (s *Server) handleDeleteNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.session.Edit(func(e *editor.Engine) error { return e.DeleteNode(id) }); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetProps(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var bag props.Bag
	if err := decode(r, &bag); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.session.Edit(func(e *editor.Engine) error { return e.SetProps(id, bag) }); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSetHidden(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req struct {
		Hidden bool `json:"hidden"`
	}
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.session.Edit(func(e *editor.Engine) error { return e.SetHidden(id, req.Hidden) }); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMoveNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req moveRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Parent == "" {
		s.writeError(w, r, errors.NewValidationError("parent is required", nil))
		return
	}
	if err := s.session.Edit(func(e *editor.Engine) error { return e.MoveNode(id, req.Parent, index(req.Index)) }); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDuplicateNode(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var clone string
	err := s.session.Edit(func(e *editor.Engine) error {
		var err error
		clone, err = e.Duplicate(id)
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, map[string]string{"id": clone})
}

func (s *Server) handleGetSelection(w http.ResponseWriter, r *http.Request) {
	var ids []string
	_ = s.session.Do(func(e *editor.Engine) error {
		ids = e.Selected()
		return nil
	})
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, r, http.StatusOK, map[string][]string{"ids": ids})
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	switch req.Mode {
	case "":
		req.Mode = editor.SelectReplace
	case editor.SelectReplace, editor.SelectAdd, editor.SelectToggle:
	default:
		s.writeError(w, r, errors.NewValidationError("unknown selection mode "+string(req.Mode), nil))
		return
	}

	var ids []string
	_ = s.session.Do(func(e *editor.Engine) error {
		if len(req.IDs) == 0 && req.Mode == editor.SelectReplace {
			e.ClearSelection()
		} else {
			e.Select(req.IDs, req.Mode)
		}
		ids = e.Selected()
		return nil
	})
	if ids == nil {
		ids = []string{}
	}
	s.writeJSON(w, r, http.StatusOK, map[string][]string{"ids": ids})
}

func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	focus := editor.FocusCanvas
	if req.Focus == "text" {
		focus = editor.FocusTextInput
	}

	// Undo and redo chords step over pending edits, so flush them first.
	action := editor.ActionFor(req.Key)
	run := s.session.Edit
	if action == editor.ActionUndo || action == editor.ActionRedo {
		run = s.session.History
	}

	var handled bool
	err := run(func(e *editor.Engine) error {
		var err error
		handled, err = e.HandleKey(req.Key, focus)
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{"handled": handled, "action": action})
}

func (s *Server) handleGetMode(w http.ResponseWriter, r *http.Request) {
	var body modeBody
	_ = s.session.Do(func(e *editor.Engine) error {
		body.Editing = e.EditingEnabled()
		return nil
	})
	s.writeJSON(w, r, http.StatusOK, body)
}

func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	var body modeBody
	if err := decode(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	_ = s.session.Do(func(e *editor.Engine) error {
		e.SetEditingEnabled(body.Editing)
		return nil
	})
	s.writeJSON(w, r, http.StatusOK, body)
}

func (s *Server) historyStatus() history.Status {
	var status history.Status
	_ = s.session.Do(func(e *editor.Engine) error {
		if h := e.History(); h != nil {
			status = h.Status()
		}
		return nil
	})
	return status
}

func (s *Server) handleHistoryStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, s.historyStatus())
}

func (s *Server) handleHistoryAction(w http.ResponseWriter, r *http.Request) {
	var changed bool
	var err error

	switch r.PathValue("action") {
	case "undo":
		err = s.session.History(func(e *editor.Engine) (undoErr error) {
			changed, undoErr = e.Undo()
			return undoErr
		})
	case "redo":
		err = s.session.History(func(e *editor.Engine) (redoErr error) {
			changed, redoErr = e.Redo()
			return redoErr
		})
	case "checkpoint":
		changed, err = s.session.Checkpoint()
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, historyResponse{Changed: changed, Status: s.historyStatus()})
}

func (s *Server) componentRegistry() *registry.Registry {
	var reg *registry.Registry
	_ = s.session.Do(func(e *editor.Engine) error {
		reg = e.Registry()
		return nil
	})
	return reg
}

func (s *Server) handleComponents(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]any{"components": s.componentRegistry().Palette()})
}

func (s *Server) handleComponent(w http.ResponseWriter, r *http.Request) {
	d, err := s.componentRegistry().Resolve(r.PathValue("name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, d)
}

func (s *Server) handleListLayouts(w http.ResponseWriter, r *http.Request) {
	var kind layouts.Kind
	if t := r.URL.Query().Get("type"); t != "" {
		var err error
		if kind, err = layouts.ParseKind(t); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	list, err := s.layouts.ListByType(r.Context(), kind)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []layouts.Layout{}
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{"layouts": list})
}

// handleSaveLayout stores the current document as a named layout.
func (s *Server) handleSaveLayout(w http.ResponseWriter, r *http.Request) {
	var req saveLayoutRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Type == "" {
		req.Type = layouts.KindPage
	}

	var data []byte
	if err := s.session.Do(func(e *editor.Engine) error {
		var err error
		data, err = e.Snapshot()
		return err
	}); err != nil {
		s.writeError(w, r, err)
		return
	}

	l, err := layouts.New(req.Name, req.Type, data)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	l.Thumbnail = req.Thumbnail
	if err := s.layouts.Save(r.Context(), l); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusCreated, l)
}

func (s *Server) handleGetLayout(w http.ResponseWriter, r *http.Request) {
	l, err := s.layouts.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, l)
}

func (s *Server) handleDeleteLayout(w http.ResponseWriter, r *http.Request) {
	if err := s.layouts.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleLoadLayout(w http.ResponseWriter, r *http.Request) {
	l, err := s.layouts.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.session.Do(func(e *editor.Engine) error { return e.Load(l.CraftJSON) }); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSavePage pushes the current document to the page backend.
func (s *Server) handleSavePage(w http.ResponseWriter, r *http.Request) {
	if s.backend == nil {
		s.writeError(w, r, errors.New(errors.ErrBackend, "no page backend configured"))
		return
	}
	var req savePageRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	var data []byte
	if err := s.session.Do(func(e *editor.Engine) error {
		var err error
		data, err = e.Snapshot()
		return err
	}); err != nil {
		s.writeError(w, r, err)
		return
	}

	res := <-backend.SaveAsync(r.Context(), s.backend, backend.SaveRequest{
		PageID:  req.PageID,
		Title:   req.Title,
		Content: data,
		Status:  req.Status,
	}, s.logger)
	if res.Err != nil {
		s.writeError(w, r, res.Err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, res.Page)
}

func (s *Server) exportOptions(r *http.Request) renderer.Options {
	opts := renderer.Options{Title: s.config.Export.Title, Lang: s.config.Export.Lang}
	if t := r.URL.Query().Get("title"); t != "" {
		opts.Title = t
	}
	return opts
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request) (string, bool) {
	var data []byte
	if err := s.session.Do(func(e *editor.Engine) error {
		var err error
		data, err = e.Snapshot()
		return err
	}); err != nil {
		s.writeError(w, r, err)
		return "", false
	}
	page, err := s.renderer.RenderDocument(r.Context(), data, s.exportOptions(r))
	if err != nil {
		s.writeError(w, r, err)
		return "", false
	}
	return page, true
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	page, ok := s.renderPage(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(page))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	page, ok := s.renderPage(w, r)
	if !ok {
		return
	}
	name := backend.Slugify(s.exportOptions(r).Title) + ".html"
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+strings.ReplaceAll(name, `"`, "")+`"`)
	_, _ = w.Write([]byte(page))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	var nodes int
	_ = s.session.Do(func(e *editor.Engine) error {
		nodes = e.Tree().Len()
		return nil
	})
	s.writeJSON(w, r, http.StatusOK, map[string]any{
		"status":     "healthy",
		"timestamp":  time.Now().UTC(),
		"version":    version.Get().Short(),
		"nodes":      nodes,
		"components": s.componentRegistry().Count(),
		"clients":    s.hub.count(),
		"history":    s.historyStatus(),
	})
}

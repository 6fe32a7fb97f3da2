// Package renderer flattens a stored document into framework-free HTML
// for preview and export.
package renderer

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/conneroisu/pagecraft/internal/codec"
	"github.com/conneroisu/pagecraft/internal/document"
	"github.com/conneroisu/pagecraft/internal/errors"
	"github.com/conneroisu/pagecraft/internal/logging"
	"github.com/conneroisu/pagecraft/internal/props"
)

const (
	DefaultTitle = "Craft Page"
	DefaultLang  = "en"
)

// Options configures the full-page wrapper.
type Options struct {
	Title string
	Lang  string
}

func (o Options) withDefaults() Options {
	if o.Title == "" {
		o.Title = DefaultTitle
	}
	if o.Lang == "" {
		o.Lang = DefaultLang
	}
	return o
}

// Renderer turns documents into HTML. It never mutates its input and
// holds no per-render state, so one Renderer may serve concurrent
// requests.
type Renderer struct {
	static *StaticRegistry
	logger logging.Logger
}

// New returns a Renderer over static. A nil static uses DefaultStatic.
func New(static *StaticRegistry, logger logging.Logger) *Renderer {
	if static == nil {
		static = DefaultStatic()
	}
	return &Renderer{
		static: static,
		logger: logging.OrNop(logger).WithComponent("renderer"),
	}
}

// RenderFragment renders the node tree of data, without a page wrapper.
func (r *Renderer) RenderFragment(ctx context.Context, data []byte) (string, error) {
	return r.render(ctx, data, nil)
}

// RenderDocument renders data as a complete HTML page.
func (r *Renderer) RenderDocument(ctx context.Context, data []byte, opts Options) (string, error) {
	return r.render(ctx, data, &opts)
}

func (r *Renderer) render(ctx context.Context, data []byte, opts *Options) (string, error) {
	doc, err := codec.Parse(data)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := r.Write(ctx, &b, doc, opts); err != nil {
		return "", err
	}
	return b.String(), nil
}

// Write renders doc to w. A nil opts writes only the fragment.
func (r *Renderer) Write(ctx context.Context, w io.Writer, doc codec.Document, opts *Options) (err error) {
	perf := logging.StartOperation(r.logger, "render")
	defer func() {
		if err != nil {
			perf.EndWithError(ctx, err)
			return
		}
		perf.End(ctx)
	}()

	fragment, err := r.Fragment(ctx, doc)
	if err != nil {
		return err
	}
	if opts == nil {
		return fragment.Render(ctx, w)
	}
	return Page(opts.withDefaults()).Render(templ.WithChildren(ctx, fragment), w)
}

// Fragment builds the component for doc, starting at ROOT. Nodes whose
// type has no static component, hidden nodes and nodes whose props cannot
// be decoded are skipped together with their subtrees.
func (r *Renderer) Fragment(ctx context.Context, doc codec.Document) (templ.Component, error) {
	if root, ok := doc[document.RootID]; !ok || root == nil {
		return nil, errors.New(errors.ErrMissingRoot, `document has no "ROOT" entry`)
	}
	visited := make(map[string]bool, len(doc))
	return r.node(ctx, doc, document.RootID, visited), nil
}

func (r *Renderer) node(ctx context.Context, doc codec.Document, id string, visited map[string]bool) templ.Component {
	if visited[id] {
		r.logger.Warn(ctx, nil, "Skipping node reached twice", "node_id", id)
		return templ.NopComponent
	}
	visited[id] = true

	w := doc[id]
	if w == nil {
		return templ.NopComponent
	}
	if w.Hidden {
		return templ.NopComponent
	}

	typ := w.Type.ResolvedName
	entry, ok := r.static.Lookup(typ)
	if !ok {
		r.logger.Debug(ctx, "Skipping node with no static component", "node_id", id, "type", typ)
		return templ.NopComponent
	}

	bag := props.Merge(entry.Defaults, w.Props)
	p := entry.NewProps()
	if err := props.Decode(bag, p); err != nil {
		r.logger.Warn(ctx, err, "Skipping node with undecodable props", "node_id", id, "type", typ)
		return templ.NopComponent
	}

	children := make([]templ.Component, 0, len(w.Nodes))
	for _, child := range w.Nodes {
		children = append(children, r.node(ctx, doc, child, visited))
	}

	return entry.Render(StaticNode{ID: id, Type: typ, Bag: bag, Props: p}, templ.Join(children...))
}

// Page wraps the children in ctx in a minimal HTML document with a
// charset, a viewport and a body reset.
func Page(opts Options) templ.Component {
	opts = opts.withDefaults()
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		head := `<!DOCTYPE html>
<html lang="` + templ.EscapeString(opts.Lang) + `">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>` + templ.EscapeString(opts.Title) + `</title>
<style>
body { margin: 0; font-family: Arial, sans-serif; }
</style>
</head>
<body>
`
		if _, err := io.WriteString(w, head); err != nil {
			return err
		}
		if err := templ.GetChildren(ctx).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "\n</body>\n</html>\n")
		return err
	})
}

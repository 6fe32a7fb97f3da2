package renderer

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/a-h/templ"

	"github.com/conneroisu/pagecraft/internal/props"
)

// StaticNode is what a static component sees: the node's id and type,
// its prop bag merged over the component's defaults, and the decoded
// typed props.
type StaticNode struct {
	ID    string
	Type  string
	Bag   props.Bag
	Props props.Props
}

// Func turns a node and its already-rendered children into markup.
type Func func(n StaticNode, children templ.Component) templ.Component

// StaticComponent is one entry of a StaticRegistry.
type StaticComponent struct {
	Defaults props.Bag
	NewProps func() props.Props
	Render   Func
}

// StaticRegistry maps type names to static components. It is separate
// from the interactive registry so export never depends on editor-only
// behavior.
type StaticRegistry struct {
	entries map[string]StaticComponent
	mutex   sync.RWMutex
}

// NewStaticRegistry returns an empty registry.
func NewStaticRegistry() *StaticRegistry {
	return &StaticRegistry{entries: make(map[string]StaticComponent)}
}

// Register adds or replaces the component for name.
func (r *StaticRegistry) Register(name string, c StaticComponent) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if c.NewProps == nil {
		c.NewProps = func() props.Props { return &props.UnknownProps{OriginalType: name} }
	}
	r.entries[name] = c
}

// Lookup returns the component registered for name.
func (r *StaticRegistry) Lookup(name string) (StaticComponent, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	c, ok := r.entries[name]
	return c, ok
}

// Names returns the registered type names, sorted.
func (r *StaticRegistry) Names() []string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultStatic returns a registry with every builtin type. Image is
// also registered as ImageComponent, the name older documents use.
func DefaultStatic() *StaticRegistry {
	r := NewStaticRegistry()
	r.Register(props.TypeContainer, StaticComponent{
		NewProps: func() props.Props { return &props.ContainerProps{} },
		Render:   renderContainer,
	})
	r.Register(props.TypeSection, StaticComponent{
		Defaults: props.Bag{"maxWidth": "1200px"},
		NewProps: func() props.Props { return &props.SectionProps{} },
		Render:   renderSection,
	})
	r.Register(props.TypeGrid, StaticComponent{
		Defaults: props.Bag{"columns": 2, "gap": 16},
		NewProps: func() props.Props { return &props.GridProps{} },
		Render:   renderGrid,
	})
	r.Register(props.TypeText, StaticComponent{
		NewProps: func() props.Props { return &props.TextProps{} },
		Render:   renderText,
	})
	r.Register(props.TypeHeading, StaticComponent{
		Defaults: props.Bag{"level": 2},
		NewProps: func() props.Props { return &props.HeadingProps{} },
		Render:   renderHeading,
	})
	r.Register(props.TypeButton, StaticComponent{
		Defaults: props.Bag{
			"text":            "Button",
			"backgroundColor": "#000",
			"color":           "#fff",
			"borderRadius":    4,
			"padding":         10,
			"fontSize":        16,
			"fontWeight":      "normal",
		},
		NewProps: func() props.Props { return &props.ButtonProps{} },
		Render:   renderButton,
	})
	image := StaticComponent{
		Defaults: props.Bag{
			"alt":       "",
			"width":     "100%",
			"height":    "auto",
			"objectFit": "cover",
		},
		NewProps: func() props.Props { return &props.ImageProps{} },
		Render:   renderImage,
	}
	r.Register(props.TypeImage, image)
	r.Register("ImageComponent", image)
	r.Register(props.TypeCard, StaticComponent{
		Defaults: props.Bag{"borderRadius": 8, "padding": 24},
		NewProps: func() props.Props { return &props.CardProps{} },
		Render:   renderCard,
	})
	r.Register(props.TypeHero, StaticComponent{
		NewProps: func() props.Props { return &props.HeroProps{} },
		Render:   renderHero,
	})
	r.Register(props.TypeSpacer, StaticComponent{
		Defaults: props.Bag{"height": 32},
		NewProps: func() props.Props { return &props.SpacerProps{} },
		Render:   renderSpacer,
	})
	return r
}

func styleAttr(s style) []attr {
	return []attr{{name: "style", value: s.String()}}
}

func spacing(s props.Spacing) string {
	if s.IsZero() {
		return ""
	}
	return s.CSS()
}

// width fills the parent minus any horizontal margin when the node asks
// for 100%.
func width(w props.Length, margin props.Spacing) string {
	if w == "100%" {
		return props.CompressedWidth(margin)
	}
	return w.CSS()
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func renderContainer(n StaticNode, children templ.Component) templ.Component {
	p := n.Props.(*props.ContainerProps)
	var s style
	s.set("display", "flex")
	s.set("flex-direction", p.FlexDirection)
	s.set("justify-content", p.JustifyContent)
	s.set("align-items", p.AlignItems)
	s.set("flex-wrap", p.FlexWrap)
	s.set("gap", p.Gap.CSS())
	s.set("padding", spacing(p.Padding))
	s.set("margin", spacing(p.Margin))
	s.set("background", firstOf(p.Background, p.BackgroundColor))
	s.set("width", width(p.Width, p.Margin))
	s.set("height", p.Height.CSS())
	s.set("min-width", p.MinWidth.CSS())
	s.set("min-height", p.MinHeight.CSS())
	s.set("border-radius", p.BorderRadius.CSS())
	if p.BorderWidth != "" && p.BorderColor != "" {
		s.set("border", p.BorderWidth.CSS()+" solid "+p.BorderColor)
	}
	return element("div", styleAttr(s), children)
}

func renderSection(n StaticNode, children templ.Component) templ.Component {
	p := n.Props.(*props.SectionProps)
	var outer style
	outer.set("background", p.Background)
	outer.set("padding", spacing(p.Padding))
	outer.set("margin", spacing(p.Margin))
	outer.set("min-height", p.MinHeight.CSS())
	outer.set("text-align", p.TextAlign)

	var inner style
	inner.set("max-width", p.MaxWidth.CSS())
	inner.set("margin", "0 auto")
	return element("section", styleAttr(outer), element("div", styleAttr(inner), children))
}

func renderGrid(n StaticNode, children templ.Component) templ.Component {
	p := n.Props.(*props.GridProps)
	columns := p.Columns
	if columns < 1 {
		columns = 1
	}
	var s style
	s.set("display", "grid")
	s.set("grid-template-columns", "repeat("+strconv.Itoa(columns)+", minmax(0, 1fr))")
	s.set("gap", p.Gap.CSS())
	s.set("padding", spacing(p.Padding))
	s.set("background", p.Background)
	if p.MinRowHeight != "" {
		s.set("grid-auto-rows", "minmax("+p.MinRowHeight.CSS()+", auto)")
	}
	return element("div", styleAttr(s), children)
}

func renderText(n StaticNode, _ templ.Component) templ.Component {
	p := n.Props.(*props.TextProps)
	var s style
	s.set("font-size", p.FontSize.CSS())
	s.set("font-weight", p.FontWeight)
	s.set("color", p.Color)
	s.set("background-color", p.BackgroundColor)
	s.set("text-align", p.TextAlign)
	s.set("line-height", p.LineHeight)
	s.set("padding", spacing(p.Padding))
	s.set("margin", spacing(p.Margin))
	s.set("border-radius", p.BorderRadius.CSS())
	s.set("width", width(p.Width, p.Margin))
	s.set("height", p.Height.CSS())
	s.set("min-width", p.MinWidth.CSS())
	s.set("min-height", p.MinHeight.CSS())
	return element("div", styleAttr(s), text(p.Text))
}

func renderHeading(n StaticNode, _ templ.Component) templ.Component {
	p := n.Props.(*props.HeadingProps)
	level := p.Level
	if level < 1 || level > 6 {
		level = 2
	}
	var s style
	s.set("color", p.Color)
	s.set("text-align", p.TextAlign)
	s.set("font-size", p.FontSize.CSS())
	return element("h"+strconv.Itoa(level), styleAttr(s), text(p.Text))
}

func renderButton(n StaticNode, _ templ.Component) templ.Component {
	p := n.Props.(*props.ButtonProps)
	var s style
	s.set("background-color", p.BackgroundColor)
	s.set("color", p.ForegroundColor())
	s.set("border-radius", p.BorderRadius.CSS())
	s.set("padding", spacing(p.Padding))
	s.set("font-size", p.FontSize.CSS())
	s.set("font-weight", p.FontWeight)
	s.set("width", p.Width.CSS())
	s.set("height", p.Height.CSS())
	s.set("border", "none")
	s.set("cursor", "pointer")

	if p.Href != "" {
		s.set("display", "inline-block")
		s.set("text-decoration", "none")
		return element("a", []attr{
			{name: "href", value: safeURL(p.Href)},
			{name: "style", value: s.String()},
		}, text(p.Text))
	}
	return element("button", []attr{
		{name: "type", value: "button"},
		{name: "style", value: s.String()},
	}, text(p.Text))
}

func renderImage(n StaticNode, _ templ.Component) templ.Component {
	p := n.Props.(*props.ImageProps)
	var s style
	s.set("width", p.Width.CSS())
	s.set("height", p.Height.CSS())
	s.set("object-fit", p.ObjectFit)
	s.set("border-radius", p.BorderRadius.CSS())
	return void("img", []attr{
		{name: "src", value: safeURL(p.Src)},
		{name: "alt", value: p.Alt, keep: true},
		{name: "style", value: s.String()},
	})
}

func renderCard(n StaticNode, children templ.Component) templ.Component {
	p := n.Props.(*props.CardProps)
	var s style
	s.set("background-color", p.BackgroundColor)
	if p.BorderColor != "" {
		s.set("border", "1px solid "+p.BorderColor)
	}
	s.set("border-radius", p.BorderRadius.CSS())
	s.set("padding", spacing(p.Padding))
	s.set("text-align", p.TextAlign)

	var title, content style
	title.set("color", p.TitleColor)
	title.set("margin", "0 0 8px")
	content.set("color", p.ContentColor)
	content.set("margin", "0")

	parts := []templ.Component{}
	if p.Title != "" {
		parts = append(parts, element("h3", styleAttr(title), text(p.Title)))
	}
	if p.Content != "" {
		parts = append(parts, element("p", styleAttr(content), text(p.Content)))
	}
	parts = append(parts, children)
	return element("div", styleAttr(s), templ.Join(parts...))
}

func renderHero(n StaticNode, _ templ.Component) templ.Component {
	p := n.Props.(*props.HeroProps)
	var s style
	s.set("padding", "96px 24px")
	s.set("text-align", "center")
	s.set("color", "#ffffff")
	s.set("background-color", "#111827")
	if img := safeURL(p.BackgroundImage); img != "" {
		s.setURL("background-image", img)
		s.set("background-size", "cover")
		s.set("background-position", "center")
	}

	parts := []templ.Component{
		element("h1", styleAttr(style{"margin: 0 0 16px", "font-size: 48px"}), text(p.Title)),
	}
	if p.Subtitle != "" {
		parts = append(parts, element("p", styleAttr(style{"margin: 0 0 32px", "font-size: 20px"}), text(p.Subtitle)))
	}
	if p.ButtonText != "" {
		var button style
		button.set("display", "inline-block")
		button.set("padding", "12px 32px")
		button.set("background-color", "#3b82f6")
		button.set("color", "#ffffff")
		button.set("border-radius", "6px")
		button.set("text-decoration", "none")
		parts = append(parts, element("a", []attr{
			{name: "href", value: safeURL(firstOf(p.ButtonLink, "#"))},
			{name: "style", value: button.String()},
		}, text(p.ButtonText)))
	}
	return element("section", styleAttr(s), templ.Join(parts...))
}

func renderSpacer(n StaticNode, _ templ.Component) templ.Component {
	p := n.Props.(*props.SpacerProps)
	var s style
	s.set("height", p.Height.CSS())
	return element("div", []attr{
		{name: "style", value: s.String()},
		{name: "aria-hidden", value: "true"},
	}, nil)
}

var cssStringEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", "", "\r", "")

// cssString quotes s for use inside url("...").
func cssString(s string) string {
	return `"` + cssStringEscaper.Replace(s) + `"`
}

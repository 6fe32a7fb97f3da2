package registry

import (
	"github.com/conneroisu/pagecraft/internal/props"
)

// Categories used by the built-in palette.
const (
	CategoryLayout  = "layout"
	CategoryBasic   = "basic"
	CategoryMedia   = "media"
	CategorySection = "sections"
)

// PlaceholderImage is the default image source for new Image nodes.
const PlaceholderImage = "https://via.placeholder.com/400x300"

var (
	textAlignOptions = []string{"left", "center", "right", "justify"}
	weightOptions    = []string{"normal", "bold", "300", "400", "500", "600", "700"}
)

// Default returns a registry holding the built-in palette. The caller
// owns it and normally freezes it before the first session starts.
func Default() *Registry {
	r := New()
	for _, d := range builtins() {
		r.MustRegister(d.Name, d)
	}
	return r
}

func leafRules() Rules {
	r := AllowAll()
	r.CanDrop = false
	r.CanMoveIn = false
	return r
}

func builtins() []Descriptor {
	return []Descriptor{
		{
			Name:        props.TypeContainer,
			DisplayName: "Container",
			Category:    CategoryLayout,
			IsCanvas:    true,
			Rules:       AllowAll(),
			Defaults: props.Bag{
				"background":     "#ffffff",
				"padding":        16,
				"margin":         0,
				"width":          "100%",
				"height":         "auto",
				"minHeight":      100,
				"flexDirection":  "column",
				"justifyContent": "flex-start",
				"alignItems":     "stretch",
				"gap":            8,
				"borderRadius":   8,
				"borderColor":    "#e5e7eb",
				"borderWidth":    1,
			},
			NewProps: func() props.Props { return &props.ContainerProps{} },
			Editor: &PropertyEditor{Fields: []Field{
				{Key: "background", Label: "Background", Kind: FieldColor},
				{Key: "padding", Label: "Padding", Kind: FieldNumber},
				{Key: "margin", Label: "Margin", Kind: FieldNumber},
				{Key: "flexDirection", Label: "Direction", Kind: FieldSelect, Options: []string{"row", "column"}},
				{Key: "justifyContent", Label: "Justify", Kind: FieldSelect, Options: []string{"flex-start", "center", "flex-end", "space-between"}},
				{Key: "alignItems", Label: "Align", Kind: FieldSelect, Options: []string{"stretch", "flex-start", "center", "flex-end"}},
				{Key: "gap", Label: "Gap", Kind: FieldNumber},
				{Key: "borderRadius", Label: "Radius", Kind: FieldNumber},
				{Key: "borderColor", Label: "Border color", Kind: FieldColor},
				{Key: "borderWidth", Label: "Border width", Kind: FieldNumber},
			}},
		},
		{
			Name:        props.TypeSection,
			DisplayName: "Section",
			Category:    CategoryLayout,
			IsCanvas:    true,
			Rules:       AllowAll(),
			Defaults: props.Bag{
				"background": "#f9fafb",
				"padding":    []any{48, 24},
				"maxWidth":   "1200px",
				"minHeight":  200,
				"textAlign":  "left",
			},
			NewProps: func() props.Props { return &props.SectionProps{} },
			Editor: &PropertyEditor{Fields: []Field{
				{Key: "background", Label: "Background", Kind: FieldColor},
				{Key: "padding", Label: "Padding", Kind: FieldNumber},
				{Key: "maxWidth", Label: "Max width", Kind: FieldText},
				{Key: "textAlign", Label: "Text align", Kind: FieldSelect, Options: textAlignOptions},
			}},
		},
		{
			Name:        props.TypeGrid,
			DisplayName: "Grid",
			Category:    CategoryLayout,
			IsCanvas:    true,
			Rules:       AllowAll(),
			Defaults: props.Bag{
				"columns":      2,
				"gap":          16,
				"padding":      16,
				"background":   "transparent",
				"minRowHeight": 80,
			},
			NewProps: func() props.Props { return &props.GridProps{} },
			Editor: &PropertyEditor{Fields: []Field{
				{Key: "columns", Label: "Columns", Kind: FieldNumber},
				{Key: "gap", Label: "Gap", Kind: FieldNumber},
				{Key: "padding", Label: "Padding", Kind: FieldNumber},
				{Key: "background", Label: "Background", Kind: FieldColor},
			}},
		},
		{
			Name:        props.TypeText,
			DisplayName: "Text",
			Category:    CategoryBasic,
			Rules:       leafRules(),
			Defaults: props.Bag{
				"text":            "Edit this text",
				"fontSize":        16,
				"fontWeight":      "normal",
				"color":           "#000000",
				"backgroundColor": "transparent",
				"textAlign":       "left",
				"lineHeight":      "1.5",
				"padding":         8,
				"margin":          0,
			},
			NewProps: func() props.Props { return &props.TextProps{} },
			Editor: &PropertyEditor{Fields: []Field{
				{Key: "text", Label: "Text", Kind: FieldTextarea},
				{Key: "fontSize", Label: "Font size", Kind: FieldNumber},
				{Key: "fontWeight", Label: "Weight", Kind: FieldSelect, Options: weightOptions},
				{Key: "color", Label: "Color", Kind: FieldColor},
				{Key: "textAlign", Label: "Align", Kind: FieldSelect, Options: textAlignOptions},
			}},
		},
		{
			Name:        props.TypeHeading,
			DisplayName: "Heading",
			Category:    CategoryBasic,
			Rules:       leafRules(),
			Defaults: props.Bag{
				"text":      "Heading",
				"level":     2,
				"color":     "#111827",
				"textAlign": "left",
			},
			NewProps: func() props.Props { return &props.HeadingProps{} },
			Editor: &PropertyEditor{Fields: []Field{
				{Key: "text", Label: "Text", Kind: FieldText},
				{Key: "level", Label: "Level", Kind: FieldSelect, Options: []string{"1", "2", "3", "4", "5", "6"}},
				{Key: "color", Label: "Color", Kind: FieldColor},
				{Key: "textAlign", Label: "Align", Kind: FieldSelect, Options: textAlignOptions},
			}},
		},
		{
			Name:        props.TypeButton,
			DisplayName: "Button",
			Category:    CategoryBasic,
			Rules:       leafRules(),
			Defaults: props.Bag{
				"text":            "Button",
				"backgroundColor": "#3b82f6",
				"textColor":       "#ffffff",
				"borderRadius":    6,
				"padding":         []any{10, 20},
				"fontSize":        14,
				"fontWeight":      "500",
				"width":           "auto",
				"height":          "auto",
				"variant":         "default",
				"href":            "",
			},
			NewProps: func() props.Props { return &props.ButtonProps{} },
			Editor: &PropertyEditor{Fields: []Field{
				{Key: "text", Label: "Label", Kind: FieldText},
				{Key: "href", Label: "Link", Kind: FieldURL},
				{Key: "variant", Label: "Variant", Kind: FieldSelect, Options: []string{"default", "outline", "ghost", "link", "secondary"}},
				{Key: "backgroundColor", Label: "Background", Kind: FieldColor},
				{Key: "textColor", Label: "Text color", Kind: FieldColor},
				{Key: "borderRadius", Label: "Radius", Kind: FieldNumber},
			}},
		},
		{
			Name:        props.TypeImage,
			DisplayName: "Image",
			Category:    CategoryMedia,
			Rules:       leafRules(),
			Defaults: props.Bag{
				"src":          PlaceholderImage,
				"alt":          "Image",
				"width":        "100%",
				"height":       "auto",
				"objectFit":    "cover",
				"borderRadius": 8,
			},
			NewProps: func() props.Props { return &props.ImageProps{} },
			Editor: &PropertyEditor{Fields: []Field{
				{Key: "src", Label: "Source", Kind: FieldURL},
				{Key: "alt", Label: "Alt text", Kind: FieldText},
				{Key: "objectFit", Label: "Fit", Kind: FieldSelect, Options: []string{"cover", "contain", "fill"}},
				{Key: "borderRadius", Label: "Radius", Kind: FieldNumber},
			}},
		},
		{
			Name:        props.TypeCard,
			DisplayName: "Card",
			Category:    CategoryBasic,
			Rules:       leafRules(),
			Defaults: props.Bag{
				"title":           "Card Title",
				"content":         "This is a card component. You can customize its content and styling.",
				"backgroundColor": "#ffffff",
				"borderColor":     "#e5e7eb",
				"borderRadius":    8,
				"padding":         24,
				"textAlign":       "left",
				"titleColor":      "#111827",
				"contentColor":    "#6b7280",
			},
			NewProps: func() props.Props { return &props.CardProps{} },
			Editor: &PropertyEditor{Fields: []Field{
				{Key: "title", Label: "Title", Kind: FieldText},
				{Key: "content", Label: "Content", Kind: FieldTextarea},
				{Key: "backgroundColor", Label: "Background", Kind: FieldColor},
				{Key: "textAlign", Label: "Align", Kind: FieldSelect, Options: textAlignOptions},
			}},
		},
		{
			Name:        props.TypeHero,
			DisplayName: "Hero Section",
			Category:    CategorySection,
			Rules:       leafRules(),
			Defaults: props.Bag{
				"title":           "Welcome to Our Website",
				"subtitle":        "Create amazing experiences with our drag and drop builder",
				"backgroundImage": "",
				"buttonText":      "Get Started",
				"buttonLink":      "#",
			},
			NewProps: func() props.Props { return &props.HeroProps{} },
			Editor: &PropertyEditor{Fields: []Field{
				{Key: "title", Label: "Title", Kind: FieldText},
				{Key: "subtitle", Label: "Subtitle", Kind: FieldTextarea},
				{Key: "backgroundImage", Label: "Background image", Kind: FieldURL},
				{Key: "buttonText", Label: "Button text", Kind: FieldText},
				{Key: "buttonLink", Label: "Button link", Kind: FieldURL},
			}},
		},
		{
			Name:        props.TypeSpacer,
			DisplayName: "Spacer",
			Category:    CategoryLayout,
			Rules:       leafRules(),
			Defaults:    props.Bag{"height": 32},
			NewProps:    func() props.Props { return &props.SpacerProps{} },
			Editor: &PropertyEditor{Fields: []Field{
				{Key: "height", Label: "Height", Kind: FieldNumber},
			}},
		},
		{
			Name:        props.TypeUnknown,
			DisplayName: "Unknown component",
			Category:    CategoryBasic,
			Hidden:      true,
			Rules:       Rules{CanDelete: true},
			Defaults:    props.Bag{},
			NewProps:    func() props.Props { return &props.UnknownProps{} },
		},
	}
}

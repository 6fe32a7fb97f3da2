package props

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-viper/mapstructure/v2"
)

// Props is the typed view of a node's property bag.
type Props interface {
	// Type is the registry name of the component the props belong to.
	Type() string
	Validate() error
}

// Component type names.
const (
	TypeContainer = "Container"
	TypeSection   = "Section"
	TypeGrid      = "Grid"
	TypeText      = "Text"
	TypeHeading   = "Heading"
	TypeButton    = "Button"
	TypeImage     = "Image"
	TypeCard      = "Card"
	TypeHero      = "Hero"
	TypeSpacer    = "Spacer"
	TypeUnknown   = "Unknown"
)

var (
	textAligns     = []interface{}{"left", "center", "right", "justify"}
	flexDirections = []interface{}{"row", "row-reverse", "column", "column-reverse"}
	flexWraps      = []interface{}{"nowrap", "wrap", "wrap-reverse"}
	justifies      = []interface{}{"flex-start", "flex-end", "center", "space-between", "space-around", "space-evenly", "start", "end"}
	alignments     = []interface{}{"flex-start", "flex-end", "center", "stretch", "baseline", "start", "end"}
	objectFits     = []interface{}{"cover", "contain", "fill", "none", "scale-down"}
	variants       = []interface{}{"default", "outline", "ghost", "link", "secondary"}
	fontWeights    = []interface{}{"normal", "bold", "lighter", "bolder", "100", "200", "300", "400", "500", "600", "700", "800", "900"}
)

// CSSValue accepts a single CSS declaration value. Anything that could
// end the declaration, open a block or start a comment is rejected.
var CSSValue = validation.Match(regexp.MustCompile(`^(?:[^;{}<>\\/]|/[^*;{}<>\\])*/?$`)).
	Error("must be a single CSS value")

// safeURL rejects script-bearing URLs. Relative paths and fragments pass.
var safeURL = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("must be a valid URL")
	}
	switch strings.ToLower(u.Scheme) {
	case "", "http", "https", "mailto", "tel":
		return nil
	default:
		return fmt.Errorf("scheme %q is not allowed", u.Scheme)
	}
})

// ContainerProps configures a flex container.
type ContainerProps struct {
	Background      string  `mapstructure:"background"`
	BackgroundColor string  `mapstructure:"backgroundColor"`
	Padding         Spacing `mapstructure:"padding"`
	Margin          Spacing `mapstructure:"margin"`
	Width           Length  `mapstructure:"width"`
	Height          Length  `mapstructure:"height"`
	MinWidth        Length  `mapstructure:"minWidth"`
	MinHeight       Length  `mapstructure:"minHeight"`
	FlexDirection   string  `mapstructure:"flexDirection"`
	JustifyContent  string  `mapstructure:"justifyContent"`
	AlignItems      string  `mapstructure:"alignItems"`
	FlexWrap        string  `mapstructure:"flexWrap"`
	Gap             Length  `mapstructure:"gap"`
	BorderRadius    Length  `mapstructure:"borderRadius"`
	BorderColor     string  `mapstructure:"borderColor"`
	BorderWidth     Length  `mapstructure:"borderWidth"`
	IsResponsive    bool    `mapstructure:"isResponsive"`
}

func (ContainerProps) Type() string { return TypeContainer }

func (p ContainerProps) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Background, CSSValue),
		validation.Field(&p.BackgroundColor, CSSValue),
		validation.Field(&p.BorderColor, CSSValue),
		validation.Field(&p.FlexDirection, validation.In(flexDirections...)),
		validation.Field(&p.FlexWrap, validation.In(flexWraps...)),
		validation.Field(&p.JustifyContent, validation.In(justifies...)),
		validation.Field(&p.AlignItems, validation.In(alignments...)),
	)
}

// SectionProps configures a full-width page band.
type SectionProps struct {
	Background string  `mapstructure:"background"`
	Padding    Spacing `mapstructure:"padding"`
	Margin     Spacing `mapstructure:"margin"`
	MaxWidth   Length  `mapstructure:"maxWidth"`
	MinHeight  Length  `mapstructure:"minHeight"`
	TextAlign  string  `mapstructure:"textAlign"`
}

func (SectionProps) Type() string { return TypeSection }

func (p SectionProps) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Background, CSSValue),
		validation.Field(&p.TextAlign, validation.In(textAligns...)),
	)
}

// GridProps configures a CSS grid.
type GridProps struct {
	Columns      int     `mapstructure:"columns"`
	Gap          Length  `mapstructure:"gap"`
	Padding      Spacing `mapstructure:"padding"`
	Background   string  `mapstructure:"background"`
	MinRowHeight Length  `mapstructure:"minRowHeight"`
}

func (GridProps) Type() string { return TypeGrid }

func (p GridProps) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Background, CSSValue),
		validation.Field(&p.Columns, validation.Min(1), validation.Max(12)),
	)
}

// TextProps configures a text block.
type TextProps struct {
	Text            string  `mapstructure:"text"`
	FontSize        Length  `mapstructure:"fontSize"`
	FontWeight      string  `mapstructure:"fontWeight"`
	Color           string  `mapstructure:"color"`
	BackgroundColor string  `mapstructure:"backgroundColor"`
	TextAlign       string  `mapstructure:"textAlign"`
	LineHeight      string  `mapstructure:"lineHeight"`
	Padding         Spacing `mapstructure:"padding"`
	Margin          Spacing `mapstructure:"margin"`
	BorderRadius    Length  `mapstructure:"borderRadius"`
	Width           Length  `mapstructure:"width"`
	Height          Length  `mapstructure:"height"`
	MinWidth        Length  `mapstructure:"minWidth"`
	MinHeight       Length  `mapstructure:"minHeight"`
	IsResponsive    bool    `mapstructure:"isResponsive"`
}

func (TextProps) Type() string { return TypeText }

func (p TextProps) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Color, CSSValue),
		validation.Field(&p.BackgroundColor, CSSValue),
		validation.Field(&p.LineHeight, CSSValue),
		validation.Field(&p.TextAlign, validation.In(textAligns...)),
		validation.Field(&p.FontWeight, validation.In(fontWeights...)),
	)
}

// HeadingProps configures an h1-h6 heading.
type HeadingProps struct {
	Text      string `mapstructure:"text"`
	Level     int    `mapstructure:"level"`
	Color     string `mapstructure:"color"`
	TextAlign string `mapstructure:"textAlign"`
	FontSize  Length `mapstructure:"fontSize"`
}

func (HeadingProps) Type() string { return TypeHeading }

func (p HeadingProps) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Color, CSSValue),
		validation.Field(&p.Level, validation.Min(1), validation.Max(6)),
		validation.Field(&p.TextAlign, validation.In(textAligns...)),
	)
}

// ButtonProps configures a button or link button.
type ButtonProps struct {
	Text            string  `mapstructure:"text"`
	BackgroundColor string  `mapstructure:"backgroundColor"`
	TextColor       string  `mapstructure:"textColor"`
	Color           string  `mapstructure:"color"`
	BorderRadius    Length  `mapstructure:"borderRadius"`
	Padding         Spacing `mapstructure:"padding"`
	FontSize        Length  `mapstructure:"fontSize"`
	FontWeight      string  `mapstructure:"fontWeight"`
	Width           Length  `mapstructure:"width"`
	Height          Length  `mapstructure:"height"`
	Variant         string  `mapstructure:"variant"`
	Href            string  `mapstructure:"href"`
}

func (ButtonProps) Type() string { return TypeButton }

func (p ButtonProps) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.BackgroundColor, CSSValue),
		validation.Field(&p.TextColor, CSSValue),
		validation.Field(&p.Color, CSSValue),
		validation.Field(&p.Variant, validation.In(variants...)),
		validation.Field(&p.FontWeight, validation.In(fontWeights...)),
		validation.Field(&p.Href, safeURL),
	)
}

// ForegroundColor prefers textColor and falls back to color.
func (p ButtonProps) ForegroundColor() string {
	if p.TextColor != "" {
		return p.TextColor
	}
	return p.Color
}

// ImageProps configures an image.
type ImageProps struct {
	Src          string `mapstructure:"src"`
	Alt          string `mapstructure:"alt"`
	Width        Length `mapstructure:"width"`
	Height       Length `mapstructure:"height"`
	ObjectFit    string `mapstructure:"objectFit"`
	BorderRadius Length `mapstructure:"borderRadius"`
	IsResponsive bool   `mapstructure:"isResponsive"`
}

func (ImageProps) Type() string { return TypeImage }

func (p ImageProps) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.ObjectFit, validation.In(objectFits...)),
		validation.Field(&p.Src, safeURL),
	)
}

// CardProps configures a titled card.
type CardProps struct {
	Title           string  `mapstructure:"title"`
	Content         string  `mapstructure:"content"`
	BackgroundColor string  `mapstructure:"backgroundColor"`
	BorderColor     string  `mapstructure:"borderColor"`
	BorderRadius    Length  `mapstructure:"borderRadius"`
	Padding         Spacing `mapstructure:"padding"`
	TextAlign       string  `mapstructure:"textAlign"`
	TitleColor      string  `mapstructure:"titleColor"`
	ContentColor    string  `mapstructure:"contentColor"`
}

func (CardProps) Type() string { return TypeCard }

func (p CardProps) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.BackgroundColor, CSSValue),
		validation.Field(&p.BorderColor, CSSValue),
		validation.Field(&p.TitleColor, CSSValue),
		validation.Field(&p.ContentColor, CSSValue),
		validation.Field(&p.TextAlign, validation.In(textAligns...)),
	)
}

// HeroProps configures a hero banner.
type HeroProps struct {
	Title           string `mapstructure:"title"`
	Subtitle        string `mapstructure:"subtitle"`
	BackgroundImage string `mapstructure:"backgroundImage"`
	ButtonText      string `mapstructure:"buttonText"`
	ButtonLink      string `mapstructure:"buttonLink"`
}

func (HeroProps) Type() string { return TypeHero }

func (p HeroProps) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.BackgroundImage, safeURL),
		validation.Field(&p.ButtonLink, safeURL),
	)
}

// SpacerProps configures vertical whitespace.
type SpacerProps struct {
	Height Length `mapstructure:"height"`
}

func (SpacerProps) Type() string { return TypeSpacer }

func (p SpacerProps) Validate() error { return nil }

// UnknownProps is the placeholder for types that no longer resolve.
type UnknownProps struct {
	OriginalType string `mapstructure:"-"`
}

func (UnknownProps) Type() string { return TypeUnknown }

func (UnknownProps) Validate() error { return nil }

// Decode fills target from bag. Numbers stored as strings and strings
// stored as numbers are coerced, matching documents saved by older
// editor versions. Unknown keys are ignored.
func Decode(bag Bag, target Props) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       valueHook,
		WeaklyTypedInput: true,
		Result:           target,
		TagName:          "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(map[string]any(bag)); err != nil {
		return fmt.Errorf("decoding %s props: %w", target.Type(), err)
	}
	return nil
}

package props

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBagCloneIsDeep(t *testing.T) {
	original := Bag{
		"text":    "hi",
		"padding": []any{1.0, 2.0},
		"style":   map[string]any{"color": "red"},
	}
	clone := original.Clone()
	clone["padding"].([]any)[0] = 99.0
	clone["style"].(map[string]any)["color"] = "blue"

	assert.Equal(t, 1.0, original["padding"].([]any)[0])
	assert.Equal(t, "red", original["style"].(map[string]any)["color"])
}

func TestWithPropCopies(t *testing.T) {
	b := Bag{"text": "a"}
	next := WithProp(b, "text", "b")

	assert.Equal(t, "a", b["text"])
	assert.Equal(t, "b", next["text"])
}

func TestMergeAndGet(t *testing.T) {
	defaults := Bag{"text": "Button", "fontSize": 14}
	merged := Merge(defaults, Bag{"text": "Buy"})

	assert.Equal(t, "Buy", merged["text"])
	assert.Equal(t, 14, merged["fontSize"])
	assert.Equal(t, []string{"fontSize", "text"}, merged.Keys())

	v, ok := Bag{}.Get("fontSize", defaults)
	assert.True(t, ok)
	assert.Equal(t, 14, v)
}

func TestParseLength(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want Length
		err  bool
	}{
		{"float", 16.0, "16px", false},
		{"int", 400, "400px", false},
		{"numeric string", "16", "16px", false},
		{"percent", "100%", "100%", false},
		{"auto", "auto", "auto", false},
		{"empty", "", "", false},
		{"nil", nil, "", false},
		{"bool", true, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLength(tt.in)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseSpacing(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want Spacing
		err  bool
	}{
		{"number", 10.0, Uniform(10), false},
		{"numeric string", "16", Uniform(16), false},
		{"shorthand", "10px 20px", Spacing{10, 20, 10, 20}, false},
		{"pair", []any{5.0, "8"}, Spacing{5, 8, 5, 8}, false},
		{"quad", []any{1, 2, 3, 4}, Spacing{1, 2, 3, 4}, false},
		{"object", map[string]any{"top": 3, "left": "4"}, Spacing{Top: 3, Left: 4}, false},
		{"too many", []any{1, 2, 3, 4, 5}, Spacing{}, true},
		{"garbage", "wide", Spacing{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSpacing(tt.in)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSpacingCSS(t *testing.T) {
	assert.Equal(t, "10px", Uniform(10).CSS())
	assert.Equal(t, "0", Spacing{}.CSS())
	assert.Equal(t, "5px 0", Spacing{Top: 5, Bottom: 5}.CSS())
	assert.Equal(t, "1px 2px 3px 4px", Spacing{1, 2, 3, 4}.CSS())
}

func TestCompressedDimensions(t *testing.T) {
	assert.Equal(t, "100%", CompressedWidth(Spacing{}))
	assert.Equal(t, "calc(100% - 20px)", CompressedWidth(Uniform(10)))
	assert.Equal(t, "auto", CompressedHeight(Uniform(10), "auto"))
	assert.Equal(t, "calc(100% - 8px)", CompressedHeight(Spacing{Top: 4, Bottom: 4}, "300px"))
}

func TestCoercionHelpers(t *testing.T) {
	assert.Equal(t, 16.0, Number("16", 0))
	assert.Equal(t, 4.0, Number("four", 4))
	assert.Equal(t, 8.0, Number(nil, 8))
	assert.Equal(t, "12", String(12))
	assert.Equal(t, "", String(nil))
	assert.True(t, Bool("true"))
	assert.False(t, Bool("nope"))
}

func TestDecodeMixedRepresentations(t *testing.T) {
	var p ButtonProps
	err := Decode(Bag{
		"text":         "Go",
		"fontSize":     "14",
		"borderRadius": 6,
		"padding":      []any{10, 20},
		"width":        "auto",
		"extra":        "ignored",
	}, &p)
	require.NoError(t, err)

	assert.Equal(t, "Go", p.Text)
	assert.Equal(t, Length("14px"), p.FontSize)
	assert.Equal(t, Length("6px"), p.BorderRadius)
	assert.Equal(t, Spacing{10, 20, 10, 20}, p.Padding)
	assert.Equal(t, Length("auto"), p.Width)
}

func TestDecodeWeakScalars(t *testing.T) {
	var g GridProps
	require.NoError(t, Decode(Bag{"columns": "3"}, &g))
	assert.Equal(t, 3, g.Columns)

	var c ContainerProps
	require.NoError(t, Decode(Bag{"isResponsive": "true"}, &c))
	assert.True(t, c.IsResponsive)
}

func TestDecodeRejectsBadSpacing(t *testing.T) {
	var c ContainerProps
	err := Decode(Bag{"padding": "lots"}, &c)
	assert.Error(t, err)
}

func TestButtonForegroundFallback(t *testing.T) {
	assert.Equal(t, "#fff", ButtonProps{Color: "#fff"}.ForegroundColor())
	assert.Equal(t, "#000", ButtonProps{Color: "#fff", TextColor: "#000"}.ForegroundColor())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		props Props
		ok    bool
	}{
		{"empty container", ContainerProps{}, true},
		{"bad direction", ContainerProps{FlexDirection: "diagonal"}, false},
		{"heading level", HeadingProps{Level: 2}, true},
		{"heading level too big", HeadingProps{Level: 9}, false},
		{"grid columns", GridProps{Columns: 13}, false},
		{"safe href", ButtonProps{Href: "https://example.com"}, true},
		{"relative href", ButtonProps{Href: "/about#team"}, true},
		{"script href", ButtonProps{Href: "javascript:alert(1)"}, false},
		{"image fit", ImageProps{ObjectFit: "stretchy"}, false},
		{"text weight", TextProps{FontWeight: "600"}, true},
		{"functional color", TextProps{Color: "rgba(0, 0, 0, .5)", LineHeight: "1.5"}, true},
		{"color with extra declaration", TextProps{Color: "red;position:fixed;inset:0"}, false},
		{"background with block", SectionProps{Background: "red}body{display:none"}, false},
		{"card color with comment", CardProps{TitleColor: "red/**/"}, false},
		{"unknown", UnknownProps{OriginalType: "Gone"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.props.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestCSSValue(t *testing.T) {
	for _, v := range []string{"", "#fff", "calc(100% - 16px)", "1/2", "linear-gradient(90deg, #000, #fff)", "bold"} {
		assert.NoError(t, CSSValue.Validate(v), v)
	}
	for _, v := range []string{"red;color:blue", "a{b}", "x</style>", `\3b`, "red/*", "/*"} {
		assert.Error(t, CSSValue.Validate(v), v)
	}
}

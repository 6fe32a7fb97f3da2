package props

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// Length is a CSS length. Bare numbers (16 or "16") are pixels; anything
// else ("100%", "auto", "2rem") passes through unchanged.
type Length string

// ParseLength converts a prop value into a Length.
func ParseLength(v any) (Length, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case Length:
		return t, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return "", nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return pixels(f), nil
		}
		return Length(s), nil
	case bool:
		return "", fmt.Errorf("cannot use bool %v as a length", t)
	default:
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return "", fmt.Errorf("cannot use %T as a length: %w", v, err)
		}
		return pixels(f), nil
	}
}

// CSS returns the length as a CSS value, or "" when unset.
func (l Length) CSS() string {
	return string(l)
}

func pixels(f float64) Length {
	return Length(strconv.FormatFloat(f, 'f', -1, 64) + "px")
}

// Spacing holds per-side padding or margin in pixels.
type Spacing struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// Uniform returns a Spacing with all four sides set to v.
func Uniform(v float64) Spacing {
	return Spacing{Top: v, Right: v, Bottom: v, Left: v}
}

// ParseSpacing accepts a number, a numeric string, a CSS shorthand string
// of one to four pixel values, a [vertical, horizontal] pair, or a
// [top, right, bottom, left] quad.
func ParseSpacing(v any) (Spacing, error) {
	switch t := v.(type) {
	case nil:
		return Spacing{}, nil
	case Spacing:
		return t, nil
	case string:
		fields := strings.Fields(t)
		if len(fields) == 0 {
			return Spacing{}, nil
		}
		values := make([]float64, len(fields))
		for i, f := range fields {
			n, err := cast.ToFloat64E(strings.TrimSuffix(f, "px"))
			if err != nil {
				return Spacing{}, fmt.Errorf("invalid spacing %q", t)
			}
			values[i] = n
		}
		return spacingFromList(values)
	case []any:
		values := make([]float64, len(t))
		for i, e := range t {
			n, err := cast.ToFloat64E(e)
			if err != nil {
				return Spacing{}, fmt.Errorf("invalid spacing element %v", e)
			}
			values[i] = n
		}
		return spacingFromList(values)
	case []float64:
		return spacingFromList(t)
	case map[string]any:
		var s Spacing
		for key, dst := range map[string]*float64{"top": &s.Top, "right": &s.Right, "bottom": &s.Bottom, "left": &s.Left} {
			if raw, ok := t[key]; ok {
				n, err := cast.ToFloat64E(raw)
				if err != nil {
					return Spacing{}, fmt.Errorf("invalid spacing %s: %v", key, raw)
				}
				*dst = n
			}
		}
		return s, nil
	default:
		n, err := cast.ToFloat64E(v)
		if err != nil {
			return Spacing{}, fmt.Errorf("cannot use %T as spacing", v)
		}
		return Uniform(n), nil
	}
}

func spacingFromList(values []float64) (Spacing, error) {
	switch len(values) {
	case 0:
		return Spacing{}, nil
	case 1:
		return Uniform(values[0]), nil
	case 2:
		return Spacing{Top: values[0], Right: values[1], Bottom: values[0], Left: values[1]}, nil
	case 3:
		return Spacing{Top: values[0], Right: values[1], Bottom: values[2], Left: values[1]}, nil
	case 4:
		return Spacing{Top: values[0], Right: values[1], Bottom: values[2], Left: values[3]}, nil
	default:
		return Spacing{}, fmt.Errorf("spacing takes at most 4 values, got %d", len(values))
	}
}

// IsZero reports whether every side is zero.
func (s Spacing) IsZero() bool {
	return s == Spacing{}
}

// Horizontal is left + right.
func (s Spacing) Horizontal() float64 {
	return s.Left + s.Right
}

// Vertical is top + bottom.
func (s Spacing) Vertical() float64 {
	return s.Top + s.Bottom
}

// CSS renders the shortest equivalent CSS shorthand.
func (s Spacing) CSS() string {
	px := func(f float64) string {
		if f == 0 {
			return "0"
		}
		return strconv.FormatFloat(f, 'f', -1, 64) + "px"
	}
	switch {
	case s.Top == s.Bottom && s.Left == s.Right && s.Top == s.Left:
		return px(s.Top)
	case s.Top == s.Bottom && s.Left == s.Right:
		return px(s.Top) + " " + px(s.Left)
	default:
		return px(s.Top) + " " + px(s.Right) + " " + px(s.Bottom) + " " + px(s.Left)
	}
}

// CompressedWidth is the width left after subtracting horizontal margin
// from the parent, so a margined block never overflows its container.
func CompressedWidth(margin Spacing) string {
	if h := margin.Horizontal(); h > 0 {
		return "calc(100% - " + strconv.FormatFloat(h, 'f', -1, 64) + "px)"
	}
	return "100%"
}

// CompressedHeight is CompressedWidth for the vertical axis. An "auto"
// height stays auto.
func CompressedHeight(margin Spacing, height Length) string {
	if height == "" || height == "auto" {
		return "auto"
	}
	if v := margin.Vertical(); v > 0 {
		return "calc(100% - " + strconv.FormatFloat(v, 'f', -1, 64) + "px)"
	}
	return "100%"
}

// Number coerces a prop value to float64, returning def when impossible.
func Number(v any, def float64) float64 {
	if v == nil {
		return def
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return def
	}
	return f
}

// String coerces a prop value to a string.
func String(v any) string {
	if v == nil {
		return ""
	}
	return cast.ToString(v)
}

// Bool coerces a prop value to a bool, accepting "true"/"false" strings.
func Bool(v any) bool {
	b, err := cast.ToBoolE(v)
	return err == nil && b
}

var (
	lengthType  = reflect.TypeOf(Length(""))
	spacingType = reflect.TypeOf(Spacing{})
)

// valueHook is a mapstructure decode hook that builds Length and Spacing
// values from the loose shapes found in stored documents.
func valueHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	switch to {
	case lengthType:
		return ParseLength(data)
	case spacingType:
		if from == spacingType {
			return data, nil
		}
		return ParseSpacing(data)
	default:
		return data, nil
	}
}

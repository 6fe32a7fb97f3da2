package renderer

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/conneroisu/pagecraft/internal/props"
)

// style collects CSS declarations in insertion order. Empty values are
// dropped so unset props never reach the output, and so are values that
// would spill into further declarations.
type style []string

func (s *style) set(property, value string) {
	if value == "" {
		return
	}
	if err := props.CSSValue.Validate(value); err != nil {
		return
	}
	*s = append(*s, property+": "+value)
}

// setURL adds a url() value. The address is quoted and escaped, so it
// bypasses the single-value check.
func (s *style) setURL(property, u string) {
	if u == "" {
		return
	}
	*s = append(*s, property+": url("+cssString(u)+")")
}

func (s style) String() string {
	return strings.Join(s, "; ")
}

type attr struct {
	name, value string
	// keep writes the attribute even when value is empty.
	keep bool
}

// element renders <tag attrs>body</tag>. body may be nil.
func element(tag string, attrs []attr, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := openTag(w, tag, attrs); err != nil {
			return err
		}
		if body != nil {
			if err := body.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</"+tag+">")
		return err
	})
}

// void renders an element with no closing tag, such as <img>.
func void(tag string, attrs []attr) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return openTag(w, tag, attrs)
	})
}

func openTag(w io.Writer, tag string, attrs []attr) error {
	var b strings.Builder
	b.WriteString("<")
	b.WriteString(tag)
	for _, a := range attrs {
		if a.value == "" && !a.keep {
			continue
		}
		b.WriteString(" ")
		b.WriteString(a.name)
		b.WriteString(`="`)
		b.WriteString(templ.EscapeString(a.value))
		b.WriteString(`"`)
	}
	b.WriteString(">")
	_, err := io.WriteString(w, b.String())
	return err
}

// text renders s escaped.
func text(s string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, templ.EscapeString(s))
		return err
	})
}

// safeURL runs u through templ's URL sanitizer; javascript: and other
// unsafe schemes come back as a harmless placeholder.
func safeURL(u string) string {
	if u == "" {
		return ""
	}
	return string(templ.URL(u))
}

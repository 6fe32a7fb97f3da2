package renderer

import (
	"fmt"
	"io"

	"golang.org/x/net/html"
)

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// Lint tokenizes exported HTML and reports the first element that is
// closed out of order or never closed. Browsers repair such markup
// silently, so a broken component would otherwise go unnoticed.
func Lint(r io.Reader) error {
	z := html.NewTokenizer(r)
	var open []string
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() != io.EOF {
				return z.Err()
			}
			if len(open) > 0 {
				return fmt.Errorf("element <%s> is never closed", open[len(open)-1])
			}
			return nil
		case html.StartTagToken:
			name, _ := z.TagName()
			if !voidElements[string(name)] {
				open = append(open, string(name))
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if len(open) == 0 {
				return fmt.Errorf("unexpected </%s>", name)
			}
			if top := open[len(open)-1]; top != string(name) {
				return fmt.Errorf("</%s> closes <%s>", name, top)
			}
			open = open[:len(open)-1]
		}
	}
}

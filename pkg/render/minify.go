package render

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// verbatim elements keep their content byte for byte.
var verbatim = map[string]bool{
	"pre":      true,
	"textarea": true,
	"script":   true,
	"style":    true,
}

// Minify removes comments and collapses whitespace runs in text to a single
// space. Tags and attributes are emitted exactly as written, and the content
// of pre, textarea, script and style elements is left untouched.
// Minify is idempotent.
func Minify(src string) (string, error) {
	z := html.NewTokenizer(strings.NewReader(src))

	var (
		b     strings.Builder
		depth int
		// space is set when the last byte written was a collapsed space.
		space bool
	)

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if err := z.Err(); !errors.Is(err, io.EOF) {
				return "", err
			}
			return strings.TrimSpace(b.String()), nil
		}

		// Raw must be read before TagName, which lowercases the buffer in place.
		raw := bytes.Clone(z.Raw())

		switch tt {
		case html.CommentToken:
			continue
		case html.TextToken:
			if depth > 0 {
				b.Write(raw)
				space = false
			} else {
				space = collapseSpace(&b, string(raw), space)
			}
		case html.StartTagToken:
			name, _ := z.TagName()
			if verbatim[string(name)] {
				depth++
			}
			b.Write(raw)
			space = false
		case html.EndTagToken:
			name, _ := z.TagName()
			if verbatim[string(name)] && depth > 0 {
				depth--
			}
			b.Write(raw)
			space = false
		default:
			b.Write(raw)
			space = false
		}
	}
}

// collapseSpace writes s to b with whitespace runs collapsed. space tells
// whether b already ends with a collapsed space; the updated state is returned.
func collapseSpace(b *strings.Builder, s string, space bool) bool {
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\f':
			if !space {
				b.WriteByte(' ')
				space = true
			}
		default:
			b.WriteRune(r)
			space = false
		}
	}
	return space
}

package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"math"
	"strconv"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/yuin/goldmark"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DefaultDateLayout matches the dd/mm/yyyy hh:mm format used across templates.
const DefaultDateLayout = "02/01/2006 15:04"

var markdown = goldmark.New()

func htmlFuncs(lang string) template.FuncMap {
	return template.FuncMap{
		"linebreaksbr": func(v any) template.HTML {
			return template.HTML(linebreaks(template.HTMLEscapeString(toString(v)))) //nolint:gosec // escaped above
		},
		"markdown": func(v any) (template.HTML, error) {
			out, err := renderMarkdown(toString(v))
			return template.HTML(out), err //nolint:gosec // markdown output
		},
		"floatformat":    floatFormat,
		"date":           formatDate,
		"localize_money": moneyFormatter(lang),
	}
}

func textFuncs(lang string) texttemplate.FuncMap {
	return texttemplate.FuncMap{
		"linebreaksbr": func(v any) string {
			return linebreaks(toString(v))
		},
		"markdown":       renderMarkdown,
		"floatformat":    floatFormat,
		"date":           formatDate,
		"localize_money": moneyFormatter(lang),
	}
}

func linebreaks(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "<br>")
}

func renderMarkdown(s string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(s), &buf); err != nil {
		return "", fmt.Errorf("markdown: %w", err)
	}
	return buf.String(), nil
}

// floatFormat rounds v to the given number of decimals. With no argument, or
// a negative one, decimals are only shown when v is not a whole number.
func floatFormat(v any, args ...int) (string, error) {
	f, err := toFloat(v)
	if err != nil {
		return "", err
	}

	digits := -1
	if len(args) > 0 {
		digits = args[0]
	}
	if digits < 0 {
		if f == math.Trunc(f) {
			return strconv.FormatFloat(f, 'f', 0, 64), nil
		}
		digits = -digits
	}
	return strconv.FormatFloat(f, 'f', digits, 64), nil
}

// formatDate formats a unix timestamp (seconds) or a time.Time.
func formatDate(v any, layout ...string) (string, error) {
	l := DefaultDateLayout
	if len(layout) > 0 && layout[0] != "" {
		l = layout[0]
	}

	if t, ok := v.(time.Time); ok {
		return t.Format(l), nil
	}

	f, err := toFloat(v)
	if err != nil {
		return "", err
	}
	return time.Unix(int64(f), 0).UTC().Format(l), nil
}

// moneyFormatter formats amounts with the grouping and decimal separators
// of a language, with two decimals.
func moneyFormatter(defaultLang string) func(v any, lang ...string) (string, error) {
	return func(v any, lang ...string) (string, error) {
		f, err := toFloat(v)
		if err != nil {
			return "", err
		}

		code := defaultLang
		if len(lang) > 0 && lang[0] != "" {
			code = lang[0]
		}
		tag, err := language.Parse(code)
		if err != nil {
			tag = language.Make(defaultLang)
		}

		p := message.NewPrinter(tag)
		return p.Sprint(number.Decimal(f, number.Scale(2))), nil
	}
}

func toString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case template.HTML:
		return string(val)
	default:
		return fmt.Sprint(val)
	}
}

func toFloat(v any) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case float32:
		return float64(val), nil
	case int:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case int32:
		return float64(val), nil
	case json.Number:
		return val.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(val), 64)
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("render: cannot convert %T to number", v)
	}
}

package render_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailroom/pkg/email"
	"github.com/dmitrymomot/mailroom/pkg/render"
)

func TestTemplateFuncs_HTML(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		tpl  string
		ctx  map[string]any
		want string
	}{
		{
			name: "linebreaksbr escapes input",
			tpl:  "<p>{{linebreaksbr .note}}</p>",
			ctx:  map[string]any{"note": "line 1\n<line 2>"},
			want: "<p>line 1<br>&lt;line 2&gt;</p>",
		},
		{
			name: "floatformat default",
			tpl:  "{{floatformat .a}}|{{floatformat .b}}",
			ctx:  map[string]any{"a": 34.23234, "b": 34.0},
			want: "34.2|34",
		},
		{
			name: "floatformat digits",
			tpl:  "{{floatformat .a 3}}",
			ctx:  map[string]any{"a": 34.23234},
			want: "34.232",
		},
		{
			name: "date default layout",
			tpl:  "{{date .ts}}",
			ctx:  map[string]any{"ts": 1700000000},
			want: "14/11/2023 22:13",
		},
		{
			name: "date custom layout",
			tpl:  `{{date .ts "2006-01-02"}}`,
			ctx:  map[string]any{"ts": "1700000000"},
			want: "2023-11-14",
		},
		{
			name: "localize money",
			tpl:  `{{localize_money .amount "en"}}`,
			ctx:  map[string]any{"amount": 1234567.5},
			want: "1,234,567.50",
		},
		{
			name: "markdown",
			tpl:  "{{markdown .body}}",
			ctx:  map[string]any{"body": "**hi**"},
			want: "<p><strong>hi</strong></p>\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			k := &email.Kind{Name: "funcs-test", Language: "es", Template: tt.tpl}
			got, err := render.New().RenderHTML(context.Background(), k, tt.ctx, render.HTMLOptions{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTemplateFuncs_Plain(t *testing.T) {
	t.Parallel()

	k := &email.Kind{
		Name:          "funcs-test",
		Language:      "es",
		PlainTemplate: "{{floatformat .a 2}} {{date .ts}}",
	}
	got, err := render.New().RenderPlain(context.Background(), k, map[string]any{"a": 2, "ts": 0})
	require.NoError(t, err)
	assert.Equal(t, "2.00 01/01/1970 00:00", got)
}

func TestTemplateFuncs_BadNumber(t *testing.T) {
	t.Parallel()

	k := &email.Kind{Name: "funcs-test", Language: "es", Template: "{{floatformat .a}}"}
	_, err := render.New().RenderHTML(context.Background(), k, map[string]any{"a": "abc"}, render.HTMLOptions{})
	require.ErrorIs(t, err, render.ErrRenderFailed)
}

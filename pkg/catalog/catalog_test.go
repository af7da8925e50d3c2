package catalog_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailroom/pkg/catalog"
	"github.com/dmitrymomot/mailroom/pkg/email"
	"github.com/dmitrymomot/mailroom/pkg/storage"
	"github.com/dmitrymomot/mailroom/pkg/store/memstore"
)

var pngData = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)

const catalogYAML = `
fragments:
  - name: footer
    content: '<p><img src="cid:brand"></p>'
    images:
      - {placeholder: brand, file: img/brand.png}
  - name: signature
    plain: true
    content: "-- the shop"
kinds:
  - name: welcome
    language: ES
    template_file: welcome.html
    plain_template: "Hola {{.name}}"
    default_subject: Bienvenido
    default_context:
      name: amigo
    fragments: [footer, signature]
    images:
      - {placeholder: logo, file: img/logo.png}
  - name: goodbye
    language: en
    active: false
    template: "<p>Bye</p>"
    plain_template: "Bye"
`

func writeCatalog(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "img"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "img", "brand.png"), pngData, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "img", "logo.png"), pngData, 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "welcome.html"), []byte(`<h1>{{.name}}</h1><img src="cid:logo">`), 0o600))
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalogYAML), 0o600))
	return path
}

func TestImporter_Import(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cat, err := catalog.Load(writeCatalog(t))
	require.NoError(t, err)

	s := memstore.New()
	images := storage.NewMemory()
	rep, err := catalog.NewImporter(s, images).Import(ctx, cat)
	require.NoError(t, err)

	assert.Equal(t, 2, rep.Fragments)
	assert.Equal(t, []catalog.KindRef{{Name: "welcome", Language: "es"}, {Name: "goodbye", Language: "en"}}, rep.Kinds)
	assert.Equal(t, 2, rep.Images)

	k, err := s.FindKind(ctx, "welcome", "es")
	require.NoError(t, err)
	assert.True(t, k.Active)
	assert.Contains(t, k.Template, "{{.name}}")
	assert.Equal(t, "amigo", k.DefaultContext["name"])
	require.Len(t, k.Fragments, 2)
	require.Len(t, k.Images, 1)
	assert.Equal(t, "logo", k.Images[0].Placeholder)
	assert.Equal(t, email.KindImageKey("welcome", "es", "logo.png"), k.Images[0].StorageKey)
	assert.Equal(t, "image/png", k.Images[0].ContentType)

	rc, err := images.Get(ctx, email.FragmentImageKey("footer", "brand.png"))
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, pngData, data)

	bye, err := s.FindKind(ctx, "goodbye", "en")
	require.NoError(t, err)
	assert.False(t, bye.Active)
}

func TestImporter_MissingImage(t *testing.T) {
	t.Parallel()

	cat, err := catalog.Parse([]byte(`
kinds:
  - name: welcome
    language: es
    images:
      - {placeholder: logo, file: does-not-exist.png}
`))
	require.NoError(t, err)

	_, err = catalog.NewImporter(memstore.New(), storage.NewMemory()).Import(context.Background(), cat)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestParse_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "short kind name",
			doc:  "kinds:\n  - {name: hi, language: es}\n",
			want: "shorter than",
		},
		{
			name: "bad language",
			doc:  "kinds:\n  - {name: welcome, language: '!!'}\n",
			want: "invalid language",
		},
		{
			name: "duplicated kind",
			doc:  "kinds:\n  - {name: welcome, language: es}\n  - {name: welcome, language: es}\n",
			want: "duplicated",
		},
		{
			name: "duplicated placeholder",
			doc:  "fragments:\n  - name: footer\n    images:\n      - {placeholder: a, file: a.png}\n      - {placeholder: a, file: b.png}\n",
			want: `placeholder "a" duplicated`,
		},
		{
			name: "exclusive template sources",
			doc:  "kinds:\n  - {name: welcome, language: es, template: x, template_file: y}\n",
			want: "exclusive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := catalog.Parse([]byte(tt.doc))
			require.ErrorIs(t, err, catalog.ErrInvalid)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParse_UnknownField(t *testing.T) {
	t.Parallel()

	_, err := catalog.Parse([]byte("kinds:\n  - {name: welcome, langauge: es}\n"))
	require.Error(t, err)
}

package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dmitrymomot/mailroom/pkg/email"
	"github.com/dmitrymomot/mailroom/pkg/logger"
	"github.com/dmitrymomot/mailroom/pkg/storage"
	"github.com/dmitrymomot/mailroom/pkg/store"
)

// Uploader stores image files.
type Uploader interface {
	Put(ctx context.Context, key string, r io.Reader, size int64) (*storage.FileInfo, error)
}

// Report summarizes an import.
type Report struct {
	Kinds     []KindRef
	Fragments int
	Images    int
}

// KindRef identifies an imported kind.
type KindRef struct {
	Name     string
	Language string
}

func (r KindRef) String() string { return r.Name + "/" + r.Language }

// Importer writes a catalog to the store, uploading its images first.
type Importer struct {
	store  store.KindWriter
	images Uploader
	logger *slog.Logger
}

// Option configures an Importer.
type Option func(*Importer)

// WithLogger sets the importer logger.
func WithLogger(l *slog.Logger) Option {
	return func(i *Importer) {
		if l != nil {
			i.logger = l
		}
	}
}

// NewImporter creates an Importer.
func NewImporter(s store.KindWriter, images Uploader, opts ...Option) *Importer {
	i := &Importer{store: s, images: images, logger: logger.NewNope()}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Import saves every fragment, then every kind. Kinds without an explicit
// active flag are imported active. The import stops at the first failure;
// items saved before it stay saved.
func (i *Importer) Import(ctx context.Context, cat *Catalog) (*Report, error) {
	rep := &Report{}

	for _, f := range cat.Fragments {
		content, err := cat.text(f.Content, f.ContentFile)
		if err != nil {
			return rep, err
		}
		images, err := i.upload(ctx, cat, f.Images, func(file string) string {
			return email.FragmentImageKey(f.Name, file)
		})
		if err != nil {
			return rep, err
		}
		rep.Images += len(images)

		err = i.store.SaveFragment(ctx, &email.Fragment{
			Name:           f.Name,
			Description:    f.Description,
			Content:        content,
			IsPlain:        f.Plain,
			DefaultContext: f.DefaultContext,
			Images:         images,
		})
		if err != nil {
			return rep, fmt.Errorf("catalog: save fragment %s: %w", f.Name, err)
		}
		rep.Fragments++
		i.logger.InfoContext(ctx, "fragment imported", slog.String("fragment", f.Name), slog.Int("images", len(images)))
	}

	for _, k := range cat.Kinds {
		kind, err := i.kind(ctx, cat, k)
		if err != nil {
			return rep, err
		}
		if err := i.store.SaveKind(ctx, kind); err != nil {
			return rep, fmt.Errorf("catalog: save kind %s: %w", kind, err)
		}
		rep.Images += len(kind.Images)
		rep.Kinds = append(rep.Kinds, KindRef{Name: kind.Name, Language: kind.Language})
		i.logger.InfoContext(ctx, "kind imported", slog.String("kind", kind.String()), slog.Int("images", len(kind.Images)))
	}

	return rep, nil
}

func (i *Importer) kind(ctx context.Context, cat *Catalog, k Kind) (*email.Kind, error) {
	lang, err := email.ParseLanguage(k.Language)
	if err != nil {
		return nil, err
	}
	tpl, err := cat.text(k.Template, k.TemplateFile)
	if err != nil {
		return nil, err
	}
	plain, err := cat.text(k.PlainTemplate, k.PlainTemplateFile)
	if err != nil {
		return nil, err
	}
	images, err := i.upload(ctx, cat, k.Images, func(file string) string {
		return email.KindImageKey(k.Name, lang, file)
	})
	if err != nil {
		return nil, err
	}

	fragments := make([]*email.Fragment, 0, len(k.Fragments))
	for _, name := range k.Fragments {
		fragments = append(fragments, &email.Fragment{Name: name})
	}

	active := true
	if k.Active != nil {
		active = *k.Active
	}

	return &email.Kind{
		Name:              k.Name,
		Language:          lang,
		Description:       k.Description,
		Active:            active,
		Template:          tpl,
		PlainTemplate:     plain,
		DefaultContext:    k.DefaultContext,
		DefaultSender:     k.DefaultSender,
		DefaultRecipients: k.DefaultRecipients,
		DefaultSubject:    k.DefaultSubject,
		DefaultReplyTo:    k.DefaultReplyTo,
		Fragments:         fragments,
		Images:            images,
	}, nil
}

func (i *Importer) upload(ctx context.Context, cat *Catalog, refs []Image, key func(file string) string) ([]*email.Image, error) {
	out := make([]*email.Image, 0, len(refs))
	for _, ref := range refs {
		img, err := i.uploadOne(ctx, cat.path(ref.File), key(filepath.Base(ref.File)))
		if err != nil {
			return nil, err
		}
		img.Placeholder = ref.Placeholder
		out = append(out, img)
	}
	return out, nil
}

func (i *Importer) uploadOne(ctx context.Context, path, key string) (*email.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: open image: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("catalog: stat image: %w", err)
	}

	info, err := i.images.Put(ctx, key, f, st.Size())
	if err != nil {
		return nil, fmt.Errorf("catalog: upload %s: %w", path, err)
	}
	return &email.Image{StorageKey: info.Key, ContentType: info.ContentType}, nil
}

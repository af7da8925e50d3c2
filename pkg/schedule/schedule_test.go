package schedule_test

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailroom/pkg/email"
	"github.com/dmitrymomot/mailroom/pkg/metrics"
	"github.com/dmitrymomot/mailroom/pkg/schedule"
	"github.com/dmitrymomot/mailroom/pkg/store/memstore"
)

type backends map[string]bool

func (b backends) Has(name string) bool { return b[name] }

func newKind() *email.Kind {
	return &email.Kind{
		Name:              "my-test-email",
		Language:          "es",
		Active:            true,
		Template:          "Hello, {{.name}}!",
		PlainTemplate:     "Hello, {{.name}}! soy antiguo",
		DefaultContext:    map[string]any{"name": "world"},
		DefaultSender:     "shop@example.com",
		DefaultRecipients: "client@example.com",
		DefaultSubject:    "Hola",
		DefaultReplyTo:    "support@example.com",
	}
}

func setup(t *testing.T, kinds ...*email.Kind) *memstore.Store {
	t.Helper()
	s := memstore.New()
	for _, k := range kinds {
		require.NoError(t, s.SaveKind(context.Background(), k))
	}
	return s
}

func findKind(t *testing.T, s *memstore.Store, name, lang string) *email.Kind {
	t.Helper()
	k, err := s.FindKind(context.Background(), name, lang)
	require.NoError(t, err)
	return k
}

func ptr[T any](v T) *T { return &v }

func TestGenerate_Defaults(t *testing.T) {
	t.Parallel()

	s := setup(t, newKind())
	kind := findKind(t, s, "my-test-email", "es")
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	gen := schedule.NewGenerator(s, schedule.WithGeneratorClock(func() time.Time { return now }))

	entry, err := gen.Generate(context.Background(), kind, email.Params{})
	require.NoError(t, err)

	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, kind.ID, entry.KindID)
	assert.Equal(t, "shop@example.com", entry.Sender)
	assert.Equal(t, "client@example.com", entry.Recipients)
	assert.Equal(t, "Hola", entry.Subject)
	assert.Equal(t, "support@example.com", entry.ReplyTo)
	assert.Equal(t, map[string]any{"name": "world"}, entry.Context)
	assert.Equal(t, now, entry.ScheduledAt)
	assert.Empty(t, entry.Backend)
	assert.Nil(t, entry.SendAt)

	stored, err := s.Entry(context.Background(), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, entry.Recipients, stored.Recipients)
}

func TestGenerate_Overrides(t *testing.T) {
	t.Parallel()

	s := setup(t, newKind())
	kind := findKind(t, s, "my-test-email", "es")
	gen := schedule.NewGenerator(s, schedule.WithBackends(backends{"resend": true}))

	entry, err := gen.Generate(context.Background(), kind, email.Params{
		Sender:     "billing@example.com",
		Recipients: []string{"a@example.com", " ", "b@example.com"},
		ReplyTo:    []string{"r@example.com"},
		Subject:    "Your invoice",
		CustomerID: "c-42",
		Context:    map[string]any{"total": 10},
		MetaFields: map[string]any{"campaign": "spring"},
		SendAt:     ptr(int64(1434029573)),
		CheckURL:   "https://shop.example.com/can-send/1",
		Backend:    ptr("resend"),
	})
	require.NoError(t, err)

	assert.Equal(t, "billing@example.com", entry.Sender)
	assert.Equal(t, "a@example.com,b@example.com", entry.Recipients)
	assert.Equal(t, "r@example.com", entry.ReplyTo)
	assert.Equal(t, "Your invoice", entry.Subject)
	assert.Equal(t, "c-42", entry.CustomerID)
	assert.Equal(t, map[string]any{"total": 10}, entry.Context, "context replaces the defaults as a whole")
	assert.Equal(t, "spring", entry.Metadata["campaign"])
	assert.Equal(t, int64(1434029573), *entry.SendAt)
	assert.Equal(t, "https://shop.example.com/can-send/1", entry.CheckURL)
	assert.Equal(t, "resend", entry.Backend)
}

func TestGenerate_Attachments(t *testing.T) {
	t.Parallel()

	s := setup(t, newKind())
	kind := findKind(t, s, "my-test-email", "es")
	gen := schedule.NewGenerator(s)

	entry, err := gen.Generate(context.Background(), kind, email.Params{
		CustomerID: "c-1",
		Attachments: []email.AttachmentParam{
			{Filename: "invoice.pdf", ContentType: "application/pdf", Content: base64.StdEncoding.EncodeToString([]byte("%PDF-1.4"))},
			{Filename: "notes.txt", Content: base64.StdEncoding.EncodeToString([]byte("hi"))},
		},
	})
	require.NoError(t, err)

	files, err := s.EntryAttachments(context.Background(), entry.ID)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "invoice.pdf", files[0].Name)
	assert.Equal(t, "attachs/my-test-email/es/c-1_invoice.pdf", files[0].Path)
	assert.Equal(t, "application/pdf", files[0].ContentType)
	assert.Equal(t, []byte("%PDF-1.4"), files[0].Content)
	assert.Equal(t, "notes.txt", files[1].Name)
	assert.Contains(t, files[1].ContentType, "text/plain")
}

func TestGenerate_Validation(t *testing.T) {
	t.Parallel()

	noDefaults := func(k *email.Kind) {
		k.DefaultSender = ""
		k.DefaultRecipients = ""
		k.DefaultSubject = ""
	}

	tests := []struct {
		name   string
		mutate func(*email.Kind)
		params email.Params
	}{
		{name: "short name", mutate: func(k *email.Kind) { k.Name = "  abc  " }},
		{name: "empty template", mutate: func(k *email.Kind) { k.Template = " " }},
		{name: "empty plain template", mutate: func(k *email.Kind) { k.PlainTemplate = "" }},
		{
			name:   "no sender",
			mutate: noDefaults,
			params: email.Params{Recipients: []string{"a@b.com"}, Subject: "s"},
		},
		{
			name:   "blank recipients",
			mutate: noDefaults,
			params: email.Params{Sender: "x@y.com", Recipients: []string{""}, Subject: "s"},
		},
		{
			name:   "no subject",
			mutate: noDefaults,
			params: email.Params{Sender: "x@y.com", Recipients: []string{"a@b.com"}},
		},
		{name: "unknown backend", params: email.Params{Backend: ptr("carrier-pigeon")}},
		{
			name:   "bad attachment",
			params: email.Params{Attachments: []email.AttachmentParam{{Filename: "a.txt", Content: "%%%"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := setup(t, newKind())
			kind := findKind(t, s, "my-test-email", "es")
			if tt.mutate != nil {
				tt.mutate(kind)
			}
			gen := schedule.NewGenerator(s, schedule.WithBackends(backends{"console": true}))

			_, err := gen.Generate(context.Background(), kind, tt.params)
			require.ErrorIs(t, err, email.ErrValidation)
			assert.Empty(t, s.Entries())
		})
	}
}

func TestGenerate_RecipientsWithoutDefaults(t *testing.T) {
	t.Parallel()

	k := newKind()
	k.DefaultRecipients = ""
	s := setup(t, k)
	kind := findKind(t, s, "my-test-email", "es")
	gen := schedule.NewGenerator(s)

	_, err := gen.Generate(context.Background(), kind, email.Params{Recipients: []string{""}})
	require.ErrorIs(t, err, email.ErrValidation)

	entry, err := gen.Generate(context.Background(), kind, email.Params{Recipients: []string{"a@b.com"}})
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", entry.Recipients)
}

type failingStore struct{}

func (failingStore) CreateEntry(context.Context, *email.Entry, []*email.Attachment) error {
	return errors.New("connection reset")
}

func TestGenerate_StoreFailure(t *testing.T) {
	t.Parallel()

	gen := schedule.NewGenerator(failingStore{})
	_, err := gen.Generate(context.Background(), newKind(), email.Params{})
	require.ErrorIs(t, err, schedule.ErrCreateEntry)
	assert.NotErrorIs(t, err, email.ErrValidation)
}

func TestSchedule(t *testing.T) {
	t.Parallel()

	english := newKind()
	english.Language = "en"
	english.DefaultSubject = "Hello"
	s := setup(t, newKind(), english)
	rec := metrics.NewRecorder()
	sched := schedule.NewScheduler(s, schedule.NewGenerator(s), schedule.WithSchedulerMetrics(rec))
	ctx := context.Background()

	t.Run("exact language", func(t *testing.T) {
		entry, err := sched.Schedule(ctx, "my-test-email", "en", email.Params{})
		require.NoError(t, err)
		assert.Equal(t, "en", entry.Kind.Language)
		assert.Equal(t, "Hello", entry.Subject)
	})

	t.Run("fallback to default language", func(t *testing.T) {
		entry, err := sched.Schedule(ctx, "my-test-email", "fr", email.Params{})
		require.NoError(t, err)
		assert.Equal(t, "es", entry.Kind.Language)
		assert.Equal(t, 1, rec.Count(metrics.ScheduleWrongLang))
	})

	t.Run("unknown kind", func(t *testing.T) {
		_, err := sched.Schedule(ctx, "does-not-exist", "fr", email.Params{})
		require.ErrorIs(t, err, email.ErrKindNotFound)
		assert.Equal(t, 1, rec.Count(metrics.ScheduleWrongLang))
	})

	assert.Len(t, s.Entries(), 2)
}

func TestSchedule_CustomDefaultLanguage(t *testing.T) {
	t.Parallel()

	english := newKind()
	english.Language = "en"
	s := setup(t, english)
	sched := schedule.NewScheduler(s, schedule.NewGenerator(s), schedule.WithDefaultLanguage("en"))

	entry, err := sched.Schedule(context.Background(), "my-test-email", "es", email.Params{})
	require.NoError(t, err)
	assert.Equal(t, "en", entry.Kind.Language)
}

package sender_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailroom/pkg/backend"
	"github.com/dmitrymomot/mailroom/pkg/cleaner"
	"github.com/dmitrymomot/mailroom/pkg/email"
	"github.com/dmitrymomot/mailroom/pkg/metrics"
	"github.com/dmitrymomot/mailroom/pkg/render"
	"github.com/dmitrymomot/mailroom/pkg/schedule"
	"github.com/dmitrymomot/mailroom/pkg/sender"
	"github.com/dmitrymomot/mailroom/pkg/spam"
	"github.com/dmitrymomot/mailroom/pkg/store/memstore"
)

type stubTransport struct {
	mu     sync.Mutex
	resp   *backend.Response
	err    error
	sent   []*backend.Message
	nextID atomic.Int32
}

func (s *stubTransport) Send(_ context.Context, msg *backend.Message) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	s.sent = append(s.sent, msg)
	if s.resp != nil {
		return s.resp, nil
	}
	return &backend.Response{ID: fmt.Sprintf("stub-%d", s.nextID.Add(1)), Status: backend.StatusSent}, nil
}

func (s *stubTransport) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

type harness struct {
	store     *memstore.Store
	scheduler *schedule.Scheduler
	transport *stubTransport
	metrics   *metrics.Recorder
	loop      *sender.Loop
	now       time.Time
}

func newHarness(t *testing.T, opts ...sender.Option) *harness {
	t.Helper()

	s := memstore.New()
	require.NoError(t, s.SaveKind(context.Background(), &email.Kind{
		Name:              "my-test-email",
		Language:          "es",
		Active:            true,
		Template:          "Hello, world!",
		PlainTemplate:     "Hello, world! soy antiguo",
		DefaultSender:     "shop@example.com",
		DefaultRecipients: "client@example.com",
		DefaultSubject:    "Hola",
		DefaultReplyTo:    "support@example.com",
	}))

	h := &harness{
		store:     s,
		transport: &stubTransport{},
		metrics:   metrics.NewRecorder(),
		now:       time.Now(),
	}
	registry := backend.NewRegistry("stub").Register("stub", h.transport, backend.StatusInterpreter{})
	composer := backend.NewComposer(render.New(), nil, s)
	adapter := backend.NewAdapter(registry, s, backend.WithComposer(composer))

	h.scheduler = schedule.NewScheduler(s, schedule.NewGenerator(s, schedule.WithBackends(registry)))
	h.loop = sender.New(s, adapter, append([]sender.Option{
		sender.WithMetrics(h.metrics),
		sender.WithClock(func() time.Time { return h.now }),
		sender.WithSpamChecker(spam.New(spam.WithChecks("my-test-email", spam.HasHref))),
	}, opts...)...)
	return h
}

func (h *harness) schedule(t *testing.T, params email.Params) *email.Entry {
	t.Helper()
	e, err := h.scheduler.Schedule(context.Background(), "my-test-email", "es", params)
	require.NoError(t, err)
	return e
}

func (h *harness) entry(t *testing.T, id string) *email.Entry {
	t.Helper()
	e, err := h.store.Entry(context.Background(), id)
	require.NoError(t, err)
	return e
}

func TestLoop_SendsScheduledEntry(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	e := h.schedule(t, email.Params{})

	n, err := h.loop.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got := h.entry(t, e.ID)
	assert.True(t, got.Sent)
	assert.NotEmpty(t, got.ThirdpartyID)
	assert.Equal(t, "Hello, world!", got.RenderedHTML)
	assert.Equal(t, "Hello, world! soy antiguo", got.RenderedPlain)
	require.NotNil(t, got.SentAt)
	assert.Equal(t, 1, h.metrics.Count(metrics.SendOK))

	n, err = h.loop.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, h.transport.count())
}

func TestLoop_SendAtInFuture(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	sendAt := h.now.Add(300 * time.Second).Unix()
	e := h.schedule(t, email.Params{SendAt: &sendAt})

	n, err := h.loop.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.False(t, h.entry(t, e.ID).Sent)

	h.now = h.now.Add(301 * time.Second)
	n, err = h.loop.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, h.entry(t, e.ID).Sent)
}

func TestLoop_OriginDeletes(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"allowed": false, "delete": true}`))
	}))
	t.Cleanup(srv.Close)

	h := newHarness(t, sender.WithOriginGate(sender.NewOriginGateWithClient(srv.Client())))
	e := h.schedule(t, email.Params{CheckURL: srv.URL + "/can-send/1"})

	n, err := h.loop.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	got := h.entry(t, e.ID)
	assert.False(t, got.Sent)
	assert.True(t, got.Deleted)

	purged, err := cleaner.New(h.store).RunOnce(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)
	assert.Empty(t, h.store.Entries())
}

func TestLoop_OriginVerdicts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		status      int
		body        string
		wantSent    bool
		wantDeleted bool
	}{
		{name: "allowed", status: http.StatusOK, body: `{"allowed": true}`, wantSent: true},
		{name: "allowed and delete", status: http.StatusOK, body: `{"allowed": true, "delete": true}`, wantSent: true, wantDeleted: true},
		{name: "not allowed", status: http.StatusOK, body: `{"allowed": false}`},
		{name: "missing allowed", status: http.StatusOK, body: `{}`},
		{name: "server error", status: http.StatusInternalServerError, body: `{"allowed": true}`},
		{name: "malformed", status: http.StatusOK, body: `<html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			t.Cleanup(srv.Close)

			h := newHarness(t, sender.WithOriginGate(sender.NewOriginGateWithClient(srv.Client())))
			e := h.schedule(t, email.Params{CheckURL: srv.URL})

			_, err := h.loop.RunOnce(context.Background())
			require.NoError(t, err)

			got := h.entry(t, e.ID)
			assert.Equal(t, tt.wantSent, got.Sent)
			assert.Equal(t, tt.wantDeleted, got.Deleted)
		})
	}
}

func TestLoop_OriginTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	h := newHarness(t, sender.WithOriginGate(sender.NewOriginGate(50*time.Millisecond)))
	e := h.schedule(t, email.Params{CheckURL: srv.URL})

	n, err := h.loop.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.False(t, h.entry(t, e.ID).Sent)
}

func TestLoop_Rejected(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.transport.resp = &backend.Response{ID: "r-1", Status: backend.StatusRejected, RejectReason: "potato"}
	e := h.schedule(t, email.Params{})

	n, err := h.loop.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	got := h.entry(t, e.ID)
	assert.False(t, got.Sent)
	assert.Equal(t, "potato", got.ThirdpartyReject)
	assert.Equal(t, 1, h.metrics.Count(metrics.SendFail))

	candidates, err := h.store.ListSendable(context.Background())
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestLoop_TransportFailureIsRetried(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.transport.err = errors.New("connection refused")
	first := h.schedule(t, email.Params{})
	second := h.schedule(t, email.Params{})

	n, err := h.loop.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 2, h.metrics.Count(metrics.SendFail))
	assert.False(t, h.entry(t, first.ID).Sent)

	h.transport.mu.Lock()
	h.transport.err = nil
	h.transport.mu.Unlock()

	n, err = h.loop.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, h.entry(t, second.ID).Sent)
}

func TestLoop_Spam(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	e := h.schedule(t, email.Params{Context: map[string]any{"name": `<a href="http://evil.example">win</a>`}})

	n, err := h.loop.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Zero(t, h.transport.count())

	got := h.entry(t, e.ID)
	assert.True(t, got.IsSpam)
	assert.Equal(t, 1, h.metrics.Count(metrics.SendIsSpam))
}

type failingStore struct{}

func (failingStore) ListSendable(context.Context) ([]*email.Entry, error) {
	return nil, errors.New("database is down")
}
func (failingStore) MarkSpam(context.Context, string) error    { return nil }
func (failingStore) MarkDeleted(context.Context, string) error { return nil }

func TestLoop_ListFailure(t *testing.T) {
	t.Parallel()

	_, err := sender.New(failingStore{}, nil).RunOnce(context.Background())
	require.ErrorIs(t, err, sender.ErrListEntries)

	err = sender.NewTask(sender.New(failingStore{}, nil), "@every 10s").Handle(context.Background())
	require.ErrorIs(t, err, sender.ErrListEntries)
}

func TestTask(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.schedule(t, email.Params{})

	task := sender.NewTask(h.loop, "@every 10s")
	assert.Equal(t, "send_entries", task.Name())
	assert.Equal(t, "@every 10s", task.Schedule())
	require.NoError(t, task.Handle(context.Background()))
	assert.Equal(t, 1, h.transport.count())
}

func TestOriginGate_Check(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(`{"allowed": true, "delete": false}`))
	}))
	t.Cleanup(srv.Close)

	v, err := sender.NewOriginGate(time.Second).Check(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, sender.Verdict{Allowed: true}, v)

	_, err = sender.NewOriginGate(time.Second).Check(context.Background(), "://bad")
	require.ErrorIs(t, err, sender.ErrOriginCheck)
}

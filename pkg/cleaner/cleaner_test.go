package cleaner_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/mailroom/pkg/cleaner"
	"github.com/dmitrymomot/mailroom/pkg/email"
	"github.com/dmitrymomot/mailroom/pkg/metrics"
	"github.com/dmitrymomot/mailroom/pkg/store/memstore"
)

func TestCleaner_RunOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := memstore.New()
	kind := &email.Kind{Name: "welcome", Language: "es", Active: true, Template: "x", PlainTemplate: "x"}
	require.NoError(t, s.SaveKind(ctx, kind))

	ids := make([]string, 3)
	for i := range ids {
		e := &email.Entry{Kind: kind, Sender: "a@x", Recipients: "b@x", Subject: "s"}
		require.NoError(t, s.CreateEntry(ctx, e, []*email.Attachment{{Name: "f.txt", Content: []byte("x")}}))
		ids[i] = e.ID
	}
	require.NoError(t, s.MarkDeleted(ctx, ids[0]))
	require.NoError(t, s.MarkDeleted(ctx, ids[2]))

	rec := metrics.NewRecorder()
	c := cleaner.New(s, cleaner.WithMetrics(rec))

	n, err := c.RunOnce(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.Equal(t, 2, rec.Count(metrics.CleanOK))

	remaining := s.Entries()
	require.Len(t, remaining, 1)
	assert.Equal(t, ids[1], remaining[0].ID)

	files, err := s.EntryAttachments(ctx, ids[0])
	require.NoError(t, err)
	assert.Empty(t, files)

	n, err = c.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

type brokenPurger struct{}

func (brokenPurger) PurgeDeleted(context.Context) (int64, error) {
	return 0, errors.New("relation \"entries\" does not exist")
}

func TestTask(t *testing.T) {
	t.Parallel()

	task := cleaner.NewTask(cleaner.New(brokenPurger{}), "0 3 * * *")
	assert.Equal(t, "clean_entries", task.Name())
	assert.Equal(t, "0 3 * * *", task.Schedule())
	require.Error(t, task.Handle(context.Background()))
}

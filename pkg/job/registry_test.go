package job

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greetPayload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type greetTask struct {
	err  error
	got  greetPayload
	runs int
}

func (t *greetTask) Name() string { return "greet" }

func (t *greetTask) Handle(_ context.Context, p greetPayload) error {
	t.runs++
	t.got = p
	return t.err
}

type tickTask struct {
	runs int
}

func (t *tickTask) Name() string     { return "tick" }
func (t *tickTask) Schedule() string { return "@every 1m" }
func (t *tickTask) Handle(context.Context) error {
	t.runs++
	return nil
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	cfg := newConfig()
	WithTask[greetPayload](&greetTask{})(cfg)
	WithScheduledTask(&tickTask{})(cfg)

	_, ok := cfg.registry.get("greet")
	assert.True(t, ok)
	_, ok = cfg.registry.get("tick")
	assert.False(t, ok, "scheduled tasks register when the manager is built")
	_, ok = cfg.registry.get("missing")
	assert.False(t, ok)

	require.Len(t, cfg.schedules, 1)
	assert.Equal(t, "tick", cfg.schedules[0].name)
	assert.Equal(t, "@every 1m", cfg.schedules[0].spec)
}

func TestTypedTask_Execute(t *testing.T) {
	t.Parallel()

	t.Run("decodes payload", func(t *testing.T) {
		t.Parallel()
		task := &greetTask{}
		exec := typedTask[greetPayload, *greetTask]{task: task}

		require.NoError(t, exec.Execute(context.Background(), json.RawMessage(`{"name":"Luisa","count":2}`)))
		assert.Equal(t, greetPayload{Name: "Luisa", Count: 2}, task.got)
	})

	t.Run("empty payload", func(t *testing.T) {
		t.Parallel()
		task := &greetTask{}
		exec := typedTask[greetPayload, *greetTask]{task: task}

		require.NoError(t, exec.Execute(context.Background(), nil))
		assert.Equal(t, 1, task.runs)
		assert.Zero(t, task.got)
	})

	t.Run("invalid payload", func(t *testing.T) {
		t.Parallel()
		task := &greetTask{}
		exec := typedTask[greetPayload, *greetTask]{task: task}

		err := exec.Execute(context.Background(), json.RawMessage(`{"count":"x"}`))
		require.ErrorIs(t, err, ErrInvalidPayload)
		assert.Zero(t, task.runs)
	})

	t.Run("handler error", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		exec := typedTask[greetPayload, *greetTask]{task: &greetTask{err: boom}}

		require.ErrorIs(t, exec.Execute(context.Background(), nil), boom)
	})
}

func TestPeriodicTask_Execute(t *testing.T) {
	t.Parallel()

	task := &tickTask{}
	var exec executor = periodicTask(task.Handle)
	require.NoError(t, exec.Execute(context.Background(), json.RawMessage(`{"ignored":true}`)))
	assert.Equal(t, 1, task.runs)
}

func TestRegistry_NamesSorted(t *testing.T) {
	t.Parallel()

	r := newRegistry()
	assert.Empty(t, r.names())

	r.register("send_entries", periodicTask(func(context.Context) error { return nil }))
	r.register("clean_entries", periodicTask(func(context.Context) error { return nil }))
	r.register("enqueue_email", periodicTask(func(context.Context) error { return nil }))
	assert.Equal(t, []string{"clean_entries", "enqueue_email", "send_entries"}, r.names())
}

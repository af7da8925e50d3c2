package job

import (
	"context"
	"log/slog"
)

type config struct {
	registry   *registry
	queues     map[string]int
	logger     *slog.Logger
	schedules  []schedule
	maxWorkers int
	runOnStart bool
}

func newConfig() *config {
	return &config{
		registry: newRegistry(),
		queues:   make(map[string]int),
	}
}

type schedule struct {
	handler periodicTask
	name    string
	spec    string
}

// Option configures the Manager.
type Option func(*config)

// WithTask registers a task. The payload type P is inferred from the Handle
// method signature.
//
//	job.WithTask[json.RawMessage](inbound.NewEnqueueTask(handler))
func WithTask[P any, T interface {
	Name() string
	Handle(context.Context, P) error
}](task T) Option {
	return func(c *config) {
		c.registry.register(task.Name(), typedTask[P, T]{task: task})
	}
}

// WithScheduledTask registers a periodic task. Schedule returns a 5-field cron
// expression or a descriptor such as "@every 1m" or "@hourly".
//
//	job.WithScheduledTask(sender.NewTask(loop, "@every 1m"))
func WithScheduledTask[T interface {
	Name() string
	Schedule() string
	Handle(context.Context) error
}](task T) Option {
	return func(c *config) {
		c.schedules = append(c.schedules, schedule{
			name:    task.Name(),
			spec:    task.Schedule(),
			handler: task.Handle,
		})
	}
}

// WithQueue adds a named queue with its own worker count.
func WithQueue(name string, workers int) Option {
	return func(c *config) {
		if workers > 0 {
			c.queues[name] = workers
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMaxWorkers sets the worker count of the default queue. Defaults to 100.
func WithMaxWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxWorkers = n
		}
	}
}

// WithRunOnStart makes scheduled tasks fire once as soon as the manager starts.
func WithRunOnStart(v bool) Option {
	return func(c *config) {
		c.runOnStart = v
	}
}

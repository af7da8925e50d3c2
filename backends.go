package mailroom

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/mailroom/pkg/backend"
	"github.com/dmitrymomot/mailroom/pkg/backend/console"
	"github.com/dmitrymomot/mailroom/pkg/backend/graph"
	"github.com/dmitrymomot/mailroom/pkg/backend/resend"
	"github.com/dmitrymomot/mailroom/pkg/backend/ses"
	"github.com/dmitrymomot/mailroom/pkg/config"
)

type namedBackend struct {
	transport   backend.Transport
	interpreter backend.Interpreter
	name        string
}

// buildBackends registers every backend enabled in the configuration, then
// the ones added with WithBackend. The registry is fixed afterwards.
func (a *App) buildBackends(ctx context.Context) (*backend.Registry, error) {
	cfg := a.cfg.Backends
	reg := backend.NewRegistry(cfg.Default)

	for _, name := range cfg.Enabled() {
		switch name {
		case config.BackendConsole:
			reg.Register(console.Name, console.New(a.console), backend.StatusInterpreter{})
		case config.BackendResend:
			reg.Register(name, resend.New(cfg.Resend), resend.Interpreter)
		case config.BackendSES:
			t, err := ses.New(ctx, cfg.SES)
			if err != nil {
				return nil, fmt.Errorf("mailroom: backend %s: %w", name, err)
			}
			reg.Register(name, t, backend.StatusInterpreter{})
		case config.BackendGraph:
			reg.Register(name, graph.New(cfg.Graph), backend.StatusInterpreter{})
		}
	}

	for _, b := range a.extraBackends {
		i := b.interpreter
		if i == nil {
			i = backend.StatusInterpreter{}
		}
		reg.Register(b.name, b.transport, i)
	}

	if !reg.Has(reg.Default()) {
		return nil, fmt.Errorf("%w: default %q", backend.ErrUnknownBackend, reg.Default())
	}

	a.logger.Info("delivery backends ready",
		slog.Any("backends", reg.Names()),
		slog.String("default", reg.Default()),
	)
	return reg, nil
}

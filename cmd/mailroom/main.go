// Command mailroom runs the transactional email service.
//
// Usage:
//
//	mailroom [-config mailroom.yaml] <command> [arguments]
//
// Commands:
//
//	serve             run health/metrics HTTP, job workers and the inbound consumer
//	send              run one pass of the send loop
//	clean             run one pass of the cleanup loop
//	migrate           apply the database and job queue migrations
//	import <catalog>  import kinds, fragments and images from a YAML catalog
//	enqueue [-via job|stream|direct] <request.json|->
//	                  submit an inbound request
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrymomot/mailroom"
	"github.com/dmitrymomot/mailroom/middlewares"
	"github.com/dmitrymomot/mailroom/pkg/config"
	"github.com/dmitrymomot/mailroom/pkg/db"
	"github.com/dmitrymomot/mailroom/pkg/inbound"
	"github.com/dmitrymomot/mailroom/pkg/logger"
	"github.com/dmitrymomot/mailroom/pkg/store/postgres"
)

var errUsage = errors.New("usage: mailroom [-config file] serve|send|clean|migrate|import|enqueue")

func main() {
	configPath := flag.String("config", os.Getenv("MAILROOM_CONFIG"), "path to YAML configuration file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	extractors := append(logger.Extractors(), middlewares.RequestIDExtractor())
	log := logger.NewWithSentry(cfg.Log, extractors...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, flag.Args()); err != nil {
		log.Error("command failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, args := args[0], args[1:]

	if cmd == "migrate" {
		return migrate(ctx, cfg, log)
	}

	app, err := mailroom.Open(ctx, cfg, mailroom.WithLogger(log))
	if err != nil {
		return err
	}
	if cmd == "serve" {
		// Serve closes the app on shutdown.
		return app.Serve(ctx)
	}
	defer func() { _ = app.Close(context.Background()) }()

	switch cmd {
	case "send":
		n, err := app.SendOnce(ctx)
		if err != nil {
			return err
		}
		log.InfoContext(ctx, "send pass done", slog.Int("sent", n))
	case "clean":
		n, err := app.CleanOnce(ctx)
		if err != nil {
			return err
		}
		log.InfoContext(ctx, "cleanup pass done", slog.Int64("purged", n))
	case "import":
		if len(args) != 1 {
			return fmt.Errorf("%w: import <catalog.yaml>", errUsage)
		}
		rep, err := app.Import(ctx, args[0])
		if err != nil {
			return err
		}
		log.InfoContext(ctx, "catalog imported",
			slog.Int("fragments", rep.Fragments),
			slog.Int("kinds", len(rep.Kinds)),
			slog.Int("images", rep.Images),
		)
	case "enqueue":
		return enqueue(ctx, app, log, args)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
	return nil
}

func migrate(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	pool, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool, postgres.Migrations, postgres.MigrationsDir, cfg.Database.MigrationsTable, log); err != nil {
		return err
	}
	if err := db.MigrateRiver(ctx, pool, log); err != nil {
		return err
	}
	log.InfoContext(ctx, "migrations applied")
	return nil
}

func enqueue(ctx context.Context, app *mailroom.App, log *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("enqueue", flag.ContinueOnError)
	via := fs.String("via", "job", "transport: job, stream or direct")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: enqueue [-via job|stream|direct] <request.json|->", errUsage)
	}

	body, err := readInput(fs.Arg(0))
	if err != nil {
		return err
	}

	switch *via {
	case "job":
		if err := app.Enqueue(ctx, body); err != nil {
			return err
		}
		log.InfoContext(ctx, "request enqueued", slog.String("task", inbound.EnqueueTaskName))
	case "stream":
		id, err := app.Publish(ctx, body)
		if err != nil {
			return err
		}
		log.InfoContext(ctx, "request published", slog.String("stream_id", id))
	case "direct":
		req, params, err := inbound.Decode(body)
		if err != nil {
			return err
		}
		entry, err := app.Schedule(ctx, req.Name, req.Language, params)
		if err != nil {
			return err
		}
		log.InfoContext(ctx, "entry scheduled", slog.String("entry_id", entry.ID), slog.String("kind", entry.Kind.String()))
	default:
		return fmt.Errorf("%w: unknown transport %q", errUsage, *via)
	}
	return nil
}

func readInput(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}

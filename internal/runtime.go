package internal

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/mailroom/pkg/logger"
)

// Default server timeouts.
const (
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultMaxHeaderBytes    = 1 << 20 // 1MB
	defaultShutdownTimeout   = 30 * time.Second
	defaultAddress           = ":8080"
)

// Hook runs during startup or shutdown.
type Hook func(ctx context.Context) error

// Runner is a blocking background process. It must return when ctx is
// cancelled.
type Runner func(ctx context.Context) error

// ServerConfig holds everything RunServer needs.
type ServerConfig struct {
	Handler         http.Handler
	BaseCtx         context.Context
	Logger          *slog.Logger
	Address         string
	StartupHooks    []Hook
	ShutdownHooks   []Hook
	Runners         []Runner
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

func (cfg *ServerConfig) applyDefaults() {
	if cfg.Address == "" {
		cfg.Address = defaultAddress
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNope()
	}
	if cfg.BaseCtx == nil {
		cfg.BaseCtx = context.Background()
	}
	if cfg.Handler == nil {
		cfg.Handler = http.NotFoundHandler()
	}
}

// RunServer starts the HTTP server and the background runners and blocks
// until SIGINT, SIGTERM, cancellation of BaseCtx or the failure of any of
// them. Startup hooks run in order before anything is served; shutdown hooks
// run in order after the server and runners stopped.
func RunServer(cfg ServerConfig) error {
	cfg.applyDefaults()
	log := cfg.Logger

	ctx, stop := signal.NotifyContext(cfg.BaseCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return err
	}

	for _, hook := range cfg.StartupHooks {
		if err := hook(ctx); err != nil {
			_ = ln.Close()
			return errors.Join(err, shutdown(cfg, nil))
		}
	}

	server := &http.Server{
		Handler:           cfg.Handler,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       defaultIdleTimeout,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		MaxHeaderBytes:    defaultMaxHeaderBytes,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server starting", slog.String("address", ln.Addr().String()))
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	for _, run := range cfg.Runners {
		g.Go(func() error { return run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	runErr := g.Wait()
	if err := shutdown(cfg, runErr); err != nil {
		log.Error("shutdown completed with errors", slog.String("error", err.Error()))
		return err
	}

	log.Info("shutdown completed")
	return nil
}

func shutdown(cfg ServerConfig, runErr error) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	errs := []error{runErr}
	for _, hook := range cfg.ShutdownHooks {
		if err := hook(ctx); err != nil {
			cfg.Logger.Error("shutdown hook failed", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/mellystark/visitormanagement/internal/app"
	"github.com/mellystark/visitormanagement/pkg/logger"
)

type serverFlags struct {
	configPath string
	port       int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	flags, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err == nil {
		err = run(ctx, flags)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "visitor-server: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (serverFlags, error) {
	var flags serverFlags
	fs := flag.NewFlagSet("visitor-server", flag.ContinueOnError)
	fs.StringVar(&flags.configPath, "config", "", "configuration directory or config.yaml path")
	fs.IntVar(&flags.port, "port", 0, "listen port, overrides server.port")
	err := fs.Parse(args)
	return flags, err
}

func run(ctx context.Context, flags serverFlags) error {
	cfg, err := loadApplicationConfig(flags.configPath)
	if err != nil {
		return err
	}
	if flags.port > 0 {
		cfg.Server.Port = flags.port
	}

	generated, err := app.ApplyRuntimeDefaults(cfg)
	if err != nil {
		return err
	}
	if err := app.ConfigureLogging(cfg.Server.LogLevel, cfg.Server.LogFormat); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.WithModule("bootstrap")
	for key := range generated {
		log.Warn("generated runtime secret; issued tokens will not survive a restart", zap.String("key", key))
	}

	stack, err := bootstrapRuntime(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer stack.Shutdown(context.Background(), log)

	server := newHTTPServer(cfg.Server, stack.Router)
	return serve(ctx, server, cfg.Server.Timeouts, log)
}

func newHTTPServer(cfg app.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: cfg.Timeouts.ReadHeader,
		IdleTimeout:       cfg.Timeouts.Idle,
	}
}

// serve runs server until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, server *http.Server, timeouts app.TimeoutConfig, log *zap.Logger) error {
	listenErr := make(chan error, 1)
	go func() {
		log.Info("visitor api listening", zap.String("addr", server.Addr))
		listenErr <- server.ListenAndServe()
	}()

	select {
	case err := <-listenErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	if err := <-listenErr; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen: %w", err)
	}

	log.Info("visitor api stopped")
	return nil
}

// loadApplicationConfig accepts a directory holding config.yaml or the file
// itself. An empty path uses the default search locations.
func loadApplicationConfig(path string) (*app.Config, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return app.LoadConfig()
	}

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("config path %q does not exist", path)
	case err != nil:
		return nil, fmt.Errorf("stat config path: %w", err)
	case info.IsDir():
		return app.LoadConfig(path)
	default:
		return app.LoadConfig(filepath.Dir(path))
	}
}

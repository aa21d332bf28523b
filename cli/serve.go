// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/danielhkuo/munvote/auth"
	"github.com/danielhkuo/munvote/cliparse"
	"github.com/danielhkuo/munvote/router"
	"github.com/danielhkuo/munvote/store"
)

const shutdownTimeout = 10 * time.Second

// ServeCmd returns the serve command. Its flags are the cliparse flags,
// so they are passed through untouched.
func ServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:                "serve [-p port] [-d database] [-t sqlite|postgres]",
		Short:              "Run the HTTP API",
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cliparse.LoadDotEnv(".env"); err != nil {
				return err
			}
			cfg, err := cliparse.ParseFlags(args)
			if errors.Is(err, flag.ErrHelp) {
				return nil
			}
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return Run(ctx, cfg)
		},
	}
}

// Run listens on the configured port and serves until ctx is done.
func Run(ctx context.Context, cfg cliparse.Config) error {
	ln, err := net.Listen("tcp", ":"+strconv.Itoa(cfg.Port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return Serve(ctx, ln, cfg)
}

// Serve opens the store, serves the API on ln and shuts down gracefully
// once ctx is done. The store is closed before Serve returns.
func Serve(ctx context.Context, ln net.Listener, cfg cliparse.Config) error {
	defer ln.Close()

	st, err := store.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer st.Close()
	slog.Info("Database schema ready", "database_type", cfg.DatabaseType)

	sessions, err := auth.NewSessions(cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	server := &http.Server{
		Handler:           router.NewRouter(st, sessions, cfg, reg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	served := make(chan error, 1)
	go func() {
		served <- server.Serve(ln)
	}()
	slog.Info("Listening", "addr", ln.Addr().String())

	select {
	case err := <-served:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	<-served
	slog.Info("Server closed")
	return nil
}

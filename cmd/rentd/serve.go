package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/warp/rent-engine/api"
	"github.com/warp/rent-engine/metrics"
)

const shutdownTimeout = 30 * time.Second

func serveCmd(a *app) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}
			return a.serve()
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "HTTP server port (overrides server.port)")
	return cmd
}

func (a *app) serve() error {
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	logger := slog.Default()
	m := metrics.New()
	router := api.NewRouter(api.NewHandler(store, a.newRunner(store, m), logger), m)

	server := &http.Server{
		Addr:         a.cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second, // exports of long ranges
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			"addr", server.Addr,
			"db", a.cfg.Database.Path,
			"currency", a.cfg.Reporting.Currency,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down server", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

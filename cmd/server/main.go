package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/sql2xlsx/internal/config"
	"github.com/JonMunkholm/sql2xlsx/internal/core"
	"github.com/JonMunkholm/sql2xlsx/internal/exporter"
	"github.com/JonMunkholm/sql2xlsx/internal/loader"
	"github.com/JonMunkholm/sql2xlsx/internal/logging"
	"github.com/JonMunkholm/sql2xlsx/internal/tempfile"
	"github.com/JonMunkholm/sql2xlsx/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging based on config
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	store := tempfile.NewStore(cfg.Temp.Dir, cfg.Temp.DeleteAttempts, cfg.Temp.DeleteDelay)

	slog.Info("configuration loaded",
		"addr", cfg.Server.Addr(),
		"temp_dir", store.Dir(),
		"upload_max_file_size", cfg.Upload.MaxFileSize,
		"mysql_client", cfg.Clients.MySQLBin,
		"psql_client", cfg.Clients.PsqlBin,
	)

	service := core.NewService(
		store,
		loader.New(loader.Clients{
			MySQL:        cfg.Clients.MySQLBin,
			Psql:         cfg.Clients.PsqlBin,
			PsqlDatabase: cfg.Clients.PsqlMaintenanceDB,
		}),
		exporter.New(store),
	)

	server := web.NewServer(service, cfg)

	// Graceful shutdown
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		// In-flight conversions finish and clean up before the deadline.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	<-stopped
	slog.Info("server stopped")
}

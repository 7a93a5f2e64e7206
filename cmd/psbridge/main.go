package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/psbridge/psbridge/internal/api"
	"github.com/psbridge/psbridge/internal/config"
	"github.com/psbridge/psbridge/internal/execution"
	"github.com/psbridge/psbridge/internal/inventory"
	"github.com/psbridge/psbridge/internal/results"
	"github.com/psbridge/psbridge/internal/runner"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (defaults apply when empty)")
	dumpConfig := flag.Bool("dump-config", false, "print an example configuration and exit")
	flag.Parse()

	if *dumpConfig {
		if err := config.DumpExampleConfig(os.Stdout); err != nil {
			log.Fatalf("Failed to dump config: %v", err)
		}
		return
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := config.InitLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	logger.Info("Starting psbridge",
		"version", api.Version,
		"addr", cfg.Server.Addr(),
		"runner", cfg.Runner.Binary,
		"playbook", cfg.Runner.PlaybookPath,
		"output_format", cfg.Runner.OutputFormat,
	)

	proc := runner.NewExecRunner()
	service := execution.NewService(
		inventory.NewBuilder(cfg.Runner.Inventory),
		runner.NewInvoker(cfg.Runner, proc, logger),
		results.NewParser(cfg.Runner.OutputFormat),
		logger,
	)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(cfg, service, proc, logger),
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
	}

	// Start server in goroutine
	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// In-flight executions may hold a runner for the full deadline
	shutdownTimeout := cfg.Runner.DefaultTimeout() + cfg.Runner.DeadlineBuffer()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server stopped gracefully", "shutdown_timeout", shutdownTimeout.Round(time.Second))
}

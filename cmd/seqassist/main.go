// Command seqassist serves the documentation assistant HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"seqassist/internal/app"
	"seqassist/internal/config"
	"seqassist/internal/llm"
	"seqassist/internal/log"
	"seqassist/internal/sandbox"
	"seqassist/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = flag.String("config", "", "path to config file (default ~/.config/seqassist/config.yaml)")
		debug      = flag.Bool("debug", false, "enable debug logging")
		jsonLogs   = flag.Bool("json-logs", false, "emit logs as JSON")
	)
	flag.Parse()

	// Optional; local development keeps API keys in .env.
	_ = godotenv.Load()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := log.New(log.Config{Level: level, JSON: *jsonLogs})

	path := *configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	retr, err := app.BuildRetriever(cfg, logger)
	if err != nil {
		return err
	}
	executor := sandbox.New(sandbox.Config{
		MaxSteps: cfg.Sandbox.MaxSteps,
		Timeout:  time.Duration(cfg.Sandbox.TimeoutSecs) * time.Second,
		Logger:   logger,
	})
	chat := llm.New(llm.Config{
		BaseURL:   cfg.LLM.BaseURL,
		APIKeyEnv: cfg.LLM.APIKeyEnv,
		Model:     cfg.LLM.Model,
		Timeout:   time.Duration(cfg.LLM.TimeoutSecs) * time.Second,
	})

	srv := server.New(server.Config{
		Retriever: retr,
		Executor:  executor,
		Chat:      chat,
		TopK:      cfg.Retriever.TopK,
		Logger:    logger,
	})

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}

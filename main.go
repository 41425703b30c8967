package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/judica-dev/judica/internal/api"
	"github.com/judica-dev/judica/internal/config"
	"github.com/judica-dev/judica/internal/judge"
	"github.com/judica-dev/judica/internal/llm"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// One model client for the life of the process
	client, err := llm.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create %s client: %v", cfg.Provider, err)
	}

	judica := judge.New(client, llm.ResolveModel(cfg.Provider, cfg.Model))
	defer judica.Close()

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
	server := api.NewServer(judica, cfg)

	httpServer := &http.Server{
		Addr:    cfg.Addr(),
		Handler: server.Router(),
	}

	fmt.Printf("Starting Judica on port %d (provider %s, model %s)...\n", cfg.Port, cfg.Provider, judica.Model())
	fmt.Printf("Endpoints:\n")
	fmt.Printf("  GET  / - Petition form\n")
	fmt.Printf("  POST /api/judge - Evaluate petition text\n")
	fmt.Printf("  POST /api/judge/upload - Evaluate an uploaded document\n")
	fmt.Printf("  POST /api/export - Export an evaluation to Excel\n")
	fmt.Printf("  GET  /health - Health check\n")

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	case <-ctx.Done():
		log.Printf("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("Graceful shutdown failed: %v", err)
		}
	}
}

// loadConfig reads JUDICA_CONFIG if set, otherwise the default config path
func loadConfig() (*config.Config, error) {
	if path := os.Getenv("JUDICA_CONFIG"); path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

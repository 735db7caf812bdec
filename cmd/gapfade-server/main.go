// Command gapfade-server serves stored backtest runs and the trade journal
// over a read-only JSON API.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gapfade/internal/config"
	"gapfade/internal/httpapi"
	"gapfade/internal/journal"
	"gapfade/internal/store"
	"gapfade/internal/util"
)

func main() {
	cfgPath := "config/gapfade.yaml"
	if p := os.Getenv("GAPFADE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	util.SetDefault(logger)

	results, err := store.NewSQLiteStore(cfg.Storage.SQLitePath)
	if err != nil {
		log.Fatalf("opening results database: %v", err)
	}
	defer results.Close()

	ledger, err := journal.Open(cfg.Storage.JournalPath)
	if err != nil {
		log.Fatalf("opening journal: %v", err)
	}

	srv := httpapi.NewServer(results, ledger)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: srv.Handler(),
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		logger.Info("gapfade-server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

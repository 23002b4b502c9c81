// Command enginemock runs a local stand-in for the PDB Engine API so the
// client can be exercised without the real service.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/XRed8X/PDB-Engine/internal/catalog"
	"github.com/XRed8X/PDB-Engine/internal/config"
	"github.com/XRed8X/PDB-Engine/internal/enginemock"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	zcfg := zap.NewProductionConfig()
	if level, perr := zapcore.ParseLevel(cfg.Log.Level); perr == nil {
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}
	logger, err := zcfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cat := catalog.Default()
	if cfg.Catalog.Path != "" {
		cat, err = catalog.LoadFile(cfg.Catalog.Path)
		if err != nil {
			logger.Fatal("load catalog", zap.Error(err))
		}
	}

	engine := enginemock.New(enginemock.Options{
		Catalog:      cat,
		Latency:      time.Duration(cfg.Mock.LatencyMS) * time.Millisecond,
		FailWith:     cfg.Mock.FailWith,
		MaxFileBytes: cfg.Mock.MaxFileBytes,
		Logger:       logger.Named("engine"),
	})

	httpServer := &http.Server{
		Addr:         cfg.Mock.Addr,
		Handler:      engine.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	go func() {
		logger.Info("mock engine listening",
			zap.String("addr", cfg.Mock.Addr),
			zap.Int("commands", cat.Len()))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

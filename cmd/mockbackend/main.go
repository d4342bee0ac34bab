package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Lagunov2003/practice-registry/internal/config"
	"github.com/Lagunov2003/practice-registry/internal/logging"
	"github.com/Lagunov2003/practice-registry/internal/mockbackend"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	defer log.Sync()

	store, err := mockbackend.Open(ctx, "file:"+cfg.Mock.DBPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return err
	}
	defer store.Close()
	if cfg.Mock.Seed {
		if err := store.Seed(ctx); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
	}

	srv := &http.Server{
		Addr:              cfg.Mock.Addr,
		Handler:           mockbackend.NewHandler(store, log).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("mock backend listening", zap.String("addr", cfg.Mock.Addr), zap.String("db", cfg.Mock.DBPath))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

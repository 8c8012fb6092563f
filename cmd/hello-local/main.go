package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"

	"greeter/internal/config"
	"greeter/internal/handlers"
	"greeter/internal/localinvoke"
	"greeter/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	l, err := logger.New(cfg.LogLevel, cfg.IsLocal())
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = l.Sync() }()
	zap.ReplaceGlobals(l)

	srv := localinvoke.NewServer(cfg.LocalAddr, lambda.NewHandler(handlers.Hello), l)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if err != nil {
			l.Fatal("local invoke server failed", zap.Error(err))
		}
	case <-ctx.Done():
		l.Info("shutting down", zap.Duration("timeout", cfg.ShutdownTimeout()))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			l.Error("shutdown failed", zap.Error(err))
		}
	}
}

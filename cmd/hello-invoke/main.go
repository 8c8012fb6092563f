package main

import (
	"context"
	"log"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	lambdasvc "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"go.uber.org/zap"

	"greeter/internal/config"
	"greeter/internal/logger"
	"greeter/internal/smoke"
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

	err = run(cfg, l)
	_ = l.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run(cfg *config.Config, l *zap.Logger) error {
	sc, err := cfg.Smoke()
	if err != nil {
		l.Error("smoke config", zap.Error(err))
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		l.Error("load aws config", zap.Error(err))
		return err
	}

	checker := smoke.NewChecker(
		sc.FunctionName,
		sc.AlertTopicArn,
		lambdasvc.NewFromConfig(awsCfg),
		sns.NewFromConfig(awsCfg),
		l,
	)
	return checker.Run(ctx)
}

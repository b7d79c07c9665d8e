// Package main runs the standalone email worker: it drains the Redis email queue and records every attempt.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eduverse/site-backend/config"
	"github.com/eduverse/site-backend/internal/emaillogs"
	"github.com/eduverse/site-backend/internal/mailer"
	"github.com/eduverse/site-backend/internal/notify"
	"github.com/eduverse/site-backend/internal/store"
	"github.com/eduverse/site-backend/internal/worker"
	"github.com/eduverse/site-backend/pkg/queue"
	"github.com/eduverse/site-backend/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if cfg.Redis.Addr == "" {
		logger.Fatal("REDIS_ADDR is required for the worker")
	}

	ctx := context.Background()
	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	adapter := store.Open(store.Config{
		Driver:         cfg.Store.Driver,
		URI:            cfg.Store.URI(),
		Database:       cfg.Store.MongoDB,
		ConnectTimeout: cfg.Store.ConnectTimeout,
		CheckInterval:  cfg.Store.CheckInterval,
	}, logger)
	if adapter.Configured() {
		logger.Info("store", zap.String("status", string(adapter.Connect(ctx))))
	}

	smtp := mailer.NewSMTP(mailer.Config{
		Host:     cfg.Email.SMTPHost,
		Port:     cfg.Email.SMTPPort,
		User:     cfg.Email.User,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
		FromName: cfg.Email.FromName,
	})
	if !smtp.Configured() {
		logger.Warn("email credentials missing, queued jobs will fail")
	}

	deliverer := notify.NewDeliverer(smtp, emaillogs.NewRepository(adapter), logger)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	processor := worker.NewEmailProcessor(jobQueue, deliverer, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		processor.Run(workerCtx)
		close(done)
	}()
	logger.Info("worker started", zap.String("queue", queue.QueueEmails))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	select {
	case <-done:
	case <-time.After(queue.PollTimeout + 2*time.Second):
	}

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCancel()
	_ = adapter.Close(closeCtx)
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}

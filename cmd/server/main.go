// Package main runs the site HTTP server with background email delivery and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eduverse/site-backend/config"
	"github.com/eduverse/site-backend/internal/backup"
	"github.com/eduverse/site-backend/internal/contacts"
	"github.com/eduverse/site-backend/internal/emaillogs"
	"github.com/eduverse/site-backend/internal/events"
	"github.com/eduverse/site-backend/internal/forms"
	"github.com/eduverse/site-backend/internal/mailer"
	"github.com/eduverse/site-backend/internal/notify"
	"github.com/eduverse/site-backend/internal/recordings"
	"github.com/eduverse/site-backend/internal/registrations"
	"github.com/eduverse/site-backend/internal/server"
	"github.com/eduverse/site-backend/internal/store"
	"github.com/eduverse/site-backend/internal/tasks"
	"github.com/eduverse/site-backend/internal/testimonials"
	"github.com/eduverse/site-backend/internal/uploads"
	"github.com/eduverse/site-backend/internal/worker"
	"github.com/eduverse/site-backend/pkg/queue"
	"github.com/eduverse/site-backend/pkg/redis"
	"github.com/eduverse/site-backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()

	// Store: a failed first connect is not fatal; requests retry and reads fall back.
	adapter := store.Open(store.Config{
		Driver:         cfg.Store.Driver,
		URI:            cfg.Store.URI(),
		Database:       cfg.Store.MongoDB,
		ConnectTimeout: cfg.Store.ConnectTimeout,
		CheckInterval:  cfg.Store.CheckInterval,
	}, logger)
	if !adapter.Configured() {
		logger.Warn("store not configured, serving fallback data", zap.String("driver", cfg.Store.Driver))
	} else {
		logger.Info("store", zap.String("driver", adapter.Driver()), zap.String("status", string(adapter.Connect(ctx))))
	}

	runner := tasks.NewRunner(cfg.Server.TaskTimeout, logger)

	// Email
	smtp := mailer.NewSMTP(mailer.Config{
		Host:     cfg.Email.SMTPHost,
		Port:     cfg.Email.SMTPPort,
		User:     cfg.Email.User,
		Password: cfg.Email.Password,
		From:     cfg.Email.From,
		FromName: cfg.Email.FromName,
	})
	if !smtp.Configured() {
		logger.Warn("email credentials missing, notifications disabled")
	}
	emailLogRepo := emaillogs.NewRepository(adapter)
	deliverer := notify.NewDeliverer(smtp, emailLogRepo, logger)

	// Outbox: Redis list when available, in-process delivery otherwise.
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	outbox := deliverer.Outbox()
	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Warn("redis unavailable, delivering emails in-process", zap.Error(err))
		} else {
			defer rdb.Close()
			jobQueue := queue.NewQueue(rdb.Client, logger)
			outbox = worker.QueueOutbox(jobQueue)
			go worker.NewEmailProcessor(jobQueue, deliverer, logger).Run(workerCtx)
			logger.Info("email worker started", zap.String("queue", queue.QueueEmails))
		}
	}
	dispatcher := notify.NewDispatcher(smtp, outbox, runner, cfg.Email.AdminEmail, logger)

	// Payment proofs: local disk, mirrored to S3 when a bucket is set.
	var mirror uploads.Mirror
	if cfg.AWS.PaymentsBucket != "" {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			PaymentsBucket:  cfg.AWS.PaymentsBucket,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		} else {
			mirror = s3Client
		}
	}
	proofs := uploads.NewStore(cfg.Files.UploadDir, cfg.Files.MaxUploadBytes, mirror, logger)
	backupWriter := backup.NewWriter(cfg.Files.BackupFile, logger)

	// Google Form mirror for registrations
	formSubmitter := forms.NewSubmitter(cfg.GoogleForm.ActionURL, forms.ParseFieldMap(cfg.GoogleForm.Fields), &http.Client{Timeout: 15 * time.Second}, logger)

	// Events
	eventRepo := events.NewRepository(adapter)
	eventHandler := events.NewHandler(eventRepo, cfg.Store.EventsTimeout, logger)

	// Registrations
	registrationRepo := registrations.NewRepository(adapter)
	registrationHandler := registrations.NewHandler(registrationRepo, eventRepo, dispatcher, formSubmitter, runner, logger)

	// Recording bookings
	recordingRepo := recordings.NewRepository(adapter)
	recordingHandler := recordings.NewHandler(recordingRepo, eventRepo, proofs, backupWriter, dispatcher, logger)

	// Contact and testimonials
	contactHandler := contacts.NewHandler(contacts.NewRepository(adapter), dispatcher, logger)
	testimonialHandler := testimonials.NewHandler(testimonials.NewRepository(adapter), logger)

	emailLogHandler := emaillogs.NewHandler(emailLogRepo, logger)

	router := server.NewRouter(server.Options{
		CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		PrimeStore:         cfg.Store.PrimePerRequest,
	}, adapter, server.Handlers{
		Events:        eventHandler,
		Registrations: registrationHandler,
		Recordings:    recordingHandler,
		Contacts:      contactHandler,
		Testimonials:  testimonialHandler,
		EmailLogs:     emailLogHandler,
	}, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	if err := runner.Shutdown(shutdownCtx); err != nil {
		logger.Warn("background tasks cut short", zap.Error(err))
	}
	workerCancel()
	if err := adapter.Close(shutdownCtx); err != nil {
		logger.Error("store close", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/Lirazgabbay/Video-search-engine/internal/collage"
	"github.com/Lirazgabbay/Video-search-engine/internal/gemini"
	"github.com/Lirazgabbay/Video-search-engine/internal/infra/config"
	"github.com/Lirazgabbay/Video-search-engine/internal/infra/email"
	"github.com/Lirazgabbay/Video-search-engine/internal/infra/ffmpeg"
	"github.com/Lirazgabbay/Video-search-engine/internal/infra/metrics"
	miniostorage "github.com/Lirazgabbay/Video-search-engine/internal/infra/minio"
	"github.com/Lirazgabbay/Video-search-engine/internal/infra/postgres"
	"github.com/Lirazgabbay/Video-search-engine/internal/infra/rabbitmq"
	"github.com/Lirazgabbay/Video-search-engine/internal/infra/tracing"
	"github.com/Lirazgabbay/Video-search-engine/internal/usecase"
	"github.com/Lirazgabbay/Video-search-engine/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	fatalOnErr(err, "load config")

	log, err := logger.New(cfg.LogLevel)
	fatalOnErr(err, "init logger")
	defer log.Sync()

	log.Info("starting scene-search-service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing (non-fatal if the collector is unavailable)
	tp, err := tracing.InitTracer(ctx, cfg.OTLPEndpoint)
	if err != nil {
		log.Warn("tracing init failed, continuing without tracing", zap.Error(err))
	} else {
		defer tp.Shutdown(ctx)
	}

	// Database
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	fatalOnErr(err, "connect to postgres")
	defer pool.Close()

	// Migrations
	err = postgres.RunMigrations(cfg.DatabaseURL, "migrations")
	if err != nil {
		log.Warn("migration warning", zap.Error(err))
	}

	// MinIO
	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:     cfg.MinIOEndpoint,
		AccessKey:    cfg.MinIOAccessKey,
		SecretKey:    cfg.MinIOSecretKey,
		UseSSL:       cfg.MinIOUseSSL,
		MediaBucket:  cfg.MinIOMediaBucket,
		ResultBucket: cfg.MinIOResultBucket,
	})
	fatalOnErr(err, "create minio storage")
	fatalOnErr(storage.EnsureBuckets(ctx), "ensure minio buckets")

	// RabbitMQ publisher connection
	rmqConn, err := amqp.Dial(cfg.RabbitMQURL)
	fatalOnErr(err, "connect to rabbitmq for publisher")
	defer rmqConn.Close()

	pub, err := rabbitmq.NewPublisher(rmqConn, cfg.RabbitMQExchange)
	fatalOnErr(err, "create rabbitmq publisher")

	statusPub := rabbitmq.NewStatusPublisher(pub)
	dlqPub := rabbitmq.NewDLQPublisher(pub, cfg.RabbitMQDLQ)

	// Infra adapters
	repo := postgres.NewSearchJobRepository(pool)
	extractor := ffmpeg.NewExtractor(cfg.FrameFormat, cfg.ExtractClampOffset, log)
	archiver := ffmpeg.NewFrameArchiver()
	builder := collage.NewBuilder(cfg.CollageWidth, cfg.CollageHeight, log)
	notifier := email.NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, log)

	locator, err := gemini.NewLocator(ctx, gemini.Config{
		APIKey:       cfg.GeminiAPIKey,
		Model:        cfg.GeminiModel,
		MaxPolls:     cfg.GeminiMaxPolls,
		PollInterval: time.Duration(cfg.GeminiPollInterval) * time.Second,
	}, log)
	fatalOnErr(err, "create gemini locator")
	defer locator.Close()

	// Use case
	uc := usecase.NewSearchSceneUseCase(
		repo, storage, extractor, locator, builder, archiver,
		statusPub, dlqPub, notifier,
		log,
		usecase.SearchSceneConfig{
			TempDir:        cfg.TempDir,
			MaxRetries:     cfg.MaxRetries,
			MatchThreshold: cfg.MatchThreshold,
		},
	)

	// Metrics server
	metricsSrv := metrics.StartMetricsServer(ctx, cfg.MetricsPort, log)

	// Consumer (worker pool)
	consumer, err := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:         cfg.RabbitMQURL,
		Queue:       cfg.RabbitMQSearchQueue,
		Exchange:    cfg.RabbitMQExchange,
		DLQ:         cfg.RabbitMQDLQ,
		StatusQueue: cfg.RabbitMQStatusQueue,
		Prefetch:    cfg.RabbitMQPrefetch,
		WorkerCount: cfg.WorkerCount,
		BaseDelayMs: cfg.RetryBaseDelayMs,
	}, uc.Execute, log)
	fatalOnErr(err, "create consumer")

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
	}()

	log.Info("scene-search-service started, consuming messages")

	if err := consumer.Start(ctx); err != nil {
		log.Error("consumer error", zap.Error(err))
	}

	// Shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	metricsSrv.Shutdown(shutdownCtx)

	consumer.Close()
	log.Info("scene-search-service stopped")
}

func fatalOnErr(err error, msg string) {
	if err != nil {
		panic(msg + ": " + err.Error())
	}
}

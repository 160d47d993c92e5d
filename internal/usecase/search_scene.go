package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/Lirazgabbay/Video-search-engine/internal/domain/entity"
	"github.com/Lirazgabbay/Video-search-engine/internal/domain/port"
	"github.com/Lirazgabbay/Video-search-engine/internal/infra/metrics"
	"github.com/Lirazgabbay/Video-search-engine/internal/match"
)

// SearchSceneUseCase runs one scene-search job end to end: fetch
// inputs from storage, locate matching scenes (via the video model or
// the caption store), render the collage, and upload the artifacts.
type SearchSceneUseCase struct {
	repo      port.SearchJobRepository
	storage   port.MediaStorage
	extractor port.FrameExtractor
	locator   port.SceneLocator
	collage   port.CollageBuilder
	archiver  port.Archiver
	publisher port.StatusPublisher
	dlq       port.DLQPublisher
	notifier  port.FailureNotifier
	logger    *zap.Logger
	tempDir   string
	maxRetry  int
	threshold int
}

type SearchSceneConfig struct {
	TempDir        string
	MaxRetries     int
	MatchThreshold int
}

func NewSearchSceneUseCase(
	repo port.SearchJobRepository,
	storage port.MediaStorage,
	extractor port.FrameExtractor,
	locator port.SceneLocator,
	collage port.CollageBuilder,
	archiver port.Archiver,
	publisher port.StatusPublisher,
	dlq port.DLQPublisher,
	notifier port.FailureNotifier,
	logger *zap.Logger,
	cfg SearchSceneConfig,
) *SearchSceneUseCase {
	threshold := cfg.MatchThreshold
	if threshold <= 0 {
		threshold = match.DefaultThreshold
	}
	return &SearchSceneUseCase{
		repo:      repo,
		storage:   storage,
		extractor: extractor,
		locator:   locator,
		collage:   collage,
		archiver:  archiver,
		publisher: publisher,
		dlq:       dlq,
		notifier:  notifier,
		logger:    logger,
		tempDir:   cfg.TempDir,
		maxRetry:  cfg.MaxRetries,
		threshold: threshold,
	}
}

func (uc *SearchSceneUseCase) Execute(ctx context.Context, rawMsg []byte) error {
	tracer := otel.Tracer("usecase")
	ctx, span := tracer.Start(ctx, "SearchSceneUseCase.Execute")
	defer span.End()

	totalTimer := time.Now()

	var msg entity.SceneSearchMessage
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		uc.logger.Error("failed to unmarshal message", zap.Error(err), zap.ByteString("body", rawMsg))
		_ = uc.dlq.PublishToDLQ(ctx, rawMsg, "unmarshal_error: "+err.Error())
		return nil
	}

	span.SetAttributes(
		attribute.String("job.id", msg.JobID.String()),
		attribute.String("job.mode", string(msg.Mode)),
		attribute.String("job.query", msg.Query),
	)

	log := uc.logger.With(
		zap.String("job_id", msg.JobID.String()),
		zap.String("mode", string(msg.Mode)),
		zap.String("query", msg.Query),
	)

	job, err := uc.repo.FindByID(ctx, msg.JobID)
	if err != nil {
		job = entity.NewSearchJob(msg.UserID, msg.Mode, msg.Query, uc.maxRetry)
		job.ID = msg.JobID
		job.VideoKey = msg.VideoKey
		job.CaptionsKey = msg.CaptionsKey
		job.Threshold = uc.effectiveThreshold(msg)
		if err := uc.repo.Create(ctx, job); err != nil {
			log.Error("failed to create job record", zap.Error(err))
			return fmt.Errorf("create job: %w", err)
		}
	}

	if !job.CanRetry() {
		log.Warn("job exhausted retries, sending to DLQ")
		_ = uc.handlePermanentFailure(ctx, job, msg, rawMsg, "max retries exceeded")
		return nil
	}

	job.MarkProcessing()
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to PROCESSING", zap.Error(err))
		return fmt.Errorf("update job: %w", err)
	}

	metrics.ActiveWorkers.Inc()
	defer metrics.ActiveWorkers.Dec()

	switch msg.Mode {
	case entity.SearchModeVideo:
		err = uc.runVideoSearch(ctx, job, msg, rawMsg, log)
	case entity.SearchModeCaptions:
		err = uc.runCaptionSearch(ctx, job, msg, rawMsg, log)
	default:
		log.Error("unknown search mode, sending to DLQ")
		_ = uc.handlePermanentFailure(ctx, job, msg, rawMsg, "unknown search mode: "+string(msg.Mode))
		return nil
	}
	if err != nil {
		return err
	}

	metrics.SearchesProcessedTotal.WithLabelValues("completed").Inc()
	metrics.SearchDuration.WithLabelValues("total").Observe(time.Since(totalTimer).Seconds())

	return nil
}

func (uc *SearchSceneUseCase) effectiveThreshold(msg entity.SceneSearchMessage) int {
	if msg.Threshold > 0 {
		return msg.Threshold
	}
	return uc.threshold
}

func (uc *SearchSceneUseCase) handleRetryableFailure(
	ctx context.Context,
	job *entity.SearchJob,
	msg entity.SceneSearchMessage,
	rawMsg []byte,
	errMsg string,
	log *zap.Logger,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	if !job.CanRetry() {
		return uc.handlePermanentFailure(ctx, job, msg, rawMsg, errMsg)
	}

	metrics.RetryTotal.WithLabelValues(strconv.Itoa(job.Attempt)).Inc()
	uc.publishStatus(ctx, job, log)

	return fmt.Errorf("retryable failure (attempt %d/%d): %s", job.Attempt, job.MaxAttempts, errMsg)
}

func (uc *SearchSceneUseCase) handlePermanentFailure(
	ctx context.Context,
	job *entity.SearchJob,
	msg entity.SceneSearchMessage,
	rawMsg []byte,
	errMsg string,
) error {
	job.MarkFailed(errMsg)
	_ = uc.repo.Update(ctx, job)

	_ = uc.dlq.PublishToDLQ(ctx, rawMsg, errMsg)

	uc.publishStatus(ctx, job, uc.logger)

	metrics.SearchesProcessedTotal.WithLabelValues("dlq").Inc()

	if msg.UserEmail != "" {
		_ = uc.notifier.NotifyFailure(ctx, msg.UserEmail, job.ID.String(), job.Query, errMsg)
	}

	return nil
}

func (uc *SearchSceneUseCase) publishStatus(ctx context.Context, job *entity.SearchJob, log *zap.Logger) {
	statusMsg := entity.SearchStatusMessage{
		JobID:        job.ID,
		UserID:       job.UserID,
		Mode:         job.Mode,
		Status:       job.Status,
		Query:        job.Query,
		CollageKey:   job.CollageKey,
		FramesKey:    job.FramesKey,
		SceneCount:   job.SceneCount,
		Duration:     job.VideoDuration,
		ErrorMessage: job.ErrorMessage,
		Attempt:      job.Attempt,
		MaxAttempts:  job.MaxAttempts,
	}
	data, _ := json.Marshal(statusMsg)
	if err := uc.publisher.PublishStatus(ctx, data); err != nil {
		log.Error("failed to publish status", zap.Error(err))
	}
}

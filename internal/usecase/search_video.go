package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/Lirazgabbay/Video-search-engine/internal/domain/entity"
	"github.com/Lirazgabbay/Video-search-engine/internal/infra/metrics"
	"github.com/Lirazgabbay/Video-search-engine/internal/timecode"
)

// runVideoSearch is the model-driven path: the video model proposes
// time codes for the query, which are parsed, extracted, and tiled
// into a collage.
func (uc *SearchSceneUseCase) runVideoSearch(
	ctx context.Context,
	job *entity.SearchJob,
	msg entity.SceneSearchMessage,
	rawMsg []byte,
	log *zap.Logger,
) error {
	tracer := otel.Tracer("usecase")

	workDir := filepath.Join(uc.tempDir, job.ID.String())
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return fmt.Errorf("create workdir: %w", err)
	}
	defer os.RemoveAll(workDir)

	// Download video
	dlStart := time.Now()
	ctx2, spanDl := tracer.Start(ctx, "download_video")
	videoPath := filepath.Join(workDir, "input.mp4")
	if err := uc.storage.DownloadObject(ctx2, msg.VideoKey, videoPath); err != nil {
		spanDl.End()
		log.Error("failed to download video", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "download_video: "+err.Error(), log)
	}
	spanDl.End()
	metrics.SearchDuration.WithLabelValues("download").Observe(time.Since(dlStart).Seconds())

	// Probe duration for the model's bound
	info, err := uc.extractor.Probe(ctx, videoPath)
	if err != nil {
		log.Error("failed to probe video", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "probe_video: "+err.Error(), log)
	}

	// Ask the video model for scene time codes
	locStart := time.Now()
	ctx3, spanLoc := tracer.Start(ctx, "locate_scenes")
	rawTimecodes, err := uc.locator.LocateScenes(ctx3, videoPath, msg.Query, info.Duration)
	if err != nil {
		spanLoc.End()
		log.Error("scene location failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "locate_scenes: "+err.Error(), log)
	}
	spanLoc.End()
	metrics.SearchDuration.WithLabelValues("locate").Observe(time.Since(locStart).Seconds())

	// The model's time codes are untrusted; parse each one and skip
	// the unparseable with a diagnostic.
	offsets := make([]float64, 0, len(rawTimecodes))
	for _, code := range rawTimecodes {
		offset, err := timecode.Parse(code)
		if err != nil {
			var perr *timecode.ParseError
			if errors.As(err, &perr) {
				log.Warn("unparseable time code from model, skipping", zap.String("code", code))
				metrics.OffsetsSkippedTotal.Inc()
				continue
			}
			return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "parse_timecode: "+err.Error(), log)
		}
		offsets = append(offsets, offset)
	}

	// Extract one frame per offset
	exStart := time.Now()
	ctx4, spanEx := tracer.Start(ctx, "extract_frames")
	framesDir := filepath.Join(workDir, "frames")
	result, err := uc.extractor.ExtractFrames(ctx4, videoPath, framesDir, offsets)
	if err != nil {
		spanEx.End()
		log.Error("frame extraction failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "extract_frames: "+err.Error(), log)
	}
	spanEx.End()
	metrics.SearchDuration.WithLabelValues("extract").Observe(time.Since(exStart).Seconds())
	metrics.FramesExtractedTotal.Add(float64(len(result.Frames)))
	metrics.OffsetsSkippedTotal.Add(float64(len(result.Skipped)))

	framePaths := make([]string, 0, len(result.Frames))
	for _, frame := range result.Frames {
		framePaths = append(framePaths, frame.Path)
	}

	return uc.finishWithCollage(ctx, job, msg, rawMsg, workDir, framePaths, info.Duration, log)
}

// finishWithCollage renders and uploads the collage (plus a zip of the
// source frames), then completes the job. Zero frames is a legitimate
// "no results" outcome: the job completes with no artifacts.
func (uc *SearchSceneUseCase) finishWithCollage(
	ctx context.Context,
	job *entity.SearchJob,
	msg entity.SceneSearchMessage,
	rawMsg []byte,
	workDir string,
	framePaths []string,
	duration float64,
	log *zap.Logger,
) error {
	tracer := otel.Tracer("usecase")

	colStart := time.Now()
	ctx2, spanCol := tracer.Start(ctx, "build_collage")
	collagePath := filepath.Join(workDir, "collage.png")
	written, err := uc.collage.Create(framePaths, collagePath)
	spanCol.End()
	if err != nil {
		log.Error("collage build failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx2, job, msg, rawMsg, "build_collage: "+err.Error(), log)
	}
	metrics.SearchDuration.WithLabelValues("collage").Observe(time.Since(colStart).Seconds())

	if !written {
		log.Info("search produced no scenes, completing with empty result")
		job.MarkCompleted("", "", 0, duration)
		if err := uc.repo.Update(ctx, job); err != nil {
			log.Error("failed to update job to COMPLETED", zap.Error(err))
			return fmt.Errorf("update job completed: %w", err)
		}
		uc.publishStatus(ctx, job, log)
		return nil
	}

	// Zip the frames so the user can fetch them alongside the collage
	zipStart := time.Now()
	ctx3, spanZip := tracer.Start(ctx, "archive_frames")
	framesZipPath := filepath.Join(workDir, "frames.zip")
	if err := uc.archiver.CreateArchive(ctx3, framePaths, framesZipPath); err != nil {
		spanZip.End()
		log.Error("frame archive failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "archive_frames: "+err.Error(), log)
	}
	spanZip.End()
	metrics.SearchDuration.WithLabelValues("archive").Observe(time.Since(zipStart).Seconds())

	// Upload artifacts
	upStart := time.Now()
	ctx4, spanUp := tracer.Start(ctx, "upload_results")
	collageKey := fmt.Sprintf("%s/collage_%s.png", job.UserID, job.ID.String())
	framesKey := fmt.Sprintf("%s/frames_%s.zip", job.UserID, job.ID.String())
	if err := uc.storage.UploadResult(ctx4, collageKey, collagePath, "image/png"); err != nil {
		spanUp.End()
		log.Error("collage upload failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "upload_collage: "+err.Error(), log)
	}
	if err := uc.storage.UploadResult(ctx4, framesKey, framesZipPath, "application/zip"); err != nil {
		spanUp.End()
		log.Error("frames upload failed", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "upload_frames: "+err.Error(), log)
	}
	spanUp.End()
	metrics.SearchDuration.WithLabelValues("upload").Observe(time.Since(upStart).Seconds())

	job.MarkCompleted(collageKey, framesKey, len(framePaths), duration)
	if err := uc.repo.Update(ctx, job); err != nil {
		log.Error("failed to update job to COMPLETED", zap.Error(err))
		return fmt.Errorf("update job completed: %w", err)
	}

	uc.publishStatus(ctx, job, log)

	log.Info("search job completed",
		zap.Int("scene_count", len(framePaths)),
		zap.String("collage_key", collageKey),
		zap.String("frames_key", framesKey),
	)

	return nil
}

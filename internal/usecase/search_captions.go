package usecase

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/Lirazgabbay/Video-search-engine/internal/captions"
	"github.com/Lirazgabbay/Video-search-engine/internal/domain/entity"
	"github.com/Lirazgabbay/Video-search-engine/internal/infra/metrics"
	"github.com/Lirazgabbay/Video-search-engine/internal/match"
)

// runCaptionSearch is the caption-store path: fuzzy-match the query
// against persisted scene captions, fetch the matched scene images,
// and tile them into a collage.
func (uc *SearchSceneUseCase) runCaptionSearch(
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

	// Download the caption store
	dlStart := time.Now()
	ctx2, spanDl := tracer.Start(ctx, "download_captions")
	captionsPath := filepath.Join(workDir, "scene_captions.json")
	if err := uc.storage.DownloadObject(ctx2, msg.CaptionsKey, captionsPath); err != nil {
		spanDl.End()
		log.Error("failed to download caption store", zap.Error(err))
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "download_captions: "+err.Error(), log)
	}
	spanDl.End()
	metrics.SearchDuration.WithLabelValues("download").Observe(time.Since(dlStart).Seconds())

	// A corrupt store is reported but treated as "no matches" rather
	// than failing the job; the store is regenerated upstream, not by
	// retrying here.
	store, err := captions.Load(captionsPath)
	if err != nil {
		var cerr *captions.CorruptError
		if errors.As(err, &cerr) {
			log.Error("caption store corrupt, completing with no matches", zap.Error(err))
			return uc.finishWithCollage(ctx, job, msg, rawMsg, workDir, nil, 0, log)
		}
		return uc.handleRetryableFailure(ctx, job, msg, rawMsg, "load_captions: "+err.Error(), log)
	}

	// Fuzzy-match captions
	matchStart := time.Now()
	_, spanMatch := tracer.Start(ctx, "match_captions")
	sceneIDs := match.Match(msg.Query, store, uc.effectiveThreshold(msg))
	spanMatch.End()
	metrics.SearchDuration.WithLabelValues("match").Observe(time.Since(matchStart).Seconds())
	metrics.ScenesMatchedTotal.Add(float64(len(sceneIDs)))

	log.Info("caption matching finished",
		zap.Int("captions", len(store)),
		zap.Int("matched", len(sceneIDs)),
	)

	// Fetch the matched scene images; a missing image is logged and
	// skipped, the batch continues.
	scStart := time.Now()
	ctx3, spanSc := tracer.Start(ctx, "download_scenes")
	scenesDir := filepath.Join(workDir, "scenes")
	if err := os.MkdirAll(scenesDir, 0755); err != nil {
		spanSc.End()
		return fmt.Errorf("create scenes dir: %w", err)
	}

	imagePaths := make([]string, 0, len(sceneIDs))
	for _, sceneID := range sceneIDs {
		destPath := filepath.Join(scenesDir, sceneFileName(sceneID))
		if err := uc.storage.DownloadObject(ctx3, sceneID, destPath); err != nil {
			log.Warn("could not fetch scene image, skipping",
				zap.String("scene_id", sceneID),
				zap.Error(err),
			)
			continue
		}
		imagePaths = append(imagePaths, destPath)
	}
	spanSc.End()
	metrics.SearchDuration.WithLabelValues("download_scenes").Observe(time.Since(scStart).Seconds())

	return uc.finishWithCollage(ctx, job, msg, rawMsg, workDir, imagePaths, 0, log)
}

// sceneFileName flattens an object key into a local file name. Keys
// under different prefixes can share a basename, so the whole key is
// kept in the name.
func sceneFileName(key string) string {
	return strings.ReplaceAll(strings.Trim(key, "/"), "/", "_")
}

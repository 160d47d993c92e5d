package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Lirazgabbay/Video-search-engine/internal/domain/entity"
)

type SearchJobRepository struct {
	pool *pgxpool.Pool
}

func NewSearchJobRepository(pool *pgxpool.Pool) *SearchJobRepository {
	return &SearchJobRepository{pool: pool}
}

func (r *SearchJobRepository) Create(ctx context.Context, job *entity.SearchJob) error {
	query := `
		INSERT INTO search_jobs (
			id, user_id, mode, video_key, captions_key, query, threshold,
			status, collage_key, frames_key, scene_count, video_duration,
			attempt, max_attempts, error_message,
			created_at, updated_at, completed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)`

	_, err := r.pool.Exec(ctx, query,
		job.ID, job.UserID, string(job.Mode), job.VideoKey, job.CaptionsKey,
		job.Query, job.Threshold, string(job.Status),
		job.CollageKey, job.FramesKey, job.SceneCount, job.VideoDuration,
		job.Attempt, job.MaxAttempts, job.ErrorMessage,
		job.CreatedAt, job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert search job: %w", err)
	}
	return nil
}

func (r *SearchJobRepository) Update(ctx context.Context, job *entity.SearchJob) error {
	query := `
		UPDATE search_jobs SET
			status=$2, collage_key=$3, frames_key=$4, scene_count=$5,
			video_duration=$6, attempt=$7, error_message=$8,
			updated_at=$9, completed_at=$10
		WHERE id=$1`

	_, err := r.pool.Exec(ctx, query,
		job.ID, string(job.Status), job.CollageKey, job.FramesKey,
		job.SceneCount, job.VideoDuration, job.Attempt, job.ErrorMessage,
		job.UpdatedAt, job.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("update search job: %w", err)
	}
	return nil
}

func (r *SearchJobRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.SearchJob, error) {
	query := `
		SELECT id, user_id, mode, video_key, captions_key, query, threshold,
			status, collage_key, frames_key, scene_count, video_duration,
			attempt, max_attempts, error_message,
			created_at, updated_at, completed_at
		FROM search_jobs WHERE id=$1`

	job := &entity.SearchJob{}
	var mode, status string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.UserID, &mode, &job.VideoKey, &job.CaptionsKey,
		&job.Query, &job.Threshold, &status,
		&job.CollageKey, &job.FramesKey, &job.SceneCount, &job.VideoDuration,
		&job.Attempt, &job.MaxAttempts, &job.ErrorMessage,
		&job.CreatedAt, &job.UpdatedAt, &job.CompletedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("find search job by id: %w", err)
	}
	job.Mode = entity.SearchMode(mode)
	job.Status = entity.JobStatus(status)
	return job, nil
}

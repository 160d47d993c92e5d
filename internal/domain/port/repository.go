package port

import (
	"context"

	"github.com/google/uuid"

	"github.com/Lirazgabbay/Video-search-engine/internal/domain/entity"
)

type SearchJobRepository interface {
	Create(ctx context.Context, job *entity.SearchJob) error
	Update(ctx context.Context, job *entity.SearchJob) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.SearchJob, error)
}

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcminio "github.com/testcontainers/testcontainers-go/modules/minio"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcrabbitmq "github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"go.uber.org/zap"

	"github.com/Lirazgabbay/Video-search-engine/internal/collage"
	"github.com/Lirazgabbay/Video-search-engine/internal/domain/entity"
	"github.com/Lirazgabbay/Video-search-engine/internal/infra/email"
	"github.com/Lirazgabbay/Video-search-engine/internal/infra/ffmpeg"
	miniostorage "github.com/Lirazgabbay/Video-search-engine/internal/infra/minio"
	"github.com/Lirazgabbay/Video-search-engine/internal/infra/postgres"
	"github.com/Lirazgabbay/Video-search-engine/internal/infra/rabbitmq"
	"github.com/Lirazgabbay/Video-search-engine/internal/usecase"
)

// nopLocator satisfies port.SceneLocator; the caption path never calls
// the video model.
type nopLocator struct{}

func (nopLocator) LocateScenes(_ context.Context, _, _ string, _ float64) ([]string, error) {
	return nil, nil
}

func pngBytes(t *testing.T, c color.Color) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestCaptionSearchEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// Start PostgreSQL container
	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("search_jobs"),
		tcpostgres.WithUsername("search_user"),
		tcpostgres.WithPassword("search_pass"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	defer pgContainer.Terminate(ctx)

	pgConnStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Start RabbitMQ container
	rmqContainer, err := tcrabbitmq.Run(ctx,
		"rabbitmq:3.12-management-alpine",
	)
	require.NoError(t, err)
	defer rmqContainer.Terminate(ctx)

	rmqURL, err := rmqContainer.AmqpURL(ctx)
	require.NoError(t, err)

	// Start MinIO container
	minioContainer, err := tcminio.Run(ctx,
		"minio/minio:latest",
		tcminio.WithUsername("minioadmin"),
		tcminio.WithPassword("minioadmin"),
	)
	require.NoError(t, err)
	defer minioContainer.Terminate(ctx)

	minioEndpoint, err := minioContainer.ConnectionString(ctx)
	require.NoError(t, err)

	// Run migrations
	err = postgres.RunMigrations(pgConnStr, "../../migrations")
	require.NoError(t, err)

	// Setup MinIO storage
	storage, err := miniostorage.NewStorage(miniostorage.StorageConfig{
		Endpoint:     minioEndpoint,
		AccessKey:    "minioadmin",
		SecretKey:    "minioadmin",
		UseSSL:       false,
		MediaBucket:  "media",
		ResultBucket: "results",
	})
	require.NoError(t, err)
	require.NoError(t, storage.EnsureBuckets(ctx))

	minioClient, err := miniogo.New(minioEndpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
		Secure: false,
	})
	require.NoError(t, err)

	// Upload scene images and the caption store
	sceneData := pngBytes(t, color.RGBA{255, 0, 0, 255})
	_, err = minioClient.PutObject(ctx, "media", "scenes/scene_1.png",
		bytes.NewReader(sceneData), int64(len(sceneData)),
		miniogo.PutObjectOptions{ContentType: "image/png"})
	require.NoError(t, err)

	captionStore := map[string]string{
		"scenes/scene_1.png": "super mario bros trailer",
		"scenes/scene_2.png": "unrelated cooking video",
	}
	captionJSON, err := json.Marshal(captionStore)
	require.NoError(t, err)
	_, err = minioClient.PutObject(ctx, "media", "testuser/scene_captions.json",
		bytes.NewReader(captionJSON), int64(len(captionJSON)),
		miniogo.PutObjectOptions{ContentType: "application/json"})
	require.NoError(t, err)

	// Setup RabbitMQ publisher connection
	rmqConn, err := amqp.Dial(rmqURL)
	require.NoError(t, err)
	defer rmqConn.Close()

	pub, err := rabbitmq.NewPublisher(rmqConn, "scenesearch")
	require.NoError(t, err)

	statusPub := rabbitmq.NewStatusPublisher(pub)
	dlqPub := rabbitmq.NewDLQPublisher(pub, "scene.search.dlq")

	// Postgres pool and repository
	pool, err := pgxpool.New(ctx, pgConnStr)
	require.NoError(t, err)
	defer pool.Close()

	log := zap.NewNop()
	repo := postgres.NewSearchJobRepository(pool)
	extractor := ffmpeg.NewExtractor("jpg", false, log)
	archiver := ffmpeg.NewFrameArchiver()
	builder := collage.NewBuilder(collage.DefaultWidth, collage.DefaultHeight, log)
	notifier := email.NewSMTPNotifier("localhost", 1025, "noreply@test.local", log)

	uc := usecase.NewSearchSceneUseCase(
		repo, storage, extractor, nopLocator{}, builder, archiver,
		statusPub, dlqPub, notifier,
		log,
		usecase.SearchSceneConfig{
			TempDir:        t.TempDir(),
			MaxRetries:     3,
			MatchThreshold: 60,
		},
	)

	msg := entity.SceneSearchMessage{
		JobID:       uuid.New(),
		UserID:      "testuser",
		Mode:        entity.SearchModeCaptions,
		CaptionsKey: "testuser/scene_captions.json",
		Query:       "mario",
	}
	raw, err := json.Marshal(msg)
	require.NoError(t, err)

	require.NoError(t, uc.Execute(ctx, raw))

	// Job is recorded as completed with one matched scene
	job, err := repo.FindByID(ctx, msg.JobID)
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusCompleted, job.Status)
	assert.Equal(t, 1, job.SceneCount)
	require.NotEmpty(t, job.CollageKey)

	// The collage landed in the results bucket and decodes to the
	// canvas size
	obj, err := minioClient.GetObject(ctx, "results", job.CollageKey, miniogo.GetObjectOptions{})
	require.NoError(t, err)
	defer obj.Close()

	img, err := png.Decode(obj)
	require.NoError(t, err)
	assert.Equal(t, collage.DefaultWidth, img.Bounds().Dx())
	assert.Equal(t, collage.DefaultHeight, img.Bounds().Dy())
}

package port

import "context"

// MediaStorage moves inputs (videos, caption stores, scene images) and
// result artifacts (collages, frame archives) between object storage
// and the local working directory.
type MediaStorage interface {
	DownloadObject(ctx context.Context, objectKey, destPath string) error
	UploadResult(ctx context.Context, objectKey, srcPath, contentType string) error
}

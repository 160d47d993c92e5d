package port

import "context"

// SceneLocator asks the external video-understanding model for the
// timestamps of scenes matching a query. The returned strings are
// untrusted time codes; callers must parse and validate each one.
type SceneLocator interface {
	LocateScenes(ctx context.Context, videoPath, query string, duration float64) ([]string, error)
}

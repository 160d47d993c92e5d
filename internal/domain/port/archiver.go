package port

import "context"

// Archiver bundles extracted frames into a single downloadable file.
type Archiver interface {
	CreateArchive(ctx context.Context, filePaths []string, outputPath string) error
}

// CollageBuilder composites result images into one canvas. The boolean
// reports whether a file was written; an empty input writes nothing.
type CollageBuilder interface {
	Create(imagePaths []string, outputPath string) (bool, error)
}

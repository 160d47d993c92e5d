package port

import "context"

// MediaInfo is the container metadata needed before extraction.
type MediaInfo struct {
	FrameRate float64
	Duration  float64
}

// FrameRecord describes one successfully extracted frame.
type FrameRecord struct {
	Offset float64
	Index  int
	Path   string
}

// SkippedOffset is the diagnostic for an offset that produced no frame.
type SkippedOffset struct {
	Offset float64
	Reason string
}

type ExtractResult struct {
	Frames    []FrameRecord
	Skipped   []SkippedOffset
	FrameRate float64
	Duration  float64
}

// FrameExtractor pulls single frames out of a video at second offsets.
// A bad offset is reported in Skipped and never aborts the batch;
// errors are reserved for whole-batch failures such as an unreadable
// source.
type FrameExtractor interface {
	Probe(ctx context.Context, videoPath string) (*MediaInfo, error)
	ExtractFrames(ctx context.Context, videoPath, outputDir string, offsets []float64) (*ExtractResult, error)
}

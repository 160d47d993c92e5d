package ffmpeg

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseFrameRate(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"25/1", 25},
		{"30000/1001", 29.97002997002997},
		{"24", 24},
		{" 60/1 ", 60},
	}
	for _, tt := range tests {
		got, err := parseFrameRate(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.InDelta(t, tt.want, got, 1e-9, tt.raw)
	}

	for _, raw := range []string{"", "abc", "30/0", "30/x"} {
		_, err := parseFrameRate(raw)
		assert.Error(t, err, raw)
	}
}

func TestFrameIndexRoundsToNearest(t *testing.T) {
	assert.Equal(t, 0, frameIndex(0, 25))
	assert.Equal(t, 250, frameIndex(10, 25))
	assert.Equal(t, 251, frameIndex(10.04, 25))
	assert.Equal(t, 303, frameIndex(10.105, 30))
}

func TestClampOffsetBounds(t *testing.T) {
	assert.InDelta(t, 0.0, clampOffset(-3, 10, 25), 1e-9)
	assert.InDelta(t, 2.5, clampOffset(2.5, 10, 25), 1e-9)

	// Past the end snaps to where the last frame starts, not to the
	// duration, which has no frame behind it.
	assert.InDelta(t, 10-1.0/25, clampOffset(500, 10, 25), 1e-9)
	assert.InDelta(t, 10-1.0/25, clampOffset(10, 10, 25), 1e-9)

	// Degenerate clip shorter than one frame interval.
	assert.InDelta(t, 0.0, clampOffset(5, 0.02, 25), 1e-9)
}

func TestFrameFilenameDeterministic(t *testing.T) {
	assert.Equal(t, "frame_10s.jpg", frameFilename(10.105, "jpg"))
	assert.Equal(t, "frame_10s.jpg", frameFilename(10.9, "jpg"))
	assert.Equal(t, "frame_0s.png", frameFilename(0.4, "png"))

	// Same offset, same name, across runs.
	assert.Equal(t, frameFilename(23.77, "jpg"), frameFilename(23.77, "jpg"))
}

func TestProbeMissingSource(t *testing.T) {
	e := NewExtractor("jpg", false, zap.NewNop())

	_, err := e.Probe(context.Background(), filepath.Join(t.TempDir(), "missing.mp4"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSourceNotFound))
}

func TestExtractFramesMissingSource(t *testing.T) {
	e := NewExtractor("jpg", false, zap.NewNop())

	_, err := e.ExtractFrames(context.Background(), "/does/not/exist.mp4", t.TempDir(), []float64{1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSourceNotFound))
}

// End-to-end extraction against a synthesized clip; requires ffmpeg on
// the PATH.
func TestExtractFramesBatch(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not available")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not available")
	}

	dir := t.TempDir()
	videoPath := filepath.Join(dir, "test.mp4")

	gen := exec.Command("ffmpeg",
		"-f", "lavfi", "-i", "testsrc=duration=4:size=320x240:rate=10",
		"-pix_fmt", "yuv420p", "-y", videoPath,
	)
	require.NoError(t, gen.Run(), "generate test clip")

	e := NewExtractor("jpg", false, zap.NewNop())
	outDir := filepath.Join(dir, "frames")

	// One valid offset, one far out of range: exactly one record and
	// one diagnostic, no batch error.
	result, err := e.ExtractFrames(context.Background(), videoPath, outDir, []float64{1.5, 500})
	require.NoError(t, err)

	require.Len(t, result.Frames, 1)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, 500.0, result.Skipped[0].Offset)
	assert.Equal(t, filepath.Join(outDir, "frame_1s.jpg"), result.Frames[0].Path)
	assert.FileExists(t, result.Frames[0].Path)

	// Re-running produces the same filenames.
	again, err := e.ExtractFrames(context.Background(), videoPath, outDir, []float64{1.5})
	require.NoError(t, err)
	require.Len(t, again.Frames, 1)
	assert.Equal(t, result.Frames[0].Path, again.Frames[0].Path)
}

func TestExtractFramesClampsWhenConfigured(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not available")
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skip("ffprobe not available")
	}

	dir := t.TempDir()
	videoPath := filepath.Join(dir, "test.mp4")

	gen := exec.Command("ffmpeg",
		"-f", "lavfi", "-i", "testsrc=duration=2:size=320x240:rate=10",
		"-pix_fmt", "yuv420p", "-y", videoPath,
	)
	require.NoError(t, gen.Run(), "generate test clip")

	e := NewExtractor("jpg", true, zap.NewNop())

	// Both bounds: a negative offset decodes the first frame and an
	// over-duration offset decodes the last one rather than skipping.
	result, err := e.ExtractFrames(context.Background(), videoPath, filepath.Join(dir, "frames"), []float64{-3, 500})
	require.NoError(t, err)
	require.Len(t, result.Frames, 2)
	assert.Empty(t, result.Skipped)

	assert.Equal(t, 0.0, result.Frames[0].Offset)
	assert.FileExists(t, result.Frames[0].Path)

	assert.InDelta(t, result.Duration-0.1, result.Frames[1].Offset, 1e-9)
	assert.FileExists(t, result.Frames[1].Path)
}

func TestDecodeFrameFailureLeavesNoFile(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skip("ffmpeg not available")
	}

	dir := t.TempDir()
	badVideo := filepath.Join(dir, "not_a_video.mp4")
	require.NoError(t, os.WriteFile(badVideo, []byte("junk"), 0644))

	e := NewExtractor("jpg", false, zap.NewNop())
	outPath := filepath.Join(dir, "frame_0s.jpg")

	err := e.decodeFrame(context.Background(), badVideo, 0, 25, outPath)
	require.Error(t, err)
	assert.NoFileExists(t, outPath)
}

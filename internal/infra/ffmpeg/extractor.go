package ffmpeg

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/Lirazgabbay/Video-search-engine/internal/domain/port"
)

var (
	ErrSourceNotFound   = errors.New("video source not found")
	ErrSourceUnreadable = errors.New("video source unreadable")
)

// Extractor pulls single frames from a video with ffmpeg, one
// invocation per offset so that a bad offset never poisons the batch.
type Extractor struct {
	format       string
	clampOffsets bool
	logger       *zap.Logger
}

// NewExtractor builds an extractor writing frames in the given image
// format ("jpg", "png"). When clampOffsets is true, out-of-range
// offsets are snapped to the nearest decodable frame instead of
// skipped.
func NewExtractor(format string, clampOffsets bool, logger *zap.Logger) *Extractor {
	if format == "" {
		format = "jpg"
	}
	return &Extractor{format: format, clampOffsets: clampOffsets, logger: logger}
}

// probeOutput mirrors the ffprobe JSON structure.
type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		RFrameRate string `json:"r_frame_rate"`
	} `json:"streams"`
}

// Probe reads the frame rate and duration of the first video stream.
func (e *Extractor) Probe(ctx context.Context, videoPath string) (*port.MediaInfo, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, videoPath)
	}

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=r_frame_rate:format=duration",
		"-of", "json",
		videoPath,
	)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%w: ffprobe: %v", ErrSourceUnreadable, err)
	}

	var probe probeOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		return nil, fmt.Errorf("%w: ffprobe output: %v", ErrSourceUnreadable, err)
	}
	if len(probe.Streams) == 0 {
		return nil, fmt.Errorf("%w: no video stream", ErrSourceUnreadable)
	}

	fps, err := parseFrameRate(probe.Streams[0].RFrameRate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnreadable, err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(probe.Format.Duration), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: parse duration: %v", ErrSourceUnreadable, err)
	}

	return &port.MediaInfo{FrameRate: fps, Duration: duration}, nil
}

// ExtractFrames decodes one frame per offset into outputDir, creating
// it if absent. Filenames are a deterministic function of the offset,
// so re-running with the same offsets overwrites the same files.
func (e *Extractor) ExtractFrames(ctx context.Context, videoPath, outputDir string, offsets []float64) (*port.ExtractResult, error) {
	info, err := e.Probe(ctx, videoPath)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	result := &port.ExtractResult{
		FrameRate: info.FrameRate,
		Duration:  info.Duration,
	}

	for _, offset := range offsets {
		target := offset
		if target < 0 || target > info.Duration {
			if !e.clampOffsets {
				e.logger.Warn("offset outside video duration, skipping",
					zap.Float64("offset", offset),
					zap.Float64("duration", info.Duration),
				)
				result.Skipped = append(result.Skipped, port.SkippedOffset{
					Offset: offset,
					Reason: fmt.Sprintf("outside video duration %.3fs", info.Duration),
				})
				continue
			}
			target = clampOffset(target, info.Duration, info.FrameRate)
		}

		index := frameIndex(target, info.FrameRate)
		outPath := filepath.Join(outputDir, frameFilename(target, e.format))

		if err := e.decodeFrame(ctx, videoPath, index, info.FrameRate, outPath); err != nil {
			e.logger.Warn("could not extract frame, skipping",
				zap.Float64("offset", offset),
				zap.Int("frame_index", index),
				zap.Error(err),
			)
			result.Skipped = append(result.Skipped, port.SkippedOffset{
				Offset: offset,
				Reason: err.Error(),
			})
			continue
		}

		result.Frames = append(result.Frames, port.FrameRecord{
			Offset: target,
			Index:  index,
			Path:   outPath,
		})
	}

	e.logger.Info("frames extracted",
		zap.Int("requested", len(offsets)),
		zap.Int("extracted", len(result.Frames)),
		zap.Int("skipped", len(result.Skipped)),
		zap.Float64("video_duration", info.Duration),
	)

	return result, nil
}

// decodeFrame seeks to the exact frame boundary and decodes a single
// frame. ffmpeg can exit zero without writing anything when the seek
// lands past the last decodable frame, so the output file is checked.
func (e *Extractor) decodeFrame(ctx context.Context, videoPath string, index int, fps float64, outPath string) error {
	seek := float64(index) / fps

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-ss", strconv.FormatFloat(seek, 'f', 6, 64),
		"-i", videoPath,
		"-frames:v", "1",
		"-q:v", "2",
		"-y",
		outPath,
	)

	if output, err := cmd.CombinedOutput(); err != nil {
		os.Remove(outPath)
		return fmt.Errorf("ffmpeg decode: %w, output: %s", err, string(output))
	}

	if st, err := os.Stat(outPath); err != nil || st.Size() == 0 {
		os.Remove(outPath)
		return errors.New("no frame decoded at offset")
	}
	return nil
}

// clampOffset snaps an out-of-range offset to the nearest decodable
// position. The last frame starts one frame interval before the end of
// the container, so the upper bound is duration - 1/fps, not the
// duration itself.
func clampOffset(offset, duration, fps float64) float64 {
	last := duration - 1/fps
	if last < 0 {
		last = 0
	}
	return math.Min(math.Max(offset, 0), last)
}

// parseFrameRate converts ffprobe's rational frame rate ("30000/1001",
// "25/1") into frames per second.
func parseFrameRate(raw string) (float64, error) {
	num, den, found := strings.Cut(strings.TrimSpace(raw), "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("parse frame rate %q: %w", raw, err)
	}
	if !found {
		return n, nil
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0, fmt.Errorf("parse frame rate %q: bad denominator", raw)
	}
	return n / d, nil
}

// frameIndex maps a second offset to the nearest frame number.
func frameIndex(offset, fps float64) int {
	return int(math.Round(offset * fps))
}

// frameFilename truncates the offset to whole seconds; the name is the
// idempotency key for repeated extractions.
func frameFilename(offset float64, format string) string {
	return fmt.Sprintf("frame_%ds.%s", int(offset), format)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Lirazgabbay/Video-search-engine/internal/collage"
	"github.com/Lirazgabbay/Video-search-engine/internal/gemini"
	"github.com/Lirazgabbay/Video-search-engine/internal/infra/ffmpeg"
	"github.com/Lirazgabbay/Video-search-engine/internal/timecode"
)

var videoCmd = &cobra.Command{
	Use:   "video <video-file>",
	Short: "Search a video with the Gemini video model",
	Long: `Uploads the video to the Gemini Files API, asks the model for the
timestamps of scenes matching the query, extracts one frame per
timestamp, and tiles the frames into a collage.`,
	Args: cobra.ExactArgs(1),
	RunE: runVideoSearch,
}

var (
	videoQuery    string
	framesDir     string
	collageOut    string
	frameFormat   string
	clampOffsets  bool
	collageWidth  int
	collageHeight int
	geminiModel   string
	maxPolls      int
	pollSeconds   int
)

func init() {
	videoCmd.Flags().StringVarP(&videoQuery, "query", "q", "", "what to look for in the video (required)")
	videoCmd.Flags().StringVar(&framesDir, "frames-dir", "extracted_images", "directory for extracted frames")
	videoCmd.Flags().StringVarP(&collageOut, "output", "o", collage.DefaultOutputFile, "collage output path")
	videoCmd.Flags().StringVar(&frameFormat, "format", "jpg", "extracted frame image format")
	videoCmd.Flags().BoolVar(&clampOffsets, "clamp", false, "clamp out-of-range timestamps instead of skipping them")
	videoCmd.Flags().IntVar(&collageWidth, "width", collage.DefaultWidth, "collage width in pixels")
	videoCmd.Flags().IntVar(&collageHeight, "height", collage.DefaultHeight, "collage height in pixels")
	videoCmd.Flags().StringVar(&geminiModel, "model", "gemini-1.5-pro", "Gemini model name")
	videoCmd.Flags().IntVar(&maxPolls, "max-polls", 10, "maximum file-state polls before giving up")
	videoCmd.Flags().IntVar(&pollSeconds, "poll-interval", 15, "seconds between file-state polls")
	_ = videoCmd.MarkFlagRequired("query")

	rootCmd.AddCommand(videoCmd)
}

func runVideoSearch(cmd *cobra.Command, args []string) error {
	videoPath := args[0]
	if _, err := os.Stat(videoPath); err != nil {
		return fmt.Errorf("video not found: %s", videoPath)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	locator, err := gemini.NewLocator(ctx, gemini.Config{
		APIKey:       os.Getenv("GEMINI_API_KEY"),
		Model:        geminiModel,
		MaxPolls:     maxPolls,
		PollInterval: time.Duration(pollSeconds) * time.Second,
	}, log)
	if err != nil {
		return err
	}
	defer locator.Close()

	extractor := ffmpeg.NewExtractor(frameFormat, clampOffsets, log)

	info, err := extractor.Probe(ctx, videoPath)
	if err != nil {
		return err
	}

	rawTimecodes, err := locator.LocateScenes(ctx, videoPath, videoQuery, info.Duration)
	if err != nil {
		return err
	}

	offsets := make([]float64, 0, len(rawTimecodes))
	for _, code := range rawTimecodes {
		offset, err := timecode.Parse(code)
		if err != nil {
			var perr *timecode.ParseError
			if errors.As(err, &perr) {
				log.Warn("skipping unparseable time code", zap.String("code", code))
				continue
			}
			return err
		}
		offsets = append(offsets, offset)
	}

	result, err := extractor.ExtractFrames(ctx, videoPath, framesDir, offsets)
	if err != nil {
		return err
	}
	for _, skipped := range result.Skipped {
		log.Warn("frame skipped",
			zap.Float64("offset", skipped.Offset),
			zap.String("reason", skipped.Reason),
		)
	}

	framePaths := make([]string, 0, len(result.Frames))
	for _, frame := range result.Frames {
		framePaths = append(framePaths, frame.Path)
	}

	builder := collage.NewBuilder(collageWidth, collageHeight, log)
	written, err := builder.Create(framePaths, collageOut)
	if err != nil {
		return err
	}
	if !written {
		fmt.Println("No scenes found for the given query.")
		return nil
	}

	fmt.Printf("Collage created and saved to %s\n", collageOut)
	return nil
}

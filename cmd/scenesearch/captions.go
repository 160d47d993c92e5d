package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Lirazgabbay/Video-search-engine/internal/captions"
	"github.com/Lirazgabbay/Video-search-engine/internal/collage"
	"github.com/Lirazgabbay/Video-search-engine/internal/match"
)

var captionsCmd = &cobra.Command{
	Use:   "captions <caption-store.json>",
	Short: "Search scene captions with fuzzy matching",
	Long: `Fuzzy-matches the query against a JSON caption store (scene image
path -> caption text) and tiles the matched scene images into a
collage. Scores are partial-ratio similarity in the 0-100 range.`,
	Args: cobra.ExactArgs(1),
	RunE: runCaptionSearch,
}

var (
	captionQuery     string
	matchThreshold   int
	scenesDir        string
	captionsOut      string
	captionsWidth    int
	captionsHeight   int
	listCaptionWords bool
)

func init() {
	captionsCmd.Flags().StringVarP(&captionQuery, "query", "q", "", "word or phrase to search for")
	captionsCmd.Flags().IntVarP(&matchThreshold, "threshold", "t", match.DefaultThreshold, "minimum similarity score (0-100)")
	captionsCmd.Flags().StringVar(&scenesDir, "scenes-dir", "", "directory to resolve relative scene paths against")
	captionsCmd.Flags().StringVarP(&captionsOut, "output", "o", collage.DefaultOutputFile, "collage output path")
	captionsCmd.Flags().IntVar(&captionsWidth, "width", collage.DefaultWidth, "collage width in pixels")
	captionsCmd.Flags().IntVar(&captionsHeight, "height", collage.DefaultHeight, "collage height in pixels")
	captionsCmd.Flags().BoolVar(&listCaptionWords, "words", false, "print the caption vocabulary and exit")

	rootCmd.AddCommand(captionsCmd)
}

func runCaptionSearch(cmd *cobra.Command, args []string) error {
	store, err := captions.Load(args[0])
	if err != nil {
		return err
	}

	if listCaptionWords {
		for _, w := range store.Words() {
			fmt.Println(w)
		}
		return nil
	}

	if captionQuery == "" {
		return fmt.Errorf("--query is required")
	}

	results := match.Ranked(captionQuery, store, matchThreshold)

	imagePaths := make([]string, 0, len(results))
	for _, r := range results {
		log.Debug("caption matched",
			zap.String("scene", r.SceneID),
			zap.Int("score", r.Score),
		)
		p := r.SceneID
		if scenesDir != "" && !filepath.IsAbs(p) {
			p = filepath.Join(scenesDir, p)
		}
		imagePaths = append(imagePaths, p)
	}

	builder := collage.NewBuilder(captionsWidth, captionsHeight, log)
	written, err := builder.Create(imagePaths, captionsOut)
	if err != nil {
		return err
	}
	if !written {
		fmt.Println("No images found for the given search term.")
		return nil
	}

	fmt.Printf("Collage created and saved to %s\n", captionsOut)
	return nil
}

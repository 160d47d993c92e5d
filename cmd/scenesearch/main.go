// Command scenesearch runs one-shot scene searches against local
// files: either asking the Gemini video model for matching scenes in a
// video, or fuzzy-matching a caption store produced by an earlier
// captioning pass. Both paths end in a collage image.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Lirazgabbay/Video-search-engine/pkg/logger"
)

var (
	verbose bool
	log     *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "scenesearch",
	Short: "Find scenes in a video matching a query and build a collage",
	Long: `Scenesearch locates scenes inside a video that match a natural-language
query and assembles representative frames into a single collage image.

The "video" command asks the Gemini video model for matching scene
timestamps; the "captions" command fuzzy-matches a persisted caption
store instead.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; real environments set variables directly.
		_ = godotenv.Load()

		level := "info"
		if verbose {
			level = "debug"
		}
		var err error
		log, err = logger.New(level)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

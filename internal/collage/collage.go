// Package collage tiles a set of images into a single fixed-size
// composite for quick visual review of search results.
package collage

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/image/draw"
)

const (
	DefaultWidth  = 800
	DefaultHeight = 600

	// DefaultOutputFile is overwritten on every run; collages are not
	// versioned.
	DefaultOutputFile = "collage.png"
)

var background = color.RGBA{255, 255, 255, 255}

// Builder composites images onto a fixed-size canvas.
type Builder struct {
	width  int
	height int
	logger *zap.Logger
}

func NewBuilder(width, height int, logger *zap.Logger) *Builder {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return &Builder{width: width, height: height, logger: logger}
}

// Grid returns the column and row counts for n tiles. The column count
// deliberately over-provisions relative to a balanced square so that
// rows*cols >= n holds for every n >= 1; it depends on n alone.
func Grid(n int) (cols, rows int) {
	if n <= 0 {
		return 0, 0
	}
	if n == 1 {
		cols = 1
	} else {
		cols = int(math.Sqrt(float64(n))) + 1
	}
	rows = n / cols
	if n%cols != 0 {
		rows++
	}
	return cols, rows
}

// Compose renders the images, in input order, onto a white canvas.
// Every tile is force-resized to the uniform cell size; distortion is
// an accepted tradeoff for uniform packing. Returns nil for an empty
// input. When rounding makes rows*cols overshoot the canvas the final
// row is clipped off-canvas; that quirk is part of the output contract
// and is kept.
func (b *Builder) Compose(imagePaths []string) (image.Image, error) {
	if len(imagePaths) == 0 {
		return nil, nil
	}

	tiles := make([]image.Image, 0, len(imagePaths))
	for _, p := range imagePaths {
		img, err := decode(p)
		if err != nil {
			return nil, err
		}
		tiles = append(tiles, img)
	}

	cols, rows := Grid(len(tiles))
	thumbW := b.width / cols
	thumbH := b.height / rows

	canvas := image.NewRGBA(image.Rect(0, 0, b.width, b.height))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{background}, image.Point{}, draw.Src)

	xOffset, yOffset := 0, 0
	for _, tile := range tiles {
		cell := image.Rect(xOffset, yOffset, xOffset+thumbW, yOffset+thumbH)
		draw.BiLinear.Scale(canvas, cell, tile, tile.Bounds(), draw.Src, nil)

		xOffset += thumbW
		if xOffset >= b.width {
			xOffset = 0
			yOffset += thumbH
		}
	}

	return canvas, nil
}

// Create composes the images and writes the result to outputPath,
// overwriting any previous collage. An empty input produces no file
// and no error; the boolean reports whether a file was written.
func (b *Builder) Create(imagePaths []string, outputPath string) (bool, error) {
	img, err := b.Compose(imagePaths)
	if err != nil {
		return false, err
	}
	if img == nil {
		b.logger.Info("no images to collage, skipping output", zap.String("output", outputPath))
		return false, nil
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return false, fmt.Errorf("create collage file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(outputPath)) {
	case ".jpg", ".jpeg":
		err = jpeg.Encode(f, img, &jpeg.Options{Quality: 90})
	default:
		err = png.Encode(f, img)
	}
	if err != nil {
		return false, fmt.Errorf("encode collage: %w", err)
	}

	b.logger.Info("collage created",
		zap.String("output", outputPath),
		zap.Int("images", len(imagePaths)),
	)
	return true, nil
}

func decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", path, err)
	}
	return img, nil
}

package collage

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestGrid(t *testing.T) {
	tests := []struct {
		n, cols, rows int
	}{
		{1, 1, 1},
		{2, 2, 1},
		{3, 2, 2},
		{4, 3, 2},
		{5, 3, 2},
		{6, 3, 2},
		{7, 3, 3},
		{9, 4, 3},
		{10, 4, 3},
		{16, 5, 4},
	}

	for _, tt := range tests {
		cols, rows := Grid(tt.n)
		assert.Equal(t, tt.cols, cols, "n=%d cols", tt.n)
		assert.Equal(t, tt.rows, rows, "n=%d rows", tt.n)
		assert.GreaterOrEqual(t, rows*cols, tt.n, "n=%d capacity", tt.n)
	}
}

func TestGridCoversAllCounts(t *testing.T) {
	for n := 1; n <= 200; n++ {
		cols, rows := Grid(n)
		require.GreaterOrEqual(t, rows*cols, n, "n=%d", n)
	}
}

func writeTestImage(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestCreateEmptyInputIsNoOp(t *testing.T) {
	out := filepath.Join(t.TempDir(), "collage.png")

	written, err := NewBuilder(DefaultWidth, DefaultHeight, zap.NewNop()).Create(nil, out)
	require.NoError(t, err)
	assert.False(t, written)
	assert.NoFileExists(t, out)
}

func TestCreateWritesCanvasSizedOutput(t *testing.T) {
	dir := t.TempDir()

	var paths []string
	colors := []color.Color{
		color.RGBA{255, 0, 0, 255},
		color.RGBA{0, 255, 0, 255},
		color.RGBA{0, 0, 255, 255},
	}
	for i, c := range colors {
		p := filepath.Join(dir, "tile"+string(rune('a'+i))+".png")
		writeTestImage(t, p, 64+i*10, 48, c)
		paths = append(paths, p)
	}

	out := filepath.Join(dir, "collage.png")
	written, err := NewBuilder(DefaultWidth, DefaultHeight, zap.NewNop()).Create(paths, out)
	require.NoError(t, err)
	assert.True(t, written)

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, DefaultWidth, img.Bounds().Dx())
	assert.Equal(t, DefaultHeight, img.Bounds().Dy())
}

func TestCreateOverwritesPreviousCollage(t *testing.T) {
	dir := t.TempDir()

	red := filepath.Join(dir, "red.png")
	writeTestImage(t, red, 32, 32, color.RGBA{255, 0, 0, 255})

	out := filepath.Join(dir, "collage.png")
	b := NewBuilder(200, 150, zap.NewNop())

	_, err := b.Create([]string{red}, out)
	require.NoError(t, err)
	first, err := os.Stat(out)
	require.NoError(t, err)

	_, err = b.Create([]string{red, red}, out)
	require.NoError(t, err)
	second, err := os.Stat(out)
	require.NoError(t, err)

	// Same fixed name, fresh content.
	assert.Equal(t, first.Name(), second.Name())
}

func TestComposePlacesTilesRowMajor(t *testing.T) {
	dir := t.TempDir()

	red := filepath.Join(dir, "red.png")
	green := filepath.Join(dir, "green.png")
	writeTestImage(t, red, 32, 32, color.RGBA{255, 0, 0, 255})
	writeTestImage(t, green, 32, 32, color.RGBA{0, 255, 0, 255})

	img, err := NewBuilder(400, 300, zap.NewNop()).Compose([]string{red, green})
	require.NoError(t, err)

	// Two images: cols=2, rows=1, thumb 200x300.
	r, _, _, _ := img.At(100, 150).RGBA()
	assert.Greater(t, r>>8, uint32(200), "left cell should be red")

	_, g, _, _ := img.At(300, 150).RGBA()
	assert.Greater(t, g>>8, uint32(200), "right cell should be green")
}

func TestCreateUndecodableImageFails(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0644))

	_, err := NewBuilder(DefaultWidth, DefaultHeight, zap.NewNop()).Create([]string{bad}, filepath.Join(dir, "c.png"))
	assert.Error(t, err)
}

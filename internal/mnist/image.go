package mnist

import (
	"errors"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"

	"github.com/gridl/2018-ComputeFest/internal/idx"
)

// DecodePixels reads a PNG or JPEG and resamples it to the 28x28 input
// grid. The corpus stores digits as light ink on a dark background, so
// photos of dark ink on paper need invert.
func DecodePixels(r io.Reader, invert bool) ([]float32, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}
	return PixelsFromImage(img, invert)
}

// PixelsFromImage resamples an image of any size onto the input grid,
// averaging the color channels into a single intensity in [0,1].
func PixelsFromImage(img image.Image, invert bool) ([]float32, error) {
	var bounds = img.Bounds()
	var width = bounds.Dx()
	var height = bounds.Dy()
	if width == 0 || height == 0 {
		return nil, errors.New("mnist: empty image")
	}
	var pixels = make([]float32, idx.ImageBytes)
	var stepX = float64(width) / idx.ImageSize
	var stepY = float64(height) / idx.ImageSize
	for gy := 0; gy < idx.ImageSize; gy++ {
		for gx := 0; gx < idx.ImageSize; gx++ {
			var px = bounds.Min.X + int(math.Min(float64(width-1), float64(gx)*stepX))
			var py = bounds.Min.Y + int(math.Min(float64(height-1), float64(gy)*stepY))
			var r, g, b, _ = img.At(px, py).RGBA()
			var intensity = (float64(r) + float64(g) + float64(b)) / (3 * 65535.0)
			if invert {
				intensity = 1 - intensity
			}
			pixels[gy*idx.ImageSize+gx] = float32(intensity)
		}
	}
	return pixels, nil
}

// Render draws pixels as ASCII art, darker glyphs for brighter pixels.
func Render(pixels []float32) string {
	const ramp = " .:-=+*#%@"
	var out []byte
	for y := 0; y < idx.ImageSize; y++ {
		for x := 0; x < idx.ImageSize; x++ {
			var v = pixels[y*idx.ImageSize+x]
			var i = int(v * float32(len(ramp)))
			if i >= len(ramp) {
				i = len(ramp) - 1
			}
			if i < 0 {
				i = 0
			}
			out = append(out, ramp[i], ramp[i])
		}
		out = append(out, '\n')
	}
	return string(out)
}

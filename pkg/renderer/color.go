package renderer

import (
	"image"
	"image/color"
	"math"

	"github.com/df07/go-weekend-raytracer/pkg/core"
)

// Vec3ToColor converts an averaged linear color to an 8-bit pixel: square-root
// tone curve, clamp to [0,1], then scale by 255 truncating.
func Vec3ToColor(linear core.Vec3) color.RGBA {
	return color.RGBA{
		R: quantize(linear.X),
		G: quantize(linear.Y),
		B: quantize(linear.Z),
		A: 255,
	}
}

func quantize(component float64) uint8 {
	// Negative and NaN components map to black; sqrt of a negative is NaN.
	if !(component > 0) {
		return 0
	}
	return uint8(255 * clampUnit(math.Sqrt(component)))
}

// clampUnit clamps x to [0,1], mapping NaN to 0
func clampUnit(x float64) float64 {
	switch {
	case x > 1:
		return 1
	case x >= 0:
		return x
	default:
		return 0
	}
}

// ToImage quantizes a grid of pixel statistics into an RGBA image
func ToImage(pixelStats [][]PixelStats) *image.RGBA {
	height := len(pixelStats)
	width := 0
	if height > 0 {
		width = len(pixelStats[0])
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for j := 0; j < height; j++ {
		for i := 0; i < width; i++ {
			img.SetRGBA(i, j, Vec3ToColor(pixelStats[j][i].GetColor()))
		}
	}
	return img
}

package quality

import (
	"image"
	"math"
)

// Metrics holds the cheap per-image statistics the gate decides on. All
// values are computed once per candidate and retained even for dropped
// candidates so diagnostics can explain the verdict.
type Metrics struct {
	Brightness  float64 `json:"brightness"`
	Contrast    float64 `json:"contrast"`
	Sharpness   float64 `json:"sharpness"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	AspectRatio float64 `json:"aspect_ratio"`
}

// ComputeMetrics derives luminance, contrast, and sharpness statistics from a
// decoded image. Brightness is the mean grayscale luminance, contrast the
// luminance standard deviation, and sharpness the variance of a 4-neighbour
// Laplacian over the grayscale plane (a high-frequency energy proxy).
func ComputeMetrics(img image.Image) Metrics {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= 0 || height <= 0 {
		return Metrics{Width: width, Height: height}
	}

	gray := grayPlane(img)

	var sum, sumSq float64
	for _, v := range gray {
		sum += v
		sumSq += v * v
	}
	n := float64(len(gray))
	mean := sum / n
	variance := sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}

	aspect := 0.0
	if height > 0 {
		aspect = float64(width) / float64(height)
	}

	return Metrics{
		Brightness:  mean,
		Contrast:    math.Sqrt(variance),
		Sharpness:   laplacianVariance(gray, width, height),
		Width:       width,
		Height:      height,
		AspectRatio: aspect,
	}
}

func grayPlane(img image.Image) []float64 {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	out := make([]float64, 0, width*height)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// ITU-R BT.601 luma from 16-bit channels scaled to 0..255.
			lum := (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 257.0
			out = append(out, lum)
		}
	}
	return out
}

func laplacianVariance(gray []float64, width, height int) float64 {
	if width < 3 || height < 3 {
		return 0
	}
	var sum, sumSq float64
	count := 0
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			idx := y*width + x
			lap := gray[idx-width] + gray[idx+width] + gray[idx-1] + gray[idx+1] - 4*gray[idx]
			sum += lap
			sumSq += lap * lap
			count++
		}
	}
	n := float64(count)
	mean := sum / n
	variance := sumSq/n - mean*mean
	if variance < 0 {
		variance = 0
	}
	return variance
}

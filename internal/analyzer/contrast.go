package analyzer

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

// ContrastDetector flags frames whose Sobel edge density is too low to be a
// screen with anything on it. Decoders landing between keyframes tend to
// hand back such frames.
type ContrastDetector struct {
	EdgeThreshold float64 // Gradient magnitude threshold
	MinEdgeRatio  float64 // Below this share of edge pixels a frame is blank
	SampleWidth   int     // Frames are downsampled to this width first
}

// NewContrastDetector creates a new contrast-based detector with default settings
func NewContrastDetector() *ContrastDetector {
	return &ContrastDetector{
		EdgeThreshold: 30.0,
		MinEdgeRatio:  0.002,
		SampleWidth:   320,
	}
}

func (d *ContrastDetector) Detect(img image.Image) Result {
	sc := samples.get(d.sampleSize(img.Bounds()))
	defer samples.put(sc)

	draw.ApproxBiLinear.Scale(sc.rgba, sc.rgba.Bounds(), img, img.Bounds(), draw.Src, nil)
	toGrayscale(sc.gray, sc.rgba)
	ratio := edgeRatio(sc.gray, d.EdgeThreshold)

	return Result{
		EdgeRatio: ratio,
		Blank:     ratio < d.MinEdgeRatio,
	}
}

// sampleSize scales b down to SampleWidth, keeping the aspect ratio.
func (d *ContrastDetector) sampleSize(b image.Rectangle) image.Point {
	w, h := b.Dx(), b.Dy()
	if d.SampleWidth > 0 && w > d.SampleWidth {
		h = int(math.Max(1, math.Round(float64(h)*float64(d.SampleWidth)/float64(w))))
		w = d.SampleWidth
	}
	return image.Pt(w, h)
}

// toGrayscale fills dst with the luma of src. Both share the same bounds.
func toGrayscale(dst *image.Gray, src *image.RGBA) {
	b := src.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.SetGray(x, y, color.GrayModel.Convert(src.RGBAAt(x, y)).(color.Gray))
		}
	}
}

// edgeRatio applies the Sobel operator and returns the share of interior
// pixels whose gradient magnitude exceeds threshold.
func edgeRatio(gray *image.Gray, threshold float64) float64 {
	bounds := gray.Bounds()

	gx := [3][3]int{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	gy := [3][3]int{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}

	var edges, total int
	for y := bounds.Min.Y + 1; y < bounds.Max.Y-1; y++ {
		for x := bounds.Min.X + 1; x < bounds.Max.X-1; x++ {
			var sumX, sumY float64

			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					pixel := float64(gray.GrayAt(x+kx, y+ky).Y)
					sumX += pixel * float64(gx[ky+1][kx+1])
					sumY += pixel * float64(gy[ky+1][kx+1])
				}
			}

			if math.Sqrt(sumX*sumX+sumY*sumY) > threshold {
				edges++
			}
			total++
		}
	}

	if total == 0 {
		return 0
	}
	return float64(edges) / float64(total)
}

package imaging

import (
	"image"
	"math"
	"sort"
)

// Measurements holds the raw signal measurements behind the quality scores.
type Measurements struct {
	BlurVariance    float64
	ClippedHighPct  float64
	ClippedLowPct   float64
	ClippingPercent float64
	NoiseSigma      float64
}

// Measure computes sharpness, exposure-clipping, and noise estimates over a
// decoded image. The image is sampled on the luma channel; a stride is
// applied on large images to keep measurement cost bounded.
func Measure(img image.Image) Measurements {
	gray := luma(img)
	return Measurements{
		BlurVariance:    laplacianVariance(gray),
		ClippedHighPct:  clippedPercent(gray, func(v uint8) bool { return v >= 255 }),
		ClippedLowPct:   clippedPercent(gray, func(v uint8) bool { return v == 0 }),
		ClippingPercent: clippedPercent(gray, func(v uint8) bool { return v >= 255 || v == 0 }),
		NoiseSigma:      noiseSigma(gray),
	}
}

type grayImage struct {
	pix  []uint8
	w, h int
}

// luma converts to an 8-bit luminance plane, downsampling large images so
// the measurements stay O(1M) pixels regardless of input size.
func luma(img image.Image) grayImage {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	stride := 1
	for (w/stride)*(h/stride) > 1<<20 {
		stride++
	}

	gw, gh := w/stride, h/stride
	if gw < 1 {
		gw = 1
	}
	if gh < 1 {
		gh = 1
	}

	pix := make([]uint8, gw*gh)
	for y := 0; y < gh; y++ {
		for x := 0; x < gw; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x*stride, bounds.Min.Y+y*stride).RGBA()
			// BT.601 luma on 16-bit channels, scaled to 8 bits.
			v := (299*r + 587*g + 114*b) / 1000 >> 8
			pix[y*gw+x] = uint8(v)
		}
	}
	return grayImage{pix: pix, w: gw, h: gh}
}

// laplacianVariance measures edge acuity: the variance of a 4-neighbour
// Laplacian over the luma plane. Sharp images produce strong edge responses
// with high variance; blurred images flatten toward zero.
func laplacianVariance(g grayImage) float64 {
	if g.w < 3 || g.h < 3 {
		return 0
	}

	n := 0
	sum, sumSq := 0.0, 0.0
	for y := 1; y < g.h-1; y++ {
		for x := 1; x < g.w-1; x++ {
			c := int(g.pix[y*g.w+x])
			lap := float64(int(g.pix[(y-1)*g.w+x]) + int(g.pix[(y+1)*g.w+x]) +
				int(g.pix[y*g.w+x-1]) + int(g.pix[y*g.w+x+1]) - 4*c)
			sum += lap
			sumSq += lap * lap
			n++
		}
	}
	mean := sum / float64(n)
	return sumSq/float64(n) - mean*mean
}

func clippedPercent(g grayImage, clipped func(uint8) bool) float64 {
	if len(g.pix) == 0 {
		return 0
	}
	count := 0
	for _, v := range g.pix {
		if clipped(v) {
			count++
		}
	}
	return float64(count) / float64(len(g.pix)) * 100.0
}

// noiseSigma estimates sensor noise as the standard deviation of the
// residual after a 3x3 median filter. Smooth regions should median-filter to
// themselves; what remains is grain.
func noiseSigma(g grayImage) float64 {
	if g.w < 3 || g.h < 3 {
		return 0
	}

	n := 0
	sum, sumSq := 0.0, 0.0
	window := make([]uint8, 0, 9)
	for y := 1; y < g.h-1; y++ {
		for x := 1; x < g.w-1; x++ {
			window = window[:0]
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					window = append(window, g.pix[(y+dy)*g.w+x+dx])
				}
			}
			sort.Slice(window, func(i, j int) bool { return window[i] < window[j] })
			residual := float64(g.pix[y*g.w+x]) - float64(window[4])
			sum += residual
			sumSq += residual * residual
			n++
		}
	}
	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"math"
	"os"

	// Screenshots arrive as PNG; register the decoder.
	_ "image/png"

	xdraw "golang.org/x/image/draw"
)

// Image constraints imposed by vision API providers.
const (
	// MaxImagePixels is the largest pixel count providers accept.
	// Larger images are downscaled uniformly before encoding.
	MaxImagePixels = 33_000_000

	// MaxBase64Size is the largest base64-encoded payload providers
	// accept. Encodings are re-attempted at lower JPEG quality until the
	// estimate fits.
	MaxBase64Size = 20_000_000

	// JPEGQuality is the starting quality for re-encoding.
	JPEGQuality = 90

	// base64Overhead estimates base64 expansion of raw bytes.
	base64Overhead = 1.37

	// qualityStep is subtracted from the quality on each retry.
	qualityStep = 10

	// maxEncodeAttempts bounds the quality-reduction loop. After the last
	// attempt the encoding is returned regardless of size; the provider
	// gets to reject it instead of us failing locally.
	maxEncodeAttempts = 5
)

// PrepareImage loads a screenshot and returns JPEG bytes that satisfy the
// provider's pixel and payload limits. Alpha channels are composited onto a
// white background, oversized images are downscaled with Catmull-Rom
// resampling, and quality degrades stepwise until the estimated base64 size
// fits. Once the file decodes, preparation never fails; it only degrades.
func PrepareImage(path string) ([]byte, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Screenshot path comes from our own run
	if err != nil {
		return nil, fmt.Errorf("cannot read screenshot: %w", err)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("cannot decode screenshot: %w", err)
	}

	rgb := flattenOnWhite(src)
	rgb = downscaleIfNeeded(rgb)

	return encodeToFit(rgb, MaxBase64Size)
}

// encodeToFit encodes the image as JPEG at progressively lower quality until
// the estimated base64 size fits the budget. When the attempt limit is
// reached the last encoding is returned regardless of size; the provider
// gets to reject it instead of us failing locally.
func encodeToFit(img *image.RGBA, budget int) ([]byte, error) {
	quality := JPEGQuality
	var encoded []byte
	for attempt := 0; attempt < maxEncodeAttempts; attempt++ {
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("cannot encode screenshot: %w", err)
		}
		encoded = buf.Bytes()

		if float64(len(encoded))*base64Overhead <= float64(budget) {
			return encoded, nil
		}
		quality -= qualityStep
	}

	return encoded, nil
}

// flattenOnWhite composites the image onto an opaque white background.
// JPEG has no alpha channel; transparent widget screenshots would otherwise
// render as black.
func flattenOnWhite(src image.Image) *image.RGBA {
	bounds := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), src, bounds.Min, draw.Over)
	return dst
}

// downscaleIfNeeded scales the image uniformly so its pixel count fits
// MaxImagePixels. The scale factor is sqrt(limit/actual) so both dimensions
// shrink proportionally.
func downscaleIfNeeded(src *image.RGBA) *image.RGBA {
	bounds := src.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	total := width * height
	if total <= MaxImagePixels {
		return src
	}

	scale := math.Sqrt(float64(MaxImagePixels) / float64(total))
	newWidth := int(float64(width) * scale)
	newHeight := int(float64(height) * scale)

	dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

// Package crop truncates page images at a crop boundary.
package crop

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"golang.org/x/image/draw"
)

// BoundsError reports a crop boundary outside the image, or an image that
// cannot be persisted because it is empty.
type BoundsError struct {
	Y      int
	Height int
}

func (e *BoundsError) Error() string {
	if e.Y == 0 && e.Height == 0 {
		return "invalid crop bounds: image is empty"
	}
	return fmt.Sprintf("invalid crop bounds: y=%d outside image height %d", e.Y, e.Height)
}

// Crop returns a copy of the region (0,0)-(width,y) of img, with y measured
// from the top of the image. y equal to the image height copies the whole
// image; y of zero yields an empty image of the full width.
func Crop(img image.Image, y int) (*image.RGBA, error) {
	b := img.Bounds()
	if y < 0 || y > b.Dy() {
		return nil, &BoundsError{Y: y, Height: b.Dy()}
	}

	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), y))
	src := image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+y)
	draw.Copy(dst, image.Point{}, img, src, draw.Src, nil)
	return dst, nil
}

// WritePNG writes img to path as a PNG file.
// PNG cannot represent an empty image, so those are rejected with a
// *BoundsError before anything is written.
func WritePNG(path string, img image.Image) error {
	if img.Bounds().Empty() {
		return &BoundsError{}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

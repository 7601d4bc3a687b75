package render

import (
	"bytes"
	"image"

	"github.com/etulastrada/ideconfy/pkg/errors"
	"github.com/etulastrada/ideconfy/pkg/identicon"
)

const (
	// CanvasScale is the cell side of identicons drawn on the canvas.
	CanvasScale = 20.0

	// ExportScale is the cell side of downloaded PNGs.
	ExportScale = 42.0

	// IconPixels is the side of the header and favicon bitmap.
	IconPixels = 32
)

// IconScale returns the cell side that makes a size x size grid exactly
// IconPixels wide.
func IconScale(size int) float64 {
	if size <= 0 {
		return 0
	}
	return float64(IconPixels) / float64(size)
}

// ClipboardSVG renders the copy-to-clipboard form of id at CanvasScale.
// A 5x5 identicon is 100x100.
func ClipboardSVG(id identicon.Identicon) []byte {
	return SVG(id, CanvasScale)
}

// HeaderSVG renders id at IconScale so it is IconPixels wide.
func HeaderSVG(id identicon.Identicon) []byte {
	return SVG(id, IconScale(id.Size()))
}

// ExportSide returns the bitmap side of an exported identicon.
func ExportSide(id identicon.Identicon) int {
	return int(float64(id.Size()) * ExportScale)
}

// Export renders the downloadable bitmap of id on white. A 5x5 identicon
// is 210x210.
func Export(id identicon.Identicon) (image.Image, error) {
	side := ExportSide(id)
	return Raster(id, side, side)
}

// Icon renders the IconPixels square favicon bitmap.
func Icon(id identicon.Identicon) (image.Image, error) {
	return Raster(id, IconPixels, IconPixels)
}

// Bytes renders id in format f. Raster formats use a width x height bitmap;
// SVG uses scale. The result is nil when the render target is empty.
func Bytes(id identicon.Identicon, f Format, scale float64, width, height int) ([]byte, error) {
	if f == FormatSVG {
		return SVG(id, scale), nil
	}
	if !f.IsRaster() {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q", f)
	}
	img, err := Raster(id, width, height)
	if err != nil || img == nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, img, f); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode %s", f)
	}
	return buf.Bytes(), nil
}

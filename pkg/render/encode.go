package render

import (
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"

	"github.com/etulastrada/ideconfy/pkg/errors"
)

// Format is an output encoding.
type Format string

const (
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
	FormatBMP  Format = "bmp"
)

// Formats lists every supported format.
var Formats = []Format{FormatSVG, FormatPNG, FormatJPEG, FormatBMP}

// IsRaster reports whether f is a bitmap format.
func (f Format) IsRaster() bool {
	return f == FormatPNG || f == FormatJPEG || f == FormatBMP
}

// Ext returns the file extension including the dot.
func (f Format) Ext() string {
	if f == FormatJPEG {
		return ".jpg"
	}
	return "." + string(f)
}

// ContentType returns the MIME type.
func (f Format) ContentType() string {
	switch f {
	case FormatSVG:
		return "image/svg+xml"
	case FormatJPEG:
		return "image/jpeg"
	case FormatBMP:
		return "image/bmp"
	default:
		return "image/png"
	}
}

// ParseFormat resolves a format name, case-insensitively. "jpg" is
// accepted for JPEG.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "jpg":
		return FormatJPEG, nil
	case FormatSVG, FormatPNG, FormatJPEG, FormatBMP:
		return f, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q (want svg, png, jpeg or bmp)", name)
	}
}

// FormatFromPath picks the format from a file extension. Paths without an
// extension default to PNG.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return FormatPNG, nil
	}
	return ParseFormat(ext)
}

// Encode writes img in a raster format. JPEG uses maximum quality.
func Encode(w io.Writer, img image.Image, f Format) error {
	if img == nil {
		return nil
	}
	switch f {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatJPEG:
		return jpeg.Encode(w, img, &jpeg.Options{Quality: 100})
	case FormatBMP:
		return bmp.Encode(w, img)
	default:
		return errors.New(errors.ErrCodeInvalidFormat, "%q is not a raster format", f)
	}
}

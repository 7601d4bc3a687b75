package render

import (
	"fmt"
	"image"

	"github.com/gogpu/gg"

	"github.com/etulastrada/ideconfy/pkg/identicon"
)

// Raster paints id onto a white width x height bitmap, stretching the grid
// to fill it. It returns a nil image and nil error when either dimension is
// not positive or the pattern is empty.
func Raster(id identicon.Identicon, width, height int) (image.Image, error) {
	size := id.Pattern.Size()
	if width <= 0 || height <= 0 || size == 0 {
		return nil, nil
	}

	dc := gg.NewContext(width, height)
	defer dc.Close()

	dc.ClearWithColor(gg.White)
	dc.SetColor(id.Color.NRGBA())

	cw := float64(width) / float64(size)
	ch := float64(height) / float64(size)
	if cells := id.Pattern.On(); len(cells) > 0 {
		for _, c := range cells {
			dc.DrawRectangle(float64(c.Col)*cw, float64(c.Row)*ch, cw, ch)
		}
		if err := dc.Fill(); err != nil {
			return nil, fmt.Errorf("fill cells: %w", err)
		}
	}
	if err := dc.FlushGPU(); err != nil {
		return nil, fmt.Errorf("flush: %w", err)
	}
	return dc.Image(), nil
}

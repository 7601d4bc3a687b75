package canvas

import (
	"github.com/etulastrada/ideconfy/pkg/render"
)

// Snapshot renders every placed identicon into one SVG document, each tile
// drawn with its top-left corner at the item's ledger position.
func (c *Canvas) Snapshot(opts ...render.SVGOption) []byte {
	placed := c.Placed()
	tiles := make([]render.Placement, 0, len(placed))
	for _, it := range placed {
		tiles = append(tiles, render.Placement{
			Identicon: it.Identicon,
			X:         it.Position.X,
			Y:         it.Position.Y,
		})
	}
	return render.CanvasSVG(tiles, c.cfg.Footprint/float64(c.cfg.GridSize), opts...)
}

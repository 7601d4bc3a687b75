// Package render turns identicons into SVG documents and raster images.
//
// # Vector Output
//
// [SVG] emits a square document of side size*scale: a white background
// rect followed by one rect per on cell, in row-major order. Output is
// byte-identical for identical inputs.
//
//	svg := render.SVG(id, render.CanvasScale)
//
// [CanvasSVG] composes several identicons at their canvas positions into
// one document.
//
// # Raster Output
//
// [Raster] paints the same picture onto a fixed-size bitmap with the
// gogpu/gg software rasterizer, and [Encode] writes it as PNG, JPEG or BMP.
// A non-positive size or an empty pattern is a silent no-op.
//
//	img, err := render.Raster(id, 210, 210)
//	err = render.Encode(w, img, render.FormatPNG)
//
// # Presets
//
// [ClipboardSVG], [Export] and [Icon] fix the scales used for copy,
// download and favicon output.
package render

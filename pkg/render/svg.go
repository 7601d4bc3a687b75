package render

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"strconv"

	"github.com/etulastrada/ideconfy/pkg/identicon"
)

// DefaultBackground fills the area behind the cells.
const DefaultBackground = "#ffffff"

type SVGOption func(*svgRenderer)

type svgRenderer struct {
	background string
	title      string
}

// WithBackground sets the background fill. An empty color omits the
// background rect.
func WithBackground(color string) SVGOption {
	return func(r *svgRenderer) { r.background = color }
}

// WithTitle adds a <title> element, shown as a tooltip by browsers.
func WithTitle(title string) SVGOption {
	return func(r *svgRenderer) { r.title = title }
}

func newSVGRenderer(opts ...SVGOption) svgRenderer {
	r := svgRenderer{background: DefaultBackground}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// SVG renders id with square cells of side scale. It returns nil when
// scale is not positive or the pattern is empty.
func SVG(id identicon.Identicon, scale float64, opts ...SVGOption) []byte {
	size := id.Pattern.Size()
	if size == 0 || !(scale > 0) {
		return nil
	}
	r := newSVGRenderer(opts...)
	side := float64(size) * scale

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s" shape-rendering="crispEdges">`+"\n",
		num(side), num(side), num(side), num(side))
	r.renderTitle(&buf)
	renderIdenticon(&buf, id, scale, r.background, "  ")
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// Placement is an identicon at a canvas position. X and Y are the top-left
// corner in canvas units.
type Placement struct {
	Identicon identicon.Identicon
	X, Y      float64
}

// CanvasSVG renders every placement into one document whose viewBox is the
// bounding box of all tiles. An empty canvas yields an empty document.
func CanvasSVG(items []Placement, scale float64, opts ...SVGOption) []byte {
	if !(scale > 0) {
		return nil
	}
	r := newSVGRenderer(opts...)

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range items {
		side := float64(p.Identicon.Pattern.Size()) * scale
		minX, minY = math.Min(minX, p.X), math.Min(minY, p.Y)
		maxX, maxY = math.Max(maxX, p.X+side), math.Max(maxY, p.Y+side)
	}
	if len(items) == 0 {
		minX, minY, maxX, maxY = 0, 0, 0, 0
	}
	w, h := maxX-minX, maxY-minY

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="%s %s %s %s" shape-rendering="crispEdges">`+"\n",
		num(w), num(h), num(minX), num(minY), num(w), num(h))
	r.renderTitle(&buf)
	for _, p := range items {
		fmt.Fprintf(&buf, `  <g transform="translate(%s %s)">`+"\n", num(p.X), num(p.Y))
		if p.Identicon.Content != "" {
			buf.WriteString("    <title>")
			_ = xml.EscapeText(&buf, []byte(p.Identicon.Content))
			buf.WriteString("</title>\n")
		}
		renderIdenticon(&buf, p.Identicon, scale, r.background, "    ")
		buf.WriteString("  </g>\n")
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r svgRenderer) renderTitle(buf *bytes.Buffer) {
	if r.title == "" {
		return
	}
	buf.WriteString("  <title>")
	_ = xml.EscapeText(buf, []byte(r.title))
	buf.WriteString("</title>\n")
}

func renderIdenticon(buf *bytes.Buffer, id identicon.Identicon, scale float64, background, pad string) {
	side := num(float64(id.Pattern.Size()) * scale)
	if background != "" {
		fmt.Fprintf(buf, `%s<rect x="0" y="0" width="%s" height="%s" fill="%s"/>`+"\n", pad, side, side, background)
	}
	fill := id.Color.Hex()
	cell := num(scale)
	for _, c := range id.Pattern.On() {
		fmt.Fprintf(buf, `%s<rect x="%s" y="%s" width="%s" height="%s" fill="%s"/>`+"\n",
			pad, num(float64(c.Col)*scale), num(float64(c.Row)*scale), cell, cell, fill)
	}
}

// num formats a coordinate with at most four decimals and no trailing zeros.
func num(f float64) string {
	r := math.Round(f*1e4) / 1e4
	if r == 0 {
		r = 0 // drop negative zero
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

package render

import (
	"bytes"
	"fmt"
	"slices"
	"strconv"

	"github.com/matzehuels/wafermask/pkg/core/geometry"
	"github.com/matzehuels/wafermask/pkg/core/wafer"
)

// DefaultWidth is the pixel width of an SVG preview.
const DefaultWidth = 1024.0

// LayerStyle describes how one mask layer is drawn.
type LayerStyle struct {
	Fill      string
	Stroke    string
	Dash      string
	Opacity   float64
	ZIndex    int
	LayerName string
}

// LayerStyles maps the wafer layers to their preview style. Unknown layers
// are drawn with a grey outline.
var LayerStyles = map[geometry.Layer]LayerStyle{
	geometry.LayerWafer:      {Fill: "none", Stroke: "#1f2933", Opacity: 1, ZIndex: 2, LayerName: "wafer"},
	geometry.LayerMargin:     {Fill: "none", Stroke: "#d64545", Dash: "6 4", Opacity: 1, ZIndex: 1, LayerName: "margin"},
	geometry.LayerStructures: {Fill: "#3a6ea5", Stroke: "none", Opacity: 0.85, ZIndex: 0, LayerName: "structures"},
}

var fallbackStyle = LayerStyle{Fill: "none", Stroke: "#9aa5b1", Opacity: 1, ZIndex: 3}

// SVGOption configures RenderSVG.
type SVGOption func(*svgRenderer)

type svgRenderer struct {
	width  float64
	window *geometry.Rect
	layers map[geometry.Layer]bool
}

// WithWidth sets the pixel width of the output. The height follows the
// aspect ratio of the viewport.
func WithWidth(px float64) SVGOption {
	return func(r *svgRenderer) {
		if px > 0 {
			r.width = px
		}
	}
}

// WithWindow restricts the viewport to rect (in microns). Shapes that do
// not overlap it are skipped.
func WithWindow(rect geometry.Rect) SVGOption {
	return func(r *svgRenderer) { r.window = &rect }
}

// WithLayers limits the output to the given layers.
func WithLayers(layers ...geometry.Layer) SVGOption {
	return func(r *svgRenderer) {
		r.layers = make(map[geometry.Layer]bool, len(layers))
		for _, l := range layers {
			r.layers[l] = true
		}
	}
}

// RenderSVG draws the cell as an SVG document. An empty cell produces a
// valid document with no shapes.
func RenderSVG(cell *wafer.Cell, opts ...SVGOption) []byte {
	r := svgRenderer{width: DefaultWidth}
	for _, opt := range opts {
		opt(&r)
	}

	view := cell.Bounds()
	shapes := cell.Shapes()
	if r.window != nil {
		view = *r.window
		shapes = cell.Query(view)
	}
	if view.Empty() {
		view = geometry.NewRect(geometry.Point{X: -1, Y: -1}, geometry.Point{X: 1, Y: 1})
	}
	height := r.width * view.Height() / view.Width()

	var buf bytes.Buffer
	// y is negated so that the flat sits at the bottom of the preview.
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%s %s %s %s" width="%.0f" height="%.0f">`+"\n",
		num(view.Min.X), num(-view.Max.Y), num(view.Width()), num(view.Height()), r.width, height)
	fmt.Fprintf(&buf, `  <title>%s</title>`+"\n", cell.Name())

	for _, layer := range r.layerOrder(shapes) {
		st := styleFor(layer)
		fmt.Fprintf(&buf, `  <g id="layer-%d" fill="%s" stroke="%s" fill-opacity="%s"`, layer, st.Fill, st.Stroke, num(st.Opacity))
		if st.Dash != "" {
			fmt.Fprintf(&buf, ` stroke-dasharray="%s"`, st.Dash)
		}
		buf.WriteString(` vector-effect="non-scaling-stroke">` + "\n")
		for _, s := range shapes {
			if s.Layer == layer {
				writePolygon(&buf, s)
			}
		}
		buf.WriteString("  </g>\n")
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

// layerOrder returns the layers present in shapes, bottom-most first.
func (r svgRenderer) layerOrder(shapes []wafer.Shape) []geometry.Layer {
	seen := map[geometry.Layer]bool{}
	var layers []geometry.Layer
	for _, s := range shapes {
		if seen[s.Layer] || (r.layers != nil && !r.layers[s.Layer]) {
			continue
		}
		seen[s.Layer] = true
		layers = append(layers, s.Layer)
	}
	slices.SortFunc(layers, func(a, b geometry.Layer) int {
		if za, zb := styleFor(a).ZIndex, styleFor(b).ZIndex; za != zb {
			return za - zb
		}
		return int(a) - int(b)
	})
	return layers
}

func styleFor(l geometry.Layer) LayerStyle {
	if st, ok := LayerStyles[l]; ok {
		return st
	}
	return fallbackStyle
}

func writePolygon(buf *bytes.Buffer, s wafer.Shape) {
	if s.Section > 0 {
		fmt.Fprintf(buf, `    <polygon data-section="%d" points="`, s.Section)
	} else {
		buf.WriteString(`    <polygon points="`)
	}
	for i, p := range s.Points {
		if i > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(num(p.X))
		buf.WriteByte(',')
		buf.WriteString(num(-p.Y))
	}
	buf.WriteString(`"/>` + "\n")
}

// num formats v with at most three decimals (nanometre resolution).
func num(v float64) string {
	s := strconv.FormatFloat(v, 'f', 3, 64)
	for s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	if s == "-0" {
		return "0"
	}
	return s
}

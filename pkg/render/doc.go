// Package render produces previews and exports of a generated wafer cell.
//
// # Overview
//
// The GDSII stream written by [gds] is the fabrication artifact. This
// package provides the human facing views of the same cell:
//
//   - [RenderSVG]: vector preview with one style per layer
//   - [RenderJSON]: polygon export for web viewers and scripts
//   - [ToPDF] and [ToPNG]: conversions of any SVG via rsvg-convert
//
// # SVG Preview
//
// Coordinates are emitted in microns with the y axis flipped so that the
// flat of the wafer appears at the bottom, as on the mask. The viewport
// can be restricted to a window; shapes outside it are culled through the
// cell's spatial index before any markup is written.
//
//	svg := render.RenderSVG(cell, render.WithWidth(2048))
//	png, err := render.ToPNG(svg, 2.0)
//
// [gds]: github.com/matzehuels/wafermask/pkg/gds
package render

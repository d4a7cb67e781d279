// Package wafer builds photomask layouts for circular wafers with a flat.
//
// # Overview
//
// A [Wafer] owns the wafer outline, an inset margin outline, the partition
// of the drawing area into rows x cols numbered sections, the per-section
// [Setup] records and the accumulating [Cell] of emitted shapes.
//
// Sections are numbered 1..rows*cols left to right, top to bottom:
//
//	|-----------|
//	| 1 | 2 | 3 |
//	|---|---|---|
//	| 4 | 5 | 6 |
//	|-----------|
//
// # Coordinates
//
// Sizes and margins are given in millimetres and stored in micrometres
// (1 mm = 1000 working units). The wafer is centred on the origin with y
// pointing up; sections are anchored at their top-left corner.
//
// # Layers
//
// Shapes are tagged with [geometry.LayerWafer] for the wafer outline,
// [geometry.LayerMargin] for the margin outline and
// [geometry.LayerStructures] for generated pillars and walls.
//
// # Generation
//
// Each section setup dispatches to a structure generator (see [Structure])
// and the result is intersected with the margin outline before it is
// committed to the cell. Raw structure shapes never reach the cell.
// [Wafer.GenerateAll] processes every stored setup, optionally in
// parallel, and hands the cell to a [Writer] exactly once.
//
// The cell accumulates across calls and is never cleared implicitly; use
// [Wafer.ResetCell] to start over.
//
// A Wafer is not safe for concurrent use.
package wafer

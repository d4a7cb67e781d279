// Package geometry provides the planar primitives shared by the layout
// engine: points, polygons, rectangles, layers, and the circular arc sampler
// used for every rounded outline (wafer edges and pillars).
//
// Coordinates are real-valued and expressed in the wafer's working length
// unit (microns). Polygons are closed implicitly: the last point connects
// back to the first and is not repeated.
//
// # Arc Sampling
//
// [SampleArc] returns n points spaced linearly in angle, inclusive of both
// endpoints:
//
//	outline, err := geometry.SampleArc(50_000, -71.03, 180+71.03, geometry.OutlinePoints)
//
// Pillar fields replicate one circle thousands of times, so circles are
// computed once per (radius, point count) by a [TemplateCache] and translated
// to every placement:
//
//	tmpl, err := geometry.Templates.Circle(5, geometry.PillarPoints)
//	pillar := tmpl.Translate(cx, cy)
package geometry

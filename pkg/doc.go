// Package pkg provides the core libraries for Wafermask photomask layouts.
//
// # Overview
//
// Wafermask partitions the drawing area of a circular wafer with a flat into
// a grid of sections, fills each section with pillar or wall test structures
// and writes the result as a GDSII stream. The pkg directory is organized
// into these areas:
//
//  1. [core] - Domain logic (geometry, clipping, structures, wafer model)
//  2. [job] - TOML job files describing a wafer and its section setups
//  3. [gds] - GDSII stream encoding and decoding
//  4. [pipeline] - Orchestration (build → generate → render) with caching
//  5. [server] - HTTP API over the pipeline
//
// # Architecture
//
// The typical data flow through Wafermask:
//
//	job.toml
//	    ↓
//	[job] package (parse, validate, build)
//	    ↓
//	[core/wafer] package (partition, section setups, generation)
//	    ↓
//	[core/pillar], [core/grid] → [core/clip] (structures clipped to the margin)
//	    ↓
//	[gds] stream + [render] previews (SVG/PDF/PNG/JSON)
//
// # Quick Start
//
// Generate a two-section mask:
//
//	import (
//	    "context"
//	    "os"
//	    "github.com/matzehuels/wafermask/pkg/core/wafer"
//	    "github.com/matzehuels/wafermask/pkg/gds"
//	)
//
//	w, _ := wafer.New(wafer.Size4Inch, 5, wafer.Microns, wafer.Nanometers)
//	_ = w.Partition(1, 2)
//	_ = w.AddSetup(1, wafer.Setup{Structure: wafer.Pillars, Distance: 2000, Radius: 500})
//	_ = w.AddSetup(2, wafer.Setup{Structure: wafer.Grid, Distance: 5000, Radius: 200})
//	report, _ := w.GenerateAll(context.Background(), gds.NewWriter(os.Stdout))
//
// # Main Packages
//
// ## Core Domain Logic
//
// [core/geometry] - Points, polygons, rectangles and arc sampling for the
// wafer outline and circular pillars.
//
// [core/clip] - Polygon clipping against the margin outline with vertex-cap
// fracturing, plus union and coverage.
//
// [core/pillar] - Pillar centre lattices and standalone pillar arrays.
//
// [core/grid] - Horizontal and vertical wall bars.
//
// [core/wafer] - The wafer model: size classes with flats, partitioning,
// section setups, the spatially indexed cell and generation.
//
// ## Configuration and Output
//
// [job] - Job files in TOML (and JSON for the API).
//
// [gds] - GDSII stream writer and reader for boundary-only libraries.
//
// [render] - SVG previews, JSON shape export and rsvg-convert conversion.
//
// ## Infrastructure
//
// [pipeline] - The generation pipeline used by CLI and API. Ensures
// consistent behavior across entry points.
//
// [cache] - Artifact caching with file, Redis and null backends.
//
// [store] - Run history with file, MongoDB and null backends.
//
// [observability] - Hooks for generation, cache and HTTP events.
//
// [errors] - Error codes and name validation.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                 # All tests
//	go test ./pkg/core/wafer/...      # Specific package
//	go test -run Example ./pkg/...    # Examples only
//
// [core]: https://pkg.go.dev/github.com/matzehuels/wafermask/pkg/core
// [core/geometry]: https://pkg.go.dev/github.com/matzehuels/wafermask/pkg/core/geometry
// [core/clip]: https://pkg.go.dev/github.com/matzehuels/wafermask/pkg/core/clip
// [core/pillar]: https://pkg.go.dev/github.com/matzehuels/wafermask/pkg/core/pillar
// [core/grid]: https://pkg.go.dev/github.com/matzehuels/wafermask/pkg/core/grid
// [core/wafer]: https://pkg.go.dev/github.com/matzehuels/wafermask/pkg/core/wafer
// [job]: https://pkg.go.dev/github.com/matzehuels/wafermask/pkg/job
// [gds]: https://pkg.go.dev/github.com/matzehuels/wafermask/pkg/gds
// [render]: https://pkg.go.dev/github.com/matzehuels/wafermask/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/wafermask/pkg/pipeline
// [server]: https://pkg.go.dev/github.com/matzehuels/wafermask/pkg/server
// [cache]: https://pkg.go.dev/github.com/matzehuels/wafermask/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/wafermask/pkg/store
// [observability]: https://pkg.go.dev/github.com/matzehuels/wafermask/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/wafermask/pkg/errors
package pkg

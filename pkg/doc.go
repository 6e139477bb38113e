// Package pkg provides the core libraries for Permitscope access
// visualization.
//
// # Overview
//
// Permitscope turns the access directory's permission data into explorable
// graphs. The pkg directory is organized along the pipeline:
//
//  1. [directory] - Access Directory Service client (raw wire shapes)
//  2. [normalize] - Field-precedence normalization into canonical records
//  3. [hierarchy] - Route-based page tree reconstruction
//  4. [vizgraph] - Expansion-bounded graph building with badges and search
//  5. [layout] - Deterministic layered layout
//  6. [render] - JSON, DOT, SVG, and PNG exports
//  7. [pipeline] - Orchestration with snapshot and layout caching
//  8. [console] - Interactive state (selection, expansion, search)
//
// Supporting packages: [cache] (file/redis backends), [store] (saved
// views), [config], [errors], [httputil], [observability], [model],
// [buildinfo].
//
// # Architecture
//
// The typical data flow:
//
//	Access Directory Service
//	         ↓
//	    [directory] + [normalize] (canonical users, roles, pages)
//	         ↓
//	    [hierarchy] (page forest from routes)
//	         ↓
//	    [vizgraph] + [layout] (visible, positioned graph)
//	         ↓
//	    JSON/DOT/SVG/PNG output
//
// # Quick Start
//
//	client := directory.NewClient("https://directory.internal")
//	runner := pipeline.NewRunner(client, cache.NewNullCache(), nil, nil)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Selection: pipeline.SelectionPages,
//	    Formats:   []string{pipeline.FormatSVG},
//	})
package pkg

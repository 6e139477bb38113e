// Package pipeline provides the fetch → normalize → build → layout →
// render pipeline shared by the CLI and the HTTP API.
//
// Centralizing the pipeline keeps caching and stage behavior identical
// across entry points. Each stage can also run independently:
//
//	runner := pipeline.NewRunner(client, cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Selection: pipeline.SelectionPages,
//	    Formats:   []string{"svg"},
//	})
package pipeline

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/permitscope/permitscope/pkg/layout"
	"github.com/permitscope/permitscope/pkg/vizgraph"
)

// Selection kinds accepted by the pipeline.
const (
	SelectionPages = "pages"
	SelectionUser  = "user"
)

// Output formats.
const (
	FormatJSON = "json"
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatJSON: true,
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
}

// Options contains all configuration for one pipeline run. The struct
// supports JSON serialization for API requests.
type Options struct {
	// Selection options
	Selection string `json:"selection"`         // "pages" or "user"
	UserID    string `json:"user_id,omitempty"` // required for "user"
	PageID    string `json:"page_id,omitempty"` // optional drill-down focus
	Refresh   bool   `json:"refresh,omitempty"` // bypass the snapshot cache

	// Build options
	Expanded  []string `json:"expanded,omitempty"`   // expanded node ids
	Query     string   `json:"query,omitempty"`      // search highlight query
	ExpandAll bool     `json:"expand_all,omitempty"` // force every node open

	// Layout options
	Direction string `json:"direction,omitempty"` // "vertical" or "horizontal"

	// Render options
	Formats []string `json:"formats,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// Idempotent: calling it multiple times has the same effect as once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	switch o.Selection {
	case "", SelectionPages:
		o.Selection = SelectionPages
	case SelectionUser:
		if o.UserID == "" {
			return fmt.Errorf("user_id is required for a user selection")
		}
	default:
		return fmt.Errorf("invalid selection: %q (must be pages or user)", o.Selection)
	}

	switch o.Direction {
	case "":
		o.Direction = string(layout.DirectionVertical)
	case string(layout.DirectionVertical), string(layout.DirectionHorizontal):
	default:
		return fmt.Errorf("invalid direction: %q (must be vertical or horizontal)", o.Direction)
	}

	if len(o.Formats) == 0 {
		o.Formats = []string{FormatJSON}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return fmt.Errorf("invalid format: %q (must be one of: json, dot, svg, png)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// BuildOptions converts the pipeline options to graph-builder options.
func (o *Options) BuildOptions() vizgraph.Options {
	expanded := make(map[string]bool, len(o.Expanded))
	for _, id := range o.Expanded {
		expanded[id] = true
	}
	focus := ""
	if o.PageID != "" {
		focus = "page:" + o.PageID
	}
	return vizgraph.Options{
		Expanded:  expanded,
		Query:     o.Query,
		Focus:     focus,
		ExpandAll: o.ExpandAll,
	}
}

// LayoutDirection returns the layout direction for these options.
func (o *Options) LayoutDirection() layout.Direction {
	return layout.Direction(o.Direction)
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the laid-out visible graph.
	Graph vizgraph.Graph

	// GraphHash is the content hash of the built graph, usable as an ETag.
	GraphHash string

	// Artifacts contains rendered outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	FetchTime  time.Duration
	BuildTime  time.Duration
	RenderTime time.Duration
}

// CacheInfo tracks cache hits per pipeline stage.
type CacheInfo struct {
	SnapshotHit bool // whether the directory snapshot came from cache
	LayoutHit   bool // whether the layout came from cache
}

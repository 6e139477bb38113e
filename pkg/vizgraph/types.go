// Package vizgraph builds renderable node/edge lists from canonical access
// data.
//
// The builder is a pure function over (canonical tree, expanded-id set,
// search query, focus id): it emits one visualization node per page, action,
// user, role, policy, or endpoint visited, draws edges along parent/child
// relationships, bounds the visible graph to the caller's expansion state,
// computes per-category count badges from the live subtree, and propagates
// search highlights from matching descendants up to the root.
//
// Output is generated fresh on every build and never cached or mutated in
// place; every state change re-derives the full node/edge list.
package vizgraph

import "fmt"

// Category classifies a visualization node.
type Category string

const (
	CategoryUser     Category = "user"
	CategoryRole     Category = "role"
	CategoryPolicy   Category = "policy"
	CategoryEndpoint Category = "endpoint"
	CategoryAction   Category = "action"
	CategoryPage     Category = "page"
)

// Position is a laid-out coordinate. Populated by pkg/layout, zero until
// layout has run.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dimensions is the render size of a node in layout units.
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Default dimensions per category. The layout adapter uses these unless a
// node carries an explicit override.
var defaultDimensions = map[Category]Dimensions{
	CategoryUser:     {Width: 260, Height: 90},
	CategoryRole:     {Width: 220, Height: 76},
	CategoryPolicy:   {Width: 220, Height: 76},
	CategoryEndpoint: {Width: 240, Height: 64},
	CategoryAction:   {Width: 180, Height: 48},
	CategoryPage:     {Width: 220, Height: 64},
}

// DefaultDimensions returns the default render size for a category.
// Unknown categories fall back to the action size.
func DefaultDimensions(c Category) Dimensions {
	if d, ok := defaultDimensions[c]; ok {
		return d
	}
	return defaultDimensions[CategoryAction]
}

// Badge is a count annotation shown on a node (e.g. "endpoints: 12").
type Badge struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Node is the renderable unit of the access graph. Nodes are produced fresh
// on every build pass and owned exclusively by that pass's output buffer.
type Node struct {
	ID          string     `json:"id"`
	Category    Category   `json:"category"`
	Title       string     `json:"title"`
	Subtitle    string     `json:"subtitle,omitempty"`
	Description string     `json:"description,omitempty"`
	Badges      []Badge    `json:"badges,omitempty"`
	Highlight   bool       `json:"highlight,omitempty"`
	Collapsible bool       `json:"collapsible,omitempty"`
	Expanded    bool       `json:"expanded,omitempty"`
	Size        Dimensions `json:"size"`
	Position    Position   `json:"position"`
}

// Edge is a directed connection between two emitted nodes. Highlight is set
// iff both endpoints are highlighted.
type Edge struct {
	ID        string `json:"id"`
	Source    string `json:"source"`
	Target    string `json:"target"`
	Label     string `json:"label,omitempty"`
	Highlight bool   `json:"highlight,omitempty"`
}

// Graph is one build pass's output: the visible node and edge lists.
type Graph struct {
	Nodes []*Node `json:"nodes"`
	Edges []Edge  `json:"edges"`
}

// edgeID derives a stable edge identifier from its endpoints.
func edgeID(source, target string) string {
	return fmt.Sprintf("%s->%s", source, target)
}

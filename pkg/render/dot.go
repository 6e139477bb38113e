// Package render exports laid-out access graphs as JSON documents, DOT
// text, and SVG/PNG images.
//
// DOT output delegates drawing to Graphviz; JSON output carries the
// positions computed by pkg/layout so API consumers can render the graph
// themselves.
package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/permitscope/permitscope/pkg/vizgraph"
)

// categoryFill maps node categories to Graphviz fill colors.
var categoryFill = map[vizgraph.Category]string{
	vizgraph.CategoryUser:     "#dbeafe",
	vizgraph.CategoryRole:     "#ede9fe",
	vizgraph.CategoryPolicy:   "#fef3c7",
	vizgraph.CategoryEndpoint: "#dcfce7",
	vizgraph.CategoryAction:   "#f3f4f6",
	vizgraph.CategoryPage:     "#fae8ff",
}

// ToDOT converts a built graph to Graphviz DOT format. Highlighted nodes
// get a bold red outline; highlighted edges are drawn red. The resulting
// string can be rendered with [SVG] or [PNG].
func ToDOT(g vizgraph.Graph) string {
	var buf bytes.Buffer
	buf.WriteString("digraph access {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontsize=12, margin=\"0.15,0.08\"];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.35;\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(nodeAttrs(n), ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		attrs := ""
		if e.Highlight {
			attrs = " [color=\"#dc2626\", penwidth=2]"
		}
		fmt.Fprintf(&buf, "  %q -> %q%s;\n", e.Source, e.Target, attrs)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n *vizgraph.Node) []string {
	attrs := []string{
		fmt.Sprintf("label=%q", nodeLabel(n)),
		fmt.Sprintf("fillcolor=%q", fillFor(n.Category)),
	}
	if n.Highlight {
		attrs = append(attrs, "color=\"#dc2626\"", "penwidth=2")
	}
	return attrs
}

func nodeLabel(n *vizgraph.Node) string {
	parts := []string{n.Title}
	if n.Subtitle != "" {
		parts = append(parts, n.Subtitle)
	}
	for _, b := range n.Badges {
		parts = append(parts, fmt.Sprintf("%s: %d", b.Label, b.Count))
	}
	return strings.Join(parts, "\n")
}

func fillFor(c vizgraph.Category) string {
	if fill, ok := categoryFill[c]; ok {
		return fill
	}
	return "white"
}

// SVG renders DOT text to SVG bytes using Graphviz.
func SVG(dot string) ([]byte, error) {
	return renderFormat(dot, graphviz.SVG)
}

// PNG renders DOT text to PNG bytes using Graphviz.
func PNG(dot string) ([]byte, error) {
	return renderFormat(dot, graphviz.PNG)
}

func renderFormat(dot string, format graphviz.Format) ([]byte, error) {
	ctx := context.Background()
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}

package cli

import (
	"testing"

	"github.com/permitscope/permitscope/pkg/pipeline"
)

func TestArtifactPath(t *testing.T) {
	tests := []struct {
		output, baseName, format string
		want                     string
	}{
		{"", "pages", "json", "pages.json"},
		{"", "user-u1", "svg", "user-u1.svg"},
		{"graph.svg", "pages", "svg", "graph.svg"},
		{"graph.svg", "pages", "png", "graph.png"},
		{"graph", "pages", "dot", "graph.dot"},
		{"out/graph", "pages", "json", "out/graph.json"},
	}
	for _, tt := range tests {
		if got := artifactPath(tt.output, tt.baseName, tt.format); got != tt.want {
			t.Errorf("artifactPath(%q, %q, %q) = %q, want %q",
				tt.output, tt.baseName, tt.format, got, tt.want)
		}
	}
}

func TestOrderedFormats(t *testing.T) {
	artifacts := map[string][]byte{
		pipeline.FormatPNG:  nil,
		pipeline.FormatJSON: nil,
		pipeline.FormatDOT:  nil,
	}
	got := orderedFormats(artifacts)
	want := []string{pipeline.FormatJSON, pipeline.FormatDOT, pipeline.FormatPNG}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"json", []string{"json"}},
		{"json,svg", []string{"json", "svg"}},
		{" json , dot ", []string{"json", "dot"}},
		{"", []string{"json"}},
	}
	for _, tt := range tests {
		got := parseFormats(tt.in)
		if len(got) != len(tt.want) {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for i := range tt.want {
			if got[i] != tt.want[i] {
				t.Errorf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
			}
		}
	}
}

func TestGraphFlagsExpandedDisablesExpandAll(t *testing.T) {
	f := &graphFlags{expandAll: true, expanded: []string{"page:1"}, formats: "json"}
	opts := f.options()
	if opts.ExpandAll {
		t.Error("explicit expanded ids should disable expand-all")
	}
	if len(opts.Expanded) != 1 {
		t.Errorf("Expanded = %v", opts.Expanded)
	}
}

package render

import (
	"encoding/json"

	"github.com/permitscope/permitscope/pkg/vizgraph"
)

// Document is the JSON export of one build pass: the visible nodes with
// their laid-out positions plus the edges between them. It is the payload
// served by the HTTP API and written by `permitscope graph -f json`.
type Document struct {
	Direction string           `json:"direction,omitempty"`
	Nodes     []*vizgraph.Node `json:"nodes"`
	Edges     []vizgraph.Edge  `json:"edges"`
	Counts    map[string]int   `json:"counts,omitempty"`
	Query     string           `json:"query,omitempty"`
}

// NewDocument assembles the export document for a laid-out graph.
func NewDocument(g vizgraph.Graph, direction, query string) Document {
	counts := make(map[string]int)
	for _, n := range g.Nodes {
		counts[string(n.Category)]++
	}
	return Document{
		Direction: direction,
		Nodes:     g.Nodes,
		Edges:     g.Edges,
		Counts:    counts,
		Query:     query,
	}
}

// MarshalDocument serializes the document as indented JSON.
func MarshalDocument(d Document) ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// UnmarshalDocument parses a previously exported document.
func UnmarshalDocument(data []byte) (Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return Document{}, err
	}
	return d, nil
}

// Package export converts query and graph results into the D3
// force-directed JSON format consumed by visualization frontends.
package export

import (
	"encoding/json"
	"os"

	"github.com/cogpy/chainlex/pkg/graph"
	"github.com/cogpy/chainlex/pkg/index"
	"github.com/cogpy/chainlex/pkg/infer"
)

// D3Node represents a node in the D3 force-directed graph.
type D3Node struct {
	ID       string            `json:"id"`                 // Qualified name (unique identifier)
	Name     string            `json:"name"`               // Display name (local name)
	Kind     string            `json:"kind,omitempty"`     // "principle", "rule" or "external"
	Group    string            `json:"group,omitempty"`    // Framework code, for coloring
	Level    int               `json:"level,omitempty"`    // Framework level
	Metadata map[string]string `json:"metadata,omitempty"` // Extra data (e.g. docs)
}

// D3Link represents a link/edge in the D3 force-directed graph.
type D3Link struct {
	Source   string  `json:"source"`
	Target   string  `json:"target"`
	Relation string  `json:"relation"`
	Weight   float64 `json:"weight,omitempty"`
}

// D3Graph represents the full graph structure for D3.js.
type D3Graph struct {
	Nodes []D3Node `json:"nodes"`
	Links []D3Link `json:"links"`
}

// D3Transformer converts index-backed results into D3 graph documents.
type D3Transformer struct {
	ix *index.Index
}

// NewD3Transformer creates a transformer with reference to the index for
// node enrichment.
func NewD3Transformer(ix *index.Index) *D3Transformer {
	return &D3Transformer{ix: ix}
}

// FromChain renders an inference chain as a two-or-more node graph, one
// link per inference step.
func (t *D3Transformer) FromChain(chain infer.Chain) *D3Graph {
	g := &D3Graph{Nodes: []D3Node{}, Links: []D3Link{}}
	for i, node := range chain {
		d3 := D3Node{
			ID:    node.Name,
			Name:  node.Name,
			Kind:  node.Type,
			Level: node.Level,
		}
		if node.Record != nil {
			d3.ID = node.Record.QualifiedName
			d3.Name = node.Record.LocalName
			d3.Group = node.Record.FrameworkCode
			if node.Record.DocText != "" {
				d3.Metadata = map[string]string{"doc": node.Record.DocText}
			}
		}
		g.Nodes = append(g.Nodes, d3)
		if i > 0 {
			g.Links = append(g.Links, D3Link{
				Source:   g.Nodes[i-1].ID,
				Target:   d3.ID,
				Relation: "inference",
				Weight:   infer.DefaultFactor,
			})
		}
	}
	return g
}

// FromPath renders a node-name path from the adjacency view, carrying each
// edge's type and confidence factor onto the link.
func (t *D3Transformer) FromPath(gr *graph.Graph, path []string) *D3Graph {
	g := &D3Graph{Nodes: []D3Node{}, Links: []D3Link{}}
	for i, name := range path {
		g.Nodes = append(g.Nodes, t.createNode(gr, name))
		if i > 0 {
			link := D3Link{Source: path[i-1], Target: name, Relation: graph.EdgeReference}
			if e, ok := gr.Edge(path[i-1], name); ok {
				link.Relation = e.Type
				if e.Weight > 0 {
					link.Weight = e.Weight
				}
			}
			g.Links = append(g.Links, link)
		}
	}
	return g
}

// FromSubgraph renders a domain subgraph summary with its induced edges.
func (t *D3Transformer) FromSubgraph(gr *graph.Graph, sub *graph.SubgraphSummary) *D3Graph {
	g := &D3Graph{Nodes: []D3Node{}, Links: []D3Link{}}
	if sub == nil {
		return g
	}

	member := make(map[string]bool, len(sub.Nodes))
	for _, name := range sub.Nodes {
		member[name] = true
		g.Nodes = append(g.Nodes, t.createNode(gr, name))
	}
	for _, from := range sub.Nodes {
		for _, n := range gr.Neighbors(from, graph.DirectionOutgoing) {
			if !member[n.Name] {
				continue
			}
			g.Links = append(g.Links, D3Link{
				Source:   from,
				Target:   n.Name,
				Relation: n.EdgeType,
			})
		}
	}
	return g
}

// createNode builds a D3Node enriched from the index where a record exists.
func (t *D3Transformer) createNode(gr *graph.Graph, name string) D3Node {
	d3 := D3Node{ID: name, Name: name}
	if info, ok := gr.Node(name); ok {
		d3.Kind = info.Type
		d3.Level = info.Level
	}
	if rec, ok := t.ix.Record(name); ok {
		d3.Name = rec.LocalName
		d3.Group = rec.FrameworkCode
		if rec.DocText != "" {
			d3.Metadata = map[string]string{"doc": rec.DocText}
		}
	}
	return d3
}

// SaveD3Graph writes the graph to a JSON file.
func SaveD3Graph(graph *D3Graph, filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	return encoder.Encode(graph)
}

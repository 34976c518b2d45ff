// Package graph provides the directed adjacency view over the
// cross-reference relation and the traversal analytics built on it: path
// search, neighborhood queries, centrality ranking and domain subgraphs.
//
// Edges run in derivation direction: from the referenced name to the record
// that references it, so paths flow from foundational principles toward
// derived rules. Cycles are a normal condition here; every traversal is
// cycle-safe by simple-path or visited-set discipline.
package graph

import (
	"github.com/cogpy/chainlex/pkg/index"
	"github.com/cogpy/chainlex/pkg/infer"
)

// Edge types.
const (
	EdgeDerivation = "derivation"
	EdgeReference  = "reference"
)

// NodeInfo describes one graph node.
type NodeInfo struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"` // principle | rule | external
	Level   int      `json:"level,omitempty"`
	Domains []string `json:"domains,omitempty"`
}

// NodeTypeExternal marks cross-reference targets that no record defines.
// Dangling references still participate in the graph; validation flags
// them separately.
const NodeTypeExternal = "external"

type edgeKey struct {
	From string
	To   string
}

// EdgeInfo carries per-edge annotations. InferenceType and Weight may be
// supplied by an external collaborator (e.g. a learned model); this
// package only consumes them and defaults to deductive when absent.
type EdgeInfo struct {
	Type          string  `json:"type"`
	InferenceType string  `json:"inference_type,omitempty"`
	Weight        float64 `json:"weight,omitempty"`
}

// Annotation attaches an externally computed inference type and/or weight
// to one directed edge.
type Annotation struct {
	From          string  `json:"from"`
	To            string  `json:"to"`
	InferenceType string  `json:"inference_type,omitempty"`
	Weight        float64 `json:"weight,omitempty"`
}

// Graph is the directed adjacency view. Built once from an index, then
// read-only except for ApplyAnnotations, which must complete before the
// graph is shared with readers.
type Graph struct {
	nodes map[string]*NodeInfo
	order []string // first-seen node order, used for tie-breaks

	out   map[string][]string
	in    map[string][]string
	edges map[edgeKey]*EdgeInfo
}

// New builds the adjacency view from an index's cross-reference data.
// Reference names resolve to qualified names where a defining record
// exists; otherwise the bare name becomes an external node.
func New(ix *index.Index) *Graph {
	g := &Graph{
		nodes: make(map[string]*NodeInfo),
		out:   make(map[string][]string),
		in:    make(map[string][]string),
		edges: make(map[edgeKey]*EdgeInfo),
	}

	// First-seen local-name resolution table, one pass.
	byLocal := make(map[string]string)
	for _, qn := range ix.Order() {
		rec, _ := ix.Record(qn)
		if _, seen := byLocal[rec.LocalName]; !seen {
			byLocal[rec.LocalName] = qn
		}
	}

	for _, qn := range ix.Order() {
		rec, _ := ix.Record(qn)
		g.addRecordNode(ix, rec)
	}

	for _, qn := range ix.Order() {
		rec, _ := ix.Record(qn)
		for _, ref := range rec.CrossReferences {
			target := ref
			if resolved, ok := byLocal[ref]; ok {
				target = resolved
			}
			g.ensureNode(target)

			edgeType := EdgeReference
			if src, ok := g.nodes[target]; ok && src.Type == infer.NodeTypePrinciple {
				edgeType = EdgeDerivation
			}
			// Derivation direction: referenced name -> referencing record.
			g.addEdge(target, qn, edgeType)
		}
	}

	return g
}

func (g *Graph) addRecordNode(ix *index.Index, rec *index.RuleRecord) {
	nodeType := infer.NodeTypeRule
	if rec.IsPrinciple {
		nodeType = infer.NodeTypePrinciple
	}
	info := &NodeInfo{Name: rec.QualifiedName, Type: nodeType}
	if fw, ok := ix.Framework(rec.FrameworkCode); ok {
		info.Level = fw.Level
		info.Domains = fw.Domains
	}
	g.insertNode(info)
}

func (g *Graph) ensureNode(name string) {
	if _, ok := g.nodes[name]; ok {
		return
	}
	g.insertNode(&NodeInfo{Name: name, Type: NodeTypeExternal})
}

func (g *Graph) insertNode(info *NodeInfo) {
	if _, ok := g.nodes[info.Name]; ok {
		return
	}
	g.nodes[info.Name] = info
	g.order = append(g.order, info.Name)
}

func (g *Graph) addEdge(from, to, edgeType string) {
	key := edgeKey{From: from, To: to}
	if _, ok := g.edges[key]; ok {
		return // parallel cross-references collapse to one edge
	}
	g.edges[key] = &EdgeInfo{Type: edgeType}
	g.out[from] = append(g.out[from], to)
	g.in[to] = append(g.in[to], from)
}

// ApplyAnnotations attaches external inference types and weights to
// existing edges. Annotations on absent edges are ignored; the core never
// invents edges from weights.
func (g *Graph) ApplyAnnotations(annotations []Annotation) {
	for _, a := range annotations {
		if e, ok := g.edges[edgeKey{From: a.From, To: a.To}]; ok {
			if a.InferenceType != "" {
				e.InferenceType = a.InferenceType
			}
			if a.Weight > 0 {
				e.Weight = a.Weight
			}
		}
	}
}

// Node returns node metadata.
func (g *Graph) Node(name string) (*NodeInfo, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of distinct directed edges.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// Edge returns the annotation for a directed edge.
func (g *Graph) Edge(from, to string) (*EdgeInfo, bool) {
	e, ok := g.edges[edgeKey{From: from, To: to}]
	return e, ok
}

// edgeFactor returns the confidence factor contributed by one edge: the
// externally supplied weight when present, otherwise the inference-type
// factor, otherwise the deductive default.
func (e *EdgeInfo) edgeFactor() float64 {
	if e.Weight > 0 {
		return e.Weight
	}
	if e.InferenceType != "" {
		return infer.Factor(e.InferenceType)
	}
	return infer.DefaultFactor
}

package graph

import "sort"

// Direction selects which edges a neighborhood query follows.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
	DirectionBoth     Direction = "both"
)

// Neighbor is one adjacent node together with the connecting edge type.
type Neighbor struct {
	Name      string `json:"name"`
	NodeType  string `json:"node_type"`
	EdgeType  string `json:"edge_type"`
	Direction string `json:"direction"`
}

// Neighbors returns the nodes adjacent to name, filtered by direction.
// Unknown nodes yield nil. With DirectionBoth, outgoing neighbors come
// first; a node adjacent both ways appears once per direction, since the
// two edges are distinct.
func (g *Graph) Neighbors(name string, dir Direction) []Neighbor {
	if _, ok := g.nodes[name]; !ok {
		return nil
	}

	var neighbors []Neighbor
	if dir == DirectionOutgoing || dir == DirectionBoth {
		for _, to := range g.out[name] {
			e := g.edges[edgeKey{From: name, To: to}]
			neighbors = append(neighbors, Neighbor{
				Name:      to,
				NodeType:  g.nodes[to].Type,
				EdgeType:  e.Type,
				Direction: string(DirectionOutgoing),
			})
		}
	}
	if dir == DirectionIncoming || dir == DirectionBoth {
		for _, from := range g.in[name] {
			e := g.edges[edgeKey{From: from, To: name}]
			neighbors = append(neighbors, Neighbor{
				Name:      from,
				NodeType:  g.nodes[from].Type,
				EdgeType:  e.Type,
				Direction: string(DirectionIncoming),
			})
		}
	}
	return neighbors
}

// Related is a node reachable within a bounded undirected distance.
type Related struct {
	Name     string `json:"name"`
	NodeType string `json:"node_type"`
	Distance int    `json:"distance"`
}

// RelatedWithinDistance returns every node whose undirected distance from
// origin is between 1 and maxDistance, ordered by ascending distance. The
// origin itself is excluded. BFS layer order makes the result stable.
func (g *Graph) RelatedWithinDistance(origin string, maxDistance int) []Related {
	if _, ok := g.nodes[origin]; !ok {
		return nil
	}
	if maxDistance <= 0 {
		return nil
	}

	visited := map[string]bool{origin: true}
	frontier := []string{origin}
	var related []Related

	for depth := 1; depth <= maxDistance && len(frontier) > 0; depth++ {
		var next []string
		for _, node := range frontier {
			for _, adj := range g.undirected(node) {
				if visited[adj] {
					continue
				}
				visited[adj] = true
				related = append(related, Related{
					Name:     adj,
					NodeType: g.nodes[adj].Type,
					Distance: depth,
				})
				next = append(next, adj)
			}
		}
		frontier = next
	}
	return related
}

// undirected lists a node's neighbors ignoring edge direction, outgoing
// first, without duplicates.
func (g *Graph) undirected(name string) []string {
	adj := make([]string, 0, len(g.out[name])+len(g.in[name]))
	seen := make(map[string]bool)
	for _, to := range g.out[name] {
		if !seen[to] {
			seen[to] = true
			adj = append(adj, to)
		}
	}
	for _, from := range g.in[name] {
		if !seen[from] {
			seen[from] = true
			adj = append(adj, from)
		}
	}
	return adj
}

// CentralityScore reports the composite importance of one node.
type CentralityScore struct {
	Name        string  `json:"name"`
	NodeType    string  `json:"node_type"`
	Degree      float64 `json:"degree"`
	Betweenness float64 `json:"betweenness"`
	Composite   float64 `json:"composite"`
}

// Centrality ranks nodes by a composite of normalized degree centrality
// and betweenness centrality, equally weighted, and returns the top n
// (all nodes when n <= 0). Ties keep node discovery order.
func (g *Graph) Centrality(n int) []CentralityScore {
	total := len(g.order)
	if total == 0 {
		return nil
	}

	betweenness := g.betweenness()

	scores := make([]CentralityScore, 0, total)
	for _, name := range g.order {
		degree := 0.0
		if total > 1 {
			degree = float64(len(g.out[name])+len(g.in[name])) / float64(total-1)
		}
		b := betweenness[name]
		scores = append(scores, CentralityScore{
			Name:        name,
			NodeType:    g.nodes[name].Type,
			Degree:      degree,
			Betweenness: b,
			Composite:   0.5*degree + 0.5*b,
		})
	}

	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Composite > scores[j].Composite
	})
	if n > 0 && len(scores) > n {
		scores = scores[:n]
	}
	return scores
}

// betweenness computes normalized betweenness centrality with Brandes'
// accumulation: one BFS per source, dependencies propagated back along
// shortest-path DAG edges.
func (g *Graph) betweenness() map[string]float64 {
	centrality := make(map[string]float64, len(g.order))
	for _, name := range g.order {
		centrality[name] = 0
	}

	for _, source := range g.order {
		var stack []string
		preds := make(map[string][]string)
		sigma := map[string]float64{source: 1}
		dist := map[string]int{source: 0}
		queue := []string{source}

		for len(queue) > 0 {
			v := queue[0]
			queue = queue[1:]
			stack = append(stack, v)
			for _, w := range g.out[v] {
				if _, seen := dist[w]; !seen {
					dist[w] = dist[v] + 1
					queue = append(queue, w)
				}
				if dist[w] == dist[v]+1 {
					sigma[w] += sigma[v]
					preds[w] = append(preds[w], v)
				}
			}
		}

		delta := make(map[string]float64)
		for i := len(stack) - 1; i >= 0; i-- {
			w := stack[i]
			for _, v := range preds[w] {
				delta[v] += (sigma[v] / sigma[w]) * (1 + delta[w])
			}
			if w != source {
				centrality[w] += delta[w]
			}
		}
	}

	// Normalize for a directed graph.
	n := len(g.order)
	if n > 2 {
		scale := 1.0 / float64((n-1)*(n-2))
		for name := range centrality {
			centrality[name] *= scale
		}
	}
	return centrality
}

// SubgraphSummary describes the induced subgraph for one domain.
type SubgraphSummary struct {
	Domain        string         `json:"domain"`
	Nodes         []string       `json:"nodes"`
	NodeCount     int            `json:"node_count"`
	EdgeCount     int            `json:"edge_count"`
	TypeCounts    map[string]int `json:"type_counts"`
	AverageDegree float64        `json:"average_degree"`
	Density       float64        `json:"density"`
}

// DomainSubgraph summarizes the subgraph induced by nodes whose framework
// declares the given domain. Returns nil when no node matches. Density is
// edges over n*(n-1), the directed maximum.
func (g *Graph) DomainSubgraph(domain string) *SubgraphSummary {
	member := make(map[string]bool)
	var nodes []string
	typeCounts := make(map[string]int)

	for _, name := range g.order {
		info := g.nodes[name]
		for _, d := range info.Domains {
			if d == domain {
				member[name] = true
				nodes = append(nodes, name)
				typeCounts[info.Type]++
				break
			}
		}
	}
	if len(nodes) == 0 {
		return nil
	}

	edgeCount := 0
	for key := range g.edges {
		if member[key.From] && member[key.To] {
			edgeCount++
		}
	}

	n := len(nodes)
	avgDegree := float64(2*edgeCount) / float64(n)
	density := 0.0
	if n > 1 {
		density = float64(edgeCount) / float64(n*(n-1))
	}

	return &SubgraphSummary{
		Domain:        domain,
		Nodes:         nodes,
		NodeCount:     n,
		EdgeCount:     edgeCount,
		TypeCounts:    typeCounts,
		AverageDegree: avgDegree,
		Density:       density,
	}
}

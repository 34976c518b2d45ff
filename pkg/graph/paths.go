package graph

import (
	"context"
	"math"
)

// defaultMaxPathLength bounds enumeration when callers pass no limit.
const defaultMaxPathLength = 5

// ShortestPath returns one shortest directed path from start to end as a
// node-name sequence, inclusive of both endpoints, or nil when no path
// exists. BFS over the adjacency lists; neighbors expand in edge discovery
// order, so ties resolve deterministically.
func (g *Graph) ShortestPath(start, end string) []string {
	if _, ok := g.nodes[start]; !ok {
		return nil
	}
	if _, ok := g.nodes[end]; !ok {
		return nil
	}
	if start == end {
		return []string{start}
	}

	visited := map[string]bool{start: true}
	queue := [][]string{{start}}

	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]
		last := path[len(path)-1]

		for _, next := range g.out[last] {
			if visited[next] {
				continue
			}
			visited[next] = true

			extended := make([]string, len(path), len(path)+1)
			copy(extended, path)
			extended = append(extended, next)

			if next == end {
				return extended
			}
			queue = append(queue, extended)
		}
	}
	return nil
}

// AllPaths enumerates every simple directed path from start to end with at
// most maxLength edges, in DFS discovery order. maxLength <= 0 falls back
// to a small default; the context deadline aborts long enumerations on
// dense graphs, returning the paths found so far along with ctx.Err().
func (g *Graph) AllPaths(ctx context.Context, start, end string, maxLength int) ([][]string, error) {
	if maxLength <= 0 {
		maxLength = defaultMaxPathLength
	}
	if _, ok := g.nodes[start]; !ok {
		return nil, nil
	}
	if _, ok := g.nodes[end]; !ok {
		return nil, nil
	}

	var paths [][]string
	onPath := map[string]bool{start: true}
	current := []string{start}

	var walk func(node string) error
	walk = func(node string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if node == end && len(current) > 1 {
			found := make([]string, len(current))
			copy(found, current)
			paths = append(paths, found)
			return nil
		}
		if len(current)-1 >= maxLength {
			return nil
		}
		for _, next := range g.out[node] {
			if onPath[next] && next != end {
				continue
			}
			if next == end {
				found := make([]string, len(current), len(current)+1)
				copy(found, current)
				paths = append(paths, append(found, end))
				continue
			}
			onPath[next] = true
			current = append(current, next)
			err := walk(next)
			current = current[:len(current)-1]
			delete(onPath, next)
			if err != nil {
				return err
			}
		}
		return nil
	}

	if start == end {
		// Cycles through the start node are still simple paths here.
		err := walk(start)
		return paths, err
	}
	err := walk(start)
	return paths, err
}

// PathConfidence scores a node-name path as the product of per-edge
// confidence factors, rounded to 4 decimal places. Consecutive pairs with
// no edge between them contribute nothing; the score only reflects edges
// the graph actually holds. Paths of fewer than two nodes score 0.0.
func (g *Graph) PathConfidence(path []string) float64 {
	if len(path) < 2 {
		return 0.0
	}

	confidence := 1.0
	for i := 0; i < len(path)-1; i++ {
		if e, ok := g.edges[edgeKey{From: path[i], To: path[i+1]}]; ok {
			confidence *= e.edgeFactor()
		}
	}
	return math.Round(confidence*10000) / 10000
}

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/cogpy/chainlex/pkg/graph"
	"github.com/cogpy/chainlex/pkg/index"
	"github.com/cogpy/chainlex/pkg/infer"
)

func buildTestIndex(t *testing.T) *index.Index {
	t.Helper()
	ix, _, err := index.Build([]index.Framework{
		{
			Code: "lv1", Name: "Principles", Level: 1,
			Records: []index.RuleRecord{
				{LocalName: "pacta-sunt-servanda", DocText: "Agreements must be kept.", FrameworkCode: "lv1"},
			},
		},
		{
			Code: "civ", Name: "Civil", Level: 2, Domains: []string{"contract"},
			Records: []index.RuleRecord{
				{LocalName: "contract-valid?", CrossReferences: []string{"pacta-sunt-servanda"}, FrameworkCode: "civ"},
				{LocalName: "breach-remedy?", CrossReferences: []string{"contract-valid?"}, FrameworkCode: "civ"},
			},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return ix
}

func TestFromChain(t *testing.T) {
	ix := buildTestIndex(t)
	chain := infer.New(ix).BuildChain("pacta-sunt-servanda", "contract-valid?")

	g := NewD3Transformer(ix).FromChain(chain)
	if len(g.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(g.Nodes))
	}
	if len(g.Links) != 1 {
		t.Fatalf("expected 1 link, got %d", len(g.Links))
	}

	if g.Nodes[0].ID != "lv1:pacta-sunt-servanda" || g.Nodes[0].Kind != "principle" {
		t.Errorf("unexpected principle node: %+v", g.Nodes[0])
	}
	if g.Nodes[0].Metadata["doc"] != "Agreements must be kept." {
		t.Errorf("doc text not attached: %+v", g.Nodes[0].Metadata)
	}
	if g.Links[0].Source != g.Nodes[0].ID || g.Links[0].Target != g.Nodes[1].ID {
		t.Errorf("unexpected link: %+v", g.Links[0])
	}
	if g.Links[0].Relation != "inference" {
		t.Errorf("unexpected relation: %s", g.Links[0].Relation)
	}
}

func TestFromChainEmpty(t *testing.T) {
	ix := buildTestIndex(t)
	g := NewD3Transformer(ix).FromChain(nil)
	if len(g.Nodes) != 0 || len(g.Links) != 0 {
		t.Errorf("empty chain should render an empty graph: %+v", g)
	}
}

func TestFromPath(t *testing.T) {
	ix := buildTestIndex(t)
	gr := graph.New(ix)

	path := gr.ShortestPath("lv1:pacta-sunt-servanda", "civ:breach-remedy?")
	if len(path) != 3 {
		t.Fatalf("unexpected path: %v", path)
	}

	g := NewD3Transformer(ix).FromPath(gr, path)
	if len(g.Nodes) != 3 || len(g.Links) != 2 {
		t.Fatalf("expected 3 nodes and 2 links, got %d/%d", len(g.Nodes), len(g.Links))
	}
	if g.Links[0].Relation != graph.EdgeDerivation {
		t.Errorf("expected derivation relation, got %s", g.Links[0].Relation)
	}
	if g.Nodes[1].Name != "contract-valid?" || g.Nodes[1].Group != "civ" {
		t.Errorf("index enrichment missing: %+v", g.Nodes[1])
	}
}

func TestFromSubgraph(t *testing.T) {
	ix := buildTestIndex(t)
	gr := graph.New(ix)

	g := NewD3Transformer(ix).FromSubgraph(gr, gr.DomainSubgraph("contract"))
	if len(g.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(g.Nodes))
	}
	if len(g.Links) != 1 {
		t.Fatalf("expected the induced edge only, got %d", len(g.Links))
	}

	empty := NewD3Transformer(ix).FromSubgraph(gr, nil)
	if len(empty.Nodes) != 0 {
		t.Errorf("nil subgraph should render empty, got %+v", empty)
	}
}

func TestSaveD3Graph(t *testing.T) {
	ix := buildTestIndex(t)
	chain := infer.New(ix).BuildChain("pacta-sunt-servanda", "contract-valid?")
	g := NewD3Transformer(ix).FromChain(chain)

	path := filepath.Join(t.TempDir(), "graph.json")
	if err := SaveD3Graph(g, path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var decoded D3Graph
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("written file is not valid JSON: %v", err)
	}
	if len(decoded.Nodes) != len(g.Nodes) {
		t.Errorf("node count changed across the round trip")
	}
}

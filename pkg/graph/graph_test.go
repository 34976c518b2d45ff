package graph

import (
	"context"
	"testing"

	"github.com/cogpy/chainlex/pkg/index"
	"github.com/cogpy/chainlex/pkg/infer"
)

// buildTestGraph wires a small corpus whose derivation edges form
//
//	lv1:pacta -> civ:valid -> civ:breach -> civ:cession
//	lv1:pacta -> civ:cession
//	lv1:good-faith -> civ:valid
//
// plus one dangling reference from civ:breach to an undefined name.
func buildTestGraph(t *testing.T) *Graph {
	t.Helper()
	ix, _, err := index.Build([]index.Framework{
		{
			Code: "lv1", Name: "Principles", Level: 1,
			Records: []index.RuleRecord{
				{LocalName: "pacta", FrameworkCode: "lv1"},
				{LocalName: "good-faith", FrameworkCode: "lv1"},
			},
		},
		{
			Code: "civ", Name: "Civil", Level: 2, Domains: []string{"contract"},
			Records: []index.RuleRecord{
				{LocalName: "valid", CrossReferences: []string{"pacta", "good-faith"}, FrameworkCode: "civ"},
				{LocalName: "breach", CrossReferences: []string{"valid"}, FrameworkCode: "civ"},
				{LocalName: "cession", CrossReferences: []string{"breach", "pacta", "ghost-rule"}, FrameworkCode: "civ"},
			},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return New(ix)
}

func TestNewFromIndex(t *testing.T) {
	g := buildTestGraph(t)

	// 5 records plus the dangling target.
	if g.NodeCount() != 6 {
		t.Fatalf("expected 6 nodes, got %d", g.NodeCount())
	}
	if g.EdgeCount() != 6 {
		t.Fatalf("expected 6 edges, got %d", g.EdgeCount())
	}

	n, ok := g.Node("lv1:pacta")
	if !ok || n.Type != infer.NodeTypePrinciple || n.Level != 1 {
		t.Errorf("unexpected principle node: %+v", n)
	}
	n, ok = g.Node("ghost-rule")
	if !ok || n.Type != NodeTypeExternal {
		t.Errorf("dangling target should be an external node: %+v", n)
	}

	// Edges run in derivation direction with typed relations.
	e, ok := g.Edge("lv1:pacta", "civ:valid")
	if !ok || e.Type != EdgeDerivation {
		t.Errorf("expected derivation edge from principle, got %+v", e)
	}
	e, ok = g.Edge("civ:valid", "civ:breach")
	if !ok || e.Type != EdgeReference {
		t.Errorf("expected reference edge between rules, got %+v", e)
	}
	if _, ok := g.Edge("civ:valid", "lv1:pacta"); ok {
		t.Error("edges must not exist in the referencing direction")
	}
}

func TestShortestPath(t *testing.T) {
	g := buildTestGraph(t)

	path := g.ShortestPath("lv1:pacta", "civ:cession")
	want := []string{"lv1:pacta", "civ:cession"}
	if len(path) != len(want) || path[0] != want[0] || path[1] != want[1] {
		t.Errorf("expected the direct edge %v, got %v", want, path)
	}

	path = g.ShortestPath("lv1:good-faith", "civ:cession")
	if len(path) != 4 {
		t.Errorf("expected 4-node path, got %v", path)
	}

	if got := g.ShortestPath("civ:cession", "lv1:pacta"); got != nil {
		t.Errorf("no reverse path expected, got %v", got)
	}
	if got := g.ShortestPath("lv1:pacta", "missing"); got != nil {
		t.Errorf("unknown endpoint should yield nil, got %v", got)
	}
	if got := g.ShortestPath("lv1:pacta", "lv1:pacta"); len(got) != 1 {
		t.Errorf("trivial path should be the single node, got %v", got)
	}
}

func TestAllPaths(t *testing.T) {
	g := buildTestGraph(t)
	ctx := context.Background()

	paths, err := g.AllPaths(ctx, "lv1:pacta", "civ:cession", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 2 {
		t.Fatalf("expected 2 paths, got %v", paths)
	}

	// Length bound prunes the longer route.
	paths, err = g.AllPaths(ctx, "lv1:pacta", "civ:cession", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 1 || len(paths[0]) != 2 {
		t.Fatalf("expected only the direct edge, got %v", paths)
	}
}

func TestAllPathsCycleSafe(t *testing.T) {
	// A -> B -> C -> A cycle plus a direct A -> D edge. Enumeration must
	// terminate and return only the simple path.
	ix, _, err := index.Build([]index.Framework{
		{
			Code: "x", Name: "X", Level: 2,
			Records: []index.RuleRecord{
				{LocalName: "a", CrossReferences: []string{"c"}, FrameworkCode: "x"},
				{LocalName: "b", CrossReferences: []string{"a"}, FrameworkCode: "x"},
				{LocalName: "c", CrossReferences: []string{"b"}, FrameworkCode: "x"},
				{LocalName: "d", CrossReferences: []string{"a"}, FrameworkCode: "x"},
			},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	g := New(ix)

	paths, err := g.AllPaths(context.Background(), "x:a", "x:d", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 1 || len(paths[0]) != 2 {
		t.Fatalf("expected exactly the direct path, got %v", paths)
	}
}

func TestAllPathsHonorsContext(t *testing.T) {
	g := buildTestGraph(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.AllPaths(ctx, "lv1:pacta", "civ:cession", 5)
	if err == nil {
		t.Error("cancelled context should surface as an error")
	}
}

func TestPathConfidence(t *testing.T) {
	g := buildTestGraph(t)

	// Two unannotated edges at the deductive default.
	got := g.PathConfidence([]string{"lv1:pacta", "civ:valid", "civ:breach"})
	if got != 0.9025 {
		t.Errorf("PathConfidence = %v, want 0.9025", got)
	}

	// Absent edges are skipped silently.
	got = g.PathConfidence([]string{"lv1:pacta", "civ:breach"})
	if got != 1.0 {
		t.Errorf("missing edge should contribute nothing, got %v", got)
	}

	if got := g.PathConfidence([]string{"lv1:pacta"}); got != 0.0 {
		t.Errorf("single-node path scores 0.0, got %v", got)
	}
}

func TestApplyAnnotations(t *testing.T) {
	g := buildTestGraph(t)

	g.ApplyAnnotations([]Annotation{
		{From: "lv1:pacta", To: "civ:valid", InferenceType: infer.Inductive},
		{From: "civ:valid", To: "civ:breach", Weight: 0.5},
		{From: "no", To: "edge", Weight: 0.1}, // ignored
	})

	got := g.PathConfidence([]string{"lv1:pacta", "civ:valid", "civ:breach"})
	if got != 0.4 {
		t.Errorf("annotated path confidence = %v, want 0.4", got)
	}
	if g.EdgeCount() != 6 {
		t.Error("annotations must never create edges")
	}
}

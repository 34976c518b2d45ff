package infer

import (
	"strings"
	"testing"

	"github.com/cogpy/chainlex/pkg/index"
)

func buildTestEngine(t *testing.T) *Engine {
	t.Helper()
	ix, _, err := index.Build([]index.Framework{
		{
			Code: "lv1", Name: "Principles", Level: 1,
			Records: []index.RuleRecord{
				{LocalName: "pacta-sunt-servanda", DocText: "Agreements must be kept.", FrameworkCode: "lv1"},
				{LocalName: "good-faith", FrameworkCode: "lv1"},
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
	return New(ix)
}

func TestBuildChainDirectReference(t *testing.T) {
	e := buildTestEngine(t)

	chain := e.BuildChain("pacta-sunt-servanda", "contract-valid?")
	if len(chain) != 2 {
		t.Fatalf("expected a 2-node chain, got %d", len(chain))
	}
	if chain[0].Name != "pacta-sunt-servanda" || chain[0].Type != NodeTypePrinciple || chain[0].Level != 1 {
		t.Errorf("unexpected principle node: %+v", chain[0])
	}
	if chain[1].Name != "contract-valid?" || chain[1].Type != NodeTypeRule || chain[1].Level != 2 {
		t.Errorf("unexpected target node: %+v", chain[1])
	}
	if chain[1].Record == nil || chain[1].Record.QualifiedName != "civ:contract-valid?" {
		t.Error("target node should carry its record")
	}
}

func TestBuildChainNoDirectReference(t *testing.T) {
	e := buildTestEngine(t)

	// breach-remedy? only references contract-valid?; the indirect route
	// through it does not make a direct chain.
	if chain := e.BuildChain("pacta-sunt-servanda", "breach-remedy?"); chain != nil {
		t.Errorf("expected no chain without a direct reference, got %v", chain)
	}
	if chain := e.BuildChain("good-faith", "contract-valid?"); chain != nil {
		t.Errorf("expected no chain for unreferenced principle, got %v", chain)
	}
	if chain := e.BuildChain("pacta-sunt-servanda", "no-such-rule"); chain != nil {
		t.Errorf("expected no chain for unknown target, got %v", chain)
	}
}

func TestConfidence(t *testing.T) {
	twoNodes := Chain{{Name: "a"}, {Name: "b"}}
	threeNodes := Chain{{Name: "a"}, {Name: "b"}, {Name: "c"}}

	cases := []struct {
		name  string
		chain Chain
		types []string
		want  float64
	}{
		{"empty chain", nil, nil, 0.0},
		{"single edge deductive", twoNodes, nil, 0.95},
		{"two edges deductive", threeNodes, nil, 0.9025},
		{"explicit inductive", twoNodes, []string{"inductive"}, 0.80},
		{"mixed types", threeNodes, []string{"deductive", "abductive"}, 0.665},
		{"unknown type defaults", twoNodes, []string{"telepathic"}, 0.95},
		{"single node", Chain{{Name: "a"}}, nil, 1.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Confidence(tc.chain, tc.types); got != tc.want {
				t.Errorf("Confidence = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestConfidenceRounding(t *testing.T) {
	chain := Chain{{}, {}, {}, {}, {}} // 4 edges
	got := Confidence(chain, nil)
	// 0.95^4 = 0.81450625 rounds to 4 decimal places.
	if got != 0.8145 {
		t.Errorf("Confidence = %v, want 0.8145", got)
	}
}

func TestExplain(t *testing.T) {
	e := buildTestEngine(t)
	chain := e.BuildChain("pacta-sunt-servanda", "contract-valid?")

	text := Explain(chain)
	lines := strings.Split(text, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), text)
	}
	if lines[0] != "Level 1: pacta-sunt-servanda (principle)" {
		t.Errorf("unexpected first line: %q", lines[0])
	}
	if !strings.Contains(lines[1], "(inference)") {
		t.Errorf("unexpected arrow line: %q", lines[1])
	}
	if lines[2] != "Level 2: contract-valid? (rule)" {
		t.Errorf("unexpected last line: %q", lines[2])
	}
}

func TestExplainEmptyChain(t *testing.T) {
	if got := Explain(nil); got != "No inference chain found" {
		t.Errorf("unexpected empty-chain explanation: %q", got)
	}
}

func TestFactor(t *testing.T) {
	if Factor(Analogical) != 0.65 {
		t.Errorf("analogical factor = %v", Factor(Analogical))
	}
	if Factor("unknown") != DefaultFactor {
		t.Errorf("unknown type should use the default factor")
	}
}

// Package infer builds inference chains from foundational principles to
// derived rules and scores them with calibrated confidence factors.
package infer

import (
	"fmt"
	"math"
	"strings"

	"github.com/cogpy/chainlex/pkg/index"
)

// Node types within a chain.
const (
	NodeTypePrinciple = "principle"
	NodeTypeRule      = "rule"
)

// Inference types and their per-step confidence factors.
const (
	Deductive  = "deductive"
	Inductive  = "inductive"
	Abductive  = "abductive"
	Analogical = "analogical"

	// DefaultFactor applies to deductive steps and to unknown inference
	// types. Externally supplied edge weights override it.
	DefaultFactor = 0.95
)

// Factors maps inference types to per-step confidence factors. Every factor
// is <= 1.0, so confidence is non-increasing in chain length.
var Factors = map[string]float64{
	Deductive:  0.95,
	Inductive:  0.80,
	Abductive:  0.70,
	Analogical: 0.65,
}

// Factor returns the confidence factor for an inference type, defaulting
// unknown types to DefaultFactor.
func Factor(inferenceType string) float64 {
	if f, ok := Factors[inferenceType]; ok {
		return f
	}
	return DefaultFactor
}

// Node is one step of an inference chain.
type Node struct {
	Name   string            `json:"name"`
	Level  int               `json:"level"`
	Type   string            `json:"type"`
	Record *index.RuleRecord `json:"record,omitempty"`
}

// Chain is an ordered node sequence: position 0 is a principle, the final
// position is the target. Edges between consecutive nodes are implied by
// the cross-reference relation.
type Chain []Node

// Engine builds and scores chains against one immutable index.
type Engine struct {
	ix *index.Index
}

// New creates an inference engine over the given index.
func New(ix *index.Index) *Engine {
	return &Engine{ix: ix}
}

// BuildChain returns the direct two-node chain from a principle to the
// record whose local name is targetName, or nil when the target does not
// list the principle among its cross-references. Absence of a direct
// reference is "no chain", not an error, even if an indirect path exists;
// multi-hop discovery is the graph package's job and callers choose
// explicitly between the two.
func (e *Engine) BuildChain(principleName, targetName string) Chain {
	target, ok := e.findByLocalName(targetName)
	if !ok {
		return nil
	}

	referenced := false
	for _, ref := range target.CrossReferences {
		if ref == principleName {
			referenced = true
			break
		}
	}
	if !referenced {
		return nil
	}

	principleNode := Node{Name: principleName, Level: 1, Type: NodeTypePrinciple}
	if p, ok := e.ix.Principle(principleName); ok {
		principleNode.Record = p
		if fw, ok := e.ix.Framework(p.FrameworkCode); ok {
			principleNode.Level = fw.Level
		}
	}

	targetNode := Node{Name: targetName, Level: 2, Type: NodeTypeRule, Record: target}
	if fw, ok := e.ix.Framework(target.FrameworkCode); ok {
		targetNode.Level = fw.Level
	}
	if target.IsPrinciple {
		targetNode.Type = NodeTypePrinciple
	}

	return Chain{principleNode, targetNode}
}

// findByLocalName scans records in discovery order; first match wins.
func (e *Engine) findByLocalName(name string) (*index.RuleRecord, bool) {
	for _, qn := range e.ix.Order() {
		if rec, ok := e.ix.Record(qn); ok && rec.LocalName == name {
			return rec, true
		}
	}
	return nil, false
}

// Confidence computes the composite confidence of a chain. With explicit
// inferenceTypes, each supplied type contributes its factor; otherwise
// every edge counts as deductive. An empty chain yields exactly 0.0. The
// result is rounded to 4 decimal places.
func Confidence(chain Chain, inferenceTypes []string) float64 {
	if len(chain) == 0 {
		return 0.0
	}

	confidence := 1.0
	if len(inferenceTypes) > 0 {
		for _, t := range inferenceTypes {
			confidence *= Factor(t)
		}
	} else {
		confidence *= math.Pow(DefaultFactor, float64(len(chain)-1))
	}

	return math.Round(confidence*10000) / 10000
}

// explainArrow separates consecutive nodes in a rendered chain.
const explainArrow = "   ↓ (inference)"

// Explain renders a human-readable explanation of the chain.
func Explain(chain Chain) string {
	if len(chain) == 0 {
		return "No inference chain found"
	}

	var lines []string
	for i, node := range chain {
		lines = append(lines, fmt.Sprintf("Level %d: %s (%s)", node.Level, node.Name, node.Type))
		if i < len(chain)-1 {
			lines = append(lines, explainArrow)
		}
	}
	return strings.Join(lines, "\n")
}

// Package query implements the read-only query engine over a built index:
// ranked keyword search, domain filters and reverse lookups. Every
// operation is a pure function over immutable state.
package query

import (
	"strings"

	"github.com/cogpy/chainlex/pkg/index"
)

// Relevance ranks how a record matched a search query.
type Relevance string

const (
	// RelevanceExact is a full case-insensitive local-name match.
	RelevanceExact Relevance = "exact"
	// RelevancePartial is a local-name substring match.
	RelevancePartial Relevance = "partial"
	// RelevanceDescription is a doc-text-only match.
	RelevanceDescription Relevance = "description"
)

// SearchResult pairs a matched record with its relevance class.
type SearchResult struct {
	Record    *index.RuleRecord `json:"record"`
	Relevance Relevance         `json:"relevance"`
}

// SearchResponse is the combined search result consumed by the API
// boundary: principles and rules reported separately.
type SearchResponse struct {
	Principles []SearchResult `json:"principles"`
	Rules      []SearchResult `json:"rules"`
}

// Engine answers queries against one immutable index.
type Engine struct {
	ix *index.Index
}

// New creates a query engine over the given index.
func New(ix *index.Index) *Engine {
	return &Engine{ix: ix}
}

// SearchByKeyword finds records whose local name or doc text contains the
// query, case-insensitively. Exact name matches rank above partial name
// matches, which rank above doc-text matches; within a rank, index
// insertion order is preserved. A non-empty domain restricts candidates to
// records whose framework declares that domain.
func (e *Engine) SearchByKeyword(query, domain string) []SearchResult {
	q := strings.ToLower(query)
	if q == "" {
		return nil
	}

	candidates := e.ix.Order()
	if domain != "" {
		candidates = e.ix.DomainRecords(domain)
	}

	var exact, partial, description []SearchResult
	for _, qn := range candidates {
		rec, ok := e.ix.Record(qn)
		if !ok {
			continue
		}
		name := strings.ToLower(rec.LocalName)
		switch {
		case name == q:
			exact = append(exact, SearchResult{Record: rec, Relevance: RelevanceExact})
		case strings.Contains(name, q):
			partial = append(partial, SearchResult{Record: rec, Relevance: RelevancePartial})
		case strings.Contains(strings.ToLower(rec.DocText), q):
			description = append(description, SearchResult{Record: rec, Relevance: RelevanceDescription})
		}
	}

	results := make([]SearchResult, 0, len(exact)+len(partial)+len(description))
	results = append(results, exact...)
	results = append(results, partial...)
	results = append(results, description...)
	return results
}

// SearchPrinciples matches the principle subset by name or doc text, in
// principle discovery order.
func (e *Engine) SearchPrinciples(query string) []SearchResult {
	q := strings.ToLower(query)
	if q == "" {
		return nil
	}

	var results []SearchResult
	for _, name := range e.ix.PrincipleNames() {
		rec, ok := e.ix.Principle(name)
		if !ok {
			continue
		}
		lower := strings.ToLower(rec.LocalName)
		switch {
		case lower == q:
			results = append(results, SearchResult{Record: rec, Relevance: RelevanceExact})
		case strings.Contains(lower, q):
			results = append(results, SearchResult{Record: rec, Relevance: RelevancePartial})
		case strings.Contains(strings.ToLower(rec.DocText), q):
			results = append(results, SearchResult{Record: rec, Relevance: RelevanceDescription})
		}
	}
	return results
}

// Search is the universal entry point of the query API boundary: principles
// and rules matched separately, rules optionally filtered by domain.
func (e *Engine) Search(query, domain string) *SearchResponse {
	return &SearchResponse{
		Principles: e.SearchPrinciples(query),
		Rules:      e.SearchByKeyword(query, domain),
	}
}

// PrinciplesForDomain returns the principles referenced by at least one
// record tagged with the domain, deduplicated, first-seen order preserved.
func (e *Engine) PrinciplesForDomain(domain string) []*index.RuleRecord {
	seen := make(map[string]bool)
	var principles []*index.RuleRecord

	for _, qn := range e.ix.DomainRecords(domain) {
		rec, ok := e.ix.Record(qn)
		if !ok {
			continue
		}
		for _, ref := range rec.CrossReferences {
			if seen[ref] {
				continue
			}
			if p, ok := e.ix.Principle(ref); ok {
				seen[ref] = true
				principles = append(principles, p)
			}
		}
	}
	return principles
}

// RulesDerivedFrom returns every record whose cross-references include the
// given principle name, in reverse-index discovery order. This is a direct
// reverse-index lookup, not a graph search.
func (e *Engine) RulesDerivedFrom(principleName string) []*index.RuleRecord {
	var rules []*index.RuleRecord
	for _, qn := range e.ix.Referrers(principleName) {
		if rec, ok := e.ix.Record(qn); ok {
			rules = append(rules, rec)
		}
	}
	return rules
}

// Principle looks up a Level-1 principle by local name.
func (e *Engine) Principle(name string) (*index.RuleRecord, bool) {
	return e.ix.Principle(name)
}

// Record looks up a record by qualified name.
func (e *Engine) Record(qualifiedName string) (*index.RuleRecord, bool) {
	return e.ix.Record(qualifiedName)
}

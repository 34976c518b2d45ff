package query

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
)

// suggestThreshold filters out irrelevant candidates.
const suggestThreshold = 0.3

// nameMatch is a scored suggestion candidate.
type nameMatch struct {
	Name  string
	Score float64
}

// Suggest returns up to limit record names similar to the query, for
// autocomplete and did-you-mean responses. It combines exact/substring
// checks, global Levenshtein distance and token-wise fuzzy matching, so
// "pacta servanda" still finds "pacta-sunt-servanda".
func (e *Engine) Suggest(query string, limit int) []string {
	if limit <= 0 {
		limit = 10
	}
	candidates := e.ix.Order()
	return rankBySimilarity(query, candidates, limit)
}

func rankBySimilarity(query string, candidates []string, limit int) []string {
	if query == "" || len(candidates) == 0 {
		return nil
	}

	queryLower := strings.ToLower(query)
	queryTokens := tokenize(queryLower)

	var results []nameMatch
	for _, name := range candidates {
		if name == "" {
			continue
		}
		score := similarityScore(queryLower, queryTokens, name)
		if score > suggestThreshold {
			results = append(results, nameMatch{Name: name, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > limit {
		results = results[:limit]
	}
	names := make([]string, len(results))
	for i, r := range results {
		names[i] = r.Name
	}
	return names
}

// similarityScore returns a score between 0 and 1 combining exact match,
// Levenshtein distance and token-wise fuzzy matching.
func similarityScore(queryLower string, queryTokens map[string]bool, name string) float64 {
	nameLower := strings.ToLower(name)

	if queryLower == nameLower {
		return 1.0
	}
	if strings.Contains(nameLower, queryLower) {
		return 0.95 // Substring match is very strong
	}

	// Global Levenshtein: good for near-complete names.
	levDist := levenshtein.Distance(queryLower, nameLower, nil)
	maxLen := float64(len(queryLower))
	if len(nameLower) > int(maxLen) {
		maxLen = float64(len(nameLower))
	}
	globalScore := 1.0 - (float64(levDist) / maxLen)
	if globalScore < 0 {
		globalScore = 0
	}

	// Token-wise fuzzy matching: handles "contract valid" against
	// "civ:contract-valid?" and typos within a single token.
	nameTokens := tokenize(nameLower)
	totalTokenScore := 0.0
	for qToken := range queryTokens {
		best := 0.0
		if nameTokens[qToken] {
			best = 1.0
		} else {
			for nToken := range nameTokens {
				dist := levenshtein.Distance(qToken, nToken, nil)
				tMax := float64(len(qToken))
				if len(nToken) > int(tMax) {
					tMax = float64(len(nToken))
				}
				if s := 1.0 - (float64(dist) / tMax); s > best {
					best = s
				}
			}
		}
		totalTokenScore += best
	}

	tokenScore := 0.0
	if len(queryTokens) > 0 {
		tokenScore = totalTokenScore / float64(len(queryTokens))
	}

	return math.Max(globalScore, tokenScore)
}

// tokenize splits a name into unique lower-case tokens on non-alphanumeric
// separators (hyphens, colons, the predicate marker).
func tokenize(s string) map[string]bool {
	tokens := make(map[string]bool)
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			token := current.String()
			if len(token) > 2 || len(s) < 10 {
				tokens[token] = true
			}
			current.Reset()
		}
	}

	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

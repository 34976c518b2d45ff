package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cogpy/chainlex/internal/manager"
	"github.com/cogpy/chainlex/pkg/common/errors"
	"github.com/cogpy/chainlex/pkg/export"
	"github.com/cogpy/chainlex/pkg/graph"
	"github.com/cogpy/chainlex/pkg/index"
	"github.com/cogpy/chainlex/pkg/infer"
	"github.com/cogpy/chainlex/pkg/query"
)

// allPathsTimeout bounds exhaustive path enumeration per request.
const allPathsTimeout = 5 * time.Second

// handleError helper
func handleError(c *gin.Context, err error) {
	appErr := errors.MapError(err)
	c.JSON(appErr.Code, gin.H{"error": appErr.Message})
}

// corpus resolves the ?corpus= parameter to an open corpus, defaulting to
// the first listed one.
func (s *Server) corpus(c *gin.Context) (*manager.Corpus, bool) {
	corpusID := c.Query("corpus")
	if corpusID == "" {
		list, err := s.manager.List()
		if err != nil || len(list) == 0 {
			handleError(c, errors.NewAppError(http.StatusBadRequest, "Missing corpus parameter", err))
			return nil, false
		}
		corpusID = list[0].ID
	}

	corp, err := s.manager.Get(corpusID)
	if err != nil {
		handleError(c, errors.NewAppError(http.StatusNotFound, err.Error(), err))
		return nil, false
	}
	return corp, true
}

// view resolves the corpus and its current index generation in one step.
func (s *Server) view(c *gin.Context) (*manager.Corpus, *index.Index, bool) {
	corp, ok := s.corpus(c)
	if !ok {
		return nil, nil, false
	}
	ix, err := corp.Index()
	if err != nil {
		handleError(c, err)
		return nil, nil, false
	}
	return corp, ix, true
}

// handleCorpora returns a list of available corpora.
func (s *Server) handleCorpora(c *gin.Context) {
	corpora, err := s.manager.List()
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, corpora)
}

// handleSearch performs keyword search, principles and rules reported
// separately. GET /v1/search?q=contract&domain=contracts
func (s *Server) handleSearch(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Missing q parameter", nil))
		return
	}

	_, ix, ok := s.view(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, query.New(ix).Search(q, c.Query("domain")))
}

// handleSuggest returns fuzzy name suggestions for autocomplete.
func (s *Server) handleSuggest(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Missing q parameter", nil))
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 {
		limit = 10
	}

	_, ix, ok := s.view(c)
	if !ok {
		return
	}
	suggestions := query.New(ix).Suggest(q, limit)
	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// handlePrinciples serves the principle subset: looked up by name,
// searched by q, or aggregated per domain.
func (s *Server) handlePrinciples(c *gin.Context) {
	_, ix, ok := s.view(c)
	if !ok {
		return
	}
	eng := query.New(ix)

	if name := c.Query("name"); name != "" {
		p, found := eng.Principle(name)
		if !found {
			handleError(c, errors.NewAppError(http.StatusNotFound, "Principle not found: "+name, nil))
			return
		}
		c.JSON(http.StatusOK, p)
		return
	}

	if domain := c.Query("domain"); domain != "" {
		principles := eng.PrinciplesForDomain(domain)
		c.JSON(http.StatusOK, gin.H{"domain": domain, "principles": principles})
		return
	}

	if q := c.Query("q"); q != "" {
		c.JSON(http.StatusOK, gin.H{"principles": eng.SearchPrinciples(q)})
		return
	}

	var all []*index.RuleRecord
	for _, name := range ix.PrincipleNames() {
		if p, found := ix.Principle(name); found {
			all = append(all, p)
		}
	}
	c.JSON(http.StatusOK, gin.H{"principles": all})
}

// handleRulesDerived returns every record that cross-references the given
// principle. GET /v1/rules/derived?principle=pacta-sunt-servanda
func (s *Server) handleRulesDerived(c *gin.Context) {
	principle := c.Query("principle")
	if principle == "" {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Missing principle parameter", nil))
		return
	}

	_, ix, ok := s.view(c)
	if !ok {
		return
	}
	rules := query.New(ix).RulesDerivedFrom(principle)
	c.JSON(http.StatusOK, gin.H{"principle": principle, "rules": rules, "count": len(rules)})
}

// handleChain builds the direct inference chain from a principle to a
// target and scores it. GET /v1/chain?principle=X&target=Y
func (s *Server) handleChain(c *gin.Context) {
	principle := c.Query("principle")
	target := c.Query("target")
	if principle == "" || target == "" {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Missing principle/target parameters", nil))
		return
	}

	_, ix, ok := s.view(c)
	if !ok {
		return
	}

	chain := infer.New(ix).BuildChain(principle, target)
	resp := gin.H{
		"chain":       chain,
		"confidence":  infer.Confidence(chain, nil),
		"explanation": infer.Explain(chain),
	}
	if c.Query("format") == "d3" {
		resp["graph"] = export.NewD3Transformer(ix).FromChain(chain)
	}
	c.JSON(http.StatusOK, resp)
}

// handleChainConfidence scores an explicit chain with per-step inference
// types. POST /v1/chain/confidence
func (s *Server) handleChainConfidence(c *gin.Context) {
	var req struct {
		Chain          []string `json:"chain"`
		InferenceTypes []string `json:"inference_types"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Invalid request body", err))
		return
	}

	_, ix, ok := s.view(c)
	if !ok {
		return
	}

	chain := make(infer.Chain, 0, len(req.Chain))
	for _, name := range req.Chain {
		node := infer.Node{Name: name, Type: infer.NodeTypeRule}
		if rec, found := ix.Record(name); found {
			node.Record = rec
			if rec.IsPrinciple {
				node.Type = infer.NodeTypePrinciple
			}
			if fw, found := ix.Framework(rec.FrameworkCode); found {
				node.Level = fw.Level
			}
		}
		chain = append(chain, node)
	}

	c.JSON(http.StatusOK, gin.H{
		"confidence":  infer.Confidence(chain, req.InferenceTypes),
		"explanation": infer.Explain(chain),
	})
}

// handleGraphPath returns one shortest path between two nodes.
func (s *Server) handleGraphPath(c *gin.Context) {
	source := c.Query("source")
	target := c.Query("target")
	if source == "" || target == "" {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Missing source/target parameters", nil))
		return
	}

	corp, ix, ok := s.view(c)
	if !ok {
		return
	}
	g, err := corp.Graph()
	if err != nil {
		handleError(c, err)
		return
	}

	path := g.ShortestPath(source, target)
	resp := gin.H{
		"path":       path,
		"confidence": g.PathConfidence(path),
	}
	if c.Query("format") == "d3" {
		resp["graph"] = export.NewD3Transformer(ix).FromPath(g, path)
	}
	c.JSON(http.StatusOK, resp)
}

// handleGraphPaths enumerates all simple paths up to a maximum length.
func (s *Server) handleGraphPaths(c *gin.Context) {
	source := c.Query("source")
	target := c.Query("target")
	if source == "" || target == "" {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Missing source/target parameters", nil))
		return
	}
	maxLength, err := strconv.Atoi(c.DefaultQuery("max_length", "5"))
	if err != nil || maxLength <= 0 {
		maxLength = 5
	}

	corp, _, ok := s.view(c)
	if !ok {
		return
	}
	g, err := corp.Graph()
	if err != nil {
		handleError(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), allPathsTimeout)
	defer cancel()

	paths, err := g.AllPaths(ctx, source, target, maxLength)
	truncated := err != nil

	scored := make([]gin.H, 0, len(paths))
	for _, p := range paths {
		scored = append(scored, gin.H{"path": p, "confidence": g.PathConfidence(p)})
	}
	c.JSON(http.StatusOK, gin.H{"paths": scored, "count": len(scored), "truncated": truncated})
}

// handleGraphNeighbors returns adjacent nodes, filtered by direction.
func (s *Server) handleGraphNeighbors(c *gin.Context) {
	node := c.Query("node")
	if node == "" {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Missing node parameter", nil))
		return
	}
	dir := graph.Direction(c.DefaultQuery("direction", string(graph.DirectionBoth)))
	switch dir {
	case graph.DirectionIncoming, graph.DirectionOutgoing, graph.DirectionBoth:
	default:
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Invalid direction: "+string(dir), nil))
		return
	}

	corp, _, ok := s.view(c)
	if !ok {
		return
	}
	g, err := corp.Graph()
	if err != nil {
		handleError(c, err)
		return
	}

	neighbors := g.Neighbors(node, dir)
	c.JSON(http.StatusOK, gin.H{"node": node, "neighbors": neighbors, "count": len(neighbors)})
}

// handleGraphRelated returns nodes within a bounded undirected distance.
func (s *Server) handleGraphRelated(c *gin.Context) {
	node := c.Query("node")
	if node == "" {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Missing node parameter", nil))
		return
	}
	distance, err := strconv.Atoi(c.DefaultQuery("distance", "2"))
	if err != nil || distance <= 0 {
		distance = 2
	}

	corp, _, ok := s.view(c)
	if !ok {
		return
	}
	g, err := corp.Graph()
	if err != nil {
		handleError(c, err)
		return
	}

	related := g.RelatedWithinDistance(node, distance)
	c.JSON(http.StatusOK, gin.H{"node": node, "related": related, "count": len(related)})
}

// handleGraphCentrality ranks the most central nodes.
func (s *Server) handleGraphCentrality(c *gin.Context) {
	n, err := strconv.Atoi(c.DefaultQuery("top", "10"))
	if err != nil || n <= 0 {
		n = 10
	}

	corp, _, ok := s.view(c)
	if !ok {
		return
	}
	g, err := corp.Graph()
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"scores": g.Centrality(n)})
}

// handleGraphSubgraph summarizes the subgraph induced by one domain.
func (s *Server) handleGraphSubgraph(c *gin.Context) {
	domain := c.Query("domain")
	if domain == "" {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Missing domain parameter", nil))
		return
	}

	corp, ix, ok := s.view(c)
	if !ok {
		return
	}
	g, err := corp.Graph()
	if err != nil {
		handleError(c, err)
		return
	}

	sub := g.DomainSubgraph(domain)
	if sub == nil {
		handleError(c, errors.NewAppError(http.StatusNotFound, "No nodes in domain: "+domain, nil))
		return
	}
	if c.Query("format") == "d3" {
		c.JSON(http.StatusOK, export.NewD3Transformer(ix).FromSubgraph(g, sub))
		return
	}
	c.JSON(http.StatusOK, sub)
}

// handleGraphAnnotations accepts externally computed edge annotations
// (inference types and weights). The index is never mutated; only the
// adjacency view's edge metadata changes.
func (s *Server) handleGraphAnnotations(c *gin.Context) {
	var req struct {
		Annotations []graph.Annotation `json:"annotations"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Invalid request body", err))
		return
	}
	if len(req.Annotations) == 0 {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "No annotations supplied", nil))
		return
	}

	corp, ok := s.corpus(c)
	if !ok {
		return
	}
	if err := corp.Annotate(req.Annotations); err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"applied": len(req.Annotations)})
}

// handleValidation returns the validation report from the last build.
func (s *Server) handleValidation(c *gin.Context) {
	_, ix, ok := s.view(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ix.Report())
}

// handleStats returns corpus statistics.
func (s *Server) handleStats(c *gin.Context) {
	_, ix, ok := s.view(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ix.Stats())
}

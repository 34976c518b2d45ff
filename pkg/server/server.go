// Package server exposes the query, inference and graph engines over a
// REST API.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cogpy/chainlex/internal/manager"
)

// Server holds the state for the REST API server.
type Server struct {
	manager *manager.CorpusManager
	router  *gin.Engine
}

// NewServer creates a new Server instance.
func NewServer(mgr *manager.CorpusManager) *Server {
	r := gin.Default()
	s := &Server{
		manager: mgr,
		router:  r,
	}
	s.setupRoutes()
	return s
}

// Run starts the server on the specified address.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Router exposes the gin engine for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/v1/corpora", s.handleCorpora)
	s.router.GET("/v1/search", s.handleSearch)
	s.router.GET("/v1/suggest", s.handleSuggest)
	s.router.GET("/v1/principles", s.handlePrinciples)
	s.router.GET("/v1/rules/derived", s.handleRulesDerived)
	s.router.GET("/v1/chain", s.handleChain)
	s.router.POST("/v1/chain/confidence", s.handleChainConfidence)
	s.router.GET("/v1/graph/path", s.handleGraphPath)
	s.router.GET("/v1/graph/paths", s.handleGraphPaths)
	s.router.GET("/v1/graph/neighbors", s.handleGraphNeighbors)
	s.router.GET("/v1/graph/related", s.handleGraphRelated)
	s.router.GET("/v1/graph/centrality", s.handleGraphCentrality)
	s.router.GET("/v1/graph/subgraph", s.handleGraphSubgraph)
	s.router.POST("/v1/graph/annotations", s.handleGraphAnnotations)
	s.router.GET("/v1/validation", s.handleValidation)
	s.router.GET("/v1/stats", s.handleStats)
}

// Health check
func (s *Server) healthCheck(c *gin.Context) {
	c.Status(http.StatusOK)
}

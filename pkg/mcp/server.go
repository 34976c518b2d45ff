// Package mcp exposes the knowledge index over the Model Context Protocol
// so AI assistants can query principles, rules and inference chains.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/cogpy/chainlex/internal/manager"
	"github.com/cogpy/chainlex/pkg/graph"
	"github.com/cogpy/chainlex/pkg/infer"
	"github.com/cogpy/chainlex/pkg/query"
)

// MCPServer wraps one open corpus to expose it via MCP.
type MCPServer struct {
	corpus *manager.Corpus
}

// Run starts the MCP server on Stdio, serving the given corpus.
func Run(ctx context.Context, corpus *manager.Corpus) error {
	s := server.NewMCPServer(
		"ChainLex-Backend",
		"0.1.0",
		server.WithResourceCapabilities(true, true),
		server.WithLogging(),
	)

	ms := &MCPServer{corpus: corpus}

	// --- Resources ---

	s.AddResource(
		mcp.NewResource(
			"chainlex://corpus/stats",
			"Corpus Statistics",
			mcp.WithResourceDescription("Record, principle and domain counts for the corpus"),
			mcp.WithMIMEType("application/json"),
		),
		ms.handleStats,
	)

	s.AddResource(
		mcp.NewResource(
			"chainlex://corpus/validation",
			"Validation Report",
			mcp.WithResourceDescription("Name uniqueness and cross-reference integrity report from the last build"),
			mcp.WithMIMEType("application/json"),
		),
		ms.handleValidation,
	)

	s.AddResource(
		mcp.NewResource(
			"chainlex://schema/conventions",
			"Schema Conventions",
			mcp.WithResourceDescription("Naming conventions and relationship semantics for the knowledge index"),
			mcp.WithMIMEType("text/markdown"),
		),
		ms.handleSchemaConventions,
	)

	// --- Tools ---

	s.AddTool(
		mcp.NewTool(
			"search_rules",
			mcp.WithDescription("Search legal rules and principles by keyword, optionally filtered by domain."),
			mcp.WithString("query", mcp.Required(), mcp.Description("The search query string")),
			mcp.WithString("domain", mcp.Description("Restrict matches to one legal domain (e.g. contracts)")),
		),
		ms.handleSearchRules,
	)

	s.AddTool(
		mcp.NewTool(
			"get_principle",
			mcp.WithDescription("Look up a Level-1 foundational principle by name."),
			mcp.WithString("name", mcp.Required(), mcp.Description("The principle's local name")),
		),
		ms.handleGetPrinciple,
	)

	s.AddTool(
		mcp.NewTool(
			"get_derived_rules",
			mcp.WithDescription("List every rule that cross-references a given principle."),
			mcp.WithString("principle", mcp.Required(), mcp.Description("The principle's local name")),
		),
		ms.handleGetDerivedRules,
	)

	s.AddTool(
		mcp.NewTool(
			"build_inference_chain",
			mcp.WithDescription("Build the direct inference chain from a principle to a target rule, with calibrated confidence and a step-by-step explanation."),
			mcp.WithString("principle", mcp.Required(), mcp.Description("The principle's local name")),
			mcp.WithString("target", mcp.Required(), mcp.Description("The target rule's local name")),
		),
		ms.handleBuildChain,
	)

	s.AddTool(
		mcp.NewTool(
			"trace_path",
			mcp.WithDescription("Trace the shortest derivation path between two nodes in the cross-reference graph."),
			mcp.WithString("start_node", mcp.Required(), mcp.Description("Start node qualified name")),
			mcp.WithString("end_node", mcp.Required(), mcp.Description("End node qualified name")),
		),
		ms.handleTracePath,
	)

	s.AddTool(
		mcp.NewTool(
			"get_neighbors",
			mcp.WithDescription("Get adjacent nodes in the cross-reference graph, filtered by direction."),
			mcp.WithString("node_id", mcp.Required(), mcp.Description("The node's qualified name")),
			mcp.WithString("direction", mcp.Description("incoming, outgoing or both (default both)")),
		),
		ms.handleGetNeighbors,
	)

	s.AddTool(
		mcp.NewTool(
			"get_central_nodes",
			mcp.WithDescription("Rank the structurally most important principles and rules by composite centrality."),
			mcp.WithNumber("limit", mcp.Description("Max number of results (default 10)")),
		),
		ms.handleGetCentralNodes,
	)

	slog.Info("Starting MCP server on Stdio")
	return server.ServeStdio(s)
}

// --- Resource Handlers ---

func (ms *MCPServer) handleStats(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	ix, err := ms.corpus.Index()
	if err != nil {
		return nil, err
	}
	jsonBytes, err := json.MarshalIndent(ix.Stats(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal stats: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

func (ms *MCPServer) handleValidation(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	ix, err := ms.corpus.Index()
	if err != nil {
		return nil, err
	}
	jsonBytes, err := json.MarshalIndent(ix.Report(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

func (ms *MCPServer) handleSchemaConventions(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	content := `
# ChainLex Knowledge Index Conventions

## 1. Node Types
- 'principle': A Level-1 foundational legal principle (e.g. pacta-sunt-servanda).
- 'rule': A Level-2+ operational rule derived from one or more principles.
- 'external': A cross-reference target with no definition in the corpus.

## 2. Names
- Qualified names are 'framework:local-name' (e.g. civ:contract-valid?).
- Local names are lower-case, hyphen-separated, optionally ending in '?'.

## 3. Relationships
- 'derivation': [principle] -> [rule]. The rule cross-references the principle.
- 'reference': [rule] -> [rule]. A dependency between operational rules.

## 4. Usage Guidelines
- To find a rule's legal basis: use get_neighbors with direction=incoming.
- To find a principle's reach: use get_derived_rules or trace_path.
- Inference chain confidence decays with chain length and inference type.
`
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      request.Params.URI,
			MIMEType: "text/markdown",
			Text:     content,
		},
	}, nil
}

// --- Tool Handlers ---

func (ms *MCPServer) handleSearchRules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	q, ok := args["query"].(string)
	if !ok {
		return mcp.NewToolResultError("query argument required"), nil
	}
	domain, _ := args["domain"].(string)

	ix, err := ms.corpus.Index()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("index not ready: %v", err)), nil
	}

	resp := query.New(ix).Search(q, domain)
	var lines []string
	for _, r := range resp.Principles {
		lines = append(lines, fmt.Sprintf("[principle] %s (%s)", r.Record.QualifiedName, r.Relevance))
	}
	for _, r := range resp.Rules {
		lines = append(lines, fmt.Sprintf("[rule] %s (%s)", r.Record.QualifiedName, r.Relevance))
	}
	if len(lines) == 0 {
		return mcp.NewToolResultText("No matches found."), nil
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (ms *MCPServer) handleGetPrinciple(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	name, ok := args["name"].(string)
	if !ok {
		return mcp.NewToolResultError("name argument required"), nil
	}

	ix, err := ms.corpus.Index()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("index not ready: %v", err)), nil
	}

	p, found := ix.Principle(name)
	if !found {
		return mcp.NewToolResultText("Principle not found: " + name), nil
	}
	jsonBytes, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return mcp.NewToolResultError("failed to marshal principle"), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (ms *MCPServer) handleGetDerivedRules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	principle, ok := args["principle"].(string)
	if !ok {
		return mcp.NewToolResultError("principle argument required"), nil
	}

	ix, err := ms.corpus.Index()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("index not ready: %v", err)), nil
	}

	rules := query.New(ix).RulesDerivedFrom(principle)
	if len(rules) == 0 {
		return mcp.NewToolResultText("No rules derived from " + principle), nil
	}
	var lines []string
	for _, r := range rules {
		lines = append(lines, fmt.Sprintf("%s: %s", r.QualifiedName, r.DocText))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (ms *MCPServer) handleBuildChain(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	principle, ok1 := args["principle"].(string)
	target, ok2 := args["target"].(string)
	if !ok1 || !ok2 {
		return mcp.NewToolResultError("principle and target arguments required"), nil
	}

	ix, err := ms.corpus.Index()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("index not ready: %v", err)), nil
	}

	chain := infer.New(ix).BuildChain(principle, target)
	text := fmt.Sprintf("%s\n\nConfidence: %.4f", infer.Explain(chain), infer.Confidence(chain, nil))
	return mcp.NewToolResultText(text), nil
}

func (ms *MCPServer) handleTracePath(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	startNode, ok1 := args["start_node"].(string)
	endNode, ok2 := args["end_node"].(string)
	if !ok1 || !ok2 {
		return mcp.NewToolResultError("start_node and end_node arguments required"), nil
	}

	g, err := ms.corpus.Graph()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("graph not ready: %v", err)), nil
	}

	path := g.ShortestPath(startNode, endNode)
	if path == nil {
		return mcp.NewToolResultText(fmt.Sprintf("No path from %s to %s.", startNode, endNode)), nil
	}
	text := fmt.Sprintf("%s\n\nConfidence: %.4f", strings.Join(path, " -> "), g.PathConfidence(path))
	return mcp.NewToolResultText(text), nil
}

func (ms *MCPServer) handleGetNeighbors(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	nodeID, ok := args["node_id"].(string)
	if !ok {
		return mcp.NewToolResultError("node_id argument required"), nil
	}
	dir := graph.DirectionBoth
	if d, ok := args["direction"].(string); ok && d != "" {
		dir = graph.Direction(d)
	}

	g, err := ms.corpus.Graph()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("graph not ready: %v", err)), nil
	}

	neighbors := g.Neighbors(nodeID, dir)
	if len(neighbors) == 0 {
		return mcp.NewToolResultText("No neighbors found."), nil
	}
	var lines []string
	for _, n := range neighbors {
		lines = append(lines, fmt.Sprintf("%s --[%s/%s]--> %s", nodeID, n.EdgeType, n.Direction, n.Name))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (ms *MCPServer) handleGetCentralNodes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	limit := 10
	if l, ok := args["limit"].(float64); ok {
		limit = int(l)
	}

	g, err := ms.corpus.Graph()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("graph not ready: %v", err)), nil
	}

	scores := g.Centrality(limit)
	jsonBytes, err := json.MarshalIndent(scores, "", "  ")
	if err != nil {
		return mcp.NewToolResultError("failed to marshal centrality scores"), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

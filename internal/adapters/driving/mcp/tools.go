package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docgraph/internal/core/domain"
)

// ListTypesInput is the input schema for the list_types tool.
type ListTypesInput struct{}

// ListTypesOutput is the output schema for the list_types tool.
type ListTypesOutput struct {
	Types []string `json:"types"`
	Count int      `json:"count"`
}

// ListNodesInput is the input schema for the list_nodes tool.
type ListNodesInput struct {
	Type string `json:"type" jsonschema:"the node type name, as returned by list_types"`
}

// ListNodesOutput is the output schema for the list_nodes tool.
type ListNodesOutput struct {
	Nodes []NodeSummary `json:"nodes"`
	Count int           `json:"count"`
}

// NodeSummary identifies one node.
type NodeSummary struct {
	ID   string `json:"id"`
	Path string `json:"path"`
	URI  string `json:"uri"`
}

// GetNodeInput is the input schema for the get_node tool.
type GetNodeInput struct {
	Type string `json:"type" jsonschema:"the node type name"`
	ID   string `json:"id" jsonschema:"the node id"`
}

// FindNodeInput is the input schema for the find_node tool.
type FindNodeInput struct {
	Type string `json:"type" jsonschema:"the node type name"`
	Path string `json:"path" jsonschema:"the node path, starting with a slash"`
}

// NodeOutput is a node with all of its fields.
type NodeOutput struct {
	Type   string         `json:"type"`
	ID     string         `json:"id"`
	Path   string         `json:"path"`
	URI    string         `json:"uri"`
	Parent any            `json:"parent,omitempty"`
	Fields map[string]any `json:"fields"`
}

// StatsInput is the input schema for the stats tool.
type StatsInput struct{}

// StatsOutput is the output schema for the stats tool.
type StatsOutput struct {
	Nodes            map[string]int `json:"nodes"`
	TotalNodes       int            `json:"total_nodes"`
	ImagesRegistered int            `json:"images_registered"`
	ImagesDownloaded int            `json:"images_downloaded"`
	ImagesSkipped    int            `json:"images_skipped"`
	ImagesFailed     int            `json:"images_failed"`
	Watches          int            `json:"watches"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_types",
		Description: "List the node types of the materialised graph",
	}, s.handleListTypes)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_nodes",
		Description: "List the ids and paths of the nodes of one type",
	}, s.handleListNodes)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_node",
		Description: "Get a node by type and id",
	}, s.handleGetNode)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "find_node",
		Description: "Find a node by type and path",
	}, s.handleFindNode)

	if s.ports.Loader != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "stats",
			Description: "Node counts per type, image download totals and live watches",
		}, s.handleStats)
	}
}

func (s *Server) handleListTypes(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListTypesInput,
) (*mcp.CallToolResult, ListTypesOutput, error) {
	types, err := s.ports.Graph.ListTypes(ctx)
	if err != nil {
		return nil, ListTypesOutput{}, err
	}
	if types == nil {
		types = []string{}
	}
	return nil, ListTypesOutput{Types: types, Count: len(types)}, nil
}

func (s *Server) handleListNodes(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListNodesInput,
) (*mcp.CallToolResult, ListNodesOutput, error) {
	nodes, err := s.ports.Graph.ListNodes(ctx, input.Type)
	if err != nil {
		return nil, ListNodesOutput{}, err
	}

	output := ListNodesOutput{
		Nodes: make([]NodeSummary, len(nodes)),
		Count: len(nodes),
	}
	for i := range nodes {
		output.Nodes[i] = summarise(input.Type, &nodes[i])
	}
	return nil, output, nil
}

func (s *Server) handleGetNode(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetNodeInput,
) (*mcp.CallToolResult, NodeOutput, error) {
	node, err := s.ports.Graph.GetNode(ctx, input.Type, input.ID)
	if err != nil {
		return nil, NodeOutput{}, err
	}
	return nil, toNodeOutput(input.Type, node), nil
}

func (s *Server) handleFindNode(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FindNodeInput,
) (*mcp.CallToolResult, NodeOutput, error) {
	node, err := s.ports.Graph.FindByPath(ctx, input.Type, input.Path)
	if err != nil {
		return nil, NodeOutput{}, err
	}
	return nil, toNodeOutput(input.Type, node), nil
}

func (s *Server) handleStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ StatsInput,
) (*mcp.CallToolResult, StatsOutput, error) {
	stats, err := s.ports.Loader.Stats(ctx)
	if err != nil {
		return nil, StatsOutput{}, err
	}
	nodes := stats.Nodes
	if nodes == nil {
		nodes = map[string]int{}
	}
	return nil, StatsOutput{
		Nodes:            nodes,
		TotalNodes:       stats.TotalNodes(),
		ImagesRegistered: stats.ImagesRegistered,
		ImagesDownloaded: stats.ImagesDownloaded,
		ImagesSkipped:    stats.ImagesSkipped,
		ImagesFailed:     stats.ImagesFailed,
		Watches:          stats.Watches,
	}, nil
}

func summarise(typeName string, node *domain.Node) NodeSummary {
	return NodeSummary{ID: node.ID, Path: node.Path, URI: nodeURI(typeName, node.ID)}
}

func toNodeOutput(typeName string, node *domain.Node) NodeOutput {
	fields := node.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	return NodeOutput{
		Type:   typeName,
		ID:     node.ID,
		Path:   node.Path,
		URI:    nodeURI(typeName, node.ID),
		Parent: node.ParentRef,
		Fields: fields,
	}
}

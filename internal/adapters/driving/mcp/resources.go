package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docgraph/internal/core/domain"
)

const uriScheme = "docgraph://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "types",
		Name:        "types",
		Description: "Node types of the materialised graph",
		MIMEType:    "application/json",
	}, s.handleTypesResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "types/{type}/nodes",
		Name:        "type-nodes",
		Description: "Ids and paths of the nodes of one type",
		MIMEType:    "application/json",
	}, s.handleNodesResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "nodes/{type}/{id}",
		Name:        "node",
		Description: "A single node with all of its fields",
		MIMEType:    "application/json",
	}, s.handleNodeResource)
}

func (s *Server) handleTypesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	types, err := s.ports.Graph.ListTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing types: %w", err)
	}
	if types == nil {
		types = []string{}
	}
	return jsonResource(req.Params.URI, types)
}

func (s *Server) handleNodesResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	typeName := extractTypeName(req.Params.URI)
	if typeName == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	nodes, err := s.ports.Graph.ListNodes(ctx, typeName)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("listing nodes: %w", err)
	}

	summaries := make([]NodeSummary, len(nodes))
	for i := range nodes {
		summaries[i] = summarise(typeName, &nodes[i])
	}
	return jsonResource(req.Params.URI, summaries)
}

func (s *Server) handleNodeResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	typeName, id := extractNodeKey(req.Params.URI)
	if typeName == "" || id == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	node, err := s.ports.Graph.GetNode(ctx, typeName, id)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting node: %w", err)
	}
	return jsonResource(req.Params.URI, toNodeOutput(typeName, node))
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractTypeName extracts the type from docgraph://types/{type}/nodes.
func extractTypeName(uri string) string {
	const prefix = uriScheme + "types/"
	const suffix = "/nodes"

	if !strings.HasPrefix(uri, prefix) || !strings.HasSuffix(uri, suffix) {
		return ""
	}
	name := strings.TrimSuffix(strings.TrimPrefix(uri, prefix), suffix)
	if strings.Contains(name, "/") {
		return ""
	}
	return unescape(name)
}

// extractNodeKey extracts type and id from docgraph://nodes/{type}/{id}.
func extractNodeKey(uri string) (typeName, id string) {
	const prefix = uriScheme + "nodes/"

	if !strings.HasPrefix(uri, prefix) {
		return "", ""
	}
	typeName, id, ok := strings.Cut(strings.TrimPrefix(uri, prefix), "/")
	if !ok || strings.Contains(id, "/") {
		return "", ""
	}
	return unescape(typeName), unescape(id)
}

func unescape(s string) string {
	out, err := url.PathUnescape(s)
	if err != nil {
		return ""
	}
	return out
}

// nodeURI returns the resource URI of a node.
func nodeURI(typeName, id string) string {
	return uriScheme + "nodes/" + url.PathEscape(typeName) + "/" + url.PathEscape(id)
}

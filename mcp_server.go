package main

import (
	"context"

	"github.com/apex/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const inspectToolName = "inspect_openapi"

// InspectorMCPServer exposes the inspector as an MCP tool
type InspectorMCPServer struct {
	inspector  *Inspector
	defaultURL string
	logger     log.Interface
	mcpServer  *server.MCPServer
}

// NewInspectorMCPServer creates a new MCP server whose tool falls back to
// defaultURL when called without a url argument
func NewInspectorMCPServer(inspector *Inspector, defaultURL string, logger log.Interface) *InspectorMCPServer {
	return &InspectorMCPServer{
		inspector:  inspector,
		defaultURL: defaultURL,
		logger:     logger,
		mcpServer: server.NewMCPServer(
			"openapi-inspect",
			"1.0.0",
			server.WithToolCapabilities(false),
		),
	}
}

// inspectTool describes the single tool served
func (s *InspectorMCPServer) inspectTool() mcp.Tool {
	return mcp.NewTool(inspectToolName,
		mcp.WithDescription("Fetch an OpenAPI JSON document and list, for each path and HTTP method, "+
			"the documented parameters with their location."),
		mcp.WithString("url",
			mcp.Description("Document URL. Defaults to "+s.defaultURL),
		),
	)
}

// createToolHandler creates a handler function for MCP tool calls
func (s *InspectorMCPServer) createToolHandler() func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		target := s.defaultURL
		if raw, ok := request.GetArguments()["url"]; ok {
			value, isString := raw.(string)
			if !isString {
				return mcp.NewToolResultError("Invalid argument: url must be a string"), nil
			}
			if value != "" {
				target = value
			}
		}

		s.logger.WithField("url", target).Debug("tool call")
		report := s.inspector.Run(ctx, target)

		// The text is the same listing the command line prints.
		if !report.OK() {
			return mcp.NewToolResultError(report.String()), nil
		}
		return mcp.NewToolResultText(report.String()), nil
	}
}

// Start registers the tool and serves over stdio until the client disconnects
func (s *InspectorMCPServer) Start() error {
	s.mcpServer.AddTool(s.inspectTool(), s.createToolHandler())
	s.logger.WithField("tool", inspectToolName).Info("serving mcp over stdio")
	return server.ServeStdio(s.mcpServer)
}

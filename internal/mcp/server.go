package mcp

import (
	"context"
	"encoding/json"
	"net/http"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const StreamPath = "/mcp/stream"

// NewServer exposes the dispatcher's actions as MCP tools.
func NewServer(d *Dispatcher, version string) *server.MCPServer {
	s := server.NewMCPServer("mcp-gateway", version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.AddTool(mcpgo.NewTool(ActionListTables,
		mcpgo.WithDescription("Lista todas las tablas del esquema público"),
	), toolHandler(d, ActionListTables))

	s.AddTool(mcpgo.NewTool(ActionDescribeTable,
		mcpgo.WithDescription("Describe las columnas de una tabla"),
		mcpgo.WithString("table_name", mcpgo.Required(), mcpgo.Description("Nombre de la tabla")),
	), toolHandler(d, ActionDescribeTable))

	s.AddTool(mcpgo.NewTool(ActionExecuteQuery,
		mcpgo.WithDescription("Ejecuta una consulta SQL en una transacción"),
		mcpgo.WithString("query", mcpgo.Required(), mcpgo.Description("Sentencia SQL")),
	), toolHandler(d, ActionExecuteQuery))

	s.AddTool(mcpgo.NewTool(ActionGetTableContent,
		mcpgo.WithDescription("Devuelve filas de una tabla con paginación y orden opcionales"),
		mcpgo.WithString("table_name", mcpgo.Required(), mcpgo.Description("Nombre de la tabla")),
		mcpgo.WithNumber("limit", mcpgo.Description("Máximo de filas")),
		mcpgo.WithNumber("offset", mcpgo.Description("Filas a omitir")),
		mcpgo.WithString("order_by", mcpgo.Description("Columna de orden")),
		mcpgo.WithString("order_direction", mcpgo.Enum("asc", "desc"), mcpgo.Description("asc o desc")),
	), toolHandler(d, ActionGetTableContent))

	return s
}

// NewHTTPHandler serves s over the streamable HTTP transport.
func NewHTTPHandler(s *server.MCPServer) http.Handler {
	return server.NewStreamableHTTPServer(s,
		server.WithEndpointPath(StreamPath),
		server.WithStateLess(true),
	)
}

// toolHandler reports dispatcher failures as tool errors so the protocol
// session stays healthy.
func toolHandler(d *Dispatcher, action string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcpgo.CallToolRequest) (*mcpgo.CallToolResult, error) {
		out, err := d.Run(ctx, action, req.GetArguments())
		if err != nil {
			return mcpgo.NewToolResultError(err.Error()), nil
		}
		body, err := json.Marshal(out)
		if err != nil {
			return mcpgo.NewToolResultError(err.Error()), nil
		}
		return mcpgo.NewToolResultText(string(body)), nil
	}
}

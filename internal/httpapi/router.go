package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/mcp-gateway/internal/common"
	"github.com/suPer8Hu/mcp-gateway/internal/httpapi/handlers"
	"github.com/suPer8Hu/mcp-gateway/internal/httpapi/middleware"
	"github.com/suPer8Hu/mcp-gateway/internal/mcp"
)

// NewRouter mounts every route. mcpHandler serves the MCP streamable HTTP
// transport and may be nil.
func NewRouter(h *handlers.Handler, mcpHandler http.Handler) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(h.Cfg.CORSOrigins, h.Cfg.APIKeyHeader))

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, "not_found", "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})

	r.GET("/ping", h.Ping)
	r.GET("/health", h.Health)

	api := r.Group("/api")
	api.POST("/chat", h.Chat)

	// database
	api.GET("/db/tables", h.ListTables)
	api.GET("/db/tables/:table_name", h.TableContent)
	api.GET("/db/tables/:table_name/structure", h.TableStructure)
	api.POST("/db/query", h.ExecuteQuery)
	api.GET("/db/schema", h.Schema)

	// orders
	api.POST("/pedidos", h.CreatePedido)

	// dispatcher
	r.POST("/mcp", h.MCP)
	if mcpHandler != nil {
		r.Any(mcp.StreamPath, gin.WrapH(mcpHandler))
	}
	return r
}

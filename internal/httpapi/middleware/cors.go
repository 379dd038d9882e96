package middleware

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS allows every origin when origins contains "*".
func CORS(origins []string, apiKeyHeader string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", "Accept", "Idempotency-Key", RequestIDHeader, "Mcp-Session-Id"},
		ExposeHeaders: []string{RequestIDHeader, "Mcp-Session-Id"},
		MaxAge:        12 * time.Hour,
	}
	if apiKeyHeader != "" {
		cfg.AllowHeaders = append(cfg.AllowHeaders, apiKeyHeader)
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

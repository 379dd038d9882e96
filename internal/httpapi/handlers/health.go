package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/mcp-gateway/internal/common"
	"github.com/suPer8Hu/mcp-gateway/internal/mcp"
)

func (h *Handler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

func (h *Handler) Health(c *gin.Context) {
	common.OK(c, http.StatusOK, gin.H{
		"status":  "ok",
		"message": "API funcionando correctamente",
		"model":   h.Cfg.ModelName,
		"mcp": gin.H{
			"mount":    "/mcp",
			"protocol": mcp.StreamPath,
			"actions":  mcp.Actions,
		},
	})
}

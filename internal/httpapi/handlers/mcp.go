package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/mcp-gateway/internal/common"
)

type mcpReq struct {
	Action string         `json:"action" binding:"required"`
	Params map[string]any `json:"params"`
}

// MCP runs one dispatcher action and returns its raw result.
func (h *Handler) MCP(c *gin.Context) {
	var req mcpReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, common.KindValidation.String(), "Se requiere el campo 'action'")
		return
	}

	out, err := h.Dispatcher.Run(c.Request.Context(), req.Action, req.Params)
	if err != nil {
		h.fail(c, "mcp "+req.Action, err)
		return
	}
	common.OK(c, http.StatusOK, out)
}

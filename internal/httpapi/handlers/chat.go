package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/mcp-gateway/internal/chat"
	"github.com/suPer8Hu/mcp-gateway/internal/common"
	"github.com/suPer8Hu/mcp-gateway/internal/httpapi/middleware"
)

func (h *Handler) Chat(c *gin.Context) {
	var req chat.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, common.KindValidation.String(), err.Error())
		return
	}

	resp, err := h.ChatSvc.ProcessChat(c.Request.Context(), req)
	if err != nil {
		slog.Error("chat failed", "request_id", middleware.RequestIDFrom(c), "err", err)
		if common.IsKind(err, common.KindTimeout) {
			common.FailErr(c, err)
			return
		}
		common.Fail(c, http.StatusInternalServerError, "chat_error", err.Error())
		return
	}
	common.OK(c, http.StatusOK, resp)
}

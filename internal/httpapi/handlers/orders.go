package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/mcp-gateway/internal/common"
	"github.com/suPer8Hu/mcp-gateway/internal/orders"
)

const IdempotencyHeader = "Idempotency-Key"

type createPedidoReq struct {
	UsuarioID int64         `json:"usuario_id" binding:"required"`
	Items     []orders.Item `json:"items" binding:"dive"`
}

func (h *Handler) CreatePedido(c *gin.Context) {
	var req createPedidoReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, common.KindValidation.String(), err.Error())
		return
	}

	out, err := h.Orders.PlaceOrderOnce(c.Request.Context(), c.GetHeader(IdempotencyHeader), req.UsuarioID, req.Items)
	if err != nil {
		h.fail(c, "place order", err)
		return
	}
	common.OK(c, http.StatusOK, out)
}

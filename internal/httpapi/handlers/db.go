package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/mcp-gateway/internal/common"
	"github.com/suPer8Hu/mcp-gateway/internal/httpapi/middleware"
	"github.com/suPer8Hu/mcp-gateway/internal/store"
)

func (h *Handler) fail(c *gin.Context, op string, err error) {
	if common.StatusOf(err) >= http.StatusInternalServerError {
		slog.Error(op+" failed", "request_id", middleware.RequestIDFrom(c), "err", err)
	}
	common.FailErr(c, err)
}

func (h *Handler) ListTables(c *gin.Context) {
	tables, err := h.Store.ListTables(c.Request.Context())
	if err != nil {
		h.fail(c, "list tables", err)
		return
	}
	common.OK(c, http.StatusOK, gin.H{"status": "success", "tables": tables})
}

func (h *Handler) TableContent(c *gin.Context) {
	q := store.ContentQuery{
		Table:          c.Param("table_name"),
		OrderBy:        c.Query("order_by"),
		OrderDirection: c.Query("order_direction"),
	}
	var err error
	if q.Limit, err = queryInt(c, "limit", 1); err != nil {
		h.fail(c, "table content", err)
		return
	}
	if q.Offset, err = queryInt(c, "offset", 0); err != nil {
		h.fail(c, "table content", err)
		return
	}

	out, err := h.Store.TableContent(c.Request.Context(), q)
	if err != nil {
		h.fail(c, "table content", err)
		return
	}
	common.OK(c, http.StatusOK, out)
}

func (h *Handler) TableStructure(c *gin.Context) {
	out, err := h.Store.TableStructure(c.Request.Context(), c.Param("table_name"))
	if err != nil {
		h.fail(c, "table structure", err)
		return
	}
	common.OK(c, http.StatusOK, out)
}

type queryReq struct {
	Query string `json:"query" binding:"required"`
}

func (h *Handler) ExecuteQuery(c *gin.Context) {
	var req queryReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, common.KindValidation.String(), "Se requiere el campo 'query'")
		return
	}

	out, err := h.Store.ExecuteQuery(c.Request.Context(), req.Query)
	if err != nil {
		h.fail(c, "execute query", err)
		return
	}
	common.OK(c, http.StatusOK, out)
}

func (h *Handler) Schema(c *gin.Context) {
	out, err := h.Store.DiscoverTables(c.Request.Context())
	if err != nil {
		h.fail(c, "discover tables", err)
		return
	}
	common.OK(c, http.StatusOK, out)
}

// queryInt reads an optional integer query parameter no smaller than least.
func queryInt(c *gin.Context, key string, least int) (*int, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < least {
		return nil, common.Validationf("El parámetro '%s' debe ser un entero mayor o igual a %d", key, least)
	}
	return &n, nil
}

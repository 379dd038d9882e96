package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"github.com/suPer8Hu/mcp-gateway/internal/common"
)

// Recovery turns a handler panic into the standard JSON error body, carrying
// the panic value as the detail.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("panic recovered",
					"request_id", RequestIDFrom(c),
					"path", c.Request.URL.Path,
					"panic", r,
					"stack", string(debug.Stack()),
				)
				common.Abort(c, http.StatusInternalServerError, "internal_error", fmt.Sprint(r))
			}
		}()
		c.Next()
	}
}

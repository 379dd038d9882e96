package common

import (
	"github.com/gin-gonic/gin"
)

// OK writes payload as-is; the gateway's success bodies are not enveloped.
func OK(c *gin.Context, httpStatus int, payload any) {
	c.JSON(httpStatus, payload)
}

// Fail writes the error body used by every route: {"detail": ..., "error": ...}.
// Internal error text is passed through to the caller on purpose.
func Fail(c *gin.Context, httpStatus int, kind string, msg string) {
	c.JSON(httpStatus, gin.H{
		"detail": msg,
		"error":  kind,
	})
}

// FailErr derives status and kind from err.
func FailErr(c *gin.Context, err error) {
	if e, ok := AsError(err); ok {
		Fail(c, e.Status(), e.Kind.String(), e.Message)
		return
	}
	Fail(c, StatusOf(err), "internal_error", err.Error())
}

// Abort is Fail for middleware that must stop the chain.
func Abort(c *gin.Context, httpStatus int, kind string, msg string) {
	c.AbortWithStatusJSON(httpStatus, gin.H{
		"detail": msg,
		"error":  kind,
	})
}

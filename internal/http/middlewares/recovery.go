package middlewares

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Recovery turns a handler panic into a 500 with the usual error body.
func Recovery(log *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.ErrorContext(c.Request.Context(), "panic recovered",
			"panic", fmt.Sprint(recovered),
			"route", c.FullPath(),
		)

		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"message": "Internal server error",
			"error":   "unexpected failure while handling the request",
		})
	})
}

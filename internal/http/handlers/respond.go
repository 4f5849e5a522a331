package handlers

import (
	"net/http"

	"github.com/geocoder89/usersapi/internal/domain/user"
	"github.com/geocoder89/usersapi/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

// APIError is the body of every failed request.
type APIError struct {
	Message   string            `json:"message"`
	Error     string            `json:"error"`
	RequestID string            `json:"requestId,omitempty"`
	Fields    []user.FieldError `json:"fields,omitempty"`
}

func requestIDFrom(ctx *gin.Context) string {
	if id := ctx.GetString(middlewares.CtxRequestID); id != "" {
		return id
	}

	// handler mounted without the RequestID middleware
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, message, reason string, fields []user.FieldError) {
	ctx.AbortWithStatusJSON(status, APIError{
		Message:   message,
		Error:     reason,
		RequestID: requestIDFrom(ctx),
		Fields:    fields,
	})
}

func RespondBadRequest(ctx *gin.Context, message, reason string, fields []user.FieldError) {
	RespondError(ctx, http.StatusBadRequest, message, reason, fields)
}

func RespondNotFound(ctx *gin.Context, message, reason string) {
	RespondError(ctx, http.StatusNotFound, message, reason, nil)
}

func RespondInternal(ctx *gin.Context, message, reason string) {
	RespondError(ctx, http.StatusInternalServerError, message, reason, nil)
}

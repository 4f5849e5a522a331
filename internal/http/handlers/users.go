package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/geocoder89/usersapi/internal/domain/user"
	"github.com/gin-gonic/gin"
)

const RootBanner = "Users REST API is running. Use /api/users"

type UsersService interface {
	ListAll(ctx context.Context) ([]user.User, error)
	Create(ctx context.Context, req user.CreateUserRequest) (user.User, error)
	UpdateByID(ctx context.Context, id string, req user.UpdateUserRequest) (user.User, error)
	DeleteByID(ctx context.Context, id string) (user.User, error)
}

type UsersHandler struct {
	svc UsersService
	log *slog.Logger
}

func NewUsersHandler(svc UsersService, log *slog.Logger) *UsersHandler {
	if log == nil {
		log = slog.Default()
	}
	return &UsersHandler{svc: svc, log: log}
}

func (h *UsersHandler) ListUsers(ctx *gin.Context) {
	users, err := h.svc.ListAll(ctx.Request.Context())

	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "list users failed", "err", err)
		RespondInternal(ctx, "Server error getting users", err.Error())
		return
	}

	ctx.JSON(http.StatusOK, users)
}

func (h *UsersHandler) CreateUser(ctx *gin.Context) {
	const failure = "Error creating user"

	var req user.CreateUserRequest

	if !BindJSON(ctx, &req, failure) {
		return
	}

	u, err := h.svc.Create(ctx.Request.Context(), req)

	if err != nil {
		h.respondServiceError(ctx, failure, err)
		return
	}

	ctx.JSON(http.StatusCreated, u)
}

func (h *UsersHandler) UpdateUser(ctx *gin.Context) {
	const failure = "Error updating user"

	var req user.UpdateUserRequest

	if !BindJSON(ctx, &req, failure) {
		return
	}

	u, err := h.svc.UpdateByID(ctx.Request.Context(), ctx.Param("id"), req)

	if err != nil {
		h.respondServiceError(ctx, failure, err)
		return
	}

	ctx.JSON(http.StatusOK, u)
}

func (h *UsersHandler) DeleteUser(ctx *gin.Context) {
	u, err := h.svc.DeleteByID(ctx.Request.Context(), ctx.Param("id"))

	if err != nil {
		h.respondServiceError(ctx, "Error deleting user", err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "User deleted",
		"user":    u,
	})
}

func Root(ctx *gin.Context) {
	ctx.String(http.StatusOK, RootBanner)
}

// respondServiceError is the single place domain errors become statuses.
func (h *UsersHandler) respondServiceError(ctx *gin.Context, message string, err error) {
	var verr *user.ValidationError

	switch {
	case errors.As(err, &verr):
		RespondBadRequest(ctx, message, verr.Error(), verr.Fields)
	case errors.Is(err, user.ErrNotFound):
		RespondNotFound(ctx, "User not found", user.ErrNotFound.Error())
	case errors.Is(err, user.ErrDuplicateKey):
		RespondBadRequest(ctx, message, user.ErrDuplicateKey.Error(), []user.FieldError{
			{Field: "email", Rule: "unique", Message: "already in use"},
		})
	default:
		h.log.ErrorContext(ctx.Request.Context(), "user store failure", "err", err, "route", ctx.FullPath())
		RespondInternal(ctx, message, err.Error())
	}
}

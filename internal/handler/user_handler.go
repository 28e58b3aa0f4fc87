package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Kosench/linkpulse/internal/model"
)

type UserService interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error)
	Profile(ctx context.Context, userID uuid.UUID) (*model.ProfileResponse, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req *model.UpdateProfileRequest) error
	Delete(ctx context.Context, userID uuid.UUID) error
}

type UserHandler struct {
	users UserService
	log   *slog.Logger
}

func NewUserHandler(users UserService, log *slog.Logger) *UserHandler {
	return &UserHandler{
		users: users,
		log:   log,
	}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err, "All fields are Required")
		return
	}

	if _, err := h.users.Register(c.Request.Context(), &req); err != nil {
		handleError(c, h.log, err)
		return
	}

	ok(c, "Registered successfully")
}

func (h *UserHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err, "All Fields are Required !")
		return
	}

	resp, err := h.users.Login(c.Request.Context(), &req)
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Logged in successfully",
		"token":   resp.Token,
		"user":    resp.User,
	})
}

func (h *UserHandler) Profile(c *gin.Context) {
	profile, err := h.users.Profile(c.Request.Context(), currentUserID(c))
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) Update(c *gin.Context) {
	var req model.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err, "Invalid profile data")
		return
	}

	if err := h.users.UpdateProfile(c.Request.Context(), currentUserID(c), &req); err != nil {
		handleError(c, h.log, err)
		return
	}

	ok(c, "Updated successfully")
}

func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), currentUserID(c)); err != nil {
		handleError(c, h.log, err)
		return
	}

	ok(c, "User and all associated data deleted successfully")
}

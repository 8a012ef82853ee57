package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/user-avatar-service/internal/domain"
	"github.com/weiawesome/user-avatar-service/internal/service"
	"github.com/weiawesome/user-avatar-service/pkg/log"
	"github.com/weiawesome/user-avatar-service/pkg/middleware"
	"github.com/weiawesome/user-avatar-service/pkg/response"
)

// Handler handles HTTP requests for the user avatar service.
type Handler struct {
	userService   service.UserService
	avatarService service.AvatarService
	protect       gin.HandlerFunc
}

// NewHandler creates a new HTTP handler. protect guards the profile and
// avatar routes; pass middleware.Optional() to leave them open.
func NewHandler(userService service.UserService, avatarService service.AvatarService, protect gin.HandlerFunc) *Handler {
	return &Handler{
		userService:   userService,
		avatarService: avatarService,
		protect:       protect,
	}
}

// RegisterRoutes registers all routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.Health)

	users := r.Group("/api/user")
	{
		// Public routes
		users.POST("/signup", h.SignUp)
		users.POST("/login", h.Login)

		// Protected routes
		protected := users.Group("")
		protected.Use(h.protect)
		{
			protected.GET("/me", h.GetAccount)
			protected.GET("/:userId", h.GetUser)
			protected.GET("/:userId/avatar", h.GetAvatar)
			protected.DELETE("/:userId/avatar", h.DeleteAvatar)
		}
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}

// SignUp handles user registration.
func (h *Handler) SignUp(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	var req domain.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid signup request")
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.userService.SignUp(ctx, &req)
	if err != nil {
		if errors.Is(err, service.ErrEmailExists) {
			response.Conflict(c, "email already exists")
			return
		}
		l.Error().Err(err).Msg("signup failed")
		response.InternalError(c, "failed to sign up")
		return
	}

	response.Created(c, result)
}

// Login handles user login.
func (h *Handler) Login(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	var req domain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		l.Warn().Err(err).Msg("invalid login request")
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.userService.Login(ctx, &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Unauthorized(c, "invalid email or password")
			return
		}
		l.Error().Err(err).Msg("login failed")
		response.InternalError(c, "failed to login")
		return
	}

	response.Success(c, result)
}

// GetAccount returns the account of the authenticated caller.
func (h *Handler) GetAccount(c *gin.Context) {
	ctx := c.Request.Context()
	accountID := middleware.GetUserID(c)
	if accountID == "" {
		response.Unauthorized(c, "authentication required")
		return
	}

	user, err := h.userService.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.NotFound(c, "user not found")
			return
		}
		l := log.Ctx(ctx)
		l.Error().Err(err).Str(log.FieldUserID, accountID).Msg("get account failed")
		response.InternalError(c, "failed to get account")
		return
	}

	response.Success(c, user)
}

// GetUser returns the upstream profile of a user.
func (h *Handler) GetUser(c *gin.Context) {
	ctx := c.Request.Context()
	l := log.Ctx(ctx)
	userID := c.Param("userId")

	profile, err := h.userService.GetUserByID(ctx, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidUserID):
			response.BadRequest(c, "invalid user id")
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFound(c, "user not found")
		default:
			l.Error().Err(err).Str(log.FieldUserID, userID).Msg("get user failed")
			response.InternalError(c, "failed to get user")
		}
		return
	}

	response.Success(c, profile)
}

// GetAvatar returns a user's avatar as base64.
func (h *Handler) GetAvatar(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.Param("userId")

	avatar, err := h.avatarService.GetAvatar(ctx, userID)
	if err != nil {
		h.avatarError(c, userID, err, "failed to get avatar")
		return
	}

	response.Success(c, domain.AvatarResponse{Avatar: avatar})
}

// DeleteAvatar removes a user's cached avatar.
func (h *Handler) DeleteAvatar(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.Param("userId")

	if err := h.avatarService.DeleteAvatar(ctx, userID); err != nil {
		h.avatarError(c, userID, err, "failed to delete avatar")
		return
	}

	response.NoContent(c)
}

// avatarError maps avatar service errors to responses. Internal details
// are logged, never returned.
func (h *Handler) avatarError(c *gin.Context, userID string, err error, msg string) {
	l := log.Ctx(c.Request.Context())

	switch {
	case errors.Is(err, service.ErrInvalidUserID):
		response.BadRequest(c, "invalid user id")
	case errors.Is(err, service.ErrAvatarNotFound):
		response.NotFound(c, "avatar not found")
	case errors.Is(err, service.ErrStorageCorruption):
		l.Error().Err(err).Str(log.FieldUserID, userID).Msg("avatar storage corrupted")
		response.InternalError(c, msg)
	default:
		l.Error().Err(err).Str(log.FieldUserID, userID).Msg(msg)
		response.InternalError(c, msg)
	}
}

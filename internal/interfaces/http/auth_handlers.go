package http

import (
	"github.com/gin-gonic/gin"

	"github.com/kmorales/expenseflow/internal/application/service"
)

// AuthHandlers serves registration and login.
type AuthHandlers struct {
	authService *service.AuthService
	logger      Logger
}

// NewAuthHandlers creates auth handlers.
func NewAuthHandlers(authService *service.AuthService, logger Logger) *AuthHandlers {
	return &AuthHandlers{authService: authService, logger: logger}
}

// Register handles POST /api/auth/register
func (h *AuthHandlers) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "name, email and password are required")
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, user)
}

// Login handles POST /api/auth/login
func (h *AuthHandlers) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "email and password are required")
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

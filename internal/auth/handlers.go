package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Handlers contains the auth HTTP handlers.
type Handlers struct {
	service *Service
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// Register handles user registration.
// POST /api/register
func (h *Handlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	resp, err := h.service.Register(c.Request.Context(), req)
	if err != nil {
		if authErr, ok := err.(AuthError); ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": authErr.Message})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register user"})
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// Login handles user login.
// POST /api/login
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	resp, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		if authErr, ok := err.(AuthError); ok {
			status := http.StatusUnauthorized
			if authErr.Code == ErrTooManyAttempts.Code {
				status = http.StatusTooManyRequests
			}
			c.JSON(status, gin.H{"error": authErr.Message})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to login"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Verify re-validates the caller's token and returns the current user.
// GET /api/verify
func (h *Handlers) Verify(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
		return
	}

	user, err := h.service.Verify(c.Request.Context(), parts[1])
	if err != nil {
		if authErr, ok := err.(AuthError); ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": authErr.Message})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"valid": true, "user": user})
}

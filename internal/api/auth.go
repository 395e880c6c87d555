package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chirpstack-social/backend/internal/middleware"
	"github.com/chirpstack-social/backend/internal/service"
	"github.com/chirpstack-social/backend/internal/types"
)

// AuthHandler serves signup, login, logout and the flash drain.
type AuthHandler struct {
	auth     *service.AuthService
	sessions service.SessionStore
}

func NewAuthHandler(auth *service.AuthService, sessions service.SessionStore) *AuthHandler {
	return &AuthHandler{auth: auth, sessions: sessions}
}

func (h *AuthHandler) RegisterRoutes(router *gin.Engine) {
	router.POST("/signup", h.Signup)
	router.POST("/login", h.Login)
	router.POST("/logout", h.Logout)
	router.GET("/flashes", h.Flashes)
}

// Signup creates the account and logs the new user in on the current
// session. A taken username or email re-presents the form with a flash
// instead of crashing.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req types.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx := c.Request.Context()
	token, _ := middleware.TokenFromContext(c)

	user, err := h.auth.Signup(ctx, req.Username, req.Password, req.Email, req.ImageURL)
	if err != nil {
		if errors.Is(err, service.ErrDuplicate) {
			// The constraint does not say which column collided.
			h.flash(c, service.FlashDanger, "Username or email already taken")
		}
		handleServiceError(c, err)
		return
	}

	if token != "" {
		if err := h.sessions.Login(ctx, token, user.ID); err != nil {
			handleServiceError(c, err)
			return
		}
	}

	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// Login authenticates and binds the session to the user, replacing any
// identity the session had before.
func (h *AuthHandler) Login(c *gin.Context) {
	var req types.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx := c.Request.Context()
	token, _ := middleware.TokenFromContext(c)

	user, err := h.auth.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.flash(c, service.FlashDanger, "Invalid credentials.")
		}
		handleServiceError(c, err)
		return
	}

	if token != "" {
		if err := h.sessions.Login(ctx, token, user.ID); err != nil {
			handleServiceError(c, err)
			return
		}
	}

	h.flash(c, service.FlashSuccess, fmt.Sprintf("Hello, %s!", user.Username))
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// Logout resets the session to anonymous. Safe to call repeatedly.
func (h *AuthHandler) Logout(c *gin.Context) {
	token, ok := middleware.TokenFromContext(c)
	if ok {
		if err := h.sessions.Logout(c.Request.Context(), token); err != nil {
			handleServiceError(c, err)
			return
		}
	}
	h.flash(c, service.FlashSuccess, "You have successfully logged out.")
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Flashes drains the pending flash messages for the rendering frontend.
// Single read: a second call returns an empty list.
func (h *AuthHandler) Flashes(c *gin.Context) {
	token, ok := middleware.TokenFromContext(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"flashes": []service.Flash{}})
		return
	}

	flashes, err := h.sessions.Flashes(c.Request.Context(), token)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flashes": flashes})
}

func (h *AuthHandler) flash(c *gin.Context, category, text string) {
	if token, ok := middleware.TokenFromContext(c); ok {
		_ = h.sessions.AddFlash(c.Request.Context(), token, service.Flash{Category: category, Text: text})
	}
}

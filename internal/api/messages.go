package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chirpstack-social/backend/internal/middleware"
	"github.com/chirpstack-social/backend/internal/service"
	"github.com/chirpstack-social/backend/internal/types"
)

// MessageHandler serves message CRUD, the like toggle and the home
// timeline.
type MessageHandler struct {
	messages *service.MessageService
	users    *service.UserService
	sessions service.SessionStore
}

func NewMessageHandler(messages *service.MessageService, users *service.UserService, sessions service.SessionStore) *MessageHandler {
	return &MessageHandler{messages: messages, users: users, sessions: sessions}
}

func (h *MessageHandler) RegisterRoutes(router *gin.Engine, requireAuth gin.HandlerFunc) {
	router.GET("/", h.Home)

	messages := router.Group("/messages")
	{
		messages.POST("", requireAuth, h.Create)
		messages.GET("/:id", h.Show)
		messages.DELETE("/:id", requireAuth, h.Delete)
		messages.POST("/:id/like", requireAuth, h.ToggleLike)
	}
}

// Home returns the timeline view data: the 100 most recent messages from
// the current user and everyone they follow, plus the liked ids. An
// anonymous visitor gets empty view data, not an error.
func (h *MessageHandler) Home(c *gin.Context) {
	user, ok := middleware.UserFromContext(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"messages": []struct{}{}, "likes": []uint{}})
		return
	}
	ctx := c.Request.Context()

	ids, err := h.users.FollowingIDs(ctx, user.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	ids = append(ids, user.ID)

	messages, err := h.messages.Feed(ctx, ids)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	likedIDs, err := h.messages.LikedIDs(ctx, user.ID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages, "likes": likedIDs})
}

// Create posts a message for the current user.
func (h *MessageHandler) Create(c *gin.Context) {
	var req types.MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, _ := middleware.UserFromContext(c)
	msg, err := h.messages.Create(c.Request.Context(), user.ID, req.Text)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// Show returns a single message.
func (h *MessageHandler) Show(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}

	msg, err := h.messages.GetByID(c.Request.Context(), id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// Delete removes the current user's own message. Deleting someone else's
// is forbidden, with a flash for the frontend to surface.
func (h *MessageHandler) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	user, _ := middleware.UserFromContext(c)

	if err := h.messages.Delete(c.Request.Context(), id, user.ID); err != nil {
		if token, ok := middleware.TokenFromContext(c); ok && errors.Is(err, service.ErrForbidden) {
			_ = h.sessions.AddFlash(c.Request.Context(), token, service.Flash{
				Category: service.FlashDanger,
				Text:     "Access unauthorized.",
			})
		}
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// ToggleLike flips the current user's like on a message. Liking one's
// own message is rejected with a warning flash.
func (h *MessageHandler) ToggleLike(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	user, _ := middleware.UserFromContext(c)
	token, hasToken := middleware.TokenFromContext(c)

	liked, err := h.messages.ToggleLike(ctx, user.ID, id)
	if err != nil {
		if hasToken && errors.Is(err, service.ErrForbidden) {
			_ = h.sessions.AddFlash(ctx, token, service.Flash{
				Category: service.FlashWarning,
				Text:     "you can only like someone else's message",
			})
		}
		handleServiceError(c, err)
		return
	}

	if hasToken {
		flash := service.Flash{Category: service.FlashWarning, Text: "unliked"}
		if liked {
			flash = service.Flash{Category: service.FlashPrimary, Text: "liked"}
		}
		_ = h.sessions.AddFlash(ctx, token, flash)
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked})
}

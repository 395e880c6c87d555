package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/chirpstack-social/backend/internal/middleware"
	"github.com/chirpstack-social/backend/internal/service"
	"github.com/chirpstack-social/backend/internal/types"
)

// UserHandler serves user listings, profiles, the follow relation,
// profile edits and account deletion.
type UserHandler struct {
	auth     *service.AuthService
	users    *service.UserService
	messages *service.MessageService
	images   *service.ImageService
	sessions service.SessionStore
}

func NewUserHandler(
	auth *service.AuthService,
	users *service.UserService,
	messages *service.MessageService,
	images *service.ImageService,
	sessions service.SessionStore,
) *UserHandler {
	return &UserHandler{
		auth:     auth,
		users:    users,
		messages: messages,
		images:   images,
		sessions: sessions,
	}
}

func (h *UserHandler) RegisterRoutes(router *gin.Engine, requireAuth gin.HandlerFunc) {
	users := router.Group("/users")
	{
		users.GET("", h.List)
		users.GET("/:id", h.Show)
		users.GET("/:id/following", requireAuth, h.Following)
		users.GET("/:id/followers", requireAuth, h.Followers)
		users.GET("/:id/likes", requireAuth, h.Likes)
		users.POST("/:id/follow", requireAuth, h.Follow)
		users.POST("/:id/unfollow", requireAuth, h.Unfollow)
	}

	// Not under /users: a static "profile" segment cannot share the
	// position with the ":id" wildcard in gin's route tree.
	profile := router.Group("/profile", requireAuth)
	{
		profile.PUT("", h.UpdateProfile)
		profile.POST("/avatar", h.UploadAvatar)
		profile.DELETE("", h.DeleteAccount)
	}
}

// List returns all users, or a case-insensitive username search when the
// q parameter is present.
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.users.List(c.Request.Context(), c.Query("q"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

// Show returns the profile view data: the user, their messages and,
// when a viewer is logged in, the viewer's liked message ids.
func (h *UserHandler) Show(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	user, err := h.users.GetByID(ctx, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	messages, err := h.messages.ForUser(ctx, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	likedIDs := []uint{}
	if viewer, ok := middleware.UserFromContext(c); ok {
		likedIDs, err = h.messages.LikedIDs(ctx, viewer.ID)
		if err != nil {
			handleServiceError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"user":     user,
		"messages": messages,
		"likes":    likedIDs,
	})
}

// Following lists who this user follows.
func (h *UserHandler) Following(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	user, err := h.users.GetByID(ctx, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	following, err := h.users.Following(ctx, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "following": following})
}

// Followers lists who follows this user.
func (h *UserHandler) Followers(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	user, err := h.users.GetByID(ctx, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	followers, err := h.users.Followers(ctx, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "followers": followers})
}

// Likes lists the messages this user has liked.
func (h *UserHandler) Likes(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	user, err := h.users.GetByID(ctx, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	liked, err := h.messages.LikedMessages(ctx, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "likes": liked})
}

// Follow makes the current user follow the target.
func (h *UserHandler) Follow(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	user, _ := middleware.UserFromContext(c)

	if err := h.users.Follow(c.Request.Context(), user.ID, id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": true})
}

// Unfollow removes the relation; a no-op when not following.
func (h *UserHandler) Unfollow(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	user, _ := middleware.UserFromContext(c)

	if err := h.users.Unfollow(c.Request.Context(), user.ID, id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": false})
}

// UpdateProfile edits the current user's profile after re-verifying
// their password. A wrong password re-presents the form with a flash.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req types.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, _ := middleware.UserFromContext(c)
	updated, err := h.auth.UpdateProfile(c.Request.Context(), user.ID, &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.flash(c, service.FlashDanger, "Wrong password, please try again.")
		}
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": updated})
}

// UploadAvatar stores a new profile picture and returns its URL.
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	if h.images == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "avatar storage not configured"})
		return
	}

	file, header, err := c.Request.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "avatar file is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, service.MaxAvatarBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read upload"})
		return
	}

	user, _ := middleware.UserFromContext(c)
	url, err := h.images.UploadAvatar(
		c.Request.Context(),
		user.ID,
		header.Filename,
		data,
		header.Header.Get("Content-Type"),
	)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"image_url": url})
}

// DeleteAccount removes the current user and all owned rows. The session
// is invalidated before the delete runs.
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	ctx := c.Request.Context()
	user, _ := middleware.UserFromContext(c)

	if token, ok := middleware.TokenFromContext(c); ok {
		if err := h.sessions.Logout(ctx, token); err != nil {
			handleServiceError(c, err)
			return
		}
	}

	if err := h.auth.DeleteAccount(ctx, user.ID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "account deleted"})
}

func (h *UserHandler) flash(c *gin.Context, category, text string) {
	if token, ok := middleware.TokenFromContext(c); ok {
		_ = h.sessions.AddFlash(c.Request.Context(), token, service.Flash{Category: category, Text: text})
	}
}

// paramID parses the :id route parameter; writes the 400 itself.
func paramID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

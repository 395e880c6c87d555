package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/chirpstack-social/backend/internal/models"
	"github.com/chirpstack-social/backend/internal/service"
)

// Gin context keys set by CurrentUser.
const (
	ContextUserKey  = "current_user"
	ContextTokenKey = "session_token"
)

// CurrentUser resolves the session cookie into a user and stores both the
// token and the user on the request context. Guests get a fresh anonymous
// session so the flash channel works for them too. A token that no longer
// maps to a live user soft-fails to anonymous rather than erroring.
func CurrentUser(sessions service.SessionStore, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		token, err := c.Cookie(service.SessionCookie)
		var userID uint
		if err == nil {
			userID, err = sessions.UserID(ctx, token)
		}
		if err != nil {
			if !errors.Is(err, service.ErrNoSession) && !errors.Is(err, http.ErrNoCookie) {
				logrus.WithError(err).Error("session store unavailable")
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			token, err = sessions.Start(ctx)
			if err != nil {
				logrus.WithError(err).Error("failed to start session")
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			// MaxAge 0: browser-session lifetime.
			c.SetCookie(service.SessionCookie, token, 0, "/", "", false, true)
			userID = 0
		}

		c.Set(ContextTokenKey, token)

		if userID != 0 {
			var user models.User
			if err := db.WithContext(ctx).First(&user, userID).Error; err == nil {
				c.Set(ContextUserKey, &user)
			} else if errors.Is(err, gorm.ErrRecordNotFound) {
				// Account is gone; drop the stale identity.
				_ = sessions.Logout(ctx, token)
			} else {
				logrus.WithError(err).Error("failed to load session user")
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
		}

		c.Next()
	}
}

// RequireAuth aborts anonymous requests with a flash and a redirect to
// the login page. Running as middleware means the guard always executes
// before the protected handler body: an anonymous actor can never reach
// mutation code.
func RequireAuth(sessions service.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := c.Get(ContextUserKey); ok {
			c.Next()
			return
		}

		if token, ok := TokenFromContext(c); ok {
			_ = sessions.AddFlash(c.Request.Context(), token, service.Flash{
				Category: service.FlashDanger,
				Text:     "Access unauthorized.",
			})
		}
		c.Redirect(http.StatusFound, "/login")
		c.Abort()
	}
}

// UserFromContext returns the authenticated user set by CurrentUser.
func UserFromContext(c *gin.Context) (*models.User, bool) {
	val, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := val.(*models.User)
	return user, ok
}

// TokenFromContext returns the session token set by CurrentUser.
func TokenFromContext(c *gin.Context) (string, bool) {
	val, ok := c.Get(ContextTokenKey)
	if !ok {
		return "", false
	}
	token, ok := val.(string)
	return token, ok
}

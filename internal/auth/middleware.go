package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshare/internal/config"
	"github.com/mrlokans/bookshare/internal/entities"
)

// Context keys for storing user information.
const (
	ContextKeyUserID   = "auth_user_id"
	ContextKeyUser     = "auth_user"
	ContextKeyAuthType = "auth_type"
)

type AuthType string

const (
	AuthTypeNone    AuthType = "none"
	AuthTypeBearer  AuthType = "bearer"
	AuthTypeSession AuthType = "session"
)

// UserLookup resolves the user behind a token or session.
type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*entities.User, error)
}

// Middleware handles authentication for incoming requests.
type Middleware struct {
	tokens      *Tokens
	sessions    *SessionManager
	users       UserLookup
	mode        config.AuthMode
	publicPaths []string
}

func NewMiddleware(tokens *Tokens, sessions *SessionManager, users UserLookup, cfg config.Auth) *Middleware {
	return &Middleware{
		tokens:   tokens,
		sessions: sessions,
		users:    users,
		mode:     cfg.Mode,
		publicPaths: []string{
			"/api/auth/",
			"/api/tags",
			"/health",
			"/ping",
		},
	}
}

// Handler identifies the caller. In "none" mode nothing is required; a
// valid token or session is still honoured so /api/users/me works.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, authType := m.identify(c); user != nil {
			setUserContext(c, user, authType)
			c.Next()
			return
		}

		if m.mode != config.AuthModeJWT || m.isPublicPath(c.Request.URL.Path) {
			c.Set(ContextKeyAuthType, AuthTypeNone)
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	}
}

func (m *Middleware) identify(c *gin.Context) (*entities.User, AuthType) {
	if token, ok := bearerToken(c); ok && m.tokens != nil {
		if id, err := m.tokens.Parse(token); err == nil {
			if user, err := m.users.GetByID(c.Request.Context(), id); err == nil {
				return user, AuthTypeBearer
			}
		}
		return nil, AuthTypeNone
	}
	if m.sessions != nil {
		if id := m.sessions.GetUserID(c.Request); id != 0 {
			if user, err := m.users.GetByID(c.Request.Context(), id); err == nil {
				return user, AuthTypeSession
			}
		}
	}
	return nil, AuthTypeNone
}

func (m *Middleware) isPublicPath(path string) bool {
	if !strings.HasPrefix(path, "/api/") {
		return true
	}
	for _, p := range m.publicPaths {
		if path == p || strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// RequireUser rejects requests that carry no identified user, in any mode.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetUserID(c) == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

func setUserContext(c *gin.Context, user *entities.User, authType AuthType) {
	c.Set(ContextKeyUserID, user.ID)
	c.Set(ContextKeyUser, user)
	c.Set(ContextKeyAuthType, authType)
}

// GetUserID returns the authenticated user's ID, or 0.
func GetUserID(c *gin.Context) uint {
	if id, ok := c.Get(ContextKeyUserID); ok {
		if uid, ok := id.(uint); ok {
			return uid
		}
	}
	return 0
}

// GetUser returns the authenticated user, or nil.
func GetUser(c *gin.Context) *entities.User {
	if u, ok := c.Get(ContextKeyUser); ok {
		if user, ok := u.(*entities.User); ok {
			return user
		}
	}
	return nil
}

func GetAuthType(c *gin.Context) AuthType {
	if t, ok := c.Get(ContextKeyAuthType); ok {
		if at, ok := t.(AuthType); ok {
			return at
		}
	}
	return AuthTypeNone
}

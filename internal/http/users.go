package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshare/internal/apperr"
	"github.com/mrlokans/bookshare/internal/auth"
	"github.com/mrlokans/bookshare/internal/entities"
	"github.com/mrlokans/bookshare/internal/logger"
	"github.com/mrlokans/bookshare/internal/services"
)

// UserService is the account logic the auth endpoints need.
type UserService interface {
	Signup(ctx context.Context, in services.SignupInput) (*entities.User, error)
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	GetByID(ctx context.Context, id uint) (*entities.User, error)
}

type UsersController struct {
	users    UserService
	sessions *auth.SessionManager
	limiter  *auth.LoginLimiter
	log      *logger.Logger
}

// NewUsersController wires the account endpoints. sessions and limiter may
// be nil.
func NewUsersController(users UserService, sessions *auth.SessionManager, limiter *auth.LoginLimiter, log *logger.Logger) *UsersController {
	return &UsersController{users: users, sessions: sessions, limiter: limiter, log: log}
}

type loginResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	User      *entities.User `json:"user"`
}

// Signup handles POST /api/auth/signup
func (uc *UsersController) Signup(c *gin.Context) {
	var in services.SignupInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondBadRequest(c, "invalid signup payload")
		return
	}
	user, err := uc.users.Signup(c.Request.Context(), in)
	if err != nil {
		respondServiceError(c, uc.log, err, "signup")
		return
	}
	respondCreated(c, user)
}

// Login handles POST /api/auth/login with email and password as form or
// query values.
func (uc *UsersController) Login(c *gin.Context) {
	email := auth.LoginEmail(c)
	password := c.PostForm("password")
	if password == "" {
		password = c.Query("password")
	}
	if email == "" || password == "" {
		respondBadRequest(c, "email and password are required")
		return
	}

	result, err := uc.users.Login(c.Request.Context(), email, password)
	if err != nil {
		if errors.Is(err, apperr.ErrValidation) {
			if uc.limiter != nil && uc.limiter.RecordFailure(c.ClientIP(), email) {
				uc.log.Warn("Login locked out", "ip", c.ClientIP())
			}
			respondError(c, http.StatusUnauthorized, apperr.Message(err))
			return
		}
		respondServiceError(c, uc.log, err, "login")
		return
	}
	if uc.limiter != nil {
		uc.limiter.RecordSuccess(c.ClientIP(), email)
	}

	if uc.sessions != nil {
		if err := uc.sessions.CreateSession(c.Request, result.User); err != nil {
			respondInternalError(c, uc.log, err, "create session")
			return
		}
	}

	c.JSON(http.StatusOK, loginResponse{Token: result.Token, ExpiresAt: result.ExpiresAt, User: result.User})
}

// Logout handles POST /api/auth/logout
func (uc *UsersController) Logout(c *gin.Context) {
	if uc.sessions != nil {
		if err := uc.sessions.DestroySession(c.Request); err != nil {
			respondInternalError(c, uc.log, err, "destroy session")
			return
		}
	}
	respondSuccess(c, "logged out")
}

// CSRFToken handles GET /api/auth/csrf. The token is empty for requests
// that do not carry a session cookie.
func (uc *UsersController) CSRFToken(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"csrf_token": auth.GetCSRFToken(c)})
}

// Me handles GET /api/users/me
func (uc *UsersController) Me(c *gin.Context) {
	if user := auth.GetUser(c); user != nil {
		c.JSON(http.StatusOK, user)
		return
	}
	respondError(c, http.StatusUnauthorized, "authentication required")
}

// GetUser handles GET /api/users/:id
func (uc *UsersController) GetUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	user, err := uc.users.GetByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, uc.log, err, "get user")
		return
	}
	c.JSON(http.StatusOK, user)
}

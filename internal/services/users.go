package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/mrlokans/bookshare/internal/apperr"
	"github.com/mrlokans/bookshare/internal/auth"
	"github.com/mrlokans/bookshare/internal/database"
	"github.com/mrlokans/bookshare/internal/entities"
	"github.com/mrlokans/bookshare/internal/logger"
)

type UserService struct {
	users      UserStore
	tokens     *auth.Tokens
	bcryptCost int
	log        *logger.Logger
}

func NewUserService(users UserStore, tokens *auth.Tokens, bcryptCost int, log *logger.Logger) *UserService {
	return &UserService{users: users, tokens: tokens, bcryptCost: bcryptCost, log: log}
}

type SignupInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	User      *entities.User
	Token     string
	ExpiresAt time.Time
}

func (s *UserService) Signup(ctx context.Context, in SignupInput) (*entities.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" {
		return nil, apperr.Validation("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil || len(email) > 254 {
		return nil, apperr.Validation("invalid email format")
	}
	if strings.TrimSpace(in.FirstName) == "" || strings.TrimSpace(in.LastName) == "" {
		return nil, apperr.Validation("first and last name are required")
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) || errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, apperr.Validation("%s", err.Error())
		}
		return nil, apperr.Unavailable("hash password", err)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperr.Conflict("email %s is already registered", email)
	} else if !database.IsNotFound(err) {
		return nil, apperr.Unavailable("load user", err)
	}

	user := &entities.User{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.Conflict("email %s is already registered", email)
		}
		return nil, apperr.Unavailable("create user", err)
	}
	s.log.Info("User signed up", "user_id", user.ID)
	return user, nil
}

// Authenticate checks the credentials. Unknown email and wrong password
// produce the same error.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*entities.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.Validation("invalid email or password")
		}
		return nil, apperr.Unavailable("load user", err)
	}
	if err := auth.CheckPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			return nil, apperr.Validation("invalid email or password")
		}
		return nil, apperr.Unavailable("check password", err)
	}
	return user, nil
}

// Login authenticates and issues a JWT.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	token, exp, err := s.tokens.Issue(user)
	if err != nil {
		return nil, apperr.Unavailable("issue token", err)
	}
	s.log.Info("User logged in", "user_id", user.ID)
	return &LoginResult{User: user, Token: token, ExpiresAt: exp}, nil
}

func (s *UserService) GetByID(ctx context.Context, id uint) (*entities.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "user", id)
	}
	return user, nil
}

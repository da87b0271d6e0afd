// Package auth provides authentication for the API.
//
// It supports two modes:
//   - "none": every route is open and no user is attached to the request
//   - "jwt": /api routes require a Bearer JWT or a session cookie
//
// # Configuration
//
//	AUTH_MODE=jwt
//	AUTH_JWT_SECRET=<random string>        # Auto-generated if empty
//	AUTH_TOKEN_EXPIRY=24h                  # JWT lifetime
//	AUTH_SESSION_LIFETIME=24h              # Session duration
//	AUTH_BCRYPT_COST=12                    # bcrypt cost factor
//	AUTH_SECURE_COOKIES=true               # HTTPS-only cookies
//
// # Usage
//
//	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenExpiry)
//	mw := auth.NewMiddleware(tokens, sessions, userService, cfg.Auth)
//	api.Use(mw.Handler())
//
// Extract the caller in handlers:
//
//	userID := auth.GetUserID(c) // 0 when unauthenticated
package auth

package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
)

// CSRFTokenHeader is the header clients echo the CSRF token in.
const CSRFTokenHeader = "X-CSRF-Token"

const csrfContextKey = "csrf_token"

// CSRFMiddleware protects cookie-session requests. Requests that carry a
// valid Bearer token, or no session cookie at all, are not checked: without
// the cookie the browser cannot be tricked into acting for the user.
func CSRFMiddleware(secret []byte, secure bool, tokens *Tokens, sessions *SessionManager) gin.HandlerFunc {
	protect := csrf.Protect(
		secret,
		csrf.Secure(secure),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.Path("/"),
		csrf.RequestHeader(CSRFTokenHeader),
		csrf.ErrorHandler(http.HandlerFunc(csrfErrorHandler)),
	)

	return func(c *gin.Context) {
		if hasValidBearer(c, tokens) || (sessions != nil && !sessions.HasCookie(c.Request)) {
			c.Next()
			return
		}
		if !secure {
			// gorilla/csrf assumes HTTPS and checks the Referer otherwise.
			c.Request = csrf.PlaintextHTTPRequest(c.Request)
		}

		passed := false
		handler := protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			passed = true
			c.Set(csrfContextKey, csrf.Token(r))
			c.Header(CSRFTokenHeader, csrf.Token(r))
			c.Request = r
			c.Next()
		}))
		handler.ServeHTTP(c.Writer, c.Request)
		if !passed {
			c.Abort()
		}
	}
}

func csrfErrorHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write([]byte(`{"error":"CSRF token invalid or missing"}`))
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[7:])
	return token, token != ""
}

func hasValidBearer(c *gin.Context, tokens *Tokens) bool {
	token, ok := bearerToken(c)
	if !ok || tokens == nil {
		return false
	}
	_, err := tokens.Parse(token)
	return err == nil
}

// GetCSRFToken returns the token issued for this request, if any.
func GetCSRFToken(c *gin.Context) string {
	return c.GetString(csrfContextKey)
}

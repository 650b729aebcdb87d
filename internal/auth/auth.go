package auth

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"resumind/internal/errors"
)

// SessionCookie is the browser session cookie name
const SessionCookie = "resumind_session"

// SignInPath is where unauthenticated browser requests are redirected
const SignInPath = "/auth"

// Config holds session settings
type Config struct {
	SigningKey string
	AccessKeys []string
	SessionTTL time.Duration
	Secure     bool
}

// Manager issues and verifies session tokens and guards routes
type Manager struct {
	signingKey []byte
	accessKeys []string
	ttl        time.Duration
	secure     bool
	logger     *errors.Logger
}

// NewManager creates a session manager. A signing key is required;
// with no access keys configured every sign-in attempt fails.
func NewManager(cfg Config, logger *errors.Logger) (*Manager, error) {
	if cfg.SigningKey == "" {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			"session signing key is required", nil)
	}
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{
		signingKey: []byte(cfg.SigningKey),
		accessKeys: cfg.AccessKeys,
		ttl:        ttl,
		secure:     cfg.Secure,
		logger:     logger,
	}, nil
}

// SignIn exchanges a configured access key for a session token
func (m *Manager) SignIn(accessKey string) (string, error) {
	if !m.validAccessKey(accessKey) {
		return "", errors.NewAuthError(errors.ErrCodeUnauthorized,
			"invalid access key", nil)
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    "resumind",
		Subject:   "reviewer",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.signingKey)
	if err != nil {
		return "", errors.NewInternalError(errors.ErrCodeUnauthorized,
			"failed to sign session token", err)
	}
	return token, nil
}

// Verify checks a session token's signature and expiry
func (m *Manager) Verify(tokenString string) error {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{},
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return m.signingKey, nil
		})
	if err != nil || !token.Valid {
		return errors.NewAuthError(errors.ErrCodeUnauthorized,
			"invalid or expired session", err)
	}
	return nil
}

// TTL returns the configured session lifetime
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

func (m *Manager) validAccessKey(key string) bool {
	if key == "" {
		return false
	}
	for _, known := range m.accessKeys {
		if subtle.ConstantTimeCompare([]byte(key), []byte(known)) == 1 {
			return true
		}
	}
	return false
}

// Guard wraps a handler with the session check. Browser requests are
// redirected to the sign-in page with the original path in a next
// parameter; API requests get a 401 JSON body.
func (m *Manager) Guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := m.Verify(sessionToken(r)); err != nil {
			if m.logger != nil {
				m.logger.Debug("Rejected unauthenticated request",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr)
			}
			if wantsHTML(r) {
				redirect := SignInPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
				http.Redirect(w, r, redirect, http.StatusFound)
				return
			}
			writeUnauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SignInHandler exchanges an access key for a session cookie. A next
// parameter, when present, is honored for browser flows.
func (m *Manager) SignInHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		accessKey := r.FormValue("access_key")
		if accessKey == "" {
			var body struct {
				AccessKey string `json:"access_key"`
			}
			if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
				accessKey = body.AccessKey
			}
		}

		token, err := m.SignIn(accessKey)
		if err != nil {
			writeUnauthorized(w)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    token,
			Path:     "/",
			MaxAge:   int(m.ttl.Seconds()),
			HttpOnly: true,
			Secure:   m.secure,
			SameSite: http.SameSiteLaxMode,
		})

		if next := safeNextPath(r.FormValue("next")); next != "" && wantsHTML(r) {
			http.Redirect(w, r, next, http.StatusFound)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]string{"status": "signed_in"}); err != nil && m.logger != nil {
			m.logger.LogError(err, "Failed to write sign-in response")
		}
	}
}

// signInPage is the minimal sign-in form served to browsers. The next
// value round-trips through a hidden field.
const signInPage = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Sign in</title></head>
<body>
<h1>Sign in</h1>
<form method="post" action="/auth/signin">
<input type="hidden" name="next" value="%s">
<label>Access key <input type="password" name="access_key" autofocus></label>
<button type="submit">Sign in</button>
</form>
</body>
</html>
`

// SignInPageHandler serves the sign-in form for browser flows. Visiting
// it with a valid session skips straight to the next target.
func (m *Manager) SignInPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next := safeNextPath(r.URL.Query().Get("next"))
		if m.Verify(sessionToken(r)) == nil && next != "" {
			http.Redirect(w, r, next, http.StatusFound)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, signInPage, html.EscapeString(next))
	}
}

// SignOutHandler clears the session cookie
func (m *Manager) SignOutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   m.secure,
			SameSite: http.SameSiteLaxMode,
		})
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(map[string]string{"status": "signed_out"}); err != nil && m.logger != nil {
			m.logger.LogError(err, "Failed to write sign-out response")
		}
	}
}

func sessionToken(r *http.Request) string {
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return after
	}
	return ""
}

func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}

// safeNextPath accepts only same-site absolute paths for redirects
func safeNextPath(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return ""
	}
	return next
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"type":    string(errors.ErrorTypeAuth),
			"code":    errors.ErrCodeUnauthorized,
			"message": "authentication required",
		},
	})
}

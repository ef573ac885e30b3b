package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/ppmimesir/wisuda/internal/config"
)

const (
	adminCookieName = "admin_session"
	adminIssuer     = "wisuda-admin"
	sessionTTL      = 12 * time.Hour
)

// AdminAuth issues and checks admin sessions. A bcrypt hash takes precedence
// over the plain password when both are configured.
type AdminAuth struct {
	secret   []byte
	hash     []byte
	password string
	secure   bool
	now      func() time.Time
}

func NewAdminAuth(cfg config.Config) *AdminAuth {
	return &AdminAuth{
		secret:   []byte(cfg.JWTSecret),
		hash:     []byte(cfg.AdminPasswordHash),
		password: cfg.AdminPassword,
		secure:   cfg.Production(),
		now:      time.Now,
	}
}

func (a *AdminAuth) checkPassword(pw string) bool {
	if len(a.hash) > 0 {
		return bcrypt.CompareHashAndPassword(a.hash, []byte(pw)) == nil
	}
	if a.password == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(pw), []byte(a.password)) == 1
}

func (a *AdminAuth) issue() (string, time.Time, error) {
	now := a.now()
	exp := now.Add(sessionTTL)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Issuer:    adminIssuer,
		Subject:   "admin",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	s, err := tok.SignedString(a.secret)
	return s, exp, err
}

func (a *AdminAuth) validate(raw string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return a.secret, nil
	}, jwt.WithIssuer(adminIssuer), jwt.WithTimeFunc(a.now))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

func sessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := r.Cookie(adminCookieName); err == nil {
		return c.Value
	}
	return ""
}

// RequireAdmin blocks requests without a valid session cookie or bearer token.
func (a *AdminAuth) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := sessionToken(r)
		if raw == "" || len(a.secret) == 0 {
			writeMessage(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if _, err := a.validate(raw); err != nil {
			writeMessage(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// POST /admin/login with {"password": "..."}
func (a *AdminAuth) Login(env Env) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid_body")
			return
		}
		if len(a.secret) == 0 {
			env.Log.Errorw("admin login refused, JWT_SECRET not set")
			writeMessage(w, http.StatusServiceUnavailable, "admin_disabled")
			return
		}
		if !a.checkPassword(body.Password) {
			env.Log.Warnw("admin login failed", "remote", r.RemoteAddr)
			writeMessage(w, http.StatusUnauthorized, "invalid_password")
			return
		}
		tok, exp, err := a.issue()
		if err != nil {
			env.writeError(w, r, err)
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     adminCookieName,
			Value:    tok,
			Path:     "/",
			HttpOnly: true,
			Secure:   a.secure,
			SameSite: http.SameSiteLaxMode,
			Expires:  exp,
		})
		writeJSON(w, http.StatusOK, map[string]any{"token": tok, "expires_at": exp})
	}
}

// POST /admin/logout
func (a *AdminAuth) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     adminCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   a.secure,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	})
	w.WriteHeader(http.StatusNoContent)
}

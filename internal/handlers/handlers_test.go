package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ppmimesir/wisuda/internal/config"
	"github.com/ppmimesir/wisuda/internal/jobs"
	"github.com/ppmimesir/wisuda/internal/services"
	"github.com/ppmimesir/wisuda/internal/storage"
)

func TestWriteError(t *testing.T) {
	cases := []struct {
		name   string
		prod   bool
		err    error
		status int
		body   string
	}{
		{"validation", false, &services.ValidationError{Keys: []string{services.KeyNameRequired}}, 422, `"validation_failed"`},
		{"closed", false, fmt.Errorf("insert: %w", services.ErrRegistrationClosed), 409, `"registration_closed"`},
		{"not found", false, services.ErrNotFound, 404, `"not_found"`},
		{"missing object", false, storage.ErrNotExist, 404, `"not_found"`},
		{"patch", false, fmt.Errorf("%w: bad", services.ErrInvalidPatch), 400, `"invalid_body"`},
		{"queue full", false, fmt.Errorf("enqueue: %w", jobs.ErrFull), 503, `"queue_full"`},
		{"internal dev", false, errors.New("disk full"), 500, `"detail":"disk full"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := Env{Log: zap.NewNop().Sugar(), Production: tc.prod}
			rec := httptest.NewRecorder()
			env.writeError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tc.err)
			assert.Equal(t, tc.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.body)
		})
	}
}

func TestWriteError_HidesDetailInProduction(t *testing.T) {
	env := Env{Log: zap.NewNop().Sugar(), Production: true}
	rec := httptest.NewRecorder()
	env.writeError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("dsn=secret"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")
}

func TestMessagesFor(t *testing.T) {
	m := messagesFor([]string{services.KeyEmailInvalid, "something_new"})
	assert.Equal(t, errText[services.KeyEmailInvalid], m[services.KeyEmailInvalid])
	assert.Equal(t, "something_new", m["something_new"])
}

func TestAdminAuth_BcryptHashWins(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("dari-hash"), bcrypt.MinCost)
	require.NoError(t, err)
	a := NewAdminAuth(config.Config{JWTSecret: "s", AdminPassword: "plain", AdminPasswordHash: string(hash)})
	assert.True(t, a.checkPassword("dari-hash"))
	assert.False(t, a.checkPassword("plain"))

	a = NewAdminAuth(config.Config{JWTSecret: "s"})
	assert.False(t, a.checkPassword(""), "no password configured means no login")
}

func TestAdminAuth_ExpiredSession(t *testing.T) {
	a := NewAdminAuth(config.Config{JWTSecret: "s", AdminPassword: "pw"})
	issued := time.Now().Add(-2 * sessionTTL)
	a.now = func() time.Time { return issued }
	tok, _, err := a.issue()
	require.NoError(t, err)

	a.now = time.Now
	_, err = a.validate(tok)
	assert.Error(t, err)

	fresh, _, err := a.issue()
	require.NoError(t, err)
	_, err = a.validate(fresh)
	assert.NoError(t, err)

	other := NewAdminAuth(config.Config{JWTSecret: "different"})
	_, err = other.validate(fresh)
	assert.Error(t, err)
}

func TestAdminAuth_Logout(t *testing.T) {
	a := NewAdminAuth(config.Config{JWTSecret: "s"})
	rec := httptest.NewRecorder()
	a.Logout(rec, httptest.NewRequest(http.MethodPost, "/admin/logout", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, adminCookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
}

func TestLogin_DisabledWithoutSecret(t *testing.T) {
	a := NewAdminAuth(config.Config{AdminPassword: "pw"})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/login", jsonBody(t, map[string]string{"password": "pw"}))
	a.Login(Env{Log: zap.NewNop().Sugar()})(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func jsonBody(t *testing.T, v any) *bytes.Reader {
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

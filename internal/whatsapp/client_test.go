package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppmimesir/wisuda/internal/config"
)

func newTestClient(url string, retries int) *Client {
	return NewClient(config.WhatsAppConfig{
		BaseURL:  url,
		Username: "user",
		Password: "secret",
		Retries:  retries,
		Timeout:  5 * time.Second,
	})
}

func TestJID(t *testing.T) {
	assert.Equal(t, "6281234567@s.whatsapp.net", JID("+6281234567"))
	assert.Equal(t, "6281234567@s.whatsapp.net", JID("6281234567"))
	assert.Equal(t, "6281234567@s.whatsapp.net", JID("6281234567@s.whatsapp.net"))
}

func TestSendMessage(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/send/message", r.URL.Path)
		u, p, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "user", u)
		assert.Equal(t, "secret", p)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL, 0).SendMessage(context.Background(), "+6281234567", "halo")
	require.NoError(t, err)
	assert.Equal(t, "6281234567@s.whatsapp.net", got["phone"])
	assert.Equal(t, "halo", got["message"])
	assert.Equal(t, false, got["is_forwarded"])
}

func TestSendFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/send/file", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "6281234567@s.whatsapp.net", r.FormValue("phone"))
		assert.Equal(t, "caption text", r.FormValue("caption"))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		b, _ := io.ReadAll(f)
		assert.Equal(t, "confirmation.pdf", hdr.Filename)
		assert.Equal(t, "%PDF-1.7", string(b))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL, 0).SendFile(context.Background(), "+6281234567", "confirmation.pdf", []byte("%PDF-1.7"), "caption text")
	require.NoError(t, err)
}

func TestNon2xxIsError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "bad phone", http.StatusBadRequest)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL, 3).SendMessage(context.Background(), "123", "x")
	var serr *StatusError
	require.True(t, errors.As(err, &serr), "got %v", err)
	assert.Equal(t, http.StatusBadRequest, serr.Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "4xx must not be retried")
}

func TestRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	err := newTestClient(srv.URL, 2).SendMessage(context.Background(), "123", "x")
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestNotConfigured(t *testing.T) {
	err := newTestClient("", 0).SendMessage(context.Background(), "123", "x")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

// Package whatsapp sends text and documents through a WhatsApp HTTP gateway
// (POST /send/message, POST /send/file) under HTTP Basic auth.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ppmimesir/wisuda/internal/config"
)

const jidSuffix = "@s.whatsapp.net"

var ErrNotConfigured = errors.New("whatsapp: base url not configured")

// StatusError is a non-2xx gateway response.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("whatsapp %s: status %d: %s", e.Op, e.Status, e.Body)
}

type Client struct {
	baseURL  string
	username string
	password string
	retries  uint64
	httpc    *http.Client
}

func NewClient(c config.WhatsAppConfig) *Client {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	retries := c.Retries
	if retries < 0 {
		retries = 0
	}
	return &Client{
		baseURL:  strings.TrimRight(c.BaseURL, "/"),
		username: c.Username,
		password: c.Password,
		retries:  uint64(retries),
		httpc:    &http.Client{Timeout: timeout},
	}
}

// JID turns a phone-like handle into a gateway address: leading "+" dropped,
// fixed domain appended.
func JID(handle string) string {
	h := strings.TrimSpace(handle)
	h = strings.TrimPrefix(h, "+")
	if strings.HasSuffix(h, jidSuffix) {
		return h
	}
	return h + jidSuffix
}

// SendMessage posts a plain text message.
func (c *Client) SendMessage(ctx context.Context, handle, text string) error {
	payload, err := json.Marshal(map[string]any{
		"phone":        JID(handle),
		"message":      text,
		"is_forwarded": false,
		"duration":     0,
	})
	if err != nil {
		return err
	}
	return c.do(ctx, "send/message", func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/send/message", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
}

// SendFile posts a document with a caption as multipart/form-data.
func (c *Client) SendFile(ctx context.Context, handle, filename string, file []byte, caption string) error {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_ = mw.WriteField("phone", JID(handle))
	_ = mw.WriteField("caption", caption)
	_ = mw.WriteField("is_forwarded", "false")
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return err
	}
	if _, err := fw.Write(file); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}
	payload := body.Bytes()
	contentType := mw.FormDataContentType()

	return c.do(ctx, "send/file", func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/send/file", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		return req, nil
	})
}

// do sends the request, retrying network errors and 5xx with exponential
// backoff. 4xx responses are returned at once.
func (c *Client) do(ctx context.Context, op string, build func() (*http.Request, error)) error {
	if c.baseURL == "" {
		return ErrNotConfigured
	}
	attempt := func() error {
		req, err := build()
		if err != nil {
			return backoff.Permanent(err)
		}
		if c.username != "" || c.password != "" {
			req.SetBasicAuth(c.username, c.password)
		}
		resp, err := c.httpc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 300 {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		serr := &StatusError{Op: op, Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
		if resp.StatusCode >= 500 {
			return serr
		}
		return backoff.Permanent(serr)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	return backoff.Retry(attempt, backoff.WithContext(backoff.WithMaxRetries(bo, c.retries), ctx))
}

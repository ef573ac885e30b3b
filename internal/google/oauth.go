// Package google connects an admin Google account and exports the roster to a
// spreadsheet with it.
package google

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	oauthapi "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
	"gorm.io/gorm"

	"github.com/ppmimesir/wisuda/internal/config"
	"github.com/ppmimesir/wisuda/internal/models"
)

var (
	ErrNotConfigured = errors.New("google: client id/secret not configured")
	ErrNotConnected  = errors.New("google: no account connected")
	ErrNoSheet       = errors.New("google: no spreadsheet bound")
)

// Client holds the OAuth configuration and persists the admin token.
type Client struct {
	oauth *oauth2.Config
	db    *gorm.DB
	log   *zap.SugaredLogger

	// endpoint overrides the API base URL; tests point it at httptest.
	endpoint string
}

func New(cfg config.GoogleConfig, conn *gorm.DB, log *zap.SugaredLogger) *Client {
	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Endpoint:     googleoauth.Endpoint,
			Scopes:       []string{sheets.SpreadsheetsScope, oauthapi.UserinfoEmailScope},
		},
		db:  conn,
		log: log,
	}
}

func (c *Client) Configured() bool {
	return c.oauth.ClientID != "" && c.oauth.ClientSecret != ""
}

// NewState returns a random value for the OAuth state cookie.
func NewState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// AuthURL is the consent page. Offline access with forced consent makes
// Google return a refresh token every time.
func (c *Client) AuthURL(state string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	return c.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce), nil
}

// Exchange trades the callback code for a token, looks up the account email
// and stores both, replacing any earlier connection.
func (c *Client) Exchange(ctx context.Context, code string) (*models.GoogleToken, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	tok, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google: exchange: %w", err)
	}

	email := ""
	svc, err := oauthapi.NewService(ctx, c.options(oauth2.StaticTokenSource(tok))...)
	if err == nil {
		var info *oauthapi.Userinfo
		if info, err = svc.Userinfo.Get().Context(ctx).Do(); err == nil {
			email = info.Email
		}
	}
	if err != nil {
		c.log.Warnw("google account email lookup failed", "err", err)
	}

	row := &models.GoogleToken{Email: email}
	applyToken(row, tok)
	err = c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.GoogleToken{}).Error; err != nil {
			return err
		}
		return tx.Create(row).Error
	})
	if err != nil {
		return nil, err
	}
	c.log.Infow("google account connected", "email", email)
	return row, nil
}

// Status describes the current connection for the admin UI.
type Status struct {
	Configured bool                `json:"configured"`
	Connected  bool                `json:"connected"`
	Email      string              `json:"email,omitempty"`
	Sheet      *models.GoogleSheet `json:"sheet,omitempty"`
}

func (c *Client) Status(ctx context.Context) (Status, error) {
	st := Status{Configured: c.Configured()}
	row, err := c.token(ctx)
	switch {
	case errors.Is(err, ErrNotConnected):
	case err != nil:
		return st, err
	default:
		st.Connected, st.Email = true, row.Email
	}
	sheet, err := c.sheet(ctx)
	switch {
	case errors.Is(err, ErrNoSheet):
	case err != nil:
		return st, err
	default:
		st.Sheet = sheet
	}
	return st, nil
}

func (c *Client) token(ctx context.Context) (*models.GoogleToken, error) {
	var row models.GoogleToken
	err := c.db.WithContext(ctx).Order("id DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotConnected
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// tokenSource refreshes the stored token as needed and writes refreshed
// tokens back.
func (c *Client) tokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	row, err := c.token(ctx)
	if err != nil {
		return nil, err
	}
	tok := &oauth2.Token{
		AccessToken:  row.AccessToken,
		RefreshToken: row.RefreshToken,
		TokenType:    row.TokenType,
		Expiry:       row.Expiry,
	}
	return &persistingSource{
		base: c.oauth.TokenSource(ctx, tok),
		last: row.AccessToken,
		save: func(t *oauth2.Token) {
			applyToken(row, t)
			if err := c.db.WithContext(ctx).Save(row).Error; err != nil {
				c.log.Warnw("refreshed google token not saved", "err", err)
				return
			}
			c.log.Infow("google token refreshed", "expiry", t.Expiry)
		},
	}, nil
}

func (c *Client) options(ts oauth2.TokenSource) []option.ClientOption {
	opts := []option.ClientOption{option.WithTokenSource(ts)}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}
	return opts
}

func applyToken(row *models.GoogleToken, t *oauth2.Token) {
	row.AccessToken = t.AccessToken
	if t.RefreshToken != "" {
		row.RefreshToken = t.RefreshToken
	}
	row.TokenType = t.TokenType
	row.Expiry = t.Expiry
}

type persistingSource struct {
	mu   sync.Mutex
	base oauth2.TokenSource
	last string
	save func(*oauth2.Token)
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	t, err := p.base.Token()
	if err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if t.AccessToken != p.last {
		p.last = t.AccessToken
		p.save(t)
	}
	return t, nil
}

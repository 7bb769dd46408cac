package quickbooks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

var (
	ErrNotConfigured = errors.New("quickbooks not configured")
	ErrNotConnected  = errors.New("not connected to quickbooks")
	ErrMissingParams = errors.New("missing code or realmId")
	ErrInvalidState  = errors.New("unknown or expired oauth state")
)

// stateTTL bounds how long a consent round trip may take.
const stateTTL = 10 * time.Minute

type Status struct {
	Connected   bool   `json:"connected"`
	Environment string `json:"environment"`
}

// Client owns the OAuth grant lifecycle and talks to the company API.
type Client struct {
	cfg     Config
	oauth   *oauth2.Config
	store   TokenStore
	http    *http.Client
	baseURL string
	logger  *zap.Logger
	now     func() time.Time

	mu     sync.Mutex
	states map[string]time.Time
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

// WithEndpoints points the client at alternative OAuth and API hosts.
func WithEndpoints(authURL, tokenURL, baseURL string) Option {
	return func(c *Client) {
		c.oauth.Endpoint.AuthURL = authURL
		c.oauth.Endpoint.TokenURL = tokenURL
		c.baseURL = baseURL
	}
}

func NewClient(cfg Config, store TokenStore, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		cfg:     cfg,
		oauth:   cfg.oauth2Config(),
		store:   store,
		http:    &http.Client{Timeout: 15 * time.Second},
		baseURL: cfg.BaseURL(),
		logger:  logger,
		now:     time.Now,
		states:  make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.http)
}

// ConnectURL returns the consent page the user must visit to authorize the app.
// The state it carries is accepted once by Callback within stateTTL.
func (c *Client) ConnectURL() (string, error) {
	if !c.cfg.Configured() {
		return "", ErrNotConfigured
	}
	state := uuid.NewString()

	c.mu.Lock()
	now := c.now()
	for s, exp := range c.states {
		if now.After(exp) {
			delete(c.states, s)
		}
	}
	c.states[state] = now.Add(stateTTL)
	c.mu.Unlock()

	return c.oauth.AuthCodeURL(state), nil
}

func (c *Client) consumeState(state string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	exp, ok := c.states[state]
	if !ok {
		return false
	}
	delete(c.states, state)
	return !c.now().After(exp)
}

// Callback checks the state issued by ConnectURL, exchanges the authorization
// code and stores the grant for realmID.
func (c *Client) Callback(ctx context.Context, code, realmID, state string) error {
	if code == "" || realmID == "" {
		return ErrMissingParams
	}
	if !c.consumeState(state) {
		return ErrInvalidState
	}
	tok, err := c.oauth.Exchange(c.oauthContext(ctx), code)
	if err != nil {
		return fmt.Errorf("token exchange: %w", err)
	}
	if err := c.store.Save(ctx, Token{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    c.expiryOf(tok),
		RealmID:      realmID,
	}); err != nil {
		return err
	}
	c.logger.Info("quickbooks connected", zap.String("realmId", realmID))
	return nil
}

func (c *Client) Status(ctx context.Context) (Status, error) {
	st := Status{Environment: c.cfg.Environment}
	_, err := c.store.Latest(ctx)
	switch {
	case err == nil:
		st.Connected = true
	case errors.Is(err, ErrNotConnected):
	default:
		return Status{}, err
	}
	return st, nil
}

func (c *Client) Disconnect(ctx context.Context) error {
	return c.store.DeleteAll(ctx)
}

// ValidAccessToken returns the newest stored grant, refreshing it first when
// it has expired.
func (c *Client) ValidAccessToken(ctx context.Context) (Token, error) {
	tok, err := c.store.Latest(ctx)
	if err != nil {
		return Token{}, err
	}
	if !tok.expired(c.now()) {
		return tok, nil
	}
	return c.refresh(ctx, tok)
}

// RefreshExpiring refreshes the stored grant when it expires within window.
// It returns ErrNotConnected when there is nothing to refresh.
func (c *Client) RefreshExpiring(ctx context.Context, window time.Duration) error {
	tok, err := c.store.Latest(ctx)
	if err != nil {
		return err
	}
	if tok.expired(c.now().Add(window)) {
		_, err = c.refresh(ctx, tok)
	}
	return err
}

func (c *Client) refresh(ctx context.Context, old Token) (Token, error) {
	src := c.oauth.TokenSource(c.oauthContext(ctx), &oauth2.Token{
		RefreshToken: old.RefreshToken,
		Expiry:       time.Unix(1, 0),
	})
	fresh, err := src.Token()
	if err != nil {
		return Token{}, fmt.Errorf("refresh token: %w", err)
	}

	tok := Token{
		AccessToken:  fresh.AccessToken,
		RefreshToken: fresh.RefreshToken,
		ExpiresAt:    c.expiryOf(fresh),
		RealmID:      old.RealmID,
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = old.RefreshToken
	}
	if err := c.store.Save(ctx, tok); err != nil {
		return Token{}, err
	}
	c.logger.Info("quickbooks token refreshed", zap.Time("expiresAt", tok.ExpiresAt))
	return tok, nil
}

// Intuit access tokens live for an hour; assume that when expires_in is absent.
func (c *Client) expiryOf(t *oauth2.Token) time.Time {
	if t.Expiry.IsZero() {
		return c.now().Add(time.Hour)
	}
	return t.Expiry
}

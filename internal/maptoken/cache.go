// Package maptoken caches the Mappls access token embedded in listing
// pages.
package maptoken

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/iliyamo/lodging-booking/internal/config"
)

const (
	// refreshMargin is how long before expiry a token stops being served.
	refreshMargin = 60 * time.Second
	// defaultLifetime applies when the token response has no expires_in.
	defaultLifetime = 23 * time.Hour
)

// ErrNotConfigured is returned when no client credentials are set.
var ErrNotConfigured = errors.New("maptoken: client credentials not configured")

// Fetcher obtains a fresh token and its lifetime as reported by the issuer.
// The Cache turns the lifetime into an expiry with its own clock.
type Fetcher interface {
	Fetch(ctx context.Context) (token string, expiresIn time.Duration, err error)
}

// Cache hands out one shared token and refreshes it shortly before it
// expires.  Concurrent callers wait for a single refresh.
type Cache struct {
	fetcher  Fetcher
	clientID string
	now      func() time.Time

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// NewCache returns a Cache over f.
func NewCache(f Fetcher, clientID string) *Cache {
	return &Cache{fetcher: f, clientID: clientID, now: time.Now}
}

// WithClock replaces the cache clock.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

// ClientID returns the public client id shown next to the token.
func (c *Cache) ClientID() string { return c.clientID }

// Token returns a token valid for at least refreshMargin.
func (c *Cache) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.expiry.Add(-refreshMargin)) {
		return c.token, nil
	}
	tok, ttl, err := c.fetcher.Fetch(ctx)
	if err != nil {
		return "", err
	}
	if ttl <= 0 {
		ttl = defaultLifetime
	}
	c.token = tok
	c.expiry = c.now().Add(ttl)
	return c.token, nil
}

// OAuthFetcher uses the client credentials grant against the Mappls token
// endpoint.
type OAuthFetcher struct {
	cfg *clientcredentials.Config
}

// NewOAuthFetcher builds a fetcher from cfg.
func NewOAuthFetcher(cfg config.MapplsConfig) *OAuthFetcher {
	return &OAuthFetcher{cfg: &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}}
}

func (f *OAuthFetcher) Fetch(ctx context.Context) (string, time.Duration, error) {
	if f.cfg.ClientID == "" || f.cfg.ClientSecret == "" {
		return "", 0, ErrNotConfigured
	}
	requested := time.Now()
	tok, err := f.cfg.Token(ctx)
	if err != nil {
		return "", 0, err
	}
	if tok.AccessToken == "" {
		return "", 0, errors.New("maptoken: no access token in response")
	}
	return tok.AccessToken, lifetime(tok, requested), nil
}

// lifetime prefers the raw expires_in of the response. Only when it is
// missing does it fall back to the computed Expiry, measured from the
// moment the request was sent. Zero means unknown.
func lifetime(tok *oauth2.Token, requested time.Time) time.Duration {
	if tok.ExpiresIn > 0 {
		return time.Duration(tok.ExpiresIn) * time.Second
	}
	switch v := tok.Extra("expires_in").(type) {
	case float64:
		if v > 0 {
			return time.Duration(v) * time.Second
		}
	case string:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	if tok.Expiry.IsZero() {
		return 0
	}
	if d := tok.Expiry.Sub(requested); d > 0 {
		return d
	}
	return 0
}

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/exp/slog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/youtube/v3"
)

// storedToken is the authorized user file written by the OAuth helper.
type storedToken struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refresh_token"`
	TokenURI     string   `json:"token_uri,omitempty"`
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	Scopes       []string `json:"scopes,omitempty"`
	Expiry       string   `json:"expiry,omitempty"`
}

// LoadTokenSource reads the credentials file at path and returns a token
// source that refreshes the access token when needed and writes refreshed
// tokens back to the file. The source is safe for concurrent use.
func LoadTokenSource(ctx context.Context, path string, logger *slog.Logger) (oauth2.TokenSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("missing credentials at %s: %w", path, err)
	}
	var stored storedToken
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("could not parse credentials at %s: %w", path, err)
	}
	if stored.RefreshToken == "" && stored.Token == "" {
		return nil, fmt.Errorf("credentials at %s contain no token", path)
	}

	endpoint := google.Endpoint
	if stored.TokenURI != "" {
		endpoint.TokenURL = stored.TokenURI
	}
	config := &oauth2.Config{
		ClientID:     stored.ClientID,
		ClientSecret: stored.ClientSecret,
		Endpoint:     endpoint,
		Scopes:       []string{youtube.YoutubeScope},
	}

	tok := &oauth2.Token{
		AccessToken:  stored.Token,
		RefreshToken: stored.RefreshToken,
		TokenType:    "Bearer",
	}
	if expiry, err := time.Parse(time.RFC3339, stored.Expiry); err == nil {
		tok.Expiry = expiry
	} else if stored.RefreshToken != "" {
		// unknown expiry, refresh on first use
		tok.Expiry = time.Now()
	}

	persisting := &persistingSource{
		base:   config.TokenSource(ctx, tok),
		path:   path,
		stored: stored,
		last:   tok.AccessToken,
		logger: logger,
	}

	return oauth2.ReuseTokenSource(tok, persisting), nil
}

type persistingSource struct {
	base   oauth2.TokenSource
	path   string
	mu     sync.Mutex
	stored storedToken
	last   string
	logger *slog.Logger
}

func (p *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken == p.last {
		return tok, nil
	}
	p.last = tok.AccessToken
	p.stored.Token = tok.AccessToken
	if tok.RefreshToken != "" {
		p.stored.RefreshToken = tok.RefreshToken
	}
	if !tok.Expiry.IsZero() {
		p.stored.Expiry = tok.Expiry.UTC().Format(time.RFC3339)
	}

	data, err := json.Marshal(p.stored)
	if err != nil {
		p.logger.Error("could not encode refreshed credentials", slog.String("error", err.Error()))
		return tok, nil
	}
	if err := os.WriteFile(p.path, data, 0o600); err != nil {
		p.logger.Error("could not persist refreshed credentials", slog.String("path", p.path), slog.String("error", err.Error()))
		return tok, nil
	}
	p.logger.Info("persisted refreshed credentials", slog.String("path", p.path))

	return tok, nil
}

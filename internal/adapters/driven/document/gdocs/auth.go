package gdocs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/docs/v1"
)

// Scopes requested for reading and appending to documents.
var Scopes = []string{docs.DocumentsScope}

// Default file names under the docbrain home directory.
const (
	DefaultCredentialsFile = "gdocs_credentials.json"
	DefaultTokenFile       = "gdocs_token.json"
)

// ResolvePaths fills empty credential and token paths with the defaults
// under home.
func ResolvePaths(home, credentialsFile, tokenFile string) (string, string) {
	if credentialsFile == "" {
		credentialsFile = filepath.Join(home, DefaultCredentialsFile)
	}
	if tokenFile == "" {
		tokenFile = filepath.Join(home, DefaultTokenFile)
	}
	return credentialsFile, tokenFile
}

// OAuthConfig loads an installed-app OAuth client from the credentials JSON
// downloaded from the Google Cloud console.
func OAuthConfig(credentialsFile string) (*oauth2.Config, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials %s: %w", credentialsFile, err)
	}
	cfg, err := google.ConfigFromJSON(data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse credentials %s: %w", credentialsFile, err)
	}
	return cfg, nil
}

// LoadToken reads a stored OAuth token.
func LoadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: no Google token at %s, run 'docbrain auth gdocs'", ErrUnauthorized, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read token %s: %w", path, err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("decode token %s: %w", path, err)
	}
	return &tok, nil
}

// SaveToken writes a token with owner-only permissions.
func SaveToken(path string, tok *oauth2.Token) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write token %s: %w", path, err)
	}
	return nil
}

// persistingTokenSource writes refreshed tokens back to disk.
type persistingTokenSource struct {
	base oauth2.TokenSource
	path string

	mu     sync.Mutex
	access string
}

// TokenSource returns a refreshing token source for the stored token.
// Refreshed tokens are saved to tokenFile.
func TokenSource(ctx context.Context, cfg *oauth2.Config, tokenFile string) (oauth2.TokenSource, error) {
	tok, err := LoadToken(tokenFile)
	if err != nil {
		return nil, err
	}
	return &persistingTokenSource{
		base:   cfg.TokenSource(ctx, tok),
		path:   tokenFile,
		access: tok.AccessToken,
	}, nil
}

// Token implements oauth2.TokenSource.
func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := p.base.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if tok.AccessToken != p.access {
		p.access = tok.AccessToken
		if err := SaveToken(p.path, tok); err != nil {
			return nil, err
		}
	}
	return tok, nil
}

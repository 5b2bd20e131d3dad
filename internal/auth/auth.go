// Package auth obtains an authorized HTTP client for the Google Tasks API.
//
// Client credentials come from the OAuth client file downloaded from the
// Google Cloud console. The user token is cached next to it and refreshed
// tokens are written back, so the browser consent runs only once.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// TasksScope grants read/write access to Google Tasks.
const TasksScope = "https://www.googleapis.com/auth/tasks"

var (
	// ErrNoCredentials is returned when the OAuth client file is missing.
	ErrNoCredentials = errors.New("oauth client credentials not found")
	// ErrNoToken is returned when no cached token exists and interactive
	// authorization is not allowed.
	ErrNoToken = errors.New("no cached oauth token; run an interactive command to authorize")
)

// Authenticator builds authorized clients from files on fs.
type Authenticator struct {
	fs              afero.Fs
	credentialsFile string
	tokenFile       string

	// Authorize runs the consent flow when no token is cached.
	// Nil means the flow is not available and ErrNoToken is returned.
	Authorize func(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error)
}

// New creates an Authenticator for the given credential and token paths.
func New(fs afero.Fs, credentialsFile, tokenFile string) *Authenticator {
	return &Authenticator{fs: fs, credentialsFile: credentialsFile, tokenFile: tokenFile}
}

// Config reads the OAuth client configuration.
func (a *Authenticator) Config() (*oauth2.Config, error) {
	data, err := afero.ReadFile(a.fs, a.credentialsFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoCredentials, a.credentialsFile)
		}
		return nil, fmt.Errorf("failed to read credentials: %w", err)
	}
	cfg, err := google.ConfigFromJSON(data, TasksScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials %s: %w", a.credentialsFile, err)
	}
	return cfg, nil
}

// Client returns an HTTP client that injects and refreshes the user token.
func (a *Authenticator) Client(ctx context.Context) (*http.Client, error) {
	cfg, err := a.Config()
	if err != nil {
		return nil, err
	}

	tok, err := a.LoadToken()
	if err != nil {
		return nil, err
	}
	if tok == nil {
		if a.Authorize == nil {
			return nil, ErrNoToken
		}
		if tok, err = a.Authorize(ctx, cfg); err != nil {
			return nil, fmt.Errorf("authorization failed: %w", err)
		}
		if err := a.SaveToken(tok); err != nil {
			return nil, err
		}
	}

	src := &savingSource{
		base: cfg.TokenSource(ctx, tok),
		last: tok.AccessToken,
		save: a.SaveToken,
	}
	return oauth2.NewClient(ctx, oauth2.ReuseTokenSource(tok, src)), nil
}

// LoadToken reads the cached token. Returns nil, nil if none is cached.
func (a *Authenticator) LoadToken() (*oauth2.Token, error) {
	data, err := afero.ReadFile(a.fs, a.tokenFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read token: %w", err)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("failed to parse token %s: %w", a.tokenFile, err)
	}
	return &tok, nil
}

// SaveToken writes tok to the token file with owner-only permissions.
func (a *Authenticator) SaveToken(tok *oauth2.Token) error {
	if err := a.fs.MkdirAll(filepath.Dir(a.tokenFile), 0o700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}
	if err := afero.WriteFile(a.fs, a.tokenFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write token: %w", err)
	}
	return nil
}

// savingSource persists every token whose access token differs from the last one seen.
type savingSource struct {
	base oauth2.TokenSource
	save func(*oauth2.Token) error

	mu   sync.Mutex
	last string
}

func (s *savingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		// A failed save only costs a refresh next run.
		_ = s.save(tok)
	}
	return tok, nil
}

package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const (
	credsPath = "/cfg/credentials.json"
	tokenPath = "/cfg/token.json"
)

// fakeTokenServer issues access tokens "access-1", "access-2", ...
func fakeTokenServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var issued atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := issued.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  fmt.Sprintf("access-%d", n),
			"token_type":    "Bearer",
			"refresh_token": "refresh",
			"expires_in":    3600,
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &issued
}

func writeCredentials(t *testing.T, fs afero.Fs, tokenURL string) {
	t.Helper()
	creds := fmt.Sprintf(`{"installed":{"client_id":"id","client_secret":"secret",`+
		`"auth_uri":"https://accounts.example.com/auth","token_uri":%q,`+
		`"redirect_uris":["http://localhost"]}}`, tokenURL)
	require.NoError(t, afero.WriteFile(fs, credsPath, []byte(creds), 0o600))
}

func TestConfig(t *testing.T) {
	t.Run("missing credentials", func(t *testing.T) {
		_, err := New(afero.NewMemMapFs(), credsPath, tokenPath).Config()
		assert.ErrorIs(t, err, ErrNoCredentials)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fs, credsPath, []byte("{}"), 0o600))
		_, err := New(fs, credsPath, tokenPath).Config()
		assert.Error(t, err)
	})

	t.Run("tasks scope", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeCredentials(t, fs, "https://oauth.example.com/token")
		cfg, err := New(fs, credsPath, tokenPath).Config()
		require.NoError(t, err)
		assert.Equal(t, []string{TasksScope}, cfg.Scopes)
		assert.Equal(t, "id", cfg.ClientID)
	})
}

func TestTokenRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	a := New(fs, credsPath, tokenPath)

	got, err := a.LoadToken()
	require.NoError(t, err)
	assert.Nil(t, got)

	tok := &oauth2.Token{AccessToken: "a", RefreshToken: "r", TokenType: "Bearer"}
	require.NoError(t, a.SaveToken(tok))

	info, err := fs.Stat(tokenPath)
	require.NoError(t, err)
	assert.Equal(t, "-rw-------", info.Mode().Perm().String())

	got, err = a.LoadToken()
	require.NoError(t, err)
	assert.Equal(t, "a", got.AccessToken)
	assert.Equal(t, "r", got.RefreshToken)
}

func TestClient_NoTokenWithoutFlow(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeCredentials(t, fs, "https://oauth.example.com/token")

	_, err := New(fs, credsPath, tokenPath).Client(context.Background())
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestClient_UsesCachedToken(t *testing.T) {
	tokenSrv, issued := fakeTokenServer(t)
	fs := afero.NewMemMapFs()
	writeCredentials(t, fs, tokenSrv.URL)

	a := New(fs, credsPath, tokenPath)
	require.NoError(t, a.SaveToken(&oauth2.Token{
		AccessToken: "cached", TokenType: "Bearer", RefreshToken: "refresh",
		Expiry: time.Now().Add(time.Hour),
	}))

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, r.Header.Get("Authorization"))
	}))
	defer api.Close()

	client, err := a.Client(context.Background())
	require.NoError(t, err)
	resp, err := client.Get(api.URL)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	assert.Equal(t, "Bearer cached", string(body))
	assert.Equal(t, int32(0), issued.Load())
}

func TestClient_RefreshSavesToken(t *testing.T) {
	tokenSrv, _ := fakeTokenServer(t)
	fs := afero.NewMemMapFs()
	writeCredentials(t, fs, tokenSrv.URL)

	a := New(fs, credsPath, tokenPath)
	require.NoError(t, a.SaveToken(&oauth2.Token{
		AccessToken: "stale", TokenType: "Bearer", RefreshToken: "refresh",
		Expiry: time.Now().Add(-time.Hour),
	}))

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer api.Close()

	client, err := a.Client(context.Background())
	require.NoError(t, err)
	resp, err := client.Get(api.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()

	saved, err := a.LoadToken()
	require.NoError(t, err)
	assert.Equal(t, "access-1", saved.AccessToken)
}

func TestLoopbackFlow(t *testing.T) {
	tokenSrv, _ := fakeTokenServer(t)
	fs := afero.NewMemMapFs()
	writeCredentials(t, fs, tokenSrv.URL)

	// Plays the browser: follows the consent URL straight to the redirect.
	open := func(consent string) error {
		u, err := url.Parse(consent)
		if err != nil {
			return err
		}
		q := u.Query()
		redirect := q.Get("redirect_uri") + "?code=the-code&state=" + url.QueryEscape(q.Get("state"))
		resp, err := http.Get(redirect)
		if err != nil {
			return err
		}
		return resp.Body.Close()
	}

	a := New(fs, credsPath, tokenPath)
	a.Authorize = LoopbackFlow(io.Discard, open)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := a.Client(ctx)
	require.NoError(t, err)

	saved, err := a.LoadToken()
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, "access-1", saved.AccessToken)
}

func TestLoopbackFlow_StateMismatch(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeCredentials(t, fs, "https://oauth.example.com/token")
	cfg, err := New(fs, credsPath, tokenPath).Config()
	require.NoError(t, err)

	open := func(consent string) error {
		u, _ := url.Parse(consent)
		resp, err := http.Get(u.Query().Get("redirect_uri") + "?code=x&state=forged")
		if err != nil {
			return err
		}
		return resp.Body.Close()
	}

	_, err = LoopbackFlow(io.Discard, open)(context.Background(), cfg)
	assert.ErrorContains(t, err, "state mismatch")
}

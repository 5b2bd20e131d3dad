package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"golang.org/x/oauth2"
)

// LoopbackFlow returns an Authorize func implementing the installed-app flow:
// it listens on a random 127.0.0.1 port, hands the consent URL to open, and
// exchanges the code delivered to the redirect. Progress goes to w.
func LoopbackFlow(w io.Writer, open func(url string) error) func(context.Context, *oauth2.Config) (*oauth2.Token, error) {
	return func(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error) {
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return nil, fmt.Errorf("failed to listen for redirect: %w", err)
		}
		defer func() { _ = ln.Close() }()

		local := *cfg
		local.RedirectURL = "http://" + ln.Addr().String() + "/"

		state, err := randomState()
		if err != nil {
			return nil, err
		}
		verifier := oauth2.GenerateVerifier()

		type result struct {
			code string
			err  error
		}
		results := make(chan result, 1)
		srv := &http.Server{Handler: http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			var res result
			switch {
			case q.Get("state") != state:
				res.err = errors.New("state mismatch in oauth redirect")
			case q.Get("error") != "":
				res.err = fmt.Errorf("consent denied: %s", q.Get("error"))
			case q.Get("code") == "":
				res.err = errors.New("oauth redirect carried no code")
			default:
				res.code = q.Get("code")
			}
			if res.err != nil {
				http.Error(rw, res.err.Error(), http.StatusBadRequest)
			} else {
				_, _ = io.WriteString(rw, "Authorization complete. You can close this window.\n")
			}
			select {
			case results <- res:
			default:
			}
		})}
		go func() { _ = srv.Serve(ln) }()
		defer func() { _ = srv.Close() }()

		url := local.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.S256ChallengeOption(verifier))
		_, _ = fmt.Fprintf(w, "Open the following URL to authorize taskstodo:\n\n  %s\n\n", url)
		if open != nil {
			_ = open(url)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res := <-results:
			if res.err != nil {
				return nil, res.err
			}
			tok, err := local.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
			if err != nil {
				return nil, fmt.Errorf("failed to exchange code: %w", err)
			}
			return tok, nil
		}
	}
}

func randomState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return hex.EncodeToString(b), nil
}

package store

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gravitational/trace"
	"golang.org/x/oauth2"
)

var errNoCredentials = trace.NotFound("no access token stored")

// Credentials is the access/refresh pair. An empty field means absent.
type Credentials struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// Token converts the pair into an oauth2 Bearer token. When the access token
// is a JWT carrying an exp claim, the expiry is filled in.
func (c *Credentials) Token() *oauth2.Token {
	ret := &oauth2.Token{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		TokenType:    "Bearer",
	}
	if expiry, ok := AccessTokenExpiry(c.AccessToken); ok {
		ret.Expiry = expiry
	}
	return ret
}

// AccessTokenExpiry reads the exp claim of a JWT access token without
// verifying its signature; the server remains the authority on validity.
func AccessTokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Credentials returns the stored pair.
func (s *CredentialStore) Credentials(ctx context.Context) *Credentials {
	ret := &Credentials{}
	ret.AccessToken, _ = s.Get(ctx, AccessTokenKey)
	ret.RefreshToken, _ = s.Get(ctx, RefreshTokenKey)
	return ret
}

// SetCredentials stores the access token, and the refresh token when one is
// given; an empty refresh token keeps the previous one.
func (s *CredentialStore) SetCredentials(ctx context.Context, creds *Credentials) {
	s.Set(ctx, AccessTokenKey, creds.AccessToken)
	if creds.RefreshToken != "" {
		s.Set(ctx, RefreshTokenKey, creds.RefreshToken)
	}
}

// TokenSource exposes the stored access token as an oauth2.TokenSource, so
// the credentials can be handed to libraries built on golang.org/x/oauth2.
func (s *CredentialStore) TokenSource(ctx context.Context) oauth2.TokenSource {
	return &tokenSource{ctx: ctx, store: s}
}

type tokenSource struct {
	ctx   context.Context
	store *CredentialStore
}

func (t *tokenSource) Token() (*oauth2.Token, error) {
	creds := t.store.Credentials(t.ctx)
	if creds.AccessToken == "" {
		return nil, errNoCredentials
	}
	return creds.Token(), nil
}

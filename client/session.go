package client

import (
	"context"
	"errors"
	"net/http"

	"github.com/viant/authclient/client/apierror"
	"github.com/viant/authclient/client/auth/refresh"
	"github.com/viant/authclient/client/auth/store"
	"github.com/viant/authclient/client/auth/transport"
)

// Session endpoint paths.
const (
	LoginPath    = "/auth/login"
	RegisterPath = "/auth/register"
	LogoutPath   = "/auth/logout"
)

type account struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c *Client) Login(ctx context.Context, username, password string) (*store.Credentials, error) {
	return c.openSession(ctx, LoginPath, username, password)
}

func (c *Client) Register(ctx context.Context, username, password string) (*store.Credentials, error) {
	return c.openSession(ctx, RegisterPath, username, password)
}

func (c *Client) openSession(ctx context.Context, path, username, password string) (*store.Credentials, error) {
	resp, err := c.Send(ctx, &Request{Method: http.MethodPost, Path: path, Body: &account{Username: username, Password: password}})
	if err != nil {
		var authErr *apierror.AuthError
		if errors.As(err, &authErr) && authErr.Reason == transport.ReasonExemptRejected {
			// rejected credentials, not an expired session
			message := "invalid username or password"
			if authErr.Err != nil {
				message = authErr.Err.Error()
			}
			return nil, &apierror.RequestError{Status: http.StatusUnauthorized, Message: message}
		}
		return nil, err
	}
	creds, err := refresh.Parse(resp.Body)
	if err != nil {
		return nil, err
	}
	c.store.Set(ctx, store.AccessTokenKey, creds.AccessToken)
	if creds.RefreshToken != "" {
		c.store.Set(ctx, store.RefreshTokenKey, creds.RefreshToken)
	} else {
		c.store.Clear(ctx, store.RefreshTokenKey)
	}
	c.log.WithField("username", username).Info("Session opened")
	return creds, nil
}

// Logout notifies the server, then clears stored credentials and cookies
// whatever the server answered.
func (c *Client) Logout(ctx context.Context) error {
	refreshToken, _ := c.store.Get(ctx, store.RefreshTokenKey)
	request := &Request{Method: http.MethodPost, Path: LogoutPath, Body: struct{}{}}
	if refreshToken != "" {
		request.Header = http.Header{"Authorization": []string{"Bearer " + refreshToken}}
	}
	_, err := c.Send(ctx, request)
	if err != nil {
		c.log.WithError(err).Warn("Logout request failed, clearing local session")
	}
	c.store.ClearAll(ctx)
	if clearer, ok := c.jar.(interface{ Clear(ctx context.Context) error }); ok {
		if cerr := clearer.Clear(ctx); cerr != nil {
			c.log.WithError(cerr).Warn("Failed to clear cookies")
		}
	}
	if apierror.IsAuth(err) {
		return nil
	}
	return err
}

// Package refresh obtains a new access token from the session refresh endpoint.
//
// The endpoint is called with the same-origin session cookie when the
// configuration prefers it, and with the stored refresh token as a Bearer
// credential when one is present. The response carries the new access token
// in "token" and optionally a rotated refresh token in "refreshToken",
// either at the top level or under a "data" envelope.
package refresh

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/gravitational/trace"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/viant/authclient/client/auth/cookie"
	"github.com/viant/authclient/client/auth/store"
)

// DefaultPath is the refresh endpoint path.
const DefaultPath = "/auth/refresh"

const maxBodySize = 1 << 20

// ErrNoRefreshCredential is returned when there is neither a cookie to rely
// on nor a stored refresh token.
var ErrNoRefreshCredential = trace.NotFound("no refresh credential available")

// Config is resolved once per refresh attempt.
type Config struct {
	// PreferCookie sends the same-origin session cookie.
	PreferCookie bool
	// RefreshToken, when not empty, is sent as a Bearer credential.
	RefreshToken string
}

// Refresher exchanges refresh credentials for new credentials.
type Refresher interface {
	Refresh(ctx context.Context, config Config) (*store.Credentials, error)
}

// StatusError reports a non-2xx refresh response.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return "refresh rejected: " + http.StatusText(e.Status)
	}
	return "refresh rejected: " + e.Message
}

type Option func(*Client)

// WithTransport sets the transport used for the refresh call. It must not
// be the authenticated transport itself.
func WithTransport(transport http.RoundTripper) Option {
	return func(c *Client) {
		c.transport = transport
	}
}

// WithCookieJar sets the jar holding the session cookie
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *Client) {
		c.jar = jar
	}
}

// WithLogger sets logger
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// Client calls the refresh endpoint over HTTP.
type Client struct {
	URL       string
	transport http.RoundTripper
	jar       http.CookieJar
	log       logrus.FieldLogger
}

// New creates a Client posting to URL.
func New(URL string, options ...Option) *Client {
	ret := &Client{
		URL:       URL,
		transport: http.DefaultTransport,
		log:       logrus.StandardLogger(),
	}
	for _, opt := range options {
		opt(ret)
	}
	ret.log = ret.log.WithField("component", "refresh")
	return ret
}

func (c *Client) Refresh(ctx context.Context, config Config) (*store.Credentials, error) {
	if !config.PreferCookie && config.RefreshToken == "" {
		return nil, ErrNoRefreshCredential
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader([]byte("{}")))
	if err != nil {
		return nil, trace.Wrap(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if config.RefreshToken != "" {
		req.Header.Set("Authorization", "Bearer "+config.RefreshToken)
	}
	transport := c.transport
	if config.PreferCookie {
		transport = cookie.Wrap(transport, c.jar)
	}
	c.log.WithFields(logrus.Fields{
		"cookie": config.PreferCookie && c.jar != nil,
		"bearer": config.RefreshToken != "",
	}).Debug("Refreshing session")

	resp, err := transport.RoundTrip(req)
	if err != nil {
		return nil, trace.Wrap(err, "calling refresh endpoint")
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, trace.Wrap(err, "reading refresh response")
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Status: resp.StatusCode, Message: Message(body)}
	}
	return Parse(body)
}

// Parse extracts credentials from a refresh (or login) response body.
func Parse(body []byte) (*store.Credentials, error) {
	if !gjson.ValidBytes(body) {
		return nil, trace.BadParameter("refresh response is not valid JSON")
	}
	token := first(body, "data.token", "token")
	if token == "" {
		return nil, trace.BadParameter("refresh response does not contain a token")
	}
	return &store.Credentials{
		AccessToken:  token,
		RefreshToken: first(body, "data.refreshToken", "refreshToken"),
	}, nil
}

// Message extracts a server provided error message, if any.
func Message(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	return first(body, "message", "error", "data.message")
}

func first(body []byte, paths ...string) string {
	for _, result := range gjson.GetManyBytes(body, paths...) {
		if result.Type == gjson.String && result.Str != "" {
			return result.Str
		}
	}
	return ""
}

package client

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/viant/authclient/client/auth/store"
)

// Option represents option
type Option func(c *Client)

// WithStore sets the credential store the session helpers write to
func WithStore(store store.Store) Option {
	return func(c *Client) {
		c.store = store
	}
}

// WithTimeout sets the default request timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
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

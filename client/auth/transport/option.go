package transport

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/viant/authclient/client/auth/metrics"
	"github.com/viant/authclient/client/auth/notify"
	"github.com/viant/authclient/client/auth/refresh"
	"github.com/viant/authclient/client/auth/store"
)

type Option func(*RoundTripper)

// WithStore sets store
func WithStore(store store.Store) Option {
	return func(t *RoundTripper) {
		t.store = store
	}
}

// WithRefresher sets the refresh endpoint client
func WithRefresher(refresher refresh.Refresher) Option {
	return func(t *RoundTripper) {
		t.refresher = refresher
	}
}

// WithNotifier sets the unauthenticated notifier
func WithNotifier(notifier notify.Notifier) Option {
	return func(t *RoundTripper) {
		t.notifier = notifier
	}
}

// WithTransport sets the underlying transport
func WithTransport(transport http.RoundTripper) Option {
	return func(t *RoundTripper) {
		t.transport = transport
	}
}

// WithLogger sets logger
func WithLogger(log logrus.FieldLogger) Option {
	return func(t *RoundTripper) {
		t.log = log
	}
}

// WithMetrics sets metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(t *RoundTripper) {
		t.metrics = m
	}
}

// WithExemptPaths replaces the path substrings that are never decorated nor
// refreshed.
func WithExemptPaths(paths ...string) Option {
	return func(t *RoundTripper) {
		t.exemptPaths = paths
	}
}

// WithRefreshTimeout sets the timeout of the shared refresh call
func WithRefreshTimeout(timeout time.Duration) Option {
	return func(t *RoundTripper) {
		t.refreshTimeout = timeout
	}
}

// WithPreferCookie makes refresh rely on the same-origin session cookie
func WithPreferCookie(preferCookie bool) Option {
	return func(t *RoundTripper) {
		t.preferCookie = preferCookie
	}
}

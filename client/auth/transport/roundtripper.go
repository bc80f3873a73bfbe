// Package transport implements an http.RoundTripper that sends requests as
// the authenticated user.
//
// The stored access token is attached to every request except those
// targeting the session endpoints (login, register, refresh, logout). When a
// decorated request is rejected with 401, a refresh of the session is
// started, or joined when one is already in flight, and the request is
// replayed once with the new access token. When the session cannot be
// recovered, the stored credentials are cleared, an unauthenticated
// notification is emitted and the request fails with *apierror.AuthError.
package transport

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gravitational/trace"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/viant/authclient/client/apierror"
	"github.com/viant/authclient/client/auth/metrics"
	"github.com/viant/authclient/client/auth/notify"
	"github.com/viant/authclient/client/auth/refresh"
	"github.com/viant/authclient/client/auth/store"
)

const (
	// DefaultRefreshTimeout bounds the shared refresh call.
	DefaultRefreshTimeout = 10 * time.Second

	refreshKey = "refresh"
)

// Teardown reasons, also used as notification reasons and metric labels.
const (
	ReasonRefreshFailed  = "refresh failed"
	ReasonRetryRejected  = "retried request unauthorized"
	ReasonExemptRejected = "session endpoint unauthorized"
)

// DefaultExemptPaths lists the session endpoints, matched by substring.
var DefaultExemptPaths = []string{"/auth/login", "/auth/register", "/auth/refresh", "/auth/logout"}

// grant is an access token together with the session epoch it belongs to.
type grant struct {
	token string
	epoch uint64
}

// outcome is the result of the last session transition.
type outcome struct {
	token string
	err   error
}

type RoundTripper struct {
	store          store.Store
	refresher      refresh.Refresher
	notifier       notify.Notifier
	transport      http.RoundTripper
	log            logrus.FieldLogger
	metrics        *metrics.Metrics
	exemptPaths    []string
	refreshTimeout time.Duration
	preferCookie   bool

	// mu guards epoch, last and the join-or-start decision on group.
	mu    sync.Mutex
	epoch uint64
	last  outcome
	group singleflight.Group
}

func New(options ...Option) (*RoundTripper, error) {
	ret := &RoundTripper{
		transport:      http.DefaultTransport,
		store:          store.NewMemoryStore(),
		log:            logrus.StandardLogger(),
		exemptPaths:    DefaultExemptPaths,
		refreshTimeout: DefaultRefreshTimeout,
	}
	for _, opt := range options {
		opt(ret)
	}
	if ret.refresher == nil {
		return nil, trace.BadParameter("missing parameter refresher")
	}
	if ret.transport == nil {
		return nil, trace.BadParameter("missing parameter transport")
	}
	if ret.store == nil {
		return nil, trace.BadParameter("missing parameter store")
	}
	if ret.refreshTimeout <= 0 {
		ret.refreshTimeout = DefaultRefreshTimeout
	}
	if ret.notifier == nil {
		ret.notifier = notify.NewBus(notify.WithLogger(ret.log))
	}
	ret.log = ret.log.WithField("component", "auth-transport")
	return ret, nil
}

func (r *RoundTripper) Store() store.Store {
	return r.store
}

func (r *RoundTripper) Notifier() notify.Notifier {
	return r.notifier
}

// IsExempt reports whether path targets a session endpoint.
func (r *RoundTripper) IsExempt(path string) bool {
	for _, candidate := range r.exemptPaths {
		if candidate != "" && strings.Contains(path, candidate) {
			return true
		}
	}
	return false
}

func (r *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	body, err := readBody(req)
	if err != nil {
		return nil, trace.Wrap(err, "reading request body")
	}
	exempt := r.IsExempt(req.URL.Path)

	// 1) Attach the current access token and remember the session it belongs to.
	outbound := clone(req, body)
	epoch, token := r.session(ctx)
	if !exempt && token != "" {
		outbound.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := r.transport.RoundTrip(outbound)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}
	detail := unauthorizedDetail(resp)
	log := r.log.WithFields(logrus.Fields{"method": req.Method, "path": req.URL.Path, "epoch": epoch})

	// 2) Session endpoints and replayed requests never refresh.
	if exempt {
		return nil, r.terminate(ctx, epoch, ReasonExemptRejected, detail)
	}
	attempt := getAttempt(ctx)
	if attempt != nil && attempt.Retried {
		return nil, r.terminate(ctx, epoch, ReasonRetryRejected, detail)
	}

	// 3) Join or start the shared refresh.
	log.Debug("Request unauthorized, awaiting session refresh")
	granted, err := r.awaitRefresh(ctx, epoch)
	if err != nil {
		return nil, err
	}

	// 4) Replay exactly once.
	r.metrics.Retried()
	if attempt == nil {
		attempt = &Attempt{}
	}
	attempt.Retried = true
	retry := clone(req, body).WithContext(WithAttempt(ctx, attempt))
	retry.Header.Set("Authorization", "Bearer "+granted.token)
	resp, err = r.transport.RoundTrip(retry)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}
	log.WithField("epoch", granted.epoch).Debug("Replayed request unauthorized")
	return nil, r.terminate(ctx, granted.epoch, ReasonRetryRejected, unauthorizedDetail(resp))
}

func (r *RoundTripper) session(ctx context.Context) (uint64, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	token, _ := r.store.Get(ctx, store.AccessTokenKey)
	return r.epoch, token
}

// awaitRefresh returns the access token to replay a request sent under epoch.
func (r *RoundTripper) awaitRefresh(ctx context.Context, epoch uint64) (grant, error) {
	r.mu.Lock()
	if r.epoch != epoch {
		// the session changed after the request was sent, no new refresh
		current := grant{epoch: r.epoch}
		last := r.last
		token, ok := r.store.Get(ctx, store.AccessTokenKey)
		r.mu.Unlock()
		if last.err != nil {
			var authErr *apierror.AuthError
			if errors.As(last.err, &authErr) {
				return grant{}, authErr
			}
			return grant{}, apierror.NewAuthError(ReasonRefreshFailed, http.StatusUnauthorized, last.err)
		}
		if !ok {
			token = last.token
		}
		if token == "" {
			return grant{}, apierror.NewAuthError(ReasonRefreshFailed, http.StatusUnauthorized, nil)
		}
		current.token = token
		return current, nil
	}
	ch := r.group.DoChan(refreshKey, func() (interface{}, error) {
		return r.refresh(ctx)
	})
	r.mu.Unlock()

	select {
	case result := <-ch:
		if result.Err != nil {
			return grant{}, result.Err
		}
		return result.Val.(grant), nil
	case <-ctx.Done():
		return grant{}, trace.Wrap(ctx.Err())
	}
}

// refresh runs once per flight, detached from the cancellation of the
// request that started it.
func (r *RoundTripper) refresh(parent context.Context) (grant, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), r.refreshTimeout)
	defer cancel()

	refreshToken, _ := r.store.Get(ctx, store.RefreshTokenKey)
	creds, err := r.refresher.Refresh(ctx, refresh.Config{PreferCookie: r.preferCookie, RefreshToken: refreshToken})
	r.metrics.Refreshed(err)
	if err == nil {
		r.store.Set(ctx, store.AccessTokenKey, creds.AccessToken)
		if creds.RefreshToken != "" {
			r.store.Set(ctx, store.RefreshTokenKey, creds.RefreshToken)
		}
	}

	r.mu.Lock()
	r.epoch++
	epoch := r.epoch
	if err != nil {
		r.last = outcome{err: err}
	} else {
		r.last = outcome{token: creds.AccessToken}
	}
	r.group.Forget(refreshKey)
	r.mu.Unlock()

	if err != nil {
		r.log.WithError(err).WithField("epoch", epoch).Warn("Session refresh failed")
		r.tearDown(ctx, ReasonRefreshFailed)
		return grant{}, apierror.NewAuthError(ReasonRefreshFailed, http.StatusUnauthorized, err)
	}
	r.log.WithField("epoch", epoch).Debug("Session refreshed")
	return grant{token: creds.AccessToken, epoch: epoch}, nil
}

// terminate ends the session sent under epoch, unless it already ended.
func (r *RoundTripper) terminate(ctx context.Context, epoch uint64, reason, detail string) error {
	var err error
	if detail != "" {
		err = errors.New(detail)
	}
	authErr := apierror.NewAuthError(reason, http.StatusUnauthorized, err)
	r.mu.Lock()
	if r.epoch != epoch {
		r.mu.Unlock()
		return authErr
	}
	r.epoch++
	r.last = outcome{err: authErr}
	r.mu.Unlock()
	r.tearDown(ctx, reason)
	return authErr
}

func (r *RoundTripper) tearDown(ctx context.Context, reason string) {
	r.store.ClearAll(ctx)
	r.metrics.TornDown(reason)
	if r.notifier != nil {
		r.notifier.Emit(ctx, reason)
	}
}

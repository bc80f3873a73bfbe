package mock

import (
	"crypto/rand"
	"crypto/rsa"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gravitational/trace"
)

const (
	// RefreshCookie is the HTTP-only session cookie carrying the refresh token.
	RefreshCookie = "refresh_token"

	defaultAccessTTL = 15 * time.Minute
)

type Option func(*APIService)

// WithUser registers a user
func WithUser(username, password string) Option {
	return func(s *APIService) {
		s.users[username] = password
	}
}

// WithEnvelope wraps response payloads in {"data": ...}
func WithEnvelope(envelope bool) Option {
	return func(s *APIService) {
		s.Envelope = envelope
	}
}

// WithoutRefreshToken stops returning refresh tokens in response bodies, the
// session then relies on the cookie only.
func WithoutRefreshToken() Option {
	return func(s *APIService) {
		s.CookieOnly = true
	}
}

// WithAccessTTL sets access token lifetime
func WithAccessTTL(ttl time.Duration) Option {
	return func(s *APIService) {
		s.AccessTTL = ttl
	}
}

// APIService simulates the dashboard API.
type APIService struct {
	PrivateKey *rsa.PrivateKey
	Issuer     string
	AccessTTL  time.Duration
	Envelope   bool
	CookieOnly bool

	// RefreshHook, when set, runs before each refresh is handled.
	RefreshHook func(r *http.Request)

	LoginHandler    func(w http.ResponseWriter, r *http.Request)
	RegisterHandler func(w http.ResponseWriter, r *http.Request)
	RefreshHandler  func(w http.ResponseWriter, r *http.Request)
	LogoutHandler   func(w http.ResponseWriter, r *http.Request)
	ProfileHandler  func(w http.ResponseWriter, r *http.Request)

	failRefresh  atomic.Bool
	refreshCalls atomic.Int32
	unauthorized atomic.Int32

	mu            sync.Mutex
	generation    int
	users         map[string]string
	refreshTokens map[string]string // token -> username
}

// NewAPIService creates a new mock API service
func NewAPIService(opts ...Option) (*APIService, error) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, trace.Wrap(err, "failed to generate RSA key")
	}
	service := &APIService{
		PrivateKey:    privateKey,
		AccessTTL:     defaultAccessTTL,
		users:         map[string]string{},
		refreshTokens: map[string]string{},
	}
	for _, opt := range opts {
		opt(service)
	}
	return service, nil
}

// Expire invalidates every access token issued so far.
func (m *APIService) Expire() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generation++
}

// RevokeSessions invalidates every refresh token issued so far.
func (m *APIService) RevokeSessions() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshTokens = map[string]string{}
}

// FailRefresh makes the refresh endpoint reject every call with 401.
func (m *APIService) FailRefresh(fail bool) {
	m.failRefresh.Store(fail)
}

// RefreshCalls returns the number of refresh endpoint calls.
func (m *APIService) RefreshCalls() int {
	return int(m.refreshCalls.Load())
}

// Unauthorized returns the number of 401 responses to protected resources.
func (m *APIService) Unauthorized() int {
	return int(m.unauthorized.Load())
}

// Login issues a session for a registered user, for seeding tests.
func (m *APIService) Login(username string) (access, refresh string, err error) {
	return m.issue(username)
}

func (m *APIService) issue(username string) (string, string, error) {
	m.mu.Lock()
	generation := m.generation
	m.mu.Unlock()
	access, err := m.createJWT(username, accessTokenType, generation, m.AccessTTL)
	if err != nil {
		return "", "", err
	}
	refresh, err := m.createJWT(username, refreshTokenType, generation, 24*time.Hour)
	if err != nil {
		return "", "", err
	}
	m.mu.Lock()
	m.refreshTokens[refresh] = username
	m.mu.Unlock()
	return access, refresh, nil
}

// Register registers HTTP handlers for all mock endpoints onto the given ServeMux.
func (m *APIService) Register(mux *http.ServeMux) {
	mux.Handle("/", &Handler{Server: m})
}

// Handler returns an http.Handler for all mock endpoints, suitable for any HTTP server.
func (m *APIService) Handler() http.Handler {
	mux := http.NewServeMux()
	m.Register(mux)
	return mux
}

package authclient

import (
	"context"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/gravitational/trace"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/viant/afs/url"

	"github.com/viant/authclient/client"
	"github.com/viant/authclient/client/auth/cookie"
	"github.com/viant/authclient/client/auth/metrics"
	"github.com/viant/authclient/client/auth/notify"
	"github.com/viant/authclient/client/auth/notify/amqp"
	"github.com/viant/authclient/client/auth/refresh"
	"github.com/viant/authclient/client/auth/store"
	"github.com/viant/authclient/client/auth/store/diskv"
	"github.com/viant/authclient/client/auth/store/sqlite"
	authtransport "github.com/viant/authclient/client/auth/transport"
)

// Store kinds.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreDiskv  = "diskv"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultNamespace  = "authclient"
	defaultRoutingKey = "session.unauthenticated"
)

// ClientOptions
//
// defines options for configuring an authenticated API client.
type ClientOptions struct {
	BaseURL        string        `yaml:"baseURL" json:"baseURL,omitempty"  short:"u" long:"url" description:"api base url"`
	Timeout        time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"  long:"timeout" description:"default request timeout"`
	RefreshTimeout time.Duration `yaml:"refreshTimeout,omitempty" json:"refreshTimeout,omitempty"  long:"refresh-timeout" description:"shared refresh timeout"`
	RefreshPath    string        `yaml:"refreshPath,omitempty" json:"refreshPath,omitempty"  long:"refresh-path" description:"refresh endpoint path"`
	ExemptPaths    []string      `yaml:"exemptPaths,omitempty" json:"exemptPaths,omitempty"  long:"exempt" description:"session endpoint path substrings"`
	PreferCookie   bool          `yaml:"preferCookie,omitempty" json:"preferCookie,omitempty"  long:"prefer-cookie" description:"refresh with the session cookie"`
	NotifyInterval time.Duration `yaml:"notifyInterval,omitempty" json:"notifyInterval,omitempty"  long:"notify-interval" description:"minimum interval between unauthenticated notifications"`
	CookieJarURL   string        `yaml:"cookieJarURL,omitempty" json:"cookieJarURL,omitempty"  long:"cookie-jar" description:"cookie jar snapshot url"`
	LogLevel       string        `yaml:"logLevel,omitempty" json:"logLevel,omitempty"  short:"l" long:"log-level" description:"log level"`
	Store          ClientStore   `yaml:"store,omitempty" json:"store,omitempty" group:"store" namespace:"store"`
	AMQP           *ClientAMQP   `yaml:"amqp,omitempty" json:"amqp,omitempty"`

	// Registerer, if set, receives the client metrics.
	Registerer prometheus.Registerer `yaml:"-" json:"-"`
	// Clock drives the notification rate limit.
	Clock clockwork.Clock `yaml:"-" json:"-"`
	// Transport is the underlying transport, http.DefaultTransport by default.
	Transport http.RoundTripper `yaml:"-" json:"-"`
}

// ClientStore defines where credentials are kept.
type ClientStore struct {
	Kind      string `yaml:"kind,omitempty" json:"kind,omitempty"  long:"kind" description:"credential store kind" choice:"memory" choice:"file" choice:"sqlite" choice:"diskv"`
	URL       string `yaml:"url,omitempty" json:"url,omitempty"  long:"url" description:"credential store location (afs url, sqlite file or diskv directory)"`
	Namespace string `yaml:"namespace,omitempty" json:"namespace,omitempty"  long:"namespace" description:"credential slot namespace"`
}

// ClientAMQP defines the broker receiving unauthenticated notifications.
type ClientAMQP struct {
	URL        string `yaml:"url" json:"url"`
	Exchange   string `yaml:"exchange" json:"exchange"`
	RoutingKey string `yaml:"routingKey,omitempty" json:"routingKey,omitempty"`
}

// CheckAndSetDefaults validates options and sets defaults.
func (c *ClientOptions) CheckAndSetDefaults() error {
	if c.BaseURL == "" {
		return trace.BadParameter("missing parameter baseURL")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return trace.BadParameter("baseURL %q must be an http(s) url", c.BaseURL)
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.RefreshTimeout <= 0 {
		c.RefreshTimeout = authtransport.DefaultRefreshTimeout
	}
	if c.RefreshPath == "" {
		c.RefreshPath = refresh.DefaultPath
	}
	if len(c.ExemptPaths) == 0 {
		c.ExemptPaths = authtransport.DefaultExemptPaths
	}
	if c.NotifyInterval <= 0 {
		c.NotifyInterval = notify.DefaultMinInterval
	}
	if c.LogLevel == "" {
		c.LogLevel = logrus.InfoLevel.String()
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return trace.BadParameter("invalid log level %q", c.LogLevel)
	}
	if c.Store.Kind == "" {
		c.Store.Kind = StoreMemory
	}
	if c.Store.Namespace == "" {
		c.Store.Namespace = defaultNamespace
	}
	switch c.Store.Kind {
	case StoreMemory:
	case StoreFile, StoreSQLite, StoreDiskv:
		if c.Store.URL == "" {
			return trace.BadParameter("missing parameter store url for %v store", c.Store.Kind)
		}
	default:
		return trace.BadParameter("unsupported store kind %q", c.Store.Kind)
	}
	if c.AMQP != nil {
		if c.AMQP.URL == "" || c.AMQP.Exchange == "" {
			return trace.BadParameter("amqp requires url and exchange")
		}
		if c.AMQP.RoutingKey == "" {
			c.AMQP.RoutingKey = defaultRoutingKey
		}
	}
	if c.Clock == nil {
		c.Clock = clockwork.NewRealClock()
	}
	if c.Transport == nil {
		c.Transport = http.DefaultTransport
	}
	return nil
}

// Client is an API client with its wired session components.
type Client struct {
	*client.Client
	Transport   *authtransport.RoundTripper
	Credentials *store.CredentialStore
	Bus         *notify.Bus
	Metrics     *metrics.Metrics
	Jar         http.CookieJar
	closers     []io.Closer
}

// NewClient creates an authenticated API client configured via ClientOptions.
func NewClient(ctx context.Context, options *ClientOptions) (*Client, error) {
	if err := options.CheckAndSetDefaults(); err != nil {
		return nil, err
	}
	logger := logrus.New()
	level, _ := logrus.ParseLevel(options.LogLevel)
	logger.SetLevel(level)
	ret := &Client{}

	backend, err := ret.backend(options)
	if err != nil {
		return nil, err
	}
	ret.Credentials = store.New(backend, store.WithNamespace(options.Store.Namespace), store.WithLogger(logger))

	ret.Jar, err = newJar(ctx, options.CookieJarURL)
	if err != nil {
		ret.Close()
		return nil, err
	}

	ret.Bus = notify.NewBus(notify.WithClock(options.Clock), notify.WithMinInterval(options.NotifyInterval), notify.WithLogger(logger))
	if options.AMQP != nil {
		publisher, err := amqp.Dial(options.AMQP.URL, options.AMQP.Exchange, options.AMQP.RoutingKey)
		if err != nil {
			ret.Close()
			return nil, trace.Wrap(err, "connecting to amqp broker")
		}
		ret.closers = append(ret.closers, publisher)
		ret.Bus.Subscribe(publisher.Publish)
	}

	if options.Registerer != nil {
		if ret.Metrics, err = metrics.New(options.Registerer); err != nil {
			ret.Close()
			return nil, err
		}
	}

	refresher := refresh.New(url.Join(options.BaseURL, options.RefreshPath),
		refresh.WithTransport(options.Transport),
		refresh.WithCookieJar(ret.Jar),
		refresh.WithLogger(logger))
	ret.Transport, err = authtransport.New(
		authtransport.WithStore(ret.Credentials),
		authtransport.WithRefresher(refresher),
		authtransport.WithNotifier(ret.Bus),
		authtransport.WithTransport(options.Transport),
		authtransport.WithLogger(logger),
		authtransport.WithMetrics(ret.Metrics),
		authtransport.WithExemptPaths(options.ExemptPaths...),
		authtransport.WithRefreshTimeout(options.RefreshTimeout),
		authtransport.WithPreferCookie(options.PreferCookie),
	)
	if err != nil {
		ret.Close()
		return nil, err
	}
	ret.Client = client.New(options.BaseURL, ret.Transport,
		client.WithStore(ret.Credentials),
		client.WithCookieJar(ret.Jar),
		client.WithTimeout(options.Timeout),
		client.WithLogger(logger))
	return ret, nil
}

func (c *Client) backend(options *ClientOptions) (store.Backend, error) {
	switch options.Store.Kind {
	case StoreFile:
		return store.NewFileBackend(options.Store.URL), nil
	case StoreSQLite:
		backend, err := sqlite.New(options.Store.URL)
		if err != nil {
			return nil, trace.Wrap(err, "opening sqlite store")
		}
		c.closers = append(c.closers, backend)
		return backend, nil
	case StoreDiskv:
		return diskv.New(options.Store.URL), nil
	}
	return nil, nil
}

func newJar(ctx context.Context, URL string) (http.CookieJar, error) {
	if URL == "" {
		jar, err := cookiejar.New(nil)
		return jar, trace.Wrap(err)
	}
	jar, err := cookie.NewFileJar(ctx, URL)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	return jar, nil
}

// Close releases the store and broker connections.
func (c *Client) Close() error {
	var errs []error
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return trace.NewAggregate(errs...)
}

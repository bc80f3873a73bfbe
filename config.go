package authclient

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gravitational/trace"
	"github.com/joho/godotenv"
	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. AUTHCLIENT_BASE_URL.
const EnvPrefix = "AUTHCLIENT_"

// LoadOptions reads options from a YAML file (any afs URL, optional), then
// applies environment overrides. Variables from a .env file in the working
// directory are loaded first without overriding the process environment.
func LoadOptions(ctx context.Context, URL string) (*ClientOptions, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, trace.Wrap(err, "loading .env")
	}
	options := &ClientOptions{}
	if URL != "" {
		data, err := afs.New().DownloadWithURL(ctx, URL)
		if err != nil {
			return nil, trace.Wrap(err, "reading config %v", URL)
		}
		if err = yaml.Unmarshal(data, options); err != nil {
			return nil, trace.BadParameter("invalid config %v: %v", URL, err)
		}
	}
	if err := options.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return options, nil
}

func (c *ClientOptions) applyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, target *string) {
		if value, ok := lookup(EnvPrefix + name); ok && value != "" {
			*target = value
		}
	}
	duration := func(name string, target *time.Duration) error {
		value, ok := lookup(EnvPrefix + name)
		if !ok || value == "" {
			return nil
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return trace.BadParameter("invalid %v%v: %v", EnvPrefix, name, err)
		}
		*target = d
		return nil
	}
	str("BASE_URL", &c.BaseURL)
	str("REFRESH_PATH", &c.RefreshPath)
	str("COOKIE_JAR_URL", &c.CookieJarURL)
	str("LOG_LEVEL", &c.LogLevel)
	str("STORE_KIND", &c.Store.Kind)
	str("STORE_URL", &c.Store.URL)
	str("STORE_NAMESPACE", &c.Store.Namespace)
	if value, ok := lookup(EnvPrefix + "EXEMPT_PATHS"); ok && value != "" {
		c.ExemptPaths = strings.Split(value, ",")
	}
	if value, ok := lookup(EnvPrefix + "PREFER_COOKIE"); ok && value != "" {
		preferCookie, err := strconv.ParseBool(value)
		if err != nil {
			return trace.BadParameter("invalid %vPREFER_COOKIE: %v", EnvPrefix, err)
		}
		c.PreferCookie = preferCookie
	}
	for name, target := range map[string]*time.Duration{
		"TIMEOUT":         &c.Timeout,
		"REFRESH_TIMEOUT": &c.RefreshTimeout,
		"NOTIFY_INTERVAL": &c.NotifyInterval,
	} {
		if err := duration(name, target); err != nil {
			return err
		}
	}
	if value, ok := lookup(EnvPrefix + "AMQP_URL"); ok && value != "" {
		if c.AMQP == nil {
			c.AMQP = &ClientAMQP{}
		}
		c.AMQP.URL = value
		str("AMQP_EXCHANGE", &c.AMQP.Exchange)
		str("AMQP_ROUTING_KEY", &c.AMQP.RoutingKey)
	}
	return nil
}

package cookie

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/cookiejar"
	neturl "net/url"
	"strings"
	"sync"
	"time"

	"github.com/gravitational/trace"
	"github.com/sirupsen/logrus"
	"github.com/viant/afs"
)

// FileJar is a cookiejar.Jar whose cookies are written to a JSON snapshot
// (any viant/afs URL) on each update and reloaded on startup, so a refresh
// cookie survives CLI restarts.
type FileJar struct {
	mu    sync.Mutex
	inner *cookiejar.Jar
	URL   string
	fs    afs.Service
	index map[string]persistedCookie
	log   logrus.FieldLogger
}

type persistedCookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Domain   string    `json:"domain"`
	HostOnly bool      `json:"hostOnly,omitempty"`
	Path     string    `json:"path"`
	Expires  time.Time `json:"expires"`
	Secure   bool      `json:"secure"`
	HttpOnly bool      `json:"httpOnly"`
}

func (p *persistedCookie) key() string {
	return p.Domain + "|" + p.Path + "|" + p.Name
}

func (p *persistedCookie) expired(now time.Time) bool {
	return !p.Expires.IsZero() && now.After(p.Expires)
}

type snapshot struct {
	Cookies []persistedCookie `json:"cookies"`
}

// NewFileJar creates a cookie jar persisted at URL.
func NewFileJar(ctx context.Context, URL string) (*FileJar, error) {
	inner, err := cookiejar.New(nil)
	if err != nil {
		return nil, trace.Wrap(err)
	}
	j := &FileJar{
		inner: inner,
		URL:   URL,
		fs:    afs.New(),
		index: map[string]persistedCookie{},
		log:   logrus.WithField("component", "cookie-jar"),
	}
	if err = j.load(ctx); err != nil {
		return nil, trace.Wrap(err, "loading cookies from %v", URL)
	}
	return j, nil
}

func (j *FileJar) Cookies(u *neturl.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.inner.Cookies(u)
}

func (j *FileJar) SetCookies(u *neturl.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.inner.SetCookies(u, cookies)
	now := time.Now()
	for _, c := range cookies {
		pc := persistedCookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   strings.TrimPrefix(strings.TrimSpace(c.Domain), "."),
			Path:     c.Path,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		}
		if pc.Domain == "" {
			pc.Domain = hostname(u)
			pc.HostOnly = true
		}
		if pc.Path == "" {
			pc.Path = "/"
		}
		if c.MaxAge > 0 {
			pc.Expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}
		if c.MaxAge < 0 || pc.expired(now) {
			delete(j.index, pc.key())
			continue
		}
		j.index[pc.key()] = pc
	}
	if err := j.save(context.Background()); err != nil {
		j.log.WithError(err).Warn("Failed to persist cookies")
	}
}

// Clear drops every cookie, e.g. on logout.
func (j *FileJar) Clear(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	inner, err := cookiejar.New(nil)
	if err != nil {
		return trace.Wrap(err)
	}
	j.inner = inner
	j.index = map[string]persistedCookie{}
	return j.save(ctx)
}

func (j *FileJar) save(ctx context.Context) error {
	snap := snapshot{}
	now := time.Now()
	for _, pc := range j.index {
		if pc.expired(now) {
			continue
		}
		snap.Cookies = append(snap.Cookies, pc)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return trace.Wrap(err)
	}
	return trace.Wrap(j.fs.Upload(ctx, j.URL, 0o600, bytes.NewReader(data)))
}

func (j *FileJar) load(ctx context.Context) error {
	exists, err := j.fs.Exists(ctx, j.URL)
	if err != nil || !exists {
		return trace.Wrap(err)
	}
	data, err := j.fs.DownloadWithURL(ctx, j.URL)
	if err != nil {
		return trace.Wrap(err)
	}
	var snap snapshot
	if err = json.Unmarshal(data, &snap); err != nil {
		return trace.Wrap(err)
	}
	now := time.Now()
	for _, pc := range snap.Cookies {
		if pc.expired(now) || pc.Domain == "" {
			continue
		}
		scheme := "http"
		if pc.Secure {
			scheme = "https"
		}
		cookie := &http.Cookie{
			Name:     pc.Name,
			Value:    pc.Value,
			Path:     pc.Path,
			Expires:  pc.Expires,
			Secure:   pc.Secure,
			HttpOnly: pc.HttpOnly,
		}
		if !pc.HostOnly {
			cookie.Domain = pc.Domain
		}
		j.inner.SetCookies(&neturl.URL{Scheme: scheme, Host: pc.Domain, Path: pc.Path}, []*http.Cookie{cookie})
		j.index[pc.key()] = pc
	}
	return nil
}

func hostname(u *neturl.URL) string {
	host := u.Host
	if h, _, err := net.SplitHostPort(host); err == nil && h != "" {
		host = h
	}
	return host
}

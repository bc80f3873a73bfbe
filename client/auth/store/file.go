package store

import (
	"bytes"
	"context"
	"strings"

	"github.com/gravitational/trace"
	"github.com/viant/afs"
	"github.com/viant/afs/url"
)

const fileMode = 0o600

// FileBackend persists each credential as a separate object under a base
// URL. Any scheme supported by viant/afs works, e.g. file:///home/me/.authclient
// or mem://localhost/creds for tests.
type FileBackend struct {
	baseURL string
	fs      afs.Service
}

// NewFileBackend creates a Backend rooted at baseURL.
func NewFileBackend(baseURL string) *FileBackend {
	return &FileBackend{baseURL: baseURL, fs: afs.New()}
}

func (f *FileBackend) objectURL(key string) string {
	return url.Join(f.baseURL, key)
}

func (f *FileBackend) Load(ctx context.Context, key string) (string, error) {
	URL := f.objectURL(key)
	exists, err := f.fs.Exists(ctx, URL)
	if err != nil {
		return "", trace.Wrap(err)
	}
	if !exists {
		return "", trace.NotFound("credential %q not found", key)
	}
	data, err := f.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return "", trace.Wrap(err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (f *FileBackend) Save(ctx context.Context, key, value string) error {
	return trace.Wrap(f.fs.Upload(ctx, f.objectURL(key), fileMode, bytes.NewReader([]byte(value))))
}

func (f *FileBackend) Delete(ctx context.Context, key string) error {
	URL := f.objectURL(key)
	exists, err := f.fs.Exists(ctx, URL)
	if err != nil {
		return trace.Wrap(err)
	}
	if !exists {
		return nil
	}
	return trace.Wrap(f.fs.Delete(ctx, URL))
}

// Package diskv provides a disk-backed credential backend with a small
// read cache.
package diskv

import (
	"context"

	"github.com/gravitational/trace"
	"github.com/peterbourgon/diskv/v3"
)

// cacheSizeMaxBytes bounds the in-memory read cache; two tokens fit easily.
const cacheSizeMaxBytes = 16 * 1024

// Backend keeps one file per credential under a base directory.
type Backend struct {
	dv *diskv.Diskv
}

// New creates a Backend rooted at dir.
func New(dir string) *Backend {
	// put all the data files into the base dir
	flatTransform := func(s string) []string { return []string{} }
	return &Backend{dv: diskv.New(diskv.Options{
		BasePath:     dir,
		Transform:    flatTransform,
		CacheSizeMax: cacheSizeMaxBytes,
		FilePerm:     0o600,
		PathPerm:     0o700,
	})}
}

func (b *Backend) Load(_ context.Context, key string) (string, error) {
	if !b.dv.Has(key) {
		return "", trace.NotFound("credential %q not found", key)
	}
	data, err := b.dv.Read(key)
	if err != nil {
		return "", trace.Wrap(err)
	}
	return string(data), nil
}

func (b *Backend) Save(_ context.Context, key, value string) error {
	return trace.Wrap(b.dv.Write(key, []byte(value)))
}

func (b *Backend) Delete(_ context.Context, key string) error {
	if !b.dv.Has(key) {
		return nil
	}
	return trace.Wrap(b.dv.Erase(key))
}

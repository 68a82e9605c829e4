// Package storage abstracts where uploaded logos live: a local
// directory in development, an S3-compatible bucket in production.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ObjectStore stores uploaded files and hands back a URL the browser
// can fetch.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, key string) error
}

// DiskStore writes objects under Dir and serves them from BaseURL
// (the server mounts Dir on /uploads/).
type DiskStore struct {
	Dir     string
	BaseURL string
}

func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *DiskStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) (string, error) {
	name := filepath.Base(key)
	f, err := os.Create(filepath.Join(s.Dir, name))
	if err != nil {
		return "", fmt.Errorf("create object: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("write object: %w", err)
	}
	return s.BaseURL + "/uploads/" + name, nil
}

func (s *DiskStore) Remove(_ context.Context, key string) error {
	err := os.Remove(filepath.Join(s.Dir, filepath.Base(key)))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// KeyFromURL recovers the object key from a URL this store produced.
func KeyFromURL(url string) string {
	if i := strings.LastIndex(url, "/"); i >= 0 {
		return url[i+1:]
	}
	return url
}

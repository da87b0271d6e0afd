// Package local stores blobs in a directory served by the HTTP server.
package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mrlokans/bookshare/internal/storage"
)

// Client implements storage.Client on the local filesystem.
type Client struct {
	dir     string
	baseURL string
}

func NewClient(dir, baseURL string) (*Client, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: local directory is empty", storage.ErrNotConfigured)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Client{dir: dir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Dir is the directory to serve under the public base URL.
func (c *Client) Dir() string {
	return c.dir
}

func (c *Client) Upload(ctx context.Context, content io.Reader, _, folder, filename string) (string, error) {
	object := storage.ObjectName(folder, filename)
	target := filepath.Join(c.dir, filepath.FromSlash(object))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("failed to create folder: %w", err)
	}

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		os.Remove(target)
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close file: %w", err)
	}
	return c.baseURL + "/" + object, nil
}

// Delete removes the object. A missing object is not an error.
func (c *Client) Delete(ctx context.Context, pathOrURL string) error {
	object := storage.ExtractObjectPath(c.baseURL, pathOrURL)
	if object == "" {
		return fmt.Errorf("empty object path")
	}
	err := os.Remove(filepath.Join(c.dir, filepath.FromSlash(object)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
